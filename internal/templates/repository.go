package templates

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists email templates.
type Repository interface {
	Upsert(ctx context.Context, t EmailTemplate) (*EmailTemplate, error)
	GetByName(ctx context.Context, name string) (*EmailTemplate, error)
	List(ctx context.Context) ([]EmailTemplate, error)
	Delete(ctx context.Context, name string) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Upsert(ctx context.Context, t EmailTemplate) (*EmailTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO email_templates (name, subject, body, created_at, updated_at)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET subject = $2, body = $3, updated_at = NOW()
		RETURNING id, name, subject, body, created_at, updated_at
	`, t.Name, t.Subject, t.Body)
	return scanTemplate(row)
}

func (r *repository) GetByName(ctx context.Context, name string) (*EmailTemplate, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, subject, body, created_at, updated_at
		FROM email_templates WHERE name = $1
	`, name)
	return scanTemplate(row)
}

func (r *repository) List(ctx context.Context) ([]EmailTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, subject, body, created_at, updated_at
		FROM email_templates ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EmailTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *repository) Delete(ctx context.Context, name string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM email_templates WHERE name = $1`, name)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanTemplate(row pgx.Row) (*EmailTemplate, error) {
	var t EmailTemplate
	err := row.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrDuplicateName
		}
		return nil, err
	}
	return &t, nil
}
