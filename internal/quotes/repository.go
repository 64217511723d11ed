package quotes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("quote not found")
	ErrDuplicateSlug = errors.New("slug already in use")
)

// Repository persists quote aggregates. The header is columnar for list
// queries; items, settings and versions travel in the details JSONB payload.
type Repository interface {
	Create(ctx context.Context, q Quote) (int64, error)
	Update(ctx context.Context, q Quote) error
	GetByID(ctx context.Context, id int64) (*Quote, error)
	GetBySlug(ctx context.Context, slug string) (*Quote, error)
	List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error)
	Delete(ctx context.Context, id int64) error

	// ApplyDecision writes the decided aggregate back conditioned on the row
	// still being undecided, so two racing clients cannot both win.
	ApplyDecision(ctx context.Context, q Quote) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const quoteColumns = `id, slug, client_name, client_email, invoice_type, event_title,
	event_date, event_time, event_location, prepared_by, status, total_amount,
	details, accepted_at, rejected_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, q Quote) (int64, error) {
	details, err := json.Marshal(q.Details)
	if err != nil {
		return 0, fmt.Errorf("marshal details: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx, `
		INSERT INTO quotes (slug, client_name, client_email, invoice_type, event_title,
			event_date, event_time, event_location, prepared_by, status, total_amount,
			details, accepted_at, rejected_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING id
	`, q.Slug, q.ClientName, q.ClientEmail, q.InvoiceType, q.EventTitle,
		q.EventDate, q.EventTime, q.EventLocation, q.PreparedBy, q.Status, q.TotalAmount,
		details, q.AcceptedAt, q.RejectedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateSlug
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) Update(ctx context.Context, q Quote) error {
	details, err := json.Marshal(q.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET client_name = $2, client_email = $3, invoice_type = $4, event_title = $5,
			event_date = $6, event_time = $7, event_location = $8, prepared_by = $9,
			status = $10, total_amount = $11, details = $12, accepted_at = $13,
			rejected_at = $14, updated_at = NOW()
		WHERE id = $1
	`, q.ID, q.ClientName, q.ClientEmail, q.InvoiceType, q.EventTitle,
		q.EventDate, q.EventTime, q.EventLocation, q.PreparedBy,
		q.Status, q.TotalAmount, details, q.AcceptedAt, q.RejectedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE id = $1`, id)
	return scanQuote(row)
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*Quote, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+quoteColumns+` FROM quotes WHERE slug = $1`, slug)
	return scanQuote(row)
}

func (r *repository) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	conditions := []string{"TRUE"}
	var args []interface{}
	argPos := 1

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Decision != nil {
		switch *req.Decision {
		case DecisionAccepted:
			conditions = append(conditions, "accepted_at IS NOT NULL")
		case DecisionRejected:
			conditions = append(conditions, "rejected_at IS NOT NULL")
		case DecisionPending:
			conditions = append(conditions, "accepted_at IS NULL AND rejected_at IS NULL")
		}
	}

	whereClause := "WHERE " + conditions[0]
	for i := 1; i < len(conditions); i++ {
		whereClause += " AND " + conditions[i]
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM quotes %s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM quotes %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		quoteColumns, whereClause, argPos, argPos+1)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Quote
	for rows.Next() {
		q, err := scanQuote(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *q)
	}
	return out, total, rows.Err()
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM quotes WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ApplyDecision(ctx context.Context, q Quote) error {
	details, err := json.Marshal(q.Details)
	if err != nil {
		return fmt.Errorf("marshal details: %w", err)
	}
	// Compare-and-set: the row must still be undecided. Two browser tabs
	// racing the same submission leave exactly one winner.
	tag, err := r.pool.Exec(ctx, `
		UPDATE quotes
		SET client_name = $2, client_email = $3, total_amount = $4, details = $5,
			accepted_at = $6, rejected_at = $7, updated_at = NOW()
		WHERE id = $1 AND accepted_at IS NULL AND rejected_at IS NULL
	`, q.ID, q.ClientName, q.ClientEmail, q.TotalAmount, details, q.AcceptedAt, q.RejectedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM quotes WHERE id = $1)`, q.ID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return ErrNotFound
		}
		return ErrAlreadyDecided
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuote(row rowScanner) (*Quote, error) {
	var q Quote
	var details []byte
	var eventTime, preparedBy *string
	err := row.Scan(
		&q.ID, &q.Slug, &q.ClientName, &q.ClientEmail, &q.InvoiceType, &q.EventTitle,
		&q.EventDate, &eventTime, &q.EventLocation, &preparedBy, &q.Status, &q.TotalAmount,
		&details, &q.AcceptedAt, &q.RejectedAt, &q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if eventTime != nil {
		q.EventTime = *eventTime
	}
	if preparedBy != nil {
		q.PreparedBy = *preparedBy
	}
	if len(details) > 0 {
		if err := json.Unmarshal(details, &q.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	return &q, nil
}
