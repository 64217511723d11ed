package bookings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists bookings.
type Repository interface {
	Create(ctx context.Context, b Booking) (int64, error)
	GetByID(ctx context.Context, id int64) (*Booking, error)
	List(ctx context.Context, status *Status, limit, offset int) ([]Booking, int, error)
	Update(ctx context.Context, b Booking) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const bookingColumns = `id, client_name, client_email, service_name, scheduled_at,
	duration_minutes, location, notes, status, quote_id, gift_card_code, created_at, updated_at`

func (r *repository) Create(ctx context.Context, b Booking) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO bookings (client_name, client_email, service_name, scheduled_at,
			duration_minutes, location, notes, status, quote_id, gift_card_code, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING id
	`, b.ClientName, b.ClientEmail, b.ServiceName, b.ScheduledAt,
		b.DurationMinutes, b.Location, b.Notes, b.Status, b.QuoteID, b.GiftCardCode).Scan(&id)
	return id, err
}

func (r *repository) GetByID(ctx context.Context, id int64) (*Booking, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *repository) List(ctx context.Context, status *Status, limit, offset int) ([]Booking, int, error) {
	where := ""
	var args []interface{}
	if status != nil {
		where = "WHERE status = $1"
		args = append(args, *status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM bookings %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings %s ORDER BY scheduled_at ASC, id ASC LIMIT $%d OFFSET $%d`,
		bookingColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *repository) Update(ctx context.Context, b Booking) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET client_name = $2, client_email = $3, service_name = $4, scheduled_at = $5,
			duration_minutes = $6, location = $7, notes = $8, status = $9,
			quote_id = $10, gift_card_code = $11, updated_at = NOW()
		WHERE id = $1
	`, b.ID, b.ClientName, b.ClientEmail, b.ServiceName, b.ScheduledAt,
		b.DurationMinutes, b.Location, b.Notes, b.Status, b.QuoteID, b.GiftCardCode)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	var location, notes, giftCardCode *string
	err := row.Scan(
		&b.ID, &b.ClientName, &b.ClientEmail, &b.ServiceName, &b.ScheduledAt,
		&b.DurationMinutes, &location, &notes, &b.Status, &b.QuoteID, &giftCardCode,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if location != nil {
		b.Location = *location
	}
	if notes != nil {
		b.Notes = *notes
	}
	if giftCardCode != nil {
		b.GiftCardCode = *giftCardCode
	}
	return &b, nil
}
