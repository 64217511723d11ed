package giftcards

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dbuatti/danielebuatti-sub000/internal/platform/db"
)

// Redemption is one draw-down event, kept for the owner's records.
type Redemption struct {
	ID         int64          `json:"id"`
	GiftCardID int64          `json:"gift_card_id"`
	Amount     float64        `json:"amount"`
	Note       string         `json:"note,omitempty"`
	Meta       map[string]any `json:"meta,omitempty"`
	RedeemedAt time.Time      `json:"redeemed_at"`
}

// Repository persists gift cards and their redemption history.
type Repository interface {
	Create(ctx context.Context, g GiftCard) (int64, error)
	GetByID(ctx context.Context, id int64) (*GiftCard, error)
	GetByCode(ctx context.Context, code string) (*GiftCard, error)
	GetBySessionID(ctx context.Context, sessionID string) (*GiftCard, error)
	List(ctx context.Context, req ListGiftCardsRequest) ([]GiftCard, int, error)
	ListRedemptions(ctx context.Context, giftCardID int64) ([]Redemption, error)

	// Redeem writes the drawn-down card and its redemption record in one
	// transaction, so history can never disagree with the balance. prev
	// carries the balance and session count the caller read; the update is
	// conditioned on them so concurrent redemptions cannot both win.
	Redeem(ctx context.Context, g GiftCard, prev GiftCard, red Redemption) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const cardColumns = `id, code, type, purchaser_name, purchaser_email, recipient_name,
	recipient_email, message, amount, remaining_balance, sessions, remaining_sessions,
	discount_pct, payment_status, status, stripe_session_id, expires_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, g GiftCard) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO gift_cards (code, type, purchaser_name, purchaser_email, recipient_name,
			recipient_email, message, amount, remaining_balance, sessions, remaining_sessions,
			discount_pct, payment_status, status, stripe_session_id, expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW(), NOW())
		RETURNING id
	`, g.Code, g.Type, g.PurchaserName, g.PurchaserEmail, g.RecipientName,
		g.RecipientEmail, g.Message, g.Amount, g.RemainingBalance, g.Sessions, g.RemainingSessions,
		g.DiscountPct, g.PaymentStatus, g.Status, nullString(g.StripeSessionID), g.ExpiresAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) GetByID(ctx context.Context, id int64) (*GiftCard, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM gift_cards WHERE id = $1`, id)
	return scanCard(row)
}

func (r *repository) GetByCode(ctx context.Context, code string) (*GiftCard, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM gift_cards WHERE code = $1`, code)
	return scanCard(row)
}

func (r *repository) GetBySessionID(ctx context.Context, sessionID string) (*GiftCard, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+cardColumns+` FROM gift_cards WHERE stripe_session_id = $1`, sessionID)
	return scanCard(row)
}

func (r *repository) List(ctx context.Context, req ListGiftCardsRequest) ([]GiftCard, int, error) {
	where := ""
	var args []interface{}
	if req.Status != nil {
		where = "WHERE status = $1"
		args = append(args, *req.Status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM gift_cards %s", where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM gift_cards %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		cardColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []GiftCard
	for rows.Next() {
		g, err := scanCard(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *g)
	}
	return out, total, rows.Err()
}

func (r *repository) ListRedemptions(ctx context.Context, giftCardID int64) ([]Redemption, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, gift_card_id, amount, note, meta, redeemed_at
		FROM gift_card_redemptions WHERE gift_card_id = $1 ORDER BY redeemed_at DESC
	`, giftCardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Redemption
	for rows.Next() {
		var red Redemption
		var note *string
		var meta []byte
		if err := rows.Scan(&red.ID, &red.GiftCardID, &red.Amount, &note, &meta, &red.RedeemedAt); err != nil {
			return nil, err
		}
		if note != nil {
			red.Note = *note
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &red.Meta); err != nil {
				return nil, fmt.Errorf("unmarshal redemption meta: %w", err)
			}
		}
		out = append(out, red)
	}
	return out, rows.Err()
}

func (r *repository) Redeem(ctx context.Context, g GiftCard, prev GiftCard, red Redemption) error {
	meta, err := json.Marshal(red.Meta)
	if err != nil {
		return fmt.Errorf("marshal redemption meta: %w", err)
	}
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE gift_cards
			SET remaining_balance = $2, remaining_sessions = $3, status = $4, updated_at = NOW()
			WHERE id = $1 AND remaining_balance = $5 AND remaining_sessions = $6
		`, g.ID, g.RemainingBalance, g.RemainingSessions, g.Status,
			prev.RemainingBalance, prev.RemainingSessions)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInsufficientBalance
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO gift_card_redemptions (gift_card_id, amount, note, meta, redeemed_at)
			VALUES ($1, $2, $3, $4, NOW())
		`, g.ID, red.Amount, red.Note, meta)
		return err
	})
}

func scanCard(row pgx.Row) (*GiftCard, error) {
	var g GiftCard
	var recipientEmail, message, sessionID *string
	err := row.Scan(
		&g.ID, &g.Code, &g.Type, &g.PurchaserName, &g.PurchaserEmail, &g.RecipientName,
		&recipientEmail, &message, &g.Amount, &g.RemainingBalance, &g.Sessions, &g.RemainingSessions,
		&g.DiscountPct, &g.PaymentStatus, &g.Status, &sessionID, &g.ExpiresAt, &g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if recipientEmail != nil {
		g.RecipientEmail = *recipientEmail
	}
	if message != nil {
		g.Message = *message
	}
	if sessionID != nil {
		g.StripeSessionID = *sessionID
	}
	return &g, nil
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
