package giftcards

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CardType distinguishes what a gift card entitles the holder to.
type CardType string

const (
	// CardTypeFixedSession covers a set number of coaching sessions.
	CardTypeFixedSession CardType = "fixed_session"
	// CardTypeOpenCredit is a dollar balance drawn down across bookings.
	CardTypeOpenCredit CardType = "open_credit"
	// CardTypeDiscount applies a percentage off a single booking.
	CardTypeDiscount CardType = "discount"
)

// PaymentStatus tracks how the card was paid for.
type PaymentStatus string

const (
	PaymentPending PaymentStatus = "PENDING"
	PaymentPaid    PaymentStatus = "PAID"
	// PaymentManual marks cards issued by the owner without a checkout.
	PaymentManual PaymentStatus = "MANUAL"
)

// Status tracks redemption progress.
type Status string

const (
	StatusActive            Status = "ACTIVE"
	StatusPartiallyRedeemed Status = "PARTIALLY_REDEEMED"
	StatusFullyRedeemed     Status = "FULLY_REDEEMED"
)

var (
	ErrNotFound            = errors.New("gift card not found")
	ErrInsufficientBalance = errors.New("gift card balance is insufficient")
	ErrExpired             = errors.New("gift card has expired")
	ErrNotRedeemable       = errors.New("gift card cannot be redeemed")
	ErrDuplicateCode       = errors.New("gift card code already exists")
	ErrInvalidCard         = errors.New("gift card is invalid")
)

// GiftCard is the aggregate. Amount is the face value; RemainingBalance (or
// RemainingSessions for fixed-session cards) decreases with each redemption
// and never goes below zero.
type GiftCard struct {
	ID                int64         `json:"id"`
	Code              string        `json:"code"`
	Type              CardType      `json:"type"`
	PurchaserName     string        `json:"purchaser_name"`
	PurchaserEmail    string        `json:"purchaser_email"`
	RecipientName     string        `json:"recipient_name"`
	RecipientEmail    string        `json:"recipient_email,omitempty"`
	Message           string        `json:"message,omitempty"`
	Amount            float64       `json:"amount"`
	RemainingBalance  float64       `json:"remaining_balance"`
	Sessions          int           `json:"sessions,omitempty"`
	RemainingSessions int           `json:"remaining_sessions,omitempty"`
	DiscountPct       float64       `json:"discount_pct,omitempty"`
	PaymentStatus     PaymentStatus `json:"payment_status"`
	Status            Status        `json:"status"`
	StripeSessionID   string        `json:"-"`
	ExpiresAt         *time.Time    `json:"expires_at,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewCode generates a human-shareable card code.
func NewCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "GC-" + raw[:4] + "-" + raw[4:8] + "-" + raw[8:12]
}

// Expired reports whether the card is past its expiry date.
func (g *GiftCard) Expired(now time.Time) bool {
	return g.ExpiresAt != nil && now.After(*g.ExpiresAt)
}

// Redeemable reports whether a redemption may be attempted at all. Balance
// sufficiency is checked per-redemption, not here.
func (g *GiftCard) Redeemable(now time.Time) error {
	if g.Expired(now) {
		return ErrExpired
	}
	if g.Status == StatusFullyRedeemed {
		return ErrNotRedeemable
	}
	if g.PaymentStatus == PaymentPending {
		return ErrNotRedeemable
	}
	return nil
}

// ApplyRedemption draws down the balance (or a session) and derives the new
// status. The repository enforces the same floor in SQL; this keeps the
// in-memory aggregate consistent for the response.
func (g *GiftCard) ApplyRedemption(amount float64, now time.Time) error {
	if err := g.Redeemable(now); err != nil {
		return err
	}
	switch g.Type {
	case CardTypeFixedSession:
		if g.RemainingSessions < 1 {
			return ErrInsufficientBalance
		}
		g.RemainingSessions--
		if g.RemainingSessions == 0 {
			g.Status = StatusFullyRedeemed
		} else {
			g.Status = StatusPartiallyRedeemed
		}
	case CardTypeOpenCredit:
		if amount <= 0 {
			return ErrNotRedeemable
		}
		if g.RemainingBalance < amount {
			return ErrInsufficientBalance
		}
		g.RemainingBalance -= amount
		if g.RemainingBalance == 0 {
			g.Status = StatusFullyRedeemed
		} else {
			g.Status = StatusPartiallyRedeemed
		}
	case CardTypeDiscount:
		// Discount cards are single use.
		g.Status = StatusFullyRedeemed
	default:
		return ErrNotRedeemable
	}
	g.UpdatedAt = now
	return nil
}
