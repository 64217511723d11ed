package giftcards

import "time"

// CreateGiftCardRequest is the owner-issued card payload. Checkout-purchased
// cards arrive through the Stripe webhook instead.
type CreateGiftCardRequest struct {
	Type           string     `json:"type" validate:"required,oneof=fixed_session open_credit discount"`
	PurchaserName  string     `json:"purchaser_name" validate:"required"`
	PurchaserEmail string     `json:"purchaser_email" validate:"required,email"`
	RecipientName  string     `json:"recipient_name" validate:"required"`
	RecipientEmail string     `json:"recipient_email,omitempty" validate:"omitempty,email"`
	Message        string     `json:"message,omitempty"`
	Amount         float64    `json:"amount" validate:"gte=0"`
	Sessions       int        `json:"sessions,omitempty" validate:"gte=0"`
	DiscountPct    float64    `json:"discount_pct,omitempty" validate:"gte=0,lte=100"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
}

// RedeemRequest draws down a card. Amount is ignored for fixed-session and
// discount cards.
type RedeemRequest struct {
	Amount float64 `json:"amount" validate:"gte=0"`
	Note   string  `json:"note,omitempty"`
}

// ListGiftCardsRequest filters the admin list.
type ListGiftCardsRequest struct {
	Status *Status `json:"status,omitempty"`
	Limit  int     `json:"limit" validate:"gte=0,lte=500"`
	Offset int     `json:"offset" validate:"gte=0"`
}

// CheckoutPurchase is the normalized payload extracted from a completed
// Stripe checkout session.
type CheckoutPurchase struct {
	SessionID      string
	Type           CardType
	PurchaserName  string
	PurchaserEmail string
	RecipientName  string
	RecipientEmail string
	Message        string
	Amount         float64
	Sessions       int
}
