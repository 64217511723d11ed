package giftcards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
	"github.com/dbuatti/danielebuatti-sub000/internal/shared"
)

// IdempotencyStore deduplicates external event keys.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, source string) error
	Delete(ctx context.Context, key string) error
}

// Service manages the gift card lifecycle: issuing (manual or via checkout),
// lookups and redemption.
type Service struct {
	repo        Repository
	idempotency IdempotencyStore
	audit       *shared.AuditLogger
	notifier    quotes.Notifier
	logger      *slog.Logger
	ownerEmail  string
	now         func() time.Time
}

// NewService constructs the gift card service. idempotency, audit and
// notifier may be nil in tests.
func NewService(repo Repository, idempotency IdempotencyStore, audit *shared.AuditLogger, notifier quotes.Notifier, logger *slog.Logger, ownerEmail string) *Service {
	return &Service{
		repo:        repo,
		idempotency: idempotency,
		audit:       audit,
		notifier:    notifier,
		logger:      logger,
		ownerEmail:  ownerEmail,
		now:         time.Now,
	}
}

// CreateManual issues a card directly, without a checkout. Used for
// comps and phone orders.
func (s *Service) CreateManual(ctx context.Context, req CreateGiftCardRequest) (*GiftCard, error) {
	card := GiftCard{
		Code:              NewCode(),
		Type:              CardType(req.Type),
		PurchaserName:     req.PurchaserName,
		PurchaserEmail:    req.PurchaserEmail,
		RecipientName:     req.RecipientName,
		RecipientEmail:    req.RecipientEmail,
		Message:           req.Message,
		Amount:            req.Amount,
		RemainingBalance:  req.Amount,
		Sessions:          req.Sessions,
		RemainingSessions: req.Sessions,
		DiscountPct:       req.DiscountPct,
		PaymentStatus:     PaymentManual,
		Status:            StatusActive,
		ExpiresAt:         req.ExpiresAt,
	}
	if err := validateCard(&card); err != nil {
		return nil, err
	}

	id, err := s.repo.Create(ctx, card)
	if err != nil {
		return nil, fmt.Errorf("create gift card: %w", err)
	}
	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "giftcard.created", created, map[string]any{"payment": "manual"})
	s.notifyRecipient(ctx, created)
	return created, nil
}

// FromCheckout issues a card for a completed Stripe checkout session. The
// session id is the idempotency key: a retried webhook delivery returns the
// already-issued card instead of minting a second one.
func (s *Service) FromCheckout(ctx context.Context, purchase CheckoutPurchase) (*GiftCard, error) {
	if purchase.SessionID == "" {
		return nil, errors.New("checkout session id required")
	}

	if err := s.idempotency.CheckAndInsert(ctx, purchase.SessionID, "stripe.checkout"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return s.repo.GetBySessionID(ctx, purchase.SessionID)
		}
		return nil, err
	}

	card := GiftCard{
		Code:              NewCode(),
		Type:              purchase.Type,
		PurchaserName:     purchase.PurchaserName,
		PurchaserEmail:    purchase.PurchaserEmail,
		RecipientName:     purchase.RecipientName,
		RecipientEmail:    purchase.RecipientEmail,
		Message:           purchase.Message,
		Amount:            purchase.Amount,
		RemainingBalance:  purchase.Amount,
		Sessions:          purchase.Sessions,
		RemainingSessions: purchase.Sessions,
		PaymentStatus:     PaymentPaid,
		Status:            StatusActive,
		StripeSessionID:   purchase.SessionID,
	}
	if err := validateCard(&card); err != nil {
		// Roll the key back so a corrected replay can succeed.
		if delErr := s.idempotency.Delete(ctx, purchase.SessionID); delErr != nil {
			s.logger.Warn("idempotency rollback failed", slog.Any("error", delErr))
		}
		return nil, err
	}

	id, err := s.repo.Create(ctx, card)
	if err != nil {
		if delErr := s.idempotency.Delete(ctx, purchase.SessionID); delErr != nil {
			s.logger.Warn("idempotency rollback failed", slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("create gift card: %w", err)
	}
	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "giftcard.purchased", created, map[string]any{"session_id": purchase.SessionID})
	s.notifyRecipient(ctx, created)
	s.notifyOwner(ctx, created)
	return created, nil
}

// Get returns a card by id with its redemption history.
func (s *Service) Get(ctx context.Context, id int64) (*GiftCard, []Redemption, error) {
	card, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	history, err := s.repo.ListRedemptions(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return card, history, nil
}

// GetByCode looks a card up by its shareable code.
func (s *Service) GetByCode(ctx context.Context, code string) (*GiftCard, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns cards for the admin overview.
func (s *Service) List(ctx context.Context, req ListGiftCardsRequest) ([]GiftCard, int, error) {
	return s.repo.List(ctx, req)
}

// Redeem draws the requested amount (or one session) off the card.
func (s *Service) Redeem(ctx context.Context, code string, req RedeemRequest) (*GiftCard, error) {
	card, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	prev := *card
	now := s.now()
	if err := card.ApplyRedemption(req.Amount, now); err != nil {
		return nil, err
	}

	red := Redemption{
		GiftCardID: card.ID,
		Amount:     req.Amount,
		Note:       req.Note,
	}
	if card.Type == CardTypeFixedSession {
		red.Amount = 0
		red.Meta = map[string]any{"sessions_remaining": card.RemainingSessions}
	}
	if err := s.repo.Redeem(ctx, *card, prev, red); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, "giftcard.redeemed", card, map[string]any{
		"amount":            req.Amount,
		"remaining_balance": card.RemainingBalance,
	})
	return card, nil
}

func validateCard(g *GiftCard) error {
	switch g.Type {
	case CardTypeFixedSession:
		if g.Sessions < 1 {
			return fmt.Errorf("%w: fixed-session cards need at least one session", ErrInvalidCard)
		}
	case CardTypeOpenCredit:
		if g.Amount <= 0 {
			return fmt.Errorf("%w: open-credit cards need a positive amount", ErrInvalidCard)
		}
	case CardTypeDiscount:
		if g.DiscountPct <= 0 || g.DiscountPct > 100 {
			return fmt.Errorf("%w: discount cards need a percentage between 0 and 100", ErrInvalidCard)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCard, g.Type)
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, g *GiftCard, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    g.PurchaserEmail,
		Action:   action,
		Entity:   "giftcard",
		EntityID: g.Code,
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notifyRecipient(ctx context.Context, g *GiftCard) {
	if s.notifier == nil || g.RecipientEmail == "" {
		return
	}
	subject := fmt.Sprintf("A gift card from %s", g.PurchaserName)
	body := fmt.Sprintf("<p>Hi %s,</p><p>%s has sent you a gift card. Your code is <strong>%s</strong>.</p>",
		g.RecipientName, g.PurchaserName, g.Code)
	if g.Message != "" {
		body += fmt.Sprintf("<blockquote>%s</blockquote>", g.Message)
	}
	if err := s.notifier.EnqueueSendEmail(ctx, g.RecipientEmail, subject, body); err != nil {
		s.logger.Error("enqueue gift card email failed", slog.Any("error", err))
	}
}

func (s *Service) notifyOwner(ctx context.Context, g *GiftCard) {
	if s.notifier == nil || s.ownerEmail == "" {
		return
	}
	subject := fmt.Sprintf("Gift card purchased: %s", g.Code)
	body := fmt.Sprintf("<p>%s purchased a %s gift card (%.2f). Recipient: %s.</p>",
		g.PurchaserName, g.Type, g.Amount, g.RecipientName)
	if err := s.notifier.EnqueueSendEmail(ctx, s.ownerEmail, subject, body); err != nil {
		s.logger.Error("enqueue owner notification failed", slog.Any("error", err))
	}
}
