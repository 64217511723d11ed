package giftcards

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/dbuatti/danielebuatti-sub000/internal/observability"
	"github.com/dbuatti/danielebuatti-sub000/internal/platform/httpx"
)

// Handler exposes the gift card endpoints and the Stripe webhook.
type Handler struct {
	service       *Service
	webhookSecret string
	validate      *validator.Validate
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewHandler constructs the gift card handler. metrics may be nil.
func NewHandler(service *Service, webhookSecret string, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		service:       service,
		webhookSecret: webhookSecret,
		validate:      validator.New(),
		logger:        logger,
		metrics:       metrics,
	}
}

// MountWebhookRoutes registers the payment provider callbacks.
func (h *Handler) MountWebhookRoutes(r chi.Router) {
	r.Post("/stripe", h.StripeWebhook)
}

// MountAdminRoutes registers the owner-facing routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Get("/code/{code}", h.GetByCode)
	r.Post("/code/{code}/redeem", h.Redeem)
}

const maxWebhookBody = int64(65536)

// StripeWebhook verifies and processes checkout events. Duplicate deliveries
// of the same session are acknowledged without issuing a second card.
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBody)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		h.countWebhook("read_error")
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	event, err := webhook.ConstructEvent(payload, r.Header.Get("Stripe-Signature"), h.webhookSecret)
	if err != nil {
		h.logger.Warn("stripe signature verification failed", slog.Any("error", err))
		h.countWebhook("bad_signature")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleCheckoutCompleted(w, r, event)
	default:
		h.logger.Debug("unhandled stripe event", slog.String("type", string(event.Type)))
		h.countWebhook("ignored")
		w.WriteHeader(http.StatusOK)
	}
}

func (h *Handler) handleCheckoutCompleted(w http.ResponseWriter, r *http.Request, event stripe.Event) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		h.logger.Error("parse checkout session failed", slog.Any("error", err))
		h.countWebhook("parse_error")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	purchase := purchaseFromSession(&session)
	card, err := h.service.FromCheckout(r.Context(), purchase)
	if err != nil {
		h.logger.Error("issue gift card from checkout failed",
			slog.String("session_id", session.ID), slog.Any("error", err))
		h.countWebhook("error")
		// 500 makes Stripe retry the delivery.
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.countWebhook("ok")
	httpx.JSON(w, http.StatusOK, map[string]any{"code": card.Code})
}

// purchaseFromSession maps checkout metadata onto the card payload. Amounts
// arrive in cents.
func purchaseFromSession(session *stripe.CheckoutSession) CheckoutPurchase {
	meta := session.Metadata
	purchase := CheckoutPurchase{
		SessionID:      session.ID,
		Type:           CardType(meta["gift_card_type"]),
		PurchaserName:  meta["purchaser_name"],
		RecipientName:  meta["recipient_name"],
		RecipientEmail: meta["recipient_email"],
		Message:        meta["message"],
		Amount:         float64(session.AmountTotal) / 100,
	}
	if purchase.Type == "" {
		purchase.Type = CardTypeOpenCredit
	}
	if sessions, err := strconv.Atoi(meta["sessions"]); err == nil {
		purchase.Sessions = sessions
	}
	if session.CustomerDetails != nil {
		purchase.PurchaserEmail = session.CustomerDetails.Email
		if purchase.PurchaserName == "" {
			purchase.PurchaserName = session.CustomerDetails.Name
		}
	}
	if purchase.RecipientName == "" {
		purchase.RecipientName = purchase.PurchaserName
	}
	return purchase
}

// List returns gift cards filtered by status.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListGiftCardsRequest{}
	if s := r.URL.Query().Get("status"); s != "" {
		status := Status(s)
		req.Status = &status
	}
	req.Limit, _ = strconv.Atoi(r.URL.Query().Get("limit"))
	req.Offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

// Create issues a card manually.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateGiftCardRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	card, err := h.service.CreateManual(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

// Get returns one card with its redemption history.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be an integer")
		return
	}
	card, history, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"card": card, "redemptions": history})
}

// GetByCode looks a card up by its shareable code.
func (h *Handler) GetByCode(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.GetByCode(r.Context(), strings.ToUpper(chi.URLParam(r, "code")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, card)
}

// Redeem draws down a card.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req RedeemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	card, err := h.service.Redeem(r.Context(), strings.ToUpper(chi.URLParam(r, "code")), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, card)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "gift card not found")
	case errors.Is(err, ErrInsufficientBalance):
		httpx.Problem(w, http.StatusConflict, "Insufficient Balance", err.Error())
	case errors.Is(err, ErrExpired), errors.Is(err, ErrNotRedeemable):
		httpx.Problem(w, http.StatusConflict, "Not Redeemable", err.Error())
	case errors.Is(err, ErrDuplicateCode):
		httpx.Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, ErrInvalidCard):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		h.logger.Error("gift card request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) countWebhook(result string) {
	if h.metrics != nil {
		h.metrics.CountWebhook(result)
	}
}
