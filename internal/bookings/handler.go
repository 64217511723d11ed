package bookings

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/dbuatti/danielebuatti-sub000/internal/platform/httpx"
)

// CreateBookingRequest is the admin booking payload.
type CreateBookingRequest struct {
	ClientName      string    `json:"client_name" validate:"required"`
	ClientEmail     string    `json:"client_email" validate:"required,email"`
	ServiceName     string    `json:"service_name" validate:"required"`
	ScheduledAt     time.Time `json:"scheduled_at" validate:"required"`
	DurationMinutes int       `json:"duration_minutes" validate:"gt=0"`
	Location        string    `json:"location,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	QuoteID         *int64    `json:"quote_id,omitempty"`
	GiftCardCode    string    `json:"gift_card_code,omitempty"`
}

// Handler exposes the booking endpoints.
type Handler struct {
	repo     Repository
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler constructs the booking handler.
func NewHandler(repo Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, validate: validator.New(), logger: logger}
}

// MountRoutes registers the owner-facing routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Post("/{id}/status", h.SetStatus)
}

// List returns bookings, soonest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if s := r.URL.Query().Get("status"); s != "" {
		st := Status(s)
		status = &st
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	items, total, err := h.repo.List(r.Context(), status, limit, offset)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": items, "total": total})
}

// Create records a new booking in the requested state.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	b := Booking{
		ClientName:      req.ClientName,
		ClientEmail:     req.ClientEmail,
		ServiceName:     req.ServiceName,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Location:        req.Location,
		Notes:           req.Notes,
		Status:          StatusRequested,
		QuoteID:         req.QuoteID,
		GiftCardCode:    req.GiftCardCode,
	}
	id, err := h.repo.Create(r.Context(), b)
	if err != nil {
		h.respondError(w, err)
		return
	}
	created, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Get returns one booking.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be an integer")
		return
	}
	b, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

// SetStatus moves a booking through its lifecycle.
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be an integer")
		return
	}
	var req struct {
		Status Status `json:"status" validate:"required"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}

	b, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if err := b.Transition(req.Status); err != nil {
		h.respondError(w, err)
		return
	}
	if err := h.repo.Update(r.Context(), *b); err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, b)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "booking not found")
	case errors.Is(err, ErrBadTransition), errors.Is(err, ErrUnknownStatus):
		httpx.Problem(w, http.StatusConflict, "Invalid Transition", err.Error())
	default:
		h.logger.Error("booking request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
