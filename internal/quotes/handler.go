package quotes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/dbuatti/danielebuatti-sub000/internal/observability"
	"github.com/dbuatti/danielebuatti-sub000/internal/platform/httpx"
)

// ThemeOption is a theme descriptor for the builder's picker.
type ThemeOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DocumentRenderer produces the public HTML page for a quote.
type DocumentRenderer interface {
	HTML(q *Quote) (string, error)
	Themes() []ThemeOption
}

// Handler exposes the quote endpoints. The public surface is slug-keyed and
// unauthenticated; the admin surface sits behind bearer auth at mount time.
type Handler struct {
	service  *Service
	docs     DocumentRenderer
	cache    *redis.Client
	cacheTTL time.Duration
	sf       singleflight.Group
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewHandler constructs the quote handler. cache and metrics may be nil.
func NewHandler(service *Service, docs DocumentRenderer, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	return &Handler{
		service:  service,
		docs:     docs,
		cache:    cache,
		cacheTTL: cacheTTL,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

// MountPublicRoutes registers the client-facing routes.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Get("/{slug}", h.Document)
	r.Get("/{slug}/status", h.Status)
	r.Post("/{slug}/accept", h.Accept)
	r.Post("/{slug}/reject", h.Reject)
}

// MountAdminRoutes registers the owner-facing routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/themes", h.Themes)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/send", h.Send)
	r.Post("/{id}/versions", h.NewVersion)
	r.Get("/{id}/preview", h.Preview)
}

// Document serves the themed HTML page for a sent quote. Pages are cached
// briefly; singleflight collapses concurrent misses for the same slug into
// one render.
func (h *Handler) Document(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	if html, ok := h.cachedDocument(r.Context(), slug); ok {
		writeHTML(w, html)
		return
	}

	result, err, _ := h.sf.Do(slug, func() (any, error) {
		q, err := h.service.GetBySlug(r.Context(), slug)
		if err != nil {
			return nil, err
		}
		html, err := h.docs.HTML(q)
		if err != nil {
			return nil, err
		}
		h.storeDocument(r.Context(), slug, html)
		return html, nil
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeHTML(w, result.(string))
}

// Status returns the decision state and current totals as JSON, for the
// document page to poll after submission.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	q, err := h.service.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	v := q.ActiveVersion()
	if v == nil {
		h.respondError(w, ErrNotFound)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"decision":   q.Decision(),
		"totals":     VersionTotals(*v),
		"acceptedAt": v.AcceptedAt,
		"rejectedAt": v.RejectedAt,
	})
}

// Accept records the client's acceptance.
func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Accept, "accepted")
}

// Reject records the client's rejection.
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.service.Reject, "rejected")
}

func (h *Handler) decide(w http.ResponseWriter, r *http.Request, op func(context.Context, string, DecisionRequest) (*Quote, error), outcome string) {
	slug := chi.URLParam(r, "slug")
	var req DecisionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := op(r.Context(), slug, req)
	if err != nil {
		h.respondError(w, err)
		return
	}

	h.invalidateDocument(r.Context(), slug)
	if h.metrics != nil {
		h.metrics.CountDecision(outcome)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"decision":    q.Decision(),
		"totalAmount": q.TotalAmount,
	})
}

// List returns quotes filtered by status and decision.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	req := ListQuotesRequest{
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := QuoteStatus(s)
		req.Status = &status
	}
	if d := r.URL.Query().Get("decision"); d != "" {
		decision := Decision(d)
		req.Decision = &decision
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"items": items,
		"total": total,
	})
}

// Create saves a new draft, or creates and sends in one step with ?send=true.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req SaveQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}

	op := h.service.SaveDraft
	if r.URL.Query().Get("send") == "true" {
		op = h.service.CreateAndSend
	}
	q, err := op(r.Context(), req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

// Get returns one quote with its full version history.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

// Update replaces the draft content of an undecided quote.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req SaveQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "request body is not valid JSON")
		return
	}
	q, err := h.service.UpdateDraft(r.Context(), id, req)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.invalidateDocument(r.Context(), q.Slug)
	httpx.JSON(w, http.StatusOK, q)
}

// Delete removes a quote.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Send finalizes a draft and emails the client.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.service.Send(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.invalidateDocument(r.Context(), q.Slug)
	httpx.JSON(w, http.StatusOK, q)
}

// NewVersion snapshots the active version for re-quoting.
func (h *Handler) NewVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.service.NewVersion(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.invalidateDocument(r.Context(), q.Slug)
	httpx.JSON(w, http.StatusOK, q)
}

// Preview renders the document for a quote in any status, bypassing the cache.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	q, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	html, err := h.docs.HTML(q)
	if err != nil {
		h.respondError(w, err)
		return
	}
	writeHTML(w, html)
}

// Themes lists the document themes for the builder's picker.
func (h *Handler) Themes(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, h.docs.Themes())
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		httpx.ValidationProblem(w, vErr.Fields)
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "quote not found")
	case errors.Is(err, ErrAlreadyDecided):
		httpx.Problem(w, http.StatusConflict, "Already Decided", "this quote has already been responded to")
	case errors.Is(err, ErrDuplicateSlug):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "a quote with this link already exists")
	default:
		h.logger.Error("quote request failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func (h *Handler) cacheKey(slug string) string {
	return "studio:doc:" + slug
}

func (h *Handler) cachedDocument(ctx context.Context, slug string) (string, bool) {
	if h.cache == nil {
		return "", false
	}
	html, err := h.cache.Get(ctx, h.cacheKey(slug)).Result()
	if err != nil {
		return "", false
	}
	return html, true
}

func (h *Handler) storeDocument(ctx context.Context, slug, html string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, h.cacheKey(slug), html, h.cacheTTL).Err(); err != nil {
		h.logger.Warn("document cache set failed", slog.String("slug", slug), slog.Any("error", err))
	}
}

func (h *Handler) invalidateDocument(ctx context.Context, slug string) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Del(ctx, h.cacheKey(slug)).Err(); err != nil {
		h.logger.Warn("document cache invalidation failed", slog.String("slug", slug), slog.Any("error", err))
	}
}

func writeHTML(w http.ResponseWriter, html string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(html))
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid Request", "id must be an integer")
		return 0, false
	}
	return id, true
}
