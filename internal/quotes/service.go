package quotes

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/dbuatti/danielebuatti-sub000/internal/shared"
)

// Notifier is the fire-and-forget email sink. Delivery failures are logged,
// never propagated to the caller, because the authoritative state change has
// already committed by the time a notification is enqueued.
type Notifier interface {
	EnqueueSendEmail(ctx context.Context, to, subject, htmlBody string) error
}

// TemplateRenderer resolves a stored email template by name and substitutes
// placeholders.
type TemplateRenderer interface {
	Render(ctx context.Context, name string, vars map[string]string) (subject, body string, err error)
}

// ValidationError carries field-level messages keyed by field path.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %d field(s)", len(e.Fields))
}

// ServiceConfig carries the non-dependency knobs.
type ServiceConfig struct {
	OwnerEmail    string
	PublicBaseURL string
}

// Service orchestrates quote persistence, versioning, sending and the
// client decision workflow.
type Service struct {
	repo      Repository
	notifier  Notifier
	templates TemplateRenderer
	audit     *shared.AuditLogger
	logger    *slog.Logger
	cfg       ServiceConfig
	now       func() time.Time
}

// NewService constructs the quote service. notifier, templates and audit may
// be nil in tests.
func NewService(repo Repository, notifier Notifier, templates TemplateRenderer, audit *shared.AuditLogger, logger *slog.Logger, cfg ServiceConfig) *Service {
	return &Service{
		repo:      repo,
		notifier:  notifier,
		templates: templates,
		audit:     audit,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
	}
}

// SaveDraft persists a new quote in the editable state.
func (s *Service) SaveDraft(ctx context.Context, req SaveQuoteRequest) (*Quote, error) {
	q := s.buildQuote(req)
	if errs := q.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	q.Slug = GenerateSlug(q.ClientName, q.EventTitle)
	id, err := s.repo.Create(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

// UpdateDraft replaces the active version's content and the quote metadata.
// Decided quotes are locked against edits; a revision requires a new version.
func (s *Service) UpdateDraft(ctx context.Context, id int64, req SaveQuoteRequest) (*Quote, error) {
	existing, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if existing.Decision() != DecisionPending {
		return nil, ErrAlreadyDecided
	}

	next := s.buildQuote(req)
	existing.ClientName = next.ClientName
	existing.ClientEmail = next.ClientEmail
	existing.InvoiceType = next.InvoiceType
	existing.EventTitle = next.EventTitle
	existing.EventDate = next.EventDate
	existing.EventTime = next.EventTime
	existing.EventLocation = next.EventLocation
	existing.PreparedBy = next.PreparedBy
	if v := existing.ActiveVersion(); v != nil {
		src := next.ActiveVersion()
		v.CompulsoryItems = src.CompulsoryItems
		v.AddOns = src.AddOns
		v.Settings = src.Settings
	}
	existing.SyncFromActive()

	if errs := existing.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	if err := s.repo.Update(ctx, *existing); err != nil {
		return nil, fmt.Errorf("update quote: %w", err)
	}
	return s.repo.GetByID(ctx, id)
}

// Send finalizes a quote and emails the client a link to the public document.
func (s *Service) Send(ctx context.Context, id int64) (*Quote, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if errs := q.Validate(); errs != nil {
		return nil, &ValidationError{Fields: errs}
	}
	q.Status = QuoteStatusSent
	if err := s.repo.Update(ctx, *q); err != nil {
		return nil, fmt.Errorf("send quote: %w", err)
	}
	s.recordAudit(ctx, "quote.sent", q)
	s.notifyQuoteSent(ctx, q)
	return q, nil
}

// CreateAndSend persists a new quote and immediately finalizes it.
func (s *Service) CreateAndSend(ctx context.Context, req SaveQuoteRequest) (*Quote, error) {
	q, err := s.SaveDraft(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Send(ctx, q.ID)
}

// NewVersion snapshots the active version for re-quoting after a send.
func (s *Service) NewVersion(ctx context.Context, id int64) (*Quote, error) {
	q, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get quote: %w", err)
	}
	if err := q.NewVersion(s.now()); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, *q); err != nil {
		return nil, fmt.Errorf("save new version: %w", err)
	}
	s.recordAudit(ctx, "quote.version_created", q)
	return q, nil
}

// Get returns a quote by internal id (admin only).
func (s *Service) Get(ctx context.Context, id int64) (*Quote, error) {
	return s.repo.GetByID(ctx, id)
}

// GetBySlug returns a sent quote by its public slug. Drafts are not reachable
// through the public surface.
func (s *Service) GetBySlug(ctx context.Context, slug string) (*Quote, error) {
	q, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if q.Status != QuoteStatusSent {
		return nil, ErrNotFound
	}
	return q, nil
}

// List returns quotes for the admin overview.
func (s *Service) List(ctx context.Context, req ListQuotesRequest) ([]Quote, int, error) {
	return s.repo.List(ctx, req)
}

// Delete removes a quote entirely. Explicit admin action only.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// Accept records the client's acceptance of the active version.
func (s *Service) Accept(ctx context.Context, slug string, req DecisionRequest) (*Quote, error) {
	return s.decide(ctx, slug, req, true)
}

// Reject records the client's rejection of the active version.
func (s *Service) Reject(ctx context.Context, slug string, req DecisionRequest) (*Quote, error) {
	return s.decide(ctx, slug, req, false)
}

func (s *Service) decide(ctx context.Context, slug string, req DecisionRequest, accept bool) (*Quote, error) {
	q, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	v := q.ActiveVersion()
	if v == nil {
		return nil, ErrNotFound
	}
	applySelections(v, req.FinalSelectedAddOns)
	q.SyncFromActive()

	if req.FinalTotal > 0 && math.Abs(req.FinalTotal-q.TotalAmount) > 0.01 {
		s.logger.Warn("client-submitted total differs from computed total",
			slog.String("slug", slug),
			slog.Float64("submitted", req.FinalTotal),
			slog.Float64("computed", q.TotalAmount))
	}

	now := s.now()
	if accept {
		err = q.Accept(now, req.ClientName, req.ClientEmail)
	} else {
		err = q.Reject(now, req.ClientName, req.ClientEmail)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.ApplyDecision(ctx, *q); err != nil {
		return nil, err
	}

	action := "quote.rejected"
	if accept {
		action = "quote.accepted"
	}
	s.recordAudit(ctx, action, q)
	s.notifyDecision(ctx, q, accept)
	return q, nil
}

func (s *Service) buildQuote(req SaveQuoteRequest) Quote {
	return Quote{
		ClientName:    req.ClientName,
		ClientEmail:   req.ClientEmail,
		InvoiceType:   InvoiceType(req.InvoiceType),
		EventTitle:    req.EventTitle,
		EventDate:     req.EventDate,
		EventTime:     req.EventTime,
		EventLocation: req.EventLocation,
		PreparedBy:    req.PreparedBy,
		Status:        QuoteStatusDraft,
		TotalAmount: CalculateTotals(
			payloadItems(req.CompulsoryItems), payloadItems(req.AddOns), req.settings(),
		).Total,
		Details: Details{
			Versions: []Version{{
				CompulsoryItems: payloadItems(req.CompulsoryItems),
				AddOns:          payloadItems(req.AddOns),
				Settings:        req.settings(),
				CreatedAt:       s.now(),
			}},
		},
	}
}

// applySelections overwrites add-on quantities from the client's choices.
// Unknown item ids are ignored; negative quantities are floored at zero.
func applySelections(v *Version, selections []AddOnSelection) {
	for _, sel := range selections {
		for i := range v.AddOns {
			if v.AddOns[i].ID != sel.ID {
				continue
			}
			qty := sel.Quantity
			if qty < 0 {
				qty = 0
			}
			v.AddOns[i].Quantity = qty
		}
	}
}

func (s *Service) recordAudit(ctx context.Context, action string, q *Quote) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    q.ClientEmail,
		Action:   action,
		Entity:   "quote",
		EntityID: q.Slug,
		Meta:     map[string]any{"total": q.TotalAmount},
	})
	if err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notifyQuoteSent(ctx context.Context, q *Quote) {
	if s.notifier == nil {
		return
	}
	link := fmt.Sprintf("%s/quotes/%s", s.cfg.PublicBaseURL, q.Slug)
	subject, body := s.renderEmail(ctx, "quote_sent",
		map[string]string{
			"client_name": q.ClientName,
			"event_title": q.EventTitle,
			"quote_link":  link,
		},
		fmt.Sprintf("Your %s for %s", q.InvoiceType, q.EventTitle),
		fmt.Sprintf("<p>Hi %s,</p><p>Your %s for <strong>%s</strong> is ready to view:</p><p><a href=%q>%s</a></p>",
			q.ClientName, q.InvoiceType, q.EventTitle, link, link),
	)
	s.enqueue(ctx, q.ClientEmail, subject, body)
}

func (s *Service) notifyDecision(ctx context.Context, q *Quote, accepted bool) {
	if s.notifier == nil {
		return
	}
	verb := "rejected"
	templateName := "quote_rejected"
	if accepted {
		verb = "accepted"
		templateName = "quote_accepted"
	}
	vars := map[string]string{
		"client_name": q.ClientName,
		"event_title": q.EventTitle,
		"total":       fmt.Sprintf("%.2f", q.TotalAmount),
	}

	ownerSubject := fmt.Sprintf("Quote %s: %s (%s)", verb, q.EventTitle, q.ClientName)
	ownerBody := fmt.Sprintf("<p>%s has %s the quote for <strong>%s</strong>. Total: %.2f.</p>",
		q.ClientName, verb, q.EventTitle, q.TotalAmount)
	s.enqueue(ctx, s.cfg.OwnerEmail, ownerSubject, ownerBody)

	subject, body := s.renderEmail(ctx, templateName, vars,
		fmt.Sprintf("You have %s the quote for %s", verb, q.EventTitle),
		fmt.Sprintf("<p>Hi %s,</p><p>This confirms you have %s the quote for <strong>%s</strong>.</p>",
			q.ClientName, verb, q.EventTitle),
	)
	s.enqueue(ctx, q.ClientEmail, subject, body)
}

// renderEmail prefers a stored template, falling back to the built-in copy.
func (s *Service) renderEmail(ctx context.Context, name string, vars map[string]string, fallbackSubject, fallbackBody string) (string, string) {
	if s.templates != nil {
		subject, body, err := s.templates.Render(ctx, name, vars)
		if err == nil {
			return subject, body
		}
		s.logger.Debug("email template unavailable, using built-in copy",
			slog.String("template", name), slog.Any("error", err))
	}
	return fallbackSubject, fallbackBody
}

func (s *Service) enqueue(ctx context.Context, to, subject, body string) {
	if to == "" {
		return
	}
	if err := s.notifier.EnqueueSendEmail(ctx, to, subject, body); err != nil {
		s.logger.Error("enqueue notification failed", slog.String("to", to), slog.Any("error", err))
	}
}
