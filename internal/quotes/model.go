package quotes

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// QuoteStatus tracks the editorial lifecycle of a quote. The client decision
// (accepted/rejected) lives on the version timestamps, not here.
type QuoteStatus string

const (
	QuoteStatusDraft QuoteStatus = "DRAFT"
	QuoteStatusSent  QuoteStatus = "SENT"
)

// InvoiceType selects the document heading.
type InvoiceType string

const (
	InvoiceTypeQuote   InvoiceType = "Quote"
	InvoiceTypeInvoice InvoiceType = "Invoice"
)

// Decision is the client-facing state of a quote version.
type Decision string

const (
	DecisionPending  Decision = "PENDING"
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
)

var (
	ErrAlreadyDecided = errors.New("quote has already been responded to")
	ErrLastCompulsory = errors.New("a quote must keep at least one compulsory item")
	ErrNotSent        = errors.New("quote has not been sent")
)

// Visibility controls which columns the rendered document shows for an item,
// independent of whether the underlying values are populated.
type Visibility struct {
	ShowScheduleDates bool `json:"showScheduleDates"`
	ShowQuantity      bool `json:"showQuantity"`
	ShowRate          bool `json:"showRate"`
}

// LineItem is a single service or add-on line. The line total is always
// derived, never stored.
type LineItem struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	UnitPrice     float64    `json:"unitPrice"`
	Quantity      int        `json:"quantity"`
	ScheduleDates string     `json:"scheduleDates,omitempty"`
	Visibility    Visibility `json:"visibility"`
}

// NewLineItem returns an item with a stable identifier for list keying.
func NewLineItem(name string, unitPrice float64, quantity int) LineItem {
	return LineItem{
		ID:        uuid.NewString(),
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Visibility: Visibility{
			ShowQuantity: true,
			ShowRate:     true,
		},
	}
}

// LineTotal derives the extended amount for the item.
func (li LineItem) LineTotal() float64 {
	return li.UnitPrice * float64(li.Quantity)
}

// BankDetails appear in the payment block of the rendered document.
type BankDetails struct {
	BSB           string `json:"bsb"`
	AccountNumber string `json:"acc"`
}

// Settings holds the commercial configuration of a quote version.
type Settings struct {
	CurrencySymbol      string      `json:"currencySymbol"`
	DepositPercentage   float64     `json:"depositPercentage"`
	DiscountPercentage  float64     `json:"discountPercentage"`
	DiscountAmount      float64     `json:"discountAmount"`
	BankDetails         BankDetails `json:"bankDetails"`
	PaymentTerms        string      `json:"paymentTerms,omitempty"`
	PreparationNotes    string      `json:"preparationNotes,omitempty"`
	Theme               string      `json:"theme,omitempty"`
	HeaderImageURL      string      `json:"headerImageUrl,omitempty"`
	HeaderImagePosition string      `json:"headerImagePosition,omitempty"`
	ScopeOfWorkURL      string      `json:"scopeOfWorkUrl,omitempty"`
}

// Version is one snapshot of a quote's items, settings and decision state.
type Version struct {
	CompulsoryItems []LineItem `json:"compulsoryItems"`
	AddOns          []LineItem `json:"addOns,omitempty"`
	Settings        Settings   `json:"settings"`
	AcceptedAt      *time.Time `json:"acceptedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// Decision derives the client state from the version timestamps.
func (v Version) Decision() Decision {
	switch {
	case v.AcceptedAt != nil:
		return DecisionAccepted
	case v.RejectedAt != nil:
		return DecisionRejected
	default:
		return DecisionPending
	}
}

// Details is the JSONB payload persisted alongside the quote header. Versions
// are an ordered list with an explicit active index, so exactly one version is
// active by construction.
type Details struct {
	Versions      []Version `json:"versions"`
	ActiveVersion int       `json:"activeVersion"`
}

// Quote is the aggregate owned by the business owner. The header mirrors the
// active version's decision timestamps and total so list queries never need to
// unpack the details payload.
type Quote struct {
	ID            int64       `json:"id"`
	Slug          string      `json:"slug"`
	ClientName    string      `json:"client_name"`
	ClientEmail   string      `json:"client_email"`
	InvoiceType   InvoiceType `json:"invoice_type"`
	EventTitle    string      `json:"event_title"`
	EventDate     time.Time   `json:"event_date"`
	EventTime     string      `json:"event_time,omitempty"`
	EventLocation string      `json:"event_location"`
	PreparedBy    string      `json:"prepared_by"`
	Status        QuoteStatus `json:"status"`
	TotalAmount   float64     `json:"total_amount"`
	Details       Details     `json:"details"`
	AcceptedAt    *time.Time  `json:"accepted_at,omitempty"`
	RejectedAt    *time.Time  `json:"rejected_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ActiveVersion returns the currently live version. The index is clamped so a
// malformed payload degrades to the first version instead of panicking.
func (q *Quote) ActiveVersion() *Version {
	if len(q.Details.Versions) == 0 {
		return nil
	}
	idx := q.Details.ActiveVersion
	if idx < 0 || idx >= len(q.Details.Versions) {
		idx = 0
	}
	return &q.Details.Versions[idx]
}

// Decision reports the client state of the active version.
func (q *Quote) Decision() Decision {
	v := q.ActiveVersion()
	if v == nil {
		return DecisionPending
	}
	return v.Decision()
}

// NewVersion snapshots the active version into a fresh pending version and
// makes it the active one. History is preserved; prior versions keep their
// decision timestamps.
func (q *Quote) NewVersion(now time.Time) error {
	active := q.ActiveVersion()
	if active == nil {
		return errors.New("quote has no versions")
	}
	next := Version{
		CompulsoryItems: cloneItems(active.CompulsoryItems),
		AddOns:          cloneItems(active.AddOns),
		Settings:        active.Settings,
		CreatedAt:       now,
	}
	q.Details.Versions = append(q.Details.Versions, next)
	q.Details.ActiveVersion = len(q.Details.Versions) - 1
	q.SyncFromActive()
	return nil
}

// SyncFromActive copies the mirrored header fields from the active version.
func (q *Quote) SyncFromActive() {
	v := q.ActiveVersion()
	if v == nil {
		q.TotalAmount = 0
		q.AcceptedAt = nil
		q.RejectedAt = nil
		return
	}
	q.TotalAmount = VersionTotals(*v).Total
	q.AcceptedAt = v.AcceptedAt
	q.RejectedAt = v.RejectedAt
}

// Accept transitions the active version from pending to accepted. Client
// identity is recorded when the quote was created without it.
func (q *Quote) Accept(now time.Time, clientName, clientEmail string) error {
	return q.decide(now, clientName, clientEmail, true)
}

// Reject transitions the active version from pending to rejected.
func (q *Quote) Reject(now time.Time, clientName, clientEmail string) error {
	return q.decide(now, clientName, clientEmail, false)
}

func (q *Quote) decide(now time.Time, clientName, clientEmail string, accept bool) error {
	v := q.ActiveVersion()
	if v == nil {
		return errors.New("quote has no versions")
	}
	if v.Decision() != DecisionPending {
		return ErrAlreadyDecided
	}
	if accept {
		v.AcceptedAt = &now
		v.RejectedAt = nil
	} else {
		v.RejectedAt = &now
		v.AcceptedAt = nil
	}
	if q.ClientName == "" {
		q.ClientName = clientName
	}
	if q.ClientEmail == "" {
		q.ClientEmail = clientEmail
	}
	q.SyncFromActive()
	return nil
}

// FieldErrors maps a field path to a human-readable message.
type FieldErrors map[string]string

// Validate enforces the save-time invariants of the aggregate. It returns nil
// when the quote is persistable.
func (q *Quote) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(q.ClientName) == "" {
		errs["clientName"] = "client name is required"
	}
	if strings.TrimSpace(q.ClientEmail) == "" {
		errs["clientEmail"] = "client email is required"
	} else if _, err := mail.ParseAddress(q.ClientEmail); err != nil {
		errs["clientEmail"] = "client email is not a valid address"
	}
	if strings.TrimSpace(q.EventTitle) == "" {
		errs["eventTitle"] = "event title is required"
	}
	if q.EventDate.IsZero() {
		errs["eventDate"] = "event date is required"
	}
	if strings.TrimSpace(q.EventLocation) == "" {
		errs["eventLocation"] = "event location is required"
	}
	if q.InvoiceType != InvoiceTypeQuote && q.InvoiceType != InvoiceTypeInvoice {
		errs["invoiceType"] = "invoice type must be Quote or Invoice"
	}
	v := q.ActiveVersion()
	if v == nil || len(v.CompulsoryItems) == 0 {
		errs["compulsoryItems"] = "at least one compulsory item is required"
	}
	if v != nil {
		validateItems(errs, v.CompulsoryItems, "compulsoryItems", true)
		validateItems(errs, v.AddOns, "addOns", false)
		validateSettings(errs, v.Settings)
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validateItems(errs FieldErrors, items []LineItem, prefix string, compulsory bool) {
	minQty := 0
	if compulsory {
		minQty = 1
	}
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			errs[fmt.Sprintf("%s[%d].name", prefix, i)] = "name is required"
		}
		if item.UnitPrice < 0 {
			errs[fmt.Sprintf("%s[%d].unitPrice", prefix, i)] = "price must not be negative"
		}
		if item.Quantity < minQty {
			errs[fmt.Sprintf("%s[%d].quantity", prefix, i)] = fmt.Sprintf("quantity must be at least %d", minQty)
		}
	}
}

func validateSettings(errs FieldErrors, s Settings) {
	if s.DepositPercentage < 0 || s.DepositPercentage > 100 {
		errs["depositPercentage"] = "deposit percentage must be between 0 and 100"
	}
	if s.DiscountPercentage < 0 || s.DiscountPercentage > 100 {
		errs["discountPercentage"] = "discount percentage must be between 0 and 100"
	}
	if s.DiscountAmount < 0 {
		errs["discountAmount"] = "discount amount must not be negative"
	}
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
