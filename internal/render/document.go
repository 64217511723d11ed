package render

import (
	"fmt"
	"time"

	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
)

// ItemRow is one rendered line item. Formatted strings are empty when the
// item's visibility flags hide the corresponding column.
type ItemRow struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Description   []RichLine `json:"description,omitempty"`
	ScheduleDates string     `json:"scheduleDates,omitempty"`
	Quantity      string     `json:"quantity,omitempty"`
	Rate          string     `json:"rate,omitempty"`
	LineTotal     string     `json:"lineTotal"`
	Selectable    bool       `json:"selectable"`
	Selected      bool       `json:"selected"`
	RawQuantity   int        `json:"rawQuantity"`
	RawUnitPrice  float64    `json:"rawUnitPrice"`
}

// MetaField is one label/value pair in the document header.
type MetaField struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// TotalsBlock is the formatted summary. Discount and deposit lines are
// present only when the underlying settings call for them.
type TotalsBlock struct {
	PreDiscount string `json:"preDiscount,omitempty"`
	Discount    string `json:"discount,omitempty"`
	Total       string `json:"total"`
	Deposit     string `json:"deposit,omitempty"`
	DepositPct  string `json:"depositPct,omitempty"`
	Balance     string `json:"balance,omitempty"`
}

// PaymentBlock holds the bank details and terms shown beneath the totals.
type PaymentBlock struct {
	BSB           string     `json:"bsb,omitempty"`
	AccountNumber string     `json:"accountNumber,omitempty"`
	Terms         []RichLine `json:"terms,omitempty"`
}

// Document is the complete view-model for one quote page. Building it is a
// pure function of the quote, so rendering the same quote twice yields the
// same document.
type Document struct {
	Slug           string       `json:"slug"`
	Heading        string       `json:"heading"`
	EventTitle     string       `json:"eventTitle"`
	Meta           []MetaField  `json:"meta"`
	HeaderImage    string       `json:"headerImage,omitempty"`
	HeaderImagePos string       `json:"headerImagePos,omitempty"`
	Theme          Theme        `json:"theme"`
	Compulsory     []ItemRow    `json:"compulsoryItems"`
	Notes          []RichLine   `json:"notes,omitempty"`
	AddOns         []ItemRow    `json:"addOns,omitempty"`
	Payment        PaymentBlock `json:"payment"`
	Totals         TotalsBlock  `json:"totals"`
	ScopeOfWork    string       `json:"scopeOfWork,omitempty"`
	Decision       string       `json:"decision"`
	DecidedAt      *time.Time   `json:"decidedAt,omitempty"`
	Interactive    bool         `json:"interactive"`
	VersionNumber  int          `json:"versionNumber"`
}

// BuildDocument assembles the view-model from a quote's active version.
func BuildDocument(q *quotes.Quote) (*Document, error) {
	v := q.ActiveVersion()
	if v == nil {
		return nil, fmt.Errorf("quote %s has no versions", q.Slug)
	}

	decision := v.Decision()
	finalized := decision != quotes.DecisionPending
	symbol := v.Settings.CurrencySymbol
	totals := quotes.VersionTotals(*v)

	doc := &Document{
		Slug:           q.Slug,
		Heading:        string(q.InvoiceType),
		EventTitle:     q.EventTitle,
		Meta:           metaFields(q),
		HeaderImage:    v.Settings.HeaderImageURL,
		HeaderImagePos: v.Settings.HeaderImagePosition,
		Theme:          LookupTheme(v.Settings.Theme),
		Compulsory:     itemRows(v.CompulsoryItems, symbol, false, finalized),
		Notes:          RichText(v.Settings.PreparationNotes),
		AddOns:         itemRows(v.AddOns, symbol, true, finalized),
		Payment:        paymentBlock(v.Settings),
		Totals:         totalsBlock(totals, v.Settings, symbol),
		ScopeOfWork:    v.Settings.ScopeOfWorkURL,
		Decision:       string(decision),
		Interactive:    q.Status == quotes.QuoteStatusSent && !finalized,
		VersionNumber:  versionNumber(q),
	}
	switch decision {
	case quotes.DecisionAccepted:
		doc.DecidedAt = v.AcceptedAt
	case quotes.DecisionRejected:
		doc.DecidedAt = v.RejectedAt
	}
	return doc, nil
}

func metaFields(q *quotes.Quote) []MetaField {
	fields := []MetaField{
		{Label: "Prepared for", Value: q.ClientName},
		{Label: "Date", Value: q.EventDate.Format("Monday, 2 January 2006")},
	}
	if q.EventTime != "" {
		fields = append(fields, MetaField{Label: "Time", Value: q.EventTime})
	}
	fields = append(fields, MetaField{Label: "Location", Value: q.EventLocation})
	if q.PreparedBy != "" {
		fields = append(fields, MetaField{Label: "Prepared by", Value: q.PreparedBy})
	}
	return fields
}

// itemRows formats a collection. On finalized documents, add-ons the client
// declined (quantity zero) disappear entirely; while the quote is open they
// stay visible as unselected options.
func itemRows(items []quotes.LineItem, symbol string, addOn, finalized bool) []ItemRow {
	rows := make([]ItemRow, 0, len(items))
	for _, item := range items {
		if addOn && finalized && item.Quantity == 0 {
			continue
		}
		row := ItemRow{
			ID:           item.ID,
			Name:         item.Name,
			Description:  RichText(item.Description),
			LineTotal:    Money(symbol, item.LineTotal()),
			Selectable:   addOn,
			Selected:     addOn && item.Quantity > 0,
			RawQuantity:  item.Quantity,
			RawUnitPrice: item.UnitPrice,
		}
		if item.Visibility.ShowScheduleDates {
			row.ScheduleDates = item.ScheduleDates
		}
		if item.Visibility.ShowQuantity {
			row.Quantity = fmt.Sprintf("%d", item.Quantity)
		}
		if item.Visibility.ShowRate {
			row.Rate = Money(symbol, item.UnitPrice)
		}
		rows = append(rows, row)
	}
	if len(rows) == 0 {
		return nil
	}
	return rows
}

func totalsBlock(t quotes.Totals, s quotes.Settings, symbol string) TotalsBlock {
	block := TotalsBlock{Total: Money(symbol, t.Total)}
	if t.Discount > 0 {
		block.PreDiscount = Money(symbol, t.PreDiscount)
		block.Discount = "-" + Money(symbol, t.Discount)
	}
	if s.DepositPercentage > 0 {
		block.Deposit = Money(symbol, t.Deposit)
		block.DepositPct = fmt.Sprintf("%.0f%%", s.DepositPercentage)
		block.Balance = Money(symbol, t.Balance)
	}
	return block
}

func paymentBlock(s quotes.Settings) PaymentBlock {
	return PaymentBlock{
		BSB:           s.BankDetails.BSB,
		AccountNumber: s.BankDetails.AccountNumber,
		Terms:         RichText(s.PaymentTerms),
	}
}

func versionNumber(q *quotes.Quote) int {
	idx := q.Details.ActiveVersion
	if idx < 0 || idx >= len(q.Details.Versions) {
		idx = 0
	}
	return idx + 1
}
