package quotes

import (
	"errors"
	"time"
)

// Draft is the in-memory working copy behind the quote builder form. It
// assumes a single editor per session; every mutating operation recalculates
// the derived totals synchronously so the caller never observes stale values.
type Draft struct {
	Quote  Quote
	totals Totals
}

// NewDraft returns an empty draft with one blank compulsory item, matching the
// form's initial state.
func NewDraft() *Draft {
	d := &Draft{
		Quote: Quote{
			InvoiceType: InvoiceTypeQuote,
			Status:      QuoteStatusDraft,
			Details: Details{
				Versions: []Version{{
					CompulsoryItems: []LineItem{NewLineItem("", 0, 1)},
					Settings: Settings{
						CurrencySymbol: "$",
						Theme:          "default",
					},
					CreatedAt: time.Now(),
				}},
			},
		},
	}
	d.Recalculate()
	return d
}

// DraftFromQuote wraps an existing quote for further editing.
func DraftFromQuote(q Quote) *Draft {
	d := &Draft{Quote: q}
	d.Recalculate()
	return d
}

// Totals returns the derived amounts as of the last mutation.
func (d *Draft) Totals() Totals {
	return d.totals
}

// Recalculate recomputes derived totals from the active version. Cheap and
// safe to run unconditionally.
func (d *Draft) Recalculate() {
	v := d.Quote.ActiveVersion()
	if v == nil {
		d.totals = Totals{}
		return
	}
	d.totals = VersionTotals(*v)
	d.Quote.TotalAmount = d.totals.Total
}

// AddCompulsoryItem appends to the compulsory collection.
func (d *Draft) AddCompulsoryItem(item LineItem) {
	if v := d.Quote.ActiveVersion(); v != nil {
		v.CompulsoryItems = append(v.CompulsoryItems, item)
	}
	d.Recalculate()
}

// AddAddOn appends to the add-ons collection.
func (d *Draft) AddAddOn(item LineItem) {
	if v := d.Quote.ActiveVersion(); v != nil {
		v.AddOns = append(v.AddOns, item)
	}
	d.Recalculate()
}

// RemoveCompulsoryItem removes by index. Removing the last remaining
// compulsory item is rejected so the invariant holds while editing.
func (d *Draft) RemoveCompulsoryItem(i int) error {
	v := d.Quote.ActiveVersion()
	if v == nil || i < 0 || i >= len(v.CompulsoryItems) {
		return errors.New("item index out of range")
	}
	if len(v.CompulsoryItems) == 1 {
		return ErrLastCompulsory
	}
	v.CompulsoryItems = append(v.CompulsoryItems[:i], v.CompulsoryItems[i+1:]...)
	d.Recalculate()
	return nil
}

// RemoveAddOn removes by index; the add-ons collection may become empty.
func (d *Draft) RemoveAddOn(i int) error {
	v := d.Quote.ActiveVersion()
	if v == nil || i < 0 || i >= len(v.AddOns) {
		return errors.New("item index out of range")
	}
	v.AddOns = append(v.AddOns[:i], v.AddOns[i+1:]...)
	d.Recalculate()
	return nil
}

// UpdateCompulsoryItem edits in place, preserving the item's stable ID.
func (d *Draft) UpdateCompulsoryItem(i int, item LineItem) error {
	v := d.Quote.ActiveVersion()
	if v == nil || i < 0 || i >= len(v.CompulsoryItems) {
		return errors.New("item index out of range")
	}
	item.ID = v.CompulsoryItems[i].ID
	v.CompulsoryItems[i] = item
	d.Recalculate()
	return nil
}

// UpdateAddOn edits in place, preserving the item's stable ID.
func (d *Draft) UpdateAddOn(i int, item LineItem) error {
	v := d.Quote.ActiveVersion()
	if v == nil || i < 0 || i >= len(v.AddOns) {
		return errors.New("item index out of range")
	}
	item.ID = v.AddOns[i].ID
	v.AddOns[i] = item
	d.Recalculate()
	return nil
}

// MoveCompulsoryItem reorders within the compulsory collection.
func (d *Draft) MoveCompulsoryItem(from, to int) error {
	v := d.Quote.ActiveVersion()
	if v == nil {
		return errors.New("quote has no versions")
	}
	moved, err := moveItem(v.CompulsoryItems, from, to)
	if err != nil {
		return err
	}
	v.CompulsoryItems = moved
	return nil
}

// MoveAddOn reorders within the add-ons collection.
func (d *Draft) MoveAddOn(from, to int) error {
	v := d.Quote.ActiveVersion()
	if v == nil {
		return errors.New("quote has no versions")
	}
	moved, err := moveItem(v.AddOns, from, to)
	if err != nil {
		return err
	}
	v.AddOns = moved
	return nil
}

// UpdateSettings replaces the commercial settings wholesale.
func (d *Draft) UpdateSettings(s Settings) {
	if v := d.Quote.ActiveVersion(); v != nil {
		v.Settings = s
	}
	d.Recalculate()
}

// Validate re-runs the aggregate validation on the current state. Preview is
// never blocked by the result; SaveDraft and CreateAndSend are.
func (d *Draft) Validate() FieldErrors {
	return d.Quote.Validate()
}

// Clear resets the draft to empty defaults, discarding unsaved edits.
func (d *Draft) Clear() {
	*d = *NewDraft()
}

func moveItem(items []LineItem, from, to int) ([]LineItem, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return nil, errors.New("item index out of range")
	}
	if from == to {
		return items, nil
	}
	item := items[from]
	items = append(items[:from], items[from+1:]...)
	items = append(items[:to], append([]LineItem{item}, items[to:]...)...)
	return items, nil
}
