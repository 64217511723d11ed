package quotes

import (
	"time"

	"github.com/google/uuid"
)

// LineItemPayload carries one item from the builder form.
type LineItemPayload struct {
	ID                string  `json:"id,omitempty"`
	Name              string  `json:"name"`
	Description       string  `json:"description,omitempty"`
	UnitPrice         float64 `json:"unitPrice" validate:"gte=0"`
	Quantity          int     `json:"quantity" validate:"gte=0"`
	ScheduleDates     string  `json:"scheduleDates,omitempty"`
	ShowScheduleDates bool    `json:"showScheduleDates"`
	ShowQuantity      bool    `json:"showQuantity"`
	ShowRate          bool    `json:"showRate"`
}

// SaveQuoteRequest is the full builder payload. Saving a draft runs the
// aggregate validation; structural limits are enforced here with validator
// tags, item-level rules through FieldErrors because struct tags cannot key
// errors by item index.
type SaveQuoteRequest struct {
	ClientName    string    `json:"client_name" validate:"required"`
	ClientEmail   string    `json:"client_email" validate:"required,email"`
	InvoiceType   string    `json:"invoice_type" validate:"required,oneof=Quote Invoice"`
	EventTitle    string    `json:"event_title" validate:"required"`
	EventDate     time.Time `json:"event_date" validate:"required"`
	EventTime     string    `json:"event_time,omitempty"`
	EventLocation string    `json:"event_location" validate:"required"`
	PreparedBy    string    `json:"prepared_by,omitempty"`

	CompulsoryItems []LineItemPayload `json:"compulsoryItems" validate:"required,min=1,dive"`
	AddOns          []LineItemPayload `json:"addOns" validate:"dive"`

	CurrencySymbol      string  `json:"currencySymbol,omitempty"`
	DepositPercentage   float64 `json:"depositPercentage" validate:"gte=0,lte=100"`
	DiscountPercentage  float64 `json:"discountPercentage" validate:"gte=0,lte=100"`
	DiscountAmount      float64 `json:"discountAmount" validate:"gte=0"`
	BSB                 string  `json:"bsb,omitempty"`
	AccountNumber       string  `json:"accountNumber,omitempty"`
	PaymentTerms        string  `json:"paymentTerms,omitempty"`
	PreparationNotes    string  `json:"preparationNotes,omitempty"`
	Theme               string  `json:"theme,omitempty"`
	HeaderImageURL      string  `json:"headerImageUrl,omitempty" validate:"omitempty,url"`
	HeaderImagePosition string  `json:"headerImagePosition,omitempty"`
	ScopeOfWorkURL      string  `json:"scopeOfWorkUrl,omitempty" validate:"omitempty,url"`
}

// AddOnSelection is one add-on choice submitted from the client document.
type AddOnSelection struct {
	ID       string `json:"id" validate:"required"`
	Quantity int    `json:"quantity" validate:"gte=0"`
}

// DecisionRequest is the client acceptance/rejection submission.
type DecisionRequest struct {
	ClientName          string           `json:"clientName" validate:"required"`
	ClientEmail         string           `json:"clientEmail" validate:"required,email"`
	FinalTotal          float64          `json:"finalTotal" validate:"gte=0"`
	FinalSelectedAddOns []AddOnSelection `json:"finalSelectedAddOns" validate:"dive"`
}

// ListQuotesRequest filters the admin quote list.
type ListQuotesRequest struct {
	Status   *QuoteStatus `json:"status,omitempty"`
	Decision *Decision    `json:"decision,omitempty"`
	Limit    int          `json:"limit" validate:"gte=0,lte=500"`
	Offset   int          `json:"offset" validate:"gte=0"`
}

func (r SaveQuoteRequest) settings() Settings {
	return Settings{
		CurrencySymbol:      r.CurrencySymbol,
		DepositPercentage:   r.DepositPercentage,
		DiscountPercentage:  r.DiscountPercentage,
		DiscountAmount:      r.DiscountAmount,
		BankDetails:         BankDetails{BSB: r.BSB, AccountNumber: r.AccountNumber},
		PaymentTerms:        r.PaymentTerms,
		PreparationNotes:    r.PreparationNotes,
		Theme:               r.Theme,
		HeaderImageURL:      r.HeaderImageURL,
		HeaderImagePosition: r.HeaderImagePosition,
		ScopeOfWorkURL:      r.ScopeOfWorkURL,
	}
}

func payloadItems(payloads []LineItemPayload) []LineItem {
	if len(payloads) == 0 {
		return nil
	}
	items := make([]LineItem, 0, len(payloads))
	for _, p := range payloads {
		item := LineItem{
			ID:            p.ID,
			Name:          p.Name,
			Description:   p.Description,
			UnitPrice:     p.UnitPrice,
			Quantity:      p.Quantity,
			ScheduleDates: p.ScheduleDates,
			Visibility: Visibility{
				ShowScheduleDates: p.ShowScheduleDates,
				ShowQuantity:      p.ShowQuantity,
				ShowRate:          p.ShowRate,
			},
		}
		if item.ID == "" {
			item.ID = uuid.NewString()
		}
		items = append(items, item)
	}
	return items
}
