package quotes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuote() Quote {
	return Quote{
		ClientName:    "Alex Rivers",
		ClientEmail:   "alex@example.com",
		InvoiceType:   InvoiceTypeQuote,
		EventTitle:    "Audition Preparation",
		EventDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EventLocation: "Studio",
		Status:        QuoteStatusDraft,
		Details: Details{
			Versions: []Version{{
				CompulsoryItems: []LineItem{NewLineItem("Coaching", 450, 1)},
				Settings:        Settings{CurrencySymbol: "$", DepositPercentage: 50},
				CreatedAt:       time.Now(),
			}},
		},
	}
}

func TestActiveVersionClampsBadIndex(t *testing.T) {
	q := validQuote()
	q.Details.ActiveVersion = 99

	v := q.ActiveVersion()
	require.NotNil(t, v)
	assert.Equal(t, "Coaching", v.CompulsoryItems[0].Name)
}

func TestNewVersionSnapshotsAndActivates(t *testing.T) {
	q := validQuote()
	now := time.Now()
	require.NoError(t, q.Accept(now, "", ""))

	require.NoError(t, q.NewVersion(now.Add(time.Hour)))

	assert.Len(t, q.Details.Versions, 2)
	assert.Equal(t, 1, q.Details.ActiveVersion)
	assert.Equal(t, DecisionPending, q.Decision())
	// Prior version keeps its decision.
	assert.Equal(t, DecisionAccepted, q.Details.Versions[0].Decision())
	// Header mirrors the new pending version.
	assert.Nil(t, q.AcceptedAt)
}

func TestNewVersionItemsAreIndependentCopies(t *testing.T) {
	q := validQuote()
	require.NoError(t, q.NewVersion(time.Now()))

	q.Details.Versions[1].CompulsoryItems[0].UnitPrice = 999
	assert.InDelta(t, 450.0, q.Details.Versions[0].CompulsoryItems[0].UnitPrice, 0.001)
}

func TestAcceptIsTerminal(t *testing.T) {
	q := validQuote()
	now := time.Now()

	require.NoError(t, q.Accept(now, "Alex", "alex@example.com"))
	assert.Equal(t, DecisionAccepted, q.Decision())
	assert.NotNil(t, q.AcceptedAt)

	err := q.Reject(now, "Alex", "alex@example.com")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
	err = q.Accept(now, "Alex", "alex@example.com")
	assert.ErrorIs(t, err, ErrAlreadyDecided)
}

func TestDecideRecordsClientIdentityOnlyWhenMissing(t *testing.T) {
	q := validQuote()
	q.ClientName = ""
	q.ClientEmail = ""

	require.NoError(t, q.Accept(time.Now(), "Sam Doe", "sam@example.com"))
	assert.Equal(t, "Sam Doe", q.ClientName)
	assert.Equal(t, "sam@example.com", q.ClientEmail)

	q2 := validQuote()
	require.NoError(t, q2.Reject(time.Now(), "Someone Else", "other@example.com"))
	assert.Equal(t, "Alex Rivers", q2.ClientName)
}

func TestValidateFieldErrors(t *testing.T) {
	q := validQuote()
	q.ClientEmail = "not-an-email"
	q.Details.Versions[0].CompulsoryItems[0].Name = ""
	q.Details.Versions[0].CompulsoryItems = append(q.Details.Versions[0].CompulsoryItems,
		LineItem{ID: "x", Name: "Extra", UnitPrice: -5, Quantity: 1})
	q.Details.Versions[0].Settings.DiscountPercentage = 120

	errs := q.Validate()
	require.NotNil(t, errs)
	assert.Contains(t, errs, "clientEmail")
	assert.Contains(t, errs, "compulsoryItems[0].name")
	assert.Contains(t, errs, "compulsoryItems[1].unitPrice")
	assert.Contains(t, errs, "discountPercentage")
}

func TestValidatePassesOnGoodQuote(t *testing.T) {
	q := validQuote()
	assert.Nil(t, q.Validate())
}

func TestValidateRequiresCompulsoryItem(t *testing.T) {
	q := validQuote()
	q.Details.Versions[0].CompulsoryItems = nil

	errs := q.Validate()
	require.NotNil(t, errs)
	assert.Contains(t, errs, "compulsoryItems")
}

func TestGenerateSlugShape(t *testing.T) {
	slug := GenerateSlug("Alex Rivers", "Audition Prep!")
	assert.Regexp(t, `^alex-rivers-audition-prep-[0-9a-f]{8}$`, slug)

	// Empty parts collapse instead of leaving dangling dashes.
	slug = GenerateSlug("", "  ")
	assert.Regexp(t, `^[0-9a-f]{8}$`, slug)
}
