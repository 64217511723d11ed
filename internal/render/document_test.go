package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
)

func sampleQuote() *quotes.Quote {
	return &quotes.Quote{
		Slug:          "alex-audition-abc12345",
		ClientName:    "Alex Rivers",
		InvoiceType:   quotes.InvoiceTypeQuote,
		EventTitle:    "Audition Preparation",
		EventDate:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		EventLocation: "Studio",
		Status:        quotes.QuoteStatusSent,
		Details: quotes.Details{
			Versions: []quotes.Version{{
				CompulsoryItems: []quotes.LineItem{{
					ID: "c1", Name: "Coaching", UnitPrice: 450, Quantity: 1,
					Visibility: quotes.Visibility{ShowQuantity: true, ShowRate: true},
				}},
				AddOns: []quotes.LineItem{
					{ID: "a1", Name: "Extra session", UnitPrice: 120, Quantity: 1,
						Visibility: quotes.Visibility{ShowQuantity: true, ShowRate: true}},
					{ID: "a2", Name: "Recording", UnitPrice: 80, Quantity: 0},
				},
				Settings: quotes.Settings{
					CurrencySymbol:    "$",
					DepositPercentage: 50,
					Theme:             "black-gold",
				},
				CreatedAt: time.Now(),
			}},
		},
	}
}

func TestBuildDocumentIsDeterministic(t *testing.T) {
	q := sampleQuote()

	a, err := BuildDocument(q)
	require.NoError(t, err)
	b, err := BuildDocument(q)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestBuildDocumentTotalsAndMeta(t *testing.T) {
	doc, err := BuildDocument(sampleQuote())
	require.NoError(t, err)

	assert.Equal(t, "Quote", doc.Heading)
	assert.Equal(t, "$570.00", doc.Totals.Total)
	assert.Equal(t, "$285.00", doc.Totals.Deposit)
	assert.Equal(t, "50%", doc.Totals.DepositPct)
	assert.Equal(t, "$285.00", doc.Totals.Balance)
	// No discount configured, no discount lines.
	assert.Empty(t, doc.Totals.PreDiscount)
	assert.True(t, doc.Interactive)
	assert.Equal(t, 1, doc.VersionNumber)
}

func TestBuildDocumentVisibilityFlags(t *testing.T) {
	q := sampleQuote()
	q.Details.Versions[0].CompulsoryItems[0].Visibility = quotes.Visibility{}

	doc, err := BuildDocument(q)
	require.NoError(t, err)

	row := doc.Compulsory[0]
	assert.Empty(t, row.Quantity)
	assert.Empty(t, row.Rate)
	assert.Equal(t, "$450.00", row.LineTotal)
}

func TestBuildDocumentHidesDeclinedAddOnsOnceDecided(t *testing.T) {
	q := sampleQuote()

	open, err := BuildDocument(q)
	require.NoError(t, err)
	// While pending, declined options stay visible as unselected.
	require.Len(t, open.AddOns, 2)
	assert.True(t, open.AddOns[0].Selected)
	assert.False(t, open.AddOns[1].Selected)

	now := time.Now()
	q.Details.Versions[0].AcceptedAt = &now
	decided, err := BuildDocument(q)
	require.NoError(t, err)

	require.Len(t, decided.AddOns, 1)
	assert.Equal(t, "Extra session", decided.AddOns[0].Name)
	assert.False(t, decided.Interactive)
	assert.Equal(t, "ACCEPTED", decided.Decision)
}

func TestBuildDocumentOmitsEmptyAddOnSection(t *testing.T) {
	q := sampleQuote()
	q.Details.Versions[0].AddOns = nil

	doc, err := BuildDocument(q)
	require.NoError(t, err)
	assert.Nil(t, doc.AddOns)
}

func TestBuildDocumentNoVersions(t *testing.T) {
	q := &quotes.Quote{Slug: "empty"}
	_, err := BuildDocument(q)
	assert.Error(t, err)
}

func TestLookupThemeFallsBack(t *testing.T) {
	assert.Equal(t, "black-gold", LookupTheme("black-gold").ID)
	assert.Equal(t, "default", LookupTheme("no-such-theme").ID)
	assert.Equal(t, "default", LookupTheme("").ID)
}

func TestRichTextBulletsAndParagraphs(t *testing.T) {
	lines := RichText("Payment due soon.\r\n- Deposit within 7 days\n* Balance on the day\n\nThanks!")

	require.Len(t, lines, 5)
	assert.False(t, lines[0].Bullet)
	assert.True(t, lines[1].Bullet)
	assert.Equal(t, "Deposit within 7 days", lines[1].Text)
	assert.True(t, lines[2].Bullet)
	assert.Equal(t, "", lines[3].Text)
	assert.Equal(t, "Thanks!", lines[4].Text)

	assert.Nil(t, RichText("   "))
}

func TestMoneyFormatting(t *testing.T) {
	assert.Equal(t, "$1,400.00", Money("$", 1400))
	assert.Equal(t, "€0.50", Money("€", 0.5))
	assert.Equal(t, "$12.50", Money("", 12.5))
}
