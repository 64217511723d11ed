package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbuatti/danielebuatti-sub000/internal/quotes"
	"github.com/dbuatti/danielebuatti-sub000/internal/view"
)

func renderSample(t *testing.T, q *quotes.Quote) string {
	t.Helper()
	engine, err := view.NewEngine()
	require.NoError(t, err)

	html, err := NewHTMLRenderer(engine).HTML(q)
	require.NoError(t, err)
	return html
}

func fullQuote() *quotes.Quote {
	q := sampleQuote()
	settings := &q.Details.Versions[0].Settings
	settings.PreparationNotes = "Warm up before arrival.\n- Bring sheet music"
	settings.PaymentTerms = "Deposit within 7 days."
	settings.BankDetails = quotes.BankDetails{BSB: "063-000", AccountNumber: "12345678"}
	settings.ScopeOfWorkURL = "https://example.com/scope"
	return q
}

func TestHTMLSectionOrder(t *testing.T) {
	html := renderSample(t, fullQuote())

	markers := []string{
		`class="items"`,
		`class="notes"`,
		`class="addons"`,
		`class="payment"`,
		`class="totals"`,
		`class="doc-footer"`,
	}
	last := -1
	for _, marker := range markers {
		idx := strings.Index(html, marker)
		require.GreaterOrEqual(t, idx, 0, marker)
		assert.Greater(t, idx, last, marker)
		last = idx
	}
}

func TestHTMLInteractiveAddOnStepper(t *testing.T) {
	open := renderSample(t, fullQuote())
	assert.Contains(t, open, `class="qty-dec"`)
	assert.Contains(t, open, `class="qty-inc"`)
	assert.NotContains(t, open, "checkbox")

	q := fullQuote()
	now := time.Now()
	q.Details.Versions[0].AcceptedAt = &now
	decided := renderSample(t, q)
	assert.NotContains(t, decided, `class="qty-inc"`)
}
