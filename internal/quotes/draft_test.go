package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDraftStartsWithOneBlankItem(t *testing.T) {
	d := NewDraft()

	v := d.Quote.ActiveVersion()
	require.NotNil(t, v)
	assert.Len(t, v.CompulsoryItems, 1)
	assert.Equal(t, "$", v.Settings.CurrencySymbol)
	assert.Zero(t, d.Totals().Total)
}

func TestDraftRecalculatesOnEveryMutation(t *testing.T) {
	d := NewDraft()

	d.AddCompulsoryItem(NewLineItem("Coaching", 100, 2))
	assert.InDelta(t, 200.0, d.Totals().Total, 0.001)

	d.AddAddOn(NewLineItem("Recording", 50, 1))
	assert.InDelta(t, 250.0, d.Totals().Total, 0.001)

	d.UpdateSettings(Settings{DiscountAmount: 25})
	assert.InDelta(t, 225.0, d.Totals().Total, 0.001)
	assert.InDelta(t, 225.0, d.Quote.TotalAmount, 0.001)
}

func TestRemoveLastCompulsoryItemRejected(t *testing.T) {
	d := NewDraft()

	err := d.RemoveCompulsoryItem(0)
	assert.ErrorIs(t, err, ErrLastCompulsory)

	d.AddCompulsoryItem(NewLineItem("Second", 10, 1))
	require.NoError(t, d.RemoveCompulsoryItem(0))
	assert.Len(t, d.Quote.ActiveVersion().CompulsoryItems, 1)
}

func TestRemoveAddOnMayEmptyCollection(t *testing.T) {
	d := NewDraft()
	d.AddAddOn(NewLineItem("Extra", 10, 1))

	require.NoError(t, d.RemoveAddOn(0))
	assert.Empty(t, d.Quote.ActiveVersion().AddOns)
	assert.Error(t, d.RemoveAddOn(0))
}

func TestUpdateItemPreservesID(t *testing.T) {
	d := NewDraft()
	original := d.Quote.ActiveVersion().CompulsoryItems[0].ID

	require.NoError(t, d.UpdateCompulsoryItem(0, NewLineItem("Renamed", 75, 1)))

	updated := d.Quote.ActiveVersion().CompulsoryItems[0]
	assert.Equal(t, original, updated.ID)
	assert.Equal(t, "Renamed", updated.Name)
}

func TestMoveCompulsoryItem(t *testing.T) {
	d := NewDraft()
	d.AddCompulsoryItem(NewLineItem("B", 1, 1))
	d.AddCompulsoryItem(NewLineItem("C", 1, 1))

	require.NoError(t, d.MoveCompulsoryItem(2, 0))
	items := d.Quote.ActiveVersion().CompulsoryItems
	assert.Equal(t, "C", items[0].Name)

	assert.Error(t, d.MoveCompulsoryItem(0, 9))
}

func TestClearResetsDraft(t *testing.T) {
	d := NewDraft()
	d.AddCompulsoryItem(NewLineItem("Coaching", 100, 1))

	d.Clear()
	assert.Len(t, d.Quote.ActiveVersion().CompulsoryItems, 1)
	assert.Zero(t, d.Totals().Total)
}
