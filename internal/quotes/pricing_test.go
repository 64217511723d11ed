package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(price float64, qty int) LineItem {
	li := NewLineItem("item", price, qty)
	return li
}

func TestCalculateTotalsPercentageDiscountAndDeposit(t *testing.T) {
	compulsory := []LineItem{item(1000, 1), item(200, 2)}
	s := Settings{DiscountPercentage: 10, DepositPercentage: 50}

	totals := CalculateTotals(compulsory, nil, s)

	assert.InDelta(t, 1400.0, totals.PreDiscount, 0.001)
	assert.InDelta(t, 140.0, totals.Discount, 0.001)
	assert.InDelta(t, 1260.0, totals.Total, 0.001)
	assert.InDelta(t, 630.0, totals.Deposit, 0.001)
	assert.InDelta(t, 630.0, totals.Balance, 0.001)
}

func TestCalculateTotalsPercentageThenFlat(t *testing.T) {
	compulsory := []LineItem{item(1000, 1)}
	s := Settings{DiscountPercentage: 10, DiscountAmount: 50}

	totals := CalculateTotals(compulsory, nil, s)

	// 1000 * 0.9 = 900, then minus 50.
	assert.InDelta(t, 850.0, totals.Total, 0.001)
	assert.InDelta(t, 150.0, totals.Discount, 0.001)
}

func TestCalculateTotalsFlooredAtZero(t *testing.T) {
	compulsory := []LineItem{item(100, 1)}
	s := Settings{DiscountAmount: 500}

	totals := CalculateTotals(compulsory, nil, s)

	assert.Zero(t, totals.Total)
	assert.Zero(t, totals.Deposit)
	assert.Zero(t, totals.Balance)
	assert.InDelta(t, 100.0, totals.Discount, 0.001)
}

func TestCalculateTotalsAddOnsContribute(t *testing.T) {
	compulsory := []LineItem{item(450, 1)}
	addOns := []LineItem{item(120, 2), item(80, 0)}

	totals := CalculateTotals(compulsory, addOns, Settings{})

	// Zero-quantity add-ons contribute nothing.
	assert.InDelta(t, 690.0, totals.Total, 0.001)
}

func TestDepositPlusBalanceReconstitutesTotal(t *testing.T) {
	cases := []struct {
		name       string
		depositPct float64
	}{
		{"no deposit", 0},
		{"half", 50},
		{"third", 33.333},
		{"full", 100},
	}
	compulsory := []LineItem{item(123.45, 3)}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			totals := CalculateTotals(compulsory, nil, Settings{DepositPercentage: tc.depositPct})
			require.InDelta(t, totals.Total, totals.Deposit+totals.Balance, 0.000001)
		})
	}
}

func TestLineTotalDerived(t *testing.T) {
	li := item(33.5, 4)
	assert.InDelta(t, 134.0, li.LineTotal(), 0.001)
}
