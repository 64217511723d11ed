package quotes

// Totals are the derived amounts for a quote version. Values are kept at full
// float64 precision; rounding to two decimals happens at render time only.
type Totals struct {
	PreDiscount float64 `json:"preDiscountTotal"`
	Discount    float64 `json:"totalDiscountApplied"`
	Total       float64 `json:"discountedTotal"`
	Deposit     float64 `json:"depositAmount"`
	Balance     float64 `json:"balanceDue"`
}

// PreDiscountTotal sums unit price times quantity over both collections.
// Partially-filled drafts contribute zero rather than failing, because this
// runs on every form edit.
func PreDiscountTotal(compulsory, addOns []LineItem) float64 {
	var total float64
	for _, item := range compulsory {
		total += item.LineTotal()
	}
	for _, item := range addOns {
		total += item.LineTotal()
	}
	return total
}

// DiscountedTotal applies the percentage discount first, then subtracts the
// flat amount, floored at zero.
func DiscountedTotal(preDiscount, discountPercentage, discountAmount float64) float64 {
	total := preDiscount*(1-discountPercentage/100) - discountAmount
	if total < 0 {
		return 0
	}
	return total
}

// DepositAmount is the upfront portion of the discounted total.
func DepositAmount(discountedTotal, depositPercentage float64) float64 {
	return discountedTotal * depositPercentage / 100
}

// VersionTotals computes every derived amount for a version in one pass.
func VersionTotals(v Version) Totals {
	return CalculateTotals(v.CompulsoryItems, v.AddOns, v.Settings)
}

// CalculateTotals is the pricing engine entry point. Deposit plus balance
// always reconstitutes the discounted total.
func CalculateTotals(compulsory, addOns []LineItem, s Settings) Totals {
	pre := PreDiscountTotal(compulsory, addOns)
	total := DiscountedTotal(pre, s.DiscountPercentage, s.DiscountAmount)
	deposit := DepositAmount(total, s.DepositPercentage)
	return Totals{
		PreDiscount: pre,
		Discount:    pre - total,
		Total:       total,
		Deposit:     deposit,
		Balance:     total - deposit,
	}
}
