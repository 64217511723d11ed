package giftcards

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v82"
)

func TestPurchaseFromSessionMapsMetadata(t *testing.T) {
	session := &stripe.CheckoutSession{
		ID:          "cs_test_abc",
		AmountTotal: 15000,
		Metadata: map[string]string{
			"gift_card_type":  "fixed_session",
			"sessions":        "3",
			"purchaser_name":  "Jamie Lee",
			"recipient_name":  "Morgan",
			"recipient_email": "morgan@example.com",
			"message":         "Happy birthday!",
		},
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "jamie@example.com",
			Name:  "J. Lee",
		},
	}

	purchase := purchaseFromSession(session)

	assert.Equal(t, "cs_test_abc", purchase.SessionID)
	assert.Equal(t, CardTypeFixedSession, purchase.Type)
	assert.Equal(t, 3, purchase.Sessions)
	assert.InDelta(t, 150.0, purchase.Amount, 0.001)
	assert.Equal(t, "Jamie Lee", purchase.PurchaserName)
	assert.Equal(t, "jamie@example.com", purchase.PurchaserEmail)
	assert.Equal(t, "Morgan", purchase.RecipientName)
	assert.Equal(t, "Happy birthday!", purchase.Message)
}

func TestPurchaseFromSessionDefaults(t *testing.T) {
	session := &stripe.CheckoutSession{
		ID:          "cs_test_min",
		AmountTotal: 5000,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "jamie@example.com",
			Name:  "Jamie",
		},
	}

	purchase := purchaseFromSession(session)

	assert.Equal(t, CardTypeOpenCredit, purchase.Type)
	assert.Equal(t, "Jamie", purchase.PurchaserName)
	// Recipient falls back to the purchaser for self-purchases.
	assert.Equal(t, "Jamie", purchase.RecipientName)
	assert.InDelta(t, 50.0, purchase.Amount, 0.001)
}
