package donate

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

func TestSuggestedMonthlyUpgrade(t *testing.T) {
	tests := []struct {
		name     string
		currency string
		amount   string
		want     string
		ok       bool
	}{
		{name: "top tier", currency: "usd", amount: "300", want: "30", ok: true},
		{name: "well above top tier", currency: "usd", amount: "10000", want: "30", ok: true},
		{name: "mid tier", currency: "usd", amount: "50", want: "5", ok: true},
		{name: "tier boundary is inclusive", currency: "usd", amount: "35", want: "5", ok: true},
		{name: "lowest tier", currency: "usd", amount: "15", want: "3", ok: true},
		{name: "below every tier", currency: "usd", amount: "14.99", ok: false},
		{name: "uppercase code accepted", currency: "GBP", amount: "120", want: "10", ok: true},
		{name: "unsupported currency", currency: "xyz", amount: "500", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SuggestedMonthlyUpgrade(tt.currency, decimal.RequireFromString(tt.amount))
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
					"got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestEligibleForUpsell(t *testing.T) {
	singleCard := &domain.CompletedTransactionDetails{
		PaymentFrequency:   domain.FrequencySingle,
		PaymentMethod:      domain.MethodCard,
		PaymentMethodToken: "tok-1",
	}
	singlePayPal := &domain.CompletedTransactionDetails{
		PaymentFrequency: domain.FrequencySingle,
		PaymentMethod:    domain.MethodPayPal,
	}
	monthlyCard := &domain.CompletedTransactionDetails{
		PaymentFrequency:   domain.FrequencyMonthly,
		PaymentMethod:      domain.MethodCard,
		PaymentMethodToken: "tok-1",
	}

	tests := []struct {
		name    string
		details *domain.CompletedTransactionDetails
		method  domain.PaymentMethod
		want    bool
	}{
		{name: "single card payment, card upsell", details: singleCard, method: domain.MethodCard, want: true},
		{name: "single paypal payment, paypal upsell", details: singlePayPal, method: domain.MethodPayPal, want: true},
		{name: "method mismatch", details: singlePayPal, method: domain.MethodCard, want: false},
		{name: "already monthly blocks repeats", details: monthlyCard, method: domain.MethodCard, want: false},
		{name: "no completed payment", details: nil, method: domain.MethodCard, want: false},
		{name: "card upsell without vaulted token", details: &domain.CompletedTransactionDetails{
			PaymentFrequency: domain.FrequencySingle,
			PaymentMethod:    domain.MethodCard,
		}, method: domain.MethodCard, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EligibleForUpsell(tt.details, tt.method))
		})
	}
}

func TestCurrencyByCode(t *testing.T) {
	info, ok := CurrencyByCode("usd")
	require.True(t, ok)
	assert.Equal(t, "usd", info.Code)
	assert.Equal(t, "$", info.Symbol)
	assert.True(t, info.MinAmount.Equal(decimal.NewFromInt(2)))

	_, ok = CurrencyByCode("zzz")
	assert.False(t, ok)
}
