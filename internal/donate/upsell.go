package donate

import (
	"github.com/shopspring/decimal"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// SuggestedMonthlyUpgrade returns the monthly amount to offer a donor who
// made a one-time donation of singleAmount in the given currency. ok is
// false when the currency is unsupported or the amount falls below every
// upgrade tier; the caller then skips the upsell step entirely.
func SuggestedMonthlyUpgrade(currency string, singleAmount decimal.Decimal) (decimal.Decimal, bool) {
	info, ok := CurrencyByCode(currency)
	if !ok {
		return decimal.Decimal{}, false
	}
	for _, tier := range info.MonthlyUpgrades {
		if singleAmount.GreaterThanOrEqual(tier.Min) {
			return tier.Suggest, true
		}
	}
	return decimal.Decimal{}, false
}

// EligibleForUpsell reports whether the session's completed payment can be
// converted by an upsell of the given method. The prior payment must be a
// one-time donation made with the same method; this also blocks repeat
// submissions, since a successful upsell leaves a monthly record behind.
func EligibleForUpsell(details *domain.CompletedTransactionDetails, method domain.PaymentMethod) bool {
	if details == nil {
		return false
	}
	if details.PaymentFrequency != domain.FrequencySingle || details.PaymentMethod != method {
		return false
	}
	// A card upsell bills the vaulted payment method; without its token
	// there is nothing to subscribe.
	if method == domain.MethodCard && details.PaymentMethodToken == "" {
		return false
	}
	return true
}
