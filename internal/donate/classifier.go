package donate

import (
	"github.com/Sancus/donate-wagtail/internal/domain"
)

// Gateway validation codes the classifier recognizes.
const (
	codePostalCodeIsTooLong         = "81809"
	codePostalCodeInvalidCharacters = "81813"
	codeCreditCardTypeIsNotAccepted = "81703"
	codeCvvIsInvalid                = "81706"
	codeExpirationDateIsInvalid     = "81710"
	codeNumberIsInvalid             = "81715"
	codeCvvVerificationFailed       = "81736"
)

var addressErrorMessages = map[string]string{
	codePostalCodeInvalidCharacters: domain.MsgPostalCodeInvalid,
	codePostalCodeIsTooLong:         domain.MsgPostalCodeInvalid,
}

var cardErrorMessages = map[string]string{
	codeCreditCardTypeIsNotAccepted: domain.MsgCardTypeNotAccepted,
	codeCvvIsInvalid:                domain.MsgCVVInvalid,
	codeCvvVerificationFailed:       domain.MsgCVVInvalid,
	codeExpirationDateIsInvalid:     domain.MsgExpirationInvalid,
	codeNumberIsInvalid:             domain.MsgCardNumberInvalid,
}

// ClassifyGatewayErrors converts a declined result's structured errors into
// the user-facing taxonomy. Address errors take precedence over everything
// else: the donor has to fix the address before the payment method matters.
// Recognized card errors are collected in the order the gateway reported
// them. Anything else degrades to the generic retry message, including an
// empty error list.
func ClassifyGatewayErrors(gatewayErrors []domain.GatewayError) error {
	for _, ge := range gatewayErrors {
		if msg, ok := addressErrorMessages[ge.Code]; ok {
			return &domain.AddressError{Messages: []string{msg}}
		}
	}

	var messages []string
	for _, ge := range gatewayErrors {
		if msg, ok := cardErrorMessages[ge.Code]; ok {
			messages = append(messages, msg)
		}
	}
	if len(messages) > 0 {
		return &domain.CardDeclineError{Messages: messages}
	}

	return &domain.GenericGatewayError{Message: domain.MsgGenericPaymentError}
}
