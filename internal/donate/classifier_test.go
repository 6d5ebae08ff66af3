package donate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

func gwErr(domainName, code string) domain.GatewayError {
	return domain.GatewayError{Domain: domainName, Code: code, Message: "gateway message " + code}
}

func TestClassifyAddressErrorsTakePrecedence(t *testing.T) {
	// A postal-code error must win even when card errors accompany it.
	err := ClassifyGatewayErrors([]domain.GatewayError{
		gwErr("credit_card", codeNumberIsInvalid),
		gwErr("address", codePostalCodeInvalidCharacters),
		gwErr("credit_card", codeCvvIsInvalid),
	})

	var addrErr *domain.AddressError
	require.ErrorAs(t, err, &addrErr)
	assert.Equal(t, []string{domain.MsgPostalCodeInvalid}, addrErr.Messages)
}

func TestClassifyPostalCodeTooLong(t *testing.T) {
	err := ClassifyGatewayErrors([]domain.GatewayError{
		gwErr("address", codePostalCodeIsTooLong),
	})

	var addrErr *domain.AddressError
	require.ErrorAs(t, err, &addrErr)
	assert.Equal(t, []string{domain.MsgPostalCodeInvalid}, addrErr.Messages)
}

func TestClassifyCollectsCardErrorsInOrder(t *testing.T) {
	err := ClassifyGatewayErrors([]domain.GatewayError{
		gwErr("credit_card", codeCreditCardTypeIsNotAccepted),
		gwErr("credit_card", "99999"), // unknown codes are skipped, not reported
		gwErr("credit_card", codeExpirationDateIsInvalid),
	})

	var declineErr *domain.CardDeclineError
	require.ErrorAs(t, err, &declineErr)
	assert.Equal(t, []string{
		domain.MsgCardTypeNotAccepted,
		domain.MsgExpirationInvalid,
	}, declineErr.Messages)
}

func TestClassifyCardNumberInvalidMessage(t *testing.T) {
	err := ClassifyGatewayErrors([]domain.GatewayError{
		gwErr("credit_card", codeNumberIsInvalid),
	})

	var declineErr *domain.CardDeclineError
	require.ErrorAs(t, err, &declineErr)
	assert.Equal(t, []string{"The credit card number you entered was invalid."}, declineErr.Messages)
}

func TestClassifyBothCvvCodesMapToSameMessage(t *testing.T) {
	err := ClassifyGatewayErrors([]domain.GatewayError{
		gwErr("credit_card", codeCvvIsInvalid),
		gwErr("credit_card", codeCvvVerificationFailed),
	})

	var declineErr *domain.CardDeclineError
	require.ErrorAs(t, err, &declineErr)
	assert.Equal(t, []string{domain.MsgCVVInvalid, domain.MsgCVVInvalid}, declineErr.Messages)
}

func TestClassifyFallsBackToGenericMessage(t *testing.T) {
	tests := []struct {
		name   string
		errors []domain.GatewayError
	}{
		{name: "no structured errors", errors: nil},
		{name: "only unrecognized codes", errors: []domain.GatewayError{
			gwErr("transaction", "91507"),
			gwErr("credit_card", "12345"),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyGatewayErrors(tt.errors)

			var genericErr *domain.GenericGatewayError
			require.ErrorAs(t, err, &genericErr)
			assert.Equal(t, domain.MsgGenericPaymentError, genericErr.Message)
		})
	}
}
