// Package domain contains the core business entities and interfaces for the donation service.
package domain

import (
	"errors"
	"strings"
)

// User-facing messages for classified gateway failures. These exact strings
// are shown to donors; handlers must not rephrase them.
const (
	MsgCardTypeNotAccepted = "The type of card you used is not accepted."
	MsgCVVInvalid          = "The CVV code you entered was invalid."
	MsgExpirationInvalid   = "The expiration date you entered was invalid."
	MsgCardNumberInvalid   = "The credit card number you entered was invalid."
	MsgPostalCodeInvalid   = "The post code you provided is not valid."
	MsgGenericPaymentError = "Sorry there was an error processing your payment. Please try again later or use a different payment method."
	MsgGenericUpsellError  = "Sorry there was an error processing your payment. Please try again later."
)

// Domain errors represent failures outside the classified decline taxonomy.
var (
	// ErrGatewayUnavailable is returned when the gateway cannot be reached at
	// the transport level (network failure, timeout, server error). Business
	// declines never produce it.
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")

	// ErrInvalidPaymentRequest is returned when a payment request fails local
	// validation before any gateway call is made.
	ErrInvalidPaymentRequest = errors.New("invalid payment request")

	// ErrPageNotFound is returned when a content page is missing or not live.
	ErrPageNotFound = errors.New("page not found")

	// ErrSessionNotFound is returned when no session exists for an id.
	ErrSessionNotFound = errors.New("session not found")
)

// AddressError reports gateway validation failures on the billing address.
// It takes precedence over any co-occurring card errors: the donor has to
// correct the address, not the payment method.
type AddressError struct {
	Messages []string
}

// Error implements the error interface.
func (e *AddressError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// CardDeclineError carries the user-facing messages for recognized card
// validation failures, in the order the gateway reported them.
type CardDeclineError struct {
	Messages []string
}

// Error implements the error interface.
func (e *CardDeclineError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// GenericGatewayError is a gateway failure that carries no actionable detail
// for the donor. Message is always one of the generic retry strings above.
type GenericGatewayError struct {
	Message string
}

// Error implements the error interface.
func (e *GenericGatewayError) Error() string {
	return e.Message
}
