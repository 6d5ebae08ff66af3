// Package domain contains the core business entities and interfaces for the donation service.
// This is the innermost layer of the Clean Architecture - it has no dependencies on
// external frameworks or infrastructure.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentFrequency distinguishes one-time donations from recurring ones.
type PaymentFrequency string

// PaymentMethod identifies how the donor pays.
type PaymentMethod string

// Frequency and method values accepted by the donation flows.
const (
	FrequencySingle  PaymentFrequency = "single"
	FrequencyMonthly PaymentFrequency = "monthly"

	MethodCard   PaymentMethod = "card"
	MethodPayPal PaymentMethod = "paypal"
)

// BillingAddress is the donor's billing address, collected for card payments
// and forwarded to the gateway for address verification.
type BillingAddress struct {
	StreetAddress string `json:"street_address"`
	Town          string `json:"town"`
	Region        string `json:"region,omitempty"`
	PostalCode    string `json:"post_code"`
	CountryCode   string `json:"country"` // ISO 3166-1 alpha-2
}

// PaymentRequest describes a single donation attempt. It is immutable once
// submitted; the orchestrator never mutates it mid-flow.
type PaymentRequest struct {
	Amount       decimal.Decimal
	Currency     string // lowercase ISO 4217 code, e.g. "usd"
	Frequency    PaymentFrequency
	Method       PaymentMethod
	Nonce        string // single-use payment authorization issued by the gateway's client SDK
	FirstName    string
	LastName     string
	Email        string
	Address      BillingAddress
	SourcePageID int64
	Locale       string
	CustomFields map[string]string // campaign/project attribution forwarded to the gateway
}

// GatewayError is one structured validation error from the gateway,
// identified by its (domain, code) pair. The order of errors within a result
// is meaningful and must be preserved.
type GatewayError struct {
	Domain  string `json:"domain"` // e.g. "address", "credit_card"
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Transaction is a one-time charge created by the gateway.
type Transaction struct {
	ID                 string
	Amount             decimal.Decimal
	SettlementAmount   *decimal.Decimal // nil when the gateway did not report one
	Last4              string
	PaymentMethodToken string
}

// Subscription is a recurring billing agreement created by the gateway.
type Subscription struct {
	ID               string
	PlanID           string
	Price            decimal.Decimal
	FirstBillingDate time.Time // date-only; zero when billing starts immediately
}

// VaultedPaymentMethod is a payment method stored with the gateway, reusable
// without a fresh authorization.
type VaultedPaymentMethod struct {
	Token string
	Last4 string
}

// Customer is a gateway customer record with its vaulted payment methods.
type Customer struct {
	ID             string
	PaymentMethods []VaultedPaymentMethod
}

// GatewayResult is the outcome of a single gateway operation. Business-level
// declines are expressed here (IsSuccess false plus the ordered error list),
// never as Go errors. At most one of Transaction, Subscription and Customer
// is set, matching the operation that produced the result.
type GatewayResult struct {
	IsSuccess    bool
	Message      string // gateway's own summary, for logs only
	Errors       []GatewayError
	Transaction  *Transaction
	Subscription *Subscription
	Customer     *Customer
}

// CustomerRequest asks the gateway to create a customer and vault the payment
// method authorized by Nonce.
type CustomerRequest struct {
	FirstName    string
	LastName     string
	Email        string
	Nonce        string
	Address      *BillingAddress // nil for PayPal customers
	CustomFields map[string]string
}

// TransactionRequest asks the gateway to run a one-time charge. Exactly one
// of PaymentMethodToken and PaymentMethodNonce is set.
type TransactionRequest struct {
	Amount              decimal.Decimal
	MerchantAccountID   string
	PaymentMethodToken  string
	PaymentMethodNonce  string
	SubmitForSettlement bool
	CustomFields        map[string]string
}

// SubscriptionRequest asks the gateway to start a recurring billing agreement
// on a vaulted payment method.
type SubscriptionRequest struct {
	PlanID             string
	MerchantAccountID  string
	PaymentMethodToken string
	Price              decimal.Decimal
	FirstBillingDate   time.Time // zero means bill immediately
}

// CompletedTransactionDetails is the frozen record of a verified successful
// payment. It is created only on the orchestrator's success path and enters
// the session only through the ledger, which deep-copies it. A later upsell
// replaces the record wholesale; records are never merged.
type CompletedTransactionDetails struct {
	TransactionID      string           `json:"transaction_id"`
	PaymentMethod      PaymentMethod    `json:"payment_method"`
	PaymentFrequency   PaymentFrequency `json:"payment_frequency"`
	Currency           string           `json:"currency"`
	Amount             decimal.Decimal  `json:"amount"`
	SettlementAmount   *decimal.Decimal `json:"settlement_amount,omitempty"`
	Last4              string           `json:"last_4,omitempty"`
	PaymentMethodToken string           `json:"payment_method_token,omitempty"`
	FirstName          string           `json:"first_name,omitempty"`
	LastName           string           `json:"last_name,omitempty"`
	Email              string           `json:"email,omitempty"`
	Address            *BillingAddress  `json:"address,omitempty"` // card payments only
	SourcePageID       int64            `json:"source_page_id"`
	Locale             string           `json:"locale"`
}

// UpsellOffer invites a one-time donor to convert into a monthly subscriber.
type UpsellOffer struct {
	SuggestedAmount decimal.Decimal `json:"suggested_amount"`
	Currency        string          `json:"currency"`
}

// Page is a content page a donation originated from.
type Page struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Slug   string `json:"slug"`
	Locale string `json:"locale"`
	Live   bool   `json:"live"`
}

// NewsletterSignup is the payload queued for the marketing system when a
// donor opts into the newsletter.
type NewsletterSignup struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	SourceURL string `json:"source_url"`
	Locale    string `json:"lang"`
}
