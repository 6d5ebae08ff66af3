// Package braintree implements the domain.Gateway interface by making HTTP
// requests to the payment gateway's REST API.
//
// Business-level declines are decoded into a GatewayResult with the
// structured error list preserved in order; only transport-level failures
// (network errors, timeouts, unexpected statuses, undecodable bodies) become
// Go errors, wrapping domain.ErrGatewayUnavailable. The client never
// retries: a blind retry of a charge could bill the donor twice.
package braintree

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

const (
	sandboxBaseURL    = "https://api.sandbox.braintreegateway.com"
	productionBaseURL = "https://api.braintreegateway.com"

	dateFormat = "2006-01-02"
)

// Config holds the gateway credentials and environment selection.
type Config struct {
	Environment string // "sandbox" or "production"
	BaseURL     string // overrides the environment URL; used by tests
	MerchantID  string
	PublicKey   string
	PrivateKey  string
	Timeout     time.Duration
}

// Client talks to the payment gateway. It implements domain.Gateway.
type Client struct {
	baseURL    string
	merchantID string
	publicKey  string
	privateKey string
	httpClient *http.Client
}

// NewClient creates a gateway client for the configured environment.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Environment == "production" {
			baseURL = productionBaseURL
		} else {
			baseURL = sandboxBaseURL
		}
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		merchantID: cfg.MerchantID,
		publicKey:  cfg.PublicKey,
		privateKey: cfg.PrivateKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type billingAddressParams struct {
	StreetAddress     string `json:"street_address"`
	Locality          string `json:"locality"`
	PostalCode        string `json:"postal_code"`
	CountryCodeAlpha2 string `json:"country_code_alpha2"`
	Region            string `json:"region,omitempty"`
}

type creditCardParams struct {
	BillingAddress billingAddressParams `json:"billing_address"`
}

type customerParams struct {
	FirstName          string            `json:"first_name,omitempty"`
	LastName           string            `json:"last_name,omitempty"`
	Email              string            `json:"email,omitempty"`
	PaymentMethodNonce string            `json:"payment_method_nonce"`
	CustomFields       map[string]string `json:"custom_fields,omitempty"`
	CreditCard         *creditCardParams `json:"credit_card,omitempty"`
}

type customerPayload struct {
	Customer customerParams `json:"customer"`
}

type transactionOptions struct {
	SubmitForSettlement bool `json:"submit_for_settlement"`
}

type transactionParams struct {
	// Amount is pre-formatted with two decimal places; decimal.Decimal
	// would marshal 50.00 as "50", which the gateway rejects.
	Amount             string             `json:"amount"`
	MerchantAccountID  string             `json:"merchant_account_id"`
	PaymentMethodToken string             `json:"payment_method_token,omitempty"`
	PaymentMethodNonce string             `json:"payment_method_nonce,omitempty"`
	CustomFields       map[string]string  `json:"custom_fields,omitempty"`
	Options            transactionOptions `json:"options"`
}

type transactionPayload struct {
	Transaction transactionParams `json:"transaction"`
}

type subscriptionParams struct {
	PlanID             string `json:"plan_id"`
	MerchantAccountID  string `json:"merchant_account_id"`
	PaymentMethodToken string `json:"payment_method_token"`
	Price              string `json:"price"`
	FirstBillingDate   string `json:"first_billing_date,omitempty"`
}

type subscriptionPayload struct {
	Subscription subscriptionParams `json:"subscription"`
}

// resultEnvelope is the response envelope shared by all gateway operations.
type resultEnvelope struct {
	Success      bool               `json:"success"`
	Message      string             `json:"message,omitempty"`
	Errors       []gatewayErrorJSON `json:"errors,omitempty"`
	Customer     *customerJSON      `json:"customer,omitempty"`
	Transaction  *transactionJSON   `json:"transaction,omitempty"`
	Subscription *subscriptionJSON  `json:"subscription,omitempty"`
}

type gatewayErrorJSON struct {
	Domain  string `json:"domain"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type paymentMethodJSON struct {
	Token string `json:"token"`
	Last4 string `json:"last_4"`
}

type customerJSON struct {
	ID             string              `json:"id"`
	PaymentMethods []paymentMethodJSON `json:"payment_methods"`
}

type transactionJSON struct {
	ID                 string           `json:"id"`
	Amount             decimal.Decimal  `json:"amount"`
	SettlementAmount   *decimal.Decimal `json:"settlement_amount,omitempty"`
	Last4              string           `json:"last_4,omitempty"`
	PaymentMethodToken string           `json:"payment_method_token,omitempty"`
}

type subscriptionJSON struct {
	ID               string          `json:"id"`
	PlanID           string          `json:"plan_id"`
	Price            decimal.Decimal `json:"price"`
	FirstBillingDate string          `json:"first_billing_date,omitempty"`
}

// CreateCustomer implements domain.Gateway. Creating a customer vaults the
// payment method authorized by the nonce; the returned customer carries the
// vaulted tokens.
func (c *Client) CreateCustomer(ctx context.Context, req domain.CustomerRequest) (*domain.GatewayResult, error) {
	params := customerParams{
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		PaymentMethodNonce: req.Nonce,
		CustomFields:       req.CustomFields,
	}
	if req.Address != nil {
		params.CreditCard = &creditCardParams{
			BillingAddress: billingAddressParams{
				StreetAddress:     req.Address.StreetAddress,
				Locality:          req.Address.Town,
				PostalCode:        req.Address.PostalCode,
				CountryCodeAlpha2: req.Address.CountryCode,
				Region:            req.Address.Region,
			},
		}
	}
	return c.post(ctx, "customers", customerPayload{Customer: params})
}

// CreateTransaction implements domain.Gateway.
func (c *Client) CreateTransaction(ctx context.Context, req domain.TransactionRequest) (*domain.GatewayResult, error) {
	payload := transactionPayload{
		Transaction: transactionParams{
			Amount:             req.Amount.StringFixed(2),
			MerchantAccountID:  req.MerchantAccountID,
			PaymentMethodToken: req.PaymentMethodToken,
			PaymentMethodNonce: req.PaymentMethodNonce,
			CustomFields:       req.CustomFields,
			Options:            transactionOptions{SubmitForSettlement: req.SubmitForSettlement},
		},
	}
	return c.post(ctx, "transactions", payload)
}

// CreateSubscription implements domain.Gateway.
func (c *Client) CreateSubscription(ctx context.Context, req domain.SubscriptionRequest) (*domain.GatewayResult, error) {
	params := subscriptionParams{
		PlanID:             req.PlanID,
		MerchantAccountID:  req.MerchantAccountID,
		PaymentMethodToken: req.PaymentMethodToken,
		Price:              req.Price.StringFixed(2),
	}
	if !req.FirstBillingDate.IsZero() {
		params.FirstBillingDate = req.FirstBillingDate.Format(dateFormat)
	}
	return c.post(ctx, "subscriptions", subscriptionPayload{Subscription: params})
}

// post sends one gateway request and decodes the result envelope. Declines
// come back with HTTP 422 and a decodable envelope; everything else outside
// 2xx is a transport-level failure.
func (c *Client) post(ctx context.Context, path string, payload any) (*domain.GatewayResult, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/merchants/%s/%s", c.baseURL, c.merchantID, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.publicKey, c.privateKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusUnprocessableEntity:
		// Decodable envelope, possibly a decline
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: unexpected status %d: %s", domain.ErrGatewayUnavailable, resp.StatusCode, string(body))
	}

	var envelope resultEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", domain.ErrGatewayUnavailable, err)
	}
	return envelope.toDomain(), nil
}

func (e *resultEnvelope) toDomain() *domain.GatewayResult {
	result := &domain.GatewayResult{
		IsSuccess: e.Success,
		Message:   e.Message,
	}
	for _, ge := range e.Errors {
		result.Errors = append(result.Errors, domain.GatewayError{
			Domain:  ge.Domain,
			Code:    ge.Code,
			Message: ge.Message,
		})
	}
	if e.Customer != nil {
		customer := &domain.Customer{ID: e.Customer.ID}
		for _, pm := range e.Customer.PaymentMethods {
			customer.PaymentMethods = append(customer.PaymentMethods, domain.VaultedPaymentMethod{
				Token: pm.Token,
				Last4: pm.Last4,
			})
		}
		result.Customer = customer
	}
	if e.Transaction != nil {
		result.Transaction = &domain.Transaction{
			ID:                 e.Transaction.ID,
			Amount:             e.Transaction.Amount,
			SettlementAmount:   e.Transaction.SettlementAmount,
			Last4:              e.Transaction.Last4,
			PaymentMethodToken: e.Transaction.PaymentMethodToken,
		}
	}
	if e.Subscription != nil {
		sub := &domain.Subscription{
			ID:     e.Subscription.ID,
			PlanID: e.Subscription.PlanID,
			Price:  e.Subscription.Price,
		}
		if e.Subscription.FirstBillingDate != "" {
			if d, err := time.Parse(dateFormat, e.Subscription.FirstBillingDate); err == nil {
				sub.FirstBillingDate = d
			}
		}
		result.Subscription = sub
	}
	return result
}
