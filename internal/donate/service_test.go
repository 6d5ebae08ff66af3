package donate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// fakeGateway scripts one result (or transport error) per operation and
// records every request it receives.
type fakeGateway struct {
	customerResult     *domain.GatewayResult
	customerErr        error
	transactionResult  *domain.GatewayResult
	transactionErr     error
	subscriptionResult *domain.GatewayResult
	subscriptionErr    error

	customerRequests     []domain.CustomerRequest
	transactionRequests  []domain.TransactionRequest
	subscriptionRequests []domain.SubscriptionRequest
}

func (g *fakeGateway) CreateCustomer(_ context.Context, req domain.CustomerRequest) (*domain.GatewayResult, error) {
	g.customerRequests = append(g.customerRequests, req)
	return g.customerResult, g.customerErr
}

func (g *fakeGateway) CreateTransaction(_ context.Context, req domain.TransactionRequest) (*domain.GatewayResult, error) {
	g.transactionRequests = append(g.transactionRequests, req)
	return g.transactionResult, g.transactionErr
}

func (g *fakeGateway) CreateSubscription(_ context.Context, req domain.SubscriptionRequest) (*domain.GatewayResult, error) {
	g.subscriptionRequests = append(g.subscriptionRequests, req)
	return g.subscriptionResult, g.subscriptionErr
}

func vaultedCustomerResult(token, last4 string) *domain.GatewayResult {
	return &domain.GatewayResult{
		IsSuccess: true,
		Customer: &domain.Customer{
			ID:             "cust-1",
			PaymentMethods: []domain.VaultedPaymentMethod{{Token: token, Last4: last4}},
		},
	}
}

func saleResult(id, settlement, last4 string) *domain.GatewayResult {
	tx := &domain.Transaction{ID: id, Last4: last4}
	if settlement != "" {
		s := decimal.RequireFromString(settlement)
		tx.SettlementAmount = &s
	}
	return &domain.GatewayResult{IsSuccess: true, Transaction: tx}
}

func subscriptionCreatedResult(id string) *domain.GatewayResult {
	return &domain.GatewayResult{IsSuccess: true, Subscription: &domain.Subscription{ID: id}}
}

func declinedResult(codes ...string) *domain.GatewayResult {
	result := &domain.GatewayResult{IsSuccess: false, Message: "Declined"}
	for _, code := range codes {
		result.Errors = append(result.Errors, domain.GatewayError{
			Domain: "credit_card", Code: code, Message: "declined " + code,
		})
	}
	return result
}

var testNow = time.Date(2025, time.January, 31, 12, 0, 0, 0, time.UTC)

func newTestService(gw domain.Gateway) *Service {
	svc := NewService(
		gw,
		map[string]string{"usd": "donate-usd", "eur": "donate-eur"},
		map[string]string{"usd": "donate-usd-monthly", "eur": "donate-eur-monthly"},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	svc.now = func() time.Time { return testNow }
	return svc
}

func cardPaymentRequest(frequency domain.PaymentFrequency) domain.PaymentRequest {
	return domain.PaymentRequest{
		Amount:    decimal.NewFromInt(50),
		Currency:  "usd",
		Frequency: frequency,
		Method:    domain.MethodCard,
		Nonce:     "fake-valid-nonce",
		FirstName: "Alice",
		LastName:  "Lovelace",
		Email:     "alice@example.org",
		Address: domain.BillingAddress{
			StreetAddress: "331 E Evelyn Ave",
			Town:          "Mountain View",
			PostalCode:    "94041",
			CountryCode:   "US",
		},
		SourcePageID: 42,
		Locale:       "en-US",
	}
}

func TestProcessPaymentCardSingle(t *testing.T) {
	gw := &fakeGateway{
		customerResult:    vaultedCustomerResult("tok-1", "1234"),
		transactionResult: saleResult("tx-1", "48.78", "1234"),
	}
	svc := newTestService(gw)

	details, err := svc.ProcessPayment(context.Background(), cardPaymentRequest(domain.FrequencySingle))
	require.NoError(t, err)

	assert.Equal(t, "tx-1", details.TransactionID)
	assert.Equal(t, domain.MethodCard, details.PaymentMethod)
	assert.Equal(t, domain.FrequencySingle, details.PaymentFrequency)
	assert.Equal(t, "usd", details.Currency)
	assert.True(t, details.Amount.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, "1234", details.Last4)
	assert.Equal(t, "tok-1", details.PaymentMethodToken, "single card payments must vault a token for the upsell")
	require.NotNil(t, details.SettlementAmount)
	assert.True(t, details.SettlementAmount.Equal(decimal.RequireFromString("48.78")))
	assert.Equal(t, int64(42), details.SourcePageID)
	assert.Equal(t, "en-US", details.Locale)
	require.NotNil(t, details.Address, "card records keep the payer's billing address")
	assert.Equal(t, "94041", details.Address.PostalCode)

	// The customer is vaulted first, then the vaulted token is charged.
	require.Len(t, gw.customerRequests, 1)
	custReq := gw.customerRequests[0]
	assert.Equal(t, "Alice", custReq.FirstName)
	assert.Equal(t, "fake-valid-nonce", custReq.Nonce)
	require.NotNil(t, custReq.Address)
	assert.Equal(t, "94041", custReq.Address.PostalCode)

	require.Len(t, gw.transactionRequests, 1)
	txReq := gw.transactionRequests[0]
	assert.Equal(t, "tok-1", txReq.PaymentMethodToken)
	assert.Empty(t, txReq.PaymentMethodNonce)
	assert.Equal(t, "donate-usd", txReq.MerchantAccountID)
	assert.True(t, txReq.SubmitForSettlement)
	assert.Empty(t, gw.subscriptionRequests)
}

func TestProcessPaymentCardSingleChargeDeclined(t *testing.T) {
	gw := &fakeGateway{
		customerResult:    vaultedCustomerResult("tok-1", "1234"),
		transactionResult: declinedResult(codeNumberIsInvalid),
	}
	svc := newTestService(gw)

	details, err := svc.ProcessPayment(context.Background(), cardPaymentRequest(domain.FrequencySingle))
	require.Nil(t, details)

	var declineErr *domain.CardDeclineError
	require.ErrorAs(t, err, &declineErr)
	assert.Equal(t, []string{"The credit card number you entered was invalid."}, declineErr.Messages)

	// The vaulted customer from the first step is left in place: no rollback,
	// and no further gateway calls after the failed charge.
	assert.Len(t, gw.customerRequests, 1)
	assert.Len(t, gw.transactionRequests, 1)
	assert.Empty(t, gw.subscriptionRequests)
}

func TestProcessPaymentCardCustomerDeclinedWithAddressError(t *testing.T) {
	declined := &domain.GatewayResult{
		IsSuccess: false,
		Message:   "Postal code validation failed",
		Errors: []domain.GatewayError{
			{Domain: "address", Code: codePostalCodeInvalidCharacters, Message: "postal code"},
		},
	}
	gw := &fakeGateway{customerResult: declined}
	svc := newTestService(gw)

	_, err := svc.ProcessPayment(context.Background(), cardPaymentRequest(domain.FrequencySingle))

	var addrErr *domain.AddressError
	require.ErrorAs(t, err, &addrErr)
	assert.Equal(t, []string{domain.MsgPostalCodeInvalid}, addrErr.Messages)
	assert.Empty(t, gw.transactionRequests, "charge must not be attempted after a failed vault step")
}

func TestProcessPaymentCardMonthly(t *testing.T) {
	gw := &fakeGateway{
		customerResult:     vaultedCustomerResult("tok-9", "4242"),
		subscriptionResult: subscriptionCreatedResult("sub-1"),
	}
	svc := newTestService(gw)

	req := cardPaymentRequest(domain.FrequencyMonthly)
	req.Amount = decimal.NewFromInt(10)

	details, err := svc.ProcessPayment(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", details.TransactionID)
	assert.Equal(t, domain.FrequencyMonthly, details.PaymentFrequency)
	assert.Equal(t, "4242", details.Last4, "monthly card details carry the vaulted method's last four digits")
	assert.Empty(t, details.PaymentMethodToken)
	assert.Nil(t, details.SettlementAmount)
	require.NotNil(t, details.Address)
	assert.Equal(t, "Mountain View", details.Address.Town)

	require.Len(t, gw.subscriptionRequests, 1)
	subReq := gw.subscriptionRequests[0]
	assert.Equal(t, "donate-usd-monthly", subReq.PlanID)
	assert.Equal(t, "donate-usd", subReq.MerchantAccountID)
	assert.Equal(t, "tok-9", subReq.PaymentMethodToken)
	assert.True(t, subReq.Price.Equal(decimal.NewFromInt(10)))
	assert.True(t, subReq.FirstBillingDate.IsZero(), "regular monthly donations bill immediately")
	assert.Empty(t, gw.transactionRequests)
}

func TestProcessPaymentPayPalSingle(t *testing.T) {
	gw := &fakeGateway{transactionResult: saleResult("tx-pp", "9.41", "")}
	svc := newTestService(gw)

	details, err := svc.ProcessPayment(context.Background(), domain.PaymentRequest{
		Amount:       decimal.NewFromInt(10),
		Currency:     "usd",
		Frequency:    domain.FrequencySingle,
		Method:       domain.MethodPayPal,
		Nonce:        "fake-paypal-nonce",
		SourcePageID: 7,
		Locale:       "de-DE",
	})
	require.NoError(t, err)

	assert.Equal(t, "tx-pp", details.TransactionID)
	assert.Equal(t, domain.MethodPayPal, details.PaymentMethod)
	assert.Empty(t, details.PaymentMethodToken, "one-time PayPal charges never vault a token")
	assert.Empty(t, details.Last4)
	assert.Nil(t, details.Address, "PayPal supplies payer details itself")
	require.NotNil(t, details.SettlementAmount)

	// The nonce is charged directly; no customer is created.
	assert.Empty(t, gw.customerRequests)
	require.Len(t, gw.transactionRequests, 1)
	txReq := gw.transactionRequests[0]
	assert.Equal(t, "fake-paypal-nonce", txReq.PaymentMethodNonce)
	assert.Empty(t, txReq.PaymentMethodToken)
	assert.True(t, txReq.SubmitForSettlement)
}

func TestProcessPaymentPayPalMonthly(t *testing.T) {
	gw := &fakeGateway{
		customerResult:     vaultedCustomerResult("tok-pp", ""),
		subscriptionResult: subscriptionCreatedResult("sub-pp"),
	}
	svc := newTestService(gw)

	details, err := svc.ProcessPayment(context.Background(), domain.PaymentRequest{
		Amount:    decimal.NewFromInt(15),
		Currency:  "eur",
		Frequency: domain.FrequencyMonthly,
		Method:    domain.MethodPayPal,
		Nonce:     "fake-paypal-nonce",
	})
	require.NoError(t, err)

	assert.Equal(t, "sub-pp", details.TransactionID)
	assert.Equal(t, domain.FrequencyMonthly, details.PaymentFrequency)

	// The customer is created from the nonce alone: no payer identity, no
	// billing address.
	require.Len(t, gw.customerRequests, 1)
	custReq := gw.customerRequests[0]
	assert.Empty(t, custReq.FirstName)
	assert.Nil(t, custReq.Address)
	assert.Equal(t, "fake-paypal-nonce", custReq.Nonce)

	require.Len(t, gw.subscriptionRequests, 1)
	assert.Equal(t, "donate-eur-monthly", gw.subscriptionRequests[0].PlanID)
	assert.Equal(t, "tok-pp", gw.subscriptionRequests[0].PaymentMethodToken)
}

func TestProcessPaymentGatewayUnavailable(t *testing.T) {
	transportErr := fmt.Errorf("post transaction: %w", domain.ErrGatewayUnavailable)
	gw := &fakeGateway{transactionErr: transportErr}
	svc := newTestService(gw)

	_, err := svc.ProcessPayment(context.Background(), domain.PaymentRequest{
		Amount:    decimal.NewFromInt(10),
		Currency:  "usd",
		Frequency: domain.FrequencySingle,
		Method:    domain.MethodPayPal,
		Nonce:     "fake-paypal-nonce",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrGatewayUnavailable))
}

func TestProcessPaymentValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*domain.PaymentRequest)
	}{
		{name: "unsupported currency", mutate: func(r *domain.PaymentRequest) { r.Currency = "xyz" }},
		{name: "below currency minimum", mutate: func(r *domain.PaymentRequest) { r.Amount = decimal.NewFromInt(1) }},
		{name: "missing nonce", mutate: func(r *domain.PaymentRequest) { r.Nonce = "" }},
		{name: "unknown frequency", mutate: func(r *domain.PaymentRequest) { r.Frequency = "weekly" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			svc := newTestService(gw)

			req := cardPaymentRequest(domain.FrequencySingle)
			tt.mutate(&req)

			_, err := svc.ProcessPayment(context.Background(), req)
			assert.True(t, errors.Is(err, domain.ErrInvalidPaymentRequest))
			assert.Empty(t, gw.customerRequests, "validation failures must not reach the gateway")
			assert.Empty(t, gw.transactionRequests)
		})
	}
}

func TestProcessPaymentNormalizesCurrencyCase(t *testing.T) {
	gw := &fakeGateway{
		customerResult:    vaultedCustomerResult("tok-1", "1234"),
		transactionResult: saleResult("tx-1", "48.78", "1234"),
	}
	svc := newTestService(gw)

	req := cardPaymentRequest(domain.FrequencySingle)
	req.Currency = "USD"

	details, err := svc.ProcessPayment(context.Background(), req)
	require.NoError(t, err, "currency codes are matched case-insensitively")

	// The record and the account lookups both use the canonical lowercase code.
	assert.Equal(t, "usd", details.Currency)
	require.Len(t, gw.transactionRequests, 1)
	assert.Equal(t, "donate-usd", gw.transactionRequests[0].MerchantAccountID)
}

func TestProcessUpsellNormalizesCurrencyCase(t *testing.T) {
	gw := &fakeGateway{subscriptionResult: subscriptionCreatedResult("sub-up")}
	svc := newTestService(gw)

	details, err := svc.ProcessUpsell(context.Background(), UpsellRequest{
		Amount:             decimal.NewFromInt(5),
		Currency:           "USD",
		Method:             domain.MethodCard,
		PaymentMethodToken: "tok-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "usd", details.Currency)
	require.Len(t, gw.subscriptionRequests, 1)
	assert.Equal(t, "donate-usd-monthly", gw.subscriptionRequests[0].PlanID)
}

func TestProcessUpsellCard(t *testing.T) {
	gw := &fakeGateway{subscriptionResult: subscriptionCreatedResult("sub-up")}
	svc := newTestService(gw)

	details, err := svc.ProcessUpsell(context.Background(), UpsellRequest{
		Amount:             decimal.NewFromInt(5),
		Currency:           "usd",
		Method:             domain.MethodCard,
		PaymentMethodToken: "tok-1",
		SourcePageID:       42,
		Locale:             "en-US",
	})
	require.NoError(t, err)

	assert.Equal(t, "sub-up", details.TransactionID)
	assert.Equal(t, domain.MethodCard, details.PaymentMethod)
	assert.Equal(t, domain.FrequencyMonthly, details.PaymentFrequency)
	assert.Equal(t, int64(42), details.SourcePageID)

	// The vaulted token is reused; no new customer, no new authorization.
	assert.Empty(t, gw.customerRequests)
	require.Len(t, gw.subscriptionRequests, 1)
	subReq := gw.subscriptionRequests[0]
	assert.Equal(t, "tok-1", subReq.PaymentMethodToken)

	// Billing starts one calendar month out, day clamped: Jan 31 -> Feb 28.
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), subReq.FirstBillingDate)
}

func TestProcessUpsellPayPal(t *testing.T) {
	gw := &fakeGateway{
		customerResult:     vaultedCustomerResult("tok-new", ""),
		subscriptionResult: subscriptionCreatedResult("sub-pp-up"),
	}
	svc := newTestService(gw)

	details, err := svc.ProcessUpsell(context.Background(), UpsellRequest{
		Amount:   decimal.NewFromInt(10),
		Currency: "usd",
		Method:   domain.MethodPayPal,
		Nonce:    "fresh-paypal-nonce",
	})
	require.NoError(t, err)
	assert.Equal(t, "sub-pp-up", details.TransactionID)
	assert.Equal(t, domain.MethodPayPal, details.PaymentMethod)

	// PayPal upsells need a fresh authorization: customer first, then the
	// subscription against the newly vaulted token.
	require.Len(t, gw.customerRequests, 1)
	assert.Equal(t, "fresh-paypal-nonce", gw.customerRequests[0].Nonce)
	require.Len(t, gw.subscriptionRequests, 1)
	assert.Equal(t, "tok-new", gw.subscriptionRequests[0].PaymentMethodToken)
	assert.Equal(t, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		gw.subscriptionRequests[0].FirstBillingDate)
}

func TestProcessUpsellFailuresDegradeToGenericMessage(t *testing.T) {
	tests := []struct {
		name string
		gw   *fakeGateway
	}{
		{name: "card decline", gw: &fakeGateway{subscriptionResult: declinedResult(codeNumberIsInvalid)}},
		{name: "transport failure", gw: &fakeGateway{
			subscriptionErr: fmt.Errorf("post subscription: %w", domain.ErrGatewayUnavailable),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(tt.gw)

			_, err := svc.ProcessUpsell(context.Background(), UpsellRequest{
				Amount:             decimal.NewFromInt(5),
				Currency:           "usd",
				Method:             domain.MethodCard,
				PaymentMethodToken: "tok-1",
			})

			var genericErr *domain.GenericGatewayError
			require.ErrorAs(t, err, &genericErr)
			assert.Equal(t, domain.MsgGenericUpsellError, genericErr.Message)
		})
	}
}

func TestProcessUpsellValidation(t *testing.T) {
	tests := []struct {
		name string
		req  UpsellRequest
	}{
		{name: "zero amount", req: UpsellRequest{
			Currency: "usd", Method: domain.MethodCard, PaymentMethodToken: "tok-1",
		}},
		{name: "card upsell without token", req: UpsellRequest{
			Amount: decimal.NewFromInt(5), Currency: "usd", Method: domain.MethodCard,
		}},
		{name: "paypal upsell without nonce", req: UpsellRequest{
			Amount: decimal.NewFromInt(5), Currency: "usd", Method: domain.MethodPayPal,
		}},
		{name: "unsupported currency", req: UpsellRequest{
			Amount: decimal.NewFromInt(5), Currency: "xyz", Method: domain.MethodCard, PaymentMethodToken: "tok-1",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &fakeGateway{}
			svc := newTestService(gw)

			_, err := svc.ProcessUpsell(context.Background(), tt.req)
			assert.True(t, errors.Is(err, domain.ErrInvalidPaymentRequest))
			assert.Empty(t, gw.subscriptionRequests)
		})
	}
}
