package donate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// Service implements the donation payment business logic. It orchestrates
// the gateway call sequence for each payment variant: create customer,
// charge or subscribe, then hand the frozen transaction details back to the
// caller. Failed steps never roll back earlier successful ones; a vaulted
// customer with no charge attached is harmless.
type Service struct {
	gateway          domain.Gateway
	merchantAccounts map[string]string // currency -> merchant account id
	plans            map[string]string // currency -> subscription plan id
	logger           *slog.Logger

	// now is replaceable in tests; upsell subscriptions bill one calendar
	// month from "today".
	now func() time.Time
}

// NewService creates a new donation service with the required dependencies.
func NewService(
	gateway domain.Gateway,
	merchantAccounts map[string]string,
	plans map[string]string,
	logger *slog.Logger,
) *Service {
	return &Service{
		gateway:          gateway,
		merchantAccounts: merchantAccounts,
		plans:            plans,
		logger:           logger.With("component", "donate"),
		now:              time.Now,
	}
}

// ProcessPayment runs the donation flow matching the request's method and
// frequency. On success it returns the completed-transaction record for the
// caller to freeze into the session. On failure it returns one of the
// classified errors from the domain taxonomy, or a transport error wrapping
// domain.ErrGatewayUnavailable.
func (s *Service) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (*domain.CompletedTransactionDetails, error) {
	info, err := s.validatePayment(req)
	if err != nil {
		return nil, err
	}
	// The merchant account and plan maps are keyed by the canonical lowercase
	// code, and the frozen record carries it.
	req.Currency = info.Code
	flow, err := s.flowFor(req.Method, req.Frequency)
	if err != nil {
		return nil, err
	}
	return flow.Execute(ctx, req)
}

// UpsellRequest describes the conversion of a completed one-time donation
// into a monthly subscription. A card upsell reuses the payment-method token
// vaulted by the original payment; a PayPal upsell carries a fresh nonce
// because one-time PayPal charges never vault anything.
type UpsellRequest struct {
	Amount             decimal.Decimal
	Currency           string
	Method             domain.PaymentMethod
	PaymentMethodToken string
	Nonce              string
	SourcePageID       int64
	Locale             string
}

// ProcessUpsell subscribes the donor to a monthly plan starting one calendar
// month from today. Gateway failures of any kind degrade to the single
// generic upsell message; the donor's original payment already succeeded and
// its session record is left untouched by the caller.
func (s *Service) ProcessUpsell(ctx context.Context, req UpsellRequest) (*domain.CompletedTransactionDetails, error) {
	info, err := s.validateUpsell(req)
	if err != nil {
		return nil, err
	}
	req.Currency = info.Code
	flow, err := s.upsellFlowFor(req.Method)
	if err != nil {
		return nil, err
	}
	details, err := flow.Execute(ctx, req)
	if err != nil {
		return nil, &domain.GenericGatewayError{Message: domain.MsgGenericUpsellError}
	}
	return details, nil
}

func (s *Service) validatePayment(req domain.PaymentRequest) (CurrencyInfo, error) {
	info, ok := CurrencyByCode(req.Currency)
	if !ok {
		return CurrencyInfo{}, fmt.Errorf("%w: unsupported currency %q", domain.ErrInvalidPaymentRequest, req.Currency)
	}
	if req.Amount.LessThan(info.MinAmount) {
		return CurrencyInfo{}, fmt.Errorf("%w: amount is below the %s minimum", domain.ErrInvalidPaymentRequest, info.Code)
	}
	if req.Nonce == "" {
		return CurrencyInfo{}, fmt.Errorf("%w: missing payment method nonce", domain.ErrInvalidPaymentRequest)
	}
	return info, nil
}

func (s *Service) validateUpsell(req UpsellRequest) (CurrencyInfo, error) {
	info, ok := CurrencyByCode(req.Currency)
	if !ok {
		return CurrencyInfo{}, fmt.Errorf("%w: unsupported currency %q", domain.ErrInvalidPaymentRequest, req.Currency)
	}
	if !req.Amount.IsPositive() {
		return CurrencyInfo{}, fmt.Errorf("%w: amount must be greater than 0", domain.ErrInvalidPaymentRequest)
	}
	switch req.Method {
	case domain.MethodCard:
		if req.PaymentMethodToken == "" {
			return CurrencyInfo{}, fmt.Errorf("%w: missing payment method token", domain.ErrInvalidPaymentRequest)
		}
	case domain.MethodPayPal:
		if req.Nonce == "" {
			return CurrencyInfo{}, fmt.Errorf("%w: missing payment method nonce", domain.ErrInvalidPaymentRequest)
		}
	}
	return info, nil
}

func (s *Service) merchantAccount(currency string) (string, error) {
	id, ok := s.merchantAccounts[currency]
	if !ok {
		return "", fmt.Errorf("no merchant account configured for currency %q", currency)
	}
	return id, nil
}

func (s *Service) plan(currency string) (string, error) {
	id, ok := s.plans[currency]
	if !ok {
		return "", fmt.Errorf("no subscription plan configured for currency %q", currency)
	}
	return id, nil
}

// createCustomer vaults the payment method carried by the request's nonce
// and returns the customer, whose first vaulted method the flows bill.
func (s *Service) createCustomer(ctx context.Context, flow string, req domain.CustomerRequest) (*domain.Customer, error) {
	result, err := s.gateway.CreateCustomer(ctx, req)
	if err != nil {
		return nil, s.transportFailure(flow, "customer_create", err)
	}
	if !result.IsSuccess {
		return nil, s.declined(flow, "customer_create", result)
	}
	if result.Customer == nil || len(result.Customer.PaymentMethods) == 0 {
		s.logger.Error("gateway reported success without a vaulted payment method", "flow", flow)
		return nil, &domain.GenericGatewayError{Message: domain.MsgGenericPaymentError}
	}
	return result.Customer, nil
}

// sale runs a one-time charge and returns the resulting transaction.
func (s *Service) sale(ctx context.Context, flow string, req domain.TransactionRequest) (*domain.Transaction, error) {
	result, err := s.gateway.CreateTransaction(ctx, req)
	if err != nil {
		return nil, s.transportFailure(flow, "transaction_sale", err)
	}
	if !result.IsSuccess {
		return nil, s.declined(flow, "transaction_sale", result)
	}
	if result.Transaction == nil {
		s.logger.Error("gateway reported success without a transaction", "flow", flow)
		return nil, &domain.GenericGatewayError{Message: domain.MsgGenericPaymentError}
	}
	return result.Transaction, nil
}

// subscribe starts a recurring billing agreement on a vaulted payment method.
func (s *Service) subscribe(ctx context.Context, flow string, req domain.SubscriptionRequest) (*domain.Subscription, error) {
	result, err := s.gateway.CreateSubscription(ctx, req)
	if err != nil {
		return nil, s.transportFailure(flow, "subscription_create", err)
	}
	if !result.IsSuccess {
		return nil, s.declined(flow, "subscription_create", result)
	}
	if result.Subscription == nil {
		s.logger.Error("gateway reported success without a subscription", "flow", flow)
		return nil, &domain.GenericGatewayError{Message: domain.MsgGenericPaymentError}
	}
	return result.Subscription, nil
}

// transportFailure logs a transport-level gateway failure distinctly from
// business declines and passes the wrapped error through, so callers can
// still match domain.ErrGatewayUnavailable.
func (s *Service) transportFailure(flow, step string, err error) error {
	s.logger.Error("payment gateway unreachable",
		"flow", flow,
		"step", step,
		"error", err.Error(),
	)
	return fmt.Errorf("%s %s: %w", flow, step, err)
}

// declined logs the full structured gateway result, then classifies it into
// the user-facing taxonomy.
func (s *Service) declined(flow, step string, result *domain.GatewayResult) error {
	s.logger.Error("payment declined by gateway",
		"flow", flow,
		"step", step,
		"gateway_message", result.Message,
		"gateway_errors", result.Errors,
	)
	return ClassifyGatewayErrors(result.Errors)
}
