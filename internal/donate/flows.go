package donate

import (
	"context"
	"fmt"

	"github.com/Sancus/donate-wagtail/internal/domain"
)

// PaymentFlow executes one donation variant against the gateway. Each
// variant is its own implementation; shared gateway steps live on Service
// and are composed by explicit delegation.
type PaymentFlow interface {
	Execute(ctx context.Context, req domain.PaymentRequest) (*domain.CompletedTransactionDetails, error)
}

// UpsellFlow converts a completed one-time donation into a monthly
// subscription billed one calendar month out.
type UpsellFlow interface {
	Execute(ctx context.Context, req UpsellRequest) (*domain.CompletedTransactionDetails, error)
}

func (s *Service) flowFor(method domain.PaymentMethod, frequency domain.PaymentFrequency) (PaymentFlow, error) {
	switch {
	case method == domain.MethodCard && frequency == domain.FrequencySingle:
		return &cardSingleFlow{svc: s}, nil
	case method == domain.MethodCard && frequency == domain.FrequencyMonthly:
		return &cardMonthlyFlow{svc: s}, nil
	case method == domain.MethodPayPal && frequency == domain.FrequencySingle:
		return &paypalSingleFlow{svc: s}, nil
	case method == domain.MethodPayPal && frequency == domain.FrequencyMonthly:
		return &paypalMonthlyFlow{svc: s}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported payment variant %s/%s",
			domain.ErrInvalidPaymentRequest, method, frequency)
	}
}

func (s *Service) upsellFlowFor(method domain.PaymentMethod) (UpsellFlow, error) {
	switch method {
	case domain.MethodCard:
		return &cardUpsellFlow{svc: s}, nil
	case domain.MethodPayPal:
		return &paypalUpsellFlow{svc: s}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported upsell method %s", domain.ErrInvalidPaymentRequest, method)
	}
}

// cardCustomerRequest builds the customer-create payload for card payments:
// payer identity, the authorizing nonce, and the billing address the gateway
// verifies. Custom fields ride on the customer, not the charge.
func cardCustomerRequest(req domain.PaymentRequest) domain.CustomerRequest {
	addr := req.Address
	return domain.CustomerRequest{
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Nonce:        req.Nonce,
		Address:      &addr,
		CustomFields: req.CustomFields,
	}
}

// cardSingleFlow vaults the customer first so a later upsell needs no fresh
// authorization, then charges the vaulted payment method once.
type cardSingleFlow struct {
	svc *Service
}

func (f *cardSingleFlow) Execute(ctx context.Context, req domain.PaymentRequest) (*domain.CompletedTransactionDetails, error) {
	const flow = "card-single"

	merchantAccount, err := f.svc.merchantAccount(req.Currency)
	if err != nil {
		return nil, err
	}

	customer, err := f.svc.createCustomer(ctx, flow, cardCustomerRequest(req))
	if err != nil {
		return nil, err
	}
	method := customer.PaymentMethods[0]

	tx, err := f.svc.sale(ctx, flow, domain.TransactionRequest{
		Amount:              req.Amount,
		MerchantAccountID:   merchantAccount,
		PaymentMethodToken:  method.Token,
		SubmitForSettlement: true,
	})
	if err != nil {
		return nil, err
	}

	last4 := tx.Last4
	if last4 == "" {
		last4 = method.Last4
	}

	addr := req.Address
	return &domain.CompletedTransactionDetails{
		TransactionID:      tx.ID,
		PaymentMethod:      domain.MethodCard,
		PaymentFrequency:   domain.FrequencySingle,
		Currency:           req.Currency,
		Amount:             req.Amount,
		SettlementAmount:   tx.SettlementAmount,
		Last4:              last4,
		PaymentMethodToken: method.Token,
		FirstName:          req.FirstName,
		LastName:           req.LastName,
		Email:              req.Email,
		Address:            &addr,
		SourcePageID:       req.SourcePageID,
		Locale:             req.Locale,
	}, nil
}

// cardMonthlyFlow vaults the customer, then subscribes the vaulted payment
// method to the currency's plan with billing starting immediately.
type cardMonthlyFlow struct {
	svc *Service
}

func (f *cardMonthlyFlow) Execute(ctx context.Context, req domain.PaymentRequest) (*domain.CompletedTransactionDetails, error) {
	const flow = "card-monthly"

	merchantAccount, err := f.svc.merchantAccount(req.Currency)
	if err != nil {
		return nil, err
	}
	planID, err := f.svc.plan(req.Currency)
	if err != nil {
		return nil, err
	}

	customer, err := f.svc.createCustomer(ctx, flow, cardCustomerRequest(req))
	if err != nil {
		return nil, err
	}
	method := customer.PaymentMethods[0]

	sub, err := f.svc.subscribe(ctx, flow, domain.SubscriptionRequest{
		PlanID:             planID,
		MerchantAccountID:  merchantAccount,
		PaymentMethodToken: method.Token,
		Price:              req.Amount,
	})
	if err != nil {
		return nil, err
	}

	addr := req.Address
	return &domain.CompletedTransactionDetails{
		TransactionID:    sub.ID,
		PaymentMethod:    domain.MethodCard,
		PaymentFrequency: domain.FrequencyMonthly,
		Currency:         req.Currency,
		Amount:           req.Amount,
		Last4:            method.Last4,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Email:            req.Email,
		Address:          &addr,
		SourcePageID:     req.SourcePageID,
		Locale:           req.Locale,
	}, nil
}

// paypalSingleFlow charges the nonce directly; nothing is vaulted, so the
// record carries no payment-method token.
type paypalSingleFlow struct {
	svc *Service
}

func (f *paypalSingleFlow) Execute(ctx context.Context, req domain.PaymentRequest) (*domain.CompletedTransactionDetails, error) {
	const flow = "paypal-single"

	merchantAccount, err := f.svc.merchantAccount(req.Currency)
	if err != nil {
		return nil, err
	}

	tx, err := f.svc.sale(ctx, flow, domain.TransactionRequest{
		Amount:              req.Amount,
		MerchantAccountID:   merchantAccount,
		PaymentMethodNonce:  req.Nonce,
		SubmitForSettlement: true,
		CustomFields:        req.CustomFields,
	})
	if err != nil {
		return nil, err
	}

	return &domain.CompletedTransactionDetails{
		TransactionID:    tx.ID,
		PaymentMethod:    domain.MethodPayPal,
		PaymentFrequency: domain.FrequencySingle,
		Currency:         req.Currency,
		Amount:           req.Amount,
		SettlementAmount: tx.SettlementAmount,
		SourcePageID:     req.SourcePageID,
		Locale:           req.Locale,
	}, nil
}

// paypalMonthlyFlow creates a customer from the nonce alone, then subscribes
// the vaulted PayPal account to the currency's plan.
type paypalMonthlyFlow struct {
	svc *Service
}

func (f *paypalMonthlyFlow) Execute(ctx context.Context, req domain.PaymentRequest) (*domain.CompletedTransactionDetails, error) {
	const flow = "paypal-monthly"

	merchantAccount, err := f.svc.merchantAccount(req.Currency)
	if err != nil {
		return nil, err
	}
	planID, err := f.svc.plan(req.Currency)
	if err != nil {
		return nil, err
	}

	customer, err := f.svc.createCustomer(ctx, flow, domain.CustomerRequest{
		Nonce:        req.Nonce,
		CustomFields: req.CustomFields,
	})
	if err != nil {
		return nil, err
	}
	method := customer.PaymentMethods[0]

	sub, err := f.svc.subscribe(ctx, flow, domain.SubscriptionRequest{
		PlanID:             planID,
		MerchantAccountID:  merchantAccount,
		PaymentMethodToken: method.Token,
		Price:              req.Amount,
	})
	if err != nil {
		return nil, err
	}

	return &domain.CompletedTransactionDetails{
		TransactionID:    sub.ID,
		PaymentMethod:    domain.MethodPayPal,
		PaymentFrequency: domain.FrequencyMonthly,
		Currency:         req.Currency,
		Amount:           req.Amount,
		SourcePageID:     req.SourcePageID,
		Locale:           req.Locale,
	}, nil
}

// cardUpsellFlow subscribes the payment-method token vaulted by the original
// single card payment. No customer is created and the donor authorizes
// nothing new; billing starts one calendar month out so the one-time gift
// and the first subscription charge never land in the same month.
type cardUpsellFlow struct {
	svc *Service
}

func (f *cardUpsellFlow) Execute(ctx context.Context, req UpsellRequest) (*domain.CompletedTransactionDetails, error) {
	const flow = "card-upsell"

	merchantAccount, err := f.svc.merchantAccount(req.Currency)
	if err != nil {
		return nil, err
	}
	planID, err := f.svc.plan(req.Currency)
	if err != nil {
		return nil, err
	}

	sub, err := f.svc.subscribe(ctx, flow, domain.SubscriptionRequest{
		PlanID:             planID,
		MerchantAccountID:  merchantAccount,
		PaymentMethodToken: req.PaymentMethodToken,
		Price:              req.Amount,
		FirstBillingDate:   addCalendarMonth(f.svc.now()),
	})
	if err != nil {
		return nil, err
	}

	return &domain.CompletedTransactionDetails{
		TransactionID:    sub.ID,
		PaymentMethod:    domain.MethodCard,
		PaymentFrequency: domain.FrequencyMonthly,
		Currency:         req.Currency,
		Amount:           req.Amount,
		SourcePageID:     req.SourcePageID,
		Locale:           req.Locale,
	}, nil
}

// paypalUpsellFlow takes a fresh nonce (one-time PayPal charges never vault
// a token), creates a customer from it and subscribes the vaulted account
// with billing starting one calendar month out.
type paypalUpsellFlow struct {
	svc *Service
}

func (f *paypalUpsellFlow) Execute(ctx context.Context, req UpsellRequest) (*domain.CompletedTransactionDetails, error) {
	const flow = "paypal-upsell"

	merchantAccount, err := f.svc.merchantAccount(req.Currency)
	if err != nil {
		return nil, err
	}
	planID, err := f.svc.plan(req.Currency)
	if err != nil {
		return nil, err
	}

	customer, err := f.svc.createCustomer(ctx, flow, domain.CustomerRequest{
		Nonce: req.Nonce,
	})
	if err != nil {
		return nil, err
	}
	method := customer.PaymentMethods[0]

	sub, err := f.svc.subscribe(ctx, flow, domain.SubscriptionRequest{
		PlanID:             planID,
		MerchantAccountID:  merchantAccount,
		PaymentMethodToken: method.Token,
		Price:              req.Amount,
		FirstBillingDate:   addCalendarMonth(f.svc.now()),
	})
	if err != nil {
		return nil, err
	}

	return &domain.CompletedTransactionDetails{
		TransactionID:    sub.ID,
		PaymentMethod:    domain.MethodPayPal,
		PaymentFrequency: domain.FrequencyMonthly,
		Currency:         req.Currency,
		Amount:           req.Amount,
		SourcePageID:     req.SourcePageID,
		Locale:           req.Locale,
	}, nil
}
