package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Sancus/donate-wagtail/internal/domain"
	"github.com/Sancus/donate-wagtail/internal/donate"
	"github.com/Sancus/donate-wagtail/internal/notify"
)

// subscribedCookieName is set by the marketing site once a visitor is already
// on the newsletter; it is read here, never written.
const subscribedCookieName = "subscribed"

// Handler contains the HTTP handlers for the donation API.
type Handler struct {
	donations  *donate.Service
	pages      domain.PageStore
	dispatcher *notify.Dispatcher
	logger     *slog.Logger
}

// NewHandler creates a new API handler with its collaborators.
func NewHandler(donations *donate.Service, pages domain.PageStore, dispatcher *notify.Dispatcher, logger *slog.Logger) *Handler {
	return &Handler{
		donations:  donations,
		pages:      pages,
		dispatcher: dispatcher,
		logger:     logger.With("component", "api"),
	}
}

// CardDonationRequest is the JSON body for POST /donate/card/:frequency.
type CardDonationRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required"`
	Nonce         string          `json:"payment_method_nonce" binding:"required"`
	FirstName     string          `json:"first_name" binding:"required"`
	LastName      string          `json:"last_name" binding:"required"`
	Email         string          `json:"email" binding:"required,email"`
	StreetAddress string          `json:"street_address" binding:"required"`
	Town          string          `json:"town" binding:"required"`
	Region        string          `json:"region"`
	PostalCode    string          `json:"post_code" binding:"required"`
	Country       string          `json:"country" binding:"required"`
	SourcePageID  int64           `json:"source_page_id"`
	Locale        string          `json:"locale"`
	CampaignID    string          `json:"campaign_id"`
	Project       string          `json:"project"`
	LandingURL    string          `json:"landing_url"`
}

// PayPalDonationRequest is the JSON body for POST /donate/paypal. The PayPal
// widget supplies payer details itself, so only the payment parameters are
// required.
type PayPalDonationRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	Currency     string          `json:"currency" binding:"required"`
	Frequency    string          `json:"frequency" binding:"required"`
	Nonce        string          `json:"payment_method_nonce" binding:"required"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	Email        string          `json:"email"`
	SourcePageID int64           `json:"source_page_id"`
	Locale       string          `json:"locale"`
	CampaignID   string          `json:"campaign_id"`
	Project      string          `json:"project"`
	LandingURL   string          `json:"landing_url"`
}

// UpsellConfirmRequest is the JSON body for the upsell confirmation
// endpoints. The nonce is only used by the PayPal variant; the card variant
// reuses the token vaulted by the original payment.
type UpsellConfirmRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Nonce  string          `json:"payment_method_nonce"`
}

// NewsletterRequest is the JSON body for POST /donate/newsletter. The email
// defaults to the one on the completed transaction.
type NewsletterRequest struct {
	Email string `json:"email" binding:"omitempty,email"`
}

// DonationErrorResponse carries the messages the donation form renders
// inline.
type DonationErrorResponse struct {
	FormErrors    []string `json:"form_errors,omitempty"`
	AddressErrors []string `json:"address_errors,omitempty"`
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "donate-wagtail",
	})
}

// Entry handles GET /
// The donation landing needs the currency catalog to render amount choices;
// failed flows redirect here.
func (h *Handler) Entry(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": donate.Currencies()})
}

// StartCardDonation handles GET /donate/card/:frequency
// Validates the start parameters carried over from the landing page. An
// unknown frequency is a 404; bad parameters send the visitor back to the
// entry point instead of surfacing an error.
func (h *Handler) StartCardDonation(c *gin.Context) {
	frequency, ok := parseFrequency(c.Param("frequency"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}

	info, ok := donate.CurrencyByCode(c.Query("currency"))
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil || amount.LessThan(info.MinAmount) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if raw := c.Query("source_page_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		if _, err := h.pages.LookupLive(c.Request.Context(), id); err != nil {
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"frequency": frequency,
		"amount":    amount,
		"currency":  info,
	})
}

// ProcessCardDonation handles POST /donate/card/:frequency
// Runs the card payment flow and redirects a successful single donation to
// the upsell step, a monthly one straight to the newsletter.
func (h *Handler) ProcessCardDonation(c *gin.Context) {
	frequency, ok := parseFrequency(c.Param("frequency"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}

	var req CardDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, DonationErrorResponse{
			FormErrors: []string{"Invalid request body: " + err.Error()},
		})
		return
	}

	payment := domain.PaymentRequest{
		Amount:    req.Amount,
		Currency:  req.Currency,
		Frequency: frequency,
		Method:    domain.MethodCard,
		Nonce:     req.Nonce,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Address: domain.BillingAddress{
			StreetAddress: req.StreetAddress,
			Town:          req.Town,
			Region:        req.Region,
			PostalCode:    req.PostalCode,
			CountryCode:   req.Country,
		},
		SourcePageID: req.SourcePageID,
		Locale:       req.Locale,
		CustomFields: customFields(req.CampaignID, req.Project, req.LandingURL),
	}

	details, err := h.donations.ProcessPayment(c.Request.Context(), payment)
	if err != nil {
		h.renderCardError(c, err)
		return
	}

	h.completeDonation(c, details)

	if frequency == domain.FrequencySingle {
		c.Redirect(http.StatusSeeOther, "/donate/upsell/card")
		return
	}
	c.Redirect(http.StatusSeeOther, "/donate/newsletter")
}

// StartPayPalDonation handles GET /donate/paypal
func (h *Handler) StartPayPalDonation(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"currencies": donate.Currencies()})
}

// ProcessPayPalDonation handles POST /donate/paypal
// The PayPal widget cannot re-render inline errors, so every failure sends
// the donor back to the start of the PayPal flow.
func (h *Handler) ProcessPayPalDonation(c *gin.Context) {
	var req PayPalDonationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Redirect(http.StatusSeeOther, "/donate/paypal")
		return
	}
	frequency, ok := parseFrequency(req.Frequency)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/donate/paypal")
		return
	}

	payment := domain.PaymentRequest{
		Amount:       req.Amount,
		Currency:     req.Currency,
		Frequency:    frequency,
		Method:       domain.MethodPayPal,
		Nonce:        req.Nonce,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		SourcePageID: req.SourcePageID,
		Locale:       req.Locale,
		CustomFields: customFields(req.CampaignID, req.Project, req.LandingURL),
	}

	details, err := h.donations.ProcessPayment(c.Request.Context(), payment)
	if err != nil {
		c.Redirect(http.StatusSeeOther, "/donate/paypal")
		return
	}

	h.completeDonation(c, details)

	if frequency == domain.FrequencySingle {
		c.Redirect(http.StatusSeeOther, "/donate/upsell/paypal")
		return
	}
	c.Redirect(http.StatusSeeOther, "/donate/newsletter")
}

// CardUpsellOffer handles GET /donate/upsell/card
func (h *Handler) CardUpsellOffer(c *gin.Context) {
	h.upsellOffer(c, domain.MethodCard)
}

// PayPalUpsellOffer handles GET /donate/upsell/paypal
func (h *Handler) PayPalUpsellOffer(c *gin.Context) {
	h.upsellOffer(c, domain.MethodPayPal)
}

func (h *Handler) upsellOffer(c *gin.Context, method domain.PaymentMethod) {
	offer, ok := h.offerFor(c, method)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/donate/newsletter")
		return
	}
	c.JSON(http.StatusOK, offer)
}

// offerFor rechecks eligibility on every visit: a record that is already
// monthly (including one just replaced by a successful upsell) skips forward.
func (h *Handler) offerFor(c *gin.Context, method domain.PaymentMethod) (*domain.UpsellOffer, bool) {
	sess := sessionFromContext(c)
	if sess == nil || sess.CompletedTransaction == nil {
		return nil, false
	}
	details := sess.CompletedTransaction
	if !donate.EligibleForUpsell(details, method) {
		return nil, false
	}
	suggested, ok := donate.SuggestedMonthlyUpgrade(details.Currency, details.Amount)
	if !ok {
		return nil, false
	}
	return &domain.UpsellOffer{SuggestedAmount: suggested, Currency: details.Currency}, true
}

// ProcessCardUpsell handles POST /donate/upsell/card
func (h *Handler) ProcessCardUpsell(c *gin.Context) {
	h.processUpsell(c, domain.MethodCard)
}

// ProcessPayPalUpsell handles POST /donate/upsell/paypal
func (h *Handler) ProcessPayPalUpsell(c *gin.Context) {
	h.processUpsell(c, domain.MethodPayPal)
}

func (h *Handler) processUpsell(c *gin.Context, method domain.PaymentMethod) {
	sess := sessionFromContext(c)
	if sess == nil || sess.CompletedTransaction == nil {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	details := sess.CompletedTransaction
	if !donate.EligibleForUpsell(details, method) {
		c.Redirect(http.StatusSeeOther, "/donate/newsletter")
		return
	}
	// A record whose (currency, amount) yields no suggestion never rendered
	// an offer; the confirmation skips forward the same way.
	if _, ok := donate.SuggestedMonthlyUpgrade(details.Currency, details.Amount); !ok {
		c.Redirect(http.StatusSeeOther, "/donate/newsletter")
		return
	}

	var req UpsellConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, DonationErrorResponse{
			FormErrors: []string{"Invalid request body: " + err.Error()},
		})
		return
	}

	upgraded, err := h.donations.ProcessUpsell(c.Request.Context(), donate.UpsellRequest{
		Amount:             req.Amount,
		Currency:           details.Currency,
		Method:             method,
		PaymentMethodToken: details.PaymentMethodToken,
		Nonce:              req.Nonce,
		SourcePageID:       sess.SourcePageID,
		Locale:             details.Locale,
	})
	if err != nil {
		h.renderUpsellError(c, err)
		return
	}

	// A successful upsell replaces the session record wholesale; the failed
	// path above leaves the original single-donation record untouched.
	h.completeDonation(c, upgraded)
	c.Redirect(http.StatusSeeOther, "/donate/newsletter")
}

// NewsletterForm handles GET /donate/newsletter
// Visitors already on the newsletter (external "subscribed" cookie) skip
// straight to the thank-you step.
func (h *Handler) NewsletterForm(c *gin.Context) {
	if subscribed, err := c.Cookie(subscribedCookieName); err == nil && subscribed == "1" {
		c.Redirect(http.StatusSeeOther, "/donate/thank-you")
		return
	}

	sess := sessionFromContext(c)
	details := sess.CompletedTransaction
	c.JSON(http.StatusOK, gin.H{
		"email":      details.Email,
		"first_name": details.FirstName,
		"last_name":  details.LastName,
	})
}

// ProcessNewsletterSignup handles POST /donate/newsletter
// The signup is queued best-effort; the donor moves on to the thank-you page
// no matter what happens to the queue.
func (h *Handler) ProcessNewsletterSignup(c *gin.Context) {
	sess := sessionFromContext(c)
	details := sess.CompletedTransaction

	var req NewsletterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, DonationErrorResponse{
			FormErrors: []string{"Invalid request body: " + err.Error()},
		})
		return
	}

	email := req.Email
	if email == "" {
		email = details.Email
	}
	if email == "" {
		c.JSON(http.StatusBadRequest, DonationErrorResponse{
			FormErrors: []string{"An email address is required to sign up."},
		})
		return
	}

	h.dispatcher.NewsletterSignup(c.Request.Context(), &domain.NewsletterSignup{
		Email:     email,
		FirstName: details.FirstName,
		LastName:  details.LastName,
		SourceURL: sourceURL(c.Request),
		Locale:    details.Locale,
	})

	c.Redirect(http.StatusSeeOther, "/donate/thank-you")
}

// ThankYou handles GET /donate/thank-you
// Returns the frozen transaction record, plus the source page when the
// content store still has it live. A vanished page is tolerated silently.
func (h *Handler) ThankYou(c *gin.Context) {
	sess := sessionFromContext(c)

	response := gin.H{"completed_transaction_details": sess.CompletedTransaction}
	if sess.SourcePageID != 0 {
		page, err := h.pages.LookupLive(c.Request.Context(), sess.SourcePageID)
		switch {
		case err == nil:
			response["source_page"] = page
		case !errors.Is(err, domain.ErrPageNotFound):
			h.logger.Warn("failed to look up source page", "page_id", sess.SourcePageID, "error", err)
		}
	}
	c.JSON(http.StatusOK, response)
}

// completeDonation freezes the record into the session and queues the
// marketing notification. The gateway already captured the money; nothing
// past this point may fail the request.
func (h *Handler) completeDonation(c *gin.Context, details *domain.CompletedTransactionDetails) {
	if sess := sessionFromContext(c); sess != nil {
		sess.RecordCompletedTransaction(details)
	}
	h.dispatcher.TransactionCompleted(c.Request.Context(), details)
}

// renderCardError maps the payment error taxonomy to inline form responses.
func (h *Handler) renderCardError(c *gin.Context, err error) {
	var addressErr *domain.AddressError
	if errors.As(err, &addressErr) {
		c.JSON(http.StatusUnprocessableEntity, DonationErrorResponse{AddressErrors: addressErr.Messages})
		return
	}

	var declineErr *domain.CardDeclineError
	if errors.As(err, &declineErr) {
		c.JSON(http.StatusUnprocessableEntity, DonationErrorResponse{FormErrors: declineErr.Messages})
		return
	}

	var genericErr *domain.GenericGatewayError
	if errors.As(err, &genericErr) {
		c.JSON(http.StatusUnprocessableEntity, DonationErrorResponse{FormErrors: []string{genericErr.Message}})
		return
	}

	if errors.Is(err, domain.ErrInvalidPaymentRequest) {
		c.JSON(http.StatusBadRequest, DonationErrorResponse{FormErrors: []string{err.Error()}})
		return
	}

	// Transport failures and anything unforeseen render the same generic
	// message; the orchestrator already logged the specifics.
	c.JSON(http.StatusUnprocessableEntity, DonationErrorResponse{FormErrors: []string{domain.MsgGenericPaymentError}})
}

func (h *Handler) renderUpsellError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrInvalidPaymentRequest) {
		c.JSON(http.StatusBadRequest, DonationErrorResponse{FormErrors: []string{err.Error()}})
		return
	}

	var genericErr *domain.GenericGatewayError
	if errors.As(err, &genericErr) {
		c.JSON(http.StatusUnprocessableEntity, DonationErrorResponse{FormErrors: []string{genericErr.Message}})
		return
	}

	c.JSON(http.StatusUnprocessableEntity, DonationErrorResponse{FormErrors: []string{domain.MsgGenericUpsellError}})
}

func parseFrequency(raw string) (domain.PaymentFrequency, bool) {
	switch raw {
	case string(domain.FrequencySingle):
		return domain.FrequencySingle, true
	case string(domain.FrequencyMonthly):
		return domain.FrequencyMonthly, true
	}
	return "", false
}

func customFields(campaignID, project, landingURL string) map[string]string {
	fields := map[string]string{}
	if campaignID != "" {
		fields["campaign_id"] = campaignID
	}
	if project != "" {
		fields["project"] = project
	}
	if landingURL != "" {
		fields["landing_url"] = landingURL
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func sourceURL(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
