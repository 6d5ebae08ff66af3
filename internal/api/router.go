package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Sancus/donate-wagtail/internal/session"
)

// SetupRouter configures the Gin router with all routes and middleware.
func SetupRouter(handler *Handler, sessions session.Store, sessionSecret string, sessionTTL time.Duration, logger *slog.Logger, ginMode string) *gin.Engine {
	// Set Gin mode
	gin.SetMode(ginMode)

	router := gin.New()

	// Apply middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(CORSMiddleware())
	router.Use(RequestIDMiddleware())

	// Health check endpoint (no session required)
	router.GET("/health", handler.Health)

	// Entry point; failed flows redirect here
	router.GET("/", handler.Entry)

	// Donation flow, all session-scoped
	donations := router.Group("/donate")
	donations.Use(SessionMiddleware(sessions, sessionSecret, sessionTTL, logger))
	{
		donations.GET("/card/:frequency", handler.StartCardDonation)
		donations.POST("/card/:frequency", handler.ProcessCardDonation)
		donations.GET("/paypal", handler.StartPayPalDonation)
		donations.POST("/paypal", handler.ProcessPayPalDonation)

		// Steps past payment need a completed transaction in the session
		completed := donations.Group("")
		completed.Use(RequireCompletedTransaction())
		{
			completed.GET("/upsell/card", handler.CardUpsellOffer)
			completed.POST("/upsell/card", handler.ProcessCardUpsell)
			completed.GET("/upsell/paypal", handler.PayPalUpsellOffer)
			completed.POST("/upsell/paypal", handler.ProcessPayPalUpsell)
			completed.GET("/newsletter", handler.NewsletterForm)
			completed.POST("/newsletter", handler.ProcessNewsletterSignup)
			completed.GET("/thank-you", handler.ThankYou)
		}
	}

	return router
}
