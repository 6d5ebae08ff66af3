// Package api contains the HTTP handlers and routing for the donation service.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Sancus/donate-wagtail/internal/session"
)

const (
	// sessionCookieName holds the signed session id.
	sessionCookieName = "donate_session"

	// sessionContextKey is where the middleware parks the session for
	// handlers.
	sessionContextKey = "donate_session"
)

// CORSMiddleware handles Cross-Origin Resource Sharing.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Requested-With")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a unique request ID to each request.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// SessionMiddleware loads the donor's session from the signed cookie,
// creating a fresh one when the cookie is absent, tampered with, or expired.
// The session is saved back to the store after the handler runs; the cookie
// is refreshed up front because the session id never changes mid-request.
func SessionMiddleware(store session.Store, secret string, ttl time.Duration, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := loadSession(c, store, secret)
		if sess == nil {
			sess = session.New()
		}

		if token, err := session.SignID(secret, sess.ID, ttl); err == nil {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookieName, token, int(ttl.Seconds()), "/", "", false, true)
		} else {
			logger.Error("failed to sign session cookie", "session_id", sess.ID, "error", err)
		}

		c.Set(sessionContextKey, sess)
		c.Next()

		if err := store.Save(c.Request.Context(), sess); err != nil {
			logger.Error("failed to save session", "session_id", sess.ID, "error", err)
		}
	}
}

func loadSession(c *gin.Context, store session.Store, secret string) *session.Session {
	cookie, err := c.Cookie(sessionCookieName)
	if err != nil {
		return nil
	}
	id, err := session.ParseID(secret, cookie)
	if err != nil {
		return nil
	}
	sess, err := store.Load(c.Request.Context(), id)
	if err != nil {
		return nil
	}
	return sess
}

// sessionFromContext returns the session parked by SessionMiddleware, or nil
// outside the session-scoped routes.
func sessionFromContext(c *gin.Context) *session.Session {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil
	}
	sess, ok := value.(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// RequireCompletedTransaction guards the steps that only make sense after a
// successful payment (upsell, newsletter, thank-you). Visitors without a
// completed-transaction record are redirected to the entry point, never shown
// an error.
func RequireCompletedTransaction() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessionFromContext(c)
		if sess == nil || sess.CompletedTransaction == nil {
			c.Redirect(http.StatusSeeOther, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}
