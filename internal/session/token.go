package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// cookieClaims carries the session id inside the signed cookie value.
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// SignID wraps a session id in a signed compact JWT for the session cookie.
// The client only ever sees this opaque value, never the raw id.
func SignID(secret, id string, ttl time.Duration) (string, error) {
	claims := cookieClaims{
		SessionID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseID extracts the session id from a signed cookie value. Any tampering,
// expiry or algorithm substitution fails the parse; callers respond to a
// failure by starting a fresh session.
func ParseID(secret, tokenString string) (string, error) {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.SessionID == "" {
		return "", errors.New("invalid session token")
	}
	return claims.SessionID, nil
}
