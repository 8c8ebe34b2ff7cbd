// Package auth provides JWT issuing, verification middleware, and
// request-principal extraction.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

const contextKey = "user"

// Claims is the JWT payload: the subject is the user ID.
type Claims struct {
	jwt.RegisteredClaims
}

// GenerateToken signs a JWT for the given user ID, returning the token and
// its expiry time.
func GenerateToken(userID, secret string, expiresIn time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(expiresIn)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// JWTMiddleware returns Echo middleware that validates bearer tokens signed
// with secret. Requests for which skip returns true bypass validation.
func JWTMiddleware(secret string, skip func(c echo.Context) bool) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey: contextKey,
		SigningKey: []byte(secret),
		Skipper:    skip,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(Claims)
		},
	})
}

// UserIDFromContext extracts the authenticated user ID from the request
// context populated by JWTMiddleware.
func UserIDFromContext(c echo.Context) (string, error) {
	token, ok := c.Get(contextKey).(*jwt.Token)
	if !ok || token == nil {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing token")
	}
	claims, ok := token.Claims.(*Claims)
	if !ok {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
	}
	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
	}
	return userID, nil
}
