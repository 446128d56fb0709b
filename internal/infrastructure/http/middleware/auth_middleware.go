package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/tablevox/agent/internal/infrastructure/cache"
	"github.com/tablevox/agent/pkg/identity"
)

const (
	// ClaimsContextKey is the echo context key for the operator claims
	ClaimsContextKey = "operator_claims"
	// RestaurantContextKey is the echo context key for the tenant scope
	RestaurantContextKey = "restaurant_id"
)

// EchoAuth returns an Echo middleware that validates the operator token
// and sets the restaurant scope into the request context. Handlers never
// read a restaurant id from the request body; the token is the only
// source of tenant identity. tokens may be nil to validate every request.
func EchoAuth(manager *identity.Manager, tokens *cache.TokenCache) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := extractToken(c)
			if token == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
			}

			var claims *identity.Claims
			if tokens != nil {
				claims = tokens.Get(token)
			}
			if claims == nil {
				var err error
				claims, err = manager.ValidateToken(token)
				if err != nil {
					return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired token")
				}
				if tokens != nil {
					tokens.Put(token, claims)
				}
			}

			c.Set(ClaimsContextKey, claims)
			c.Set(RestaurantContextKey, claims.RestaurantID)

			return next(c)
		}
	}
}

// RestaurantID retrieves the tenant scope set by EchoAuth.
func RestaurantID(c echo.Context) string {
	if v, ok := c.Get(RestaurantContextKey).(string); ok {
		return v
	}
	return ""
}

// OperatorClaims retrieves the full claims set by EchoAuth.
func OperatorClaims(c echo.Context) (*identity.Claims, bool) {
	claims, ok := c.Get(ClaimsContextKey).(*identity.Claims)
	return claims, ok
}

func extractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			return parts[1]
		}
	}

	if cookie, err := c.Cookie("session_token"); err == nil {
		return cookie.Value
	}

	return ""
}
