package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// RoleOperator is the only role the agent issues today. Kept as a claim
// so a future kiosk/manager split does not need a token format change.
const RoleOperator = "operator"

// Manager handles operator token operations
type Manager struct {
	secret string
	expiry time.Duration
	issuer string
}

// NewManager creates a new identity manager
func NewManager(secret string, expiry time.Duration) *Manager {
	return &Manager{
		secret: secret,
		expiry: expiry,
		issuer: "tablevox-agent",
	}
}

// GenerateToken issues a session token for an operator at one restaurant
func (m *Manager) GenerateToken(restaurantID, operatorName string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RestaurantID: restaurantID,
		OperatorName: operatorName,
		Role:         RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
			Subject:   restaurantID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.secret))
}

// ValidateToken validates and parses a session token
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	if claims.RestaurantID == "" {
		return nil, fmt.Errorf("token missing restaurant scope")
	}

	return claims, nil
}

// Expiry returns the configured token lifetime
func (m *Manager) Expiry() time.Duration {
	return m.expiry
}
