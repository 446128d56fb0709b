package identity

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the operator identity embedded in agent tokens. Every
// token is scoped to one restaurant; all store queries derive their
// tenant filter from it.
type Claims struct {
	RestaurantID string `json:"restaurant_id"`
	OperatorName string `json:"operator_name"`
	Role         string `json:"role"`
	jwt.RegisteredClaims
}
