package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/tablevox/agent/pkg/config"
	"github.com/tablevox/agent/pkg/identity"
)

// Issues an operator token for the configured restaurant. The agent has no
// login flow; tokens are provisioned onto kiosks with this tool.
//
// Usage: go run scripts/issue_token.go -operator dana
func main() {
	operator := flag.String("operator", "operator", "operator name embedded in the token")
	restaurant := flag.String("restaurant", "", "restaurant id (defaults to RESTAURANT_ID from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	restaurantID := *restaurant
	if restaurantID == "" {
		restaurantID = cfg.Server.RestaurantID
	}
	if restaurantID == "" {
		log.Fatal("restaurant id required: set RESTAURANT_ID or pass -restaurant")
	}

	manager := identity.NewManager(cfg.JWT.Secret, cfg.JWT.Expiry)
	token, err := manager.GenerateToken(restaurantID, *operator)
	if err != nil {
		log.Fatalf("Failed to generate token: %v", err)
	}

	fmt.Printf("restaurant: %s\noperator:   %s\nexpires in: %s\n\n%s\n", restaurantID, *operator, cfg.JWT.Expiry, token)
}
