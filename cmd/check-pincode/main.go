package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/config"
	"github.com/veloshop/checkout/internal/delivery"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/check-pincode/main.go <pincode>")
		fmt.Println("Example: go run cmd/check-pincode/main.go 560001")
		os.Exit(1)
	}

	pin := os.Args[1]

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	client := delivery.NewClient(cfg.Delivery, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	fmt.Printf("🔍 Checking serviceability for PIN: %s\n\n", pin)

	result, err := client.CheckDelivery(ctx, pin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Serviceability check failed: %v\n", err)
		os.Exit(1)
	}

	if !result.Serviceable {
		fmt.Printf("❌ Not serviceable")
		if result.Message != "" {
			fmt.Printf(": %s", result.Message)
		}
		fmt.Println()
		os.Exit(1)
	}

	fmt.Printf("✅ Serviceable!\n\n")
	fmt.Printf("Estimated delivery: %d days\n", result.EstimateDays)
	fmt.Printf("COD available: %t\n", result.CODAvailable)
	fmt.Printf("Shipping cost: ₹%.2f\n", float64(result.ShippingCost)/100)

	if city, state, err := client.LookupPostalCode(ctx, pin); err == nil && city != "" {
		fmt.Printf("Location: %s, %s\n", city, state)
	}
}
