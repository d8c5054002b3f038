package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/config"
	"github.com/veloshop/checkout/internal/coupon"
	"github.com/veloshop/checkout/internal/repository/postgres"
)

func main() {
	if len(os.Args) < 4 {
		fmt.Println("Usage: go run cmd/create-coupon/main.go <code> <kind> <value> [description]")
		fmt.Println("  kind:  flat (value in paise) or percent (value in basis points)")
		fmt.Println("Example: go run cmd/create-coupon/main.go WELCOME10 percent 1000 \"10% off your first order\"")
		os.Exit(1)
	}

	code := os.Args[1]
	kind := coupon.DiscountKind(os.Args[2])
	if kind != coupon.DiscountFlat && kind != coupon.DiscountPercent {
		fmt.Fprintf(os.Stderr, "Unknown discount kind %q (want flat or percent)\n", os.Args[2])
		os.Exit(1)
	}

	value, err := strconv.ParseInt(os.Args[3], 10, 64)
	if err != nil || value <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid value %q: must be a positive integer\n", os.Args[3])
		os.Exit(1)
	}

	description := ""
	if len(os.Args) > 4 {
		description = os.Args[4]
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	// Create coupon
	repos := postgres.NewRepositories(db, logger)
	rule := &coupon.Rule{
		Code:        code,
		Kind:        kind,
		Value:       value,
		Description: description,
		IsActive:    true,
	}

	if err := repos.Coupons.Create(context.Background(), rule); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create coupon: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Coupon created successfully!\n\n")
	fmt.Printf("Coupon ID: %s\n", rule.ID.String())
	fmt.Printf("Code: %s\n", rule.Code)
	fmt.Printf("Kind: %s\n", rule.Kind)
	fmt.Printf("Value: %d\n", rule.Value)
	if description != "" {
		fmt.Printf("Description: %s\n", description)
	}
	fmt.Printf("\nSet eligibility constraints (min subtotal, scope, validity window) directly in the coupons table.\n")
}
