package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/api"
	"github.com/veloshop/checkout/internal/checkout"
	"github.com/veloshop/checkout/internal/config"
	"github.com/veloshop/checkout/internal/coupon"
	"github.com/veloshop/checkout/internal/delivery"
	"github.com/veloshop/checkout/internal/gateway"
	"github.com/veloshop/checkout/internal/payment"
	"github.com/veloshop/checkout/internal/repository/postgres"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := postgres.RunMigrations(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Create repositories and services
	repos := postgres.NewRepositories(db, logger)
	courier := delivery.NewClient(cfg.Delivery, logger)
	coupons := coupon.NewService(repos.Coupons, logger)
	razorpay := gateway.NewClient(cfg.Razorpay, logger)

	manager := checkout.NewManager(
		courier,
		coupons,
		repos.Orders,
		razorpay,
		repos.Drafts,
		payment.Options{
			Currency:           cfg.Checkout.Currency,
			MerchantName:       cfg.Razorpay.MerchantName,
			ThemeColor:         cfg.Razorpay.ThemeColor,
			HighValueThreshold: cfg.Checkout.HighValueThreshold,
			EMIMonths:          cfg.Checkout.EMIMonths,
		},
		logger,
	)

	// Create router
	router := api.NewRouter(cfg, api.Deps{
		Manager:  manager,
		Delivery: courier,
		Coupons:  coupons,
		Orders:   repos.Orders,
	}, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("Starting checkout server",
		zap.String("addr", addr),
		zap.String("environment", cfg.Environment),
	)

	if err := router.Run(addr); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
