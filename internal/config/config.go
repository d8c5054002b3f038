package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	Environment string
	Database    DatabaseConfig
	Razorpay    RazorpayConfig
	Delivery    DeliveryConfig
	Checkout    CheckoutConfig
	API         APIConfig
	LogLevel    string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RazorpayConfig struct {
	KeyID        string
	KeySecret    string
	MerchantName string
	ThemeColor   string
	BaseURL      string
}

type DeliveryConfig struct {
	BaseURL string
	APIKey  string
}

type CheckoutConfig struct {
	Currency string
	// HighValueThreshold is the total (in paise) at or above which the
	// payment widget is offered the expanded installment/financing block.
	HighValueThreshold int64
	// EMIMonths is the fixed installment count behind the cosmetic
	// "EMI from" estimate shown on review.
	EMIMonths int64
}

type APIConfig struct {
	// KeyHash is the bcrypt hash of the storefront API key.
	KeyHash string
}

func Load() (*Config, error) {
	viper.SetConfigType("env")
	viper.SetConfigName(".env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("CURRENCY", "INR")
	viper.SetDefault("RAZORPAY_BASE_URL", "https://api.razorpay.com")
	viper.SetDefault("HIGH_VALUE_THRESHOLD", 5000000)
	viper.SetDefault("EMI_MONTHS", 12)

	// Read from environment variables
	viper.AutomaticEnv()

	// Try to read .env file (optional)
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if .env doesn't exist, we'll use env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:        getEnvOrViper("PORT", "8080"),
		Environment: getEnvOrViper("ENVIRONMENT", "development"),
		Database: DatabaseConfig{
			Host:     getEnvOrViper("DB_HOST", "localhost"),
			Port:     getEnvOrViper("DB_PORT", "5432"),
			User:     getEnvOrViper("DB_USER", "postgres"),
			Password: getEnvOrViper("DB_PASSWORD", "postgres"),
			DBName:   getEnvOrViper("DB_NAME", "checkout"),
			SSLMode:  getEnvOrViper("DB_SSLMODE", "disable"),
		},
		Razorpay: RazorpayConfig{
			KeyID:        getEnvOrViper("RAZORPAY_KEY_ID", ""),
			KeySecret:    getEnvOrViper("RAZORPAY_KEY_SECRET", ""),
			MerchantName: getEnvOrViper("RAZORPAY_MERCHANT_NAME", "Veloshop"),
			ThemeColor:   getEnvOrViper("RAZORPAY_THEME_COLOR", "#1a73e8"),
			BaseURL:      getEnvOrViper("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
		},
		Delivery: DeliveryConfig{
			BaseURL: getEnvOrViper("DELIVERY_BASE_URL", ""),
			APIKey:  getEnvOrViper("DELIVERY_API_KEY", ""),
		},
		Checkout: CheckoutConfig{
			Currency:           getEnvOrViper("CURRENCY", "INR"),
			HighValueThreshold: viper.GetInt64("HIGH_VALUE_THRESHOLD"),
			EMIMonths:          viper.GetInt64("EMI_MONTHS"),
		},
		API: APIConfig{
			KeyHash: getEnvOrViper("API_KEY_HASH", ""),
		},
		LogLevel: getEnvOrViper("LOG_LEVEL", "info"),
	}

	// Validate required fields. A missing gateway key is a hard error, never
	// a silent fallback to a placeholder credential.
	if cfg.Razorpay.KeyID == "" {
		return nil, fmt.Errorf("RAZORPAY_KEY_ID is required")
	}
	if cfg.Razorpay.KeySecret == "" {
		return nil, fmt.Errorf("RAZORPAY_KEY_SECRET is required")
	}
	if cfg.Delivery.BaseURL == "" {
		return nil, fmt.Errorf("DELIVERY_BASE_URL is required")
	}
	if cfg.Checkout.EMIMonths <= 0 {
		return nil, fmt.Errorf("EMI_MONTHS must be positive")
	}

	return cfg, nil
}

func getEnvOrViper(key, defaultValue string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultValue
}
