package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/veloshop/checkout/internal/config"
	"github.com/veloshop/checkout/internal/domain"
)

// Checker answers serviceability questions for a postal code.
type Checker interface {
	CheckDelivery(ctx context.Context, postalCode string) (domain.ServiceabilityResult, error)
}

// Client talks to the courier partner's serviceability API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new courier API client
func NewClient(cfg config.DeliveryConfig, logger *zap.Logger) *Client {
	// Normalize base URL - remove trailing slashes
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

type serviceabilityResponse struct {
	Serviceable  bool   `json:"serviceable"`
	EstimateDays int    `json:"estimate_days"`
	CODAvailable bool   `json:"cod_available"`
	ShippingCost int64  `json:"shipping_cost"`
	Message      string `json:"message"`
}

type pincodeLookupResponse struct {
	City  string `json:"city"`
	State string `json:"state"`
}

// CheckDelivery asks the courier whether postalCode can be fulfilled and
// under what terms.
func (c *Client) CheckDelivery(ctx context.Context, postalCode string) (domain.ServiceabilityResult, error) {
	var resp serviceabilityResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/serviceability/%s", postalCode), &resp); err != nil {
		return domain.ServiceabilityResult{}, err
	}

	return domain.ServiceabilityResult{
		PostalCode:   postalCode,
		Serviceable:  resp.Serviceable,
		EstimateDays: resp.EstimateDays,
		CODAvailable: resp.CODAvailable,
		ShippingCost: resp.ShippingCost,
		Message:      resp.Message,
	}, nil
}

// LookupPostalCode returns best-effort city/state autofill data. Callers
// ignore failures.
func (c *Client) LookupPostalCode(ctx context.Context, postalCode string) (city, state string, err error) {
	var resp pincodeLookupResponse
	if err := c.get(ctx, fmt.Sprintf("/v1/pincode/%s", postalCode), &resp); err != nil {
		return "", "", err
	}
	return resp.City, resp.State, nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	url := c.baseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("courier API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}
