package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marketplace-sync-service/internal/models"
)

// ProductSource fetches product data owned by another service. Returns
// (nil, nil) when the product does not exist.
type ProductSource interface {
	GetProduct(ctx context.Context, productID string) (*models.Product, error)
}

// HTTPProductSource reads products from the products service REST API
type HTTPProductSource struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPProductSource creates a product source backed by the products service
func NewHTTPProductSource(baseURL string) *HTTPProductSource {
	return &HTTPProductSource{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *HTTPProductSource) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	url := fmt.Sprintf("%s/api/v1/products/%s", s.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("products service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("products service returned status %d", resp.StatusCode)
	}

	var product models.Product
	if err := json.NewDecoder(resp.Body).Decode(&product); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &product, nil
}
