package whatnot

import (
	"context"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
)

// WhatnotClient is an explicit placeholder: Whatnot has no public listing
// API yet, so every network operation fails loudly instead of simulating
// success. The marketplace stays visible in the supported list so the UI
// can show it as coming soon.
type WhatnotClient struct{}

// NewWhatnotClient creates the Whatnot placeholder adapter
func NewWhatnotClient() *WhatnotClient {
	return &WhatnotClient{}
}

func notAvailable() error {
	return &adapters.ProviderError{Message: "whatnot integration is not yet available"}
}

// Type returns the marketplace type
func (c *WhatnotClient) Type() models.MarketplaceType {
	return models.MarketplaceWhatnot
}

// AuthURL returns an empty URL; there is no consent flow to send the user to
func (c *WhatnotClient) AuthURL(state string) string {
	return ""
}

func (c *WhatnotClient) ExchangeCode(ctx context.Context, code string) (*adapters.Credential, error) {
	return nil, notAvailable()
}

func (c *WhatnotClient) Refresh(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
	return nil, notAvailable()
}

func (c *WhatnotClient) CreateListing(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	if err := adapters.ValidateProduct(product); err != nil {
		return nil, err
	}
	return nil, notAvailable()
}

func (c *WhatnotClient) UpdateListing(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	if err := adapters.ValidateProduct(product); err != nil {
		return nil, err
	}
	return nil, notAvailable()
}

func (c *WhatnotClient) DeleteListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (bool, error) {
	return false, notAvailable()
}

func (c *WhatnotClient) GetListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
	return nil, notAvailable()
}

func (c *WhatnotClient) GetCategories(ctx context.Context, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	return nil, notAvailable()
}

func (c *WhatnotClient) SearchCategory(ctx context.Context, query string, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	return nil, notAvailable()
}

func (c *WhatnotClient) UpdateInventory(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error {
	return notAvailable()
}

// GetListingAnalytics is best-effort across all adapters, so the stub
// returns an empty result instead of an error
func (c *WhatnotClient) GetListingAnalytics(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.ListingAnalytics, error) {
	return &adapters.ListingAnalytics{}, nil
}
