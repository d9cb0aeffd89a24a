package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace-sync-service/internal/models"
)

type stubAdapter struct {
	marketplaceType models.MarketplaceType
}

func (a *stubAdapter) Type() models.MarketplaceType { return a.marketplaceType }
func (a *stubAdapter) AuthURL(state string) string  { return "" }
func (a *stubAdapter) ExchangeCode(ctx context.Context, code string) (*Credential, error) {
	return nil, nil
}
func (a *stubAdapter) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	return nil, nil
}
func (a *stubAdapter) CreateListing(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*ListingResult, error) {
	return nil, nil
}
func (a *stubAdapter) UpdateListing(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*ListingResult, error) {
	return nil, nil
}
func (a *stubAdapter) DeleteListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (bool, error) {
	return false, nil
}
func (a *stubAdapter) GetListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*RemoteListing, error) {
	return nil, nil
}
func (a *stubAdapter) GetCategories(ctx context.Context, cred *models.MarketplaceCredential) ([]Category, error) {
	return nil, nil
}
func (a *stubAdapter) SearchCategory(ctx context.Context, query string, cred *models.MarketplaceCredential) ([]Category, error) {
	return nil, nil
}
func (a *stubAdapter) UpdateInventory(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error {
	return nil
}
func (a *stubAdapter) GetListingAnalytics(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*ListingAnalytics, error) {
	return &ListingAnalytics{}, nil
}

func TestRegistryResolve(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubAdapter{marketplaceType: models.MarketplaceEbay})
	registry.Register(&stubAdapter{marketplaceType: models.MarketplaceEtsy})

	adapter, err := registry.Resolve(models.MarketplaceEbay)
	assert.NoError(t, err)
	assert.Equal(t, models.MarketplaceEbay, adapter.Type())
}

func TestRegistryResolveUnknown(t *testing.T) {
	registry := NewRegistry()

	adapter, err := registry.Resolve(models.MarketplaceWhatnot)
	assert.Nil(t, adapter)

	var unsupported *UnsupportedMarketplaceError
	assert.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "WHATNOT", unsupported.MarketplaceType)
}

func TestRegistryTypesSorted(t *testing.T) {
	registry := NewRegistry()
	registry.Register(&stubAdapter{marketplaceType: models.MarketplaceWhatnot})
	registry.Register(&stubAdapter{marketplaceType: models.MarketplaceEbay})
	registry.Register(&stubAdapter{marketplaceType: models.MarketplaceEtsy})

	assert.Equal(t, []models.MarketplaceType{
		models.MarketplaceEbay,
		models.MarketplaceEtsy,
		models.MarketplaceWhatnot,
	}, registry.Types())
}

func TestValidateProduct(t *testing.T) {
	valid := &models.Product{
		Title:       "Vintage Camera",
		Description: "A working vintage camera",
		Price:       49.99,
		Quantity:    1,
		Images:      []string{"https://example.com/1.jpg"},
	}
	assert.NoError(t, ValidateProduct(valid))

	tests := []struct {
		name   string
		mutate func(p *models.Product)
		field  string
	}{
		{"missing title", func(p *models.Product) { p.Title = "" }, "title"},
		{"missing description", func(p *models.Product) { p.Description = "" }, "description"},
		{"zero price", func(p *models.Product) { p.Price = 0 }, "price"},
		{"negative price", func(p *models.Product) { p.Price = -1 }, "price"},
		{"negative quantity", func(p *models.Product) { p.Quantity = -1 }, "quantity"},
		{"no images", func(p *models.Product) { p.Images = nil }, "images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product := *valid
			tt.mutate(&product)

			err := ValidateProduct(&product)

			var validation *ValidationError
			assert.ErrorAs(t, err, &validation)
			assert.Equal(t, tt.field, validation.Field)
		})
	}
}
