package adapters

import (
	"context"
	"time"

	"marketplace-sync-service/internal/models"
)

// MarketplaceAdapter defines the capability contract every marketplace
// variant implements. Callers are polymorphic over this set and never branch
// on provider identity outside the registry.
type MarketplaceAdapter interface {
	// Type returns the marketplace type
	Type() models.MarketplaceType

	// AuthURL builds the provider's OAuth consent URL. The state token is
	// caller-supplied and embedded verbatim.
	AuthURL(state string) string

	// ExchangeCode exchanges an OAuth authorization code for a token pair
	ExchangeCode(ctx context.Context, code string) (*Credential, error)

	// Refresh exchanges a refresh token for a new access token
	Refresh(ctx context.Context, refreshToken string) (*Credential, error)

	// Listings
	CreateListing(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*ListingResult, error)
	UpdateListing(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*ListingResult, error)
	DeleteListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (bool, error)

	// GetListing returns (nil, nil) when the provider reports 404
	GetListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*RemoteListing, error)

	// Categories
	GetCategories(ctx context.Context, cred *models.MarketplaceCredential) ([]Category, error)
	SearchCategory(ctx context.Context, query string, cred *models.MarketplaceCredential) ([]Category, error)

	// UpdateInventory sets the quantity on an existing listing
	UpdateInventory(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error

	// GetListingAnalytics is best-effort; failures return an empty result
	GetListingAnalytics(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*ListingAnalytics, error)
}

// Credential contains the result of a token exchange or refresh
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time // zero when the token does not expire
	ShopID       string
	ShopName     string
}

// ListingResult is the normalized outcome of a create/update/relist call
type ListingResult struct {
	ListingID   string               `json:"listingId"`
	URL         string               `json:"url,omitempty"`
	Status      models.ListingStatus `json:"status"`
	SmartRelist bool                 `json:"smartRelist,omitempty"`
	CostSaved   *float64             `json:"costSaved,omitempty"`
}

// RemoteListing is a provider-reported listing snapshot
type RemoteListing struct {
	ListingID string               `json:"listingId"`
	SKU       string               `json:"sku,omitempty"`
	Title     string               `json:"title,omitempty"`
	Status    models.ListingStatus `json:"status"`
	Price     float64              `json:"price"`
	Quantity  int                  `json:"quantity"`
	URL       string               `json:"url,omitempty"`
}

// Category is a provider taxonomy node
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

// ListingAnalytics holds best-effort listing metrics
type ListingAnalytics struct {
	Views    int `json:"views"`
	Watchers int `json:"watchers"`
	Sales    int `json:"sales"`
}

// ValidateProduct checks the fields every provider requires before any
// network call is issued
func ValidateProduct(p *models.Product) error {
	if p.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if p.Description == "" {
		return &ValidationError{Field: "description", Message: "description is required"}
	}
	if p.Price <= 0 {
		return &ValidationError{Field: "price", Message: "price must be greater than zero"}
	}
	if p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Message: "quantity cannot be negative"}
	}
	if len(p.Images) == 0 {
		return &ValidationError{Field: "images", Message: "at least one image is required"}
	}
	return nil
}
