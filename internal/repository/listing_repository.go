package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"marketplace-sync-service/internal/models"
)

// ListingRepositoryInterface defines the listing persistence contract
type ListingRepositoryInterface interface {
	GetForPublish(ctx context.Context, productID string, marketplace models.MarketplaceType) (*models.Listing, error)
	GetByExternalID(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string) (*models.Listing, error)
	ListActiveByProduct(ctx context.Context, userID, productID string) ([]models.Listing, error)
	ListByProduct(ctx context.Context, userID, productID string) ([]models.Listing, error)
	Upsert(ctx context.Context, listing *models.Listing) error
	UpdateQuantity(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string, quantity int) error
	UpdateStatus(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string, status models.ListingStatus) error
}

// ListingRepository handles database operations for marketplace listings
type ListingRepository struct {
	db *gorm.DB
}

var _ ListingRepositoryInterface = (*ListingRepository)(nil)

// NewListingRepository creates a new listing repository
func NewListingRepository(db *gorm.DB) *ListingRepository {
	return &ListingRepository{db: db}
}

// GetForPublish retrieves the listing row a cross-list call should update
// instead of creating a duplicate: the ACTIVE or EXPIRED row for a
// (product, marketplace) pair. Returns (nil, nil) when none exists.
func (r *ListingRepository) GetForPublish(ctx context.Context, productID string, marketplace models.MarketplaceType) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND marketplace = ? AND status IN ?",
			productID, marketplace, []models.ListingStatus{models.ListingActive, models.ListingExpired}).
		Order("updated_at DESC").
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// GetByExternalID retrieves a listing by its provider-side identity.
// Returns (nil, nil) when none exists.
func (r *ListingRepository) GetByExternalID(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string) (*models.Listing, error) {
	var listing models.Listing
	err := r.db.WithContext(ctx).
		Where("marketplace = ? AND marketplace_listing_id = ?", marketplace, marketplaceListingID).
		First(&listing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListActiveByProduct retrieves the ACTIVE listings for a product
func (r *ListingRepository) ListActiveByProduct(ctx context.Context, userID, productID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND status = ?", userID, productID, models.ListingActive).
		Find(&listings).Error
	return listings, err
}

// ListByProduct retrieves every listing for a product regardless of status
func (r *ListingRepository) ListByProduct(ctx context.Context, userID, productID string) ([]models.Listing, error) {
	var listings []models.Listing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Order("marketplace ASC").
		Find(&listings).Error
	return listings, err
}

// Upsert stores a listing keyed by (marketplace, marketplaceListingId),
// transitioning the existing row when one exists so a relist never creates
// a duplicate.
func (r *ListingRepository) Upsert(ctx context.Context, listing *models.Listing) error {
	existing, err := r.GetByExternalID(ctx, listing.Marketplace, listing.MarketplaceListingID)
	if err != nil {
		return err
	}
	if existing != nil {
		listing.ID = existing.ID
		listing.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(listing).Error
	}
	return r.db.WithContext(ctx).Create(listing).Error
}

// UpdateQuantity sets the stored quantity for a listing after the provider
// confirmed the change
func (r *ListingRepository) UpdateQuantity(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("marketplace = ? AND marketplace_listing_id = ?", marketplace, marketplaceListingID).
		Update("quantity", quantity).Error
}

// UpdateStatus records a provider-reported lifecycle transition
func (r *ListingRepository) UpdateStatus(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string, status models.ListingStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("marketplace = ? AND marketplace_listing_id = ?", marketplace, marketplaceListingID).
		Update("status", status).Error
}
