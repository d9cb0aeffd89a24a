package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingStatus represents the provider-reported lifecycle of a listing
type ListingStatus string

const (
	ListingActive  ListingStatus = "ACTIVE"
	ListingExpired ListingStatus = "EXPIRED"
	ListingSold    ListingStatus = "SOLD"
	ListingEnded   ListingStatus = "ENDED"
	ListingDraft   ListingStatus = "DRAFT"
)

// Listing is the service's record of one product's presence on one
// marketplace. At most one row per (product, marketplace) is ACTIVE at a
// time; a relist transitions the existing row instead of creating a
// duplicate.
type Listing struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:varchar(255);not null;index:idx_mp_listings_user" json:"userId"`
	ProductID string    `gorm:"type:varchar(255);not null;index:idx_mp_listings_product" json:"productId"`

	Marketplace          MarketplaceType `gorm:"type:varchar(50);not null;index:idx_mp_listings_marketplace" json:"marketplace"`
	MarketplaceListingID string          `gorm:"type:varchar(255);not null;index:idx_mp_listings_external" json:"marketplaceListingId"`

	Status   ListingStatus `gorm:"type:varchar(50);not null;default:'ACTIVE';index:idx_mp_listings_status" json:"status"`
	Price    float64       `json:"price"`
	Quantity int           `json:"quantity"`

	MarketplaceURL string `gorm:"type:varchar(500)" json:"marketplaceUrl,omitempty"`
	IsSmartRelist  bool   `gorm:"default:false" json:"isSmartRelist"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for Listing
func (Listing) TableName() string {
	return "marketplace_listings"
}
