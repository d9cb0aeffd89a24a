package models

import (
	"time"

	"github.com/google/uuid"
)

// MarketplaceCredential holds the OAuth tokens for one (user, marketplace)
// pair. Rows are never hard-deleted; disconnecting a marketplace flips
// IsActive off so historical tokens remain for audit.
type MarketplaceCredential struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string          `gorm:"type:varchar(255);not null;index:idx_mp_credentials_user" json:"userId"`
	Marketplace MarketplaceType `gorm:"type:varchar(50);not null;index:idx_mp_credentials_marketplace" json:"marketplace"`

	AccessToken  string     `gorm:"type:text;not null" json:"-"`
	RefreshToken string     `gorm:"type:text" json:"-"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`

	// Provider-side shop identity, when the marketplace reports one
	ProviderShopID   string `gorm:"type:varchar(255)" json:"providerShopId,omitempty"`
	ProviderShopName string `gorm:"type:varchar(255)" json:"providerShopName,omitempty"`

	// At most one active credential per (user, marketplace)
	IsActive bool `gorm:"default:true;index:idx_mp_credentials_active" json:"isActive"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"createdAt"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updatedAt"`
}

// TableName specifies the table name for MarketplaceCredential
func (MarketplaceCredential) TableName() string {
	return "marketplace_credentials"
}

// IsExpired reports whether the access token's expiry has passed. Credentials
// without an expiry never expire.
func (c *MarketplaceCredential) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}
