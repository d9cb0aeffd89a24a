package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"marketplace-sync-service/internal/models"
)

// CredentialRepositoryInterface defines the credential persistence contract
type CredentialRepositoryInterface interface {
	GetActive(ctx context.Context, userID string, marketplace models.MarketplaceType) (*models.MarketplaceCredential, error)
	ListActiveByUser(ctx context.Context, userID string) ([]models.MarketplaceCredential, error)
	Upsert(ctx context.Context, credential *models.MarketplaceCredential) error
	Update(ctx context.Context, credential *models.MarketplaceCredential) error
	Deactivate(ctx context.Context, userID string, marketplace models.MarketplaceType) error
}

// CredentialRepository handles database operations for marketplace credentials
type CredentialRepository struct {
	db *gorm.DB
}

var _ CredentialRepositoryInterface = (*CredentialRepository)(nil)

// NewCredentialRepository creates a new credential repository
func NewCredentialRepository(db *gorm.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// GetActive retrieves the active credential for a (user, marketplace) pair.
// Returns (nil, nil) when no active credential exists.
func (r *CredentialRepository) GetActive(ctx context.Context, userID string, marketplace models.MarketplaceType) (*models.MarketplaceCredential, error) {
	var credential models.MarketplaceCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND marketplace = ? AND is_active = ?", userID, marketplace, true).
		Order("updated_at DESC").
		First(&credential).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// ListActiveByUser retrieves every active credential for a user
func (r *CredentialRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.MarketplaceCredential, error) {
	var credentials []models.MarketplaceCredential
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("marketplace ASC").
		Find(&credentials).Error
	return credentials, err
}

// Upsert stores a credential, updating the existing active row for the
// (user, marketplace) pair in place when one exists. The row always ends up
// active, so reconnecting is idempotent.
func (r *CredentialRepository) Upsert(ctx context.Context, credential *models.MarketplaceCredential) error {
	existing, err := r.GetActive(ctx, credential.UserID, credential.Marketplace)
	if err != nil {
		return err
	}
	credential.IsActive = true
	if existing != nil {
		credential.ID = existing.ID
		credential.CreatedAt = existing.CreatedAt
		return r.db.WithContext(ctx).Save(credential).Error
	}
	return r.db.WithContext(ctx).Create(credential).Error
}

// Update persists changes to an existing credential row
func (r *CredentialRepository) Update(ctx context.Context, credential *models.MarketplaceCredential) error {
	return r.db.WithContext(ctx).Save(credential).Error
}

// Deactivate soft-deletes the active credential for a (user, marketplace)
// pair. Historical tokens are kept for audit.
func (r *CredentialRepository) Deactivate(ctx context.Context, userID string, marketplace models.MarketplaceType) error {
	return r.db.WithContext(ctx).
		Model(&models.MarketplaceCredential{}).
		Where("user_id = ? AND marketplace = ? AND is_active = ?", userID, marketplace, true).
		Update("is_active", false).Error
}
