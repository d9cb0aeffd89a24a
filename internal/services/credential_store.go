package services

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/singleflight"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/repository"
)

// CredentialStore manages per-(user, marketplace) OAuth credentials and
// refreshes expired access tokens on read. Refreshes for the same key are
// collapsed through a single-flight group so a burst of concurrent reads
// performs exactly one provider call. Duplicate refreshes would invalidate
// single-use refresh tokens on providers that rotate them.
type CredentialStore struct {
	repo     repository.CredentialRepositoryInterface
	registry *adapters.Registry
	group    singleflight.Group
	now      func() time.Time
}

// NewCredentialStore creates a credential store
func NewCredentialStore(repo repository.CredentialRepositoryInterface, registry *adapters.Registry) *CredentialStore {
	return &CredentialStore{
		repo:     repo,
		registry: registry,
		now:      time.Now,
	}
}

// GetCredential returns a usable credential for the user and marketplace, or
// (nil, nil) when none is connected. An expired credential with a refresh
// token is refreshed and persisted before being returned. A failed refresh
// reports the credential as absent without touching the stored row, so the
// user is prompted to reconnect rather than losing the audit trail.
func (s *CredentialStore) GetCredential(ctx context.Context, userID string, marketplace models.MarketplaceType) (*models.MarketplaceCredential, error) {
	cred, err := s.repo.GetActive(ctx, userID, marketplace)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}
	if !cred.IsExpired(s.now()) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return nil, nil
	}

	key := userID + "|" + string(marketplace)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		return s.refresh(ctx, userID, marketplace)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	refreshed, ok := v.(*models.MarketplaceCredential)
	if !ok || refreshed == nil {
		return nil, nil
	}
	return refreshed, nil
}

func (s *CredentialStore) refresh(ctx context.Context, userID string, marketplace models.MarketplaceType) (*models.MarketplaceCredential, error) {
	// Re-read inside the flight: a caller that queued behind the winner
	// sees the row the winner already refreshed.
	cred, err := s.repo.GetActive(ctx, userID, marketplace)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}
	if !cred.IsExpired(s.now()) {
		return cred, nil
	}
	if cred.RefreshToken == "" {
		return nil, nil
	}

	adapter, err := s.registry.Resolve(marketplace)
	if err != nil {
		return nil, err
	}

	fresh, err := adapter.Refresh(ctx, cred.RefreshToken)
	if err != nil {
		log.Printf("WARN: token refresh failed for user %s on %s: %v", userID, marketplace, err)
		return nil, nil
	}

	cred.AccessToken = fresh.AccessToken
	if fresh.RefreshToken != "" {
		cred.RefreshToken = fresh.RefreshToken
	}
	if fresh.ExpiresAt.IsZero() {
		cred.ExpiresAt = nil
	} else {
		expiresAt := fresh.ExpiresAt
		cred.ExpiresAt = &expiresAt
	}
	if err := s.repo.Update(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// UpsertCredential stores the credential obtained from an OAuth exchange,
// replacing any existing connection for the same user and marketplace
func (s *CredentialStore) UpsertCredential(ctx context.Context, userID string, marketplace models.MarketplaceType, token *adapters.Credential) (*models.MarketplaceCredential, error) {
	cred := &models.MarketplaceCredential{
		UserID:           userID,
		Marketplace:      marketplace,
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		ProviderShopID:   token.ShopID,
		ProviderShopName: token.ShopName,
		IsActive:         true,
	}
	if !token.ExpiresAt.IsZero() {
		expiresAt := token.ExpiresAt
		cred.ExpiresAt = &expiresAt
	}
	if err := s.repo.Upsert(ctx, cred); err != nil {
		return nil, err
	}
	return cred, nil
}

// Deactivate disconnects the user's credential for a marketplace. The row is
// soft-deleted so sync history stays attributable.
func (s *CredentialStore) Deactivate(ctx context.Context, userID string, marketplace models.MarketplaceType) error {
	return s.repo.Deactivate(ctx, userID, marketplace)
}

// ListConnected returns the user's active credentials across all marketplaces
func (s *CredentialStore) ListConnected(ctx context.Context, userID string) ([]models.MarketplaceCredential, error) {
	return s.repo.ListActiveByUser(ctx, userID)
}
