package services

import (
	"context"
	"log"
	"time"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/repository"
)

// ConnectedMarketplace describes one active marketplace connection
type ConnectedMarketplace struct {
	Marketplace models.MarketplaceType `json:"marketplace"`
	ShopID      string                 `json:"shopId,omitempty"`
	ShopName    string                 `json:"shopName,omitempty"`
	ConnectedAt time.Time              `json:"connectedAt"`
	ExpiresAt   *time.Time             `json:"expiresAt,omitempty"`
}

// SyncStats is the per-user rollup over the sync log
type SyncStats struct {
	TotalCostSaved float64 `json:"totalCostSaved"`
	SuccessCount   int64   `json:"successCount"`
	FailedCount    int64   `json:"failedCount"`
}

// MarketplaceService handles connection lifecycle and read-side queries that
// are not part of an orchestration
type MarketplaceService struct {
	store    *CredentialStore
	registry *adapters.Registry
	listings repository.ListingRepositoryInterface
	syncLogs repository.SyncLogRepositoryInterface
}

// NewMarketplaceService creates a marketplace connection service
func NewMarketplaceService(
	store *CredentialStore,
	registry *adapters.Registry,
	listings repository.ListingRepositoryInterface,
	syncLogs repository.SyncLogRepositoryInterface,
) *MarketplaceService {
	return &MarketplaceService{
		store:    store,
		registry: registry,
		listings: listings,
		syncLogs: syncLogs,
	}
}

// Supported returns the marketplace types this deployment can talk to
func (s *MarketplaceService) Supported() []models.MarketplaceType {
	return s.registry.Types()
}

// Connected returns the user's active marketplace connections
func (s *MarketplaceService) Connected(ctx context.Context, userID string) ([]ConnectedMarketplace, error) {
	creds, err := s.store.ListConnected(ctx, userID)
	if err != nil {
		return nil, err
	}
	connected := make([]ConnectedMarketplace, 0, len(creds))
	for _, cred := range creds {
		connected = append(connected, ConnectedMarketplace{
			Marketplace: cred.Marketplace,
			ShopID:      cred.ProviderShopID,
			ShopName:    cred.ProviderShopName,
			ConnectedAt: cred.CreatedAt,
			ExpiresAt:   cred.ExpiresAt,
		})
	}
	return connected, nil
}

// AuthURL builds the OAuth consent URL for a marketplace
func (s *MarketplaceService) AuthURL(marketplace models.MarketplaceType, state string) (string, error) {
	adapter, err := s.registry.Resolve(marketplace)
	if err != nil {
		return "", err
	}
	url := adapter.AuthURL(state)
	if url == "" {
		return "", &adapters.ProviderError{
			Message: string(marketplace) + " does not support OAuth connection",
		}
	}
	return url, nil
}

// HandleCallback completes the OAuth flow and stores the credential
func (s *MarketplaceService) HandleCallback(ctx context.Context, userID string, marketplace models.MarketplaceType, code string) (*models.MarketplaceCredential, error) {
	adapter, err := s.registry.Resolve(marketplace)
	if err != nil {
		return nil, err
	}
	token, err := adapter.ExchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}
	return s.store.UpsertCredential(ctx, userID, marketplace, token)
}

// Disconnect deactivates the user's connection to a marketplace
func (s *MarketplaceService) Disconnect(ctx context.Context, userID string, marketplace models.MarketplaceType) error {
	return s.store.Deactivate(ctx, userID, marketplace)
}

// TestConnection verifies the stored credential still works by issuing a
// lightweight read against the provider
func (s *MarketplaceService) TestConnection(ctx context.Context, userID string, marketplace models.MarketplaceType) error {
	cred, err := s.store.GetCredential(ctx, userID, marketplace)
	if err != nil {
		return err
	}
	if cred == nil {
		return &adapters.AuthenticationError{Message: "marketplace not connected"}
	}
	adapter, err := s.registry.Resolve(marketplace)
	if err != nil {
		return err
	}
	_, err = adapter.GetCategories(ctx, cred)
	return err
}

// Listings returns the product's listings with provider state pulled through.
// When the provider reports a different status than the stored row, the row
// is updated so EXPIRED and SOLD listings become relist candidates. Provider
// errors fall back to the stored snapshot.
func (s *MarketplaceService) Listings(ctx context.Context, userID, productID string) ([]models.Listing, error) {
	listings, err := s.listings.ListByProduct(ctx, userID, productID)
	if err != nil {
		return nil, err
	}

	for i := range listings {
		remote := s.fetchRemote(ctx, userID, &listings[i])
		if remote == nil {
			continue
		}
		if remote.Status != "" && remote.Status != listings[i].Status {
			if err := s.listings.UpdateStatus(ctx, listings[i].Marketplace, listings[i].MarketplaceListingID, remote.Status); err != nil {
				log.Printf("WARN: failed to persist status %s for listing %s: %v", remote.Status, listings[i].MarketplaceListingID, err)
				continue
			}
			listings[i].Status = remote.Status
		}
	}
	return listings, nil
}

func (s *MarketplaceService) fetchRemote(ctx context.Context, userID string, listing *models.Listing) *adapters.RemoteListing {
	cred, err := s.store.GetCredential(ctx, userID, listing.Marketplace)
	if err != nil || cred == nil {
		return nil
	}
	adapter, err := s.registry.Resolve(listing.Marketplace)
	if err != nil {
		return nil
	}
	remote, err := adapter.GetListing(ctx, listing.MarketplaceListingID, cred)
	if err != nil {
		log.Printf("WARN: status pull-through failed for listing %s on %s: %v", listing.MarketplaceListingID, listing.Marketplace, err)
		return nil
	}
	if remote == nil {
		// Gone at the provider
		if err := s.listings.UpdateStatus(ctx, listing.Marketplace, listing.MarketplaceListingID, models.ListingEnded); err == nil {
			listing.Status = models.ListingEnded
		}
		return nil
	}
	return remote
}

// SyncLogs returns the user's recent sync activity
func (s *MarketplaceService) SyncLogs(ctx context.Context, userID string, limit int) ([]models.SyncLogEntry, error) {
	return s.syncLogs.ListByUser(ctx, userID, limit)
}

// Stats returns the user's sync outcome counts and total fees saved by
// smart relisting
func (s *MarketplaceService) Stats(ctx context.Context, userID string) (*SyncStats, error) {
	costSaved, err := s.syncLogs.TotalCostSaved(ctx, userID)
	if err != nil {
		return nil, err
	}
	success, err := s.syncLogs.CountByStatus(ctx, userID, models.SyncLogSuccess)
	if err != nil {
		return nil, err
	}
	failed, err := s.syncLogs.CountByStatus(ctx, userID, models.SyncLogFailed)
	if err != nil {
		return nil, err
	}
	return &SyncStats{
		TotalCostSaved: costSaved,
		SuccessCount:   success,
		FailedCount:    failed,
	}, nil
}
