package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/repository"
)

// InventorySyncService pushes a quantity change to every marketplace a
// product is actively listed on. Best effort per marketplace; a branch that
// fails leaves its local listing untouched so the next sync retries it.
type InventorySyncService struct {
	store    *CredentialStore
	registry *adapters.Registry
	listings repository.ListingRepositoryInterface
	syncLogs repository.SyncLogRepositoryInterface
	notifier Notifier
}

// NewInventorySyncService creates an inventory sync coordinator
func NewInventorySyncService(
	store *CredentialStore,
	registry *adapters.Registry,
	listings repository.ListingRepositoryInterface,
	syncLogs repository.SyncLogRepositoryInterface,
	notifier Notifier,
) *InventorySyncService {
	return &InventorySyncService{
		store:    store,
		registry: registry,
		listings: listings,
		syncLogs: syncLogs,
		notifier: notifier,
	}
}

// SyncInventory sets the product's quantity on every active listing. Returns
// only when every branch has settled.
func (s *InventorySyncService) SyncInventory(ctx context.Context, userID, productID string, quantity int) error {
	if quantity < 0 {
		return &adapters.ValidationError{Field: "quantity", Message: "quantity cannot be negative"}
	}

	listings, err := s.listings.ListActiveByProduct(ctx, userID, productID)
	if err != nil {
		return err
	}
	if len(listings) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	for i := range listings {
		wg.Add(1)
		go func(listing models.Listing) {
			defer wg.Done()
			s.syncOne(ctx, userID, productID, listing, quantity)
		}(listings[i])
	}
	wg.Wait()

	return nil
}

func (s *InventorySyncService) syncOne(ctx context.Context, userID, productID string, listing models.Listing, quantity int) {
	cred, err := s.store.GetCredential(ctx, userID, listing.Marketplace)
	if err == nil && cred == nil {
		err = fmt.Errorf("marketplace not connected")
	}
	if err == nil {
		var adapter adapters.MarketplaceAdapter
		adapter, err = s.registry.Resolve(listing.Marketplace)
		if err == nil {
			err = adapter.UpdateInventory(ctx, listing.MarketplaceListingID, quantity, cred)
		}
	}

	if err != nil {
		s.appendLog(ctx, &models.SyncLogEntry{
			UserID:      userID,
			ProductID:   productID,
			Marketplace: listing.Marketplace,
			Action:      models.SyncActionSync,
			Status:      models.SyncLogFailed,
			Message:     err.Error(),
		})
		s.notifier.SyncUpdate(ctx, userID, SyncUpdateEvent{
			Operation:   "inventory-sync",
			Status:      "failed",
			Marketplace: listing.Marketplace,
			ProductID:   productID,
			Error:       err.Error(),
		})
		return
	}

	// Local quantity only moves once the provider accepted the change
	if err := s.listings.UpdateQuantity(ctx, listing.Marketplace, listing.MarketplaceListingID, quantity); err != nil {
		log.Printf("WARN: inventory synced on %s but local update failed for listing %s: %v", listing.Marketplace, listing.MarketplaceListingID, err)
	}

	s.appendLog(ctx, &models.SyncLogEntry{
		UserID:      userID,
		ProductID:   productID,
		Marketplace: listing.Marketplace,
		Action:      models.SyncActionSync,
		Status:      models.SyncLogSuccess,
		Message:     fmt.Sprintf("quantity set to %d", quantity),
	})
	s.notifier.SyncUpdate(ctx, userID, SyncUpdateEvent{
		Operation:   "inventory-sync",
		Status:      "success",
		Marketplace: listing.Marketplace,
		ProductID:   productID,
	})
}

func (s *InventorySyncService) appendLog(ctx context.Context, entry *models.SyncLogEntry) {
	if err := s.syncLogs.Append(ctx, entry); err != nil {
		log.Printf("WARN: failed to append sync log for user %s on %s: %v", entry.UserID, entry.Marketplace, err)
	}
}
