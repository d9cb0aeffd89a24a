package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/repository"
)

// CrossListResult is the per-marketplace outcome of a cross-listing request
type CrossListResult struct {
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	Listing   *models.Listing `json:"listing,omitempty"`
	CostSaved *float64        `json:"costSaved,omitempty"`
}

// CrossListService publishes one product to several marketplaces
// concurrently. Each marketplace branch fails or succeeds on its own; the
// caller always receives one result entry per requested marketplace.
type CrossListService struct {
	products ProductSource
	store    *CredentialStore
	registry *adapters.Registry
	listings repository.ListingRepositoryInterface
	syncLogs repository.SyncLogRepositoryInterface
	notifier Notifier
}

// NewCrossListService creates a cross-listing orchestrator
func NewCrossListService(
	products ProductSource,
	store *CredentialStore,
	registry *adapters.Registry,
	listings repository.ListingRepositoryInterface,
	syncLogs repository.SyncLogRepositoryInterface,
	notifier Notifier,
) *CrossListService {
	return &CrossListService{
		products: products,
		store:    store,
		registry: registry,
		listings: listings,
		syncLogs: syncLogs,
		notifier: notifier,
	}
}

// CrossList publishes the product to every requested marketplace. The product
// must exist and belong to the user; anything past that point is a
// per-marketplace outcome, never an error return.
func (s *CrossListService) CrossList(ctx context.Context, userID, productID string, marketplaces []models.MarketplaceType) (map[models.MarketplaceType]*CrossListResult, error) {
	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil || product.UserID != userID {
		return nil, &adapters.NotFoundError{Resource: "product " + productID}
	}

	results := make(map[models.MarketplaceType]*CrossListResult, len(marketplaces))
	total := len(marketplaces)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int64
	)
	for _, marketplace := range marketplaces {
		wg.Add(1)
		go func(marketplace models.MarketplaceType) {
			defer wg.Done()

			result := s.publishOne(ctx, userID, product, marketplace)

			mu.Lock()
			results[marketplace] = result
			mu.Unlock()

			current := atomic.AddInt64(&completed, 1)
			s.notifier.SyncProgress(ctx, userID, SyncProgressEvent{
				Operation:    "cross-list",
				Current:      int(current),
				Total:        total,
				Marketplace:  marketplace,
				ProductTitle: product.Title,
			})
		}(marketplace)
	}
	wg.Wait()

	return results, nil
}

func (s *CrossListService) publishOne(ctx context.Context, userID string, product *models.Product, marketplace models.MarketplaceType) *CrossListResult {
	cred, err := s.store.GetCredential(ctx, userID, marketplace)
	if err != nil {
		return s.recordFailure(ctx, userID, product, marketplace, models.SyncActionCreate, err)
	}
	if cred == nil {
		// Not connected is an expected state, not a sync failure. No log
		// entry is written; the event tells the UI to prompt for OAuth.
		s.notifier.ListingUpdate(ctx, userID, ListingUpdateEvent{
			ProductID:   product.ID,
			Marketplace: marketplace,
			Status:      "failed",
			Message:     "Marketplace not connected",
		})
		return &CrossListResult{Success: false, Error: "Marketplace not connected"}
	}

	adapter, err := s.registry.Resolve(marketplace)
	if err != nil {
		return s.recordFailure(ctx, userID, product, marketplace, models.SyncActionCreate, err)
	}

	existing, err := s.listings.GetForPublish(ctx, product.ID, marketplace)
	if err != nil {
		return s.recordFailure(ctx, userID, product, marketplace, models.SyncActionCreate, err)
	}

	var (
		outcome *adapters.ListingResult
		action  models.SyncAction
	)
	if existing != nil {
		action = models.SyncActionUpdate
		outcome, err = adapter.UpdateListing(ctx, existing.MarketplaceListingID, product, cred)
	} else {
		action = models.SyncActionCreate
		outcome, err = adapter.CreateListing(ctx, product, cred)
	}
	if err != nil {
		return s.recordFailure(ctx, userID, product, marketplace, action, err)
	}
	if outcome.SmartRelist {
		action = models.SyncActionRelist
	}

	status := outcome.Status
	if status == "" {
		status = models.ListingActive
	}
	listing := &models.Listing{
		UserID:               userID,
		ProductID:            product.ID,
		Marketplace:          marketplace,
		MarketplaceListingID: outcome.ListingID,
		Status:               status,
		Price:                product.Price,
		Quantity:             product.Quantity,
		MarketplaceURL:       outcome.URL,
		IsSmartRelist:        outcome.SmartRelist,
	}
	if err := s.listings.Upsert(ctx, listing); err != nil {
		return s.recordFailure(ctx, userID, product, marketplace, action, err)
	}

	s.appendLog(ctx, &models.SyncLogEntry{
		UserID:      userID,
		ProductID:   product.ID,
		Marketplace: marketplace,
		Action:      action,
		Status:      models.SyncLogSuccess,
		Message:     fmt.Sprintf("listed %q as %s", product.Title, outcome.ListingID),
		CostSaved:   outcome.CostSaved,
	})
	s.notifier.ListingUpdate(ctx, userID, ListingUpdateEvent{
		ProductID:   product.ID,
		Marketplace: marketplace,
		Status:      "success",
		Message:     fmt.Sprintf("listed as %s", outcome.ListingID),
	})
	if outcome.SmartRelist && outcome.CostSaved != nil {
		s.notifier.Notification(ctx, userID, NotificationEvent{
			Type:    "success",
			Title:   "Smart relist",
			Message: fmt.Sprintf("Relisted %q on %s, saving $%.2f in listing fees", product.Title, marketplace, *outcome.CostSaved),
		})
	}

	return &CrossListResult{Success: true, Listing: listing, CostSaved: outcome.CostSaved}
}

func (s *CrossListService) recordFailure(ctx context.Context, userID string, product *models.Product, marketplace models.MarketplaceType, action models.SyncAction, cause error) *CrossListResult {
	s.appendLog(ctx, &models.SyncLogEntry{
		UserID:      userID,
		ProductID:   product.ID,
		Marketplace: marketplace,
		Action:      action,
		Status:      models.SyncLogFailed,
		Message:     cause.Error(),
	})
	s.notifier.Notification(ctx, userID, NotificationEvent{
		Type:    "error",
		Title:   "Cross-listing failed",
		Message: fmt.Sprintf("Could not list %q on %s: %v", product.Title, marketplace, cause),
	})
	return &CrossListResult{Success: false, Error: cause.Error()}
}

func (s *CrossListService) appendLog(ctx context.Context, entry *models.SyncLogEntry) {
	if err := s.syncLogs.Append(ctx, entry); err != nil {
		log.Printf("WARN: failed to append sync log for user %s on %s: %v", entry.UserID, entry.Marketplace, err)
	}
}
