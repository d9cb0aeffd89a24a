package services

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
)

// MockCredentialRepository is a mock implementation of CredentialRepositoryInterface
type MockCredentialRepository struct {
	mock.Mock
}

func (m *MockCredentialRepository) GetActive(ctx context.Context, userID string, marketplace models.MarketplaceType) (*models.MarketplaceCredential, error) {
	args := m.Called(ctx, userID, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.MarketplaceCredential), args.Error(1)
}

func (m *MockCredentialRepository) ListActiveByUser(ctx context.Context, userID string) ([]models.MarketplaceCredential, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MarketplaceCredential), args.Error(1)
}

func (m *MockCredentialRepository) Upsert(ctx context.Context, credential *models.MarketplaceCredential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Update(ctx context.Context, credential *models.MarketplaceCredential) error {
	args := m.Called(ctx, credential)
	return args.Error(0)
}

func (m *MockCredentialRepository) Deactivate(ctx context.Context, userID string, marketplace models.MarketplaceType) error {
	args := m.Called(ctx, userID, marketplace)
	return args.Error(0)
}

// MockListingRepository is a mock implementation of ListingRepositoryInterface
type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) GetForPublish(ctx context.Context, productID string, marketplace models.MarketplaceType) (*models.Listing, error) {
	args := m.Called(ctx, productID, marketplace)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) GetByExternalID(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string) (*models.Listing, error) {
	args := m.Called(ctx, marketplace, marketplaceListingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingRepository) ListActiveByProduct(ctx context.Context, userID, productID string) ([]models.Listing, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) ListByProduct(ctx context.Context, userID, productID string) ([]models.Listing, error) {
	args := m.Called(ctx, userID, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

func (m *MockListingRepository) Upsert(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) UpdateQuantity(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string, quantity int) error {
	args := m.Called(ctx, marketplace, marketplaceListingID, quantity)
	return args.Error(0)
}

func (m *MockListingRepository) UpdateStatus(ctx context.Context, marketplace models.MarketplaceType, marketplaceListingID string, status models.ListingStatus) error {
	args := m.Called(ctx, marketplace, marketplaceListingID, status)
	return args.Error(0)
}

// MockSyncLogRepository is a mock implementation of SyncLogRepositoryInterface
type MockSyncLogRepository struct {
	mock.Mock
}

func (m *MockSyncLogRepository) Append(ctx context.Context, entry *models.SyncLogEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSyncLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.SyncLogEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SyncLogEntry), args.Error(1)
}

func (m *MockSyncLogRepository) TotalCostSaved(ctx context.Context, userID string) (float64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockSyncLogRepository) CountByStatus(ctx context.Context, userID string, status models.SyncLogStatus) (int64, error) {
	args := m.Called(ctx, userID, status)
	return args.Get(0).(int64), args.Error(1)
}

// fakeAdapter is a configurable in-memory marketplace adapter
type fakeAdapter struct {
	marketplaceType models.MarketplaceType

	refreshFn         func(ctx context.Context, refreshToken string) (*adapters.Credential, error)
	createFn          func(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error)
	updateFn          func(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error)
	getFn             func(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error)
	updateInventoryFn func(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error

	mu           sync.Mutex
	refreshCalls int
	createCalls  int
	updateCalls  int
}

func (a *fakeAdapter) Type() models.MarketplaceType { return a.marketplaceType }
func (a *fakeAdapter) AuthURL(state string) string  { return "https://auth.example.com?state=" + state }

func (a *fakeAdapter) ExchangeCode(ctx context.Context, code string) (*adapters.Credential, error) {
	return &adapters.Credential{AccessToken: "access-" + code}, nil
}

func (a *fakeAdapter) Refresh(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
	a.mu.Lock()
	a.refreshCalls++
	a.mu.Unlock()
	if a.refreshFn != nil {
		return a.refreshFn(ctx, refreshToken)
	}
	return &adapters.Credential{AccessToken: "refreshed"}, nil
}

func (a *fakeAdapter) RefreshCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshCalls
}

func (a *fakeAdapter) CreateListing(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	a.mu.Lock()
	a.createCalls++
	a.mu.Unlock()
	if a.createFn != nil {
		return a.createFn(ctx, product, cred)
	}
	return &adapters.ListingResult{ListingID: "new-listing", Status: models.ListingActive}, nil
}

func (a *fakeAdapter) CreateCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.createCalls
}

func (a *fakeAdapter) UpdateListing(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	a.mu.Lock()
	a.updateCalls++
	a.mu.Unlock()
	if a.updateFn != nil {
		return a.updateFn(ctx, listingID, product, cred)
	}
	return &adapters.ListingResult{ListingID: listingID, Status: models.ListingActive}, nil
}

func (a *fakeAdapter) UpdateCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updateCalls
}

func (a *fakeAdapter) DeleteListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (bool, error) {
	return true, nil
}

func (a *fakeAdapter) GetListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
	if a.getFn != nil {
		return a.getFn(ctx, listingID, cred)
	}
	return nil, nil
}

func (a *fakeAdapter) GetCategories(ctx context.Context, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	return nil, nil
}

func (a *fakeAdapter) SearchCategory(ctx context.Context, query string, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	return nil, nil
}

func (a *fakeAdapter) UpdateInventory(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error {
	if a.updateInventoryFn != nil {
		return a.updateInventoryFn(ctx, listingID, quantity, cred)
	}
	return nil
}

func (a *fakeAdapter) GetListingAnalytics(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.ListingAnalytics, error) {
	return &adapters.ListingAnalytics{}, nil
}

// recordingNotifier captures emitted events for assertions
type recordingNotifier struct {
	mu             sync.Mutex
	progress       []SyncProgressEvent
	listingUpdates []ListingUpdateEvent
	notifications  []NotificationEvent
	syncUpdates    []SyncUpdateEvent
}

func (n *recordingNotifier) SyncProgress(ctx context.Context, userID string, event SyncProgressEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.progress = append(n.progress, event)
}

func (n *recordingNotifier) ListingUpdate(ctx context.Context, userID string, event ListingUpdateEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listingUpdates = append(n.listingUpdates, event)
}

func (n *recordingNotifier) Notification(ctx context.Context, userID string, event NotificationEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, event)
}

func (n *recordingNotifier) SyncUpdate(ctx context.Context, userID string, event SyncUpdateEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.syncUpdates = append(n.syncUpdates, event)
}

// stubProductSource serves a fixed product set
type stubProductSource struct {
	products map[string]*models.Product
}

func (s *stubProductSource) GetProduct(ctx context.Context, productID string) (*models.Product, error) {
	return s.products[productID], nil
}
