package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
)

func newMarketplaceFixture(creds map[models.MarketplaceType]*models.MarketplaceCredential, adapterList ...adapters.MarketplaceAdapter) (*MarketplaceService, *MockListingRepository, *MockSyncLogRepository) {
	registry := adapters.NewRegistry()
	for _, a := range adapterList {
		registry.Register(a)
	}
	listings := new(MockListingRepository)
	syncLogs := new(MockSyncLogRepository)
	store := NewCredentialStore(&mapCredentialRepo{creds: creds}, registry)
	return NewMarketplaceService(store, registry, listings, syncLogs), listings, syncLogs
}

func TestListingsPullsProviderStatusThrough(t *testing.T) {
	etsyAdapter := &fakeAdapter{
		marketplaceType: models.MarketplaceEtsy,
		getFn: func(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
			return &adapters.RemoteListing{ListingID: listingID, Status: models.ListingExpired}, nil
		},
	}
	service, listings, _ := newMarketplaceFixture(
		map[models.MarketplaceType]*models.MarketplaceCredential{
			models.MarketplaceEtsy: connectedCred(models.MarketplaceEtsy),
		},
		etsyAdapter,
	)

	listings.On("ListByProduct", mock.Anything, "user-1", "prod-1").Return([]models.Listing{
		activeListing(models.MarketplaceEtsy, "etsy-1", 2),
	}, nil)
	listings.On("UpdateStatus", mock.Anything, models.MarketplaceEtsy, "etsy-1", models.ListingExpired).Return(nil)

	result, err := service.Listings(context.Background(), "user-1", "prod-1")

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, models.ListingExpired, result[0].Status)
	listings.AssertCalled(t, "UpdateStatus", mock.Anything, models.MarketplaceEtsy, "etsy-1", models.ListingExpired)
}

func TestListingsMarksGoneListingsEnded(t *testing.T) {
	etsyAdapter := &fakeAdapter{
		marketplaceType: models.MarketplaceEtsy,
		getFn: func(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
			return nil, nil
		},
	}
	service, listings, _ := newMarketplaceFixture(
		map[models.MarketplaceType]*models.MarketplaceCredential{
			models.MarketplaceEtsy: connectedCred(models.MarketplaceEtsy),
		},
		etsyAdapter,
	)

	listings.On("ListByProduct", mock.Anything, "user-1", "prod-1").Return([]models.Listing{
		activeListing(models.MarketplaceEtsy, "etsy-1", 2),
	}, nil)
	listings.On("UpdateStatus", mock.Anything, models.MarketplaceEtsy, "etsy-1", models.ListingEnded).Return(nil)

	result, err := service.Listings(context.Background(), "user-1", "prod-1")

	require.NoError(t, err)
	require.Len(t, result, 1)
	listings.AssertCalled(t, "UpdateStatus", mock.Anything, models.MarketplaceEtsy, "etsy-1", models.ListingEnded)
}

func TestListingsKeepsStoredStatusOnProviderError(t *testing.T) {
	etsyAdapter := &fakeAdapter{
		marketplaceType: models.MarketplaceEtsy,
		getFn: func(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
			return nil, &adapters.RateLimitError{Message: "throttled"}
		},
	}
	service, listings, _ := newMarketplaceFixture(
		map[models.MarketplaceType]*models.MarketplaceCredential{
			models.MarketplaceEtsy: connectedCred(models.MarketplaceEtsy),
		},
		etsyAdapter,
	)

	listings.On("ListByProduct", mock.Anything, "user-1", "prod-1").Return([]models.Listing{
		activeListing(models.MarketplaceEtsy, "etsy-1", 2),
	}, nil)

	result, err := service.Listings(context.Background(), "user-1", "prod-1")

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, models.ListingActive, result[0].Status)
	listings.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestStats(t *testing.T) {
	service, _, syncLogs := newMarketplaceFixture(nil)

	syncLogs.On("TotalCostSaved", mock.Anything, "user-1").Return(1.40, nil)
	syncLogs.On("CountByStatus", mock.Anything, "user-1", models.SyncLogSuccess).Return(int64(12), nil)
	syncLogs.On("CountByStatus", mock.Anything, "user-1", models.SyncLogFailed).Return(int64(3), nil)

	stats, err := service.Stats(context.Background(), "user-1")

	require.NoError(t, err)
	assert.InDelta(t, 1.40, stats.TotalCostSaved, 0.001)
	assert.Equal(t, int64(12), stats.SuccessCount)
	assert.Equal(t, int64(3), stats.FailedCount)
}

func TestAuthURLUnsupportedProvider(t *testing.T) {
	service, _, _ := newMarketplaceFixture(nil)

	_, err := service.AuthURL(models.MarketplaceEbay, "state-1")

	var unsupported *adapters.UnsupportedMarketplaceError
	assert.ErrorAs(t, err, &unsupported)
}

func TestTestConnectionNotConnected(t *testing.T) {
	service, _, _ := newMarketplaceFixture(
		map[models.MarketplaceType]*models.MarketplaceCredential{},
		&fakeAdapter{marketplaceType: models.MarketplaceEtsy},
	)

	err := service.TestConnection(context.Background(), "user-1", models.MarketplaceEtsy)

	var auth *adapters.AuthenticationError
	assert.ErrorAs(t, err, &auth)
}
