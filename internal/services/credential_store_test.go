package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
)

// fakeCredentialRepo is an in-memory credential repository. It hands out
// copies so concurrent readers never share a row with the refresh path.
type fakeCredentialRepo struct {
	mu   sync.Mutex
	cred *models.MarketplaceCredential

	getCalls    int
	updateCalls int
}

func (r *fakeCredentialRepo) GetActive(ctx context.Context, userID string, marketplace models.MarketplaceType) (*models.MarketplaceCredential, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.getCalls++
	if r.cred == nil {
		return nil, nil
	}
	copied := *r.cred
	return &copied, nil
}

func (r *fakeCredentialRepo) ListActiveByUser(ctx context.Context, userID string) ([]models.MarketplaceCredential, error) {
	return nil, nil
}

func (r *fakeCredentialRepo) Upsert(ctx context.Context, credential *models.MarketplaceCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *credential
	r.cred = &copied
	return nil
}

func (r *fakeCredentialRepo) Update(ctx context.Context, credential *models.MarketplaceCredential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	copied := *credential
	r.cred = &copied
	return nil
}

func (r *fakeCredentialRepo) Deactivate(ctx context.Context, userID string, marketplace models.MarketplaceType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred = nil
	return nil
}

func (r *fakeCredentialRepo) stored() *models.MarketplaceCredential {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cred == nil {
		return nil
	}
	copied := *r.cred
	return &copied
}

func expiredCredential() *models.MarketplaceCredential {
	expiry := time.Now().Add(-time.Hour)
	return &models.MarketplaceCredential{
		UserID:       "user-1",
		Marketplace:  models.MarketplaceEtsy,
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
		ExpiresAt:    &expiry,
		IsActive:     true,
	}
}

func newTestStore(repo *fakeCredentialRepo, adapter adapters.MarketplaceAdapter) *CredentialStore {
	registry := adapters.NewRegistry()
	registry.Register(adapter)
	return NewCredentialStore(repo, registry)
}

func TestGetCredentialAbsent(t *testing.T) {
	repo := &fakeCredentialRepo{}
	store := newTestStore(repo, &fakeAdapter{marketplaceType: models.MarketplaceEtsy})

	cred, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)

	assert.NoError(t, err)
	assert.Nil(t, cred)
}

func TestGetCredentialNotExpired(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	repo := &fakeCredentialRepo{cred: &models.MarketplaceCredential{
		UserID:      "user-1",
		Marketplace: models.MarketplaceEtsy,
		AccessToken: "good",
		ExpiresAt:   &expiry,
		IsActive:    true,
	}}
	adapter := &fakeAdapter{marketplaceType: models.MarketplaceEtsy}
	store := newTestStore(repo, adapter)

	cred, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)

	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "good", cred.AccessToken)
	assert.Equal(t, 0, adapter.RefreshCalls())
}

func TestGetCredentialNoExpirySkipsRefresh(t *testing.T) {
	repo := &fakeCredentialRepo{cred: &models.MarketplaceCredential{
		UserID:      "user-1",
		Marketplace: models.MarketplaceEtsy,
		AccessToken: "forever",
		IsActive:    true,
	}}
	adapter := &fakeAdapter{marketplaceType: models.MarketplaceEtsy}
	store := newTestStore(repo, adapter)

	cred, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)

	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, 0, adapter.RefreshCalls())
}

func TestGetCredentialRefreshesExpired(t *testing.T) {
	repo := &fakeCredentialRepo{cred: expiredCredential()}
	newExpiry := time.Now().Add(time.Hour)
	adapter := &fakeAdapter{
		marketplaceType: models.MarketplaceEtsy,
		refreshFn: func(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
			return &adapters.Credential{
				AccessToken:  "fresh",
				RefreshToken: "refresh-2",
				ExpiresAt:    newExpiry,
			}, nil
		},
	}
	store := newTestStore(repo, adapter)

	cred, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)

	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "fresh", cred.AccessToken)
	assert.Equal(t, "refresh-2", cred.RefreshToken)
	assert.Equal(t, 1, adapter.RefreshCalls())

	stored := repo.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "fresh", stored.AccessToken)

	// A second read sees the persisted token and does not refresh again
	cred, err = store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, 1, adapter.RefreshCalls())
}

func TestGetCredentialRefreshFailureLeavesRowUntouched(t *testing.T) {
	repo := &fakeCredentialRepo{cred: expiredCredential()}
	adapter := &fakeAdapter{
		marketplaceType: models.MarketplaceEtsy,
		refreshFn: func(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
			return nil, &adapters.AuthenticationError{Message: "refresh token revoked"}
		},
	}
	store := newTestStore(repo, adapter)

	cred, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)

	assert.NoError(t, err)
	assert.Nil(t, cred)

	stored := repo.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "stale", stored.AccessToken)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
	assert.Equal(t, 0, repo.updateCalls)
}

func TestGetCredentialExpiredWithoutRefreshToken(t *testing.T) {
	cred := expiredCredential()
	cred.RefreshToken = ""
	repo := &fakeCredentialRepo{cred: cred}
	adapter := &fakeAdapter{marketplaceType: models.MarketplaceEtsy}
	store := newTestStore(repo, adapter)

	got, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)

	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.Equal(t, 0, adapter.RefreshCalls())
}

func TestGetCredentialConcurrentRefreshSingleFlight(t *testing.T) {
	repo := &fakeCredentialRepo{cred: expiredCredential()}
	newExpiry := time.Now().Add(time.Hour)
	adapter := &fakeAdapter{
		marketplaceType: models.MarketplaceEtsy,
		refreshFn: func(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
			time.Sleep(20 * time.Millisecond)
			return &adapters.Credential{AccessToken: "fresh", RefreshToken: "refresh-2", ExpiresAt: newExpiry}, nil
		},
	}
	store := newTestStore(repo, adapter)

	const readers = 10
	var wg sync.WaitGroup
	results := make([]*models.MarketplaceCredential, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cred, err := store.GetCredential(context.Background(), "user-1", models.MarketplaceEtsy)
			assert.NoError(t, err)
			results[i] = cred
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, adapter.RefreshCalls())
	for _, cred := range results {
		require.NotNil(t, cred)
		assert.Equal(t, "fresh", cred.AccessToken)
	}
}

func TestUpsertCredential(t *testing.T) {
	repo := &fakeCredentialRepo{}
	store := newTestStore(repo, &fakeAdapter{marketplaceType: models.MarketplaceEbay})

	expiry := time.Now().Add(2 * time.Hour)
	cred, err := store.UpsertCredential(context.Background(), "user-1", models.MarketplaceEbay, &adapters.Credential{
		AccessToken:  "access",
		RefreshToken: "refresh",
		ExpiresAt:    expiry,
		ShopID:       "shop-9",
		ShopName:     "My Shop",
	})

	require.NoError(t, err)
	assert.Equal(t, "user-1", cred.UserID)
	assert.Equal(t, models.MarketplaceEbay, cred.Marketplace)
	assert.True(t, cred.IsActive)
	require.NotNil(t, cred.ExpiresAt)
	assert.Equal(t, "shop-9", cred.ProviderShopID)

	stored := repo.stored()
	require.NotNil(t, stored)
	assert.Equal(t, "access", stored.AccessToken)
}
