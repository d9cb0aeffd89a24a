package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/adapters/whatnot"
	"marketplace-sync-service/internal/middleware"
	"marketplace-sync-service/internal/services"
)

func testRouter(marketplaceHandler *MarketplaceHandler, syncHandler *SyncHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.UserMiddleware())

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireUserID())
	{
		marketplaces := v1.Group("/marketplaces")
		if marketplaceHandler != nil {
			marketplaces.GET("", marketplaceHandler.List)
			marketplaces.GET("/:marketplace/auth-url", marketplaceHandler.AuthURL)
		}
		if syncHandler != nil {
			marketplaces.POST("/cross-list", syncHandler.CrossList)
			marketplaces.POST("/sync-inventory", syncHandler.SyncInventory)
		}
	}
	return router
}

func newMarketplaceTestHandler() *MarketplaceHandler {
	registry := adapters.NewRegistry()
	registry.Register(whatnot.NewWhatnotClient())
	store := services.NewCredentialStore(nil, registry)
	return NewMarketplaceHandler(services.NewMarketplaceService(store, registry, nil, nil))
}

func TestListRequiresUserID(t *testing.T) {
	router := testRouter(newMarketplaceTestHandler(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/marketplaces", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListSupportedMarketplaces(t *testing.T) {
	router := testRouter(newMarketplaceTestHandler(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/marketplaces", nil)
	req.Header.Set("X-User-ID", "user-1")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var response struct {
		Data []string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, []string{"WHATNOT"}, response.Data)
}

func TestAuthURLInvalidMarketplace(t *testing.T) {
	router := testRouter(newMarketplaceTestHandler(), nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/marketplaces/myspace/auth-url", nil)
	req.Header.Set("X-User-ID", "user-1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossListRejectsUnknownMarketplace(t *testing.T) {
	syncHandler := NewSyncHandler(nil, nil, nil, services.NewUserSemaphore(nil))
	router := testRouter(nil, syncHandler)

	body, _ := json.Marshal(map[string]interface{}{
		"productId":    "prod-1",
		"marketplaces": []string{"myspace"},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplaces/cross-list", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossListRejectsEmptyBody(t *testing.T) {
	syncHandler := NewSyncHandler(nil, nil, nil, services.NewUserSemaphore(nil))
	router := testRouter(nil, syncHandler)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplaces/cross-list", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCrossListConcurrencyLimit(t *testing.T) {
	semaphore := services.NewUserSemaphore(&services.UserConcurrencyConfig{MaxConcurrentJobs: 1})
	release, ok := semaphore.TryAcquire("user-1")
	require.True(t, ok)
	defer release()

	syncHandler := NewSyncHandler(nil, nil, nil, semaphore)
	router := testRouter(nil, syncHandler)

	body, _ := json.Marshal(map[string]interface{}{
		"productId":    "prod-1",
		"marketplaces": []string{"ebay"},
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplaces/cross-list", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestSyncInventoryRejectsNegativeQuantity(t *testing.T) {
	syncHandler := NewSyncHandler(nil, nil, nil, services.NewUserSemaphore(nil))
	router := testRouter(nil, syncHandler)

	body, _ := json.Marshal(map[string]interface{}{
		"productId": "prod-1",
		"quantity":  -2,
	})
	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/v1/marketplaces/sync-inventory", bytes.NewReader(body))
	req.Header.Set("X-User-ID", "user-1")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
