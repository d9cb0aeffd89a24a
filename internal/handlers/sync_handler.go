package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"marketplace-sync-service/internal/middleware"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/services"
)

// SyncHandler handles cross-listing and inventory sync endpoints
type SyncHandler struct {
	crossList   *services.CrossListService
	inventory   *services.InventorySyncService
	marketplace *services.MarketplaceService
	semaphore   *services.UserSemaphore
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(
	crossList *services.CrossListService,
	inventory *services.InventorySyncService,
	marketplace *services.MarketplaceService,
	semaphore *services.UserSemaphore,
) *SyncHandler {
	return &SyncHandler{
		crossList:   crossList,
		inventory:   inventory,
		marketplace: marketplace,
		semaphore:   semaphore,
	}
}

// CrossListRequest is the body for a cross-listing request
type CrossListRequest struct {
	ProductID    string   `json:"productId" binding:"required"`
	Marketplaces []string `json:"marketplaces" binding:"required,min=1"`
}

// CrossList publishes a product to the requested marketplaces
func (h *SyncHandler) CrossList(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req CrossListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	marketplaces := make([]models.MarketplaceType, 0, len(req.Marketplaces))
	seen := make(map[models.MarketplaceType]bool)
	for _, raw := range req.Marketplaces {
		marketplace := models.MarketplaceType(strings.ToUpper(raw))
		if !models.IsValidMarketplaceType(marketplace) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid marketplace: " + raw})
			return
		}
		if seen[marketplace] {
			continue
		}
		seen[marketplace] = true
		marketplaces = append(marketplaces, marketplace)
	}

	release, ok := h.semaphore.TryAcquire(userID)
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many concurrent sync jobs, try again shortly"})
		return
	}
	defer release()

	results, err := h.crossList.CrossList(c.Request.Context(), userID, req.ProductID, marketplaces)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	succeeded := 0
	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results":   results,
		"total":     len(results),
		"succeeded": succeeded,
		"failed":    len(results) - succeeded,
	})
}

// SyncInventoryRequest is the body for an inventory sync request
type SyncInventoryRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  *int   `json:"quantity" binding:"required"`
}

// SyncInventory pushes a quantity change to every active listing of a product
func (h *SyncHandler) SyncInventory(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SyncInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if *req.Quantity < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quantity cannot be negative"})
		return
	}

	release, ok := h.semaphore.TryAcquire(userID)
	if !ok {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many concurrent sync jobs, try again shortly"})
		return
	}
	defer release()

	if err := h.inventory.SyncInventory(c.Request.Context(), userID, req.ProductID, *req.Quantity); err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "inventory sync completed"})
}

// SyncLogs returns the user's recent sync activity
func (h *SyncHandler) SyncLogs(c *gin.Context) {
	userID := middleware.GetUserID(c)

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}

	logs, err := h.marketplace.SyncLogs(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": logs})
}

// Stats returns sync outcome counts and total smart-relist savings
func (h *SyncHandler) Stats(c *gin.Context) {
	userID := middleware.GetUserID(c)

	stats, err := h.marketplace.Stats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}
