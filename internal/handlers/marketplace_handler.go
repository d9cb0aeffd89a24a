package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"marketplace-sync-service/internal/middleware"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/services"
)

// MarketplaceHandler handles marketplace connection endpoints
type MarketplaceHandler struct {
	service *services.MarketplaceService
}

// NewMarketplaceHandler creates a new marketplace handler
func NewMarketplaceHandler(service *services.MarketplaceService) *MarketplaceHandler {
	return &MarketplaceHandler{service: service}
}

// List returns the marketplaces this deployment supports
func (h *MarketplaceHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.service.Supported()})
}

// Connected returns the user's active marketplace connections
func (h *MarketplaceHandler) Connected(c *gin.Context) {
	userID := middleware.GetUserID(c)

	connected, err := h.service.Connected(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": connected})
}

// AuthURL returns the OAuth consent URL for a marketplace
func (h *MarketplaceHandler) AuthURL(c *gin.Context) {
	marketplace, ok := marketplaceParam(c)
	if !ok {
		return
	}

	state := c.Query("state")
	if state == "" {
		state = uuid.New().String()
	}

	url, err := h.service.AuthURL(marketplace, state)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"authUrl": url,
		"state":   state,
	})
}

// Callback completes the OAuth flow with the provider's authorization code
func (h *MarketplaceHandler) Callback(c *gin.Context) {
	userID := middleware.GetUserID(c)
	marketplace, ok := marketplaceParam(c)
	if !ok {
		return
	}

	code := c.Query("code")
	if code == "" {
		var req struct {
			Code string `json:"code"`
		}
		if err := c.ShouldBindJSON(&req); err == nil {
			code = req.Code
		}
	}
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization code is required"})
		return
	}

	cred, err := h.service.HandleCallback(c.Request.Context(), userID, marketplace, code)
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"marketplace": cred.Marketplace,
			"shopId":      cred.ProviderShopID,
			"shopName":    cred.ProviderShopName,
			"connectedAt": cred.CreatedAt,
		},
	})
}

// Disconnect deactivates the user's connection to a marketplace
func (h *MarketplaceHandler) Disconnect(c *gin.Context) {
	userID := middleware.GetUserID(c)
	marketplace, ok := marketplaceParam(c)
	if !ok {
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), userID, marketplace); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marketplace disconnected"})
}

// TestConnection verifies the stored credential still works
func (h *MarketplaceHandler) TestConnection(c *gin.Context) {
	userID := middleware.GetUserID(c)
	marketplace, ok := marketplaceParam(c)
	if !ok {
		return
	}

	if err := h.service.TestConnection(c.Request.Context(), userID, marketplace); err != nil {
		c.JSON(statusForError(err), gin.H{
			"connected": false,
			"error":     err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"connected": true})
}

// Listings returns a product's listings with provider state pulled through
func (h *MarketplaceHandler) Listings(c *gin.Context) {
	userID := middleware.GetUserID(c)

	productID := c.Query("productId")
	if productID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "productId is required"})
		return
	}

	listings, err := h.service.Listings(c.Request.Context(), userID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listings})
}

func marketplaceParam(c *gin.Context) (models.MarketplaceType, bool) {
	marketplace := models.MarketplaceType(strings.ToUpper(c.Param("marketplace")))
	if !models.IsValidMarketplaceType(marketplace) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid marketplace: " + c.Param("marketplace")})
		return "", false
	}
	return marketplace, true
}
