package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/adapters/ebay"
	"marketplace-sync-service/internal/adapters/etsy"
	"marketplace-sync-service/internal/adapters/whatnot"
	"marketplace-sync-service/internal/config"
	"marketplace-sync-service/internal/database"
	"marketplace-sync-service/internal/handlers"
	"marketplace-sync-service/internal/middleware"
	"marketplace-sync-service/internal/models"
	"marketplace-sync-service/internal/repository"
	"marketplace-sync-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.MarketplaceCredential{},
		&models.Listing{},
		&models.SyncLogEntry{},
	); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	}
	log.Println("Database models migrated")

	// Initialize repositories
	credentialRepo := repository.NewCredentialRepository(db)
	listingRepo := repository.NewListingRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)

	// Register marketplace adapters
	registry := adapters.NewRegistry()
	registry.Register(ebay.NewEbayClient(ebay.Config{
		ClientID:            cfg.EbayClientID,
		ClientSecret:        cfg.EbayClientSecret,
		RedirectURI:         cfg.EbayRedirectURI,
		Sandbox:             cfg.EbaySandbox,
		MerchantLocationKey: cfg.EbayMerchantLocationKey,
	}))
	registry.Register(etsy.NewEtsyClient(etsy.Config{
		ClientID:     cfg.EtsyClientID,
		ClientSecret: cfg.EtsyClientSecret,
		RedirectURI:  cfg.EtsyRedirectURI,
	}))
	registry.Register(whatnot.NewWhatnotClient())

	// Initialize services
	notifier := services.NewLogNotifier()
	credentialStore := services.NewCredentialStore(credentialRepo, registry)
	productSource := services.NewHTTPProductSource(cfg.ProductsServiceURL)
	marketplaceService := services.NewMarketplaceService(credentialStore, registry, listingRepo, syncLogRepo)
	crossListService := services.NewCrossListService(productSource, credentialStore, registry, listingRepo, syncLogRepo, notifier)
	inventoryService := services.NewInventorySyncService(credentialStore, registry, listingRepo, syncLogRepo, notifier)
	semaphore := services.NewUserSemaphore(&services.UserConcurrencyConfig{
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		JobTimeout:        cfg.JobTimeout,
	})

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db)
	marketplaceHandler := handlers.NewMarketplaceHandler(marketplaceService)
	syncHandler := handlers.NewSyncHandler(crossListService, inventoryService, marketplaceService, semaphore)

	// Setup router
	router := setupRouter(cfg, healthHandler, marketplaceHandler, syncHandler)

	// Start server
	log.Printf("Marketplace Sync Service starting on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	marketplaceHandler *handlers.MarketplaceHandler,
	syncHandler *handlers.SyncHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Security headers middleware
	router.Use(middleware.SecurityHeaders())

	// CORS middleware
	router.Use(middleware.CORS(cfg.AllowedOrigins))

	// User context middleware
	router.Use(middleware.UserMiddleware())

	// Health check
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// API routes - require user ID
	v1 := router.Group("/api/v1")
	v1.Use(middleware.RequireUserID())
	{
		marketplaces := v1.Group("/marketplaces")
		{
			marketplaces.GET("", marketplaceHandler.List)
			marketplaces.GET("/connected", marketplaceHandler.Connected)
			marketplaces.GET("/:marketplace/auth-url", marketplaceHandler.AuthURL)
			marketplaces.POST("/:marketplace/callback", marketplaceHandler.Callback)
			marketplaces.DELETE("/:marketplace/disconnect", marketplaceHandler.Disconnect)
			marketplaces.POST("/:marketplace/test", marketplaceHandler.TestConnection)

			marketplaces.GET("/listings", marketplaceHandler.Listings)

			marketplaces.POST("/cross-list", syncHandler.CrossList)
			marketplaces.POST("/sync-inventory", syncHandler.SyncInventory)
			marketplaces.GET("/sync-logs", syncHandler.SyncLogs)
			marketplaces.GET("/stats", syncHandler.Stats)
		}
	}

	return router
}
