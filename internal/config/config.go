package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the marketplace sync service
type Config struct {
	// Server
	Port        string
	Environment string

	// Database
	DatabaseURL string

	// Internal Services
	ProductsServiceURL string

	// eBay OAuth app
	EbayClientID            string
	EbayClientSecret        string
	EbayRedirectURI         string
	EbaySandbox             bool
	EbayMerchantLocationKey string

	// Etsy OAuth app
	EtsyClientID     string
	EtsyClientSecret string
	EtsyRedirectURI  string

	// Concurrency
	MaxConcurrentJobs int
	JobTimeout        time.Duration

	// CORS
	AllowedOrigins []string
}

// Load loads configuration from environment variables
func Load() *Config {
	databaseURL := getEnv("DATABASE_URL", "")
	if databaseURL == "" {
		dbHost := getEnv("DB_HOST", "localhost")
		dbPort := getEnv("DB_PORT", "5432")
		dbUser := getEnv("DB_USER", "postgres")
		dbPassword := getEnv("DB_PASSWORD", "postgres")
		dbName := getEnv("DB_NAME", "marketplace_sync")
		dbSSLMode := getEnv("DB_SSLMODE", "disable")

		databaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
			dbUser, dbPassword, dbHost, dbPort, dbName, dbSSLMode)
	}

	config := &Config{
		Port:        getEnv("PORT", "8094"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: databaseURL,

		ProductsServiceURL: getEnv("PRODUCTS_SERVICE_URL", "http://products-service:8080"),

		EbayClientID:            getEnv("EBAY_CLIENT_ID", ""),
		EbayClientSecret:        getEnv("EBAY_CLIENT_SECRET", ""),
		EbayRedirectURI:         getEnv("EBAY_REDIRECT_URI", ""),
		EbaySandbox:             getEnvAsBool("EBAY_SANDBOX", true),
		EbayMerchantLocationKey: getEnv("EBAY_MERCHANT_LOCATION_KEY", "default"),

		EtsyClientID:     getEnv("ETSY_CLIENT_ID", ""),
		EtsyClientSecret: getEnv("ETSY_CLIENT_SECRET", ""),
		EtsyRedirectURI:  getEnv("ETSY_REDIRECT_URI", ""),

		MaxConcurrentJobs: getEnvAsInt("MAX_CONCURRENT_JOBS", 3),
		JobTimeout:        getEnvAsDuration("JOB_TIMEOUT", 10*time.Minute),

		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"*"}),
	}

	if config.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if config.EbayClientID == "" {
		log.Println("Warning: EBAY_CLIENT_ID not set, eBay connections will fail")
	}
	if config.EtsyClientID == "" {
		log.Println("Warning: ETSY_CLIENT_ID not set, Etsy connections will fail")
	}

	return config
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt gets an environment variable as an integer with a default value
func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intValue
}

// getEnvAsBool gets an environment variable as a boolean with a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return boolValue
}

// getEnvAsDuration gets an environment variable as a duration with a default value
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return duration
}

// getEnvAsSlice gets a comma-separated environment variable as a slice
func getEnvAsSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}
