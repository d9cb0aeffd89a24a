package ebay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
)

const (
	sandboxAuthURL  = "https://auth.sandbox.ebay.com/oauth2/authorize"
	sandboxTokenURL = "https://api.sandbox.ebay.com/identity/v1/oauth2/token"
	sandboxAPIURL   = "https://api.sandbox.ebay.com"

	productionAuthURL  = "https://auth.ebay.com/oauth2/authorize"
	productionTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	productionAPIURL   = "https://api.ebay.com"

	defaultMarketplaceID = "EBAY_US"
)

// Config holds eBay API configuration
type Config struct {
	ClientID            string
	ClientSecret        string
	RedirectURI         string
	Sandbox             bool
	MerchantLocationKey string

	// Overrides for tests; production/sandbox defaults apply when empty
	APIBaseURL string
	AuthURL    string
	TokenURL   string
}

// EbayClient implements the marketplace adapter contract against the eBay
// Sell APIs. Listing creation follows eBay's inventory-item + offer +
// publish protocol; the offer ID is the marketplace listing ID this service
// stores, since all later mutations address the offer.
type EbayClient struct {
	httpClient  *http.Client
	oauthConfig *oauth2.Config
	baseURL     string
	locationKey string
	rateLimiter *rate.Limiter
	retrier     *adapters.Retrier
}

// NewEbayClient creates a new eBay Sell API client
func NewEbayClient(cfg Config) *EbayClient {
	authURL, tokenURL, baseURL := productionAuthURL, productionTokenURL, productionAPIURL
	if cfg.Sandbox {
		authURL, tokenURL, baseURL = sandboxAuthURL, sandboxTokenURL, sandboxAPIURL
	}
	if cfg.AuthURL != "" {
		authURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		tokenURL = cfg.TokenURL
	}
	if cfg.APIBaseURL != "" {
		baseURL = cfg.APIBaseURL
	}

	return &EbayClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes: []string{
				"https://api.ebay.com/oauth/api_scope",
				"https://api.ebay.com/oauth/api_scope/sell.inventory",
				"https://api.ebay.com/oauth/api_scope/sell.account",
			},
			Endpoint: oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		baseURL:     baseURL,
		locationKey: cfg.MerchantLocationKey,
		rateLimiter: rate.NewLimiter(rate.Limit(5), 1), // 5 requests per second
		retrier:     adapters.NewRetrier(adapters.DefaultRetryConfig()),
	}
}

// Type returns the marketplace type
func (c *EbayClient) Type() models.MarketplaceType {
	return models.MarketplaceEbay
}

// AuthURL builds the OAuth consent URL with the caller's state token
func (c *EbayClient) AuthURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for a token pair
func (c *EbayClient) ExchangeCode(ctx context.Context, code string) (*adapters.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, &adapters.AuthenticationError{Message: fmt.Sprintf("code exchange rejected: %v", err)}
	}
	return &adapters.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}, nil
}

// Refresh exchanges a refresh token for a new access token. eBay does not
// rotate refresh tokens, so the incoming one is carried forward.
func (c *EbayClient) Refresh(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	source := c.oauthConfig.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, &adapters.AuthenticationError{Message: fmt.Sprintf("token refresh rejected: %v", err)}
	}
	rotated := token.RefreshToken
	if rotated == "" {
		rotated = refreshToken
	}
	return &adapters.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: rotated,
		ExpiresAt:    token.Expiry,
	}, nil
}

// CreateListing runs the inventory-item + offer + publish protocol. Only the
// final publish step is retried: it is safe to reissue for an already
// created offer, while blindly retrying offer creation could duplicate
// listings.
func (c *EbayClient) CreateListing(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	if err := adapters.ValidateProduct(product); err != nil {
		return nil, err
	}

	sku := listingSKU(product)
	if err := c.putInventoryItem(ctx, sku, product, cred); err != nil {
		return nil, err
	}

	offerID, err := c.createOffer(ctx, sku, product, cred)
	if err != nil {
		return nil, err
	}

	var published struct {
		ListingID string `json:"listingId"`
	}
	err = c.retrier.Do(ctx, "ebay publish offer", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, "POST", fmt.Sprintf("/sell/inventory/v1/offer/%s/publish", offerID), nil, cred)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &published)
	})
	if err != nil {
		return nil, err
	}

	return &adapters.ListingResult{
		ListingID: offerID,
		URL:       itemURL(published.ListingID),
		Status:    models.ListingActive,
	}, nil
}

// UpdateListing refreshes the inventory item and the offer behind an
// existing listing
func (c *EbayClient) UpdateListing(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	if err := adapters.ValidateProduct(product); err != nil {
		return nil, err
	}

	offer, err := c.getOffer(ctx, listingID, cred)
	if err != nil {
		return nil, err
	}

	if err := c.putInventoryItem(ctx, offer.SKU, product, cred); err != nil {
		return nil, err
	}

	payload := offerPayload(offer.SKU, product, c.locationKey)
	if _, err := c.doRequest(ctx, "PUT", "/sell/inventory/v1/offer/"+listingID, payload, cred); err != nil {
		return nil, err
	}

	return &adapters.ListingResult{
		ListingID: listingID,
		URL:       itemURL(offer.ListingID),
		Status:    models.ListingActive,
	}, nil
}

// DeleteListing withdraws and removes the offer. A 404 means the listing is
// already gone and reports false without an error.
func (c *EbayClient) DeleteListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (bool, error) {
	_, err := c.doRequest(ctx, "DELETE", "/sell/inventory/v1/offer/"+listingID, nil, cred)
	if err != nil {
		var notFound *adapters.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetListing fetches the offer behind a listing; (nil, nil) on 404
func (c *EbayClient) GetListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
	var offer *ebayOffer
	err := c.retrier.Do(ctx, "ebay get offer", func(ctx context.Context) error {
		var err error
		offer, err = c.getOffer(ctx, listingID, cred)
		return err
	})
	if err != nil {
		var notFound *adapters.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	price, _ := strconv.ParseFloat(offer.PricingSummary.Price.Value, 64)
	return &adapters.RemoteListing{
		ListingID: offer.OfferID,
		SKU:       offer.SKU,
		Status:    offerStatus(offer.Status),
		Price:     price,
		Quantity:  offer.AvailableQuantity,
		URL:       itemURL(offer.ListingID),
	}, nil
}

// GetCategories returns the top level of the default category tree
func (c *EbayClient) GetCategories(ctx context.Context, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	treeID, err := c.defaultCategoryTreeID(ctx, cred)
	if err != nil {
		return nil, err
	}

	var categories []adapters.Category
	err = c.retrier.Do(ctx, "ebay category tree", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, "GET", "/commerce/taxonomy/v1/category_tree/"+treeID, nil, cred)
		if err != nil {
			return err
		}
		var tree struct {
			RootCategoryNode struct {
				ChildCategoryTreeNodes []ebayCategoryNode `json:"childCategoryTreeNodes"`
			} `json:"rootCategoryNode"`
		}
		if err := json.Unmarshal(body, &tree); err != nil {
			return err
		}
		categories = categories[:0]
		for _, node := range tree.RootCategoryNode.ChildCategoryTreeNodes {
			categories = append(categories, adapters.Category{
				ID:   node.Category.CategoryID,
				Name: node.Category.CategoryName,
			})
		}
		return nil
	})
	return categories, err
}

// SearchCategory asks eBay for category suggestions matching a query
func (c *EbayClient) SearchCategory(ctx context.Context, query string, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	treeID, err := c.defaultCategoryTreeID(ctx, cred)
	if err != nil {
		return nil, err
	}

	var categories []adapters.Category
	err = c.retrier.Do(ctx, "ebay category suggestions", func(ctx context.Context) error {
		path := fmt.Sprintf("/commerce/taxonomy/v1/category_tree/%s/get_category_suggestions?q=%s", treeID, url.QueryEscape(query))
		body, err := c.doRequest(ctx, "GET", path, nil, cred)
		if err != nil {
			return err
		}
		var response struct {
			CategorySuggestions []struct {
				Category            ebayCategory `json:"category"`
				CategoryTreeNodeAncestors []struct {
					CategoryName string `json:"categoryName"`
				} `json:"categoryTreeNodeAncestors"`
			} `json:"categorySuggestions"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return err
		}
		categories = categories[:0]
		for _, suggestion := range response.CategorySuggestions {
			category := adapters.Category{
				ID:   suggestion.Category.CategoryID,
				Name: suggestion.Category.CategoryName,
			}
			for _, ancestor := range suggestion.CategoryTreeNodeAncestors {
				if category.Path == "" {
					category.Path = ancestor.CategoryName
				} else {
					category.Path = ancestor.CategoryName + " > " + category.Path
				}
			}
			categories = append(categories, category)
		}
		return nil
	})
	return categories, err
}

// UpdateInventory sets the available quantity on the offer and its
// backing inventory item in one bulk call
func (c *EbayClient) UpdateInventory(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error {
	offer, err := c.getOffer(ctx, listingID, cred)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"requests": []map[string]interface{}{
			{
				"sku": offer.SKU,
				"shipToLocationAvailability": map[string]int{"quantity": quantity},
				"offers": []map[string]interface{}{
					{"offerId": listingID, "availableQuantity": quantity},
				},
			},
		},
	}
	_, err = c.doRequest(ctx, "POST", "/sell/inventory/v1/bulk_update_price_quantity", payload, cred)
	return err
}

// GetListingAnalytics pulls listing traffic metrics; best-effort, an empty
// result is returned on any failure
func (c *EbayClient) GetListingAnalytics(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.ListingAnalytics, error) {
	offer, err := c.getOffer(ctx, listingID, cred)
	if err != nil || offer.ListingID == "" {
		return &adapters.ListingAnalytics{}, nil
	}

	path := fmt.Sprintf(
		"/sell/analytics/v1/traffic_report?dimension=LISTING&filter=listing_ids:{%s}&metric=LISTING_VIEWS_TOTAL,LISTING_IMPRESSION_TOTAL",
		offer.ListingID,
	)
	body, err := c.doRequest(ctx, "GET", path, nil, cred)
	if err != nil {
		return &adapters.ListingAnalytics{}, nil
	}

	var report struct {
		Records []struct {
			MetricValues []struct {
				Value int `json:"value"`
			} `json:"metricValues"`
		} `json:"records"`
	}
	if err := json.Unmarshal(body, &report); err != nil {
		return &adapters.ListingAnalytics{}, nil
	}

	analytics := &adapters.ListingAnalytics{}
	if len(report.Records) > 0 && len(report.Records[0].MetricValues) > 0 {
		analytics.Views = report.Records[0].MetricValues[0].Value
	}
	return analytics, nil
}

// putInventoryItem creates or replaces the inventory item for a SKU
func (c *EbayClient) putInventoryItem(ctx context.Context, sku string, product *models.Product, cred *models.MarketplaceCredential) error {
	aspects := make(map[string][]string, len(product.Attributes))
	for name, value := range product.Attributes {
		aspects[name] = []string{value}
	}
	if product.Brand != "" {
		aspects["Brand"] = []string{product.Brand}
	}

	payload := map[string]interface{}{
		"product": map[string]interface{}{
			"title":       product.Title,
			"description": product.Description,
			"imageUrls":   product.Images,
			"aspects":     aspects,
		},
		"condition": ebayCondition(product.Condition),
		"availability": map[string]interface{}{
			"shipToLocationAvailability": map[string]int{"quantity": product.Quantity},
		},
	}
	_, err := c.doRequest(ctx, "PUT", "/sell/inventory/v1/inventory_item/"+sku, payload, cred)
	return err
}

// createOffer creates a fixed-price offer for a SKU and returns the offer ID
func (c *EbayClient) createOffer(ctx context.Context, sku string, product *models.Product, cred *models.MarketplaceCredential) (string, error) {
	body, err := c.doRequest(ctx, "POST", "/sell/inventory/v1/offer", offerPayload(sku, product, c.locationKey), cred)
	if err != nil {
		return "", err
	}
	var created struct {
		OfferID string `json:"offerId"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return "", &adapters.ProviderError{Message: fmt.Sprintf("malformed offer response: %v", err)}
	}
	return created.OfferID, nil
}

func (c *EbayClient) getOffer(ctx context.Context, offerID string, cred *models.MarketplaceCredential) (*ebayOffer, error) {
	body, err := c.doRequest(ctx, "GET", "/sell/inventory/v1/offer/"+offerID, nil, cred)
	if err != nil {
		return nil, err
	}
	var offer ebayOffer
	if err := json.Unmarshal(body, &offer); err != nil {
		return nil, &adapters.ProviderError{Message: fmt.Sprintf("malformed offer response: %v", err)}
	}
	return &offer, nil
}

func (c *EbayClient) defaultCategoryTreeID(ctx context.Context, cred *models.MarketplaceCredential) (string, error) {
	var treeID string
	err := c.retrier.Do(ctx, "ebay default category tree", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, "GET", "/commerce/taxonomy/v1/get_default_category_tree_id?marketplace_id="+defaultMarketplaceID, nil, cred)
		if err != nil {
			return err
		}
		var response struct {
			CategoryTreeID string `json:"categoryTreeId"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return err
		}
		treeID = response.CategoryTreeID
		return nil
	})
	return treeID, err
}

// doRequest performs an authenticated HTTP request against the Sell APIs
func (c *EbayClient) doRequest(ctx context.Context, method, path string, body interface{}, cred *models.MarketplaceCredential) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Language", "en-US")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &adapters.ProviderError{Message: err.Error()}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &adapters.ProviderError{Message: err.Error()}
	}

	if resp.StatusCode >= 400 {
		return nil, adapters.TranslateResponse(resp.StatusCode, resp.Header, string(respBody))
	}
	return respBody, nil
}

// eBay data structures
type ebayOffer struct {
	OfferID           string `json:"offerId"`
	SKU               string `json:"sku"`
	Status            string `json:"status"`
	ListingID         string `json:"listingId,omitempty"`
	AvailableQuantity int    `json:"availableQuantity"`
	PricingSummary    struct {
		Price struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"price"`
	} `json:"pricingSummary"`
}

type ebayCategory struct {
	CategoryID   string `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

type ebayCategoryNode struct {
	Category ebayCategory `json:"category"`
}

// Helper functions
func offerPayload(sku string, product *models.Product, locationKey string) map[string]interface{} {
	payload := map[string]interface{}{
		"sku":                sku,
		"marketplaceId":      defaultMarketplaceID,
		"format":             "FIXED_PRICE",
		"availableQuantity":  product.Quantity,
		"listingDescription": product.Description,
		"pricingSummary": map[string]interface{}{
			"price": map[string]string{
				"value":    strconv.FormatFloat(product.Price, 'f', 2, 64),
				"currency": "USD",
			},
		},
	}
	if categoryID, ok := product.Attributes["ebay_category_id"]; ok {
		payload["categoryId"] = categoryID
	}
	if locationKey != "" {
		payload["merchantLocationKey"] = locationKey
	}
	return payload
}

func offerStatus(status string) models.ListingStatus {
	switch status {
	case "PUBLISHED":
		return models.ListingActive
	case "UNPUBLISHED":
		return models.ListingDraft
	default:
		return models.ListingEnded
	}
}

func ebayCondition(condition string) string {
	switch condition {
	case "new", "NEW", "":
		return "NEW"
	case "like_new":
		return "LIKE_NEW"
	case "used", "good":
		return "USED_GOOD"
	default:
		return "USED_ACCEPTABLE"
	}
}

func listingSKU(product *models.Product) string {
	if product.SKU != "" {
		return product.SKU
	}
	return product.ID
}

func itemURL(listingID string) string {
	if listingID == "" {
		return ""
	}
	return "https://www.ebay.com/itm/" + listingID
}
