package etsy

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
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"marketplace-sync-service/internal/adapters"
	"marketplace-sync-service/internal/models"
)

const (
	defaultAuthURL  = "https://www.etsy.com/oauth/connect"
	defaultTokenURL = "https://api.etsy.com/v3/public/oauth/token"
	defaultAPIURL   = "https://api.etsy.com/v3/application"
)

// Config holds Etsy API configuration
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string

	// Overrides for tests; Etsy production endpoints apply when empty
	APIBaseURL string
	AuthURL    string
	TokenURL   string
}

// EtsyClient implements the marketplace adapter contract against the Etsy
// Open API v3. Etsy charges a fee per new listing, so creation first tries
// to reuse an inactive listing slot (see relist.go); updates always route
// through the same in-place path.
type EtsyClient struct {
	httpClient  *http.Client
	oauthConfig *oauth2.Config
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	retrier     *adapters.Retrier
}

// NewEtsyClient creates a new Etsy Open API client
func NewEtsyClient(cfg Config) *EtsyClient {
	authURL, tokenURL, baseURL := defaultAuthURL, defaultTokenURL, defaultAPIURL
	if cfg.AuthURL != "" {
		authURL = cfg.AuthURL
	}
	if cfg.TokenURL != "" {
		tokenURL = cfg.TokenURL
	}
	if cfg.APIBaseURL != "" {
		baseURL = cfg.APIBaseURL
	}

	return &EtsyClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{"listings_r", "listings_w", "shops_r", "transactions_r"},
			Endpoint:     oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL},
		},
		apiKey:      cfg.ClientID,
		baseURL:     baseURL,
		rateLimiter: rate.NewLimiter(rate.Limit(10), 2), // 10 requests per second
		retrier:     adapters.NewRetrier(adapters.DefaultRetryConfig()),
	}
}

// Type returns the marketplace type
func (c *EtsyClient) Type() models.MarketplaceType {
	return models.MarketplaceEtsy
}

// AuthURL builds the OAuth consent URL with the caller's state token
func (c *EtsyClient) AuthURL(state string) string {
	return c.oauthConfig.AuthCodeURL(state)
}

// ExchangeCode exchanges an authorization code for a token pair and resolves
// the seller's shop identity
func (c *EtsyClient) ExchangeCode(ctx context.Context, code string) (*adapters.Credential, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := c.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, &adapters.AuthenticationError{Message: fmt.Sprintf("code exchange rejected: %v", err)}
	}

	credential := &adapters.Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	// Shop identity is needed for every listing operation; resolve it now
	cred := &models.MarketplaceCredential{AccessToken: token.AccessToken}
	body, err := c.doRequest(ctx, "GET", "/users/me", nil, cred)
	if err != nil {
		return nil, err
	}
	var me struct {
		UserID int64 `json:"user_id"`
		ShopID int64 `json:"shop_id"`
	}
	if err := json.Unmarshal(body, &me); err != nil {
		return nil, &adapters.ProviderError{Message: fmt.Sprintf("malformed user response: %v", err)}
	}
	if me.ShopID == 0 {
		return nil, &adapters.PermissionError{Message: "etsy account has no shop"}
	}
	credential.ShopID = strconv.FormatInt(me.ShopID, 10)

	if shopBody, err := c.doRequest(ctx, "GET", "/shops/"+credential.ShopID, nil, cred); err == nil {
		var shop struct {
			ShopName string `json:"shop_name"`
		}
		if json.Unmarshal(shopBody, &shop) == nil {
			credential.ShopName = shop.ShopName
		}
	}

	return credential, nil
}

// Refresh exchanges a refresh token for a new access token. Etsy rotates
// refresh tokens on every grant.
func (c *EtsyClient) Refresh(ctx context.Context, refreshToken string) (*adapters.Credential, error) {
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

// CreateListing publishes a product to Etsy. A reusable inactive listing
// with a matching SKU is updated and reactivated instead of paying for a
// new listing slot; otherwise a draft is created, populated and activated.
func (c *EtsyClient) CreateListing(ctx context.Context, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	if err := adapters.ValidateProduct(product); err != nil {
		return nil, err
	}
	shopID, err := shopIDFor(cred)
	if err != nil {
		return nil, err
	}

	if reusable, err := c.findReusableListing(ctx, shopID, product.SKU, cred); err == nil && reusable != "" {
		if err := c.updateListingInPlace(ctx, shopID, reusable, product, cred); err != nil {
			return nil, err
		}
		saved := relistFeeSaved
		return &adapters.ListingResult{
			ListingID:   reusable,
			URL:         listingURL(reusable),
			Status:      models.ListingActive,
			SmartRelist: true,
			CostSaved:   &saved,
		}, nil
	}

	return c.createNewListing(ctx, shopID, product, cred)
}

// UpdateListing updates an existing listing in place. On Etsy update and
// relist are the same operation: fields are rewritten, images replaced and
// the listing forced back to the active state.
func (c *EtsyClient) UpdateListing(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	if err := adapters.ValidateProduct(product); err != nil {
		return nil, err
	}
	shopID, err := shopIDFor(cred)
	if err != nil {
		return nil, err
	}
	if err := c.updateListingInPlace(ctx, shopID, listingID, product, cred); err != nil {
		return nil, err
	}
	return &adapters.ListingResult{
		ListingID: listingID,
		URL:       listingURL(listingID),
		Status:    models.ListingActive,
	}, nil
}

// DeleteListing removes a listing; false without error when already gone
func (c *EtsyClient) DeleteListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (bool, error) {
	_, err := c.doRequest(ctx, "DELETE", "/listings/"+listingID, nil, cred)
	if err != nil {
		var notFound *adapters.NotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetListing fetches a listing snapshot; (nil, nil) on 404
func (c *EtsyClient) GetListing(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.RemoteListing, error) {
	var listing etsyListing
	err := c.retrier.Do(ctx, "etsy get listing", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, "GET", "/listings/"+listingID, nil, cred)
		if err != nil {
			return err
		}
		return json.Unmarshal(body, &listing)
	})
	if err != nil {
		var notFound *adapters.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}

	remote := &adapters.RemoteListing{
		ListingID: strconv.FormatInt(listing.ListingID, 10),
		Title:     listing.Title,
		Status:    listingStatus(listing.State),
		Price:     listing.Price.Float(),
		Quantity:  listing.Quantity,
		URL:       listing.URL,
	}
	if len(listing.SKUs) > 0 {
		remote.SKU = listing.SKUs[0]
	}
	if remote.URL == "" {
		remote.URL = listingURL(remote.ListingID)
	}
	return remote, nil
}

// GetCategories returns the seller taxonomy nodes
func (c *EtsyClient) GetCategories(ctx context.Context, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	var categories []adapters.Category
	err := c.retrier.Do(ctx, "etsy seller taxonomy", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, "GET", "/seller-taxonomy/nodes", nil, cred)
		if err != nil {
			return err
		}
		var response struct {
			Results []etsyTaxonomyNode `json:"results"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return err
		}
		categories = categories[:0]
		for _, node := range response.Results {
			categories = append(categories, adapters.Category{
				ID:   strconv.FormatInt(node.ID, 10),
				Name: node.Name,
				Path: strings.Join(node.FullPath, " > "),
			})
		}
		return nil
	})
	return categories, err
}

// SearchCategory filters the seller taxonomy by name. Etsy has no search
// endpoint for the seller taxonomy, so matching happens client-side.
func (c *EtsyClient) SearchCategory(ctx context.Context, query string, cred *models.MarketplaceCredential) ([]adapters.Category, error) {
	categories, err := c.GetCategories(ctx, cred)
	if err != nil {
		return nil, err
	}
	needle := strings.ToLower(query)
	matches := make([]adapters.Category, 0)
	for _, category := range categories {
		if strings.Contains(strings.ToLower(category.Name), needle) ||
			strings.Contains(strings.ToLower(category.Path), needle) {
			matches = append(matches, category)
		}
	}
	return matches, nil
}

// UpdateInventory sets the quantity on an existing listing
func (c *EtsyClient) UpdateInventory(ctx context.Context, listingID string, quantity int, cred *models.MarketplaceCredential) error {
	shopID, err := shopIDFor(cred)
	if err != nil {
		return err
	}
	form := url.Values{}
	form.Set("quantity", strconv.Itoa(quantity))
	_, err = c.doForm(ctx, "PATCH", fmt.Sprintf("/shops/%s/listings/%s", shopID, listingID), form, cred)
	return err
}

// GetListingAnalytics reads view and favorite counts off the listing;
// best-effort, an empty result is returned on any failure
func (c *EtsyClient) GetListingAnalytics(ctx context.Context, listingID string, cred *models.MarketplaceCredential) (*adapters.ListingAnalytics, error) {
	body, err := c.doRequest(ctx, "GET", "/listings/"+listingID, nil, cred)
	if err != nil {
		return &adapters.ListingAnalytics{}, nil
	}
	var listing struct {
		Views       int `json:"views"`
		NumFavorers int `json:"num_favorers"`
	}
	if err := json.Unmarshal(body, &listing); err != nil {
		return &adapters.ListingAnalytics{}, nil
	}
	return &adapters.ListingAnalytics{
		Views:    listing.Views,
		Watchers: listing.NumFavorers,
	}, nil
}

// createNewListing creates a draft, attaches images and inventory, then
// activates it. Only the final activation is retried; draft creation is not
// idempotent and a blind retry could buy two listing slots.
func (c *EtsyClient) createNewListing(ctx context.Context, shopID string, product *models.Product, cred *models.MarketplaceCredential) (*adapters.ListingResult, error) {
	payload := map[string]interface{}{
		"quantity":    product.Quantity,
		"title":       product.Title,
		"description": product.Description,
		"price":       product.Price,
		"who_made":    "i_did",
		"when_made":   "made_to_order",
		"state":       "draft",
	}
	if taxonomyID, ok := product.Attributes["etsy_taxonomy_id"]; ok {
		payload["taxonomy_id"] = taxonomyID
	}
	if len(product.Tags) > 0 {
		payload["tags"] = product.Tags
	}

	body, err := c.doRequest(ctx, "POST", fmt.Sprintf("/shops/%s/listings", shopID), payload, cred)
	if err != nil {
		return nil, err
	}
	var created struct {
		ListingID int64 `json:"listing_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return nil, &adapters.ProviderError{Message: fmt.Sprintf("malformed listing response: %v", err)}
	}
	listingID := strconv.FormatInt(created.ListingID, 10)

	if err := c.uploadImages(ctx, shopID, listingID, product.Images, cred); err != nil {
		return nil, err
	}
	if product.SKU != "" {
		if err := c.setListingSKU(ctx, listingID, product, cred); err != nil {
			return nil, err
		}
	}

	err = c.retrier.Do(ctx, "etsy activate listing", func(ctx context.Context) error {
		form := url.Values{}
		form.Set("state", "active")
		_, err := c.doForm(ctx, "PATCH", fmt.Sprintf("/shops/%s/listings/%s", shopID, listingID), form, cred)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &adapters.ListingResult{
		ListingID: listingID,
		URL:       listingURL(listingID),
		Status:    models.ListingActive,
	}, nil
}

// updateListingInPlace rewrites a listing's fields, replaces its images and
// forces it back to the active state
func (c *EtsyClient) updateListingInPlace(ctx context.Context, shopID, listingID string, product *models.Product, cred *models.MarketplaceCredential) error {
	form := url.Values{}
	form.Set("title", product.Title)
	form.Set("description", product.Description)
	form.Set("price", strconv.FormatFloat(product.Price, 'f', 2, 64))
	form.Set("quantity", strconv.Itoa(product.Quantity))
	form.Set("state", "active")
	if taxonomyID, ok := product.Attributes["etsy_taxonomy_id"]; ok {
		form.Set("taxonomy_id", taxonomyID)
	}
	if _, err := c.doForm(ctx, "PATCH", fmt.Sprintf("/shops/%s/listings/%s", shopID, listingID), form, cred); err != nil {
		return err
	}

	if err := c.replaceImages(ctx, shopID, listingID, product.Images, cred); err != nil {
		return err
	}
	if product.SKU != "" {
		if err := c.setListingSKU(ctx, listingID, product, cred); err != nil {
			return err
		}
	}
	return nil
}

// replaceImages deletes the current listing images and uploads the
// product's set
func (c *EtsyClient) replaceImages(ctx context.Context, shopID, listingID string, images []string, cred *models.MarketplaceCredential) error {
	body, err := c.doRequest(ctx, "GET", fmt.Sprintf("/shops/%s/listings/%s/images", shopID, listingID), nil, cred)
	if err == nil {
		var existing struct {
			Results []struct {
				ListingImageID int64 `json:"listing_image_id"`
			} `json:"results"`
		}
		if json.Unmarshal(body, &existing) == nil {
			for _, image := range existing.Results {
				path := fmt.Sprintf("/shops/%s/listings/%s/images/%d", shopID, listingID, image.ListingImageID)
				if _, err := c.doRequest(ctx, "DELETE", path, nil, cred); err != nil {
					return err
				}
			}
		}
	}
	return c.uploadImages(ctx, shopID, listingID, images, cred)
}

func (c *EtsyClient) uploadImages(ctx context.Context, shopID, listingID string, images []string, cred *models.MarketplaceCredential) error {
	for rank, image := range images {
		payload := map[string]interface{}{
			"url":  image,
			"rank": rank + 1,
		}
		path := fmt.Sprintf("/shops/%s/listings/%s/images", shopID, listingID)
		if _, err := c.doRequest(ctx, "POST", path, payload, cred); err != nil {
			return err
		}
	}
	return nil
}

// setListingSKU writes the SKU and offering through the inventory endpoint
func (c *EtsyClient) setListingSKU(ctx context.Context, listingID string, product *models.Product, cred *models.MarketplaceCredential) error {
	payload := map[string]interface{}{
		"products": []map[string]interface{}{
			{
				"sku": product.SKU,
				"offerings": []map[string]interface{}{
					{
						"price":      product.Price,
						"quantity":   product.Quantity,
						"is_enabled": true,
					},
				},
			},
		},
	}
	_, err := c.doRequest(ctx, "PUT", "/listings/"+listingID+"/inventory", payload, cred)
	return err
}

// doRequest performs an authenticated JSON request
func (c *EtsyClient) doRequest(ctx context.Context, method, path string, body interface{}, cred *models.MarketplaceCredential) ([]byte, error) {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reqBody, contentType, cred)
}

// doForm performs an authenticated form-encoded request; Etsy's listing
// update endpoint only accepts urlencoded bodies
func (c *EtsyClient) doForm(ctx context.Context, method, path string, form url.Values, cred *models.MarketplaceCredential) ([]byte, error) {
	return c.do(ctx, method, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded", cred)
}

func (c *EtsyClient) do(ctx context.Context, method, path string, body io.Reader, contentType string, cred *models.MarketplaceCredential) ([]byte, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("x-api-key", c.apiKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

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

// Etsy data structures
type etsyMoney struct {
	Amount       int64  `json:"amount"`
	Divisor      int64  `json:"divisor"`
	CurrencyCode string `json:"currency_code"`
}

func (m etsyMoney) Float() float64 {
	if m.Divisor == 0 {
		return 0
	}
	return float64(m.Amount) / float64(m.Divisor)
}

type etsyListing struct {
	ListingID int64     `json:"listing_id"`
	Title     string    `json:"title"`
	State     string    `json:"state"`
	Quantity  int       `json:"quantity"`
	Price     etsyMoney `json:"price"`
	SKUs      []string  `json:"skus"`
	URL       string    `json:"url"`
}

type etsyTaxonomyNode struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	FullPath []string `json:"full_path_taxonomy_names"`
}

// Helper functions
func shopIDFor(cred *models.MarketplaceCredential) (string, error) {
	if cred.ProviderShopID == "" {
		return "", &adapters.AuthenticationError{Message: "credential has no etsy shop id; reconnect the marketplace"}
	}
	return cred.ProviderShopID, nil
}

func listingStatus(state string) models.ListingStatus {
	switch state {
	case "active":
		return models.ListingActive
	case "sold_out":
		return models.ListingSold
	case "expired":
		return models.ListingExpired
	case "draft", "edit":
		return models.ListingDraft
	default:
		return models.ListingEnded
	}
}

func listingURL(listingID string) string {
	return "https://www.etsy.com/listing/" + listingID
}
