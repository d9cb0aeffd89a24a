package models

// Product is the unified, read-only view of a product as the surrounding
// application stores it. This service transforms it into provider payloads
// and never writes product content back.
type Product struct {
	ID          string            `json:"id"`
	UserID      string            `json:"userId"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       float64           `json:"price"`
	Quantity    int               `json:"quantity"`
	Images      []string          `json:"images"`
	SKU         string            `json:"sku"`
	Brand       string            `json:"brand,omitempty"`
	Condition   string            `json:"condition,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}
