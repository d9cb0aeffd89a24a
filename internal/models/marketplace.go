package models

import (
	"database/sql/driver"
	"encoding/json"
)

// MarketplaceType represents the supported marketplace platforms
type MarketplaceType string

const (
	MarketplaceEbay    MarketplaceType = "EBAY"
	MarketplaceEtsy    MarketplaceType = "ETSY"
	MarketplaceWhatnot MarketplaceType = "WHATNOT"
)

// AllMarketplaces returns every marketplace identifier the service knows
// about, including ones whose integration is not yet functional.
func AllMarketplaces() []MarketplaceType {
	return []MarketplaceType{MarketplaceEbay, MarketplaceEtsy, MarketplaceWhatnot}
}

// IsValidMarketplaceType checks if a marketplace type is valid
func IsValidMarketplaceType(t MarketplaceType) bool {
	switch t {
	case MarketplaceEbay, MarketplaceEtsy, MarketplaceWhatnot:
		return true
	default:
		return false
	}
}

// JSONB custom type for PostgreSQL JSONB
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = make(map[string]interface{})
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

func (j JSONB) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]interface{}(j))
}

func (j *JSONB) UnmarshalJSON(data []byte) error {
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*j = JSONB(m)
	return nil
}
