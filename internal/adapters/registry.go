package adapters

import (
	"sort"

	"marketplace-sync-service/internal/models"
)

// Registry maps a marketplace identifier to its adapter instance. Adapters
// are registered once at startup; lookups are read-only after that.
type Registry struct {
	adapters map[models.MarketplaceType]MarketplaceAdapter
}

// NewRegistry creates an empty adapter registry
func NewRegistry() *Registry {
	return &Registry{
		adapters: make(map[models.MarketplaceType]MarketplaceAdapter),
	}
}

// Register adds an adapter under its own declared type
func (r *Registry) Register(adapter MarketplaceAdapter) {
	r.adapters[adapter.Type()] = adapter
}

// Resolve returns the adapter for a marketplace type
func (r *Registry) Resolve(marketplaceType models.MarketplaceType) (MarketplaceAdapter, error) {
	adapter, ok := r.adapters[marketplaceType]
	if !ok {
		return nil, &UnsupportedMarketplaceError{MarketplaceType: string(marketplaceType)}
	}
	return adapter, nil
}

// Types returns the registered marketplace identifiers in stable order
func (r *Registry) Types() []models.MarketplaceType {
	types := make([]models.MarketplaceType, 0, len(r.adapters))
	for t := range r.adapters {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
