package services

import (
	"context"
	"log"

	"marketplace-sync-service/internal/models"
)

// SyncProgressEvent carries a running completed/total counter while a
// fan-out operation is in flight
type SyncProgressEvent struct {
	Operation    string                 `json:"operation"`
	Current      int                    `json:"current"`
	Total        int                    `json:"total"`
	Marketplace  models.MarketplaceType `json:"marketplace,omitempty"`
	ProductTitle string                 `json:"productTitle,omitempty"`
}

// ListingUpdateEvent reports the outcome of one listing mutation
type ListingUpdateEvent struct {
	ProductID   string                 `json:"productId"`
	Marketplace models.MarketplaceType `json:"marketplace"`
	Status      string                 `json:"status"`
	Message     string                 `json:"message,omitempty"`
}

// NotificationEvent is a user-facing toast/alert
type NotificationEvent struct {
	Type    string `json:"type"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// SyncUpdateEvent reports a per-marketplace outcome of an inventory sync
type SyncUpdateEvent struct {
	Operation   string                 `json:"operation"`
	Status      string                 `json:"status"`
	Marketplace models.MarketplaceType `json:"marketplace,omitempty"`
	ProductID   string                 `json:"productId"`
	Error       string                 `json:"error,omitempty"`
}

// Notifier receives lifecycle events for UI display. The UI transport is an
// external collaborator; this service only emits.
type Notifier interface {
	SyncProgress(ctx context.Context, userID string, event SyncProgressEvent)
	ListingUpdate(ctx context.Context, userID string, event ListingUpdateEvent)
	Notification(ctx context.Context, userID string, event NotificationEvent)
	SyncUpdate(ctx context.Context, userID string, event SyncUpdateEvent)
}

// LogNotifier writes events to the service log. It stands in wherever no
// real-time transport is wired up.
type LogNotifier struct{}

// NewLogNotifier creates a log-backed notifier
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) SyncProgress(ctx context.Context, userID string, event SyncProgressEvent) {
	log.Printf("[event] syncProgress user=%s op=%s %d/%d marketplace=%s", userID, event.Operation, event.Current, event.Total, event.Marketplace)
}

func (n *LogNotifier) ListingUpdate(ctx context.Context, userID string, event ListingUpdateEvent) {
	log.Printf("[event] listingUpdate user=%s product=%s marketplace=%s status=%s: %s", userID, event.ProductID, event.Marketplace, event.Status, event.Message)
}

func (n *LogNotifier) Notification(ctx context.Context, userID string, event NotificationEvent) {
	log.Printf("[event] notification user=%s type=%s title=%q: %s", userID, event.Type, event.Title, event.Message)
}

func (n *LogNotifier) SyncUpdate(ctx context.Context, userID string, event SyncUpdateEvent) {
	log.Printf("[event] syncUpdate user=%s op=%s status=%s marketplace=%s error=%q", userID, event.Operation, event.Status, event.Marketplace, event.Error)
}
