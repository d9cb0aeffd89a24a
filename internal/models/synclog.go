package models

import (
	"time"

	"github.com/google/uuid"
)

// SyncAction represents what kind of orchestration produced a log entry
type SyncAction string

const (
	SyncActionCreate SyncAction = "CREATE"
	SyncActionUpdate SyncAction = "UPDATE"
	SyncActionRelist SyncAction = "RELIST"
	SyncActionSync   SyncAction = "SYNC"
)

// SyncLogStatus represents the outcome recorded in a log entry
type SyncLogStatus string

const (
	SyncLogSuccess SyncLogStatus = "SUCCESS"
	SyncLogFailed  SyncLogStatus = "FAILED"
)

// SyncLogEntry is an immutable audit record of one orchestration outcome.
// Rows are append-only; the cost-savings rollup and the activity feed are
// both computed from this table.
type SyncLogEntry struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string          `gorm:"type:varchar(255);not null;index:idx_mp_sync_logs_user" json:"userId"`
	ProductID   string          `gorm:"type:varchar(255);index:idx_mp_sync_logs_product" json:"productId,omitempty"`
	Marketplace MarketplaceType `gorm:"type:varchar(50);not null;index:idx_mp_sync_logs_marketplace" json:"marketplace"`

	Action  SyncAction    `gorm:"type:varchar(50);not null" json:"action"`
	Status  SyncLogStatus `gorm:"type:varchar(50);not null;index:idx_mp_sync_logs_status" json:"status"`
	Message string        `gorm:"type:text" json:"message,omitempty"`

	// Fee avoided by a smart relist, when one happened
	CostSaved *float64 `json:"costSaved,omitempty"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_mp_sync_logs_created" json:"createdAt"`
}

// TableName specifies the table name for SyncLogEntry
func (SyncLogEntry) TableName() string {
	return "marketplace_sync_logs"
}
