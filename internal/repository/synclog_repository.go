package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace-sync-service/internal/models"
)

// SyncLogRepositoryInterface defines the append-only sync log contract
type SyncLogRepositoryInterface interface {
	Append(ctx context.Context, entry *models.SyncLogEntry) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.SyncLogEntry, error)
	TotalCostSaved(ctx context.Context, userID string) (float64, error)
	CountByStatus(ctx context.Context, userID string, status models.SyncLogStatus) (int64, error)
}

// SyncLogRepository handles database operations for the sync audit log.
// Entries are append-only; there are no update or delete operations.
type SyncLogRepository struct {
	db *gorm.DB
}

var _ SyncLogRepositoryInterface = (*SyncLogRepository)(nil)

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Append writes one immutable audit record
func (r *SyncLogRepository) Append(ctx context.Context, entry *models.SyncLogEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// ListByUser retrieves the most recent log entries for the activity feed
func (r *SyncLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.SyncLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.SyncLogEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// TotalCostSaved sums the fees avoided by smart relists for a user
func (r *SyncLogRepository) TotalCostSaved(ctx context.Context, userID string) (float64, error) {
	var total float64
	err := r.db.WithContext(ctx).
		Model(&models.SyncLogEntry{}).
		Where("user_id = ? AND cost_saved IS NOT NULL", userID).
		Select("COALESCE(SUM(cost_saved), 0)").
		Scan(&total).Error
	return total, err
}

// CountByStatus counts log entries with a given outcome
func (r *SyncLogRepository) CountByStatus(ctx context.Context, userID string, status models.SyncLogStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SyncLogEntry{}).
		Where("user_id = ? AND status = ?", userID, status).
		Count(&count).Error
	return count, err
}
