package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/vendorseo/internal/domain"
	"gorm.io/gorm"
)

// AuditRepository is the gorm AuditLog.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append inserts entry, assigning an ID and timestamp when missing.
func (r *AuditRepository) Append(ctx context.Context, entry *domain.SEOLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *AuditRepository) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]domain.SEOLogEntry, error) {
	q := r.db.WithContext(ctx).
		Where("entity = ? AND entity_id = ?", entity, entityID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var entries []domain.SEOLogEntry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
