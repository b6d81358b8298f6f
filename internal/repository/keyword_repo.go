package repository

import (
	"context"
	"errors"
	"time"

	"github.com/timmy/vendorseo/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeywordRepository is the gorm KeywordStore.
type KeywordRepository struct {
	db *gorm.DB
}

func NewKeywordRepository(db *gorm.DB) *KeywordRepository {
	return &KeywordRepository{db: db}
}

// Upsert inserts the record or overwrites every column except created_at.
func (r *KeywordRepository) Upsert(ctx context.Context, rec *domain.VendorSEOKeywords) error {
	now := time.Now()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vendor_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"business_type", "business_model", "niche", "location", "nearest_areas",
			"target_gender", "price_tier", "style_tags", "keywords", "updated_at",
		}),
	}).Create(rec).Error
}

func (r *KeywordRepository) GetByVendorID(ctx context.Context, vendorID string) (*domain.VendorSEOKeywords, error) {
	var rec domain.VendorSEOKeywords
	err := r.db.WithContext(ctx).First(&rec, "vendor_id = ?", vendorID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
