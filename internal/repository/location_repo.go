package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/vendorseo/internal/domain"
	"gorm.io/gorm"
)

// LocationRepository is the gorm LocationStore.
type LocationRepository struct {
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{db: db}
}

// MergeAreas reads and writes the (city, category) row inside one transaction.
func (r *LocationRepository) MergeAreas(ctx context.Context, city string, category domain.LocationCategory, areas []string) (*domain.LocationRecord, error) {
	var out domain.LocationRecord

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.LocationRecord
		err := tx.Where("city = ? AND category = ?", city, category).First(&existing).Error

		now := time.Now()
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			out = domain.LocationRecord{
				ID:        uuid.New().String(),
				City:      city,
				Category:  category,
				Name:      domain.StringArray(domain.MergeAreas(nil, areas)),
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Create(&out).Error
		case err != nil:
			return err
		}

		existing.Name = domain.StringArray(domain.MergeAreas(existing.Name, areas))
		existing.UpdatedAt = now
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"name":       existing.Name,
			"updated_at": existing.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		out = existing
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *LocationRepository) List(ctx context.Context, filter LocationFilter) ([]domain.LocationRecord, error) {
	q := r.db.WithContext(ctx).Order("city ASC, category ASC")
	if filter.City != "" {
		q = q.Where("LOWER(city) = LOWER(?)", filter.City)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}

	var records []domain.LocationRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}
