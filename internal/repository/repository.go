package repository

import (
	"context"
	"errors"

	"github.com/timmy/vendorseo/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// KeywordStore persists the latest keyword set per vendor.
type KeywordStore interface {
	Upsert(ctx context.Context, rec *domain.VendorSEOKeywords) error
	GetByVendorID(ctx context.Context, vendorID string) (*domain.VendorSEOKeywords, error)
}

// AuditLog is the append-only seo_logs trail.
type AuditLog interface {
	Append(ctx context.Context, entry *domain.SEOLogEntry) error
	// ListByEntity returns entries newest first. limit <= 0 means no limit.
	ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]domain.SEOLogEntry, error)
}

// LocationFilter narrows LocationStore.List. Empty fields match everything.
type LocationFilter struct {
	City     string
	Category domain.LocationCategory
}

// LocationStore keeps one row of area names per (city, category).
type LocationStore interface {
	// MergeAreas unions areas into the (city, category) row, creating it when
	// missing, and returns the stored row.
	MergeAreas(ctx context.Context, city string, category domain.LocationCategory, areas []string) (*domain.LocationRecord, error)
	List(ctx context.Context, filter LocationFilter) ([]domain.LocationRecord, error)
}
