package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/source"
)

const defaultImportBatch = 50

// ImportStats summarises a bulk area import.
type ImportStats struct {
	TotalItems     int64
	ProcessedItems int64
	SkippedItems   int64
	FailedItems    int64
	StartTime      time.Time
	EndTime        time.Time
}

// LocationService manages the per-city area registry.
type LocationService struct {
	store repository.LocationStore
}

func NewLocationService(store repository.LocationStore) *LocationService {
	return &LocationService{store: store}
}

// AddAreas merges areas into the (city, category) row.
func (s *LocationService) AddAreas(ctx context.Context, city, category string, areas []string) (*domain.LocationRecord, error) {
	city = strings.TrimSpace(city)
	cleaned := cleanList(areas)

	var missing []string
	if city == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(category) == "" {
		missing = append(missing, "category")
	}
	if len(cleaned) == 0 {
		missing = append(missing, "areas")
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Fields: missing}
	}

	cat, ok := domain.ParseLocationCategory(category)
	if !ok {
		return nil, &ValidationError{
			Fields:  []string{"category"},
			Message: fmt.Sprintf("unknown category %q", category),
		}
	}

	rec, err := s.store.MergeAreas(ctx, city, cat, cleaned)
	if err != nil {
		return nil, fmt.Errorf("merge areas: %w", err)
	}

	logger.With(logger.Fields{logger.FieldCity: city}).
		WithCount(len(rec.Name)).
		Info(ctx, "Location %s updated", cat)
	return rec, nil
}

// List returns registered locations, optionally filtered by city and category.
func (s *LocationService) List(ctx context.Context, city, category string) ([]domain.LocationRecord, error) {
	filter := repository.LocationFilter{City: strings.TrimSpace(city)}
	if strings.TrimSpace(category) != "" {
		cat, ok := domain.ParseLocationCategory(category)
		if !ok {
			return nil, &ValidationError{
				Fields:  []string{"category"},
				Message: fmt.Sprintf("unknown category %q", category),
			}
		}
		filter.Category = cat
	}
	return s.store.List(ctx, filter)
}

// Import merges every item from src into the registry, batchSize items per
// fetch. Items that fail validation are skipped; store failures are counted
// and the import carries on.
func (s *LocationService) Import(ctx context.Context, src source.Source, batchSize int) (*ImportStats, error) {
	if batchSize <= 0 {
		batchSize = defaultImportBatch
	}
	stats := &ImportStats{StartTime: time.Now()}
	ctx = logger.WithField(ctx, "source", src.GetSourceID())
	logger.CtxInfo(ctx, "Starting location import")

	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			stats.EndTime = time.Now()
			return stats, fmt.Errorf("import cancelled: %w", err)
		}

		items, next, err := src.FetchBatch(ctx, cursor, batchSize)
		if err != nil {
			stats.EndTime = time.Now()
			return stats, fmt.Errorf("fetch batch: %w", err)
		}

		for _, item := range items {
			stats.TotalItems++
			_, err := s.AddAreas(ctx, item.City, item.Category, item.Areas)
			var verr *ValidationError
			switch {
			case errors.As(err, &verr):
				stats.SkippedItems++
				logger.FromContext(ctx).WithField("source_id", item.SourceID).WithError(err).Warn("Skipping invalid item")
			case err != nil:
				stats.FailedItems++
				logger.FromContext(ctx).WithField("source_id", item.SourceID).WithError(err).Error("Failed to import item")
			default:
				stats.ProcessedItems++
			}
		}

		if next == "" {
			break
		}
		cursor = next
	}

	stats.EndTime = time.Now()
	logger.With(logger.Fields{
		"processed": stats.ProcessedItems,
		"skipped":   stats.SkippedItems,
		"failed":    stats.FailedItems,
	}).WithDuration(stats.EndTime.Sub(stats.StartTime).Milliseconds()).
		Info(ctx, "Location import completed")
	return stats, nil
}
