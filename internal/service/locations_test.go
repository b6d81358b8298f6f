package service

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/repository"
	"github.com/timmy/vendorseo/internal/source"
)

type memLocations struct {
	rows    map[string]*domain.LocationRecord
	filters []repository.LocationFilter
}

func (m *memLocations) MergeAreas(_ context.Context, city string, cat domain.LocationCategory, areas []string) (*domain.LocationRecord, error) {
	if m.rows == nil {
		m.rows = map[string]*domain.LocationRecord{}
	}
	key := city + "/" + string(cat)
	rec, ok := m.rows[key]
	if !ok {
		rec = &domain.LocationRecord{City: city, Category: cat}
		m.rows[key] = rec
	}
	rec.Name = domain.MergeAreas(rec.Name, areas)
	return rec, nil
}

func (m *memLocations) List(_ context.Context, f repository.LocationFilter) ([]domain.LocationRecord, error) {
	m.filters = append(m.filters, f)
	return nil, nil
}

func TestAddAreas(t *testing.T) {
	store := &memLocations{}
	svc := NewLocationService(store)
	ctx := context.Background()

	if _, err := svc.AddAreas(ctx, "Owerri", "Market", []string{"Relief Market", " "}); err != nil {
		t.Fatalf("AddAreas() error = %v", err)
	}
	rec, err := svc.AddAreas(ctx, " Owerri ", "market", []string{"Eke Ukwu", "Relief Market"})
	if err != nil {
		t.Fatalf("AddAreas() error = %v", err)
	}
	if len(rec.Name) != 2 || rec.Name[0] != "Relief Market" || rec.Name[1] != "Eke Ukwu" {
		t.Errorf("Name = %v", rec.Name)
	}
	if len(store.rows) != 1 {
		t.Errorf("rows = %d, want 1", len(store.rows))
	}
}

func TestAddAreasValidation(t *testing.T) {
	tests := []struct {
		name     string
		city     string
		category string
		areas    []string
		field    string
	}{
		{"missing city", "", "area", []string{"Orji"}, "city"},
		{"missing category", "Owerri", " ", []string{"Orji"}, "category"},
		{"blank areas", "Owerri", "area", []string{" ", ""}, "areas"},
		{"unknown category", "Owerri", "planet", []string{"Orji"}, "category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &memLocations{}
			_, err := NewLocationService(store).AddAreas(context.Background(), tt.city, tt.category, tt.areas)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("error = %v, want *ValidationError", err)
			}
			if len(verr.Fields) != 1 || verr.Fields[0] != tt.field {
				t.Errorf("Fields = %v, want [%s]", verr.Fields, tt.field)
			}
			if len(store.rows) != 0 {
				t.Error("store written despite validation failure")
			}
		})
	}
}

func TestListLocationsFilter(t *testing.T) {
	store := &memLocations{}
	svc := NewLocationService(store)

	if _, err := svc.List(context.Background(), " Owerri ", "Street"); err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if f := store.filters[0]; f.City != "Owerri" || f.Category != domain.CategoryStreet {
		t.Errorf("filter = %+v", f)
	}
	if _, err := svc.List(context.Background(), "", "planet"); err == nil {
		t.Error("expected error for unknown category")
	}
}

type sliceSource struct {
	items []source.AreaItem
	err   error
}

func (s *sliceSource) GetSourceID() string { return "test" }

func (s *sliceSource) FetchBatch(_ context.Context, cursor string, limit int) ([]source.AreaItem, string, error) {
	if s.err != nil {
		return nil, "", s.err
	}
	start := 0
	if cursor != "" {
		start, _ = strconv.Atoi(cursor)
	}
	end := start + limit
	if end >= len(s.items) {
		return s.items[start:], "", nil
	}
	return s.items[start:end], strconv.Itoa(end), nil
}

func TestImport(t *testing.T) {
	store := &memLocations{}
	src := &sliceSource{items: []source.AreaItem{
		{SourceID: "1", City: "Owerri", Category: "market", Areas: []string{"Relief Market"}},
		{SourceID: "2", City: "Owerri", Category: "planet", Areas: []string{"Mars"}},
		{SourceID: "3", City: "Owerri", Category: "market", Areas: []string{"Eke Ukwu"}},
		{SourceID: "4", City: "Lagos", Category: "area", Areas: []string{"Yaba"}},
	}}

	stats, err := NewLocationService(store).Import(context.Background(), src, 3)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if stats.TotalItems != 4 || stats.ProcessedItems != 3 || stats.SkippedItems != 1 || stats.FailedItems != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if rec := store.rows["Owerri/market"]; rec == nil || len(rec.Name) != 2 {
		t.Errorf("Owerri markets = %+v", rec)
	}

	if _, err := NewLocationService(store).Import(context.Background(), &sliceSource{err: errors.New("disk gone")}, 0); err == nil {
		t.Error("expected fetch error")
	}
}
