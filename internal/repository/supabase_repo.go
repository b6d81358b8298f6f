package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/supabase-community/postgrest-go"
	"github.com/supabase-community/supabase-go"
	"github.com/timmy/vendorseo/internal/domain"
)

const (
	tableKeywords  = "vendor_seo_keywords"
	tableSEOLogs   = "seo_logs"
	tableLocations = "locations"
)

// SupabaseStore implements every store over Supabase PostgREST. PostgREST
// calls carry no context, so ctx is accepted only to satisfy the interfaces.
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore connects with the service role key.
func NewSupabaseStore(url, serviceKey string) (*SupabaseStore, error) {
	client, err := supabase.NewClient(url, serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return &SupabaseStore{client: client}, nil
}

func (s *SupabaseStore) Upsert(ctx context.Context, rec *domain.VendorSEOKeywords) error {
	rec.UpdatedAt = time.Now().UTC()
	row := map[string]interface{}{
		"vendor_id":      rec.VendorID,
		"business_type":  rec.BusinessType,
		"business_model": rec.BusinessModel,
		"niche":          rec.Niche,
		"location":       rec.Location,
		"nearest_areas":  nonNil(rec.NearestAreas),
		"target_gender":  rec.TargetGender,
		"price_tier":     rec.PriceTier,
		"style_tags":     nonNil(rec.StyleTags),
		"keywords":       nonNil(rec.Keywords),
		"updated_at":     rec.UpdatedAt,
	}
	_, _, err := s.client.From(tableKeywords).
		Upsert(row, "vendor_id", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert %s: %w", tableKeywords, err)
	}
	return nil
}

func (s *SupabaseStore) GetByVendorID(ctx context.Context, vendorID string) (*domain.VendorSEOKeywords, error) {
	var rows []keywordRow
	_, err := s.client.From(tableKeywords).
		Select("*", "", false).
		Eq("vendor_id", vendorID).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", tableKeywords, err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	rec := rows[0].toDomain()
	return &rec, nil
}

func (s *SupabaseStore) Append(ctx context.Context, entry *domain.SEOLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, _, err := s.client.From(tableSEOLogs).
		Insert(entry, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("insert %s: %w", tableSEOLogs, err)
	}
	return nil
}

func (s *SupabaseStore) ListByEntity(ctx context.Context, entity, entityID string, limit int) ([]domain.SEOLogEntry, error) {
	q := s.client.From(tableSEOLogs).
		Select("*", "", false).
		Eq("entity", entity).
		Eq("entity_id", entityID).
		Order("created_at", &postgrest.OrderOpts{Ascending: false})
	if limit > 0 {
		q = q.Limit(limit, "")
	}

	var rows []logRow
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", tableSEOLogs, err)
	}
	entries := make([]domain.SEOLogEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, r.toDomain())
	}
	return entries, nil
}

// MergeAreas does a read-then-write without a transaction; the unique
// (city, category) index rejects a concurrent duplicate insert.
func (s *SupabaseStore) MergeAreas(ctx context.Context, city string, category domain.LocationCategory, areas []string) (*domain.LocationRecord, error) {
	var rows []locationRow
	_, err := s.client.From(tableLocations).
		Select("*", "", false).
		Eq("city", city).
		Eq("category", string(category)).
		Limit(1, "").
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", tableLocations, err)
	}

	now := time.Now().UTC()
	if len(rows) == 0 {
		rec := domain.LocationRecord{
			ID:        uuid.New().String(),
			City:      city,
			Category:  category,
			Name:      domain.StringArray(domain.MergeAreas(nil, areas)),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if _, _, err := s.client.From(tableLocations).Insert(rec, false, "", "minimal", "").Execute(); err != nil {
			return nil, fmt.Errorf("insert %s: %w", tableLocations, err)
		}
		return &rec, nil
	}

	rec := rows[0].toDomain()
	rec.Name = domain.StringArray(domain.MergeAreas(rec.Name, areas))
	rec.UpdatedAt = now
	_, _, err = s.client.From(tableLocations).
		Update(map[string]interface{}{"name": rec.Name, "updated_at": now}, "minimal", "").
		Eq("id", rec.ID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", tableLocations, err)
	}
	return &rec, nil
}

func (s *SupabaseStore) List(ctx context.Context, filter LocationFilter) ([]domain.LocationRecord, error) {
	q := s.client.From(tableLocations).Select("*", "", false)
	if filter.City != "" {
		q = cityFilter(q, filter.City)
	}
	if filter.Category != "" {
		q = q.Eq("category", string(filter.Category))
	}
	q = q.Order("city", &postgrest.OrderOpts{Ascending: true}).
		Order("category", &postgrest.OrderOpts{Ascending: true})

	var rows []locationRow
	if _, err := q.ExecuteTo(&rows); err != nil {
		return nil, fmt.Errorf("select %s: %w", tableLocations, err)
	}
	records := make([]domain.LocationRecord, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.toDomain())
	}
	return records, nil
}

// cityFilter matches city exactly, ignoring case. ILIKE wildcards in the
// name are escaped. PostgREST rewrites * to %, so a name containing * falls
// back to a case-sensitive eq.
func cityFilter(q *postgrest.FilterBuilder, city string) *postgrest.FilterBuilder {
	if strings.Contains(city, "*") {
		return q.Eq("city", city)
	}
	return q.Ilike("city", likeEscaper.Replace(city))
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func nonNil(a domain.StringArray) []string {
	if a == nil {
		return []string{}
	}
	return a
}

// Ping reports whether PostgREST answers for the keywords table.
func (s *SupabaseStore) Ping(ctx context.Context) error {
	_, _, err := s.client.From(tableKeywords).Select("vendor_id", "", false).Limit(1, "").Execute()
	if err != nil {
		return fmt.Errorf("supabase ping: %w", err)
	}
	return nil
}

// pgTime decodes timestamp and timestamptz columns. Values without a zone
// are read as UTC.
type pgTime struct{ time.Time }

var pgTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z07",
	"2006-01-02T15:04:05Z07",
	"2006-01-02 15:04:05",
}

func (t *pgTime) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	for _, layout := range pgTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", raw)
}

type keywordRow struct {
	VendorID      string             `json:"vendor_id"`
	BusinessType  string             `json:"business_type"`
	BusinessModel string             `json:"business_model"`
	Niche         string             `json:"niche"`
	Location      string             `json:"location"`
	NearestAreas  domain.StringArray `json:"nearest_areas"`
	TargetGender  string             `json:"target_gender"`
	PriceTier     string             `json:"price_tier"`
	StyleTags     domain.StringArray `json:"style_tags"`
	Keywords      domain.StringArray `json:"keywords"`
	CreatedAt     pgTime             `json:"created_at"`
	UpdatedAt     pgTime             `json:"updated_at"`
}

func (r keywordRow) toDomain() domain.VendorSEOKeywords {
	return domain.VendorSEOKeywords{
		VendorID:      r.VendorID,
		BusinessType:  r.BusinessType,
		BusinessModel: r.BusinessModel,
		Niche:         r.Niche,
		Location:      r.Location,
		NearestAreas:  r.NearestAreas,
		TargetGender:  r.TargetGender,
		PriceTier:     r.PriceTier,
		StyleTags:     r.StyleTags,
		Keywords:      r.Keywords,
		CreatedAt:     r.CreatedAt.Time,
		UpdatedAt:     r.UpdatedAt.Time,
	}
}

type logRow struct {
	ID        string         `json:"id"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entity_id"`
	Action    string         `json:"action"`
	Inputs    domain.JSONMap `json:"inputs"`
	Outputs   domain.JSONMap `json:"outputs"`
	CreatedAt pgTime         `json:"created_at"`
}

func (r logRow) toDomain() domain.SEOLogEntry {
	return domain.SEOLogEntry{
		ID:        r.ID,
		Entity:    r.Entity,
		EntityID:  r.EntityID,
		Action:    r.Action,
		Inputs:    r.Inputs,
		Outputs:   r.Outputs,
		CreatedAt: r.CreatedAt.Time,
	}
}

type locationRow struct {
	ID        string                  `json:"id"`
	City      string                  `json:"city"`
	Category  domain.LocationCategory `json:"category"`
	Name      domain.StringArray      `json:"name"`
	CreatedAt pgTime                  `json:"created_at"`
	UpdatedAt pgTime                  `json:"updated_at"`
}

func (r locationRow) toDomain() domain.LocationRecord {
	return domain.LocationRecord{
		ID:        r.ID,
		City:      r.City,
		Category:  r.Category,
		Name:      r.Name,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}
