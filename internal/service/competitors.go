package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// MapQuerier runs Overpass QL queries.
type MapQuerier interface {
	Query(ctx context.Context, query string) ([]OverpassElement, error)
}

// Suggester returns autosuggest phrases for one query.
type Suggester interface {
	Suggest(ctx context.Context, query string) ([]string, error)
}

// CompetitorFinderConfig holds configuration for competitor discovery.
type CompetitorFinderConfig struct {
	RadiusMeters   int
	MaxSuggestions int
	// Neighborhoods defaults to CityNeighborhoods when nil.
	Neighborhoods NeighborhoodTable
}

// CompetitorFinder discovers competitors in three tiers: OSM shops, then
// autosuggest phrases plus neighbourhood stand-ins, then a generic placeholder.
type CompetitorFinder struct {
	maps     MapQuerier
	suggest  Suggester
	radius   int
	maxSugg  int
	fallback NeighborhoodTable
	metrics  *telemetry.Metrics
}

// NewCompetitorFinder creates a competitor finder.
func NewCompetitorFinder(maps MapQuerier, suggest Suggester, cfg *CompetitorFinderConfig, metrics *telemetry.Metrics) *CompetitorFinder {
	f := &CompetitorFinder{
		maps:     maps,
		suggest:  suggest,
		radius:   20000,
		maxSugg:  8,
		fallback: CityNeighborhoods,
		metrics:  metrics,
	}
	if cfg != nil {
		if cfg.RadiusMeters > 0 {
			f.radius = cfg.RadiusMeters
		}
		if cfg.MaxSuggestions > 0 {
			f.maxSugg = cfg.MaxSuggestions
		}
		if cfg.Neighborhoods != nil {
			f.fallback = cfg.Neighborhoods
		}
	}
	return f
}

// Find never fails: upstream errors count as "no data" for their tier and the
// result always holds at least one competitor.
func (f *CompetitorFinder) Find(ctx context.Context, city, niche string, lat, lon float64) *domain.CompetitorSet {
	ctx = logger.WithFields(ctx, logger.Fields{logger.FieldCity: city, logger.FieldComponent: "competitors"})
	ctx, span := telemetry.StartSpan(ctx, "competitors.find")
	defer span.End()

	if shops := f.mapShops(ctx, lat, lon); len(shops) > 0 {
		return f.done(ctx, &domain.CompetitorSet{
			Competitors:   shops,
			Neighborhoods: []string{},
			Tier:          domain.TierMap,
		})
	}

	var (
		suggestions   []domain.Competitor
		neighborhoods []string
		g             errgroup.Group
	)
	g.Go(func() error {
		suggestions = f.suggestionCompetitors(ctx, city, niche)
		return nil
	})
	g.Go(func() error {
		neighborhoods = f.neighborhoods(ctx, city, lat, lon)
		return nil
	})
	_ = g.Wait()

	merged := make([]domain.Competitor, 0, len(suggestions)+len(neighborhoods))
	merged = append(merged, suggestions...)
	for _, n := range neighborhoods {
		merged = append(merged, domain.Competitor{
			Name:   fmt.Sprintf("%s shop in %s", niche, n),
			Type:   domain.CompetitorTypeNeighborhood,
			Suburb: domain.StrPtr(n),
		})
	}

	if unique := dedupeCompetitors(merged); len(unique) > 0 {
		return f.done(ctx, &domain.CompetitorSet{
			Competitors:   unique,
			Neighborhoods: neighborhoods,
			Tier:          domain.TierFallback,
		})
	}

	return f.done(ctx, &domain.CompetitorSet{
		Competitors: []domain.Competitor{{
			Name:   fmt.Sprintf("%s shops in %s", niche, city),
			Type:   domain.CompetitorTypeGeneric,
			Suburb: domain.StrPtr(city),
		}},
		Neighborhoods: []string{},
		Tier:          domain.TierGeneric,
	})
}

func (f *CompetitorFinder) done(ctx context.Context, set *domain.CompetitorSet) *domain.CompetitorSet {
	f.metrics.ObserveCompetitorTier(string(set.Tier))
	logger.With(logger.Fields{logger.FieldTier: string(set.Tier)}).
		WithCount(len(set.Competitors)).
		Info(ctx, "Competitor discovery finished")
	return set
}

func (f *CompetitorFinder) mapShops(ctx context.Context, lat, lon float64) []domain.Competitor {
	elements, err := f.maps.Query(ctx, ShopQuery(lat, lon, f.radius))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Shop query failed")
		return nil
	}

	shops := make([]domain.Competitor, 0, len(elements))
	for _, el := range elements {
		name := strings.TrimSpace(el.Tags["name"])
		if name == "" {
			continue
		}
		shopType := el.Tags["shop"]
		if shopType == "" {
			shopType = "unknown"
		}
		shops = append(shops, domain.Competitor{
			Name:   name,
			Type:   shopType,
			Street: optionalTag(el.Tags, "addr:street"),
			Suburb: optionalTag(el.Tags, "addr:suburb"),
		})
	}
	return dedupeCompetitors(shops)
}

func (f *CompetitorFinder) suggestionCompetitors(ctx context.Context, city, niche string) []domain.Competitor {
	phrases, err := f.suggest.Suggest(ctx, niche+" "+city)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Competitor autosuggest failed")
		return nil
	}
	if len(phrases) > f.maxSugg {
		phrases = phrases[:f.maxSugg]
	}

	out := make([]domain.Competitor, 0, len(phrases))
	for _, p := range phrases {
		out = append(out, domain.Competitor{
			Name:   p,
			Type:   domain.CompetitorTypeSuggestion,
			Suburb: domain.StrPtr(city),
		})
	}
	return out
}

// neighborhoods returns OSM place names followed by the static table entries,
// without duplicates.
func (f *CompetitorFinder) neighborhoods(ctx context.Context, city string, lat, lon float64) []string {
	var names []string
	elements, err := f.maps.Query(ctx, PlaceQuery(lat, lon, f.radius))
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("Place query failed")
	}
	for _, el := range elements {
		if n := strings.TrimSpace(el.Tags["name"]); n != "" {
			names = append(names, n)
		}
	}
	names = append(names, f.fallback.Lookup(city)...)

	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

func dedupeCompetitors(in []domain.Competitor) []domain.Competitor {
	seen := make(map[string]struct{}, len(in))
	out := make([]domain.Competitor, 0, len(in))
	for _, c := range in {
		if _, ok := seen[c.Name]; ok {
			continue
		}
		seen[c.Name] = struct{}{}
		out = append(out, c)
	}
	return out
}

func optionalTag(tags map[string]string, key string) *string {
	if v, ok := tags[key]; ok && v != "" {
		return domain.StrPtr(v)
	}
	return nil
}
