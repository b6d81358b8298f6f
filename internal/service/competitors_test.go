package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/timmy/vendorseo/internal/domain"
)

type fakeMaps struct {
	mu          sync.Mutex
	shops       []OverpassElement
	places      []OverpassElement
	err         error
	shopCalls   int
	placeCalls  int
	lastQueries []string
}

func (f *fakeMaps) Query(_ context.Context, q string) ([]OverpassElement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQueries = append(f.lastQueries, q)
	if strings.Contains(q, `["shop"~`) {
		f.shopCalls++
		return f.shops, f.err
	}
	f.placeCalls++
	return f.places, f.err
}

type fakeSuggester struct {
	mu      sync.Mutex
	phrases []string
	err     error
	calls   []string
}

func (f *fakeSuggester) Suggest(_ context.Context, q string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, q)
	return f.phrases, f.err
}

func named(name string, tags ...string) OverpassElement {
	t := map[string]string{"name": name}
	for i := 0; i+1 < len(tags); i += 2 {
		t[tags[i]] = tags[i+1]
	}
	return OverpassElement{Type: "node", Tags: t}
}

func noTable() *CompetitorFinderConfig {
	return &CompetitorFinderConfig{Neighborhoods: NeighborhoodTable{}}
}

func assertUniqueNames(t *testing.T, set *domain.CompetitorSet) {
	t.Helper()
	seen := map[string]bool{}
	for _, c := range set.Competitors {
		if seen[c.Name] {
			t.Errorf("duplicate competitor %q", c.Name)
		}
		seen[c.Name] = true
	}
}

func TestFindMapTierShortCircuits(t *testing.T) {
	maps := &fakeMaps{shops: []OverpassElement{
		named("Ada Couture", "shop", "boutique", "addr:street", "Wetheral Road"),
		named(""),
		named("Ada Couture", "shop", "clothes"),
		named("Stitch House"),
	}}
	sugg := &fakeSuggester{phrases: []string{"should not be used"}}

	set := NewCompetitorFinder(maps, sugg, noTable(), nil).Find(context.Background(), "Owerri", "fashion", 5.48, 7.03)

	if set.Tier != domain.TierMap {
		t.Fatalf("Tier = %q, want map", set.Tier)
	}
	if len(set.Competitors) != 2 {
		t.Fatalf("competitors = %+v, want 2", set.Competitors)
	}
	first := set.Competitors[0]
	if first.Type != "boutique" || first.Street == nil || *first.Street != "Wetheral Road" || first.Suburb != nil {
		t.Errorf("first competitor = %+v", first)
	}
	if set.Competitors[1].Type != "unknown" {
		t.Errorf("missing shop tag type = %q, want unknown", set.Competitors[1].Type)
	}
	if maps.placeCalls != 0 || len(sugg.calls) != 0 {
		t.Errorf("later tiers invoked: placeCalls=%d suggestCalls=%d", maps.placeCalls, len(sugg.calls))
	}
	if len(set.Neighborhoods) != 0 {
		t.Errorf("Neighborhoods = %v, want empty", set.Neighborhoods)
	}
	assertUniqueNames(t, set)
}

func TestFindFallbackMergesSuggestionsAndNeighborhoods(t *testing.T) {
	maps := &fakeMaps{places: []OverpassElement{named("Ikenegbu"), named("Aladinma"), named("")}}
	sugg := &fakeSuggester{phrases: []string{
		"fashion owerri", "fashion shop in Ikenegbu", "fashion owerri",
		"s4", "s5", "s6", "s7", "s8", "s9",
	}}
	cfg := &CompetitorFinderConfig{Neighborhoods: NeighborhoodTable{"owerri": {"Aladinma", "Orji"}}}

	set := NewCompetitorFinder(maps, sugg, cfg, nil).Find(context.Background(), "Owerri", "fashion", 5.48, 7.03)

	if set.Tier != domain.TierFallback {
		t.Fatalf("Tier = %q, want fallback", set.Tier)
	}
	wantHoods := []string{"Ikenegbu", "Aladinma", "Orji"}
	if strings.Join(set.Neighborhoods, "|") != strings.Join(wantHoods, "|") {
		t.Errorf("Neighborhoods = %v, want %v", set.Neighborhoods, wantHoods)
	}
	if len(sugg.calls) != 1 || sugg.calls[0] != "fashion Owerri" {
		t.Errorf("suggest calls = %v", sugg.calls)
	}

	// Eight suggestions kept, two of them duplicates; then three neighbourhood
	// stand-ins, one of which duplicates a suggestion.
	names := set.Names()
	want := []string{
		"fashion owerri", "fashion shop in Ikenegbu", "s4", "s5", "s6", "s7", "s8",
		"fashion shop in Aladinma", "fashion shop in Orji",
	}
	if strings.Join(names, "|") != strings.Join(want, "|") {
		t.Errorf("names = %v, want %v", names, want)
	}
	if set.Competitors[0].Type != domain.CompetitorTypeSuggestion || *set.Competitors[0].Suburb != "Owerri" {
		t.Errorf("suggestion competitor = %+v", set.Competitors[0])
	}
	last := set.Competitors[len(set.Competitors)-1]
	if last.Type != domain.CompetitorTypeNeighborhood || *last.Suburb != "Orji" {
		t.Errorf("neighbourhood competitor = %+v", last)
	}
	assertUniqueNames(t, set)
}

func TestFindGenericPlaceholder(t *testing.T) {
	maps := &fakeMaps{}
	sugg := &fakeSuggester{}

	set := NewCompetitorFinder(maps, sugg, noTable(), nil).Find(context.Background(), "Owerri", "bridal gowns", 5.48, 7.03)

	if set.Tier != domain.TierGeneric {
		t.Fatalf("Tier = %q, want generic", set.Tier)
	}
	if len(set.Competitors) != 1 {
		t.Fatalf("competitors = %+v, want 1", set.Competitors)
	}
	c := set.Competitors[0]
	if c.Name != "bridal gowns shops in Owerri" || c.Type != domain.CompetitorTypeGeneric {
		t.Errorf("placeholder = %+v", c)
	}
	if c.Street != nil || c.Suburb == nil || *c.Suburb != "Owerri" {
		t.Errorf("placeholder address = %+v", c)
	}
}

func TestFindAbsorbsUpstreamErrors(t *testing.T) {
	maps := &fakeMaps{err: errors.New("overpass down")}
	sugg := &fakeSuggester{err: errors.New("autosuggest down")}
	cfg := &CompetitorFinderConfig{Neighborhoods: NeighborhoodTable{"Owerri": {"Orji"}}}

	set := NewCompetitorFinder(maps, sugg, cfg, nil).Find(context.Background(), "Owerri", "fashion", 5.48, 7.03)

	if set.Tier != domain.TierFallback {
		t.Fatalf("Tier = %q, want fallback", set.Tier)
	}
	if names := set.Names(); len(names) != 1 || names[0] != "fashion shop in Orji" {
		t.Errorf("names = %v", names)
	}
}

func TestNeighborhoodTableLookup(t *testing.T) {
	if got := CityNeighborhoods.Lookup("  OWERRI "); len(got) == 0 {
		t.Error("expected case-insensitive match for Owerri")
	}
	if got := CityNeighborhoods.Lookup("Atlantis"); got != nil {
		t.Errorf("Lookup(Atlantis) = %v, want nil", got)
	}
}

func TestShopQuery(t *testing.T) {
	q := ShopQuery(5.4836, 7.0333, 20000)
	for _, want := range []string{
		"[out:json][timeout:25];",
		`node["shop"~"clothes|boutique|jewelry|fashion|tailor|shoes"](around:20000,5.4836,7.0333);`,
		`relation["shop"~`,
		"out center;",
	} {
		if !strings.Contains(q, want) {
			t.Errorf("query missing %q:\n%s", want, q)
		}
	}
	if !strings.Contains(PlaceQuery(1, 2, 500), `way["place"~"suburb|quarter|neighbourhood|market"](around:500,1,2);`) {
		t.Errorf("unexpected place query: %s", PlaceQuery(1, 2, 500))
	}
}
