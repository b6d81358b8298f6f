package domain

// Competitor types.
const (
	CompetitorTypeSuggestion   = "search-suggestion"
	CompetitorTypeNeighborhood = "neighborhood"
	CompetitorTypeGeneric      = "generic"
)

// Competitor is a nearby business or a synthesized stand-in for one.
// Street and Suburb serialize as null when absent.
type Competitor struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"`
	Street *string `json:"street"`
	Suburb *string `json:"suburb"`
}

// CompetitorTier names the discovery stage that produced a CompetitorSet.
type CompetitorTier string

const (
	TierMap      CompetitorTier = "map"
	TierFallback CompetitorTier = "fallback"
	TierGeneric  CompetitorTier = "generic"
)

// CompetitorSet is the result of competitor discovery. Competitors is never
// empty and holds no duplicate names.
type CompetitorSet struct {
	Competitors   []Competitor   `json:"competitors"`
	Neighborhoods []string       `json:"neighborhoods"`
	Tier          CompetitorTier `json:"tier"`
}

// Names returns the competitor names in order.
func (s *CompetitorSet) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Competitors))
	for i, c := range s.Competitors {
		names[i] = c.Name
	}
	return names
}

// AutosuggestSeed pairs a seed term with one suggestion returned for it.
type AutosuggestSeed struct {
	Seed       string `json:"seed"`
	Suggestion string `json:"suggestion"`
}

// StrPtr returns a pointer to s.
func StrPtr(s string) *string {
	return &s
}
