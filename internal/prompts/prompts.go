package prompts

import (
	"fmt"
	"strings"
	"time"
)

// ============================================================================
// Sentinels
// ============================================================================

const (
	// NoneSentinel stands in for an empty list in the prompt.
	NoneSentinel = "none"
	// AllSentinel stands in for an unset audience attribute.
	AllSentinel = "all"
	// NoKeywordSentinel is what the model is told to return when it has nothing.
	NoKeywordSentinel = "I can't find any keyword"
	// MaxKeywords caps the list the model is asked for.
	MaxKeywords = 30
)

// ============================================================================
// SEO Keyword Prompts
// ============================================================================

// SEOSystemPrompt sets the model's role for keyword research.
const SEOSystemPrompt = `You are an experienced SEO strategist and keyword researcher.
Your task is to generate high-ranking, long-tail SEO keywords with strong buyer intent.
The output must always be a valid JSON array of strings.`

// SEOPromptInput is everything the user prompt embeds.
type SEOPromptInput struct {
	BusinessType  string
	BusinessModel string
	Niche         string
	Location      string
	NearestAreas  []string
	Competitors   []string
	Autosuggest   []string
	TargetGender  string
	PriceTier     string
	StyleTags     []string
	Now           time.Time
}

// BuildSEOUserPrompt renders the keyword request. The output is deterministic
// for a given input, including Now.
func BuildSEOUserPrompt(in SEOPromptInput) string {
	var b strings.Builder

	b.WriteString("Context:\n")
	fmt.Fprintf(&b, "- Business type: %s\n", in.BusinessType)
	fmt.Fprintf(&b, "- Business model: %s\n", in.BusinessModel)
	fmt.Fprintf(&b, "- Niche: %s\n", in.Niche)
	fmt.Fprintf(&b, "- Location: %s\n", in.Location)
	fmt.Fprintf(&b, "- Nearest areas: %s\n", joinOr(in.NearestAreas, NoneSentinel))
	fmt.Fprintf(&b, "- Competitors: %s\n", joinOr(in.Competitors, NoneSentinel))
	fmt.Fprintf(&b, "- Autosuggest hints: %s\n", joinOr(in.Autosuggest, NoneSentinel))
	fmt.Fprintf(&b, "- Target audience (gender): %s\n", valueOr(in.TargetGender, AllSentinel))
	fmt.Fprintf(&b, "- Price tier: %s\n", valueOr(in.PriceTier, AllSentinel))
	fmt.Fprintf(&b, "- Style tags: %s\n", joinOr(in.StyleTags, NoneSentinel))
	fmt.Fprintf(&b, "- Timeframe: %s\n", Timeframe(in.Now))

	b.WriteString("\nTask:\n")
	fmt.Fprintf(&b, "Generate up to %d SEO keywords that:\n", MaxKeywords)
	b.WriteString(`- Reflect real search behavior from users
- Show buyer intent (e.g., "buy", "order online", "affordable", "best")
- Are location-specific (include neighborhoods, suburbs, or city areas)
- Are fresh and relevant to the timeframe
- Exclude brand names unless provided in input
- Output ONLY as JSON array of strings

Example (generic across niches):
["best catering services in Lagos",
 "affordable bridal gowns Port Harcourt",
 "top luxury apartments Owerri",
 "buy organic groceries online Abuja",
 "children birthday costume rentals Ikeja"]
`)
	fmt.Fprintf(&b, "\nIf no keywords are available, return [%q].\n", NoKeywordSentinel)

	return b.String()
}

// Timeframe renders the rolling three-month window ending at now, e.g.
// "December 2024 to March 2025 (last 3 months)".
func Timeframe(now time.Time) string {
	start := time.Date(now.Year(), now.Month()-3, 1, 0, 0, 0, 0, now.Location())
	return fmt.Sprintf("%s to %s %d (last 3 months)", start.Format("January 2006"), now.Format("January"), now.Year())
}

func joinOr(items []string, sentinel string) string {
	if len(items) == 0 {
		return sentinel
	}
	return strings.Join(items, ", ")
}

func valueOr(s, sentinel string) string {
	if strings.TrimSpace(s) == "" {
		return sentinel
	}
	return s
}
