package service

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParseMode records which strategy produced a keyword list.
type ParseMode string

const (
	ParseModeStrict   ParseMode = "strict"
	ParseModeFallback ParseMode = "fallback"
)

var (
	codeFence    = regexp.MustCompile("(?i)```json|```")
	fragmentSeps = regexp.MustCompile(`[,\n;]`)
)

// KeywordParse is the outcome of ParseKeywordList.
type KeywordParse struct {
	Keywords []string
	Mode     ParseMode
}

// ParseKeywordList turns model output into keywords. Code fences are removed
// first. A JSON array whose elements are all strings is taken as-is (trimmed);
// anything else is split on commas, newlines and semicolons, unquoted, and
// fragments of two runes or fewer are dropped.
func ParseKeywordList(raw string) KeywordParse {
	cleaned := strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))

	if kws, ok := strictKeywords(cleaned); ok {
		return KeywordParse{Keywords: kws, Mode: ParseModeStrict}
	}

	parts := fragmentSeps.Split(cleaned, -1)
	kws := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		p = strings.TrimSpace(strings.Trim(p, "\"“”"))
		if len([]rune(p)) <= 2 {
			continue
		}
		kws = append(kws, p)
	}
	return KeywordParse{Keywords: kws, Mode: ParseModeFallback}
}

func strictKeywords(s string) ([]string, bool) {
	var items []interface{}
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil, false
	}
	kws := make([]string, 0, len(items))
	for _, it := range items {
		str, ok := it.(string)
		if !ok {
			return nil, false
		}
		kws = append(kws, strings.TrimSpace(str))
	}
	return kws, true
}
