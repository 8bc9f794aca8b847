package core

import (
	"regexp"
	"sort"
	"strings"
)

// categoryKeywords is matched on word boundaries, case-insensitively.
var categoryKeywords = map[Category][]string{
	CategoryCore:           {"core", "essential", "basic", "fundamental", "primary"},
	CategoryInfrastructure: {"architecture", "system", "database", "server", "deployment"},
	CategoryUX:             {"interface", "user", "ui", "ux", "design", "experience"},
	CategoryIntegration:    {"api", "integration", "external", "third-party", "service"},
	CategoryOptimization:   {"performance", "optimize", "improve", "efficiency", "scale"},
}

var categoryPatterns = buildCategoryPatterns()

func buildCategoryPatterns() map[Category]*regexp.Regexp {
	patterns := make(map[Category]*regexp.Regexp, len(categoryKeywords))
	for cat, words := range categoryKeywords {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		patterns[cat] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return patterns
}

// CategorizePrompt scores one prompt against every category and returns the
// best match. Ties go to the higher-priority category; no hits at all means
// core.
func CategorizePrompt(p ParsedPrompt) Category {
	text := strings.Join([]string{p.Title, p.Objective, p.Body, p.Outcome}, "\n")

	best := CategoryCore
	bestScore := 0
	for _, cat := range Categories {
		score := len(categoryPatterns[cat].FindAllStringIndex(text, -1))
		if score > bestScore {
			best, bestScore = cat, score
		}
	}
	return best
}

// Categorize parses validated text and returns its prompts categorized and
// sorted by category priority, then by original ordinal.
func Categorize(text string) []CategorizedPrompt {
	return CategorizeParsed(ParsePrompts(text))
}

// CategorizeParsed categorizes already-parsed prompts.
func CategorizeParsed(prompts []ParsedPrompt) []CategorizedPrompt {
	out := make([]CategorizedPrompt, 0, len(prompts))
	for _, p := range prompts {
		out = append(out, CategorizedPrompt{ParsedPrompt: p, Category: CategorizePrompt(p)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Category.Priority(), out[j].Category.Priority()
		if pi != pj {
			return pi < pj
		}
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}
