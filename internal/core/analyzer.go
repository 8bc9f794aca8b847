package core

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Complexity thresholds on average words per sentence.
const (
	highComplexityWords   = 20.0
	mediumComplexityWords = 12.0
)

// Base prompt counts per complexity tier.
var basePromptCount = map[Complexity]int{
	ComplexityLow:    3,
	ComplexityMedium: 5,
	ComplexityHigh:   8,
}

var (
	sentenceSplit    = regexp.MustCompile(`[.!?]+`)
	labeledTopicLine = regexp.MustCompile(`^\s*([A-Z][A-Za-z0-9&/'()\- ]*?)\s*:`)
	bulletLine       = regexp.MustCompile(`^\s*[•\-*]\s+(.+?)\s*$`)
	dependencyPhrase = regexp.MustCompile(`(?i)\b(?:requires|depends on|prerequisite|after|before|following)\b[:\s]*([^.!?\n]*)`)
)

// AnalyzeContent derives complexity, key topics, dependencies and a suggested
// prompt count from a document section. maxPrompts caps the suggestion; a
// value <= 0 leaves it uncapped.
func AnalyzeContent(text string, maxPrompts int) ContentAnalysis {
	complexity := assessComplexity(text)
	topics := extractKeyTopics(text)

	suggested := basePromptCount[complexity]
	if byTopics := int(math.Ceil(float64(len(topics)) * 1.5)); byTopics > suggested {
		suggested = byTopics
	}
	if maxPrompts > 0 && suggested > maxPrompts {
		suggested = maxPrompts
	}

	return ContentAnalysis{
		KeyTopics:            topics,
		Complexity:           complexity,
		SuggestedPromptCount: suggested,
		Dependencies:         extractDependencies(text),
	}
}

func assessComplexity(text string) Complexity {
	sentences := 0
	words := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		n := len(strings.Fields(s))
		if n == 0 {
			continue
		}
		sentences++
		words += n
	}
	if sentences == 0 {
		return ComplexityLow
	}

	avg := float64(words) / float64(sentences)
	switch {
	case avg > highComplexityWords:
		return ComplexityHigh
	case avg > mediumComplexityWords:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

func extractKeyTopics(text string) []string {
	seen := make(map[string]bool)
	var topics []string
	add := func(t string) {
		t = strings.TrimSpace(strings.Trim(t, "*_`"))
		if t == "" || seen[t] {
			return
		}
		seen[t] = true
		topics = append(topics, t)
	}

	for _, line := range strings.Split(text, "\n") {
		if m := bulletLine.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := labeledTopicLine.FindStringSubmatch(line); m != nil {
			add(m[1])
		}
	}

	sort.Strings(topics)
	return topics
}

func extractDependencies(text string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, m := range dependencyPhrase.FindAllStringSubmatch(text, -1) {
		d := strings.TrimSpace(strings.TrimRight(m[1], ",;:"))
		if d == "" || seen[strings.ToLower(d)] {
			continue
		}
		seen[strings.ToLower(d)] = true
		deps = append(deps, d)
	}
	return deps
}
