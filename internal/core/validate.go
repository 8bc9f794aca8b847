package core

import (
	"fmt"
	"regexp"
	"strings"
)

// Minimum objective length before a quality warning is raised.
const minObjectiveLength = 20

// Stage 1, prompt 1 vocabulary groups. Each group needs at least one hit.
var foundationVocabulary = []struct {
	name  string
	terms []string
}{
	{name: "brand identity", terms: []string{"brand", "identity", "design language", "style guide"}},
	{name: "software purpose", terms: []string{"purpose", "goal", "objective", "aims to"}},
	{name: "core features overview", terms: []string{"core features", "key features", "main functionality"}},
}

var (
	actionVerbs = regexp.MustCompile(`(?i)\b(create|implement|develop|build|design|configure|set up|integrate|add|modify|update|optimize|ensure|validate|test)\b`)
	listMarker  = regexp.MustCompile(`(?m)^\s*(?:[•\-*]|\d+[.)])\s+`)
	featureWord = regexp.MustCompile(`(?i)\b(features?|components?|functionality|functionalities)\b`)
	fieldLabel  = regexp.MustCompile(`(?im)^([ \t#*_>]*)(?:objective|prompt|outcome):`)
)

// Maximum feature mentions allowed in a single-feature stage 1 prompt.
const maxFeatureMentions = 2

// ValidateOutput checks generated text against the prompt grammar. stage is
// the stage order (1..5); expected is the required prompt count, or 0 to
// skip the count check.
//
// A count mismatch is fatal and stops validation before any per-segment
// checks. Warnings never affect IsValid.
func ValidateOutput(text string, stage int, expected int) ValidationResult {
	_, segments := SplitSegments(text)
	result := ValidationResult{PromptCount: len(segments)}

	if len(segments) == 0 {
		result.Errors = append(result.Errors, "no valid prompt sections found")
		return result
	}

	if expected > 0 && len(segments) != expected {
		result.Errors = append(result.Errors,
			fmt.Sprintf("prompt count mismatch: expected %d but found %d", expected, len(segments)))
		return result
	}

	for i, seg := range segments {
		ordinal := i + 1
		for _, label := range []string{labelObjective, labelPrompt, labelOutcome} {
			if !strings.Contains(seg.Body, label) {
				result.Errors = append(result.Errors,
					fmt.Sprintf("prompt %d: missing %q label", ordinal, label))
			}
		}

		if stage == 1 && ordinal == 1 {
			// Label words do not count towards the vocabulary.
			lower := strings.ToLower(fieldLabel.ReplaceAllString(seg.Body, "$1"))
			for _, group := range foundationVocabulary {
				if !containsAny(lower, group.terms) {
					result.Errors = append(result.Errors,
						fmt.Sprintf("prompt 1: must establish %s", group.name))
				}
			}
		}

		result.Warnings = append(result.Warnings, qualityWarnings(seg, ordinal, stage)...)
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

func qualityWarnings(seg Segment, ordinal, stage int) []string {
	var warnings []string
	p := parseSegment(seg.Body)

	if len(p.Objective) < minObjectiveLength {
		warnings = append(warnings,
			fmt.Sprintf("prompt %d: objective is shorter than %d characters", ordinal, minObjectiveLength))
	}
	if !listMarker.MatchString(p.Body) {
		warnings = append(warnings,
			fmt.Sprintf("prompt %d: prompt body has no list markers", ordinal))
	}
	if !actionVerbs.MatchString(p.Body) {
		warnings = append(warnings,
			fmt.Sprintf("prompt %d: prompt body has no action verb", ordinal))
	}
	if stage == 1 && ordinal > 1 {
		if n := len(featureWord.FindAllString(seg.Body, -1)); n > maxFeatureMentions {
			warnings = append(warnings,
				fmt.Sprintf("prompt %d: mentions %d features/components, should focus on one", ordinal, n))
		}
	}
	return warnings
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
