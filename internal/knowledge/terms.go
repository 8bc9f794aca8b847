package knowledge

import (
	"regexp"
	"strings"
	"unicode"
)

// RelevanceThreshold is the minimum overlap score for a source to apply.
const RelevanceThreshold = 0.3

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "are": true, "but": true, "not": true,
	"you": true, "all": true, "any": true, "can": true, "had": true, "her": true,
	"was": true, "one": true, "our": true, "out": true, "has": true, "have": true,
	"with": true, "this": true, "that": true, "from": true, "they": true, "will": true,
	"would": true, "there": true, "their": true, "what": true, "when": true, "which": true,
	"into": true, "than": true, "then": true, "them": true, "these": true, "those": true,
	"each": true, "should": true, "must": true, "been": true, "also": true, "only": true,
	"its": true, "use": true, "using": true, "your": true, "more": true, "such": true,
}

// terms returns the distinct key terms of text: lower-cased tokens longer
// than two characters that are not stop words.
func terms(text string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isSeparator) {
		if len(tok) <= 2 || stopWords[tok] {
			continue
		}
		out[tok] = true
	}
	return out
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-'
}

// Relevance is the share of the source's key terms that also appear in the
// draft. A source without key terms scores 0.
func Relevance(source, draft string) float64 {
	src := terms(source)
	if len(src) == 0 {
		return 0
	}
	dst := terms(draft)
	shared := 0
	for t := range src {
		if dst[t] {
			shared++
		}
	}
	return float64(shared) / float64(len(src))
}

var sentenceEnd = regexp.MustCompile(`[^.!?\n]+[.!?]?`)

// sentences splits text into trimmed, non-empty sentences.
func sentences(text string) []string {
	var out []string
	for _, s := range sentenceEnd.FindAllString(text, -1) {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// sharesTerm reports whether any key term of a appears in set.
func sharesTerm(a string, set map[string]bool) bool {
	for t := range terms(a) {
		if set[t] {
			return true
		}
	}
	return false
}
