package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dhabedank/stageprompt/internal/core"
)

// Limits on what a single source may contribute.
const (
	maxContextSentences = 3
	maxExamplePatterns  = 5
)

// Impact thresholds on the relative length change of the content.
const (
	highImpactDelta   = 0.20
	mediumImpactDelta = 0.10
)

// Kinds recorded in AppliedTransform.Kind.
const (
	KindKnowledge = "knowledge"
	KindRule      = "rule"
)

// Engine applies user-supplied knowledge sources and configuration rules to
// generation requests and accepted output. The zero value and an engine
// without sources and rules pass content through unchanged.
type Engine struct {
	sources []core.KnowledgeSource // Descending priority
	rules   []Rule                 // Descending priority
	logger  *zap.Logger
}

// NewEngine compiles rules and orders sources and rules by priority.
func NewEngine(sources []core.KnowledgeSource, rules []core.ConfigurationRule, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	compiled, err := CompileRules(rules)
	if err != nil {
		return nil, err
	}

	ordered := append([]core.KnowledgeSource(nil), sources...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority > ordered[j].Priority
	})

	return &Engine{sources: ordered, rules: compiled, logger: logger}, nil
}

// Empty reports whether the engine has nothing to apply.
func (e *Engine) Empty() bool {
	return e == nil || (len(e.sources) == 0 && len(e.rules) == 0)
}

// HintsFor renders the sources relevant to a document section as context
// hints for the generation request.
func (e *Engine) HintsFor(section string) []string {
	if e.Empty() {
		return nil
	}
	sectionTerms := terms(section)

	var hints []string
	for _, src := range e.sources {
		if Relevance(src.Content, section) <= RelevanceThreshold {
			continue
		}
		var picked []string
		for _, s := range sentences(src.Content) {
			if sharesTerm(s, sectionTerms) {
				picked = append(picked, s)
			}
			if len(picked) == maxContextSentences {
				break
			}
		}
		if len(picked) == 0 {
			continue
		}
		hints = append(hints, fmt.Sprintf("%s %s: %s", src.Type, src.ID, strings.Join(picked, " ")))
	}
	return hints
}

// Apply runs relevant knowledge sources and then every rule over content,
// both in descending priority order, and records each change.
func (e *Engine) Apply(content string) (string, []core.AppliedTransform) {
	if e.Empty() {
		return content, nil
	}

	out := content
	var applied []core.AppliedTransform

	for _, src := range e.sources {
		rel := Relevance(src.Content, content)
		if rel <= RelevanceThreshold {
			continue
		}

		before := out
		switch src.Type {
		case core.KnowledgeDocument:
			out = enrichSegments(out, src.Content)
		case core.KnowledgeRule:
			out = annotateTerms(out, src.Content)
		case core.KnowledgeExample:
			out = substitutePatterns(out, src.Content)
		default:
			e.logger.Warn("unknown knowledge type", zap.String("source", src.ID), zap.String("type", string(src.Type)))
			continue
		}
		if out == before {
			continue
		}
		applied = append(applied, core.AppliedTransform{
			ID:        src.ID,
			Kind:      KindKnowledge,
			Type:      string(src.Type),
			Impact:    ImpactOf(before, out),
			Relevance: rel,
		})
	}

	for _, r := range e.rules {
		before := out
		next, fired := r.apply(out)
		if !fired {
			continue
		}
		out = next
		cfg := r.Config()
		applied = append(applied, core.AppliedTransform{
			ID:     cfg.ID,
			Kind:   KindRule,
			Type:   string(cfg.Type),
			Impact: ImpactOf(before, out),
		})
	}

	if len(applied) > 0 {
		e.logger.Debug("knowledge applied", zap.Int("transforms", len(applied)))
	}
	return out, applied
}

// ImpactOf grades a change by its length delta relative to the original.
func ImpactOf(before, after string) core.Impact {
	if len(before) == 0 {
		if after == before {
			return core.ImpactLow
		}
		return core.ImpactHigh
	}
	delta := len(after) - len(before)
	if delta < 0 {
		delta = -delta
	}
	ratio := float64(delta) / float64(len(before))
	switch {
	case ratio > highImpactDelta:
		return core.ImpactHigh
	case ratio > mediumImpactDelta:
		return core.ImpactMedium
	default:
		return core.ImpactLow
	}
}

var outcomeLine = regexp.MustCompile(`(?m)^[ \t#*_>]*Outcome:`)

// enrichSegments adds an "Additional Context" list to the prompt body of
// every segment, drawn from knowledge sentences sharing terms with it.
func enrichSegments(content, knowledge string) string {
	var candidates []string
	for _, s := range sentences(knowledge) {
		// Never introduce a new prompt delimiter.
		if _, segs := core.SplitSegments(s); len(segs) == 0 {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return content
	}

	preamble, segments := core.SplitSegments(content)
	if len(segments) == 0 {
		return content
	}

	for i, seg := range segments {
		segTerms := terms(seg.Body)
		for _, label := range []string{"objective", "prompt", "outcome"} {
			delete(segTerms, label)
		}
		var picked []string
		for _, s := range candidates {
			if sharesTerm(s, segTerms) {
				picked = append(picked, s)
			}
			if len(picked) == maxContextSentences {
				break
			}
		}
		if len(picked) == 0 {
			continue
		}

		appendix := "Additional Context:\n- " + strings.Join(picked, "\n- ") + "\n"
		body := seg.Body
		if loc := outcomeLine.FindStringIndex(body); loc != nil {
			body = body[:loc[0]] + appendix + body[loc[0]:]
		} else {
			trimmed := strings.TrimRight(body, "\n")
			body = trimmed + "\n" + appendix + strings.TrimPrefix(body[len(trimmed):], "\n")
		}
		segments[i].Body = body
	}
	return core.JoinSegments(preamble, segments)
}

// annotateTerms reads "term: note" lines and annotates the first occurrence
// of each term in content as "term (note)".
func annotateTerms(content, knowledge string) string {
	out := content
	for _, line := range strings.Split(knowledge, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•"))
		term, note, ok := strings.Cut(line, ":")
		term, note = strings.TrimSpace(term), strings.TrimSpace(note)
		if !ok || term == "" || note == "" {
			continue
		}

		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
		if err != nil {
			continue
		}
		loc := re.FindStringIndex(out)
		if loc == nil {
			continue
		}
		annotation := " (" + note + ")"
		if strings.HasPrefix(out[loc[1]:], annotation) {
			continue
		}
		out = out[:loc[1]] + annotation + out[loc[1]:]
	}
	return out
}

type bigram struct{ first, second string }

// examplePatterns extracts up to maxExamplePatterns bigrams of key terms from
// example text, one per leading word.
func examplePatterns(example string) []bigram {
	words := strings.FieldsFunc(example, isSeparator)
	seen := make(map[string]bool)
	var patterns []bigram
	for i := 0; i+1 < len(words) && len(patterns) < maxExamplePatterns; i++ {
		a, b := words[i], words[i+1]
		la, lb := strings.ToLower(a), strings.ToLower(b)
		if len(la) <= 2 || len(lb) <= 2 || stopWords[la] || stopWords[lb] || la == lb {
			continue
		}
		if seen[la] {
			continue
		}
		seen[la] = true
		patterns = append(patterns, bigram{first: a, second: b})
	}
	return patterns
}

// substitutePatterns completes the first bare occurrence of each pattern's
// leading word with the word that follows it in the example.
func substitutePatterns(content, example string) string {
	out := content
	for _, p := range examplePatterns(example) {
		re, err := regexp.Compile(`(?i)\b(` + regexp.QuoteMeta(p.first) + `)\b(\s+` + regexp.QuoteMeta(p.second) + `\b)?`)
		if err != nil {
			continue
		}
		for _, loc := range re.FindAllStringSubmatchIndex(out, -1) {
			if loc[4] != -1 {
				continue // Already followed by the second word.
			}
			out = out[:loc[3]] + " " + p.second + out[loc[3]:]
			break
		}
	}
	return out
}
