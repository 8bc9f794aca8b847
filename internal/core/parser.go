package core

import (
	"regexp"
	"strings"
)

// promptDelimiter is the single delimiter of the output grammar. It only
// matches at the start of a line, after optional Markdown markers, so a
// "Prompt 2:" reference inside a body does not split. Brackets around the
// number are optional so "Prompt 1:" and "Prompt [1]:" both split.
var promptDelimiter = regexp.MustCompile(`(?im)^[ \t#*_>]*prompt[ \t]*\[?[ \t]*(\d+)[ \t]*\]?[ \t]*:`)

// Segment is the text of one prompt unit, located by its delimiter.
type Segment struct {
	Header string // The matched delimiter line prefix, e.g. "## Prompt 2:"
	Number string // Digits captured from the delimiter
	Body   string // Everything up to the next delimiter
}

// Text returns the header and body joined back together.
func (s Segment) Text() string {
	return s.Header + s.Body
}

// SplitSegments splits generated text on the prompt delimiter. The preamble
// before the first delimiter is returned separately and is not a segment.
// Joining preamble and each Segment.Text reproduces the input exactly.
func SplitSegments(text string) (preamble string, segments []Segment) {
	locs := promptDelimiter.FindAllStringSubmatchIndex(text, -1)
	if len(locs) == 0 {
		return text, nil
	}

	preamble = text[:locs[0][0]]
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		segments = append(segments, Segment{
			Header: text[loc[0]:loc[1]],
			Number: text[loc[2]:loc[3]],
			Body:   text[loc[1]:end],
		})
	}
	return preamble, segments
}

// JoinSegments is the inverse of SplitSegments.
func JoinSegments(preamble string, segments []Segment) string {
	var b strings.Builder
	b.WriteString(preamble)
	for _, s := range segments {
		b.WriteString(s.Text())
	}
	return b.String()
}

// Field labels of the output grammar.
const (
	labelObjective = "Objective:"
	labelPrompt    = "Prompt:"
	labelOutcome   = "Outcome:"
)

// ParsePrompts extracts every prompt unit from generated text. Ordinals are
// 1-based positions; units with missing fields are still returned.
func ParsePrompts(text string) []ParsedPrompt {
	_, segments := SplitSegments(text)
	prompts := make([]ParsedPrompt, 0, len(segments))
	for i, seg := range segments {
		p := parseSegment(seg.Body)
		p.Ordinal = i + 1
		prompts = append(prompts, p)
	}
	return prompts
}

// parseSegment scans a segment line by line. The first line is the title;
// a labeled line switches the current field and continuation lines append
// to it.
func parseSegment(body string) ParsedPrompt {
	var p ParsedPrompt
	var current *string
	fields := map[string]*string{
		labelObjective: &p.Objective,
		labelPrompt:    &p.Body,
		labelOutcome:   &p.Outcome,
	}

	lines := strings.Split(body, "\n")
	for i, raw := range lines {
		if i == 0 {
			p.Title = cleanInline(raw)
			continue
		}

		label, rest, ok := matchLabel(raw)
		if ok {
			current = fields[label]
			*current = cleanInline(rest)
			continue
		}

		if current == nil {
			// Wrapped title before any label.
			if t := cleanInline(raw); t != "" && p.Title == "" {
				p.Title = t
			}
			continue
		}
		line := strings.TrimRight(raw, " \t\r")
		if *current == "" {
			*current = strings.TrimSpace(line)
		} else {
			*current += "\n" + line
		}
	}

	p.Objective = strings.TrimSpace(p.Objective)
	p.Body = strings.TrimSpace(p.Body)
	p.Outcome = strings.TrimSpace(p.Outcome)
	return p
}

// matchLabel recognises a labeled line, tolerating Markdown emphasis and
// heading markers around the label.
func matchLabel(line string) (label, rest string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t#*_>")
	for _, l := range []string{labelObjective, labelPrompt, labelOutcome} {
		if strings.HasPrefix(trimmed, l) {
			return l, trimmed[len(l):], true
		}
	}
	return "", "", false
}

func cleanInline(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), "*_#"))
}
