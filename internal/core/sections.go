package core

import (
	"regexp"
	"strings"
)

// Section is one heading-delimited part of a requirements document.
type Section struct {
	Key     string // Lower-cased heading text
	Heading string
	Body    string
}

var headingPattern = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`)

// ExtractSections splits a Markdown document on its headings. Text before the
// first heading becomes a section with an empty key.
func ExtractSections(document string) []Section {
	var sections []Section
	current := Section{}
	var body strings.Builder

	flush := func() {
		current.Body = strings.TrimSpace(body.String())
		if current.Heading != "" || current.Body != "" {
			sections = append(sections, current)
		}
		body.Reset()
	}

	for _, line := range strings.Split(document, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			heading := strings.TrimSpace(m[1])
			current = Section{Key: strings.ToLower(heading), Heading: heading}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return sections
}

// SectionFor returns the part of the document relevant to a stage: the
// bodies of every section whose heading contains one of the template's
// relevant keys. Falls back to the whole document when nothing matches.
func SectionFor(tmpl StageTemplate, document string) string {
	var parts []string
	for _, s := range ExtractSections(document) {
		if s.Key == "" || s.Body == "" {
			continue
		}
		if matchesAnyKey(s.Key, tmpl.RelevantSections) {
			parts = append(parts, s.Heading+"\n"+s.Body)
		}
	}
	if len(parts) == 0 {
		return strings.TrimSpace(document)
	}
	return strings.Join(parts, "\n\n")
}

func matchesAnyKey(key string, wanted []string) bool {
	words := strings.FieldsFunc(key, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	for _, w := range wanted {
		// Short keys like "ui" must match a whole word.
		if len(w) <= 3 {
			for _, word := range words {
				if word == w {
					return true
				}
			}
			continue
		}
		if strings.Contains(key, w) {
			return true
		}
	}
	return false
}
