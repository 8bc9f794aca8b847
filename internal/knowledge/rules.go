package knowledge

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dhabedank/stageprompt/internal/core"
)

// Action is a parsed rule action from the mini-DSL:
//
//	prepend:<text>
//	append:<text>
//	replace:<search>-><replacement>
//	insert:<lineIndex> at <text>
type Action interface {
	apply(content string) string
	String() string
}

type prependAction struct{ text string }

func (a prependAction) apply(content string) string { return a.text + "\n" + content }
func (a prependAction) String() string              { return "prepend:" + a.text }

type appendAction struct{ text string }

func (a appendAction) apply(content string) string { return content + "\n" + a.text }
func (a appendAction) String() string              { return "append:" + a.text }

type replaceAction struct{ search, replacement string }

func (a replaceAction) apply(content string) string {
	return strings.ReplaceAll(content, a.search, a.replacement)
}
func (a replaceAction) String() string { return "replace:" + a.search + "->" + a.replacement }

type insertAction struct {
	line int
	text string
}

// apply inserts text as a new line before line index a.line (0-based),
// clamped to the content's line range.
func (a insertAction) apply(content string) string {
	lines := strings.Split(content, "\n")
	idx := a.line
	if idx < 0 {
		idx = 0
	}
	if idx > len(lines) {
		idx = len(lines)
	}
	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:idx]...)
	out = append(out, a.text)
	out = append(out, lines[idx:]...)
	return strings.Join(out, "\n")
}
func (a insertAction) String() string { return fmt.Sprintf("insert:%d at %s", a.line, a.text) }

// ParseAction parses an action string.
func ParseAction(s string) (Action, error) {
	kind, arg, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("action %q: missing ':'", s)
	}

	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "prepend":
		text := strings.TrimSpace(arg)
		if text == "" {
			return nil, fmt.Errorf("action %q: empty prepend text", s)
		}
		return prependAction{text: text}, nil
	case "append":
		text := strings.TrimSpace(arg)
		if text == "" {
			return nil, fmt.Errorf("action %q: empty append text", s)
		}
		return appendAction{text: text}, nil
	case "replace":
		search, replacement, ok := strings.Cut(arg, "->")
		search = strings.TrimSpace(search)
		if !ok || search == "" {
			return nil, fmt.Errorf("action %q: want replace:<search>-><replacement>", s)
		}
		return replaceAction{search: search, replacement: strings.TrimSpace(replacement)}, nil
	case "insert":
		idx, text, ok := strings.Cut(strings.TrimSpace(arg), " at ")
		if !ok {
			return nil, fmt.Errorf("action %q: want insert:<lineIndex> at <text>", s)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil {
			return nil, fmt.Errorf("action %q: line index: %w", s, err)
		}
		return insertAction{line: n, text: strings.TrimSpace(text)}, nil
	default:
		return nil, fmt.Errorf("action %q: unknown kind %q", s, kind)
	}
}

// condition is a case-insensitive pattern, falling back to a substring
// test when the pattern is not a valid regular expression.
type condition struct {
	raw string
	re  *regexp.Regexp
}

func newCondition(raw string) *condition {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	c := &condition{raw: raw}
	if re, err := regexp.Compile("(?i)" + raw); err == nil {
		c.re = re
	}
	return c
}

// matches reports whether content satisfies the condition. A nil condition
// always matches.
func (c *condition) matches(content string) bool {
	if c == nil {
		return true
	}
	if c.re != nil {
		return c.re.MatchString(content)
	}
	return strings.Contains(strings.ToLower(content), strings.ToLower(c.raw))
}

// Rule is a compiled ConfigurationRule. The set of implementations is closed:
// ConstraintRule, EnhancementRule and RequirementRule.
type Rule interface {
	Config() core.ConfigurationRule
	// apply returns the transformed content and whether the rule fired.
	apply(content string) (string, bool)
}

// ConstraintRule applies its action only when its condition matches.
type ConstraintRule struct {
	rule   core.ConfigurationRule
	cond   *condition
	action Action
}

func (r ConstraintRule) Config() core.ConfigurationRule { return r.rule }

func (r ConstraintRule) apply(content string) (string, bool) {
	if !r.cond.matches(content) {
		return content, false
	}
	return run(r.action, content)
}

// EnhancementRule always applies; its condition is ignored.
type EnhancementRule struct {
	rule   core.ConfigurationRule
	action Action
}

func (r EnhancementRule) Config() core.ConfigurationRule { return r.rule }

func (r EnhancementRule) apply(content string) (string, bool) {
	return run(r.action, content)
}

// RequirementRule applies when its condition matches, and is skipped when
// the text it would add is already present.
type RequirementRule struct {
	rule   core.ConfigurationRule
	cond   *condition
	action Action
}

func (r RequirementRule) Config() core.ConfigurationRule { return r.rule }

func (r RequirementRule) apply(content string) (string, bool) {
	if !r.cond.matches(content) {
		return content, false
	}
	switch a := r.action.(type) {
	case prependAction:
		if strings.Contains(content, a.text) {
			return content, false
		}
	case appendAction:
		if strings.Contains(content, a.text) {
			return content, false
		}
	case insertAction:
		if strings.Contains(content, a.text) {
			return content, false
		}
	}
	return run(r.action, content)
}

// run applies an action and reports whether it changed anything. Replace
// works on the whole text; prepend, append and insert work on the Prompt
// body of every segment so the added text is part of each parsed prompt.
// Text without segments is treated as a single body.
func run(a Action, content string) (string, bool) {
	var next string
	if _, ok := a.(replaceAction); ok {
		next = a.apply(content)
	} else {
		next = mapPromptBodies(content, a.apply)
	}
	return next, next != content
}

var promptLabel = regexp.MustCompile(`(?m)^[ \t#*_>]*Prompt:[*_]*[ \t]*`)

// mapPromptBodies applies fn to the text between the Prompt: label and the
// Outcome: label of every segment.
func mapPromptBodies(content string, fn func(string) string) string {
	preamble, segments := core.SplitSegments(content)
	if len(segments) == 0 {
		return fn(content)
	}
	for i, seg := range segments {
		segments[i].Body = mapPromptBody(seg.Body, fn)
	}
	return core.JoinSegments(preamble, segments)
}

func mapPromptBody(body string, fn func(string) string) string {
	loc := promptLabel.FindStringIndex(body)
	if loc == nil {
		return body
	}
	start, end := loc[1], len(body)
	if o := outcomeLine.FindStringIndex(body[start:]); o != nil {
		end = start + o[0]
	}

	text := strings.Trim(body[start:end], " \t\r\n")
	next := strings.Trim(fn(text), "\n")
	if next == text {
		return body
	}
	tail := body[end:]
	if end < len(body) || strings.HasSuffix(body, "\n") {
		next += "\n"
	}
	return strings.TrimRight(body[:start], " \t") + "\n" + next + tail
}

// CompileRule parses a rule's action and picks its variant.
func CompileRule(cfg core.ConfigurationRule) (Rule, error) {
	action, err := ParseAction(cfg.Action)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", cfg.ID, err)
	}

	switch cfg.Type {
	case core.RuleConstraint:
		return ConstraintRule{rule: cfg, cond: newCondition(cfg.Condition), action: action}, nil
	case core.RuleEnhancement:
		return EnhancementRule{rule: cfg, action: action}, nil
	case core.RuleRequirement:
		return RequirementRule{rule: cfg, cond: newCondition(cfg.Condition), action: action}, nil
	default:
		return nil, &core.ValidationError{Field: "rules." + cfg.ID + ".type", Message: fmt.Sprintf("unknown rule type %q", cfg.Type)}
	}
}

// CompileRules compiles every rule and orders them by descending priority.
// Rules with equal priority keep their input order.
func CompileRules(cfgs []core.ConfigurationRule) ([]Rule, error) {
	rules := make([]Rule, 0, len(cfgs))
	for _, cfg := range cfgs {
		r, err := CompileRule(cfg)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Config().Priority > rules[j].Config().Priority
	})
	return rules, nil
}
