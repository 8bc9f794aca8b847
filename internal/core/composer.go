package core

import (
	"fmt"
	"strings"
)

// outputGrammar is stated in every instruction block. The validator accepts
// exactly this shape.
const outputGrammar = `## MANDATORY OUTPUT FORMAT

Return EXACTLY %d prompts. Each prompt MUST use this structure, with every label present:

Prompt 1: <short title>
Objective: <one or two sentences describing what this prompt achieves>
Prompt: <the development instructions, written as a bulleted or numbered list of concrete actions such as create, implement, configure, test>
Outcome: <what exists or works once the prompt is done>

Number the prompts 1 to %d in order and start every "Prompt N:" header on its own line. Do not add commentary before, between or after the prompts.`

// foundationRules apply to stage 1 only.
const foundationRules = `## STAGE 1 RULES (CRITICAL)

- Prompt 1 MUST establish the product foundation in one unit:
  - Brand identity: name, design language and style guide (colors, typography, tone)
  - Software purpose: what the product aims to do and for whom
  - Core features overview: a short list of the key features the later prompts build
- Every other prompt MUST address exactly ONE feature or component. Do not combine features.`

var complexityGuidance = map[Complexity]string{
	ComplexityHigh: `## COMPLEXITY: HIGH

- Decompose each prompt into explicit sub-steps
- Flag edge cases, failure modes and error handling for every feature`,
	ComplexityMedium: `## COMPLEXITY: MEDIUM

- Balance detail and clarity: enough steps to implement without guessing, no padding`,
	ComplexityLow: `## COMPLEXITY: LOW

- Keep each prompt minimal and direct`,
}

var stageTypeGuidance = map[StageType]string{
	StageTypeOverview: `## STAGE FOCUS: OVERVIEW

- Identify the stakeholders and target users the product serves
- State measurable success criteria for the core features`,
	StageTypeRequirements: `## STAGE FOCUS: REQUIREMENTS

- Specify the data model each feature touches
- Describe the user interaction flow step by step`,
	StageTypeTimeline: `## STAGE FOCUS: TIMELINE

- Order prompts chronologically, earliest work first
- Include explicit test and deployment steps`,
	StageTypeBudget: `## STAGE FOCUS: BUDGET

- Call out resource usage and infrastructure cost factors
- Prefer choices that keep hosting and runtime costs predictable`,
}

// ComposeInstructions builds the instruction block prepended to a generation
// request for one stage.
func ComposeInstructions(tmpl StageTemplate, analysis ContentAnalysis, count int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are generating development prompts for %s.\n\n", tmpl.Label())
	b.WriteString(tmpl.PromptTemplate)
	b.WriteString("\n\n")

	fmt.Fprintf(&b, outputGrammar, count, count)
	b.WriteString("\n\n")

	if tmpl.IsFoundation() {
		b.WriteString(foundationRules)
		b.WriteString("\n\n")
	} else if tmpl.Topic != "" {
		fmt.Fprintf(&b, "## STAGE TOPIC\n\nEvery prompt in this stage is about %s.\n\n", tmpl.Topic)
	}

	if g, ok := complexityGuidance[analysis.Complexity]; ok {
		b.WriteString(g)
		b.WriteString("\n\n")
	}

	if len(analysis.KeyTopics) > 0 {
		b.WriteString("## KEY TOPICS FROM THE DOCUMENT\n\n")
		for _, t := range analysis.KeyTopics {
			fmt.Fprintf(&b, "- %s\n", t)
		}
		fmt.Fprintf(&b, "\nThe document supports roughly %d prompts of depth; fold related topics together to fit exactly %d.\n\n",
			analysis.SuggestedPromptCount, count)
	}

	if len(analysis.Dependencies) > 0 {
		b.WriteString("## ORDERING CONSTRAINTS (HARD)\n\n")
		for _, d := range analysis.Dependencies {
			fmt.Fprintf(&b, "- DEPENDENCY: %s must be in place before the prompts that rely on it\n", d)
		}
		b.WriteString("\n")
	}

	if g, ok := stageTypeGuidance[tmpl.Type]; ok {
		b.WriteString(g)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

// BuildPromptText assembles the full provider input from a request.
func BuildPromptText(req GenerationRequest) string {
	var b strings.Builder
	b.WriteString(req.Instructions)
	b.WriteString("\n\n")

	if len(req.ContextHints) > 0 {
		b.WriteString("## CONTEXT\n\n")
		for _, h := range req.ContextHints {
			fmt.Fprintf(&b, "- %s\n", h)
		}
		b.WriteString("\n")
	}

	b.WriteString("---\nDOCUMENT SECTION:\n---\n")
	b.WriteString(req.DocumentSection)
	b.WriteString("\n---\n\n")
	fmt.Fprintf(&b, "Return exactly %d prompts in the mandatory format.", req.MaxPromptCount)

	return b.String()
}

// suggestionsPromptTemplate asks for follow-up ideas on an accepted stage.
const suggestionsPromptTemplate = `Here are the accepted development prompts for %s:

%s

Suggest exactly 3 concrete improvements to this set of prompts. Return a numbered list, one improvement per line, no other text.`

// BuildSuggestionsPrompt builds the best-effort follow-up request for an
// accepted stage.
func BuildSuggestionsPrompt(tmpl StageTemplate, prompts []CategorizedPrompt) string {
	var b strings.Builder
	for _, p := range prompts {
		fmt.Fprintf(&b, "%d. %s - %s\n", p.Ordinal, p.Title, p.Objective)
	}
	return fmt.Sprintf(suggestionsPromptTemplate, tmpl.Label(), strings.TrimRight(b.String(), "\n"))
}
