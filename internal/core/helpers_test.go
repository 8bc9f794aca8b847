package core

import (
	"fmt"
	"strings"
)

const foundationSegment = `Prompt 1: Brand and Purpose
Objective: Establish the brand identity, software purpose and core features overview.
Prompt:
- Create a style guide with colors, typography and tone
- Document the purpose of the product and who it serves
- List the core features the next prompts will build
Outcome: A foundation document that every later prompt can reference.
`

// stageText builds a well-formed response with n prompts. When foundation is
// set the first prompt carries the stage 1 vocabulary.
func stageText(n int, foundation bool) string {
	var b strings.Builder
	b.WriteString("Here are your prompts.\n\n")
	for i := 1; i <= n; i++ {
		if i == 1 && foundation {
			b.WriteString(foundationSegment)
			b.WriteString("\n")
			continue
		}
		fmt.Fprintf(&b, "Prompt %d: Task Screen %d\n", i, i)
		fmt.Fprintf(&b, "Objective: Implement the task screen %d so people can track their work.\n", i)
		b.WriteString("Prompt:\n")
		b.WriteString("- Build the list view\n")
		b.WriteString("- Add sorting by due date\n")
		fmt.Fprintf(&b, "Outcome: Screen %d shows tasks in order.\n\n", i)
	}
	return b.String()
}
