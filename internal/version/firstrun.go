package version

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dhabedank/stageprompt/internal/tui"
)

// IsFirstRun reports whether neither a config file in home nor the
// initialized marker in dir exists.
func IsFirstRun(home, dir string) bool {
	if _, err := os.Stat(filepath.Join(home, ".stageprompt.yaml")); err == nil {
		return false
	}
	if _, err := os.Stat(filepath.Join(dir, ".initialized")); err == nil {
		return false
	}
	return true
}

// MarkInitialized creates the first-run marker in dir.
func MarkInitialized(dir string) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return
	}
	_ = os.WriteFile(filepath.Join(dir, ".initialized"), []byte{}, 0644)
}

// PrintFirstRunNotice writes a welcome message and marks dir initialized so
// it is shown once.
func PrintFirstRunNotice(w io.Writer, dir string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s Welcome to stageprompt!\n", tui.TitleStyle.Render("*"))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  Quick start:")
	fmt.Fprintf(w, "    1. Run %s to pick a model per stage\n", tui.ModelStyle.Render("stageprompt setup"))
	fmt.Fprintf(w, "    2. Generate prompts: %s\n", tui.ModelStyle.Render("stageprompt generate docs/requirements.md"))
	fmt.Fprintf(w, "    3. Export them later: %s\n", tui.ModelStyle.Render("stageprompt prompts list -p <project> -o markdown"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", tui.HelpStyle.Render("Run 'stageprompt --help' for all options"))
	fmt.Fprintln(w)

	MarkInitialized(dir)
}
