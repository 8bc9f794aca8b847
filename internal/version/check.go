package version

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhabedank/stageprompt/internal/tui"
)

const (
	// GitHubRepo is the repository for version checks.
	GitHubRepo = "dhabedank/stageprompt"

	// CheckInterval is how often to check for updates (24 hours).
	CheckInterval = 24 * time.Hour

	// DisableEnv turns the update check off when set to any value.
	DisableEnv = "STAGEPROMPT_NO_UPDATE_CHECK"
)

// GitHubRelease represents a GitHub release.
type GitHubRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// CheckResult holds the result of a version check.
type CheckResult struct {
	CurrentVersion string
	LatestVersion  string
	ReleaseURL     string
}

// Checker looks up the latest release at most once per CheckInterval,
// remembering the last check in a marker file under Dir.
type Checker struct {
	Dir     string // state directory, e.g. ~/.stageprompt
	BaseURL string // GitHub API root
	Client  *http.Client
}

// NewChecker returns a checker using ~/.stageprompt and the public GitHub API.
func NewChecker() *Checker {
	return &Checker{
		Dir:     StateDir(),
		BaseURL: "https://api.github.com",
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// StateDir is the directory holding markers and the default database.
func StateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".stageprompt"
	}
	return filepath.Join(home, ".stageprompt")
}

// CheckForUpdate returns a result only when a newer release exists. Dev
// builds, recent checks and any failure return nil.
func (c *Checker) CheckForUpdate(ctx context.Context, currentVersion string) *CheckResult {
	if currentVersion == "dev" || currentVersion == "" || os.Getenv(DisableEnv) != "" {
		return nil
	}
	if c.checkedRecently() {
		return nil
	}
	c.markChecked()

	latest, err := c.fetchLatestRelease(ctx)
	if err != nil {
		return nil
	}

	latestClean := strings.TrimPrefix(latest.TagName, "v")
	currentClean := strings.TrimPrefix(currentVersion, "v")
	if !isNewerVersion(latestClean, currentClean) {
		return nil
	}
	return &CheckResult{
		CurrentVersion: currentVersion,
		LatestVersion:  latest.TagName,
		ReleaseURL:     latest.HTMLURL,
	}
}

// PrintUpdateNotice writes a notice if an update is available.
func PrintUpdateNotice(w io.Writer, result *CheckResult) {
	if result == nil {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s A new version of stageprompt is available: %s (you have %s)\n",
		tui.WarningStyle.Render("!"),
		tui.SuccessStyle.Render(result.LatestVersion),
		result.CurrentVersion,
	)
	fmt.Fprintf(w, "  Update: %s\n", tui.HelpStyle.Render("go install github.com/"+GitHubRepo+"@latest"))
	if result.ReleaseURL != "" {
		fmt.Fprintf(w, "  Notes:  %s\n", tui.HelpStyle.Render(result.ReleaseURL))
	}
	fmt.Fprintln(w)
}

func (c *Checker) fetchLatestRelease(ctx context.Context) (*GitHubRelease, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", c.BaseURL, GitHubRepo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API returned %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, err
	}
	return &release, nil
}

func (c *Checker) markerPath() string {
	return filepath.Join(c.Dir, ".last-update-check")
}

func (c *Checker) checkedRecently() bool {
	info, err := os.Stat(c.markerPath())
	if err != nil {
		return false
	}
	return time.Since(info.ModTime()) < CheckInterval
}

func (c *Checker) markChecked() {
	if err := os.MkdirAll(c.Dir, 0755); err != nil {
		return
	}
	path := c.markerPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		_ = os.WriteFile(path, []byte{}, 0644)
		return
	}
	now := time.Now()
	_ = os.Chtimes(path, now, now)
}

// isNewerVersion returns true if latest is newer than current.
// Simple comparison: splits by dots and compares numerically.
func isNewerVersion(latest, current string) bool {
	latestParts := strings.Split(latest, ".")
	currentParts := strings.Split(current, ".")

	for i := 0; i < len(latestParts) && i < len(currentParts); i++ {
		l := parseVersionPart(latestParts[i])
		c := parseVersionPart(currentParts[i])
		if l != c {
			return l > c
		}
	}

	// If all compared parts are equal, longer version is newer
	return len(latestParts) > len(currentParts)
}

// parseVersionPart extracts a number from a version part (e.g., "1" from "1-beta").
func parseVersionPart(s string) int {
	var n int
	_, _ = fmt.Sscanf(s, "%d", &n)
	return n
}
