package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/orrery/pkg/adapters/loam"
	"github.com/aretw0/orrery/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
// Without a usable terminal style the markdown is returned as is.
func NewRenderer() func(string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return func(markdown string) (string, error) { return markdown, nil }
	}
	return func(markdown string) (string, error) {
		return r.Render(markdown)
	}
}

// ScenarioList renders the catalog as a markdown table.
func ScenarioList(list []loam.Scenario) string {
	if len(list) == 0 {
		return "_No scenarios found._\n"
	}
	var b strings.Builder
	b.WriteString("| id | name | transport | simulation | description |\n")
	b.WriteString("|---|---|---|---|---|\n")
	for _, s := range list {
		transport := s.Transport
		if transport == "" {
			transport = "http"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", s.ID, s.Name, transport, s.Simulation, s.Description)
	}
	return b.String()
}

// ScenarioDetail renders one scenario with its notes.
func ScenarioDetail(s loam.Scenario) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", s.Name)
	if s.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", s.Description)
	}
	fmt.Fprintf(&b, "- **simulation**: `%s`\n", s.Simulation)
	if s.Source != "" {
		fmt.Fprintf(&b, "- **source**: `%s`\n", s.Source)
	}
	if s.Transport != "" {
		fmt.Fprintf(&b, "- **transport**: `%s`\n", s.Transport)
	}
	if s.Notes != "" {
		fmt.Fprintf(&b, "\n%s\n", s.Notes)
	}
	return b.String()
}

// StatusSummary renders a session status as a short markdown list.
func StatusSummary(st domain.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s\n\n", st.SessionID)
	fmt.Fprintf(&b, "- **state**: %s\n", st.State)
	fmt.Fprintf(&b, "- **elapsed**: %.2f years (%d frames)\n", st.ElapsedYears, st.FramesPlayed)
	fmt.Fprintf(&b, "- **buffer**: %d/%d, %.1fs ahead\n", st.Cursor, st.Buffered, st.RemainingSeconds)
	fmt.Fprintf(&b, "- **follow**: %t\n", st.Following)
	if st.FailureStreak > 0 {
		fmt.Fprintf(&b, "- **failures**: %d in a row\n", st.FailureStreak)
	}
	return b.String()
}
