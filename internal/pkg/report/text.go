package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

const (
	ruleWidth = 60
	barWidth  = 20
)

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00"))
	styleErr     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	styleWarn    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

var bandLines = map[types.Band]string{
	types.BandExcellent: "EXCELLENT: the site is well prepared for AI search engines",
	types.BandGood:      "GOOD: core optimizations are in place",
	types.BandFair:      "FAIR: core elements are missing, start with the steps below",
	types.BandCritical:  "CRITICAL: the site is barely visible to AI search engines",
}

// Builds the human-readable report.
type textWriter struct {
	color bool
	lines []string
}

func (t *textWriter) paint(style lipgloss.Style, s string) string {
	if !t.color {
		return s
	}
	return style.Render(s)
}

func (t *textWriter) add(format string, args ...any) {
	t.lines = append(t.lines, fmt.Sprintf(format, args...))
}

// Writes a sectioned text report with a pass/fail glyph per check and a final score line.
func Text(w io.Writer, result types.AuditResult, opts Options) error {
	t := &textWriter{color: opts.Color}
	printer := message.NewPrinter(language.English)
	rule := strings.Repeat("=", ruleWidth)

	t.add("%s", t.paint(styleTitle, "GEO AUDIT: "+result.URL))
	if result.HTTPStatus != 0 || result.PageSize != 0 {
		t.add("%s", printer.Sprintf("Status: %d | Size: %d bytes", result.HTTPStatus, result.PageSize))
	}

	for i, c := range result.OrderedChecks() {
		t.add("")
		t.add("%s", rule)
		t.add("%d. %s  %s", i+1, t.glyph(c), t.paint(styleTitle, fmt.Sprintf("%s %d/%d", titleOf(c), c.Score, c.MaxScore)))
		t.add("%s", rule)
		if c.Message != "" {
			t.add("  %s", c.Message)
		}
		for _, line := range detailLines(c) {
			t.add("  %s", line)
		}
		for _, warning := range c.Warnings {
			t.add("  %s", t.paint(styleWarn, "! "+warning))
		}
	}

	filled := min(max(result.Score, 0), 100) * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	t.add("")
	t.add("%s", rule)
	t.add("  [%s] %s", bar, t.paint(styleTitle, fmt.Sprintf("GEO Score: %d/100 (%s)", result.Score, result.Band)))
	t.add("  %s", t.paint(t.bandStyle(result.Band), bandLines[result.Band]))
	t.add("  %s", t.paint(styleDim, "Bands: 0-40 critical | 41-70 fair | 71-90 good | 91-100 excellent"))

	t.add("")
	if len(result.Recommendations) == 0 {
		t.add("  %s", t.paint(styleSuccess, "All main optimizations are in place."))
	} else {
		t.add("  Next steps:")
		for i, rec := range result.Recommendations {
			t.add("  %d. %s", i+1, rec)
		}
	}

	if _, err := io.WriteString(w, strings.Join(t.lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("error while writing report: %w", err)
	}
	return nil
}

func (t *textWriter) glyph(c types.CheckResult) string {
	switch {
	case c.Unverified():
		return t.paint(styleWarn, "?")
	case c.Passed:
		return t.paint(styleSuccess, "✓")
	}
	return t.paint(styleErr, "✗")
}

func (t *textWriter) bandStyle(band types.Band) lipgloss.Style {
	switch band {
	case types.BandExcellent, types.BandGood:
		return styleSuccess
	case types.BandFair:
		return styleWarn
	}
	return styleErr
}

// Picks the few details worth showing for each check.
func detailLines(c types.CheckResult) []string {
	var lines []string
	list := func(label, key string) {
		if v, ok := c.Details[key].([]string); ok && len(v) > 0 {
			lines = append(lines, label+": "+strings.Join(v, ", "))
		}
	}
	text := func(label, key string) {
		if v, ok := c.Details[key].(string); ok && v != "" {
			lines = append(lines, label+": "+v)
		}
	}

	switch c.Name {
	case types.CheckRobots:
		list("Allowed", "allowed")
		list("Blocked", "disallowed")
		list("Not configured", "missing")
		list("Sitemaps", "sitemaps")
	case types.CheckLlms:
		text("Title", "title")
		list("Sections", "sections")
	case types.CheckSchema:
		list("Types", "found_types")
	case types.CheckMeta:
		text("Title", "title")
		text("Canonical", "canonical_url")
	case types.CheckContent:
		text("H1", "h1_text")
	}
	return lines
}
