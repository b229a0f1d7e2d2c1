package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/scoring"
	"github.com/geo-optimizer/geo/internal/pkg/types"
)

var annotationEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// Writes GitHub Actions workflow commands: one annotation for the score, one
// per check that did not pass and one per recommendation.
func GitHub(w io.Writer, result types.AuditResult) error {
	level := "error"
	switch {
	case result.Score >= scoring.GoodMin:
		level = "notice"
	case result.Score >= scoring.FairMin:
		level = "warning"
	}

	lines := []string{annotation(level, fmt.Sprintf("GEO Score: %d/100 (%s) %s", result.Score, strings.ToUpper(string(result.Band)), result.URL))}
	for _, c := range result.OrderedChecks() {
		switch {
		case c.Unverified():
			lines = append(lines, annotation("warning", fmt.Sprintf("%s: not verified (%s)", titleOf(c), c.Message)))
		case !c.Passed:
			lines = append(lines, annotation("warning", fmt.Sprintf("%s: %d/%d", titleOf(c), c.Score, c.MaxScore)))
		}
	}
	for _, rec := range result.Recommendations {
		lines = append(lines, annotation("warning", rec))
	}

	if _, err := io.WriteString(w, strings.Join(lines, "\n")+"\n"); err != nil {
		return fmt.Errorf("error while writing report: %w", err)
	}
	return nil
}

func annotation(level, message string) string {
	return "::" + level + "::" + annotationEscaper.Replace(message)
}
