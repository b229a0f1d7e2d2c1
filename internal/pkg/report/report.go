package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

var ErrUnknownFormat = errors.New("unknown report format")

type Format string

const (
	FormatText   Format = "text"
	FormatJSON   Format = "json"
	FormatGitHub Format = "github"
)

// Parses a --format value; empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatGitHub:
		return FormatGitHub, nil
	}
	return "", fmt.Errorf("%w %q (want text, json or github)", ErrUnknownFormat, s)
}

type Options struct {
	// Colours the text report. Ignored by the other formats.
	Color bool
}

// Writes the result in the requested format.
func Render(w io.Writer, format Format, result types.AuditResult, opts Options) error {
	switch format {
	case FormatText, "":
		return Text(w, result, opts)
	case FormatJSON:
		return JSON(w, result)
	case FormatGitHub:
		return GitHub(w, result)
	}
	return fmt.Errorf("%w %q", ErrUnknownFormat, format)
}

// Writes {url, timestamp, score, band, checks, recommendations} as indented JSON.
func JSON(w io.Writer, result types.AuditResult) error {
	return encode(w, document(result))
}

// Writes several results as one indented JSON array.
func JSONBatch(w io.Writer, results []types.AuditResult) error {
	docs := make([]types.AuditResult, len(results))
	for i, result := range results {
		docs[i] = document(result)
	}
	return encode(w, docs)
}

// Empty collections render as [] and {}, never null.
func document(result types.AuditResult) types.AuditResult {
	if result.Recommendations == nil {
		result.Recommendations = []string{}
	}
	if result.Checks == nil {
		result.Checks = map[string]types.CheckResult{}
	}
	return result
}

func encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("error while encoding report: %w", err)
	}
	return nil
}

// Display names of the checks.
var checkTitles = map[string]string{
	types.CheckRobots:  "Robots.txt",
	types.CheckLlms:    "llms.txt",
	types.CheckSchema:  "Schema JSON-LD",
	types.CheckMeta:    "Meta Tags",
	types.CheckContent: "Content Quality",
}

func titleOf(c types.CheckResult) string {
	if title, ok := checkTitles[c.Name]; ok {
		return title
	}
	return c.Name
}
