package schema

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

var (
	ErrNoHead          = errors.New("no </head> tag found")
	ErrAlreadyInjected = errors.New("schema already present")

	htmlExtensions = []string{".html", ".htm", ".astro", ".php", ".vue", ".svelte", ".jsx", ".tsx"}

	// Types every site should publish, with the template that supplies each.
	suggestedTypes = []struct {
		schemaType string
		template   string
	}{
		{TypeWebSite, "website"},
		{TypeWebApplication, "webapp"},
		{TypeFAQPage, "faq"},
	}
)

// What a local page already declares.
type FileAnalysis struct {
	Path       string
	Found      []string
	Duplicates int
	Missing    []string // template names to add
	HasHead    bool
	Warnings   []string
}

type InjectOptions struct {
	Backup   bool
	Validate bool
}

// Lists the JSON-LD types in a local HTML file and the templates it lacks.
func AnalyzeFile(path string) (FileAnalysis, error) {
	resolved, err := utils.ValidateSafePath(path, htmlExtensions, true)
	if err != nil {
		return FileAnalysis{}, err
	}
	content, err := os.ReadFile(resolved)
	if err != nil {
		return FileAnalysis{}, fmt.Errorf("failed to read %s: %w", resolved, err)
	}

	extraction := Extract(string(content))
	analysis := FileAnalysis{
		Path:       resolved,
		Found:      extraction.Types(),
		Duplicates: extraction.Duplicates,
		HasHead:    headEnd(string(content)) >= 0,
		Warnings:   extraction.Warnings,
	}
	for _, suggestion := range suggestedTypes {
		if !extraction.Has(suggestion.schemaType) {
			analysis.Missing = append(analysis.Missing, suggestion.template)
		}
	}
	return analysis, nil
}

// Inserts a script tag for block right before the first </head>. Returns the
// backup path when one was written.
func Inject(path string, block map[string]any, opts InjectOptions) (string, error) {
	resolved, err := utils.ValidateSafePath(path, htmlExtensions, true)
	if err != nil {
		return "", err
	}
	if opts.Validate {
		if err := Validate(block, "", false); err != nil {
			return "", err
		}
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", resolved, err)
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", resolved, err)
	}
	content := string(raw)

	at := headEnd(content)
	if at < 0 {
		return "", fmt.Errorf("%w in %s", ErrNoHead, resolved)
	}
	candidate := Block{Types: typesOf(block), Data: block}
	existing := Extract(content)
	for _, b := range existing.Blocks {
		if b.IsValidJSON && dedupeKey(b) == dedupeKey(candidate) {
			return "", fmt.Errorf("%w: %s in %s", ErrAlreadyInjected, describe(candidate), resolved)
		}
	}

	tag, err := ToHTMLTag(block)
	if err != nil {
		return "", err
	}

	var backupPath string
	if opts.Backup {
		backupPath = resolved + ".bak"
		if err := os.WriteFile(backupPath, raw, info.Mode().Perm()); err != nil {
			return "", fmt.Errorf("failed to write backup %s: %w", backupPath, err)
		}
		slog.Info("Injector: backup written", "path", backupPath)
	}

	updated := content[:at] + indent(tag, "  ") + "\n" + content[at:]
	if err := os.WriteFile(resolved, []byte(updated), info.Mode().Perm()); err != nil {
		return backupPath, fmt.Errorf("failed to write %s: %w", resolved, err)
	}
	slog.Info("Injector: schema injected", "path", resolved, "types", describe(candidate))
	return backupPath, nil
}

// Byte offset of the first </head>, any case, or -1.
func headEnd(content string) int {
	const closing = "</head>"
	for i := 0; i+len(closing) <= len(content); i++ {
		if content[i] == '<' && strings.EqualFold(content[i:i+len(closing)], closing) {
			return i
		}
	}
	return -1
}

func indent(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
