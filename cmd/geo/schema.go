package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/config"
	"github.com/geo-optimizer/geo/internal/pkg/schema"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

func runSchema(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("schema", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		analyze     = fs.Bool("analyze", false, "list the JSON-LD already in --file")
		file        = fs.String("file", "", "HTML file to analyze or modify")
		schemaType  = fs.String("type", "", "template to generate: "+strings.Join(schema.TemplateNames(), ", "))
		name        = fs.String("name", "", "site or application name")
		siteURL     = fs.String("url", "", "site URL")
		description = fs.String("description", "", "description")
		author      = fs.String("author", "", "author")
		logoURL     = fs.String("logo-url", "", "logo URL")
		faqFile     = fs.String("faq-file", "", "JSON file with [{question, answer}] for --type faq")
		inject      = fs.Bool("inject", false, "insert the generated tag into --file")
		noBackup    = fs.Bool("no-backup", false, "do not write <file>.bak before injecting")
		noValidate  = fs.Bool("no-validate", false, "skip validation before injecting")
		configPath  = fs.String("config", "", "project config file (default .geo-optimizer.yml)")
		verbose     = fs.Bool("verbose", false, "log progress to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	setupLogging(stderr, *verbose)

	switch {
	case *analyze:
		if *file == "" {
			return usagef("--file is required with --analyze")
		}
		cfg, err := config.Load(*configPath)
		if err != nil {
			return usageError{err}
		}
		return analyzeFile(*file, cfg.Schema.Types, stdout)
	case *schemaType != "":
	default:
		return usagef("use --analyze or --type (one of %s)", strings.Join(schema.TemplateNames(), ", "))
	}
	if *inject && *file == "" {
		return usagef("--file is required with --inject")
	}

	var block map[string]any
	if *schemaType == "faq" && *faqFile != "" {
		items, err := readFAQ(*faqFile)
		if err != nil {
			return err
		}
		block = schema.FAQ(items)
	} else {
		var err error
		block, err = schema.FromTemplate(*schemaType, map[string]string{
			"name":        *name,
			"title":       *name,
			"publisher":   firstNonEmpty(*author, *name),
			"url":         *siteURL,
			"description": *description,
			"author":      *author,
			"logo_url":    *logoURL,
		})
		if err != nil {
			return usageError{err}
		}
		if *schemaType == "faq" {
			fmt.Fprintln(stderr, "No --faq-file given, using the template's example questions")
		}
	}

	if !*inject {
		tag, err := schema.ToHTMLTag(block)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, tag)
		return err
	}

	backup, err := schema.Inject(*file, block, schema.InjectOptions{Backup: !*noBackup, Validate: !*noValidate})
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Schema injected into %s\n", *file)
	if backup != "" {
		fmt.Fprintf(stdout, "Backup written to %s\n", backup)
	}
	return nil
}

func readFAQ(path string) ([]schema.FAQItem, error) {
	resolved, err := utils.ValidateSafePath(path, []string{".json"}, true)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", resolved, err)
	}
	items, err := schema.ParseFAQ(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return items, nil
}

// Prints what a page declares and which templates it still lacks. Types
// listed in the project config are reported too when missing.
func analyzeFile(path string, expected []string, stdout io.Writer) error {
	analysis, err := schema.AnalyzeFile(path)
	if err != nil {
		return err
	}

	rule := strings.Repeat("=", 60)
	lines := []string{rule, "  SCHEMA ANALYSIS: " + analysis.Path, rule}
	if len(analysis.Found) == 0 {
		lines = append(lines, "  No JSON-LD schema found")
	}
	for _, t := range analysis.Found {
		lines = append(lines, "  ✓ "+t)
	}
	if analysis.Duplicates > 0 {
		lines = append(lines, fmt.Sprintf("  ! %d duplicate blocks", analysis.Duplicates))
	}
	for _, warning := range analysis.Warnings {
		lines = append(lines, "  ! "+warning)
	}
	if !analysis.HasHead {
		lines = append(lines, "  ! no </head> tag, --inject will refuse this file")
	}

	found := make(map[string]bool, len(analysis.Found))
	for _, t := range analysis.Found {
		found[t] = true
	}
	var missing []string
	for _, template := range analysis.Missing {
		schemaType, _ := schema.TemplateType(template)
		missing = append(missing, fmt.Sprintf("%s (geo schema --type %s)", schemaType, template))
		found[schemaType] = true
	}
	for _, t := range expected {
		if !found[t] {
			missing = append(missing, t+" (required by project config)")
			found[t] = true
		}
	}
	if len(missing) > 0 {
		lines = append(lines, "", "  Missing:")
		for _, m := range missing {
			lines = append(lines, "  ✗ "+m)
		}
	}

	_, err = io.WriteString(stdout, strings.Join(lines, "\n")+"\n")
	return err
}
