package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/geo-optimizer/geo/internal/pkg/audit"
	"github.com/geo-optimizer/geo/internal/pkg/config"
	"github.com/geo-optimizer/geo/internal/pkg/fetcher"
	"github.com/geo-optimizer/geo/internal/pkg/report"
	"github.com/geo-optimizer/geo/internal/pkg/types"
)

func runAudit(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("audit", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		rawURL     = fs.String("url", "", "site to audit, e.g. https://example.com")
		urlsFile   = fs.String("urls-file", "", "file with one site per line, audited as a batch")
		workers    = fs.Int("workers", audit.DefaultBatchWorkers, "concurrent audits for --urls-file")
		format     = fs.String("format", "", "report format: text, json or github")
		output     = fs.String("output", "", "write the report to this file instead of stdout")
		configPath = fs.String("config", "", "project config file (default .geo-optimizer.yml)")
		timeout    = fs.Duration("timeout", 0, "per-request timeout (default 10s)")
		maxSize    = fs.Int64("max-size", 0, "maximum response size in bytes (default 10 MiB)")
		verbose    = fs.Bool("verbose", false, "log progress to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return usageError{err}
	}
	setupLogging(stderr, *verbose || cfg.Audit.Verbose)

	target := firstNonEmpty(*rawURL, cfg.Audit.URL)
	if target == "" && *urlsFile == "" {
		return usagef("--url is required")
	}
	reportFormat, err := report.ParseFormat(firstNonEmpty(*format, cfg.Audit.Format))
	if err != nil {
		return usageError{err}
	}
	if *timeout == 0 {
		*timeout = cfg.Audit.Timeout
	}
	if *maxSize == 0 {
		*maxSize = cfg.Audit.MaxSize
	}
	outputPath := firstNonEmpty(*output, cfg.Audit.Output)

	f := fetcher.New(fetcher.Options{Timeout: *timeout, MaxSize: *maxSize})
	auditor := audit.New(f, audit.Options{Catalog: cfg.Catalog()})
	opts := report.Options{Color: outputPath == "" && isTerminal(stdout)}

	if *urlsFile != "" {
		return runAuditBatch(ctx, auditor, *urlsFile, *workers, reportFormat, outputPath, opts, stdout, stderr)
	}

	result, err := auditor.Run(ctx, target)
	if err != nil {
		return err
	}
	if err := writeOutput(outputPath, stdout, func(w io.Writer) error {
		return report.Render(w, reportFormat, result, opts)
	}); err != nil {
		return err
	}
	if outputPath != "" {
		fmt.Fprintf(stderr, "Report written to %s (score %d/100, %s)\n", outputPath, result.Score, result.Band)
	}
	return nil
}

func runAuditBatch(ctx context.Context, auditor *audit.Auditor, path string, workers int, format report.Format, outputPath string, opts report.Options, stdout, stderr io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open url list: %w", err)
	}
	urls, err := audit.ReadURLList(file)
	file.Close()
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return usagef("%s lists no URLs", path)
	}

	items, err := auditor.RunBatch(ctx, urls, workers)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var results []types.AuditResult
	failed := 0
	for _, item := range items {
		if item.Err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", item.URL, item.Err)
			continue
		}
		results = append(results, item.Result)
	}

	err = writeOutput(outputPath, stdout, func(w io.Writer) error {
		if format == report.FormatJSON {
			return report.JSONBatch(w, results)
		}
		for i, result := range results {
			if i > 0 {
				if _, err := io.WriteString(w, "\n"); err != nil {
					return err
				}
			}
			if err := report.Render(w, format, result, opts); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d audits failed", failed, len(items))
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Reports whether a flag was given on the command line.
func flagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
