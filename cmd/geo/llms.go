package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"

	"github.com/geo-optimizer/geo/internal/pkg/config"
	"github.com/geo-optimizer/geo/internal/pkg/fetcher"
	"github.com/geo-optimizer/geo/internal/pkg/llmstxt"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

func runLlms(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("llms", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		baseURL       = fs.String("base-url", "", "site to describe, e.g. https://example.com")
		sitemapURL    = fs.String("sitemap", "", "sitemap URL (discovered when empty)")
		output        = fs.String("output", "", "write llms.txt to this file instead of stdout")
		siteName      = fs.String("site-name", "", "site name for the # heading")
		description   = fs.String("description", "", "one-line description for the > blockquote")
		fetchTitles   = fs.Bool("fetch-titles", false, "fetch each page for its <title> (slow)")
		maxPerSection = fs.Int("max-per-section", 0, "links per section (default 20)")
		configPath    = fs.String("config", "", "project config file (default .geo-optimizer.yml)")
		verbose       = fs.Bool("verbose", false, "log progress to stderr")
	)
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return usageError{err}
	}
	setupLogging(stderr, *verbose)

	target := firstNonEmpty(*baseURL, cfg.Llms.BaseURL)
	if target == "" {
		return usagef("--base-url is required")
	}
	base, err := utils.NormalizeBaseURL(target)
	if err != nil {
		return err
	}
	if err := utils.ValidatePublicURL(ctx, base); err != nil {
		return err
	}
	if *sitemapURL != "" {
		if err := utils.ValidatePublicURL(ctx, *sitemapURL); err != nil {
			return err
		}
	}
	if !flagSet(fs, "fetch-titles") {
		*fetchTitles = cfg.Llms.FetchTitles
	}
	if *maxPerSection == 0 {
		*maxPerSection = cfg.Llms.MaxURLs
	}
	name := firstNonEmpty(*siteName, cfg.Llms.Title)
	desc := firstNonEmpty(*description, cfg.Llms.Description)

	limiter := fetcher.NewHostLimiter(0)
	f := fetcher.New(fetcher.Options{Limiter: limiter})

	content, err := buildLlms(ctx, f, limiter, base, *sitemapURL, llmstxt.GenerateOptions{
		SiteName:      name,
		Description:   desc,
		MaxPerSection: *maxPerSection,
		Skip:          cfg.Llms.Skip,
		FetchTitles:   *fetchTitles,
		Fetcher:       f,
	})
	if err != nil {
		return err
	}

	if err := writeOutput(*output, stdout, func(w io.Writer) error {
		_, err := io.WriteString(w, content)
		return err
	}); err != nil {
		return err
	}
	if *output != "" {
		fmt.Fprintf(stderr, "llms.txt written to %s\n", *output)
	}
	return nil
}

// Discovers and reads the sitemap, then generates llms.txt. A site without a
// sitemap gets the minimal file.
func buildLlms(ctx context.Context, f *fetcher.Fetcher, limiter *fetcher.HostLimiter, base, sitemapURL string, opts llmstxt.GenerateOptions) (string, error) {
	if sitemapURL == "" {
		discovery, err := llmstxt.DiscoverSitemap(ctx, f, base)
		if errors.Is(err, llmstxt.ErrNoSitemap) {
			slog.Warn("Generator: no sitemap found, writing minimal llms.txt", "url", base)
			return llmstxt.Minimal(base, opts.SiteName, opts.Description), nil
		}
		if err != nil {
			return "", err
		}
		limiter.SetDelay(discovery.CrawlDelay)
		sitemapURL = discovery.SitemapURL
	}

	urls, err := llmstxt.FetchSitemap(ctx, f, sitemapURL)
	if err != nil {
		return "", err
	}
	if len(urls) == 0 {
		return "", fmt.Errorf("no URLs found in sitemap %s", sitemapURL)
	}
	slog.Info("Generator: sitemap read", "url", sitemapURL, "urls", len(urls))
	return llmstxt.Generate(ctx, base, urls, opts)
}
