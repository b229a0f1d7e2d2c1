package llmstxt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/geo-optimizer/geo/internal/pkg/queue"
	"github.com/geo-optimizer/geo/internal/pkg/robots"
	"github.com/geo-optimizer/geo/internal/pkg/types"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

const (
	maxSitemapDepth   = 3
	maxChildSitemaps  = 10
	maxQueuedSitemaps = 128
	defaultPriority   = 0.5
)

var (
	ErrNoSitemap    = errors.New("no sitemap found")
	ErrSitemapFetch = errors.New("failed to fetch sitemap")

	commonSitemapPaths = []string{
		"/sitemap.xml",
		"/sitemap_index.xml",
		"/sitemap-index.xml",
		"/sitemaps/sitemap.xml",
		"/wp-sitemap.xml",
		"/sitemap-0.xml",
	}

	// Replaced in tests, which serve sitemaps from loopback.
	validateURL = utils.ValidatePublicURL
)

// Anything that can GET a URL; *fetcher.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) types.FetchOutcome
}

// One <url> entry of a sitemap.
type SitemapURL struct {
	URL      string
	LastMod  string
	Priority float64
	Title    string
}

// Where the sitemap was found, plus the politeness delay robots.txt asks for.
type Discovery struct {
	SitemapURL string
	FromRobots bool
	CrawlDelay time.Duration
}

// Looks for a sitemap: Sitemap lines of robots.txt on the same public domain
// first, then the usual locations.
func DiscoverSitemap(ctx context.Context, f Fetcher, baseURL string) (Discovery, error) {
	host, err := utils.SiteHost(baseURL)
	if err != nil {
		return Discovery{}, err
	}

	var discovery Discovery
	robotsURL, err := utils.ResolvePath(baseURL, "/robots.txt")
	if err != nil {
		return Discovery{}, err
	}
	if outcome := f.Fetch(ctx, robotsURL); outcome.OK() {
		directives, err := robots.ReadDirectives(outcome.Body, "*")
		if err != nil {
			slog.Warn("Sitemap: unreadable robots.txt", "url", robotsURL, "error", err)
		}
		discovery.CrawlDelay = directives.CrawlDelay
		for _, candidate := range directives.Sitemaps {
			if !utils.BelongsToDomain(candidate, host) {
				slog.Warn("Sitemap: ignoring external sitemap", "url", candidate)
				continue
			}
			if err := validateURL(ctx, candidate); err != nil {
				slog.Warn("Sitemap: ignoring unsafe sitemap", "url", candidate, "error", err)
				continue
			}
			slog.Info("Sitemap: found in robots.txt", "url", candidate)
			discovery.SitemapURL = candidate
			discovery.FromRobots = true
			return discovery, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return Discovery{}, err
	}

	for _, path := range commonSitemapPaths {
		candidate, err := utils.ResolvePath(baseURL, path)
		if err != nil {
			continue
		}
		outcome := f.Fetch(ctx, candidate)
		if err := ctx.Err(); err != nil {
			return Discovery{}, err
		}
		if outcome.OK() && isSitemapDocument(outcome.Body) {
			slog.Info("Sitemap: found", "url", candidate)
			discovery.SitemapURL = candidate
			return discovery, nil
		}
	}
	return discovery, fmt.Errorf("%w for %s", ErrNoSitemap, baseURL)
}

// Checks if a body is a sitemap or sitemap index rather than an HTML fallback.
func isSitemapDocument(body string) bool {
	return strings.Contains(body, "<urlset") || strings.Contains(body, "<sitemapindex")
}

type sitemapJob struct {
	url   string
	depth int
}

// Downloads a sitemap and, for sitemap indexes, up to ten child sitemaps per
// index down to a fixed depth. Child sitemaps must stay on the root's domain.
func FetchSitemap(ctx context.Context, f Fetcher, sitemapURL string) ([]SitemapURL, error) {
	host, err := utils.SiteHost(sitemapURL)
	if err != nil {
		return nil, err
	}

	jobs, err := queue.CreateQueue[sitemapJob](maxQueuedSitemaps)
	if err != nil {
		return nil, err
	}
	if err := jobs.Insert(sitemapJob{url: sitemapURL}); err != nil {
		return nil, err
	}

	var urls []SitemapURL
	for !jobs.IsEmpty() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		job, err := jobs.Remove()
		if err != nil {
			break
		}
		if job.depth >= maxSitemapDepth {
			slog.Warn("Sitemap: max depth reached, skipping", "url", job.url, "depth", job.depth)
			continue
		}

		slog.Info("Sitemap: fetching", "url", job.url, "depth", job.depth)
		outcome := f.Fetch(ctx, job.url)
		if !outcome.OK() {
			if job.depth == 0 {
				return nil, fmt.Errorf("%w %s: %s", ErrSitemapFetch, job.url, outcome.Reason())
			}
			slog.Warn("Sitemap: child sitemap failed", "url", job.url, "reason", outcome.Reason())
			continue
		}

		children, entries, err := parseSitemap(outcome.Body, job.url)
		if err != nil {
			if job.depth == 0 {
				return nil, err
			}
			slog.Warn("Sitemap: unparsable child sitemap", "url", job.url, "error", err)
			continue
		}
		urls = append(urls, entries...)

		if len(children) > maxChildSitemaps {
			slog.Info("Sitemap: index truncated", "url", job.url, "children", len(children), "kept", maxChildSitemaps)
			children = children[:maxChildSitemaps]
		}
		for _, child := range children {
			if !utils.BelongsToDomain(child, host) {
				slog.Warn("Sitemap: ignoring external child sitemap", "url", child)
				continue
			}
			if err := jobs.Insert(sitemapJob{url: child, depth: job.depth + 1}); err != nil {
				slog.Warn("Sitemap: queue full, dropping child sitemap", "url", child)
			}
		}
	}
	slog.Info("Sitemap: URLs found", "url", sitemapURL, "count", len(urls))
	return urls, nil
}

// Splits a sitemap document into child sitemap locations and page entries.
// Relative locations resolve against the sitemap's own URL.
func parseSitemap(body, sitemapURL string) ([]string, []SitemapURL, error) {
	doc, err := xmlquery.Parse(strings.NewReader(body))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse sitemap %s: %w", sitemapURL, err)
	}
	base, err := url.Parse(sitemapURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w %q: %v", utils.ErrInvalidURL, sitemapURL, err)
	}

	var children []string
	for _, node := range xmlquery.Find(doc, "//*[local-name()='sitemap']/*[local-name()='loc']") {
		if loc := resolveLoc(base, node.InnerText()); loc != "" {
			children = append(children, loc)
		}
	}
	if len(children) > 0 {
		return children, nil, nil
	}

	var entries []SitemapURL
	for _, node := range xmlquery.Find(doc, "//*[local-name()='url']") {
		locNode := xmlquery.FindOne(node, "./*[local-name()='loc']")
		if locNode == nil {
			continue
		}
		loc := resolveLoc(base, locNode.InnerText())
		if loc == "" {
			continue
		}
		entry := SitemapURL{URL: loc, Priority: defaultPriority}
		if lastmod := xmlquery.FindOne(node, "./*[local-name()='lastmod']"); lastmod != nil {
			entry.LastMod = strings.TrimSpace(lastmod.InnerText())
		}
		if priority := xmlquery.FindOne(node, "./*[local-name()='priority']"); priority != nil {
			if value, err := strconv.ParseFloat(strings.TrimSpace(priority.InnerText()), 64); err == nil {
				entry.Priority = value
			}
		}
		entries = append(entries, entry)
	}
	return nil, entries, nil
}

func resolveLoc(base *url.URL, loc string) string {
	loc = strings.TrimSpace(loc)
	if loc == "" {
		return ""
	}
	ref, err := url.Parse(loc)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
