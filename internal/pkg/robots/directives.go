package robots

import (
	"fmt"
	"time"

	"github.com/temoto/robotstxt"
)

// Non-access directives of a robots.txt file.
type Directives struct {
	Sitemaps   []string
	CrawlDelay time.Duration
}

// Reads Sitemap lines and the Crawl-delay that applies to userAgent.
func ReadDirectives(body, userAgent string) (Directives, error) {
	robots, err := robotstxt.FromString(body)
	if err != nil {
		return Directives{}, fmt.Errorf("failed to parse robots.txt directives: %w", err)
	}

	directives := Directives{Sitemaps: robots.Sitemaps}
	group := robots.FindGroup(userAgent)
	if group == nil {
		group = robots.FindGroup(wildcardAgent)
	}
	if group != nil && group.CrawlDelay > 0 {
		directives.CrawlDelay = group.CrawlDelay
	}
	return directives, nil
}
