package scoring

import (
	"fmt"
	"strings"
	"time"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

// Lower bounds of each band.
const (
	ExcellentMin = 91
	GoodMin      = 71
	FairMin      = 41
)

// Stamps results. Never consulted for scoring.
var now = time.Now

// Maps a total score onto its band.
func BandFor(score int) types.Band {
	switch {
	case score >= ExcellentMin:
		return types.BandExcellent
	case score >= GoodMin:
		return types.BandGood
	case score >= FairMin:
		return types.BandFair
	}
	return types.BandCritical
}

// Combines the five check results into an audit result. Each check score is
// clamped to [0, max] before summing.
func Score(url string, robots, llms, schema, meta, content types.CheckResult) types.AuditResult {
	checks := map[string]types.CheckResult{
		types.CheckRobots:  clamp(robots),
		types.CheckLlms:    clamp(llms),
		types.CheckSchema:  clamp(schema),
		types.CheckMeta:    clamp(meta),
		types.CheckContent: clamp(content),
	}
	total := 0
	for _, c := range checks {
		total += c.Score
	}
	return types.AuditResult{
		URL:             url,
		Timestamp:       now().UTC().Truncate(time.Second),
		Score:           total,
		Band:            BandFor(total),
		Checks:          checks,
		Recommendations: Recommendations(url, checks),
	}
}

func clamp(c types.CheckResult) types.CheckResult {
	if c.Score < 0 {
		c.Score = 0
	}
	if c.Score > c.MaxScore {
		c.Score = c.MaxScore
	}
	return c
}

// Lists fixes in priority order, one per unmet condition. Checks that could
// not be evaluated get a single "could not verify" line instead of fixes.
func Recommendations(url string, checks map[string]types.CheckResult) []string {
	recs := []string{}
	add := func(format string, args ...any) {
		recs = append(recs, fmt.Sprintf(format, args...))
	}
	verified := func(name string) (types.CheckResult, bool) {
		c, ok := checks[name]
		return c, ok && !c.Unverified()
	}

	robots, robotsOK := verified(types.CheckRobots)
	llms, llmsOK := verified(types.CheckLlms)
	schema, schemaOK := verified(types.CheckSchema)
	meta, metaOK := verified(types.CheckMeta)
	content, contentOK := verified(types.CheckContent)

	// robots.txt
	if robotsOK {
		if blocked := stringsDetail(robots, "blocked_citation_bots"); len(blocked) > 0 {
			add("Unblock citation bots in robots.txt (%s): they fetch pages to cite them in AI answers", strings.Join(blocked, ", "))
		}
	}
	switch {
	case !robotsOK:
		add("Could not verify robots.txt; re-run the audit when %s/robots.txt is reachable", url)
	case robots.Status == types.StatusAbsent:
		add("Create /robots.txt that explicitly allows the AI citation bots")
	}

	// llms.txt
	switch {
	case !llmsOK:
		add("Could not verify llms.txt; re-run the audit when %s/llms.txt is reachable", url)
	case llms.Status == types.StatusAbsent:
		add("Generate llms.txt: geo llms --base-url %s --output llms.txt, then publish it at /llms.txt", url)
	default:
		if !boolDetail(llms, "has_h1") {
			add("Start llms.txt with a '# Site Name' heading")
		}
		if !boolDetail(llms, "has_description_blockquote") {
			add("Add a '> one-line description' right after the llms.txt heading")
		}
		if intDetail(llms, "section_count") == 0 {
			add("Group llms.txt links under '## Section' headings")
		}
		if intDetail(llms, "link_count") < 5 {
			add("List at least 5 key pages as [title](url) links in llms.txt")
		}
	}

	// Structured data
	if !schemaOK {
		add("Could not verify JSON-LD schema; the homepage did not return a readable page")
	} else {
		if !boolDetail(schema, "has_faq") {
			add("Add FAQPage JSON-LD schema with frequently asked questions")
		}
		if !boolDetail(schema, "has_website") {
			add("Add WebSite JSON-LD schema")
		}
	}

	// Content signals
	if contentOK {
		if intDetail(content, "external_citation_count") < 3 {
			add("Cite authoritative sources with at least 3 external links")
		}
		if intDetail(content, "statistic_count") < 5 {
			add("Add concrete numbers and statistics (at least 5) to the page content")
		}
	}

	// Meta tags
	if !metaOK {
		add("Could not verify meta tags; the homepage did not return a readable page")
	} else {
		if !boolDetail(meta, "has_description") {
			add("Add a meta description")
		}
		if !boolDetail(meta, "has_title") {
			add("Add a descriptive <title>")
		}
		if !boolDetail(meta, "has_canonical") {
			add("Add a <link rel=\"canonical\"> tag")
		}
		if !boolDetail(meta, "has_og_title") || !boolDetail(meta, "has_og_description") {
			add("Add Open Graph og:title and og:description tags")
		}
	}

	if !contentOK {
		add("Could not verify page content; the homepage did not return a readable page")
	} else if !boolDetail(content, "has_h1") {
		add("Add a single clear <h1> heading")
	}

	// Informational
	if robotsOK {
		if missing := stringsDetail(robots, "unconfigured_citation_bots"); len(missing) > 0 {
			add("Name the citation bots explicitly in robots.txt (%s); they are currently allowed only by default", strings.Join(missing, ", "))
		}
	}
	if schemaOK && !boolDetail(schema, "has_webapp") {
		add("Consider WebApplication JSON-LD schema if the site offers online tools")
	}
	return recs
}

func boolDetail(c types.CheckResult, key string) bool {
	v, _ := c.Details[key].(bool)
	return v
}

func intDetail(c types.CheckResult, key string) int {
	v, _ := c.Details[key].(int)
	return v
}

func stringsDetail(c types.CheckResult, key string) []string {
	v, _ := c.Details[key].([]string)
	return v
}
