package llmstxt

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gobwas/glob"
	"github.com/kennygrant/sanitize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	bloomfilter "github.com/geo-optimizer/geo/internal/pkg/filter"
	"github.com/geo-optimizer/geo/internal/pkg/pool"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

const (
	DefaultMaxPerSection = 20
	defaultTitleWorkers  = 4
	optionalPerCategory  = 5

	homepageCategory = "_homepage"
	mainPages        = "Main Pages"
	otherPages       = "Other"
)

// Path patterns, first match wins.
var categoryPatterns = []struct {
	pattern  string
	category string
}{
	{"*/blog/*", "Blog & Articles"},
	{"*/article*", "Articles"},
	{"*/post/*", "Posts"},
	{"*/finance/*", "Finance Tools"},
	{"*/health/*", "Health & Wellness"},
	{"*/math/*", "Math"},
	{"*/calcul*", "Calculators"},
	{"*/tool*", "Tools"},
	{"*/app/*", "Applications"},
	{"*/{doc,docs}/*", "Documentation"},
	{"*/guide/*", "Guides"},
	{"*/tutorial*", "Tutorials"},
	{"*/product*", "Products"},
	{"*/service*", "Services"},
	{"*/about*", "About"},
	{"*/contact*", "Contact"},
	{"*/privacy*", "Privacy & Legal"},
	{"*/terms*", "Terms"},
}

// Paths that never belong in llms.txt.
var defaultSkipPatterns = []string{
	"*/wp-*",
	"*/admin*",
	"*/login*",
	"*/logout*",
	"*/register*",
	"*/cart*",
	"*/checkout*",
	"*/account*",
	"*/user/*",
	"*.{xml,json,rss,atom,pdf,jpg,png,css,js}",
	"*/tag/*",
	"*/category/*/page/*",
	"*/page/[0-9]*",
}

var sectionPriorityOrder = []string{
	"Tools",
	"Calculators",
	"Finance Tools",
	"Health & Wellness",
	"Math",
	"Applications",
	mainPages,
	"Documentation",
	"Guides",
	"Tutorials",
	"Blog & Articles",
	"Articles",
	"Posts",
	"Products",
	"Services",
	"About",
	"Contact",
	otherPages,
	"Privacy & Legal",
	"Terms",
}

// Listed under "## Optional", which readers with short context may skip.
var optionalCategories = map[string]bool{
	"Privacy & Legal": true,
	"Terms":           true,
	"Contact":         true,
	otherPages:        true,
}

var (
	compiledCategories = compileCategories()
	compiledSkips      = mustCompileAll(defaultSkipPatterns)
)

type compiledCategory struct {
	matcher  glob.Glob
	category string
}

func compileCategories() []compiledCategory {
	compiled := make([]compiledCategory, 0, len(categoryPatterns))
	for _, p := range categoryPatterns {
		compiled = append(compiled, compiledCategory{matcher: glob.MustCompile(p.pattern), category: p.category})
	}
	return compiled
}

func mustCompileAll(patterns []string) []glob.Glob {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, glob.MustCompile(p))
	}
	return compiled
}

// Generation settings.
type GenerateOptions struct {
	SiteName      string
	Description   string
	MaxPerSection int
	Skip          []string // extra glob patterns matched against the lowercased path
	FetchTitles   bool
	Fetcher       Fetcher // required when FetchTitles is set
	Workers       int
}

type entry struct {
	url   string
	label string
}

// Builds llms.txt from sitemap entries: highest priority first, same domain
// only, skip patterns applied, duplicates removed, grouped into sections.
func Generate(ctx context.Context, baseURL string, urls []SitemapURL, opts GenerateOptions) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil || base.Hostname() == "" {
		return "", fmt.Errorf("%w: %q", utils.ErrInvalidURL, baseURL)
	}
	domain := strings.TrimPrefix(strings.ToLower(base.Hostname()), "www.")
	if opts.MaxPerSection <= 0 {
		opts.MaxPerSection = DefaultMaxPerSection
	}
	siteName := opts.SiteName
	if siteName == "" {
		siteName = siteNameFromHost(domain)
	}
	description := opts.Description
	if description == "" {
		description = fmt.Sprintf("Website %s available at %s", siteName, baseURL)
	}

	skips := compiledSkips
	for _, pattern := range opts.Skip {
		matcher, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return "", fmt.Errorf("invalid skip pattern %q: %w", pattern, err)
		}
		skips = append(skips[:len(skips):len(skips)], matcher)
	}

	sorted := make([]SitemapURL, len(urls))
	copy(sorted, urls)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })

	seen := bloomfilter.NewURLFilter(len(sorted)*2+16, 0.0001)
	categorized := make(map[string][]*entry)
	for _, item := range sorted {
		resolved := resolveLoc(base, item.URL)
		if resolved == "" || !utils.BelongsToDomain(resolved, domain) {
			continue
		}
		parsed, err := url.Parse(resolved)
		if err != nil {
			continue
		}
		path := strings.ToLower(parsed.Path)
		if matchesAny(skips, path) {
			continue
		}
		if seen.CheckAndMark(resolved) {
			continue
		}

		category := categorize(path)
		categorized[category] = append(categorized[category], &entry{
			url:   resolved,
			label: cleanLabel(item.Title),
		})
	}

	homepage, main, optional := layout(categorized, opts.MaxPerSection)

	if opts.FetchTitles && opts.Fetcher != nil {
		var pending []*entry
		for _, group := range [][]*entry{homepage, flatten(main), flatten(optional)} {
			for _, e := range group {
				if e.label == "" {
					pending = append(pending, e)
				}
			}
		}
		if err := fetchTitles(ctx, opts.Fetcher, opts.Workers, pending); err != nil {
			return "", err
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", siteName)
	fmt.Fprintf(&b, "> %s\n\n", description)
	if len(homepage) > 0 {
		fmt.Fprintf(&b, "The main homepage is available at: [%s](%s)\n\n", siteName, homepage[0].url)
	}
	for _, s := range main {
		fmt.Fprintf(&b, "## %s\n\n", s.name)
		for _, e := range s.entries {
			fmt.Fprintf(&b, "- [%s](%s)\n", labelFor(e), e.url)
		}
		b.WriteString("\n")
	}
	if len(optional) > 0 {
		b.WriteString("## Optional\n\n")
		for _, s := range optional {
			for _, e := range s.entries {
				fmt.Fprintf(&b, "- [%s](%s): %s\n", labelFor(e), e.url, s.name)
			}
		}
		b.WriteString("\n")
	}
	return b.String(), nil
}

// The llms.txt to publish when a site has no sitemap.
func Minimal(baseURL, siteName, description string) string {
	baseURL = strings.TrimRight(baseURL, "/")
	if siteName == "" {
		host, err := utils.SiteHost(baseURL)
		if err == nil {
			siteName = siteNameFromHost(host)
		}
	}
	if description == "" {
		description = "Website available at " + baseURL
	}
	return fmt.Sprintf("# %s\n\n> %s\n\n## %s\n\n- [Homepage](%s)\n", siteName, description, mainPages, baseURL)
}

type section struct {
	name    string
	entries []*entry
}

// Orders sections and applies the per-section caps.
func layout(categorized map[string][]*entry, maxPerSection int) ([]*entry, []section, []section) {
	var homepage []*entry
	if items := categorized[homepageCategory]; len(items) > 0 {
		homepage = items[:1]
	}

	ordered := make([]string, 0, len(categorized))
	known := make(map[string]bool, len(sectionPriorityOrder))
	for _, name := range sectionPriorityOrder {
		known[name] = true
		if len(categorized[name]) > 0 {
			ordered = append(ordered, name)
		}
	}
	var remaining []string
	for name := range categorized {
		if !known[name] && name != homepageCategory {
			remaining = append(remaining, name)
		}
	}
	sort.Strings(remaining)
	ordered = append(ordered, remaining...)

	var main, optional []section
	for _, name := range ordered {
		items := categorized[name]
		if optionalCategories[name] {
			optional = append(optional, section{name: name, entries: items[:min(len(items), optionalPerCategory)]})
			continue
		}
		main = append(main, section{name: name, entries: items[:min(len(items), maxPerSection)]})
	}
	return homepage, main, optional
}

func flatten(sections []section) []*entry {
	var out []*entry
	for _, s := range sections {
		out = append(out, s.entries...)
	}
	return out
}

// Fills labels from page titles, a few pages at a time.
func fetchTitles(ctx context.Context, f Fetcher, workers int, pending []*entry) error {
	if len(pending) == 0 {
		return nil
	}
	if workers <= 0 {
		workers = defaultTitleWorkers
	}
	workerPool, err := pool.NewWorkerPool(workers)
	if err != nil {
		return err
	}
	defer workerPool.Shutdown()

	slog.Info("Generator: fetching page titles", "pages", len(pending), "workers", workers)
	return workerPool.RunAll(ctx, len(pending), func(ctx context.Context, i int) {
		outcome := f.Fetch(ctx, pending[i].url)
		if !outcome.OK() {
			slog.Debug("Generator: no title", "url", pending[i].url, "reason", outcome.Reason())
			return
		}
		pending[i].label = cleanLabel(extractTitle(outcome.Body))
	})
}

// Extracts the page <title>, falling back to the first <h1>.
func extractTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// Strips markup and characters that would break a Markdown link label.
func cleanLabel(label string) string {
	if label == "" {
		return ""
	}
	label = sanitize.HTML(label)
	label = strings.NewReplacer("[", "(", "]", ")", "\n", " ", "\r", " ").Replace(label)
	return strings.Join(strings.Fields(label), " ")
}

func labelFor(e *entry) string {
	if e.label != "" {
		return e.label
	}
	return labelFromURL(e.url)
}

func matchesAny(matchers []glob.Glob, path string) bool {
	for _, matcher := range matchers {
		if matcher.Match(path) {
			return true
		}
	}
	return false
}

// Assigns a lowercased path to a section.
func categorize(path string) string {
	for _, c := range compiledCategories {
		if c.matcher.Match(path) {
			return c.category
		}
	}
	if path == "" || path == "/" {
		return homepageCategory
	}
	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 1 {
		return mainPages
	}
	return otherPages
}

// Turns the last path segment into a title: "/blog/my-first-post" becomes
// "My First Post". Purely numeric segments keep their parent for context.
func labelFromURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return "Homepage"
	}
	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]
	if isDigits(last) && len(segments) > 1 {
		last = strings.Join(segments[len(segments)-2:], "/")
	}
	label := titleCase(strings.NewReplacer("-", " ", "_", " ").Replace(last))
	if label == "" {
		return path
	}
	return label
}

// Casers keep state, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// "www.my-site.com" becomes "My-Site".
func siteNameFromHost(host string) string {
	host = strings.TrimPrefix(host, "www.")
	first, _, _ := strings.Cut(host, ".")
	return titleCase(first)
}
