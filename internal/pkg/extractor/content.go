package extractor

import (
	"bufio"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/geo-optimizer/geo/internal/pkg/types"
	"github.com/geo-optimizer/geo/internal/pkg/utils"
)

// Currency amounts, then plain numbers with optional decimals, thousands
// separators and a trailing percent sign. Years are plain numbers.
var statisticPattern = regexp.MustCompile(`[$€£¥]\s?\d+(?:[.,]\d+)*|\b\d+(?:[.,]\d+)*%?`)

// Walks the body of a page: headings, visible text, statistics and links to
// other sites.
func ExtractContent(body, siteURL string) (types.ContentSignals, error) {
	signals := types.ContentSignals{ExternalLinks: []string{}}
	base, err := url.Parse(siteURL)
	if err != nil || base.Hostname() == "" {
		return signals, fmt.Errorf("%w: %q", utils.ErrInvalidURL, siteURL)
	}
	siteHost := strings.ToLower(base.Hostname())

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return signals, fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Relative links resolve against <base href> when the page sets one.
	if baseTag := findBaseTag(doc); baseTag != nil {
		base = base.ResolveReference(baseTag)
	}

	var text strings.Builder
	stack := make([]*html.Node, 0, 256)
	stack = append(stack, doc)
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type {
		case html.TextNode:
			if !isNonVisibleParent(node) {
				text.WriteString(node.Data)
				text.WriteByte(' ')
			}
		case html.ElementNode:
			switch node.DataAtom {
			case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
				signals.HeadingCount++
				if node.DataAtom == atom.H1 && !signals.HasH1 {
					signals.HasH1 = true
					signals.H1Text = normalizeText(extractNodeText(node))
				}
			case atom.A:
				processAnchor(node, base, siteHost, &signals)
			}
		}

		for child := node.LastChild; child != nil; child = child.PrevSibling {
			stack = append(stack, child)
		}
	}

	visible := normalizeText(text.String())
	signals.WordCount = len(strings.Fields(visible))
	signals.StatisticCount = len(statisticPattern.FindAllStringIndex(visible, -1))
	return signals, nil
}

// Checks if a text node sits inside an element that never renders.
func isNonVisibleParent(node *html.Node) bool {
	for parent := node.Parent; parent != nil; parent = parent.Parent {
		if parent.Type != html.ElementNode {
			continue
		}
		switch parent.DataAtom {
		case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
			return true
		}
	}
	return false
}

// Counts an anchor as a citation when it leads to another site over http(s).
func processAnchor(node *html.Node, base *url.URL, siteHost string, signals *types.ContentSignals) {
	href := strings.TrimSpace(getAttribute(node, "href"))
	if href == "" {
		return
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return
	}
	resolved := base.ResolveReference(parsed)
	if !isValidScheme(resolved) || resolved.Hostname() == "" {
		return
	}
	if utils.SameSite(strings.ToLower(resolved.Hostname()), siteHost) {
		return
	}
	signals.ExternalCitationCount++
	signals.ExternalLinks = append(signals.ExternalLinks, resolved.String())
}

// Verifies that the URL scheme is either HTTP or HTTPS
func isValidScheme(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

// Retrieves an attribute value case-insensitively
func getAttribute(node *html.Node, attrName string) string {
	for _, attr := range node.Attr {
		if strings.EqualFold(attr.Key, attrName) {
			return attr.Val
		}
	}
	return ""
}

// Locates the first <base href>; later ones are ignored.
func findBaseTag(doc *html.Node) *url.URL {
	stack := make([]*html.Node, 0, 64)
	stack = append(stack, doc)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.Type == html.ElementNode && current.DataAtom == atom.Base {
			href := strings.TrimSpace(getAttribute(current, "href"))
			if href == "" {
				continue
			}
			parsed, err := url.Parse(href)
			if err != nil {
				return nil
			}
			return parsed
		}
		for child := current.LastChild; child != nil; child = child.PrevSibling {
			stack = append(stack, child)
		}
	}
	return nil
}

// Extracts the text below a node in document order.
func extractNodeText(node *html.Node) string {
	var builder strings.Builder
	stack := make([]*html.Node, 0, 32)
	stack = append(stack, node)

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if current.Type == html.TextNode {
			builder.WriteString(current.Data)
			builder.WriteByte(' ')
		}
		for child := current.LastChild; child != nil; child = child.PrevSibling {
			stack = append(stack, child)
		}
	}
	return strings.TrimSpace(builder.String())
}

// Collapses whitespace and drops blank lines.
func normalizeText(text string) string {
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), len(text)+1)
	var builder strings.Builder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			builder.WriteString(line)
			builder.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(builder.String()), " ")
}
