package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

// Extracts title, description, canonical and Open Graph tags.
func ExtractMeta(body string) (types.MetaTagSignals, error) {
	var signals types.MetaTagSignals
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return signals, err
	}

	title := doc.Find("head title").First()
	if title.Length() == 0 {
		title = doc.Find("title").First()
	}
	signals.Title = normalizeText(title.Text())
	signals.HasTitle = signals.Title != ""

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content := strings.TrimSpace(s.AttrOr("content", ""))
		if content == "" {
			return
		}
		name := strings.ToLower(strings.TrimSpace(s.AttrOr("name", "")))
		property := strings.ToLower(strings.TrimSpace(s.AttrOr("property", "")))

		switch {
		case name == "description" && !signals.HasDescription:
			signals.HasDescription = true
			signals.Description = content
		case property == "og:title" && !signals.HasOGTitle:
			signals.HasOGTitle = true
			signals.OGTitle = content
		case property == "og:description" && !signals.HasOGDescription:
			signals.HasOGDescription = true
			signals.OGDescription = content
		case property == "og:image" && !signals.HasOGImage:
			signals.HasOGImage = true
			signals.OGImage = content
		}
	})

	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		if href == "" || !hasToken(s.AttrOr("rel", ""), "canonical") {
			return true
		}
		signals.HasCanonical = true
		signals.CanonicalURL = href
		return false
	})
	return signals, nil
}

// Checks if a space-separated attribute such as rel holds a token.
func hasToken(list, token string) bool {
	for _, field := range strings.Fields(list) {
		if strings.EqualFold(field, token) {
			return true
		}
	}
	return false
}
