package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var ErrUnknownTemplate = errors.New("unknown schema template")

var placeholderPattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Templates keyed by the name used on the command line. Kept as JSON so each
// use decodes a fresh copy.
var templates = map[string]string{
	"website": `{
		"@context": "https://schema.org",
		"@type": "WebSite",
		"name": "{{name}}",
		"url": "{{url}}",
		"description": "{{description}}",
		"potentialAction": {
			"@type": "SearchAction",
			"target": {"@type": "EntryPoint", "urlTemplate": "{{url}}/search?q={search_term_string}"},
			"query-input": "required name=search_term_string"
		}
	}`,
	"webapp": `{
		"@context": "https://schema.org",
		"@type": "WebApplication",
		"name": "{{name}}",
		"url": "{{url}}",
		"description": "{{description}}",
		"applicationCategory": "UtilityApplication",
		"operatingSystem": "Web",
		"browserRequirements": "Requires JavaScript",
		"offers": {"@type": "Offer", "price": "0", "priceCurrency": "USD"},
		"author": {"@type": "Organization", "name": "{{author}}"}
	}`,
	"faq": `{
		"@context": "https://schema.org",
		"@type": "FAQPage",
		"mainEntity": [
			{"@type": "Question", "name": "How does this tool work?", "acceptedAnswer": {"@type": "Answer", "text": "Enter the required data and get the result instantly."}},
			{"@type": "Question", "name": "Is the service free?", "acceptedAnswer": {"@type": "Answer", "text": "Yes, all tools are completely free to use."}}
		]
	}`,
	"article": `{
		"@context": "https://schema.org",
		"@type": "Article",
		"headline": "{{title}}",
		"description": "{{description}}",
		"url": "{{url}}",
		"datePublished": "{{date_published}}",
		"dateModified": "{{date_modified}}",
		"author": {"@type": "Person", "name": "{{author}}"},
		"publisher": {"@type": "Organization", "name": "{{publisher}}", "logo": {"@type": "ImageObject", "url": "{{logo_url}}"}}
	}`,
	"organization": `{
		"@context": "https://schema.org",
		"@type": "Organization",
		"name": "{{name}}",
		"url": "{{url}}",
		"description": "{{description}}",
		"logo": "{{logo_url}}",
		"sameAs": []
	}`,
	"breadcrumb": `{
		"@context": "https://schema.org",
		"@type": "BreadcrumbList",
		"itemListElement": [{"@type": "ListItem", "position": 1, "name": "Home", "item": "{{url}}"}]
	}`,
}

// Schema.org type produced by each template.
var templateTypes = map[string]string{
	"website":      "WebSite",
	"webapp":       "WebApplication",
	"faq":          "FAQPage",
	"article":      "Article",
	"organization": "Organization",
	"breadcrumb":   "BreadcrumbList",
}

func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Returns the schema.org type a template produces.
func TemplateType(name string) (string, bool) {
	t, ok := templateTypes[name]
	return t, ok
}

// Builds a block from a named template, replacing {{key}} placeholders in
// every string. Placeholders without a value become empty.
func FromTemplate(name string, values map[string]string) (map[string]any, error) {
	raw, ok := templates[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownTemplate, name, strings.Join(TemplateNames(), ", "))
	}
	var block map[string]any
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	return fill(block, values).(map[string]any), nil
}

func fill(value any, values map[string]string) any {
	switch v := value.(type) {
	case string:
		return placeholderPattern.ReplaceAllStringFunc(v, func(match string) string {
			return values[match[2:len(match)-2]]
		})
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = fill(item, values)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = fill(item, values)
		}
		return out
	}
	return value
}

// One question and answer of an FAQPage.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Builds an FAQPage block; items without a question are skipped.
func FAQ(items []FAQItem) map[string]any {
	entities := make([]any, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Question) == "" {
			continue
		}
		entities = append(entities, map[string]any{
			"@type": "Question",
			"name":  item.Question,
			"acceptedAnswer": map[string]any{
				"@type": "Answer",
				"text":  item.Answer,
			},
		})
	}
	return map[string]any{
		"@context":   "https://schema.org",
		"@type":      "FAQPage",
		"mainEntity": entities,
	}
}

// Reads FAQ items from JSON: a list or {"faqs": [...]}, with question/answer
// or q/a keys.
func ParseFAQ(data []byte) ([]FAQItem, error) {
	type rawItem struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
		Q        string `json:"q"`
		A        string `json:"a"`
	}
	var list []rawItem
	if err := json.Unmarshal(data, &list); err != nil {
		var wrapped struct {
			FAQs *[]rawItem `json:"faqs"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil || wrapped.FAQs == nil {
			return nil, errors.New(`unrecognized FAQ format: use [{"question": ..., "answer": ...}]`)
		}
		list = *wrapped.FAQs
	}

	items := make([]FAQItem, 0, len(list))
	for _, item := range list {
		question, answer := item.Question, item.Answer
		if question == "" {
			question = item.Q
		}
		if answer == "" {
			answer = item.A
		}
		items = append(items, FAQItem{Question: question, Answer: answer})
	}
	return items, nil
}

// Renders a block as an indented <script type="application/ld+json"> tag.
func ToHTMLTag(block map[string]any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(block); err != nil {
		return "", fmt.Errorf("failed to encode JSON-LD: %w", err)
	}
	// Escapes "</" so string values cannot close the script element.
	body := strings.ReplaceAll(strings.TrimRight(buf.String(), "\n"), "</", `<\/`)
	return "<script type=\"" + jsonLDType + "\">\n" + body + "\n</script>", nil
}
