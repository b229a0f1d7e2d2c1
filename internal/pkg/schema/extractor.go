package schema

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/antchfx/htmlquery"
)

const jsonLDType = "application/ld+json"

// One JSON-LD object found on a page.
type Block struct {
	Types       []string
	Data        map[string]any
	Raw         string
	IsValidJSON bool
}

// Every JSON-LD block of a page, duplicates removed.
type Extraction struct {
	Blocks     []Block
	Duplicates int
	Warnings   []string
}

// Checks if any valid block declares the type. Types are case-sensitive.
func (e Extraction) Has(schemaType string) bool {
	for _, block := range e.Blocks {
		for _, t := range block.Types {
			if t == schemaType {
				return true
			}
		}
	}
	return false
}

// Returns the distinct declared types, sorted.
func (e Extraction) Types() []string {
	seen := make(map[string]bool)
	types := []string{}
	for _, block := range e.Blocks {
		for _, t := range block.Types {
			if !seen[t] {
				seen[t] = true
				types = append(types, t)
			}
		}
	}
	sort.Strings(types)
	return types
}

func (e Extraction) InvalidCount() int {
	n := 0
	for _, block := range e.Blocks {
		if !block.IsValidJSON {
			n++
		}
	}
	return n
}

// Finds and decodes every <script type="application/ld+json"> of a page.
// A script that fails to decode becomes an invalid block and a warning; the
// other scripts still count.
func Extract(body string) Extraction {
	var extraction Extraction
	doc, err := htmlquery.Parse(strings.NewReader(body))
	if err != nil {
		extraction.Warnings = append(extraction.Warnings, fmt.Sprintf("could not parse HTML: %v", err))
		return extraction
	}

	seen := make(map[string]bool)
	index := 0
	for _, node := range htmlquery.Find(doc, "//script[@type]") {
		if !isJSONLD(htmlquery.SelectAttr(node, "type")) {
			continue
		}
		index++
		raw := strings.TrimSpace(htmlquery.InnerText(node))

		var decoded any
		if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
			extraction.Blocks = append(extraction.Blocks, Block{Raw: raw})
			extraction.Warnings = append(extraction.Warnings, fmt.Sprintf("JSON-LD script %d is not valid JSON: %v", index, err))
			continue
		}

		for _, object := range objects(decoded, index, &extraction.Warnings) {
			block := Block{Types: typesOf(object), Data: object, Raw: raw, IsValidJSON: true}
			key := dedupeKey(block)
			if seen[key] {
				extraction.Duplicates++
				extraction.Warnings = append(extraction.Warnings, fmt.Sprintf("duplicate JSON-LD block %s in script %d", describe(block), index))
				continue
			}
			seen[key] = true
			if len(block.Types) > 0 {
				if err := Validate(object, "", false); err != nil {
					extraction.Warnings = append(extraction.Warnings, fmt.Sprintf("JSON-LD block %s: %v", describe(block), err))
				}
			}
			extraction.Blocks = append(extraction.Blocks, block)
		}
	}
	return extraction
}

func isJSONLD(scriptType string) bool {
	mediaType, _, _ := strings.Cut(scriptType, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), jsonLDType)
}

// Flattens a decoded script into objects: top-level arrays and @graph arrays
// yield one object per element. Graph members inherit the wrapper's @context.
func objects(decoded any, index int, warnings *[]string) []map[string]any {
	var out []map[string]any
	switch value := decoded.(type) {
	case map[string]any:
		graph, isGraph := value["@graph"].([]any)
		if !isGraph {
			return []map[string]any{value}
		}
		if _, hasType := value["@type"]; hasType {
			out = append(out, value)
		}
		for _, member := range graph {
			object, ok := member.(map[string]any)
			if !ok {
				*warnings = append(*warnings, fmt.Sprintf("JSON-LD script %d: ignoring non-object @graph member", index))
				continue
			}
			if _, ok := object["@context"]; !ok && value["@context"] != nil {
				object["@context"] = value["@context"]
			}
			out = append(out, object)
		}
	case []any:
		for _, item := range value {
			out = append(out, objects(item, index, warnings)...)
		}
	default:
		*warnings = append(*warnings, fmt.Sprintf("JSON-LD script %d: expected an object, got %T", index, decoded))
	}
	return out
}

// Reads "@type" as a string or an array of strings.
func typesOf(object map[string]any) []string {
	switch value := object["@type"].(type) {
	case string:
		if value = strings.TrimSpace(value); value != "" {
			return []string{value}
		}
	case []any:
		var types []string
		for _, item := range value {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				types = append(types, strings.TrimSpace(s))
			}
		}
		return types
	}
	return nil
}

func dedupeKey(block Block) string {
	types := append([]string(nil), block.Types...)
	sort.Strings(types)
	return strings.Join(types, ",") + "|" + stringField(block.Data, "url") + "|" + stringField(block.Data, "name")
}

func stringField(object map[string]any, key string) string {
	if s, ok := object[key].(string); ok {
		return s
	}
	return ""
}

func describe(block Block) string {
	if len(block.Types) == 0 {
		return "(untyped)"
	}
	return strings.Join(block.Types, "/")
}
