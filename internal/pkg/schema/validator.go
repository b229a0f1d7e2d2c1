package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidSchema = errors.New("invalid JSON-LD")

var validContexts = []string{"https://schema.org", "http://schema.org"}

// Required keys per schema.org type, keyed by lowercase type name.
var requiredFields = map[string][]string{
	"website":        {"@context", "@type", "url", "name"},
	"webpage":        {"@context", "@type", "url", "name"},
	"organization":   {"@context", "@type", "name", "url"},
	"person":         {"@context", "@type", "name"},
	"faqpage":        {"@context", "@type", "mainEntity"},
	"article":        {"@context", "@type", "headline", "author"},
	"breadcrumblist": {"@context", "@type", "itemListElement"},
	"product":        {"@context", "@type", "name", "description"},
	"localbusiness":  {"@context", "@type", "name", "address"},
	"webapplication": {"@context", "@type", "name", "url"},
}

// Fields holding URLs, checked in strict mode.
var urlFields = []string{"url", "sameAs", "logo", "image"}

// Returns the keys a type must carry; unknown types need only @context and @type.
func RequiredFields(schemaType string) []string {
	if fields, ok := requiredFields[strings.ToLower(schemaType)]; ok {
		return fields
	}
	return []string{"@context", "@type"}
}

// Validates a JSON-LD object. With expectedType set the primary @type must
// match it (case-insensitively) and the type's required fields must exist.
// Strict mode also rejects URL fields that are neither absolute nor rooted.
func Validate(block map[string]any, expectedType string, strict bool) error {
	if block == nil {
		return fmt.Errorf("%w: schema must be an object", ErrInvalidSchema)
	}
	if err := validateContext(block["@context"]); err != nil {
		return err
	}

	var primary string
	switch value := block["@type"].(type) {
	case nil:
		return fmt.Errorf("%w: missing required field: @type", ErrInvalidSchema)
	case string:
		primary = value
	case []any:
		if len(value) > 0 {
			primary, _ = value[0].(string)
		}
	default:
		return fmt.Errorf("%w: @type must be string or array, got %T", ErrInvalidSchema, value)
	}
	if strings.TrimSpace(primary) == "" {
		return fmt.Errorf("%w: @type is empty", ErrInvalidSchema)
	}

	if expectedType != "" {
		if !strings.EqualFold(primary, expectedType) {
			return fmt.Errorf("%w: expected @type %q, got %q", ErrInvalidSchema, expectedType, primary)
		}
		var missing []string
		for _, field := range RequiredFields(expectedType) {
			if _, ok := block[field]; !ok {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing required fields for %s: %s", ErrInvalidSchema, primary, strings.Join(missing, ", "))
		}
	}

	if strict {
		for _, field := range urlFields {
			for _, value := range stringValues(block[field]) {
				if !strings.HasPrefix(value, "http://") && !strings.HasPrefix(value, "https://") && !strings.HasPrefix(value, "/") {
					return fmt.Errorf("%w: invalid URL in %q: %q (must start with http://, https:// or /)", ErrInvalidSchema, field, value)
				}
			}
		}
	}
	return nil
}

// Decodes and validates a JSON-LD document given as text.
func ValidateJSON(raw string, expectedType string, strict bool) error {
	var block map[string]any
	if err := json.Unmarshal([]byte(raw), &block); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrInvalidSchema, err)
	}
	return Validate(block, expectedType, strict)
}

func validateContext(context any) error {
	switch value := context.(type) {
	case nil:
		return fmt.Errorf("%w: missing required field: @context", ErrInvalidSchema)
	case string:
		if !isSchemaOrg(value) {
			return fmt.Errorf("%w: @context must be %q, got %q", ErrInvalidSchema, validContexts[0], value)
		}
	case []any:
		if len(value) == 0 {
			return fmt.Errorf("%w: @context is an empty list", ErrInvalidSchema)
		}
		first, _ := value[0].(string)
		if !isSchemaOrg(first) {
			return fmt.Errorf("%w: @context[0] must be %q, got %v", ErrInvalidSchema, validContexts[0], value[0])
		}
	default:
		return fmt.Errorf("%w: @context must be string or array, got %T", ErrInvalidSchema, value)
	}
	return nil
}

func isSchemaOrg(context string) bool {
	for _, valid := range validContexts {
		if context == valid {
			return true
		}
	}
	return false
}

// Non-empty strings of a string or string-array field.
func stringValues(value any) []string {
	switch v := value.(type) {
	case string:
		if v != "" {
			return []string{v}
		}
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
