package schema

import (
	"fmt"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

const (
	MaxScore             = 25
	websitePoints        = 10
	faqPoints            = 10
	webApplicationPoints = 5

	TypeWebSite        = "WebSite"
	TypeFAQPage        = "FAQPage"
	TypeWebApplication = "WebApplication"
)

// Scores the JSON-LD found on the homepage. Without a 200 homepage there is
// nothing to inspect, so the check is unverified.
func Analyze(extraction Extraction, homepage types.FetchOutcome) types.CheckResult {
	result := types.CheckResult{
		Name:     types.CheckSchema,
		MaxScore: MaxScore,
		Details:  map[string]any{"found_types": []string{}},
	}
	if !homepage.OK() {
		result.Status = types.StatusUnverified
		result.Message = "could not verify structured data: homepage " + homepage.Reason()
		return result
	}

	hasWebSite := extraction.Has(TypeWebSite)
	hasFAQ := extraction.Has(TypeFAQPage)
	hasWebApp := extraction.Has(TypeWebApplication)
	if hasWebSite {
		result.Score += websitePoints
	}
	if hasFAQ {
		result.Score += faqPoints
	}
	if hasWebApp {
		result.Score += webApplicationPoints
	}
	result.Passed = hasWebSite && hasFAQ

	found := extraction.Types()
	result.Details = map[string]any{
		"found_types":     found,
		"has_website":     hasWebSite,
		"has_faq":         hasFAQ,
		"has_webapp":      hasWebApp,
		"block_count":     len(extraction.Blocks),
		"invalid_blocks":  extraction.InvalidCount(),
		"duplicate_count": extraction.Duplicates,
	}
	result.Warnings = append(result.Warnings, extraction.Warnings...)

	if len(extraction.Blocks) == 0 {
		result.Status = types.StatusAbsent
		result.Message = "no JSON-LD structured data found"
		return result
	}
	result.Status = types.StatusOK
	if len(found) == 0 {
		result.Message = fmt.Sprintf("%d JSON-LD blocks, no usable @type", len(extraction.Blocks))
	} else {
		result.Message = "JSON-LD types: " + strings.Join(found, ", ")
	}
	return result
}
