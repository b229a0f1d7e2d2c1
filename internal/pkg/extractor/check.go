package extractor

import (
	"fmt"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

const (
	MetaMaxScore    = 20
	metaTagPoints   = 5
	ContentMaxScore = 15
	h1Points        = 4
	statisticPoints = 6
	citationPoints  = 5

	// Thresholds for the content points.
	MinStatistics = 5
	MinCitations  = 3
)

// Extracts meta and content signals from one HTML document.
func Analyze(body, siteURL string) (types.MetaTagSignals, types.ContentSignals, error) {
	meta, err := ExtractMeta(body)
	if err != nil {
		return types.MetaTagSignals{}, types.ContentSignals{}, err
	}
	content, err := ExtractContent(body, siteURL)
	if err != nil {
		return types.MetaTagSignals{}, types.ContentSignals{}, err
	}
	return meta, content, nil
}

func unverified(name string, maxScore int, homepage types.FetchOutcome) types.CheckResult {
	return types.CheckResult{
		Name:     name,
		MaxScore: maxScore,
		Status:   types.StatusUnverified,
		Details:  map[string]any{},
		Message:  "could not verify " + name + ": homepage " + homepage.Reason(),
	}
}

// Scores head tags: title, description, canonical and the og:title plus
// og:description pair, 5 points each.
func AnalyzeMeta(meta types.MetaTagSignals, homepage types.FetchOutcome) types.CheckResult {
	if !homepage.OK() {
		return unverified(types.CheckMeta, MetaMaxScore, homepage)
	}
	result := types.CheckResult{
		Name:     types.CheckMeta,
		MaxScore: MetaMaxScore,
		Status:   types.StatusOK,
		Passed:   meta.HasTitle && meta.HasDescription,
	}
	present := 0
	for _, ok := range []bool{meta.HasTitle, meta.HasDescription, meta.HasCanonical, meta.HasOGTitle && meta.HasOGDescription} {
		if ok {
			result.Score += metaTagPoints
			present++
		}
	}
	result.Details = map[string]any{
		"has_title":          meta.HasTitle,
		"title":              meta.Title,
		"title_length":       len([]rune(meta.Title)),
		"has_description":    meta.HasDescription,
		"description_length": len([]rune(meta.Description)),
		"has_canonical":      meta.HasCanonical,
		"canonical_url":      meta.CanonicalURL,
		"has_og_title":       meta.HasOGTitle,
		"has_og_description": meta.HasOGDescription,
		"has_og_image":       meta.HasOGImage,
	}
	if meta.HasOGTitle != meta.HasOGDescription {
		result.Warnings = append(result.Warnings, "Open Graph needs both og:title and og:description")
	}
	result.Message = fmt.Sprintf("%d of 4 meta signals present", present)
	return result
}

// Scores body content: an H1, enough statistics and enough outbound citations.
func AnalyzeContent(content types.ContentSignals, homepage types.FetchOutcome) types.CheckResult {
	if !homepage.OK() {
		return unverified(types.CheckContent, ContentMaxScore, homepage)
	}
	result := types.CheckResult{
		Name:     types.CheckContent,
		MaxScore: ContentMaxScore,
		Status:   types.StatusOK,
		Passed:   content.HasH1,
	}
	if content.HasH1 {
		result.Score += h1Points
	}
	if content.StatisticCount >= MinStatistics {
		result.Score += statisticPoints
	}
	if content.ExternalCitationCount >= MinCitations {
		result.Score += citationPoints
	}

	links := content.ExternalLinks
	if links == nil {
		links = []string{}
	}
	result.Details = map[string]any{
		"has_h1":                  content.HasH1,
		"h1_text":                 content.H1Text,
		"heading_count":           content.HeadingCount,
		"statistic_count":         content.StatisticCount,
		"external_citation_count": content.ExternalCitationCount,
		"external_links":          links,
		"word_count":              content.WordCount,
	}
	result.Message = fmt.Sprintf("%d words, %d statistics, %d external citations", content.WordCount, content.StatisticCount, content.ExternalCitationCount)
	return result
}
