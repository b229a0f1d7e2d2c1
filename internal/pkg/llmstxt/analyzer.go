package llmstxt

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

const (
	MaxScore         = 20
	foundPoints      = 10
	h1Points         = 3
	blockquotePoints = 2
	sectionPoints    = 3
	manyLinksPoints  = 2
	someLinksPoints  = 1
	manyLinksMinimum = 5
	htmlSniffLength  = 512
)

var linkPattern = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)

// Line structure of an llms.txt document.
type Structure struct {
	HasH1          bool
	Title          string
	HasDescription bool
	Description    string
	Sections       []string
	LinkCount      int
	ByteSize       int
	WordCount      int
}

func (s Structure) SectionCount() int {
	return len(s.Sections)
}

// Parses llms.txt text. Pure: identical input gives identical output.
func Parse(body string) Structure {
	body = strings.TrimPrefix(body, "\ufeff")
	s := Structure{
		ByteSize:  len(body),
		WordCount: len(strings.Fields(body)),
		LinkCount: len(linkPattern.FindAllStringIndex(body, -1)),
	}

	nonBlank := 0
	for _, rawLine := range strings.Split(body, "\n") {
		line := strings.TrimRight(rawLine, "\r \t")
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonBlank++
		switch {
		case nonBlank == 1 && strings.HasPrefix(line, "# "):
			s.HasH1 = true
			s.Title = strings.TrimSpace(line[2:])
		case nonBlank == 2 && s.HasH1 && strings.HasPrefix(line, "> "):
			s.HasDescription = true
			s.Description = strings.TrimSpace(line[2:])
		}
		if strings.HasPrefix(line, "## ") {
			s.Sections = append(s.Sections, strings.TrimSpace(line[3:]))
		}
	}
	return s
}

// Checks if a body is an HTML page, as served by SPA catch-all routes.
func looksLikeHTML(body string) bool {
	head := strings.ToLower(strings.TrimSpace(body))
	if len(head) > htmlSniffLength {
		head = head[:htmlSniffLength]
	}
	for _, prefix := range []string{"<!doctype html", "<html", "<head", "<body"} {
		if strings.HasPrefix(head, prefix) {
			return true
		}
	}
	return false
}

// Scores a fetched llms.txt. Only a 200 with real text counts as found.
func Analyze(outcome types.FetchOutcome) types.CheckResult {
	result := types.CheckResult{
		Name:     types.CheckLlms,
		MaxScore: MaxScore,
		Details:  map[string]any{"found": false},
	}

	switch {
	case outcome.Missing():
		result.Status = types.StatusAbsent
		result.Message = "llms.txt not found (" + outcome.Reason() + ")"
		return result
	case !outcome.OK():
		result.Status = types.StatusUnverified
		result.Message = "could not fetch llms.txt: " + outcome.Reason()
		return result
	case strings.TrimSpace(outcome.Body) == "":
		result.Status = types.StatusAbsent
		result.Message = "llms.txt is empty"
		result.Warnings = append(result.Warnings, "llms.txt returned HTTP 200 with an empty body")
		return result
	case looksLikeHTML(outcome.Body):
		result.Status = types.StatusAbsent
		result.Message = "llms.txt serves an HTML page"
		result.Warnings = append(result.Warnings, "llms.txt returned an HTML document, probably a catch-all route")
		return result
	}

	s := Parse(outcome.Body)
	result.Status = types.StatusOK
	result.Score = foundPoints
	if s.HasH1 {
		result.Score += h1Points
	}
	if s.HasDescription {
		result.Score += blockquotePoints
	}
	if s.SectionCount() > 0 {
		result.Score += sectionPoints
	}
	switch {
	case s.LinkCount >= manyLinksMinimum:
		result.Score += manyLinksPoints
	case s.LinkCount > 0:
		result.Score += someLinksPoints
	}
	result.Passed = s.HasH1

	sections := s.Sections
	if sections == nil {
		sections = []string{}
	}
	result.Details = map[string]any{
		"found":                      true,
		"has_h1":                     s.HasH1,
		"title":                      s.Title,
		"has_description_blockquote": s.HasDescription,
		"section_count":              s.SectionCount(),
		"sections":                   sections,
		"link_count":                 s.LinkCount,
		"byte_size":                  s.ByteSize,
		"word_count":                 s.WordCount,
	}
	result.Message = fmt.Sprintf("llms.txt found: %d sections, %d links", s.SectionCount(), s.LinkCount)
	return result
}
