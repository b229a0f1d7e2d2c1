package robots

import (
	"fmt"
	"log/slog"

	"github.com/geo-optimizer/geo/internal/pkg/types"
)

const (
	MaxScore       = 20
	foundPoints    = 5
	citationPoints = 15
)

// Per-bot entry of the check details.
type BotDetail struct {
	Status string `json:"status"`
	Kind   Kind   `json:"kind"`
	Owner  string `json:"owner"`
}

// Scores a fetched robots.txt against the catalog.
func Analyze(outcome types.FetchOutcome, catalog Catalog) types.CheckResult {
	result := types.CheckResult{
		Name:     types.CheckRobots,
		MaxScore: MaxScore,
		Details:  map[string]any{"found": false},
	}

	if !outcome.OK() {
		if outcome.Missing() {
			result.Status = types.StatusAbsent
			result.Message = "robots.txt not found (" + outcome.Reason() + ")"
		} else {
			result.Status = types.StatusUnverified
			result.Message = "could not fetch robots.txt: " + outcome.Reason()
		}
		return result
	}

	rs := Parse(outcome.Body)
	statuses := ClassifyAll(rs, catalog)
	result.Status = types.StatusOK
	result.Score = foundPoints
	result.Warnings = append(result.Warnings, rs.Warnings...)

	var (
		bots          = make(map[string]BotDetail, len(statuses))
		allowed       = []string{}
		disallowed    = []string{}
		missing       = []string{}
		blocked       = []string{}
		unconfigured  = []string{}
		citationTotal int
		citationOK    int
	)
	for _, s := range statuses {
		bots[s.Bot.Name] = BotDetail{Status: s.Label(), Kind: s.Bot.Kind, Owner: s.Bot.Owner}
		switch s.Status {
		case StatusAllowed:
			allowed = append(allowed, s.Bot.Name)
		case StatusDisallowed:
			disallowed = append(disallowed, s.Bot.Name)
		case StatusMissing:
			missing = append(missing, s.Bot.Name)
		}
		if s.Bot.Kind != KindCitation {
			continue
		}
		citationTotal++
		if s.Status == StatusMissing {
			unconfigured = append(unconfigured, s.Bot.Name)
		}
		if s.Allowed() {
			citationOK++
		} else {
			blocked = append(blocked, s.Bot.Name)
		}
	}
	if citationTotal > 0 {
		result.Score += citationPoints * citationOK / citationTotal
	} else {
		result.Score += citationPoints
	}
	result.Passed = len(blocked) == 0

	directives, err := ReadDirectives(outcome.Body, "*")
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
	}
	sitemaps := directives.Sitemaps
	if sitemaps == nil {
		sitemaps = []string{}
	}

	result.Details = map[string]any{
		"found":                      true,
		"bots":                       bots,
		"allowed":                    allowed,
		"disallowed":                 disallowed,
		"missing":                    missing,
		"citation_bots_ok":           len(blocked) == 0,
		"blocked_citation_bots":      blocked,
		"unconfigured_citation_bots": unconfigured,
		"sitemaps":                   sitemaps,
		"crawl_delay":                directives.CrawlDelay.Seconds(),
	}
	result.Message = fmt.Sprintf("robots.txt found: %d of %d citation bots allowed", citationOK, citationTotal)
	slog.Debug("Robots: analyzed", "url", outcome.URL, "citation_ok", citationOK, "blocked", blocked)
	return result
}
