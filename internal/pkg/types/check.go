package types

import (
	"encoding/json"
	"time"
)

// Check names, in report order.
const (
	CheckRobots  = "robots_txt"
	CheckLlms    = "llms_txt"
	CheckSchema  = "schema_jsonld"
	CheckMeta    = "meta_tags"
	CheckContent = "content"
)

// CheckNames lists every check the audit produces, in report order.
var CheckNames = []string{CheckRobots, CheckLlms, CheckSchema, CheckMeta, CheckContent}

// Tells a real result apart from a zero caused by missing or unreachable input.
type CheckStatus string

const (
	StatusOK         CheckStatus = "ok"
	StatusAbsent     CheckStatus = "absent"
	StatusUnverified CheckStatus = "unverified"
)

// Output unit of one analyzer stage.
type CheckResult struct {
	Name     string         `json:"-"`
	Score    int            `json:"score"`
	MaxScore int            `json:"max"`
	Passed   bool           `json:"passed"`
	Status   CheckStatus    `json:"-"`
	Details  map[string]any `json:"-"`
	Message  string         `json:"-"`
	Warnings []string       `json:"-"`
}

// Reports whether the check could not be evaluated.
func (c CheckResult) Unverified() bool {
	return c.Status == StatusUnverified
}

// Renders {score, max, passed, details}; status, message and warnings travel in details.
func (c CheckResult) MarshalJSON() ([]byte, error) {
	details := make(map[string]any, len(c.Details)+3)
	for k, v := range c.Details {
		details[k] = v
	}
	details["status"] = c.Status
	details["message"] = c.Message
	warnings := c.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	details["warnings"] = warnings

	return json.Marshal(struct {
		Score   int            `json:"score"`
		Max     int            `json:"max"`
		Passed  bool           `json:"passed"`
		Details map[string]any `json:"details"`
	}{c.Score, c.MaxScore, c.Passed, details})
}

// Qualitative label derived from the score.
type Band string

const (
	BandCritical  Band = "critical"
	BandFair      Band = "fair"
	BandGood      Band = "good"
	BandExcellent Band = "excellent"
)

// Top-level artifact of one audit run. Built once, never mutated.
type AuditResult struct {
	URL             string                 `json:"url"`
	Timestamp       time.Time              `json:"timestamp"`
	Score           int                    `json:"score"`
	Band            Band                   `json:"band"`
	Checks          map[string]CheckResult `json:"checks"`
	Recommendations []string               `json:"recommendations"`

	// Metadata, never part of the score or the JSON document.
	HTTPStatus int    `json:"-"`
	PageSize   int    `json:"-"`
	RunID      string `json:"-"`
}

// Returns checks in report order, skipping any that are absent from the map.
func (r AuditResult) OrderedChecks() []CheckResult {
	ordered := make([]CheckResult, 0, len(r.Checks))
	for _, name := range CheckNames {
		if c, ok := r.Checks[name]; ok {
			ordered = append(ordered, c)
		}
	}
	return ordered
}
