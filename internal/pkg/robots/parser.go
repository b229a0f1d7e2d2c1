package robots

import (
	"fmt"
	"regexp"
	"strings"
)

type Directive string

const (
	Allow    Directive = "allow"
	Disallow Directive = "disallow"
)

const wildcardAgent = "*"

// One Allow or Disallow line.
type Rule struct {
	Directive Directive
	Path      string
	Line      int
}

// Parsed robots.txt. Groups are keyed by the exact User-agent token; an agent
// named in the file has an entry even when its group carries no rules.
type RuleSet struct {
	Groups   map[string][]Rule
	Order    []string
	Warnings []string
}

// Checks if the file names the agent in a User-agent line.
func (rs RuleSet) HasGroup(agent string) bool {
	_, ok := rs.Groups[agent]
	return ok
}

// Parses a robots.txt body. Malformed lines are skipped with a warning.
// Sitemap and Host lines do not end a run of User-agent lines; only a rule does.
func Parse(body string) RuleSet {
	rs := RuleSet{Groups: make(map[string][]Rule)}
	body = strings.TrimPrefix(body, "\ufeff")

	var (
		currentAgents []string
		stacking      bool
	)
	for i, rawLine := range strings.Split(body, "\n") {
		lineNumber := i + 1
		line := rawLine
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		key, value, found := strings.Cut(line, ":")
		if !found {
			rs.Warnings = append(rs.Warnings, fmt.Sprintf("line %d: missing ':' in %q", lineNumber, line))
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "user-agent":
			if !stacking {
				currentAgents = currentAgents[:0]
			}
			stacking = true
			if value == "" {
				rs.Warnings = append(rs.Warnings, fmt.Sprintf("line %d: empty User-agent", lineNumber))
				continue
			}
			if _, exists := rs.Groups[value]; !exists {
				rs.Groups[value] = []Rule{}
				rs.Order = append(rs.Order, value)
			}
			currentAgents = append(currentAgents, value)
		case "allow", "disallow":
			stacking = false
			if len(currentAgents) == 0 {
				rs.Warnings = append(rs.Warnings, fmt.Sprintf("line %d: %s before any User-agent ignored", lineNumber, key))
				continue
			}
			rule := Rule{Directive: Directive(key), Path: value, Line: lineNumber}
			for _, agent := range currentAgents {
				rs.Groups[agent] = append(rs.Groups[agent], rule)
			}
		case "sitemap", "host":
			// Not group members.
		case "crawl-delay":
			stacking = false
		default:
			stacking = false
			rs.Warnings = append(rs.Warnings, fmt.Sprintf("line %d: unknown directive %q", lineNumber, key))
		}
	}
	return rs
}

// Answers whether agent may fetch path. The agent's own group applies when
// present, otherwise the * group, otherwise everything is allowed. The
// longest matching rule wins; on equal length the later rule wins.
func IsAllowed(rs RuleSet, agent, path string) bool {
	rules, ok := rs.Groups[agent]
	if !ok {
		rules, ok = rs.Groups[wildcardAgent]
	}
	if !ok {
		return true
	}
	if path == "" {
		path = "/"
	}

	allowed := true
	best := -1
	for _, rule := range rules {
		length, matched := matchRule(rule.Path, path)
		if matched && length >= best {
			best = length
			allowed = rule.Directive == Allow
		}
	}
	return allowed
}

// Reports whether a rule path matches and how specific it is.
// An empty rule path matches nothing.
func matchRule(pattern, path string) (int, bool) {
	if pattern == "" {
		return 0, false
	}
	pattern = strings.TrimRight(pattern, "*")
	if pattern == "" {
		return 0, true
	}
	if !strings.ContainsAny(pattern, "*$") {
		return len(pattern), strings.HasPrefix(path, pattern)
	}

	anchored := strings.HasSuffix(pattern, "$")
	expr := regexp.QuoteMeta(strings.TrimSuffix(pattern, "$"))
	expr = "^" + strings.ReplaceAll(expr, `\*`, ".*")
	if anchored {
		expr += "$"
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return 0, false
	}
	return len(pattern), re.MatchString(path)
}
