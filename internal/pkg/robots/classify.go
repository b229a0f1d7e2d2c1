package robots

type Status string

const (
	StatusAllowed    Status = "allowed"
	StatusDisallowed Status = "disallowed"
	StatusMissing    Status = "missing"
)

// Access of one cataloged bot to the site root.
type BotStatus struct {
	Bot      Bot
	Status   Status
	Wildcard bool // decided by the * group
}

// Missing bots are functionally allowed.
func (s BotStatus) Allowed() bool {
	return s.Status != StatusDisallowed
}

// Human-readable status for reports.
func (s BotStatus) Label() string {
	switch {
	case s.Status == StatusMissing && s.Wildcard:
		return "allowed (via *)"
	case s.Status == StatusDisallowed && s.Wildcard:
		return "disallowed (via *)"
	}
	return string(s.Status)
}

// Classifies a bot at "/". A group naming the bot decides on its own,
// regardless of where the * group sits in the file.
func Classify(rs RuleSet, bot Bot) BotStatus {
	if rs.HasGroup(bot.Name) {
		if IsAllowed(rs, bot.Name, "/") {
			return BotStatus{Bot: bot, Status: StatusAllowed}
		}
		return BotStatus{Bot: bot, Status: StatusDisallowed}
	}
	if rs.HasGroup(wildcardAgent) {
		if !IsAllowed(rs, wildcardAgent, "/") {
			return BotStatus{Bot: bot, Status: StatusDisallowed, Wildcard: true}
		}
		return BotStatus{Bot: bot, Status: StatusMissing, Wildcard: true}
	}
	return BotStatus{Bot: bot, Status: StatusMissing}
}

// Classifies every bot in catalog order.
func ClassifyAll(rs RuleSet, catalog Catalog) []BotStatus {
	statuses := make([]BotStatus, 0, len(catalog))
	for _, bot := range catalog {
		statuses = append(statuses, Classify(rs, bot))
	}
	return statuses
}
