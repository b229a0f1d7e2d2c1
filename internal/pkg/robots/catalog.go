package robots

import "sort"

// Whether blocking a bot costs citations or only training data.
type Kind string

const (
	KindCitation Kind = "citation"
	KindTraining Kind = "training"
)

// A known AI crawler user-agent token.
type Bot struct {
	Name  string `json:"name"`
	Owner string `json:"owner"`
	Kind  Kind   `json:"kind"`
}

// Ordered table of AI crawlers. The robots check and the scoring engine
// both read it, so edits here change scores.
type Catalog []Bot

var DefaultCatalog = Catalog{
	{Name: "OAI-SearchBot", Owner: "OpenAI (ChatGPT search citations)", Kind: KindCitation},
	{Name: "ClaudeBot", Owner: "Anthropic (Claude citations)", Kind: KindCitation},
	{Name: "PerplexityBot", Owner: "Perplexity AI (index builder)", Kind: KindCitation},
	{Name: "GPTBot", Owner: "OpenAI (ChatGPT training)", Kind: KindTraining},
	{Name: "ChatGPT-User", Owner: "OpenAI (ChatGPT on-demand fetch)", Kind: KindTraining},
	{Name: "anthropic-ai", Owner: "Anthropic (Claude training)", Kind: KindTraining},
	{Name: "claude-web", Owner: "Anthropic (Claude web crawl)", Kind: KindTraining},
	{Name: "Perplexity-User", Owner: "Perplexity (on-demand fetch)", Kind: KindTraining},
	{Name: "Google-Extended", Owner: "Google (Gemini training)", Kind: KindTraining},
	{Name: "Applebot-Extended", Owner: "Apple (AI training)", Kind: KindTraining},
	{Name: "cohere-ai", Owner: "Cohere (language models)", Kind: KindTraining},
	{Name: "DuckAssistBot", Owner: "DuckDuckGo AI", Kind: KindTraining},
	{Name: "Bytespider", Owner: "ByteDance/TikTok AI", Kind: KindTraining},
	{Name: "meta-externalagent", Owner: "Meta AI (Facebook/Instagram AI)", Kind: KindTraining},
	{Name: "CCBot", Owner: "Common Crawl (training datasets)", Kind: KindTraining},
	{Name: "Amazonbot", Owner: "Amazon (Alexa answers)", Kind: KindTraining},
	{Name: "Diffbot", Owner: "Diffbot (knowledge graph)", Kind: KindTraining},
	{Name: "YouBot", Owner: "You.com (AI search)", Kind: KindTraining},
}

// Returns a copy of the catalog extended with user-defined bots, which are
// always training bots. Names already present are left untouched.
func (c Catalog) WithExtra(extra map[string]string) Catalog {
	out := make(Catalog, len(c), len(c)+len(extra))
	copy(out, c)
	if len(extra) == 0 {
		return out
	}

	names := make([]string, 0, len(extra))
	for name := range extra {
		if name != "" && !c.Has(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, Bot{Name: name, Owner: extra[name], Kind: KindTraining})
	}
	return out
}

// Checks if a bot with this exact token is cataloged.
func (c Catalog) Has(name string) bool {
	for _, bot := range c {
		if bot.Name == name {
			return true
		}
	}
	return false
}

// Returns the citation bots in catalog order.
func (c Catalog) Citation() []Bot {
	var bots []Bot
	for _, bot := range c {
		if bot.Kind == KindCitation {
			bots = append(bots, bot)
		}
	}
	return bots
}
