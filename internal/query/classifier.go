package query

import "strings"

// Rule maps a lower-case substring to a live-data decision.
type Rule struct {
	Keyword string
	Live    bool
}

// Classifier decides whether an utterance needs live reporting data. Rules are
// checked in order and the first one whose keyword occurs in the utterance
// wins. No match means no live data.
// The default vocabulary favours recall over precision.
type Classifier struct {
	rules []Rule
}

func NewClassifier(rules []Rule) *Classifier {
	cp := make([]Rule, 0, len(rules))
	for _, r := range rules {
		k := strings.ToLower(strings.TrimSpace(r.Keyword))
		if k == "" {
			continue
		}
		cp = append(cp, Rule{Keyword: k, Live: r.Live})
	}
	return &Classifier{rules: cp}
}

func (c *Classifier) NeedsLiveData(text string) bool {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return false
	}
	for _, r := range c.rules {
		if strings.Contains(s, r.Keyword) {
			return r.Live
		}
	}
	return false
}

func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

func DefaultRules() []Rule {
	live := func(keywords ...string) []Rule {
		out := make([]Rule, 0, len(keywords))
		for _, k := range keywords {
			out = append(out, Rule{Keyword: k, Live: true})
		}
		return out
	}

	var rules []Rule
	// dates and periods
	rules = append(rules, live(
		"august", "aug", "2025", "date", "daily", "day",
		"last 7 days", "last seven days", "weekly", "recent", "past week", "monthly",
	)...)
	// zones and areas
	rules = append(rules, live(
		"zone performance", "zone comparison", "which zone", "highest zone", "lowest zone",
		"best zone", "worst zone", "zone", "area",
		"brooklyn", "queens", "bronx", "manhattan", "westchester", "staten island",
		"offline collectors in",
	)...)
	// kpi vocabulary
	rules = append(rules, live(
		"interval read", "register read", "success rate", "percentage", "performance",
		"weekly trends", "kpi", "metrics", "statistics", "data", "count", "how many",
		"total collectors",
	)...)
	// zone id prefixes
	rules = append(rules, live(
		"3668467f", "427917a2", "11852150", "1091d1bd", "efba1047", "6f5a70ef",
	)...)
	return rules
}

var defaultClassifier = NewClassifier(DefaultRules())

// NeedsLiveData classifies text with the default rule table.
func NeedsLiveData(text string) bool {
	return defaultClassifier.NeedsLiveData(text)
}
