// Package mirror proposes alternate URLs for failed endpoints on known
// domains, e.g. iptv-org.github.io -> raw.githubusercontent.com/iptv-org.
package mirror

import (
	"strings"
	"sync"
)

// Rule maps a domain substring to its replacement. Rules are ordered and
// first-match; the configured domain list is assumed non-overlapping.
type Rule struct {
	Match   string `mapstructure:"match" json:"match"`
	Replace string `mapstructure:"replace" json:"replace"`
}

// DefaultRules covers the public mirrors that most commonly go stale.
var DefaultRules = []Rule{
	{Match: "iptv-org.github.io", Replace: "raw.githubusercontent.com/iptv-org"},
	{Match: "epg.pw", Replace: "epgshare01.online"},
}

// Advisor suggests mirror URLs and keeps a side table of suggestions keyed by
// the original URL. Safe for concurrent use.
type Advisor struct {
	rules []Rule

	mu          sync.Mutex
	suggestions map[string]string
}

// NewAdvisor returns an Advisor over rules. A nil rules slice means no
// suggestions are ever made.
func NewAdvisor(rules []Rule) *Advisor {
	return &Advisor{
		rules:       rules,
		suggestions: make(map[string]string),
	}
}

// Suggest proposes an alternate for url using the first matching rule and
// registers it in the side table. The second return is false when no rule
// matches; absence of a suggestion is valid, not an error.
func (a *Advisor) Suggest(url string) (string, bool) {
	for _, r := range a.rules {
		if !strings.Contains(url, r.Match) {
			continue
		}
		suggested := strings.Replace(url, r.Match, r.Replace, 1)
		a.mu.Lock()
		a.suggestions[url] = suggested
		a.mu.Unlock()
		return suggested, true
	}
	return "", false
}

// Suggestions returns a copy of the side table.
func (a *Advisor) Suggestions() map[string]string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make(map[string]string, len(a.suggestions))
	for k, v := range a.suggestions {
		out[k] = v
	}
	return out
}
