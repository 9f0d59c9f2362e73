// Package catalog holds the channel and guide record types produced by the
// extraction pipeline, plus their JSON-backed stores.
package catalog

import "strings"

// ChannelRecord is one channel parsed from an M3U playlist. Identity is the
// (ID, DisplayName) pair; ID may be empty, in which case DisplayName is the
// effective key for deduplication and matching.
type ChannelRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	LogoURL     string `json:"logo_url"`
	Group       string `json:"group"`
	Language    string `json:"language"`
	StreamURL   string `json:"stream_url"`
	SourceURL   string `json:"source_url"`
	// MatchedGuideID is the display name of the best guide entry found during
	// reconciliation. Point-in-time annotation: it goes stale when the guide
	// snapshot is refreshed.
	MatchedGuideID string `json:"matched_guide_id,omitempty"`
}

// Usable reports whether the record carries at least one of ID / DisplayName.
// Records failing this are discarded at extraction time, never stored.
func (c ChannelRecord) Usable() bool {
	return c.ID != "" || c.DisplayName != ""
}

// GuideEntry is one <channel> element parsed from an XMLTV guide document.
type GuideEntry struct {
	ID             string `json:"id"`
	DisplayName    string `json:"display_name"`
	SourceGuideURL string `json:"source_guide_url"`
	Language       string `json:"language"`
}

// Usable reports whether the entry carries at least one of ID / DisplayName.
func (g GuideEntry) Usable() bool {
	return g.ID != "" || g.DisplayName != ""
}

// ChannelLanguageDefault is assigned at extraction time: M3U carries no
// language signal. The guide side uses the lowercase variant.
const (
	ChannelLanguageDefault = "Unknown"
	GuideLanguageDefault   = "unknown"
)

// FilterChannels returns the channels whose group and language contain the
// given substrings (case-insensitive). Empty filters match everything.
func FilterChannels(channels []ChannelRecord, group, language string) []ChannelRecord {
	group = strings.ToLower(group)
	language = strings.ToLower(language)
	var out []ChannelRecord
	for _, ch := range channels {
		if group != "" && !strings.Contains(strings.ToLower(ch.Group), group) {
			continue
		}
		if language != "" && !strings.Contains(strings.ToLower(ch.Language), language) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

// SearchChannels returns the channels whose name or ID contain query
// (case-insensitive).
func SearchChannels(channels []ChannelRecord, query string) []ChannelRecord {
	query = strings.ToLower(query)
	if query == "" {
		return nil
	}
	var out []ChannelRecord
	for _, ch := range channels {
		if strings.Contains(strings.ToLower(ch.DisplayName), query) ||
			strings.Contains(strings.ToLower(ch.ID), query) {
			out = append(out, ch)
		}
	}
	return out
}
