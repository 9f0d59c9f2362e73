// Package auditor runs read-only integrity diagnostics over the guide store.
package auditor

import (
	"github.com/iptvscan/iptvscan/internal/catalog"
)

// NullEntry records an entry with neither identifier nor display name.
type NullEntry struct {
	SourceURL string `json:"source_url"`
	Index     int    `json:"index"`
}

// DuplicateID records an entry whose identifier collided with an earlier one.
type DuplicateID struct {
	SourceURL string `json:"source_url"`
	ID        string `json:"id"`
}

// Report summarizes the audit of one guide snapshot.
type Report struct {
	TotalSources int           `json:"total_sources"`
	EmptySources []string      `json:"empty_sources"`
	NullEntries  []NullEntry   `json:"null_entries"`
	DuplicateIDs []DuplicateID `json:"duplicate_ids"`
}

// Clean reports whether the audit found nothing to flag.
func (r Report) Clean() bool {
	return len(r.EmptySources) == 0 && len(r.NullEntries) == 0 && len(r.DuplicateIDs) == 0
}

// Audit walks the snapshot's groups in order. A source with zero entries is
// empty; within non-empty sources a running seen-set over identifiers flags
// duplicates, and entries with both fields empty are null entries. The
// snapshot is never mutated.
func Audit(snap *catalog.GuideSnapshot) Report {
	groups := snap.Groups()
	report := Report{TotalSources: len(groups)}
	seen := make(map[string]struct{})
	for _, g := range groups {
		if len(g.Entries) == 0 {
			report.EmptySources = append(report.EmptySources, g.SourceURL)
			continue
		}
		for i, e := range g.Entries {
			if e.ID == "" && e.DisplayName == "" {
				report.NullEntries = append(report.NullEntries, NullEntry{SourceURL: g.SourceURL, Index: i})
				continue
			}
			if e.ID == "" {
				continue
			}
			if _, dup := seen[e.ID]; dup {
				report.DuplicateIDs = append(report.DuplicateIDs, DuplicateID{SourceURL: g.SourceURL, ID: e.ID})
				continue
			}
			seen[e.ID] = struct{}{}
		}
	}
	return report
}
