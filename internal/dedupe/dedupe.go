// Package dedupe collapses channel records sharing an identifier.
package dedupe

import (
	"github.com/iptvscan/iptvscan/internal/catalog"
)

// Channels keeps the first occurrence of every non-empty identifier and drops
// the rest, in one stable forward pass. Records with an empty identifier are
// always kept. Returns the deduplicated slice and its length.
func Channels(channels []catalog.ChannelRecord) ([]catalog.ChannelRecord, int) {
	seen := make(map[string]struct{}, len(channels))
	out := make([]catalog.ChannelRecord, 0, len(channels))
	for _, ch := range channels {
		if ch.ID != "" {
			if _, dup := seen[ch.ID]; dup {
				continue
			}
			seen[ch.ID] = struct{}{}
		}
		out = append(out, ch)
	}
	return out, len(out)
}
