// Package reconcile annotates channel records with their best-matching guide
// entry by approximate display-name similarity.
package reconcile

import (
	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/textmatch"
)

// DefaultThreshold is the similarity floor a candidate must clear. It is a
// tunable default, not a contract.
const DefaultThreshold = 0.85

// Annotate sets MatchedGuideID on every channel whose display name has a
// guide candidate scoring at or above threshold, and returns the number of
// channels annotated. The candidate pool is the non-empty display names of
// snap flattened in group order; ties break to the first pool occurrence.
// Channels with an empty display name are left untouched and not counted as
// failures.
func Annotate(log zerolog.Logger, channels []catalog.ChannelRecord, snap *catalog.GuideSnapshot, threshold float64) int {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}

	entries := snap.Flatten()
	pool := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.DisplayName != "" {
			pool = append(pool, e.DisplayName)
		}
	}

	matched := 0
	for i := range channels {
		ch := &channels[i]
		if ch.DisplayName == "" {
			continue
		}
		name, score, ok := textmatch.BestMatch(ch.DisplayName, pool, threshold)
		if !ok {
			continue
		}
		ch.MatchedGuideID = name
		matched++
		log.Debug().
			Str("channel", ch.DisplayName).
			Str("guide", name).
			Float64("score", score).
			Msg("channel matched to guide entry")
	}

	log.Info().
		Int("channels", len(channels)).
		Int("matched", matched).
		Int("pool", len(pool)).
		Msg("reconciliation complete")
	return matched
}
