package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/logging"
)

func snapshotOf(groups map[string][]string, order []string) *catalog.GuideSnapshot {
	snap := catalog.NewGuideSnapshot()
	for _, url := range order {
		var entries []catalog.GuideEntry
		for _, name := range groups[url] {
			entries = append(entries, catalog.GuideEntry{
				ID:             name,
				DisplayName:    name,
				SourceGuideURL: url,
				Language:       catalog.GuideLanguageDefault,
			})
		}
		snap.AddGroup(url, entries)
	}
	return snap
}

func TestAnnotate_ThresholdGovernsMatching(t *testing.T) {
	snap := snapshotOf(map[string][]string{
		"g1": {"BBC One HD", "ITV1"},
	}, []string{"g1"})

	channels := []catalog.ChannelRecord{{ID: "bbc1", DisplayName: "BBC One"}}

	matched := Annotate(logging.Nop(), channels, snap, 0.85)
	assert.Zero(t, matched)
	assert.Empty(t, channels[0].MatchedGuideID)

	matched = Annotate(logging.Nop(), channels, snap, 0.5)
	assert.Equal(t, 1, matched)
	assert.Equal(t, "BBC One HD", channels[0].MatchedGuideID)
}

func TestAnnotate_SkipsNamelessChannels(t *testing.T) {
	snap := snapshotOf(map[string][]string{"g1": {"BBC One"}}, []string{"g1"})
	channels := []catalog.ChannelRecord{{ID: "bbc1"}}

	matched := Annotate(logging.Nop(), channels, snap, 0.1)
	assert.Zero(t, matched)
	assert.Empty(t, channels[0].MatchedGuideID)
}

func TestAnnotate_TieBreaksToGroupOrder(t *testing.T) {
	// Same candidate name in two groups; the earlier group's occurrence wins,
	// which is observable only through the match still being that value.
	snap := snapshotOf(map[string][]string{
		"g1": {"News 1"},
		"g2": {"News 2"},
	}, []string{"g1", "g2"})
	channels := []catalog.ChannelRecord{{DisplayName: "News"}}

	matched := Annotate(logging.Nop(), channels, snap, 0.5)
	assert.Equal(t, 1, matched)
	assert.Equal(t, "News 1", channels[0].MatchedGuideID)
}

func TestAnnotate_EmptyGuidePool(t *testing.T) {
	snap := catalog.NewGuideSnapshot()
	channels := []catalog.ChannelRecord{{DisplayName: "BBC One"}}
	matched := Annotate(logging.Nop(), channels, snap, 0.85)
	assert.Zero(t, matched)
}

func TestAnnotate_ExactMatch(t *testing.T) {
	snap := snapshotOf(map[string][]string{"g1": {"BBC One"}}, []string{"g1"})
	channels := []catalog.ChannelRecord{{DisplayName: "BBC One"}}
	matched := Annotate(logging.Nop(), channels, snap, 0.85)
	assert.Equal(t, 1, matched)
	assert.Equal(t, "BBC One", channels[0].MatchedGuideID)
}
