// Package export writes the channel and guide stores as flattened CSV rows
// for spreadsheet consumers.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/iptvscan/iptvscan/internal/catalog"
)

// ChannelRow is the tabular projection of one ChannelRecord.
type ChannelRow struct {
	ID             string `csv:"id"`
	DisplayName    string `csv:"display_name"`
	LogoURL        string `csv:"logo_url"`
	Group          string `csv:"group"`
	Language       string `csv:"language"`
	StreamURL      string `csv:"stream_url"`
	SourceURL      string `csv:"source_url"`
	MatchedGuideID string `csv:"matched_guide_id"`
}

// GuideRow is the tabular projection of one GuideEntry.
type GuideRow struct {
	ID             string `csv:"id"`
	DisplayName    string `csv:"display_name"`
	SourceGuideURL string `csv:"source_guide_url"`
	Language       string `csv:"language"`
}

// Channels writes the channel list as CSV to w, in store order.
func Channels(w io.Writer, channels []catalog.ChannelRecord) error {
	rows := make([]ChannelRow, 0, len(channels))
	for _, ch := range channels {
		rows = append(rows, ChannelRow{
			ID:             ch.ID,
			DisplayName:    ch.DisplayName,
			LogoURL:        ch.LogoURL,
			Group:          ch.Group,
			Language:       ch.Language,
			StreamURL:      ch.StreamURL,
			SourceURL:      ch.SourceURL,
			MatchedGuideID: ch.MatchedGuideID,
		})
	}
	return encode(w, rows, "export channels")
}

// Guide writes the flattened guide snapshot as CSV to w, group order first.
func Guide(w io.Writer, snap *catalog.GuideSnapshot) error {
	entries := snap.Flatten()
	rows := make([]GuideRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, GuideRow{
			ID:             e.ID,
			DisplayName:    e.DisplayName,
			SourceGuideURL: e.SourceGuideURL,
			Language:       e.Language,
		})
	}
	return encode(w, rows, "export guide")
}

func encode[T any](w io.Writer, rows []T, op string) error {
	cw := csv.NewWriter(w)
	enc := csvutil.NewEncoder(cw)
	if err := enc.Encode(rows); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: flush: %w", op, err)
	}
	return nil
}
