// Package guide extracts channel entries from XMLTV guide documents, grouped
// by source URL.
package guide

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/httpclient"
)

// Extractor fetches guide documents and parses their channel elements.
type Extractor struct {
	client *http.Client
	log    zerolog.Logger
}

func NewExtractor(log zerolog.Logger, client *http.Client) *Extractor {
	if client == nil {
		client = httpclient.Default()
	}
	return &Extractor{client: client, log: log}
}

// FetchAll extracts guide entries from every URL in order. A URL that fails
// to fetch or parse is logged and left out of the snapshot entirely; it does
// not appear as an empty group.
func (e *Extractor) FetchAll(ctx context.Context, urls []string) *catalog.GuideSnapshot {
	snap := catalog.NewGuideSnapshot()
	for _, url := range urls {
		e.log.Info().Str("url", url).Msg("fetching guide")
		entries, err := e.fetchOne(ctx, url)
		if err != nil {
			e.log.Error().Err(err).Str("url", url).Msg("guide fetch failed")
			continue
		}
		e.log.Info().Str("url", url).Int("entries", len(entries)).Msg("guide parsed")
		snap.AddGroup(url, entries)
	}
	return snap
}

func (e *Extractor) fetchOne(ctx context.Context, url string) ([]catalog.GuideEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch guide: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch guide: unexpected status %d", resp.StatusCode)
	}

	// Guide feeds are routinely gzipped, sometimes without saying so.
	body, err := httpclient.DecodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode guide body: %w", err)
	}
	return e.parse(body, url)
}

// parse walks the document's channel elements. An entry with both id and
// display name empty is skipped and logged, not stored.
func (e *Extractor) parse(r io.Reader, sourceURL string) ([]catalog.GuideEntry, error) {
	entries, skipped, err := Parse(r, sourceURL)
	for i := 0; i < skipped; i++ {
		e.log.Debug().Str("url", sourceURL).Msg("skipped guide channel with no id or name")
	}
	return entries, err
}

// Parse decodes channel elements from an XMLTV document. It returns entries
// in document order plus the count of candidates dropped for having neither
// an identifier nor a display name.
func Parse(r io.Reader, sourceURL string) ([]catalog.GuideEntry, int, error) {
	dec := xml.NewDecoder(r)
	type displayName struct {
		Text string `xml:",chardata"`
	}
	type chNode struct {
		ID           string        `xml:"id,attr"`
		DisplayNames []displayName `xml:"display-name"`
	}

	var (
		entries []catalog.GuideEntry
		skipped int
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, skipped, fmt.Errorf("parse guide: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "channel" {
			continue
		}
		var node chNode
		if err := dec.DecodeElement(&node, &se); err != nil {
			return nil, skipped, fmt.Errorf("parse guide channel: %w", err)
		}

		entry := catalog.GuideEntry{
			ID:             strings.TrimSpace(node.ID),
			SourceGuideURL: sourceURL,
			Language:       catalog.GuideLanguageDefault,
		}
		for _, dn := range node.DisplayNames {
			if name := strings.TrimSpace(dn.Text); name != "" {
				entry.DisplayName = name
				break
			}
		}
		if entry.ID == "" && entry.DisplayName == "" {
			skipped++
			continue
		}
		entries = append(entries, entry)
	}
	return entries, skipped, nil
}
