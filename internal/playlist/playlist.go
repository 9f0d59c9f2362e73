// Package playlist extracts channel metadata from M3U playlists.
package playlist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/rs/zerolog"

	"github.com/iptvscan/iptvscan/internal/catalog"
	"github.com/iptvscan/iptvscan/internal/httpclient"
)

// Playlists in the wild carry very long #EXTINF lines (logos as data URIs,
// dozens of attributes), well past bufio's default token size.
const maxLineBytes = 1024 * 1024

var (
	reTvgID      = regexp.MustCompile(`tvg-id="([^"]*)"`)
	reTvgName    = regexp.MustCompile(`tvg-name="([^"]*)"`)
	reTvgLogo    = regexp.MustCompile(`tvg-logo="([^"]*)"`)
	reGroupTitle = regexp.MustCompile(`group-title="([^"]*)"`)
)

// Extractor fetches playlists and parses them into channel records.
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

// FetchAll extracts channels from every URL in order. A URL that fails to
// fetch is logged and skipped; its channels are simply absent from the
// result. Channel order follows source order, then line order within a
// source.
func (e *Extractor) FetchAll(ctx context.Context, urls []string) []catalog.ChannelRecord {
	var channels []catalog.ChannelRecord
	for _, url := range urls {
		e.log.Info().Str("url", url).Msg("fetching playlist")
		parsed, err := e.fetchOne(ctx, url)
		if err != nil {
			e.log.Error().Err(err).Str("url", url).Msg("playlist fetch failed")
			continue
		}
		e.log.Info().Str("url", url).Int("channels", len(parsed)).Msg("playlist parsed")
		channels = append(channels, parsed...)
	}
	return channels
}

func (e *Extractor) fetchOne(ctx context.Context, url string) ([]catalog.ChannelRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", httpclient.UserAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch playlist: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch playlist: unexpected status %d", resp.StatusCode)
	}

	body, err := httpclient.DecodeBody(resp)
	if err != nil {
		return nil, fmt.Errorf("decode playlist body: %w", err)
	}
	return Parse(body, url)
}

// Parse reads an M3U document and returns channel records in line order.
// Each #EXTINF marker yields a candidate; the immediately following
// non-marker line is its stream URL, left empty when the next line is
// another marker or the document ends. Candidates with neither an id nor a
// display name are dropped.
func Parse(r io.Reader, sourceURL string) ([]catalog.ChannelRecord, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)

	var channels []catalog.ChannelRecord
	var pending *catalog.ChannelRecord
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if strings.HasPrefix(line, "#EXTINF") {
			if pending != nil {
				channels = appendUsable(channels, *pending)
			}
			ch := parseExtinf(line, sourceURL)
			pending = &ch
			continue
		}
		if pending != nil {
			pending.StreamURL = line
			channels = appendUsable(channels, *pending)
			pending = nil
		}
	}
	if err := sc.Err(); err != nil {
		return channels, fmt.Errorf("scan playlist: %w", err)
	}
	if pending != nil {
		channels = appendUsable(channels, *pending)
	}
	return channels, nil
}

func parseExtinf(line, sourceURL string) catalog.ChannelRecord {
	return catalog.ChannelRecord{
		ID:          firstGroup(reTvgID, line),
		DisplayName: firstGroup(reTvgName, line),
		LogoURL:     firstGroup(reTvgLogo, line),
		Group:       firstGroup(reGroupTitle, line),
		Language:    catalog.ChannelLanguageDefault,
		SourceURL:   sourceURL,
	}
}

func appendUsable(channels []catalog.ChannelRecord, ch catalog.ChannelRecord) []catalog.ChannelRecord {
	if !ch.Usable() {
		return channels
	}
	return append(channels, ch)
}

func firstGroup(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}
