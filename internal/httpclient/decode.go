package httpclient

import (
	"bufio"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
)

// gzip magic bytes; many guide feeds are served as .xml.gz with a plain
// Content-Type and no Content-Encoding header.
const gzipMagic = "\x1f\x8b"

// DecodeBody wraps resp.Body with the decoder matching its Content-Encoding
// (gzip or br), falling back to magic-byte sniffing for mislabelled gzip
// payloads. The returned reader must be read instead of resp.Body; closing
// resp.Body stays the caller's job.
func DecodeBody(resp *http.Response) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	}
	br := bufio.NewReader(resp.Body)
	magic, err := br.Peek(2)
	if err != nil {
		// Short or empty body: hand it back undecoded.
		return br, nil
	}
	if string(magic) == gzipMagic {
		return gzip.NewReader(br)
	}
	return br, nil
}
