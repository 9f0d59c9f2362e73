package httpclient

import (
	"bytes"
	"io"
	"net/http"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func respWith(body []byte, encoding string) *http.Response {
	resp := &http.Response{
		Header: http.Header{},
		Body:   io.NopCloser(bytes.NewReader(body)),
	}
	if encoding != "" {
		resp.Header.Set("Content-Encoding", encoding)
	}
	return resp
}

func TestDecodeBody_Plain(t *testing.T) {
	r, err := DecodeBody(respWith([]byte("#EXTM3U\n"), ""))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n", string(got))
}

func TestDecodeBody_DeclaredGzip(t *testing.T) {
	r, err := DecodeBody(respWith(gzipped(t, "<tv></tv>"), "gzip"))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<tv></tv>", string(got))
}

func TestDecodeBody_SniffedGzip(t *testing.T) {
	// No Content-Encoding header; detection relies on magic bytes.
	r, err := DecodeBody(respWith(gzipped(t, "<tv></tv>"), ""))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "<tv></tv>", string(got))
}

func TestDecodeBody_ShortBody(t *testing.T) {
	r, err := DecodeBody(respWith([]byte("x"), ""))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))
}

func TestDecodeBody_EmptyBody(t *testing.T) {
	r, err := DecodeBody(respWith(nil, ""))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDecodeBody_CaseInsensitiveHeader(t *testing.T) {
	resp := respWith(gzipped(t, "data"), "")
	resp.Header.Set("Content-Encoding", "GZIP")
	r, err := DecodeBody(resp)
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))
}

func TestDecodeBody_BrotliHeaderPassesThrough(t *testing.T) {
	// Empty brotli stream decodes to nothing.
	r, err := DecodeBody(respWith([]byte{0x3b}, "br"))
	require.NoError(t, err)
	got, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Empty(t, got)
}
