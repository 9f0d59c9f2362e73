// Package endpoints defines the configured URL set, per-URL status records
// and the enriched validation artifact persisted between passes.
package endpoints

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
)

// Set is the configured input: ordered playlist and guide URLs.
type Set struct {
	PlaylistURLs []string `json:"playlist_urls"`
	EPGURLs      []string `json:"epg_urls"`
}

// All returns playlist URLs followed by guide URLs, in configured order.
func (s Set) All() []string {
	out := make([]string, 0, len(s.PlaylistURLs)+len(s.EPGURLs))
	out = append(out, s.PlaylistURLs...)
	out = append(out, s.EPGURLs...)
	return out
}

// StatusRecord is one validation attempt's outcome. Histories are append-only
// and chronologically ordered; records are never rewritten.
type StatusRecord struct {
	Timestamp      time.Time `json:"timestamp"`
	OK             bool      `json:"ok"`
	StatusCode     int       `json:"status_code,omitempty"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// LastStatus is the latest derived summary for one URL, overwritten on every
// validation pass with the outcome of the final attempt.
type LastStatus struct {
	Alive          bool      `json:"alive"`
	LastChecked    time.Time `json:"last_checked"`
	ResponseTimeMs int64     `json:"response_time_ms"`
	ErrorKind      string    `json:"error_kind,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
}

// Artifact is the endpoint set enriched with validation state. It is the
// on-disk shape of the endpoints file: a plain {playlist_urls, epg_urls}
// document loads fine, and the enrichment survives round trips.
type Artifact struct {
	Set
	StatusHistory     map[string][]StatusRecord `json:"status_history,omitempty"`
	LastStatus        map[string]LastStatus     `json:"last_status,omitempty"`
	MirrorSuggestions map[string]string         `json:"mirror_suggestions,omitempty"`
}

// DeadLinks returns the subset of LastStatus entries with alive=false.
func (a *Artifact) DeadLinks() map[string]LastStatus {
	out := make(map[string]LastStatus)
	for url, st := range a.LastStatus {
		if !st.Alive {
			out[url] = st
		}
	}
	return out
}

// Load reads the endpoints file at path. Any failure here is a load error:
// the caller must abort the operation that needed the set.
func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load endpoints %s: %w", path, err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("load endpoints %s: %w", path, err)
	}
	return &a, nil
}

// Save writes the artifact to path via temp-file-then-rename.
func (a *Artifact) Save(path string) error {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("save endpoints: marshal: %w", err)
	}
	return writeFileAtomic(path, data)
}

// SaveDeadLinks writes the alive=false filter of LastStatus to path.
func (a *Artifact) SaveDeadLinks(path string) error {
	data, err := json.MarshalIndent(a.DeadLinks(), "", "  ")
	if err != nil {
		return fmt.Errorf("save dead links: marshal: %w", err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(filepath.Clean(path))
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp")
	if err != nil {
		return fmt.Errorf("save: create temp: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(data)
	closeErr := tmp.Close()
	if writeErr != nil || closeErr != nil {
		os.Remove(tmpName)
		if writeErr != nil {
			return fmt.Errorf("save: write: %w", writeErr)
		}
		return fmt.Errorf("save: close: %w", closeErr)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save: chmod: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("save: rename: %w", err)
	}
	return nil
}
