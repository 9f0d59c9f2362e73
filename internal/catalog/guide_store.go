package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	json "github.com/goccy/go-json"
)

// GuideGroup is the ordered guide entries extracted from one source URL.
type GuideGroup struct {
	SourceURL string
	Entries   []GuideEntry
}

// GuideSnapshot is the guide store: a mapping from source URL to ordered
// entries, with source order preserved. The reconciler flattens groups in
// this order, so losing it would change tie-breaking between equal-scoring
// candidates.
type GuideSnapshot struct {
	mu     sync.RWMutex
	groups []GuideGroup
}

// NewGuideSnapshot returns an empty snapshot.
func NewGuideSnapshot() *GuideSnapshot {
	return &GuideSnapshot{}
}

// AddGroup appends a group for sourceURL. A group for an already-present URL
// replaces the earlier one in place, keeping its original position.
func (s *GuideSnapshot) AddGroup(sourceURL string, entries []GuideEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].SourceURL == sourceURL {
			s.groups[i].Entries = entries
			return
		}
	}
	s.groups = append(s.groups, GuideGroup{SourceURL: sourceURL, Entries: entries})
}

// Groups returns a copy of the groups in insertion order.
func (s *GuideSnapshot) Groups() []GuideGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]GuideGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// Flatten returns all entries in group order, then entry order within each
// group.
func (s *GuideSnapshot) Flatten() []GuideEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []GuideEntry
	for _, g := range s.groups {
		out = append(out, g.Entries...)
	}
	return out
}

// SourceCount returns the number of source groups.
func (s *GuideSnapshot) SourceCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.groups)
}

// EntryCount returns the total number of entries across all groups.
func (s *GuideSnapshot) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, g := range s.groups {
		n += len(g.Entries)
	}
	return n
}

// Encode writes the snapshot as a JSON object keyed by source URL. Keys are
// written in insertion order; encoding/json maps would randomize it.
func (s *GuideSnapshot) Encode(w io.Writer) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, g := range s.groups {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(g.SourceURL)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		entries := g.Entries
		if entries == nil {
			entries = []GuideEntry{}
		}
		val, err := json.Marshal(entries)
		if err != nil {
			return err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	var indented bytes.Buffer
	if err := json.Indent(&indented, buf.Bytes(), "", "  "); err != nil {
		return err
	}
	_, err := w.Write(indented.Bytes())
	return err
}

// Decode replaces the snapshot with the JSON object read from r, preserving
// key order via a token walk.
func (s *GuideSnapshot) Decode(r io.Reader) error {
	dec := json.NewDecoder(r)
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("guide store decode: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("guide store decode: expected object, got %v", tok)
	}
	var groups []GuideGroup
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("guide store decode: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("guide store decode: expected string key, got %v", tok)
		}
		var entries []GuideEntry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("guide store decode %q: %w", key, err)
		}
		groups = append(groups, GuideGroup{SourceURL: key, Entries: entries})
	}
	s.mu.Lock()
	s.groups = groups
	s.mu.Unlock()
	return nil
}

// Save writes the snapshot to path atomically.
func (s *GuideSnapshot) Save(path string) error {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return fmt.Errorf("guide store save: %w", err)
	}
	return writeFileAtomic(path, buf.Bytes())
}

// Load replaces the snapshot with the contents of path.
func (s *GuideSnapshot) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return s.Decode(f)
}
