package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	json "github.com/goccy/go-json"
)

// ChannelStore holds the ordered channel list. It is rewritten wholesale by
// the playlist extractor, the reconciler and the deduplicator; the dashboard
// and exporters read it.
type ChannelStore struct {
	mu       sync.RWMutex
	channels []ChannelRecord
}

// NewChannelStore returns an empty store.
func NewChannelStore() *ChannelStore {
	return &ChannelStore{}
}

// Replace swaps in a new channel list, dropping the old one.
func (s *ChannelStore) Replace(channels []ChannelRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channels = channels
}

// Snapshot returns a copy of the channel list for read-only use.
func (s *ChannelStore) Snapshot() []ChannelRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ChannelRecord, len(s.channels))
	copy(out, s.channels)
	return out
}

// Len returns the current channel count.
func (s *ChannelStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.channels)
}

// Save writes the channel list to path as JSON using a temp-file-then-rename
// strategy so readers never see a partially-written file.
func (s *ChannelStore) Save(path string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := json.MarshalIndent(s.channels, "", "  ")
	if err != nil {
		return fmt.Errorf("channel store save: marshal: %w", err)
	}
	return writeFileAtomic(path, data)
}

// Load replaces the store with the contents of path.
func (s *ChannelStore) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var channels []ChannelRecord
	if err := json.Unmarshal(data, &channels); err != nil {
		return fmt.Errorf("channel store load: %w", err)
	}
	s.Replace(channels)
	return nil
}

// writeFileAtomic writes data to path via a temp file in the same directory
// followed by a rename (atomic on most Unix filesystems).
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
