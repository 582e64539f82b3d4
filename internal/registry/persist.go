package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// snapshotFile is the on-disk form of a Snapshot. It is a derived cache for
// inspection; loads always rebuild the registry from the source JSON.
type snapshotFile struct {
	Version     int                     `json:"version"`
	CreatedAt   time.Time               `json:"created_at"`
	Counters    map[EntityType]int      `json:"counters"`
	Identifiers map[EntityType][]string `json:"identifiers"`
}

const snapshotVersion = 1

// Save writes the snapshot as JSON.
func (s *Snapshot) Save(path string) error {
	file := snapshotFile{
		Version:     snapshotVersion,
		CreatedAt:   time.Now().UTC(),
		Counters:    make(map[EntityType]int),
		Identifiers: make(map[EntityType][]string, len(s.sorted)),
	}
	for _, t := range s.formatter.Types() {
		if n := s.formatter.Counter(t); n > 0 {
			file.Counters[t] = n
		}
	}
	for t, list := range s.sorted {
		file.Identifiers[t] = append([]string(nil), list...)
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry snapshot: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a snapshot written by Save. Entity types missing from
// formats are rejected.
func LoadSnapshot(path string, formats map[EntityType]Format, opts ...Option) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry snapshot: %w", err)
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse registry snapshot: %w", err)
	}
	if file.Version != snapshotVersion {
		return nil, fmt.Errorf("unsupported registry snapshot version %d", file.Version)
	}

	b := NewBuilder(formats, append(opts, Quiet())...)
	for t, list := range file.Identifiers {
		if !b.formatter.Known(t) {
			return nil, fmt.Errorf("%w: %q in snapshot", ErrUnknownEntityType, t)
		}
		set := b.set(t)
		for _, id := range list {
			set[id] = struct{}{}
		}
	}
	for t, n := range file.Counters {
		if b.formatter.Known(t) {
			b.formatter.counters[t] = n
		}
	}
	return b.Finalize(), nil
}
