package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hann12-34/discovr-events/internal/event"
)

// SaveResult counts what a Save call did
type SaveResult struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

// Store persists events, skipping any whose ID is already stored
type Store interface {
	Save(ctx context.Context, events []*event.Event) (SaveResult, error)
	Close(ctx context.Context) error
}

// Snapshot is the on-disk form of a FileStore
type Snapshot struct {
	Events    map[string]*event.Event `json:"events"`
	UpdatedAt string                  `json:"updated_at"`
}

// NewSnapshot creates an empty snapshot
func NewSnapshot() *Snapshot {
	return &Snapshot{Events: make(map[string]*event.Event)}
}

// Sorted returns the snapshot's events ordered by start date, undated last,
// then by title
func (s *Snapshot) Sorted() []*event.Event {
	out := make([]*event.Event, 0, len(s.Events))
	for _, e := range s.Events {
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.StartDate == nil && b.StartDate == nil:
		case a.StartDate == nil:
			return false
		case b.StartDate == nil:
			return true
		case !a.StartDate.Equal(*b.StartDate):
			return a.StartDate.Before(*b.StartDate)
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ID < b.ID
	})
	return out
}

// FileStore persists events in a JSON snapshot file
type FileStore struct {
	dataDir string
	mu      sync.Mutex
	now     func() time.Time
}

// NewFileStore creates a FileStore rooted at dataDir, creating it if needed
func NewFileStore(dataDir string) (*FileStore, error) {
	// Expand ~ to home directory
	if strings.HasPrefix(dataDir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, dataDir[2:])
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return &FileStore{dataDir: dataDir, now: time.Now}, nil
}

// Path returns the snapshot file location
func (s *FileStore) Path() string {
	return filepath.Join(s.dataDir, "snapshot.json")
}

// Load reads the snapshot. A missing file is an empty snapshot.
func (s *FileStore) Load() (*Snapshot, error) {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return NewSnapshot(), nil
		}
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot: %w", err)
	}

	// Ensure Events map is initialized
	if snapshot.Events == nil {
		snapshot.Events = make(map[string]*event.Event)
	}
	return &snapshot, nil
}

// Save adds events whose IDs are not yet in the snapshot and rewrites the
// file. The file is left untouched when nothing new arrives.
func (s *FileStore) Save(ctx context.Context, events []*event.Event) (SaveResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return SaveResult{}, err
	}

	snapshot, err := s.Load()
	if err != nil {
		return SaveResult{}, err
	}

	var res SaveResult
	for _, e := range events {
		if e == nil {
			continue
		}
		if _, exists := snapshot.Events[e.ID]; exists {
			res.Skipped++
			continue
		}
		snapshot.Events[e.ID] = e
		res.Inserted++
	}

	if res.Inserted == 0 {
		return res, nil
	}
	if err := s.write(snapshot); err != nil {
		return SaveResult{}, err
	}
	return res, nil
}

// Get retrieves one stored event by ID
func (s *FileStore) Get(id string) (*event.Event, error) {
	snapshot, err := s.Load()
	if err != nil {
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	if evt, exists := snapshot.Events[id]; exists {
		return evt, nil
	}
	return nil, fmt.Errorf("event not found: %s", id)
}

// Close is a no-op; every Save is already on disk
func (s *FileStore) Close(ctx context.Context) error {
	return nil
}

// write replaces the snapshot file via a temp file and rename
func (s *FileStore) write(snapshot *Snapshot) error {
	snapshot.UpdatedAt = s.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}

	tmp := s.Path() + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.Path()); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// Discard accepts everything and stores nothing. It backs --dry-run and the
// "none" backend.
type Discard struct{}

func (Discard) Save(ctx context.Context, events []*event.Event) (SaveResult, error) {
	return SaveResult{Skipped: len(events)}, nil
}

func (Discard) Close(ctx context.Context) error { return nil }
