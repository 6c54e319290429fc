package memrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JacobBogossian/DomainTracker/internal/model"
)

// MemoryRepository is an in-memory event log optionally backed by a JSON file
type MemoryRepository struct {
	mu       sync.RWMutex
	events   []model.Event
	filePath string
}

// eventJSON is the on-disk form of an event
type eventJSON struct {
	ID        string       `json:"id"`
	Domain    string       `json:"domain"`
	Action    model.Action `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
}

// NewMemoryRepository creates a new in-memory repository without persistence.
// Data is stored only in memory and will be lost when the process terminates.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// NewMemoryRepositoryWithPersistence creates a new in-memory repository backed by a JSON file.
// Existing events are loaded on initialization and every Append rewrites the file.
func NewMemoryRepositoryWithPersistence(filePath string) (*MemoryRepository, error) {
	repo := &MemoryRepository{
		filePath: filePath,
	}

	// Create parent directory if it doesn't exist
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	if err := repo.load(); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	return repo, nil
}

// NewMemoryRepositoryFromJsonString creates a repository initialized with events from a JSON array.
// The repository is not backed by a file and will not persist changes.
func NewMemoryRepositoryFromJsonString(jsonString string) (*MemoryRepository, error) {
	repo := &MemoryRepository{}

	if err := repo.loadFromReader(strings.NewReader(jsonString)); err != nil {
		return nil, err
	}

	return repo, nil
}

// loadFromReader reads a JSON array of events, keeping file order as insertion order
func (r *MemoryRepository) loadFromReader(reader io.Reader) error {
	var stored []eventJSON
	if err := json.NewDecoder(reader).Decode(&stored); err != nil {
		return err
	}

	r.events = make([]model.Event, 0, len(stored))
	for _, e := range stored {
		if !e.Action.Valid() {
			return fmt.Errorf("event %s for %s has unknown action %q", e.ID, e.Domain, e.Action)
		}
		r.events = append(r.events, model.Event{
			ID:        e.ID,
			Domain:    e.Domain,
			Action:    e.Action,
			Timestamp: e.Timestamp,
		})
	}

	return nil
}

// load reads the JSON file and populates the in-memory log
func (r *MemoryRepository) load() error {
	file, err := os.Open(r.filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return err
	}
	if stat.Size() == 0 {
		return nil
	}

	return r.loadFromReader(file)
}

// save writes the whole log to the JSON file.
// If filePath is empty, this is a no-op
func (r *MemoryRepository) save() error {
	if r.filePath == "" {
		return nil
	}

	stored := make([]eventJSON, len(r.events))
	for i, ev := range r.events {
		stored[i] = eventJSON{
			ID:        ev.ID,
			Domain:    ev.Domain,
			Action:    ev.Action,
			Timestamp: ev.Timestamp,
		}
	}

	// Write to a sibling file and rename so a crash never leaves a truncated log
	tmp := r.filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(stored); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, r.filePath)
}

// ActiveRecords derives the active set from the log
func (r *MemoryRepository) ActiveRecords(ctx context.Context) ([]model.ActiveRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return model.ActiveRecordsFromEvents(r.events), nil
}

// Append adds the events to the log, assigning ids to events without one.
// Either every event is appended or none is.
func (r *MemoryRepository) Append(ctx context.Context, events []model.Event) error {
	for _, ev := range events {
		if !ev.Action.Valid() {
			return fmt.Errorf("invalid action %q for %s", ev.Action, ev.Domain)
		}
		if ev.Domain == "" {
			return fmt.Errorf("event domain cannot be empty")
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	before := len(r.events)
	for _, ev := range events {
		if ev.ID == "" {
			ev.ID = uuid.NewString()
		}
		r.events = append(r.events, ev)
	}

	if err := r.save(); err != nil {
		r.events = r.events[:before]
		return fmt.Errorf("failed to persist events: %w", err)
	}
	return nil
}

// History returns the events for one domain, oldest first
func (r *MemoryRepository) History(ctx context.Context, domain string) ([]model.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var history []model.Event
	for _, ev := range r.events {
		if ev.Domain == domain {
			history = append(history, ev)
		}
	}
	if len(history) == 0 {
		return nil, model.ErrNotFound
	}

	model.SortEvents(history)
	return history, nil
}

// Events returns a copy of the whole log in insertion order
func (r *MemoryRepository) Events() []model.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Close is a no-op
func (r *MemoryRepository) Close() error {
	return nil
}
