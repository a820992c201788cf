// Package storage persists the mutable state of scene objects so that a
// scene reload shows every switch the way the player left it.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("storage: record not found")

// ObjectRecord is the persisted state of one scene object.
type ObjectRecord struct {
	ID             string
	Name           string
	LayerIndex     int
	TimesRemaining int
	SwitchState    int
	LinkedObjectID string
}

// Store loads and saves object records per scene.
type Store interface {
	LoadScene(ctx context.Context, scene string) ([]ObjectRecord, error)
	SaveObject(ctx context.Context, scene string, rec ObjectRecord) error
	Close() error
}

func validate(scene string, rec ObjectRecord) error {
	if strings.TrimSpace(scene) == "" {
		return fmt.Errorf("scene is required")
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("object id is required")
	}
	if rec.SwitchState != 0 && rec.SwitchState != 1 {
		return fmt.Errorf("switch state must be 0 or 1, got %d", rec.SwitchState)
	}
	return nil
}

// Validate reports whether rec can be stored under scene.
func Validate(scene string, rec ObjectRecord) error {
	return validate(scene, rec)
}

// MemoryStore keeps records in memory. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]map[string]ObjectRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]map[string]ObjectRecord)}
}

func (m *MemoryStore) LoadScene(ctx context.Context, scene string) ([]ObjectRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	byID := m.records[scene]
	out := make([]ObjectRecord, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) SaveObject(ctx context.Context, scene string, rec ObjectRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validate(scene, rec); err != nil {
		return fmt.Errorf("storage: save object: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.records == nil {
		m.records = make(map[string]map[string]ObjectRecord)
	}
	byID, ok := m.records[scene]
	if !ok {
		byID = make(map[string]ObjectRecord)
		m.records[scene] = byID
	}
	byID[rec.ID] = rec
	return nil
}

// Object returns one stored record.
func (m *MemoryStore) Object(scene, id string) (ObjectRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[scene][id]
	if !ok {
		return ObjectRecord{}, ErrNotFound
	}
	return rec, nil
}

func (m *MemoryStore) Close() error { return nil }
