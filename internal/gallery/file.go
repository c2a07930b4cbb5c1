package gallery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// personJSON is the on-disk record shape. Image blobs ride as base64
// strings and createdAt as epoch milliseconds.
type personJSON struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Images      [][]byte    `json:"images"`
	CreatedAt   int64       `json:"createdAt"`
	Descriptors [][]float32 `json:"descriptors"`
}

// FileStore keeps the whole gallery in a single JSON file. Every
// mutation rewrites the file; galleries are small (hundreds of people,
// a few samples each) so this stays cheap.
type FileStore struct {
	path string

	mu      sync.Mutex
	persons []personJSON // enrollment order
	loaded  bool
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the gallery file. A missing file is an empty gallery, not
// an error.
func (f *FileStore) Load(_ context.Context) ([]Person, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return nil, err
	}

	out := make([]Person, 0, len(f.persons))
	for _, pj := range f.persons {
		out = append(out, Person{
			ID:          pj.ID,
			Name:        pj.Name,
			CreatedAt:   time.UnixMilli(pj.CreatedAt),
			Images:      pj.Images,
			Descriptors: pj.Descriptors,
		})
	}
	return out, nil
}

// Save upserts one person and rewrites the file.
func (f *FileStore) Save(_ context.Context, person Person) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return err
	}

	pj := personJSON{
		ID:          person.ID,
		Name:        person.Name,
		Images:      person.Images,
		CreatedAt:   person.CreatedAt.UnixMilli(),
		Descriptors: person.Descriptors,
	}

	replaced := false
	for i := range f.persons {
		if f.persons[i].ID == person.ID {
			f.persons[i] = pj
			replaced = true
			break
		}
	}
	if !replaced {
		f.persons = append(f.persons, pj)
	}

	return f.writeLocked()
}

// Delete removes one person and rewrites the file. Deleting an unknown
// id is a no-op; the caller-facing not-found check lives in the
// recognizer store.
func (f *FileStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.loadLocked(); err != nil {
		return err
	}

	for i := range f.persons {
		if f.persons[i].ID == id {
			f.persons = append(f.persons[:i], f.persons[i+1:]...)
			return f.writeLocked()
		}
	}
	return nil
}

func (f *FileStore) loadLocked() error {
	if f.loaded {
		return nil
	}

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		f.persons = nil
		f.loaded = true
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read gallery file: %w", err)
	}

	var persons []personJSON
	if err := json.Unmarshal(data, &persons); err != nil {
		return fmt.Errorf("failed to parse gallery file %s: %w", f.path, err)
	}

	f.persons = persons
	f.loaded = true
	return nil
}

// writeLocked rewrites the gallery through a temp file and rename so a
// crash mid-write never truncates the only copy.
func (f *FileStore) writeLocked() error {
	data, err := json.MarshalIndent(f.persons, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal gallery: %w", err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create gallery directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write gallery file: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace gallery file: %w", err)
	}
	return nil
}
