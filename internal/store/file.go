package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"sfproperty/internal/types"
)

// DefaultFilePath is where the file store keeps its document.
const DefaultFilePath = "saved_properties.json"

type fileDoc struct {
	Properties []types.SavedProperty `json:"properties"`
	Counter    int64                 `json:"counter"`
}

// FileStore keeps the collection in memory and rewrites a JSON file after
// every change.
type FileStore struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	props   []types.SavedProperty
	counter int64
}

// OpenFile loads the store at path. A missing file is an empty store whose
// first id is 1.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultFilePath
	}
	s := &FileStore{path: path, now: time.Now, counter: 1}

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var doc fileDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	s.props = doc.Properties
	s.counter = max(doc.Counter, 1)
	// The counter must stay ahead of every stored id even if the file was
	// edited by hand.
	for _, p := range s.props {
		s.counter = max(s.counter, p.ID+1)
	}
	return s, nil
}

func (s *FileStore) List(ctx context.Context) ([]types.SavedProperty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.SavedProperty, len(s.props))
	copy(out, s.props)
	return out, nil
}

func (s *FileStore) Append(ctx context.Context, data map[string]any) (types.SavedProperty, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := newRecord(s.counter, s.now(), data)
	props := append(slices.Clone(s.props), rec)
	if err := s.persist(props, s.counter+1); err != nil {
		return types.SavedProperty{}, err
	}
	s.props, s.counter = props, s.counter+1
	return rec, nil
}

func (s *FileStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := slices.IndexFunc(s.props, func(p types.SavedProperty) bool { return p.ID == id })
	if i < 0 {
		return ErrNotFound
	}
	props := slices.Delete(slices.Clone(s.props), i, i+1)
	if err := s.persist(props, s.counter); err != nil {
		return err
	}
	s.props = props
	return nil
}

func (s *FileStore) Close() error { return nil }

// persist writes to a temporary file and renames it over the old one.
func (s *FileStore) persist(props []types.SavedProperty, counter int64) error {
	if props == nil {
		props = []types.SavedProperty{}
	}
	b, err := json.MarshalIndent(fileDoc{Properties: props, Counter: counter}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode saved properties: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".saved-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}
