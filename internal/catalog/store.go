package catalog

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ShapeClass records the frame geometry of a reference image, computed once
// at catalog build time by the shape analyzer. It replaces filename keyword
// heuristics on the primary re-ranking path.
type ShapeClass struct {
	Rectangular bool
	Round       bool
}

// Store is the persisted embedding cache: one L2-normalized embedding and one
// shape class per reference image. It is read-only during matching and only
// rewritten wholesale by an explicit build; Shapes may be empty for blobs
// written before shape metadata existed.
type Store struct {
	Dim        int
	Filenames  []string
	Embeddings [][]float32
	Shapes     []ShapeClass
}

// Len returns the number of catalog entries.
func (s *Store) Len() int { return len(s.Filenames) }

// Validate checks the internal consistency of the blob.
func (s *Store) Validate() error {
	if len(s.Embeddings) != len(s.Filenames) {
		return fmt.Errorf("cache blob mismatch: %d embeddings for %d filenames", len(s.Embeddings), len(s.Filenames))
	}
	if len(s.Shapes) != 0 && len(s.Shapes) != len(s.Filenames) {
		return fmt.Errorf("cache blob mismatch: %d shapes for %d filenames", len(s.Shapes), len(s.Filenames))
	}
	for i, emb := range s.Embeddings {
		if s.Dim > 0 && len(emb) != s.Dim {
			return fmt.Errorf("cache blob mismatch: entry %d has dimension %d, want %d", i, len(emb), s.Dim)
		}
	}
	return nil
}

// HasShapes reports whether shape metadata is available for every entry.
func (s *Store) HasShapes() bool {
	return len(s.Shapes) == len(s.Filenames) && len(s.Shapes) > 0
}

// LoadStore reads the entire cache blob from disk. Missing or corrupt blobs
// return an error; callers degrade to simple matching.
func LoadStore(path string) (*Store, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is from trusted config
	if err != nil {
		return nil, fmt.Errorf("failed to read embedding cache: %w", err)
	}

	var store Store
	dec := gob.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&store); err != nil {
		return nil, fmt.Errorf("failed to decode embedding cache: %w", err)
	}
	if err := store.Validate(); err != nil {
		return nil, err
	}

	return &store, nil
}

// Save writes the blob to disk as a full replacement. The write goes to a
// temp file in the same directory followed by a rename, so a concurrent
// reader sees either the old blob or the new one, never a torn write.
func (s *Store) Save(path string) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Len() == 0 {
		return errors.New("refusing to save empty embedding cache")
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode embedding cache: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to close temp cache file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to replace embedding cache: %w", err)
	}
	return nil
}
