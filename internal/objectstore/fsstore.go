// Package objectstore provides a filesystem-backed implementation of the
// ObjectStore interface. Dataset metadata and tile pointer records are laid
// out under a root directory:
//
//	<root>/<dataset>/meta/<item>      e.g. format.json, schema.json, crs.wkt
//	<root>/<dataset>/tile/<tileName>  one pointer record per tile
//
// The layout is deliberately plain so a store can be inspected (and diffed)
// with standard shell tools.
package objectstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

const (
	metaDirName = "meta"
	tileDirName = "tile"
)

// FSStore is a filesystem-backed ObjectStore rooted at a directory.
type FSStore struct {
	root string
}

// NewFSStore creates a store rooted at root. The directory is created if it
// does not exist.
func NewFSStore(root string) (*FSStore, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store root: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &FSStore{root: absRoot}, nil
}

// Root returns the absolute root directory of the store.
func (s *FSStore) Root() string {
	return s.root
}

// PutMeta replaces the dataset's meta items with the given set. Items present
// on disk but absent from meta are removed, so the stored set always mirrors
// the dataset's current metadata exactly.
func (s *FSStore) PutMeta(ctx context.Context, datasetPath string, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.metaDir(datasetPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create meta directory: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read meta directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if _, keep := meta[entry.Name()]; !keep {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
				return fmt.Errorf("failed to remove stale meta item %s: %w", entry.Name(), err)
			}
		}
	}

	for name, content := range meta {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("failed to write meta item %s: %w", name, err)
		}
	}
	return nil
}

// GetMeta reads the dataset's meta items. A dataset with no committed
// metadata yields an empty map, not an error.
func (s *FSStore) GetMeta(ctx context.Context, datasetPath string) (map[string]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dir := s.metaDir(datasetPath)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("failed to read meta directory: %w", err)
	}

	meta := make(map[string]string, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read meta item %s: %w", entry.Name(), err)
		}
		meta[entry.Name()] = string(content)
	}
	return meta, nil
}

// PutPointer writes one tile's serialized pointer record.
func (s *FSStore) PutPointer(ctx context.Context, datasetPath, tileName string, record []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := s.tileDir(datasetPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create tile directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, tileName), record, 0o644); err != nil {
		return fmt.Errorf("failed to write pointer record for %s: %w", tileName, err)
	}
	return nil
}

// GetPointer reads one tile's serialized pointer record.
func (s *FSStore) GetPointer(ctx context.Context, datasetPath, tileName string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := os.ReadFile(filepath.Join(s.tileDir(datasetPath), tileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read pointer record for %s: %w", tileName, err)
	}
	return record, nil
}

// ListPointers returns the tile names with pointer records, in lexical order.
func (s *FSStore) ListPointers(ctx context.Context, datasetPath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(s.tileDir(datasetPath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read tile directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (s *FSStore) metaDir(datasetPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(datasetPath), metaDirName)
}

func (s *FSStore) tileDir(datasetPath string) string {
	return filepath.Join(s.root, filepath.FromSlash(datasetPath), tileDirName)
}

// Verify FSStore implements the ObjectStore interface at compile time
var _ tilevault.ObjectStore = (*FSStore)(nil)
