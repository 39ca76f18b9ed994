package tilevault

import "context"

// ObjectStore persists dataset metadata and per-tile pointer records.
// The production store is a git-compatible content-addressable repository;
// that layer is external to this engine, which only requires these
// operations of it.
type ObjectStore interface {
	// PutMeta writes the dataset's meta items (format.json, schema.json,
	// crs.wkt, ...) for the dataset at datasetPath.
	PutMeta(ctx context.Context, datasetPath string, meta map[string]string) error

	// GetMeta reads the dataset's meta items. Returns an empty map if the
	// dataset has no committed metadata.
	GetMeta(ctx context.Context, datasetPath string) (map[string]string, error)

	// PutPointer writes one tile's serialized pointer record.
	PutPointer(ctx context.Context, datasetPath, tileName string, record []byte) error

	// GetPointer reads one tile's serialized pointer record.
	GetPointer(ctx context.Context, datasetPath, tileName string) ([]byte, error)

	// ListPointers returns the tile names with pointer records for the
	// dataset, in lexical order.
	ListPointers(ctx context.Context, datasetPath string) ([]string, error)
}
