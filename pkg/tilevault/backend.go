package tilevault

import "context"

// Row is one result row as an ordered mapping of column name to value.
// Column order matches the statement's select list.
type Row struct {
	Columns []string
	Values  []interface{}
}

// Get returns the value of the named column. ok is false if the column is
// not present in the row.
func (r Row) Get(name string) (value interface{}, ok bool) {
	for i, c := range r.Columns {
		if c == name {
			return r.Values[i], true
		}
	}
	return nil, false
}

// GetString returns the named column coerced to a string, or "" if the
// column is absent or NULL.
func (r Row) GetString(name string) string {
	v, ok := r.Get(name)
	if !ok || v == nil {
		return ""
	}
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	}
	return ""
}

// Session executes parameterized statements inside one transaction-scoped
// backend session. Each logical operation (import, commit, diff) runs on a
// single session; sessions are not safe for concurrent use.
type Session interface {
	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...interface{}) error

	// Query runs a statement and returns every result row.
	Query(ctx context.Context, sql string, args ...interface{}) ([]Row, error)
}

// TrackingEntry records that a working-copy row differs from the last
// committed baseline. The set of entries is deduplicated: recording the
// same (table, key) twice collapses to one entry.
type TrackingEntry struct {
	Table string
	Key   string
}

// Dataset describes one versioned dataset as a working-copy backend sees it.
type Dataset struct {
	// Path is the dataset's path within the repository, eg "auckland".
	Path string

	// TableName is the working-copy table holding the dataset's tile rows.
	TableName string

	// PrimaryKey is the name of the table's primary key column.
	PrimaryKey string

	// Meta maps meta item keys (MetaItemSchema, MetaItemCRS, ...) to their
	// serialized values as committed in the repository.
	Meta map[string]string
}

// SchemaColumn is one column descriptor, carrying both the canonical type
// and the backend-native details read from the backend's schema catalog.
// Many native descriptors normalize to one canonical descriptor.
type SchemaColumn struct {
	Name string

	// DataType is the canonical type, eg "geometry", "timestamp", "text".
	DataType string

	// ExtraTypeInfo carries canonical type refinements, eg geometryType or
	// geometryCRS for geometry columns.
	ExtraTypeInfo map[string]string

	// NativeType is the backend's declared type, eg "NUMERIC" or "TEXT".
	NativeType string

	// Ordinal is the column's 1-based position in the table.
	Ordinal int

	Nullable bool

	// PKOrdinal is the column's 1-based position in the primary key,
	// or 0 if it is not part of the primary key.
	PKOrdinal int
}

// MetaChange is the old and new serialized value of one meta item.
type MetaChange struct {
	Old string
	New string
}

// MetaDiff is the set of meta item keys whose values differ between the
// committed dataset state and the working copy, after backend-hidden keys
// have been removed. Computed on demand before commit; never persisted.
type MetaDiff map[string]MetaChange

// IsEmpty reports whether no meta items changed.
func (d MetaDiff) IsEmpty() bool {
	return len(d) == 0
}

// WorkingCopyBackend is the capability interface each relational backend
// implements. Backends are selected by configuration; shared behavior lives
// in the default implementations in internal/workingcopy, not in a mutable
// base with overridable hooks.
type WorkingCopyBackend interface {
	// Kind identifies the backend.
	Kind() BackendKind

	// CreateTable creates the working-copy table for the dataset, along
	// with the tracking table if it does not yet exist.
	CreateTable(ctx context.Context, sess Session, ds *Dataset) error

	// DropTable drops the working-copy table. Safe when the table does not
	// exist.
	DropTable(ctx context.Context, sess Session, ds *Dataset) error

	// InsertTiles inserts one row per tile into the working-copy table.
	// Callers populate a freshly created or rebuilt table, so the tiles are
	// assumed absent; capture triggers should be suspended around the bulk
	// load.
	InsertTiles(ctx context.Context, sess Session, ds *Dataset, tiles []TileInfo) error

	// WriteMeta writes whatever dataset metadata the backend can represent
	// (title as a table comment, CRS into a spatial_ref_sys table, ...).
	WriteMeta(ctx context.Context, sess Session, ds *Dataset) error

	// CreateTriggers installs the insert/update/delete capture triggers.
	CreateTriggers(ctx context.Context, sess Session, ds *Dataset) error

	// DropTriggers removes the capture triggers.
	DropTriggers(ctx context.Context, sess Session, ds *Dataset) error

	// TrackedEntries returns the accumulated dirty-key set for the dataset.
	TrackedEntries(ctx context.Context, sess Session, ds *Dataset) ([]TrackingEntry, error)

	// ClearTracked empties the dirty-key set for the dataset, typically
	// after a commit captures the working-copy state.
	ClearTracked(ctx context.Context, sess Session, ds *Dataset) error

	// MetaItems reads the dataset's meta items as observed in the working
	// copy, reconstructed from the backend's schema catalog.
	MetaItems(ctx context.Context, sess Session, ds *Dataset) (map[string]string, error)

	// HiddenMetaItems lists meta item keys the backend cannot store at all.
	// These are removed from both sides before a meta diff is classified.
	HiddenMetaItems() []string

	// SupportsCRSDiff reports whether the backend can diff CRS meta items.
	// When false, CRSMetaPrefix keys are removed before classification.
	SupportsCRSDiff() bool

	// IsMetaUpdateSupported reports whether the given meta diff can be
	// applied to the working-copy table in place. An empty diff is always
	// supported (no-op). When false, the caller must drop and recreate the
	// table and its triggers.
	IsMetaUpdateSupported(diff MetaDiff) bool

	// TryAlignColumn decides whether old and new describe the same column
	// after round-tripping through the backend's lossy type system,
	// rewriting new to carry old's canonical type where the backend's
	// approximation table maps between them. Returns whether the (possibly
	// rewritten) types are now equal.
	TryAlignColumn(old, new *SchemaColumn) bool
}
