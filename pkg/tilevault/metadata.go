package tilevault

// FormatDescriptor describes the physical file format of one or more
// point-cloud tiles. The zero value is the "empty" descriptor used when
// format information has been deliberately dropped before merging.
type FormatDescriptor struct {
	// Compression is the container compression, eg "las" or "laz".
	Compression string

	// LASVersion is the container version, eg "1.2" or "1.4".
	LASVersion string

	// Optimization names a storage optimization layered on the container,
	// eg "copc". Empty when the tile carries no optimization.
	Optimization string

	// OptimizationVersion is the version of the optimization, eg "1.0".
	// Empty when Optimization is empty.
	OptimizationVersion string

	// PointDataRecordFormat is the LAS PDRF id selecting the per-point layout.
	PointDataRecordFormat int

	// PointDataRecordLength is the per-point record length in bytes.
	PointDataRecordLength int
}

// IsZero reports whether the descriptor carries no format information at all.
func (f FormatDescriptor) IsZero() bool {
	return f == FormatDescriptor{}
}

// IsOptimized reports whether the descriptor names a storage optimization.
func (f FormatDescriptor) IsOptimized() bool {
	return f.Optimization != ""
}

// DimensionKind is the numeric interpretation of a point dimension.
type DimensionKind string

const (
	DimensionFloating DimensionKind = "floating"
	DimensionUnsigned DimensionKind = "unsigned"
	DimensionSigned   DimensionKind = "signed"
)

// Dimension is one per-point dimension in a tile's schema.
type Dimension struct {
	Name string        `json:"name"`
	Size int           `json:"size"`
	Kind DimensionKind `json:"type"`
}

// SchemaDescriptor is the ordered list of per-point dimensions for a tile
// or dataset. The zero value is the "empty" schema used when schema
// information has been deliberately dropped before merging.
type SchemaDescriptor struct {
	Dimensions []Dimension `json:"dimensions"`
}

// IsZero reports whether the schema carries no dimensions.
func (s SchemaDescriptor) IsZero() bool {
	return len(s.Dimensions) == 0
}

// Equal reports whether two schemas have identical dimensions in
// identical order.
func (s SchemaDescriptor) Equal(other SchemaDescriptor) bool {
	if len(s.Dimensions) != len(other.Dimensions) {
		return false
	}
	for i := range s.Dimensions {
		if s.Dimensions[i] != other.Dimensions[i] {
			return false
		}
	}
	return true
}

// Extent is an axis-aligned bounding box in the tile's native CRS.
type Extent struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// TileInfo is the tile-specific metadata that is never merged across tiles.
// It is stored per tile in pointer records, keyed by tile name.
type TileInfo struct {
	// Name is the tile's file name, eg "auckland_0_0.copc.laz".
	Name string

	// CRS84Extent is the reprojected geodetic extent as a closed WKT ring.
	CRS84Extent string

	// Format is the canonical format summary string, eg "laz-1.4/copc-1.0".
	Format string

	// NativeExtent is the bounding box in the tile's native CRS.
	NativeExtent Extent

	// PointCount is the number of point records in the tile.
	PointCount uint64

	// OID is the content hash of the tile, in "sha256:<hex>" form.
	OID string

	// Size is the tile's byte size.
	Size int64
}

// TileMetadata is everything extracted from one source tile: the parts that
// must be dataset-homogeneous (Format, Schema, CRS) and the per-tile parts
// (Tile). Immutable once extracted.
type TileMetadata struct {
	Format FormatDescriptor
	Schema SchemaDescriptor

	// CRS is the tile's spatial reference as normalized WKT.
	CRS string

	Tile TileInfo
}

// RewritePolicy selects how tile metadata is normalized before merging.
// Flags are combinable; DropFormat and DropSchema take precedence over
// AsIfConvertedToCOPC for the part they drop.
type RewritePolicy uint8

const (
	// NoRewrite leaves tile metadata untouched.
	NoRewrite RewritePolicy = 0

	// AsIfConvertedToCOPC rewrites format and schema as if the tile had
	// already been converted to COPC. Only certain PDRFs are allowed in
	// COPC, which constrains the schema too.
	AsIfConvertedToCOPC RewritePolicy = 1 << iota

	// DropOptimization removes optimization metadata from the format,
	// keeping compression and version.
	DropOptimization

	// DropFormat removes all format metadata.
	DropFormat

	// DropSchema removes all schema metadata.
	DropSchema
)

// Has reports whether every flag in mask is set.
func (p RewritePolicy) Has(mask RewritePolicy) bool {
	return p&mask == mask
}

// MetaValue holds the merged value of one dataset-level metadata field.
// It is either resolved (all tiles agreed on a single value) or conflicted
// (an ordered set of distinct values in first-seen order).
//
// Invariants: a conflicted value never contains duplicates, and a field
// with only one distinct value is never conflicted.
type MetaValue[T any] struct {
	values []T
}

// Resolved wraps a single agreed-upon value.
func Resolved[T any](v T) MetaValue[T] {
	return MetaValue[T]{values: []T{v}}
}

// Conflicted wraps an ordered set of distinct conflicting values.
// The caller is responsible for the values being distinct.
func Conflicted[T any](values []T) MetaValue[T] {
	return MetaValue[T]{values: values}
}

// IsZero reports whether the field was never assigned (no tiles merged).
func (v MetaValue[T]) IsZero() bool {
	return len(v.values) == 0
}

// IsConflicted reports whether the field holds more than one distinct value.
func (v MetaValue[T]) IsConflicted() bool {
	return len(v.values) > 1
}

// Value returns the resolved value. ok is false if the field is absent
// or conflicted.
func (v MetaValue[T]) Value() (value T, ok bool) {
	if len(v.values) == 1 {
		return v.values[0], true
	}
	var zero T
	return zero, false
}

// Conflicts returns the distinct conflicting values in first-seen order.
// Returns nil if the field is absent or resolved.
func (v MetaValue[T]) Conflicts() []T {
	if len(v.values) < 2 {
		return nil
	}
	return v.values
}

// All returns every value held, whether resolved or conflicted.
func (v MetaValue[T]) All() []T {
	return v.values
}

// MergedMetadata is the dataset-level metadata produced by merging the
// homogeneous parts of every tile's metadata. Per-tile data (TileInfo) is
// never merged and does not appear here.
type MergedMetadata struct {
	Format MetaValue[FormatDescriptor]
	Schema MetaValue[SchemaDescriptor]
	CRS    MetaValue[string]
}

// HasConflicts reports whether any field ended up with more than one
// distinct value.
func (m MergedMetadata) HasConflicts() bool {
	return m.Format.IsConflicted() || m.Schema.IsConflicted() || m.CRS.IsConflicted()
}
