package pointcloud

import (
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// Merge folds the metadata of every tile into one dataset-level record.
// Each tile's format and schema are first rewritten according to policy,
// then format, schema and CRS are folded with mergeField. Per-tile data
// (TileInfo) is never merged.
//
// Merge never fails: heterogeneity is encoded as a conflicted MetaValue and
// surfaced by the caller, which may fail, warn, or fall back depending on
// its own policy.
//
// Ordering: the element order inside a conflicted value is first-seen order
// and therefore depends on input order. Set membership, and whether any
// field ends up resolved vs conflicted, are order-independent: the same
// multiset of tiles yields the same classification per field regardless of
// iteration order. Callers must not rely on anything stronger.
func Merge(tiles []*tilevault.TileMetadata, policy tilevault.RewritePolicy) tilevault.MergedMetadata {
	var result tilevault.MergedMetadata
	for _, tile := range tiles {
		result.Format = mergeField(result.Format, RewriteFormat(tile, policy), func(a, b tilevault.FormatDescriptor) bool {
			return a == b
		})
		result.Schema = mergeField(result.Schema, RewriteSchema(tile, policy), tilevault.SchemaDescriptor.Equal)
		// The CRS is normalized symmetrically for every tile, not just the
		// first, so textual variants of one reference system compare equal.
		result.CRS = mergeField(result.CRS, NormalizeWKT(tile.CRS), func(a, b string) bool {
			return a == b
		})
	}
	return result
}

// mergeField folds one incoming value into the accumulated value of a field:
//   - absent accumulator: the incoming value is inserted as-is
//   - equal values: no change
//   - already conflicted: the incoming value is appended only if not present
//   - otherwise: the scalar is replaced by a two-element conflict [old, new]
func mergeField[T any](acc tilevault.MetaValue[T], incoming T, eq func(a, b T) bool) tilevault.MetaValue[T] {
	if acc.IsZero() {
		return tilevault.Resolved(incoming)
	}

	existing := acc.All()
	for _, v := range existing {
		if eq(v, incoming) {
			return acc
		}
	}

	merged := make([]T, 0, len(existing)+1)
	merged = append(merged, existing...)
	merged = append(merged, incoming)
	return tilevault.Conflicted(merged)
}
