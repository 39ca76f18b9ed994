package workingcopy

import (
	"strings"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// ComputeMetaDiff returns the key-level diff between the committed dataset
// meta items and the meta items observed in the working copy. A key appears
// in the diff when it is present on only one side or its value differs.
func ComputeMetaDiff(dsMeta, wcMeta map[string]string) tilevault.MetaDiff {
	diff := tilevault.MetaDiff{}
	for key, dsValue := range dsMeta {
		wcValue, ok := wcMeta[key]
		if !ok || wcValue != dsValue {
			diff[key] = tilevault.MetaChange{Old: dsValue, New: wcValue}
		}
	}
	for key, wcValue := range wcMeta {
		if _, ok := dsMeta[key]; !ok {
			diff[key] = tilevault.MetaChange{New: wcValue}
		}
	}
	return diff
}

// RemoveHiddenMetaItems strips from the diff every key the backend cannot
// store at all, plus CRS-prefixed keys when the backend cannot diff CRS
// definitions yet. Differences confined to hidden keys are not differences
// the working copy could ever express, so they must not force a rebuild.
func RemoveHiddenMetaItems(backend tilevault.WorkingCopyBackend, diff tilevault.MetaDiff) {
	for _, key := range backend.HiddenMetaItems() {
		delete(diff, key)
	}
	if !backend.SupportsCRSDiff() {
		for key := range diff {
			if strings.HasPrefix(key, tilevault.CRSMetaPrefix) {
				delete(diff, key)
			}
		}
	}
}

// ClassifyMetaDiff computes the visible meta diff between the dataset and
// working-copy snapshots and reports whether the backend can apply it to
// the working-copy table in place. Schema items are aligned through the
// backend's type approximation table first, so a schema that only
// round-tripped through a lossy backend does not register as an edit. An
// empty remaining diff is trivially supported (no-op). When not supported,
// the caller must drop and recreate the table and its capture triggers
// rather than attempt incremental DDL.
func ClassifyMetaDiff(backend tilevault.WorkingCopyBackend, dsMeta, wcMeta map[string]string) (tilevault.MetaDiff, bool) {
	dsMeta, wcMeta = alignSchemaMeta(backend, dsMeta, wcMeta)
	diff := ComputeMetaDiff(dsMeta, wcMeta)
	RemoveHiddenMetaItems(backend, diff)
	return diff, backend.IsMetaUpdateSupported(diff)
}

// alignSchemaMeta rewrites both sides' schema meta items with the
// working-copy columns aligned against the committed columns through
// backend.TryAlignColumn. Columns pair up by position and name; added,
// removed, renamed or reordered columns are genuine edits and are left for
// the diff to report. Unparseable values fall back to raw comparison. The
// caller's maps are never mutated.
func alignSchemaMeta(backend tilevault.WorkingCopyBackend, dsMeta, wcMeta map[string]string) (map[string]string, map[string]string) {
	dsValue, dsOK := dsMeta[tilevault.MetaItemSchema]
	wcValue, wcOK := wcMeta[tilevault.MetaItemSchema]
	if !dsOK || !wcOK || dsValue == wcValue {
		return dsMeta, wcMeta
	}

	dsCols, err := UnmarshalColumns(dsValue)
	if err != nil {
		return dsMeta, wcMeta
	}
	wcCols, err := UnmarshalColumns(wcValue)
	if err != nil || len(wcCols) != len(dsCols) {
		return dsMeta, wcMeta
	}

	for i := range dsCols {
		if dsCols[i].Name != wcCols[i].Name {
			continue
		}
		backend.TryAlignColumn(&dsCols[i], &wcCols[i])
	}

	// Re-marshal both sides so formatting artifacts of the stored values
	// cannot register as differences either.
	dsNorm, err := MarshalColumns(dsCols)
	if err != nil {
		return dsMeta, wcMeta
	}
	wcNorm, err := MarshalColumns(wcCols)
	if err != nil {
		return dsMeta, wcMeta
	}

	dsOut := copyMeta(dsMeta)
	wcOut := copyMeta(wcMeta)
	dsOut[tilevault.MetaItemSchema] = dsNorm
	wcOut[tilevault.MetaItemSchema] = wcNorm
	return dsOut, wcOut
}

func copyMeta(meta map[string]string) map[string]string {
	out := make(map[string]string, len(meta))
	for k, v := range meta {
		out[k] = v
	}
	return out
}
