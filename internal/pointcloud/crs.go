package pointcloud

import "strings"

// NormalizeWKT collapses a CRS WKT definition to a comparable canonical
// form: all whitespace outside quoted strings is removed, so pretty-printed
// and single-line renditions of the same reference system compare equal.
//
// This is a textual normalization only. Deciding whether two genuinely
// different definitions describe the same reference system is delegated to
// the external geometry library; the merge engine calls this symmetrically
// on every tile's CRS so the comparison at least never trips over
// formatting.
func NormalizeWKT(wkt string) string {
	var b strings.Builder
	b.Grow(len(wkt))

	inQuotes := false
	for _, r := range wkt {
		if r == '"' {
			inQuotes = !inQuotes
			b.WriteRune(r)
			continue
		}
		if !inQuotes && (r == ' ' || r == '\t' || r == '\n' || r == '\r') {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
