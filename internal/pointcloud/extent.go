package pointcloud

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// CRS84 is the fixed geodetic reference every tile extent is reprojected
// into for display and spatial indexing.
const CRS84 = "CRS84"

// extentDP is the number of decimal digits kept in geodetic extent output.
const extentDP = 7

// GeodeticExtent reprojects the 4 horizontal corners of a native
// axis-aligned bounding box into CRS84 and returns them as a closed WKT
// POLYGON ring, corners in min/min, min/max, max/max, max/min order. The
// z-range is not projected.
//
// The result is a bounding region guaranteed to contain the reprojected
// true extent only when the native CRS has no rotation relative to the
// chosen corners; it is an approximation of the reprojected envelope, not
// the envelope itself.
func GeodeticExtent(extent tilevault.Extent, nativeCRS string, reproject tilevault.Reprojector) (string, error) {
	corners := [][2]float64{
		{extent.MinX, extent.MinY},
		{extent.MinX, extent.MaxY},
		{extent.MaxX, extent.MaxY},
		{extent.MaxX, extent.MinY},
	}

	projected, err := reproject.TransformPoints(nativeCRS, CRS84, corners)
	if err != nil {
		return "", fmt.Errorf("reprojecting extent to %s: %w", CRS84, err)
	}
	if len(projected) != len(corners) {
		return "", fmt.Errorf("reprojecting extent to %s: got %d points, want %d", CRS84, len(projected), len(corners))
	}

	return "POLYGON(" + ringAsWKT(projected, extentDP) + ")", nil
}

// ringAsWKT formats points as a WKT ring, repeating the first point to
// close it, with each coordinate rounded to dp decimal digits.
func ringAsWKT(points [][2]float64, dp int) string {
	var b strings.Builder
	b.WriteByte('(')
	for i := 0; i <= len(points); i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		p := points[i%len(points)]
		b.WriteString(formatCoord(p[0], dp))
		b.WriteByte(' ')
		b.WriteString(formatCoord(p[1], dp))
	}
	b.WriteByte(')')
	return b.String()
}

// formatCoord rounds to dp digits and drops the trailing zeros, matching
// the compact form stored in pointer records.
func formatCoord(v float64, dp int) string {
	s := strconv.FormatFloat(v, 'f', dp, 64)
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

// FormatExtent flattens an extent to the comma-separated string form used
// in pointer records: minx,maxx,miny,maxy,minz,maxz.
func FormatExtent(e tilevault.Extent) string {
	parts := []float64{e.MinX, e.MaxX, e.MinY, e.MaxY, e.MinZ, e.MaxZ}
	out := make([]string, len(parts))
	for i, v := range parts {
		out[i] = strconv.FormatFloat(v, 'f', -1, 64)
	}
	return strings.Join(out, ",")
}

// ParseExtent parses the comma-separated extent form back into an Extent.
func ParseExtent(s string) (tilevault.Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return tilevault.Extent{}, fmt.Errorf("extent %q: want 6 comma-separated values, got %d", s, len(parts))
	}
	vals := make([]float64, 6)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return tilevault.Extent{}, fmt.Errorf("extent %q: %w", s, err)
		}
		vals[i] = v
	}
	return tilevault.Extent{
		MinX: vals[0], MaxX: vals[1],
		MinY: vals[2], MaxY: vals[3],
		MinZ: vals[4], MaxZ: vals[5],
	}, nil
}
