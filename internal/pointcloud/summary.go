package pointcloud

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// summaryPattern matches the canonical format summary string:
// "<compression>-<version>" optionally followed by "/<name>-<version>".
var summaryPattern = regexp.MustCompile(`^(la[sz])-([0-9.]+)(?:/([a-z0-9]+)-([0-9.]+))?$`)

// FormatSummary returns the canonical human-readable format identifier for
// a format descriptor, eg "las-1.2" or "laz-1.4/copc-1.0". This string is
// stored per tile in pointer records and per dataset.
func FormatSummary(f tilevault.FormatDescriptor) string {
	summary := f.Compression + "-" + f.LASVersion
	if f.Optimization != "" {
		summary += "/" + f.Optimization + "-" + f.OptimizationVersion
	}
	return summary
}

// IsOptimized reports whether a format value names a storage optimization.
// It accepts either a structured descriptor or a previously produced
// summary string, and agrees with FormatSummary in both representations:
// IsOptimized(FormatSummary(f)) == f.IsOptimized() for all valid f.
func IsOptimized(format interface{}) (bool, error) {
	switch v := format.(type) {
	case tilevault.FormatDescriptor:
		return v.IsOptimized(), nil
	case *tilevault.FormatDescriptor:
		return v.IsOptimized(), nil
	case string:
		m := summaryPattern.FindStringSubmatch(v)
		if m == nil {
			return false, fmt.Errorf("%q: %w", v, tilevault.ErrMalformedFormatString)
		}
		return m[3] != "", nil
	default:
		return false, fmt.Errorf("%T: %w", format, tilevault.ErrMalformedFormatString)
	}
}

// ContainerVersion returns the container (LAS) version of a format value.
// Like IsOptimized it accepts a descriptor or a summary string and agrees
// with FormatSummary's output.
func ContainerVersion(format interface{}) (string, error) {
	switch v := format.(type) {
	case tilevault.FormatDescriptor:
		return v.LASVersion, nil
	case *tilevault.FormatDescriptor:
		return v.LASVersion, nil
	case string:
		m := summaryPattern.FindStringSubmatch(v)
		if m == nil {
			return "", fmt.Errorf("%q: %w", v, tilevault.ErrMalformedFormatString)
		}
		return m[2], nil
	default:
		return "", fmt.Errorf("%T: %w", format, tilevault.ErrMalformedFormatString)
	}
}

// ParseFormatSummary parses a summary string back into a descriptor.
// PDRF and record length are not representable in the summary and are left
// zero. Malformed strings yield ErrMalformedFormatString.
func ParseFormatSummary(summary string) (tilevault.FormatDescriptor, error) {
	m := summaryPattern.FindStringSubmatch(strings.TrimSpace(summary))
	if m == nil {
		return tilevault.FormatDescriptor{}, fmt.Errorf("%q: %w", summary, tilevault.ErrMalformedFormatString)
	}
	return tilevault.FormatDescriptor{
		Compression:         m[1],
		LASVersion:          m[2],
		Optimization:        m[3],
		OptimizationVersion: m[4],
	}, nil
}
