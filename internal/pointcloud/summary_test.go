package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func TestFormatSummary(t *testing.T) {
	assert.Equal(t, "las-1.2", FormatSummary(tilevault.FormatDescriptor{
		Compression: "las", LASVersion: "1.2",
	}))
	assert.Equal(t, "laz-1.4/copc-1.0", FormatSummary(tilevault.FormatDescriptor{
		Compression: "laz", LASVersion: "1.4",
		Optimization: "copc", OptimizationVersion: "1.0",
	}))
}

func TestIsOptimized_AgreesAcrossRepresentations(t *testing.T) {
	descriptors := []tilevault.FormatDescriptor{
		{Compression: "las", LASVersion: "1.2"},
		{Compression: "laz", LASVersion: "1.4"},
		{Compression: "laz", LASVersion: "1.4", Optimization: "copc", OptimizationVersion: "1.0"},
	}

	for _, f := range descriptors {
		fromDescriptor, err := IsOptimized(f)
		require.NoError(t, err)
		fromPointer, err := IsOptimized(&f)
		require.NoError(t, err)
		fromSummary, err := IsOptimized(FormatSummary(f))
		require.NoError(t, err)

		assert.Equal(t, f.IsOptimized(), fromDescriptor)
		assert.Equal(t, f.IsOptimized(), fromPointer)
		assert.Equal(t, f.IsOptimized(), fromSummary, "summary %q", FormatSummary(f))
	}
}

func TestContainerVersion_AgreesAcrossRepresentations(t *testing.T) {
	f := tilevault.FormatDescriptor{
		Compression: "laz", LASVersion: "1.4",
		Optimization: "copc", OptimizationVersion: "1.0",
	}

	fromDescriptor, err := ContainerVersion(f)
	require.NoError(t, err)
	fromSummary, err := ContainerVersion(FormatSummary(f))
	require.NoError(t, err)

	assert.Equal(t, "1.4", fromDescriptor)
	assert.Equal(t, "1.4", fromSummary)
}

func TestSummaryHelpers_MalformedStrings(t *testing.T) {
	malformed := []string{
		"",
		"las",
		"las1.2",
		"pdf-1.2",
		"las-1.2/copc",
		"LAS-1.2",
		"las-1.2/COPC-1.0",
	}

	for _, s := range malformed {
		_, err := IsOptimized(s)
		assert.ErrorIs(t, err, tilevault.ErrMalformedFormatString, "IsOptimized(%q)", s)
		_, err = ContainerVersion(s)
		assert.ErrorIs(t, err, tilevault.ErrMalformedFormatString, "ContainerVersion(%q)", s)
		_, err = ParseFormatSummary(s)
		assert.ErrorIs(t, err, tilevault.ErrMalformedFormatString, "ParseFormatSummary(%q)", s)
	}
}

func TestSummaryHelpers_UnsupportedType(t *testing.T) {
	_, err := IsOptimized(42)
	assert.ErrorIs(t, err, tilevault.ErrMalformedFormatString)
	_, err = ContainerVersion(42)
	assert.ErrorIs(t, err, tilevault.ErrMalformedFormatString)
}

func TestParseFormatSummary_RoundTrip(t *testing.T) {
	for _, summary := range []string{"las-1.2", "laz-1.4", "laz-1.4/copc-1.0"} {
		f, err := ParseFormatSummary(summary)
		require.NoError(t, err)
		assert.Equal(t, summary, FormatSummary(f))
	}
}
