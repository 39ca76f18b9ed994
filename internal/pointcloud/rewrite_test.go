package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func TestRewriteFormat_NoRewritePassesThrough(t *testing.T) {
	tile := copcTile(7, testCRS)

	assert.Equal(t, tile.Format, RewriteFormat(tile, tilevault.NoRewrite))
}

func TestRewriteFormat_DropFormat(t *testing.T) {
	tile := copcTile(7, testCRS)

	out := RewriteFormat(tile, tilevault.DropFormat)

	assert.True(t, out.IsZero())
}

func TestRewriteFormat_DropFormatWinsOverSimulation(t *testing.T) {
	tile := lasTile("1.2", 3, testCRS)

	out := RewriteFormat(tile, tilevault.DropFormat|tilevault.AsIfConvertedToCOPC)

	assert.True(t, out.IsZero())
}

func TestRewriteFormat_DropOptimization(t *testing.T) {
	tile := copcTile(7, testCRS)

	out := RewriteFormat(tile, tilevault.DropOptimization)

	assert.Equal(t, "laz", out.Compression)
	assert.Equal(t, "1.4", out.LASVersion)
	assert.Empty(t, out.Optimization)
	assert.Empty(t, out.OptimizationVersion)
	assert.Equal(t, 7, out.PointDataRecordFormat)
}

func TestRewriteFormat_DropOptimizationWinsOverSimulation(t *testing.T) {
	tile := copcTile(7, testCRS)

	out := RewriteFormat(tile, tilevault.DropOptimization|tilevault.AsIfConvertedToCOPC)

	assert.False(t, out.IsOptimized())
	assert.Equal(t, "laz", out.Compression)
}

func TestRewriteFormat_COPCSimulation(t *testing.T) {
	cases := []struct {
		pdrf       int
		wantPDRF   int
		wantLength int
	}{
		{pdrf: 0, wantPDRF: 6, wantLength: 30},
		{pdrf: 1, wantPDRF: 6, wantLength: 30},
		{pdrf: 2, wantPDRF: 7, wantLength: 36},
		{pdrf: 3, wantPDRF: 7, wantLength: 36},
		{pdrf: 6, wantPDRF: 6, wantLength: 30},
		{pdrf: 7, wantPDRF: 7, wantLength: 36},
		{pdrf: 8, wantPDRF: 8, wantLength: 38},
		{pdrf: 10, wantPDRF: 8, wantLength: 38},
	}

	for _, tc := range cases {
		tile := lasTile("1.2", tc.pdrf, testCRS)

		out := RewriteFormat(tile, tilevault.AsIfConvertedToCOPC)

		assert.Equal(t, tilevault.FormatDescriptor{
			Compression:           "laz",
			LASVersion:            "1.4",
			Optimization:          "copc",
			OptimizationVersion:   "1.0",
			PointDataRecordFormat: tc.wantPDRF,
			PointDataRecordLength: tc.wantLength,
		}, out, "PDRF %d", tc.pdrf)
	}
}

func TestRewriteSchema_DropSchema(t *testing.T) {
	tile := lasTile("1.2", 3, testCRS)

	out := RewriteSchema(tile, tilevault.DropSchema)

	assert.True(t, out.IsZero())
}

func TestRewriteSchema_DropSchemaWinsOverSimulation(t *testing.T) {
	tile := lasTile("1.2", 3, testCRS)

	out := RewriteSchema(tile, tilevault.DropSchema|tilevault.AsIfConvertedToCOPC)

	assert.True(t, out.IsZero())
}

func TestRewriteSchema_COPCSimulationIgnoresActualSchema(t *testing.T) {
	// A tile whose reported schema disagrees with its PDRF: the simulated
	// schema comes from the PDRF table, not the tile.
	tile := lasTile("1.2", 3, testCRS)
	tile.Schema = tilevault.SchemaDescriptor{
		Dimensions: []tilevault.Dimension{{Name: "Bogus", Size: 1, Kind: tilevault.DimensionUnsigned}},
	}

	out := RewriteSchema(tile, tilevault.AsIfConvertedToCOPC)

	want, err := SchemaForPDRF(7)
	require.NoError(t, err)
	assert.True(t, want.Equal(out))
}

func TestRewriteSchema_NoRewritePassesThrough(t *testing.T) {
	tile := lasTile("1.2", 3, testCRS)

	out := RewriteSchema(tile, tilevault.NoRewrite)

	assert.True(t, tile.Schema.Equal(out))
}
