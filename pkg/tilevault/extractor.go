package tilevault

import "context"

// TileExtractor produces the full metadata record for one source tile.
// Implementations wrap an external point-cloud toolchain; the engine only
// consumes the result.
type TileExtractor interface {
	// Extract parses the tile at tilePath and returns its metadata.
	// Returns an error wrapping ErrTileRead if the file cannot be parsed.
	Extract(ctx context.Context, tilePath string) (*TileMetadata, error)
}

// Reprojector transforms horizontal coordinates between spatial reference
// systems. Implementations delegate to an external geometry library; the
// engine treats CRS equivalence and transform math as opaque.
type Reprojector interface {
	// TransformPoints reprojects (x, y) pairs from srcCRS into dstCRS.
	// The result has the same length and order as the input.
	TransformPoints(srcCRS, dstCRS string, points [][2]float64) ([][2]float64, error)
}
