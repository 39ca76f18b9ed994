// Package pointcloud implements the metadata engine for point-cloud tiles:
// per-tile rewrite according to an import policy, the conflict-aware merge
// of many tiles' metadata into one dataset description, format summary and
// geodetic extent helpers, and the PDRF lookup tables they share.
//
// The engine never parses tile files itself; a tilevault.TileExtractor
// supplies TileMetadata and a tilevault.Reprojector supplies coordinate
// transforms.
package pointcloud
