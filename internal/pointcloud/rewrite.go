package pointcloud

import (
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// COPC container constants. A COPC file is always a LAZ 1.4 container; the
// optimization VLR is versioned independently of the container.
const (
	copcCompression = "laz"
	copcLASVersion  = "1.4"
	copcName        = "copc"
	copcVersion     = "1.0"
)

// RewriteFormat normalizes one tile's format descriptor according to the
// import policy, before the merge in Merge sees it.
//
// Callers who already know a batch will be uniformly converted (or
// reformatted) should not fail validation over differences that will be
// erased anyway; rewriting makes the merge succeed cleanly in those cases,
// and keeps the dataset from storing metadata that cannot describe every
// tile.
func RewriteFormat(tile *tilevault.TileMetadata, policy tilevault.RewritePolicy) tilevault.FormatDescriptor {
	orig := tile.Format
	switch {
	case policy.Has(tilevault.DropFormat):
		// The format will certainly change again before storage, so there
		// is nothing worth verifying or storing now.
		return tilevault.FormatDescriptor{}
	case policy.Has(tilevault.DropOptimization):
		// Keep compression and version; drop optimization metadata only.
		stripped := orig
		stripped.Optimization = ""
		stripped.OptimizationVersion = ""
		return stripped
	case policy.Has(tilevault.AsIfConvertedToCOPC):
		newPDRF := EquivalentCOPCPDRF(orig.PointDataRecordFormat)
		length, err := RecordLengthForPDRF(newPDRF)
		if err != nil {
			// EquivalentCOPCPDRF only returns 6, 7 or 8, all of which have
			// known record lengths.
			panic(err)
		}
		return tilevault.FormatDescriptor{
			Compression:           copcCompression,
			LASVersion:            copcLASVersion,
			Optimization:          copcName,
			OptimizationVersion:   copcVersion,
			PointDataRecordFormat: newPDRF,
			PointDataRecordLength: length,
		}
	default:
		return orig
	}
}

// RewriteSchema normalizes one tile's schema descriptor according to the
// import policy. Under AsIfConvertedToCOPC the schema is derived purely
// from the simulated PDRF, ignoring the tile's actual schema, using the
// same PDRF dimension table the extractor uses.
func RewriteSchema(tile *tilevault.TileMetadata, policy tilevault.RewritePolicy) tilevault.SchemaDescriptor {
	if policy.Has(tilevault.DropSchema) {
		return tilevault.SchemaDescriptor{}
	}

	if policy.Has(tilevault.AsIfConvertedToCOPC) {
		newPDRF := EquivalentCOPCPDRF(tile.Format.PointDataRecordFormat)
		schema, err := SchemaForPDRF(newPDRF)
		if err != nil {
			panic(err)
		}
		return schema
	}

	return tile.Schema
}
