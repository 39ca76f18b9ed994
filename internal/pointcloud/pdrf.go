package pointcloud

import (
	"fmt"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// LAS point data record formats. A PDRF id selects a fixed set of per-point
// dimensions and a fixed record length. COPC files must use PDRF 6, 7 or 8.
//
// See LAS 1.4 specification, tables 7-15.

// pdrfRecordLength maps a PDRF id to its record length in bytes.
var pdrfRecordLength = map[int]int{
	0:  20,
	1:  28,
	2:  26,
	3:  34,
	4:  57,
	5:  63,
	6:  30,
	7:  36,
	8:  38,
	9:  59,
	10: 67,
}

// Dimension lists per PDRF, as the extractor reports them. These are the
// same tables used when deriving a schema for a simulated COPC conversion,
// so the two paths can never disagree.
var (
	pdrfBaseDims = []tilevault.Dimension{
		{Name: "X", Size: 8, Kind: tilevault.DimensionFloating},
		{Name: "Y", Size: 8, Kind: tilevault.DimensionFloating},
		{Name: "Z", Size: 8, Kind: tilevault.DimensionFloating},
		{Name: "Intensity", Size: 2, Kind: tilevault.DimensionUnsigned},
		{Name: "ReturnNumber", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "NumberOfReturns", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "ScanDirectionFlag", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "EdgeOfFlightLine", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "Classification", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "ScanAngleRank", Size: 4, Kind: tilevault.DimensionFloating},
		{Name: "UserData", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "PointSourceId", Size: 2, Kind: tilevault.DimensionUnsigned},
	}

	gpsTimeDim = tilevault.Dimension{Name: "GpsTime", Size: 8, Kind: tilevault.DimensionFloating}

	rgbDims = []tilevault.Dimension{
		{Name: "Red", Size: 2, Kind: tilevault.DimensionUnsigned},
		{Name: "Green", Size: 2, Kind: tilevault.DimensionUnsigned},
		{Name: "Blue", Size: 2, Kind: tilevault.DimensionUnsigned},
	}

	nirDim = tilevault.Dimension{Name: "Infrared", Size: 2, Kind: tilevault.DimensionUnsigned}

	waveformDims = []tilevault.Dimension{
		{Name: "WavePacketDescriptorIndex", Size: 1, Kind: tilevault.DimensionUnsigned},
		{Name: "ByteOffsetToWaveformData", Size: 8, Kind: tilevault.DimensionUnsigned},
		{Name: "WaveformPacketSize", Size: 4, Kind: tilevault.DimensionUnsigned},
		{Name: "ReturnPointWaveformLocation", Size: 4, Kind: tilevault.DimensionFloating},
		{Name: "Xt", Size: 4, Kind: tilevault.DimensionFloating},
		{Name: "Yt", Size: 4, Kind: tilevault.DimensionFloating},
		{Name: "Zt", Size: 4, Kind: tilevault.DimensionFloating},
	}
)

func dims(groups ...[]tilevault.Dimension) []tilevault.Dimension {
	var result []tilevault.Dimension
	for _, g := range groups {
		result = append(result, g...)
	}
	return result
}

var pdrfDimensions = map[int][]tilevault.Dimension{
	0:  pdrfBaseDims,
	1:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}),
	2:  dims(pdrfBaseDims, rgbDims),
	3:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, rgbDims),
	4:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, waveformDims),
	5:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, rgbDims, waveformDims),
	6:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}),
	7:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, rgbDims),
	8:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, rgbDims, []tilevault.Dimension{nirDim}),
	9:  dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, waveformDims),
	10: dims(pdrfBaseDims, []tilevault.Dimension{gpsTimeDim}, rgbDims, []tilevault.Dimension{nirDim}, waveformDims),
}

// EquivalentCOPCPDRF returns the minimal COPC-compatible PDRF that is a
// superset of the given PDRF's dimensions: 7 for formats carrying RGB,
// 8 for formats carrying RGB and NIR, 6 otherwise.
func EquivalentCOPCPDRF(pdrf int) int {
	switch pdrf {
	case 2, 3, 5, 7:
		return 7
	case 8, 10:
		return 8
	default:
		return 6
	}
}

// RecordLengthForPDRF returns the per-point record length in bytes for a
// PDRF id, or an error for an unknown id.
func RecordLengthForPDRF(pdrf int) (int, error) {
	length, ok := pdrfRecordLength[pdrf]
	if !ok {
		return 0, fmt.Errorf("unknown point data record format %d", pdrf)
	}
	return length, nil
}

// SchemaForPDRF returns the schema a tile with the given PDRF reports,
// derived purely from the PDRF lookup table.
func SchemaForPDRF(pdrf int) (tilevault.SchemaDescriptor, error) {
	dimensions, ok := pdrfDimensions[pdrf]
	if !ok {
		return tilevault.SchemaDescriptor{}, fmt.Errorf("unknown point data record format %d", pdrf)
	}
	out := make([]tilevault.Dimension, len(dimensions))
	copy(out, dimensions)
	return tilevault.SchemaDescriptor{Dimensions: out}, nil
}
