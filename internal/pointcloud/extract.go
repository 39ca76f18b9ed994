package pointcloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/vvka-141/tilevault/internal/checksum"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// PDALExtractor implements tilevault.TileExtractor by shelling out to the
// pdal CLI for header and schema information. No point data is read; only
// the LAS header, VLRs and dimension layout.
type PDALExtractor struct {
	// Command is the pdal executable, "pdal" if empty.
	Command string

	Reprojector tilevault.Reprojector
	Calculator  checksum.Calculator
	Logger      tilevault.Logger
}

// NewPDALExtractor creates an extractor using the pdal binary on PATH.
func NewPDALExtractor(reproject tilevault.Reprojector, calc checksum.Calculator, logger tilevault.Logger) *PDALExtractor {
	return &PDALExtractor{
		Command:     "pdal",
		Reprojector: reproject,
		Calculator:  calc,
		Logger:      logger,
	}
}

// pdalInfo mirrors the parts of `pdal info --metadata --schema` output the
// engine consumes.
type pdalInfo struct {
	Metadata pdalMetadata `json:"metadata"`
	Schema   struct {
		Dimensions []pdalDimension `json:"dimensions"`
	} `json:"schema"`
}

type pdalMetadata struct {
	Compressed   bool    `json:"compressed"`
	Count        uint64  `json:"count"`
	DataFormatID int     `json:"dataformat_id"`
	PointLength  int     `json:"point_length"`
	MajorVersion int     `json:"major_version"`
	MinorVersion int     `json:"minor_version"`
	COPC         bool    `json:"copc"`
	MinX         float64 `json:"minx"`
	MaxX         float64 `json:"maxx"`
	MinY         float64 `json:"miny"`
	MaxY         float64 `json:"maxy"`
	MinZ         float64 `json:"minz"`
	MaxZ         float64 `json:"maxz"`
	SRS          struct {
		WKT         string `json:"wkt"`
		CompoundWKT string `json:"compoundwkt"`
	} `json:"srs"`
}

type pdalDimension struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// Extract parses the tile at tilePath. This includes the metadata that
// must be dataset-homogeneous (format, schema, CRS) along with the
// tile-specific metadata destined for the tile's pointer record.
func (e *PDALExtractor) Extract(ctx context.Context, tilePath string) (*tilevault.TileMetadata, error) {
	info, err := e.runInfo(ctx, tilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", tilePath, tilevault.ErrTileRead)
	}

	md := info.Metadata
	format := tilevault.FormatDescriptor{
		Compression:           compressionName(md.Compressed),
		LASVersion:            fmt.Sprintf("%d.%d", md.MajorVersion, md.MinorVersion),
		PointDataRecordFormat: md.DataFormatID,
		PointDataRecordLength: md.PointLength,
	}
	if md.COPC {
		format.Optimization = copcName
		// The COPC VLR is hidden by the reader; 1.0 is the only published
		// version so far.
		format.OptimizationVersion = copcVersion
	}

	schema := tilevault.SchemaDescriptor{}
	for _, d := range info.Schema.Dimensions {
		schema.Dimensions = append(schema.Dimensions, tilevault.Dimension{
			Name: d.Name,
			Size: d.Size,
			Kind: tilevault.DimensionKind(d.Type),
		})
	}

	extent := tilevault.Extent{
		MinX: md.MinX, MaxX: md.MaxX,
		MinY: md.MinY, MaxY: md.MaxY,
		MinZ: md.MinZ, MaxZ: md.MaxZ,
	}

	// Reprojection works best given only the horizontal CRS; the compound
	// CRS is the fallback, and is what gets stored as the dataset CRS.
	horizontal := md.SRS.WKT
	if horizontal == "" {
		horizontal = md.SRS.CompoundWKT
	}
	crs84Extent, err := GeodeticExtent(extent, horizontal, e.Reprojector)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", tilePath, err)
	}

	oid, size, err := e.Calculator.HashFile(tilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", tilePath, tilevault.ErrTileRead)
	}

	stored := md.SRS.CompoundWKT
	if stored == "" {
		stored = md.SRS.WKT
	}

	return &tilevault.TileMetadata{
		Format: format,
		Schema: schema,
		CRS:    NormalizeWKT(stored),
		Tile: tilevault.TileInfo{
			Name:         filepath.Base(tilePath),
			CRS84Extent:  crs84Extent,
			Format:       FormatSummary(format),
			NativeExtent: extent,
			PointCount:   md.Count,
			OID:          oid,
			Size:         size,
		},
	}, nil
}

func (e *PDALExtractor) runInfo(ctx context.Context, tilePath string) (*pdalInfo, error) {
	command := e.Command
	if command == "" {
		command = "pdal"
	}

	cmd := exec.CommandContext(ctx, command, "info", "--metadata", "--schema", tilePath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if e.Logger != nil {
			e.Logger.Verbose("pdal info failed for %s: %v: %s", tilePath, err, stderr.String())
		}
		return nil, fmt.Errorf("pdal info: %w", err)
	}

	var info pdalInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("parsing pdal output: %w", err)
	}
	return &info, nil
}

func compressionName(compressed bool) string {
	if compressed {
		return "laz"
	}
	return "las"
}

// Verify PDALExtractor implements the TileExtractor interface at compile time
var _ tilevault.TileExtractor = (*PDALExtractor)(nil)
