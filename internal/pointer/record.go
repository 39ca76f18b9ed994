// Package pointer serializes per-tile pointer records.
//
// A pointer record is a flat string-keyed mapping, not nested JSON:
// list-valued fields (the extents) are flattened to comma-separated strings
// with no surrounding brackets. Keys appear in a fixed order so records are
// byte-stable for identical tiles.
package pointer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vvka-141/tilevault/internal/pointcloud"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// Record keys, in serialization order. oid and size are deliberately last.
const (
	KeyName         = "name"
	KeyCRS84Extent  = "crs84Extent"
	KeyNativeExtent = "nativeExtent"
	KeyFormat       = "format"
	KeyPointCount   = "pointCount"
	KeyOID          = "oid"
	KeySize         = "size"
)

var keyOrder = []string{
	KeyName, KeyCRS84Extent, KeyNativeExtent, KeyFormat, KeyPointCount, KeyOID, KeySize,
}

// Marshal serializes a tile's pointer record.
func Marshal(tile tilevault.TileInfo) ([]byte, error) {
	fields := map[string]string{
		KeyName:         tile.Name,
		KeyCRS84Extent:  tile.CRS84Extent,
		KeyNativeExtent: pointcloud.FormatExtent(tile.NativeExtent),
		KeyFormat:       tile.Format,
		KeyPointCount:   strconv.FormatUint(tile.PointCount, 10),
		KeyOID:          tile.OID,
		KeySize:         strconv.FormatInt(tile.Size, 10),
	}

	var b bytes.Buffer
	b.WriteByte('{')
	for i, key := range keyOrder {
		if i > 0 {
			b.WriteByte(',')
		}
		writeJSONString(&b, key)
		b.WriteByte(':')
		writeJSONString(&b, fields[key])
	}
	b.WriteString("}\n")
	return b.Bytes(), nil
}

// Unmarshal parses a pointer record back into a TileInfo.
func Unmarshal(data []byte) (tilevault.TileInfo, error) {
	var fields map[string]string
	if err := json.Unmarshal(data, &fields); err != nil {
		return tilevault.TileInfo{}, fmt.Errorf("parsing pointer record: %w", err)
	}

	extent, err := pointcloud.ParseExtent(fields[KeyNativeExtent])
	if err != nil {
		return tilevault.TileInfo{}, fmt.Errorf("parsing pointer record: %w", err)
	}

	count, err := strconv.ParseUint(fields[KeyPointCount], 10, 64)
	if err != nil {
		return tilevault.TileInfo{}, fmt.Errorf("parsing pointer record pointCount: %w", err)
	}

	size, err := strconv.ParseInt(fields[KeySize], 10, 64)
	if err != nil {
		return tilevault.TileInfo{}, fmt.Errorf("parsing pointer record size: %w", err)
	}

	return tilevault.TileInfo{
		Name:         fields[KeyName],
		CRS84Extent:  fields[KeyCRS84Extent],
		NativeExtent: extent,
		Format:       fields[KeyFormat],
		PointCount:   count,
		OID:          fields[KeyOID],
		Size:         size,
	}, nil
}

func writeJSONString(b *bytes.Buffer, s string) {
	encoded, _ := json.Marshal(s)
	b.Write(encoded)
}
