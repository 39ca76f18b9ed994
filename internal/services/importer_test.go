package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func lazTile(name string, pdrf int) *tilevault.TileMetadata {
	return &tilevault.TileMetadata{
		Format: tilevault.FormatDescriptor{
			Compression:           "laz",
			LASVersion:            "1.4",
			PointDataRecordFormat: pdrf,
			PointDataRecordLength: 30,
		},
		Schema: tilevault.SchemaDescriptor{
			Dimensions: []tilevault.Dimension{
				{Name: "X", Size: 4, Kind: tilevault.DimensionSigned},
				{Name: "Y", Size: 4, Kind: tilevault.DimensionSigned},
				{Name: "Z", Size: 4, Kind: tilevault.DimensionSigned},
			},
		},
		CRS: `PROJCS["NZTM2000"]`,
		Tile: tilevault.TileInfo{
			Name:       name,
			Format:     "laz-1.4",
			PointCount: 100,
			OID:        "sha256:" + name,
			Size:       1024,
		},
	}
}

func newTestImporter(extractor *mockExtractor, store *mockStore) *ImportService {
	return NewImportService(extractor, store, mockLogger{})
}

func TestImportService_HomogeneousTiles(t *testing.T) {
	tiles := map[string]*tilevault.TileMetadata{
		"a.laz": lazTile("a.laz", 6),
		"b.laz": lazTile("b.laz", 6),
	}
	store := newMockStore()
	svc := newTestImporter(&mockExtractor{tiles: tiles}, store)

	merged, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   []string{"a.laz", "b.laz"},
	})
	require.NoError(t, err)
	require.NotNil(t, merged)
	assert.False(t, merged.HasConflicts())

	meta := store.meta["auckland"]
	require.NotNil(t, meta)
	assert.Contains(t, meta[tilevault.MetaItemFormat], `"compression":"laz"`)
	assert.Contains(t, meta[tilevault.MetaItemSchema], `"dimensions"`)
	assert.Equal(t, `PROJCS["NZTM2000"]`, meta[tilevault.MetaItemCRS])

	require.Len(t, store.pointers["auckland"], 2)
	record := store.pointers["auckland"]["a.laz"]
	var fields map[string]string
	require.NoError(t, json.Unmarshal(record, &fields))
	assert.Equal(t, "a.laz", fields["name"])
	assert.Equal(t, "sha256:a.laz", fields["oid"])
}

func TestImportService_HeterogeneousFormat_Fails(t *testing.T) {
	las := lazTile("old.las", 1)
	las.Format.Compression = "las"
	las.Format.LASVersion = "1.2"

	tiles := map[string]*tilevault.TileMetadata{
		"new.laz": lazTile("new.laz", 6),
		"old.las": las,
	}
	store := newMockStore()
	svc := newTestImporter(&mockExtractor{tiles: tiles}, store)

	_, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   []string{"new.laz", "old.las"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tilevault.ErrHeterogeneousDataset))

	// The report names both distinct formats and the offending tiles.
	msg := err.Error()
	assert.Contains(t, msg, "laz-1.4")
	assert.Contains(t, msg, "las-1.2")
	assert.Contains(t, msg, "new.laz")
	assert.Contains(t, msg, "old.las")

	// Nothing is persisted on failure.
	assert.Empty(t, store.meta)
	assert.Empty(t, store.pointers)
}

func TestImportService_HeterogeneousAllowed_StoresConflicts(t *testing.T) {
	las := lazTile("old.las", 1)
	las.Format.Compression = "las"
	las.Format.LASVersion = "1.2"

	tiles := map[string]*tilevault.TileMetadata{
		"new.laz": lazTile("new.laz", 6),
		"old.las": las,
	}
	store := newMockStore()
	svc := newTestImporter(&mockExtractor{tiles: tiles}, store)

	merged, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath:        "auckland",
		TilePaths:          []string{"new.laz", "old.las"},
		AllowHeterogeneous: true,
	})
	require.NoError(t, err)
	assert.True(t, merged.HasConflicts())

	// A conflicted field is stored as a JSON array of its distinct values.
	formatItem := store.meta["auckland"][tilevault.MetaItemFormat]
	assert.True(t, strings.HasPrefix(formatItem, "["), "expected JSON array, got %s", formatItem)
}

func TestImportService_ConvertToCOPC_CollapsesConflicts(t *testing.T) {
	las := lazTile("old.las", 1)
	las.Format.Compression = "las"
	las.Format.LASVersion = "1.2"

	tiles := map[string]*tilevault.TileMetadata{
		"new.laz": lazTile("new.laz", 6),
		"old.las": las,
	}
	store := newMockStore()
	svc := newTestImporter(&mockExtractor{tiles: tiles}, store)

	merged, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   []string{"new.laz", "old.las"},
		Policy:      tilevault.AsIfConvertedToCOPC,
	})
	require.NoError(t, err)
	assert.False(t, merged.HasConflicts())

	formatItem := store.meta["auckland"][tilevault.MetaItemFormat]
	assert.Contains(t, formatItem, `"optimization":"copc"`)
}

func TestImportService_UnreadableTile_FailsImport(t *testing.T) {
	tiles := map[string]*tilevault.TileMetadata{
		"good.laz": lazTile("good.laz", 6),
	}
	errs := map[string]error{
		"bad.laz": fmt.Errorf("parsing header: %w", tilevault.ErrTileRead),
	}
	store := newMockStore()
	svc := newTestImporter(&mockExtractor{tiles: tiles, errs: errs}, store)

	_, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   []string{"good.laz", "bad.laz"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tilevault.ErrTileRead))
	assert.Contains(t, err.Error(), "bad.laz")
	assert.Empty(t, store.meta)
}

func TestImportService_WorkerPool_ExtractsEveryTile(t *testing.T) {
	tiles := map[string]*tilevault.TileMetadata{}
	var paths []string
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("tile_%02d.laz", i)
		tiles[name] = lazTile(name, 6)
		paths = append(paths, name)
	}
	extractor := &mockExtractor{tiles: tiles}
	store := newMockStore()
	svc := newTestImporter(extractor, store)

	_, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   paths,
		Workers:     3,
	})
	require.NoError(t, err)
	assert.Len(t, extractor.calls, 20)
	assert.Len(t, store.pointers["auckland"], 20)
}

func TestImportService_ExtraMeta_StoredAlongsideDerived(t *testing.T) {
	tiles := map[string]*tilevault.TileMetadata{
		"a.laz": lazTile("a.laz", 6),
	}
	store := newMockStore()
	svc := newTestImporter(&mockExtractor{tiles: tiles}, store)

	_, err := svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   []string{"a.laz"},
		ExtraMeta: map[string]string{
			tilevault.MetaItemTitle: "Auckland LiDAR",
			tilevault.MetaItemCRS:   "should-not-override",
		},
	})
	require.NoError(t, err)

	meta := store.meta["auckland"]
	assert.Equal(t, "Auckland LiDAR", meta[tilevault.MetaItemTitle])
	// Derived items always win over user-supplied values.
	assert.Equal(t, `PROJCS["NZTM2000"]`, meta[tilevault.MetaItemCRS])
}

func TestImportService_InvalidConfig(t *testing.T) {
	svc := newTestImporter(&mockExtractor{}, newMockStore())

	_, err := svc.Import(context.Background(), tilevault.ImportConfig{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tilevault.ErrInvalidConfig))

	_, err = svc.Import(context.Background(), tilevault.ImportConfig{
		DatasetPath: "auckland",
		TilePaths:   []string{"a.laz"},
		Policy:      tilevault.DropFormat | tilevault.AsIfConvertedToCOPC,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, tilevault.ErrInvalidConfig))
}

func TestNewImportService_NilDependencyPanics(t *testing.T) {
	assert.Panics(t, func() { NewImportService(nil, newMockStore(), mockLogger{}) })
	assert.Panics(t, func() { NewImportService(&mockExtractor{}, nil, mockLogger{}) })
	assert.Panics(t, func() { NewImportService(&mockExtractor{}, newMockStore(), nil) })
}

func TestBuildMetaItems_DroppedFieldsOmitted(t *testing.T) {
	merged := tilevault.MergedMetadata{
		Format: tilevault.Resolved(tilevault.FormatDescriptor{}),
		Schema: tilevault.Resolved(tilevault.SchemaDescriptor{}),
		CRS:    tilevault.Resolved(`PROJCS["NZTM2000"]`),
	}

	items, err := buildMetaItems(merged)
	require.NoError(t, err)
	assert.NotContains(t, items, tilevault.MetaItemFormat)
	assert.NotContains(t, items, tilevault.MetaItemSchema)
	assert.Equal(t, `PROJCS["NZTM2000"]`, items[tilevault.MetaItemCRS])
}
