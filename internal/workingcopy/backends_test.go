package workingcopy

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func TestNew_Dispatch(t *testing.T) {
	for _, kind := range []tilevault.BackendKind{
		tilevault.BackendPostgres,
		tilevault.BackendMySQL,
		tilevault.BackendGPKG,
	} {
		backend, err := New(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, backend.Kind())
	}
}

func TestNew_UnknownKind(t *testing.T) {
	_, err := New(tilevault.BackendKind("oracle"))
	require.ErrorIs(t, err, tilevault.ErrInvalidConfig)
}

func TestPostgresBackend_CreateTable(t *testing.T) {
	sess := newFakeSession()
	ds := testDataset()

	require.NoError(t, NewPostgresBackend().CreateTable(context.Background(), sess, ds))

	require.Len(t, sess.execs, 2)
	assert.Contains(t, sess.execs[0], tilevault.TrackingTableName)
	assert.Contains(t, sess.execs[0], "PRIMARY KEY (table_name, pk)")
	assert.Contains(t, sess.execs[1], `"auckland"`)
	assert.Contains(t, sess.execs[1], `"tile" text PRIMARY KEY`)
	assert.Contains(t, sess.execs[1], "point_count bigint")
}

func TestPostgresBackend_DropTable(t *testing.T) {
	sess := newFakeSession()

	require.NoError(t, NewPostgresBackend().DropTable(context.Background(), sess, testDataset()))

	require.Len(t, sess.execs, 1)
	// Schema-qualified and quoted, like every other Postgres statement.
	assert.Equal(t, `DROP TABLE IF EXISTS public."auckland";`, sess.execs[0])
}

func TestPostgresBackend_InsertTiles(t *testing.T) {
	sess := newFakeSession()
	tiles := []tilevault.TileInfo{{Name: "auckland_1"}, {Name: "auckland_2"}}

	require.NoError(t, NewPostgresBackend().InsertTiles(context.Background(), sess, testDataset(), tiles))

	require.Len(t, sess.execs, 2)
	assert.Contains(t, sess.execs[0], `INSERT INTO public."auckland" ("tile", crs84_extent`)
	assert.Contains(t, sess.execs[0], "$7")
}

func TestGPKGBackend_DropTableRemovesContentsRow(t *testing.T) {
	sess := newFakeSession()

	require.NoError(t, NewGPKGBackend().DropTable(context.Background(), sess, testDataset()))

	require.Len(t, sess.execs, 2)
	assert.Contains(t, sess.execs[0], "DELETE FROM gpkg_contents")
	assert.Equal(t, `DROP TABLE IF EXISTS "auckland";`, sess.execs[1])
}

func TestMySQLBackend_DropTable(t *testing.T) {
	sess := newFakeSession()

	require.NoError(t, NewMySQLBackend().DropTable(context.Background(), sess, testDataset()))

	require.Len(t, sess.execs, 1)
	assert.Equal(t, "DROP TABLE IF EXISTS `auckland`;", sess.execs[0])
}

func TestPostgresBackend_WriteMeta(t *testing.T) {
	sess := newFakeSession()
	ds := testDataset()
	ds.Meta[tilevault.MetaItemTitle] = "O'Brien's survey"

	require.NoError(t, NewPostgresBackend().WriteMeta(context.Background(), sess, ds))

	require.Len(t, sess.execs, 1)
	assert.Contains(t, sess.execs[0], "COMMENT ON TABLE")
	assert.Contains(t, sess.execs[0], "'O''Brien''s survey'")
}

func TestPostgresBackend_WriteMeta_NoTitle(t *testing.T) {
	sess := newFakeSession()

	require.NoError(t, NewPostgresBackend().WriteMeta(context.Background(), sess, testDataset()))

	assert.Empty(t, sess.execs)
}

func TestPostgresBackend_CreateDropTriggers(t *testing.T) {
	sess := newFakeSession()
	ds := testDataset()
	b := NewPostgresBackend()
	ctx := context.Background()

	require.NoError(t, b.CreateTriggers(ctx, sess, ds))

	require.Len(t, sess.execs, 2)
	assert.Contains(t, sess.execs[0], "CREATE OR REPLACE FUNCTION public.tilevault_track()")
	assert.Contains(t, sess.execs[0], "ON CONFLICT DO NOTHING")
	assert.Contains(t, sess.execs[1], "AFTER INSERT OR UPDATE OR DELETE ON public.\"auckland\"")
	assert.Contains(t, sess.execs[1], "'tile'")

	require.NoError(t, b.DropTriggers(ctx, sess, ds))
	assert.Contains(t, sess.execs[2], `DROP TRIGGER IF EXISTS "tilevault_auckland_track"`)
}

func TestPostgresBackend_TrackedEntriesAndClear(t *testing.T) {
	sess := newFakeSession()
	sess.rows["SELECT table_name, pk"] = []tilevault.Row{
		{Columns: []string{"table_name", "pk"}, Values: []interface{}{"auckland", "auckland_3"}},
	}
	ds := testDataset()
	b := NewPostgresBackend()
	ctx := context.Background()

	entries, err := b.TrackedEntries(ctx, sess, ds)
	require.NoError(t, err)
	assert.Equal(t, []tilevault.TrackingEntry{{Table: "auckland", Key: "auckland_3"}}, entries)

	require.NoError(t, b.ClearTracked(ctx, sess, ds))
	require.Len(t, sess.execs, 1)
	assert.Contains(t, sess.execs[0], "DELETE FROM public.\"tilevault_track\"")
}

func TestPostgresBackend_MetaItems(t *testing.T) {
	sess := newFakeSession()
	sess.rows["information_schema.columns"] = []tilevault.Row{
		{
			Columns: []string{"column_name", "ordinal_position", "data_type", "is_nullable", "pk_ordinal_position"},
			Values:  []interface{}{"tile", int64(1), "text", "NO", int64(1)},
		},
		{
			Columns: []string{"column_name", "ordinal_position", "data_type", "is_nullable", "pk_ordinal_position"},
			Values:  []interface{}{"point_count", int64(2), "bigint", "YES", nil},
		},
	}
	sess.rows["obj_description"] = []tilevault.Row{
		{Columns: []string{"title"}, Values: []interface{}{"Auckland survey"}},
	}

	items, err := NewPostgresBackend().MetaItems(context.Background(), sess, testDataset())
	require.NoError(t, err)

	assert.Equal(t, "Auckland survey", items[tilevault.MetaItemTitle])

	var cols []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(items[tilevault.MetaItemSchema]), &cols))
	require.Len(t, cols, 2)
	assert.Equal(t, "tile", cols[0]["name"])
	assert.Equal(t, "text", cols[0]["dataType"])
	assert.Equal(t, float64(0), cols[0]["primaryKeyIndex"])
	assert.Equal(t, "integer", cols[1]["dataType"])
}

func TestPostgresBackend_MetaItems_NoComment(t *testing.T) {
	sess := newFakeSession()
	sess.rows["obj_description"] = []tilevault.Row{
		{Columns: []string{"title"}, Values: []interface{}{nil}},
	}

	items, err := NewPostgresBackend().MetaItems(context.Background(), sess, testDataset())
	require.NoError(t, err)

	assert.NotContains(t, items, tilevault.MetaItemTitle)
	assert.Contains(t, items, tilevault.MetaItemSchema)
}

func TestMySQLBackend_CreateTriggers(t *testing.T) {
	sess := newFakeSession()
	ds := testDataset()

	require.NoError(t, NewMySQLBackend().CreateTriggers(context.Background(), sess, ds))

	require.Len(t, sess.execs, 3)
	assert.Contains(t, sess.execs[0], "AFTER INSERT ON `auckland`")
	assert.Contains(t, sess.execs[0], "REPLACE INTO `tilevault_track`")
	assert.Contains(t, sess.execs[0], "NEW.`tile`")
	// The update trigger records both the old and the new key.
	assert.Contains(t, sess.execs[1], "OLD.`tile`")
	assert.Contains(t, sess.execs[1], "NEW.`tile`")
	assert.Contains(t, sess.execs[2], "AFTER DELETE ON `auckland`")
	assert.Contains(t, sess.execs[2], "OLD.`tile`")
}

func TestMySQLBackend_DropTriggersStopsOnError(t *testing.T) {
	sess := newFakeSession()
	sess.execErr["tilevault_auckland_upd"] = assert.AnError

	err := NewMySQLBackend().DropTriggers(context.Background(), sess, testDataset())

	require.Error(t, err)
	assert.Len(t, sess.execs, 2)
}

func TestGPKGBackend_CreateTableRegistersContents(t *testing.T) {
	sess := newFakeSession()
	ds := testDataset()
	b := NewGPKGBackend()
	ctx := context.Background()

	require.NoError(t, b.CreateTable(ctx, sess, ds))

	require.Len(t, sess.execs, 3)
	assert.Contains(t, sess.execs[2], "gpkg_contents")

	ds.Meta[tilevault.MetaItemTitle] = "Auckland survey"
	ds.Meta[tilevault.MetaItemDescription] = "LiDAR tiles"
	require.NoError(t, b.WriteMeta(ctx, sess, ds))
	assert.Contains(t, sess.execs[3], "INSERT OR REPLACE INTO gpkg_contents")
}

func TestGPKGBackend_CreateTriggers(t *testing.T) {
	sess := newFakeSession()

	require.NoError(t, NewGPKGBackend().CreateTriggers(context.Background(), sess, testDataset()))

	require.Len(t, sess.execs, 3)
	assert.Contains(t, sess.execs[0], `AFTER INSERT ON "auckland"`)
	assert.Contains(t, sess.execs[0], `INSERT OR REPLACE INTO "tilevault_track"`)
	assert.Contains(t, sess.execs[1], `OLD."tile"`)
	assert.Contains(t, sess.execs[1], `NEW."tile"`)
}

func TestGPKGBackend_MetaItems(t *testing.T) {
	sess := newFakeSession()
	sess.rows["PRAGMA table_info"] = []tilevault.Row{
		{
			Columns: []string{"cid", "name", "type", "notnull", "pk"},
			Values:  []interface{}{int64(0), "tile", "TEXT", int64(1), int64(1)},
		},
		{
			Columns: []string{"cid", "name", "type", "notnull", "pk"},
			Values:  []interface{}{int64(1), "point_count", "INTEGER", int64(0), int64(0)},
		},
	}
	sess.rows["FROM gpkg_contents"] = []tilevault.Row{
		{Columns: []string{"identifier", "description"}, Values: []interface{}{"Auckland survey", "LiDAR tiles"}},
	}

	items, err := NewGPKGBackend().MetaItems(context.Background(), sess, testDataset())
	require.NoError(t, err)

	assert.Equal(t, "Auckland survey", items[tilevault.MetaItemTitle])
	assert.Equal(t, "LiDAR tiles", items[tilevault.MetaItemDescription])

	var cols []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(items[tilevault.MetaItemSchema]), &cols))
	require.Len(t, cols, 2)
	assert.Equal(t, float64(0), cols[0]["primaryKeyIndex"])
	assert.Equal(t, "integer", cols[1]["dataType"])
}

func TestBackendHiddenMetaItems(t *testing.T) {
	assert.ElementsMatch(t,
		[]string{tilevault.MetaItemDescription, tilevault.MetaItemMetadataXML},
		NewPostgresBackend().HiddenMetaItems())
	assert.ElementsMatch(t,
		[]string{tilevault.MetaItemTitle, tilevault.MetaItemDescription, tilevault.MetaItemMetadataXML},
		NewMySQLBackend().HiddenMetaItems())
	assert.ElementsMatch(t,
		[]string{tilevault.MetaItemMetadataXML},
		NewGPKGBackend().HiddenMetaItems())
}
