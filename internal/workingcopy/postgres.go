package workingcopy

import (
	"context"
	"fmt"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// PostgresBackend is the Postgres working-copy implementation.
//
// Requirements:
//  1. The server needs to exist.
//  2. The database user needs to be able to create and drop tables,
//     triggers and functions in the working-copy schema.
//
// Postgres has the best type preservation of the supported backends, so
// its approximation table is empty.
type PostgresBackend struct{}

// NewPostgresBackend creates a Postgres backend.
func NewPostgresBackend() *PostgresBackend {
	return &PostgresBackend{}
}

// Kind identifies the backend.
func (b *PostgresBackend) Kind() tilevault.BackendKind {
	return tilevault.BackendPostgres
}

// trackFunction is the shared trigger function. The primary key column is
// passed as a trigger argument so one function serves every tracked table.
// ON CONFLICT DO NOTHING gives the dedup/replace semantics: re-recording an
// already-present key is a no-op.
const pgTrackFunction = `
CREATE OR REPLACE FUNCTION public.%s_track() RETURNS trigger LANGUAGE plpgsql AS $$
DECLARE
    pk_col text := tg_argv[0];
    pk_val text;
BEGIN
    IF (tg_op IN ('UPDATE', 'DELETE')) THEN
        EXECUTE format('SELECT ($1).%%I::text', pk_col) INTO pk_val USING OLD;
        INSERT INTO public.%s (table_name, pk) VALUES (tg_table_name, pk_val)
        ON CONFLICT DO NOTHING;
    END IF;
    IF (tg_op IN ('INSERT', 'UPDATE')) THEN
        EXECUTE format('SELECT ($1).%%I::text', pk_col) INTO pk_val USING NEW;
        INSERT INTO public.%s (table_name, pk) VALUES (tg_table_name, pk_val)
        ON CONFLICT DO NOTHING;
    END IF;
    RETURN NULL;
END;
$$;`

// CreateTable creates the tile table and the tracking table.
func (b *PostgresBackend) CreateTable(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	trackSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS public.%s (
            table_name text NOT NULL,
            pk text NOT NULL,
            PRIMARY KEY (table_name, pk)
        );`, quoteIdent(tilevault.TrackingTableName))
	if err := sess.Exec(ctx, trackSQL); err != nil {
		return err
	}

	tableSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS public.%s (
            %s text PRIMARY KEY,
            crs84_extent text,
            native_extent text,
            format text,
            point_count bigint,
            oid text,
            size bigint
        );`, quoteIdent(ds.TableName), quoteIdent(ds.PrimaryKey))
	return sess.Exec(ctx, tableSQL)
}

// DropTable drops the working-copy tile table.
func (b *PostgresBackend) DropTable(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS public.%s;`, quoteIdent(ds.TableName)))
}

// InsertTiles materializes committed tile rows, one row per tile.
func (b *PostgresBackend) InsertTiles(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset, tiles []tilevault.TileInfo) error {
	insertSQL := fmt.Sprintf(`
        INSERT INTO public.%s (%s, crs84_extent, native_extent, format, point_count, oid, size)
        VALUES ($1, $2, $3, $4, $5, $6, $7);`,
		quoteIdent(ds.TableName), quoteIdent(ds.PrimaryKey))
	for _, tile := range tiles {
		if err := sess.Exec(ctx, insertSQL, tileRowArgs(tile)...); err != nil {
			return err
		}
	}
	return nil
}

// WriteMeta writes the dataset title as a comment on the table. Other
// metadata is not representable in a Postgres working copy.
func (b *PostgresBackend) WriteMeta(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	title, ok := ds.Meta[tilevault.MetaItemTitle]
	if !ok {
		return nil
	}
	return sess.Exec(ctx, fmt.Sprintf(`COMMENT ON TABLE public.%s IS %s`,
		quoteIdent(ds.TableName), quoteLiteral(title)))
}

// CreateTriggers installs the shared trigger function and one statement
// trigger per table covering insert, update and delete.
func (b *PostgresBackend) CreateTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	fnSQL := fmt.Sprintf(pgTrackFunction,
		tilevault.TriggerPrefix, tilevault.TrackingTableName, tilevault.TrackingTableName)
	if err := sess.Exec(ctx, fnSQL); err != nil {
		return err
	}

	triggerSQL := fmt.Sprintf(`
        CREATE TRIGGER %s
            AFTER INSERT OR UPDATE OR DELETE ON public.%s
        FOR EACH ROW EXECUTE FUNCTION public.%s_track(%s);`,
		quoteIdent(b.triggerName(ds)), quoteIdent(ds.TableName),
		tilevault.TriggerPrefix, quoteLiteral(ds.PrimaryKey))
	return sess.Exec(ctx, triggerSQL)
}

// DropTriggers removes the capture trigger. The shared function stays; it
// is harmless without triggers referencing it.
func (b *PostgresBackend) DropTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, fmt.Sprintf(`DROP TRIGGER IF EXISTS %s ON public.%s;`,
		quoteIdent(b.triggerName(ds)), quoteIdent(ds.TableName)))
}

func (b *PostgresBackend) triggerName(ds *tilevault.Dataset) string {
	return fmt.Sprintf("%s_%s_track", tilevault.TriggerPrefix, ds.TableName)
}

// TrackedEntries returns the accumulated dirty-key set for the dataset.
func (b *PostgresBackend) TrackedEntries(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) ([]tilevault.TrackingEntry, error) {
	rows, err := sess.Query(ctx, fmt.Sprintf(
		`SELECT table_name, pk FROM public.%s WHERE table_name = $1 ORDER BY pk;`,
		quoteIdent(tilevault.TrackingTableName)), ds.TableName)
	if err != nil {
		return nil, err
	}
	return entriesFromRows(rows), nil
}

// ClearTracked empties the dirty-key set for the dataset.
func (b *PostgresBackend) ClearTracked(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, fmt.Sprintf(
		`DELETE FROM public.%s WHERE table_name = $1;`,
		quoteIdent(tilevault.TrackingTableName)), ds.TableName)
}

// MetaItems reconstructs the dataset's meta items from the Postgres schema
// catalog: the table schema from information_schema, the title from the
// table comment.
func (b *PostgresBackend) MetaItems(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) (map[string]string, error) {
	rows, err := sess.Query(ctx, `
        SELECT
            C.column_name, C.ordinal_position, C.data_type, C.is_nullable,
            KCU.ordinal_position AS pk_ordinal_position
        FROM information_schema.columns C
        LEFT OUTER JOIN information_schema.key_column_usage KCU
        ON (KCU.table_schema = C.table_schema)
        AND (KCU.table_name = C.table_name)
        AND (KCU.column_name = C.column_name)
        WHERE C.table_schema = 'public' AND C.table_name = $1
        ORDER BY C.ordinal_position;`, ds.TableName)
	if err != nil {
		return nil, err
	}

	cols := columnsFromCatalog(rows, pgTypeToCanonical)
	schema, err := MarshalColumns(cols)
	if err != nil {
		return nil, err
	}

	items := map[string]string{tilevault.MetaItemSchema: schema}

	titleRows, err := sess.Query(ctx,
		`SELECT obj_description(to_regclass('public.' || quote_ident($1)), 'pg_class') AS title;`,
		ds.TableName)
	if err != nil {
		return nil, err
	}
	if len(titleRows) == 1 {
		if title := titleRows[0].GetString("title"); title != "" {
			items[tilevault.MetaItemTitle] = title
		}
	}

	return items, nil
}

// HiddenMetaItems lists what a Postgres working copy cannot store: free
// text description and external metadata documents. The title is stored as
// a table comment and is therefore visible.
func (b *PostgresBackend) HiddenMetaItems() []string {
	return []string{
		tilevault.MetaItemDescription,
		tilevault.MetaItemMetadataXML,
	}
}

// SupportsCRSDiff reports that diffing CRS definitions is not yet supported.
func (b *PostgresBackend) SupportsCRSDiff() bool {
	return false
}

// IsMetaUpdateSupported returns true only for an empty diff: any remaining
// meta change drops and rewrites the table.
func (b *PostgresBackend) IsMetaUpdateSupported(diff tilevault.MetaDiff) bool {
	return diff.IsEmpty()
}

// TryAlignColumn aligns column descriptors. Postgres approximates no
// canonical types, so only the geometry Z/M suffix rule applies.
func (b *PostgresBackend) TryAlignColumn(old, new *tilevault.SchemaColumn) bool {
	return tryAlignColumn(nil, nil, old, new)
}

// pgTypeToCanonical maps Postgres declared types to canonical types.
var pgTypeToCanonical = map[string]string{
	"bigint":                      "integer",
	"integer":                     "integer",
	"smallint":                    "integer",
	"double precision":            "float",
	"real":                        "float",
	"numeric":                     "numeric",
	"character varying":           "text",
	"text":                        "text",
	"boolean":                     "boolean",
	"date":                        "date",
	"interval":                    "interval",
	"time without time zone":      "time",
	"timestamp without time zone": "timestamp",
	"timestamp with time zone":    "timestamp",
	"bytea":                       "blob",
	"user-defined":                geometryType,
}

var _ tilevault.WorkingCopyBackend = (*PostgresBackend)(nil)
