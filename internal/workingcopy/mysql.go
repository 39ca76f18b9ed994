package workingcopy

import (
	"context"
	"fmt"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// MySQLBackend is the MySQL working-copy implementation.
//
// Requirements:
//  1. The MySQL server needs to exist.
//  2. The database user needs to be able to create, delete and alter
//     tables and triggers in the working-copy database.
type MySQLBackend struct{}

// NewMySQLBackend creates a MySQL backend.
func NewMySQLBackend() *MySQLBackend {
	return &MySQLBackend{}
}

// Kind identifies the backend.
func (b *MySQLBackend) Kind() tilevault.BackendKind {
	return tilevault.BackendMySQL
}

// CreateTable creates the tile table and the tracking table.
func (b *MySQLBackend) CreateTable(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	trackSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            table_name VARCHAR(256) NOT NULL,
            pk VARCHAR(256) NOT NULL,
            PRIMARY KEY (table_name, pk)
        );`, mysqlQuoteIdent(tilevault.TrackingTableName))
	if err := sess.Exec(ctx, trackSQL); err != nil {
		return err
	}

	tableSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            %s VARCHAR(256) NOT NULL PRIMARY KEY,
            crs84_extent TEXT,
            native_extent TEXT,
            format TEXT,
            point_count BIGINT,
            oid TEXT,
            size BIGINT
        );`, mysqlQuoteIdent(ds.TableName), mysqlQuoteIdent(ds.PrimaryKey))
	return sess.Exec(ctx, tableSQL)
}

// DropTable drops the working-copy tile table.
func (b *MySQLBackend) DropTable(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, mysqlQuoteIdent(ds.TableName)))
}

// InsertTiles materializes committed tile rows, one row per tile.
func (b *MySQLBackend) InsertTiles(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset, tiles []tilevault.TileInfo) error {
	insertSQL := fmt.Sprintf(`
        INSERT INTO %s (%s, crs84_extent, native_extent, format, point_count, oid, size)
        VALUES (?, ?, ?, ?, ?, ?, ?);`,
		mysqlQuoteIdent(ds.TableName), mysqlQuoteIdent(ds.PrimaryKey))
	for _, tile := range tiles {
		if err := sess.Exec(ctx, insertSQL, tileRowArgs(tile)...); err != nil {
			return err
		}
	}
	return nil
}

// WriteMeta writes the dataset title as a table comment. CRS storage is
// not supported for MySQL working copies.
func (b *MySQLBackend) WriteMeta(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	title, ok := ds.Meta[tilevault.MetaItemTitle]
	if !ok {
		return nil
	}
	return sess.Exec(ctx, fmt.Sprintf(`ALTER TABLE %s COMMENT = %s;`,
		mysqlQuoteIdent(ds.TableName), quoteLiteral(title)))
}

// CreateTriggers installs three row triggers. REPLACE INTO gives the
// dedup/replace semantics; the update trigger records both the old and the
// new key so primary-key value changes are captured as delete+insert.
//
// MySQL forbids bind parameters inside trigger bodies, so the table name
// is inlined as a quoted literal.
func (b *MySQLBackend) CreateTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	table := mysqlQuoteIdent(ds.TableName)
	track := mysqlQuoteIdent(tilevault.TrackingTableName)
	pk := mysqlQuoteIdent(ds.PrimaryKey)
	tableLit := quoteLiteral(ds.TableName)

	insSQL := fmt.Sprintf(`
        CREATE TRIGGER %s
            AFTER INSERT ON %s
        FOR EACH ROW
            REPLACE INTO %s (table_name, pk)
            VALUES (%s, NEW.%s);`,
		mysqlQuoteIdent(b.triggerName(ds, "ins")), table, track, tableLit, pk)
	if err := sess.Exec(ctx, insSQL); err != nil {
		return err
	}

	updSQL := fmt.Sprintf(`
        CREATE TRIGGER %s
            AFTER UPDATE ON %s
        FOR EACH ROW
            REPLACE INTO %s (table_name, pk)
            VALUES (%s, OLD.%s), (%s, NEW.%s);`,
		mysqlQuoteIdent(b.triggerName(ds, "upd")), table, track, tableLit, pk, tableLit, pk)
	if err := sess.Exec(ctx, updSQL); err != nil {
		return err
	}

	delSQL := fmt.Sprintf(`
        CREATE TRIGGER %s
            AFTER DELETE ON %s
        FOR EACH ROW
            REPLACE INTO %s (table_name, pk)
            VALUES (%s, OLD.%s);`,
		mysqlQuoteIdent(b.triggerName(ds, "del")), table, track, tableLit, pk)
	return sess.Exec(ctx, delSQL)
}

// DropTriggers removes the three capture triggers.
func (b *MySQLBackend) DropTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	for _, kind := range []string{"ins", "upd", "del"} {
		err := sess.Exec(ctx, fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;`,
			mysqlQuoteIdent(b.triggerName(ds, kind))))
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *MySQLBackend) triggerName(ds *tilevault.Dataset, kind string) string {
	return fmt.Sprintf("%s_%s_%s", tilevault.TriggerPrefix, ds.TableName, kind)
}

// TrackedEntries returns the accumulated dirty-key set for the dataset.
func (b *MySQLBackend) TrackedEntries(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) ([]tilevault.TrackingEntry, error) {
	rows, err := sess.Query(ctx, fmt.Sprintf(
		`SELECT table_name, pk FROM %s WHERE table_name = ? ORDER BY pk;`,
		mysqlQuoteIdent(tilevault.TrackingTableName)), ds.TableName)
	if err != nil {
		return nil, err
	}
	return entriesFromRows(rows), nil
}

// ClearTracked empties the dirty-key set for the dataset.
func (b *MySQLBackend) ClearTracked(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE table_name = ?;`,
		mysqlQuoteIdent(tilevault.TrackingTableName)), ds.TableName)
}

// MetaItems reconstructs the dataset's meta items from information_schema.
func (b *MySQLBackend) MetaItems(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) (map[string]string, error) {
	rows, err := sess.Query(ctx, `
        SELECT
            C.column_name, C.ordinal_position, C.data_type, C.is_nullable,
            KCU.ordinal_position AS pk_ordinal_position
        FROM information_schema.columns C
        LEFT OUTER JOIN information_schema.key_column_usage KCU
        ON (KCU.table_schema = C.table_schema)
        AND (KCU.table_name = C.table_name)
        AND (KCU.column_name = C.column_name)
        WHERE C.table_schema = DATABASE() AND C.table_name = ?
        ORDER BY C.ordinal_position;`, ds.TableName)
	if err != nil {
		return nil, err
	}

	cols := columnsFromCatalog(rows, mysqlTypeToCanonical)
	schema, err := MarshalColumns(cols)
	if err != nil {
		return nil, err
	}
	return map[string]string{tilevault.MetaItemSchema: schema}, nil
}

// HiddenMetaItems lists what a MySQL working copy cannot store. The title
// comment is write-only (it cannot be read back losslessly), so title is
// hidden too.
func (b *MySQLBackend) HiddenMetaItems() []string {
	return []string{
		tilevault.MetaItemTitle,
		tilevault.MetaItemDescription,
		tilevault.MetaItemMetadataXML,
	}
}

// SupportsCRSDiff reports that diffing CRS definitions is not yet supported.
func (b *MySQLBackend) SupportsCRSDiff() bool {
	return false
}

// IsMetaUpdateSupported returns true only for an empty diff: any remaining
// meta change drops and rewrites the table.
func (b *MySQLBackend) IsMetaUpdateSupported(diff tilevault.MetaDiff) bool {
	return diff.IsEmpty()
}

// mysqlApproximatedTypes maps canonical types MySQL cannot represent
// natively to the canonical type they are stored as.
var mysqlApproximatedTypes = map[string]string{
	"interval": "text",
}

// mysqlApproximatedExtraKeys are the extra type fields restored when an
// approximation is unwound.
var mysqlApproximatedExtraKeys = []string{"length"}

// TryAlignColumn aligns column descriptors across MySQL's type system.
func (b *MySQLBackend) TryAlignColumn(old, new *tilevault.SchemaColumn) bool {
	return tryAlignColumn(mysqlApproximatedTypes, mysqlApproximatedExtraKeys, old, new)
}

// mysqlTypeToCanonical maps MySQL declared types to canonical types.
var mysqlTypeToCanonical = map[string]string{
	"bigint":     "integer",
	"int":        "integer",
	"smallint":   "integer",
	"tinyint":    "integer",
	"double":     "float",
	"float":      "float",
	"decimal":    "numeric",
	"varchar":    "text",
	"text":       "text",
	"longtext":   "text",
	"date":       "date",
	"time":       "time",
	"datetime":   "timestamp",
	"timestamp":  "timestamp",
	"blob":       "blob",
	"longblob":   "blob",
	"geometry":   geometryType,
	"point":      geometryType,
	"linestring": geometryType,
	"polygon":    geometryType,
}

var _ tilevault.WorkingCopyBackend = (*MySQLBackend)(nil)
