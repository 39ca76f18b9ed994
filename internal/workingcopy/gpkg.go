package workingcopy

import (
	"context"
	"fmt"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// GPKGBackend is the GeoPackage (SQLite) working-copy implementation.
// The working copy is a single .gpkg file; the dataset's tiles appear as
// rows of one table registered in gpkg_contents.
type GPKGBackend struct{}

// NewGPKGBackend creates a GeoPackage backend.
func NewGPKGBackend() *GPKGBackend {
	return &GPKGBackend{}
}

// Kind identifies the backend.
func (b *GPKGBackend) Kind() tilevault.BackendKind {
	return tilevault.BackendGPKG
}

// CreateTable creates the tile table, the tracking table, and the
// gpkg_contents registration row carrying title and description.
func (b *GPKGBackend) CreateTable(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	trackSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            table_name TEXT NOT NULL,
            pk TEXT NOT NULL,
            PRIMARY KEY (table_name, pk)
        );`, quoteIdent(tilevault.TrackingTableName))
	if err := sess.Exec(ctx, trackSQL); err != nil {
		return err
	}

	tableSQL := fmt.Sprintf(`
        CREATE TABLE IF NOT EXISTS %s (
            %s TEXT NOT NULL PRIMARY KEY,
            crs84_extent TEXT,
            native_extent TEXT,
            format TEXT,
            point_count INTEGER,
            oid TEXT,
            size INTEGER
        );`, quoteIdent(ds.TableName), quoteIdent(ds.PrimaryKey))
	if err := sess.Exec(ctx, tableSQL); err != nil {
		return err
	}

	contentsSQL := `
        CREATE TABLE IF NOT EXISTS gpkg_contents (
            table_name TEXT NOT NULL PRIMARY KEY,
            data_type TEXT NOT NULL,
            identifier TEXT UNIQUE,
            description TEXT DEFAULT ''
        );`
	return sess.Exec(ctx, contentsSQL)
}

// DropTable drops the working-copy tile table and its gpkg_contents
// registration row.
func (b *GPKGBackend) DropTable(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	if err := sess.Exec(ctx,
		`DELETE FROM gpkg_contents WHERE table_name = ?;`, ds.TableName); err != nil {
		return err
	}
	return sess.Exec(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s;`, quoteIdent(ds.TableName)))
}

// InsertTiles materializes committed tile rows, one row per tile.
func (b *GPKGBackend) InsertTiles(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset, tiles []tilevault.TileInfo) error {
	insertSQL := fmt.Sprintf(`
        INSERT INTO %s (%s, crs84_extent, native_extent, format, point_count, oid, size)
        VALUES (?, ?, ?, ?, ?, ?, ?);`,
		quoteIdent(ds.TableName), quoteIdent(ds.PrimaryKey))
	for _, tile := range tiles {
		if err := sess.Exec(ctx, insertSQL, tileRowArgs(tile)...); err != nil {
			return err
		}
	}
	return nil
}

// WriteMeta registers the table in gpkg_contents with the dataset's title
// (identifier) and description. GeoPackage is the only backend with a
// place for both.
func (b *GPKGBackend) WriteMeta(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, `
        INSERT OR REPLACE INTO gpkg_contents (table_name, data_type, identifier, description)
        VALUES (?, 'attributes', ?, ?);`,
		ds.TableName, ds.Meta[tilevault.MetaItemTitle], ds.Meta[tilevault.MetaItemDescription])
}

// CreateTriggers installs three row triggers. INSERT OR REPLACE gives the
// dedup/replace semantics; the update trigger records both keys so
// primary-key value changes are captured.
//
// SQLite forbids bind parameters inside trigger bodies, so the table name
// is inlined as a quoted literal.
func (b *GPKGBackend) CreateTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	table := quoteIdent(ds.TableName)
	track := quoteIdent(tilevault.TrackingTableName)
	pk := quoteIdent(ds.PrimaryKey)
	tableLit := quoteLiteral(ds.TableName)

	insSQL := fmt.Sprintf(`
        CREATE TRIGGER %s AFTER INSERT ON %s
        BEGIN
            INSERT OR REPLACE INTO %s (table_name, pk) VALUES (%s, NEW.%s);
        END;`,
		quoteIdent(b.triggerName(ds, "ins")), table, track, tableLit, pk)
	if err := sess.Exec(ctx, insSQL); err != nil {
		return err
	}

	updSQL := fmt.Sprintf(`
        CREATE TRIGGER %s AFTER UPDATE ON %s
        BEGIN
            INSERT OR REPLACE INTO %s (table_name, pk) VALUES (%s, OLD.%s);
            INSERT OR REPLACE INTO %s (table_name, pk) VALUES (%s, NEW.%s);
        END;`,
		quoteIdent(b.triggerName(ds, "upd")), table, track, tableLit, pk, track, tableLit, pk)
	if err := sess.Exec(ctx, updSQL); err != nil {
		return err
	}

	delSQL := fmt.Sprintf(`
        CREATE TRIGGER %s AFTER DELETE ON %s
        BEGIN
            INSERT OR REPLACE INTO %s (table_name, pk) VALUES (%s, OLD.%s);
        END;`,
		quoteIdent(b.triggerName(ds, "del")), table, track, tableLit, pk)
	return sess.Exec(ctx, delSQL)
}

// DropTriggers removes the three capture triggers.
func (b *GPKGBackend) DropTriggers(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	for _, kind := range []string{"ins", "upd", "del"} {
		err := sess.Exec(ctx, fmt.Sprintf(`DROP TRIGGER IF EXISTS %s;`,
			quoteIdent(b.triggerName(ds, kind))))
		if err != nil {
			return err
		}
	}
	return nil
}

func (b *GPKGBackend) triggerName(ds *tilevault.Dataset, kind string) string {
	return fmt.Sprintf("%s_%s_%s", tilevault.TriggerPrefix, ds.TableName, kind)
}

// TrackedEntries returns the accumulated dirty-key set for the dataset.
func (b *GPKGBackend) TrackedEntries(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) ([]tilevault.TrackingEntry, error) {
	rows, err := sess.Query(ctx, fmt.Sprintf(
		`SELECT table_name, pk FROM %s WHERE table_name = ? ORDER BY pk;`,
		quoteIdent(tilevault.TrackingTableName)), ds.TableName)
	if err != nil {
		return nil, err
	}
	return entriesFromRows(rows), nil
}

// ClearTracked empties the dirty-key set for the dataset.
func (b *GPKGBackend) ClearTracked(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) error {
	return sess.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE table_name = ?;`,
		quoteIdent(tilevault.TrackingTableName)), ds.TableName)
}

// MetaItems reconstructs the dataset's meta items from the SQLite catalog
// and gpkg_contents.
func (b *GPKGBackend) MetaItems(ctx context.Context, sess tilevault.Session, ds *tilevault.Dataset) (map[string]string, error) {
	rows, err := sess.Query(ctx, fmt.Sprintf(`PRAGMA table_info(%s);`, quoteIdent(ds.TableName)))
	if err != nil {
		return nil, err
	}

	cols := make([]tilevault.SchemaColumn, 0, len(rows))
	for _, row := range rows {
		native := row.GetString("type")
		canonical, ok := gpkgTypeToCanonical[native]
		if !ok {
			canonical = "text"
		}
		cols = append(cols, tilevault.SchemaColumn{
			Name:       row.GetString("name"),
			DataType:   canonical,
			NativeType: native,
			Ordinal:    intValue(row, "cid") + 1,
			Nullable:   intValue(row, "notnull") == 0,
			PKOrdinal:  intValue(row, "pk"),
		})
	}
	schema, err := MarshalColumns(cols)
	if err != nil {
		return nil, err
	}

	items := map[string]string{tilevault.MetaItemSchema: schema}

	contents, err := sess.Query(ctx,
		`SELECT identifier, description FROM gpkg_contents WHERE table_name = ?;`, ds.TableName)
	if err != nil {
		return nil, err
	}
	if len(contents) == 1 {
		if title := contents[0].GetString("identifier"); title != "" {
			items[tilevault.MetaItemTitle] = title
		}
		if desc := contents[0].GetString("description"); desc != "" {
			items[tilevault.MetaItemDescription] = desc
		}
	}

	return items, nil
}

// HiddenMetaItems: gpkg_contents stores title and description, so only
// external metadata documents are hidden.
func (b *GPKGBackend) HiddenMetaItems() []string {
	return []string{tilevault.MetaItemMetadataXML}
}

// SupportsCRSDiff reports that diffing CRS definitions is not yet supported.
func (b *GPKGBackend) SupportsCRSDiff() bool {
	return false
}

// IsMetaUpdateSupported declares one narrow in-place-applicable family:
// title and description changes update gpkg_contents without touching the
// table. Anything else drops and rewrites the table.
func (b *GPKGBackend) IsMetaUpdateSupported(diff tilevault.MetaDiff) bool {
	for key := range diff {
		switch key {
		case tilevault.MetaItemTitle, tilevault.MetaItemDescription:
			continue
		default:
			return false
		}
	}
	return true
}

// gpkgApproximatedTypes maps canonical types SQLite cannot represent
// natively to the canonical type they are stored as.
var gpkgApproximatedTypes = map[string]string{
	"boolean":  "integer",
	"numeric":  "text",
	"interval": "text",
	"time":     "text",
}

// gpkgApproximatedExtraKeys are the extra type fields restored when an
// approximation is unwound.
var gpkgApproximatedExtraKeys = []string{"length", "precision", "scale"}

// TryAlignColumn aligns column descriptors across SQLite's loose type system.
func (b *GPKGBackend) TryAlignColumn(old, new *tilevault.SchemaColumn) bool {
	return tryAlignColumn(gpkgApproximatedTypes, gpkgApproximatedExtraKeys, old, new)
}

// gpkgTypeToCanonical maps SQLite declared types to canonical types.
var gpkgTypeToCanonical = map[string]string{
	"INTEGER":  "integer",
	"REAL":     "float",
	"TEXT":     "text",
	"BLOB":     "blob",
	"DATE":     "date",
	"DATETIME": "timestamp",
	"GEOMETRY": geometryType,
	"POINT":    geometryType,
}

var _ tilevault.WorkingCopyBackend = (*GPKGBackend)(nil)
