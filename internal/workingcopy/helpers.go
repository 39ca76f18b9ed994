package workingcopy

import (
	"strings"

	"github.com/vvka-141/tilevault/internal/pointcloud"
	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// quoteIdent double-quotes an identifier for Postgres and SQLite.
func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// mysqlQuoteIdent backtick-quotes an identifier for MySQL.
func mysqlQuoteIdent(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// quoteLiteral single-quotes a string literal. Parameterized statements are
// preferred; this exists for DDL positions (trigger bodies, comments) where
// parameters are not accepted.
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// tileRowArgs orders one tile's pointer fields to match the working-copy
// table's column list: pk, crs84_extent, native_extent, format, point_count,
// oid, size.
func tileRowArgs(tile tilevault.TileInfo) []interface{} {
	return []interface{}{
		tile.Name,
		tile.CRS84Extent,
		pointcloud.FormatExtent(tile.NativeExtent),
		tile.Format,
		tile.PointCount,
		tile.OID,
		tile.Size,
	}
}

// entriesFromRows converts (table_name, pk) rows into tracking entries.
func entriesFromRows(rows []tilevault.Row) []tilevault.TrackingEntry {
	entries := make([]tilevault.TrackingEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, tilevault.TrackingEntry{
			Table: row.GetString("table_name"),
			Key:   row.GetString("pk"),
		})
	}
	return entries
}

// columnsFromCatalog converts information_schema column rows into canonical
// column descriptors, normalizing native types through typeMap. Unmapped
// native types pass through lowercased.
func columnsFromCatalog(rows []tilevault.Row, typeMap map[string]string) []tilevault.SchemaColumn {
	cols := make([]tilevault.SchemaColumn, 0, len(rows))
	for _, row := range rows {
		native := strings.ToLower(row.GetString("data_type"))
		canonical, ok := typeMap[native]
		if !ok {
			canonical = native
		}
		cols = append(cols, tilevault.SchemaColumn{
			Name:       row.GetString("column_name"),
			DataType:   canonical,
			NativeType: native,
			Ordinal:    intValue(row, "ordinal_position"),
			Nullable:   strings.EqualFold(row.GetString("is_nullable"), "YES"),
			PKOrdinal:  intValue(row, "pk_ordinal_position"),
		})
	}
	return cols
}

// intValue coerces a numeric catalog value to int, 0 for NULL or absent.
func intValue(row tilevault.Row, name string) int {
	v, ok := row.Get(name)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint32:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		return int(n)
	case []byte:
		return atoiOrZero(string(n))
	case string:
		return atoiOrZero(n)
	}
	return 0
}

func atoiOrZero(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
	}
	return n
}
