package workingcopy

import (
	"encoding/json"
	"strings"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

// geometryType is the canonical data type name for geometry columns.
const geometryType = "geometry"

// geometryTypeKey is the ExtraTypeInfo key carrying a geometry column's
// declared subtype, eg "point" or "point z".
const geometryTypeKey = "geometryType"

// tryAlignColumn decides whether old and new describe the same column after
// round-tripping through a backend type system that approximates some
// canonical types as others.
//
// approximated maps canonical types the backend cannot represent natively
// to the canonical type it stores them as; extraKeys are the ExtraTypeInfo
// fields that travel with such an approximation. When the table maps
// old -> new, new is rewritten to carry old's canonical type and extra
// fields, because the difference is an artifact of storage, not an edit.
//
// Geometry types are never approximated except for Z/M dimensionality
// suffixes: the more specific declared type ("point z") is accepted in
// place of the generic one ("point").
func tryAlignColumn(approximated map[string]string, extraKeys []string, old, new *tilevault.SchemaColumn) bool {
	if approximated[old.DataType] == new.DataType {
		new.DataType = old.DataType
		for _, key := range extraKeys {
			value, ok := old.ExtraTypeInfo[key]
			if !ok {
				delete(new.ExtraTypeInfo, key)
				continue
			}
			if new.ExtraTypeInfo == nil {
				new.ExtraTypeInfo = map[string]string{}
			}
			new.ExtraTypeInfo[key] = value
		}
	}

	if old.DataType == geometryType && new.DataType == geometryType {
		oldGeom := old.ExtraTypeInfo[geometryTypeKey]
		newGeom := new.ExtraTypeInfo[geometryTypeKey]
		if oldGeom != "" && newGeom != "" && oldGeom != newGeom {
			if baseGeometryType(oldGeom) == newGeom {
				if new.ExtraTypeInfo == nil {
					new.ExtraTypeInfo = map[string]string{}
				}
				new.ExtraTypeInfo[geometryTypeKey] = oldGeom
			}
		}
	}

	return new.DataType == old.DataType
}

// baseGeometryType strips the Z/M suffix from a declared geometry type:
// "point z" -> "point".
func baseGeometryType(declared string) string {
	base, _, _ := strings.Cut(declared, " ")
	return base
}

// columnDict is the serialized form of one column in a schema meta item.
type columnDict struct {
	Name      string `json:"name"`
	DataType  string `json:"dataType"`
	PKOrdinal int    `json:"primaryKeyIndex,omitempty"`
	Nullable  bool   `json:"nullable,omitempty"`

	// Extra type info keys are flattened alongside the fixed fields.
	Extra map[string]string `json:"-"`
}

// UnmarshalColumns parses a schema meta item value back into canonical
// column descriptors. Flattened keys beyond the fixed set are collected
// into ExtraTypeInfo; ordinals are assigned from array position.
func UnmarshalColumns(value string) ([]tilevault.SchemaColumn, error) {
	var raw []map[string]interface{}
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, err
	}

	cols := make([]tilevault.SchemaColumn, 0, len(raw))
	for i, fields := range raw {
		col := tilevault.SchemaColumn{Ordinal: i + 1}
		for key, v := range fields {
			switch key {
			case "name":
				col.Name, _ = v.(string)
			case "dataType":
				col.DataType, _ = v.(string)
			case "primaryKeyIndex":
				if n, ok := v.(float64); ok {
					col.PKOrdinal = int(n) + 1
				}
			default:
				s, ok := v.(string)
				if !ok {
					continue
				}
				if col.ExtraTypeInfo == nil {
					col.ExtraTypeInfo = map[string]string{}
				}
				col.ExtraTypeInfo[key] = s
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// MarshalColumns serializes canonical column descriptors as the value of a
// schema meta item. Extra type info keys are flattened into each column
// object, matching the committed form.
func MarshalColumns(cols []tilevault.SchemaColumn) (string, error) {
	out := make([]map[string]interface{}, 0, len(cols))
	for _, c := range cols {
		m := map[string]interface{}{
			"name":     c.Name,
			"dataType": c.DataType,
		}
		if c.PKOrdinal > 0 {
			m["primaryKeyIndex"] = c.PKOrdinal - 1
		}
		for k, v := range c.ExtraTypeInfo {
			m[k] = v
		}
		out = append(out, m)
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
