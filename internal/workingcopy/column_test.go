package workingcopy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/tilevault/pkg/tilevault"
)

func TestTryAlignColumn_ApproximationUnwound(t *testing.T) {
	approximated := map[string]string{"interval": "text"}
	extraKeys := []string{"length"}

	old := &tilevault.SchemaColumn{
		DataType:      "interval",
		ExtraTypeInfo: map[string]string{"length": "20"},
	}
	observed := &tilevault.SchemaColumn{
		DataType:      "text",
		ExtraTypeInfo: map[string]string{"length": "99"},
	}

	aligned := tryAlignColumn(approximated, extraKeys, old, observed)

	assert.True(t, aligned)
	assert.Equal(t, "interval", observed.DataType)
	assert.Equal(t, "20", observed.ExtraTypeInfo["length"])
}

func TestTryAlignColumn_ExtraKeyRemovedWhenAbsent(t *testing.T) {
	approximated := map[string]string{"numeric": "text"}
	extraKeys := []string{"precision", "scale"}

	old := &tilevault.SchemaColumn{DataType: "numeric"}
	observed := &tilevault.SchemaColumn{
		DataType:      "text",
		ExtraTypeInfo: map[string]string{"precision": "10", "scale": "2"},
	}

	aligned := tryAlignColumn(approximated, extraKeys, old, observed)

	assert.True(t, aligned)
	assert.Equal(t, "numeric", observed.DataType)
	assert.NotContains(t, observed.ExtraTypeInfo, "precision")
	assert.NotContains(t, observed.ExtraTypeInfo, "scale")
}

func TestTryAlignColumn_NoApproximationMismatch(t *testing.T) {
	old := &tilevault.SchemaColumn{DataType: "integer"}
	observed := &tilevault.SchemaColumn{DataType: "text"}

	assert.False(t, tryAlignColumn(nil, nil, old, observed))
	assert.Equal(t, "text", observed.DataType)
}

func TestTryAlignColumn_GeometryZSuffixAccepted(t *testing.T) {
	old := &tilevault.SchemaColumn{
		DataType:      "geometry",
		ExtraTypeInfo: map[string]string{"geometryType": "point z"},
	}
	observed := &tilevault.SchemaColumn{
		DataType:      "geometry",
		ExtraTypeInfo: map[string]string{"geometryType": "point"},
	}

	aligned := tryAlignColumn(nil, nil, old, observed)

	assert.True(t, aligned)
	assert.Equal(t, "point z", observed.ExtraTypeInfo["geometryType"])
}

func TestTryAlignColumn_GeometryDifferentBaseKept(t *testing.T) {
	old := &tilevault.SchemaColumn{
		DataType:      "geometry",
		ExtraTypeInfo: map[string]string{"geometryType": "polygon"},
	}
	observed := &tilevault.SchemaColumn{
		DataType:      "geometry",
		ExtraTypeInfo: map[string]string{"geometryType": "point"},
	}

	// The data types still align; the declared geometry subtype difference
	// stays visible for the schema diff.
	aligned := tryAlignColumn(nil, nil, old, observed)

	assert.True(t, aligned)
	assert.Equal(t, "point", observed.ExtraTypeInfo["geometryType"])
}

func TestMarshalColumns(t *testing.T) {
	cols := []tilevault.SchemaColumn{
		{Name: "tile", DataType: "text", PKOrdinal: 1},
		{Name: "point_count", DataType: "integer"},
		{Name: "shape", DataType: "geometry", ExtraTypeInfo: map[string]string{"geometryType": "point z"}},
	}

	out, err := MarshalColumns(cols)
	require.NoError(t, err)

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 3)

	assert.Equal(t, "tile", decoded[0]["name"])
	assert.Equal(t, "text", decoded[0]["dataType"])
	// PKOrdinal is 1-based, the serialized index is 0-based.
	assert.Equal(t, float64(0), decoded[0]["primaryKeyIndex"])

	assert.Equal(t, "point_count", decoded[1]["name"])
	assert.NotContains(t, decoded[1], "primaryKeyIndex")

	// Extra type info keys are flattened into the column object.
	assert.Equal(t, "point z", decoded[2]["geometryType"])
}

func TestUnmarshalColumns(t *testing.T) {
	cols, err := UnmarshalColumns(`[` +
		`{"name":"tile","dataType":"text","primaryKeyIndex":0},` +
		`{"name":"shape","dataType":"geometry","geometryType":"point z"}]`)
	require.NoError(t, err)
	require.Len(t, cols, 2)

	assert.Equal(t, "tile", cols[0].Name)
	assert.Equal(t, "text", cols[0].DataType)
	assert.Equal(t, 1, cols[0].PKOrdinal)
	assert.Equal(t, 1, cols[0].Ordinal)

	assert.Equal(t, "shape", cols[1].Name)
	assert.Equal(t, 0, cols[1].PKOrdinal)
	assert.Equal(t, 2, cols[1].Ordinal)
	assert.Equal(t, "point z", cols[1].ExtraTypeInfo["geometryType"])
}

func TestUnmarshalColumns_RoundTrip(t *testing.T) {
	in := []tilevault.SchemaColumn{
		{Name: "tile", DataType: "text", PKOrdinal: 1},
		{Name: "elevation", DataType: "numeric", ExtraTypeInfo: map[string]string{"precision": "10"}},
	}

	serialized, err := MarshalColumns(in)
	require.NoError(t, err)
	cols, err := UnmarshalColumns(serialized)
	require.NoError(t, err)
	reserialized, err := MarshalColumns(cols)
	require.NoError(t, err)

	assert.Equal(t, serialized, reserialized)
}

func TestUnmarshalColumns_Invalid(t *testing.T) {
	_, err := UnmarshalColumns(`{"name":"tile"}`)
	assert.Error(t, err)
}

func TestMarshalColumns_Empty(t *testing.T) {
	out, err := MarshalColumns(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", out)
}
