package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEquivalentCOPCPDRF(t *testing.T) {
	want := map[int]int{
		0: 6, 1: 6, 4: 6, 6: 6, 9: 6,
		2: 7, 3: 7, 5: 7, 7: 7,
		8: 8, 10: 8,
	}
	for pdrf, copc := range want {
		assert.Equal(t, copc, EquivalentCOPCPDRF(pdrf), "PDRF %d", pdrf)
	}
}

func TestRecordLengthForPDRF(t *testing.T) {
	length, err := RecordLengthForPDRF(6)
	require.NoError(t, err)
	assert.Equal(t, 30, length)

	length, err = RecordLengthForPDRF(10)
	require.NoError(t, err)
	assert.Equal(t, 67, length)

	_, err = RecordLengthForPDRF(11)
	assert.Error(t, err)
}

func TestSchemaForPDRF_DimensionSets(t *testing.T) {
	schema6, err := SchemaForPDRF(6)
	require.NoError(t, err)
	schema7, err := SchemaForPDRF(7)
	require.NoError(t, err)
	schema8, err := SchemaForPDRF(8)
	require.NoError(t, err)

	// 6 = base + GpsTime, 7 adds RGB, 8 adds NIR on top of 7.
	assert.Len(t, schema6.Dimensions, 13)
	assert.Len(t, schema7.Dimensions, 16)
	assert.Len(t, schema8.Dimensions, 17)

	assert.Equal(t, "GpsTime", schema6.Dimensions[12].Name)
	assert.Equal(t, "Red", schema7.Dimensions[13].Name)
	assert.Equal(t, "Infrared", schema8.Dimensions[16].Name)
}

func TestSchemaForPDRF_Unknown(t *testing.T) {
	_, err := SchemaForPDRF(42)
	assert.Error(t, err)
}

func TestSchemaForPDRF_ReturnsCopy(t *testing.T) {
	a, err := SchemaForPDRF(6)
	require.NoError(t, err)
	a.Dimensions[0].Name = "mutated"

	b, err := SchemaForPDRF(6)
	require.NoError(t, err)
	assert.Equal(t, "X", b.Dimensions[0].Name)
}
