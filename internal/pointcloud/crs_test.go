package pointcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeWKT(t *testing.T) {
	pretty := `PROJCS["NZGD2000 / NZTM2000",
    GEOGCS["NZGD2000",
        DATUM["New Zealand Geodetic Datum 2000"]]]`

	compact := `PROJCS["NZGD2000 / NZTM2000",GEOGCS["NZGD2000",DATUM["New Zealand Geodetic Datum 2000"]]]`

	assert.Equal(t, compact, NormalizeWKT(pretty))

	// Idempotent.
	assert.Equal(t, compact, NormalizeWKT(compact))
}

func TestNormalizeWKT_PreservesQuotedWhitespace(t *testing.T) {
	in := `DATUM["New Zealand	Geodetic Datum 2000"]`

	out := NormalizeWKT(in)

	assert.Equal(t, in, out)
}

func TestNormalizeWKT_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeWKT(""))
	assert.Equal(t, "", NormalizeWKT(" \n\t "))
}
