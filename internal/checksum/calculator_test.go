package checksum

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashBytes(t *testing.T) {
	calc := New()

	// sha256("") is a well-known constant.
	assert.Equal(t,
		"sha256:e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		calc.HashBytes(nil))

	assert.Equal(t, calc.HashBytes([]byte("tile")), calc.HashBytes([]byte("tile")))
	assert.NotEqual(t, calc.HashBytes([]byte("tile a")), calc.HashBytes([]byte("tile b")))
	assert.True(t, strings.HasPrefix(calc.HashBytes([]byte("tile")), OIDPrefix))
}

func TestHashFile(t *testing.T) {
	content := []byte("point cloud tile content")
	path := filepath.Join(t.TempDir(), "tile.laz")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	calc := New()
	oid, size, err := calc.HashFile(path)
	require.NoError(t, err)

	assert.Equal(t, calc.HashBytes(content), oid)
	assert.Equal(t, int64(len(content)), size)
}

func TestHashFile_Missing(t *testing.T) {
	_, _, err := New().HashFile(filepath.Join(t.TempDir(), "absent.laz"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "absent.laz")
}
