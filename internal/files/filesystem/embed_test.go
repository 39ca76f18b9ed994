package filesystem

import (
	"embed"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

//go:embed testdata
var testdataFS embed.FS

// Embedded files keep whatever line endings the checkout produced.
func crlfToLF(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func TestEmbedFileSystem_Open(t *testing.T) {
	efs := NewEmbedFileSystem(testdataFS, "testdata")

	for _, path := range []string{".", "", "subdir"} {
		dir, err := efs.Open(path)
		require.NoError(t, err, "open %q", path)
		require.NotNil(t, dir)
	}

	dir, err := efs.Open("nonexistent")
	require.Error(t, err)
	require.Nil(t, dir)
}

func TestEmbedFileSystem_ReadFile(t *testing.T) {
	efs := NewEmbedFileSystem(testdataFS, "testdata")

	content, err := efs.ReadFile("params.env")
	require.NoError(t, err)
	assert.Equal(t, "title=Auckland survey\n", crlfToLF(string(content)))

	content, err = efs.ReadFile("subdir/nested.env")
	require.NoError(t, err)
	assert.Equal(t, "region=NZ\n", crlfToLF(string(content)))

	_, err = efs.ReadFile("nonexistent.env")
	require.Error(t, err)
}

func TestEmbedFileSystem_Stat(t *testing.T) {
	efs := NewEmbedFileSystem(testdataFS, "testdata")

	tests := []struct {
		path  string
		isDir bool
	}{
		{".", true},
		{"subdir", true},
		{"params.env", false},
		{"subdir/nested.env", false},
	}
	for _, tt := range tests {
		info, err := efs.Stat(tt.path)
		require.NoError(t, err, "stat %q", tt.path)
		assert.Equal(t, tt.isDir, info.IsDir(), "stat %q", tt.path)
	}

	_, err := efs.Stat("nonexistent")
	require.Error(t, err)
}

func TestEmbedFileSystem_Walk(t *testing.T) {
	efs := NewEmbedFileSystem(testdataFS, "testdata")

	dir, err := efs.Open(".")
	require.NoError(t, err)

	var files, dirs []string
	err = dir.Walk(func(file File, walkErr error) error {
		require.NoError(t, walkErr)
		if file.Info().IsDir() {
			dirs = append(dirs, file.RelativePath())
		} else {
			files = append(files, file.RelativePath())
		}
		return nil
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"params.env", "subdir/nested.env"}, files)
	assert.ElementsMatch(t, []string{".", "subdir"}, dirs)

	for _, p := range files {
		assert.NotContains(t, p, `\`, "relative paths use forward slashes")
	}
}

func TestEmbedFileSystem_WalkReadContent(t *testing.T) {
	efs := NewEmbedFileSystem(testdataFS, "testdata")

	dir, err := efs.Open(".")
	require.NoError(t, err)

	found := false
	err = dir.Walk(func(file File, walkErr error) error {
		require.NoError(t, walkErr)
		if file.Info().IsDir() || file.RelativePath() != "params.env" {
			return nil
		}
		found = true

		content, err := file.ReadContent()
		require.NoError(t, err)
		assert.Equal(t, "title=Auckland survey\n", crlfToLF(string(content)))
		assert.Equal(t, "params.env", file.Info().Name())
		assert.Greater(t, file.Info().Size(), int64(0))
		return nil
	})
	require.NoError(t, err)
	require.True(t, found, "walk should visit params.env")
}

func TestEmbedFileSystem_BackslashPaths(t *testing.T) {
	efs := NewEmbedFileSystem(testdataFS, "testdata")

	// Windows-style separators are normalized before the embed lookup.
	content, err := efs.ReadFile(`subdir\nested.env`)
	require.NoError(t, err)
	assert.Equal(t, "region=NZ\n", crlfToLF(string(content)))
}
