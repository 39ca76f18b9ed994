package components

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathCompleter_SingleMatch(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "tiles"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "exports"), 0755))

	c := NewPathCompleter(true)
	result := c.Next(filepath.Join(dir, "ti"))

	assert.Contains(t, result, "tiles")
	assert.True(t, len(result) > 0 && result[len(result)-1] == filepath.Separator,
		"want trailing separator, got %q", result)
}

func TestPathCompleter_CyclesThroughMatches(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"auckland", "hamilton", "wellington"} {
		require.NoError(t, os.Mkdir(filepath.Join(dir, name), 0755))
	}

	c := NewPathCompleter(true)
	input := dir + string(filepath.Separator)

	r1 := c.Next(input)
	r2 := c.Next(input)
	r3 := c.Next(input)

	assert.NotEqual(t, r1, r2)
	assert.NotEqual(t, r2, r3)
	for _, r := range []string{r1, r2, r3} {
		assert.True(t, strings.HasPrefix(r, dir), "want %q under %q", r, dir)
	}
}

func TestPathCompleter_ResetStopsCycling(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "auckland"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "hamilton"), 0755))

	c := NewPathCompleter(true)
	input := dir + string(filepath.Separator)

	r1 := c.Next(input)
	c.Reset()
	r2 := c.Next(input)

	assert.Equal(t, r1, r2, "reset should restart cycling from the first match")
}

func TestPathCompleter_DirsOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auckland.gpkg"), []byte("data"), 0644))

	c := NewPathCompleter(true)
	result := c.Next(dir + string(filepath.Separator))

	assert.Contains(t, result, "subdir")
	assert.NotContains(t, result, "auckland.gpkg")
}

func TestPathCompleter_FilesIncluded(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auckland.gpkg"), []byte("data"), 0644))

	c := NewPathCompleter(false)
	result := c.Next(filepath.Join(dir, "auck"))

	assert.Contains(t, result, "auckland.gpkg")
}

func TestPathCompleter_EmptyDir(t *testing.T) {
	dir := t.TempDir()
	input := dir + string(filepath.Separator)

	c := NewPathCompleter(true)

	assert.Equal(t, input, c.Next(input), "no matches should leave the input unchanged")
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		input  string
		parent string
		prefix string
	}{
		{"", ".", ""},
		{".", ".", ""},
		{"my", ".", "my"},
		{filepath.Join("tiles", "auck"), "tiles", "auck"},
	}

	for _, tt := range tests {
		parent, prefix := splitPath(tt.input)
		assert.Equal(t, tt.parent, parent, "splitPath(%q) parent", tt.input)
		assert.Equal(t, tt.prefix, prefix, "splitPath(%q) prefix", tt.input)
	}
}
