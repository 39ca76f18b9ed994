package scaffold

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func makeDir(t *testing.T, parent, name string) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	require.NoError(t, os.Mkdir(dir, 0755))
	return dir
}

func TestSafeToInitialize(t *testing.T) {
	t.Run("nonexistent directory", func(t *testing.T) {
		ok, err := safeToInitialize(filepath.Join(t.TempDir(), "nonexistent"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("empty directory", func(t *testing.T) {
		ok, err := safeToInitialize(makeDir(t, t.TempDir(), "empty"))
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("directory with file", func(t *testing.T) {
		dir := makeDir(t, t.TempDir(), "withfile")
		writeTestFile(t, filepath.Join(dir, "notes.txt"), "content")

		ok, err := safeToInitialize(dir)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("directory with subdirectory", func(t *testing.T) {
		dir := makeDir(t, t.TempDir(), "withsubdir")
		makeDir(t, dir, "tiles")

		ok, err := safeToInitialize(dir)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("hidden files count as content", func(t *testing.T) {
		dir := makeDir(t, t.TempDir(), "withhidden")
		writeTestFile(t, filepath.Join(dir, ".hidden"), "content")

		ok, err := safeToInitialize(dir)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("managed files alone permit re-init", func(t *testing.T) {
		dir := makeDir(t, t.TempDir(), "managed")
		writeTestFile(t, filepath.Join(dir, "tilevault.yaml"), "working_copy:\n  backend: gpkg")
		writeTestFile(t, filepath.Join(dir, ".env"), "PGHOST=localhost")

		ok, err := safeToInitialize(dir)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("managed files mixed with others block init", func(t *testing.T) {
		dir := makeDir(t, t.TempDir(), "mixed")
		writeTestFile(t, filepath.Join(dir, "tilevault.yaml"), "{}")
		writeTestFile(t, filepath.Join(dir, "other.txt"), "data")

		ok, err := safeToInitialize(dir)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("path is a file", func(t *testing.T) {
		file := filepath.Join(t.TempDir(), "plain.txt")
		writeTestFile(t, file, "data")

		_, err := safeToInitialize(file)
		require.Error(t, err)
	})
}

func TestCreateRepository_RefusesNonEmptyDirectory(t *testing.T) {
	targetDir := makeDir(t, t.TempDir(), "nonempty")
	writeTestFile(t, filepath.Join(targetDir, "existing.txt"), "existing content")

	err := NewScaffolder(false).CreateRepository("testrepo", "gpkg", targetDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not empty")
}

func TestCreateRepository_AcceptsEmptyDirectory(t *testing.T) {
	targetDir := makeDir(t, t.TempDir(), "empty")

	require.NoError(t, NewScaffolder(false).CreateRepository("testrepo", "gpkg", targetDir))
	assert.FileExists(t, filepath.Join(targetDir, "tilevault.yaml"))
}

func TestCreateRepository_CreatesMissingDirectory(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "newrepo")

	require.NoError(t, NewScaffolder(false).CreateRepository("testrepo", "gpkg", targetDir))
	assert.DirExists(t, targetDir)
	assert.FileExists(t, filepath.Join(targetDir, "tilevault.yaml"))
}

func TestCreateRepository_CreatesStoreDirectory(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "newrepo")

	require.NoError(t, NewScaffolder(false).CreateRepository("testrepo", "gpkg", targetDir))
	assert.DirExists(t, filepath.Join(targetDir, storeDirName))
}

func TestCreateRepository_SubstitutesRepoName(t *testing.T) {
	targetDir := filepath.Join(t.TempDir(), "auckland")

	require.NoError(t, NewScaffolder(false).CreateRepository("auckland", "gpkg", targetDir))

	content, err := os.ReadFile(filepath.Join(targetDir, "tilevault.yaml"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "{{REPO_NAME}}")
	assert.Contains(t, string(content), "auckland")
}

func TestCreateRepository_UnknownTemplate(t *testing.T) {
	err := NewScaffolder(false).CreateRepository("testrepo", "nope", filepath.Join(t.TempDir(), "x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "'nope' not found")
}

func TestBuildFileTree(t *testing.T) {
	rootDir := makeDir(t, t.TempDir(), "repo")
	writeTestFile(t, filepath.Join(rootDir, "README.md"), "")
	writeTestFile(t, filepath.Join(rootDir, "tilevault.yaml"), "")
	tiles := makeDir(t, rootDir, "tiles")
	writeTestFile(t, filepath.Join(tiles, "auckland_1.laz"), "")

	tree, err := BuildFileTree(rootDir)
	require.NoError(t, err)

	for _, want := range []string{"tilevault.yaml", "README.md", "tiles/", "auckland_1.laz"} {
		assert.Contains(t, tree, want)
	}

	// ReadDir sorts entries, so tilevault.yaml sorts last at the root
	// and gets the corner branch.
	assert.Contains(t, tree, "├── ")
	assert.True(t, strings.HasSuffix(strings.TrimRight(tree, "\n"), "└── tilevault.yaml"),
		"last root entry should close the tree:\n%s", tree)
}

func TestBuildFileTree_EmptyDirectory(t *testing.T) {
	rootDir := makeDir(t, t.TempDir(), "empty")

	tree, err := BuildFileTree(rootDir)
	require.NoError(t, err)
	assert.NotEmpty(t, tree, "even an empty directory prints its own path")
}
