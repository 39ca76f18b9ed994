package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_Open_ValidDirectory(t *testing.T) {
	dir := t.TempDir()
	fs := NewOSFileSystem()

	d, err := fs.Open(dir)
	require.NoError(t, err)

	absDir, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, absDir, d.Path())
}

func TestOSFileSystem_Open_NonexistentPath(t *testing.T) {
	fs := NewOSFileSystem()

	_, err := fs.Open(filepath.Join(t.TempDir(), "nonexistent"))
	assert.Error(t, err)
}

func TestOSFileSystem_Open_FileNotDirectory(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "params.env")
	require.NoError(t, os.WriteFile(filePath, []byte("title=Auckland"), 0644))

	fs := NewOSFileSystem()

	_, err := fs.Open(filePath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestOSFileSystem_ReadFile(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "params.env")
	expected := "title=Auckland survey"
	require.NoError(t, os.WriteFile(filePath, []byte(expected), 0644))

	fs := NewOSFileSystem()

	data, err := fs.ReadFile(filePath)
	require.NoError(t, err)
	assert.Equal(t, expected, string(data))
}

func TestOSFileSystem_ReadFile_Nonexistent(t *testing.T) {
	fs := NewOSFileSystem()

	_, err := fs.ReadFile(filepath.Join(t.TempDir(), "nope.env"))
	assert.Error(t, err)
}

func TestOSFileSystem_Stat(t *testing.T) {
	dir := t.TempDir()
	filePath := filepath.Join(dir, "params.env")
	require.NoError(t, os.WriteFile(filePath, []byte("title=Auckland"), 0644))

	fs := NewOSFileSystem()

	info, err := fs.Stat(filePath)
	require.NoError(t, err)
	assert.False(t, info.IsDir())
	assert.Equal(t, "params.env", info.Name())

	info, err = fs.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = fs.Stat(filepath.Join(dir, "nope"))
	assert.Error(t, err)
}

func TestOSFileSystem_Walk(t *testing.T) {
	dir := t.TempDir()

	// dir/
	//   base.env
	//   overrides/
	//     prod.env
	sub := filepath.Join(dir, "overrides")
	require.NoError(t, os.Mkdir(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "base.env"), []byte("title=Auckland"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "prod.env"), []byte("env=prod"), 0644))

	fs := NewOSFileSystem()
	d, err := fs.Open(dir)
	require.NoError(t, err)

	found := map[string]bool{}
	err = d.Walk(func(f File, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !f.Info().IsDir() {
			found[filepath.ToSlash(f.RelativePath())] = true
		}
		return nil
	})
	require.NoError(t, err)

	assert.Len(t, found, 2)
	assert.True(t, found["base.env"])
	assert.True(t, found["overrides/prod.env"])
}

func TestOSFile_ReadContent(t *testing.T) {
	dir := t.TempDir()
	expected := "title=Auckland survey\ndescription=2023 capture"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "params.env"), []byte(expected), 0644))

	fs := NewOSFileSystem()
	d, err := fs.Open(dir)
	require.NoError(t, err)

	var content string
	err = d.Walk(func(f File, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if f.RelativePath() == "params.env" {
			data, readErr := f.ReadContent()
			require.NoError(t, readErr)
			content = string(data)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, expected, content)
}
