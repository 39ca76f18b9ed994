package filesystem

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

type embedFile struct {
	embedFS *embed.FS
	absPath string // path within the embed.FS, forward slashes
	relPath string
	info    fs.FileInfo
}

func (f *embedFile) Path() string         { return f.absPath }
func (f *embedFile) RelativePath() string { return f.relPath }
func (f *embedFile) Info() FileInfo       { return f.info }

func (f *embedFile) ReadContent() ([]byte, error) {
	return f.embedFS.ReadFile(f.absPath)
}

type embedDirectory struct {
	embedFS *embed.FS
	absPath string
	root    string // for calculating relative paths
}

func (d *embedDirectory) Path() string { return d.absPath }

func (d *embedDirectory) Walk(fn func(File, error) error) error {
	return fs.WalkDir(d.embedFS, d.absPath, func(filePath string, entry fs.DirEntry, err error) error {
		if err != nil {
			return fn(nil, err)
		}

		info, err := entry.Info()
		if err != nil {
			return fn(nil, fmt.Errorf("failed to get file info for %s: %w", filePath, err))
		}

		relPath, err := filepath.Rel(d.root, filePath)
		if err != nil {
			return fn(nil, fmt.Errorf("failed to calculate relative path: %w", err))
		}

		return fn(&embedFile{
			embedFS: d.embedFS,
			absPath: filePath,
			relPath: filepath.ToSlash(relPath),
			info:    info,
		}, nil)
	})
}

// EmbedFileSystem wraps an embed.FS as a FileSystemProvider, rooted at
// a subdirectory of the embedded tree.
type EmbedFileSystem struct {
	embedFS embed.FS
	root    string
}

// NewEmbedFileSystem creates a provider over embedFS with root as its
// top-level directory.
func NewEmbedFileSystem(embedFS embed.FS, root string) *EmbedFileSystem {
	return &EmbedFileSystem{
		embedFS: embedFS,
		root:    path.Clean(root),
	}
}

// resolve maps a caller path, possibly with backslashes or a leading
// "./", to a clean path inside the embed.FS.
func (efs *EmbedFileSystem) resolve(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	if !strings.HasPrefix(p, "/") && !path.IsAbs(p) {
		p = path.Join(efs.root, p)
	}
	return path.Clean(p)
}

// Open implements FileSystemProvider.
func (efs *EmbedFileSystem) Open(openPath string) (Directory, error) {
	var absPath string
	if openPath == "." || openPath == "" {
		absPath = efs.root
	} else {
		absPath = efs.resolve(openPath)
	}

	// ReadDir doubles as the directory existence check.
	if _, err := efs.embedFS.ReadDir(absPath); err != nil {
		return nil, fmt.Errorf("failed to open directory %s: %w", openPath, err)
	}

	return &embedDirectory{
		embedFS: &efs.embedFS,
		absPath: absPath,
		root:    efs.root,
	}, nil
}

// ReadFile implements FileSystemProvider.
func (efs *EmbedFileSystem) ReadFile(filePath string) ([]byte, error) {
	content, err := efs.embedFS.ReadFile(efs.resolve(filePath))
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}
	return content, nil
}

// Stat implements FileSystemProvider.
func (efs *EmbedFileSystem) Stat(statPath string) (FileInfo, error) {
	info, err := fs.Stat(efs.embedFS, efs.resolve(statPath))
	if err != nil {
		return nil, fmt.Errorf("failed to stat path %s: %w", statPath, err)
	}
	return info, nil
}
