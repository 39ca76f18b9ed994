package filesystem

import (
	"io/fs"
)

// FileInfo aliases fs.FileInfo so callers stay within this package's
// vocabulary while remaining compatible with the fs.FS ecosystem.
type FileInfo = fs.FileInfo

// File is a single file with metadata and a content accessor.
type File interface {
	// Path returns the absolute path to the file.
	Path() string

	// RelativePath returns the path relative to the source root.
	RelativePath() string

	// Info returns file metadata.
	Info() FileInfo

	// ReadContent returns the file's content.
	ReadContent() ([]byte, error)
}

// Directory is a tree of files that can be traversed.
type Directory interface {
	// Path returns the absolute path to the directory.
	Path() string

	// Walk visits every file and directory under the root. Returning an
	// error from fn stops the walk and propagates the error.
	Walk(fn func(File, error) error) error
}

// FileSystemProvider opens directories and reads files from some
// backing store: the OS filesystem, an embed.FS, or an in-memory tree
// in tests.
type FileSystemProvider interface {
	// Open opens the directory at path.
	Open(path string) (Directory, error)

	// ReadFile reads the file at path.
	ReadFile(path string) ([]byte, error)

	// Stat returns metadata for the path.
	Stat(path string) (FileInfo, error)
}
