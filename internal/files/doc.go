// Package files provides file-related functionality organized into sub-packages.
//
//   - filesystem: Filesystem abstraction interfaces and implementations
//     (OS, in-memory, and embedded)
//
// # Usage
//
//	import (
//	    "github.com/vvka-141/tilevault/internal/files/filesystem"
//	)
//
//	fs := filesystem.NewOSFileSystem()
//	content, err := fs.ReadFile("tiles/params.env")
//
// # Organization
//
// The filesystem sub-package exists for testability: code that reads
// repository files depends on the FileSystemProvider interface, so tests
// can substitute an in-memory or embedded filesystem without touching
// the real disk.
package files
