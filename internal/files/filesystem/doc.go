// Package filesystem abstracts file access behind small interfaces so
// code that reads parameter files and project config can be tested
// without touching the disk.
//
// Three providers implement FileSystemProvider:
//   - OSFileSystem reads the real filesystem.
//   - EmbedFileSystem wraps an embed.FS, used for scaffold templates.
//   - MemoryFileSystem holds an in-memory tree, used as a test fixture.
package filesystem
