// Package checksum computes content hashes of tile files.
//
// Tiles are identified in pointer records by a "sha256:<hex>" oid plus the
// byte size, so hashing is streaming and never loads a whole tile into
// memory.
//
// # Thread Safety
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
