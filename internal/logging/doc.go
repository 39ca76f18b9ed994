// Package logging holds the tilevault.Logger implementations.
//
// ConsoleLogger writes to stderr, keeping stdout free for command
// output. NullLogger discards everything and exists for tests and for
// callers that want logging off. Both are safe for concurrent use.
package logging
