// Package fsys is the filesystem surface the concatenator works against.
// OS talks to the local disk; Mem is an in-memory stand-in for tests.
package fsys

import "io"

// Entry is one name returned by a directory listing.
type Entry struct {
	Name  string
	IsDir bool
}

// File is an output being written. Nothing is visible at the target path
// until Commit succeeds; Abort discards everything written so far.
type File interface {
	io.Writer
	// Size is the number of bytes written (after any Rewind).
	Size() int64
	// Rewind truncates the output back to size bytes.
	Rewind(size int64) error
	Commit() error
	Abort() error
}

// FS abstracts the three operations a concatenation needs, plus directory
// creation for pipeline outputs.
type FS interface {
	// ListEntries lists dir one level deep, in the order the underlying
	// listing returns. It does not sort.
	ListEntries(dir string) ([]Entry, error)
	OpenForRead(path string) (io.ReadCloser, error)
	OpenForWrite(path string) (File, error)
	MkdirAll(dir string) error
}
