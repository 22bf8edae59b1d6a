/*
Package archive defines the entry model and capabilities shared by the
archive container formats.

A Reader parses the whole index of a container when it is created, leaving
entry payloads unread until they are opened. A Writer collects entries and
emits the complete container in a single call to Flush.
*/
package archive

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFormat is returned when a stream is not in the expected format.
	ErrFormat = errors.New("archive: format mismatch")
	// ErrCorrupt is returned when an index is structurally invalid.
	ErrCorrupt = errors.New("archive: corrupt archive")
	// ErrNotSupported is returned when an operation is not implemented by a
	// format.
	ErrNotSupported = errors.New("archive: operation not supported")
	// ErrFlushed is returned when using a Writer after Flush.
	ErrFlushed = errors.New("archive: writer already flushed")
)

// Entry describes one file stored in an archive.
type Entry struct {
	// Name as stored in the index.
	Name string
	// Offset is the absolute position of the stored bytes in the stream.
	Offset int64
	// Length is the number of stored bytes.
	Length int64
	// Size is the number of bytes after decompression. It equals Length
	// for uncompressed entries.
	Size int64
}

// Reader provides access to the entries of an archive.
type Reader interface {
	// Entries returns the entries in index order.
	Entries() []Entry
	// Open returns the payload of e, decompressed if necessary.
	Open(e Entry) (io.Reader, error)
}

// Writer builds an archive.
type Writer interface {
	// Add queues an entry. r is not read until Flush.
	Add(name string, r io.Reader) error
	// Flush writes the complete archive. It must be called exactly once.
	Flush() error
}

// Format is implemented by each archive container format.
type Format interface {
	Name() string
	Extension() string
	CanWrite() bool
	// Is reports whether the stream could be in this format. The position
	// of r is unchanged on return.
	Is(r io.ReadSeeker, length int64, filename string) (bool, error)
	// NewReader parses the archive of length bytes starting at the current
	// position of r. On success r is left at the end of the archive.
	NewReader(r io.ReadSeeker, length int64) (Reader, error)
	NewWriter(w io.WriteSeeker) (Writer, error)
}

// CheckBounds returns ErrCorrupt if the stored bytes of e fall outside the
// archive that starts at start and is length bytes long.
func CheckBounds(e Entry, start, length int64) error {
	if e.Offset < start || e.Length < 0 || e.Offset-start+e.Length > length {
		return fmt.Errorf("%w: entry %q at 0x%x+0x%x exceeds archive of 0x%x bytes", ErrCorrupt, e.Name, e.Offset-start, e.Length, length)
	}
	return nil
}

// ReadAll returns the payload of e.
func ReadAll(r Reader, e Entry) ([]byte, error) {
	rc, err := r.Open(e)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(rc)
}
