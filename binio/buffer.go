package binio

import (
	"errors"
	"io"
)

var errNegativePosition = errors.New("binio: negative position")

// Buffer is an in-memory io.ReadWriteSeeker. Unlike bytes.Buffer it has a
// single cursor shared by reads and writes, and writing past the end of the
// data fills the gap with zeroes the same way a sparse file would.
type Buffer struct {
	b   []byte
	pos int64
}

// NewBuffer returns a Buffer holding b, positioned at the start.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{b: b}
}

// Bytes returns the contents of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.b
}

// Len returns the length of the contents.
func (b *Buffer) Len() int {
	return len(b.b)
}

func (b *Buffer) Read(p []byte) (int, error) {
	if b.pos >= int64(len(b.b)) {
		return 0, io.EOF
	}
	n := copy(p, b.b[b.pos:])
	b.pos += int64(n)
	return n, nil
}

// ReadAt implements io.ReaderAt.
func (b *Buffer) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errNegativePosition
	}
	if off >= int64(len(b.b)) {
		return 0, io.EOF
	}
	n := copy(p, b.b[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

func (b *Buffer) Write(p []byte) (int, error) {
	end := b.pos + int64(len(p))
	if end > int64(len(b.b)) {
		if end > int64(cap(b.b)) {
			grown := make([]byte, end, 2*end)
			copy(grown, b.b)
			b.b = grown
		} else {
			tail := b.b[len(b.b):end]
			for i := range tail {
				tail[i] = 0
			}
			b.b = b.b[:end]
		}
	}
	n := copy(b.b[b.pos:], p)
	b.pos += int64(n)
	return n, nil
}

// Seek implements io.Seeker. Seeking beyond the end is allowed.
func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = b.pos + offset
	case io.SeekEnd:
		abs = int64(len(b.b)) + offset
	default:
		return 0, errors.New("binio: invalid whence")
	}
	if abs < 0 {
		return 0, errNegativePosition
	}
	b.pos = abs
	return abs, nil
}
