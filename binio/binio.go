/*
Package binio implements the fixed-width integer and text field primitives
shared by the pixel and archive codecs.

Multi-byte integers are read and written in an explicit byte order as the
formats handled by this module mix big-endian and little-endian layouts.
*/
package binio

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrFieldTooLong is returned when a string does not fit in its fixed-width
// field.
var ErrFieldTooLong = errors.New("binio: string exceeds field width")

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// ReadUint32 reads a 32-bit unsigned integer from r.
func ReadUint32(r io.Reader, order binary.ByteOrder) (uint32, error) {
	var b [4]byte
	if err := readFull(r, b[:]); err != nil {
		return 0, err
	}
	return order.Uint32(b[:]), nil
}

// ReadUint32At reads a 32-bit unsigned integer at the absolute offset off and
// restores the previous position of r before returning, even on error.
func ReadUint32At(r io.ReadSeeker, off int64, order binary.ByteOrder) (v uint32, err error) {
	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	defer func() {
		if _, serr := r.Seek(pos, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	if _, err = r.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return ReadUint32(r, order)
}

// WriteUint32 writes v to w.
func WriteUint32(w io.Writer, order binary.ByteOrder, v uint32) error {
	var b [4]byte
	order.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

// CString returns the text in b up to the first NUL byte, or all of b if
// there is none.
func CString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}

// WriteCString writes s to w padded with NUL bytes to exactly width bytes. A
// string of exactly width bytes is written without a terminator. Strings
// longer than width are rejected rather than truncated.
func WriteCString(w io.Writer, s string, width int) error {
	if len(s) > width {
		return ErrFieldTooLong
	}
	b := make([]byte, width)
	copy(b, s)
	_, err := w.Write(b)
	return err
}

// RoundUp rounds n up to the next multiple of multiple.
func RoundUp(n, multiple int64) int64 {
	if multiple <= 0 {
		return n
	}
	if mod := n % multiple; mod != 0 {
		return n + multiple - mod
	}
	return n
}
