/*
Package one implements the ONE archive format used by Sonic and the Secret
Rings.

The archive starts with a 16 byte header holding the number of entries and
pointers to the entry table and the file data. The table is an array of 48
byte rows, each holding a 32 byte name, the index of the entry, the offset of
its data relative to the start of the archive and both its compressed and
uncompressed length. Every entry is compressed, by default with PRS. All
integers are big-endian.
*/
package one

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/binio"
	"github.com/bodgit/puyotools/compression"
)

const (
	headerSize = 0x10
	tableStart = 0x10
	rowSize    = 0x30
	nameSize   = 0x20
	dataAlign  = 0x10

	reservedClear = 0x00000000
	reservedSet   = 0xffffffff
)

type header struct {
	Count      uint32
	TableStart uint32
	DataStart  uint32
	Reserved   uint32
}

type row struct {
	Name             [nameSize]byte
	Index            uint32
	Offset           uint32
	CompressedLength uint32
	Length           uint32
}

type options struct {
	codec    compression.Codec
	progress func(int, archive.Entry)
}

// Option configures a Reader or Writer.
type Option func(*options)

// WithCodec overrides the codec used for entry payloads. Archives read by the
// game must use the default, compression.PRS.
func WithCodec(c compression.Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

// WithProgress sets a function the Writer calls after each entry has been
// written.
func WithProgress(f func(index int, e archive.Entry)) Option {
	return func(o *options) {
		o.progress = f
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		codec: compression.PRS,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Format is the ONE archive format. The options are applied to every Reader
// and Writer it creates.
type Format struct {
	Options []Option
}

// Name returns the name of the format.
func (Format) Name() string { return "ONE" }

// Extension returns the usual file extension.
func (Format) Extension() string { return ".one" }

// CanWrite returns true.
func (Format) CanWrite() bool { return true }

// Is reports whether the header of the stream has the table starting
// immediately after it and the reserved field set to one of its two known
// values.
func (Format) Is(r io.ReadSeeker, length int64, filename string) (bool, error) {
	if length < headerSize {
		return false, nil
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}

	v, err := binio.ReadUint32At(r, pos+0x4, binary.BigEndian)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	if v != tableStart {
		return false, nil
	}

	v, err = binio.ReadUint32At(r, pos+0xc, binary.BigEndian)
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return v == reservedClear || v == reservedSet, nil
}

// NewReader parses the archive at the current position of r.
func (f Format) NewReader(r io.ReadSeeker, length int64) (archive.Reader, error) {
	return NewReader(r, length, f.Options...)
}

// NewWriter returns a Writer that builds an archive in w.
func (f Format) NewWriter(w io.WriteSeeker) (archive.Writer, error) {
	return NewWriter(w, f.Options...), nil
}

// Reader reads a ONE archive.
type Reader struct {
	r       io.ReadSeeker
	codec   compression.Codec
	entries []archive.Entry
}

// NewReader parses the entry table of the archive of length bytes starting
// at the current position of r and leaves r positioned at the end of the
// archive.
func NewReader(r io.ReadSeeker, length int64, opts ...Option) (*Reader, error) {
	o := newOptions(opts)

	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	if length < headerSize {
		return nil, fmt.Errorf("%w: one: archive too short", archive.ErrFormat)
	}

	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: one: reading header: %v", archive.ErrCorrupt, err)
	}

	if h.TableStart != tableStart {
		return nil, fmt.Errorf("%w: one: table at 0x%x, expected 0x%x", archive.ErrFormat, h.TableStart, tableStart)
	}

	tableEnd := int64(h.Count)*rowSize + tableStart
	if tableEnd > length {
		return nil, fmt.Errorf("%w: one: %d entries do not fit in archive of 0x%x bytes", archive.ErrCorrupt, h.Count, length)
	}
	if int64(h.DataStart) < tableEnd || int64(h.DataStart) > length {
		return nil, fmt.Errorf("%w: one: data at 0x%x outside 0x%x-0x%x", archive.ErrCorrupt, h.DataStart, tableEnd, length)
	}

	ar := &Reader{
		r:       r,
		codec:   o.codec,
		entries: make([]archive.Entry, 0, h.Count),
	}

	for i := uint32(0); i < h.Count; i++ {
		var ent row
		if err := binary.Read(r, binary.BigEndian, &ent); err != nil {
			return nil, fmt.Errorf("%w: one: reading entry %d: %v", archive.ErrCorrupt, i, err)
		}

		e := archive.Entry{
			Name:   binio.CString(ent.Name[:]),
			Offset: start + int64(ent.Offset),
			Length: int64(ent.CompressedLength),
			Size:   int64(ent.Length),
		}
		if err := archive.CheckBounds(e, start, length); err != nil {
			return nil, err
		}

		ar.entries = append(ar.entries, e)
	}

	if _, err := r.Seek(start+length, io.SeekStart); err != nil {
		return nil, err
	}

	return ar, nil
}

// Entries returns the entries in table order.
func (ar *Reader) Entries() []archive.Entry {
	return ar.entries
}

// Open decompresses e. The position of the underlying stream is restored
// afterwards.
func (ar *Reader) Open(e archive.Entry) (rc io.Reader, err error) {
	pos, err := ar.r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}
	defer func() {
		if _, serr := ar.r.Seek(pos, io.SeekStart); serr != nil && err == nil {
			rc, err = nil, serr
		}
	}()

	if _, err := ar.r.Seek(e.Offset, io.SeekStart); err != nil {
		return nil, err
	}

	compressed := make([]byte, e.Length)
	if err := readFull(ar.r, compressed); err != nil {
		return nil, fmt.Errorf("%w: one: reading %q: %v", archive.ErrCorrupt, e.Name, err)
	}

	b, err := ar.codec.Decompress(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: one: decompressing %q: %v", archive.ErrCorrupt, e.Name, err)
	}
	if int64(len(b)) != e.Size {
		return nil, fmt.Errorf("%w: one: %q decompressed to %d bytes, expected %d", archive.ErrCorrupt, e.Name, len(b), e.Size)
	}

	return bytes.NewReader(b), nil
}
