package one

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/binio"
)

type pending struct {
	name string
	r    io.Reader
}

// Writer builds a ONE archive.
type Writer struct {
	w       io.WriteSeeker
	opts    *options
	entries []pending
	flushed bool
}

// NewWriter returns a Writer that builds an archive starting at the current
// position of w. Nothing is written until Flush.
func NewWriter(w io.WriteSeeker, opts ...Option) *Writer {
	return &Writer{
		w:    w,
		opts: newOptions(opts),
	}
}

// Add queues an entry. Names longer than 32 bytes are rejected.
func (aw *Writer) Add(name string, r io.Reader) error {
	if aw.flushed {
		return archive.ErrFlushed
	}
	if len(name) > nameSize {
		return fmt.Errorf("one: %q: %w", name, binio.ErrFieldTooLong)
	}
	aw.entries = append(aw.entries, pending{name: name, r: r})
	return nil
}

func writeRow(w io.Writer, name string, fields ...uint32) error {
	if err := binio.WriteCString(w, name, nameSize); err != nil {
		return err
	}
	for _, v := range fields {
		if err := binio.WriteUint32(w, binary.BigEndian, v); err != nil {
			return err
		}
	}
	return nil
}

// Flush compresses every queued entry and writes the archive. The table is
// written in order with each payload written to the data area as soon as its
// compressed length is known. On return w is positioned at the end of the
// archive.
func (aw *Writer) Flush() error {
	if aw.flushed {
		return archive.ErrFlushed
	}
	aw.flushed = true

	start, err := aw.w.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	dataStart := binio.RoundUp(tableStart+int64(len(aw.entries))*rowSize, dataAlign)

	if err := binary.Write(aw.w, binary.BigEndian, header{
		Count:      uint32(len(aw.entries)),
		TableStart: tableStart,
		DataStart:  uint32(dataStart),
		Reserved:   reservedClear,
	}); err != nil {
		return err
	}

	offset := dataStart

	for i, p := range aw.entries {
		b, err := io.ReadAll(p.r)
		if err != nil {
			return fmt.Errorf("one: reading %q: %w", p.name, err)
		}

		compressed, err := aw.opts.codec.Compress(bytes.NewReader(b))
		if err != nil {
			return fmt.Errorf("one: compressing %q: %w", p.name, err)
		}

		if err := writeRow(aw.w, p.name, uint32(i), uint32(offset), uint32(len(compressed)), uint32(len(b))); err != nil {
			return fmt.Errorf("one: writing entry %q: %w", p.name, err)
		}

		pos, err := aw.w.Seek(0, io.SeekCurrent)
		if err != nil {
			return err
		}
		if pos-start > dataStart {
			panic(fmt.Sprintf("one: table overrun at 0x%x, data starts at 0x%x", pos-start, dataStart))
		}

		if _, err := aw.w.Seek(start+offset, io.SeekStart); err != nil {
			return err
		}
		if _, err := aw.w.Write(compressed); err != nil {
			return err
		}
		if _, err := aw.w.Seek(pos, io.SeekStart); err != nil {
			return err
		}

		if aw.opts.progress != nil {
			aw.opts.progress(i, archive.Entry{
				Name:   p.name,
				Offset: start + offset,
				Length: int64(len(compressed)),
				Size:   int64(len(b)),
			})
		}

		offset += int64(len(compressed))
	}

	// Zero the gap between the end of the table and the start of the data
	tableEnd := tableStart + int64(len(aw.entries))*rowSize
	if _, err := aw.w.Seek(start+tableEnd, io.SeekStart); err != nil {
		return err
	}
	if _, err := aw.w.Write(make([]byte, dataStart-tableEnd)); err != nil {
		return err
	}

	_, err = aw.w.Seek(start+offset, io.SeekStart)
	return err
}
