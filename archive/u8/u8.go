/*
Package u8 implements a reader for the U8 archive format used by GameCube and
Wii titles.

The archive starts with a 16 byte header holding a signature and the offsets
of the node table and the file data. The node table is a flat array of 12 byte
nodes followed by a string table holding the node names. The first node is
the root directory and its length field gives the total number of nodes,
itself included. All integers are big-endian.

Directory nodes are skipped so the archive contents are returned as a flat
list of files. Writing is not supported.
*/
package u8

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/binio"
)

const (
	headerSize = 16
	nodeSize   = 12
	minLength  = 32

	typeDirectory = 1
)

// Magic is the signature at the start of every U8 archive.
var Magic = [4]byte{'U', 0xaa, '8', '-'}

type header struct {
	Magic           [4]byte
	RootNodeOffset  uint32
	NodeTableLength uint32
	DataOffset      uint32
}

type node struct {
	Type       uint16
	NameOffset uint16
	DataOffset uint32 // Parent index for directories
	Length     uint32 // Index of the next node outside a directory
}

func readFull(r io.Reader, b []byte) error {
	_, err := io.ReadFull(r, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return err
}

// Format is the U8 archive format.
type Format struct{}

// Name returns the name of the format.
func (Format) Name() string { return "U8" }

// Extension returns the usual file extension.
func (Format) Extension() string { return ".arc" }

// CanWrite returns false.
func (Format) CanWrite() bool { return false }

// Is reports whether the stream starts with the U8 signature.
func (Format) Is(r io.ReadSeeker, length int64, filename string) (ok bool, err error) {
	if length <= minLength {
		return false, nil
	}

	pos, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return false, err
	}
	defer func() {
		if _, serr := r.Seek(pos, io.SeekStart); serr != nil && err == nil {
			ok, err = false, serr
		}
	}()

	var b [len(Magic)]byte
	if err := readFull(r, b[:]); err != nil {
		if err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	return b == Magic, nil
}

// NewReader parses the archive at the current position of r.
func (Format) NewReader(r io.ReadSeeker, length int64) (archive.Reader, error) {
	return NewReader(r, length)
}

// NewWriter returns archive.ErrNotSupported.
func (Format) NewWriter(w io.WriteSeeker) (archive.Writer, error) {
	return nil, fmt.Errorf("u8: %w", archive.ErrNotSupported)
}

// Reader reads a U8 archive.
type Reader struct {
	r       io.ReadSeeker
	entries []archive.Entry
}

// NewReader parses the node table of the archive of length bytes starting at
// the current position of r and leaves r positioned at the end of the
// archive.
func NewReader(r io.ReadSeeker, length int64) (*Reader, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, err
	}

	if length < headerSize {
		return nil, fmt.Errorf("%w: u8: archive too short", archive.ErrFormat)
	}

	var h header
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: u8: reading header: %v", archive.ErrCorrupt, err)
	}
	if h.Magic != Magic {
		return nil, fmt.Errorf("%w: u8: bad signature % x", archive.ErrFormat, h.Magic)
	}

	tableEnd := int64(h.RootNodeOffset) + int64(h.NodeTableLength)
	if h.RootNodeOffset < headerSize || h.NodeTableLength < nodeSize || tableEnd > length {
		return nil, fmt.Errorf("%w: u8: node table at 0x%x+0x%x exceeds archive of 0x%x bytes", archive.ErrCorrupt, h.RootNodeOffset, h.NodeTableLength, length)
	}
	if int64(h.DataOffset) > length {
		return nil, fmt.Errorf("%w: u8: data offset 0x%x exceeds archive of 0x%x bytes", archive.ErrCorrupt, h.DataOffset, length)
	}

	if _, err := r.Seek(start+int64(h.RootNodeOffset), io.SeekStart); err != nil {
		return nil, err
	}
	table := make([]byte, h.NodeTableLength)
	if err := readFull(r, table); err != nil {
		return nil, fmt.Errorf("%w: u8: reading node table: %v", archive.ErrCorrupt, err)
	}

	var root node
	if err := binary.Read(bytes.NewReader(table[:nodeSize]), binary.BigEndian, &root); err != nil {
		return nil, err
	}

	count := int64(root.Length)
	if count == 0 || count*nodeSize > int64(h.NodeTableLength) {
		return nil, fmt.Errorf("%w: u8: %d nodes do not fit in node table of 0x%x bytes", archive.ErrCorrupt, count, h.NodeTableLength)
	}

	names := table[count*nodeSize:]
	nodes := bytes.NewReader(table[nodeSize : count*nodeSize])

	ar := &Reader{r: r}

	for i := int64(1); i < count; i++ {
		var n node
		if err := binary.Read(nodes, binary.BigEndian, &n); err != nil {
			return nil, err
		}

		// TODO Recurse into directories rather than flattening them
		if n.Type == typeDirectory {
			continue
		}

		if int(n.NameOffset) >= len(names) {
			return nil, fmt.Errorf("%w: u8: node %d name offset 0x%x outside string table", archive.ErrCorrupt, i, n.NameOffset)
		}

		e := archive.Entry{
			Name:   binio.CString(names[n.NameOffset:]),
			Offset: start + int64(n.DataOffset),
			Length: int64(n.Length),
			Size:   int64(n.Length),
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

// Entries returns the file entries in node order.
func (ar *Reader) Entries() []archive.Entry {
	return ar.entries
}

// Open returns the contents of e. The position of the underlying stream is
// restored afterwards.
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
	b := make([]byte, e.Length)
	if err := readFull(ar.r, b); err != nil {
		return nil, fmt.Errorf("%w: u8: reading %q: %v", archive.ErrCorrupt, e.Name, err)
	}
	return bytes.NewReader(b), nil
}
