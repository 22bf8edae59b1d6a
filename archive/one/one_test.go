package one

import (
	"bytes"
	"encoding/binary"
	"io"
	"math/rand"
	"strings"
	"testing"

	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/binio"
	"github.com/bodgit/puyotools/compression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type file struct {
	name string
	data []byte
}

func testFiles() []file {
	rng := rand.New(rand.NewSource(5))
	random := make([]byte, 5000)
	rng.Read(random)
	return []file{
		{"empty.bin", []byte{}},
		{"one.bin", []byte{0x42}},
		{"text.txt", bytes.Repeat([]byte("Secret Rings "), 400)},
		{"random.bin", random},
		{strings.Repeat("n", nameSize), []byte("full width name")},
	}
}

func write(t *testing.T, files []file, opts ...Option) *binio.Buffer {
	t.Helper()
	b := binio.NewBuffer(nil)
	w := NewWriter(b, opts...)
	for _, f := range files {
		require.NoError(t, w.Add(f.name, bytes.NewReader(f.data)))
	}
	require.NoError(t, w.Flush())
	return b
}

func TestRoundTrip(t *testing.T) {
	for _, name := range compression.Names() {
		t.Run(name, func(t *testing.T) {
			codec, err := compression.Lookup(name)
			require.NoError(t, err)

			files := testFiles()
			b := write(t, files, WithCodec(codec))

			pos, _ := b.Seek(0, io.SeekCurrent)
			assert.Equal(t, int64(b.Len()), pos)

			_, err = b.Seek(0, io.SeekStart)
			require.NoError(t, err)

			r, err := NewReader(b, int64(b.Len()), WithCodec(codec))
			require.NoError(t, err)

			entries := r.Entries()
			require.Len(t, entries, len(files))
			for i, f := range files {
				assert.Equal(t, f.name, entries[i].Name)
				assert.Equal(t, int64(len(f.data)), entries[i].Size)

				got, err := archive.ReadAll(r, entries[i])
				require.NoError(t, err)
				assert.True(t, bytes.Equal(f.data, got), f.name)
			}
		})
	}
}

func TestLayout(t *testing.T) {
	b := write(t, []file{{"a", []byte("aaaa")}, {"b", []byte("b")}})
	data := b.Bytes()

	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(data[0x0:]))
	assert.Equal(t, uint32(tableStart), binary.BigEndian.Uint32(data[0x4:]))
	assert.Equal(t, uint32(0x70), binary.BigEndian.Uint32(data[0x8:]))
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(data[0xc:]))

	a, err := compression.PRS.Compress(bytes.NewReader([]byte("aaaa")))
	require.NoError(t, err)

	assert.Equal(t, append([]byte("a"), make([]byte, nameSize-1)...), data[tableStart:tableStart+nameSize])
	assert.Equal(t, uint32(0), binary.BigEndian.Uint32(data[tableStart+0x20:]))

	row := data[tableStart+rowSize:]
	assert.Equal(t, "b", binio.CString(row[:nameSize]))
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(row[0x20:]))
	assert.Equal(t, uint32(0x70+len(a)), binary.BigEndian.Uint32(row[0x24:]))
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(row[0x2c:]))

	assert.Equal(t, a, data[0x70:0x70+len(a)])
}

func TestEmptyArchive(t *testing.T) {
	b := write(t, nil)
	assert.Equal(t, headerSize, b.Len())

	_, err := b.Seek(0, io.SeekStart)
	require.NoError(t, err)
	r, err := NewReader(b, int64(b.Len()))
	require.NoError(t, err)
	assert.Empty(t, r.Entries())
}

func TestEmptyPayloads(t *testing.T) {
	// Empty payloads stored without compression take up no space so the
	// archive ends with the table
	b := write(t, []file{{"empty", nil}}, WithCodec(compression.None))
	assert.Equal(t, 0x40, b.Len())

	b = write(t, []file{{"a", nil}, {"b", nil}, {"c", nil}, {"d", nil}}, WithCodec(compression.None))
	assert.Equal(t, 0xd0, b.Len())
}

func TestBackToBack(t *testing.T) {
	b := binio.NewBuffer(nil)

	var lengths []int64
	for _, f := range testFiles()[:3] {
		start, _ := b.Seek(0, io.SeekCurrent)
		w := NewWriter(b)
		require.NoError(t, w.Add(f.name, bytes.NewReader(f.data)))
		require.NoError(t, w.Flush())
		end, _ := b.Seek(0, io.SeekCurrent)
		lengths = append(lengths, end-start)
	}

	_, err := b.Seek(0, io.SeekStart)
	require.NoError(t, err)

	for i, f := range testFiles()[:3] {
		r, err := NewReader(b, lengths[i])
		require.NoError(t, err)
		require.Len(t, r.Entries(), 1)
		got, err := archive.ReadAll(r, r.Entries()[0])
		require.NoError(t, err)
		assert.True(t, bytes.Equal(f.data, got))
	}

	pos, _ := b.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(b.Len()), pos)
}

func TestProgress(t *testing.T) {
	var names []string
	var indices []int
	write(t, testFiles(), WithProgress(func(i int, e archive.Entry) {
		indices = append(indices, i)
		names = append(names, e.Name)
	}))

	assert.Equal(t, []int{0, 1, 2, 3, 4}, indices)
	assert.Equal(t, "empty.bin", names[0])
	assert.Equal(t, "random.bin", names[3])
}

func TestWriterErrors(t *testing.T) {
	w := NewWriter(binio.NewBuffer(nil))
	err := w.Add(strings.Repeat("x", nameSize+1), bytes.NewReader(nil))
	assert.ErrorIs(t, err, binio.ErrFieldTooLong)

	require.NoError(t, w.Flush())
	assert.Equal(t, archive.ErrFlushed, w.Flush())
	assert.Equal(t, archive.ErrFlushed, w.Add("late", bytes.NewReader(nil)))
}

func TestReaderErrors(t *testing.T) {
	tests := map[string]struct {
		mutate func([]byte)
	}{
		"count": {func(b []byte) { binary.BigEndian.PutUint32(b[0x0:], 1000) }},
		"offset": {func(b []byte) {
			binary.BigEndian.PutUint32(b[tableStart+0x24:], 0x10000)
		}},
		"compressed length": {func(b []byte) {
			binary.BigEndian.PutUint32(b[tableStart+0x28:], 0x10000)
		}},
		"uncompressed length": {func(b []byte) {
			binary.BigEndian.PutUint32(b[tableStart+0x2c:], 8)
		}},
		"data start inside table": {func(b []byte) {
			binary.BigEndian.PutUint32(b[0x8:], tableStart+rowSize-1)
		}},
		"data start past end": {func(b []byte) {
			binary.BigEndian.PutUint32(b[0x8:], 0x10000)
		}},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data := write(t, []file{{"a.bin", []byte("payload")}}).Bytes()
			tt.mutate(data)

			r, err := NewReader(bytes.NewReader(data), int64(len(data)))
			if err == nil {
				_, err = archive.ReadAll(r, r.Entries()[0])
			}
			assert.ErrorIs(t, err, archive.ErrCorrupt)
		})
	}
}

func TestReaderTableStart(t *testing.T) {
	data := write(t, []file{{"a.bin", []byte("payload")}}).Bytes()
	binary.BigEndian.PutUint32(data[0x4:], 0x20)

	_, err := NewReader(bytes.NewReader(data), int64(len(data)))
	assert.ErrorIs(t, err, archive.ErrFormat)
}

type seekFailer struct {
	*bytes.Reader
	seeks, failOn int
}

func (s *seekFailer) Seek(offset int64, whence int) (int64, error) {
	s.seeks++
	if s.seeks == s.failOn {
		return 0, assert.AnError
	}
	return s.Reader.Seek(offset, whence)
}

func TestOpenRestoreError(t *testing.T) {
	data := write(t, []file{{"a.bin", []byte("payload")}}).Bytes()
	r := &seekFailer{Reader: bytes.NewReader(data)}

	ar, err := NewReader(r, int64(len(data)))
	require.NoError(t, err)

	// Fail the seek back to the previous position
	r.seeks, r.failOn = 0, 3
	rc, err := ar.Open(ar.Entries()[0])
	assert.Equal(t, assert.AnError, err)
	assert.Nil(t, rc)
}

func TestIs(t *testing.T) {
	header := func(tableStart, reserved uint32) []byte {
		b := make([]byte, 0x20)
		binary.BigEndian.PutUint32(b[0x4:], tableStart)
		binary.BigEndian.PutUint32(b[0xc:], reserved)
		return b
	}

	tests := []struct {
		data []byte
		ok   bool
	}{
		{header(0x10, 0xffffffff), true},
		{header(0x10, 0x00000000), true},
		{header(0x10, 0x00000001), false},
		{header(0x20, 0x00000000), false},
		{header(0x10, 0x00000000)[:0xe], false},
	}

	var f Format
	for i, tt := range tests {
		r := bytes.NewReader(tt.data)
		_, err := r.Seek(0, io.SeekStart)
		require.NoError(t, err)

		ok, err := f.Is(r, int64(len(tt.data)), "test.one")
		require.NoError(t, err)
		assert.Equal(t, tt.ok, ok, "case %d", i)

		pos, _ := r.Seek(0, io.SeekCurrent)
		assert.Equal(t, int64(0), pos, "case %d", i)
	}

	// The sniff is relative to the current position
	stream := append(make([]byte, 8), header(0x10, 0xffffffff)...)
	r := bytes.NewReader(stream)
	_, err := r.Seek(8, io.SeekStart)
	require.NoError(t, err)
	ok, err := f.Is(r, int64(len(stream)-8), "test.one")
	require.NoError(t, err)
	assert.True(t, ok)
	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(8), pos)
}

func TestFormat(t *testing.T) {
	f := Format{Options: []Option{WithCodec(compression.Zstd)}}
	assert.True(t, f.CanWrite())
	assert.Equal(t, ".one", f.Extension())

	b := binio.NewBuffer(nil)
	w, err := f.NewWriter(b)
	require.NoError(t, err)
	require.NoError(t, w.Add("z", strings.NewReader("zstd payload")))
	require.NoError(t, w.Flush())

	_, err = b.Seek(0, io.SeekStart)
	require.NoError(t, err)

	ok, err := f.Is(b, int64(b.Len()), "z.one")
	require.NoError(t, err)
	assert.True(t, ok)

	r, err := f.NewReader(b, int64(b.Len()))
	require.NoError(t, err)
	got, err := archive.ReadAll(r, r.Entries()[0])
	require.NoError(t, err)
	assert.Equal(t, "zstd payload", string(got))
}
