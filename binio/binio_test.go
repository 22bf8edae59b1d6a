package binio

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadUint(t *testing.T) {
	r := bytes.NewReader([]byte{0x12, 0x34, 0x56, 0x78, 0x9a, 0xbc, 0xde, 0xf0, 0x01})

	v, err := ReadUint32(r, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x12345678), v)

	v, err = ReadUint32(r, binary.LittleEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xf0debc9a), v)

	_, err = ReadUint32(r, binary.BigEndian)
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestWriteUint32(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WriteUint32(&b, binary.BigEndian, 0x12345678))
	require.NoError(t, WriteUint32(&b, binary.LittleEndian, 0x12345678))
	assert.Equal(t, []byte{0x12, 0x34, 0x56, 0x78, 0x78, 0x56, 0x34, 0x12}, b.Bytes())
}

func TestReadUint32AtRestoresPosition(t *testing.T) {
	r := bytes.NewReader([]byte{0, 0, 0, 1, 0, 0, 0, 2})
	_, err := r.Seek(2, io.SeekStart)
	require.NoError(t, err)

	v, err := ReadUint32At(r, 4, binary.BigEndian)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), v)

	pos, _ := r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(2), pos)

	_, err = ReadUint32At(r, 6, binary.BigEndian)
	assert.Error(t, err)
	pos, _ = r.Seek(0, io.SeekCurrent)
	assert.Equal(t, int64(2), pos)
}

func TestCString(t *testing.T) {
	assert.Equal(t, "abc", CString([]byte{'a', 'b', 'c', 0, 'd'}))
	assert.Equal(t, "abcd", CString([]byte("abcd")))
	assert.Equal(t, "", CString(nil))
}

func TestWriteCString(t *testing.T) {
	var b bytes.Buffer
	require.NoError(t, WriteCString(&b, "abc", 8))
	assert.Equal(t, []byte{'a', 'b', 'c', 0, 0, 0, 0, 0}, b.Bytes())

	b.Reset()
	require.NoError(t, WriteCString(&b, "abcd", 4))
	assert.Equal(t, []byte("abcd"), b.Bytes())

	b.Reset()
	assert.Equal(t, ErrFieldTooLong, WriteCString(&b, "abcde", 4))
	assert.Zero(t, b.Len())
}

func TestRoundUp(t *testing.T) {
	assert.Equal(t, int64(0x10), RoundUp(0x10, 0x10))
	assert.Equal(t, int64(0x20), RoundUp(0x11, 0x10))
	assert.Equal(t, int64(0x40), RoundUp(0x40, 0x10))
	assert.Equal(t, int64(7), RoundUp(7, 0))
}

func TestBuffer(t *testing.T) {
	b := NewBuffer(nil)

	_, err := b.Seek(4, io.SeekStart)
	require.NoError(t, err)
	_, err = b.Write([]byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0, 1, 2}, b.Bytes())

	_, err = b.Seek(1, io.SeekStart)
	require.NoError(t, err)
	_, err = b.Write([]byte{9})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 9, 0, 0, 1, 2}, b.Bytes())

	pos, err := b.Seek(-2, io.SeekEnd)
	require.NoError(t, err)
	assert.Equal(t, int64(4), pos)

	got, err := io.ReadAll(b)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, got)

	_, err = b.Seek(-1, io.SeekStart)
	assert.Error(t, err)

	p := make([]byte, 4)
	n, err := b.ReadAt(p, 4)
	assert.Equal(t, 2, n)
	assert.Equal(t, io.EOF, err)
}
