/*
Package compression provides the codecs archive formats use to compress
individual entries.

A Codec consumes its whole input and returns the result as a byte slice;
entries are always materialized in memory.
*/
package compression

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/bodgit/puyotools/prs"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"
)

// ErrUnknownCodec is returned by Lookup for an unregistered name.
var ErrUnknownCodec = errors.New("compression: unknown codec")

// Codec compresses and decompresses whole streams.
type Codec interface {
	Name() string
	Compress(r io.Reader) ([]byte, error)
	Decompress(r io.Reader) ([]byte, error)
}

// Registered codecs
var (
	None    Codec = none{}
	PRS     Codec = prsCodec{}
	Zstd    Codec = zstdCodec{}
	LZ4     Codec = lz4Codec{}
	Deflate Codec = deflateCodec{}
	LZMA    Codec = lzmaCodec{}
)

var codecs = map[string]Codec{
	None.Name():    None,
	PRS.Name():     PRS,
	Zstd.Name():    Zstd,
	LZ4.Name():     LZ4,
	Deflate.Name(): Deflate,
	LZMA.Name():    LZMA,
}

// Lookup returns the codec registered under name.
func Lookup(name string) (Codec, error) {
	if c, ok := codecs[name]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
}

// Names returns the names of all registered codecs, sorted.
func Names() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type none struct{}

func (none) Name() string { return "none" }

func (none) Compress(r io.Reader) ([]byte, error) { return io.ReadAll(r) }

func (none) Decompress(r io.Reader) ([]byte, error) { return io.ReadAll(r) }

type prsCodec struct{}

func (prsCodec) Name() string { return "prs" }

func (prsCodec) Compress(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return prs.Compress(b), nil
}

func (prsCodec) Decompress(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return prs.Decompress(b)
}

// zstd.Encoder and zstd.Decoder are safe for concurrent use when only
// EncodeAll and DecodeAll are called.
var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("compression: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("compression: zstd decoder initialization failed: " + err.Error())
	}
}

type zstdCodec struct{}

func (zstdCodec) Name() string { return "zstd" }

func (zstdCodec) Compress(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return zstdEncoder.EncodeAll(b, nil), nil
}

func (zstdCodec) Decompress(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	out, err := zstdDecoder.DecodeAll(b, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}

type lz4Codec struct{}

func (lz4Codec) Name() string { return "lz4" }

func (lz4Codec) Compress(r io.Reader) ([]byte, error) {
	b := new(bytes.Buffer)
	zw := lz4.NewWriter(b)
	if _, err := io.Copy(zw, r); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("lz4 compress: %w", err)
	}
	return b.Bytes(), nil
}

func (lz4Codec) Decompress(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(lz4.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("lz4 decompress: %w", err)
	}
	return b, nil
}

type deflateCodec struct{}

func (deflateCodec) Name() string { return "deflate" }

func (deflateCodec) Compress(r io.Reader) ([]byte, error) {
	b := new(bytes.Buffer)
	fw, err := flate.NewWriter(b, flate.DefaultCompression)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("deflate compress: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("deflate compress: %w", err)
	}
	return b.Bytes(), nil
}

func (deflateCodec) Decompress(r io.Reader) ([]byte, error) {
	fr := flate.NewReader(r)
	defer fr.Close()
	b, err := io.ReadAll(fr)
	if err != nil {
		return nil, fmt.Errorf("deflate decompress: %w", err)
	}
	return b, nil
}

type lzmaCodec struct{}

func (lzmaCodec) Name() string { return "lzma" }

func (lzmaCodec) Compress(r io.Reader) ([]byte, error) {
	b := new(bytes.Buffer)
	lw, err := lzma.NewWriter(b)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(lw, r); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}
	if err := lw.Close(); err != nil {
		return nil, fmt.Errorf("lzma compress: %w", err)
	}
	return b.Bytes(), nil
}

func (lzmaCodec) Decompress(r io.Reader) ([]byte, error) {
	lr, err := lzma.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	b, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("lzma decompress: %w", err)
	}
	return b, nil
}
