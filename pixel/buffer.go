package pixel

import "fmt"

// Decode converts a run of packed pixels in format f to canonical pixels.
func Decode(f Format, src []byte) ([]byte, error) {
	c, ok := Lookup(f)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	return DecodeWith(c, src)
}

// Encode converts a run of canonical pixels to packed pixels in format f.
func Encode(f Format, src []byte) ([]byte, error) {
	c, ok := Lookup(f)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
	return EncodeWith(c, src)
}

// DecodeWith converts a run of packed pixels using c.
func DecodeWith(c Codec, src []byte) ([]byte, error) {
	size := c.BitsPerPixel() >> 3
	if len(src)%size != 0 {
		return nil, ErrShortBuffer
	}
	n := len(src) / size
	dst := make([]byte, n*CanonicalSize)
	for i := 0; i < n; i++ {
		c.DecodePixel(src, i*size, dst, i*CanonicalSize)
	}
	return dst, nil
}

// EncodeWith converts a run of canonical pixels using c.
func EncodeWith(c Codec, src []byte) ([]byte, error) {
	if !c.CanEncode() {
		return nil, ErrEncodeNotSupported
	}
	if len(src)%CanonicalSize != 0 {
		return nil, ErrShortBuffer
	}
	size := c.BitsPerPixel() >> 3
	n := len(src) / CanonicalSize
	dst := make([]byte, n*size)
	for i := 0; i < n; i++ {
		c.EncodePixel(src, i*CanonicalSize, dst, i*size)
	}
	return dst, nil
}
