/*
Package pixel implements the packed 16-bit pixel formats used by GVR
(GameCube/Wii) and PVR (Dreamcast) textures.

Every codec decodes into, and encodes from, a canonical 4 byte pixel laid out
as blue, green, red and alpha at consecutive offsets. Narrow channels are
widened by bit replication, copying the high bits of the channel into the
vacated low bits, and narrowed again by truncation, so decoding then encoding
any packed pixel gives back the same bits.
*/
package pixel

import (
	"errors"
	"fmt"
)

// CanonicalSize is the size in bytes of a decoded pixel.
const CanonicalSize = 4

// Offsets of each channel within a canonical pixel.
const (
	B = iota
	G
	R
	A
)

var (
	// ErrUnknownFormat is returned when a format has no codec.
	ErrUnknownFormat = errors.New("pixel: unknown pixel format")
	// ErrEncodeNotSupported is returned when encoding with a decode-only
	// codec.
	ErrEncodeNotSupported = errors.New("pixel: encoding not supported")
	// ErrShortBuffer is returned when a buffer is not a whole number of
	// pixels.
	ErrShortBuffer = errors.New("pixel: buffer is not a whole number of pixels")
)

// Codec translates between one packed pixel format and canonical pixels.
// Both methods panic if either window falls outside its slice.
type Codec interface {
	// BitsPerPixel is the width of one packed pixel.
	BitsPerPixel() int
	// CanEncode reports whether EncodePixel is implemented.
	CanEncode() bool
	// DecodePixel reads one packed pixel from src at srcOff and writes a
	// canonical pixel to dst at dstOff.
	DecodePixel(src []byte, srcOff int, dst []byte, dstOff int)
	// EncodePixel reads a canonical pixel from src at srcOff and writes one
	// packed pixel to dst at dstOff.
	EncodePixel(src []byte, srcOff int, dst []byte, dstOff int)
}

// Format identifies a pixel codec.
type Format int

// Supported formats. The GVR formats store 16-bit words big-endian, the PVR
// formats little-endian.
const (
	GvrIntensityA8 Format = iota + 1
	GvrRgb565
	GvrRgb5a3
	PvrArgb1555
	PvrRgb565
	PvrArgb4444
)

var formatNames = map[Format]string{
	GvrIntensityA8: "gvr-intensity-a8",
	GvrRgb565:      "gvr-rgb565",
	GvrRgb5a3:      "gvr-rgb5a3",
	PvrArgb1555:    "pvr-argb1555",
	PvrRgb565:      "pvr-rgb565",
	PvrArgb4444:    "pvr-argb4444",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// Valid reports whether f is one of the declared formats.
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// ParseFormat returns the format with the given name as returned by String.
func ParseFormat(name string) (Format, error) {
	for f, s := range formatNames {
		if s == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Formats returns every declared format in order.
func Formats() []Format {
	return []Format{GvrIntensityA8, GvrRgb565, GvrRgb5a3, PvrArgb1555, PvrRgb565, PvrArgb4444}
}

// GvrFormat maps the pixel format code stored in a GVR texture header.
func GvrFormat(code byte) (Format, bool) {
	switch code {
	case 0x00:
		return GvrIntensityA8, true
	case 0x01:
		return GvrRgb565, true
	case 0x02:
		return GvrRgb5a3, true
	}
	return 0, false
}

// PvrFormat maps the pixel format code stored in a PVR texture header.
func PvrFormat(code byte) (Format, bool) {
	switch code {
	case 0x00:
		return PvrArgb1555, true
	case 0x01:
		return PvrRgb565, true
	case 0x02:
		return PvrArgb4444, true
	}
	return 0, false
}

// Lookup returns the codec for f. The second result is false for a format
// with no codec, leaving the caller to decide whether that is fatal.
func Lookup(f Format) (Codec, bool) {
	switch f {
	case GvrIntensityA8:
		return intensityA8{}, true
	case GvrRgb565:
		return rgb565{order: bigEndian}, true
	case GvrRgb5a3:
		return rgb5a3{}, true
	case PvrArgb1555:
		return argb1555{}, true
	case PvrRgb565:
		return rgb565{order: littleEndian}, true
	case PvrArgb4444:
		return argb4444{}, true
	}
	return nil, false
}
