package pixel

// Rgb5a3AlphaThreshold is the highest alpha value encoded using the
// translucent Argb3444 layout of Rgb5a3; anything above it is encoded as
// opaque Rgb555. The value matches existing tooling rather than the midpoint
// between two 3-bit alpha steps and must not be changed.
const Rgb5a3AlphaThreshold = 0xda

type endian bool

const (
	bigEndian    endian = true
	littleEndian endian = false
)

func (e endian) uint16(b []byte, i int) uint16 {
	if e == bigEndian {
		return uint16(b[i])<<8 | uint16(b[i+1])
	}
	return uint16(b[i+1])<<8 | uint16(b[i])
}

func (e endian) putUint16(b []byte, i int, v uint16) {
	if e == bigEndian {
		b[i], b[i+1] = byte(v>>8), byte(v)
		return
	}
	b[i], b[i+1] = byte(v), byte(v>>8)
}

func expand3(v uint16) byte { return byte(v<<5 | v<<2 | v>>1) }
func expand4(v uint16) byte { return byte(v<<4 | v) }
func expand5(v uint16) byte { return byte(v<<3 | v>>2) }
func expand6(v uint16) byte { return byte(v<<2 | v>>4) }

type sixteen struct{}

func (sixteen) BitsPerPixel() int { return 16 }
func (sixteen) CanEncode() bool   { return true }

// Two bytes, alpha then intensity
type intensityA8 struct{ sixteen }

func (intensityA8) DecodePixel(src []byte, si int, dst []byte, di int) {
	_, _ = src[si+1], dst[di+3]
	dst[di+A] = src[si]
	dst[di+R] = src[si+1]
	dst[di+G] = src[si+1]
	dst[di+B] = src[si+1]
}

func (intensityA8) EncodePixel(src []byte, si int, dst []byte, di int) {
	_, _ = src[si+3], dst[di+1]
	dst[di] = src[si+A]
	dst[di+1] = byte((30*uint(src[si+R]) + 59*uint(src[si+G]) + 11*uint(src[si+B])) / 100)
}

// Packed as RRRRRGGGGGGBBBBB
type rgb565 struct {
	sixteen
	order endian
}

func (c rgb565) DecodePixel(src []byte, si int, dst []byte, di int) {
	_ = dst[di+3]
	p := c.order.uint16(src, si)
	dst[di+A] = 0xff
	dst[di+R] = expand5(p >> 11 & 0x1f)
	dst[di+G] = expand6(p >> 5 & 0x3f)
	dst[di+B] = expand5(p & 0x1f)
}

func (c rgb565) EncodePixel(src []byte, si int, dst []byte, di int) {
	_ = src[si+3]
	p := uint16(src[si+R]>>3)<<11 | uint16(src[si+G]>>2)<<5 | uint16(src[si+B]>>3)
	c.order.putUint16(dst, di, p)
}

// Packed as either 1RRRRRGGGGGBBBBB or 0AAARRRRGGGGBBBB
type rgb5a3 struct{ sixteen }

func (rgb5a3) DecodePixel(src []byte, si int, dst []byte, di int) {
	_ = dst[di+3]
	p := bigEndian.uint16(src, si)
	if p&0x8000 != 0 {
		dst[di+A] = 0xff
		dst[di+R] = expand5(p >> 10 & 0x1f)
		dst[di+G] = expand5(p >> 5 & 0x1f)
		dst[di+B] = expand5(p & 0x1f)
		return
	}
	dst[di+A] = expand3(p >> 12 & 0x07)
	dst[di+R] = expand4(p >> 8 & 0x0f)
	dst[di+G] = expand4(p >> 4 & 0x0f)
	dst[di+B] = expand4(p & 0x0f)
}

func (rgb5a3) EncodePixel(src []byte, si int, dst []byte, di int) {
	_ = src[si+3]
	var p uint16
	if src[si+A] <= Rgb5a3AlphaThreshold {
		p = uint16(src[si+A]>>5)<<12 | uint16(src[si+R]>>4)<<8 | uint16(src[si+G]>>4)<<4 | uint16(src[si+B]>>4)
	} else {
		p = 0x8000 | uint16(src[si+R]>>3)<<10 | uint16(src[si+G]>>3)<<5 | uint16(src[si+B]>>3)
	}
	bigEndian.putUint16(dst, di, p)
}

// Packed as ARRRRRGGGGGBBBBB
type argb1555 struct{ sixteen }

func (argb1555) DecodePixel(src []byte, si int, dst []byte, di int) {
	_ = dst[di+3]
	p := littleEndian.uint16(src, si)
	if p&0x8000 != 0 {
		dst[di+A] = 0xff
	} else {
		dst[di+A] = 0x00
	}
	dst[di+R] = expand5(p >> 10 & 0x1f)
	dst[di+G] = expand5(p >> 5 & 0x1f)
	dst[di+B] = expand5(p & 0x1f)
}

func (argb1555) EncodePixel(src []byte, si int, dst []byte, di int) {
	_ = src[si+3]
	p := uint16(src[si+A]>>7)<<15 | uint16(src[si+R]>>3)<<10 | uint16(src[si+G]>>3)<<5 | uint16(src[si+B]>>3)
	littleEndian.putUint16(dst, di, p)
}

// Packed as AAAARRRRGGGGBBBB
type argb4444 struct{ sixteen }

func (argb4444) DecodePixel(src []byte, si int, dst []byte, di int) {
	_ = dst[di+3]
	p := littleEndian.uint16(src, si)
	dst[di+A] = expand4(p >> 12 & 0x0f)
	dst[di+R] = expand4(p >> 8 & 0x0f)
	dst[di+G] = expand4(p >> 4 & 0x0f)
	dst[di+B] = expand4(p & 0x0f)
}

func (argb4444) EncodePixel(src []byte, si int, dst []byte, di int) {
	_ = src[si+3]
	p := uint16(src[si+A]>>4)<<12 | uint16(src[si+R]>>4)<<8 | uint16(src[si+G]>>4)<<4 | uint16(src[si+B]>>4)
	littleEndian.putUint16(dst, di, p)
}
