package puyotools

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/bodgit/puyotools/pixel"
	"github.com/ericpauley/go-quantize/quantize"
)

// ErrTextureSize is returned when pixel data does not match the dimensions
// of a texture.
var ErrTextureSize = errors.New("puyotools: texture size mismatch")

// ParsePixelFormat returns the pixel format named by s. As well as the names
// returned by pixel.Format.String, s may be a header code prefixed with the
// texture family, such as "gvr:2" or "pvr:0x01".
func ParsePixelFormat(s string) (pixel.Format, error) {
	family, code, ok := strings.Cut(s, ":")
	if !ok {
		return pixel.ParseFormat(s)
	}

	n, err := strconv.ParseUint(code, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", pixel.ErrUnknownFormat, s, err)
	}

	var f pixel.Format
	ok = false
	switch strings.ToLower(family) {
	case "gvr":
		f, ok = pixel.GvrFormat(byte(n))
	case "pvr":
		f, ok = pixel.PvrFormat(byte(n))
	}
	if !ok {
		return 0, fmt.Errorf("%w: %q", pixel.ErrUnknownFormat, s)
	}

	return f, nil
}

// DecodeTexture converts width*height packed pixels in format f, stored in
// row-major order, to an image.
func DecodeTexture(f pixel.Format, width, height int, data []byte) (*image.NRGBA, error) {
	c, ok := pixel.Lookup(f)
	if !ok {
		return nil, fmt.Errorf("%w: %v", pixel.ErrUnknownFormat, f)
	}

	size := c.BitsPerPixel() >> 3
	if width < 0 || height < 0 || (width > 0 && height > math.MaxInt/width/size) || len(data) != width*height*size {
		return nil, fmt.Errorf("%w: %d bytes for %dx%d %v", ErrTextureSize, len(data), width, height, f)
	}

	canonical, err := pixel.Decode(f, data)
	if err != nil {
		return nil, err
	}

	m := image.NewNRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < len(canonical); i += pixel.CanonicalSize {
		m.Pix[i+0] = canonical[i+pixel.R]
		m.Pix[i+1] = canonical[i+pixel.G]
		m.Pix[i+2] = canonical[i+pixel.B]
		m.Pix[i+3] = canonical[i+pixel.A]
	}

	return m, nil
}

// EncodeTexture converts m to packed pixels in format f in row-major order.
func EncodeTexture(f pixel.Format, m image.Image) ([]byte, error) {
	b := m.Bounds()
	canonical := make([]byte, 0, b.Dx()*b.Dy()*pixel.CanonicalSize)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			nc := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
			canonical = append(canonical, nc.B, nc.G, nc.R, nc.A)
		}
	}

	return pixel.Encode(f, canonical)
}

// WriteGIF writes m as a GIF, reducing it to a palette of at most 256 colors
// with a median cut.
func WriteGIF(w io.Writer, m image.Image) error {
	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, 256), m)
	if len(p) == 0 {
		p = color.Palette{color.Transparent}
	}

	pm := image.NewPaletted(m.Bounds(), p)
	draw.Draw(pm, pm.Rect, m, m.Bounds().Min, draw.Src)

	return gif.Encode(w, pm, nil)
}
