/*
Package prs implements PRS, the LZ77 variant used by Sega for compressing
game data.

A PRS stream interleaves control bytes with data. Control bits are consumed
least significant bit first and a fresh control byte is read from the stream
only when the previous one is exhausted. Each command is one of:

	1           literal byte follows
	0 0 s s     short copy, 2-5 bytes, offset byte follows (-256..-1)
	0 1         long copy, little-endian word follows

The long copy word holds the offset in its top 13 bits (-8191..-1) and the
size minus two in its low 3 bits; when those are zero a further byte holds the
size minus one. A long copy word of zero marks the end of the stream.
*/
package prs

import (
	"errors"
)

const (
	shortWindow = 0x100
	longWindow  = 0x1fff
	minMatch    = 2
	maxShort    = 5
	maxInline   = 9
	maxMatch    = 0x100

	hashBits  = 15
	hashSize  = 1 << hashBits
	maxChain  = 256
	noHashPos = -1
)

var (
	errTruncated = errors.New("prs: truncated stream")
	errOffset    = errors.New("prs: copy offset before start of output")
)

type encoder struct {
	dst     []byte
	ctrl    int // index of the current control byte in dst
	ctrlBit uint
}

func (e *encoder) putBit(bit byte) {
	if e.ctrlBit == 8 {
		e.ctrl = len(e.dst)
		e.dst = append(e.dst, 0)
		e.ctrlBit = 0
	}
	e.dst[e.ctrl] |= bit << e.ctrlBit
	e.ctrlBit++
}

func (e *encoder) literal(b byte) {
	e.putBit(1)
	e.dst = append(e.dst, b)
}

func (e *encoder) copy(offset, size int) {
	if offset >= -shortWindow && size <= maxShort {
		s := size - minMatch
		e.putBit(0)
		e.putBit(0)
		e.putBit(byte(s >> 1 & 1))
		e.putBit(byte(s & 1))
		e.dst = append(e.dst, byte(offset))
		return
	}

	w := uint16(offset<<3) & 0xfff8
	e.putBit(0)
	e.putBit(1)
	if size <= maxInline {
		w |= uint16(size - minMatch)
		e.dst = append(e.dst, byte(w), byte(w>>8))
		return
	}
	e.dst = append(e.dst, byte(w), byte(w>>8), byte(size-1))
}

func (e *encoder) end() {
	e.putBit(0)
	e.putBit(1)
	e.dst = append(e.dst, 0, 0)
}

func hash3(b []byte) uint32 {
	return (uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])) * 2654435761 >> (32 - hashBits)
}

func matchLength(src []byte, i, j, limit int) int {
	n := 0
	for n < limit && src[j+n] == src[i+n] {
		n++
	}
	return n
}

// Compress returns src compressed with PRS.
func Compress(src []byte) []byte {
	e := &encoder{
		dst:     make([]byte, 1, len(src)+len(src)/8+4),
		ctrlBit: 0,
	}

	head := make([]int, hashSize)
	for i := range head {
		head[i] = noHashPos
	}
	prev := make([]int, len(src))

	insert := func(i int) {
		if i+3 > len(src) {
			return
		}
		h := hash3(src[i:])
		prev[i] = head[h]
		head[h] = i
	}

	for i := 0; i < len(src); {
		limit := len(src) - i
		if limit > maxMatch {
			limit = maxMatch
		}

		bestLen, bestPos := 0, 0

		if limit >= 3 {
			h := hash3(src[i:])
			for j, n := head[h], 0; j != noHashPos && i-j <= longWindow && n < maxChain; j, n = prev[j], n+1 {
				if l := matchLength(src, i, j, limit); l >= 3 && l > bestLen {
					bestLen, bestPos = l, j
					if l == limit {
						break
					}
				}
			}
		}

		// Two byte matches are only worth it within the short window
		if bestLen < 3 && limit >= minMatch {
			for j := i - 1; j >= 0 && i-j <= shortWindow; j-- {
				if matchLength(src, i, j, minMatch) == minMatch {
					bestLen, bestPos = minMatch, j
					break
				}
			}
		}

		if bestLen < minMatch {
			e.literal(src[i])
			insert(i)
			i++
			continue
		}

		e.copy(bestPos-i, bestLen)
		for k := 0; k < bestLen; k++ {
			insert(i + k)
		}
		i += bestLen
	}

	e.end()

	return e.dst
}

type decoder struct {
	src     []byte
	pos     int
	ctrl    byte
	ctrlBit uint
}

func (d *decoder) readByte() (byte, error) {
	if d.pos >= len(d.src) {
		return 0, errTruncated
	}
	b := d.src[d.pos]
	d.pos++
	return b, nil
}

func (d *decoder) bit() (byte, error) {
	if d.ctrlBit == 8 {
		b, err := d.readByte()
		if err != nil {
			return 0, err
		}
		d.ctrl, d.ctrlBit = b, 0
	}
	bit := d.ctrl >> d.ctrlBit & 1
	d.ctrlBit++
	return bit, nil
}

// Decompress returns the result of decompressing the PRS stream in src.
// Input after the end marker is ignored.
func Decompress(src []byte) ([]byte, error) {
	d := &decoder{src: src, ctrlBit: 8}
	dst := make([]byte, 0, len(src)*2)

	for {
		flag, err := d.bit()
		if err != nil {
			return nil, err
		}
		if flag == 1 {
			b, err := d.readByte()
			if err != nil {
				return nil, err
			}
			dst = append(dst, b)
			continue
		}

		if flag, err = d.bit(); err != nil {
			return nil, err
		}

		var offset, size int
		if flag == 1 {
			lo, err := d.readByte()
			if err != nil {
				return nil, err
			}
			hi, err := d.readByte()
			if err != nil {
				return nil, err
			}
			w := int(hi)<<8 | int(lo)
			if w == 0 {
				return dst, nil
			}
			offset = w>>3 | -1<<13
			if size = w & 7; size == 0 {
				b, err := d.readByte()
				if err != nil {
					return nil, err
				}
				size = int(b) + 1
			} else {
				size += minMatch
			}
		} else {
			for k := 0; k < 2; k++ {
				bit, err := d.bit()
				if err != nil {
					return nil, err
				}
				size = size<<1 | int(bit)
			}
			size += minMatch
			b, err := d.readByte()
			if err != nil {
				return nil, err
			}
			offset = int(b) | -1<<8
		}

		from := len(dst) + offset
		if from < 0 {
			return nil, errOffset
		}
		for k := 0; k < size; k++ {
			dst = append(dst, dst[from+k])
		}
	}
}
