package prs

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	random := make([]byte, 4096)
	rng.Read(random)

	// Small alphabet gives plenty of short and long matches
	mixed := make([]byte, 20000)
	for i := range mixed {
		mixed[i] = "abcd"[rng.Intn(4)]
	}

	tests := map[string][]byte{
		"empty":     {},
		"one byte":  {0x42},
		"two bytes": {0x42, 0x42},
		"run":       bytes.Repeat([]byte{0xaa}, 1000),
		"text":      bytes.Repeat([]byte("Sonic and the Secret Rings "), 200),
		"random":    random,
		"mixed":     mixed,
		"far":       append(append(append([]byte{}, random...), random...), random[:300]...),
	}

	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			c := Compress(in)
			out, err := Decompress(c)
			require.NoError(t, err)
			assert.Equal(t, len(in), len(out))
			assert.True(t, bytes.Equal(in, out))
		})
	}
}

func TestCompresses(t *testing.T) {
	in := bytes.Repeat([]byte{0x00, 0x01, 0x02, 0x03}, 1024)
	assert.Less(t, len(Compress(in)), len(in)/10)
}

func TestEmptyStream(t *testing.T) {
	assert.Equal(t, []byte{0x02, 0x00, 0x00}, Compress(nil))
}

func TestDecompressKnown(t *testing.T) {
	// Control bits 1 1 0 0 1 0 0 1: literal 'a', literal 'b', a short copy
	// of 4 bytes from offset -2 and the end marker
	stream := []byte{0x93, 'a', 'b', 0xfe, 0x00, 0x00}
	out, err := Decompress(stream)
	require.NoError(t, err)
	assert.Equal(t, []byte("ababab"), out)
}

func TestDecompressErrors(t *testing.T) {
	_, err := Decompress(nil)
	assert.Equal(t, errTruncated, err)

	// Literal flag with no byte following
	_, err = Decompress([]byte{0x01})
	assert.Equal(t, errTruncated, err)

	// Short copy from before the start of the output
	_, err = Decompress([]byte{0x00, 0xff})
	assert.Equal(t, errOffset, err)

	// Missing end marker
	_, err = Decompress([]byte{0x03, 'a', 'b'})
	assert.Equal(t, errTruncated, err)
}
