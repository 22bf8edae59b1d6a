package puyotools

import (
	"fmt"
	"io"

	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/catalog"
	"github.com/cespare/xxhash/v2"
)

// ChecksumEntry returns the xxHash64 of the decompressed payload of e.
func ChecksumEntry(r archive.Reader, e archive.Entry) (uint64, error) {
	rc, err := r.Open(e)
	if err != nil {
		return 0, err
	}

	h := xxhash.New()
	n, err := io.Copy(h, rc)
	if err != nil {
		return 0, err
	}
	if n != e.Size {
		return 0, fmt.Errorf("%w: %q is %d bytes, expected %d", archive.ErrCorrupt, e.Name, n, e.Size)
	}

	return h.Sum64(), nil
}

func checksumArchive(r archive.Reader) ([]catalog.Record, error) {
	records := make([]catalog.Record, 0, len(r.Entries()))
	for _, e := range r.Entries() {
		sum, err := ChecksumEntry(r, e)
		if err != nil {
			return nil, err
		}
		records = append(records, catalog.Record{
			Name:     e.Name,
			Offset:   e.Offset,
			Length:   e.Length,
			Size:     e.Size,
			Checksum: sum,
		})
	}
	return records, nil
}
