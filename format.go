package puyotools

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/bodgit/puyotools/archive"
	"github.com/bodgit/puyotools/archive/one"
	"github.com/bodgit/puyotools/archive/u8"
)

// ErrUnrecognized is returned when no archive format matches a stream.
var ErrUnrecognized = errors.New("puyotools: unrecognized archive")

// Formats returns the supported archive formats in the order they are tried
// when detecting the format of a stream.
func Formats() []archive.Format {
	return []archive.Format{
		u8.Format{},
		one.Format{},
	}
}

// LookupFormat returns the format with the given name or file extension,
// ignoring case.
func LookupFormat(name string) (archive.Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(f.Name(), name) || strings.EqualFold(f.Extension(), name) || strings.EqualFold(f.Extension(), "."+name) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("puyotools: unknown archive format %q", name)
}

// Detect returns the first format whose signature matches the stream. The
// position of r is unchanged.
func Detect(r io.ReadSeeker, length int64, filename string) (archive.Format, error) {
	for _, f := range Formats() {
		ok, err := f.Is(r, length, filename)
		if err != nil {
			return nil, err
		}
		if ok {
			return f, nil
		}
	}
	return nil, ErrUnrecognized
}

// OpenArchive detects the format of the archive of length bytes at the
// current position of r and parses it. A format whose signature matches but
// whose index fails to parse is skipped in favour of the next candidate; if
// none succeed the error from the last candidate is returned.
func OpenArchive(r io.ReadSeeker, length int64, filename string) (archive.Format, archive.Reader, error) {
	start, err := r.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, nil, err
	}

	lastErr := ErrUnrecognized
	for _, f := range Formats() {
		ok, err := f.Is(r, length, filename)
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			continue
		}

		ar, err := f.NewReader(r, length)
		if err == nil {
			return f, ar, nil
		}
		if !errors.Is(err, archive.ErrFormat) && !errors.Is(err, archive.ErrCorrupt) {
			return nil, nil, err
		}
		lastErr = fmt.Errorf("%s: %w", f.Name(), err)

		if _, err := r.Seek(start, io.SeekStart); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, lastErr
}
