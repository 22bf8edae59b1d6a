package puyotools

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bodgit/puyotools/archive"
)

// BatchError reports how many files of a batch failed.
type BatchError struct {
	Failed int
	Total  int
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("puyotools: %d of %d files failed", e.Failed, e.Total)
}

func openFile(file string) (*os.File, archive.Format, archive.Reader, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, nil, err
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}

	format, r, err := OpenArchive(f, info.Size(), filepath.Base(file))
	if err != nil {
		f.Close()
		return nil, nil, nil, err
	}

	return f, format, r, nil
}

// List returns the format and entries of the archive in file.
func (p *PuyoTools) List(file string) (archive.Format, []archive.Entry, error) {
	f, format, r, err := openFile(file)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	return format, r.Entries(), nil
}

// Entry names are written beneath the output directory so anything that
// could escape it is reduced to its final element
func entryName(i int, name string) string {
	name = filepath.Base(filepath.FromSlash(strings.ReplaceAll(name, "\\", "/")))
	if name == "." || name == ".." || name == string(filepath.Separator) {
		name = fmt.Sprintf("%04d.bin", i)
	}
	return name
}

// Flattened directories can repeat a name, later entries are prefixed with
// their index. Names are compared ignoring case.
type entryNames map[string]struct{}

func (n entryNames) claim(i int, name string) (string, error) {
	name = entryName(i, name)
	if _, ok := n[strings.ToLower(name)]; ok {
		name = fmt.Sprintf("%04d_%s", i, name)
		if _, ok := n[strings.ToLower(name)]; ok {
			return "", fmt.Errorf("puyotools: duplicate entry name %q", name)
		}
	}
	n[strings.ToLower(name)] = struct{}{}
	return name, nil
}

func (p *PuyoTools) extractFile(dir, file string) error {
	f, format, r, err := openFile(file)
	if err != nil {
		return err
	}
	defer f.Close()

	out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)))
	if err := os.MkdirAll(out, 0o755); err != nil {
		return err
	}

	names := make(entryNames, len(r.Entries()))
	for i, e := range r.Entries() {
		name, err := names.claim(i, e.Name)
		if err != nil {
			return err
		}

		rc, err := r.Open(e)
		if err != nil {
			return err
		}

		w, err := os.Create(filepath.Join(out, name))
		if err != nil {
			return err
		}

		if _, err := io.Copy(w, rc); err != nil {
			w.Close()
			return err
		}

		if err := w.Close(); err != nil {
			return err
		}
	}

	p.logger.Printf("Extracted %d entries from %q (%s)\n", len(r.Entries()), file, format.Name())

	return nil
}

// Extract extracts every entry of each archive into a directory beneath dir
// named after the archive. A file that fails is logged and skipped, after
// which a *BatchError is returned.
func (p *PuyoTools) Extract(dir string, files ...string) error {
	var failed int
	for _, file := range files {
		if err := p.extractFile(dir, file); err != nil {
			p.logger.Printf("Skipping %q: %v\n", file, err)
			failed++
		}
	}

	if failed > 0 {
		return &BatchError{Failed: failed, Total: len(files)}
	}

	return nil
}

// Create builds an archive in format f at dst containing each of files,
// named after their base names. On error dst is removed.
func (p *PuyoTools) Create(dst string, f archive.Format, files ...string) (err error) {
	if !f.CanWrite() {
		return fmt.Errorf("%w: %s archives cannot be written", archive.ErrNotSupported, f.Name())
	}

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(dst)
		}
	}()

	w, err := f.NewWriter(out)
	if err != nil {
		return err
	}

	// The writer holds every reader until Flush
	var inputs []io.Closer
	defer func() {
		for _, c := range inputs {
			c.Close()
		}
	}()

	for _, file := range files {
		in, err := os.Open(file)
		if err != nil {
			return err
		}
		inputs = append(inputs, in)

		if err := w.Add(filepath.Base(file), in); err != nil {
			return fmt.Errorf("adding %q: %w", file, err)
		}
	}

	if err := w.Flush(); err != nil {
		return err
	}

	p.logger.Printf("Created %q, %s archive with %d entries\n", dst, f.Name(), len(files))

	return nil
}
