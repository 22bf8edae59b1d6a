package puyotools

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bodgit/puyotools/catalog"
	"golang.org/x/sync/errgroup"
)

const indexWorkers = 10

// Recorder stores the entries found in an archive. Index serializes calls
// to Record.
type Recorder interface {
	Record(path, format string, records []catalog.Record) error
}

func findFiles(ctx context.Context, base string, out chan<- string) error {
	defer close(out)
	return filepath.WalkDir(base, func(file string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
		if file != base && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		select {
		case out <- file:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}

func (p *PuyoTools) indexFile(file string) (string, []catalog.Record, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", nil, err
	}

	format, r, err := OpenArchive(f, info.Size(), filepath.Base(file))
	if err != nil {
		return "", nil, err
	}

	records, err := checksumArchive(r)
	if err != nil {
		return "", nil, err
	}

	return format.Name(), records, nil
}

type indexer struct {
	*PuyoTools
	rec Recorder

	mu  sync.Mutex
	err error // First error from rec, guarded by mu
}

func (ix *indexer) record(ctx context.Context, file, format string, records []catalog.Record) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.err != nil {
		return ix.err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := ix.rec.Record(file, format, records); err != nil {
		ix.err = err
		return err
	}
	return nil
}

func (ix *indexer) worker(ctx context.Context, in <-chan string) error {
	for file := range in {
		format, records, err := ix.indexFile(file)
		if err != nil {
			if !errors.Is(err, ErrUnrecognized) {
				ix.logger.Printf("Skipping %q: %v\n", file, err)
			}
			continue
		}

		if err := ix.record(ctx, file, format, records); err != nil {
			return err
		}

		ix.logger.Printf("Indexed %q, %s archive with %d entries\n", file, format, len(records))
	}
	return nil
}

// Index walks path, opening every regular file as an archive and recording
// the checksum of each entry in rec. Files that are not recognized archives
// are ignored and files that fail to parse are logged and skipped. Any error
// from rec stops the walk. Index does not return until every call to rec has
// finished.
func (p *PuyoTools) Index(ctx context.Context, rec Recorder, path string) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	files := make(chan string)
	g.Go(func() error {
		return findFiles(ctx, dir, files)
	})

	ix := &indexer{PuyoTools: p, rec: rec}
	for i := 0; i < indexWorkers; i++ {
		g.Go(func() error {
			return ix.worker(ctx, files)
		})
	}

	return g.Wait()
}
