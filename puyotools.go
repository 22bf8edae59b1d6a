/*
Package puyotools is a library for working with the archive containers and
textures found in Sega games.

Archive formats are detected by sniffing their headers, entries are extracted
and decompressed fully into memory, and new archives are built from a list of
files. Textures are converted between their packed 16-bit pixel formats and
image.Image.
*/
package puyotools

import "log"

// PuyoTools runs batch operations over many files, logging the files that
// fail rather than stopping at the first one.
type PuyoTools struct {
	logger *log.Logger
}

// New returns a PuyoTools that logs to logger.
func New(logger *log.Logger) *PuyoTools {
	return &PuyoTools{
		logger: logger,
	}
}
