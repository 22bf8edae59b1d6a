/*
Package catalog implements a SQLite database recording the entries found in
archives, keyed by a checksum of their contents so identical files can be
found across archives.
*/
package catalog

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// Record is one archive entry to store.
type Record struct {
	Name     string
	Offset   int64
	Length   int64
	Size     int64
	Checksum uint64
}

// Location is where an entry was found.
type Location struct {
	Path   string
	Format string
	Record
}

// Catalog is the entry database.
type Catalog struct {
	db *sql.DB
}

// Checksums are stored as fixed-width hex text as SQLite integers are signed
func formatChecksum(sum uint64) string {
	return fmt.Sprintf("%016X", sum)
}

// New opens or creates the catalog in file.
func New(file string) (*Catalog, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_foreign_keys=on", file))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS archive (id INTEGER PRIMARY KEY NOT NULL, path TEXT NOT NULL UNIQUE, format TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS entry (archive_id INTEGER NOT NULL, name TEXT NOT NULL, position INTEGER NOT NULL, length INTEGER NOT NULL, size INTEGER NOT NULL, checksum TEXT NOT NULL, FOREIGN KEY(archive_id) REFERENCES archive(id) ON DELETE CASCADE)"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err = db.Exec("CREATE INDEX IF NOT EXISTS entry_checksum ON entry (checksum)"); err != nil {
		db.Close()
		return nil, err
	}

	return &Catalog{
		db: db,
	}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Record replaces everything stored for the archive at path.
func (c *Catalog) Record(path, format string, records []Record) error {
	tx, err := c.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM archive WHERE path = ?", path); err != nil {
		return err
	}

	result, err := tx.Exec("INSERT INTO archive (path, format) VALUES (?, ?)", path, format)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO entry (archive_id, name, position, length, size, checksum) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(id, r.Name, r.Offset, r.Length, r.Size, formatChecksum(r.Checksum)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// FindByChecksum returns every entry whose contents hash to sum, ordered by
// archive path and position.
func (c *Catalog) FindByChecksum(sum uint64) ([]Location, error) {
	rows, err := c.db.Query("SELECT a.path, a.format, e.name, e.position, e.length, e.size, e.checksum FROM entry AS e JOIN archive AS a ON e.archive_id = a.id WHERE e.checksum = ? ORDER BY a.path, e.position", formatChecksum(sum))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		var (
			l   Location
			hex string
		)
		if err := rows.Scan(&l.Path, &l.Format, &l.Name, &l.Offset, &l.Length, &l.Size, &hex); err != nil {
			return nil, err
		}
		if l.Checksum, err = strconv.ParseUint(hex, 16, 64); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Entries returns the number of entries recorded for the archive at path.
func (c *Catalog) Entries(path string) (int, error) {
	var n int
	if err := c.db.QueryRow("SELECT COUNT(*) FROM entry AS e JOIN archive AS a ON e.archive_id = a.id WHERE a.path = ?", path).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
