// Package records is the append-only record store: one CSV file per form kind,
// header row written once, rows appended under an exclusive flock.
package records

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

var (
	// ErrInit covers failures before a row can be written: directory or file
	// creation, open, lock, header write. Nothing was recorded.
	ErrInit = errors.New("record store init failed")
	// ErrAppend covers failures writing the row after a successful open.
	ErrAppend = errors.New("record store append failed")
	// ErrUnknownKind is returned for kinds without a registered schema.
	ErrUnknownKind = errors.New("no schema registered for kind")
)

// Schema is the backing file and fixed column order for one kind.
type Schema struct {
	File   string
	Header []string
}

// Store appends rows to per-kind CSV files under dir.
type Store struct {
	dir     string
	schemas map[string]Schema
}

// NewStore returns a Store. Directories and files are created lazily on the
// first append so a misconfigured path surfaces as a per-request ErrInit.
func NewStore(dir string, schemas map[string]Schema) *Store {
	m := make(map[string]Schema, len(schemas))
	for k, s := range schemas {
		m[k] = s
	}
	return &Store{dir: dir, schemas: m}
}

// Path returns the file backing kind.
func (s *Store) Path(kind string) (string, error) {
	schema, ok := s.schemas[kind]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	return filepath.Join(s.dir, schema.File), nil
}

// Append writes one row for kind. The lock is held from open to close only.
// Errors wrap ErrInit or ErrAppend.
func (s *Store) Append(kind string, row []string) error {
	schema, ok := s.schemas[kind]
	if !ok {
		return fmt.Errorf("%w: %w: %s", ErrInit, ErrUnknownKind, kind)
	}
	if len(row) != len(schema.Header) {
		return fmt.Errorf("%w: row has %d columns, %s schema has %d", ErrAppend, len(row), kind, len(schema.Header))
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create dir %s: %w", ErrInit, s.dir, err)
	}
	path := filepath.Join(s.dir, schema.File)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrInit, path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		return fmt.Errorf("%w: lock %s: %w", ErrInit, path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:errcheck

	// header goes in under the same lock so concurrent first writers agree
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrInit, path, err)
	}
	if info.Size() == 0 {
		if err := writeRecord(f, schema.Header); err != nil {
			return fmt.Errorf("%w: write header %s: %w", ErrInit, path, err)
		}
	}

	if err := writeRecord(f, row); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrAppend, path, err)
	}
	return nil
}

// ReadAll returns every record for kind including the header row. A missing
// file yields no rows and no error.
func (s *Store) ReadAll(kind string) ([][]string, error) {
	path, err := s.Path(kind)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := unix.Flock(int(f.Fd()), unix.LOCK_SH); err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	defer unix.Flock(int(f.Fd()), unix.LOCK_UN) //nolint:errcheck

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// writeRecord encodes one CSV line and writes it with a single write call.
func writeRecord(w io.Writer, record []string) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(record); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}
