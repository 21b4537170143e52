// Package csvfile stores each ledger as a plain comma-separated text file
// named <owner>_<year>.csv whose first line is the header record.
package csvfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"textledger/internal/core"
	"textledger/internal/ledger"
)

const ext = ".csv"

// scanChunk is the read size used when searching backwards for a line start.
const scanChunk = 4096

// Store keeps ledger files under a single directory. It does not serialize
// writers itself; callers hold a per-key lock around read-modify-write cycles.
type Store struct {
	dir string
}

var _ ledger.Store = (*Store)(nil)

// New returns a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Path returns the file backing key.
func (s *Store) Path(key ledger.Key) string {
	return filepath.Join(s.dir, key.String()+ext)
}

func (s *Store) Exists(_ context.Context, key ledger.Key) (bool, error) {
	_, err := os.Stat(s.Path(key))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("stat ledger: %w", err)
}

// Append writes e as a new last line, creating the file with the header first.
func (s *Store) Append(_ context.Context, key ledger.Key, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	path := s.Path(key)
	if err := createWithHeader(path); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat ledger: %w", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		// Created but never initialized, e.g. a crash before the header was written.
		if err := w.Write(core.Header); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	} else {
		needsNewline, err := missingTrailingNewline(f, info.Size())
		if err != nil {
			return err
		}
		if needsNewline {
			buf.WriteByte('\n')
		}
	}
	if err := w.Write(e.Record()); err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// Entries reads every data record, skipping the header.
func (s *Store) Entries(_ context.Context, key ledger.Key) ([]core.Entry, error) {
	f, err := os.Open(s.Path(key))
	if errors.Is(err, os.ErrNotExist) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

// Undo removes the final record by truncating the file at the start of its
// line. The backwards scan never goes below the end of the header line.
func (s *Store) Undo(_ context.Context, key ledger.Key) (core.Entry, error) {
	f, err := os.OpenFile(s.Path(key), os.O_RDWR, 0o644)
	if errors.Is(err, os.ErrNotExist) {
		return core.Entry{}, core.ErrUndoUnderflow
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("open ledger: %w", err)
	}
	defer f.Close()

	items, err := readEntries(f)
	if err != nil {
		return core.Entry{}, err
	}
	if len(items) == 0 {
		return core.Entry{}, core.ErrUndoUnderflow
	}
	last := items[len(items)-1]

	minOffset, err := headerEnd(f)
	if err != nil {
		return core.Entry{}, err
	}
	info, err := f.Stat()
	if err != nil {
		return core.Entry{}, fmt.Errorf("stat ledger: %w", err)
	}
	cut, err := lastLineStart(f, info.Size(), minOffset)
	if err != nil {
		return core.Entry{}, err
	}
	if err := f.Truncate(cut); err != nil {
		return core.Entry{}, fmt.Errorf("truncate ledger: %w", err)
	}
	return last, nil
}

func createWithHeader(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("create ledger: %w", err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(core.Header); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("write header: %w", err)
	}
	return f.Close()
}

func readEntries(r io.Reader) ([]core.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(core.Header)

	header, err := cr.Read()
	if err == io.EOF {
		// An empty file is a ledger whose header was never written.
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !core.IsHeader(header) {
		return nil, fmt.Errorf("unexpected ledger header %q", strings.Join(header, ","))
	}

	var items []core.Entry
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
		e, err := core.EntryFromRecord(rec)
		if err != nil {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("ledger line %d: %w", line, err)
		}
		items = append(items, e)
	}
	return items, nil
}

// headerEnd returns the offset just past the header line's newline.
func headerEnd(f *os.File) (int64, error) {
	br := bufio.NewReader(io.NewSectionReader(f, 0, 1<<20))
	line, err := br.ReadBytes('\n')
	if err != nil {
		return 0, fmt.Errorf("ledger header is not terminated: %w", err)
	}
	return int64(len(line)), nil
}

// lastLineStart finds the offset where the final non-blank line begins.
// Trailing line breaks (including blank lines) are ignored and removed with
// it. The search never looks before minOffset-1, the header's newline, so the
// result is always >= minOffset.
func lastLineStart(f *os.File, size, minOffset int64) (int64, error) {
	end := size
	var b [1]byte
	for end > minOffset {
		if _, err := f.ReadAt(b[:], end-1); err != nil {
			return 0, fmt.Errorf("read ledger tail: %w", err)
		}
		if b[0] != '\n' && b[0] != '\r' {
			break
		}
		end--
	}
	floor := minOffset - 1
	if end <= minOffset {
		return 0, core.ErrUndoUnderflow
	}

	buf := make([]byte, scanChunk)
	for hi := end; hi > floor; {
		lo := hi - scanChunk
		if lo < floor {
			lo = floor
		}
		chunk := buf[:hi-lo]
		if _, err := f.ReadAt(chunk, lo); err != nil && err != io.EOF {
			return 0, fmt.Errorf("scan ledger: %w", err)
		}
		if i := bytes.LastIndexByte(chunk, '\n'); i >= 0 {
			return lo + int64(i) + 1, nil
		}
		hi = lo
	}
	return 0, fmt.Errorf("ledger is corrupt: no line boundary after header")
}

func missingTrailingNewline(f *os.File, size int64) (bool, error) {
	if size == 0 {
		return false, nil
	}
	var b [1]byte
	if _, err := f.ReadAt(b[:], size-1); err != nil {
		return false, fmt.Errorf("read ledger tail: %w", err)
	}
	return b[0] != '\n', nil
}
