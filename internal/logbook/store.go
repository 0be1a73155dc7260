// Package logbook owns the on-disk logbook: one YAML file per calendar
// date, each holding a chronologically sorted list of entries.
package logbook

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

const fileExt = ".yml"

var (
	dateRe = regexp.MustCompile(`^\d{4}-(0\d|1[0-2])-([0-2]\d|3[01])$`)
	fileRe = regexp.MustCompile(`^\d{4}-(0\d|1[0-2])-([0-2]\d|3[01])\.yml$`)
)

// Store reads and writes logbook date-files under a single directory.
// Mutations serialize on one mutex so a trigger write and a manual API
// write can never interleave their read-modify-write cycles. Reads are
// lock-free; the atomic file replace keeps them consistent.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New opens a store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the directory the store operates on.
func (s *Store) Dir() string {
	return s.dir
}

// ListDates returns the calendar dates that have a log file, sorted
// ascending. Files not matching the date naming pattern are ignored.
func (s *Store) ListDates() ([]string, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read log directory: %w", err)
	}
	dates := []string{}
	for _, f := range files {
		if !f.Type().IsRegular() {
			continue
		}
		if !fileRe.MatchString(f.Name()) {
			continue
		}
		dates = append(dates, strings.TrimSuffix(f.Name(), fileExt))
	}
	sort.Strings(dates)
	return dates, nil
}

// GetDate returns the entries logged for the given date, in file order.
func (s *Store) GetDate(date string) ([]model.Entry, error) {
	if !dateRe.MatchString(date) {
		return nil, fmt.Errorf("%q: %w", date, ErrInvalidDate)
	}
	path := s.path(date)
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("log for %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat log for %s: %w", date, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("log for %s: %w", date, ErrNotFound)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read log for %s: %w", date, err)
	}
	entries, err := decodeEntries(raw)
	if err != nil {
		return nil, &ValidationError{Cause: err}
	}
	if err := validateLog(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// GetEntry returns the entry with the exact given timestamp from its
// date's file.
func (s *Store) GetEntry(datetime time.Time) (model.Entry, error) {
	entries, err := s.GetDate(datetime.UTC().Format("2006-01-02"))
	if err != nil {
		return model.Entry{}, err
	}
	for _, e := range entries {
		if e.Datetime.Equal(datetime) {
			return e, nil
		}
	}
	return model.Entry{}, fmt.Errorf("entry %s: %w", datetime.UTC().Format(time.RFC3339), ErrNotFound)
}

// WriteDate sorts the entries ascending by datetime (stable), validates
// the full list, and atomically replaces the date's file. Nothing is
// written when validation fails.
func (s *Store) WriteDate(date string, entries []model.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeDate(date, entries)
}

func (s *Store) writeDate(date string, entries []model.Entry) error {
	if !dateRe.MatchString(date) {
		return fmt.Errorf("%q: %w", date, ErrInvalidDate)
	}
	sorted := make([]model.Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Datetime.Before(sorted[j].Datetime)
	})
	if err := validateLog(sorted); err != nil {
		return err
	}
	raw, err := yaml.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode log for %s: %w", date, err)
	}
	// Write to a temp file first, then rename for atomicity.
	path := s.path(date)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write log for %s: %w", date, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace log for %s: %w", date, err)
	}
	return nil
}

// AppendEntry validates the entry and adds it to the given date's file,
// creating the file when the date has no log yet. The target date may
// differ from the entry's own calendar date when backdating.
func (s *Store) AppendEntry(date string, entry model.Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.GetDate(date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return s.writeDate(date, append(entries, entry))
}

// WriteEntry upserts by exact timestamp: an existing entry with the same
// datetime is replaced, otherwise the entry is appended.
func (s *Store) WriteEntry(entry model.Entry) error {
	if err := validateEntry(entry); err != nil {
		return err
	}
	date := entry.DateString()
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.GetDate(date)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	replaced := false
	for i := range entries {
		if entries[i].Datetime.Equal(entry.Datetime) {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	return s.writeDate(date, entries)
}

// DeleteEntry removes the entry with the exact given timestamp.
func (s *Store) DeleteEntry(datetime time.Time) error {
	date := datetime.UTC().Format("2006-01-02")
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.GetDate(date)
	if err != nil {
		return err
	}
	kept := make([]model.Entry, 0, len(entries))
	found := false
	for _, e := range entries {
		if e.Datetime.Equal(datetime) {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return fmt.Errorf("entry %s: %w", datetime.UTC().Format(time.RFC3339), ErrNotFound)
	}
	return s.writeDate(date, kept)
}

// path maps a validated date string to its file. Callers must have
// matched the date pattern already; this keeps traversal out of reach.
func (s *Store) path(date string) string {
	return filepath.Join(s.dir, date+fileExt)
}

// decodeEntries parses a date-file, rejecting unknown fields. An empty
// document is an empty log.
func decodeEntries(raw []byte) ([]model.Entry, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	var entries []model.Entry
	if err := dec.Decode(&entries); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Entry{}, nil
		}
		return nil, err
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	return entries, nil
}
