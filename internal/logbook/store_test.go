package logbook

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func entryAt(hour, minute int, text string) model.Entry {
	return model.Entry{
		Datetime: time.Date(2024, 7, 12, hour, minute, 0, 0, time.UTC),
		Text:     text,
		Category: model.CategoryNavigation,
	}
}

func TestWriteDateRoundTrip(t *testing.T) {
	s := newStore(t)

	for _, n := range []int{0, 1, 50} {
		entries := make([]model.Entry, 0, n)
		for i := 0; i < n; i++ {
			entries = append(entries, entryAt(i/60, i%60, fmt.Sprintf("entry %d", i)))
		}
		if err := s.WriteDate("2024-07-12", entries); err != nil {
			t.Fatalf("n=%d: write failed: %v", n, err)
		}
		got, err := s.GetDate("2024-07-12")
		if err != nil {
			t.Fatalf("n=%d: read failed: %v", n, err)
		}
		if len(got) != n {
			t.Fatalf("n=%d: expected %d entries, got %d", n, n, len(got))
		}
		for i := range got {
			if !got[i].Datetime.Equal(entries[i].Datetime) {
				t.Errorf("n=%d: entry %d datetime mismatch: %v", n, i, got[i].Datetime)
			}
			if got[i].Text != entries[i].Text {
				t.Errorf("n=%d: entry %d text mismatch: %q", n, i, got[i].Text)
			}
		}
	}
}

func TestWriteDateSorts(t *testing.T) {
	s := newStore(t)

	entries := []model.Entry{
		entryAt(14, 0, "later"),
		entryAt(9, 0, "earlier"),
	}
	if err := s.WriteDate("2024-07-12", entries); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if got[0].Text != "earlier" || got[1].Text != "later" {
		t.Errorf("expected chronological order, got %q then %q", got[0].Text, got[1].Text)
	}
}

func TestWriteDateSortIdempotent(t *testing.T) {
	s := newStore(t)

	entries := []model.Entry{entryAt(9, 0, "a"), entryAt(10, 0, "b")}
	if err := s.WriteDate("2024-07-12", entries); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	first, err := os.ReadFile(filepath.Join(s.Dir(), "2024-07-12.yml"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}

	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := s.WriteDate("2024-07-12", got); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	second, err := os.ReadFile(filepath.Join(s.Dir(), "2024-07-12.yml"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if string(first) != string(second) {
		t.Error("expected identical file content after rewrite")
	}
}

func TestWriteDateValidationFailureLeavesFileIntact(t *testing.T) {
	s := newStore(t)

	if err := s.WriteDate("2024-07-12", []model.Entry{entryAt(9, 0, "good")}); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	bad := entryAt(10, 0, "bad")
	heading := 400 // out of range
	bad.Heading = &heading
	err := s.WriteDate("2024-07-12", []model.Entry{bad})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "good" {
		t.Errorf("expected prior content intact, got %+v", got)
	}
}

func TestWriteDateRejectsDuplicateDatetimes(t *testing.T) {
	s := newStore(t)

	err := s.WriteDate("2024-07-12", []model.Entry{entryAt(9, 0, "a"), entryAt(9, 0, "b")})
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for duplicate datetime, got %v", err)
	}
}

func TestGetDateInvalidFormat(t *testing.T) {
	s := newStore(t)

	for _, date := range []string{"2024-7-12", "20240712", "../../etc/passwd", "2024-13-01", "2024-07-32"} {
		if _, err := s.GetDate(date); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("%q: expected ErrInvalidDate, got %v", date, err)
		}
	}
}

func TestGetDateNotFound(t *testing.T) {
	s := newStore(t)

	if _, err := s.GetDate("2024-07-12"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetDateCorruptContent(t *testing.T) {
	s := newStore(t)

	path := filepath.Join(s.Dir(), "2024-07-12.yml")
	if err := os.WriteFile(path, []byte("- datetime: 2024-07-12T09:00:00Z\n  text: ok\n  bogusField: 1\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	_, err := s.GetDate("2024-07-12")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError for unknown field, got %v", err)
	}
}

func TestListDates(t *testing.T) {
	s := newStore(t)

	if err := s.WriteDate("2024-07-13", nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := s.WriteDate("2024-07-12", nil); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	// Files not matching the date pattern are ignored, not errors.
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "2024-7-1.yml"), []byte("[]"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	dates, err := s.ListDates()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(dates) != 2 || dates[0] != "2024-07-12" || dates[1] != "2024-07-13" {
		t.Errorf("unexpected dates %v", dates)
	}
}

func TestAppendEntryCreatesDate(t *testing.T) {
	s := newStore(t)

	if err := s.AppendEntry("2024-07-12", entryAt(14, 0, "second")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one entry, got %d", len(got))
	}

	// Appending an earlier entry still yields sorted output.
	if err := s.AppendEntry("2024-07-12", entryAt(9, 0, "first")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	got, err = s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 2 || got[0].Text != "first" || got[1].Text != "second" {
		t.Errorf("expected sorted entries, got %+v", got)
	}
}

func TestAppendEntryValidatesFirst(t *testing.T) {
	s := newStore(t)

	bad := entryAt(9, 0, "bad")
	course := -5
	bad.Course = &course
	err := s.AppendEntry("2024-07-12", bad)
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, err := s.GetDate("2024-07-12"); !errors.Is(err, ErrNotFound) {
		t.Error("expected no file to be created for an invalid entry")
	}
}

func TestWriteEntryUpserts(t *testing.T) {
	s := newStore(t)

	entry := entryAt(9, 0, "original")
	if err := s.WriteEntry(entry); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	entry.Text = "corrected"
	if err := s.WriteEntry(entry); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}

	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected upsert, got %d entries", len(got))
	}
	if got[0].Text != "corrected" {
		t.Errorf("expected second write to win, got %q", got[0].Text)
	}
}

func TestGetEntry(t *testing.T) {
	s := newStore(t)

	if err := s.AppendEntry("2024-07-12", entryAt(9, 30, "found me")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	entry, err := s.GetEntry(time.Date(2024, 7, 12, 9, 30, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if entry.Text != "found me" {
		t.Errorf("unexpected entry %+v", entry)
	}

	_, err = s.GetEntry(time.Date(2024, 7, 12, 9, 31, 0, 0, time.UTC))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newStore(t)

	if err := s.AppendEntry("2024-07-12", entryAt(9, 0, "keep")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	if err := s.AppendEntry("2024-07-12", entryAt(10, 0, "remove")); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	if err := s.DeleteEntry(time.Date(2024, 7, 12, 10, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 || got[0].Text != "keep" {
		t.Errorf("expected only keep to remain, got %+v", got)
	}
}

func TestDeleteEntryNotFound(t *testing.T) {
	s := newStore(t)

	if err := s.AppendEntry("2024-07-12", entryAt(9, 0, "keep")); err != nil {
		t.Fatalf("append failed: %v", err)
	}
	err := s.DeleteEntry(time.Date(2024, 7, 12, 23, 0, 0, 0, time.UTC))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := s.GetDate("2024-07-12")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected file unchanged, got %d entries", len(got))
	}
}

func TestFullEntryRoundTrip(t *testing.T) {
	s := newStore(t)

	heading := 90
	course := 95
	sog := 6.5
	stw := 6.0
	logNM := 123.4
	baro := 1013.25
	windSpeed := 14.0
	windDir := 210
	sea := 3
	entry := model.Entry{
		Datetime:     time.Date(2024, 7, 12, 12, 0, 0, 0, time.UTC),
		Text:         "Hourly entry",
		Category:     model.CategoryNavigation,
		Position:     &model.Position{Latitude: 59.44, Longitude: 24.75, Source: "GPS"},
		Heading:      &heading,
		Course:       &course,
		Speed:        &model.Speed{SOG: &sog, STW: &stw},
		Log:          &logNM,
		Barometer:    &baro,
		Wind:         &model.Wind{Speed: &windSpeed, Direction: &windDir},
		Observations: &model.Observations{SeaState: &sea},
		Engine:       &model.Engine{Hours: 254.5},
		CrewNames:    []string{"Alice", "Bob"},
	}
	if err := s.AppendEntry("2024-07-12", entry); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	got, err := s.GetEntry(entry.Datetime)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Position == nil || got.Position.Source != "GPS" {
		t.Errorf("position lost: %+v", got.Position)
	}
	if got.Speed == nil || got.Speed.SOG == nil || *got.Speed.SOG != 6.5 {
		t.Errorf("speed lost: %+v", got.Speed)
	}
	if got.Wind == nil || got.Wind.Direction == nil || *got.Wind.Direction != 210 {
		t.Errorf("wind lost: %+v", got.Wind)
	}
	if got.Engine == nil || got.Engine.Hours != 254.5 {
		t.Errorf("engine hours lost: %+v", got.Engine)
	}
	if len(got.CrewNames) != 2 {
		t.Errorf("crew lost: %v", got.CrewNames)
	}
}
