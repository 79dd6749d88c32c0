package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const (
	// DateLayout formats the Date column and file names
	DateLayout = "2006-01-02"
	// TimeLayout formats the Time column (24-hour)
	TimeLayout = "15:04:05"
)

var (
	// ErrNoRecords indicates that no store exists yet for the requested day
	ErrNoRecords = errors.New("no records found")

	// ErrWrite wraps failures to create or append to a store
	ErrWrite = errors.New("failed to write attendance records")

	// ErrRead wraps failures to open or parse an existing store
	ErrRead = errors.New("failed to read attendance records")
)

// Header is the first row of every store
var Header = []string{"Name", "Time", "Date"}

// Entry is a single attendance row
type Entry struct {
	Name string `json:"name"`
	Time string `json:"time"`
	Date string `json:"date"`
}

func (e Entry) row() []string {
	return []string{e.Name, e.Time, e.Date}
}

// Store manages the per-day CSV files under one directory
type Store struct {
	dir       string
	extension string

	mu sync.Mutex
}

// NewStore creates the records directory if it does not exist yet
func NewStore(dir, extension string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("records dir cannot be empty")
	}

	if extension == "" {
		extension = "csv"
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create records dir %s: %w", dir, err)
	}

	return &Store{dir: dir, extension: extension}, nil
}

// Dir returns the records directory
func (s *Store) Dir() string {
	return s.dir
}

// Path returns the file backing the store for date
func (s *Store) Path(date time.Time) string {
	return filepath.Join(s.dir, fmt.Sprintf("attendance_%s.%s", date.Format(DateLayout), s.extension))
}

// Ensure resolves the store for date on its own, creating it with its header
// row if absent, and returns its path. Append performs the same resolution
// before writing; Ensure lets callers pre-create a day's store. Calling it
// again for the same date is a no-op.
func (s *Store) Ensure(date time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.openForAppend(date)
	if err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return s.Path(date), nil
}

// Append writes one entry per name, all stamped with the time and date of at,
// after any existing rows of that day's store.
func (s *Store) Append(names []string, at time.Time) ([]Entry, error) {
	entries := make([]Entry, len(names))
	for i, name := range names {
		entries[i] = Entry{
			Name: name,
			Time: at.Format(TimeLayout),
			Date: at.Format(DateLayout),
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := s.openForAppend(at)
	if err != nil {
		return nil, err
	}

	writer := csv.NewWriter(file)
	for _, entry := range entries {
		if err := writer.Write(entry.row()); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}
	writer.Flush()

	if err := errors.Join(writer.Error(), file.Close()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	return entries, nil
}

// openForAppend must be called with s.mu held. A new or empty file gets the header.
func (s *Store) openForAppend(date time.Time) (*os.File, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	file, err := os.OpenFile(s.Path(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	if info.Size() == 0 {
		writer := csv.NewWriter(file)
		if err := writer.Write(Header); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("%w: %w", ErrWrite, err)
		}
	}

	return file, nil
}

// Read loads the entries of date's store in file order.
// It returns ErrNoRecords when the store does not exist.
func (s *Store) Read(date time.Time) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.Path(date))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNoRecords
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = len(Header)

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrRead, s.Path(date))
	}

	for i, column := range Header {
		if rows[0][i] != column {
			return nil, fmt.Errorf("%w: unexpected header %q", ErrRead, rows[0])
		}
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		entries = append(entries, Entry{Name: row[0], Time: row[1], Date: row[2]})
	}

	return entries, nil
}
