package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/jimezsa/jobfinder/internal/export"
	"github.com/jimezsa/jobfinder/internal/models"
)

// ReadCSV reads records from a CSV file written by WriteCSV. Columns are
// located by header name.
func ReadCSV(path string) ([]models.Record, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []models.Record{}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	records := make([]models.Record, 0, len(rows))
	header := rows[0]
	for _, row := range rows[1:] {
		records = append(records, export.ParseRow(header, row))
	}
	return records, nil
}

// ReadCSVAllowMissing reads records and treats a missing file as empty.
func ReadCSVAllowMissing(path string) ([]models.Record, error) {
	records, err := ReadCSV(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.Record{}, nil
		}
		return nil, err
	}
	return records, nil
}

// WriteCSV replaces path with records. The file is written next to path and
// renamed over it, so readers see either the old or the new content.
func WriteCSV(path string, records []models.Record) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, records, ','); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// CSVStore is the accumulated output file. Merges from separate processes
// are serialized through a lock file next to it.
type CSVStore struct {
	path string
	lock *flock.Flock
}

func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path, lock: flock.New(path + ".lock")}
}

func (s *CSVStore) Path() string {
	return s.path
}

// Merge adds records whose Job URL is not stored yet. An empty input leaves
// the file untouched.
func (s *CSVStore) Merge(records []models.Record) (MergeStats, error) {
	if len(records) == 0 {
		return MergeStats{}, nil
	}
	if err := s.lock.Lock(); err != nil {
		return MergeStats{}, fmt.Errorf("lock %s: %w", s.path, err)
	}
	defer s.lock.Unlock()

	existing, err := ReadCSVAllowMissing(s.path)
	if err != nil {
		return MergeStats{}, fmt.Errorf("read %s: %w", s.path, err)
	}
	merged, stats := MergeRecords(existing, records)
	if err := WriteCSV(s.path, merged); err != nil {
		return stats, fmt.Errorf("write %s: %w", s.path, err)
	}
	return stats, nil
}

// Count returns the number of stored records; a missing file holds none.
func (s *CSVStore) Count() (int, error) {
	records, err := ReadCSVAllowMissing(s.path)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// WriteLastRun records at as the completion time of the latest run.
func WriteLastRun(path string, at time.Time) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}
	return writeFileAtomic(path, []byte(at.Format(time.RFC3339)+"\n"))
}

// ReadLastRun returns the recorded completion time. ok is false when no run
// has been recorded yet.
func ReadLastRun(path string) (at time.Time, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return time.Time{}, false, nil
	}
	at, err = time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last run %q: %w", value, err)
	}
	return at, true, nil
}

// WriteJSON replaces path with the JSON encoding of v.
func WriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// ReadJSON decodes path into v. ok is false when the file does not exist.
func ReadJSON(path string, v any) (ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", path, err)
	}
	return true, nil
}
