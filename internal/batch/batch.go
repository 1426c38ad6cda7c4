// Package batch reads and writes the per-day JSON batches that form the
// boundary between the transform and load stages.
package batch

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"contratosmadrid/internal/models"
)

// Batch files are named after their source day and partitioned by year/month,
// mirroring the raw download layout.
var batchNamePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.json$`)

// File is one discovered batch file.
type File struct {
	Path string
	Date string
}

// Write stores one day's records as dir/YYYY/MM/YYYY-MM-DD.json.
func Write(dir, date string, records []models.ContractRecord) (string, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("invalid batch date %q: %w", date, err)
	}

	path := filepath.Join(dir, day.Format("2006"), day.Format("01"), date+".json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("create batch directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal batch: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write batch: %w", err)
	}

	return path, nil
}

// Read loads one batch file.
func Read(path string) ([]models.ContractRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	var records []models.ContractRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse batch %s: %w", path, err)
	}

	return records, nil
}

// Walk finds every batch file under dir whose day falls inside [from, to],
// ordered by date. Zero from/to values leave that bound open.
func Walk(dir string, from, to time.Time) ([]File, error) {
	var files []File

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		m := batchNamePattern.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}

		day, parseErr := time.Parse("2006-01-02", m[1])
		if parseErr != nil {
			return nil
		}

		if !from.IsZero() && day.Before(from) {
			return nil
		}

		if !to.IsZero() && day.After(to) {
			return nil
		}

		files = append(files, File{Path: path, Date: m[1]})

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk batch directory: %w", err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Date < files[j].Date })

	return files, nil
}
