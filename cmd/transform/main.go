// Package main provides the transform command-line tool that turns raw CSV
// and HTML downloads into canonical per-day batches.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"contratosmadrid/internal/batch"
	"contratosmadrid/internal/config"
	"contratosmadrid/internal/extractor"
	"contratosmadrid/internal/logger"
	"contratosmadrid/internal/models"
)

var csvNamePattern = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\.csv$`)

func main() {
	configFile := flag.String("config", "configs/pipeline.yaml", "Path to YAML configuration file")
	format := flag.String("format", "all", "Source format to transform: csv, html or all")
	fromFlag := flag.String("from", "", "Start date override (YYYY-MM-DD)")
	toFlag := flag.String("to", "", "End date override (YYYY-MM-DD)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	logr := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	from, to := cfg.DateRange()

	if from, to, err = overrideRange(from, to, *fromFlag, *toFlag); err != nil {
		log.Fatalf("❌ %v", err)
	}

	fmt.Printf("⚙️  %s\n", cfg)

	switch *format {
	case "csv":
		transformCSV(cfg, logr, from, to)
	case "html":
		transformHTML(cfg, logr, from, to)
	case "all":
		if cfg.Pipeline.RawCSVDir != "" {
			transformCSV(cfg, logr, from, to)
		}

		if cfg.Pipeline.RawHTMLDir != "" {
			transformHTML(cfg, logr, from, to)
		}
	default:
		log.Fatalf("❌ Unknown format %q (want csv, html or all)", *format)
	}
}

func overrideRange(from, to time.Time, fromFlag, toFlag string) (time.Time, time.Time, error) {
	var err error

	if fromFlag != "" {
		if from, err = time.Parse("2006-01-02", fromFlag); err != nil {
			return from, to, fmt.Errorf("invalid -from date: %w", err)
		}
	}

	if toFlag != "" {
		if to, err = time.Parse("2006-01-02", toFlag); err != nil {
			return from, to, fmt.Errorf("invalid -to date: %w", err)
		}
	}

	return from, to, nil
}

func inRange(day time.Time, from, to time.Time) bool {
	if !from.IsZero() && day.Before(from) {
		return false
	}

	if !to.IsZero() && day.After(to) {
		return false
	}

	return true
}

// transformCSV converts every in-range daily export into one batch. A file
// with a garbled header is skipped whole; the run keeps going.
func transformCSV(cfg *config.Config, logr *logger.Logger, from, to time.Time) {
	ex := extractor.NewCSVExtractor(logr)
	days := 0

	err := filepath.WalkDir(cfg.Pipeline.RawCSVDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		m := csvNamePattern.FindStringSubmatch(d.Name())
		if m == nil {
			return nil
		}

		date := m[1]

		day, parseErr := time.Parse("2006-01-02", date)
		if parseErr != nil || !inRange(day, from, to) {
			return nil
		}

		records, exErr := ex.ExtractFile(path, date)
		if exErr != nil {
			if errors.Is(exErr, extractor.ErrSourceFormat) {
				logr.Warn("skipping file with unexpected format", "file", path, "error", exErr)

				return nil
			}

			logr.Error("skipping unreadable file", "file", path, "error", exErr)

			return nil
		}

		out, writeErr := batch.Write(cfg.Pipeline.BatchDir, date, records)
		if writeErr != nil {
			return writeErr
		}

		logr.Info("transformed csv export", "file", path, "batch", out, "contracts", len(records))
		days++

		return nil
	})
	if err != nil {
		log.Fatalf("❌ CSV transform failed: %v", err)
	}

	fmt.Printf("✅ CSV transform done: %d day(s)\n", days)
}

// transformHTML converts the in-range detail pages, one batch per day. A
// document whose results table cannot be trusted is dropped with an error;
// the rest of the day still loads.
func transformHTML(cfg *config.Config, logr *logger.Logger, from, to time.Time) {
	ex := extractor.NewHTMLExtractor(logr)
	byDay := make(map[string][]string)

	err := filepath.WalkDir(cfg.Pipeline.RawHTMLDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		if !strings.HasSuffix(d.Name(), ".html") {
			return nil
		}

		date, ok := dayFromPath(path)
		if !ok {
			logr.Warn("html file outside YYYY/MM/DD layout, skipping", "file", path)

			return nil
		}

		day, parseErr := time.Parse("2006-01-02", date)
		if parseErr != nil || !inRange(day, from, to) {
			return nil
		}

		byDay[date] = append(byDay[date], path)

		return nil
	})
	if err != nil {
		log.Fatalf("❌ HTML transform failed: %v", err)
	}

	dates := make([]string, 0, len(byDay))
	for date := range byDay {
		dates = append(dates, date)
	}

	sort.Strings(dates)

	days := 0

	for _, date := range dates {
		paths := byDay[date]
		sort.Strings(paths)

		var records []models.ContractRecord

		for _, path := range paths {
			cid := strings.TrimSuffix(filepath.Base(path), ".html")

			record, exErr := ex.ExtractFile(path, cid)
			if exErr != nil {
				logr.Error("skipping detail page", "cid", cid, "file", path, "error", exErr)

				continue
			}

			records = append(records, *record)
		}

		if len(records) == 0 {
			continue
		}

		out, writeErr := batch.Write(cfg.Pipeline.BatchDir, date, records)
		if writeErr != nil {
			log.Fatalf("❌ HTML transform failed: %v", writeErr)
		}

		logr.Info("transformed detail pages", "date", date, "batch", out, "contracts", len(records))
		days++
	}

	fmt.Printf("✅ HTML transform done: %d day(s)\n", days)
}

// dayFromPath recovers the day from the YYYY/MM/DD/<cid>.html layout the
// fetcher writes.
func dayFromPath(path string) (string, bool) {
	parts := strings.Split(filepath.ToSlash(filepath.Dir(path)), "/")
	if len(parts) < 3 {
		return "", false
	}

	date := strings.Join(parts[len(parts)-3:], "-")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", false
	}

	return date, true
}
