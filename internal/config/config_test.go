package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config fixture: %v", err)
	}

	return path
}

const validConfig = `
pipeline:
  raw_csv_dir: "raw/csv"
  raw_html_dir: "raw/html"
  batch_dir: "batches"
  start_date: "2008-06-01"
  end_date: "2019-12-31"
  store:
    path: "contracts.db"
logging:
  level: "debug"
  format: "json"
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Pipeline.BatchDir != "batches" || cfg.Pipeline.Store.Path != "contracts.db" {
		t.Errorf("unexpected pipeline config: %+v", cfg.Pipeline)
	}

	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}

	from, to := cfg.DateRange()
	if from.Format("2006-01-02") != "2008-06-01" || to.Format("2006-01-02") != "2019-12-31" {
		t.Errorf("unexpected date range: %v .. %v", from, to)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
pipeline:
  raw_csv_dir: "raw/csv"
  batch_dir: "batches"
  store:
    path: "contracts.db"
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("defaults not applied: %+v", cfg.Logging)
	}

	from, to := cfg.DateRange()
	if !from.IsZero() || !to.IsZero() {
		t.Errorf("unset dates should leave the range open: %v .. %v", from, to)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected missing file to fail")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			"missing batch dir",
			`
pipeline:
  raw_csv_dir: "raw/csv"
  store:
    path: "contracts.db"
`,
			ErrMissingBatchDir,
		},
		{
			"missing raw dirs",
			`
pipeline:
  batch_dir: "batches"
  store:
    path: "contracts.db"
`,
			ErrMissingRawDir,
		},
		{
			"missing store path",
			`
pipeline:
  raw_csv_dir: "raw/csv"
  batch_dir: "batches"
`,
			ErrMissingStorePath,
		},
		{
			"bad start date",
			`
pipeline:
  raw_csv_dir: "raw/csv"
  batch_dir: "batches"
  start_date: "01/06/2008"
  store:
    path: "contracts.db"
`,
			ErrInvalidStartDate,
		},
		{
			"inverted range",
			`
pipeline:
  raw_csv_dir: "raw/csv"
  batch_dir: "batches"
  start_date: "2019-01-01"
  end_date: "2018-01-01"
  store:
    path: "contracts.db"
`,
			ErrDateRangeInverted,
		},
		{
			"bad log level",
			`
pipeline:
  raw_csv_dir: "raw/csv"
  batch_dir: "batches"
  store:
    path: "contracts.db"
logging:
  level: "verbose"
`,
			ErrInvalidLogLevel,
		},
		{
			"bad log format",
			`
pipeline:
  raw_csv_dir: "raw/csv"
  batch_dir: "batches"
  store:
    path: "contracts.db"
logging:
  format: "xml"
`,
			ErrInvalidLogFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Load error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
