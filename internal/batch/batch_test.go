package batch

import (
	"path/filepath"
	"testing"
	"time"

	"contratosmadrid/internal/models"
)

func day(t *testing.T, date string) time.Time {
	t.Helper()

	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}

	return d
}

func TestWriteRead(t *testing.T) {
	dir := t.TempDir()

	records := []models.ContractRecord{
		{Title: "Obra", Reference: "R1", FileNumber: "EXP-1", FormalizationDate: "2019-01-03"},
	}
	records[0].AppendAwardee(models.Awardee{Name: "ACME", TaxID: "B12345678", VATIncluded: 121})

	path, err := Write(dir, "2019-01-03", records)
	if err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if want := filepath.Join(dir, "2019", "01", "2019-01-03.json"); path != want {
		t.Errorf("batch path = %q, want %q", path, want)
	}

	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}

	if len(got) != 1 || got[0].Reference != "R1" || len(got[0].Awardees) != 1 {
		t.Errorf("round trip lost data: %+v", got)
	}

	if got[0].AwardAmountInclVAT != 121 {
		t.Errorf("award amount = %v, want 121", got[0].AwardAmountInclVAT)
	}
}

func TestWrite_BadDate(t *testing.T) {
	if _, err := Write(t.TempDir(), "03/01/2019", nil); err == nil {
		t.Fatal("expected invalid date to be rejected")
	}
}

func TestWalk(t *testing.T) {
	dir := t.TempDir()

	for _, date := range []string{"2019-01-03", "2019-01-05", "2019-02-01"} {
		if _, err := Write(dir, date, nil); err != nil {
			t.Fatalf("Write(%s) returned error: %v", date, err)
		}
	}

	files, err := Walk(dir, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("expected 3 batches, got %d", len(files))
	}

	for i, want := range []string{"2019-01-03", "2019-01-05", "2019-02-01"} {
		if files[i].Date != want {
			t.Errorf("files[%d].Date = %q, want %q", i, files[i].Date, want)
		}
	}

	bounded, err := Walk(dir, day(t, "2019-01-04"), day(t, "2019-01-31"))
	if err != nil {
		t.Fatalf("Walk returned error: %v", err)
	}

	if len(bounded) != 1 || bounded[0].Date != "2019-01-05" {
		t.Errorf("bounded walk = %+v, want only 2019-01-05", bounded)
	}
}
