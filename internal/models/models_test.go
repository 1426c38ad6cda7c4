package models

import "testing"

func TestNormalizeTaxID(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"B-12345678", "B12345678"},
		{" b-12.345.678 ", "B12345678"},
		{"A 28 123456", "A28123456"},
		{"", ""},
		{" - ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeTaxID(tt.input); got != tt.want {
			t.Errorf("NormalizeTaxID(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestContractRecord_AppendAwardee(t *testing.T) {
	var record ContractRecord

	record.AppendAwardee(Awardee{Name: "ACME", VATIncluded: 100.50})
	record.AppendAwardee(Awardee{Name: "OTRA", VATIncluded: 49.50})

	if len(record.Awardees) != 2 {
		t.Fatalf("expected 2 awardees, got %d", len(record.Awardees))
	}

	if record.AwardAmountInclVAT != 150 {
		t.Errorf("award amount = %v, want 150", record.AwardAmountInclVAT)
	}

	if err := record.Validate(); err != nil && err != ErrMissingReference {
		// Reference is unset here; only the reference check may fire.
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestContractRecord_Validate(t *testing.T) {
	record := ContractRecord{
		Reference:         "R1",
		FormalizationDate: "2019-01-03",
	}
	record.AppendAwardee(Awardee{Name: "ACME", VATIncluded: 100})

	if err := record.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}

	record.AwardAmountInclVAT = 999

	if err := record.Validate(); err == nil {
		t.Error("expected award amount mismatch to fail validation")
	}
}

func TestCompanyRecord_AddAlias(t *testing.T) {
	company := CompanyRecord{Name: "ACME S.L.", TaxID: "B12345678", Aliases: []string{"ACME S.L."}}

	if added := company.AddAlias("ACME SL"); !added {
		t.Error("expected new alias to be added")
	}

	if added := company.AddAlias("ACME S.L."); added {
		t.Error("expected duplicate alias to be rejected")
	}

	// Near-duplicates are deliberately kept distinct.
	if added := company.AddAlias("acme s.l."); !added {
		t.Error("expected case variant to be stored as its own alias")
	}

	if len(company.Aliases) != 3 {
		t.Errorf("expected 3 aliases, got %d: %v", len(company.Aliases), company.Aliases)
	}
}
