// Package models defines the canonical record types shared by the transform and load stages.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// Record validation errors.
var (
	ErrMissingReference         = errors.New("contract record missing reference")
	ErrMissingFormalizationDate = errors.New("contract record missing formalization date")
	ErrAwardAmountMismatch      = errors.New("award amount does not match sum of awardee amounts")
)

// taxIDReplacer strips the separators that appear in raw NIF values.
var taxIDReplacer = strings.NewReplacer("-", "", ".", "", " ", "")

// NormalizeTaxID canonicalizes a raw tax identifier: separators stripped,
// trimmed and uppercased. An empty result means the source had no usable NIF.
func NormalizeTaxID(raw string) string {
	return strings.ToUpper(taxIDReplacer.Replace(strings.TrimSpace(raw)))
}

// Awardee is one company's share of a contract award. CompanyID is populated
// only after the load stage resolves the tax id against the company
// collection; an empty CompanyID is a valid, unresolved link.
type Awardee struct {
	Name        string  `json:"name"`
	TaxID       string  `json:"tax-id"`
	VATExcluded float64 `json:"vat_excluded"`
	VATIncluded float64 `json:"vat_included"`
	CompanyID   string  `json:"id,omitempty"`
	Lot         string  `json:"lot,omitempty"`
	BidCount    int     `json:"bid-count,omitempty"`
	Outcome     string  `json:"outcome,omitempty"`
}

// ContractRecord is one awarded procurement contract in canonical form.
// Optional monetary fields are pointers: nil means the source never stated the
// value, which is different from a stated zero.
type ContractRecord struct {
	Title                  string    `json:"title"`
	Subject                string    `json:"subject,omitempty"`
	Reference              string    `json:"reference"`
	FileNumber             string    `json:"file-number"`
	ProcedureType          string    `json:"procedure-type"`
	PublicationType        string    `json:"publication-type"`
	ContractType           string    `json:"contract-type"`
	AwardingBody           string    `json:"awarding-body"`
	SubBody                string    `json:"sub-body,omitempty"`
	Status                 string    `json:"status,omitempty"`
	ResolutionType         string    `json:"resolution-type,omitempty"`
	CPVCode                string    `json:"cpv-code,omitempty"`
	NUTSCode               string    `json:"nuts-code,omitempty"`
	Duration               string    `json:"duration,omitempty"`
	InnovativeProcurement  *bool     `json:"innovative-procurement,omitempty"`
	EstimatedValueExclVAT  *float64  `json:"estimated-value-excl-vat,omitempty"`
	EstimatedBudgetExclVAT *float64  `json:"estimated-budget-excl-vat"`
	EstimatedBudgetInclVAT *float64  `json:"estimated-budget-incl-vat"`
	AwardAmountInclVAT     float64   `json:"award-amount-incl-vat"`
	FormalizationDate      string    `json:"formalization-date"`
	AwardDate              string    `json:"award-date,omitempty"`
	PublicationDate        string    `json:"publication-date,omitempty"`
	Awardees               []Awardee `json:"awardees"`
	SourceURL              string    `json:"source-url"`
}

// AppendAwardee adds one awardee and keeps the running award amount in sync
// with the awardee list, so the aggregation invariant holds after every merge.
func (c *ContractRecord) AppendAwardee(a Awardee) {
	c.Awardees = append(c.Awardees, a)
	c.AwardAmountInclVAT += a.VATIncluded
}

// Validate checks the record at the transform/load boundary.
func (c *ContractRecord) Validate() error {
	if c.Reference == "" {
		return ErrMissingReference
	}

	if c.FormalizationDate == "" {
		return fmt.Errorf("%w: reference %s", ErrMissingFormalizationDate, c.Reference)
	}

	var sum float64
	for _, a := range c.Awardees {
		sum += a.VATIncluded
	}

	// Allow for float accumulation noise, not for real drift.
	if diff := c.AwardAmountInclVAT - sum; diff > 0.01 || diff < -0.01 {
		return fmt.Errorf("%w: reference %s: %.2f != %.2f", ErrAwardAmountMismatch, c.Reference, c.AwardAmountInclVAT, sum)
	}

	return nil
}
