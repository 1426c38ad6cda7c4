package loader

import (
	"context"
	"encoding/json"
	"fmt"

	"contratosmadrid/internal/logger"
	"contratosmadrid/internal/models"
	"contratosmadrid/internal/store"
)

// CompanyWriter dedups awardees into company documents keyed by tax id.
type CompanyWriter struct {
	store  store.DocumentStore
	logger *logger.Logger
}

// NewCompanyWriter creates a company writer on top of the given store.
func NewCompanyWriter(st store.DocumentStore, log *logger.Logger) *CompanyWriter {
	return &CompanyWriter{store: st, logger: log}
}

// WriteBatch upserts one company document per awardee in the batch. A company
// seen for the first time is created with its name as the only alias; a known
// company accumulates the observed name variant. The merge runs atomically in
// the store, so re-running a batch (or loading two days that share a company)
// never loses aliases. Returns the number of upserts performed.
func (w *CompanyWriter) WriteBatch(ctx context.Context, records []models.ContractRecord) (int, error) {
	upserts := 0

	for _, record := range records {
		for _, awardee := range record.Awardees {
			taxID := models.NormalizeTaxID(awardee.TaxID)
			if taxID == "" {
				w.logger.Warn("awardee has no usable tax id, skipping company upsert",
					"reference", record.Reference, "name", awardee.Name)

				continue
			}

			name := awardee.Name
			initial := models.CompanyRecord{
				Name:    name,
				TaxID:   taxID,
				Aliases: []string{name},
			}

			err := w.store.MergeUpsert(ctx, store.CompaniesCollection, CompanyID(taxID), initial,
				func(existing json.RawMessage) (any, error) {
					var company models.CompanyRecord
					if err := json.Unmarshal(existing, &company); err != nil {
						return nil, fmt.Errorf("decode stored company: %w", err)
					}

					company.AddAlias(name)

					return company, nil
				})
			if err != nil {
				return upserts, fmt.Errorf("upsert company %s: %w", taxID, err)
			}

			upserts++
		}
	}

	return upserts, nil
}
