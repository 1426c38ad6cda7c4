package loader

import (
	"context"
	"errors"
	"fmt"

	"contratosmadrid/internal/logger"
	"contratosmadrid/internal/models"
	"contratosmadrid/internal/store"
)

// ContractWriter resolves awardee links and upserts contract documents.
type ContractWriter struct {
	store  store.DocumentStore
	logger *logger.Logger
}

// NewContractWriter creates a contract writer on top of the given store.
func NewContractWriter(st store.DocumentStore, log *logger.Logger) *ContractWriter {
	return &ContractWriter{store: st, logger: log}
}

// WriteBatch writes every record of the batch. Each awardee is probed against
// the company collection: a hit sets the link id, a miss leaves it unset and
// the contract is written anyway, since partial linkage is a valid queryable
// state. The contract document replaces any prior content at its id whole.
// Returns the number of contracts written and of unresolved links.
func (w *ContractWriter) WriteBatch(ctx context.Context, records []models.ContractRecord) (written, unresolved int, err error) {
	for i := range records {
		record := &records[i]

		if err := record.Validate(); err != nil {
			w.logger.Warn("invalid contract record, skipping", "error", err)

			continue
		}

		for j := range record.Awardees {
			awardee := &record.Awardees[j]

			taxID := models.NormalizeTaxID(awardee.TaxID)
			if taxID == "" {
				w.logger.Warn("awardee has no usable tax id, leaving link unset",
					"reference", record.Reference, "name", awardee.Name)

				unresolved++

				continue
			}

			id := CompanyID(taxID)

			_, getErr := w.store.Get(ctx, store.CompaniesCollection, id)
			if errors.Is(getErr, store.ErrNotFound) {
				w.logger.Warn("company not found, leaving link unset",
					"reference", record.Reference, "tax-id", taxID)

				unresolved++

				continue
			}

			if getErr != nil {
				return written, unresolved, fmt.Errorf("resolve company %s: %w", taxID, getErr)
			}

			awardee.CompanyID = id
		}

		id := ContractID(record.Reference, record.FileNumber)
		if err := w.store.Upsert(ctx, store.ContractsCollection, id, record); err != nil {
			return written, unresolved, fmt.Errorf("upsert contract %s: %w", record.Reference, err)
		}

		written++
	}

	return written, unresolved, nil
}
