package extractor

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"contratosmadrid/internal/locale"
	"contratosmadrid/internal/logger"
	"contratosmadrid/internal/models"
	"contratosmadrid/pkg/utils"
)

// Legacy Spanish header names of the daily CSV export.
const (
	headerReference    = "REFERENCIA"
	headerFileNumber   = "Nº EXPEDIENTE"
	headerAwardee      = "ADJUDICATARIO"
	headerTaxID        = "NIF ADJUDICATARIO"
	headerAwardAmount  = "IMPORTE DE ADJUDICACIÓN(CON IVA)"
	headerBudget       = "PRESUPUESTO DE LICITACIÓN(CON IVA)"
	headerEntity       = "ENTIDAD ADJUDICADORA"
	headerTitle        = "OBJETO DEL CONTRATO"
	headerPublication  = "TIPO DE PUBLICACIÓN"
	headerContractType = "TIPO CONTRATO"
	headerProcedure    = "PROCEDIMINETO DE ADJUDICACIÓN" // sic, the typo is in the source
)

// requiredCSVHeaders must all be present or the file is rejected whole.
var requiredCSVHeaders = []string{
	headerReference,
	headerFileNumber,
	headerAwardee,
	headerTaxID,
	headerAwardAmount,
	headerBudget,
	headerEntity,
	headerTitle,
	headerPublication,
	headerContractType,
	headerProcedure,
}

// generalVATRate is the Spanish general VAT rate used to derive the
// VAT-excluded share from the published VAT-included amount.
const generalVATRate = 1.21

const searchURLFormat = "http://www.madrid.org/cs/Satellite?pagename=PortalContratacion/Comunes/Presentacion/PCON_resultadoBuscadorAvanzado&referencia=%s&numeroExpediente=%s"

// CSVExtractor turns one day's CSV export into canonical contract records.
type CSVExtractor struct {
	logger *logger.Logger
}

// NewCSVExtractor creates a CSV extractor.
func NewCSVExtractor(log *logger.Logger) *CSVExtractor {
	return &CSVExtractor{logger: log}
}

// ExtractFile extracts the contracts of the export at path. The date token is
// the file's day in ISO form and becomes the formalization date of every
// record in the batch.
func (e *CSVExtractor) ExtractFile(path, date string) ([]models.ContractRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv export: %w", err)
	}
	defer f.Close()

	records, err := e.Extract(f, date)

	var formatErr *SourceFormatError
	if errors.As(err, &formatErr) && formatErr.File == "" {
		formatErr.File = path
	}

	return records, err
}

// Extract streams the export row by row, aggregating rows that share a
// reference into one record with multiple awardees. Records come back in
// first-seen order.
func (e *CSVExtractor) Extract(r io.Reader, date string) ([]models.ContractRecord, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read csv export: %w", err)
	}

	// The upstream servlet historically served ISO-8859-1; newer exports are
	// UTF-8. Fall back to Latin-1 when the bytes do not decode as UTF-8.
	if !utf8.Valid(raw) {
		decoded, decErr := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if decErr != nil {
			return nil, &SourceFormatError{MissingHeaders: nil}
		}

		raw = decoded
	}

	content := strings.ReplaceAll(string(raw), "&#160;", "")

	reader := csv.NewReader(strings.NewReader(content))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, &SourceFormatError{MissingHeaders: requiredCSVHeaders}
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[utils.NormalizeWhitespace(h)] = i
	}

	var missing []string

	for _, h := range requiredCSVHeaders {
		if _, ok := col[h]; !ok {
			missing = append(missing, h)
		}
	}

	if len(missing) > 0 {
		return nil, &SourceFormatError{MissingHeaders: missing}
	}

	byReference := make(map[string]*models.ContractRecord)

	var order []string

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			e.logger.Warn("skipping unreadable csv row", "date", date, "error", err)

			continue
		}

		if len(row) < len(header) {
			e.logger.Warn("skipping ragged csv row", "date", date, "cells", len(row))

			continue
		}

		field := func(name string) string {
			return strings.TrimSpace(row[col[name]])
		}

		award := e.amount(field(headerAwardAmount), date)
		budget := e.optionalAmount(field(headerBudget), date)

		awardee := models.Awardee{
			Name:        field(headerAwardee),
			TaxID:       models.NormalizeTaxID(field(headerTaxID)),
			VATIncluded: award,
			VATExcluded: award / generalVATRate,
		}

		reference := field(headerReference)
		if existing, ok := byReference[reference]; ok {
			existing.AppendAwardee(awardee)

			continue
		}

		body, subBody := splitEntityPath(field(headerEntity))

		record := &models.ContractRecord{
			Title:                  field(headerTitle),
			Reference:              reference,
			FileNumber:             field(headerFileNumber),
			ProcedureType:          field(headerProcedure),
			PublicationType:        field(headerPublication),
			ContractType:           field(headerContractType),
			AwardingBody:           body,
			SubBody:                subBody,
			EstimatedBudgetInclVAT: budget,
			FormalizationDate:      date,
			SourceURL:              fmt.Sprintf(searchURLFormat, reference, field(headerFileNumber)),
		}
		record.AppendAwardee(awardee)

		byReference[reference] = record
		order = append(order, reference)
	}

	records := make([]models.ContractRecord, 0, len(order))
	for _, reference := range order {
		records = append(records, *byReference[reference])
	}

	return records, nil
}

// amount parses an award amount, falling back to 0 for unparseable or absent
// text. The exports contain stray artifacts in numeric columns; losing one
// amount is documented lossy behavior, losing the row is not.
func (e *CSVExtractor) amount(text, date string) float64 {
	value := e.optionalAmount(text, date)
	if value == nil {
		return 0
	}

	return *value
}

// optionalAmount parses a budget amount where absence is legitimate.
func (e *CSVExtractor) optionalAmount(text, date string) *float64 {
	value, err := locale.ParseAmount(text)
	if err != nil {
		e.logger.Warn("unparseable amount, using 0", "date", date, "text", text)
	}

	return value
}
