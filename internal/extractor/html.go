package extractor

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"contratosmadrid/internal/locale"
	"contratosmadrid/internal/logger"
	"contratosmadrid/internal/models"
	"contratosmadrid/pkg/utils"
)

// awardResultsHeader discriminates the awardee-results table from any other
// table on the detail page.
const awardResultsHeader = "RESULTADOS DE LA LICITACIÓN"

// Outcomes whose rows contribute no awardee.
const (
	outcomeVoid      = "Desierto"
	outcomeWithdrawn = "Desistimiento"
)

const detailURLFormat = "http://www.madrid.org/cs/Satellite?c=CM_ConvocaPrestac_FA&cid=%s&definicion=Contratos+Publicos&language=es&op2=PCON&pagename=PortalContratacion%%2FPage%%2FPCON_contratosPublicos&tipoServicio=CM_ConvocaPrestac_FA"

type ruleKind int

const (
	ruleDirect ruleKind = iota
	ruleAmount
	ruleDate
	ruleBool
	ruleEntityPath
	ruleIgnore
)

// labelRule tags how a labeled detail-page field is handled. Adding support
// for a new label is a table edit, not new control flow.
type labelRule struct {
	kind      ruleKind
	setText   func(*models.ContractRecord, string)
	setAmount func(*models.ContractRecord, *float64)
	setBool   func(*models.ContractRecord, bool)
}

// labelRules is the closed mapping from bold label text to handling rule.
// Labels observed in the sources but irrelevant to the record are mapped to
// ruleIgnore so they do not show up as skipped-label noise.
var labelRules = map[string]labelRule{
	"Estado de la licitación":    {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.Status = v }},
	"Tipo resolución":            {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.ResolutionType = v }},
	"Objeto del contrato":        {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.Subject = v }},
	"Código CPV":                 {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.CPVCode = v }},
	"Tipo Publicación":           {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.PublicationType = v }},
	"Número de expediente":       {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.FileNumber = v }},
	"Referencia":                 {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.Reference = v }},
	"Tipo de contrato":           {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.ContractType = v }},
	"Código NUTS":                {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.NUTSCode = v }},
	"Procedimiento Adjudicación": {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.ProcedureType = v }},
	"Duración del contrato":      {kind: ruleDirect, setText: func(c *models.ContractRecord, v string) { c.Duration = v }},

	"Valor estimado sin I.V.A":                    {kind: ruleAmount, setAmount: func(c *models.ContractRecord, v *float64) { c.EstimatedValueExclVAT = v }},
	"Presupuesto base licitación (sin impuestos)": {kind: ruleAmount, setAmount: func(c *models.ContractRecord, v *float64) { c.EstimatedBudgetExclVAT = v }},
	"Presupuesto base licitación. Importe total":  {kind: ruleAmount, setAmount: func(c *models.ContractRecord, v *float64) { c.EstimatedBudgetInclVAT = v }},

	"Formalización del contrato publicada el":         {kind: ruleDate, setText: func(c *models.ContractRecord, v string) { c.FormalizationDate = v }},
	"Contrato desierto el":                            {kind: ruleDate, setText: func(c *models.ContractRecord, v string) { c.FormalizationDate = v }},
	"Adjudicación del contrato publicada el":          {kind: ruleDate, setText: func(c *models.ContractRecord, v string) { c.AwardDate = v }},
	"Fecha publicación de la licitación en el BOCM":   {kind: ruleDate, setText: func(c *models.ContractRecord, v string) { c.PublicationDate = v }},
	"Formalización del contrato publicada en BOCM el": {kind: ruleDate, setText: func(c *models.ContractRecord, v string) { c.PublicationDate = v }},

	"Compra pública innovadora": {kind: ruleBool, setBool: func(c *models.ContractRecord, v bool) { c.InnovativeProcurement = &v }},

	"Entidad adjudicadora": {kind: ruleEntityPath},

	"Fecha límite de presentación de ofertas o solicitudes de participación": {kind: ruleIgnore},
	"Defectos u omisiones de la documentación publicados el":                 {kind: ruleIgnore},
	"Ofertas anormales o desproporcionadas publicadas el":                    {kind: ruleIgnore},
	"Puntos de Información":                                                  {kind: ruleIgnore},
	"Otros Anuncios":                                                         {kind: ruleIgnore},
	"Modalidad":                                                              {kind: ruleIgnore},
}

// HTMLExtractor turns one contract detail page into a canonical record.
type HTMLExtractor struct {
	logger *logger.Logger
}

// NewHTMLExtractor creates an HTML extractor.
func NewHTMLExtractor(log *logger.Logger) *HTMLExtractor {
	return &HTMLExtractor{logger: log}
}

// ExtractFile extracts the contract from the detail page at path.
func (e *HTMLExtractor) ExtractFile(path, cid string) (*models.ContractRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open detail page: %w", err)
	}
	defer f.Close()

	return e.Extract(f, cid)
}

// Extract parses the label/value list and the award-results table of one
// detail page. Unknown labels are skipped with a diagnostic; a malformed
// results table or unrecognized content fails the whole document.
func (e *HTMLExtractor) Extract(r io.Reader, cid string) (*models.ContractRecord, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse detail page (cid %s): %w", cid, err)
	}

	title := doc.Find("h2.tit11gr3").First()
	if title.Length() == 0 {
		return nil, &UnexpectedContentError{CID: cid, Reason: "missing title heading"}
	}

	record := &models.ContractRecord{
		Title:     utils.CleanCell(title.Text()),
		SourceURL: fmt.Sprintf(detailURLFormat, cid),
	}

	var extractErr error

	doc.Find("div.listado li.txt08gr3").EachWithBreak(func(_ int, item *goquery.Selection) bool {
		item.Find("br").Remove()

		if strong := item.Find("strong").First(); strong.Length() > 0 {
			label := utils.CleanCell(strong.Text())
			strong.Remove()

			if err := e.applyLabel(record, label, utils.CleanCell(item.Text()), cid); err != nil {
				extractErr = err

				return false
			}

			return true
		}

		if table := item.Find("table.tableAdjudicacion").First(); table.Length() > 0 {
			if err := e.parseResultsTable(record, table, cid); err != nil {
				extractErr = err

				return false
			}

			return true
		}

		extractErr = &UnexpectedContentError{
			CID:    cid,
			Reason: fmt.Sprintf("list item is neither labeled field nor results table: %q", utils.CleanCell(item.Text())),
		}

		return false
	})

	if extractErr != nil {
		return nil, extractErr
	}

	return record, nil
}

func (e *HTMLExtractor) applyLabel(record *models.ContractRecord, label, value, cid string) error {
	rule, ok := labelRules[label]
	if !ok {
		// The schema tolerates unseen legacy fields; note them and move on.
		e.logger.Debug("label skipped", "label", label, "value", value, "cid", cid)

		return nil
	}

	switch rule.kind {
	case ruleDirect:
		rule.setText(record, value)
	case ruleAmount:
		amount, err := locale.ParseAmount(value)
		if err != nil {
			e.logger.Warn("unparseable amount, using 0", "label", label, "text", value, "cid", cid)
		}

		rule.setAmount(record, amount)
	case ruleDate:
		iso, err := locale.ParseAnnouncementDate(value)
		if err != nil {
			return fmt.Errorf("label %q (cid %s): %w", label, cid, err)
		}

		rule.setText(record, iso)
	case ruleBool:
		rule.setBool(record, value != "No")
	case ruleEntityPath:
		record.AwardingBody, record.SubBody = splitEntityPath(value)
	case ruleIgnore:
	}

	return nil
}

// parseResultsTable maps the award-results rows positionally to awardees.
// Rows declared void or withdrawn contribute nothing; the contract's award
// amount is the sum over retained rows, the page never states it directly.
func (e *HTMLExtractor) parseResultsTable(record *models.ContractRecord, table *goquery.Selection, cid string) error {
	header := utils.CleanCell(table.Find("thead th span").First().Text())
	if header != awardResultsHeader {
		return &MalformedTableError{CID: cid, Reason: fmt.Sprintf("unrecognized table header %q", header)}
	}

	var tableErr error

	table.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		if row.Find("th").Length() > 0 {
			return true
		}

		cells := row.Find("td")
		if cells.Length() != 7 {
			tableErr = &MalformedTableError{CID: cid, Reason: fmt.Sprintf("expected 7 cells per result row, got %d", cells.Length())}

			return false
		}

		outcome := utils.CleanCell(cells.Eq(2).Text())
		if outcome == outcomeVoid || outcome == outcomeWithdrawn {
			return true
		}

		bidCount, err := strconv.Atoi(utils.CleanCell(cells.Eq(1).Text()))
		if err != nil {
			tableErr = &MalformedTableError{CID: cid, Reason: fmt.Sprintf("bid count %q is not numeric", utils.CleanCell(cells.Eq(1).Text()))}

			return false
		}

		excluded, err := locale.ParseAmount(cells.Eq(5).Text())
		if err != nil || excluded == nil {
			tableErr = &MalformedTableError{CID: cid, Reason: fmt.Sprintf("unparseable vat-excluded amount %q", utils.CleanCell(cells.Eq(5).Text()))}

			return false
		}

		included, err := locale.ParseAmount(cells.Eq(6).Text())
		if err != nil || included == nil {
			tableErr = &MalformedTableError{CID: cid, Reason: fmt.Sprintf("unparseable vat-included amount %q", utils.CleanCell(cells.Eq(6).Text()))}

			return false
		}

		record.AppendAwardee(models.Awardee{
			Lot:         utils.CleanCell(cells.Eq(0).Text()),
			BidCount:    bidCount,
			Outcome:     outcome,
			TaxID:       models.NormalizeTaxID(cells.Eq(3).Text()),
			Name:        utils.CleanCell(cells.Eq(4).Text()),
			VATExcluded: *excluded,
			VATIncluded: *included,
		})

		return true
	})

	return tableErr
}
