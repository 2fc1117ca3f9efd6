/*
Package invoice renders "fakturagrunnlag" PDFs: an invoice basis document for a charging
installation covering one billing period. The document contains an invoice style line item
table with totals and a detailed per-session usage table.
*/
package invoice

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

// Session is a single charging session appearing on the detailed usage table.
type Session struct {
	// Start and End are timestamps as returned by the charging API. They are reformatted
	// for display when parseable and rendered verbatim otherwise.
	Start      string
	End        string
	DeviceName string
	Energy     float64
}

// Invoice describes one invoice basis document.
type Invoice struct {
	InstallationID   string
	InstallationName string
	Year             int
	Month            time.Month
	PricePerKWh      float64
	Sessions         []Session
}

// TotalKWh is the summed energy of all sessions.
func (i Invoice) TotalKWh() float64 {
	var total float64
	for _, s := range i.Sessions {
		total += s.Energy
	}
	return total
}

// TotalCost is the energy total priced at PricePerKWh.
func (i Invoice) TotalCost() float64 {
	return i.TotalKWh() * i.PricePerKWh
}

func (i Invoice) displayName() string {
	if i.InstallationName != "" {
		return i.InstallationName
	}
	return i.InstallationID
}

func (i Invoice) period() string {
	return fmt.Sprintf("%d-%02d", i.Year, int(i.Month))
}

const margin = 30

// Generate renders inv as a PDF document.
func Generate(inv Invoice) ([]byte, error) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin)
	doc.AddPage()

	// The core PDF fonts are cp1252; æøå need translating.
	tr := doc.UnicodeTranslatorFromDescriptor("")

	pageWidth, _ := doc.GetPageSize()
	contentWidth := pageWidth - 2*margin

	doc.SetFont("Helvetica", "B", 18)
	doc.CellFormat(contentWidth, 22, tr(fmt.Sprintf("Fakturagrunnlag (%s)", inv.displayName())), "", 1, "L", false, 0, "")
	doc.Ln(10)

	doc.SetFont("Helvetica", "", 10)
	period := fmt.Sprintf(
		"For periode %s er den gjennomsnittlige strømprisen inkludert påslag satt til %.2f NOK per kWh.",
		inv.period(), inv.PricePerKWh,
	)
	doc.MultiCell(contentWidth, 14, tr(period), "", "L", false)
	doc.Ln(20)

	lineItemTable(doc, tr, contentWidth, inv)
	doc.Ln(20)

	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(contentWidth, 16, tr("Detaljert strømforbruk for perioden"), "", 1, "L", false, 0, "")
	doc.Ln(6)

	usageTable(doc, tr, contentWidth, inv)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// lineItemTable renders the invoice style table: one usage line followed by net, VAT and
// amount-due total rows.
func lineItemTable(doc *fpdf.Fpdf, tr func(string) string, contentWidth float64, inv Invoice) {
	widths := []float64{
		contentWidth * 4 / 12,
		contentWidth * 1 / 12,
		contentWidth * 2 / 12,
		contentWidth * 1 / 12,
		contentWidth * 1 / 12,
		contentWidth * 3 / 12,
	}

	const rowHeight = 16

	row := func(cells []string, border string) {
		for col, cell := range cells {
			align := "R"
			if col == 0 {
				align = "L"
			}
			doc.CellFormat(widths[col], rowHeight, tr(cell), border, 0, align, false, 0, "")
		}
		doc.Ln(rowHeight)
	}

	doc.SetFont("Helvetica", "B", 10)
	row([]string{"Beskrivelse", "Antall", "Pris", "Rabatt", "MVA", "Beløp"}, "")

	doc.SetFont("Helvetica", "", 10)
	row([]string{
		fmt.Sprintf("Strømforbruk %s", inv.period()),
		fmt.Sprintf("%.3f", inv.TotalKWh()),
		fmt.Sprintf("%.2f", inv.PricePerKWh),
		"0 %",
		"0 %",
		FormatAccounting(inv.TotalCost()) + " kr",
	}, "")

	row([]string{"", "", "", "", "Nettobeløp", FormatAccounting(inv.TotalCost()) + " kr"}, "T")
	row([]string{"", "", "", "", "Merverdiavgift", FormatAccounting(0) + " kr"}, "")

	// Amount due: bold, ruled above and heavily ruled below the label and amount cells.
	doc.SetFont("Helvetica", "B", 12)
	doc.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], rowHeight, "", "", 0, "R", false, 0, "")
	doc.CellFormat(widths[4], rowHeight, tr("Beløp å betale"), "T", 0, "R", false, 0, "")
	doc.CellFormat(widths[5], rowHeight, tr(FormatAccounting(inv.TotalCost())+" kr"), "T", 1, "R", false, 0, "")

	ruleStart := margin + widths[0] + widths[1] + widths[2] + widths[3]
	doc.SetLineWidth(1.5)
	doc.Line(ruleStart, doc.GetY(), margin+contentWidth, doc.GetY())
	doc.SetLineWidth(0.2)
}

// usageTable renders the per-session detail table, or a notice when the period had no
// sessions.
func usageTable(doc *fpdf.Fpdf, tr func(string) string, contentWidth float64, inv Invoice) {
	if len(inv.Sessions) == 0 {
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(contentWidth, 14, tr("Ingen ladesesjoner funnet for denne perioden."), "", "L", false)
		return
	}

	width := contentWidth / 4
	const rowHeight = 16

	row := func(cells []string, border string) {
		for col, cell := range cells {
			align := "L"
			if col == len(cells)-1 {
				align = "R"
			}
			doc.CellFormat(width, rowHeight, tr(cell), border, 0, align, false, 0, "")
		}
		doc.Ln(rowHeight)
	}

	doc.SetFont("Helvetica", "B", 10)
	row([]string{"Starttidspunkt", "Sluttidspunkt", "Ladeenhet", "Strømforbruk (kWh)"}, "")

	doc.SetFont("Helvetica", "", 10)
	for _, s := range inv.Sessions {
		device := s.DeviceName
		if device == "" {
			device = "N/A"
		}

		row([]string{
			displayTime(s.Start),
			displayTime(s.End),
			device,
			strconv.FormatFloat(s.Energy, 'f', -1, 64),
		}, "")
	}

	doc.SetFont("Helvetica", "B", 10)
	row([]string{"Sum kWh", "", "", fmt.Sprintf("%.3f", inv.TotalKWh())}, "TB")
}

// displayTime reformats an API timestamp as "2006-01-02 15:04". Timestamps that don't parse
// render verbatim; empty timestamps render as "N/A".
func displayTime(v string) string {
	if v == "" {
		return "N/A"
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02 15:04")
		}
	}

	return v
}
