package pdf

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/signature"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/diewo77/go-factures/internal/models"
)

// ContentType of rendered documents.
const ContentType = "application/pdf"

// column widths of the item table, on maroto's 12-column grid.
var itemWidths = [7]int{1, 4, 1, 2, 1, 2, 1}

var (
	small  = props.Text{Size: 8}
	normal = props.Text{Size: 10}
	bold   = props.Text{Size: 10, Style: fontstyle.Bold}
	shaded = &props.Cell{BackgroundColor: &props.Color{Red: 230, Green: 230, Blue: 230}}
)

// Generate renders the invoice document for inv.
func Generate(inv models.Invoice, company models.CompanyInfo) ([]byte, error) {
	return Render(Build(inv, company))
}

// Render produces an A4 PDF from a layout.
func Render(l Layout) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		Build()

	m := maroto.New(cfg)

	if err := m.RegisterFooter(signatureRow(l.Signatures)); err != nil {
		return nil, fmt.Errorf("pdf footer: %w", err)
	}

	m.AddRows(headerRows(l)...)
	m.AddRows(fieldRows(l.Client, 5)...)
	if len(l.Logistics) > 0 {
		m.AddRows(row.New(3))
		m.AddRows(fieldRows(l.Logistics, 5)...)
	}
	m.AddRows(row.New(8))
	m.AddRows(itemRows(l.Items)...)
	m.AddRows(row.New(8))
	m.AddRows(totalRows(l.Totals)...)
	m.AddRows(row.New(8))
	m.AddRows(text.NewRow(10, l.Words, props.Text{Size: 10, Style: fontstyle.Italic}))
	m.AddRows(row.New(5))
	for _, line := range l.Legal {
		m.AddRows(text.NewRow(4, line, small))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf generate: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRows places the company block on the left and the invoice identity
// block on the right.
func headerRows(l Layout) []core.Row {
	left := make([]string, 0, len(l.Header))
	for _, f := range l.Header {
		left = append(left, f.String())
	}
	right := []string{l.Date, l.Page}

	rows := []core.Row{
		row.New(8).Add(
			text.NewCol(7, l.CompanyName, props.Text{Size: 16, Style: fontstyle.Bold}),
			text.NewCol(5, l.Title, props.Text{Size: 14, Style: fontstyle.Bold, Align: align.Right}),
		),
	}
	for i := 0; i < len(left) || i < len(right); i++ {
		var lv, rv string
		if i < len(left) {
			lv = left[i]
		}
		if i < len(right) {
			rv = right[i]
		}
		rows = append(rows, row.New(5).Add(
			text.NewCol(7, lv, normal),
			text.NewCol(5, rv, props.Text{Size: 10, Align: align.Right}),
		))
	}
	return append(rows, row.New(8))
}

func fieldRows(fields []Field, height float64) []core.Row {
	rows := make([]core.Row, 0, len(fields))
	for i, f := range fields {
		style := normal
		if i == 0 && f.Label == "Client" {
			style = bold
		}
		rows = append(rows, text.NewRow(height, f.String(), style))
	}
	return rows
}

func itemRows(items []ItemRow) []core.Row {
	cols := make([]core.Col, 0, len(ItemColumns))
	for i, title := range ItemColumns {
		cols = append(cols, text.NewCol(itemWidths[i], title, props.Text{Size: 8, Style: fontstyle.Bold, Top: 2}))
	}
	rows := []core.Row{row.New(8).Add(cols...).WithStyle(shaded)}
	for _, item := range items {
		cols = cols[:0:0]
		for i, cell := range item.Cells() {
			cols = append(cols, text.NewCol(itemWidths[i], cell, props.Text{Size: 8, Top: 1}))
		}
		rows = append(rows, row.New(6).Add(cols...))
	}
	return rows
}

func totalRows(totals []TotalLine) []core.Row {
	rows := make([]core.Row, 0, len(totals))
	for _, t := range totals {
		size := 10.0
		if t.Emphasized {
			size = 12
		}
		p := props.Text{Size: size, Style: fontstyle.Bold, Align: align.Right}
		rows = append(rows, row.New(6).Add(
			col.New(6),
			text.NewCol(3, t.Label+" :", p),
			text.NewCol(3, t.Value, p),
		))
	}
	return rows
}

func signatureRow(labels [2]string) core.Row {
	return row.New(20).Add(
		signature.NewCol(5, labels[0]),
		col.New(2),
		signature.NewCol(5, labels[1]),
	)
}

// FileName is the download name of an invoice document, e.g.
// "Facture_FC12_Societe_Alpha.pdf". Every whitespace character becomes "_".
func FileName(inv models.Invoice) string {
	return "Facture_" + inv.Reference() + "_" + strings.Map(underscoreSpace, inv.ClientName) + ".pdf"
}

func underscoreSpace(r rune) rune {
	if unicode.IsSpace(r) {
		return '_'
	}
	return r
}
