// Package pdf lays out and renders printable invoices.
//
// Build produces a Layout: every string that ends up on the page, grouped
// by section in print order. Render turns a Layout into PDF bytes.
package pdf

import (
	"time"

	"github.com/diewo77/go-factures/internal/amountwords"
	"github.com/diewo77/go-factures/internal/models"
)

// DesignationWidth is the number of runes of a designation printed in the item table.
const DesignationWidth = 30

// DateLayout is the printed issue date format.
const DateLayout = "02/01/2006"

// Currency suffix printed next to the grand total.
const Currency = "TND"

// Section identifies a block of the document.
type Section string

const (
	SectionHeader     Section = "header"
	SectionIdentity   Section = "identity"
	SectionClient     Section = "client"
	SectionLogistics  Section = "logistics"
	SectionItems      Section = "items"
	SectionTotals     Section = "totals"
	SectionWords      Section = "words"
	SectionLegal      Section = "legal"
	SectionSignatures Section = "signatures"
)

// Order is the fixed print order of the sections.
var Order = []Section{
	SectionHeader,
	SectionIdentity,
	SectionClient,
	SectionLogistics,
	SectionItems,
	SectionTotals,
	SectionWords,
	SectionLegal,
	SectionSignatures,
}

// ItemColumns are the item table headings.
var ItemColumns = [7]string{"Code", "Designation", "Qte", "P.U.H.T.", "Rem.%", "Montant HT", "TVA%"}

// LegalText is printed under the amount in words.
var LegalText = []string{
	"Droit de timbrer (Article 117 loi 93/53 Du 17/05/93)",
	"Dans le cas ou le paiement integral n'interviendrait pas a la date prevue par les parties,",
	"le vendeur se reserve le droit de reprendre la chose livree et de resoudre le contrat.",
	"Tout retard de paiement engendre une penalite calculee sur la base du taux d'interet legale en vigueur.",
}

// SignatureLabels are the two signature placeholders at the foot of the page.
var SignatureLabels = [2]string{"Signature et cachet du client", "Signature de responsable"}

// Field is a labelled value, e.g. "Tel : 71 000 000".
type Field struct {
	Label string
	Value string
}

// String renders the field as printed.
func (f Field) String() string {
	if f.Label == "" {
		return f.Value
	}
	return f.Label + " : " + f.Value
}

// ItemRow is one formatted line of the item table.
type ItemRow struct {
	Code        string
	Designation string
	Quantity    string
	UnitPrice   string
	Discount    string
	TotalHT     string
	TVARate     string
}

// Cells returns the row in column order.
func (r ItemRow) Cells() [7]string {
	return [7]string{r.Code, r.Designation, r.Quantity, r.UnitPrice, r.Discount, r.TotalHT, r.TVARate}
}

// TotalLine is one line of the totals block.
type TotalLine struct {
	Label      string
	Value      string
	Emphasized bool
}

// Layout is the full content of an invoice document, in print order.
type Layout struct {
	CompanyName string
	Header      []Field

	Title string
	Date  string
	Page  string

	Client    []Field
	Logistics []Field

	Items  []ItemRow
	Totals []TotalLine

	Words      string
	Legal      []string
	Signatures [2]string
}

// Sections lists the sections that carry content, in print order.
// The items table and the fixed blocks are always present.
func (l Layout) Sections() []Section {
	out := make([]Section, 0, len(Order))
	for _, s := range Order {
		if s == SectionLogistics && len(l.Logistics) == 0 {
			continue
		}
		out = append(out, s)
	}
	return out
}

// Build computes the document layout for inv issued by company.
// Totals are recomputed from the items; inputs are not modified.
func Build(inv models.Invoice, company models.CompanyInfo) Layout {
	totals := models.ComputeTotals(inv.Items, inv.TVARate)

	l := Layout{
		CompanyName: company.Name,
		Title:       "FACTURE No : " + inv.Reference(),
		Date:        "Date : " + formatDate(inv),
		Page:        "Page No : 1",
		Legal:       append([]string(nil), LegalText...),
		Signatures:  SignatureLabels,
	}

	// address and phone are always printed, the registration codes only when set
	l.Header = []Field{{Value: company.Address}, {Label: "Tel", Value: company.Phone}}
	l.Header = appendPresent(l.Header,
		Field{Label: "Code TVA", Value: company.CodeTVA},
		Field{Label: "R.C", Value: company.RC},
		Field{Label: "Code en douane", Value: company.CodeDouane},
	)

	l.Client = append(l.Client, Field{Label: "Client", Value: inv.ClientName})
	l.Client = appendPresent(l.Client,
		Field{Label: "Adresse", Value: inv.ClientAddress},
		Field{Label: "Tel", Value: inv.ClientPhone},
		Field{Label: "Code TVA", Value: inv.ClientCodeTVA},
		Field{Label: "Code Client", Value: inv.ClientCode},
	)

	l.Logistics = appendPresent(nil,
		Field{Label: "Chauffeur", Value: inv.Chauffeur},
		Field{Label: "Vehicule No", Value: inv.Vehicule},
		Field{Label: "V/REF", Value: inv.VRef},
	)

	rate := inv.TVARate.String()
	for _, item := range inv.Items {
		code := item.Code
		if code == "" {
			code = "-"
		}
		l.Items = append(l.Items, ItemRow{
			Code:        code,
			Designation: truncate(item.Designation, DesignationWidth),
			Quantity:    item.Quantity.String(),
			UnitPrice:   models.FormatAmount(item.UnitPrice),
			Discount:    item.DiscountPercent.StringFixed(1),
			TotalHT:     models.FormatAmount(item.TotalHT()),
			TVARate:     rate,
		})
	}

	l.Totals = []TotalLine{
		{Label: "Total HT", Value: models.FormatAmount(totals.TotalHT)},
		{Label: "TVA (" + rate + "%)", Value: models.FormatAmount(totals.TotalTVA)},
		{Label: "Timbre", Value: models.FormatAmount(totals.Timbre)},
		{Label: "Total TTC", Value: models.FormatAmount(totals.TotalTTC) + " " + Currency, Emphasized: true},
	}

	l.Words = "Arrete la presente facture a la somme de " + amountwords.AmountToWords(totals.TotalTTC)
	return l
}

func appendPresent(dst []Field, fields ...Field) []Field {
	for _, f := range fields {
		if f.Value != "" {
			dst = append(dst, f)
		}
	}
	return dst
}

// truncate keeps the first n runes of s; no ellipsis is added.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func formatDate(inv models.Invoice) string {
	if !inv.Date.IsValid() {
		return ""
	}
	return inv.Date.In(time.UTC).Format(DateLayout)
}
