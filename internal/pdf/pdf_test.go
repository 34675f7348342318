package pdf

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diewo77/go-factures/internal/models"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func sampleInvoice() models.Invoice {
	inv := models.Invoice{
		Number:     7,
		Date:       civil.Date{Year: 2024, Month: time.May, Day: 3},
		ClientName: "Societe  Alpha",
		ClientCode: "C-19",
		Items: []models.LineItem{
			{Designation: "Ciment portland CEM II 42.5 sac de 50kg", Quantity: d("2"), UnitPrice: d("10")},
			{Code: "S01", Designation: "Sable", Quantity: d("1.5"), UnitPrice: d("4"), DiscountPercent: d("10")},
		},
		TVARate: d("19"),
	}
	inv.ApplyTotals()
	return inv
}

func sampleCompany() models.CompanyInfo {
	return models.CompanyInfo{Name: "Ste Test", Address: "Route de Tunis km 4", Phone: "74 000 000", RC: "B123"}
}

func TestBuild_Header(t *testing.T) {
	l := Build(sampleInvoice(), sampleCompany())

	assert.Equal(t, "Ste Test", l.CompanyName)
	assert.Equal(t, []Field{
		{Value: "Route de Tunis km 4"},
		{Label: "Tel", Value: "74 000 000"},
		{Label: "R.C", Value: "B123"},
	}, l.Header)
	assert.Equal(t, "FACTURE No : FC7", l.Title)
	assert.Equal(t, "Date : 03/05/2024", l.Date)
	assert.Equal(t, "Page No : 1", l.Page)
}

func TestBuild_HeaderKeepsPhoneWhenEmpty(t *testing.T) {
	l := Build(sampleInvoice(), models.CompanyInfo{Name: "Ste Vide", CodeTVA: "1943182Z"})

	assert.Equal(t, []Field{
		{Value: ""},
		{Label: "Tel", Value: ""},
		{Label: "Code TVA", Value: "1943182Z"},
	}, l.Header)
	assert.Equal(t, "Tel : ", l.Header[1].String())
}

func TestBuild_ClientFieldsInFixedOrder(t *testing.T) {
	inv := sampleInvoice()
	inv.ClientPhone = "22 333 444"
	inv.ClientAddress = "Sfax"
	l := Build(inv, sampleCompany())

	var labels []string
	for _, f := range l.Client {
		labels = append(labels, f.Label)
	}
	assert.Equal(t, []string{"Client", "Adresse", "Tel", "Code Client"}, labels)
}

func TestBuild_ClientNameAlwaysShown(t *testing.T) {
	inv := sampleInvoice()
	inv.ClientName = ""
	inv.ClientCode = ""
	l := Build(inv, sampleCompany())
	require.Len(t, l.Client, 1)
	assert.Equal(t, "Client", l.Client[0].Label)
}

func TestBuild_LogisticsOmittedWhenAbsent(t *testing.T) {
	l := Build(sampleInvoice(), sampleCompany())
	assert.Empty(t, l.Logistics)
	assert.NotContains(t, l.Sections(), SectionLogistics)

	inv := sampleInvoice()
	inv.VRef = "BC-88"
	inv.Chauffeur = "Ali"
	l = Build(inv, sampleCompany())
	assert.Equal(t, []Field{{Label: "Chauffeur", Value: "Ali"}, {Label: "V/REF", Value: "BC-88"}}, l.Logistics)
	assert.Equal(t, Order, l.Sections())
}

func TestBuild_ItemRows(t *testing.T) {
	l := Build(sampleInvoice(), sampleCompany())
	require.Len(t, l.Items, 2)

	first := l.Items[0]
	assert.Equal(t, "-", first.Code)
	assert.Equal(t, "Ciment portland CEM II 42.5 sa", first.Designation)
	assert.Len(t, []rune(first.Designation), DesignationWidth)
	assert.Equal(t, "2", first.Quantity)
	assert.Equal(t, "10.000", first.UnitPrice)
	assert.Equal(t, "0.0", first.Discount)
	assert.Equal(t, "20.000", first.TotalHT)
	assert.Equal(t, "19", first.TVARate)

	second := l.Items[1]
	assert.Equal(t, "S01", second.Code)
	assert.Equal(t, "Sable", second.Designation)
	assert.Equal(t, "10.0", second.Discount)
	assert.Equal(t, "5.400", second.TotalHT)
}

func TestBuild_TruncatesRunesNotBytes(t *testing.T) {
	inv := sampleInvoice()
	inv.Items = []models.LineItem{{Designation: strings.Repeat("é", 40), Quantity: d("1"), UnitPrice: d("1")}}
	l := Build(inv, sampleCompany())
	assert.Equal(t, strings.Repeat("é", 30), l.Items[0].Designation)
}

func TestBuild_Totals(t *testing.T) {
	l := Build(sampleInvoice(), sampleCompany())
	assert.Equal(t, []TotalLine{
		{Label: "Total HT", Value: "25.400"},
		{Label: "TVA (19%)", Value: "4.826"},
		{Label: "Timbre", Value: "1.000"},
		{Label: "Total TTC", Value: "31.226 TND", Emphasized: true},
	}, l.Totals)
	assert.Equal(t, "Arrete la presente facture a la somme de trente et un dinars et 226 millimes", l.Words)
}

func TestBuild_EmptyItems(t *testing.T) {
	inv := sampleInvoice()
	inv.Items = nil
	l := Build(inv, sampleCompany())

	assert.Empty(t, l.Items)
	assert.Equal(t, "0.000", l.Totals[0].Value)
	assert.Equal(t, "1.000", l.Totals[2].Value)
	assert.Equal(t, "1.000 TND", l.Totals[3].Value)
}

func TestBuild_FixedBlocks(t *testing.T) {
	l := Build(sampleInvoice(), sampleCompany())
	assert.Equal(t, LegalText, l.Legal)
	assert.Equal(t, "Droit de timbrer (Article 117 loi 93/53 Du 17/05/93)", l.Legal[0])
	assert.Contains(t, l.Legal[3], "taux d'interet legale en vigueur.")
	assert.Equal(t, [2]string{"Signature et cachet du client", "Signature de responsable"}, l.Signatures)
}

func TestBuild_Idempotent(t *testing.T) {
	inv := sampleInvoice()
	company := sampleCompany()
	first := Build(inv, company)
	second := Build(inv, company)
	assert.Equal(t, first, second)
	assert.Equal(t, first.Sections(), second.Sections())
}

func TestBuild_DoesNotMutateInputs(t *testing.T) {
	inv := sampleInvoice()
	inv.TotalTTC = d("999")
	before := inv.Items[0]

	Build(inv, sampleCompany())

	assert.Equal(t, before, inv.Items[0])
	assert.True(t, inv.TotalTTC.Equal(d("999")))
}

func TestRender_ProducesPDF(t *testing.T) {
	inv := sampleInvoice()
	inv.Chauffeur = "Ali"
	out, err := Generate(inv, sampleCompany())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "missing PDF magic")
}

func TestRender_EmptyInvoice(t *testing.T) {
	out, err := Generate(models.Invoice{}, models.CompanyInfo{})
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestFileName(t *testing.T) {
	inv := models.Invoice{Number: 12, ClientName: "Societe  Alpha\tSARL"}
	assert.Equal(t, "Facture_FC12_Societe__Alpha_SARL.pdf", FileName(inv))

	inv = models.Invoice{Number: 1, ClientName: "Beta"}
	assert.Equal(t, "Facture_FC1_Beta.pdf", FileName(inv))
}
