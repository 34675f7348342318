package firestore

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-factures/internal/models"
)

// Document shapes follow the collections written by the web client:
// users/{account} carries the counter and company settings, and
// users/{account}/invoices/{id} carries one invoice with numbers as doubles.

type userDoc struct {
	CurrentInvoiceNumber int         `firestore:"currentInvoiceNumber"`
	CompanyInfo          *companyDoc `firestore:"companyInfo"`
}

type companyDoc struct {
	Name       string `firestore:"name"`
	Address    string `firestore:"address"`
	Phone      string `firestore:"phone"`
	CodeTVA    string `firestore:"codeTVA"`
	RC         string `firestore:"rc"`
	CodeDouane string `firestore:"codeDouane"`
}

type itemDoc struct {
	Code        string  `firestore:"code"`
	Designation string  `firestore:"designation"`
	Qty         float64 `firestore:"qty"`
	UnitPrice   float64 `firestore:"unitPrice"`
	Discount    float64 `firestore:"discount"`
}

type invoiceDoc struct {
	Number        int       `firestore:"number"`
	Date          string    `firestore:"date"`
	ClientName    string    `firestore:"clientName"`
	ClientAddress string    `firestore:"clientAddress"`
	ClientPhone   string    `firestore:"clientPhone"`
	ClientCodeTVA string    `firestore:"clientCodeTVA"`
	ClientCode    string    `firestore:"clientCode"`
	Chauffeur     string    `firestore:"chauffeur"`
	Vehicule      string    `firestore:"vehicule"`
	VRef          string    `firestore:"vref"`
	Items         []itemDoc `firestore:"items"`
	TVARate       float64   `firestore:"tvaRate"`
	TotalHT       float64   `firestore:"totalHT"`
	TotalTVA      float64   `firestore:"totalTVA"`
	Timbre        float64   `firestore:"timbre"`
	TotalTTC      float64   `firestore:"totalTTC"`
	CreatedAt     time.Time `firestore:"createdAt"`
	UpdatedAt     time.Time `firestore:"updatedAt"`
}

func toInvoiceDoc(inv models.Invoice) invoiceDoc {
	doc := invoiceDoc{
		Number:        inv.Number,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		ClientPhone:   inv.ClientPhone,
		ClientCodeTVA: inv.ClientCodeTVA,
		ClientCode:    inv.ClientCode,
		Chauffeur:     inv.Chauffeur,
		Vehicule:      inv.Vehicule,
		VRef:          inv.VRef,
		Items:         make([]itemDoc, len(inv.Items)),
		TVARate:       inv.TVARate.InexactFloat64(),
		TotalHT:       inv.TotalHT.InexactFloat64(),
		TotalTVA:      inv.TotalTVA.InexactFloat64(),
		Timbre:        inv.Timbre.InexactFloat64(),
		TotalTTC:      inv.TotalTTC.InexactFloat64(),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.Date.IsValid() {
		doc.Date = inv.Date.String()
	}
	for i, it := range inv.Items {
		doc.Items[i] = itemDoc{
			Code:        it.Code,
			Designation: it.Designation,
			Qty:         it.Quantity.InexactFloat64(),
			UnitPrice:   it.UnitPrice.InexactFloat64(),
			Discount:    it.DiscountPercent.InexactFloat64(),
		}
	}
	return doc
}

// toModel decodes a stored invoice. Totals are rederived from the decoded
// lines since the stored doubles are not exact.
func (d invoiceDoc) toModel(id string) models.Invoice {
	inv := models.Invoice{
		ID:            id,
		Number:        d.Number,
		ClientName:    d.ClientName,
		ClientAddress: d.ClientAddress,
		ClientPhone:   d.ClientPhone,
		ClientCodeTVA: d.ClientCodeTVA,
		ClientCode:    d.ClientCode,
		Chauffeur:     d.Chauffeur,
		Vehicule:      d.Vehicule,
		VRef:          d.VRef,
		Items:         make([]models.LineItem, len(d.Items)),
		TVARate:       decimal.NewFromFloat(d.TVARate),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if date, err := civil.ParseDate(d.Date); err == nil {
		inv.Date = date
	}
	for i, it := range d.Items {
		inv.Items[i] = models.LineItem{
			Code:            it.Code,
			Designation:     it.Designation,
			Quantity:        decimal.NewFromFloat(it.Qty),
			UnitPrice:       decimal.NewFromFloat(it.UnitPrice),
			DiscountPercent: decimal.NewFromFloat(it.Discount),
		}
	}
	inv.ApplyTotals()
	return inv
}

func toCompanyDoc(info models.CompanyInfo) *companyDoc {
	return &companyDoc{
		Name:       info.Name,
		Address:    info.Address,
		Phone:      info.Phone,
		CodeTVA:    info.CodeTVA,
		RC:         info.RC,
		CodeDouane: info.CodeDouane,
	}
}

func (c *companyDoc) toModel() models.CompanyInfo {
	return models.CompanyInfo{
		Name:       c.Name,
		Address:    c.Address,
		Phone:      c.Phone,
		CodeTVA:    c.CodeTVA,
		RC:         c.RC,
		CodeDouane: c.CodeDouane,
	}
}
