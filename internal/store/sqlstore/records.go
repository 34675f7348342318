package sqlstore

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-factures/internal/models"
)

type invoiceRecord struct {
	ID        string `gorm:"primaryKey;size:36"`
	AccountID string `gorm:"size:64;not null;uniqueIndex:idx_invoices_account_number,priority:1;index"`
	Number    int    `gorm:"not null;uniqueIndex:idx_invoices_account_number,priority:2"`
	Date      string `gorm:"size:10"`

	ClientName    string `gorm:"size:255;not null"`
	ClientAddress string `gorm:"size:500"`
	ClientPhone   string `gorm:"size:50"`
	ClientCodeTVA string `gorm:"size:50"`
	ClientCode    string `gorm:"size:50"`

	Chauffeur string `gorm:"size:255"`
	Vehicule  string `gorm:"size:50"`
	VRef      string `gorm:"size:100"`

	TVARate  decimal.Decimal `gorm:"type:decimal(24,9);not null"`
	TotalHT  decimal.Decimal `gorm:"type:decimal(24,9);not null"`
	TotalTVA decimal.Decimal `gorm:"type:decimal(24,9);not null"`
	Timbre   decimal.Decimal `gorm:"type:decimal(24,9);not null"`
	TotalTTC decimal.Decimal `gorm:"type:decimal(24,9);not null"`

	Items []itemRecord `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"autoCreateTime:false;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime:false"`
}

func (invoiceRecord) TableName() string { return "invoices" }

type itemRecord struct {
	ID              uint            `gorm:"primaryKey"`
	InvoiceID       string          `gorm:"size:36;not null;index"`
	Position        int             `gorm:"not null"`
	Code            string          `gorm:"size:50"`
	Designation     string          `gorm:"size:500;not null"`
	Quantity        decimal.Decimal `gorm:"type:decimal(24,9);not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(24,9);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(24,9);not null"`
}

func (itemRecord) TableName() string { return "invoice_items" }

// counterRecord holds the next number to assign for an account.
type counterRecord struct {
	AccountID string `gorm:"primaryKey;size:64"`
	Next      int    `gorm:"not null"`
	UpdatedAt time.Time
}

func (counterRecord) TableName() string { return "invoice_counters" }

type companyRecord struct {
	AccountID  string `gorm:"primaryKey;size:64"`
	Name       string `gorm:"size:255;not null"`
	Address    string `gorm:"size:500"`
	Phone      string `gorm:"size:50"`
	CodeTVA    string `gorm:"size:50"`
	RC         string `gorm:"size:100"`
	CodeDouane string `gorm:"size:100"`
	UpdatedAt  time.Time
}

func (companyRecord) TableName() string { return "company_infos" }

// Models lists the tables owned by this store, for AutoMigrate.
func Models() []any {
	return []any{&invoiceRecord{}, &itemRecord{}, &counterRecord{}, &companyRecord{}}
}

func toRecord(account string, inv models.Invoice) invoiceRecord {
	rec := invoiceRecord{
		ID:            inv.ID,
		AccountID:     account,
		Number:        inv.Number,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		ClientPhone:   inv.ClientPhone,
		ClientCodeTVA: inv.ClientCodeTVA,
		ClientCode:    inv.ClientCode,
		Chauffeur:     inv.Chauffeur,
		Vehicule:      inv.Vehicule,
		VRef:          inv.VRef,
		TVARate:       inv.TVARate,
		TotalHT:       inv.TotalHT,
		TotalTVA:      inv.TotalTVA,
		Timbre:        inv.Timbre,
		TotalTTC:      inv.TotalTTC,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
	if inv.Date.IsValid() {
		rec.Date = inv.Date.String()
	}
	rec.Items = toItemRecords(inv.ID, inv.Items)
	return rec
}

func toItemRecords(invoiceID string, items []models.LineItem) []itemRecord {
	out := make([]itemRecord, len(items))
	for i, it := range items {
		out[i] = itemRecord{
			InvoiceID:       invoiceID,
			Position:        i,
			Code:            it.Code,
			Designation:     it.Designation,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
		}
	}
	return out
}

func (r invoiceRecord) toModel() models.Invoice {
	inv := models.Invoice{
		ID:            r.ID,
		Number:        r.Number,
		ClientName:    r.ClientName,
		ClientAddress: r.ClientAddress,
		ClientPhone:   r.ClientPhone,
		ClientCodeTVA: r.ClientCodeTVA,
		ClientCode:    r.ClientCode,
		Chauffeur:     r.Chauffeur,
		Vehicule:      r.Vehicule,
		VRef:          r.VRef,
		TVARate:       r.TVARate,
		Totals: models.Totals{
			TotalHT:  r.TotalHT,
			TotalTVA: r.TotalTVA,
			Timbre:   r.Timbre,
			TotalTTC: r.TotalTTC,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if d, err := civil.ParseDate(r.Date); err == nil {
		inv.Date = d
	}
	inv.Items = make([]models.LineItem, len(r.Items))
	for i, it := range r.Items {
		inv.Items[i] = models.LineItem{
			Code:            it.Code,
			Designation:     it.Designation,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			DiscountPercent: it.DiscountPercent,
		}
	}
	// total columns have a fixed scale; the items are authoritative
	inv.ApplyTotals()
	return inv
}

func companyToRecord(account string, info models.CompanyInfo) companyRecord {
	return companyRecord{
		AccountID:  account,
		Name:       info.Name,
		Address:    info.Address,
		Phone:      info.Phone,
		CodeTVA:    info.CodeTVA,
		RC:         info.RC,
		CodeDouane: info.CodeDouane,
	}
}

func (r companyRecord) toModel() models.CompanyInfo {
	return models.CompanyInfo{
		Name:       r.Name,
		Address:    r.Address,
		Phone:      r.Phone,
		CodeTVA:    r.CodeTVA,
		RC:         r.RC,
		CodeDouane: r.CodeDouane,
	}
}
