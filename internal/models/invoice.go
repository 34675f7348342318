package models

import (
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// DefaultTVARate is the tax rate applied to new drafts, in percent.
var DefaultTVARate = decimal.NewFromInt(19)

// ReferencePrefix is printed in front of the numeric invoice id.
const ReferencePrefix = "FC"

// LineItem represents one purchased line on an invoice.
type LineItem struct {
	Code            string          `json:"code"`
	Designation     string          `json:"designation" validate:"required"`
	Quantity        decimal.Decimal `json:"qty"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal `json:"discount"`
}

// TotalHT calculates the line total excluding VAT, after discount.
func (item LineItem) TotalHT() decimal.Decimal {
	remaining := decimal.NewFromInt(1).Sub(item.DiscountPercent.Div(hundred))
	return item.Quantity.Mul(item.UnitPrice).Mul(remaining)
}

// Invoice is an issued invoice for one account.
type Invoice struct {
	ID     string     `json:"id"`
	Number int        `json:"number"`
	Date   civil.Date `json:"date"`

	// Client
	ClientName    string `json:"clientName"`
	ClientAddress string `json:"clientAddress,omitempty"`
	ClientPhone   string `json:"clientPhone,omitempty"`
	ClientCodeTVA string `json:"clientCodeTVA,omitempty"`
	ClientCode    string `json:"clientCode,omitempty"`

	// Logistics
	Chauffeur string `json:"chauffeur,omitempty"`
	Vehicule  string `json:"vehicule,omitempty"`
	VRef      string `json:"vref,omitempty"`

	Items   []LineItem      `json:"items"`
	TVARate decimal.Decimal `json:"tvaRate"`

	// Totals caches the last ComputeTotals run over Items and TVARate.
	Totals

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ApplyTotals recomputes the cached totals from the items and tax rate.
func (i *Invoice) ApplyTotals() {
	i.Totals = ComputeTotals(i.Items, i.TVARate)
}

// Reference returns the printed invoice id, e.g. "FC12".
func (i *Invoice) Reference() string {
	return ReferencePrefix + strconv.Itoa(i.Number)
}

// Draft is the editable state of an invoice before it is issued or re-saved.
type Draft struct {
	Date          civil.Date       `json:"date"`
	ClientName    string           `json:"clientName" validate:"required"`
	ClientAddress string           `json:"clientAddress"`
	ClientPhone   string           `json:"clientPhone"`
	ClientCodeTVA string           `json:"clientCodeTVA"`
	ClientCode    string           `json:"clientCode"`
	Chauffeur     string           `json:"chauffeur"`
	Vehicule      string           `json:"vehicule"`
	VRef          string           `json:"vref"`
	Items         []LineItem       `json:"items" validate:"required,min=1,dive"`
	TVARate       *decimal.Decimal `json:"tvaRate"`
}

// NewDraft returns the blank form: today's date, one empty line and the default tax rate.
func NewDraft(now time.Time) Draft {
	rate := DefaultTVARate
	return Draft{
		Date:    civil.DateOf(now),
		Items:   []LineItem{{Quantity: decimal.NewFromInt(1)}},
		TVARate: &rate,
	}
}

// DraftOf returns the editable state of an existing invoice.
func DraftOf(inv Invoice) Draft {
	rate := inv.TVARate
	items := make([]LineItem, len(inv.Items))
	copy(items, inv.Items)
	return Draft{
		Date:          inv.Date,
		ClientName:    inv.ClientName,
		ClientAddress: inv.ClientAddress,
		ClientPhone:   inv.ClientPhone,
		ClientCodeTVA: inv.ClientCodeTVA,
		ClientCode:    inv.ClientCode,
		Chauffeur:     inv.Chauffeur,
		Vehicule:      inv.Vehicule,
		VRef:          inv.VRef,
		Items:         items,
		TVARate:       &rate,
	}
}

// Rate returns the draft tax rate, falling back to DefaultTVARate.
func (d Draft) Rate() decimal.Decimal {
	if d.TVARate == nil {
		return DefaultTVARate
	}
	return *d.TVARate
}

// ApplyTo copies the draft fields onto inv and refreshes its totals.
// Number, ID and CreatedAt are left untouched.
func (d Draft) ApplyTo(inv *Invoice) {
	inv.Date = d.Date
	inv.ClientName = d.ClientName
	inv.ClientAddress = d.ClientAddress
	inv.ClientPhone = d.ClientPhone
	inv.ClientCodeTVA = d.ClientCodeTVA
	inv.ClientCode = d.ClientCode
	inv.Chauffeur = d.Chauffeur
	inv.Vehicule = d.Vehicule
	inv.VRef = d.VRef
	inv.Items = make([]LineItem, len(d.Items))
	copy(inv.Items, d.Items)
	inv.TVARate = d.Rate()
	inv.ApplyTotals()
}
