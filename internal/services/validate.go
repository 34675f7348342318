package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"github.com/diewo77/go-factures/internal/models"
	"github.com/diewo77/go-factures/validation"
)

// ErrValidation is matched by every ValidationError.
var ErrValidation = errors.New("validation_failed")

var hundred = decimal.NewFromInt(100)

// ValidationError lists the rejected fields with their message codes.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Violations))
	for f, code := range e.Violations {
		fields = append(fields, f+"="+code)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ValidateDraft checks a draft before it is issued or re-saved. The
// calculator itself accepts any input.
func ValidateDraft(d models.Draft) error {
	v := validation.Violations{}
	if err := validation.Struct(d, v); err != nil {
		return err
	}
	validation.Required("clientName", d.ClientName, v)
	if d.Date != (civil.Date{}) && !d.Date.IsValid() {
		v.Add("date", "invalid_date")
	}
	for i, it := range d.Items {
		p := fmt.Sprintf("items[%d].", i)
		validation.Required(p+"designation", it.Designation, v)
		validation.NonNegative(p+"qty", it.Quantity, v)
		validation.NonNegative(p+"unitPrice", it.UnitPrice, v)
		validation.RangeDecimal(p+"discount", it.DiscountPercent, decimal.Zero, hundred, v)
	}
	validation.NonNegative("tvaRate", d.Rate(), v)
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ValidateCompany checks company settings before they are saved.
func ValidateCompany(info models.CompanyInfo) error {
	v := validation.Violations{}
	if err := validation.Struct(info, v); err != nil {
		return err
	}
	validation.Required("name", info.Name, v)
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}
