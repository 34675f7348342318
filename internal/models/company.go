package models

// CompanyInfo represents the issuing company printed in the invoice header.
// One per account; saved wholesale.
type CompanyInfo struct {
	Name       string `json:"name" validate:"required"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	CodeTVA    string `json:"codeTVA,omitempty"`
	RC         string `json:"rc,omitempty"`
	CodeDouane string `json:"codeDouane,omitempty"`
}

// DefaultCompanyInfo is what an account sees before it saves its own settings.
func DefaultCompanyInfo() CompanyInfo {
	return CompanyInfo{
		Name:    "Ma Societe",
		Address: "Adresse de la societe",
		Phone:   "00 000 000",
	}
}
