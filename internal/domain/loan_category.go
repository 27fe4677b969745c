package domain

import "strings"

// LoanCategory selects the pair of upstream file-types to sync
type LoanCategory string

const (
	CategoryCommercial LoanCategory = "COMMERCIAL"
	CategoryRetail     LoanCategory = "RETAIL"
)

// AllCategories lists every category the scheduler polls
var AllCategories = []LoanCategory{CategoryCommercial, CategoryRetail}

// ParseLoanCategory validates a raw category string (case-insensitive)
func ParseLoanCategory(s string) (LoanCategory, error) {
	switch LoanCategory(strings.ToUpper(strings.TrimSpace(s))) {
	case CategoryCommercial:
		return CategoryCommercial, nil
	case CategoryRetail:
		return CategoryRetail, nil
	default:
		return "", ErrUnknownCategory
	}
}

func (c LoanCategory) String() string {
	return string(c)
}

// CreditFileType is the upstream file_type parameter for the credits file,
// e.g. "commercial_credit".
func (c LoanCategory) CreditFileType() string {
	return strings.ToLower(string(c)) + "_credit"
}

// PaymentFileType is the upstream file_type parameter for the payments file.
func (c LoanCategory) PaymentFileType() string {
	return strings.ToLower(string(c)) + "_payment"
}
