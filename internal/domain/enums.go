package domain

import "strings"

// EnumSet is a closed categorical vocabulary with a wire code and a display
// label per variant. Upstream data may carry either form; normalization maps
// both back to the code.
type EnumSet struct {
	name   string
	labels map[string]string // code -> label
	codes  map[string]string // upper(label) -> code
}

// NewEnumSet builds an EnumSet from a code -> label map
func NewEnumSet(name string, labels map[string]string) EnumSet {
	codes := make(map[string]string, len(labels))
	for code, label := range labels {
		codes[strings.ToUpper(label)] = code
	}
	return EnumSet{name: name, labels: labels, codes: codes}
}

// Name returns the vocabulary name used in error messages
func (s EnumSet) Name() string { return s.name }

// ValidCode reports whether v is a canonical code
func (s EnumSet) ValidCode(v string) bool {
	_, ok := s.labels[v]
	return ok
}

// CodeForLabel resolves a display label (case-insensitive) to its code
func (s EnumSet) CodeForLabel(label string) (string, bool) {
	code, ok := s.codes[strings.ToUpper(label)]
	return code, ok
}

// Label returns the display label for a code, or the code itself when unknown
func (s EnumSet) Label(code string) string {
	if label, ok := s.labels[code]; ok {
		return label
	}
	return code
}

// Categorical vocabularies for the credit and payment schemas. Codes and
// labels follow the upstream bank conventions (Turkish display labels).
var (
	CustomerTypes = NewEnumSet("CustomerType", map[string]string{
		"T": "Tüzel",
		"V": "Vatandaş",
	})

	LoanStatusCodes = NewEnumSet("LoanStatusCode", map[string]string{
		"A": "Aktif",
		"K": "Kapalı",
	})

	LoanStatusFlags = NewEnumSet("LoanStatusFlag", map[string]string{
		"A": "Aktif",
		"K": "Kapalı",
	})

	InsuranceIncludedFlags = NewEnumSet("InsuranceIncluded", map[string]string{
		"E": "Evet",
		"H": "Hayır",
	})

	InstallmentStatuses = NewEnumSet("InstallmentStatus", map[string]string{
		"A": "Aktif",
		"K": "Kapalı",
	})

	LoanProductTypes = NewEnumSet("LoanProductType", map[string]string{
		"1": "Ticari Kredi Tip 1",
		"2": "Ticari Kredi Tip 2",
		"3": "Bireysel Kredi Tip 1",
		"4": "Bireysel Kredi Tip 2",
	})
)
