// Package normalizer cleans raw upstream bank records into the canonical
// warehouse shape: ISO dates, fixed-precision decimals, fractional rates and
// canonical enum codes. Field primitives fail with typed errors; row
// normalizers decide whether a failure nils the field (lenient) or rejects
// the row (strict).
package normalizer

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teamsec/banksync/internal/domain"
)

const (
	amountPrecision = 4
	ratePrecision   = 6
)

// dateFormats in order of expected frequency. The month-year form parses
// legacy exports like "May.24" as the first day of that month.
var dateFormats = []string{
	"2006-01-02",
	"20060102",
	"02.01.2006",
	"02/01/2006",
	"Jan.06",
}

// monthDigits maps three-letter month tokens (English and Turkish) to their
// 1-12 digit form. mar and may are shared between the two languages.
var monthDigits = map[string]string{
	"jan": "1", "feb": "2", "mar": "3", "apr": "4", "may": "5", "jun": "6",
	"jul": "7", "aug": "8", "sep": "9", "oct": "10", "nov": "11", "dec": "12",
	"oca": "1", "şub": "2", "nis": "4", "haz": "6",
	"tem": "7", "ağu": "8", "eyl": "9", "eki": "10", "kas": "11", "ara": "12",
}

// Spreadsheet auto-format substitutes month names for digits: 5.14 is saved
// as "May.14" and 5.3 as "5.Mar". Both patterns anchor at the start.
var (
	monthThenDigits = regexp.MustCompile(`^([a-zşçöğüı]{3})\.?(\d+)`)
	digitsThenMonth = regexp.MustCompile(`^(\d+)\.([a-zşçöğüı]{3})`)
)

// repairExcelRate reconstructs the numeric string from a month-mangled rate.
// Returns the input unchanged when neither pattern applies.
func repairExcelRate(v string) string {
	lower := strings.ToLower(v)

	if m := monthThenDigits.FindStringSubmatch(lower); m != nil {
		if digit, ok := monthDigits[m[1]]; ok {
			return digit + "." + m[2]
		}
	}
	if m := digitsThenMonth.FindStringSubmatch(lower); m != nil {
		if digit, ok := monthDigits[m[2]]; ok {
			return m[1] + "." + digit
		}
	}
	return v
}

// ToDate normalizes a raw date to ISO YYYY-MM-DD. Blank input yields nil.
func ToDate(v string) (*string, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil, nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02")
			return &iso, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrInvalidFormat, v)
}

// ToDecimal normalizes a monetary amount to a fixed-precision decimal.
// Strips thousands commas; does not interpret % or bps (see ToRate).
func ToDecimal(v string, precision int32) (*decimal.Decimal, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidAmount, v)
	}
	d = d.Round(precision)
	return &d, nil
}

// ToRate normalizes an interest or tax rate to a fraction with 6 decimals.
// Strips % and commas; "NNNbps" divides by 10000; month-mangled values are
// repaired first; anything >= 1 is treated as a percentage and divided by 100
// (5.14 -> 0.0514, 18.5% -> 0.185, 1.0 -> 0.01).
func ToRate(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	s := strings.TrimSpace(v)
	s = strings.ReplaceAll(s, "%", "")
	s = strings.ReplaceAll(s, ",", "")

	if lower := strings.ToLower(s); strings.Contains(lower, "bps") {
		d, err := decimal.NewFromString(strings.TrimSpace(strings.ReplaceAll(lower, "bps", "")))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRate, v)
		}
		d = d.Div(decimal.NewFromInt(10000)).Round(ratePrecision)
		return &d, nil
	}

	s = repairExcelRate(s)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidRate, v)
	}
	if d.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		d = d.Div(decimal.NewFromInt(100))
	}
	d = d.Round(ratePrecision)
	return &d, nil
}

// ToEnum maps a raw value to its canonical code. Accepts either the code
// ("K") or the display label ("Kapalı", case-insensitive).
func ToEnum(v string, set domain.EnumSet) (*string, error) {
	s := strings.TrimSpace(v)
	if s == "" {
		return nil, nil
	}
	if set.ValidCode(s) {
		return &s, nil
	}
	if code, ok := set.CodeForLabel(s); ok {
		return &code, nil
	}
	return nil, fmt.Errorf("%w for %s: %q", domain.ErrUnknownCategory, set.Name(), s)
}

// ToInt parses an installment or day count. Zero is a valid value; blank or
// unparseable input yields nil. Fractional numerics are truncated.
func ToInt(v string) *int32 {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if i, err := strconv.ParseInt(v, 10, 32); err == nil {
		n := int32(i)
		return &n
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		n := int32(f)
		return &n
	}
	return nil
}

// Lenient variants: a failed field becomes absent so the row still loads and
// profiling can measure null ratios.

func safeDate(v string) *string {
	d, _ := ToDate(v)
	return d
}

func safeDecimal(v string, precision int32) *decimal.Decimal {
	d, _ := ToDecimal(v, precision)
	return d
}

func safeRate(v string) *decimal.Decimal {
	d, _ := ToRate(v)
	return d
}

func safeEnum(v string, set domain.EnumSet) *string {
	c, _ := ToEnum(v, set)
	return c
}
