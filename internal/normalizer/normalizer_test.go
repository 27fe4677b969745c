package normalizer

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/teamsec/banksync/internal/domain"
)

func TestToDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"iso", "2023-05-14", "2023-05-14"},
		{"compact", "20230514", "2023-05-14"},
		{"dotted european", "14.05.2023", "2023-05-14"},
		{"slashed european", "14/05/2023", "2023-05-14"},
		{"month year export", "May.14", "2014-05-01"},
		{"padded", " 2023-01-02 ", "2023-01-02"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToDate(tt.input)
			if err != nil {
				t.Fatalf("ToDate(%q) error: %v", tt.input, err)
			}
			if got == nil || *got != tt.want {
				t.Errorf("ToDate(%q) = %v, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestToDateBlank(t *testing.T) {
	got, err := ToDate("  ")
	if err != nil || got != nil {
		t.Errorf("ToDate blank = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestToDateInvalid(t *testing.T) {
	_, err := ToDate("not-a-date")
	if !errors.Is(err, domain.ErrInvalidFormat) {
		t.Errorf("ToDate invalid error = %v, want ErrInvalidFormat", err)
	}
}

func TestToDecimal(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "1250.50", "1250.5"},
		{"thousands commas", "1,234,567.89", "1234567.89"},
		{"whitespace", " 42 ", "42"},
		{"rounds to four", "12.34567", "12.3457"},
		{"negative", "-300.25", "-300.25"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToDecimal(tt.input, 4)
			if err != nil {
				t.Fatalf("ToDecimal(%q) error: %v", tt.input, err)
			}
			want := decimal.RequireFromString(tt.want)
			if got == nil || !got.Equal(want) {
				t.Errorf("ToDecimal(%q) = %v, want %s", tt.input, got, want)
			}
		})
	}

	if got, err := ToDecimal("", 4); err != nil || got != nil {
		t.Errorf("ToDecimal blank = (%v, %v), want (nil, nil)", got, err)
	}
	if _, err := ToDecimal("12.5 TL", 4); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("ToDecimal invalid error = %v, want ErrInvalidAmount", err)
	}
}

func TestToRate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already fractional", "0.95", "0.95"},
		{"percent over one", "5.14", "0.0514"},
		{"boundary one", "1.0", "0.01"},
		{"percent sign", "18.5%", "0.185"},
		{"basis points", "150bps", "0.015"},
		{"basis points upper", "150 BPS", "0.015"},
		{"comma decimal", "5,14", "5.14"},
		{"excel month first", "May.14", "0.0514"},
		{"excel month second", "5.Mar", "0.053"},
		{"excel turkish month", "Oca.15", "0.0115"},
		{"rounds to six", "0.1234567", "0.123457"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToRate(tt.input)
			if err != nil {
				t.Fatalf("ToRate(%q) error: %v", tt.input, err)
			}
			want := decimal.RequireFromString(tt.want)
			if got == nil || !got.Equal(want) {
				t.Errorf("ToRate(%q) = %v, want %s", tt.input, got, want)
			}
		})
	}

	if got, err := ToRate(""); err != nil || got != nil {
		t.Errorf("ToRate blank = (%v, %v), want (nil, nil)", got, err)
	}
	if _, err := ToRate("n/a"); !errors.Is(err, domain.ErrInvalidRate) {
		t.Errorf("ToRate invalid error = %v, want ErrInvalidRate", err)
	}
}

func TestToEnum(t *testing.T) {
	if got, err := ToEnum("K", domain.LoanStatusCodes); err != nil || got == nil || *got != "K" {
		t.Errorf("ToEnum code = (%v, %v), want K", got, err)
	}
	if got, err := ToEnum("Kapalı", domain.LoanStatusCodes); err != nil || got == nil || *got != "K" {
		t.Errorf("ToEnum label = (%v, %v), want K", got, err)
	}
	if got, err := ToEnum("aktif", domain.LoanStatusCodes); err != nil || got == nil || *got != "A" {
		t.Errorf("ToEnum lowercase label = (%v, %v), want A", got, err)
	}
	if got, err := ToEnum("", domain.LoanStatusCodes); err != nil || got != nil {
		t.Errorf("ToEnum blank = (%v, %v), want (nil, nil)", got, err)
	}
	if _, err := ToEnum("X", domain.LoanStatusCodes); !errors.Is(err, domain.ErrUnknownCategory) {
		t.Errorf("ToEnum invalid error = %v, want ErrUnknownCategory", err)
	}
}

func TestToInt(t *testing.T) {
	if got := ToInt("12"); got == nil || *got != 12 {
		t.Errorf("ToInt(12) = %v, want 12", got)
	}
	if got := ToInt("3.0"); got == nil || *got != 3 {
		t.Errorf("ToInt(3.0) = %v, want 3", got)
	}
	if got := ToInt("0"); got == nil || *got != 0 {
		t.Errorf("ToInt(0) = %v, want 0", got)
	}
	if got := ToInt(""); got != nil {
		t.Errorf("ToInt blank = %v, want nil", got)
	}
	if got := ToInt("twelve"); got != nil {
		t.Errorf("ToInt unparseable = %v, want nil", got)
	}
}

func creditRecord() RawRecord {
	return RawRecord{
		"loan_account_number":     String("LN-1001"),
		"customer_id":             String("C-7"),
		"tenant_id":               String("BANK001"),
		"loan_type":               String("COMMERCIAL"),
		"customer_type":           String("Tüzel"),
		"loan_status_code":        String("A"),
		"original_loan_amount":    String("1,000.00"),
		"nominal_interest_rate":   String("5.14"),
		"loan_start_date":         String("2023-01-15"),
		"total_installment_count": String("36"),
		"insurance_included":      String("Evet"),
		"default_probability":     String("0.021345"),
	}
}

func TestNormalizeCreditLenient(t *testing.T) {
	rec := creditRecord()
	rec["final_maturity_date"] = String("garbage")
	rec["kkdf_rate"] = String("n/a")

	row, err := NormalizeCredit(rec, false)
	if err != nil {
		t.Fatalf("NormalizeCredit error: %v", err)
	}

	if row["loan_account_number"] != "LN-1001" {
		t.Errorf("loan_account_number = %v", row["loan_account_number"])
	}
	if row["customer_type"] != "T" {
		t.Errorf("customer_type = %v, want T", row["customer_type"])
	}
	// Bad fields are nil in lenient mode, the row itself survives
	if row["final_maturity_date"] != nil {
		t.Errorf("final_maturity_date = %v, want nil", row["final_maturity_date"])
	}
	if row["kkdf_rate"] != nil {
		t.Errorf("kkdf_rate = %v, want nil", row["kkdf_rate"])
	}

	rate, ok := row["nominal_interest_rate"].(decimal.Decimal)
	if !ok || !rate.Equal(decimal.RequireFromString("0.0514")) {
		t.Errorf("nominal_interest_rate = %v, want 0.0514", row["nominal_interest_rate"])
	}
}

func TestNormalizeCreditStatusFlagFallback(t *testing.T) {
	rec := creditRecord()

	row, err := NormalizeCredit(rec, false)
	if err != nil {
		t.Fatalf("NormalizeCredit error: %v", err)
	}
	if row["loan_status_flag"] != "A" {
		t.Errorf("loan_status_flag = %v, want status code fallback A", row["loan_status_flag"])
	}

	rec["loan_status_flag"] = String("Kapalı")
	row, err = NormalizeCredit(rec, false)
	if err != nil {
		t.Fatalf("NormalizeCredit error: %v", err)
	}
	if row["loan_status_flag"] != "K" {
		t.Errorf("loan_status_flag = %v, want K", row["loan_status_flag"])
	}
}

func TestNormalizeCreditStrictRejects(t *testing.T) {
	rec := creditRecord()
	rec["customer_type"] = String("Martian")

	_, err := NormalizeCredit(rec, true)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("NormalizeCredit strict error = %v, want RowError", err)
	}
	if rowErr.LoanAccountNumber != "LN-1001" {
		t.Errorf("RowError account = %q, want LN-1001", rowErr.LoanAccountNumber)
	}
	if !errors.Is(err, domain.ErrUnknownCategory) {
		t.Errorf("RowError should wrap ErrUnknownCategory, got %v", err)
	}
}

func TestNormalizePayment(t *testing.T) {
	rec := RawRecord{
		"loan_account_number": String("LN-1001"),
		"tenant_id":           String("BANK001"),
		"loan_type":           String("RETAIL"),
		"installment_number":  String("3"),
		"installment_amount":  String("250.75"),
		"installment_status":  String("Kapalı"),
	}

	row, err := NormalizePayment(rec, false)
	if err != nil {
		t.Fatalf("NormalizePayment error: %v", err)
	}
	if row["installment_status"] != "K" {
		t.Errorf("installment_status = %v, want K", row["installment_status"])
	}
	if n, ok := row["installment_number"].(int32); !ok || n != 3 {
		t.Errorf("installment_number = %v, want 3", row["installment_number"])
	}
	// Absent components stay nil
	if row["remaining_bsmv"] != nil {
		t.Errorf("remaining_bsmv = %v, want nil", row["remaining_bsmv"])
	}
}

func TestNormalizePaymentStrictRejects(t *testing.T) {
	rec := RawRecord{
		"loan_account_number": String("LN-9"),
		"installment_number":  String("2"),
		"installment_status":  String("???"),
	}

	_, err := NormalizePayment(rec, true)
	var rowErr *RowError
	if !errors.As(err, &rowErr) {
		t.Fatalf("NormalizePayment strict error = %v, want RowError", err)
	}
	if rowErr.LoanAccountNumber != "LN-9/2" {
		t.Errorf("RowError account = %q, want LN-9/2", rowErr.LoanAccountNumber)
	}
}

func TestProject(t *testing.T) {
	row := map[string]any{"a": 1, "b": nil, "c": "x"}
	got := Project(row, []string{"c", "a", "b"})
	if len(got) != 3 || got[0] != "x" || got[1] != 1 || got[2] != nil {
		t.Errorf("Project = %v", got)
	}
}

func TestRawValueUnmarshal(t *testing.T) {
	var rec RawRecord
	data := []byte(`{"s": "text", "n": 42.5, "b": true, "z": null}`)
	if err := json.Unmarshal(data, &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.get("s") != "text" {
		t.Errorf("string field = %q", rec.get("s"))
	}
	if rec.get("n") != "42.5" {
		t.Errorf("number field = %q", rec.get("n"))
	}
	if rec.get("b") != "true" {
		t.Errorf("bool field = %q", rec.get("b"))
	}
	if rec.get("z") != "" {
		t.Errorf("null field = %q, want empty", rec.get("z"))
	}
}
