package normalizer

import (
	"encoding/json"
	"fmt"

	"github.com/teamsec/banksync/internal/domain"
)

// RawValue is a single field as received from the upstream JSON stream.
// Strings, numbers and booleans are kept as their string form; null and
// absent fields are indistinguishable from empty.
type RawValue struct {
	s string
}

// String constructs a RawValue, used by the loader to inject context fields
func String(s string) RawValue {
	return RawValue{s: s}
}

func (v *RawValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &v.s)
	}
	v.s = string(b)
	return nil
}

func (v RawValue) Value() string {
	return v.s
}

// RawRecord is one upstream record keyed by raw column name
type RawRecord map[string]RawValue

func (r RawRecord) get(key string) string {
	return r[key].Value()
}

// RowError identifies the rejected row when strict normalization fails
type RowError struct {
	LoanAccountNumber string
	Err               error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("Row %s: %v", e.LoanAccountNumber, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

// NormalizeCredit cleans one credit record into a column-keyed row ready for
// warehouse insert. In lenient mode (the ingest default) a field that fails
// normalization becomes nil; strict mode rejects the row with a RowError.
// tenant_id and loan_type must have been injected by the caller.
func NormalizeCredit(rec RawRecord, strict bool) (map[string]any, error) {
	row := make(map[string]any, len(domain.CreditColumns))

	row["loan_account_number"] = rec.get("loan_account_number")
	row["customer_id"] = rec.get("customer_id")
	row["tenant_id"] = rec.get("tenant_id")
	row["loan_type"] = rec.get("loan_type")

	if strict {
		ct, err := ToEnum(rec.get("customer_type"), domain.CustomerTypes)
		if err != nil {
			return nil, &RowError{LoanAccountNumber: rec.get("loan_account_number"), Err: err}
		}
		sc, err := ToEnum(rec.get("loan_status_code"), domain.LoanStatusCodes)
		if err != nil {
			return nil, &RowError{LoanAccountNumber: rec.get("loan_account_number"), Err: err}
		}
		row["customer_type"] = deref(ct)
		row["loan_status_code"] = deref(sc)
	} else {
		row["customer_type"] = deref(safeEnum(rec.get("customer_type"), domain.CustomerTypes))
		row["loan_status_code"] = deref(safeEnum(rec.get("loan_status_code"), domain.LoanStatusCodes))
	}

	// loan_status_flag is present in commercial files only; retail rows
	// inherit the status code.
	if rec.get("loan_status_flag") != "" {
		row["loan_status_flag"] = deref(safeEnum(rec.get("loan_status_flag"), domain.LoanStatusFlags))
	} else {
		row["loan_status_flag"] = row["loan_status_code"]
	}

	row["loan_product_type"] = stringOrNil(rec.get("loan_product_type"))

	row["final_maturity_date"] = deref(safeDate(rec.get("final_maturity_date")))
	row["first_payment_date"] = deref(safeDate(rec.get("first_payment_date")))
	row["loan_start_date"] = deref(safeDate(rec.get("loan_start_date")))
	row["loan_closing_date"] = deref(safeDate(rec.get("loan_closing_date")))

	row["total_installment_count"] = deref(ToInt(rec.get("total_installment_count")))
	row["outstanding_installment_count"] = deref(ToInt(rec.get("outstanding_installment_count")))
	row["paid_installment_count"] = deref(ToInt(rec.get("paid_installment_count")))
	row["installment_frequency"] = deref(ToInt(rec.get("installment_frequency")))
	row["grace_period_months"] = deref(ToInt(rec.get("grace_period_months")))
	row["days_past_due"] = deref(ToInt(rec.get("days_past_due")))

	row["original_loan_amount"] = deref(safeDecimal(rec.get("original_loan_amount"), amountPrecision))
	row["outstanding_principal_balance"] = deref(safeDecimal(rec.get("outstanding_principal_balance"), amountPrecision))
	row["total_interest_amount"] = deref(safeDecimal(rec.get("total_interest_amount"), amountPrecision))
	row["kkdf_amount"] = deref(safeDecimal(rec.get("kkdf_amount"), amountPrecision))
	row["bsmv_amount"] = deref(safeDecimal(rec.get("bsmv_amount"), amountPrecision))

	row["nominal_interest_rate"] = deref(safeRate(rec.get("nominal_interest_rate")))
	row["kkdf_rate"] = deref(safeRate(rec.get("kkdf_rate")))
	row["bsmv_rate"] = deref(safeRate(rec.get("bsmv_rate")))

	row["internal_rating"] = stringOrNil(rec.get("internal_rating"))
	row["internal_credit_rating"] = stringOrNil(rec.get("internal_credit_rating"))
	row["external_rating"] = stringOrNil(rec.get("external_rating"))
	row["default_probability"] = deref(safeDecimal(rec.get("default_probability"), ratePrecision))
	row["risk_class"] = stringOrNil(rec.get("risk_class"))

	row["sector_code"] = stringOrNil(rec.get("sector_code"))
	row["customer_segment"] = stringOrNil(rec.get("customer_segment"))
	row["customer_province_code"] = stringOrNil(rec.get("customer_province_code"))
	row["customer_district_code"] = stringOrNil(rec.get("customer_district_code"))
	row["customer_region_code"] = stringOrNil(rec.get("customer_region_code"))

	row["insurance_included"] = deref(safeEnum(rec.get("insurance_included"), domain.InsuranceIncludedFlags))

	return row, nil
}

// NormalizePayment cleans one installment payment record
func NormalizePayment(rec RawRecord, strict bool) (map[string]any, error) {
	row := make(map[string]any, len(domain.PaymentColumns))

	row["loan_account_number"] = rec.get("loan_account_number")
	row["tenant_id"] = rec.get("tenant_id")
	row["loan_type"] = rec.get("loan_type")

	row["installment_number"] = deref(ToInt(rec.get("installment_number")))

	row["scheduled_payment_date"] = deref(safeDate(rec.get("scheduled_payment_date")))
	row["actual_payment_date"] = deref(safeDate(rec.get("actual_payment_date")))

	row["installment_amount"] = deref(safeDecimal(rec.get("installment_amount"), amountPrecision))
	row["principal_component"] = deref(safeDecimal(rec.get("principal_component"), amountPrecision))
	row["interest_component"] = deref(safeDecimal(rec.get("interest_component"), amountPrecision))
	row["kkdf_component"] = deref(safeDecimal(rec.get("kkdf_component"), amountPrecision))
	row["bsmv_component"] = deref(safeDecimal(rec.get("bsmv_component"), amountPrecision))

	row["remaining_principal"] = deref(safeDecimal(rec.get("remaining_principal"), amountPrecision))
	row["remaining_interest"] = deref(safeDecimal(rec.get("remaining_interest"), amountPrecision))
	row["remaining_kkdf"] = deref(safeDecimal(rec.get("remaining_kkdf"), amountPrecision))
	row["remaining_bsmv"] = deref(safeDecimal(rec.get("remaining_bsmv"), amountPrecision))

	if strict {
		st, err := ToEnum(rec.get("installment_status"), domain.InstallmentStatuses)
		if err != nil {
			return nil, &RowError{
				LoanAccountNumber: fmt.Sprintf("%s/%s", rec.get("loan_account_number"), rec.get("installment_number")),
				Err:               err,
			}
		}
		row["installment_status"] = deref(st)
	} else {
		row["installment_status"] = deref(safeEnum(rec.get("installment_status"), domain.InstallmentStatuses))
	}

	return row, nil
}

// Project orders a normalized row into the insert tuple for columns
func Project(row map[string]any, columns []string) []any {
	out := make([]any, len(columns))
	for i, c := range columns {
		out[i] = row[c]
	}
	return out
}

// deref stores a pointer's value, or an untyped nil for absent fields, so
// that callers and the warehouse driver see plain values.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func stringOrNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
