package domain

// FieldType drives which profiling statistics are computed for a column
type FieldType int

const (
	FieldSkip FieldType = iota
	FieldNumeric
	FieldCategorical
	FieldDate
	FieldString
)

func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "NUMERIC"
	case FieldCategorical:
		return "CATEGORICAL"
	case FieldDate:
		return "DATE"
	case FieldString:
		return "STRING"
	default:
		return "SKIP"
	}
}

// FieldSpec pairs a warehouse column with its profiling type
type FieldSpec struct {
	Name string
	Type FieldType
}

// CreditFieldSchema is the ordered credit column schema. The order is the
// insert column order and must match the credits_all DDL.
var CreditFieldSchema = []FieldSpec{
	{"loan_account_number", FieldString},
	{"customer_id", FieldString},
	{"tenant_id", FieldSkip},
	{"loan_type", FieldSkip},
	{"customer_type", FieldCategorical},
	{"loan_status_code", FieldCategorical},
	{"loan_status_flag", FieldCategorical},
	{"loan_product_type", FieldCategorical},
	{"final_maturity_date", FieldDate},
	{"first_payment_date", FieldDate},
	{"loan_start_date", FieldDate},
	{"loan_closing_date", FieldDate},
	{"original_loan_amount", FieldNumeric},
	{"outstanding_principal_balance", FieldNumeric},
	{"total_interest_amount", FieldNumeric},
	{"kkdf_amount", FieldNumeric},
	{"bsmv_amount", FieldNumeric},
	{"nominal_interest_rate", FieldNumeric},
	{"kkdf_rate", FieldNumeric},
	{"bsmv_rate", FieldNumeric},
	{"total_installment_count", FieldNumeric},
	{"outstanding_installment_count", FieldNumeric},
	{"paid_installment_count", FieldNumeric},
	{"installment_frequency", FieldNumeric},
	{"grace_period_months", FieldNumeric},
	{"days_past_due", FieldNumeric},
	{"internal_rating", FieldCategorical},
	{"internal_credit_rating", FieldCategorical},
	{"external_rating", FieldString},
	{"default_probability", FieldNumeric},
	{"risk_class", FieldCategorical},
	{"sector_code", FieldCategorical},
	{"customer_segment", FieldCategorical},
	{"customer_province_code", FieldCategorical},
	{"customer_district_code", FieldCategorical},
	{"customer_region_code", FieldCategorical},
	{"insurance_included", FieldCategorical},
}

// PaymentFieldSchema is the ordered payment column schema
var PaymentFieldSchema = []FieldSpec{
	{"loan_account_number", FieldString},
	{"tenant_id", FieldSkip},
	{"loan_type", FieldSkip},
	{"installment_number", FieldNumeric},
	{"actual_payment_date", FieldDate},
	{"scheduled_payment_date", FieldDate},
	{"installment_amount", FieldNumeric},
	{"principal_component", FieldNumeric},
	{"interest_component", FieldNumeric},
	{"kkdf_component", FieldNumeric},
	{"bsmv_component", FieldNumeric},
	{"installment_status", FieldCategorical},
	{"remaining_principal", FieldNumeric},
	{"remaining_interest", FieldNumeric},
	{"remaining_kkdf", FieldNumeric},
	{"remaining_bsmv", FieldNumeric},
}

// CreditColumns and PaymentColumns are the insert column orders
var (
	CreditColumns  = columnNames(CreditFieldSchema)
	PaymentColumns = columnNames(PaymentFieldSchema)
)

func columnNames(schema []FieldSpec) []string {
	names := make([]string, len(schema))
	for i, f := range schema {
		names[i] = f.Name
	}
	return names
}
