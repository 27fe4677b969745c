package warehouse

import "context"

// Base table DDL. Both tables are partitioned by (tenant_id, loan_type) so a
// sync can replace exactly one tenant/category slice atomically. All data
// columns are Nullable: ingest runs in lenient mode and profiling measures
// the resulting null ratios.
const creditsDDL = `
CREATE TABLE IF NOT EXISTS credits_all (
	loan_account_number String,
	customer_id String,
	tenant_id String,
	loan_type String,
	customer_type Nullable(String),
	loan_status_code Nullable(String),
	loan_status_flag Nullable(String),
	loan_product_type Nullable(String),
	final_maturity_date Nullable(Date),
	first_payment_date Nullable(Date),
	loan_start_date Nullable(Date),
	loan_closing_date Nullable(Date),
	original_loan_amount Nullable(Decimal(18, 4)),
	outstanding_principal_balance Nullable(Decimal(18, 4)),
	total_interest_amount Nullable(Decimal(18, 4)),
	kkdf_amount Nullable(Decimal(18, 4)),
	bsmv_amount Nullable(Decimal(18, 4)),
	nominal_interest_rate Nullable(Decimal(10, 6)),
	kkdf_rate Nullable(Decimal(10, 6)),
	bsmv_rate Nullable(Decimal(10, 6)),
	total_installment_count Nullable(Int32),
	outstanding_installment_count Nullable(Int32),
	paid_installment_count Nullable(Int32),
	installment_frequency Nullable(Int32),
	grace_period_months Nullable(Int32),
	days_past_due Nullable(Int32),
	internal_rating Nullable(String),
	internal_credit_rating Nullable(String),
	external_rating Nullable(String),
	default_probability Nullable(Decimal(10, 6)),
	risk_class Nullable(String),
	sector_code Nullable(String),
	customer_segment Nullable(String),
	customer_province_code Nullable(String),
	customer_district_code Nullable(String),
	customer_region_code Nullable(String),
	insurance_included Nullable(String),
	inserted_at DateTime DEFAULT now()
)
ENGINE = MergeTree()
PARTITION BY (tenant_id, loan_type)
ORDER BY (loan_account_number)`

const paymentsDDL = `
CREATE TABLE IF NOT EXISTS payments_all (
	loan_account_number String,
	tenant_id String,
	loan_type String,
	installment_number Nullable(Int32),
	actual_payment_date Nullable(Date),
	scheduled_payment_date Nullable(Date),
	installment_amount Nullable(Decimal(18, 4)),
	principal_component Nullable(Decimal(18, 4)),
	interest_component Nullable(Decimal(18, 4)),
	kkdf_component Nullable(Decimal(18, 4)),
	bsmv_component Nullable(Decimal(18, 4)),
	installment_status Nullable(String),
	remaining_principal Nullable(Decimal(18, 4)),
	remaining_interest Nullable(Decimal(18, 4)),
	remaining_kkdf Nullable(Decimal(18, 4)),
	remaining_bsmv Nullable(Decimal(18, 4)),
	inserted_at DateTime DEFAULT now()
)
ENGINE = MergeTree()
PARTITION BY (tenant_id, loan_type)
ORDER BY (loan_account_number, ifNull(installment_number, 0))`

// InitTables idempotently ensures the base tables exist
func (c *Client) InitTables(ctx context.Context) error {
	if err := c.conn.Exec(ctx, creditsDDL); err != nil {
		return err
	}
	if err := c.conn.Exec(ctx, paymentsDDL); err != nil {
		return err
	}
	c.logger.Info().Msg("Warehouse base tables initialized")
	return nil
}
