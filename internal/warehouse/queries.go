package warehouse

import (
	"context"
	"fmt"

	"github.com/teamsec/banksync/internal/domain"
)

// Validation queries. These run over staging tables, whose names are built
// internally from validated identifiers.

// CountGhostLoans counts credit rows with a missing loan account number.
// The literal "None" covers upstream serializers that stringify nulls.
func (c *Client) CountGhostLoans(ctx context.Context, stgCredits string) (uint64, error) {
	if err := validateIdent(stgCredits); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(
		"SELECT count() FROM %s WHERE trim(loan_account_number) = '' OR loan_account_number = 'None'",
		stgCredits,
	)
	var count uint64
	if err := c.conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("ghost loan check on %s: %w", stgCredits, err)
	}
	return count, nil
}

// CountOrphanPayments counts payment rows referencing no loan in the
// same-batch credit staging.
func (c *Client) CountOrphanPayments(ctx context.Context, stgPayments, stgCredits string) (uint64, error) {
	if err := validateIdent(stgPayments); err != nil {
		return 0, err
	}
	if err := validateIdent(stgCredits); err != nil {
		return 0, err
	}
	query := fmt.Sprintf(
		"SELECT count() FROM %s WHERE loan_account_number NOT IN (SELECT loan_account_number FROM %s)",
		stgPayments, stgCredits,
	)
	var count uint64
	if err := c.conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("orphan payment check on %s: %w", stgPayments, err)
	}
	return count, nil
}

// CountNegativeBalances counts credit rows with a negative outstanding
// principal balance.
func (c *Client) CountNegativeBalances(ctx context.Context, stgCredits string) (uint64, error) {
	if err := validateIdent(stgCredits); err != nil {
		return 0, err
	}
	query := fmt.Sprintf("SELECT count() FROM %s WHERE outstanding_principal_balance < 0", stgCredits)
	var count uint64
	if err := c.conn.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("negative balance check on %s: %w", stgCredits, err)
	}
	return count, nil
}

// Profiling queries, one shape per field type. Aggregates are wrapped in
// toNullable(toFloat64(...)) so all-null columns scan cleanly.

// ProfileNumeric computes min/max/avg/population-stddev and the null count
func (c *Client) ProfileNumeric(ctx context.Context, table, field string) (*domain.NumericProfile, error) {
	if err := validateIdent(table); err != nil {
		return nil, err
	}
	if err := validateIdent(field); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`
	SELECT
		toNullable(toFloat64(min(%[1]s))),
		toNullable(toFloat64(max(%[1]s))),
		toNullable(toFloat64(avg(%[1]s))),
		toNullable(toFloat64(stddevPop(%[1]s))),
		countIf(%[1]s IS NULL)
	FROM %[2]s`, field, table)

	p := &domain.NumericProfile{}
	if err := c.conn.QueryRow(ctx, query).Scan(&p.Min, &p.Max, &p.Avg, &p.StdDev, &p.NullCount); err != nil {
		return nil, fmt.Errorf("numeric profile %s.%s: %w", table, field, err)
	}
	return p, nil
}

// ProfileCategorical computes exact cardinality, null count and the mode
func (c *Client) ProfileCategorical(ctx context.Context, table, field string) (*domain.CategoricalProfile, error) {
	if err := validateIdent(table); err != nil {
		return nil, err
	}
	if err := validateIdent(field); err != nil {
		return nil, err
	}

	p := &domain.CategoricalProfile{}
	query := fmt.Sprintf("SELECT uniqExact(%[1]s), countIf(%[1]s IS NULL) FROM %[2]s", field, table)
	if err := c.conn.QueryRow(ctx, query).Scan(&p.UniqueCount, &p.NullCount); err != nil {
		return nil, fmt.Errorf("categorical profile %s.%s: %w", table, field, err)
	}

	modeQuery := fmt.Sprintf(
		"SELECT %[1]s, count() FROM %[2]s WHERE %[1]s IS NOT NULL GROUP BY %[1]s ORDER BY count() DESC LIMIT 1",
		field, table,
	)
	rows, err := c.conn.Query(ctx, modeQuery)
	if err != nil {
		return nil, fmt.Errorf("categorical mode %s.%s: %w", table, field, err)
	}
	defer rows.Close()
	if rows.Next() {
		var mode string
		if err := rows.Scan(&mode, &p.MostFrequentCount); err != nil {
			return nil, fmt.Errorf("scan categorical mode %s.%s: %w", table, field, err)
		}
		p.MostFrequent = &mode
	}
	return p, rows.Err()
}

// ProfileDate computes the observed date range and null count
func (c *Client) ProfileDate(ctx context.Context, table, field string) (*domain.DateProfile, error) {
	if err := validateIdent(table); err != nil {
		return nil, err
	}
	if err := validateIdent(field); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT min(%[1]s), max(%[1]s), countIf(%[1]s IS NULL) FROM %[2]s",
		field, table,
	)
	p := &domain.DateProfile{}
	if err := c.conn.QueryRow(ctx, query).Scan(&p.Min, &p.Max, &p.NullCount); err != nil {
		return nil, fmt.Errorf("date profile %s.%s: %w", table, field, err)
	}
	return p, nil
}

// ProfileString computes exact cardinality and the null-or-empty count
func (c *Client) ProfileString(ctx context.Context, table, field string) (*domain.StringProfile, error) {
	if err := validateIdent(table); err != nil {
		return nil, err
	}
	if err := validateIdent(field); err != nil {
		return nil, err
	}
	query := fmt.Sprintf(
		"SELECT uniqExact(%[1]s), countIf(%[1]s IS NULL OR %[1]s = '') FROM %[2]s",
		field, table,
	)
	p := &domain.StringProfile{}
	if err := c.conn.QueryRow(ctx, query).Scan(&p.UniqueCount, &p.NullOrEmptyCount); err != nil {
		return nil, fmt.Errorf("string profile %s.%s: %w", table, field, err)
	}
	return p, nil
}
