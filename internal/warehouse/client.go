// Package warehouse wraps the ClickHouse connection behind the sync
// pipeline: base table DDL, staging lifecycle, batch inserts, atomic
// partition replace and the analytic queries used by validation and
// profiling.
package warehouse

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog"
	"github.com/teamsec/banksync/internal/domain"
)

// Options holds ClickHouse connection settings
type Options struct {
	Addr     string
	Database string
	Username string
	Password string
}

// Connect opens a native-protocol connection pool and verifies it
func Connect(ctx context.Context, opts Options) (driver.Conn, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{opts.Addr},
		Auth: clickhouse.Auth{
			Database: opts.Database,
			Username: opts.Username,
			Password: opts.Password,
		},
		Compression: &clickhouse.Compression{Method: clickhouse.CompressionLZ4},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return conn, nil
}

// Client implements domain.Warehouse over a ClickHouse connection
type Client struct {
	conn   driver.Conn
	logger zerolog.Logger
}

// NewClient creates a warehouse client
func NewClient(conn driver.Conn, logger zerolog.Logger) *Client {
	return &Client{
		conn:   conn,
		logger: logger.With().Str("component", "warehouse").Logger(),
	}
}

// Table and partition identifiers are interpolated into DDL, so they are
// restricted to word characters. Tenant ids and categories are validated
// with the same rule before they reach a partition expression.
var identPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

func validateIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// StagingName builds the deterministic staging table name for a job,
// e.g. stg_bank001_commercial_credits.
func StagingName(base, tenantID string, category domain.LoanCategory) string {
	role := strings.SplitN(base, "_", 2)[0]
	return fmt.Sprintf("stg_%s_%s_%s", strings.ToLower(tenantID), strings.ToLower(string(category)), role)
}

// PrepareStaging drops any stale staging table for this (tenant, category)
// and creates a fresh empty one with the base table's schema.
func (c *Client) PrepareStaging(ctx context.Context, base string, tenantID string, category domain.LoanCategory) (string, error) {
	if err := validateIdent(base); err != nil {
		return "", err
	}
	if err := validateIdent(tenantID); err != nil {
		return "", err
	}
	staging := StagingName(base, tenantID, category)

	if err := c.conn.Exec(ctx, "DROP TABLE IF EXISTS "+staging); err != nil {
		return "", fmt.Errorf("drop stale staging %s: %w", staging, err)
	}
	if err := c.conn.Exec(ctx, fmt.Sprintf("CREATE TABLE %s AS %s", staging, base)); err != nil {
		return "", fmt.Errorf("create staging %s: %w", staging, err)
	}

	c.logger.Debug().Str("staging", staging).Str("base", base).Msg("Prepared staging table")
	return staging, nil
}

// InsertBatch performs one bulk insert preserving column order
func (c *Client) InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error {
	if err := validateIdent(table); err != nil {
		return err
	}
	batch, err := c.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s (%s)", table, strings.Join(columns, ", ")))
	if err != nil {
		return fmt.Errorf("prepare batch for %s: %w", table, err)
	}
	for _, row := range rows {
		if err := batch.Append(row...); err != nil {
			return fmt.Errorf("append row to %s: %w", table, err)
		}
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch to %s: %w", table, err)
	}
	return nil
}

// CopyPartition fills staging from the live (tenant, category) partition of
// base. Used when the upstream version is unchanged and a re-download would
// be wasted work.
func (c *Client) CopyPartition(ctx context.Context, staging, base string, tenantID string, category domain.LoanCategory) error {
	if err := validateIdent(staging); err != nil {
		return err
	}
	if err := validateIdent(base); err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s SELECT * FROM %s WHERE tenant_id = ? AND loan_type = ?", staging, base)
	if err := c.conn.Exec(ctx, query, tenantID, string(category)); err != nil {
		return fmt.Errorf("copy partition %s/%s into %s: %w", tenantID, category, staging, err)
	}
	return nil
}

// SwapPartition atomically replaces the (tenant, category) partition of base
// with staging's contents, then drops staging. Readers see either the old or
// the new partition, never a mix.
func (c *Client) SwapPartition(ctx context.Context, base, staging string, tenantID string, category domain.LoanCategory) error {
	if err := validateIdent(base); err != nil {
		return err
	}
	if err := validateIdent(staging); err != nil {
		return err
	}
	if err := validateIdent(tenantID); err != nil {
		return err
	}
	if err := validateIdent(string(category)); err != nil {
		return err
	}

	query := fmt.Sprintf("ALTER TABLE %s REPLACE PARTITION ('%s', '%s') FROM %s", base, tenantID, category, staging)
	if err := c.conn.Exec(ctx, query); err != nil {
		return fmt.Errorf("replace partition %s/%s on %s: %w", tenantID, category, base, err)
	}
	if err := c.conn.Exec(ctx, "DROP TABLE "+staging); err != nil {
		return fmt.Errorf("drop staging %s after swap: %w", staging, err)
	}

	c.logger.Info().
		Str("tenant_id", tenantID).
		Str("loan_type", string(category)).
		Str("base", base).
		Msg("Atomic partition swap complete")
	return nil
}

// DropTable drops a table if it exists
func (c *Client) DropTable(ctx context.Context, table string) error {
	if err := validateIdent(table); err != nil {
		return err
	}
	return c.conn.Exec(ctx, "DROP TABLE IF EXISTS "+table)
}

// CountRows returns the row count of a table
func (c *Client) CountRows(ctx context.Context, table string) (uint64, error) {
	if err := validateIdent(table); err != nil {
		return 0, err
	}
	var count uint64
	if err := c.conn.QueryRow(ctx, "SELECT count() FROM "+table).Scan(&count); err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", table, err)
	}
	return count, nil
}

// ListLoanSummaries serves the read API from the live credits partition
func (c *Client) ListLoanSummaries(ctx context.Context, tenantID string, category domain.LoanCategory, limit int) ([]*domain.LoanSummary, error) {
	query := `
	SELECT
		loan_account_number,
		toNullable(toFloat64(original_loan_amount)),
		toNullable(toFloat64(outstanding_principal_balance)),
		loan_status_code,
		days_past_due
	FROM credits_all
	WHERE tenant_id = ? AND loan_type = ?
	LIMIT ?`

	rows, err := c.conn.Query(ctx, query, tenantID, string(category), limit)
	if err != nil {
		return nil, fmt.Errorf("query loan summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*domain.LoanSummary
	for rows.Next() {
		s := &domain.LoanSummary{}
		if err := rows.Scan(&s.LoanAccountNumber, &s.OriginalLoanAmount, &s.OutstandingPrincipalBalance, &s.LoanStatusCode, &s.DaysPastDue); err != nil {
			return nil, fmt.Errorf("scan loan summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
