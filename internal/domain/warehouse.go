package domain

import (
	"context"
	"time"
)

// Base warehouse table names
const (
	CreditsTable  = "credits_all"
	PaymentsTable = "payments_all"
)

// NumericProfile holds aggregate statistics for a numeric column.
// Pointers are nil when the column is entirely null.
type NumericProfile struct {
	Min       *float64
	Max       *float64
	Avg       *float64
	StdDev    *float64
	NullCount uint64
}

// CategoricalProfile holds cardinality and mode statistics
type CategoricalProfile struct {
	UniqueCount       uint64
	NullCount         uint64
	MostFrequent      *string
	MostFrequentCount uint64
}

// DateProfile holds the observed date range
type DateProfile struct {
	Min       *time.Time
	Max       *time.Time
	NullCount uint64
}

// StringProfile holds cardinality statistics for free-form strings
type StringProfile struct {
	UniqueCount      uint64
	NullOrEmptyCount uint64
}

// LoanSummary is the per-loan view served by the read API
type LoanSummary struct {
	LoanAccountNumber           string
	OriginalLoanAmount          *float64
	OutstandingPrincipalBalance *float64
	LoanStatusCode              *string
	DaysPastDue                 *int32
}

// Warehouse is the columnar store behind the sync pipeline: staging table
// lifecycle, batch inserts, atomic partition replace and the analytic queries
// used by validation and profiling.
type Warehouse interface {
	InitTables(ctx context.Context) error

	// PrepareStaging drops any stale staging table for the (tenant, category)
	// pair and creates a fresh one with the base table's schema. Returns the
	// deterministic staging name.
	PrepareStaging(ctx context.Context, base string, tenantID string, category LoanCategory) (string, error)
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error
	// CopyPartition fills staging from the live (tenant, category) partition
	// of base, used when the upstream version is unchanged.
	CopyPartition(ctx context.Context, staging, base string, tenantID string, category LoanCategory) error
	// SwapPartition atomically replaces the (tenant, category) partition of
	// base with staging's contents, then drops staging.
	SwapPartition(ctx context.Context, base, staging string, tenantID string, category LoanCategory) error
	DropTable(ctx context.Context, table string) error
	CountRows(ctx context.Context, table string) (uint64, error)

	// Validation checks over staging.
	CountGhostLoans(ctx context.Context, stgCredits string) (uint64, error)
	CountOrphanPayments(ctx context.Context, stgPayments, stgCredits string) (uint64, error)
	CountNegativeBalances(ctx context.Context, stgCredits string) (uint64, error)

	// Per-field profiling over staging.
	ProfileNumeric(ctx context.Context, table, field string) (*NumericProfile, error)
	ProfileCategorical(ctx context.Context, table, field string) (*CategoricalProfile, error)
	ProfileDate(ctx context.Context, table, field string) (*DateProfile, error)
	ProfileString(ctx context.Context, table, field string) (*StringProfile, error)

	// ListLoanSummaries serves the read API from the live credits partition.
	ListLoanSummaries(ctx context.Context, tenantID string, category LoanCategory, limit int) ([]*LoanSummary, error)
}
