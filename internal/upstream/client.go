// Package upstream talks to the per-tenant external bank API: lightweight
// version probes via HEAD, and streaming JSON ingest into warehouse staging
// tables via GET.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/teamsec/banksync/internal/domain"
	"github.com/teamsec/banksync/internal/normalizer"
)

// BatchInserter receives column-ordered row batches, satisfied by the
// warehouse client.
type BatchInserter interface {
	InsertBatch(ctx context.Context, table string, columns []string, rows [][]any) error
}

// Client is the upstream bank API client
type Client struct {
	http         *http.Client
	inserter     BatchInserter
	batchSize    int
	probeTimeout time.Duration
	logger       zerolog.Logger
}

// NewClient creates an upstream client. batchSize bounds loader memory to
// roughly batchSize rows plus the HTTP buffer.
func NewClient(inserter BatchInserter, batchSize int, probeTimeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		http:         &http.Client{},
		inserter:     inserter,
		batchSize:    batchSize,
		probeTimeout: probeTimeout,
		logger:       logger.With().Str("component", "upstream").Logger(),
	}
}

func (c *Client) newRequest(ctx context.Context, method string, tenant *domain.Tenant, fileType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, tenant.APIURL, nil)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("file_type", fileType)
	q.Set("tenant", tenant.TenantID)
	req.URL.RawQuery = q.Encode()
	if tenant.APIToken != nil {
		req.Header.Set("Authorization", "Bearer "+*tenant.APIToken)
	}
	return req, nil
}

// RemoteVersion probes the upstream data version for one file type. Any
// irregularity (timeout, non-200, missing or non-integer header) yields nil
// so the caller skips the pair for this tick; the probe never fails hard.
func (c *Client) RemoteVersion(ctx context.Context, tenant *domain.Tenant, fileType string) *int64 {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodHead, tenant, fileType)
	if err != nil {
		c.logger.Warn().Err(err).Str("tenant_id", tenant.TenantID).Str("file_type", fileType).Msg("Version check failed")
		return nil
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn().Err(err).Str("tenant_id", tenant.TenantID).Str("file_type", fileType).Msg("Version check failed")
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}
	version, err := strconv.ParseInt(resp.Header.Get("X-Data-Version"), 10, 64)
	if err != nil {
		return nil
	}
	return &version
}

// StreamToStaging downloads one upstream file and loads it into staging.
// The body is consumed as a streamed JSON array: each record gets tenant_id
// and loan_type injected, is normalized leniently, projected into the base
// table's column order and buffered; the buffer flushes every batchSize rows
// and once at stream end. Returns total rows inserted.
func (c *Client) StreamToStaging(ctx context.Context, tenant *domain.Tenant, category domain.LoanCategory, fileType, staging, base string) (int64, error) {
	columns := domain.CreditColumns
	normalize := normalizer.NormalizeCredit
	if base == domain.PaymentsTable {
		columns = domain.PaymentColumns
		normalize = normalizer.NormalizePayment
	}

	req, err := c.newRequest(ctx, http.MethodGet, tenant, fileType)
	if err != nil {
		return 0, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download %s for %s: %w", fileType, tenant.TenantID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: API error %d for %s", domain.ErrUpstreamUnavailable, resp.StatusCode, fileType)
	}

	dec := json.NewDecoder(resp.Body)
	tok, err := dec.Token()
	if err != nil {
		return 0, fmt.Errorf("read stream for %s: %w", fileType, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '[' {
		return 0, fmt.Errorf("unexpected stream start for %s: %v", fileType, tok)
	}

	batch := make([][]any, 0, c.batchSize)
	var total int64
	for dec.More() {
		rec := make(normalizer.RawRecord)
		if err := dec.Decode(&rec); err != nil {
			return total, fmt.Errorf("decode record in %s stream: %w", fileType, err)
		}
		rec["tenant_id"] = normalizer.String(tenant.TenantID)
		rec["loan_type"] = normalizer.String(string(category))

		row, err := normalize(rec, false)
		if err != nil {
			// Lenient mode nils bad fields instead of failing rows.
			continue
		}
		batch = append(batch, normalizer.Project(row, columns))

		if len(batch) >= c.batchSize {
			if err := c.inserter.InsertBatch(ctx, staging, columns, batch); err != nil {
				return total, err
			}
			total += int64(len(batch))
			batch = make([][]any, 0, c.batchSize)
		}
	}

	if len(batch) > 0 {
		if err := c.inserter.InsertBatch(ctx, staging, columns, batch); err != nil {
			return total, err
		}
		total += int64(len(batch))
	}

	c.logger.Info().
		Str("tenant_id", tenant.TenantID).
		Str("file_type", fileType).
		Str("staging", staging).
		Int64("rows", total).
		Msg("Loaded upstream stream into staging")
	return total, nil
}
