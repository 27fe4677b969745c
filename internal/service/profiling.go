package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/teamsec/banksync/internal/domain"
)

// profile computes per-field statistics over both staging tables and returns
// them as one JSON document keyed by table role.
func (s *PipelineService) profile(ctx context.Context, stgCredits, stgPayments string) (json.RawMessage, error) {
	stats := map[string]any{
		"credits":  s.profileTable(ctx, stgCredits, domain.CreditsTable, domain.CreditFieldSchema),
		"payments": s.profileTable(ctx, stgPayments, domain.PaymentsTable, domain.PaymentFieldSchema),
	}
	doc, err := json.Marshal(stats)
	if err != nil {
		return nil, fmt.Errorf("marshal profiling stats: %w", err)
	}
	return doc, nil
}

// profileTable profiles every schema field of one staging table. A failing
// query degrades that field (or the whole table) to an error entry instead of
// failing the sync; profiling is reporting, not validation.
func (s *PipelineService) profileTable(ctx context.Context, table, base string, schema []domain.FieldSpec) map[string]any {
	total, err := s.warehouse.CountRows(ctx, table)
	if err != nil {
		return map[string]any{"_meta": map[string]any{"error": err.Error()}}
	}

	stats := map[string]any{
		"_meta": map[string]any{"total_rows": total, "table": base},
	}
	if total == 0 {
		return stats
	}
	for _, field := range schema {
		switch field.Type {
		case domain.FieldNumeric:
			p, err := s.warehouse.ProfileNumeric(ctx, table, field.Name)
			if err != nil {
				stats[field.Name] = map[string]any{"error": err.Error()}
				continue
			}
			stats[field.Name] = map[string]any{
				"min":        safeFloat(p.Min),
				"max":        safeFloat(p.Max),
				"avg":        safeFloat(p.Avg),
				"stddev":     safeFloat(p.StdDev),
				"null_count": p.NullCount,
				"null_ratio": ratio(p.NullCount, total),
			}
		case domain.FieldCategorical:
			p, err := s.warehouse.ProfileCategorical(ctx, table, field.Name)
			if err != nil {
				stats[field.Name] = map[string]any{"error": err.Error()}
				continue
			}
			stats[field.Name] = map[string]any{
				"unique_count":        p.UniqueCount,
				"null_count":          p.NullCount,
				"null_ratio":          ratio(p.NullCount, total),
				"most_frequent":       p.MostFrequent,
				"most_frequent_count": p.MostFrequentCount,
				"most_frequent_pct":   ratio(p.MostFrequentCount, total),
			}
		case domain.FieldDate:
			p, err := s.warehouse.ProfileDate(ctx, table, field.Name)
			if err != nil {
				stats[field.Name] = map[string]any{"error": err.Error()}
				continue
			}
			stats[field.Name] = map[string]any{
				"min":        isoDate(p.Min),
				"max":        isoDate(p.Max),
				"null_count": p.NullCount,
				"null_ratio": ratio(p.NullCount, total),
			}
		case domain.FieldString:
			p, err := s.warehouse.ProfileString(ctx, table, field.Name)
			if err != nil {
				stats[field.Name] = map[string]any{"error": err.Error()}
				continue
			}
			stats[field.Name] = map[string]any{
				"unique_count":        p.UniqueCount,
				"null_or_empty_count": p.NullOrEmptyCount,
				"null_or_empty_ratio": ratio(p.NullOrEmptyCount, total),
			}
		}
	}
	return stats
}

// safeFloat rounds to 4 decimals for the report and drops values JSON cannot
// carry. avg() over an all-null column yields NaN.
func safeFloat(v *float64) any {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return math.Round(*v*10000) / 10000
}

func isoDate(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02")
}

// ratio clamps to 0 for an empty table.
func ratio(count, total uint64) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(count)/float64(total)*10000) / 10000
}
