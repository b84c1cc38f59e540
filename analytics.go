package smartrouter

import (
	"context"
	"fmt"
	"time"
)

// Analytics aggregates the decision history over the trailing periodDays
// days. Cost reduction compares actual spend against what the baseline
// model would have charged for the same traffic.
func (t *Tracker) Analytics(ctx context.Context, periodDays int) (Analytics, error) {
	if periodDays <= 0 {
		return Analytics{}, fmt.Errorf("%w: %d days", ErrInvalidPeriod, periodDays)
	}

	t.mu.Lock()
	since := t.now().UTC().Add(-time.Duration(periodDays) * 24 * time.Hour)
	t.mu.Unlock()

	decisions, err := t.store.List(ctx, since)
	if err != nil {
		return Analytics{}, fmt.Errorf("smartrouter: analytics: %w", err)
	}

	a := Analytics{
		PeriodDays:        periodDays,
		ModelDistribution: make(map[string]int64),
		DailyCosts:        make(map[string]float64),
	}

	var totalLatency time.Duration
	for _, d := range decisions {
		a.TotalRequests++
		a.TotalCost += d.Cost
		a.TotalSavings += d.Savings
		a.ModelDistribution[d.Model]++
		a.DailyCosts[d.Time.UTC().Format("2006-01-02")] += d.Cost
		totalLatency += d.Latency
		if d.CacheHit {
			a.CacheHits++
		}
	}

	if denom := a.TotalCost + a.TotalSavings; denom > 0 {
		a.CostReductionPct = a.TotalSavings / denom * 100
	}
	if a.TotalRequests > 0 {
		a.CacheHitRate = float64(a.CacheHits) / float64(a.TotalRequests)
		a.AvgLatency = totalLatency / time.Duration(a.TotalRequests)
	}

	return a, nil
}
