package smartrouter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Tracker owns the daily budget state and the decision history. The budget
// counters and the history append are committed under one lock, so the sum
// of recorded costs for the current day always matches DailyCost.
type Tracker struct {
	mu          sync.Mutex
	spent       float64
	limit       float64
	periodStart time.Time

	catalog  *Catalog
	baseline ModelProfile
	store    DecisionStore
	meter    Meter
	now      func() time.Time
}

// NewTracker creates a Tracker. A dailyLimit of 0 means unlimited. A nil
// store falls back to an in-memory history; a nil meter suppresses
// diagnostics.
func NewTracker(catalog *Catalog, baseline ModelProfile, dailyLimit float64, store DecisionStore, meter Meter) *Tracker {
	if store == nil {
		store = NewMemoryStore(0)
	}
	if meter == nil {
		meter = noopMeter{}
	}
	now := time.Now
	return &Tracker{
		limit:       dailyLimit,
		periodStart: midnightUTC(now()),
		catalog:     catalog,
		baseline:    baseline,
		store:       store,
		meter:       meter,
		now:         now,
	}
}

// Record computes cost and savings for a completed provider call, adds the
// cost to the daily counters, and appends the decision to the history. The
// history append survives caller cancellation: cost already incurred at the
// provider is accounted even when the caller has gone away. A failed append
// is reported as a diagnostic and does not fail the request.
func (t *Tracker) Record(ctx context.Context, d RoutingDecision) (cost, savings float64, err error) {
	profile, ok := t.catalog.Get(d.Model)
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownModel, d.Model)
	}

	cost = profile.Cost(d.InputTokens, d.OutputTokens)
	savings = t.baseline.Cost(d.InputTokens, d.OutputTokens) - cost
	if savings < 0 {
		savings = 0
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.rollover(now)
	t.spent += cost

	d.Cost = cost
	d.Savings = savings
	t.append(ctx, d, now)

	return cost, savings, nil
}

// RecordCacheHit appends a zero-cost decision for a request served from
// cache. The budget counters are not touched.
func (t *Tracker) RecordCacheHit(ctx context.Context, d RoutingDecision) {
	d.Cost = 0
	d.Savings = 0
	d.CacheHit = true

	t.mu.Lock()
	defer t.mu.Unlock()
	t.append(ctx, d, t.now())
}

// append fills defaults and writes to the store. Must be called with the
// lock held.
func (t *Tracker) append(ctx context.Context, d RoutingDecision, now time.Time) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Time.IsZero() {
		d.Time = now.UTC()
	}
	if err := t.store.Append(context.WithoutCancel(ctx), d); err != nil {
		t.meter.OnError(ErrorEvent{Op: OpStoreAppend, Model: d.Model, Err: err})
	}
}

// DailyCost returns the spend for the current UTC day.
func (t *Tracker) DailyCost() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(t.now())
	return t.spent
}

// Budget returns a snapshot of the current budget state.
func (t *Tracker) Budget() BudgetView {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.rollover(t.now())
	return BudgetView{Spent: t.spent, Limit: t.limit, PeriodStart: t.periodStart}
}

// rollover resets the counters when the UTC day has changed. Must be called
// with the lock held.
func (t *Tracker) rollover(now time.Time) {
	now = now.UTC()
	if now.Year() != t.periodStart.Year() || now.YearDay() != t.periodStart.YearDay() {
		t.spent = 0
		t.periodStart = midnightUTC(now)
	}
}

func midnightUTC(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
