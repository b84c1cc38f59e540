package smartrouter

import (
	"fmt"
	"sort"
	"time"
)

// Strategy names a policy governing the price/quality tradeoff in model
// selection.
type Strategy string

const (
	// StrategyCostOptimized picks the cheapest model whose quality tier
	// meets a floor derived from query complexity.
	StrategyCostOptimized Strategy = "cost_optimized"

	// StrategyBalanced minimizes an equally weighted blend of normalized
	// price and quality shortfall.
	StrategyBalanced Strategy = "balanced"

	// StrategyQualityFirst picks the highest quality tier regardless of
	// price.
	StrategyQualityFirst Strategy = "quality_first"
)

// DefaultStrategy is used when the configuration does not name one.
const DefaultStrategy = StrategyBalanced

// ParseStrategy parses a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyCostOptimized, StrategyBalanced, StrategyQualityFirst:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// BudgetView is a point-in-time snapshot of the daily budget.
type BudgetView struct {
	Spent       float64
	Limit       float64
	PeriodStart time.Time
}

// Remaining returns the budget left for the current period. A limit of 0
// means unlimited, reported as 0 remaining.
func (b BudgetView) Remaining() float64 {
	if b.Limit <= 0 {
		return 0
	}
	if r := b.Limit - b.Spent; r > 0 {
		return r
	}
	return 0
}

// Exhausted reports whether the daily limit has been reached. A limit of 0
// means no limit.
func (b BudgetView) Exhausted() bool {
	return b.Limit > 0 && b.Spent >= b.Limit
}

// Selector picks a model for an analyzed query under a strategy. Selection
// is deterministic for identical inputs.
type Selector struct {
	// Objective weights for StrategyBalanced. Both default to 0.5.
	PriceWeight   float64
	QualityWeight float64
}

// NewSelector creates a Selector with equal balanced-strategy weights.
func NewSelector() *Selector {
	return &Selector{PriceWeight: 0.5, QualityWeight: 0.5}
}

// Select picks a model from the available set. An exhausted budget forces
// the cheapest model regardless of strategy. Fails with ErrNoAvailableModel
// if no model remains after context-length filtering.
func (s *Selector) Select(q Query, strategy Strategy, budget BudgetView, models []ModelProfile) (ModelProfile, error) {
	if len(models) == 0 {
		return ModelProfile{}, ErrNoAvailableModel
	}

	candidates := filterByContext(models, q.Tokens+q.EstimatedOutput)
	if len(candidates) == 0 {
		return ModelProfile{}, fmt.Errorf("%w: no model fits %d tokens", ErrNoAvailableModel, q.Tokens+q.EstimatedOutput)
	}

	// The budget ceiling wins over any strategy. Matched rules are applied
	// by the router before selection and are not capped here.
	if budget.Exhausted() {
		return cheapest(candidates), nil
	}

	switch strategy {
	case StrategyCostOptimized:
		return s.selectCostOptimized(q, candidates), nil
	case StrategyBalanced:
		return s.selectBalanced(candidates), nil
	case StrategyQualityFirst:
		return s.selectQualityFirst(candidates), nil
	default:
		return ModelProfile{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}
}

// tierFloor maps a complexity score to the minimum acceptable quality tier.
func tierFloor(complexity float64) Tier {
	switch {
	case complexity >= 0.75:
		return TierHigh
	case complexity >= 0.35:
		return TierMedium
	default:
		return TierLow
	}
}

// selectCostOptimized picks the cheapest model meeting the complexity tier
// floor, relaxing the floor one tier at a time if nothing meets it.
func (s *Selector) selectCostOptimized(q Query, candidates []ModelProfile) ModelProfile {
	for floor := tierFloor(q.Complexity); floor > TierLow; floor-- {
		var eligible []ModelProfile
		for _, m := range candidates {
			if m.Tier >= floor {
				eligible = append(eligible, m)
			}
		}
		if len(eligible) > 0 {
			return cheapest(eligible)
		}
	}
	return cheapest(candidates)
}

// selectBalanced minimizes priceWeight*priceNorm + qualityWeight*(1-tierNorm),
// with prices min-max normalized across the candidate set.
func (s *Selector) selectBalanced(candidates []ModelProfile) ModelProfile {
	minP, maxP := candidates[0].BlendedPrice(), candidates[0].BlendedPrice()
	for _, m := range candidates[1:] {
		p := m.BlendedPrice()
		if p < minP {
			minP = p
		}
		if p > maxP {
			maxP = p
		}
	}

	priceNorm := func(m ModelProfile) float64 {
		if maxP == minP {
			return 0
		}
		return (m.BlendedPrice() - minP) / (maxP - minP)
	}
	tierNorm := func(m ModelProfile) float64 {
		return float64(m.Tier) / float64(TierHigh)
	}

	best := candidates[0]
	bestScore := s.PriceWeight*priceNorm(best) + s.QualityWeight*(1-tierNorm(best))
	for _, m := range candidates[1:] {
		score := s.PriceWeight*priceNorm(m) + s.QualityWeight*(1-tierNorm(m))
		if score < bestScore || (score == bestScore && lessByPrice(m, best)) {
			best, bestScore = m, score
		}
	}
	return best
}

// selectQualityFirst picks the highest tier available; ties go to the
// cheaper model.
func (s *Selector) selectQualityFirst(candidates []ModelProfile) ModelProfile {
	ordered := make([]ModelProfile, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Tier != ordered[j].Tier {
			return ordered[i].Tier > ordered[j].Tier
		}
		return lessByPrice(ordered[i], ordered[j])
	})
	return ordered[0]
}

// cheapest returns the lowest blended-price model, breaking ties by ID.
func cheapest(candidates []ModelProfile) ModelProfile {
	best := candidates[0]
	for _, m := range candidates[1:] {
		if lessByPrice(m, best) {
			best = m
		}
	}
	return best
}

// lessByPrice orders by blended price, then by ID for determinism.
func lessByPrice(a, b ModelProfile) bool {
	pa, pb := a.BlendedPrice(), b.BlendedPrice()
	if pa != pb {
		return pa < pb
	}
	return a.ID < b.ID
}

// filterByContext drops models whose context window cannot fit the
// estimated request plus response. A MaxContext of 0 means unbounded.
func filterByContext(models []ModelProfile, needed int64) []ModelProfile {
	var out []ModelProfile
	for _, m := range models {
		if m.MaxContext == 0 || needed <= m.MaxContext {
			out = append(out, m)
		}
	}
	return out
}
