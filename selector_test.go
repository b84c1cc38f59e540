package smartrouter_test

import (
	"testing"

	sr "github.com/smartllm/smartrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultModels() []sr.ModelProfile {
	return sr.DefaultCatalog().Models()
}

func TestSelect_CostOptimizedRespectsTierFloor(t *testing.T) {
	s := sr.NewSelector()

	tests := []struct {
		name       string
		complexity float64
		want       string
	}{
		{"simple query gets cheapest", 0.2, "mistral-7b"},
		{"moderate query needs medium tier", 0.5, "gemini-pro"},
		{"complex query needs high tier", 0.8, "gpt-4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := sr.Query{Complexity: tt.complexity}
			m, err := s.Select(q, sr.StrategyCostOptimized, sr.BudgetView{}, defaultModels())
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.ID)
		})
	}
}

func TestSelect_CostOptimizedRelaxesFloorWhenNothingQualifies(t *testing.T) {
	s := sr.NewSelector()
	models := []sr.ModelProfile{
		{ID: "small-a", Provider: "p", InputPer1K: 0.001, OutputPer1K: 0.001, Tier: sr.TierLow},
		{ID: "small-b", Provider: "p", InputPer1K: 0.0005, OutputPer1K: 0.0005, Tier: sr.TierLow},
	}

	m, err := s.Select(sr.Query{Complexity: 0.9}, sr.StrategyCostOptimized, sr.BudgetView{}, models)
	require.NoError(t, err)
	assert.Equal(t, "small-b", m.ID)
}

func TestSelect_Balanced(t *testing.T) {
	s := sr.NewSelector()

	// gemini-pro is near the price floor at a medium tier, the best blend in
	// the default catalog.
	m, err := s.Select(sr.Query{Complexity: 0.3}, sr.StrategyBalanced, sr.BudgetView{}, defaultModels())
	require.NoError(t, err)
	assert.Equal(t, "gemini-pro", m.ID)
}

func TestSelect_QualityFirst(t *testing.T) {
	s := sr.NewSelector()

	// The cheaper of the two high-tier models.
	m, err := s.Select(sr.Query{Complexity: 0.1}, sr.StrategyQualityFirst, sr.BudgetView{}, defaultModels())
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", m.ID)
}

func TestSelect_ExhaustedBudgetOverridesStrategy(t *testing.T) {
	s := sr.NewSelector()
	budget := sr.BudgetView{Spent: 10, Limit: 5}

	m, err := s.Select(sr.Query{Complexity: 0.9}, sr.StrategyQualityFirst, budget, defaultModels())
	require.NoError(t, err)
	assert.Equal(t, "mistral-7b", m.ID)
}

func TestSelect_FiltersByContextWindow(t *testing.T) {
	s := sr.NewSelector()

	// 20k tokens exceed gpt-4's 8k window; claude-3-opus is the remaining
	// high-tier model.
	q := sr.Query{Complexity: 0.9, Tokens: 20000}
	m, err := s.Select(q, sr.StrategyQualityFirst, sr.BudgetView{}, defaultModels())
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus", m.ID)

	// Nothing in the default catalog fits 300k tokens.
	q = sr.Query{Tokens: 300000}
	_, err = s.Select(q, sr.StrategyCostOptimized, sr.BudgetView{}, defaultModels())
	assert.ErrorIs(t, err, sr.ErrNoAvailableModel)
}

func TestSelect_UnboundedContextAlwaysFits(t *testing.T) {
	s := sr.NewSelector()
	models := []sr.ModelProfile{
		{ID: "unbounded", Provider: "p", InputPer1K: 0.01, OutputPer1K: 0.01, Tier: sr.TierMedium},
	}

	m, err := s.Select(sr.Query{Tokens: 1 << 20}, sr.StrategyBalanced, sr.BudgetView{}, models)
	require.NoError(t, err)
	assert.Equal(t, "unbounded", m.ID)
}

func TestSelect_EmptyModelSet(t *testing.T) {
	s := sr.NewSelector()

	_, err := s.Select(sr.Query{}, sr.StrategyBalanced, sr.BudgetView{}, nil)
	assert.ErrorIs(t, err, sr.ErrNoAvailableModel)
}

func TestSelect_UnknownStrategy(t *testing.T) {
	s := sr.NewSelector()

	_, err := s.Select(sr.Query{}, sr.Strategy("turbo"), sr.BudgetView{}, defaultModels())
	assert.ErrorIs(t, err, sr.ErrUnknownStrategy)
}

func TestSelect_PriceTiesBreakByID(t *testing.T) {
	s := sr.NewSelector()
	models := []sr.ModelProfile{
		{ID: "zeta", Provider: "p", InputPer1K: 0.001, OutputPer1K: 0.001, Tier: sr.TierLow},
		{ID: "alpha", Provider: "p", InputPer1K: 0.001, OutputPer1K: 0.001, Tier: sr.TierLow},
	}

	m, err := s.Select(sr.Query{}, sr.StrategyCostOptimized, sr.BudgetView{}, models)
	require.NoError(t, err)
	assert.Equal(t, "alpha", m.ID)
}

func TestParseStrategy(t *testing.T) {
	for _, valid := range []string{"cost_optimized", "balanced", "quality_first"} {
		s, err := sr.ParseStrategy(valid)
		require.NoError(t, err)
		assert.Equal(t, sr.Strategy(valid), s)
	}

	_, err := sr.ParseStrategy("fastest")
	assert.ErrorIs(t, err, sr.ErrUnknownStrategy)

	_, err = sr.ParseStrategy("")
	assert.ErrorIs(t, err, sr.ErrUnknownStrategy)
}

func TestBudgetView(t *testing.T) {
	unlimited := sr.BudgetView{Spent: 100}
	assert.False(t, unlimited.Exhausted())
	assert.Equal(t, 0.0, unlimited.Remaining())

	open := sr.BudgetView{Spent: 2, Limit: 5}
	assert.False(t, open.Exhausted())
	assert.Equal(t, 3.0, open.Remaining())

	exhausted := sr.BudgetView{Spent: 5, Limit: 5}
	assert.True(t, exhausted.Exhausted())
	assert.Equal(t, 0.0, exhausted.Remaining())
}
