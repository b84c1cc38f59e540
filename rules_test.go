package smartrouter_test

import (
	"errors"
	"testing"

	sr "github.com/smartllm/smartrouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRule_Defaults(t *testing.T) {
	rule := sr.NewRule("premium", sr.WhenTaskType(sr.TaskCode), "gpt-4")
	assert.Equal(t, sr.DefaultRulePriority, rule.Priority)
	assert.False(t, rule.Disabled)

	boosted := rule.WithPriority(90)
	assert.Equal(t, 90, boosted.Priority)
	assert.Equal(t, sr.DefaultRulePriority, rule.Priority)
}

func TestRuleEngine_AddValidation(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)

	err := e.Add(sr.RoutingRule{When: sr.WhenTaskType(sr.TaskCode), Model: "gpt-4"})
	assert.ErrorIs(t, err, sr.ErrInvalidRule)

	err = e.Add(sr.RoutingRule{Name: "no_model", When: sr.WhenTaskType(sr.TaskCode)})
	assert.ErrorIs(t, err, sr.ErrInvalidRule)

	err = e.Add(sr.RoutingRule{Name: "no_predicate", Model: "gpt-4"})
	assert.ErrorIs(t, err, sr.ErrInvalidRule)
}

func TestRuleEngine_DuplicateName(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)

	require.NoError(t, e.Add(sr.NewRule("premium", sr.WhenTaskType(sr.TaskCode), "gpt-4")))
	err := e.Add(sr.NewRule("premium", sr.WhenTaskType(sr.TaskQA), "gpt-3.5-turbo"))
	assert.ErrorIs(t, err, sr.ErrDuplicateRule)

	// The original rule is untouched.
	rules := e.Rules()
	require.Len(t, rules, 1)
	assert.Equal(t, "gpt-4", rules[0].Model)
}

func TestRuleEngine_UnknownName(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)

	assert.ErrorIs(t, e.Remove("ghost"), sr.ErrRuleNotFound)
	assert.ErrorIs(t, e.Enable("ghost"), sr.ErrRuleNotFound)
	assert.ErrorIs(t, e.Disable("ghost"), sr.ErrRuleNotFound)
}

func TestRuleEngine_PriorityOrder(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)
	q := sr.Query{TaskType: sr.TaskCode}

	require.NoError(t, e.Add(sr.NewRule("low", sr.WhenTaskType(sr.TaskCode), "gpt-3.5-turbo").WithPriority(10)))
	require.NoError(t, e.Add(sr.NewRule("high", sr.WhenTaskType(sr.TaskCode), "gpt-4").WithPriority(90)))

	model, name, ok := e.Evaluate(q)
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model)
	assert.Equal(t, "high", name)
}

func TestRuleEngine_EqualPriorityKeepsRegistrationOrder(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)
	q := sr.Query{TaskType: sr.TaskCode}

	require.NoError(t, e.Add(sr.NewRule("first", sr.WhenTaskType(sr.TaskCode), "claude-3-haiku")))
	require.NoError(t, e.Add(sr.NewRule("second", sr.WhenTaskType(sr.TaskCode), "gpt-4o-mini")))

	model, name, ok := e.Evaluate(q)
	require.True(t, ok)
	assert.Equal(t, "claude-3-haiku", model)
	assert.Equal(t, "first", name)
}

func TestRuleEngine_DisableAndEnable(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)
	q := sr.Query{TaskType: sr.TaskCode}

	require.NoError(t, e.Add(sr.NewRule("premium", sr.WhenTaskType(sr.TaskCode), "gpt-4")))

	require.NoError(t, e.Disable("premium"))
	_, _, ok := e.Evaluate(q)
	assert.False(t, ok)

	require.NoError(t, e.Enable("premium"))
	model, _, ok := e.Evaluate(q)
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model)
}

func TestRuleEngine_PredicateErrorSkipsRule(t *testing.T) {
	capture := &captureMeter{}
	e := sr.NewRuleEngine(sr.DefaultCatalog(), capture)
	q := sr.Query{TaskType: sr.TaskCode}

	failing := func(q sr.Query) (bool, error) {
		return false, errors.New("lookup failed")
	}
	require.NoError(t, e.Add(sr.RoutingRule{Name: "broken", When: failing, Model: "gpt-4", Priority: 90}))
	require.NoError(t, e.Add(sr.NewRule("working", sr.WhenTaskType(sr.TaskCode), "claude-3-haiku")))

	model, name, ok := e.Evaluate(q)
	require.True(t, ok)
	assert.Equal(t, "claude-3-haiku", model)
	assert.Equal(t, "working", name)

	errs := capture.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, sr.OpRule, errs[0].Op)
	assert.Equal(t, "broken", errs[0].Rule)
}

func TestRuleEngine_PredicatePanicIsContained(t *testing.T) {
	capture := &captureMeter{}
	e := sr.NewRuleEngine(sr.DefaultCatalog(), capture)

	panicking := func(q sr.Query) (bool, error) {
		panic("boom")
	}
	require.NoError(t, e.Add(sr.RoutingRule{Name: "panicky", When: panicking, Model: "gpt-4", Priority: 90}))

	_, _, ok := e.Evaluate(sr.Query{})
	assert.False(t, ok)

	errs := capture.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "panicky", errs[0].Rule)
	assert.ErrorContains(t, errs[0].Err, "panic")
}

func TestRuleEngine_UnknownTargetSkipsRule(t *testing.T) {
	capture := &captureMeter{}
	e := sr.NewRuleEngine(sr.DefaultCatalog(), capture)
	q := sr.Query{TaskType: sr.TaskCode}

	require.NoError(t, e.Add(sr.RoutingRule{Name: "stale", When: sr.WhenTaskType(sr.TaskCode), Model: "gpt-99", Priority: 90}))
	require.NoError(t, e.Add(sr.NewRule("current", sr.WhenTaskType(sr.TaskCode), "gpt-4")))

	model, _, ok := e.Evaluate(q)
	require.True(t, ok)
	assert.Equal(t, "gpt-4", model)

	errs := capture.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, "stale", errs[0].Rule)
	assert.ErrorIs(t, errs[0].Err, sr.ErrUnknownModel)
}

func TestRuleEngine_RulesInEvaluationOrder(t *testing.T) {
	e := sr.NewRuleEngine(sr.DefaultCatalog(), nil)

	require.NoError(t, e.Add(sr.NewRule("middle", sr.WhenTaskType(sr.TaskQA), "gpt-4o-mini").WithPriority(50)))
	require.NoError(t, e.Add(sr.NewRule("top", sr.WhenTaskType(sr.TaskCode), "gpt-4").WithPriority(100)))
	require.NoError(t, e.Add(sr.NewRule("bottom", sr.WhenTaskType(sr.TaskOther), "mistral-7b").WithPriority(1)))

	rules := e.Rules()
	require.Len(t, rules, 3)
	assert.Equal(t, "top", rules[0].Name)
	assert.Equal(t, "middle", rules[1].Name)
	assert.Equal(t, "bottom", rules[2].Name)
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		pred sr.Predicate
		q    sr.Query
		want bool
	}{
		{"task type match", sr.WhenTaskType(sr.TaskCode, sr.TaskAnalysis), sr.Query{TaskType: sr.TaskAnalysis}, true},
		{"task type miss", sr.WhenTaskType(sr.TaskCode), sr.Query{TaskType: sr.TaskQA}, false},
		{"complexity above", sr.WhenComplexityAbove(0.5), sr.Query{Complexity: 0.7}, true},
		{"complexity above boundary", sr.WhenComplexityAbove(0.5), sr.Query{Complexity: 0.5}, false},
		{"complexity below", sr.WhenComplexityBelow(0.3), sr.Query{Complexity: 0.1}, true},
		{"contains case-insensitive", sr.WhenContains("URGENT"), sr.Query{Raw: "This is urgent, please help"}, true},
		{"contains any", sr.WhenContains("refund", "chargeback"), sr.Query{Raw: "I want a chargeback"}, true},
		{"contains miss", sr.WhenContains("refund"), sr.Query{Raw: "Just saying hello"}, false},
		{"tokens above", sr.WhenTokensAbove(100), sr.Query{Tokens: 250}, true},
		{"tokens at boundary", sr.WhenTokensAbove(100), sr.Query{Tokens: 100}, false},
		{"tagged", sr.WhenTagged("vip"), sr.Query{Tags: []string{"beta", "vip"}}, true},
		{"tagged miss", sr.WhenTagged("vip"), sr.Query{Tags: []string{"beta"}}, false},
		{"region match", sr.WhenRegion("eu-west", "eu-central"), sr.Query{Region: "eu-central"}, true},
		{"region miss", sr.WhenRegion("eu-west"), sr.Query{Region: "us-east"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.pred(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
