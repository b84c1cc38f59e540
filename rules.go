package smartrouter

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Predicate decides whether a rule applies to a query. A returned error is
// treated as a non-match and reported as a diagnostic; it never fails the
// request.
type Predicate func(Query) (bool, error)

// RoutingRule forces a model for queries matching its predicate. Rules are
// evaluated by priority descending; equal priorities keep registration
// order. A rule is immutable once registered except for its Disabled flag.
type RoutingRule struct {
	Name     string
	When     Predicate
	Model    string
	Priority int
	Disabled bool
}

// DefaultRulePriority is the priority assigned by NewRule.
const DefaultRulePriority = 50

// NewRule builds a rule with the default priority.
func NewRule(name string, when Predicate, model string) RoutingRule {
	return RoutingRule{Name: name, When: when, Model: model, Priority: DefaultRulePriority}
}

// WithPriority returns a copy of the rule with the given priority.
func (r RoutingRule) WithPriority(p int) RoutingRule {
	r.Priority = p
	return r
}

// WhenTaskType matches queries classified as any of the given task types.
func WhenTaskType(types ...TaskType) Predicate {
	return func(q Query) (bool, error) {
		for _, tt := range types {
			if q.TaskType == tt {
				return true, nil
			}
		}
		return false, nil
	}
}

// WhenComplexityAbove matches queries with a complexity score above x.
func WhenComplexityAbove(x float64) Predicate {
	return func(q Query) (bool, error) {
		return q.Complexity > x, nil
	}
}

// WhenComplexityBelow matches queries with a complexity score below x.
func WhenComplexityBelow(x float64) Predicate {
	return func(q Query) (bool, error) {
		return q.Complexity < x, nil
	}
}

// WhenContains matches queries whose text contains any of the given
// substrings, case-insensitively.
func WhenContains(substrings ...string) Predicate {
	lowered := make([]string, len(substrings))
	for i, s := range substrings {
		lowered[i] = strings.ToLower(s)
	}
	return func(q Query) (bool, error) {
		text := strings.ToLower(q.Raw)
		for _, s := range lowered {
			if strings.Contains(text, s) {
				return true, nil
			}
		}
		return false, nil
	}
}

// WhenTokensAbove matches queries longer than n tokens.
func WhenTokensAbove(n int64) Predicate {
	return func(q Query) (bool, error) {
		return q.Tokens > n, nil
	}
}

// WhenTagged matches queries carrying the given tag.
func WhenTagged(tag string) Predicate {
	return func(q Query) (bool, error) {
		return q.HasTag(tag), nil
	}
}

// WhenRegion matches queries requested from any of the given regions.
func WhenRegion(regions ...string) Predicate {
	return func(q Query) (bool, error) {
		for _, r := range regions {
			if q.Region == r {
				return true, nil
			}
		}
		return false, nil
	}
}

// ruleEntry pairs a rule with its registration sequence for tie-breaking.
type ruleEntry struct {
	rule RoutingRule
	seq  int
}

// RuleEngine holds user-defined routing rules. Mutations build a fresh
// evaluation snapshot under the lock; Evaluate reads the snapshot without
// blocking writers, so a concurrent mutation is never observed mid-update.
type RuleEngine struct {
	mu      sync.RWMutex
	entries []ruleEntry // registration order
	eval    []ruleEntry // priority desc, then registration order
	seq     int

	catalog *Catalog
	meter   Meter
}

// NewRuleEngine creates a rule engine that resolves rule targets against
// the given catalog. A nil meter suppresses diagnostics.
func NewRuleEngine(catalog *Catalog, meter Meter) *RuleEngine {
	if meter == nil {
		meter = noopMeter{}
	}
	return &RuleEngine{catalog: catalog, meter: meter}
}

// Add registers a rule. Fails with ErrDuplicateRule if a rule with the same
// name exists; the rule set is unchanged on any error.
func (e *RuleEngine) Add(rule RoutingRule) error {
	if rule.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRule)
	}
	if rule.Model == "" {
		return fmt.Errorf("%w: rule %q: model is required", ErrInvalidRule, rule.Name)
	}
	if rule.When == nil {
		return fmt.Errorf("%w: rule %q: predicate is required", ErrInvalidRule, rule.Name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for _, en := range e.entries {
		if en.rule.Name == rule.Name {
			return fmt.Errorf("%w: %q", ErrDuplicateRule, rule.Name)
		}
	}

	e.entries = append(e.entries, ruleEntry{rule: rule, seq: e.seq})
	e.seq++
	e.rebuild()
	return nil
}

// Remove unregisters a rule by name.
func (e *RuleEngine) Remove(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, en := range e.entries {
		if en.rule.Name == name {
			e.entries = append(e.entries[:i:i], e.entries[i+1:]...)
			e.rebuild()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrRuleNotFound, name)
}

// Enable re-enables a disabled rule.
func (e *RuleEngine) Enable(name string) error {
	return e.setDisabled(name, false)
}

// Disable turns a rule off without removing it.
func (e *RuleEngine) Disable(name string) error {
	return e.setDisabled(name, true)
}

func (e *RuleEngine) setDisabled(name string, disabled bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, en := range e.entries {
		if en.rule.Name == name {
			entries := make([]ruleEntry, len(e.entries))
			copy(entries, e.entries)
			entries[i].rule.Disabled = disabled
			e.entries = entries
			e.rebuild()
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrRuleNotFound, name)
}

// rebuild refreshes the evaluation snapshot. Must be called with the lock
// held.
func (e *RuleEngine) rebuild() {
	eval := make([]ruleEntry, len(e.entries))
	copy(eval, e.entries)
	sort.SliceStable(eval, func(i, j int) bool {
		return eval[i].rule.Priority > eval[j].rule.Priority
	})
	e.eval = eval
}

// Evaluate returns the target model of the first enabled rule matching the
// query, in priority order. Rules whose predicate fails or whose target is
// not in the catalog are skipped with a diagnostic.
func (e *RuleEngine) Evaluate(q Query) (model string, ruleName string, ok bool) {
	e.mu.RLock()
	eval := e.eval
	e.mu.RUnlock()

	for _, en := range eval {
		if en.rule.Disabled {
			continue
		}
		matched, err := safeMatch(en.rule.When, q)
		if err != nil {
			e.meter.OnError(ErrorEvent{Op: OpRule, Rule: en.rule.Name, Err: err})
			continue
		}
		if !matched {
			continue
		}
		if !e.catalog.Has(en.rule.Model) {
			e.meter.OnError(ErrorEvent{
				Op:    OpRule,
				Rule:  en.rule.Name,
				Model: en.rule.Model,
				Err:   ErrUnknownModel,
			})
			continue
		}
		return en.rule.Model, en.rule.Name, true
	}
	return "", "", false
}

// Rules returns a snapshot of the registered rules in evaluation order.
func (e *RuleEngine) Rules() []RoutingRule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]RoutingRule, len(e.eval))
	for i, en := range e.eval {
		out[i] = en.rule
	}
	return out
}

// safeMatch runs a predicate, converting a panic into an error so a faulty
// user rule cannot break routing.
func safeMatch(p Predicate, q Query) (matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			matched = false
			err = fmt.Errorf("smartrouter: rule predicate panic: %v", r)
		}
	}()
	return p(q)
}
