package insight

import (
	"fmt"
	"sort"
)

// Rule is one named analytical pattern. Eval returns nil when the pattern
// does not apply to the context.
type Rule[C any] struct {
	Name string
	Eval func(ctx *C) *Insight
}

// RuleSet is a named, ordered group of rules for one context shape.
type RuleSet[C any] struct {
	Name  string
	Rules []Rule[C]
}

// Concat returns a new set named name holding the rules of every set in
// order. The inputs are not modified.
func Concat[C any](name string, sets ...RuleSet[C]) RuleSet[C] {
	var n int
	for _, s := range sets {
		n += len(s.Rules)
	}
	rules := make([]Rule[C], 0, n)
	for _, s := range sets {
		rules = append(rules, s.Rules...)
	}
	return RuleSet[C]{Name: name, Rules: rules}
}

// With returns a copy of the set with extra rules appended.
func (s RuleSet[C]) With(name string, rules ...Rule[C]) RuleSet[C] {
	return Concat(name, s, RuleSet[C]{Rules: rules})
}

// Names lists the rule names in evaluation order.
func (s RuleSet[C]) Names() []string {
	names := make([]string, len(s.Rules))
	for i, r := range s.Rules {
		names[i] = r.Name
	}
	return names
}

// RuleFault reports a rule that panicked during evaluation.
type RuleFault struct {
	Rule  string
	Value any
}

func (f *RuleFault) Error() string {
	return fmt.Sprintf("rule %q panicked: %v", f.Rule, f.Value)
}

// FaultHandler receives rule faults. It must be safe for concurrent use when
// the engine is shared across goroutines.
type FaultHandler func(fault *RuleFault)

// Engine runs a rule set against contexts of type C.
type Engine[C any] struct {
	set     RuleSet[C]
	onFault FaultHandler
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	onFault FaultHandler
}

// WithFaultHandler installs a callback invoked for every recovered rule panic.
func WithFaultHandler(h FaultHandler) EngineOption {
	return func(o *engineOptions) {
		o.onFault = h
	}
}

// NewEngine creates an engine for the given rule set.
func NewEngine[C any](set RuleSet[C], opts ...EngineOption) *Engine[C] {
	var o engineOptions
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine[C]{set: set, onFault: o.onFault}
}

// Run evaluates every rule against ctx and returns the ranked results. A
// positive limit truncates the output.
func (e *Engine[C]) Run(ctx *C, limit int) []Insight {
	return evaluate(e.set.Rules, ctx, limit, e.onFault)
}

// Evaluate runs rules against ctx, drops nil results and panicking rules,
// ranks the rest by priority and truncates to limit when limit > 0.
func Evaluate[C any](rules []Rule[C], ctx *C, limit int) []Insight {
	return evaluate(rules, ctx, limit, nil)
}

func evaluate[C any](rules []Rule[C], ctx *C, limit int, onFault FaultHandler) []Insight {
	var all []Insight
	for _, rule := range rules {
		if res, fault := safeEval(rule, ctx); fault != nil {
			if onFault != nil {
				onFault(fault)
			}
		} else if res != nil {
			all = append(all, *res)
		}
	}
	return Truncate(RankInsights(all), limit)
}

func safeEval[C any](rule Rule[C], ctx *C) (res *Insight, fault *RuleFault) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			fault = &RuleFault{Rule: rule.Name, Value: r}
		}
	}()
	if rule.Eval == nil {
		return nil, nil
	}
	return rule.Eval(ctx), nil
}

// RankInsights returns a copy sorted by ascending priority. Unset priorities
// rank as DefaultPriority and equal priorities keep their input order.
func RankInsights(insights []Insight) []Insight {
	sorted := make([]Insight, len(insights))
	copy(sorted, insights)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EffectivePriority() < sorted[j].EffectivePriority()
	})
	return sorted
}

// Truncate returns at most limit insights. A limit <= 0 keeps everything.
func Truncate(insights []Insight, limit int) []Insight {
	if limit > 0 && len(insights) > limit {
		return insights[:limit]
	}
	return insights
}
