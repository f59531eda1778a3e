// Package validation holds the habit consistency rules checked before a
// habit is written to storage.
//
// Every rule runs on every candidate and all violations are reported
// together, in rule order. The only rule that touches storage resolves the
// related habit through a HabitLookup; if that lookup fails for reasons
// other than a missing habit, Validate stops and returns a *LookupError
// instead of a Result.
package validation

import (
	"context"
	"fmt"
	"time"
)

// Result is the aggregated outcome of a pipeline run.
type Result struct {
	Violations []Violation
}

// Accepted reports whether no rule was violated.
func (r Result) Accepted() bool {
	return len(r.Violations) == 0
}

// Messages returns the violation messages in evaluation order.
func (r Result) Messages() []string {
	messages := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		messages = append(messages, v.Message)
	}
	return messages
}

// LookupError means a rule could not be evaluated because a collaborator failed.
type LookupError struct {
	Rule string
	Err  error
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("validation rule %s: %v", e.Rule, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

type pipelineOptions struct {
	lookupTimeout time.Duration
}

// Option configures NewPipeline.
type Option func(*pipelineOptions)

// WithLookupTimeout bounds the related-habit lookup.
func WithLookupTimeout(d time.Duration) Option {
	return func(o *pipelineOptions) {
		o.lookupTimeout = d
	}
}

// Pipeline runs an ordered, fixed list of rules. It holds no mutable state
// and may be shared between goroutines.
type Pipeline struct {
	rules []Rule
}

// NewPipeline returns the habit rule set in its canonical order.
func NewPipeline(lookup HabitLookup, opts ...Option) *Pipeline {
	var o pipelineOptions
	for _, opt := range opts {
		opt(&o)
	}

	return NewPipelineWithRules(
		MutualExclusivityRule{},
		MaxDurationRule{Limit: MaxDuration},
		RelatedMustBePleasantRule{Lookup: lookup, Timeout: o.lookupTimeout},
		MaxPeriodicityRule{Limit: MaxPeriodicity},
		PleasantHabitExclusivityRule{},
	)
}

func NewPipelineWithRules(rules ...Rule) *Pipeline {
	copied := make([]Rule, len(rules))
	copy(copied, rules)
	return &Pipeline{rules: copied}
}

// Rules returns the rule names in evaluation order.
func (p *Pipeline) Rules() []string {
	names := make([]string, 0, len(p.rules))
	for _, rule := range p.rules {
		names = append(names, rule.Name())
	}
	return names
}

// Validate evaluates every rule against c and collects all violations.
func (p *Pipeline) Validate(ctx context.Context, c Candidate) (Result, error) {
	var result Result
	for _, rule := range p.rules {
		violation, err := rule.Evaluate(ctx, c)
		if err != nil {
			return Result{}, &LookupError{Rule: rule.Name(), Err: err}
		}
		if violation != nil {
			result.Violations = append(result.Violations, *violation)
		}
	}
	return result, nil
}
