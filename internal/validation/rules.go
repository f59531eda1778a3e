package validation

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	MaxDuration    = 120 * time.Second
	MaxPeriodicity = 7
)

const (
	RuleRelatedOrReward     = "related_habit_or_reward"
	RuleMaxDuration         = "max_duration"
	RuleRelatedPleasant     = "related_habit_pleasant"
	RuleMaxPeriodicity      = "max_periodicity"
	RulePleasantExclusivity = "pleasant_habit_exclusivity"
)

const (
	MsgRelatedOrReward     = "choose either a related habit or a reward, not both"
	MsgRelatedNotPleasant  = "only habits marked as pleasant can be set as a related habit"
	MsgRelatedNotFound     = "related habit does not exist"
	MsgPleasantExclusivity = "a pleasant habit cannot have a reward or a related habit"
)

// Violation is a single failed rule.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

func (v Violation) Error() string {
	return v.Message
}

// Rule is one named predicate over a candidate. Evaluate returns a nil
// violation when the rule holds; a non-nil error means the rule could not
// be checked at all.
type Rule interface {
	Name() string
	Evaluate(ctx context.Context, c Candidate) (*Violation, error)
}

// MutualExclusivityRule forbids a related habit and a reward on the same habit.
type MutualExclusivityRule struct{}

func (MutualExclusivityRule) Name() string { return RuleRelatedOrReward }

func (r MutualExclusivityRule) Evaluate(_ context.Context, c Candidate) (*Violation, error) {
	if hasID(c.RelatedHabitID) && hasText(c.Reward) {
		return &Violation{Rule: r.Name(), Message: MsgRelatedOrReward}, nil
	}
	return nil, nil
}

// MaxDurationRule caps how long performing the habit may take.
type MaxDurationRule struct {
	Limit time.Duration
}

func (MaxDurationRule) Name() string { return RuleMaxDuration }

func (r MaxDurationRule) Evaluate(_ context.Context, c Candidate) (*Violation, error) {
	if c.Duration == nil || *c.Duration <= 0 {
		return nil, nil
	}
	if *c.Duration > r.Limit {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("habit duration cannot exceed %s", r.Limit),
		}, nil
	}
	return nil, nil
}

// RelatedMustBePleasantRule requires the referenced habit to be a pleasant one.
type RelatedMustBePleasantRule struct {
	Lookup  HabitLookup
	Timeout time.Duration
}

func (RelatedMustBePleasantRule) Name() string { return RuleRelatedPleasant }

func (r RelatedMustBePleasantRule) Evaluate(ctx context.Context, c Candidate) (*Violation, error) {
	if !hasID(c.RelatedHabitID) {
		return nil, nil
	}
	if r.Lookup == nil {
		return nil, errors.New("no habit lookup configured")
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	ref, err := r.Lookup.LookupHabit(ctx, *c.RelatedHabitID)
	if errors.Is(err, ErrHabitNotFound) {
		return &Violation{Rule: r.Name(), Message: MsgRelatedNotFound}, nil
	}
	if err != nil {
		return nil, err
	}
	if !ref.IsPleasant {
		return &Violation{Rule: r.Name(), Message: MsgRelatedNotPleasant}, nil
	}
	return nil, nil
}

// MaxPeriodicityRule requires the habit to repeat at least once every Limit days.
type MaxPeriodicityRule struct {
	Limit int
}

func (MaxPeriodicityRule) Name() string { return RuleMaxPeriodicity }

func (r MaxPeriodicityRule) Evaluate(_ context.Context, c Candidate) (*Violation, error) {
	if c.Periodicity == nil || *c.Periodicity <= 0 {
		return nil, nil
	}
	if *c.Periodicity > r.Limit {
		return &Violation{
			Rule:    r.Name(),
			Message: fmt.Sprintf("a habit cannot be performed less often than once every %d days", r.Limit),
		}, nil
	}
	return nil, nil
}

// PleasantHabitExclusivityRule keeps pleasant habits free of rewards and links.
// It overlaps with MutualExclusivityRule and both report separately.
type PleasantHabitExclusivityRule struct{}

func (PleasantHabitExclusivityRule) Name() string { return RulePleasantExclusivity }

func (r PleasantHabitExclusivityRule) Evaluate(_ context.Context, c Candidate) (*Violation, error) {
	if isTrue(c.IsPleasant) && (hasText(c.Reward) || hasID(c.RelatedHabitID)) {
		return &Violation{Rule: r.Name(), Message: MsgPleasantExclusivity}, nil
	}
	return nil, nil
}
