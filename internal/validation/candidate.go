package validation

import (
	"context"
	"errors"
	"time"
)

// Candidate is the not-yet-persisted view of a habit under validation.
// A nil field was not part of the submission and is never inspected as a value.
type Candidate struct {
	Owner          string
	Action         *string
	Place          *string
	Time           *time.Time
	Duration       *time.Duration
	Periodicity    *int
	IsPleasant     *bool
	RelatedHabitID *int64
	Reward         *string
	IsPublished    *bool
}

// HabitRef is the part of a stored habit the engine needs to resolve a reference.
type HabitRef struct {
	ID         int64
	IsPleasant bool
}

// ErrHabitNotFound is returned by a HabitLookup when the id does not resolve.
var ErrHabitNotFound = errors.New("habit not found")

// HabitLookup resolves a referenced habit. Errors other than ErrHabitNotFound
// are treated as infrastructure failures.
type HabitLookup interface {
	LookupHabit(ctx context.Context, id int64) (HabitRef, error)
}

// HabitLookupFunc adapts a function to HabitLookup.
type HabitLookupFunc func(ctx context.Context, id int64) (HabitRef, error)

func (f HabitLookupFunc) LookupHabit(ctx context.Context, id int64) (HabitRef, error) {
	return f(ctx, id)
}

func hasText(v *string) bool {
	return v != nil && *v != ""
}

func hasID(v *int64) bool {
	return v != nil && *v != 0
}

func isTrue(v *bool) bool {
	return v != nil && *v
}
