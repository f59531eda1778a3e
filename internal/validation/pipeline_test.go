package validation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	mu      sync.Mutex
	habits  map[int64]bool
	err     error
	calls   int
	blocked bool
}

func (s *stubLookup) LookupHabit(ctx context.Context, id int64) (HabitRef, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if s.blocked {
		<-ctx.Done()
		return HabitRef{}, ctx.Err()
	}
	if s.err != nil {
		return HabitRef{}, s.err
	}
	pleasant, ok := s.habits[id]
	if !ok {
		return HabitRef{}, ErrHabitNotFound
	}
	return HabitRef{ID: id, IsPleasant: pleasant}, nil
}

func strPtr(v string) *string { return &v }
func intPtr(v int) *int { return &v }
func idPtr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool { return &v }
func durPtr(v time.Duration) *time.Duration { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func newTestPipeline(habits map[int64]bool) (*Pipeline, *stubLookup) {
	lookup := &stubLookup{habits: habits}
	return NewPipeline(lookup), lookup
}

func rulesOf(r Result) []string {
	names := make([]string, 0, len(r.Violations))
	for _, v := range r.Violations {
		names = append(names, v.Rule)
	}
	return names
}

func TestNewPipeline_RuleOrder(t *testing.T) {
	p, _ := newTestPipeline(nil)

	assert.Equal(t, []string{
		RuleRelatedOrReward,
		RuleMaxDuration,
		RuleRelatedPleasant,
		RuleMaxPeriodicity,
		RulePleasantExclusivity,
	}, p.Rules())
}

func TestValidate_DurationOverLimit(t *testing.T) {
	p, _ := newTestPipeline(nil)

	result, err := p.Validate(context.Background(), Candidate{Duration: durPtr(121 * time.Second)})

	require.NoError(t, err)
	assert.False(t, result.Accepted())
	require.Len(t, result.Violations, 1)
	assert.Equal(t, RuleMaxDuration, result.Violations[0].Rule)
	assert.Equal(t, "habit duration cannot exceed 2m0s", result.Violations[0].Message)
}

func TestValidate_DurationBoundary(t *testing.T) {
	p, _ := newTestPipeline(nil)

	for _, d := range []time.Duration{time.Second, 60 * time.Second, 120 * time.Second} {
		result, err := p.Validate(context.Background(), Candidate{Duration: durPtr(d)})
		require.NoError(t, err)
		assert.True(t, result.Accepted(), "duration %s", d)
	}
}

func TestValidate_PeriodicityBoundary(t *testing.T) {
	p, _ := newTestPipeline(nil)

	for days := 1; days <= 7; days++ {
		result, err := p.Validate(context.Background(), Candidate{Periodicity: intPtr(days)})
		require.NoError(t, err)
		assert.True(t, result.Accepted(), "periodicity %d", days)
	}

	result, err := p.Validate(context.Background(), Candidate{Periodicity: intPtr(8)})
	require.NoError(t, err)
	assert.Equal(t, []string{RuleMaxPeriodicity}, rulesOf(result))
	assert.Equal(t, "a habit cannot be performed less often than once every 7 days", result.Violations[0].Message)
}

func TestValidate_RewardAndRelatedHabit(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{7: true})

	result, err := p.Validate(context.Background(), Candidate{
		Reward:         strPtr("coffee"),
		RelatedHabitID: idPtr(7),
	})

	require.NoError(t, err)
	assert.False(t, result.Accepted())
	assert.Contains(t, result.Messages(), MsgRelatedOrReward)
}

func TestValidate_RelatedHabitMustBePleasant(t *testing.T) {
	p, lookup := newTestPipeline(map[int64]bool{3: false, 4: true})

	result, err := p.Validate(context.Background(), Candidate{RelatedHabitID: idPtr(3)})
	require.NoError(t, err)
	assert.Equal(t, []string{RuleRelatedPleasant}, rulesOf(result))
	assert.Equal(t, MsgRelatedNotPleasant, result.Violations[0].Message)

	result, err = p.Validate(context.Background(), Candidate{RelatedHabitID: idPtr(4)})
	require.NoError(t, err)
	assert.True(t, result.Accepted())

	assert.Equal(t, 2, lookup.calls)
}

func TestValidate_PleasantHabitWithRelatedHabit(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{7: true})

	result, err := p.Validate(context.Background(), Candidate{
		IsPleasant:     boolPtr(true),
		RelatedHabitID: idPtr(7),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{RulePleasantExclusivity}, rulesOf(result))
	assert.Equal(t, MsgPleasantExclusivity, result.Violations[0].Message)
}

func TestValidate_PleasantHabitWithReward(t *testing.T) {
	p, _ := newTestPipeline(nil)

	result, err := p.Validate(context.Background(), Candidate{
		IsPleasant: boolPtr(true),
		Reward:     strPtr("cake"),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{RulePleasantExclusivity}, rulesOf(result))
}

func TestValidate_OverlappingRulesBothReport(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{7: true})

	result, err := p.Validate(context.Background(), Candidate{
		IsPleasant:     boolPtr(true),
		Reward:         strPtr("coffee"),
		RelatedHabitID: idPtr(7),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{RuleRelatedOrReward, RulePleasantExclusivity}, rulesOf(result))
	assert.Equal(t, []string{MsgRelatedOrReward, MsgPleasantExclusivity}, result.Messages())
}

func TestValidate_CollectsAllViolationsInOrder(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{9: false})

	result, err := p.Validate(context.Background(), Candidate{
		Duration:       durPtr(10 * time.Minute),
		Periodicity:    intPtr(30),
		IsPleasant:     boolPtr(true),
		Reward:         strPtr("coffee"),
		RelatedHabitID: idPtr(9),
	})

	require.NoError(t, err)
	assert.Equal(t, []string{
		RuleRelatedOrReward,
		RuleMaxDuration,
		RuleRelatedPleasant,
		RuleMaxPeriodicity,
		RulePleasantExclusivity,
	}, rulesOf(result))
}

func TestValidate_AcceptsPlainHabit(t *testing.T) {
	p, lookup := newTestPipeline(nil)

	result, err := p.Validate(context.Background(), Candidate{
		Action:      strPtr("run"),
		Time:        timePtr(time.Date(2024, 7, 13, 10, 0, 0, 0, time.UTC)),
		Periodicity: intPtr(3),
	})

	require.NoError(t, err)
	assert.True(t, result.Accepted())
	assert.Empty(t, result.Messages())
	assert.Zero(t, lookup.calls)
}

func TestValidate_AbsentFieldsNeverFire(t *testing.T) {
	p, lookup := newTestPipeline(nil)

	result, err := p.Validate(context.Background(), Candidate{Action: strPtr("stretch")})
	require.NoError(t, err)
	assert.True(t, result.Accepted())

	// Zero values behave like absent ones.
	result, err = p.Validate(context.Background(), Candidate{
		Reward:         strPtr(""),
		RelatedHabitID: idPtr(0),
		Duration:       durPtr(0),
		Periodicity:    intPtr(0),
		IsPleasant:     boolPtr(false),
	})
	require.NoError(t, err)
	assert.True(t, result.Accepted())
	assert.Zero(t, lookup.calls)
}

func TestValidate_RelatedHabitNotFound(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{})

	result, err := p.Validate(context.Background(), Candidate{RelatedHabitID: idPtr(404)})

	require.NoError(t, err)
	assert.False(t, result.Accepted())
	assert.Equal(t, []string{MsgRelatedNotFound}, result.Messages())
}

func TestValidate_LookupFailureIsNotAViolation(t *testing.T) {
	dbErr := errors.New("database is locked")
	lookup := &stubLookup{err: dbErr}
	p := NewPipeline(lookup)

	result, err := p.Validate(context.Background(), Candidate{
		RelatedHabitID: idPtr(7),
		Periodicity:    intPtr(30),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, dbErr)
	var lookupErr *LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, RuleRelatedPleasant, lookupErr.Rule)
	assert.Empty(t, result.Violations)
}

func TestValidate_LookupTimeout(t *testing.T) {
	lookup := &stubLookup{blocked: true}
	p := NewPipeline(lookup, WithLookupTimeout(20*time.Millisecond))

	_, err := p.Validate(context.Background(), Candidate{RelatedHabitID: idPtr(7)})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestValidate_NilLookupIsInfrastructureError(t *testing.T) {
	p := NewPipeline(nil)

	_, err := p.Validate(context.Background(), Candidate{RelatedHabitID: idPtr(1)})

	var lookupErr *LookupError
	assert.ErrorAs(t, err, &lookupErr)
}

func TestValidate_DoesNotMutateCandidate(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{7: false})
	c := Candidate{
		Reward:         strPtr("coffee"),
		RelatedHabitID: idPtr(7),
		Duration:       durPtr(5 * time.Minute),
	}

	_, err := p.Validate(context.Background(), c)

	require.NoError(t, err)
	assert.Equal(t, "coffee", *c.Reward)
	assert.Equal(t, int64(7), *c.RelatedHabitID)
	assert.Equal(t, 5*time.Minute, *c.Duration)
}

func TestValidate_ConcurrentUse(t *testing.T) {
	p, _ := newTestPipeline(map[int64]bool{1: true, 2: false})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := int64(i%2 + 1)
			result, err := p.Validate(context.Background(), Candidate{RelatedHabitID: &id})
			assert.NoError(t, err)
			assert.Equal(t, id == 1, result.Accepted())
		}(i)
	}
	wg.Wait()
}

func TestNewPipelineWithRules_CustomComposition(t *testing.T) {
	p := NewPipelineWithRules(MaxPeriodicityRule{Limit: 3})

	result, err := p.Validate(context.Background(), Candidate{Periodicity: intPtr(5)})

	require.NoError(t, err)
	assert.Equal(t, []string{"a habit cannot be performed less often than once every 3 days"}, result.Messages())
}
