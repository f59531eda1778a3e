package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "habittracker/backend/internal/errors"
	"habittracker/backend/internal/logger"
	"habittracker/backend/internal/model"
	"habittracker/backend/internal/notify"
	"habittracker/backend/internal/repository"
	"habittracker/backend/internal/validation"
)

const nonFieldErrorsKey = "non_field_errors"

const (
	MsgSelfRelated     = "a habit cannot be its own related habit"
	MsgStillReferenced = "this habit is the related habit of other habits and must stay pleasant"
)

// HabitValidator checks a habit candidate before it is stored.
type HabitValidator interface {
	Validate(ctx context.Context, c validation.Candidate) (validation.Result, error)
}

type HabitService struct {
	repo          *repository.HabitRepository
	userRepo      *repository.UserRepository
	validator     HabitValidator
	notifier      notify.Notifier
	notifyTimeout time.Duration
}

// HabitInput is a habit submission. For create and full update a nil
// optional field takes its default; for a partial update it keeps the
// stored value. In a partial update an empty place or reward and a zero
// related habit id clear the stored value.
type HabitInput struct {
	Action          *string
	Place           *string
	Time            *time.Time
	DurationSeconds *int
	Periodicity     *int
	IsPleasant      *bool
	RelatedHabitID  *int64
	Reward          *string
	IsPublished     *bool
}

type HabitPage struct {
	Count    int           `json:"count"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Results  []model.Habit `json:"results"`
}

func NewHabitService(
	repo *repository.HabitRepository,
	userRepo *repository.UserRepository,
	validator HabitValidator,
	notifier notify.Notifier,
	notifyTimeout time.Duration,
) *HabitService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &HabitService{
		repo:          repo,
		userRepo:      userRepo,
		validator:     validator,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
	}
}

func (s *HabitService) Create(ctx context.Context, ownerID string, input HabitInput) (*model.Habit, *apperrors.APIError) {
	now := time.Now().UTC()
	habit := &model.Habit{
		OwnerID:   ownerID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if apiErr := applyFull(habit, input); apiErr != nil {
		return nil, apiErr
	}
	if apiErr := s.validate(ctx, habit, false); apiErr != nil {
		return nil, apiErr
	}

	if err := s.repo.Create(ctx, habit); err != nil {
		logger.Error("create habit", "owner_id", ownerID, "err", err)
		return nil, apperrors.Internal("failed to create habit")
	}
	logger.Info("habit created", "habit_id", habit.ID, "owner_id", ownerID)

	s.notifyOwner(ctx, habit)
	return habit, nil
}

func (s *HabitService) Get(ctx context.Context, actorID string, id int64) (*model.Habit, *apperrors.APIError) {
	habit, err := s.repo.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		return nil, apperrors.Internal("failed to get habit")
	}
	if habit.OwnerID != actorID {
		return nil, apperrors.Forbidden("you do not own this habit")
	}
	return habit, nil
}

// Update replaces every editable field of the habit.
func (s *HabitService) Update(ctx context.Context, actorID string, id int64, input HabitInput) (*model.Habit, *apperrors.APIError) {
	habit, apiErr := s.Get(ctx, actorID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	wasPleasant := habit.IsPleasant
	if apiErr := applyFull(habit, input); apiErr != nil {
		return nil, apiErr
	}
	return s.save(ctx, habit, wasPleasant)
}

// Patch merges the submitted fields into the stored habit and validates
// the merged result.
func (s *HabitService) Patch(ctx context.Context, actorID string, id int64, input HabitInput) (*model.Habit, *apperrors.APIError) {
	habit, apiErr := s.Get(ctx, actorID, id)
	if apiErr != nil {
		return nil, apiErr
	}
	wasPleasant := habit.IsPleasant
	if apiErr := applyPartial(habit, input); apiErr != nil {
		return nil, apiErr
	}
	return s.save(ctx, habit, wasPleasant)
}

func (s *HabitService) Delete(ctx context.Context, actorID string, id int64) *apperrors.APIError {
	if _, apiErr := s.Get(ctx, actorID, id); apiErr != nil {
		return apiErr
	}

	err := s.repo.Delete(ctx, id)
	if err == repository.ErrNotFound {
		return apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		return apperrors.Internal("failed to delete habit")
	}
	logger.Info("habit deleted", "habit_id", id, "owner_id", actorID)
	return nil
}

func (s *HabitService) ListOwn(ctx context.Context, ownerID string, page Page) (*HabitPage, *apperrors.APIError) {
	page = page.Normalize()

	count, err := s.repo.CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Internal("failed to count habits")
	}
	habits, err := s.repo.ListByOwner(ctx, ownerID, page.Size, page.Offset())
	if err != nil {
		return nil, apperrors.Internal("failed to list habits")
	}
	return &HabitPage{Count: count, Page: page.Number, PageSize: page.Size, Results: habits}, nil
}

func (s *HabitService) ListPublished(ctx context.Context, page Page) (*HabitPage, *apperrors.APIError) {
	page = page.Normalize()

	count, err := s.repo.CountPublished(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to count habits")
	}
	habits, err := s.repo.ListPublished(ctx, page.Size, page.Offset())
	if err != nil {
		return nil, apperrors.Internal("failed to list habits")
	}
	return &HabitPage{Count: count, Page: page.Number, PageSize: page.Size, Results: habits}, nil
}

func (s *HabitService) save(ctx context.Context, habit *model.Habit, wasPleasant bool) (*model.Habit, *apperrors.APIError) {
	if apiErr := s.validate(ctx, habit, wasPleasant); apiErr != nil {
		return nil, apiErr
	}

	habit.UpdatedAt = time.Now().UTC()
	err := s.repo.Update(ctx, habit)
	if err == repository.ErrNotFound {
		return nil, apperrors.NotFound("habit_not_found", "habit not found")
	}
	if err != nil {
		logger.Error("update habit", "habit_id", habit.ID, "err", err)
		return nil, apperrors.Internal("failed to update habit")
	}
	return habit, nil
}

// validate runs the rule pipeline and then the checks that need the stored
// habit: a habit may not point at itself, and a pleasant habit that others
// point at may not lose its pleasant flag.
func (s *HabitService) validate(ctx context.Context, habit *model.Habit, wasPleasant bool) *apperrors.APIError {
	result, err := s.validator.Validate(ctx, toCandidate(habit))
	if err != nil {
		var lookupErr *validation.LookupError
		if errors.As(err, &lookupErr) {
			logger.Error("habit validation unavailable", "rule", lookupErr.Rule, "err", lookupErr.Err)
			return apperrors.ServiceUnavailable("validation_unavailable", "could not verify the habit, try again later")
		}
		logger.Error("habit validation failed", "err", err)
		return apperrors.Internal("failed to validate habit")
	}
	messages := result.Messages()

	if habit.ID != 0 && habit.RelatedHabitID != nil && *habit.RelatedHabitID == habit.ID {
		messages = append(messages, MsgSelfRelated)
	}
	if habit.ID != 0 && wasPleasant && !habit.IsPleasant {
		count, err := s.repo.CountReferencing(ctx, habit.ID)
		if err != nil {
			logger.Error("count referencing habits", "habit_id", habit.ID, "err", err)
			return apperrors.Internal("failed to validate habit")
		}
		if count > 0 {
			messages = append(messages, MsgStillReferenced)
		}
	}

	if len(messages) > 0 {
		return apperrors.ValidationFailed(map[string][]string{
			nonFieldErrorsKey: messages,
		})
	}
	return nil
}

func (s *HabitService) notifyOwner(ctx context.Context, habit *model.Habit) {
	owner, err := s.userRepo.GetByID(ctx, habit.OwnerID)
	if err != nil {
		logger.Warn("notification skipped, owner lookup failed", "habit_id", habit.ID, "err", err)
		return
	}
	notify.Dispatch(s.notifier, s.notifyTimeout, owner.TelegramChatID, habitMessage(habit))
}

func habitMessage(habit *model.Habit) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New habit: %s at %s", habit.Action, habit.Time.UTC().Format("15:04 MST"))
	if habit.Place != nil && *habit.Place != "" {
		fmt.Fprintf(&b, " in %s", *habit.Place)
	}
	if habit.Periodicity > 1 {
		fmt.Fprintf(&b, ", every %d days", habit.Periodicity)
	} else {
		b.WriteString(", every day")
	}
	if habit.Reward != nil && *habit.Reward != "" {
		fmt.Fprintf(&b, ". Reward: %s", *habit.Reward)
	}
	return b.String()
}

func toCandidate(habit *model.Habit) validation.Candidate {
	duration := time.Duration(habit.DurationSeconds) * time.Second
	periodicity := habit.Periodicity
	isPleasant := habit.IsPleasant
	isPublished := habit.IsPublished
	action := habit.Action
	at := habit.Time

	return validation.Candidate{
		Owner:          habit.OwnerID,
		Action:         &action,
		Place:          habit.Place,
		Time:           &at,
		Duration:       &duration,
		Periodicity:    &periodicity,
		IsPleasant:     &isPleasant,
		RelatedHabitID: habit.RelatedHabitID,
		Reward:         habit.Reward,
		IsPublished:    &isPublished,
	}
}

func applyFull(habit *model.Habit, input HabitInput) *apperrors.APIError {
	fields := map[string][]string{}
	if input.Action == nil || strings.TrimSpace(*input.Action) == "" {
		fields["action"] = []string{"this field is required"}
	}
	if input.Time == nil || input.Time.IsZero() {
		fields["time"] = []string{"this field is required"}
	}
	checkNumbers(input, fields)
	if len(fields) > 0 {
		return apperrors.ValidationFailed(fields)
	}

	habit.Action = strings.TrimSpace(*input.Action)
	habit.Time = input.Time.UTC()
	habit.Place = nonEmpty(input.Place)
	habit.DurationSeconds = intOr(input.DurationSeconds, model.DefaultHabitDurationSeconds)
	habit.Periodicity = intOr(input.Periodicity, model.DefaultHabitPeriodicity)
	habit.IsPleasant = boolOr(input.IsPleasant, false)
	habit.RelatedHabitID = nonZero(input.RelatedHabitID)
	habit.Reward = nonEmpty(input.Reward)
	habit.IsPublished = boolOr(input.IsPublished, true)
	return nil
}

func applyPartial(habit *model.Habit, input HabitInput) *apperrors.APIError {
	fields := map[string][]string{}
	if input.Action != nil && strings.TrimSpace(*input.Action) == "" {
		fields["action"] = []string{"this field may not be blank"}
	}
	if input.Time != nil && input.Time.IsZero() {
		fields["time"] = []string{"this field may not be blank"}
	}
	checkNumbers(input, fields)
	if len(fields) > 0 {
		return apperrors.ValidationFailed(fields)
	}

	if input.Action != nil {
		habit.Action = strings.TrimSpace(*input.Action)
	}
	if input.Time != nil {
		habit.Time = input.Time.UTC()
	}
	if input.Place != nil {
		habit.Place = nonEmpty(input.Place)
	}
	if input.DurationSeconds != nil {
		habit.DurationSeconds = *input.DurationSeconds
	}
	if input.Periodicity != nil {
		habit.Periodicity = *input.Periodicity
	}
	if input.IsPleasant != nil {
		habit.IsPleasant = *input.IsPleasant
	}
	if input.RelatedHabitID != nil {
		habit.RelatedHabitID = nonZero(input.RelatedHabitID)
	}
	if input.Reward != nil {
		habit.Reward = nonEmpty(input.Reward)
	}
	if input.IsPublished != nil {
		habit.IsPublished = *input.IsPublished
	}
	return nil
}

func checkNumbers(input HabitInput, fields map[string][]string) {
	if input.DurationSeconds != nil && *input.DurationSeconds <= 0 {
		fields["durationSeconds"] = []string{"must be a positive number of seconds"}
	}
	if input.Periodicity != nil && *input.Periodicity <= 0 {
		fields["periodicity"] = []string{"must be at least 1 day"}
	}
	if input.RelatedHabitID != nil && *input.RelatedHabitID < 0 {
		fields["relatedHabitId"] = []string{"must be a habit id"}
	}
}

func nonEmpty(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func nonZero(v *int64) *int64 {
	if v == nil || *v == 0 {
		return nil
	}
	value := *v
	return &value
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
