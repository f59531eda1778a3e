package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"habittracker/backend/internal/model"
	"habittracker/backend/internal/validation"
)

const habitColumns = `id, owner_id, action, place, time, duration_seconds, periodicity,
		        is_pleasant, related_habit_id, reward, is_published, created_at, updated_at`

type HabitRepository struct {
	db *sql.DB
}

func NewHabitRepository(db *sql.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) Create(ctx context.Context, habit *model.Habit) error {
	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO habits (
			owner_id, action, place, time, duration_seconds, periodicity,
			is_pleasant, related_habit_id, reward, is_published, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		habit.OwnerID,
		habit.Action,
		nullableString(habit.Place),
		habit.Time.UTC().Format(time.RFC3339Nano),
		habit.DurationSeconds,
		habit.Periodicity,
		habit.IsPleasant,
		nullableID(habit.RelatedHabitID),
		nullableString(habit.Reward),
		habit.IsPublished,
		habit.CreatedAt.UTC().Format(time.RFC3339Nano),
		habit.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create habit: last insert id: %w", err)
	}
	habit.ID = id
	return nil
}

func (r *HabitRepository) GetByID(ctx context.Context, id int64) (*model.Habit, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+habitColumns+`
		 FROM habits
		 WHERE id = ?`,
		id,
	)
	habit, err := scanHabit(row)
	if err != nil {
		return nil, err
	}
	return habit, nil
}

func (r *HabitRepository) Update(ctx context.Context, habit *model.Habit) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE habits
		 SET action = ?,
		     place = ?,
		     time = ?,
		     duration_seconds = ?,
		     periodicity = ?,
		     is_pleasant = ?,
		     related_habit_id = ?,
		     reward = ?,
		     is_published = ?,
		     updated_at = ?
		 WHERE id = ?`,
		habit.Action,
		nullableString(habit.Place),
		habit.Time.UTC().Format(time.RFC3339Nano),
		habit.DurationSeconds,
		habit.Periodicity,
		habit.IsPleasant,
		nullableID(habit.RelatedHabitID),
		nullableString(habit.Reward),
		habit.IsPublished,
		habit.UpdatedAt.UTC().Format(time.RFC3339Nano),
		habit.ID,
	)
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}
	return expectAffected(res, "update habit")
}

func (r *HabitRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM habits WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}
	return expectAffected(res, "delete habit")
}

func (r *HabitRepository) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]model.Habit, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+habitColumns+`
		 FROM habits
		 WHERE owner_id = ?
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		ownerID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list habits by owner: %w", err)
	}
	return collectHabits(rows, limit)
}

func (r *HabitRepository) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM habits WHERE owner_id = ?`,
		ownerID,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count habits by owner: %w", err)
	}
	return count, nil
}

func (r *HabitRepository) ListPublished(ctx context.Context, limit, offset int) ([]model.Habit, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT `+habitColumns+`
		 FROM habits
		 WHERE is_published = 1
		 ORDER BY id ASC
		 LIMIT ? OFFSET ?`,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list published habits: %w", err)
	}
	return collectHabits(rows, limit)
}

func (r *HabitRepository) CountPublished(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM habits WHERE is_published = 1`,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count published habits: %w", err)
	}
	return count, nil
}

// CountReferencing counts the other habits that use id as their related habit.
func (r *HabitRepository) CountReferencing(ctx context.Context, id int64) (int, error) {
	var count int
	if err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(1) FROM habits WHERE related_habit_id = ? AND id != ?`,
		id,
		id,
	).Scan(&count); err != nil {
		return 0, fmt.Errorf("count habits referencing %d: %w", id, err)
	}
	return count, nil
}

// LookupHabit resolves the pleasant flag of a referenced habit for the
// validation pipeline.
func (r *HabitRepository) LookupHabit(ctx context.Context, id int64) (validation.HabitRef, error) {
	var pleasant bool
	err := r.db.QueryRowContext(
		ctx,
		`SELECT is_pleasant FROM habits WHERE id = ?`,
		id,
	).Scan(&pleasant)
	if errors.Is(err, sql.ErrNoRows) {
		return validation.HabitRef{}, validation.ErrHabitNotFound
	}
	if err != nil {
		return validation.HabitRef{}, fmt.Errorf("lookup habit %d: %w", id, err)
	}
	return validation.HabitRef{ID: id, IsPleasant: pleasant}, nil
}

func collectHabits(rows *sql.Rows, capacity int) ([]model.Habit, error) {
	defer rows.Close()

	habits := make([]model.Habit, 0, capacity)
	for rows.Next() {
		habit, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *habit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate habits: %w", err)
	}
	return habits, nil
}

func scanHabit(s scanner) (*model.Habit, error) {
	habit := model.Habit{}
	var place sql.NullString
	var at string
	var relatedHabitID sql.NullInt64
	var reward sql.NullString
	var createdAt string
	var updatedAt string
	err := s.Scan(
		&habit.ID,
		&habit.OwnerID,
		&habit.Action,
		&place,
		&at,
		&habit.DurationSeconds,
		&habit.Periodicity,
		&habit.IsPleasant,
		&relatedHabitID,
		&reward,
		&habit.IsPublished,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan habit: %w", err)
	}

	if place.Valid {
		value := place.String
		habit.Place = &value
	}
	if relatedHabitID.Valid {
		value := relatedHabitID.Int64
		habit.RelatedHabitID = &value
	}
	if reward.Valid {
		value := reward.String
		habit.Reward = &value
	}

	parsedTime, err := parseTime(at)
	if err != nil {
		return nil, fmt.Errorf("parse habit time: %w", err)
	}
	habit.Time = parsedTime

	parsedCreatedAt, err := parseTime(createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse habit created_at: %w", err)
	}
	habit.CreatedAt = parsedCreatedAt

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse habit updated_at: %w", err)
	}
	habit.UpdatedAt = parsedUpdatedAt

	return &habit, nil
}

func nullableID(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
