// Package postgres provides pgx-backed persistence for completions, goals,
// achievements, and the outbox.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adesaogympass/anotashape/internal/domain"
	"github.com/adesaogympass/anotashape/internal/events"
	"github.com/adesaogympass/anotashape/internal/observability"
	"github.com/adesaogympass/anotashape/internal/progress"
)

// Repository implements the domain store interfaces on a pgx pool.
type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: func() time.Time { return time.Now().UTC() }}
}

const completionColumns = `completion_id, user_id, workout_id, completed_at, duration_sec, created_at`

// Create persists the completion, its exercise logs, and the outbox event in a
// single transaction.
func (r *Repository) Create(ctx context.Context, rec domain.CompletionRecord, idempotencyKey string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const insertCompletion = `INSERT INTO workout_completions (completion_id, user_id, workout_id, completed_at, duration_sec, idempotency_key, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err = tx.Exec(ctx, insertCompletion,
		rec.ID,
		rec.UserID,
		nullIfEmpty(rec.WorkoutID),
		rec.CompletedAt,
		rec.DurationSec,
		nullIfEmpty(idempotencyKey),
		rec.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, ex := range rec.Exercises {
		sets, marshalErr := json.Marshal(ex.Sets)
		if marshalErr != nil {
			err = marshalErr
			return err
		}
		if _, err = tx.Exec(ctx,
			`INSERT INTO exercise_logs (log_id, completion_id, exercise_id, sets_data) VALUES ($1,$2,$3,$4)`,
			ex.ID, rec.ID, ex.ExerciseID, sets,
		); err != nil {
			return err
		}
	}

	if err = insertOutbox(ctx, tx, "workout.completed", rec.UserID, rec.ID, events.WorkoutCompleted{
		CompletionID:  rec.ID,
		UserID:        rec.UserID,
		WorkoutID:     rec.WorkoutID,
		CompletedAt:   rec.CompletedAt,
		DurationSec:   rec.DurationSec,
		ExerciseCount: len(rec.Exercises),
		Version:       "v1",
	}); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordCompletionPersisted(rec.CreatedAt)
	return nil
}

// FindByIdempotency checks if a completion already exists for the supplied key.
func (r *Repository) FindByIdempotency(ctx context.Context, userID, idempotencyKey string) (*domain.CompletionRecord, error) {
	if idempotencyKey == "" {
		return nil, nil
	}

	query := `SELECT ` + completionColumns + ` FROM workout_completions WHERE user_id=$1 AND idempotency_key=$2`

	row := r.pool.QueryRow(ctx, query, userID, idempotencyKey)
	rec, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadExercises(ctx, []*domain.CompletionRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get retrieves a completion by ID scoped to its owner.
func (r *Repository) Get(ctx context.Context, userID, completionID string) (*domain.CompletionRecord, error) {
	query := `SELECT ` + completionColumns + ` FROM workout_completions WHERE user_id=$1 AND completion_id=$2`

	row := r.pool.QueryRow(ctx, query, userID, completionID)
	rec, err := scanCompletion(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadExercises(ctx, []*domain.CompletionRecord{rec}); err != nil {
		return nil, err
	}
	return rec, nil
}

// ListByUser returns completions for a user ordered by time, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, cursor *domain.Cursor, limit int) ([]domain.CompletionRecord, *domain.Cursor, error) {
	args := []interface{}{userID, limit}
	query := `SELECT ` + completionColumns + ` FROM workout_completions WHERE user_id=$1`

	if cursor != nil {
		query += ` AND (completed_at, completion_id) < ($3, $4)`
		args = append(args, cursor.CompletedAt, cursor.ID)
	}

	query += ` ORDER BY completed_at DESC, completion_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	results, err := collectCompletions(rows)
	if err != nil {
		return nil, nil, err
	}
	if err := r.loadExercisesSlice(ctx, results); err != nil {
		return nil, nil, err
	}

	var nextCursor *domain.Cursor
	if len(results) == limit && limit > 0 {
		last := results[len(results)-1]
		nextCursor = &domain.Cursor{CompletedAt: last.CompletedAt, ID: last.ID}
	}
	return results, nextCursor, nil
}

// QueryWindow returns every completion with completed_at in [start, end).
func (r *Repository) QueryWindow(ctx context.Context, userID string, start, end time.Time) ([]domain.CompletionRecord, error) {
	query := `SELECT ` + completionColumns + ` FROM workout_completions
        WHERE user_id=$1 AND completed_at >= $2 AND completed_at < $3
        ORDER BY completed_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, start, end)
	if err != nil {
		return nil, err
	}
	results, err := collectCompletions(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadExercisesSlice(ctx, results); err != nil {
		return nil, err
	}
	return results, nil
}

// LifetimeCounters computes the user-wide aggregates feeding achievement progress.
func (r *Repository) LifetimeCounters(ctx context.Context, userID string) (domain.LifetimeCounters, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM workout_completions WHERE user_id=$1),
        (SELECT COUNT(*) FROM exercise_logs l
            JOIN workout_completions c ON c.completion_id = l.completion_id
            WHERE c.user_id=$1),
        COALESCE((SELECT SUM((s->>'weight')::numeric * (s->>'reps')::numeric)
            FROM exercise_logs l
            JOIN workout_completions c ON c.completion_id = l.completion_id
            CROSS JOIN LATERAL jsonb_array_elements(l.sets_data) s
            WHERE c.user_id=$1), 0)::double precision`

	var counters domain.LifetimeCounters
	if err := r.pool.QueryRow(ctx, query, userID).Scan(
		&counters.TotalSessions,
		&counters.TotalExercisesLogged,
		&counters.TotalWeightLifted,
	); err != nil {
		return domain.LifetimeCounters{}, err
	}

	days, err := r.sessionDays(ctx, userID)
	if err != nil {
		return domain.LifetimeCounters{}, err
	}
	counters.CurrentStreak = progress.CurrentStreak(days, r.now())
	return counters, nil
}

func (r *Repository) sessionDays(ctx context.Context, userID string) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT date_trunc('day', completed_at) FROM workout_completions WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	days := make([]time.Time, 0)
	for rows.Next() {
		var day time.Time
		if err := rows.Scan(&day); err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, rows.Err()
}

// CountSessions returns the user's lifetime session count.
func (r *Repository) CountSessions(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM workout_completions WHERE user_id=$1`, userID).Scan(&count)
	return count, err
}

// CountSessionsSince counts sessions completed at or after the given instant.
func (r *Repository) CountSessionsSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM workout_completions WHERE user_id=$1 AND completed_at >= $2`, userID, since).Scan(&count)
	return count, err
}

// GetGoals returns the user's targets, substituting defaults when no row exists.
func (r *Repository) GetGoals(ctx context.Context, userID string) (domain.Goals, error) {
	var goals domain.Goals
	err := r.pool.QueryRow(ctx,
		`SELECT energy_kcal, active_minutes, sessions FROM activity_goals WHERE user_id=$1`, userID).
		Scan(&goals.EnergyKcal, &goals.ActiveMinutes, &goals.Sessions)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DefaultGoals(), nil
	}
	if err != nil {
		return domain.Goals{}, err
	}
	return goals, nil
}

// UpdateGoals applies a partial patch on top of the stored (or default) targets.
func (r *Repository) UpdateGoals(ctx context.Context, userID string, patch domain.GoalsPatch) (domain.Goals, error) {
	goals, err := r.GetGoals(ctx, userID)
	if err != nil {
		return domain.Goals{}, err
	}

	if patch.EnergyKcal != nil {
		goals.EnergyKcal = *patch.EnergyKcal
	}
	if patch.ActiveMinutes != nil {
		goals.ActiveMinutes = *patch.ActiveMinutes
	}
	if patch.Sessions != nil {
		goals.Sessions = *patch.Sessions
	}

	const upsert = `INSERT INTO activity_goals (user_id, energy_kcal, active_minutes, sessions, updated_at)
        VALUES ($1,$2,$3,$4,NOW())
        ON CONFLICT (user_id) DO UPDATE
        SET energy_kcal = EXCLUDED.energy_kcal,
            active_minutes = EXCLUDED.active_minutes,
            sessions = EXCLUDED.sessions,
            updated_at = NOW()`

	if _, err := r.pool.Exec(ctx, upsert, userID, goals.EnergyKcal, goals.ActiveMinutes, goals.Sessions); err != nil {
		return domain.Goals{}, err
	}
	return goals, nil
}

// Definitions returns every achievement ordered by (category, required_count).
func (r *Repository) Definitions(ctx context.Context) ([]domain.AchievementDefinition, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT achievement_id, name, description, icon, category, required_count, points
         FROM achievements ORDER BY category ASC, required_count ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	defs := make([]domain.AchievementDefinition, 0)
	for rows.Next() {
		var def domain.AchievementDefinition
		if err := rows.Scan(&def.ID, &def.Name, &def.Description, &def.Icon, &def.Category, &def.RequiredCount, &def.Points); err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// UnlockedByUser returns the user's persisted unlock set.
func (r *Repository) UnlockedByUser(ctx context.Context, userID string) ([]domain.UnlockedAchievement, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, achievement_id, unlocked_at FROM user_achievements WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	unlocked := make([]domain.UnlockedAchievement, 0)
	for rows.Next() {
		var ua domain.UnlockedAchievement
		if err := rows.Scan(&ua.UserID, &ua.AchievementID, &ua.UnlockedAt); err != nil {
			return nil, err
		}
		unlocked = append(unlocked, ua)
	}
	return unlocked, rows.Err()
}

// RecordUnlock fires the one-way ratchet: the row is inserted at most once per
// (user, achievement), and the unlock event goes through the outbox in the
// same transaction. Replays are silent no-ops.
func (r *Repository) RecordUnlock(ctx context.Context, userID, achievementID string, unlockedAt time.Time) (bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	var category string
	var points int
	if err = tx.QueryRow(ctx,
		`SELECT category, points FROM achievements WHERE achievement_id=$1`, achievementID).
		Scan(&category, &points); err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
         VALUES ($1,$2,$3) ON CONFLICT (user_id, achievement_id) DO NOTHING`,
		userID, achievementID, unlockedAt)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		err = tx.Commit(ctx)
		return false, err
	}

	if err = insertOutbox(ctx, tx, "achievement.unlocked", userID, achievementID, events.AchievementUnlocked{
		UserID:        userID,
		AchievementID: achievementID,
		Category:      category,
		Points:        points,
		UnlockedAt:    unlockedAt,
	}); err != nil {
		return false, err
	}

	if err = tx.Commit(ctx); err != nil {
		return false, err
	}
	observability.RecordUnlock(category)
	return true, nil
}

func insertOutbox(ctx context.Context, tx pgx.Tx, eventType, userID, aggregateID string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	// Unlock aggregates repeat across users, so the user is part of the key.
	dedupeKey := fmt.Sprintf("%s:%s:%s", userID, aggregateID, eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, schema_subject, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err = tx.Exec(ctx, stmt,
		meta.AggregateType,
		aggregateID,
		eventType,
		meta.Topic,
		meta.SchemaSubject,
		userID,
		body,
		dedupeKey,
	)
	return err
}

func scanCompletion(row pgx.Row) (*domain.CompletionRecord, error) {
	var rec domain.CompletionRecord
	var workoutID *string
	if err := row.Scan(&rec.ID, &rec.UserID, &workoutID, &rec.CompletedAt, &rec.DurationSec, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if workoutID != nil {
		rec.WorkoutID = *workoutID
	}
	return &rec, nil
}

func collectCompletions(rows pgx.Rows) ([]domain.CompletionRecord, error) {
	defer rows.Close()

	results := make([]domain.CompletionRecord, 0)
	for rows.Next() {
		rec, err := scanCompletion(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *rec)
	}
	return results, rows.Err()
}

func (r *Repository) loadExercisesSlice(ctx context.Context, records []domain.CompletionRecord) error {
	ptrs := make([]*domain.CompletionRecord, len(records))
	for i := range records {
		ptrs[i] = &records[i]
	}
	return r.loadExercises(ctx, ptrs)
}

func (r *Repository) loadExercises(ctx context.Context, records []*domain.CompletionRecord) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, 0, len(records))
	byID := make(map[string]*domain.CompletionRecord, len(records))
	for _, rec := range records {
		ids = append(ids, rec.ID)
		byID[rec.ID] = rec
	}

	rows, err := r.pool.Query(ctx,
		`SELECT log_id, completion_id, exercise_id, sets_data
         FROM exercise_logs WHERE completion_id = ANY($1) ORDER BY log_id`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var log domain.ExerciseLog
		var sets []byte
		if err := rows.Scan(&log.ID, &log.CompletionID, &log.ExerciseID, &sets); err != nil {
			return err
		}
		if err := json.Unmarshal(sets, &log.Sets); err != nil {
			return err
		}
		if rec, ok := byID[log.CompletionID]; ok {
			rec.Exercises = append(rec.Exercises, log)
		}
	}
	return rows.Err()
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	AggregateType string
	Topic         string
	SchemaSubject string
}

var eventCatalog = map[string]EventMetadata{
	"workout.completed": {
		AggregateType: "completion",
		Topic:         "workout_events",
		SchemaSubject: "workout_events-value",
	},
	"achievement.unlocked": {
		AggregateType: "achievement",
		Topic:         "achievement_events",
		SchemaSubject: "achievement_events-value",
	},
}
