// Package api exposes HTTP handlers for the progress service.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adesaogympass/anotashape/internal/auth"
	"github.com/adesaogympass/anotashape/internal/domain"
	"github.com/adesaogympass/anotashape/internal/observability"
	"github.com/adesaogympass/anotashape/internal/persistence"
	"github.com/adesaogympass/anotashape/internal/progress"
)

// Handler coordinates HTTP requests with the progress service.
type Handler struct {
	service *progress.Service
}

// NewHandler builds a Handler.
func NewHandler(service *progress.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/workouts/completions", h.completions)
	mux.HandleFunc("/v1/workouts/completions/", h.completionByID)
	mux.HandleFunc("/v1/activity/daily", h.dailyActivity)
	mux.HandleFunc("/v1/activity/history", h.activityHistory)
	mux.HandleFunc("/v1/activity/goals", h.goals)
	mux.HandleFunc("/v1/achievements/progress", h.achievementProgress)
	mux.HandleFunc("/v1/stats", h.stats)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) completions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordCompletion(w, r)
	case http.MethodGet:
		h.listCompletions(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) completionByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/workouts/completions/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing completion id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.getCompletion(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordCompletion(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:write required")
		return
	}

	var req RecordCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	idempotencyKey := r.Header.Get("Idempotency-Key")

	exercises := make([]progress.ExerciseInput, 0, len(req.Exercises))
	for _, ex := range req.Exercises {
		exercises = append(exercises, progress.ExerciseInput{
			ExerciseID: ex.ExerciseID,
			Sets:       ex.Sets,
		})
	}

	record, replay, err := h.service.RecordCompletion(r.Context(), progress.CompletionInput{
		UserID:         claims.Subject,
		WorkoutID:      req.WorkoutID,
		CompletedAt:    req.CompletedAt,
		DurationSec:    req.DurationSec,
		Exercises:      exercises,
		IdempotencyKey: idempotencyKey,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	resp := RecordCompletionResponse{
		CompletionID: record.ID,
		CompletedAt:  record.CompletedAt,
		Replay:       replay,
	}

	status := http.StatusAccepted
	if replay {
		status = http.StatusOK
	}
	writeJSON(w, status, resp)
}

func (h *Handler) getCompletion(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	record, err := h.service.GetCompletion(r.Context(), claims.Subject, id)
	if err != nil {
		if errors.Is(err, domain.ErrCompletionNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "completion not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toCompletionView(*record))
}

func (h *Handler) listCompletions(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	cursorToken := r.URL.Query().Get("cursor")
	cursor, err := persistence.DecodeCursor(cursorToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "invalid cursor")
		return
	}

	records, next, err := h.service.ListCompletions(r.Context(), claims.Subject, cursor, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	items := make([]CompletionView, 0, len(records))
	for _, rec := range records {
		items = append(items, toCompletionView(rec))
	}

	resp := ListCompletionsResponse{
		Items:      items,
		NextCursor: persistence.EncodeCursor(next),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) dailyActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	date := time.Now().UTC()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(progress.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "date must be formatted YYYY-MM-DD")
			return
		}
		date = parsed
	}

	started := time.Now()
	daily, err := h.service.ComputeDailyActivity(r.Context(), claims.Subject, date)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	observability.ObserveAggregation("daily", time.Since(started))

	writeJSON(w, http.StatusOK, daily)
}

func (h *Handler) activityHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	days := 0
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "validation_failed", "days must be an integer")
			return
		}
		// An explicit days=0 is invalid; only an absent parameter defaults.
		if parsed == 0 {
			writeError(w, http.StatusBadRequest, "validation_failed", domain.ErrInvalidWindow.Error())
			return
		}
		days = parsed
	}

	started := time.Now()
	buckets, err := h.service.ComputeActivityHistory(r.Context(), claims.Subject, days)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidWindow) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	observability.ObserveAggregation("history", time.Since(started))

	resp := ActivityHistoryResponse{
		Days:  buckets,
		Total: len(buckets),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) goals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getGoals(w, r)
	case http.MethodPut:
		h.updateGoals(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) getGoals(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	goals, err := h.service.Goals(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toGoalsView(goals))
}

func (h *Handler) updateGoals(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeGoalsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope goals:write required")
		return
	}

	var req UpdateGoalsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}

	goals, err := h.service.UpdateGoals(r.Context(), claims.Subject, domain.GoalsPatch{
		EnergyKcal:    req.EnergyKcal,
		ActiveMinutes: req.ActiveMinutes,
		Sessions:      req.Sessions,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidGoal) {
			writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toGoalsView(goals))
}

func (h *Handler) achievementProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	started := time.Now()
	views, err := h.service.ComputeAchievementProgress(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}
	observability.ObserveAggregation("achievements", time.Since(started))

	items := make([]AchievementProgressView, 0, len(views))
	for _, view := range views {
		items = append(items, toAchievementView(view))
	}

	writeJSON(w, http.StatusOK, AchievementProgressResponse{Items: items})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}

	claims, ok := auth.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
		return
	}
	if !claims.HasScope(auth.ScopeWorkoutsRead) && !claims.HasScope(auth.ScopeWorkoutsWrite) {
		writeError(w, http.StatusForbidden, "forbidden", "scope workouts:read required")
		return
	}

	stats, err := h.service.Stats(r.Context(), claims.Subject)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		TotalSessions: stats.TotalSessions,
		Last30Days:    stats.Last30Days,
	})
}

// RecordCompletionRequest is the payload for POST /v1/workouts/completions.
type RecordCompletionRequest struct {
	WorkoutID   string             `json:"workout_id"`
	CompletedAt time.Time          `json:"completed_at"`
	DurationSec int                `json:"duration_sec"`
	Exercises   []ExerciseLogEntry `json:"exercises"`
}

// ExerciseLogEntry is one exercise within a completion payload.
type ExerciseLogEntry struct {
	ExerciseID string            `json:"exercise_id"`
	Sets       []domain.SetEntry `json:"sets"`
}

// Validate ensures request correctness.
func (r RecordCompletionRequest) Validate() error {
	if strings.TrimSpace(r.WorkoutID) == "" {
		return errors.New("workout_id is required")
	}
	if r.DurationSec < 0 {
		return errors.New("duration_sec must be >= 0")
	}
	for _, ex := range r.Exercises {
		if strings.TrimSpace(ex.ExerciseID) == "" {
			return errors.New("exercise_id is required for every exercise")
		}
	}
	return nil
}

// RecordCompletionResponse describes the response body for create.
type RecordCompletionResponse struct {
	CompletionID string    `json:"completion_id"`
	CompletedAt  time.Time `json:"completed_at"`
	Replay       bool      `json:"idempotent_replay"`
}

// CompletionView exposes full details about a recorded completion.
type CompletionView struct {
	CompletionID string             `json:"completion_id"`
	WorkoutID    string             `json:"workout_id"`
	CompletedAt  time.Time          `json:"completed_at"`
	DurationSec  int                `json:"duration_sec"`
	Exercises    []ExerciseLogEntry `json:"exercises"`
	CreatedAt    time.Time          `json:"created_at"`
}

// ListCompletionsResponse packages list results.
type ListCompletionsResponse struct {
	Items      []CompletionView `json:"items"`
	NextCursor string           `json:"next_cursor,omitempty"`
}

// ActivityHistoryResponse wraps the per-day rollups for the requested window.
type ActivityHistoryResponse struct {
	Days  []progress.DayBucket `json:"days"`
	Total int                  `json:"total"`
}

// UpdateGoalsRequest carries a partial goals update; omitted fields keep
// their current values.
type UpdateGoalsRequest struct {
	EnergyKcal    *int `json:"energy_kcal"`
	ActiveMinutes *int `json:"active_minutes"`
	Sessions      *int `json:"sessions"`
}

// GoalsView is the stored (or defaulted) per-user targets.
type GoalsView struct {
	EnergyKcal    int `json:"energy_kcal"`
	ActiveMinutes int `json:"active_minutes"`
	Sessions      int `json:"sessions"`
}

// AchievementProgressView merges a definition with the caller's progress.
type AchievementProgressView struct {
	AchievementID string     `json:"achievement_id"`
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Icon          string     `json:"icon"`
	Category      string     `json:"category"`
	RequiredCount int        `json:"required_count"`
	Points        int        `json:"points"`
	Unlocked      bool       `json:"unlocked"`
	UnlockedAt    *time.Time `json:"unlocked_at,omitempty"`
	Progress      int        `json:"progress"`
	Percentage    float64    `json:"percentage"`
}

// AchievementProgressResponse packages the progress views.
type AchievementProgressResponse struct {
	Items []AchievementProgressView `json:"items"`
}

// StatsResponse is the lifetime summary for the evolution page.
type StatsResponse struct {
	TotalSessions int `json:"total_sessions"`
	Last30Days    int `json:"last_30_days"`
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toCompletionView(rec domain.CompletionRecord) CompletionView {
	exercises := make([]ExerciseLogEntry, 0, len(rec.Exercises))
	for _, ex := range rec.Exercises {
		exercises = append(exercises, ExerciseLogEntry{
			ExerciseID: ex.ExerciseID,
			Sets:       ex.Sets,
		})
	}
	return CompletionView{
		CompletionID: rec.ID,
		WorkoutID:    rec.WorkoutID,
		CompletedAt:  rec.CompletedAt,
		DurationSec:  rec.DurationSec,
		Exercises:    exercises,
		CreatedAt:    rec.CreatedAt,
	}
}

func toGoalsView(goals domain.Goals) GoalsView {
	return GoalsView{
		EnergyKcal:    goals.EnergyKcal,
		ActiveMinutes: goals.ActiveMinutes,
		Sessions:      goals.Sessions,
	}
}

func toAchievementView(p progress.AchievementProgress) AchievementProgressView {
	return AchievementProgressView{
		AchievementID: p.Definition.ID,
		Name:          p.Definition.Name,
		Description:   p.Definition.Description,
		Icon:          p.Definition.Icon,
		Category:      string(p.Definition.Category),
		RequiredCount: p.Definition.RequiredCount,
		Points:        p.Definition.Points,
		Unlocked:      p.Unlocked,
		UnlockedAt:    p.UnlockedAt,
		Progress:      p.Progress,
		Percentage:    p.Percentage,
	}
}
