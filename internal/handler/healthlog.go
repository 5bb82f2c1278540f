package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"

	"github.com/cradlehq/cradle/internal/auth"
	"github.com/cradlehq/cradle/internal/model"
	"github.com/cradlehq/cradle/internal/store"
)

var dayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

type HealthLogHandler struct {
	logs   *store.HealthLogStore
	logger *slog.Logger
}

func NewHealthLogHandler(hs *store.HealthLogStore, logger *slog.Logger) *HealthLogHandler {
	return &HealthLogHandler{logs: hs, logger: logger}
}

type stepsRequest struct {
	Day   string `json:"day"`
	Steps int    `json:"steps"`
}

// UpsertSteps handles PUT /api/health/steps
func (h *HealthLogHandler) UpsertSteps(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	var req stepsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !dayPattern.MatchString(req.Day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	if req.Steps < 0 {
		writeError(w, http.StatusBadRequest, "steps must not be negative")
		return
	}

	logEntry, err := h.logs.UpsertSteps(profileID, req.Day, req.Steps)
	if err != nil {
		h.logger.Error("upsert steps", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save steps")
		return
	}
	writeJSON(w, http.StatusOK, logEntry)
}

// ListSteps handles GET /api/health/steps?from=...&to=...
func (h *HealthLogHandler) ListSteps(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	logs, err := h.logs.ListSteps(profileID, from, to)
	if err != nil {
		h.logger.Error("list steps", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list steps")
		return
	}
	writeList(w, logs)
}

type weightRequest struct {
	Day      string  `json:"day"`
	WeightKg float64 `json:"weight_kg"`
}

// UpsertWeight handles PUT /api/health/weight
func (h *HealthLogHandler) UpsertWeight(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	var req weightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !dayPattern.MatchString(req.Day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	if req.WeightKg <= 0 || req.WeightKg > 500 {
		writeError(w, http.StatusBadRequest, "weight_kg out of range")
		return
	}

	logEntry, err := h.logs.UpsertWeight(profileID, req.Day, req.WeightKg)
	if err != nil {
		h.logger.Error("upsert weight", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save weight")
		return
	}
	writeJSON(w, http.StatusOK, logEntry)
}

// ListWeights handles GET /api/health/weight?from=...&to=...
func (h *HealthLogHandler) ListWeights(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	from, to, ok := dateRange(w, r)
	if !ok {
		return
	}

	logs, err := h.logs.ListWeights(profileID, from, to)
	if err != nil {
		h.logger.Error("list weights", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list weights")
		return
	}
	writeList(w, logs)
}

type exerciseRequest struct {
	Day      string `json:"day"`
	Activity string `json:"activity"`
	Minutes  int    `json:"minutes"`
}

// AddExercise handles POST /api/health/exercise
func (h *HealthLogHandler) AddExercise(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	var req exerciseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !dayPattern.MatchString(req.Day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	if req.Activity == "" || req.Minutes <= 0 {
		writeError(w, http.StatusBadRequest, "activity and positive minutes are required")
		return
	}

	logEntry, err := h.logs.AddExercise(profileID, req.Day, req.Activity, req.Minutes)
	if err != nil {
		h.logger.Error("add exercise", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save exercise")
		return
	}
	writeJSON(w, http.StatusCreated, logEntry)
}

// ListExercises handles GET /api/health/exercise?day=...
func (h *HealthLogHandler) ListExercises(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	day := r.URL.Query().Get("day")
	if !dayPattern.MatchString(day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	logs, err := h.logs.ListExercises(profileID, day)
	if err != nil {
		h.logger.Error("list exercises", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list exercises")
		return
	}
	writeList(w, logs)
}

// DeleteExercise handles DELETE /api/health/exercise/{id}
func (h *HealthLogHandler) DeleteExercise(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.logs.DeleteExercise(id, profileID); err != nil {
		h.logger.Error("delete exercise", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete exercise")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type foodRequest struct {
	Day         string `json:"day"`
	Meal        string `json:"meal"`
	Description string `json:"description"`
	Calories    *int   `json:"calories"`
}

// AddFood handles POST /api/health/food
func (h *HealthLogHandler) AddFood(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())

	var req foodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if !dayPattern.MatchString(req.Day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}
	if !model.ValidMeal(req.Meal) {
		writeError(w, http.StatusBadRequest, "meal must be breakfast, lunch, dinner, or snack")
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	logEntry, err := h.logs.AddFood(profileID, req.Day, req.Meal, req.Description, req.Calories)
	if err != nil {
		h.logger.Error("add food", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save food log")
		return
	}
	writeJSON(w, http.StatusCreated, logEntry)
}

// ListFoods handles GET /api/health/food?day=...
func (h *HealthLogHandler) ListFoods(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	day := r.URL.Query().Get("day")
	if !dayPattern.MatchString(day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	logs, err := h.logs.ListFoods(profileID, day)
	if err != nil {
		h.logger.Error("list foods", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list food logs")
		return
	}
	writeList(w, logs)
}

// DeleteFood handles DELETE /api/health/food/{id}
func (h *HealthLogHandler) DeleteFood(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	id, err := parseIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.logs.DeleteFood(id, profileID); err != nil {
		h.logger.Error("delete food", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete food log")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summary handles GET /api/health/summary?day=...
func (h *HealthLogHandler) Summary(w http.ResponseWriter, r *http.Request) {
	profileID := auth.ProfileID(r.Context())
	day := r.URL.Query().Get("day")
	if !dayPattern.MatchString(day) {
		writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	summary, err := h.logs.DailySummary(profileID, day)
	if err != nil {
		h.logger.Error("daily summary", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to build summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func dateRange(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if !dayPattern.MatchString(from) || !dayPattern.MatchString(to) {
		writeError(w, http.StatusBadRequest, "from and to must be YYYY-MM-DD")
		return "", "", false
	}
	return from, to, true
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	writeJSON(w, http.StatusOK, items)
}
