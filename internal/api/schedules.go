package api

import (
	"database/sql"
	"net/http"

	"github.com/asa-tools/arkmgr/internal/scheduler"
	"github.com/asa-tools/arkmgr/internal/validate"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ScheduleHandler struct {
	db *sql.DB
}

func NewScheduleHandler(db *sql.DB) *ScheduleHandler {
	return &ScheduleHandler{db: db}
}

// List returns all schedules.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	schedules, err := scheduler.List(h.db)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list schedules")
		return
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Create adds a new schedule.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		CronExpr string `json:"cron_expr"`
		Action   string `json:"action"`
		Command  string `json:"command"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.CronExpr == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "name, cron_expr, and action required")
		return
	}

	if _, err := scheduler.ParseCron(req.CronExpr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid cron expression: "+err.Error())
		return
	}

	if !scheduler.ValidAction(req.Action) {
		writeError(w, http.StatusBadRequest, "action must be one of: start, stop, restart, backup, rcon")
		return
	}
	if req.Action == scheduler.ActionRCON {
		req.Command = validate.Sanitize(req.Command, validate.MaxInputLength)
		if req.Command == "" {
			writeError(w, http.StatusBadRequest, "rcon schedules need a command")
			return
		}
	} else {
		req.Command = ""
	}

	id := uuid.New().String()[:8]

	_, err := h.db.Exec(
		`INSERT INTO schedules (id, name, cron_expr, action, command) VALUES (?, ?, ?, ?, ?)`,
		id, req.Name, req.CronExpr, req.Action, req.Command,
	)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create schedule")
		return
	}

	s, err := h.getSchedule(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load created schedule")
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// Update modifies an existing schedule.
func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	var req struct {
		Name     *string `json:"name"`
		CronExpr *string `json:"cron_expr"`
		Action   *string `json:"action"`
		Command  *string `json:"command"`
		Enabled  *bool   `json:"enabled"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.CronExpr != nil {
		if _, err := scheduler.ParseCron(*req.CronExpr); err != nil {
			writeError(w, http.StatusBadRequest, "invalid cron expression: "+err.Error())
			return
		}
	}
	if req.Action != nil && !scheduler.ValidAction(*req.Action) {
		writeError(w, http.StatusBadRequest, "action must be one of: start, stop, restart, backup, rcon")
		return
	}

	if req.Name != nil {
		h.db.Exec("UPDATE schedules SET name = ? WHERE id = ?", *req.Name, scheduleID)
	}
	if req.CronExpr != nil {
		h.db.Exec("UPDATE schedules SET cron_expr = ? WHERE id = ?", *req.CronExpr, scheduleID)
	}
	if req.Action != nil {
		h.db.Exec("UPDATE schedules SET action = ? WHERE id = ?", *req.Action, scheduleID)
	}
	if req.Command != nil {
		h.db.Exec("UPDATE schedules SET command = ? WHERE id = ?",
			validate.Sanitize(*req.Command, validate.MaxInputLength), scheduleID)
	}
	if req.Enabled != nil {
		enabled := 0
		if *req.Enabled {
			enabled = 1
		}
		h.db.Exec("UPDATE schedules SET enabled = ? WHERE id = ?", enabled, scheduleID)
	}

	s, err := h.getSchedule(scheduleID)
	if err != nil {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Delete removes a schedule.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	scheduleID := chi.URLParam(r, "scheduleId")

	result, err := h.db.Exec("DELETE FROM schedules WHERE id = ?", scheduleID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete schedule")
		return
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		writeError(w, http.StatusNotFound, "schedule not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "schedule deleted"})
}

func (h *ScheduleHandler) getSchedule(id string) (scheduler.Schedule, error) {
	var s scheduler.Schedule
	var enabled int
	err := h.db.QueryRow(
		`SELECT id, name, cron_expr, action, command, enabled, COALESCE(last_run, ''), created_at
		FROM schedules WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.CronExpr, &s.Action, &s.Command, &enabled, &s.LastRun, &s.CreatedAt)
	if err != nil {
		return s, err
	}
	s.Enabled = enabled == 1
	return s, nil
}
