package api

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/VictoriaMetrics/metrics"
	"github.com/asa-tools/arkmgr/internal/db"
	"github.com/asa-tools/arkmgr/internal/rcon"
)

var (
	rconCommands = metrics.NewCounter("arkmgr_rcon_commands_total")
	rconErrors   = metrics.NewCounter("arkmgr_rcon_errors_total")
)

// RCONExecutor runs one remote command against the game server.
type RCONExecutor func(command string) (string, error)

type RCONHandler struct {
	db   *sql.DB
	exec RCONExecutor
}

func NewRCONHandler(database *sql.DB, exec RCONExecutor) *RCONHandler {
	return &RCONHandler{db: database, exec: exec}
}

// Execute runs a single RCON command and returns the server's reply.
// An empty reply means the server acknowledged without output.
func (h *RCONHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Command string `json:"command"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Command == "" {
		writeError(w, http.StatusBadRequest, "command required")
		return
	}

	rconCommands.Inc()
	response, err := h.exec(req.Command)
	if err != nil {
		rconErrors.Inc()
		if errors.Is(err, rcon.ErrAuthFailed) {
			writeError(w, http.StatusBadGateway, "rcon authentication rejected, check the admin password")
			return
		}
		writeError(w, http.StatusBadGateway, "rcon command failed: "+err.Error())
		return
	}

	db.RecordCommand(h.db, db.SourceAPI, req.Command, response)
	writeJSON(w, http.StatusOK, map[string]string{"response": response})
}

// History returns recently executed commands, newest first.
func (h *RCONHandler) History(w http.ResponseWriter, r *http.Request) {
	n := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			n = parsed
		}
	}
	commands, err := db.RecentCommands(h.db, n)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load command history")
		return
	}
	writeJSON(w, http.StatusOK, commands)
}
