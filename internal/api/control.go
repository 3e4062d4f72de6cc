package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/asa-tools/arkmgr/internal/process"
	"github.com/asa-tools/arkmgr/internal/settings"
	"github.com/asa-tools/arkmgr/internal/steamcmd"
)

var (
	serverStarts = metrics.NewCounter("arkmgr_server_starts_total")
	serverStops  = metrics.NewCounter("arkmgr_server_stops_total")
)

type ControlHandler struct {
	proc       *process.Controller
	steam      *steamcmd.Manager
	settings   *settings.Store
	launch     func() process.LaunchOptions
	installing atomic.Bool
}

func NewControlHandler(proc *process.Controller, steam *steamcmd.Manager, store *settings.Store, launch func() process.LaunchOptions) *ControlHandler {
	return &ControlHandler{proc: proc, steam: steam, settings: store, launch: launch}
}

// Status reports the installation and runtime state of the managed server.
func (h *ControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"installed":  h.steam.ServerInstalled(),
		"installing": h.installing.Load(),
		"running":    h.proc.Running(),
		"name":       h.settings.ServerName(),
	}
	if h.proc.Running() {
		status["pid"] = h.proc.PID()
		status["uptime_seconds"] = int64(h.proc.Uptime().Seconds())
	}
	writeJSON(w, http.StatusOK, status)
}

// Install triggers a SteamCMD install or update in the background.
func (h *ControlHandler) Install(w http.ResponseWriter, r *http.Request) {
	if h.proc.Running() {
		writeError(w, http.StatusConflict, "stop the server before updating")
		return
	}
	if !h.installing.CompareAndSwap(false, true) {
		writeError(w, http.StatusConflict, "install already in progress")
		return
	}

	validateFiles := r.URL.Query().Get("validate") == "true"
	go func() {
		defer h.installing.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if err := h.steam.InstallOrUpdate(ctx, validateFiles); err != nil {
			log.Printf("steamcmd install failed: %v", err)
			return
		}
		log.Println("steamcmd install finished")
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{"message": "install started"})
}

func (h *ControlHandler) Start(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.Start(h.launch()); err != nil {
		switch {
		case errors.Is(err, process.ErrAlreadyRunning):
			writeError(w, http.StatusConflict, "server already running")
		case errors.Is(err, process.ErrNotInstalled):
			writeError(w, http.StatusConflict, "server is not installed")
		default:
			writeError(w, http.StatusInternalServerError, "failed to start server: "+err.Error())
		}
		return
	}
	serverStarts.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "server started"})
}

func (h *ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.Stop(); err != nil {
		if errors.Is(err, process.ErrNotRunning) {
			writeError(w, http.StatusConflict, "server is not running")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to stop server: "+err.Error())
		return
	}
	serverStops.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "server stopped"})
}

func (h *ControlHandler) Restart(w http.ResponseWriter, r *http.Request) {
	if err := h.proc.Stop(); err != nil && !errors.Is(err, process.ErrNotRunning) {
		writeError(w, http.StatusInternalServerError, "failed to stop server: "+err.Error())
		return
	}
	serverStops.Inc()
	if err := h.proc.Start(h.launch()); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to start server: "+err.Error())
		return
	}
	serverStarts.Inc()
	writeJSON(w, http.StatusOK, map[string]string{"message": "server restarted"})
}
