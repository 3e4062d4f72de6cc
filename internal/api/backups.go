package api

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/VictoriaMetrics/metrics"
	"github.com/asa-tools/arkmgr/internal/backup"
	"github.com/asa-tools/arkmgr/internal/process"
	"github.com/go-chi/chi/v5"
)

var backupsCreated = metrics.NewCounter("arkmgr_backups_created_total")

type BackupHandler struct {
	backups *backup.Service
	proc    *process.Controller
}

func NewBackupHandler(backupSvc *backup.Service, proc *process.Controller) *BackupHandler {
	return &BackupHandler{backups: backupSvc, proc: proc}
}

// List returns all recorded backups, newest first.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	backups, err := h.backups.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, backups)
}

// Create archives the server's Saved directory.
func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	b, err := h.backups.Create()
	if err != nil {
		if errors.Is(err, backup.ErrNothingToBackup) {
			writeError(w, http.StatusConflict, "no saved data to back up")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create backup: "+err.Error())
		return
	}
	backupsCreated.Inc()
	writeJSON(w, http.StatusCreated, b)
}

// Download sends a backup archive to the client.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupId")

	path, err := h.backups.FilePath(backupID)
	if err != nil {
		writeError(w, http.StatusNotFound, "backup not found")
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename="+filepath.Base(path))
	w.Header().Set("Content-Type", "application/gzip")
	http.ServeFile(w, r, path)
}

// Delete removes a backup archive and its record.
func (h *BackupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupId")

	if err := h.backups.Delete(backupID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete backup")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "backup deleted"})
}

// Restore replaces the Saved directory with a backup's contents. The
// server must be stopped first.
func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	backupID := chi.URLParam(r, "backupId")

	if h.proc.Running() {
		writeError(w, http.StatusConflict, "stop the server before restoring a backup")
		return
	}

	if err := h.backups.Restore(backupID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to restore backup: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "backup restored"})
}
