package api

import (
	"errors"
	"net/http"

	"github.com/asa-tools/arkmgr/internal/settings"
	"github.com/asa-tools/arkmgr/internal/validate"
)

type SettingsHandler struct {
	settings *settings.Store
}

func NewSettingsHandler(store *settings.Store) *SettingsHandler {
	return &SettingsHandler{settings: store}
}

// GetServer returns the GameUserSettings.ini options the manager edits.
// The admin password is never echoed back.
func (h *SettingsHandler) GetServer(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.ServerSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read server settings")
		return
	}
	s.AdminPassword = nil
	s.ServerPassword = nil
	writeJSON(w, http.StatusOK, s)
}

// UpdateServer applies a partial update to GameUserSettings.ini.
func (h *SettingsHandler) UpdateServer(w http.ResponseWriter, r *http.Request) {
	var req settings.ServerSettings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.SessionName != nil {
		name := validate.Sanitize(*req.SessionName, validate.MaxServerNameLength)
		if name == "" {
			writeError(w, http.StatusBadRequest, "session name empty after sanitization")
			return
		}
		req.SessionName = &name
	}
	if req.AdminPassword != nil && !validate.StrongPassword(*req.AdminPassword) {
		writeError(w, http.StatusBadRequest, "admin password must be 8-64 characters")
		return
	}
	if req.RCONPort != nil {
		if err := validate.Port(*req.RCONPort); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.settings.UpdateServerSettings(req); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write server settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "server settings updated, restart to apply"})
}

// GetGame returns the Game.ini multipliers and toggles.
func (h *SettingsHandler) GetGame(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.GameSettings()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read game settings")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// UpdateGame applies a partial update to Game.ini.
func (h *SettingsHandler) UpdateGame(w http.ResponseWriter, r *http.Request) {
	var req settings.GameSettings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.settings.UpdateGameSettings(req); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to write game settings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "game settings updated, restart to apply"})
}

// GetMods returns the active mod IDs.
func (h *SettingsHandler) GetMods(w http.ResponseWriter, r *http.Request) {
	mods, err := h.settings.ActiveMods()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read mod list")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"mods": mods})
}

// SetMods replaces the active mod list.
func (h *SettingsHandler) SetMods(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mods []string `json:"mods"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(req.Mods) == 0 {
		if err := h.settings.ClearMods(); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to clear mod list")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"message": "mod list cleared"})
		return
	}

	if err := h.settings.SetMods(req.Mods); err != nil {
		if errors.Is(err, settings.ErrNoValidMods) {
			writeError(w, http.StatusBadRequest, "no valid mod IDs in request")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to write mod list")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "mod list updated, restart to apply"})
}
