package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/asa-tools/arkmgr/internal/logview"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type LogHandler struct {
	logs *logview.Viewer
	exec RCONExecutor
}

func NewLogHandler(viewer *logview.Viewer, exec RCONExecutor) *LogHandler {
	return &LogHandler{logs: viewer, exec: exec}
}

// List returns the server's log files, newest first.
func (h *LogHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.logs.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list logs")
		return
	}
	writeJSON(w, http.StatusOK, files)
}

// Tail returns the last N lines of one log file.
func (h *LogHandler) Tail(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	n := 200
	if v := r.URL.Query().Get("lines"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 5000 {
			n = parsed
		}
	}

	lines, err := h.logs.Tail(name, n)
	if err != nil {
		writeError(w, http.StatusNotFound, "log file not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"name": name, "lines": lines})
}

// Live streams the newest log file over a WebSocket, following it as
// the server appends. Text messages from the client are executed as
// RCON commands and the reply is echoed into the stream.
func (h *LogHandler) Live(w http.ResponseWriter, r *http.Request) {
	name, err := h.logs.Newest()
	if err != nil {
		if errors.Is(err, logview.ErrNoLogs) {
			writeError(w, http.StatusNotFound, "no log files yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to open logs")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	// Both the follow loop and the command goroutine write to the
	// socket; gorilla allows one writer at a time.
	var writeMu sync.Mutex
	send := func(msg []byte) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, msg)
	}

	// Backlog first, then follow.
	if lines, err := h.logs.Tail(name, 100); err == nil && len(lines) > 0 {
		if err := send([]byte(strings.Join(lines, "\n"))); err != nil {
			return
		}
	}
	offset, err := h.logs.Size(name)
	if err != nil {
		return
	}

	// Client commands run through RCON and the reply goes back inline.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			cmd := strings.TrimSpace(string(msg))
			if cmd == "" {
				continue
			}
			reply, err := h.exec(cmd)
			if err != nil {
				reply = "rcon error: " + err.Error()
			}
			if reply == "" {
				reply = "(no output)"
			}
			if err := send([]byte("> " + cmd + "\n" + reply)); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			size, err := h.logs.Size(name)
			if err != nil {
				return
			}
			if size < offset {
				// Log rotated or truncated, start over.
				offset = 0
			}
			if size == offset {
				continue
			}
			data, err := h.logs.ReadFrom(name, offset)
			if err != nil {
				return
			}
			offset = size
			if len(data) == 0 {
				continue
			}
			if err := send(data); err != nil {
				return
			}
		}
	}
}
