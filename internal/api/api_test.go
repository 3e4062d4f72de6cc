package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/asa-tools/arkmgr/internal/auth"
	"github.com/asa-tools/arkmgr/internal/db"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return database
}

func TestAuthMiddleware(t *testing.T) {
	database := openTestDB(t)
	authSvc := auth.NewService(database)
	if err := authSvc.EnsureAdmin("admin", "hunter2hunter2"); err != nil {
		t.Fatalf("ensure admin: %v", err)
	}
	token, err := authSvc.Login("admin", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	handler := AuthMiddleware(authSvc)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(userContextKey{}).(*auth.User)
		if !ok || user.Username != "admin" {
			t.Errorf("user missing from context: %v", user)
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"no token", "", "", http.StatusUnauthorized},
		{"bad token", "Bearer nope", "", http.StatusUnauthorized},
		{"valid header", "Bearer " + token, "", http.StatusNoContent},
		{"valid query param", "", "?token=" + token, http.StatusNoContent},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.name, rec.Code, tt.want)
		}
	}
}

func TestRCONHandlerExecute(t *testing.T) {
	database := openTestDB(t)

	var gotCommand string
	h := NewRCONHandler(database, func(command string) (string, error) {
		gotCommand = command
		return "players online: 0", nil
	})

	req := httptest.NewRequest(http.MethodPost, "/server/rcon",
		strings.NewReader(`{"command":"ListPlayers"}`))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if gotCommand != "ListPlayers" {
		t.Errorf("executed %q, want ListPlayers", gotCommand)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["response"] != "players online: 0" {
		t.Errorf("response = %q", resp["response"])
	}

	// The command lands in the history log with the API source.
	logged, err := db.RecentCommands(database, 10)
	if err != nil {
		t.Fatalf("recent commands: %v", err)
	}
	if len(logged) != 1 || logged[0].Source != db.SourceAPI || logged[0].Command != "ListPlayers" {
		t.Errorf("unexpected command log: %+v", logged)
	}
}

func TestRCONHandlerExecuteErrors(t *testing.T) {
	database := openTestDB(t)
	h := NewRCONHandler(database, func(string) (string, error) {
		return "", errors.New("dial tcp: connection refused")
	})

	// Empty command never reaches the executor.
	req := httptest.NewRequest(http.MethodPost, "/server/rcon", strings.NewReader(`{"command":""}`))
	rec := httptest.NewRecorder()
	h.Execute(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty command: status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/server/rcon", strings.NewReader(`{"command":"SaveWorld"}`))
	rec = httptest.NewRecorder()
	h.Execute(rec, req)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("executor failure: status = %d, want 502", rec.Code)
	}

	// Failed commands are not logged.
	logged, _ := db.RecentCommands(database, 10)
	if len(logged) != 0 {
		t.Errorf("failed command was logged: %+v", logged)
	}
}

func TestScheduleHandlerCreateValidation(t *testing.T) {
	database := openTestDB(t)
	h := NewScheduleHandler(database)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"valid backup schedule", `{"name":"nightly","cron_expr":"0 4 * * *","action":"backup"}`, http.StatusCreated},
		{"valid rcon schedule", `{"name":"save","cron_expr":"*/30 * * * *","action":"rcon","command":"SaveWorld"}`, http.StatusCreated},
		{"bad cron", `{"name":"x","cron_expr":"not cron","action":"backup"}`, http.StatusBadRequest},
		{"bad action", `{"name":"x","cron_expr":"* * * * *","action":"explode"}`, http.StatusBadRequest},
		{"rcon without command", `{"name":"x","cron_expr":"* * * * *","action":"rcon"}`, http.StatusBadRequest},
		{"missing fields", `{"name":"x"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/server/schedules", strings.NewReader(tt.body))
		rec := httptest.NewRecorder()
		h.Create(rec, req)
		if rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d (body %s)", tt.name, rec.Code, tt.want, rec.Body.String())
		}
	}
}

func TestScheduleRCONCommandSanitized(t *testing.T) {
	database := openTestDB(t)
	h := NewScheduleHandler(database)

	body := `{"name":"evil","cron_expr":"* * * * *","action":"rcon","command":"SaveWorld; rm -rf /"}`
	req := httptest.NewRequest(http.MethodPost, "/server/schedules", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Create(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var created struct {
		Command string `json:"command"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.ContainsAny(created.Command, ";|&") {
		t.Errorf("stored command kept shell metacharacters: %q", created.Command)
	}
}
