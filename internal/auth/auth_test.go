package auth

import (
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/asa-tools/arkmgr/internal/db"
)

func newTestService(t *testing.T) (*Service, *sql.DB) {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}
	return NewService(database), database
}

func TestLoginAndValidate(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.EnsureAdmin("admin", "super-secret"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	// Second call is a no-op, not a duplicate user.
	if err := svc.EnsureAdmin("other", "whatever1"); err != nil {
		t.Fatalf("EnsureAdmin again: %v", err)
	}

	token, err := svc.Login("admin", "super-secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	user, err := svc.ValidateSession(token)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if user.Username != "admin" {
		t.Errorf("Username = %q", user.Username)
	}

	if _, err := svc.Login("other", "whatever1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("second bootstrap user exists: %v", err)
	}
	if _, err := svc.Login("admin", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("bad password: err = %v", err)
	}

	if err := svc.Logout(token); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.ValidateSession(token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("session survived logout: %v", err)
	}
}

func TestExpiredSession(t *testing.T) {
	svc, database := newTestService(t)

	if err := svc.EnsureAdmin("admin", "super-secret"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login("admin", "super-secret")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := database.Exec(
		"UPDATE sessions SET expires_at = datetime('now', '-1 hour') WHERE token = ?", token,
	); err != nil {
		t.Fatal(err)
	}

	if _, err := svc.ValidateSession(token); !errors.Is(err, ErrSessionExpired) {
		t.Errorf("stale session validated: %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newTestService(t)

	if err := svc.EnsureAdmin("admin", "super-secret"); err != nil {
		t.Fatal(err)
	}
	token, err := svc.Login("admin", "super-secret")
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.ChangePassword("admin", "even-more-secret"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := svc.ValidateSession(token); !errors.Is(err, ErrSessionExpired) {
		t.Error("old session survived a password change")
	}
	if _, err := svc.Login("admin", "super-secret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Error("old password still accepted")
	}
	if _, err := svc.Login("admin", "even-more-secret"); err != nil {
		t.Errorf("new password rejected: %v", err)
	}

	if err := svc.ChangePassword("ghost", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("ChangePassword(unknown user) = %v", err)
	}
}
