// Package auth manages the operator accounts and bearer sessions for the
// management API. Passwords are stored as bcrypt hashes; session tokens
// are random and expire server-side.
package auth

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionExpired     = errors.New("session expired")
)

// sessionTTL is how long a login stays valid without re-authenticating.
const sessionTTL = 7 * 24 * time.Hour

type Service struct {
	db *sql.DB
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

// EnsureAdmin creates the bootstrap operator account when no users exist.
func (s *Service) EnsureAdmin(username, password string) error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.db.Exec("INSERT INTO users (username, password_hash) VALUES (?, ?)", username, string(hash))
	return err
}

func (s *Service) Login(username, password string) (string, error) {
	var id int64
	var hash string
	err := s.db.QueryRow("SELECT id, password_hash FROM users WHERE username = ?", username).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		"INSERT INTO sessions (token, user_id, expires_at) VALUES (?, ?, ?)",
		token, id, time.Now().Add(sessionTTL),
	)
	if err != nil {
		return "", err
	}

	// Opportunistic cleanup so dead sessions do not pile up.
	s.db.Exec("DELETE FROM sessions WHERE expires_at < ?", time.Now())
	return token, nil
}

func (s *Service) ValidateSession(token string) (*User, error) {
	var user User
	var expiresAt time.Time
	err := s.db.QueryRow(`
		SELECT u.id, u.username, s.expires_at
		FROM sessions s JOIN users u ON s.user_id = u.id
		WHERE s.token = ?
	`, token).Scan(&user.ID, &user.Username, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionExpired
		}
		return nil, err
	}
	if time.Now().After(expiresAt) {
		s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
		return nil, ErrSessionExpired
	}
	return &user, nil
}

func (s *Service) Logout(token string) error {
	_, err := s.db.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// ChangePassword rehashes the account password and revokes every open
// session for that user.
func (s *Service) ChangePassword(username, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	res, err := s.db.Exec("UPDATE users SET password_hash = ? WHERE username = ?", string(hash), username)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidCredentials
	}
	_, err = s.db.Exec(
		"DELETE FROM sessions WHERE user_id IN (SELECT id FROM users WHERE username = ?)", username,
	)
	return err
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
