package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/database"
	"folio/internal/models"
)

const (
	// SessionCookie is the cookie carrying the session token.
	SessionCookie = "folio_session"
	// SessionLifetime is how long a session lives past its last use.
	SessionLifetime = 24 * time.Hour
	// InactivityTimeout ends a session that has been idle this long.
	InactivityTimeout = 30 * time.Minute
)

var errBadCredentials = apperr.Unauthorized("invalid email or password")

// Service authenticates users and manages sessions and accounts.
type Service struct {
	db    *sql.DB
	audit *audit.Logger
	now   func() time.Time
}

// NewService returns an auth Service. auditLog may be nil.
func NewService(db *sql.DB, auditLog *audit.Logger) *Service {
	return &Service{db: db, audit: auditLog, now: time.Now}
}

// SetClock replaces the time source. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Session is an issued login.
type Session struct {
	Token     string       `json:"-"`
	User      *models.User `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// Login checks credentials and opens a session. Unknown emails and wrong
// passwords fail identically.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	now := s.now()
	var u models.User
	var hash, role, created, updated string
	var active int
	var lockedUntil sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, role, password_hash, active, locked_until, created_at, updated_at
		FROM users WHERE email = ?`, strings.TrimSpace(email)).
		Scan(&u.ID, &u.Email, &u.Name, &role, &hash, &active, &lockedUntil, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if isLocked(lockedUntil, now) {
		return nil, apperr.Forbidden("account temporarily locked after too many failed logins")
	}
	if !CheckPassword(hash, password) {
		if err := recordFailedLogin(ctx, s.db, u.ID, now); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		return nil, errBadCredentials
	}
	if active == 0 {
		return nil, apperr.Forbidden("account deactivated")
	}
	if err := resetFailedLogins(ctx, s.db, u.ID); err != nil {
		return nil, fmt.Errorf("reset failed logins: %w", err)
	}
	u.Role = models.Role(role)
	u.Active = true
	u.CreatedAt = database.MustParseTime(created)
	u.UpdatedAt = database.MustParseTime(updated)

	token, err := GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}
	expires := now.Add(SessionLifetime)
	_, err = s.db.ExecContext(ctx,
		"INSERT INTO sessions (token, user_id, created_at, expires_at, last_activity) VALUES (?, ?, ?, ?, ?)",
		token, u.ID, database.FormatTime(now), database.FormatTime(expires), database.FormatTime(now))
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{UserID: u.ID, Action: audit.ActionLogin, Module: audit.ModuleUsers, RecordID: u.ID, Summary: u.Email + " signed in"})
	return &Session{Token: token, User: &u, ExpiresAt: expires}, nil
}

// Authenticate resolves a session token to its active user and slides the
// session's expiry forward. Expired, idle and deactivated sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("not signed in")
	}
	now := s.now()
	var u models.User
	var role, created, updated, expires, lastActivity string
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.name, u.role, u.active, u.created_at, u.updated_at, s.expires_at, s.last_activity
		FROM sessions s JOIN users u ON u.id = s.user_id WHERE s.token = ?`, token).
		Scan(&u.ID, &u.Email, &u.Name, &role, &active, &created, &updated, &expires, &lastActivity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.Unauthorized("session not found")
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	reason := ""
	switch {
	case !now.Before(database.MustParseTime(expires)):
		reason = "session expired"
	case now.Sub(database.MustParseTime(lastActivity)) > InactivityTimeout:
		reason = "session expired due to inactivity"
	case active == 0:
		reason = "account deactivated"
	}
	if reason != "" {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
			return nil, fmt.Errorf("delete session: %w", err)
		}
		return nil, apperr.Unauthorized(reason)
	}

	_, err = s.db.ExecContext(ctx, "UPDATE sessions SET last_activity = ?, expires_at = ? WHERE token = ?",
		database.FormatTime(now), database.FormatTime(now.Add(SessionLifetime)), token)
	if err != nil {
		return nil, fmt.Errorf("touch session: %w", err)
	}
	u.Role = models.Role(role)
	u.Active = true
	u.CreatedAt = database.MustParseTime(created)
	u.UpdatedAt = database.MustParseTime(updated)
	return &u, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	var userID string
	err := s.db.QueryRowContext(ctx, "DELETE FROM sessions WHERE token = ? RETURNING user_id", token).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	s.audit.Record(ctx, audit.Entry{UserID: userID, Action: audit.ActionLogout, Module: audit.ModuleUsers, RecordID: userID})
	return nil
}

// CleanupSessions deletes expired and idle sessions and returns how many were
// removed.
func (s *Service) CleanupSessions(ctx context.Context) (int64, error) {
	now := s.now()
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ? OR last_activity < ?",
		database.FormatTime(now), database.FormatTime(now.Add(-InactivityTimeout)))
	if err != nil {
		return 0, fmt.Errorf("cleanup sessions: %w", err)
	}
	return res.RowsAffected()
}
