package auth

import (
	"context"
	"database/sql"
	"time"

	"folio/internal/database"
)

const (
	MaxFailedLoginAttempts = 10
	AccountLockoutDuration = 15 * time.Minute
)

// recordFailedLogin bumps the failure counter and locks the account once it
// reaches MaxFailedLoginAttempts.
func recordFailedLogin(ctx context.Context, db *sql.DB, userID string, now time.Time) error {
	_, err := db.ExecContext(ctx, `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= ? THEN ?
		        ELSE locked_until
		    END
		WHERE id = ?`, MaxFailedLoginAttempts, database.FormatTime(now.Add(AccountLockoutDuration)), userID)
	return err
}

// resetFailedLogins clears the counter after a successful login.
func resetFailedLogins(ctx context.Context, db *sql.DB, userID string) error {
	_, err := db.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts = 0, locked_until = NULL WHERE id = ?", userID)
	return err
}

// isLocked reports whether lockedUntil is still in the future.
func isLocked(lockedUntil sql.NullString, now time.Time) bool {
	if !lockedUntil.Valid || lockedUntil.String == "" {
		return false
	}
	t, err := database.ParseTime(lockedUntil.String)
	if err != nil {
		return false
	}
	return now.Before(t)
}
