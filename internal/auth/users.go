package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"folio/internal/apperr"
	"folio/internal/audit"
	"folio/internal/database"
	"folio/internal/models"
	"folio/internal/validation"

	"github.com/google/uuid"
)

// CreateUserInput is the payload for CreateUser. Role defaults to STAFF.
type CreateUserInput struct {
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
	Password string      `json:"password"`
}

// UpdateUserInput is the payload for UpdateUser. Nil fields are unchanged.
type UpdateUserInput struct {
	Name     *string      `json:"name"`
	Role     *models.Role `json:"role"`
	Active   *bool        `json:"active"`
	Password *string      `json:"password"`
}

const selectUser = "SELECT id, email, name, role, active, created_at, updated_at FROM users"

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	var role, created, updated string
	var active int
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &role, &active, &created, &updated); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Active = active == 1
	u.CreatedAt = database.MustParseTime(created)
	u.UpdatedAt = database.MustParseTime(updated)
	return &u, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// ListUsers returns every account ordered by email.
func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, selectUser+" ORDER BY email")
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// GetUser returns one account.
func (s *Service) GetUser(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, selectUser+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// CreateUser adds an account. Emails are unique regardless of case.
func (s *Service) CreateUser(ctx context.Context, actor string, in CreateUserInput) (*models.User, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Role == "" {
		in.Role = models.RoleStaff
	}
	ve := &validation.ValidationErrors{}
	validation.RequireField(ve, "email", in.Email)
	if in.Email != "" {
		validation.ValidateEmail(ve, "email", in.Email)
	}
	validation.RequireField(ve, "name", in.Name)
	validation.ValidateMaxLength(ve, "name", in.Name, validation.MaxStringLength)
	validation.ValidateEnum(ve, "role", string(in.Role), validation.ValidRoles)
	if err := ValidatePasswordStrength(in.Password); err != nil {
		ve.Add("password", err.Error())
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	id := uuid.NewString()
	now := database.FormatTime(s.now())
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 1, ?, ?)`,
		id, in.Email, in.Name, string(in.Role), hash, now, now)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.Validation("email already in use",
				apperr.FieldError{Field: "email", Message: "already in use"})
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionCreate, Module: audit.ModuleUsers, RecordID: id, Summary: "Created user " + in.Email})
	return s.GetUser(ctx, id)
}

// UpdateUser changes an account. Deactivating an account or changing its
// password ends its sessions.
func (s *Service) UpdateUser(ctx context.Context, actor, id string, in UpdateUserInput) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	ve := &validation.ValidationErrors{}
	if in.Name != nil {
		u.Name = strings.TrimSpace(*in.Name)
		validation.RequireField(ve, "name", u.Name)
		validation.ValidateMaxLength(ve, "name", u.Name, validation.MaxStringLength)
	}
	if in.Role != nil {
		u.Role = *in.Role
		validation.ValidateEnum(ve, "role", string(u.Role), validation.ValidRoles)
	}
	if in.Active != nil {
		u.Active = *in.Active
	}
	var hash string
	if in.Password != nil {
		if err := ValidatePasswordStrength(*in.Password); err != nil {
			ve.Add("password", err.Error())
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}
	if in.Password != nil {
		if hash, err = HashPassword(*in.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "UPDATE users SET name = ?, role = ?, active = ?, updated_at = ? WHERE id = ?",
			u.Name, string(u.Role), boolInt(u.Active), database.FormatTime(s.now()), id)
		if err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if hash != "" {
			if _, err := tx.ExecContext(ctx, "UPDATE users SET password_hash = ?, failed_login_attempts = 0, locked_until = NULL WHERE id = ?", hash, id); err != nil {
				return fmt.Errorf("update password: %w", err)
			}
		}
		if hash != "" || !u.Active {
			if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ?", id); err != nil {
				return fmt.Errorf("end sessions: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit.Record(ctx, audit.Entry{UserID: actor, Action: audit.ActionUpdate, Module: audit.ModuleUsers, RecordID: id, Summary: "Updated user " + u.Email})
	return s.GetUser(ctx, id)
}
