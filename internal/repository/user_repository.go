package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// UserRepo provides access to the `users` table.  Account rows carry the
// role, the credential hashes, the email-verification and password-reset
// token state, and (for employees) the showroom assignment.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, username, name, email, phone, password_hash, role, showroom_id,
	address, is_active, email_verified, email_verification_token, email_verification_expires,
	password_reset_token, password_reset_expires, created_at, updated_at`

// scanUser reads one user row in userColumns order.
func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
		&u.Role, &u.ShowroomID, &u.Address, &u.IsActive, &u.EmailVerified,
		&u.EmailVerificationToken, &u.EmailVerificationExpires,
		&u.PasswordResetToken, &u.PasswordResetExpires, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return u, ErrNotFound
	}
	return u, err
}

// Create inserts a user and returns its ID.  Username and email uniqueness
// violations are mapped to their sentinel errors by inspecting the MySQL
// duplicate-key message (error 1062 names the violated index).
func (r *UserRepo) Create(ctx context.Context, u *model.User) (uint64, error) {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, name, email, phone, password_hash, role, showroom_id,
			address, email_verified, email_verification_token, email_verification_expires)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		u.Username, u.Name, u.Email, u.Phone, u.PasswordHash, u.Role, u.ShowroomID,
		u.Address, u.EmailVerified, u.EmailVerificationToken, u.EmailVerificationExpires)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "username") {
				return 0, ErrUsernameExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	u.ID = uint64(id)
	return u.ID, nil
}

// Delete removes a user row.  Only used to roll back a registration whose
// verification email could not be delivered; established accounts are
// soft-deactivated instead.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByIdentifier fetches a user by email or username in a single lookup so
// login cannot reveal which half of the identifier was wrong.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR username=? LIMIT 1",
		strings.ToLower(identifier), strings.ToLower(identifier)))
}

// GetByUsername fetches a user by normalized username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1",
		strings.ToLower(strings.TrimSpace(username))))
}

// UsernameTaken reports whether a username is already registered.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE username=?",
		strings.ToLower(strings.TrimSpace(username))).Scan(&n)
	return n > 0, err
}

// GetByVerificationToken fetches the user holding a non-expired email
// verification token hash.
func (r *UserRepo) GetByVerificationToken(ctx context.Context, tokenHash string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+` FROM users
		 WHERE email_verification_token=? AND email_verification_expires > UTC_TIMESTAMP() LIMIT 1`,
		tokenHash))
}

// MarkEmailVerified flips the verified flag and clears the token.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, id uint64) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET email_verified=1, email_verification_token=NULL,
			email_verification_expires=NULL WHERE id=?`, id)
	return err
}

// SetResetToken stores a password-reset token hash and expiry on the account.
func (r *UserRepo) SetResetToken(ctx context.Context, id uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password_reset_token=?, password_reset_expires=? WHERE id=?",
		tokenHash, exp, id)
	return err
}

// GetByResetToken fetches the user holding a non-expired reset token hash.
func (r *UserRepo) GetByResetToken(ctx context.Context, tokenHash string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+` FROM users
		 WHERE password_reset_token=? AND password_reset_expires > UTC_TIMESTAMP() LIMIT 1`,
		tokenHash))
}

// UpdatePassword replaces the password hash and clears any reset token.
// Clearing all sessions is the caller's responsibility.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uint64, passwordHash string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET password_hash=?, password_reset_token=NULL,
			password_reset_expires=NULL WHERE id=?`, passwordHash, id)
	return err
}

// UpdateRole changes a user's role and showroom assignment.  A nil
// showroomID clears the assignment; callers enforce that EMPLOYEE always
// gets one and other roles never do.
func (r *UserRepo) UpdateRole(ctx context.Context, id uint64, role string, showroomID *uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET role=?, showroom_id=? WHERE id=?", role, showroomID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// The row may exist with identical values; distinguish absent users.
		var exists int
		if err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id=?", id).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return ErrNotFound
		}
	}
	return nil
}

// UpdateProfile updates the mutable profile fields.  Empty strings leave
// the current value in place.
func (r *UserRepo) UpdateProfile(ctx context.Context, id uint64, name, phone, address string) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE users SET
			name    = IF(?='', name, ?),
			phone   = IF(?='', phone, ?),
			address = IF(?='', address, ?)
		 WHERE id=?`,
		name, name, phone, phone, address, address, id)
	return err
}

// List returns users filtered by optional role, newest first.
func (r *UserRepo) List(ctx context.Context, role string) ([]model.User, error) {
	q := "SELECT " + userColumns + " FROM users"
	args := []interface{}{}
	if role != "" {
		q += " WHERE role=?"
		args = append(args, role)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
			&u.Role, &u.ShowroomID, &u.Address, &u.IsActive, &u.EmailVerified,
			&u.EmailVerificationToken, &u.EmailVerificationExpires,
			&u.PasswordResetToken, &u.PasswordResetExpires, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// EmployeesByShowroom returns all EMPLOYEE accounts assigned to a showroom.
func (r *UserRepo) EmployeesByShowroom(ctx context.Context, showroomID uint64) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE role='EMPLOYEE' AND showroom_id=? ORDER BY name",
		showroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.Phone, &u.PasswordHash,
			&u.Role, &u.ShowroomID, &u.Address, &u.IsActive, &u.EmailVerified,
			&u.EmailVerificationToken, &u.EmailVerificationExpires,
			&u.PasswordResetToken, &u.PasswordResetExpires, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
