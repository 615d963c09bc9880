package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/parkplaza/parkplaza-backend/internal/model"
)

// Sessions per user are capped at this many live refresh tokens; storing a
// new one revokes the oldest beyond the cap.
const maxSessionsPerUser = 5

// TokenRepo persists refresh-token session rows (hashed token values only).
// A session is live while revoked_at is null; rotation revokes the old row
// and records the hash of its replacement, which is what makes presentation
// of an already-rotated token detectable as reuse.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreRefresh inserts a refresh token hash row and enforces the per-user
// session cap by revoking the oldest live sessions beyond it.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	if _, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp); err != nil {
		return err
	}
	// Revoke live sessions older than the newest maxSessionsPerUser.
	_, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP()
		 WHERE user_id=? AND revoked_at IS NULL AND id NOT IN (
			SELECT id FROM (
				SELECT id FROM refresh_tokens
				WHERE user_id=? AND revoked_at IS NULL
				ORDER BY id DESC LIMIT ?
			) keep
		 )`,
		userID, userID, maxSessionsPerUser)
	return err
}

// FindByHash returns the session row for a token hash, revoked or not.
// Callers decide whether a revoked or missing row constitutes reuse.
func (r *TokenRepo) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var t model.RefreshToken
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, replaced_by_hash, created_at
		 FROM refresh_tokens WHERE token_hash=? LIMIT 1`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.RevokedAt, &t.ReplacedByHash, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return t, ErrNotFound
	}
	return t, err
}

// Rotate revokes a live session row and records the hash of its
// replacement.  It returns ErrInvalidState when the row was already revoked
// by a concurrent rotation; exactly one of two racing refreshes wins and
// the loser must be treated as reuse.
func (r *TokenRepo) Rotate(ctx context.Context, tokenHash, replacedByHash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP(), replaced_by_hash=?
		 WHERE token_hash=? AND revoked_at IS NULL`,
		replacedByHash, tokenHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrInvalidState
	}
	return nil
}

// RevokeByHash marks a single session as revoked (logout of one device).
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every live session.  Used by logout-everywhere,
// password reset, and the reuse-detection path.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
