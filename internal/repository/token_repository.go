package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// TokenRepo stores refresh tokens.  Only the SHA-256 hash of a token
// ever reaches the database; the raw value lives with the client.
type TokenRepo struct {
	db *sql.DB
}

// NewTokenRepo constructs a TokenRepo with the given DB handle.
func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh records a refresh token hash with its expiry.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	const q = `INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?, ?, ?)`
	_, err := r.db.ExecContext(ctx, q, userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh resolves a token hash to the owning user ID.  It
// returns ErrTokenInvalid for unknown, revoked or expired tokens.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	const q = `SELECT user_id, expires_at, revoked FROM refresh_tokens WHERE token_hash = ?`
	var (
		userID  uint64
		exp     time.Time
		revoked bool
	)
	err := r.db.QueryRowContext(ctx, q, tokenHash).Scan(&userID, &exp, &revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrTokenInvalid
		}
		return 0, err
	}
	if revoked || time.Now().UTC().After(exp) {
		return 0, ErrTokenInvalid
	}
	return userID, nil
}

// RevokeByHash marks one refresh token as revoked (logout).
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	const q = `UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`
	res, err := r.db.ExecContext(ctx, q, tokenHash)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrTokenInvalid
	}
	return nil
}

// RevokeAllForUser invalidates every refresh token of a user, used
// when rotating credentials.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	const q = `UPDATE refresh_tokens SET revoked = 1 WHERE user_id = ?`
	_, err := r.db.ExecContext(ctx, q, userID)
	return err
}
