package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/jorisdh/appdepot/internal/utils"
)

// ledgerZone is the reference timezone for blacklist expiries. Ledger rows
// carry the token's own exp converted to this zone so external pruning jobs
// see consistent wall-clock values.
var ledgerZone = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// TokenRepo tracks issued access tokens ('user_tokens') and the revocation
// ledger ('blacklist_tokens').
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// StoreIssued records a freshly issued access token against its user. Every
// login writes one row; the rows are read back when the user is disabled or
// deleted so all outstanding tokens can be denylisted.
func (r *TokenRepo) StoreIssued(ctx context.Context, userID uint64, token string) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO user_tokens (user_id, token) VALUES (?,?)",
		userID, token)
	return err
}

// IsBlacklisted reports whether a token appears in the revocation ledger.
// The check is exact-match on the raw token string.
func (r *TokenRepo) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM blacklist_tokens WHERE token = ?",
		token).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// blacklistUserTokens denylists every tracked token of a user inside the
// caller's transaction. For each user_tokens row it inserts one ledger row;
// when the token's expiry decodes, it is stored converted to the reference
// timezone so the row can be pruned after the token would have died anyway,
// otherwise the row is inserted without an expiry (permanent entry). The
// revoked token strings are returned for audit publishing after commit.
func blacklistUserTokens(ctx context.Context, tx *sql.Tx, userID uint64) ([]string, error) {
	rows, err := tx.QueryContext(ctx,
		"SELECT token FROM user_tokens WHERE user_id = ?", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tokens = append(tokens, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range tokens {
		exp, err := utils.TokenExpiry(t)
		if err != nil {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO blacklist_tokens (token) VALUES (?)", t); err != nil {
				return nil, err
			}
			continue
		}
		expiresAt := exp.In(ledgerZone).Format("2006-01-02 15:04:05")
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO blacklist_tokens (token, expires_at) VALUES (?,?)",
			t, expiresAt); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}
