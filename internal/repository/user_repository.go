package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jorisdh/appdepot/internal/model"
	"github.com/jorisdh/appdepot/internal/utils"
)

// UserRepo encapsulates all database queries related to users, including the
// transactional disable/delete flows that feed the token revocation ledger.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user and returns its ID. The username and email are
// pre-checked so duplicate errors name the offending field; the unique keys
// remain the authority under concurrent inserts (MySQL error 1062).
func (r *UserRepo) Create(ctx context.Context, u model.User, plainPassword string, cost int) (uint64, error) {
	if err := r.checkDuplicates(ctx, u.Username, u.EmailAddress, 0); err != nil {
		return 0, err
	}
	hash, err := utils.HashPassword(plainPassword, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (username, password, first_name, last_name, email_address, isEnabled)
		 VALUES (?,?,?,?,?,?)`,
		u.Username, hash, u.FirstName, u.LastName, u.EmailAddress, u.IsEnabled)
	if err != nil {
		return 0, mapDuplicate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByUsername fetches a user by username, including the password hash for
// credential verification.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password, COALESCE(first_name,''), COALESCE(last_name,''),
		        COALESCE(email_address,''), isEnabled, created_at
		 FROM users WHERE username = ? LIMIT 1`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.EmailAddress, &u.IsEnabled, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, username, password, COALESCE(first_name,''), COALESCE(last_name,''),
		        COALESCE(email_address,''), isEnabled, created_at
		 FROM users WHERE id = ? LIMIT 1`, id).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FirstName, &u.LastName,
			&u.EmailAddress, &u.IsEnabled, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// List returns all users without password hashes.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, username, COALESCE(first_name,''), COALESCE(last_name,''),
		        COALESCE(email_address,''), isEnabled, created_at
		 FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.FirstName, &u.LastName,
			&u.EmailAddress, &u.IsEnabled, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

// CountEnabled returns how many users may currently log in.
func (r *UserRepo) CountEnabled(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM users WHERE isEnabled = TRUE").Scan(&n)
	return n, err
}

// Update rewrites a user's profile inside a single transaction. The password
// is only changed when plainPassword is non-empty. When the update flips
// isEnabled from true to false, every tracked token of the user is written to
// the revocation ledger in the same transaction; a partial apply would either
// leave a disabled user's token live or revoke tokens of a user whose update
// rolled back. The revoked token strings are returned for audit publishing.
func (r *UserRepo) Update(ctx context.Context, id uint64, u model.User, plainPassword string, cost int) ([]string, error) {
	if err := r.checkDuplicates(ctx, u.Username, u.EmailAddress, id); err != nil {
		return nil, err
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// Row lock so a concurrent disable/enable of the same user serializes.
	var wasEnabled bool
	err = tx.QueryRowContext(ctx,
		"SELECT isEnabled FROM users WHERE id = ? FOR UPDATE", id).Scan(&wasEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	query := "UPDATE users SET username = ?, first_name = ?, last_name = ?, email_address = ?, isEnabled = ?"
	args := []any{u.Username, u.FirstName, u.LastName, u.EmailAddress, u.IsEnabled}
	if plainPassword != "" {
		hash, err := utils.HashPassword(plainPassword, cost)
		if err != nil {
			return nil, err
		}
		query += ", password = ?"
		args = append(args, hash)
	}
	query += " WHERE id = ?"
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return nil, mapDuplicate(err)
	}

	var revoked []string
	if wasEnabled && !u.IsEnabled {
		revoked, err = blacklistUserTokens(ctx, tx, id)
		if err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return revoked, nil
}

// Delete removes a user after denylisting all of their tracked tokens, in one
// transaction. Deleting is terminal: the user_tokens rows cascade away with
// the user while the ledger rows persist. Catalog rows referencing the user
// keep existing with their created_by/last_modified_by set to NULL by the
// schema's ON DELETE SET NULL.
func (r *UserRepo) Delete(ctx context.Context, id uint64) ([]string, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	revoked, err := blacklistUserTokens(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrUserNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return revoked, nil
}

// checkDuplicates rejects a username or email already held by a different
// user. excludeID is 0 on create and the user's own id on update.
func (r *UserRepo) checkDuplicates(ctx context.Context, username, email string, excludeID uint64) error {
	var id uint64
	err := r.DB.QueryRowContext(ctx,
		"SELECT id FROM users WHERE username = ? AND id != ? LIMIT 1",
		username, excludeID).Scan(&id)
	if err == nil {
		return ErrUsernameExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	if email != "" {
		err = r.DB.QueryRowContext(ctx,
			"SELECT id FROM users WHERE email_address = ? AND id != ? LIMIT 1",
			email, excludeID).Scan(&id)
		if err == nil {
			return ErrEmailExists
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
	}
	return nil
}

// mapDuplicate translates MySQL duplicate-key failures (error 1062) into the
// field-level sentinels. The constraint name tells the columns apart.
func mapDuplicate(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "1062") {
		return err
	}
	if strings.Contains(msg, "email") {
		return ErrEmailExists
	}
	return ErrUsernameExists
}
