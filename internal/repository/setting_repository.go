package repository

import (
	"context"
	"database/sql"
	"errors"
)

// SettingRepo reads and writes the generic key/value settings table.
type SettingRepo struct{ DB *sql.DB }

func NewSettingRepo(db *sql.DB) *SettingRepo { return &SettingRepo{DB: db} }

// Get returns the value stored under key.
func (r *SettingRepo) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := r.DB.QueryRowContext(ctx,
		"SELECT setting_value FROM settings WHERE setting_key = ? LIMIT 1",
		key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrSettingNotFound
	}
	return v, err
}

// Set upserts the value stored under key.
func (r *SettingRepo) Set(ctx context.Context, key, value string) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO settings (setting_key, setting_value) VALUES (?,?)
		 ON DUPLICATE KEY UPDATE setting_value = VALUES(setting_value)`,
		key, value)
	return err
}
