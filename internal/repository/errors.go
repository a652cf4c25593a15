// Package repository contains data access logic separated from HTTP handlers.
// This file defines sentinel errors reused across repositories so handlers
// can map failure scenarios to HTTP statuses: duplicate-field errors become
// 400 responses naming the offending field, not-found errors become 404.
package repository

import "errors"

// ErrUsernameExists is returned when an insert or update would reuse a
// username already taken by another user.
var ErrUsernameExists = errors.New("username already exists")

// ErrEmailExists is returned when an insert or update would reuse an email
// address already taken by another user.
var ErrEmailExists = errors.New("email address already exists")

// ErrUserNotFound is returned when a user lookup matches no row.
var ErrUserNotFound = errors.New("user not found")

// ErrAppNotFound is returned when a windows app lookup, update or delete
// matches no row.
var ErrAppNotFound = errors.New("app not found")

// ErrSettingNotFound is returned when a settings key does not exist.
var ErrSettingNotFound = errors.New("setting not found")
