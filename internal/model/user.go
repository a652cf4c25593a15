package model

import "time"

// User represents an application user record as stored in the `users` table.
// The password column holds a bcrypt hash and must never be returned to
// clients; handlers define separate response types with the appropriate JSON
// tags and omit it.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password (users.password).
//	FirstName    – optional given name.
//	LastName     – optional family name.
//	EmailAddress – unique email address.
//	IsEnabled    – whether the account may log in (users.isEnabled).
//	CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password
	FirstName    string    // users.first_name
	LastName     string    // users.last_name
	EmailAddress string    // users.email_address
	IsEnabled    bool      // users.isEnabled
	CreatedAt    time.Time // users.created_at
}

// UserToken models a row in the `user_tokens` table. One row is written per
// issued access token so that all outstanding tokens of a user can be found
// and denylisted when the account is disabled or deleted.
//
// Fields:
//
//	ID        – primary key identifier.
//	UserID    – owner of the token.
//	Token     – the serialized JWT as handed to the client.
//	CreatedAt – timestamp of issuance.
type UserToken struct {
	ID        uint64    // user_tokens.id
	UserID    uint64    // user_tokens.user_id
	Token     string    // user_tokens.token
	CreatedAt time.Time // user_tokens.created_at
}

// BlacklistToken models an entry in the `blacklist_tokens` revocation ledger.
// A listed token must be rejected even when its signature and expiry are
// otherwise valid. ExpiresAt mirrors the token's own exp claim (in the
// reference timezone) so that rows can be pruned externally once the token
// would have expired anyway; it is nil for tokens whose expiry could not be
// decoded, which denylists them permanently.
//
// Fields:
//
//	ID        – primary key identifier.
//	Token     – the denied token string.
//	ExpiresAt – copy of the token's expiry (nullable).
//	CreatedAt – when the row was inserted.
type BlacklistToken struct {
	ID        uint64     // blacklist_tokens.id
	Token     string     // blacklist_tokens.token
	ExpiresAt *time.Time // blacklist_tokens.expires_at (nullable)
	CreatedAt time.Time  // blacklist_tokens.created_at
}
