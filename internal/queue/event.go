// Package queue defines message payloads exchanged over the message broker.
package queue

// UserRevokedEvent is published after a user's outstanding tokens have been
// written to the revocation ledger, either because the account was disabled
// or because it was deleted. It carries enough information for downstream
// consumers to log or alert without querying the primary database. The
// triggering transaction has already committed when this event is sent.
type UserRevokedEvent struct {
	UserID     uint64 `json:"user_id"`
	Username   string `json:"username"`
	Reason     string `json:"reason"` // "disabled" or "deleted"
	TokenCount int    `json:"token_count"`
	RevokedAt  string `json:"revoked_at"`
}
