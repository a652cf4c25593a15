package utils // package utils provides helper functions for token creation and inspection

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and parsing signed tokens
)

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string. Exp stores the expiration
// timestamp as a time.Time. Access tokens are sent in the Authorization
// header when calling protected endpoints.
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// NewAccessToken builds and signs an HS256 JWT for a user. It takes the
// signing secret, the user ID, the username, and a TTL in minutes. The claims
// are {id, username, exp, iat}; the id and username travel in the token so
// the validator can attach the caller's identity without a database read.
func NewAccessToken(secret string, userID uint64, username string, ttlMin int) (AccessToken, error) {
	exp := time.Now().UTC().Add(time.Duration(ttlMin) * time.Minute)
	claims := jwt.MapClaims{
		"id":       userID,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      time.Now().UTC().Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ErrNoExpiry is returned by TokenExpiry for tokens without a decodable exp
// claim. Callers denylisting such a token store it without an expiry.
var ErrNoExpiry = errors.New("token has no expiry claim")

// TokenExpiry decodes a token WITHOUT verifying its signature and returns the
// exp claim. It is used when writing revocation ledger rows: a token being
// denylisted may be expired or even tampered with, and we only need its
// claimed expiry to know when the ledger row itself can be pruned.
func TokenExpiry(raw string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// TokenIdentity parses and verifies a token against the secret, returning the
// embedded user id and username. jwt.ErrTokenExpired is surfaced unchanged so
// callers can report expiry distinctly from an invalid signature.
func TokenIdentity(secret, raw string) (uint64, string, error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return 0, "", err
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return 0, "", errors.New("invalid claims")
	}
	id, ok := claims["id"].(float64) // JSON numbers decode as float64
	if !ok {
		return 0, "", errors.New("missing id claim")
	}
	username, _ := claims["username"].(string)
	return uint64(id), username, nil
}
