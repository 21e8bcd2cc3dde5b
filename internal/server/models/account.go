// Package models defines server-side data models persisted in the database.
package models

import "time"

// PasswordScheme tags a stored password hash with the algorithm that
// produced it.
type PasswordScheme string

const (
	// SchemeArgon2id is the current scheme; new hashes always use it.
	SchemeArgon2id PasswordScheme = "argon2id"
	// SchemePBKDF2 is the legacy Django pbkdf2_sha256 scheme, kept for
	// verification only. Valid logins are re-hashed under argon2id.
	SchemePBKDF2 PasswordScheme = "pbkdf2_sha256"
)

// Credential is a password hash tagged with its hashing scheme.
type Credential struct {
	Scheme PasswordScheme
	Hash   string
}

// Account is a registered user of the diary service.
//
// LegacyUsername carries the pre-migration username for accounts that have
// not logged in since the old system was retired; it is matched verbatim and
// never set through the API.
type Account struct {
	ID       string
	Email    string
	Password Credential

	LegacyUsername string

	StripeCustomerID string

	Joined   time.Time
	LastSeen time.Time
}
