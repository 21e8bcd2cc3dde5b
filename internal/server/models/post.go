package models

import "time"

// Post format versions. All other values are reserved.
const (
	// PostFormatLegacy marks posts written before client-side encryption;
	// Data holds plaintext until the client migrates them.
	PostFormatLegacy = 0
	// PostFormatEncrypted is the current format: Data is ciphertext
	// produced client-side under the account's master key.
	PostFormatEncrypted = 1
)

// Post is one diary entry. There is at most one post per (account, date);
// the server stores the payload without ever decrypting it.
type Post struct {
	ID        string
	AccountID string

	// Date is the calendar day the entry belongs to, "2006-01-02".
	Date string

	FormatVersion int
	// Nonce used for the client-side payload encryption. Empty for
	// legacy-format posts.
	Nonce string
	Data  []byte

	Created     time.Time
	LastChanged time.Time
}
