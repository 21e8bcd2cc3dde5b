package models

// KeyWrap is the zero-knowledge key-wrapping material stored per account.
// The server treats every field as opaque: the salt feeds the client-side
// key derivation, and the master key is stored only encrypted under the
// derived ephemeral key. Only the account service may read or write this
// material; it never appears in profile DTOs.
//
// The three fields are always present together or absent together.
// Accounts created before client-side encryption existed have none.
type KeyWrap struct {
	// Salt used by the client to derive the ephemeral key from the
	// login password (max 22 chars).
	Salt string
	// WrappedMasterKey is the master key encrypted under the ephemeral
	// key (max 64 chars).
	WrappedMasterKey string
	// Nonce used during master-key encryption (max 32 chars).
	Nonce string
}

// Field length ceilings, matching the column widths.
const (
	KeyWrapSaltMaxLen             = 22
	KeyWrapWrappedMasterKeyMaxLen = 64
	KeyWrapNonceMaxLen            = 32
)

// IsZero reports whether no key-wrap material is present.
func (k KeyWrap) IsZero() bool {
	return k.Salt == "" && k.WrappedMasterKey == "" && k.Nonce == ""
}

// Complete reports whether all three fields are present. A KeyWrap that is
// neither zero nor complete violates the all-or-nothing invariant.
func (k KeyWrap) Complete() bool {
	return k.Salt != "" && k.WrappedMasterKey != "" && k.Nonce != ""
}

// WithinBounds reports whether every field fits its column, so oversized
// material is rejected as bad input instead of surfacing as a write error.
func (k KeyWrap) WithinBounds() bool {
	return len(k.Salt) <= KeyWrapSaltMaxLen &&
		len(k.WrappedMasterKey) <= KeyWrapWrappedMasterKeyMaxLen &&
		len(k.Nonce) <= KeyWrapNonceMaxLen
}
