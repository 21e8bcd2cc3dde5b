// Package password implements password hashing and verification across the
// schemes this service has historically used. New hashes are always argon2id;
// the Django-era pbkdf2_sha256 scheme is verification-only, and a valid login
// against it yields a replacement argon2id hash so storage can be upgraded in
// the same transaction (migrate-on-read).
//
// Verification failure is uniform: wrong password, unknown scheme, and
// malformed stored hash all report the same negative result, and no error
// path ever carries the plaintext or the stored hash.
package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/dayli-app/api/internal/common"
	"github.com/dayli-app/api/internal/server/models"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// argon2id parameters for newly produced hashes.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32
	saltLen      = 16
)

type verifyFunc func(password, encoded string) bool

// schemes is the strategy table keyed by the stored credential's scheme tag.
var schemes = map[models.PasswordScheme]verifyFunc{
	models.SchemeArgon2id: verifyArgon2id,
	models.SchemePBKDF2:   verifyDjangoPBKDF2,
}

// Hash produces a fresh argon2id credential for the given plaintext.
func Hash(password string) (models.Credential, error) {
	salt := common.GenerateRandByteArray(saltLen)
	key := argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemory, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key))

	return models.Credential{Scheme: models.SchemeArgon2id, Hash: encoded}, nil
}

// Verify checks the presented password against the stored credential.
//
// On success with a legacy-scheme credential, rehash carries a freshly
// computed argon2id credential the caller must persist alongside the login.
// With a current-scheme credential rehash is nil even on success.
func Verify(password string, stored models.Credential) (ok bool, rehash *models.Credential) {
	verify, known := schemes[stored.Scheme]
	if !known {
		return false, nil
	}

	if !verify(password, stored.Hash) {
		return false, nil
	}

	if stored.Scheme != models.SchemeArgon2id {
		cred, err := Hash(password)
		if err != nil {
			// The login itself is still valid; the upgrade just does
			// not happen this time.
			return true, nil
		}
		return true, &cred
	}

	return true, nil
}

// verifyArgon2id checks a PHC-format hash:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<b64 salt>$<b64 key>
func verifyArgon2id(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, iterations uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// verifyDjangoPBKDF2 checks a Django-format hash:
//
//	pbkdf2_sha256$<iterations>$<salt>$<b64 key>
func verifyDjangoPBKDF2(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 4 || parts[0] != "pbkdf2_sha256" {
		return false
	}

	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}

	want, err := base64.StdEncoding.DecodeString(parts[3])
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), []byte(parts[2]), iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
