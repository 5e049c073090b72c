// Package auth hashes and verifies basic-auth passwords with Argon2id.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters (OWASP recommended).
const (
	argon2Time    = 1
	argon2Memory  = 64 * 1024
	argon2Threads = 4
	argon2KeyLen  = 32
	saltLen       = 16
)

var ErrInvalidHash = errors.New("auth: invalid hash format")

// HashPassword returns $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("auth: generate salt: %w", err)
	}

	hash := argon2.IDKey([]byte(password), salt, argon2Time, argon2Memory, argon2Threads, argon2KeyLen)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		argon2Memory, argon2Time, argon2Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

// VerifyPassword checks password against a HashPassword result using the
// parameters encoded in the hash.
func VerifyPassword(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return false, ErrInvalidHash
	}
	if parts[1] != "argon2id" {
		return false, fmt.Errorf("%w: not an argon2id hash", ErrInvalidHash)
	}

	var memory, iterations, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &iterations, &threads); err != nil {
		return false, fmt.Errorf("%w: parameters: %w", ErrInvalidHash, err)
	}
	if threads == 0 || threads > 255 {
		return false, fmt.Errorf("%w: parallelism %d", ErrInvalidHash, threads)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("%w: salt: %w", ErrInvalidHash, err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, fmt.Errorf("%w: hash: %w", ErrInvalidHash, err)
	}

	got := argon2.IDKey([]byte(password), salt, iterations, memory, uint8(threads), uint32(len(want)))
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// Verifier checks one username/password-hash pair. Successful credentials
// are remembered by digest so repeated requests skip the Argon2 cost.
type Verifier struct {
	user string
	hash string

	mu       sync.RWMutex
	verified map[[32]byte]struct{}
}

// NewVerifier returns nil when user or hash is empty, meaning auth is off.
func NewVerifier(user, hash string) *Verifier {
	if user == "" || hash == "" {
		return nil
	}
	return &Verifier{user: user, hash: hash, verified: make(map[[32]byte]struct{})}
}

// Enabled reports whether v enforces credentials.
func (v *Verifier) Enabled() bool {
	return v != nil
}

// Check reports whether user and pass match.
func (v *Verifier) Check(user, pass string) bool {
	if v == nil {
		return true
	}
	if subtle.ConstantTimeCompare([]byte(user), []byte(v.user)) != 1 {
		return false
	}

	key := sha256.Sum256([]byte(user + "\x00" + pass))
	v.mu.RLock()
	_, ok := v.verified[key]
	v.mu.RUnlock()
	if ok {
		return true
	}

	match, err := VerifyPassword(pass, v.hash)
	if err != nil || !match {
		return false
	}
	v.mu.Lock()
	v.verified[key] = struct{}{}
	v.mu.Unlock()
	return true
}
