package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost balances offline brute-force resistance against
// interactive login latency (well under 200ms on commodity hardware).
const DefaultBcryptCost = 10

// ErrCorruptHash indicates the stored password hash is not a valid bcrypt string.
var ErrCorruptHash = errors.New("security: corrupt password hash")

// PasswordHasher produces and verifies salted bcrypt hashes.
// The bcrypt encoding is self-describing: algorithm, cost, and salt are
// embedded in the hash string, so verification needs no side state.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher builds a hasher with the supplied cost factor, falling
// back to DefaultBcryptCost for out-of-range values.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash generates a salted bcrypt hash for the provided password.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify compares the provided password against a stored bcrypt hash in
// constant time. A mismatched password returns (false, nil); only a malformed
// stored hash produces an error.
func (h *PasswordHasher) Verify(password, encoded string) (bool, error) {
	if password == "" || encoded == "" {
		return false, nil
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %v", ErrCorruptHash, err)
	}
}
