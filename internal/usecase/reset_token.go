package usecase

import (
	"fmt"
	"time"

	"github.com/niteshawasthi21/pjv-backend/internal/infra/security"
)

const (
	// resetTokenBytes sizes the random portion of a reset token. 32 bytes
	// doubles the 128-bit entropy floor for unguessable tokens.
	resetTokenBytes = 32

	// DefaultResetTokenTTL bounds how long an issued reset token stays
	// consumable.
	DefaultResetTokenTTL = 30 * time.Minute
)

// ResetTokenManager mints password-reset tokens with an expiry. Tokens are
// opaque random strings; the account row is the only place they live, so
// issuing a new one overwrites any earlier token for that account.
type ResetTokenManager struct {
	ttl time.Duration
	now func() time.Time
}

// NewResetTokenManager constructs a manager with the supplied TTL, falling
// back to DefaultResetTokenTTL for non-positive values.
func NewResetTokenManager(ttl time.Duration) *ResetTokenManager {
	if ttl <= 0 {
		ttl = DefaultResetTokenTTL
	}
	return &ResetTokenManager{ttl: ttl, now: time.Now}
}

// WithClock allows tests to override the clock used for expiry computation.
func (m *ResetTokenManager) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

// WithTTL allows tests to shorten the token lifetime.
func (m *ResetTokenManager) WithTTL(ttl time.Duration) {
	if ttl > 0 {
		m.ttl = ttl
	}
}

// Issue returns a fresh token and its expiry instant.
func (m *ResetTokenManager) Issue() (string, time.Time, error) {
	token, err := security.GenerateSecureToken(resetTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}

	return token, m.now().UTC().Add(m.ttl), nil
}

// Now exposes the manager's clock so callers compare expiry against the same
// time source the manager used.
func (m *ResetTokenManager) Now() time.Time {
	return m.now().UTC()
}
