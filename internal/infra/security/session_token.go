package security

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken indicates no token was presented.
	ErrMissingToken = errors.New("security: missing session token")
	// ErrInvalidToken indicates signature or format verification failed.
	ErrInvalidToken = errors.New("security: invalid session token")
	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("security: session token expired")
	// ErrMissingSigningKey indicates the manager was constructed without a key.
	ErrMissingSigningKey = errors.New("security: signing key is required")
)

// DefaultSessionTTL bounds the lifetime of issued session tokens.
const DefaultSessionTTL = 24 * time.Hour

// Identity is the assertion a verified session token carries.
type Identity struct {
	AccountID string
	Email     string
}

// SessionTokenClaims binds account identity to registered JWT claims.
type SessionTokenClaims struct {
	AccountID string `json:"uid"`
	Email     string `json:"email"`
	jwt.RegisteredClaims
}

// SessionTokenManager issues and verifies HS256-signed bearer tokens.
// Tokens are never stored server side; signature and expiry are the only
// validity checks, so revocation before expiry is not possible.
type SessionTokenManager struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// NewSessionTokenManager constructs a manager around an explicitly injected
// signing key. Callers decide key provenance; an empty key is rejected here so
// a misconfigured deployment fails at startup rather than at first login.
func NewSessionTokenManager(key []byte, ttl time.Duration, issuer string) (*SessionTokenManager, error) {
	if len(key) == 0 {
		return nil, ErrMissingSigningKey
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &SessionTokenManager{
		key:    key,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}, nil
}

// WithClock allows tests to override the clock used for issuance and verification.
func (m *SessionTokenManager) WithClock(clock func() time.Time) {
	if clock != nil {
		m.now = clock
	}
}

// Issue creates a signed token binding the account id and email, expiring
// after the configured TTL.
func (m *SessionTokenManager) Issue(accountID, email string) (string, time.Time, error) {
	if accountID == "" {
		return "", time.Time{}, fmt.Errorf("account id is required")
	}

	now := m.now().UTC()
	expiresAt := now.Add(m.ttl)

	claims := SessionTokenClaims{
		AccountID: accountID,
		Email:     email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}

	return signed, expiresAt, nil
}

// Verify validates signature and expiry and returns the embedded identity.
func (m *SessionTokenManager) Verify(token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &SessionTokenClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.key, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpiredToken
		}
		return Identity{}, ErrInvalidToken
	}

	if parsed == nil || !parsed.Valid || strings.TrimSpace(claims.AccountID) == "" {
		return Identity{}, ErrInvalidToken
	}

	return Identity{AccountID: claims.AccountID, Email: claims.Email}, nil
}
