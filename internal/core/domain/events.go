package domain

import "time"

// AccountRegisteredEvent is emitted after a successful registration.
type AccountRegisteredEvent struct {
	EventID      string
	AccountID    string
	Name         string
	Email        string
	RegisteredAt time.Time
	Metadata     map[string]any
}

// PasswordChangedEvent is emitted after a password hash is replaced.
type PasswordChangedEvent struct {
	EventID   string
	AccountID string
	ChangedAt time.Time
	Source    string
	Metadata  map[string]any
}

// PasswordResetRequestedEvent is emitted when a reset token is issued.
// Destination is the raw email; MaskedDestination is safe for logs.
type PasswordResetRequestedEvent struct {
	EventID           string
	AccountID         string
	RequestedAt       time.Time
	Destination       string
	MaskedDestination string
	ExpiresAt         time.Time
	Metadata          map[string]any
}
