package domain

import "time"

// Account mirrors the persisted representation in the accounts table.
type Account struct {
	ID                string
	Name              string
	Email             string
	Phone             *string
	PasswordHash      string
	AvatarRef         *string
	ResetToken        *string
	ResetTokenExpires *time.Time
	CreatedAt         time.Time
	LastLogin         *time.Time
}

// Address is a shipping or billing address owned by exactly one account.
type Address struct {
	ID        string
	AccountID string
	Type      string
	Name      string
	Phone     string
	Line1     string
	Line2     *string
	City      string
	State     string
	Pincode   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ProfileUpdate carries the mutable profile fields for an account.
type ProfileUpdate struct {
	Name  string
	Email string
	Phone *string
}
