package port

import (
	"context"
	"time"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
)

// AccountRepository exposes persistence behavior for accounts.
//
// Email lookups are exact-match; callers normalize (lowercase, trim) before
// querying or writing. Create returns repository.ErrDuplicate when the email
// uniqueness constraint rejects the insert.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	SetResetToken(ctx context.Context, id, token string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id string) error
	// ConsumeResetToken atomically replaces the password hash and clears the
	// reset token on the single account whose live token matches. Returns
	// repository.ErrNotFound when no account holds a matching unexpired token,
	// which makes concurrent consumption one-winner.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*domain.Account, error)
	UpdatePasswordHash(ctx context.Context, id, passwordHash string) error
	UpdateProfile(ctx context.Context, id string, update domain.ProfileUpdate) error
	UpdateAvatarRef(ctx context.Context, id, ref string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// AddressRepository persists account-scoped addresses. Every read and write is
// keyed by the owning account id; rows belonging to other accounts are never
// visible through this interface.
type AddressRepository interface {
	Create(ctx context.Context, address domain.Address) error
	Update(ctx context.Context, accountID string, address domain.Address) error
	ListByAccount(ctx context.Context, accountID string) ([]domain.Address, error)
	GetByID(ctx context.Context, accountID, id string) (*domain.Address, error)
}
