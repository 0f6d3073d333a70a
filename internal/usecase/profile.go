package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/core/port"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
)

// MaxAvatarSize bounds accepted avatar uploads.
const MaxAvatarSize = 5 << 20

var (
	// ErrAvatarTooLarge indicates the upload exceeded MaxAvatarSize.
	ErrAvatarTooLarge = errors.New("avatar file too large")
	// ErrUnsupportedAvatarType indicates the file extension is not an
	// accepted image format.
	ErrUnsupportedAvatarType = errors.New("unsupported avatar file type")
)

var allowedAvatarExts = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
}

// ProfileService reads and updates the mutable account profile.
type ProfileService struct {
	accounts port.AccountRepository
	avatars  port.AvatarStore
	log      *zap.Logger
}

// NewProfileService constructs a profile service.
func NewProfileService(accounts port.AccountRepository, avatars port.AvatarStore, log *zap.Logger) *ProfileService {
	return &ProfileService{accounts: accounts, avatars: avatars, log: log}
}

// Get returns the account for the authenticated id.
func (s *ProfileService) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	return account, nil
}

// Update replaces name, email, and phone on the account. Email goes through
// the same normalization and shape check as registration, and moving to an
// email another account owns is rejected.
func (s *ProfileService) Update(ctx context.Context, accountID string, update domain.ProfileUpdate) (*domain.Account, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = NormalizeEmail(update.Email)
	if update.Phone != nil {
		trimmed := strings.TrimSpace(*update.Phone)
		if trimmed == "" {
			update.Phone = nil
		} else {
			update.Phone = &trimmed
		}
	}

	if update.Name == "" || update.Email == "" {
		return nil, ErrMissingFields
	}
	if !emailPattern.MatchString(update.Email) {
		return nil, ErrInvalidEmail
	}

	if err := s.accounts.UpdateProfile(ctx, accountID, update); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrAccountNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return s.Get(ctx, accountID)
}

// UpdateAvatar validates and stores an uploaded avatar, then records the
// returned reference on the account.
func (s *ProfileService) UpdateAvatar(ctx context.Context, accountID, filename string, content io.Reader, size int64) (string, error) {
	if size > MaxAvatarSize {
		return "", ErrAvatarTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if _, ok := allowedAvatarExts[ext]; !ok {
		return "", ErrUnsupportedAvatarType
	}

	ref, err := s.avatars.Save(ctx, accountID, filename, io.LimitReader(content, MaxAvatarSize), size)
	if err != nil {
		return "", fmt.Errorf("store avatar: %w", err)
	}

	if err := s.accounts.UpdateAvatarRef(ctx, accountID, ref); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrAccountNotFound
		}
		return "", fmt.Errorf("record avatar reference: %w", err)
	}

	s.log.Info("avatar updated",
		zap.String("account_id", accountID),
		zap.String("ref", ref),
	)

	return ref, nil
}
