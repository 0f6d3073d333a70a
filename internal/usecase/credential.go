package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/core/port"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/logger"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/security"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
)

var (
	// ErrMissingFields indicates a required request field was empty.
	ErrMissingFields = errors.New("required fields are missing")
	// ErrInvalidEmail indicates the email failed shape validation.
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrDuplicateEmail indicates another account already owns the email.
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidCredentials covers both unknown email and wrong password so
	// responses cannot be used to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountNotFound indicates no account matches the identifier.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidOrExpiredToken indicates the reset token matched no account
	// or was past its expiry.
	ErrInvalidOrExpiredToken = errors.New("invalid or expired reset token")
)

// emailPattern accepts anything of the form local@domain.tld without
// whitespace. Deliverability is not checked here.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// LoginResult carries the authenticated account and its session token.
type LoginResult struct {
	Account   domain.Account
	Token     string
	ExpiresAt time.Time
}

// ResetIssue carries a freshly minted reset token and its expiry.
type ResetIssue struct {
	Token     string
	ExpiresAt time.Time
}

// CredentialService implements registration, login, and the password-reset
// round trip.
type CredentialService struct {
	accounts    port.AccountRepository
	hasher      *security.PasswordHasher
	sessions    *security.SessionTokenManager
	resetTokens *ResetTokenManager
	events      port.EventPublisher
	log         *zap.Logger
}

// NewCredentialService constructs the credential service. The event publisher
// may be nil; publication is best effort either way.
func NewCredentialService(
	accounts port.AccountRepository,
	hasher *security.PasswordHasher,
	sessions *security.SessionTokenManager,
	resetTokens *ResetTokenManager,
	events port.EventPublisher,
	log *zap.Logger,
) *CredentialService {
	if resetTokens == nil {
		resetTokens = NewResetTokenManager(0)
	}
	return &CredentialService{
		accounts:    accounts,
		hasher:      hasher,
		sessions:    sessions,
		resetTokens: resetTokens,
		events:      events,
		log:         log,
	}
}

// NormalizeEmail lowercases and trims an email so lookups and uniqueness
// checks are case and whitespace insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new account with a freshly hashed password.
func (s *CredentialService) Register(ctx context.Context, name, email, phone, password string) (domain.Account, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	phone = strings.TrimSpace(phone)

	if name == "" || email == "" || password == "" {
		return domain.Account{}, ErrMissingFields
	}
	if !emailPattern.MatchString(email) {
		return domain.Account{}, ErrInvalidEmail
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return domain.Account{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	account := domain.Account{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}
	if phone != "" {
		account.Phone = &phone
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return domain.Account{}, ErrDuplicateEmail
		}
		return domain.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.publishRegistered(ctx, account)

	return account, nil
}

// Login verifies credentials and issues a session token. Unknown email and
// wrong password are indistinguishable to the caller.
func (s *CredentialService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingFields
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, fmt.Errorf("lookup account: %w", err)
	}

	ok, err := s.hasher.Verify(password, account.PasswordHash)
	if err != nil {
		return LoginResult{}, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.sessions.Issue(account.ID, account.Email)
	if err != nil {
		return LoginResult{}, fmt.Errorf("issue session token: %w", err)
	}

	// Last-login bookkeeping must not fail an otherwise valid login.
	now := time.Now().UTC()
	if err := s.accounts.TouchLastLogin(ctx, account.ID, now); err != nil {
		s.log.Warn("failed to record last login",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	} else {
		account.LastLogin = &now
	}

	return LoginResult{Account: *account, Token: token, ExpiresAt: expiresAt}, nil
}

// ForgotPassword issues a reset token for the account owning the email and
// stores it on the account row, replacing any earlier token.
func (s *CredentialService) ForgotPassword(ctx context.Context, email string) (ResetIssue, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return ResetIssue{}, ErrMissingFields
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ResetIssue{}, ErrAccountNotFound
		}
		return ResetIssue{}, fmt.Errorf("lookup account: %w", err)
	}

	token, expiresAt, err := s.resetTokens.Issue()
	if err != nil {
		return ResetIssue{}, err
	}

	if err := s.accounts.SetResetToken(ctx, account.ID, token, expiresAt); err != nil {
		return ResetIssue{}, fmt.Errorf("store reset token: %w", err)
	}

	s.publishResetRequested(ctx, account, expiresAt)

	return ResetIssue{Token: token, ExpiresAt: expiresAt}, nil
}

// ResetPassword consumes a reset token and installs the new password. The
// repository swap is atomic, so two concurrent calls with the same token
// produce exactly one winner.
func (s *CredentialService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" || newPassword == "" {
		return ErrMissingFields
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	account, err := s.accounts.ConsumeResetToken(ctx, token, passwordHash, s.resetTokens.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	s.publishPasswordChanged(ctx, account)

	return nil
}

func (s *CredentialService) publishRegistered(ctx context.Context, account domain.Account) {
	if s.events == nil {
		return
	}

	event := domain.AccountRegisteredEvent{
		EventID:      uuid.NewString(),
		AccountID:    account.ID,
		Name:         account.Name,
		Email:        account.Email,
		RegisteredAt: account.CreatedAt,
	}
	if err := s.events.PublishAccountRegistered(ctx, event); err != nil {
		s.log.Warn("failed to publish registration event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}
}

func (s *CredentialService) publishResetRequested(ctx context.Context, account *domain.Account, expiresAt time.Time) {
	if s.events == nil {
		return
	}

	event := domain.PasswordResetRequestedEvent{
		EventID:           uuid.NewString(),
		AccountID:         account.ID,
		RequestedAt:       time.Now().UTC(),
		Destination:       account.Email,
		MaskedDestination: logger.MaskEmail(account.Email),
		ExpiresAt:         expiresAt,
	}
	if err := s.events.PublishPasswordResetRequested(ctx, event); err != nil {
		s.log.Warn("failed to publish reset request event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}
}

func (s *CredentialService) publishPasswordChanged(ctx context.Context, account *domain.Account) {
	if s.events == nil {
		return
	}

	event := domain.PasswordChangedEvent{
		EventID:   uuid.NewString(),
		AccountID: account.ID,
		ChangedAt: time.Now().UTC(),
		Source:    "password_reset",
	}
	if err := s.events.PublishPasswordChanged(ctx, event); err != nil {
		s.log.Warn("failed to publish password change event",
			zap.String("account_id", account.ID),
			zap.Error(err),
		)
	}
}
