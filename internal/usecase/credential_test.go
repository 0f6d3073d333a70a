package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/security"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
)

// memoryAccountRepository mirrors the persistence contract in memory,
// including the one-winner semantics of ConsumeResetToken.
type memoryAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newMemoryAccountRepository() *memoryAccountRepository {
	return &memoryAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (r *memoryAccountRepository) Create(_ context.Context, account domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicate
		}
	}

	copied := account
	r.accounts[account.ID] = &copied
	return nil
}

func (r *memoryAccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (r *memoryAccountRepository) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memoryAccountRepository) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetToken = &token
	expiry := expiresAt
	account.ResetTokenExpires = &expiry
	return nil
}

func (r *memoryAccountRepository) ClearResetToken(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetToken = nil
	account.ResetTokenExpires = nil
	return nil
}

func (r *memoryAccountRepository) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, account := range r.accounts {
		if account.ResetToken == nil || *account.ResetToken != token {
			continue
		}
		if account.ResetTokenExpires != nil && !account.ResetTokenExpires.After(now) {
			continue
		}
		account.PasswordHash = passwordHash
		account.ResetToken = nil
		account.ResetTokenExpires = nil
		copied := *account
		return &copied, nil
	}
	return nil, repository.ErrNotFound
}

func (r *memoryAccountRepository) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	return nil
}

func (r *memoryAccountRepository) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	for otherID, other := range r.accounts {
		if otherID != id && other.Email == update.Email {
			return repository.ErrDuplicate
		}
	}
	account.Name = update.Name
	account.Email = update.Email
	if update.Phone != nil {
		phone := *update.Phone
		account.Phone = &phone
	} else {
		account.Phone = nil
	}
	return nil
}

func (r *memoryAccountRepository) UpdateAvatarRef(_ context.Context, id, ref string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.AvatarRef = &ref
	return nil
}

func (r *memoryAccountRepository) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.LastLogin = &at
	return nil
}

// recordingPublisher captures published events for assertions.
type recordingPublisher struct {
	mu              sync.Mutex
	registered      []domain.AccountRegisteredEvent
	passwordChanged []domain.PasswordChangedEvent
	resetRequested  []domain.PasswordResetRequestedEvent
}

func (p *recordingPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.registered = append(p.registered, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordChanged = append(p.passwordChanged, event)
	return nil
}

func (p *recordingPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetRequested = append(p.resetRequested, event)
	return nil
}

type credentialFixture struct {
	service  *CredentialService
	accounts *memoryAccountRepository
	events   *recordingPublisher
	reset    *ResetTokenManager
}

func newCredentialFixture(t *testing.T) credentialFixture {
	t.Helper()

	sessions, err := security.NewSessionTokenManager([]byte("unit-test-signing-key"), time.Hour, "pjv-backend")
	if err != nil {
		t.Fatalf("NewSessionTokenManager returned error: %v", err)
	}

	accounts := newMemoryAccountRepository()
	events := &recordingPublisher{}
	reset := NewResetTokenManager(30 * time.Minute)

	service := NewCredentialService(
		accounts,
		security.NewPasswordHasher(bcrypt.MinCost),
		sessions,
		reset,
		events,
		zaptest.NewLogger(t),
	)

	return credentialFixture{service: service, accounts: accounts, events: events, reset: reset}
}

func TestCredentialService_RegisterAndLogin(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	account, err := fx.service.Register(ctx, "Ann Example", "Ann@Example.com", "+911234567890", "s3cret-pass")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account.ID == "" {
		t.Fatalf("expected a generated account id")
	}
	if account.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", account.Email)
	}
	if account.PasswordHash == "s3cret-pass" {
		t.Fatalf("password must be stored hashed")
	}
	if account.Phone == nil || *account.Phone != "+911234567890" {
		t.Fatalf("expected phone retained, got %v", account.Phone)
	}
	if len(fx.events.registered) != 1 {
		t.Fatalf("expected 1 registration event, got %d", len(fx.events.registered))
	}
	if fx.events.registered[0].AccountID != account.ID {
		t.Fatalf("registration event carries wrong account id")
	}

	result, err := fx.service.Login(ctx, "  ANN@example.COM  ", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected a session token")
	}
	if result.Account.ID != account.ID {
		t.Fatalf("expected account %s, got %s", account.ID, result.Account.ID)
	}
	if result.Account.LastLogin == nil {
		t.Fatalf("expected last login to be recorded")
	}
}

func TestCredentialService_RegisterValidation(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Register(ctx, "", "ann@example.com", "", "pw"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty name: expected ErrMissingFields, got %v", err)
	}
	if _, err := fx.service.Register(ctx, "Ann", "not-an-email", "", "pw"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("bad email: expected ErrInvalidEmail, got %v", err)
	}
	if _, err := fx.service.Register(ctx, "Ann", "ann@example.com", "", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("empty password: expected ErrMissingFields, got %v", err)
	}
}

func TestCredentialService_RegisterDuplicateEmail(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Register(ctx, "Ann", "ann@example.com", "", "pw-one"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	// Same address with different case and padding still collides.
	if _, err := fx.service.Register(ctx, "Other Ann", "  Ann@Example.COM ", "", "pw-two"); !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestCredentialService_LoginRejectsBadCredentials(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Register(ctx, "Ann", "ann@example.com", "", "right-password"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	_, unknownErr := fx.service.Login(ctx, "nobody@example.com", "right-password")
	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("unknown email: expected ErrInvalidCredentials, got %v", unknownErr)
	}

	_, wrongErr := fx.service.Login(ctx, "ann@example.com", "wrong-password")
	if !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", wrongErr)
	}

	// Unknown email and wrong password must be indistinguishable.
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatalf("credential failures must not reveal which part was wrong")
	}
}

func TestCredentialService_ForgotPasswordUnknownEmail(t *testing.T) {
	fx := newCredentialFixture(t)

	if _, err := fx.service.ForgotPassword(context.Background(), "nobody@example.com"); !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestCredentialService_ResetPasswordRoundTrip(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Register(ctx, "Ann", "ann@example.com", "", "old-password"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	issue, err := fx.service.ForgotPassword(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	if issue.Token == "" {
		t.Fatalf("expected a reset token")
	}
	if len(fx.events.resetRequested) != 1 {
		t.Fatalf("expected 1 reset-requested event, got %d", len(fx.events.resetRequested))
	}

	if err := fx.service.ResetPassword(ctx, issue.Token, "new-password"); err != nil {
		t.Fatalf("ResetPassword returned error: %v", err)
	}
	if len(fx.events.passwordChanged) != 1 {
		t.Fatalf("expected 1 password-changed event, got %d", len(fx.events.passwordChanged))
	}

	// A consumed token is gone; replay must fail.
	if err := fx.service.ResetPassword(ctx, issue.Token, "another-password"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("replayed token: expected ErrInvalidOrExpiredToken, got %v", err)
	}

	if _, err := fx.service.Login(ctx, "ann@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password must stop working, got %v", err)
	}
	if _, err := fx.service.Login(ctx, "ann@example.com", "new-password"); err != nil {
		t.Fatalf("new password must work, got %v", err)
	}
}

func TestCredentialService_ReissueInvalidatesEarlierToken(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	if _, err := fx.service.Register(ctx, "Ann", "ann@example.com", "", "old-password"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	first, err := fx.service.ForgotPassword(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}
	second, err := fx.service.ForgotPassword(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}

	if err := fx.service.ResetPassword(ctx, first.Token, "new-password"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("superseded token: expected ErrInvalidOrExpiredToken, got %v", err)
	}
	if err := fx.service.ResetPassword(ctx, second.Token, "new-password"); err != nil {
		t.Fatalf("latest token must still work, got %v", err)
	}
}

func TestCredentialService_ResetPasswordExpiredToken(t *testing.T) {
	fx := newCredentialFixture(t)
	ctx := context.Background()

	issuedAt := time.Date(2025, time.March, 10, 12, 0, 0, 0, time.UTC)
	fx.reset.WithClock(func() time.Time { return issuedAt })

	if _, err := fx.service.Register(ctx, "Ann", "ann@example.com", "", "old-password"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	issue, err := fx.service.ForgotPassword(ctx, "ann@example.com")
	if err != nil {
		t.Fatalf("ForgotPassword returned error: %v", err)
	}

	// Advance past the 30 minute lifetime.
	fx.reset.WithClock(func() time.Time { return issuedAt.Add(31 * time.Minute) })

	if err := fx.service.ResetPassword(ctx, issue.Token, "new-password"); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Fatalf("expired token: expected ErrInvalidOrExpiredToken, got %v", err)
	}
}
