package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/infra/security"
	"github.com/niteshawasthi21/pjv-backend/internal/repository"
	"github.com/niteshawasthi21/pjv-backend/internal/usecase"
)

// stubAccountStore backs the credential service with an in-memory account map.
type stubAccountStore struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
}

func newStubAccountStore() *stubAccountStore {
	return &stubAccountStore{accounts: make(map[string]*domain.Account)}
}

func (s *stubAccountStore) Create(_ context.Context, account domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Email == account.Email {
			return repository.ErrDuplicate
		}
	}
	copied := account
	s.accounts[account.ID] = &copied
	return nil
}

func (s *stubAccountStore) GetByID(_ context.Context, id string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *account
	return &copied, nil
}

func (s *stubAccountStore) GetByEmail(_ context.Context, email string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
		if account.Email == email {
			copied := *account
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubAccountStore) SetResetToken(_ context.Context, id, token string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetToken = &token
	expiry := expiresAt
	account.ResetTokenExpires = &expiry
	return nil
}

func (s *stubAccountStore) ClearResetToken(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.ResetToken = nil
	account.ResetTokenExpires = nil
	return nil
}

func (s *stubAccountStore) ConsumeResetToken(_ context.Context, token, passwordHash string, now time.Time) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, account := range s.accounts {
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

func (s *stubAccountStore) UpdatePasswordHash(_ context.Context, id, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.PasswordHash = passwordHash
	return nil
}

func (s *stubAccountStore) UpdateProfile(_ context.Context, id string, update domain.ProfileUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.Name = update.Name
	account.Email = update.Email
	account.Phone = update.Phone
	return nil
}

func (s *stubAccountStore) UpdateAvatarRef(_ context.Context, id, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.AvatarRef = &ref
	return nil
}

func (s *stubAccountStore) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	account.LastLogin = &at
	return nil
}

func newAuthTestServer(t *testing.T, opts ...AuthHandlerOption) *gin.Engine {
	t.Helper()

	sessions, err := security.NewSessionTokenManager([]byte("unit-test-signing-key"), time.Hour, "pjv-backend")
	if err != nil {
		t.Fatalf("NewSessionTokenManager returned error: %v", err)
	}

	credentials := usecase.NewCredentialService(
		newStubAccountStore(),
		security.NewPasswordHasher(bcrypt.MinCost),
		sessions,
		usecase.NewResetTokenManager(30*time.Minute),
		nil,
		zaptest.NewLogger(t),
	)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewAuthHandler(credentials, opts...).RegisterRoutes(router.Group("/api/auth"), nil, nil)
	return router
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	router := newAuthTestServer(t)

	rec := postJSON(router, "/api/auth/register", gin.H{
		"name":     "Ann Example",
		"email":    "Ann@Example.com",
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var registered RegisterResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if !registered.Success || registered.User.ID == "" {
		t.Fatalf("unexpected register response: %+v", registered)
	}
	if registered.User.Email != "ann@example.com" {
		t.Fatalf("expected normalized email, got %q", registered.User.Email)
	}

	rec = postJSON(router, "/api/auth/login", gin.H{
		"email":    "ann@example.com",
		"password": "s3cret-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var logged LoginResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &logged); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if logged.Token == "" {
		t.Fatalf("expected a session token in the login response")
	}
	if logged.User.ID != registered.User.ID {
		t.Fatalf("login returned a different account")
	}
}

func TestAuthHandler_RegisterDuplicate(t *testing.T) {
	router := newAuthTestServer(t)

	payload := gin.H{"name": "Ann", "email": "ann@example.com", "password": "pw"}
	if rec := postJSON(router, "/api/auth/register", payload); rec.Code != http.StatusCreated {
		t.Fatalf("first register: expected 201, got %d", rec.Code)
	}

	rec := postJSON(router, "/api/auth/register", payload)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body.Message != "email already registered" {
		t.Fatalf("unexpected message: %q", body.Message)
	}
}

func TestAuthHandler_RegisterMissingFields(t *testing.T) {
	router := newAuthTestServer(t)

	rec := postJSON(router, "/api/auth/register", gin.H{"email": "ann@example.com"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAuthHandler_LoginBadPassword(t *testing.T) {
	router := newAuthTestServer(t)

	if rec := postJSON(router, "/api/auth/register", gin.H{
		"name": "Ann", "email": "ann@example.com", "password": "right-password",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec := postJSON(router, "/api/auth/login", gin.H{
		"email": "ann@example.com", "password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestAuthHandler_PasswordResetFlow(t *testing.T) {
	router := newAuthTestServer(t, WithDevMode(true))

	if rec := postJSON(router, "/api/auth/register", gin.H{
		"name": "Ann", "email": "ann@example.com", "password": "old-password",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec := postJSON(router, "/api/auth/forgot-password", gin.H{"email": "ann@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot-password: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var forgot ForgotPasswordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &forgot); err != nil {
		t.Fatalf("decode forgot-password response: %v", err)
	}
	if forgot.DevResetToken == nil || *forgot.DevResetToken == "" {
		t.Fatalf("dev mode must surface the reset token")
	}

	rec = postJSON(router, "/api/auth/reset-password", gin.H{
		"token": *forgot.DevResetToken, "new_password": "new-password",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("reset-password: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// The consumed token is single use.
	rec = postJSON(router, "/api/auth/reset-password", gin.H{
		"token": *forgot.DevResetToken, "new_password": "another-password",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("replayed token: expected 400, got %d", rec.Code)
	}

	if rec := postJSON(router, "/api/auth/login", gin.H{
		"email": "ann@example.com", "password": "new-password",
	}); rec.Code != http.StatusOK {
		t.Fatalf("login with new password: expected 200, got %d", rec.Code)
	}
}

func TestAuthHandler_ForgotPasswordHidesTokenOutsideDev(t *testing.T) {
	router := newAuthTestServer(t)

	if rec := postJSON(router, "/api/auth/register", gin.H{
		"name": "Ann", "email": "ann@example.com", "password": "pw",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", rec.Code)
	}

	rec := postJSON(router, "/api/auth/forgot-password", gin.H{"email": "ann@example.com"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var forgot ForgotPasswordResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &forgot); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if forgot.DevResetToken != nil {
		t.Fatalf("reset token must not leak outside development mode")
	}
}

func TestAuthHandler_ForgotPasswordUnknownEmail(t *testing.T) {
	router := newAuthTestServer(t)

	rec := postJSON(router, "/api/auth/forgot-password", gin.H{"email": "nobody@example.com"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
