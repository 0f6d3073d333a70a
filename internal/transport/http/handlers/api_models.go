package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
)

// ErrorResponse is the error envelope every failed request returns.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with the trace ID from context.
func NewErrorResponse(c *gin.Context, message string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Success: false,
		Message: message,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple success payload.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// AccountSummary is the account view returned by the API. The password hash
// and reset token never appear here.
type AccountSummary struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     *string    `json:"phone,omitempty"`
	Avatar    *string    `json:"avatar,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func accountSummary(account domain.Account) AccountSummary {
	return AccountSummary{
		ID:        account.ID,
		Name:      account.Name,
		Email:     account.Email,
		Phone:     account.Phone,
		Avatar:    account.AvatarRef,
		CreatedAt: account.CreatedAt,
		LastLogin: account.LastLogin,
	}
}

// RegisterRequest defines the account registration payload.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required"`
}

// RegisterResponse is returned on successful registration.
type RegisterResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	User    AccountSummary `json:"user"`
}

// LoginRequest defines the login payload.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token for an authenticated account.
type LoginResponse struct {
	Success   bool           `json:"success"`
	Message   string         `json:"message"`
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      AccountSummary `json:"user"`
}

// ForgotPasswordRequest asks for a reset token by email.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPasswordResponse acknowledges a reset request. DevResetToken is only
// populated in development mode; production delivers tokens out of band.
type ForgotPasswordResponse struct {
	Success       bool      `json:"success"`
	Message       string    `json:"message"`
	ExpiresAt     time.Time `json:"expires_at"`
	DevResetToken *string   `json:"dev_reset_token,omitempty"`
}

// ResetPasswordRequest consumes a reset token.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ProfileResponse wraps the account view.
type ProfileResponse struct {
	Success bool           `json:"success"`
	User    AccountSummary `json:"user"`
}

// ProfileUpdateRequest defines the mutable profile fields.
type ProfileUpdateRequest struct {
	Name  string  `json:"name" binding:"required"`
	Email string  `json:"email" binding:"required"`
	Phone *string `json:"phone"`
}

// AvatarResponse is returned after a successful avatar upload.
type AvatarResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Avatar  string `json:"avatar"`
}

// AddressPayload is the address view returned by the API.
type AddressPayload struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Line1     string    `json:"address_line1"`
	Line2     *string   `json:"address_line2,omitempty"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func addressPayload(address domain.Address) AddressPayload {
	return AddressPayload{
		ID:        address.ID,
		Type:      address.Type,
		Name:      address.Name,
		Phone:     address.Phone,
		Line1:     address.Line1,
		Line2:     address.Line2,
		City:      address.City,
		State:     address.State,
		Pincode:   address.Pincode,
		CreatedAt: address.CreatedAt,
		UpdatedAt: address.UpdatedAt,
	}
}

// AddressRequest defines the create/update address payload.
type AddressRequest struct {
	Type    string  `json:"type" binding:"required"`
	Name    string  `json:"name" binding:"required"`
	Phone   string  `json:"phone" binding:"required"`
	Line1   string  `json:"address_line1" binding:"required"`
	Line2   *string `json:"address_line2"`
	City    string  `json:"city" binding:"required"`
	State   string  `json:"state" binding:"required"`
	Pincode string  `json:"pincode" binding:"required"`
}

// AddressResponse wraps a single address.
type AddressResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message,omitempty"`
	Address AddressPayload `json:"address"`
}

// AddressListResponse wraps every address the account owns.
type AddressListResponse struct {
	Success   bool             `json:"success"`
	Addresses []AddressPayload `json:"addresses"`
}

// HealthResponse describes the liveness payload.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}

// ReadyResponse describes the readiness payload with per-dependency detail.
type ReadyResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// WelcomeResponse greets API consumers at the root route.
type WelcomeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
