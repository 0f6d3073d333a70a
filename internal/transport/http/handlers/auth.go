package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niteshawasthi21/pjv-backend/internal/usecase"
)

// AuthHandler exposes registration, login, and password-reset endpoints.
type AuthHandler struct {
	credentials *usecase.CredentialService
	isDev       bool
}

// AuthHandlerOption configures optional AuthHandler behaviour.
type AuthHandlerOption func(*AuthHandler)

// WithDevMode toggles development-only behaviour, such as returning the raw
// reset token in forgot-password responses instead of delivering it by email.
func WithDevMode(isDev bool) AuthHandlerOption {
	return func(h *AuthHandler) {
		h.isDev = isDev
	}
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(credentials *usecase.CredentialService, opts ...AuthHandlerOption) *AuthHandler {
	handler := &AuthHandler{credentials: credentials}

	for _, opt := range opts {
		if opt != nil {
			opt(handler)
		}
	}

	return handler
}

// RegisterRoutes binds authentication routes, applying optional middleware
// ahead of the throttled endpoints.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares []gin.HandlerFunc, resetMiddlewares []gin.HandlerFunc) {
	r.POST("/register", h.register)
	r.POST("/login", append(append([]gin.HandlerFunc{}, loginMiddlewares...), h.login)...)
	r.POST("/forgot-password", append(append([]gin.HandlerFunc{}, resetMiddlewares...), h.forgotPassword)...)
	r.POST("/reset-password", h.resetPassword)
}

var registerErrorCases = []ErrorCase{
	{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: "name, email and password are required"},
	{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email format"},
	{Err: usecase.ErrDuplicateEmail, Status: http.StatusConflict, Message: "email already registered"},
}

func (h *AuthHandler) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name, email and password are required"))
		return
	}

	account, err := h.credentials.Register(c.Request.Context(), req.Name, req.Email, req.Phone, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, registerErrorCases, http.StatusInternalServerError, "registration failed")
		return
	}

	c.JSON(http.StatusCreated, RegisterResponse{
		Success: true,
		Message: "Registration successful",
		User:    accountSummary(account),
	})
}

var loginErrorCases = []ErrorCase{
	{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: "email and password are required"},
	{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email and password are required"))
		return
	}

	result, err := h.credentials.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		RespondWithMappedError(c, err, loginErrorCases, http.StatusInternalServerError, "login failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		Success:   true,
		Message:   "Login successful",
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      accountSummary(result.Account),
	})
}

var forgotPasswordErrorCases = []ErrorCase{
	{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: "email is required"},
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
}

func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "email is required"))
		return
	}

	issue, err := h.credentials.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		RespondWithMappedError(c, err, forgotPasswordErrorCases, http.StatusInternalServerError, "failed to process reset request")
		return
	}

	resp := ForgotPasswordResponse{
		Success:   true,
		Message:   "Password reset token issued",
		ExpiresAt: issue.ExpiresAt,
	}
	if h.isDev {
		resp.DevResetToken = &issue.Token
	}

	c.JSON(http.StatusOK, resp)
}

var resetPasswordErrorCases = []ErrorCase{
	{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: "token and new password are required"},
	{Err: usecase.ErrInvalidOrExpiredToken, Status: http.StatusBadRequest, Message: "invalid or expired reset token"},
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "token and new password are required"))
		return
	}

	if err := h.credentials.ResetPassword(c.Request.Context(), req.Token, req.NewPassword); err != nil {
		RespondWithMappedError(c, err, resetPasswordErrorCases, http.StatusInternalServerError, "failed to reset password")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{
		Success: true,
		Message: "Password has been reset",
	})
}
