package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niteshawasthi21/pjv-backend/internal/core/domain"
	"github.com/niteshawasthi21/pjv-backend/internal/transport/http/middleware"
	"github.com/niteshawasthi21/pjv-backend/internal/usecase"
)

// ProfileHandler exposes the authenticated account's profile endpoints.
type ProfileHandler struct {
	profiles *usecase.ProfileService
}

// NewProfileHandler constructs ProfileHandler.
func NewProfileHandler(profiles *usecase.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

// RegisterRoutes binds profile routes under an authenticated group.
func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.getProfile)
	r.PUT("/profile", h.updateProfile)
	r.POST("/profile/avatar", h.uploadAvatar)
}

var profileErrorCases = []ErrorCase{
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
	{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: "name and email are required"},
	{Err: usecase.ErrInvalidEmail, Status: http.StatusBadRequest, Message: "invalid email format"},
	{Err: usecase.ErrDuplicateEmail, Status: http.StatusConflict, Message: "email already registered"},
}

func (h *ProfileHandler) getProfile(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	account, err := h.profiles.Get(c.Request.Context(), accountID)
	if err != nil {
		RespondWithMappedError(c, err, profileErrorCases, http.StatusInternalServerError, "failed to load profile")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		Success: true,
		User:    accountSummary(*account),
	})
}

func (h *ProfileHandler) updateProfile(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "name and email are required"))
		return
	}

	account, err := h.profiles.Update(c.Request.Context(), accountID, domain.ProfileUpdate{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		RespondWithMappedError(c, err, profileErrorCases, http.StatusInternalServerError, "failed to update profile")
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{
		Success: true,
		User:    accountSummary(*account),
	})
}

var avatarErrorCases = []ErrorCase{
	{Err: usecase.ErrAccountNotFound, Status: http.StatusNotFound, Message: "account not found"},
	{Err: usecase.ErrAvatarTooLarge, Status: http.StatusRequestEntityTooLarge, Message: "avatar file exceeds the 5MB limit"},
	{Err: usecase.ErrUnsupportedAvatarType, Status: http.StatusBadRequest, Message: "avatar must be a jpg, jpeg, png, or gif file"},
}

func (h *ProfileHandler) uploadAvatar(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "avatar file is required"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "could not read avatar file"))
		return
	}
	defer file.Close()

	ref, err := h.profiles.UpdateAvatar(c.Request.Context(), accountID, fileHeader.Filename, file, fileHeader.Size)
	if err != nil {
		RespondWithMappedError(c, err, avatarErrorCases, http.StatusInternalServerError, "failed to store avatar")
		return
	}

	c.JSON(http.StatusOK, AvatarResponse{
		Success: true,
		Message: "Avatar updated",
		Avatar:  ref,
	})
}
