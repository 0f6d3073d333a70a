package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/niteshawasthi21/pjv-backend/internal/transport/http/middleware"
	"github.com/niteshawasthi21/pjv-backend/internal/usecase"
)

// AddressHandler exposes the authenticated account's address book.
type AddressHandler struct {
	addresses *usecase.AddressService
}

// NewAddressHandler constructs AddressHandler.
func NewAddressHandler(addresses *usecase.AddressService) *AddressHandler {
	return &AddressHandler{addresses: addresses}
}

// RegisterRoutes binds address routes under an authenticated group.
func (h *AddressHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/addresses", h.list)
	r.POST("/addresses", h.create)
	r.PUT("/addresses/:id", h.update)
}

var addressErrorCases = []ErrorCase{
	{Err: usecase.ErrMissingFields, Status: http.StatusBadRequest, Message: "all address fields except address_line2 are required"},
	{Err: usecase.ErrAddressNotFound, Status: http.StatusNotFound, Message: "address not found"},
}

func addressInput(req AddressRequest) usecase.AddressInput {
	return usecase.AddressInput{
		Type:    req.Type,
		Name:    req.Name,
		Phone:   req.Phone,
		Line1:   req.Line1,
		Line2:   req.Line2,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
	}
}

func (h *AddressHandler) list(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	addresses, err := h.addresses.List(c.Request.Context(), accountID)
	if err != nil {
		RespondWithMappedError(c, err, addressErrorCases, http.StatusInternalServerError, "failed to list addresses")
		return
	}

	payloads := make([]AddressPayload, 0, len(addresses))
	for _, address := range addresses {
		payloads = append(payloads, addressPayload(address))
	}

	c.JSON(http.StatusOK, AddressListResponse{
		Success:   true,
		Addresses: payloads,
	})
}

func (h *AddressHandler) create(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "all address fields except address_line2 are required"))
		return
	}

	address, err := h.addresses.Create(c.Request.Context(), accountID, addressInput(req))
	if err != nil {
		RespondWithMappedError(c, err, addressErrorCases, http.StatusInternalServerError, "failed to create address")
		return
	}

	c.JSON(http.StatusCreated, AddressResponse{
		Success: true,
		Message: "Address added",
		Address: addressPayload(*address),
	})
}

func (h *AddressHandler) update(c *gin.Context) {
	accountID, ok := middleware.GetAuthenticatedAccountID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	addressID := c.Param("id")
	if addressID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "address id is required"))
		return
	}

	var req AddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "all address fields except address_line2 are required"))
		return
	}

	address, err := h.addresses.Update(c.Request.Context(), accountID, addressID, addressInput(req))
	if err != nil {
		RespondWithMappedError(c, err, addressErrorCases, http.StatusInternalServerError, "failed to update address")
		return
	}

	c.JSON(http.StatusOK, AddressResponse{
		Success: true,
		Message: "Address updated",
		Address: addressPayload(*address),
	})
}
