package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/server/biz"
)

type AddressHandlersParams struct {
	fx.In

	AddressService *biz.AddressService
}

type AddressHandlers struct {
	AddressService *biz.AddressService
}

func NewAddressHandlers(params AddressHandlersParams) *AddressHandlers {
	return &AddressHandlers{
		AddressService: params.AddressService,
	}
}

// CreateAddress handles POST /addresses. The address lands in its owner's
// tenant regardless of what the caller sends.
func (h *AddressHandlers) CreateAddress(c *gin.Context) {
	var (
		ctx   = c.Request.Context()
		input objects.CreateAddressInput
	)

	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	address, err := h.AddressService.CreateAddress(ctx, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, address)
}

// GetAddress handles GET /addresses/:id.
func (h *AddressHandlers) GetAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	address, err := h.AddressService.GetAddress(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}

// ListAddresses handles GET /addresses. An optional userID query parameter
// narrows the result to one owner.
func (h *AddressHandlers) ListAddresses(c *gin.Context) {
	limit, offset := pageParams(c)

	query := biz.ListAddressesQuery{
		Limit:  limit,
		Offset: offset,
	}

	if raw := c.Query("userID"); raw != "" {
		userID, err := uuid.Parse(raw)
		if err != nil {
			JSONError(c, http.StatusBadRequest, invalidRequest())
			return
		}

		query.UserID = &userID
	}

	addresses, err := h.AddressService.ListAddresses(c.Request.Context(), query)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"addresses": addresses})
}

// UpdateAddress handles PATCH /addresses/:id.
func (h *AddressHandlers) UpdateAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var input objects.UpdateAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	address, err := h.AddressService.UpdateAddress(c.Request.Context(), id, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}

// DeleteAddress handles DELETE /addresses/:id.
func (h *AddressHandlers) DeleteAddress(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	if err := h.AddressService.DeleteAddress(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetUserAddress handles GET /users/:id/address.
func (h *AddressHandlers) GetUserAddress(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	address, err := h.AddressService.GetUserAddress(c.Request.Context(), userID)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}

// PutUserAddress handles PUT /users/:id/address, creating the address on
// first call and updating it in place afterwards.
func (h *AddressHandlers) PutUserAddress(c *gin.Context) {
	userID, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var input objects.UpsertAddressInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	address, err := h.AddressService.PutUserAddress(c.Request.Context(), userID, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, address)
}
