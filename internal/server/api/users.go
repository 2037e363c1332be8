package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/server/biz"
)

type UserHandlersParams struct {
	fx.In

	UserService *biz.UserService
}

type UserHandlers struct {
	UserService *biz.UserService
}

func NewUserHandlers(params UserHandlersParams) *UserHandlers {
	return &UserHandlers{
		UserService: params.UserService,
	}
}

// CreateUser handles POST /users.
func (h *UserHandlers) CreateUser(c *gin.Context) {
	var (
		ctx   = c.Request.Context()
		input objects.CreateUserInput
	)

	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	user, err := h.UserService.CreateUser(ctx, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /users/:id.
func (h *UserHandlers) GetUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	user, err := h.UserService.GetUser(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /users. An optional email query parameter narrows
// the result to one account.
func (h *UserHandlers) ListUsers(c *gin.Context) {
	limit, offset := pageParams(c)

	query := biz.ListUsersQuery{
		Limit:  limit,
		Offset: offset,
	}

	if email := c.Query("email"); email != "" {
		query.Email = &email
	}

	users, err := h.UserService.ListUsers(c.Request.Context(), query)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

// UpdateUser handles PATCH /users/:id.
func (h *UserHandlers) UpdateUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var input objects.UpdateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	user, err := h.UserService.UpdateUser(c.Request.Context(), id, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// DeleteUser handles DELETE /users/:id.
func (h *UserHandlers) DeleteUser(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	if err := h.UserService.DeleteUser(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
