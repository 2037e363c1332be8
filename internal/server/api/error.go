package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/server/biz"
)

// JSONError returns a JSON error response and adds the error to gin context for access logging.
func JSONError(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, objects.ErrorResponse{
		Error: objects.Error{
			Type:    http.StatusText(status),
			Message: err.Error(),
		},
	})
}

// BizError maps a service error to its HTTP status. Access violations and
// missing rows are never distinguishable to the caller beyond 403/404.
func BizError(c *gin.Context, err error) {
	switch {
	case biz.IsValidation(err):
		JSONError(c, http.StatusBadRequest, err)
	case biz.IsForbidden(err):
		JSONError(c, http.StatusForbidden, err)
	case biz.IsNotFound(err):
		JSONError(c, http.StatusNotFound, err)
	default:
		JSONError(c, http.StatusInternalServerError, biz.ErrInternal)
	}
}

func invalidRequest() error {
	return errors.New("invalid request format")
}
