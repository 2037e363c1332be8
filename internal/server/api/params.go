package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/cast"
)

// pathID parses a uuid path parameter.
func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %s", name, c.Param(name))
	}

	return id, nil
}

// pageParams parses the limit/offset query parameters, zero when absent.
func pageParams(c *gin.Context) (limit, offset int) {
	return cast.ToInt(c.Query("limit")), cast.ToInt(c.Query("offset"))
}
