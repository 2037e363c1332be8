package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"github.com/tenantguard/tenantguard/internal/objects"
	"github.com/tenantguard/tenantguard/internal/server/biz"
)

type CityHandlersParams struct {
	fx.In

	CityService *biz.CityService
}

type CityHandlers struct {
	CityService *biz.CityService
}

func NewCityHandlers(params CityHandlersParams) *CityHandlers {
	return &CityHandlers{
		CityService: params.CityService,
	}
}

// CreateCity handles POST /cities.
func (h *CityHandlers) CreateCity(c *gin.Context) {
	var (
		ctx   = c.Request.Context()
		input objects.CreateCityInput
	)

	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	city, err := h.CityService.CreateCity(ctx, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusCreated, city)
}

// GetCity handles GET /cities/:id.
func (h *CityHandlers) GetCity(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	city, err := h.CityService.GetCity(c.Request.Context(), id)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, city)
}

// ListCities handles GET /cities. An optional country query parameter
// narrows the result.
func (h *CityHandlers) ListCities(c *gin.Context) {
	limit, offset := pageParams(c)

	query := biz.ListCitiesQuery{
		Limit:  limit,
		Offset: offset,
	}

	if country := c.Query("country"); country != "" {
		query.Country = &country
	}

	cities, err := h.CityService.ListCities(c.Request.Context(), query)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// UpdateCity handles PATCH /cities/:id.
func (h *CityHandlers) UpdateCity(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	var input objects.UpdateCityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		JSONError(c, http.StatusBadRequest, invalidRequest())
		return
	}

	city, err := h.CityService.UpdateCity(c.Request.Context(), id, input)
	if err != nil {
		BizError(c, err)
		return
	}

	c.JSON(http.StatusOK, city)
}

// DeleteCity handles DELETE /cities/:id.
func (h *CityHandlers) DeleteCity(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		JSONError(c, http.StatusBadRequest, err)
		return
	}

	if err := h.CityService.DeleteCity(c.Request.Context(), id); err != nil {
		BizError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
