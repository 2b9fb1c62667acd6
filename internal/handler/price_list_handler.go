package handler

import (
	"net/http"

	"github.com/fishryanie/GC-sub000/internal/middleware"
	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PriceListHandler struct {
	priceListService service.PriceListService
	errs             *ErrorWriter
}

func NewPriceListHandler(priceListService service.PriceListService, errs *ErrorWriter) *PriceListHandler {
	return &PriceListHandler{priceListService: priceListService, errs: errs}
}

func (h *PriceListHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	router.PUT("/api/price-lists/:id/activate", auth.RequireRole(model.RoleAdmin), h.Activate)
}

// Activate handles PUT /api/price-lists/:id/activate
// @Summary      Activate a price list
// @Description  Activating a cost list deactivates every other cost list
// @Tags         price-lists
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Price list ID"
// @Success      200  {object}  response.Response{data=model.PriceList}
// @Failure      400  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Router       /api/price-lists/{id}/activate [put]
func (h *PriceListHandler) Activate(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.errs.BadRequest(c, "id")
		return
	}

	list, err := h.priceListService.Activate(c.Request.Context(), actor, id)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, list))
}
