package handler

import (
	"net/http"

	"github.com/fishryanie/GC-sub000/internal/middleware"
	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// PublicOrderHandler serves the token-authenticated ordering pages and link issuance.
type PublicOrderHandler struct {
	publicService service.PublicOrderService
	errs          *ErrorWriter
	validate      *validator.Validate
}

func NewPublicOrderHandler(publicService service.PublicOrderService, errs *ErrorWriter) *PublicOrderHandler {
	return &PublicOrderHandler{publicService: publicService, errs: errs, validate: validator.New()}
}

// RegisterRoutes binds link issuance behind auth and the public pages behind limit.
func (h *PublicOrderHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth, limit gin.HandlerFunc) {
	router.POST("/api/order-links", auth.RequireRole(model.RoleAdmin, model.RoleSeller), h.CreateLink)

	public := router.Group("/api/public/order-links", limit)
	{
		public.GET("/:token", h.GetLink)
		public.POST("/:token/orders", h.CreateOrder)
	}
}

// CreateLink handles POST /api/order-links
// @Summary      Create a public order link
// @Description  Issues a shareable link that lets a customer order against a sale list snapshot
// @Tags         order-links
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateLinkRequest  true  "Link"
// @Success      201      {object}  response.Response{data=model.PublicOrderLink}
// @Failure      400      {object}  response.Response
// @Router       /api/order-links [post]
func (h *PublicOrderHandler) CreateLink(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}

	var req service.CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}

	link, err := h.publicService.CreateLink(c.Request.Context(), actor, req)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, link))
}

// GetLink handles GET /api/public/order-links/:token
// @Summary      Open a public order link
// @Tags         public
// @Produce      json
// @Param        token  path      string  true  "Link token"
// @Success      200    {object}  response.Response{data=service.PublicLinkView}
// @Failure      404    {object}  response.Response
// @Failure      410    {object}  response.Response
// @Failure      429    {object}  response.Response
// @Router       /api/public/order-links/{token} [get]
func (h *PublicOrderHandler) GetLink(c *gin.Context) {
	view, err := h.publicService.GetLink(c.Request.Context(), c.Param("token"))
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, view))
}

// CreateOrder handles POST /api/public/order-links/:token/orders
// @Summary      Place an order through a public link
// @Description  The order always waits for admin approval
// @Tags         public
// @Accept       json
// @Produce      json
// @Param        token    path      string                      true  "Link token"
// @Param        payload  body      service.PublicOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      410      {object}  response.Response
// @Failure      429      {object}  response.Response
// @Router       /api/public/order-links/{token}/orders [post]
func (h *PublicOrderHandler) CreateOrder(c *gin.Context) {
	var req service.PublicOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}

	order, err := h.publicService.CreateOrder(c.Request.Context(), c.Param("token"), req)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}
