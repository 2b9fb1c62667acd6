package handler

import (
	"net/http"

	"github.com/fishryanie/GC-sub000/internal/middleware"
	"github.com/fishryanie/GC-sub000/internal/model"
	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/pkg/pagination"
	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
	errs         *ErrorWriter
}

// NewOrderHandler sets up the routing dependencies for Order endpoints
func NewOrderHandler(orderService service.OrderService, errs *ErrorWriter) *OrderHandler {
	return &OrderHandler{orderService: orderService, errs: errs}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup, auth *middleware.Auth) {
	orders := router.Group("/api/orders")
	{
		orders.POST("", auth.RequireRole(model.RoleAdmin, model.RoleSeller), h.CreateOrder)
		orders.GET("", auth.RequireRole(model.RoleAdmin, model.RoleSeller), h.ListOrders)
		orders.GET("/:id", auth.RequireRole(model.RoleAdmin, model.RoleSeller), h.GetOrder)
		orders.GET("/:id/history", auth.RequireRole(model.RoleAdmin, model.RoleSeller), h.GetOrderHistory)
		orders.PUT("/:id/review", auth.RequireRole(model.RoleAdmin), h.ReviewOrder)
		orders.PUT("/:id/status", auth.RequireRole(model.RoleAdmin), h.UpdateStatus)
	}
}

// CreateOrder handles POST /api/orders
// @Summary      Create an order
// @Description  Prices the cart against the active cost list and the chosen sale list. Seller orders wait for admin approval.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order"
// @Success      201      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), actor, req)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// ListOrders handles GET /api/orders
// @Summary      List orders
// @Description  Sellers only see their own orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page                query     int     false  "Page"
// @Param        limit               query     int     false  "Page size"
// @Param        fulfillment_status  query     string  false  "Fulfillment status"
// @Param        approval_status     query     string  false  "Approval status"
// @Param        customer_id         query     string  false  "Customer ID"
// @Success      200                 {object}  response.Response{data=[]model.Order,meta=pagination.Meta}
// @Failure      401                 {object}  response.Response
// @Router       /api/orders [get]
func (h *OrderHandler) ListOrders(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}

	params := pagination.Parse(c)
	query := service.ListOrdersQuery{
		Page:              params.Page,
		Limit:             params.Limit,
		FulfillmentStatus: c.Query("fulfillment_status"),
		ApprovalStatus:    c.Query("approval_status"),
	}
	if raw := c.Query("customer_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.errs.BadRequest(c, "customer_id")
			return
		}
		query.CustomerID = &id
	}

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), actor, query)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paged(http.StatusOK, orders, params.Meta(total)))
}

// GetOrder handles GET /api/orders/:id
// @Summary      Get an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=model.Order}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.errs.Write(c, service.ErrOrderNotFound)
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), actor, id)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// GetOrderHistory handles GET /api/orders/:id/history
// @Summary      Get the audit trail of an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=[]model.AuditLog}
// @Failure      404  {object}  response.Response
// @Router       /api/orders/{id}/history [get]
func (h *OrderHandler) GetOrderHistory(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.errs.Write(c, service.ErrOrderNotFound)
		return
	}

	logs, err := h.orderService.OrderHistory(c.Request.Context(), actor, id)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}

// ReviewOrder handles PUT /api/orders/:id/review
// @Summary      Review a pending order
// @Description  Approves or rejects an order waiting for approval, settling any pending discount request
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                      true  "Order ID"
// @Param        payload  body      service.ReviewOrderRequest  true  "Decision"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/review [put]
func (h *OrderHandler) ReviewOrder(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.errs.Write(c, service.ErrOrderNotFound)
		return
	}

	var req service.ReviewOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.ReviewOrder(c.Request.Context(), actor, id, req)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateStatus handles PUT /api/orders/:id/status
// @Summary      Update operator statuses
// @Description  Changes fulfillment and payment tracking statuses of a reviewed order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                       true  "Order ID"
// @Param        payload  body      service.UpdateStatusRequest  true  "Statuses"
// @Success      200      {object}  response.Response{data=model.Order}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.errs.Write(c, service.ErrOrderNotFound)
		return
	}

	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), actor, id, req)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
