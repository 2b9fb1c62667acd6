package handler

import (
	"net/http"
	"time"

	"github.com/fishryanie/GC-sub000/internal/middleware"
	"github.com/fishryanie/GC-sub000/internal/service"
	"github.com/fishryanie/GC-sub000/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService service.AuthService
	auth        *middleware.Auth
	errs        *ErrorWriter
}

// NewAuthHandler sets up the routing dependencies for session endpoints
func NewAuthHandler(authService service.AuthService, auth *middleware.Auth, errs *ErrorWriter) *AuthHandler {
	return &AuthHandler{authService: authService, auth: auth, errs: errs}
}

// RegisterRoutes binds the endpoints to the gin Engine or RouterGroup
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/auth")
	{
		group.POST("/login", h.Login)
		group.POST("/logout", h.Logout)
		// any valid session
		group.GET("/me", h.auth.RequireRole(), h.GetMe)
	}
}

// Login handles POST /api/auth/login to authenticate and return a JWT token
// @Summary      Login
// @Description  Authenticates a seller by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      401      {object}  response.Response
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errs.BadRequest(c, err.Error())
		return
	}

	tokenRes, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	h.auth.SetSessionCookie(c, tokenRes.Token, time.Until(tokenRes.ExpiresAt))
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout handles POST /api/auth/logout
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.auth.ClearSessionCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, nil))
}

// GetMe handles GET /api/auth/me to return the seller behind the session
// @Summary      Get current seller
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.SellerResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/auth/me [get]
func (h *AuthHandler) GetMe(c *gin.Context) {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		h.errs.Unauthorized(c)
		return
	}

	seller, err := h.authService.Me(c.Request.Context(), actor.SellerID)
	if err != nil {
		h.errs.Write(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, seller))
}
