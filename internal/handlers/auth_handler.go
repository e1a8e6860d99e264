package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/services"
	"saas_backend/internal/services/dto"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes - /auth. authMW защищает logout-all и me.
func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	auth := rg.Group("/auth")
	{
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.POST("/logout", h.Logout)
		auth.POST("/logout-all", authMW, h.LogoutAll)
		auth.GET("/me", authMW, h.Me)
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req, clientMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken, clientMeta(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), req.RefreshToken); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) LogoutAll(c *gin.Context) {
	ac, ok := h.GetAuthContext(c)
	if !ok {
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), ac.UserID()); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AuthHandler) Me(c *gin.Context) {
	ac, ok := h.GetAuthContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.NewMeResponse(ac))
}
