package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/auth"
	"saas_backend/internal/entitlements"
	"saas_backend/internal/middleware"
	"saas_backend/internal/models"
	"saas_backend/internal/services"
)

// TenantHandler - чтение подписки и фич своего тенанта
type TenantHandler struct {
	*BaseHandler
	subscriptions services.SubscriptionLifecycle
	entitlements  services.EntitlementResolver
}

func NewTenantHandler(base *BaseHandler, subs services.SubscriptionLifecycle, ents services.EntitlementResolver) *TenantHandler {
	return &TenantHandler{BaseHandler: base, subscriptions: subs, entitlements: ents}
}

func (h *TenantHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	tenants := rg.Group("/tenants/:tenantId")
	tenants.Use(authMW, middleware.RequireTenant(), middleware.EnforceTenantScope("tenantId"))
	{
		tenants.GET("/entitlements", h.GetEntitlements)
		tenants.GET("/features/:code", h.GetFeature)
		tenants.GET("/subscription", middleware.RequirePermission(auth.PermBillingRead), h.GetSubscription)
	}
}

func (h *TenantHandler) GetEntitlements(c *gin.Context) {
	ac, ok := h.GetAuthContext(c)
	if !ok {
		return
	}

	snap := ac.Entitlements
	if snap == nil {
		var err error
		snap, err = h.entitlements.Resolve(c.Request.Context(), c.Param("tenantId"))
		if err != nil {
			h.HandleServiceError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, snap)
}

type featureResponse struct {
	Code   string              `json:"code"`
	Limits entitlements.Limits `json:"limits"`
}

// GetFeature - лимиты одной фичи; 403 FEATURE_NOT_ENABLED, если ее нет в плане
func (h *TenantHandler) GetFeature(c *gin.Context) {
	ac, ok := h.GetAuthContext(c)
	if !ok {
		return
	}

	code := c.Param("code")
	if err := ac.RequireFeature(code); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	limits, _ := ac.Entitlements.Limits(code)
	c.JSON(http.StatusOK, featureResponse{Code: code, Limits: limits})
}

type tenantSubscriptionResponse struct {
	Subscription *models.Subscription `json:"subscription"`
	Invoices     []models.Invoice     `json:"invoices"`
}

func (h *TenantHandler) GetSubscription(c *gin.Context) {
	ctx := c.Request.Context()

	sub, err := h.subscriptions.GetCurrentForTenant(ctx, c.Param("tenantId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	invoices, err := h.subscriptions.ListInvoices(ctx, sub.ID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenantSubscriptionResponse{Subscription: sub, Invoices: invoices})
}
