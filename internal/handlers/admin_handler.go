package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/middleware"
	"saas_backend/internal/services"
	"saas_backend/internal/services/dto"
)

// AdminHandler - операции платформенного администратора
type AdminHandler struct {
	subscriptionActions
	catalog     services.CatalogService
	memberships services.MembershipResolver
}

func NewAdminHandler(base *BaseHandler, container *services.ServiceContainer) *AdminHandler {
	return &AdminHandler{
		subscriptionActions: subscriptionActions{BaseHandler: base, subscriptions: container.Subscriptions},
		catalog:             container.Catalog,
		memberships:         container.Memberships,
	}
}

func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	rg.GET("/plans", authMW, h.ListPlans)

	admin := rg.Group("/admin")
	admin.Use(authMW, middleware.RequireSuperAdmin())
	{
		admin.POST("/subscriptions", h.CreateSubscription)
		admin.GET("/subscriptions/:id", h.GetSubscription)
		admin.GET("/subscriptions/:id/events", h.ListEvents)
		admin.POST("/subscriptions/:id/upgrade", h.upgrade)
		admin.POST("/subscriptions/:id/downgrade", h.downgrade)
		admin.POST("/subscriptions/:id/cancel", h.cancel)
		admin.POST("/subscriptions/:id/reactivate", h.reactivate)
		admin.POST("/subscriptions/:id/suspend", h.suspend)

		admin.POST("/jobs/rollover", h.RunRollover)
		admin.POST("/invoices/:id/confirm", h.ConfirmPayment)

		admin.PUT("/features/:code", h.SetFeatureEnabled)
		admin.POST("/partners/:partnerId/plans", h.AllowPartnerPlan)
		admin.POST("/tenants/:tenantId/owner", h.TransferOwnership)
	}
}

func (h *AdminHandler) ListPlans(c *gin.Context) {
	plans, err := h.catalog.ListPlans(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, plans)
}

func (h *AdminHandler) CreateSubscription(c *gin.Context) {
	h.create(c, "")
}

func (h *AdminHandler) GetSubscription(c *gin.Context) {
	sub, err := h.subscriptions.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *AdminHandler) ListEvents(c *gin.Context) {
	events, err := h.subscriptions.ListEvents(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

// RunRollover - ручной запуск того же прохода, что делает воркер/cron
func (h *AdminHandler) RunRollover(c *gin.Context) {
	report, err := h.subscriptions.ProcessScheduledChanges(c.Request.Context())
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *AdminHandler) ConfirmPayment(c *gin.Context) {
	var req dto.ConfirmPaymentRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	invoice, err := h.subscriptions.ConfirmPayment(c.Request.Context(), c.Param("id"), req.PaymentMethodRef)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, invoice)
}

func (h *AdminHandler) SetFeatureEnabled(c *gin.Context) {
	var req dto.SetFeatureEnabledRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	feature, err := h.catalog.SetFeatureEnabled(c.Request.Context(), c.Param("code"), *req.Enabled)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, feature)
}

func (h *AdminHandler) AllowPartnerPlan(c *gin.Context) {
	var req dto.AllowPlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.catalog.AllowPartnerPlan(c.Request.Context(), c.Param("partnerId"), req.PlanID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AdminHandler) TransferOwnership(c *gin.Context) {
	var req dto.TransferOwnershipRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.memberships.TransferOwnership(c.Request.Context(), c.Param("tenantId"), req.UserID); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
