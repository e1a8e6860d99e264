package handlers

import (
	"github.com/gin-gonic/gin"

	"saas_backend/internal/middleware"
	"saas_backend/internal/models"
	"saas_backend/internal/services"
	"saas_backend/pkg/apperrors"
)

// PartnerHandler - консоль партнера: подписки его тенантов
type PartnerHandler struct {
	subscriptionActions
}

func NewPartnerHandler(base *BaseHandler, subs services.SubscriptionLifecycle) *PartnerHandler {
	return &PartnerHandler{subscriptionActions{BaseHandler: base, subscriptions: subs}}
}

func (h *PartnerHandler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	partners := rg.Group("/partners/:partnerId")
	partners.Use(
		authMW,
		middleware.RequirePartner(),
		middleware.EnforcePartnerScope("partnerId"),
		middleware.RequirePartnerRole(models.PartnerRoleAdmin, models.PartnerRoleManager),
	)
	{
		partners.POST("/subscriptions", h.CreateSubscription)

		owned := partners.Group("/subscriptions/:id", h.requireOwnSubscription)
		owned.POST("/upgrade", h.upgrade)
		owned.POST("/downgrade", h.downgrade)
		owned.POST("/cancel", h.cancel)
		owned.POST("/reactivate", h.reactivate)
	}
}

func (h *PartnerHandler) CreateSubscription(c *gin.Context) {
	h.create(c, c.Param("partnerId"))
}

// requireOwnSubscription - подписка оформлена через этого партнера
func (h *PartnerHandler) requireOwnSubscription(c *gin.Context) {
	sub, err := h.subscriptions.GetSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	if sub.PartnerID == nil || *sub.PartnerID != c.Param("partnerId") {
		h.HandleServiceError(c, apperrors.ErrCrossPartnerAccess)
		return
	}
	c.Next()
}
