package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"saas_backend/internal/services"
	"saas_backend/internal/services/dto"
)

// subscriptionActions - операции над подпиской, общие для админки и консоли
// партнера. partnerID пуст для админки.
type subscriptionActions struct {
	*BaseHandler
	subscriptions services.SubscriptionLifecycle
}

func (h *subscriptionActions) create(c *gin.Context, partnerID string) {
	var req dto.CreateSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptions.CreateSubscription(c.Request.Context(), services.CreateSubscriptionInput{
		TenantID:         req.TenantID,
		PlanID:           req.PlanID,
		PartnerID:        partnerID,
		BillingCycle:     req.BillingCycle,
		PaymentMethodRef: req.PaymentMethodRef,
	})
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

func (h *subscriptionActions) upgrade(c *gin.Context) {
	var req dto.ChangePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.subscriptions.UpgradePlan(c.Request.Context(), c.Param("id"), req.PlanID, req.Immediate)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *subscriptionActions) downgrade(c *gin.Context) {
	var req dto.ChangePlanRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	res, err := h.subscriptions.DowngradePlan(c.Request.Context(), c.Param("id"), req.PlanID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *subscriptionActions) cancel(c *gin.Context) {
	var req dto.CancelSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptions.CancelSubscription(c.Request.Context(), c.Param("id"), req.Reason, req.Immediate)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *subscriptionActions) reactivate(c *gin.Context) {
	sub, err := h.subscriptions.ReactivateSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}

func (h *subscriptionActions) suspend(c *gin.Context) {
	var req dto.SuspendSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptions.SuspendSubscription(c.Request.Context(), c.Param("id"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
