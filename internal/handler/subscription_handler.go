package handler

import (
	"github.com/gin-gonic/gin"

	"invoscan/internal/service"
)

// SubscriptionHandler handles plan and quota endpoints.
type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// Quota handles GET /api/v1/subscription/quota
func (h *SubscriptionHandler) Quota(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	quota, err := h.subscriptionService.Quota(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, quota)
}

// Current handles GET /api/v1/subscription
func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Subscription(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, sub)
}
