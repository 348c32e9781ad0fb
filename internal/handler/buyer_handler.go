package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"invoscan/internal/service"
)

// BuyerHandler handles saved-buyer endpoints.
type BuyerHandler struct {
	buyerService *service.BuyerService
}

// NewBuyerHandler creates a new BuyerHandler.
func NewBuyerHandler(buyerService *service.BuyerService) *BuyerHandler {
	return &BuyerHandler{buyerService: buyerService}
}

// CreateBuyerInput is the DTO for saving a buyer GSTIN.
type CreateBuyerInput struct {
	GSTIN     string `json:"gstin" binding:"required"`
	BuyerName string `json:"buyer_name"`
	IsDefault bool   `json:"is_default"`
}

// Create handles POST /api/v1/buyers
func (h *BuyerHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var input CreateBuyerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		RespondError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		return
	}

	preset, err := h.buyerService.Create(c.Request.Context(), userID, input.GSTIN, input.BuyerName, input.IsDefault)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, preset)
}

// List handles GET /api/v1/buyers
func (h *BuyerHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	presets, err := h.buyerService.List(c.Request.Context(), userID)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, presets)
}

// Delete handles DELETE /api/v1/buyers/:id
func (h *BuyerHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.buyerService.Delete(c.Request.Context(), userID, id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"message": "buyer deleted"})
}
