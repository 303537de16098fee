package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	types "github.com/Jrogbaaa/Project-X-sub001/internal/domain/influencer"
	"github.com/Jrogbaaa/Project-X-sub001/internal/http/response"
	"github.com/Jrogbaaa/Project-X-sub001/internal/services"
)

type WeightHandler struct {
	weights services.WeightService
}

func NewWeightHandler(weights services.WeightService) *WeightHandler {
	return &WeightHandler{weights: weights}
}

type savePresetRequest struct {
	Name        string               `json:"name" binding:"required"`
	Description string               `json:"description"`
	Default     bool                 `json:"default"`
	Weights     types.RankingWeights `json:"weights"`
}

// GET /api/weights
func (h *WeightHandler) List(c *gin.Context) {
	presets, err := h.weights.List(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "list_presets_failed"), "list_presets_failed")
		return
	}
	response.RespondOK(c, gin.H{"presets": presets})
}

// POST /api/weights
func (h *WeightHandler) Save(c *gin.Context) {
	var req savePresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	saved, err := h.weights.Save(c.Request.Context(), &types.WeightPreset{
		Name:        req.Name,
		Description: req.Description,
		Weights:     req.Weights,
		IsDefault:   req.Default,
	})
	if err != nil {
		response.RespondAPIError(c, toAPIError(err, "save_preset_failed"), "save_preset_failed")
		return
	}
	response.RespondOK(c, gin.H{"preset": saved})
}

// DELETE /api/weights/:name
func (h *WeightHandler) Delete(c *gin.Context) {
	if err := h.weights.Delete(c.Request.Context(), c.Param("name")); err != nil {
		response.RespondAPIError(c, toAPIError(err, "delete_preset_failed"), "delete_preset_failed")
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}
