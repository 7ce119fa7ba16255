package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KotaSaiGoutham/academy-api/internal/dto"
	"github.com/KotaSaiGoutham/academy-api/internal/service"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
	"github.com/KotaSaiGoutham/academy-api/pkg/response"
)

// SwapHandler exposes the availability exchange endpoints.
type SwapHandler struct {
	swaps *service.SwapService
}

// NewSwapHandler constructs the swap handler.
func NewSwapHandler(swaps *service.SwapService) *SwapHandler {
	return &SwapHandler{swaps: swaps}
}

// Swap godoc
// @Summary Exchange the weekly availability of two students
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body dto.SwapRequest true "Swap request"
// @Success 200 {object} response.Envelope
// @Router /students/swap [post]
func (h *SwapHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.swaps.Swap(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// History godoc
// @Summary List recent swaps, newest first
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/swap/history [get]
func (h *SwapHandler) History(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.swaps.History(), nil)
}
