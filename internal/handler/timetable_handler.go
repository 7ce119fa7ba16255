package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KotaSaiGoutham/academy-api/internal/dto"
	"github.com/KotaSaiGoutham/academy-api/internal/middleware"
	"github.com/KotaSaiGoutham/academy-api/internal/service"
	appErrors "github.com/KotaSaiGoutham/academy-api/pkg/errors"
	"github.com/KotaSaiGoutham/academy-api/pkg/response"
)

// TimetableHandler exposes schedule generation and viewing endpoints.
type TimetableHandler struct {
	timetables *service.TimetableService
}

// NewTimetableHandler constructs the timetable handler.
func NewTimetableHandler(timetables *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{timetables: timetables}
}

// Generate godoc
// @Summary Generate the day's timetable from weekly availability
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation request"
// @Success 200 {object} response.Envelope
// @Router /timetables/generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	resp, err := h.timetables.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// ListByDate godoc
// @Summary List the ordered schedule for one date
// @Tags Timetables
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *TimetableHandler) ListByDate(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	start := time.Now()
	resp, cacheHit, err := h.timetables.ListByDate(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = make(map[string]interface{})
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, resp, nil, meta)
}

// WeekGrid godoc
// @Summary Render the weekly grid for the week containing the given date
// @Tags Timetables
// @Produce json
// @Param date query string true "Any date inside the week (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetables/week [get]
func (h *TimetableHandler) WeekGrid(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	resp, err := h.timetables.WeekGrid(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// UpdateTopic godoc
// @Summary Set the lesson topic on a generated entry
// @Tags Timetables
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body dto.UpdateTopicRequest true "Topic"
// @Success 200 {object} response.Envelope
// @Router /timetables/{id}/topic [patch]
func (h *TimetableHandler) UpdateTopic(c *gin.Context) {
	var req dto.UpdateTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	entry, err := h.timetables.UpdateTopic(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Summary godoc
// @Summary Aggregate one day's schedule into hour and fee totals
// @Tags Timetables
// @Produce json
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /timetables/summary [get]
func (h *TimetableHandler) Summary(c *gin.Context) {
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	resp, err := h.timetables.Summarize(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
