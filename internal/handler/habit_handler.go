package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"habittracker/backend/internal/middleware"
	"habittracker/backend/internal/service"
)

type HabitHandler struct {
	habitService *service.HabitService
}

type habitRequest struct {
	Action          *string    `json:"action"`
	Place           *string    `json:"place"`
	Time            *time.Time `json:"time"`
	DurationSeconds *int       `json:"durationSeconds"`
	Periodicity     *int       `json:"periodicity"`
	IsPleasant      *bool      `json:"isPleasant"`
	RelatedHabitID  *int64     `json:"relatedHabitId"`
	Reward          *string    `json:"reward"`
	IsPublished     *bool      `json:"isPublished"`
}

func (r habitRequest) input() service.HabitInput {
	return service.HabitInput{
		Action:          r.Action,
		Place:           r.Place,
		Time:            r.Time,
		DurationSeconds: r.DurationSeconds,
		Periodicity:     r.Periodicity,
		IsPleasant:      r.IsPleasant,
		RelatedHabitID:  r.RelatedHabitID,
		Reward:          r.Reward,
		IsPublished:     r.IsPublished,
	}
}

func NewHabitHandler(habitService *service.HabitService) *HabitHandler {
	return &HabitHandler{habitService: habitService}
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	userID := middleware.UserID(c)
	habit, apiErr := h.habitService.Create(c.Request.Context(), userID, req.input())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) ListOwn(c *gin.Context) {
	userID := middleware.UserID(c)
	page, apiErr := h.habitService.ListOwn(c.Request.Context(), userID, pageFromQuery(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HabitHandler) ListPublished(c *gin.Context) {
	page, apiErr := h.habitService.ListPublished(c.Request.Context(), pageFromQuery(c))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *HabitHandler) Get(c *gin.Context) {
	id, ok := habitID(c)
	if !ok {
		return
	}

	habit, apiErr := h.habitService.Get(c.Request.Context(), middleware.UserID(c), id)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Update(c *gin.Context) {
	id, ok := habitID(c)
	if !ok {
		return
	}
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	habit, apiErr := h.habitService.Update(c.Request.Context(), middleware.UserID(c), id, req.input())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Patch(c *gin.Context) {
	id, ok := habitID(c)
	if !ok {
		return
	}
	var req habitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	habit, apiErr := h.habitService.Patch(c.Request.Context(), middleware.UserID(c), id, req.input())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	id, ok := habitID(c)
	if !ok {
		return
	}

	if apiErr := h.habitService.Delete(c.Request.Context(), middleware.UserID(c), id); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func habitID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_id", "message": "habit id must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}
