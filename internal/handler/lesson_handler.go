package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/service"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/response"
)

// LessonHandler manages lesson CRUD and structural move endpoints.
type LessonHandler struct {
	lessons *service.LessonService
	moves   *service.MoveService
}

// NewLessonHandler constructs handler.
func NewLessonHandler(lessons *service.LessonService, moves *service.MoveService) *LessonHandler {
	return &LessonHandler{lessons: lessons, moves: moves}
}

// Get godoc
// @Summary Get a lesson
// @Tags Lessons
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	lesson, err := h.lessons.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// Create godoc
// @Summary Create a lesson at the end of its parent's sibling set
// @Tags Lessons
// @Accept json
// @Produce json
// @Param payload body service.LessonInput true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /lessons [post]
func (h *LessonHandler) Create(c *gin.Context) {
	var input service.LessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload"))
		return
	}
	lesson, err := h.lessons.Create(c.Request.Context(), input.CourseID, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// Update godoc
// @Summary Update a lesson's content fields
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body service.LessonInput true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [put]
func (h *LessonHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var input service.LessonInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload"))
		return
	}
	lesson, err := h.lessons.Update(c.Request.Context(), input.CourseID, id, input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, lesson)
}

// Delete godoc
// @Summary Delete a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var hint service.LessonInput
	_ = c.ShouldBindJSON(&hint)
	if err := h.lessons.Delete(c.Request.Context(), hint.CourseID, id, hint); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Move godoc
// @Summary Move a lesson relative to a sibling
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body models.MoveRequest true "Move payload"
// @Success 200 {object} models.MoveResponse
// @Router /lessons/{id}/move-optimized [post]
func (h *LessonHandler) Move(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload"))
		return
	}
	resp, err := h.moves.MoveLesson(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Regroup godoc
// @Summary Reparent a lesson under a new topic or sub-topic
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body models.RegroupRequest true "Regroup payload"
// @Success 200 {object} models.MoveResponse
// @Router /lessons/{id}/regroup [post]
func (h *LessonHandler) Regroup(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.RegroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid regroup payload"))
		return
	}
	resp, err := h.moves.RegroupLesson(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Copy godoc
// @Summary Copy a lesson under a new parent
// @Tags Lessons
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param payload body models.CopyRequest true "Copy payload"
// @Success 200 {object} models.MoveResponse
// @Router /lessons/{id}/copy [post]
func (h *LessonHandler) Copy(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req models.CopyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid copy payload"))
		return
	}
	resp, err := h.moves.CopyLesson(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
