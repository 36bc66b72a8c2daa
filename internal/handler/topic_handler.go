package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/service"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/response"
)

// TopicHandler manages topic and sub-topic move endpoints.
type TopicHandler struct {
	moves *service.MoveService
}

// NewTopicHandler constructs handler.
func NewTopicHandler(moves *service.MoveService) *TopicHandler {
	return &TopicHandler{moves: moves}
}

// MoveTopic godoc
// @Summary Reorder a topic among the course's topics
// @Tags Topics
// @Accept json
// @Produce json
// @Param id path int true "Topic ID"
// @Param payload body models.MoveRequest true "Move payload"
// @Success 200 {object} models.MoveResponse
// @Router /topics/{id}/move [post]
func (h *TopicHandler) MoveTopic(c *gin.Context) {
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
	resp, err := h.moves.MoveTopic(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MoveSubTopic godoc
// @Summary Reorder a sub-topic within a topic's merged child set
// @Tags Topics
// @Accept json
// @Produce json
// @Param id path int true "Sub-topic ID"
// @Param payload body models.MoveRequest true "Move payload"
// @Success 200 {object} models.MoveResponse
// @Router /subtopics/{id}/move [post]
func (h *TopicHandler) MoveSubTopic(c *gin.Context) {
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
	resp, err := h.moves.MoveSubTopic(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RegroupSubTopic godoc
// @Summary Reparent a sub-topic under a new topic
// @Tags Topics
// @Accept json
// @Produce json
// @Param id path int true "Sub-topic ID"
// @Param payload body models.RegroupRequest true "Regroup payload"
// @Success 200 {object} models.MoveResponse
// @Router /subtopics/{id}/regroup [post]
func (h *TopicHandler) RegroupSubTopic(c *gin.Context) {
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
	resp, err := h.moves.RegroupSubTopic(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CopySubTopic godoc
// @Summary Copy a sub-topic and its lessons under a new topic
// @Tags Topics
// @Accept json
// @Produce json
// @Param id path int true "Sub-topic ID"
// @Param payload body models.CopyRequest true "Copy payload"
// @Success 200 {object} models.MoveResponse
// @Router /subtopics/{id}/copy [post]
func (h *TopicHandler) CopySubTopic(c *gin.Context) {
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
	resp, err := h.moves.CopySubTopic(c.Request.Context(), req.CourseID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
