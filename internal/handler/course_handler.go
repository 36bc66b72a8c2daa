package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/planbook/planbook-api/internal/models"
	"github.com/planbook/planbook-api/internal/service"
	appErrors "github.com/planbook/planbook-api/pkg/errors"
	"github.com/planbook/planbook-api/pkg/response"
)

// CourseHandler manages course endpoints.
type CourseHandler struct {
	service *service.CourseService
}

// NewCourseHandler constructs handler.
func NewCourseHandler(svc *service.CourseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param filter query string false "active, archived or both" default(active)
// @Param visibility query string false "private or team"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		Filter:     c.DefaultQuery("filter", "active"),
		Visibility: models.Visibility(c.Query("visibility")),
	}

	courses, err := h.service.ListCourses(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, courses)
}

// Tree godoc
// @Summary Get the full lesson tree of a course
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/tree [get]
func (h *CourseHandler) Tree(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	tree, err := h.service.Tree(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tree)
}

// Reload godoc
// @Summary Reload a course tree from storage
// @Tags Courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/reload [post]
func (h *CourseHandler) Reload(c *gin.Context) {
	courseID, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}

	tree, err := h.service.LoadTree(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tree)
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}
