package handler

import (
	academyapp "github.com/coachdesk/backend/internal/application/academy"
	"github.com/gin-gonic/gin"
)

// CourseHandler handles course configuration API endpoints. Courses are
// keyed by stage and level; obligations snapshot the fee at creation, so a
// fee change only affects months generated afterwards.
type CourseHandler struct {
	BaseHandler
	courseService *academyapp.CourseService
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courseService *academyapp.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// Create registers a course configuration for a stage/level pair
func (h *CourseHandler) Create(c *gin.Context) {
	var req academyapp.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	course, err := h.courseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, course)
}

// Get returns the course configuration for a stage/level pair
func (h *CourseHandler) Get(c *gin.Context) {
	stage := c.Param("stage")
	level := c.Param("level")

	course, err := h.courseService.Get(c.Request.Context(), stage, level)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, course)
}

// List returns course configurations with pagination
func (h *CourseHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.courseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update patches the course configuration for a stage/level pair
func (h *CourseHandler) Update(c *gin.Context) {
	stage := c.Param("stage")
	level := c.Param("level")

	var req academyapp.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	existing, err := h.courseService.Get(c.Request.Context(), stage, level)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	course, err := h.courseService.Update(c.Request.Context(), existing.ID, stage, level, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, course)
}

// RegisterRoutes registers course routes
func (h *CourseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	courses := rg.Group("/courses")
	{
		courses.POST("", h.Create)
		courses.GET("", h.List)
		courses.GET("/:stage/:level", h.Get)
		courses.PATCH("/:stage/:level", h.Update)
	}
}
