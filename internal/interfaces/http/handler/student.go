package handler

import (
	academyapp "github.com/coachdesk/backend/internal/application/academy"
	feesapp "github.com/coachdesk/backend/internal/application/fees"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StudentHandler handles student directory API endpoints. Batch assignment
// and removal route through the fee engine's transfer service so fee history
// and credit follow the student.
type StudentHandler struct {
	BaseHandler
	studentService  *academyapp.StudentService
	transferService *feesapp.TransferService
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(studentService *academyapp.StudentService, transferService *feesapp.TransferService) *StudentHandler {
	return &StudentHandler{
		studentService:  studentService,
		transferService: transferService,
	}
}

// AssignBatchRequest represents a request to move a student into a batch
type AssignBatchRequest struct {
	BatchID uuid.UUID `json:"batch_id" binding:"required"`
}

// Create enrolls a new student. When a batch is supplied the assignment runs
// through the transfer service so the first obligations are generated and
// any prepaid credit is applied.
func (h *StudentHandler) Create(c *gin.Context) {
	var req academyapp.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	student, err := h.studentService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if req.BatchID != nil {
		if _, err := h.transferService.OnBatchAssigned(c.Request.Context(), student.ID, *req.BatchID, getActorID(c)); err != nil {
			h.HandleError(c, err)
			return
		}
		student, err = h.studentService.Get(c.Request.Context(), student.ID)
		if err != nil {
			h.HandleError(c, err)
			return
		}
	}

	h.Created(c, student)
}

// Get returns one student
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	student, err := h.studentService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, student)
}

// List returns students with pagination. active_only=true restricts the
// listing to active students.
func (h *StudentHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	activeOnly := c.Query("active_only") == "true"

	page, err := h.studentService.List(c.Request.Context(), filter, activeOnly)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update patches the mutable student fields
func (h *StudentHandler) Update(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	var req academyapp.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	student, err := h.studentService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, student)
}

// Deactivate marks a student inactive without touching fee history
func (h *StudentHandler) Deactivate(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	if err := h.studentService.Deactivate(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// Delete removes a student and cascades to obligations and ledger entries
func (h *StudentHandler) Delete(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	result, err := h.studentService.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// AssignBatch moves a student into a batch, generating obligations from the
// batch start and applying any prepaid credit
func (h *StudentHandler) AssignBatch(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	var req AssignBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.transferService.OnBatchAssigned(c.Request.Context(), id, req.BatchID, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// RemoveBatch detaches a student from their batch, keeping all fee history
func (h *StudentHandler) RemoveBatch(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	if err := h.transferService.OnBatchRemoved(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// RegisterRoutes registers student routes
func (h *StudentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	students := rg.Group("/students")
	{
		students.POST("", h.Create)
		students.GET("", h.List)
		students.GET("/:id", h.Get)
		students.PATCH("/:id", h.Update)
		students.POST("/:id/deactivate", h.Deactivate)
		students.DELETE("/:id", h.Delete)
		students.POST("/:id/batch", h.AssignBatch)
		students.DELETE("/:id/batch", h.RemoveBatch)
	}
}
