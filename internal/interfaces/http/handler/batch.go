package handler

import (
	academyapp "github.com/coachdesk/backend/internal/application/academy"
	"github.com/gin-gonic/gin"
)

// BatchHandler handles batch API endpoints
type BatchHandler struct {
	BaseHandler
	batchService *academyapp.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batchService *academyapp.BatchService) *BatchHandler {
	return &BatchHandler{batchService: batchService}
}

// Create opens a new batch
func (h *BatchHandler) Create(c *gin.Context) {
	var req academyapp.CreateBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	batch, err := h.batchService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, batch)
}

// Get returns one batch with its current enrollment count
func (h *BatchHandler) Get(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, err := h.batchService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// List returns batches with pagination
func (h *BatchHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.batchService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Close closes a batch to new assignments. Students already in the batch
// keep their assignment.
func (h *BatchHandler) Close(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid batch ID")
		return
	}

	batch, err := h.batchService.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, batch)
}

// RegisterRoutes registers batch routes
func (h *BatchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	batches := rg.Group("/batches")
	{
		batches.POST("", h.Create)
		batches.GET("", h.List)
		batches.GET("/:id", h.Get)
		batches.POST("/:id/close", h.Close)
	}
}
