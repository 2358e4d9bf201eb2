package handler

import (
	"errors"
	"io"

	feesapp "github.com/coachdesk/backend/internal/application/fees"
	"github.com/gin-gonic/gin"
)

// ReconcileHandler exposes the bulk reconciliation sweep as an admin endpoint
type ReconcileHandler struct {
	BaseHandler
	reconcileService *feesapp.ReconcileService
}

// NewReconcileHandler creates a new ReconcileHandler
func NewReconcileHandler(reconcileService *feesapp.ReconcileService) *ReconcileHandler {
	return &ReconcileHandler{reconcileService: reconcileService}
}

// ReconcileRequest represents a reconciliation sweep trigger
type ReconcileRequest struct {
	DryRun     bool `json:"dry_run"`
	ActiveOnly bool `json:"active_only"`
}

// Reconcile runs the full reconciliation sweep over the student population.
// A dry run reports what would change without committing anything.
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	// An empty body means a live sweep over all students.
	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		h.BadRequest(c, err.Error())
		return
	}

	report, err := h.reconcileService.ReconcileAll(c.Request.Context(), feesapp.ReconcileOptions{
		DryRun:     req.DryRun,
		ActiveOnly: req.ActiveOnly,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, report)
}

// RegisterRoutes registers reconciliation routes
func (h *ReconcileHandler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("/admin")
	{
		admin.POST("/reconcile", h.Reconcile)
	}
}
