package handler

import (
	"time"

	feesapp "github.com/coachdesk/backend/internal/application/fees"
	"github.com/coachdesk/backend/internal/domain/fees"
	"github.com/gin-gonic/gin"
)

// FeesHandler handles fee obligation, payment and credit API endpoints
type FeesHandler struct {
	BaseHandler
	generationService *feesapp.GenerationService
	paymentService    *feesapp.PaymentService
	creditService     *feesapp.CreditService
}

// NewFeesHandler creates a new FeesHandler
func NewFeesHandler(
	generationService *feesapp.GenerationService,
	paymentService *feesapp.PaymentService,
	creditService *feesapp.CreditService,
) *FeesHandler {
	return &FeesHandler{
		generationService: generationService,
		paymentService:    paymentService,
		creditService:     creditService,
	}
}

// RecordPaymentRequest represents a payment update on one obligation.
// Omitted fields are left unchanged; clear_payment_date removes the payment.
type RecordPaymentRequest struct {
	PaidAmount       *float64   `json:"paid_amount" binding:"omitempty,gte=0"`
	PaymentDate      *time.Time `json:"payment_date"`
	ClearPaymentDate bool       `json:"clear_payment_date"`
	PaymentMethod    *string    `json:"payment_method" binding:"omitempty,max=50"`
	TransactionRef   *string    `json:"transaction_ref" binding:"omitempty,max=100"`
	Remarks          *string    `json:"remarks" binding:"omitempty,max=500"`
}

// BulkPeriodRequest is one period covered by a bulk payment. A missing
// amount means the full monthly fee.
type BulkPeriodRequest struct {
	Period  string     `json:"period" binding:"required,period"`
	DueDate *time.Time `json:"due_date"`
	Amount  *float64   `json:"amount" binding:"omitempty,gt=0"`
}

// BulkPaymentRequest represents a multi-month payment
type BulkPaymentRequest struct {
	Periods        []BulkPeriodRequest `json:"periods" binding:"required,min=1,dive"`
	PaymentDate    time.Time           `json:"payment_date" binding:"required"`
	PaymentMethod  string              `json:"payment_method" binding:"max=50"`
	TransactionRef *string             `json:"transaction_ref" binding:"omitempty,max=100"`
	Remarks        string              `json:"remarks" binding:"max=500"`
}

// AddCreditRequest represents a prepaid credit deposit
type AddCreditRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Remark string  `json:"remark" binding:"max=500"`
}

// GenerateObligations fills every missing month from the student's fee-cycle
// anchor through the current month
func (h *FeesHandler) GenerateObligations(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	created, err := h.generationService.GenerateMissingObligations(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, created)
}

// GenerateNextObligation extends the student's schedule by one month
func (h *FeesHandler) GenerateNextObligation(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	next, err := h.generationService.GenerateNextObligation(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if next == nil {
		// Schedule is already complete for the course duration.
		h.NoContent(c)
		return
	}

	h.Created(c, next)
}

// RecordPayment updates the payment fields of one obligation
func (h *FeesHandler) RecordPayment(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid obligation ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	patch := feesapp.PaymentPatch{
		PaymentDate:      req.PaymentDate,
		ClearPaymentDate: req.ClearPaymentDate,
		PaymentMethod:    req.PaymentMethod,
		TransactionRef:   req.TransactionRef,
		Remarks:          req.Remarks,
		RecordedBy:       getActorID(c),
	}
	if req.PaidAmount != nil {
		patch.PaidAmount = toDecimalPtr(*req.PaidAmount)
	}

	obligation, err := h.paymentService.RecordPayment(c.Request.Context(), id, patch)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, obligation)
}

// RecordBulkPayment records a payment spanning multiple months. With a
// transaction reference the months must be consecutive; without a batch the
// amount is routed to the credit ledger.
func (h *FeesHandler) RecordBulkPayment(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	var req BulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	input := feesapp.BulkPaymentInput{
		PaymentDate:    req.PaymentDate,
		PaymentMethod:  req.PaymentMethod,
		TransactionRef: req.TransactionRef,
		Remarks:        req.Remarks,
		RecordedBy:     getActorID(c),
	}
	for _, p := range req.Periods {
		period, err := fees.ParsePeriod(p.Period)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		pp := feesapp.PeriodPayment{Period: period}
		if p.DueDate != nil {
			pp.DueDate = *p.DueDate
		}
		if p.Amount != nil {
			pp.Amount = toDecimal(*p.Amount)
		}
		input.Periods = append(input.Periods, pp)
	}

	result, err := h.paymentService.RecordBulkPayment(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetPayableObligations returns everything overdue plus the next upcoming
// obligation for the fee-collection screen
func (h *FeesHandler) GetPayableObligations(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	payable, err := h.paymentService.GetPayableObligations(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, payable)
}

// AddCredit deposits prepaid money into the student's credit ledger
func (h *FeesHandler) AddCredit(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	var req AddCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entry, err := h.creditService.AddCredit(c.Request.Context(), id, toDecimal(req.Amount), feesapp.CreditInfo{
		Remark:      req.Remark,
		ProcessedBy: getActorID(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, entry)
}

// ApplyCredits applies the student's prepaid balance to outstanding
// obligations, oldest due date first
func (h *FeesHandler) ApplyCredits(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	application, err := h.creditService.ApplyCreditsToFeeRecords(c.Request.Context(), id, getActorID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, application)
}

// CreditHistory returns the student's ledger entries, most recent first,
// together with the current balance
func (h *FeesHandler) CreditHistory(c *gin.Context) {
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		h.BadRequest(c, "Invalid student ID")
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	entries, total, err := h.creditService.History(c.Request.Context(), id, fees.LedgerFilter{Filter: filter})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	balance, err := h.creditService.Balance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, gin.H{
		"balance": balance,
		"entries": entries,
	}, total, filter.Page, filter.PageSize)
}

// RegisterRoutes registers fee engine routes
func (h *FeesHandler) RegisterRoutes(rg *gin.RouterGroup) {
	students := rg.Group("/students")
	{
		students.POST("/:id/obligations/generate", h.GenerateObligations)
		students.POST("/:id/obligations/next", h.GenerateNextObligation)
		students.GET("/:id/obligations/payable", h.GetPayableObligations)
		students.POST("/:id/payments/bulk", h.RecordBulkPayment)
		students.POST("/:id/credits", h.AddCredit)
		students.POST("/:id/credits/apply", h.ApplyCredits)
		students.GET("/:id/credits", h.CreditHistory)
	}

	obligations := rg.Group("/obligations")
	{
		obligations.PATCH("/:id/payment", h.RecordPayment)
	}
}
