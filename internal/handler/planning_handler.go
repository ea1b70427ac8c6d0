package handler

import (
	"time"

	"finledger/internal/service"
	"finledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ============================================================
// Debts
// ============================================================

// POST /api/v1/debts
func (h *Handler) CreateDebt(c *gin.Context) {
	var req service.CreateDebtRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	debt, err := h.debtService.CreateDebt(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, debt)
}

// GET /api/v1/debts
func (h *Handler) ListDebts(c *gin.Context) {
	list, err := h.debtService.ListDebts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// GET /api/v1/debts/:id
func (h *Handler) GetDebt(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	debt, err := h.debtService.GetDebt(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, debt)
}

// DeleteDebt deactivates a debt that already has payments.
// DELETE /api/v1/debts/:id
func (h *Handler) DeleteDebt(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	soft, err := h.debtService.DeleteDebt(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id, "deactivated": soft})
}

type DebtPaymentBody struct {
	Amount      decimal.Decimal `json:"amount"`
	Date        time.Time       `json:"date"`
	PaymentType string          `json:"payment_type"`
}

// POST /api/v1/debts/:id/payments
func (h *Handler) PostDebtPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var body DebtPaymentBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	payment, err := h.debtService.PostPayment(c.Request.Context(), &service.DebtPaymentRequest{
		DebtID:      id,
		Amount:      body.Amount,
		Date:        body.Date,
		PaymentType: body.PaymentType,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, payment)
}

// GET /api/v1/debts/:id/payments
func (h *Handler) ListDebtPayments(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	list, err := h.debtService.ListPayments(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// DELETE /api/v1/debts/payments/:id
func (h *Handler) DeleteDebtPayment(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.debtService.DeletePayment(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// ============================================================
// Envelopes
// ============================================================

// POST /api/v1/envelopes
func (h *Handler) CreateEnvelope(c *gin.Context) {
	var req service.CreateEnvelopeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	envelope, err := h.envelopeService.CreateEnvelope(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, envelope)
}

// GET /api/v1/envelopes
func (h *Handler) ListEnvelopes(c *gin.Context) {
	list, err := h.envelopeService.ListEnvelopes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// GET /api/v1/envelopes/:id
func (h *Handler) GetEnvelope(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	envelope, err := h.envelopeService.GetEnvelope(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	entries, err := h.envelopeService.ListEntries(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"envelope": envelope, "entries": entries})
}

// POST /api/v1/envelopes/:id/allocations
func (h *Handler) Allocate(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.AllocateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	req.EnvelopeID = id
	entry, err := h.envelopeService.Allocate(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, entry)
}

// DELETE /api/v1/envelopes/allocations/:id
func (h *Handler) DeleteAllocation(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.envelopeService.DeleteEnvelopeTransaction(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// ============================================================
// Recurring templates
// ============================================================

// POST /api/v1/recurring
func (h *Handler) CreateTemplate(c *gin.Context) {
	var req service.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	template, err := h.recurringService.CreateTemplate(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, template)
}

// GET /api/v1/recurring
func (h *Handler) ListTemplates(c *gin.Context) {
	list, err := h.recurringService.ListTemplates(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// PUT /api/v1/recurring/:id
func (h *Handler) UpdateTemplate(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	template, err := h.recurringService.UpdateTemplate(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, template)
}

// DELETE /api/v1/recurring/:id
func (h *Handler) DeactivateTemplate(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.recurringService.DeactivateTemplate(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deactivated": id})
}

// Materialize creates the occurrence for ?date= (today when omitted).
// A null transaction means nothing was due or it already existed.
// POST /api/v1/recurring/:id/materialize
func (h *Handler) Materialize(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	asOf, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	day := time.Now().UTC()
	if asOf != nil {
		day = *asOf
	}
	trans, err := h.recurringService.Materialize(c.Request.Context(), id, day)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"transaction": trans})
}

// POST /api/v1/recurring/sweep
func (h *Handler) Sweep(c *gin.Context) {
	asOf, ok := dateQuery(c, "date")
	if !ok {
		return
	}
	day := time.Now().UTC()
	if asOf != nil {
		day = *asOf
	}
	created, err := h.recurringService.Sweep(c.Request.Context(), day)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"created": len(created), "transactions": created})
}
