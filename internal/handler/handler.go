package handler

import (
	"errors"
	"strconv"
	"time"

	"finledger/internal/config"
	"finledger/internal/infrastructure/lock"
	"finledger/internal/logger"
	"finledger/internal/repository"
	"finledger/internal/service"
	"finledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// Handler holds every service behind the HTTP API.
type Handler struct {
	accountService   *service.AccountService
	ledgerService    *service.LedgerService
	transferService  *service.TransferService
	debtService      *service.DebtService
	envelopeService  *service.EnvelopeService
	recurringService *service.RecurringService
	reconcileService *service.ReconcileService
	currencyService  *service.CurrencyService
	categoryService  *service.CategoryService
	log              zerolog.Logger
}

func NewHandler(db *gorm.DB, locker lock.Locker, cfg *config.Config, log zerolog.Logger) *Handler {
	return &Handler{
		accountService:   service.NewAccountService(db, locker, cfg, log),
		ledgerService:    service.NewLedgerService(db, locker, cfg, log),
		transferService:  service.NewTransferService(db, locker, cfg, log),
		debtService:      service.NewDebtService(db, locker, cfg, log),
		envelopeService:  service.NewEnvelopeService(db, locker, cfg, log),
		recurringService: service.NewRecurringService(db, locker, cfg, log),
		reconcileService: service.NewReconcileService(db, locker, cfg, log),
		currencyService:  service.NewCurrencyService(db),
		categoryService:  service.NewCategoryService(db),
		log:              log.With().Str("component", "http").Logger(),
	}
}

// fail writes err with the business code matching its sentinel.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		response.BusinessError(c, response.CodeAccountNotFound, err.Error())
	case errors.Is(err, service.ErrTransactionNotFound):
		response.BusinessError(c, response.CodeTransactionNotFound, err.Error())
	case errors.Is(err, service.ErrDebtNotFound):
		response.BusinessError(c, response.CodeDebtNotFound, err.Error())
	case errors.Is(err, service.ErrTypeNotFound), errors.Is(err, service.ErrSubtypeNotFound):
		response.BusinessError(c, response.CodeTypeNotFound, err.Error())
	case errors.Is(err, service.ErrTransferNotFound),
		errors.Is(err, service.ErrPaymentNotFound),
		errors.Is(err, service.ErrEnvelopeNotFound),
		errors.Is(err, service.ErrEntryNotFound),
		errors.Is(err, service.ErrTemplateNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrInvalidTransfer):
		response.BusinessError(c, response.CodeInvalidTransfer, err.Error())
	case errors.Is(err, service.ErrInvalidAmount):
		response.BusinessError(c, response.CodeInvalidAmount, err.Error())
	case errors.Is(err, service.ErrUnknownCurrency):
		response.BusinessError(c, response.CodeUnknownCurrency, err.Error())
	case errors.Is(err, service.ErrNoLinkedAccount):
		response.BusinessError(c, response.CodeNoLinkedAccount, err.Error())
	case errors.Is(err, service.ErrOverpayment):
		response.BusinessError(c, response.CodeOverpayment, err.Error())
	case errors.Is(err, service.ErrDebtInactive):
		response.BusinessError(c, response.CodeDebtInactive, err.Error())
	case errors.Is(err, service.ErrImmutable):
		response.BusinessError(c, response.CodeImmutable, err.Error())
	case errors.Is(err, service.ErrInvalidRequest):
		response.ParamError(c, err.Error())
	case errors.Is(err, service.ErrConcurrentModified):
		response.Error(c, response.CodeConflict, err.Error())
	default:
		log := logger.FromContext(c.Request.Context(), h.log)
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		response.ServerError(c, "internal error")
	}
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.ParamError(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// dateQuery parses an optional yyyy-mm-dd query value.
func dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		response.ParamError(c, name+" must be yyyy-mm-dd")
		return nil, false
	}
	return &t, true
}

// ============================================================
// Accounts
// ============================================================

// CreateAccount
// POST /api/v1/accounts
func (h *Handler) CreateAccount(c *gin.Context) {
	var req service.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	account, err := h.accountService.CreateAccount(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

// GET /api/v1/accounts/:id
func (h *Handler) GetAccount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	account, err := h.accountService.GetAccount(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, account)
}

// GET /api/v1/accounts
func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.accountService.ListAccounts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, accounts)
}

// NetWorth sums every account in ?currency= (EUR when omitted).
// GET /api/v1/accounts/net-worth
func (h *Handler) NetWorth(c *gin.Context) {
	worth, err := h.accountService.NetWorth(c.Request.Context(), c.DefaultQuery("currency", "EUR"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, worth)
}

// ============================================================
// Transactions
// ============================================================

// POST /api/v1/transactions
func (h *Handler) PostTransaction(c *gin.Context) {
	var req service.PostTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	trans, err := h.ledgerService.PostTransaction(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, trans)
}

// ListTransactions supports account_id, from, to, pending, page and page_size.
// GET /api/v1/transactions
func (h *Handler) ListTransactions(c *gin.Context) {
	var filter repository.TransactionFilter
	if raw := c.Query("account_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.ParamError(c, "account_id must be an integer")
			return
		}
		filter.AccountID = id
	}
	var ok bool
	if filter.From, ok = dateQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = dateQuery(c, "to"); !ok {
		return
	}
	if raw := c.Query("pending"); raw != "" {
		pending, err := strconv.ParseBool(raw)
		if err != nil {
			response.ParamError(c, "pending must be a boolean")
			return
		}
		filter.Pending = &pending
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	list, total, err := h.ledgerService.ListTransactions(c.Request.Context(), filter, page, pageSize)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
		"transactions": list,
	})
}

// GET /api/v1/transactions/:id
func (h *Handler) GetTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	trans, err := h.ledgerService.GetTransaction(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, trans)
}

// PUT /api/v1/transactions/:id
func (h *Handler) UpdateTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req service.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	trans, err := h.ledgerService.UpdateTransaction(c.Request.Context(), id, &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, trans)
}

// POST /api/v1/transactions/:id/confirm
func (h *Handler) ConfirmTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	trans, err := h.ledgerService.ConfirmTransaction(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, trans)
}

// DeleteTransaction also removes the owning transfer or debt payment.
// DELETE /api/v1/transactions/:id
func (h *Handler) DeleteTransaction(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.ledgerService.DeleteTransaction(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// ============================================================
// Transfers
// ============================================================

// POST /api/v1/transfers
func (h *Handler) PostTransfer(c *gin.Context) {
	var req service.PostTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	transfer, err := h.transferService.PostTransfer(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, transfer)
}

// GET /api/v1/transfers/:id
func (h *Handler) GetTransfer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	transfer, err := h.transferService.GetTransfer(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, transfer)
}

// DELETE /api/v1/transfers/:id
func (h *Handler) DeleteTransfer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.transferService.DeleteTransfer(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": id})
}

// ============================================================
// Currencies and types
// ============================================================

// PUT /api/v1/currencies
func (h *Handler) UpsertCurrency(c *gin.Context) {
	var req service.UpsertCurrencyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	currency, err := h.currencyService.UpsertCurrency(c.Request.Context(), &req)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, currency)
}

// GET /api/v1/currencies
func (h *Handler) ListCurrencies(c *gin.Context) {
	list, err := h.currencyService.ListCurrencies(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// Convert
// GET /api/v1/currencies/convert?amount=10&from=EUR&to=USD
func (h *Handler) Convert(c *gin.Context) {
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		response.ParamError(c, "amount must be a decimal")
		return
	}
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		response.ParamError(c, "from and to are required")
		return
	}
	converted, err := h.currencyService.Convert(c.Request.Context(), amount, from, to)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, gin.H{
		"amount":    amount,
		"from":      from,
		"to":        to,
		"converted": converted,
	})
}

type CreateTypeRequest struct {
	Name     string `json:"name" binding:"required"`
	Category string `json:"category" binding:"required"`
}

// POST /api/v1/types
func (h *Handler) CreateType(c *gin.Context) {
	var req CreateTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	typ, err := h.categoryService.CreateType(c.Request.Context(), req.Name, req.Category)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, typ)
}

type CreateSubtypeRequest struct {
	Name string `json:"name" binding:"required"`
}

// POST /api/v1/types/:id/subtypes
func (h *Handler) CreateSubtype(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req CreateSubtypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, "invalid body: "+err.Error())
		return
	}
	sub, err := h.categoryService.CreateSubtype(c.Request.Context(), id, req.Name)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, sub)
}

// GET /api/v1/types
func (h *Handler) ListTypes(c *gin.Context) {
	list, err := h.categoryService.ListTypes(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, list)
}

// ============================================================
// Admin
// ============================================================

// Recalculate rebuilds every cached balance; ?dry_run=true only reports.
// POST /api/v1/admin/recalculate
func (h *Handler) Recalculate(c *gin.Context) {
	dryRun, _ := strconv.ParseBool(c.DefaultQuery("dry_run", "false"))
	report, err := h.reconcileService.Recalculate(c.Request.Context(), service.ReconcileOptions{DryRun: dryRun})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, report)
}
