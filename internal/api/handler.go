package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dkaragoz/finbook/internal/logger"
	"github.com/dkaragoz/finbook/internal/models"
	"github.com/dkaragoz/finbook/internal/service"
)

// Handler holds the service and exposes the HTTP surface
type Handler struct {
	svc service.Service
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service) *Handler {
	return &Handler{svc: svc}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	auth := router.Group("/api/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	api := router.Group("/api")
	api.Use(AuthMiddleware())
	{
		api.GET("/accounts", h.ListAccounts)
		api.POST("/accounts", h.CreateAccount)
		api.GET("/accounts/deleted", h.ListDeletedAccounts)
		api.GET("/accounts/:id", h.GetAccount)
		api.PUT("/accounts/:id", h.UpdateAccount)
		api.DELETE("/accounts/:id", h.DeleteAccount)
		api.POST("/accounts/:id/restore", h.RestoreAccount)
		api.DELETE("/accounts/:id/permanent", h.HardDeleteAccount)
		api.GET("/accounts/:id/balance", h.AccountBalance)

		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.CreateCategory)
		api.GET("/categories/:id", h.GetCategory)
		api.PUT("/categories/:id", h.UpdateCategory)

		api.GET("/transactions", h.ListTransactions)
		api.POST("/transactions", h.CreateTransaction)
		api.GET("/transactions/:id", h.GetTransaction)
		api.PUT("/transactions/:id", h.UpdateTransaction)
		api.DELETE("/transactions/:id", h.DeleteTransaction)

		api.GET("/reports/balances", h.Balances)
		api.GET("/reports/cashflow", h.Cashflow)
		api.GET("/reports/categories", h.CategoryTotals)
		api.GET("/reports/monthly", h.MonthlySeries)
	}
}

func userID(c *gin.Context) string {
	return c.MustGet("userId").(string)
}

// respondError maps a service error kind onto an HTTP status with the
// standard error body. Internal detail never reaches the caller.
func respondError(c *gin.Context, err error) {
	e := service.AsError(err)

	status := http.StatusInternalServerError
	switch e.Kind {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindConflict:
		status = http.StatusConflict
	case service.KindInvalidInput:
		status = http.StatusBadRequest
	case service.KindUnauthorized:
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		log := logger.FromContext(c.Request.Context())
		log.Error().
			Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.JSON(status, models.ErrorResponse{
		Status:  "error",
		Code:    e.Code,
		Message: e.Message,
	})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Status:  "error",
		Code:    "INVALID_REQUEST",
		Message: message,
	})
}

// parsePeriod reads optional from/to query params, accepting RFC3339 or a
// plain date.
func parsePeriod(c *gin.Context) (from, to *time.Time, ok bool) {
	parse := func(raw string) (*time.Time, bool) {
		if raw == "" {
			return nil, true
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				t = t.UTC()
				return &t, true
			}
		}
		return nil, false
	}

	from, ok = parse(c.Query("from"))
	if !ok {
		badRequest(c, "invalid from date")
		return nil, nil, false
	}
	to, ok = parse(c.Query("to"))
	if !ok {
		badRequest(c, "invalid to date")
		return nil, nil, false
	}
	return from, to, true
}

// Auth handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Account handlers
func (h *Handler) CreateAccount(c *gin.Context) {
	var req models.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	account, err := h.svc.CreateAccount(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

func (h *Handler) GetAccount(c *gin.Context) {
	account, err := h.svc.GetAccount(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) ListAccounts(c *gin.Context) {
	accounts, err := h.svc.ListAccounts(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) ListDeletedAccounts(c *gin.Context) {
	accounts, err := h.svc.ListDeletedAccounts(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) UpdateAccount(c *gin.Context) {
	var req models.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	account, err := h.svc.UpdateAccount(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	result, err := h.svc.DeleteAccount(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) RestoreAccount(c *gin.Context) {
	result, err := h.svc.RestoreAccount(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) HardDeleteAccount(c *gin.Context) {
	result, err := h.svc.HardDeleteAccount(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) AccountBalance(c *gin.Context) {
	balance, err := h.svc.AccountBalance(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// Category handlers
func (h *Handler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	category, err := h.svc.CreateCategory(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) GetCategory(c *gin.Context) {
	category, err := h.svc.GetCategory(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.svc.ListCategories(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	category, err := h.svc.UpdateCategory(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

// Transaction handlers
func (h *Handler) CreateTransaction(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tx, err := h.svc.CreateTransaction(c.Request.Context(), userID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h *Handler) GetTransaction(c *gin.Context) {
	tx, err := h.svc.GetTransaction(c.Request.Context(), userID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) ListTransactions(c *gin.Context) {
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	q := models.ListTransactionsQuery{
		From:       from,
		To:         to,
		AccountID:  c.Query("accountId"),
		CategoryID: c.Query("categoryId"),
		Type:       c.Query("type"),
	}

	txs, err := h.svc.ListTransactions(c.Request.Context(), userID(c), q)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, txs)
}

func (h *Handler) UpdateTransaction(c *gin.Context) {
	var req models.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tx, err := h.svc.UpdateTransaction(c.Request.Context(), userID(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *Handler) DeleteTransaction(c *gin.Context) {
	if err := h.svc.DeleteTransaction(c.Request.Context(), userID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// Report handlers
func (h *Handler) Balances(c *gin.Context) {
	balances, err := h.svc.Balances(c.Request.Context(), userID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, balances)
}

func (h *Handler) Cashflow(c *gin.Context) {
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	flow, err := h.svc.Cashflow(c.Request.Context(), userID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

func (h *Handler) CategoryTotals(c *gin.Context) {
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	kind := models.CategoryKind(c.DefaultQuery("kind", string(models.KindExpense)))

	totals, err := h.svc.CategoryTotals(c.Request.Context(), userID(c), kind, from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, totals)
}

func (h *Handler) MonthlySeries(c *gin.Context) {
	from, to, ok := parsePeriod(c)
	if !ok {
		return
	}

	series, err := h.svc.MonthlySeries(c.Request.Context(), userID(c), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}
