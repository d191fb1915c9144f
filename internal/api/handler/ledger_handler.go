package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/herfa/marketplace-api/internal/core/domain"
	"github.com/herfa/marketplace-api/internal/core/ports"
)

const dateLayout = "2006-01-02"

// LedgerHandler serves transactions, company finances and revenue settings.
type LedgerHandler struct {
	ledger   ports.LedgerService
	settings ports.SettingsService
}

func NewLedgerHandler(ledger ports.LedgerService, settings ports.SettingsService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger, settings: settings}
}

// ListTransactions handles GET /v1/admin/transactions.
//
// @Summary      List transactions
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        type     query     string  false  "Transaction type"
// @Param        status   query     string  false  "pending, completed, failed or refunded"
// @Param        user_id  query     string  false  "Payer"
// @Param        from     query     string  false  "Created on or after (YYYY-MM-DD)"
// @Param        to       query     string  false  "Created before (YYYY-MM-DD)"
// @Param        page     query     int     false  "Page (1-based)"
// @Param        limit    query     int     false  "Page size (max 100)"
// @Success      200      {object}  pageResponse[domain.Transaction]
// @Failure      400      {object}  errorResponse
// @Router       /v1/admin/transactions [get]
func (h *LedgerHandler) ListTransactions(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	p, err := pagination(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	page, err := h.ledger.List(c.Request().Context(), actor, ports.TransactionFilter{
		Type:   domain.TransactionType(c.QueryParam("type")),
		Status: domain.TransactionStatus(c.QueryParam("status")),
		UserID: c.QueryParam("user_id"),
		From:   from,
		To:     to,
	}, p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPageResponse(page))
}

// GetTransaction handles GET /v1/admin/transactions/:id.
//
// @Summary      Get a transaction
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  domain.Transaction
// @Failure      404  {object}  errorResponse
// @Router       /v1/admin/transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	tx, err := h.ledger.Get(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tx)
}

// RecordTransaction handles POST /v1/admin/transactions.
//
// @Summary      Record a pending transaction
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      transactionRequest  true  "Transaction"
// @Success      201   {object}  domain.Transaction
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/transactions [post]
func (h *LedgerHandler) RecordTransaction(c echo.Context) error {
	var req transactionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	tx, err := h.ledger.Record(c.Request().Context(), toTransactionInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tx)
}

// CompleteTransaction handles POST /v1/admin/transactions/:id/complete.
//
// @Summary      Mark a transaction completed
// @Description  Books the platform share into the finance counters.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  domain.Transaction
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/transactions/{id}/complete [post]
func (h *LedgerHandler) CompleteTransaction(c echo.Context) error {
	tx, err := h.ledger.Complete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tx)
}

// RefundTransaction handles POST /v1/admin/transactions/:id/refund.
//
// @Summary      Refund a completed transaction
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Transaction ID"
// @Success      200  {object}  domain.Transaction
// @Failure      404  {object}  errorResponse
// @Failure      422  {object}  errorResponse
// @Router       /v1/admin/transactions/{id}/refund [post]
func (h *LedgerHandler) RefundTransaction(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	tx, err := h.ledger.Refund(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tx)
}

// CurrentFinances handles GET /v1/admin/finances/current.
//
// @Summary      This month's finances
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CompanyFinances
// @Router       /v1/admin/finances/current [get]
func (h *LedgerHandler) CurrentFinances(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	f, err := h.ledger.CurrentFinances(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

// TotalFinances handles GET /v1/admin/finances/total.
//
// @Summary      All-time finances
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.CompanyFinances
// @Router       /v1/admin/finances/total [get]
func (h *LedgerHandler) TotalFinances(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	f, err := h.ledger.TotalFinances(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, f)
}

// FinancesRange handles GET /v1/admin/finances.
//
// @Summary      Monthly finances
// @Description  With from and to (YYYY-MM) returns that inclusive range, otherwise the most recent n months.
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        from  query    string  false  "First period (YYYY-MM)"
// @Param        to    query    string  false  "Last period (YYYY-MM)"
// @Param        n     query    int     false  "Recent months when no range is given"
// @Success      200   {array}  domain.CompanyFinances
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/finances [get]
func (h *LedgerHandler) FinancesRange(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}

	from, to := c.QueryParam("from"), c.QueryParam("to")
	if from != "" || to != "" {
		items, err := h.ledger.FinancesRange(c.Request().Context(), actor, from, to)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, items)
	}

	var n int
	if err := echo.QueryParamsBinder(c).Int("n", &n).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "n must be an integer")
	}
	items, err := h.ledger.RecentFinances(c.Request().Context(), actor, n)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// Earnings handles GET /v1/admin/earnings.
//
// @Summary      Revenue of one stream
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Param        type  query     string  false  "Transaction type (default membership_payment)"
// @Param        from  query     string  false  "Created on or after (YYYY-MM-DD)"
// @Param        to    query     string  false  "Created before (YYYY-MM-DD)"
// @Success      200   {object}  ports.Earnings
// @Failure      400   {object}  errorResponse
// @Router       /v1/admin/earnings [get]
func (h *LedgerHandler) Earnings(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	from, to, err := dateRange(c)
	if err != nil {
		return err
	}

	txType := domain.TransactionType(c.QueryParam("type"))
	if txType == "" {
		txType = domain.TxMembership
	}
	e, err := h.ledger.Earnings(c.Request().Context(), actor, txType, from, to)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, e)
}

// RevenueRules handles GET /v1/admin/settings/revenue.
//
// @Summary      Revenue rules
// @Tags         ledger
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.RevenueRules
// @Router       /v1/admin/settings/revenue [get]
func (h *LedgerHandler) RevenueRules(c echo.Context) error {
	rules, err := h.settings.RevenueRules(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// UpdateRevenueRules handles PATCH /v1/admin/settings/revenue.
//
// @Summary      Change revenue rules
// @Tags         ledger
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      revenueRulesRequest  true  "Fields to change"
// @Success      200   {object}  domain.RevenueRules
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/admin/settings/revenue [patch]
func (h *LedgerHandler) UpdateRevenueRules(c echo.Context) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	var req revenueRulesRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	rules, err := h.settings.UpdateRevenueRules(c.Request().Context(), actor, ports.RevenueRulesInput{
		DefaultCurrency:           req.DefaultCurrency,
		TaxPercent:                req.TaxPercent,
		PlatformCommissionPercent: req.PlatformCommissionPercent,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rules)
}

// dateRange reads ?from= and ?to= as calendar days in UTC. Missing bounds
// stay zero.
func dateRange(c echo.Context) (time.Time, time.Time, error) {
	var from, to time.Time
	err := echo.QueryParamsBinder(c).
		Time("from", &from, dateLayout).
		Time("to", &to, dateLayout).
		BindError()
	if err != nil {
		return time.Time{}, time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "from and to must be dates (YYYY-MM-DD)")
	}
	return from, to, nil
}
