package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/finance"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// BudgetHandler handles budget-related requests.
type BudgetHandler struct {
	budgetService services.BudgetServicer
	alertService  services.AlertServicer
	auditService  services.AuditServicer
	now           func() time.Time
}

// NewBudgetHandler creates a new BudgetHandler.
func NewBudgetHandler(budgetService services.BudgetServicer, alertService services.AlertServicer, auditService services.AuditServicer) *BudgetHandler {
	return &BudgetHandler{
		budgetService: budgetService,
		alertService:  alertService,
		auditService:  auditService,
		now:           time.Now,
	}
}

// CreateBudgetRequest represents the request payload for creating a budget.
type CreateBudgetRequest struct {
	CategoryID     string              `json:"category_id" binding:"required,uuid"`
	Amount         decimal.Decimal     `json:"amount" binding:"required,gt=0,money" swaggertype:"number"`
	Period         models.BudgetPeriod `json:"period" binding:"required,budget_period" swaggertype:"string" enums:"monthly,yearly"`
	StartDate      string              `json:"start_date" binding:"required" example:"2024-03-01"`
	EndDate        *string             `json:"end_date" example:"2024-03-31"`
	AlertThreshold *decimal.Decimal    `json:"alert_threshold" binding:"omitempty,min=0,max=100" swaggertype:"number"`
	IsAlertEnabled *bool               `json:"is_alert_enabled"`
}

// UpdateBudgetRequest represents the request payload for updating a budget.
type UpdateBudgetRequest struct {
	CategoryID     *string              `json:"category_id" binding:"omitempty,uuid"`
	Amount         *decimal.Decimal     `json:"amount" binding:"omitempty,gt=0,money" swaggertype:"number"`
	Period         *models.BudgetPeriod `json:"period" binding:"omitempty,budget_period" swaggertype:"string" enums:"monthly,yearly"`
	StartDate      *string              `json:"start_date" example:"2024-03-01"`
	EndDate        *string              `json:"end_date" example:"2024-03-31"`
	AlertThreshold *decimal.Decimal     `json:"alert_threshold" binding:"omitempty,min=0,max=100" swaggertype:"number"`
	IsAlertEnabled *bool                `json:"is_alert_enabled"`
}

// AlertSettingsRequest changes when a budget raises alerts.
type AlertSettingsRequest struct {
	AlertThreshold *decimal.Decimal `json:"alert_threshold" binding:"omitempty,min=0,max=100" swaggertype:"number"`
	IsAlertEnabled *bool            `json:"is_alert_enabled"`
}

// EvaluateResponse wraps the outcome of a single alert evaluation.
type EvaluateResponse struct {
	Triggered bool           `json:"triggered"`
	Alert     *finance.Alert `json:"alert"`
}

// CreateBudget handles the creation of a new budget.
// @Summary     Create a budget
// @Description Create a monthly or yearly budget. Yearly budgets cover the calendar year and are split into twelve monthly budgets.
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateBudgetRequest true "Budget details"
// @Success     201 {object} services.CreateBudgetResult "Budget created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /budgets [post]
func (h *BudgetHandler) CreateBudget(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	start, err := parseFlexibleTime("start_date", req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.CreateBudget(userID, services.CreateBudgetInput{
		CategoryID:     canonicalID(req.CategoryID),
		Amount:         req.Amount,
		Period:         req.Period,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: req.AlertThreshold,
		IsAlertEnabled: req.IsAlertEnabled,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_BUDGET", "budget", result.Budget.ID, c.ClientIP(),
		map[string]any{"amount": req.Amount.String(), "period": req.Period, "monthly_budgets": len(result.MonthlyBudgets)})

	c.JSON(http.StatusCreated, result)
}

// GetBudgets handles listing budgets for the authenticated user.
// @Summary     Get budgets
// @Description Get a paginated list of budgets with their spend metrics
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       period      query string false "Filter by period (monthly/yearly)"
// @Param       category_id query string false "Filter by category"
// @Param       active_on   query string false "Only budgets covering this date (YYYY-MM-DD)"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[services.BudgetWithMetrics] "Paginated budgets"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets [get]
func (h *BudgetHandler) GetBudgets(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	page, err := bindPage(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var filter services.BudgetFilter
	if v := c.Query("period"); v != "" {
		p := models.BudgetPeriod(v)
		if !p.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "period must be 'monthly' or 'yearly'"))
			return
		}
		filter.Period = &p
	}
	if filter.CategoryID, err = parseQueryUUID(c, "category_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ActiveOn, err = parseQueryDate(c, "active_on"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.budgetService.GetUserBudgets(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetBudget handles retrieving a specific budget.
// @Summary     Get budget by ID
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetWithMetrics "Budget details"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [get]
func (h *BudgetHandler) GetBudget(c *gin.Context) {
	userID, budgetID, ok := h.budgetTarget(c)
	if !ok {
		return
	}

	budget, err := h.budgetService.GetBudgetByID(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateBudget handles updating an existing budget. Monthly budgets derived
// from a yearly budget are not changed.
// @Summary     Update budget
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string              true "Budget ID"
// @Param       request body UpdateBudgetRequest true "Updated budget details"
// @Success     200 {object} services.BudgetWithMetrics "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Budget or category not found"
// @Router      /budgets/{id} [put]
func (h *BudgetHandler) UpdateBudget(c *gin.Context) {
	userID, budgetID, ok := h.budgetTarget(c)
	if !ok {
		return
	}

	var req UpdateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if req.CategoryID != nil {
		id := canonicalID(*req.CategoryID)
		req.CategoryID = &id
	}

	budget, err := h.budgetService.UpdateBudget(userID, budgetID, services.UpdateBudgetInput{
		CategoryID:     req.CategoryID,
		Amount:         req.Amount,
		Period:         req.Period,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: req.AlertThreshold,
		IsAlertEnabled: req.IsAlertEnabled,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// UpdateAlertSettings changes a budget's alert threshold or switch.
// @Summary     Update budget alert settings
// @Tags        budgets
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Budget ID"
// @Param       request body AlertSettingsRequest true "Alert settings"
// @Success     200 {object} services.BudgetWithMetrics "Updated budget"
// @Failure     400 {object} ErrorResponse "Invalid threshold"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/alert-settings [put]
func (h *BudgetHandler) UpdateAlertSettings(c *gin.Context) {
	userID, budgetID, ok := h.budgetTarget(c)
	if !ok {
		return
	}

	var req AlertSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	budget, err := h.budgetService.UpdateAlertSettings(userID, budgetID, req.AlertThreshold, req.IsAlertEnabled)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_BUDGET_ALERTS", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"budget": budget})
}

// DeleteBudget handles deleting a budget.
// @Summary     Delete budget
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} MessageResponse "Budget deleted"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id} [delete]
func (h *BudgetHandler) DeleteBudget(c *gin.Context) {
	userID, budgetID, ok := h.budgetTarget(c)
	if !ok {
		return
	}

	if err := h.budgetService.DeleteBudget(userID, budgetID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_BUDGET", "budget", budgetID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Budget deleted successfully"})
}

// GetBudgetProgress returns spend against the budget over its own range.
// @Summary     Get budget progress
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} services.BudgetProgress "Budget progress"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/progress [get]
func (h *BudgetHandler) GetBudgetProgress(c *gin.Context) {
	userID, budgetID, ok := h.budgetTarget(c)
	if !ok {
		return
	}

	progress, err := h.budgetService.GetBudgetProgress(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"progress": progress})
}

// EvaluateBudget checks one budget against its alert threshold and stores a
// notification when it is reached.
// @Summary     Evaluate budget alert
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Budget ID"
// @Success     200 {object} EvaluateResponse "Evaluation result; alert is null below the threshold"
// @Failure     400 {object} ErrorResponse "Invalid budget ID"
// @Failure     404 {object} ErrorResponse "Budget not found"
// @Router      /budgets/{id}/evaluate [post]
func (h *BudgetHandler) EvaluateBudget(c *gin.Context) {
	userID, budgetID, ok := h.budgetTarget(c)
	if !ok {
		return
	}

	alert, err := h.alertService.Evaluate(userID, budgetID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, EvaluateResponse{Triggered: alert != nil, Alert: alert})
}

// CheckAlerts evaluates every alert-enabled budget of the user.
// @Summary     Check all budget alerts
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} services.AlertCheckResult "Alerts raised with evaluated and failed counts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/check-alerts [post]
func (h *BudgetHandler) CheckAlerts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.alertService.CheckAlerts(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryCaps lists every budget as a cap on its category.
// @Summary     Get category caps
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.CategoryCap "Category caps"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /budgets/category-caps [get]
func (h *BudgetHandler) GetCategoryCaps(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	caps, err := h.budgetService.GetCategoryCaps(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"caps": caps})
}

// GetYearlySummary returns the yearly budgets and per-month monthly budgets of a year.
// @Summary     Get yearly budget summary
// @Tags        budgets
// @Produce     json
// @Security    BearerAuth
// @Param       year query int false "Calendar year, defaults to the current year"
// @Success     200 {object} services.YearlySummary "Yearly summary"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Router      /budgets/yearly-summary [get]
func (h *BudgetHandler) GetYearlySummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	year := h.now().UTC().Year()
	if v := c.Query("year"); v != "" {
		year, err = strconv.Atoi(v)
		if err != nil || year < 1900 || year > 9999 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "year must be between 1900 and 9999"))
			return
		}
	}

	summary, err := h.budgetService.GetYearlySummary(userID, year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// budgetTarget resolves the caller and the :id parameter, writing the error
// response itself when either is missing.
func (h *BudgetHandler) budgetTarget(c *gin.Context) (userID, budgetID string, ok bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	budgetID, err = parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	return userID, budgetID, true
}
