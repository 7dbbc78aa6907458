package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/period"
	"fintrack/internal/services"
)

// ExpenseHandler handles expense requests, including the recurring-expense trigger.
type ExpenseHandler struct {
	expenseService   services.ExpenseServicer
	recurringService services.RecurringServicer
	auditService     services.AuditServicer
	now              func() time.Time
}

// NewExpenseHandler creates a new ExpenseHandler.
func NewExpenseHandler(expenseService services.ExpenseServicer, recurringService services.RecurringServicer, auditService services.AuditServicer) *ExpenseHandler {
	return &ExpenseHandler{
		expenseService:   expenseService,
		recurringService: recurringService,
		auditService:     auditService,
		now:              time.Now,
	}
}

// CreateExpenseRequest represents the request payload for creating an expense.
type CreateExpenseRequest struct {
	CategoryID         string                     `json:"category_id" binding:"required,uuid"`
	Amount             decimal.Decimal            `json:"amount" binding:"required,gt=0,money" swaggertype:"number"`
	Description        string                     `json:"description" binding:"required,max=255"`
	Date               string                     `json:"date" binding:"required" example:"2024-03-15"`
	Note               string                     `json:"note" binding:"max=1000"`
	Receipt            string                     `json:"receipt" binding:"max=500"`
	IsRecurring        bool                       `json:"is_recurring"`
	RecurringFrequency *models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency"`
}

// UpdateExpenseRequest holds optional expense changes.
type UpdateExpenseRequest struct {
	CategoryID         *string                    `json:"category_id" binding:"omitempty,uuid"`
	Amount             *decimal.Decimal           `json:"amount" binding:"omitempty,gt=0,money" swaggertype:"number"`
	Description        *string                    `json:"description" binding:"omitempty,max=255"`
	Date               *string                    `json:"date" example:"2024-03-15"`
	Note               *string                    `json:"note" binding:"omitempty,max=1000"`
	Receipt            *string                    `json:"receipt" binding:"omitempty,max=500"`
	IsRecurring        *bool                      `json:"is_recurring"`
	RecurringFrequency *models.RecurringFrequency `json:"recurring_frequency" binding:"omitempty,recurring_frequency"`
}

// CreateExpense records a new expense.
// @Summary     Create expense
// @Description Record an expense; recurring expenses also act as the template for future copies
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateExpenseRequest true "Expense details"
// @Success     201 {object} models.Expense "Expense created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Router      /expenses [post]
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	date, err := parseFlexibleTime("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.CreateExpense(userID, services.CreateExpenseInput{
		CategoryID:         canonicalID(req.CategoryID),
		Amount:             req.Amount,
		Description:        req.Description,
		Date:               date,
		Note:               req.Note,
		Receipt:            req.Receipt,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_EXPENSE", "expense", expense.ID, c.ClientIP(),
		map[string]any{"amount": expense.Amount.String(), "category_id": expense.CategoryID})

	c.JSON(http.StatusCreated, gin.H{"expense": expense})
}

// GetExpenses lists the user's expenses, newest first.
// @Summary     List expenses
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       from         query string false "Earliest date (YYYY-MM-DD)"
// @Param       to           query string false "Latest date (YYYY-MM-DD)"
// @Param       category_id  query string false "Filter by category"
// @Param       is_recurring query bool   false "Only recurring templates or only one-off expenses"
// @Param       page         query int    false "Page number (default 1)"
// @Param       page_size    query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Expense] "Paginated expenses"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses [get]
func (h *ExpenseHandler) GetExpenses(c *gin.Context) {
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

	var filter services.ExpenseFilter
	if filter.FromDate, err = parseQueryDate(c, "from"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.ToDate, err = parseQueryDate(c, "to"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.FromDate != nil && filter.ToDate != nil && filter.ToDate.Before(*filter.FromDate) {
		respondWithError(c, apperrors.ErrInvalidDateRange)
		return
	}
	if filter.CategoryID, err = parseQueryUUID(c, "category_id"); err != nil {
		respondWithError(c, err)
		return
	}
	if filter.IsRecurring, err = parseQueryBool(c, "is_recurring"); err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.expenseService.GetUserExpenses(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExpense returns one expense.
// @Summary     Get expense by ID
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} models.Expense "Expense details"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [get]
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	expense, err := h.expenseService.GetExpenseByID(userID, expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// UpdateExpense changes an expense.
// @Summary     Update expense
// @Tags        expenses
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Expense ID"
// @Param       request body UpdateExpenseRequest true "Expense changes"
// @Success     200 {object} models.Expense "Updated expense"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Expense or category not found"
// @Router      /expenses/{id} [put]
func (h *ExpenseHandler) UpdateExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if req.CategoryID != nil {
		id := canonicalID(*req.CategoryID)
		req.CategoryID = &id
	}

	expense, err := h.expenseService.UpdateExpense(userID, expenseID, services.UpdateExpenseInput{
		CategoryID:         req.CategoryID,
		Amount:             req.Amount,
		Description:        req.Description,
		Date:               date,
		Note:               req.Note,
		Receipt:            req.Receipt,
		IsRecurring:        req.IsRecurring,
		RecurringFrequency: req.RecurringFrequency,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"expense": expense})
}

// DeleteExpense removes an expense.
// @Summary     Delete expense
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Expense ID"
// @Success     200 {object} MessageResponse "Expense deleted"
// @Failure     400 {object} ErrorResponse "Invalid expense ID"
// @Failure     404 {object} ErrorResponse "Expense not found"
// @Router      /expenses/{id} [delete]
func (h *ExpenseHandler) DeleteExpense(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	expenseID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.expenseService.DeleteExpense(userID, expenseID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_EXPENSE", "expense", expenseID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

// ProcessRecurring materialises every recurring expense due on or before today.
// @Summary     Process due recurring expenses
// @Description Copies each due recurring expense once and advances its next date. Failures are reported per expense.
// @Tags        expenses
// @Produce     json
// @Security    BearerAuth
// @Param       today query string false "Processing date (YYYY-MM-DD), defaults to the current UTC date"
// @Success     200 {object} services.RecurringResult "Processing summary"
// @Failure     400 {object} ErrorResponse "Invalid date"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /expenses/process-recurring [post]
func (h *ExpenseHandler) ProcessRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	today := period.Day(h.now().UTC())
	if v, ok := c.GetQuery("today"); ok {
		if today, err = parseFlexibleTime("today", v); err != nil {
			respondWithError(c, err)
			return
		}
	}

	result, err := h.recurringService.ProcessDue(userID, today)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Processed > 0 {
		h.auditService.Log(userID, "PROCESS_RECURRING", "expense", "", c.ClientIP(),
			map[string]any{"processed": result.Processed, "failed": result.Failed})
	}

	c.JSON(http.StatusOK, result)
}
