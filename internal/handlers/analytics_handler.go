package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// AnalyticsHandler serves read-only spending reports.
type AnalyticsHandler struct {
	analyticsService services.AnalyticsServicer
	now              func() time.Time
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analyticsService services.AnalyticsServicer) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService, now: time.Now}
}

// GetSummary totals spending over a date range.
// @Summary     Spending summary
// @Description Totals and per-category breakdown; the range defaults to the current month
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to   query string false "End date (YYYY-MM-DD)"
// @Success     200 {object} services.SpendingSummary "Summary"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /analytics/summary [get]
func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	userID, from, to, ok := h.rangeTarget(c)
	if !ok {
		return
	}

	summary, err := h.analyticsService.Summary(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// GetTrend returns monthly totals ending with the current month.
// @Summary     Monthly spending trend
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       months query int false "Number of months (default 12, max 120)"
// @Success     200 {array} services.MonthlyTotal "Monthly totals, oldest first"
// @Failure     400 {object} ErrorResponse "Invalid months"
// @Router      /analytics/trend [get]
func (h *AnalyticsHandler) GetTrend(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	months := 0
	if v := c.Query("months"); v != "" {
		months, err = strconv.Atoi(v)
		if err != nil || months < 1 {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "months must be a positive integer"))
			return
		}
	}

	trend, err := h.analyticsService.MonthlyTrend(userID, months, h.now())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"trend": trend})
}

// GetCategoryPatterns breaks spending down by category.
// @Summary     Spending by category
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to   query string false "End date (YYYY-MM-DD)"
// @Success     200 {array} services.CategoryTotal "Category totals, largest first"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /analytics/category-patterns [get]
func (h *AnalyticsHandler) GetCategoryPatterns(c *gin.Context) {
	userID, from, to, ok := h.rangeTarget(c)
	if !ok {
		return
	}

	patterns, err := h.analyticsService.CategoryPatterns(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"categories": patterns})
}

// GetBudgetAnalysis reports every budget overlapping the range with its metrics.
// @Summary     Budget analysis
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Param       from query string false "Start date (YYYY-MM-DD)"
// @Param       to   query string false "End date (YYYY-MM-DD)"
// @Success     200 {array} services.BudgetWithMetrics "Budgets with metrics"
// @Failure     400 {object} ErrorResponse "Invalid date range"
// @Router      /analytics/budget-analysis [get]
func (h *AnalyticsHandler) GetBudgetAnalysis(c *gin.Context) {
	userID, from, to, ok := h.rangeTarget(c)
	if !ok {
		return
	}

	budgets, err := h.analyticsService.BudgetAnalysis(userID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"budgets": budgets})
}

// GetRecurring lists recurring expense templates with their next dates.
// @Summary     Recurring expenses
// @Tags        analytics
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} services.RecurringItem "Recurring expenses"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /analytics/recurring [get]
func (h *AnalyticsHandler) GetRecurring(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	items, err := h.analyticsService.Recurring(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recurring": items})
}

func (h *AnalyticsHandler) rangeTarget(c *gin.Context) (userID string, from, to time.Time, ok bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", time.Time{}, time.Time{}, false
	}
	from, to, err = parseDateRange(c, h.now().UTC())
	if err != nil {
		respondWithError(c, err)
		return "", time.Time{}, time.Time{}, false
	}
	return userID, from, to, true
}
