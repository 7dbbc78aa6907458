package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/finance"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/period"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db        *gorm.DB
	spend     SpendServicer
	alerts    AlertServicer
	publisher NotificationPublisher
}

// NewBudgetService creates a new BudgetServicer. publisher may be nil.
func NewBudgetService(db *gorm.DB, spend SpendServicer, alerts AlertServicer, publisher NotificationPublisher) BudgetServicer {
	return &budgetService{db: db, spend: spend, alerts: alerts, publisher: publisher}
}

// CreateBudget creates a budget for one of the user's categories. A yearly
// budget always spans Jan 1 to Dec 31 of its start year and is stored
// together with its twelve monthly budgets in a single transaction. The new
// budget is evaluated for alerts once before returning.
func (s *budgetService) CreateBudget(userID string, input CreateBudgetInput) (*CreateBudgetResult, error) {
	if !finance.ValidAmount(input.Amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	if !input.Period.Valid() {
		return nil, apperrors.ErrInvalidPeriod
	}

	threshold := models.DefaultAlertThreshold
	if input.AlertThreshold != nil {
		threshold = *input.AlertThreshold
	}
	if !finance.ValidThreshold(threshold) {
		return nil, apperrors.ErrInvalidThreshold
	}
	enabled := true
	if input.IsAlertEnabled != nil {
		enabled = *input.IsAlertEnabled
	}

	if input.StartDate.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	start := period.Day(input.StartDate)
	end, err := budgetEnd(input.Period, start, input.EndDate)
	if err != nil {
		return nil, err
	}
	if input.Period == models.BudgetPeriodYearly {
		start, end, _ = period.Range(period.Yearly, start)
	}

	category, err := requireCategory(s.db, userID, input.CategoryID)
	if err != nil {
		return nil, err
	}

	budget := &models.Budget{
		UserID:         userID,
		CategoryID:     category.ID,
		Amount:         input.Amount,
		Period:         input.Period,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: threshold,
		IsAlertEnabled: enabled,
	}

	var (
		children []models.Budget
		created  *models.Notification
		decision *finance.AlertDecision
	)
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if budget.Period == models.BudgetPeriodYearly {
			children = finance.DecomposeYearly(budget)
			if err := tx.Omit(clause.Associations).Create(&children).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		created = budgetCreatedNotification(budget, category.Name)
		if err := tx.Create(created).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		budget.Category = category
		var err error
		decision, err = s.alerts.EvaluateTx(tx, budget)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &CreateBudgetResult{MonthlyBudgets: children}
	if decision != nil {
		result.Alert = &decision.Alert
		publish(s.publisher, created, decision.Notification)
	} else {
		publish(s.publisher, created)
	}

	withMetrics, err := s.withMetrics(*budget)
	if err != nil {
		return nil, err
	}
	result.Budget = withMetrics
	return result, nil
}

// GetUserBudgets returns a paginated list of the user's budgets with metrics.
func (s *budgetService) GetUserBudgets(userID string, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[BudgetWithMetrics], error) {
	page.Defaults()

	base := s.db.Model(&models.Budget{}).Where("user_id = ?", userID)
	if filter.Period != nil {
		base = base.Where("period = ?", *filter.Period)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.ActiveOn != nil {
		day := period.Day(*filter.ActiveOn)
		base = base.Where("start_date <= ? AND end_date >= ?", day, day)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var budgets []models.Budget
	if err := base.Preload("Category").
		Order("start_date DESC").Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	items, err := s.withMetricsAll(budgets)
	if err != nil {
		return nil, err
	}
	result := pagination.NewPageResponse(items, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetBudgetByID returns a budget with metrics if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*BudgetWithMetrics, error) {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}
	withMetrics, err := s.withMetrics(*budget)
	if err != nil {
		return nil, err
	}
	return &withMetrics, nil
}

// UpdateBudget applies the non-nil fields of input and re-validates the
// merged record. Monthly budgets derived from a yearly one are not touched.
func (s *budgetService) UpdateBudget(userID, budgetID string, input UpdateBudgetInput) (*BudgetWithMetrics, error) {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil && *input.CategoryID != budget.CategoryID {
		category, err := requireCategory(s.db, userID, *input.CategoryID)
		if err != nil {
			return nil, err
		}
		budget.CategoryID = category.ID
		budget.Category = category
	}
	if input.Amount != nil {
		if !finance.ValidAmount(*input.Amount) {
			return nil, apperrors.ErrInvalidAmount
		}
		budget.Amount = *input.Amount
	}
	if input.Period != nil {
		if !input.Period.Valid() {
			return nil, apperrors.ErrInvalidPeriod
		}
		budget.Period = *input.Period
	}
	if input.StartDate != nil {
		budget.StartDate = period.Day(*input.StartDate)
	}
	if input.EndDate != nil {
		budget.EndDate = period.Day(*input.EndDate)
	}
	if input.AlertThreshold != nil {
		if !finance.ValidThreshold(*input.AlertThreshold) {
			return nil, apperrors.ErrInvalidThreshold
		}
		budget.AlertThreshold = *input.AlertThreshold
	}
	if input.IsAlertEnabled != nil {
		budget.IsAlertEnabled = *input.IsAlertEnabled
	}

	if !budget.EndDate.After(budget.StartDate) {
		return nil, apperrors.ErrInvalidDateRange
	}

	if err := s.db.Omit(clause.Associations).Save(budget).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetBudgetByID(userID, budgetID)
}

// UpdateAlertSettings changes only the alert threshold and flag.
func (s *budgetService) UpdateAlertSettings(userID, budgetID string, threshold *decimal.Decimal, enabled *bool) (*BudgetWithMetrics, error) {
	budget, err := s.find(userID, budgetID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if threshold != nil {
		if !finance.ValidThreshold(*threshold) {
			return nil, apperrors.ErrInvalidThreshold
		}
		updates["alert_threshold"] = *threshold
	}
	if enabled != nil {
		updates["is_alert_enabled"] = *enabled
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.Budget{}).Where("id = ?", budget.ID).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return s.GetBudgetByID(userID, budgetID)
}

// DeleteBudget soft-deletes a budget. Monthly budgets derived from it stay.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	result := s.db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// GetBudgetProgress reports the budget's spend over its own date range.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	b, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	return &BudgetProgress{
		BudgetID:         b.ID,
		StartDate:        b.StartDate,
		EndDate:          b.EndDate,
		Budgeted:         b.Amount,
		Spent:            b.Spent,
		Remaining:        b.Remaining,
		PercentageUsed:   b.PercentageUsed,
		IsAlertTriggered: b.IsAlertTriggered,
	}, nil
}

// GetCategoryCaps lists every budget of the user as a cap on its category.
func (s *budgetService) GetCategoryCaps(userID string) ([]CategoryCap, error) {
	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ?", userID).
		Order("category_id ASC").Order("start_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	withMetrics, err := s.withMetricsAll(budgets)
	if err != nil {
		return nil, err
	}

	caps := make([]CategoryCap, 0, len(withMetrics))
	for _, b := range withMetrics {
		caps = append(caps, CategoryCap{
			BudgetID:         b.ID,
			CategoryID:       b.CategoryID,
			CategoryName:     b.Budget.CategoryName(),
			Period:           b.Period,
			StartDate:        b.StartDate,
			EndDate:          b.EndDate,
			Cap:              b.Amount,
			Spent:            b.Spent,
			Remaining:        b.Remaining,
			PercentageUsed:   b.PercentageUsed,
			IsAlertTriggered: b.IsAlertTriggered,
		})
	}
	return caps, nil
}

// GetYearlySummary returns the yearly budgets overlapping year and, for each
// month, the monthly budgets overlapping that month.
func (s *budgetService) GetYearlySummary(userID string, year int) (*YearlySummary, error) {
	yearStart, yearEnd, _ := period.Range(period.Yearly, period.Date(year, time.January, 1))

	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, yearEnd, yearStart).
		Order("start_date ASC").Order("created_at ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	withMetrics, err := s.withMetricsAll(budgets)
	if err != nil {
		return nil, err
	}

	summary := &YearlySummary{
		Year:          year,
		YearlyBudgets: []BudgetWithMetrics{},
		Months:        make([]MonthSummary, 12),
	}
	for i := range summary.Months {
		summary.Months[i] = MonthSummary{
			Month:         i + 1,
			Budgets:       []BudgetWithMetrics{},
			TotalBudgeted: decimal.Zero,
			TotalSpent:    decimal.Zero,
		}
	}

	for _, b := range withMetrics {
		if b.Period == models.BudgetPeriodYearly {
			summary.YearlyBudgets = append(summary.YearlyBudgets, b)
			continue
		}
		for i := range summary.Months {
			monthStart := period.Date(year, time.Month(i+1), 1)
			if !period.Overlaps(b.StartDate, b.EndDate, monthStart, period.MonthEnd(monthStart)) {
				continue
			}
			m := &summary.Months[i]
			m.Budgets = append(m.Budgets, b)
			m.TotalBudgeted = m.TotalBudgeted.Add(b.Amount)
			m.TotalSpent = m.TotalSpent.Add(b.Spent)
		}
	}
	return summary, nil
}

func (s *budgetService) find(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

func (s *budgetService) withMetrics(b models.Budget) (BudgetWithMetrics, error) {
	spent, err := s.spend.TotalSpent(b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return BudgetWithMetrics{}, err
	}
	return BudgetWithMetrics{Budget: b, Metrics: finance.ForBudget(&b, spent)}, nil
}

func (s *budgetService) withMetricsAll(budgets []models.Budget) ([]BudgetWithMetrics, error) {
	out := make([]BudgetWithMetrics, 0, len(budgets))
	for _, b := range budgets {
		m, err := s.withMetrics(b)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// budgetEnd returns the explicit end date when given, otherwise the last day
// of the period containing start. The result must fall after start.
func budgetEnd(kind models.BudgetPeriod, start time.Time, explicit *time.Time) (time.Time, error) {
	if explicit != nil {
		end := period.Day(*explicit)
		if !end.After(start) {
			return time.Time{}, apperrors.ErrInvalidDateRange
		}
		return end, nil
	}

	_, end, err := period.Range(kind, start)
	if err != nil {
		return time.Time{}, apperrors.Wrap(apperrors.ErrInvalidPeriod, err)
	}
	if kind == models.BudgetPeriodMonthly && !end.After(start) {
		return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidDateRange,
			"end date is required for a monthly budget starting on the last day of the month")
	}
	return end, nil
}

func budgetCreatedNotification(b *models.Budget, categoryName string) *models.Notification {
	amount := b.Amount
	return &models.Notification{
		UserID:  b.UserID,
		Type:    models.NotificationBudgetCreated,
		Title:   fmt.Sprintf("New %s Budget Created", b.Period),
		Message: fmt.Sprintf("A new %s budget of %s has been created for %s", b.Period, finance.FormatMoney(b.Amount), categoryName),
		Metadata: models.NotificationMetadata{
			BudgetID:   b.ID,
			CategoryID: b.CategoryID,
			Amount:     &amount,
			Period:     string(b.Period),
		},
	}
}
