package services

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/finance"
	"fintrack/internal/models"
	"fintrack/internal/period"
)

const (
	defaultTrendMonths = 12
	maxTrendMonths     = 120
)

// analyticsService computes read-only spending aggregates.
type analyticsService struct {
	db        *gorm.DB
	spend     SpendServicer
	recurring RecurringServicer
}

// NewAnalyticsService creates a new AnalyticsServicer.
func NewAnalyticsService(db *gorm.DB, spend SpendServicer, recurring RecurringServicer) AnalyticsServicer {
	return &analyticsService{db: db, spend: spend, recurring: recurring}
}

// Summary totals the user's spend in [from, to] overall and per category.
func (s *analyticsService) Summary(userID string, from, to time.Time) (*SpendingSummary, error) {
	expenses, err := s.expensesBetween(userID, from, to)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}

	return &SpendingSummary{
		From:             period.Day(from),
		To:               period.Day(to),
		Total:            finance.RoundCents(total),
		TransactionCount: int64(len(expenses)),
		Categories:       groupByCategory(expenses),
	}, nil
}

// MonthlyTrend returns one bucket per calendar month for the months-long
// window ending with now's month, oldest first. Months without spend are
// reported as zero.
func (s *analyticsService) MonthlyTrend(userID string, months int, now time.Time) ([]MonthlyTotal, error) {
	if months <= 0 {
		months = defaultTrendMonths
	}
	if months > maxTrendMonths {
		months = maxTrendMonths
	}

	last := period.MonthStart(now)
	first := last.AddDate(0, -(months - 1), 0)

	expenses, err := s.expensesBetween(userID, first, period.MonthEnd(last))
	if err != nil {
		return nil, err
	}

	buckets := make([]MonthlyTotal, 0, months)
	index := make(map[string]int, months)
	for _, m := range period.Months(first, last) {
		key := m.Format("2006-01")
		index[key] = len(buckets)
		buckets = append(buckets, MonthlyTotal{Month: key, Start: m, Total: decimal.Zero})
	}

	for _, e := range expenses {
		i, ok := index[e.Date.Format("2006-01")]
		if !ok {
			continue
		}
		buckets[i].Total = buckets[i].Total.Add(e.Amount)
		buckets[i].Count++
	}
	for i := range buckets {
		buckets[i].Total = finance.RoundCents(buckets[i].Total)
	}
	return buckets, nil
}

// CategoryPatterns reports total, count and average per category in
// [from, to], largest total first.
func (s *analyticsService) CategoryPatterns(userID string, from, to time.Time) ([]CategoryTotal, error) {
	expenses, err := s.expensesBetween(userID, from, to)
	if err != nil {
		return nil, err
	}
	return groupByCategory(expenses), nil
}

// BudgetAnalysis pairs every budget overlapping [from, to] with the spend
// over the budget's own range.
func (s *analyticsService) BudgetAnalysis(userID string, from, to time.Time) ([]BudgetWithMetrics, error) {
	from, to = period.Day(from), period.Day(to)
	if to.Before(from) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var budgets []models.Budget
	if err := s.db.Preload("Category").
		Where("user_id = ? AND start_date <= ? AND end_date >= ?", userID, to, from).
		Order("start_date ASC").Order("created_at ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	out := make([]BudgetWithMetrics, 0, len(budgets))
	for _, b := range budgets {
		spent, err := s.spend.TotalSpent(userID, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, err
		}
		out = append(out, BudgetWithMetrics{Budget: b, Metrics: finance.ForBudget(&b, spent)})
	}
	return out, nil
}

// Recurring lists the user's recurring expense templates.
func (s *analyticsService) Recurring(userID string) ([]RecurringItem, error) {
	return s.recurring.ListRecurring(userID)
}

func (s *analyticsService) expensesBetween(userID string, from, to time.Time) ([]models.Expense, error) {
	from, to = period.Day(from), period.Day(to)
	if to.Before(from) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var expenses []models.Expense
	if err := s.db.Preload("Category").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, from, to).
		Order("date ASC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// groupByCategory folds expenses into per-category totals sorted by total
// descending, then by name.
func groupByCategory(expenses []models.Expense) []CategoryTotal {
	byID := make(map[string]*CategoryTotal)
	for i := range expenses {
		e := &expenses[i]
		ct, ok := byID[e.CategoryID]
		if !ok {
			ct = &CategoryTotal{CategoryID: e.CategoryID, CategoryName: e.CategoryName(), Total: decimal.Zero}
			byID[e.CategoryID] = ct
		}
		ct.Total = ct.Total.Add(e.Amount)
		ct.Count++
	}

	out := make([]CategoryTotal, 0, len(byID))
	for _, ct := range byID {
		ct.Total = finance.RoundCents(ct.Total)
		ct.Average = finance.Average(ct.Total, ct.Count)
		out = append(out, *ct)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Total.Equal(out[j].Total) {
			return out[i].Total.GreaterThan(out[j].Total)
		}
		return out[i].CategoryName < out[j].CategoryName
	})
	return out
}
