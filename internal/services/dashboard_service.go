package services

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/period"
)

const (
	recentExpenseDays  = 30
	recentExpenseLimit = 30
)

// dashboardService assembles the landing-page snapshot.
type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

// GetDashboard runs the independent dashboard queries concurrently. The
// monthly budget is the sum of monthly budgets overlapping now's month.
func (s *dashboardService) GetDashboard(ctx context.Context, userID string, now time.Time) (*Dashboard, error) {
	monthStart, monthEnd, _ := period.Range(period.Monthly, now)
	today := period.Day(now)

	d := &Dashboard{RecentExpenses: []models.Expense{}}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		total, err := sumAmount(s.db.WithContext(gctx).Model(&models.Expense{}).
			Where("user_id = ?", userID))
		d.TotalExpenses = total
		return err
	})
	g.Go(func() error {
		total, err := sumAmount(s.db.WithContext(gctx).Model(&models.Expense{}).
			Where("user_id = ? AND date >= ? AND date <= ?", userID, monthStart, monthEnd))
		d.MonthExpenses = total
		return err
	})
	g.Go(func() error {
		total, err := sumAmount(s.db.WithContext(gctx).Model(&models.Budget{}).
			Where("user_id = ? AND period = ? AND start_date <= ? AND end_date >= ?",
				userID, models.BudgetPeriodMonthly, monthEnd, monthStart))
		d.MonthlyBudget = total
		return err
	})
	g.Go(func() error {
		count, err := countUnread(s.db.WithContext(gctx), userID)
		d.UnreadNotifications = count
		return err
	})
	g.Go(func() error {
		var recent []models.Expense
		err := s.db.WithContext(gctx).Preload("Category").
			Where("user_id = ? AND date >= ? AND date <= ?", userID, today.AddDate(0, 0, -recentExpenseDays), today).
			Order("date ASC").
			Limit(recentExpenseLimit).
			Find(&recent).Error
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		d.RecentExpenses = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	d.MonthlyBudgetRemaining = d.MonthlyBudget.Sub(d.MonthExpenses)
	return d, nil
}
