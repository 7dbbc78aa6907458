package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/period"
	"fintrack/internal/testutil"
)

func TestGetDashboard(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewDashboardService(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
	now := time.Date(2024, time.March, 20, 18, 0, 0, 0, time.UTC)

	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "100", period.Date(2023, time.December, 1))
	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "40", period.Date(2024, time.February, 25))
	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "60", period.Date(2024, time.March, 5))

	testutil.CreateTestBudgetFor(t, db, &models.Budget{
		UserID: user.ID, CategoryID: cat.ID, Amount: testutil.Dec("300"), Period: models.BudgetPeriodMonthly,
		StartDate: period.Date(2024, time.March, 1), EndDate: period.Date(2024, time.March, 31),
	})
	testutil.CreateTestBudgetFor(t, db, &models.Budget{
		UserID: user.ID, CategoryID: cat.ID, Amount: testutil.Dec("5000"), Period: models.BudgetPeriodYearly,
		StartDate: period.Date(2024, time.January, 1), EndDate: period.Date(2024, time.December, 31),
	})
	createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)

	d, err := svc.GetDashboard(context.Background(), user.ID, now)
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "200", d.TotalExpenses)
	testutil.AssertDecimal(t, "60", d.MonthExpenses)
	testutil.AssertDecimal(t, "300", d.MonthlyBudget)
	testutil.AssertDecimal(t, "240", d.MonthlyBudgetRemaining)
	if d.UnreadNotifications != 1 {
		t.Errorf("expected 1 unread notification, got %d", d.UnreadNotifications)
	}
	if len(d.RecentExpenses) != 2 {
		t.Fatalf("expected 2 recent expenses, got %d", len(d.RecentExpenses))
	}
	if !d.RecentExpenses[0].Date.Before(d.RecentExpenses[1].Date) {
		t.Error("expected recent expenses in ascending date order")
	}
}

func TestGetDashboard_Cancelled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	user := testutil.CreateTestUser(t, db)
	createNotification(t, db, user.ID, models.NotificationBudgetAlert, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := countUnread(db.WithContext(ctx), user.ID); err == nil {
		t.Error("expected unread count to stop on a cancelled context")
	}
	if _, err := NewDashboardService(db).GetDashboard(ctx, user.ID, time.Now()); err == nil {
		t.Error("expected dashboard to fail on a cancelled context")
	}
}
