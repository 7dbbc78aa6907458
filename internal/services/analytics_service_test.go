package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/period"
	"fintrack/internal/testutil"
)

func newAnalyticsService(db *gorm.DB) AnalyticsServicer {
	return NewAnalyticsService(db, NewSpendService(db), NewRecurringService(db))
}

func TestSummary(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)
	food := testutil.CreateTestCategoryNamed(t, db, user.ID, "Food", models.CategoryTypeExpense)
	rent := testutil.CreateTestCategoryNamed(t, db, user.ID, "Rent", models.CategoryTypeExpense)

	testutil.CreateTestExpense(t, db, user.ID, food.ID, "10.10", period.Date(2024, time.March, 1))
	testutil.CreateTestExpense(t, db, user.ID, food.ID, "20.20", period.Date(2024, time.March, 2))
	testutil.CreateTestExpense(t, db, user.ID, rent.ID, "900", period.Date(2024, time.March, 3))
	testutil.CreateTestExpense(t, db, user.ID, rent.ID, "900", period.Date(2024, time.April, 3))

	summary, err := svc.Summary(user.ID, period.Date(2024, time.March, 1), period.Date(2024, time.March, 31))
	testutil.AssertNoError(t, err)

	testutil.AssertDecimal(t, "930.30", summary.Total)
	if summary.TransactionCount != 3 {
		t.Errorf("expected 3 transactions, got %d", summary.TransactionCount)
	}
	if len(summary.Categories) != 2 || summary.Categories[0].CategoryName != "Rent" {
		t.Fatalf("expected Rent first, got %+v", summary.Categories)
	}
	testutil.AssertDecimal(t, "30.30", summary.Categories[1].Total)

	t.Run("inverted_range", func(t *testing.T) {
		_, err := svc.Summary(user.ID, period.Date(2024, time.March, 31), period.Date(2024, time.March, 1))
		testutil.AssertAppError(t, err, "INVALID_DATE_RANGE")
	})
}

func TestMonthlyTrend(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "5", period.Date(2023, time.November, 30))
	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "7", period.Date(2024, time.January, 1))
	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "8", period.Date(2024, time.January, 31))
	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "100", period.Date(2023, time.October, 31))

	trend, err := svc.MonthlyTrend(user.ID, 4, period.Date(2024, time.February, 10))
	testutil.AssertNoError(t, err)

	want := []struct {
		month string
		total string
		count int64
	}{
		{"2023-11", "5", 1},
		{"2023-12", "0", 0},
		{"2024-01", "15", 2},
		{"2024-02", "0", 0},
	}
	if len(trend) != len(want) {
		t.Fatalf("expected %d buckets, got %d", len(want), len(trend))
	}
	for i, w := range want {
		if trend[i].Month != w.month || trend[i].Count != w.count {
			t.Errorf("bucket %d: expected %s/%d, got %s/%d", i, w.month, w.count, trend[i].Month, trend[i].Count)
		}
		testutil.AssertDecimal(t, w.total, trend[i].Total)
	}
}

func TestCategoryPatterns(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategoryNamed(t, db, user.ID, "Coffee", models.CategoryTypeExpense)
	gone := testutil.CreateTestCategoryNamed(t, db, user.ID, "Old", models.CategoryTypeExpense)

	for _, amount := range []string{"3", "3", "4"} {
		testutil.CreateTestExpense(t, db, user.ID, cat.ID, amount, period.Date(2024, time.May, 2))
	}
	testutil.CreateTestExpense(t, db, user.ID, gone.ID, "1", period.Date(2024, time.May, 3))
	db.Delete(gone)

	patterns, err := svc.CategoryPatterns(user.ID, period.Date(2024, time.May, 1), period.Date(2024, time.May, 31))
	testutil.AssertNoError(t, err)

	if len(patterns) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(patterns))
	}
	testutil.AssertDecimal(t, "10", patterns[0].Total)
	testutil.AssertDecimal(t, "3.33", patterns[0].Average)
	if patterns[0].Count != 3 {
		t.Errorf("expected count 3, got %d", patterns[0].Count)
	}
	if patterns[1].CategoryName != models.UncategorizedName {
		t.Errorf("expected %s, got %s", models.UncategorizedName, patterns[1].CategoryName)
	}
}

func TestBudgetAnalysis(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := newAnalyticsService(db)
	user := testutil.CreateTestUser(t, db)
	cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

	testutil.CreateTestBudgetFor(t, db, &models.Budget{
		UserID: user.ID, CategoryID: cat.ID, Amount: testutil.Dec("200"), Period: models.BudgetPeriodMonthly,
		StartDate: period.Date(2024, time.March, 1), EndDate: period.Date(2024, time.March, 31),
	})
	testutil.CreateTestBudgetFor(t, db, &models.Budget{
		UserID: user.ID, CategoryID: cat.ID, Amount: testutil.Dec("200"), Period: models.BudgetPeriodMonthly,
		StartDate: period.Date(2024, time.May, 1), EndDate: period.Date(2024, time.May, 31),
	})
	testutil.CreateTestExpense(t, db, user.ID, cat.ID, "50", period.Date(2024, time.March, 30))

	analysis, err := svc.BudgetAnalysis(user.ID, period.Date(2024, time.March, 15), period.Date(2024, time.April, 15))
	testutil.AssertNoError(t, err)

	if len(analysis) != 1 {
		t.Fatalf("expected 1 overlapping budget, got %d", len(analysis))
	}
	testutil.AssertDecimal(t, "50", analysis[0].Spent)
	testutil.AssertDecimal(t, "150", analysis[0].Remaining)
	testutil.AssertDecimal(t, "25", analysis[0].PercentageUsed)
}
