package services

import (
	"testing"
	"time"

	"fintrack/internal/models"
	"fintrack/internal/period"
	"fintrack/internal/testutil"
)

func TestTotalSpent(t *testing.T) {
	t.Run("no_expenses_is_zero", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSpendService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		total, err := svc.TotalSpent(user.ID, cat.ID, period.Date(2024, time.March, 1), period.Date(2024, time.March, 31))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "0", total)
	})

	t.Run("range_is_inclusive_and_scoped", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSpendService(db)
		user := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		food := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)
		rent := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		testutil.CreateTestExpense(t, db, user.ID, food.ID, "10.10", period.Date(2024, time.March, 1))
		testutil.CreateTestExpense(t, db, user.ID, food.ID, "20.20", period.Date(2024, time.March, 31))
		testutil.CreateTestExpense(t, db, user.ID, food.ID, "0.10", period.Date(2024, time.March, 15))
		testutil.CreateTestExpense(t, db, user.ID, food.ID, "99", period.Date(2024, time.April, 1))
		testutil.CreateTestExpense(t, db, user.ID, food.ID, "99", period.Date(2024, time.February, 29))
		testutil.CreateTestExpense(t, db, user.ID, rent.ID, "99", period.Date(2024, time.March, 10))
		testutil.CreateTestExpense(t, db, other.ID, food.ID, "99", period.Date(2024, time.March, 10))

		total, err := svc.TotalSpent(user.ID, food.ID, period.Date(2024, time.March, 1), period.Date(2024, time.March, 31))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "30.40", total)
	})

	t.Run("additive_over_adjacent_ranges", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSpendService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		for day := 1; day <= 28; day += 3 {
			testutil.CreateTestExpense(t, db, user.ID, cat.ID, "3.33", period.Date(2024, time.February, day))
		}

		whole, err := svc.TotalSpent(user.ID, cat.ID, period.Date(2024, time.February, 1), period.Date(2024, time.February, 29))
		testutil.AssertNoError(t, err)
		first, err := svc.TotalSpent(user.ID, cat.ID, period.Date(2024, time.February, 1), period.Date(2024, time.February, 14))
		testutil.AssertNoError(t, err)
		second, err := svc.TotalSpent(user.ID, cat.ID, period.Date(2024, time.February, 15), period.Date(2024, time.February, 29))
		testutil.AssertNoError(t, err)

		if !whole.Equal(first.Add(second)) {
			t.Errorf("expected %s + %s to equal %s", first, second, whole)
		}
		testutil.AssertDecimal(t, "33.30", whole)
	})

	t.Run("soft_deleted_expenses_ignored", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewSpendService(db)
		user := testutil.CreateTestUser(t, db)
		cat := testutil.CreateTestCategory(t, db, user.ID, models.CategoryTypeExpense)

		testutil.CreateTestExpense(t, db, user.ID, cat.ID, "40", period.Date(2024, time.May, 5))
		gone := testutil.CreateTestExpense(t, db, user.ID, cat.ID, "60", period.Date(2024, time.May, 6))
		db.Delete(gone)

		total, err := svc.TotalSpent(user.ID, cat.ID, period.Date(2024, time.May, 1), period.Date(2024, time.May, 31))
		testutil.AssertNoError(t, err)
		testutil.AssertDecimal(t, "40", total)
	})
}
