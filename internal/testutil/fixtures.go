package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/period"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email and the
// password "password123".
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		Role:     models.RoleUser,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestCategory creates a category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, fmt.Sprintf("Test Category %d", nextID()), categoryType)
}

// CreateTestCategoryNamed creates a category with the given name.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID, name string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestExpense creates a one-off expense on the given day.
func CreateTestExpense(t *testing.T, db *gorm.DB, userID, categoryID, amount string, date time.Time) *models.Expense {
	t.Helper()

	expense := &models.Expense{
		UserID:      userID,
		CategoryID:  categoryID,
		Amount:      Dec(amount),
		Description: fmt.Sprintf("Test Expense %d", nextID()),
		Date:        period.Day(date),
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test expense: %v", err)
	}
	return expense
}

// CreateTestRecurringExpense creates a recurring expense template whose next
// occurrence is nextDate.
func CreateTestRecurringExpense(t *testing.T, db *gorm.DB, userID, categoryID, amount string, date time.Time, freq models.RecurringFrequency, nextDate time.Time) *models.Expense {
	t.Helper()

	next := period.Day(nextDate)
	expense := &models.Expense{
		UserID:             userID,
		CategoryID:         categoryID,
		Amount:             Dec(amount),
		Description:        fmt.Sprintf("Recurring Expense %d", nextID()),
		Date:               period.Day(date),
		IsRecurring:        true,
		RecurringFrequency: &freq,
		NextRecurringDate:  &next,
	}
	if err := db.Create(expense).Error; err != nil {
		t.Fatalf("failed to create test recurring expense: %v", err)
	}
	return expense
}

// CreateTestBudget creates a monthly budget of 100.00 covering the current
// month, alerting at 80%.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, categoryID string) *models.Budget {
	t.Helper()

	start, end, _ := period.Range(period.Monthly, time.Now())
	return CreateTestBudgetFor(t, db, &models.Budget{
		UserID:     userID,
		CategoryID: categoryID,
		Amount:     Dec("100"),
		Period:     models.BudgetPeriodMonthly,
		StartDate:  start,
		EndDate:    end,
	})
}

// CreateTestBudgetFor persists b, filling in the alert defaults when unset.
func CreateTestBudgetFor(t *testing.T, db *gorm.DB, b *models.Budget) *models.Budget {
	t.Helper()

	if b.AlertThreshold.IsZero() {
		b.AlertThreshold = models.DefaultAlertThreshold
		b.IsAlertEnabled = true
	}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return b
}
