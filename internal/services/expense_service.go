package services

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/finance"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/period"
)

// expenseService handles expense-related business logic.
type expenseService struct {
	db *gorm.DB
}

// NewExpenseService creates a new ExpenseServicer.
func NewExpenseService(db *gorm.DB) ExpenseServicer {
	return &expenseService{db: db}
}

// CreateExpense records an expense. Recurring expenses get their first
// next_recurring_date one step after Date.
func (s *expenseService) CreateExpense(userID string, input CreateExpenseInput) (*models.Expense, error) {
	if !finance.ValidAmount(input.Amount) {
		return nil, apperrors.ErrInvalidAmount
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
	}
	if input.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}
	if _, err := requireCategory(s.db, userID, input.CategoryID); err != nil {
		return nil, err
	}

	expense := &models.Expense{
		UserID:      userID,
		CategoryID:  input.CategoryID,
		Amount:      input.Amount,
		Description: description,
		Date:        period.Day(input.Date),
		Note:        input.Note,
		Receipt:     input.Receipt,
		IsRecurring: input.IsRecurring,
	}
	if err := applyRecurrence(expense, input.RecurringFrequency); err != nil {
		return nil, err
	}

	if err := s.db.Create(expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetExpenseByID(userID, expense.ID)
}

// GetUserExpenses returns the user's expenses, most recent first.
func (s *expenseService) GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error) {
	page.Defaults()

	base := s.db.Model(&models.Expense{}).Where("user_id = ?", userID)
	if filter.FromDate != nil {
		base = base.Where("date >= ?", period.Day(*filter.FromDate))
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", period.Day(*filter.ToDate))
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.IsRecurring != nil {
		base = base.Where("is_recurring = ?", *filter.IsRecurring)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var expenses []models.Expense
	if err := base.Preload("Category").
		Order("date DESC").Order("created_at DESC").
		Scopes(pagination.Paginate(page)).
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(expenses, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetExpensesInRange returns every expense dated within [from, to] in
// chronological order, without pagination.
func (s *expenseService) GetExpensesInRange(userID string, from, to time.Time) ([]models.Expense, error) {
	if period.Day(to).Before(period.Day(from)) {
		return nil, apperrors.ErrInvalidDateRange
	}

	var expenses []models.Expense
	if err := s.db.Preload("Category").
		Where("user_id = ? AND date >= ? AND date <= ?", userID, period.Day(from), period.Day(to)).
		Order("date ASC").Order("created_at ASC").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return expenses, nil
}

// GetExpenseByID returns an expense owned by the user.
func (s *expenseService) GetExpenseByID(userID, expenseID string) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Preload("Category").Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &expense, nil
}

// UpdateExpense applies the non-nil fields of input. The recurrence schedule
// is recomputed only when the date, the frequency or the recurring flag change.
func (s *expenseService) UpdateExpense(userID, expenseID string, input UpdateExpenseInput) (*models.Expense, error) {
	var expense models.Expense
	if err := s.db.Where("id = ? AND user_id = ?", expenseID, userID).First(&expense).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrExpenseNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if input.CategoryID != nil && *input.CategoryID != expense.CategoryID {
		if _, err := requireCategory(s.db, userID, *input.CategoryID); err != nil {
			return nil, err
		}
		expense.CategoryID = *input.CategoryID
	}
	if input.Amount != nil {
		if !finance.ValidAmount(*input.Amount) {
			return nil, apperrors.ErrInvalidAmount
		}
		expense.Amount = *input.Amount
	}
	if input.Description != nil {
		d := strings.TrimSpace(*input.Description)
		if d == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "description is required")
		}
		expense.Description = d
	}
	if input.Note != nil {
		expense.Note = *input.Note
	}
	if input.Receipt != nil {
		expense.Receipt = *input.Receipt
	}

	reschedule := false
	if input.Date != nil && !period.Day(*input.Date).Equal(period.Day(expense.Date)) {
		expense.Date = period.Day(*input.Date)
		reschedule = true
	}
	if input.IsRecurring != nil && *input.IsRecurring != expense.IsRecurring {
		expense.IsRecurring = *input.IsRecurring
		reschedule = true
	}
	freq := expense.RecurringFrequency
	if input.RecurringFrequency != nil && (freq == nil || *freq != *input.RecurringFrequency) {
		freq = input.RecurringFrequency
		reschedule = true
	}

	if reschedule {
		if err := applyRecurrence(&expense, freq); err != nil {
			return nil, err
		}
		if err := s.skipMaterialised(&expense); err != nil {
			return nil, err
		}
	}

	if err := s.db.Save(&expense).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetExpenseByID(userID, expense.ID)
}

// DeleteExpense soft-deletes an expense.
func (s *expenseService) DeleteExpense(userID, expenseID string) error {
	result := s.db.Where("id = ? AND user_id = ?", expenseID, userID).Delete(&models.Expense{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrExpenseNotFound
	}
	return nil
}

// applyRecurrence sets the frequency and next date of a recurring expense
// from its Date, and clears both when it is not recurring.
// skipMaterialised moves a rescheduled template past the latest occurrence it
// has already produced, so processing never creates the same day twice.
func (s *expenseService) skipMaterialised(e *models.Expense) error {
	if e.NextRecurringDate == nil {
		return nil
	}
	var latest []models.Expense
	if err := s.db.Unscoped().
		Where("recurring_parent_id = ?", e.ID).
		Order("date DESC").
		Limit(1).
		Find(&latest).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(latest) == 0 {
		return nil
	}

	next := *e.NextRecurringDate
	for !next.After(period.Day(latest[0].Date)) {
		n, err := period.NextAnchored(next, *e.RecurringFrequency, e.Date.Day())
		if err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidRecurrence, err)
		}
		next = n
	}
	e.NextRecurringDate = &next
	return nil
}

func applyRecurrence(e *models.Expense, freq *models.RecurringFrequency) error {
	if !e.IsRecurring {
		e.RecurringFrequency = nil
		e.NextRecurringDate = nil
		return nil
	}
	if freq == nil || !freq.Valid() {
		return apperrors.ErrInvalidRecurrence
	}

	next, err := period.Next(e.Date, *freq)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidRecurrence, err)
	}
	f := *freq
	e.RecurringFrequency = &f
	e.NextRecurringDate = &next
	return nil
}
