package services

import (
	"time"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/period"
)

// recurringService materialises due occurrences of recurring expenses.
type recurringService struct {
	db *gorm.DB
}

// NewRecurringService creates a new RecurringServicer.
func NewRecurringService(db *gorm.DB) RecurringServicer {
	return &recurringService{db: db}
}

// ProcessDue creates one expense for every recurring template of the user
// whose next date is on or before today, then advances the template. Each
// template is handled in its own transaction; a failing template is logged
// and reported while the others proceed. Templates more than one step behind
// catch up one occurrence per call.
func (s *recurringService) ProcessDue(userID string, today time.Time) (*RecurringResult, error) {
	day := period.Day(today)

	var templates []models.Expense
	if err := s.db.Where("user_id = ? AND is_recurring = ? AND next_recurring_date IS NOT NULL AND next_recurring_date <= ?", userID, true, day).
		Order("next_recurring_date ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &RecurringResult{Created: []models.Expense{}}
	for i := range templates {
		child, err := s.processOne(&templates[i])
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, RecurringFailure{ExpenseID: templates[i].ID, Error: err.Error()})
			logger.Get().Errorw("recurring expense processing failed",
				"error", err,
				"user_id", userID,
				"expense_id", templates[i].ID,
			)
			continue
		}
		result.Processed++
		result.Created = append(result.Created, *child)
	}
	return result, nil
}

func (s *recurringService) processOne(template *models.Expense) (*models.Expense, error) {
	if template.RecurringFrequency == nil {
		return nil, apperrors.ErrInvalidRecurrence
	}
	due := period.Day(*template.NextRecurringDate)

	// Monthly and yearly series aim at the template's own day so a run
	// started on the 31st returns to the 31st after a short month.
	next, err := period.NextAnchored(due, *template.RecurringFrequency, template.Date.Day())
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInvalidRecurrence, err)
	}

	parentID := template.ID
	child := &models.Expense{
		UserID:            template.UserID,
		CategoryID:        template.CategoryID,
		Amount:            template.Amount,
		Description:       template.Description,
		Date:              due,
		Note:              template.Note,
		RecurringParentID: &parentID,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(child).Error; err != nil {
			return err
		}
		// Advance only from the date that was copied.
		res := tx.Model(&models.Expense{}).
			Where("id = ? AND next_recurring_date = ?", template.ID, due).
			Update("next_recurring_date", next)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrRecurringTemplate, "recurring expense was advanced concurrently")
		}
		return nil
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRecurringTemplate, err)
	}

	template.NextRecurringDate = &next
	return child, nil
}

// ListRecurring returns the user's recurring templates ordered by next date.
func (s *recurringService) ListRecurring(userID string) ([]RecurringItem, error) {
	var templates []models.Expense
	if err := s.db.Preload("Category").
		Where("user_id = ? AND is_recurring = ?", userID, true).
		Order("next_recurring_date ASC").
		Find(&templates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	items := make([]RecurringItem, 0, len(templates))
	for i := range templates {
		e := &templates[i]
		item := RecurringItem{
			ExpenseID:    e.ID,
			Description:  e.Description,
			CategoryID:   e.CategoryID,
			CategoryName: e.CategoryName(),
			Amount:       e.Amount,
			StartedOn:    e.Date,
			NextDate:     e.NextRecurringDate,
		}
		if e.RecurringFrequency != nil {
			item.Frequency = *e.RecurringFrequency
		}
		items = append(items, item)
	}
	return items, nil
}
