package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/finance"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

// alertService evaluates budgets and records the resulting notifications.
type alertService struct {
	db        *gorm.DB
	spend     SpendServicer
	publisher NotificationPublisher
}

// NewAlertService creates a new AlertServicer. publisher may be nil.
func NewAlertService(db *gorm.DB, spend SpendServicer, publisher NotificationPublisher) AlertServicer {
	return &alertService{db: db, spend: spend, publisher: publisher}
}

// Evaluate recomputes the budget's spend and, when the threshold is reached,
// stores a notification and returns the alert. Below the threshold, or with
// alerts disabled, it returns nil. Every call on a triggered budget stores a
// new notification.
func (s *alertService) Evaluate(userID, budgetID string) (*finance.Alert, error) {
	var decision *finance.AlertDecision
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var budget models.Budget
		if err := tx.Preload("Category").Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrBudgetNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		var err error
		decision, err = s.EvaluateTx(tx, &budget)
		return err
	})
	if err != nil {
		return nil, err
	}
	if decision == nil {
		return nil, nil
	}

	publish(s.publisher, decision.Notification)
	return &decision.Alert, nil
}

// EvaluateTx runs the alert decision for budget inside tx and persists the
// notification there. The caller publishes it after commit. budget.Category
// should be preloaded for the message to carry the category name.
func (s *alertService) EvaluateTx(tx *gorm.DB, budget *models.Budget) (*finance.AlertDecision, error) {
	if !budget.IsAlertEnabled {
		return nil, nil
	}

	spent, err := s.spend.TotalSpentTx(tx, budget.UserID, budget.CategoryID, budget.StartDate, budget.EndDate)
	if err != nil {
		return nil, err
	}

	decision := finance.DecideAlert(budget, budget.CategoryName(), spent)
	if decision == nil {
		return nil, nil
	}

	if err := tx.Create(decision.Notification).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return decision, nil
}

// CheckAlerts evaluates every alert-enabled budget of the user. A budget that
// fails is logged and counted; the rest are still evaluated.
func (s *alertService) CheckAlerts(userID string) (*AlertCheckResult, error) {
	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND is_alert_enabled = ?", userID, true).
		Order("start_date ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := &AlertCheckResult{Alerts: []finance.Alert{}}
	for _, b := range budgets {
		alert, err := s.Evaluate(userID, b.ID)
		if err != nil {
			result.Failed++
			logger.Get().Errorw("budget alert evaluation failed",
				"error", err,
				"user_id", userID,
				"budget_id", b.ID,
			)
			continue
		}

		result.Evaluated++
		if alert != nil {
			result.Alerts = append(result.Alerts, *alert)
		}
	}
	return result, nil
}

func publish(p NotificationPublisher, notifications ...*models.Notification) {
	if p == nil {
		return
	}
	for _, n := range notifications {
		if n != nil {
			p.Publish(n)
		}
	}
}
