package services

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/finance"
	"fintrack/internal/models"
	"fintrack/internal/period"
)

// spendService sums expenses for budget evaluation.
type spendService struct {
	db *gorm.DB
}

// NewSpendService creates a new SpendServicer.
func NewSpendService(db *gorm.DB) SpendServicer {
	return &spendService{db: db}
}

// TotalSpent sums the user's expenses in one category dated within
// [start, end], both ends inclusive. No matches yield zero.
func (s *spendService) TotalSpent(userID, categoryID string, start, end time.Time) (decimal.Decimal, error) {
	return s.TotalSpentTx(s.db, userID, categoryID, start, end)
}

// TotalSpentTx is TotalSpent run on the given handle, usually a transaction.
func (s *spendService) TotalSpentTx(tx *gorm.DB, userID, categoryID string, start, end time.Time) (decimal.Decimal, error) {
	return sumAmount(tx.Model(&models.Expense{}).
		Where("user_id = ? AND category_id = ? AND date >= ? AND date <= ?",
			userID, categoryID, period.Day(start), period.Day(end)))
}

// sumAmount returns COALESCE(SUM(amount), 0) over q rounded to cents.
func sumAmount(q *gorm.DB) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := q.Select("COALESCE(SUM(amount), 0)").Row().Scan(&total); err != nil {
		return decimal.Zero, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return finance.RoundCents(total), nil
}
