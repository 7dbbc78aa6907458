package models

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/period"
)

// BudgetPeriod represents the period type for a budget
type BudgetPeriod = period.Kind

const (
	BudgetPeriodMonthly = period.Monthly
	BudgetPeriodYearly  = period.Yearly
)

// DefaultAlertThreshold is the percentage at which alerts fire when the
// caller does not choose one.
var DefaultAlertThreshold = decimal.NewFromInt(80)

// Budget caps spending in one category over [StartDate, EndDate]. Spent,
// remaining and percentage used are derived on read and never stored.
type Budget struct {
	Base
	UserID         string          `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID     string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Period         BudgetPeriod    `gorm:"type:varchar(16);not null" json:"period"`
	StartDate      time.Time       `gorm:"type:date;not null;index" json:"start_date"`
	EndDate        time.Time       `gorm:"type:date;not null;index" json:"end_date"`
	AlertThreshold decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"alert_threshold"`
	IsAlertEnabled bool            `gorm:"not null" json:"is_alert_enabled"`
	ParentBudgetID *string         `gorm:"type:uuid;index" json:"parent_budget_id,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// CategoryName returns the preloaded category's name or UncategorizedName.
func (b *Budget) CategoryName() string {
	return categoryName(b.Category)
}
