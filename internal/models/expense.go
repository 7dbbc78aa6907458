package models

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/period"
)

// RecurringFrequency is how often a recurring expense repeats.
type RecurringFrequency = period.Frequency

const (
	FrequencyDaily   = period.FrequencyDaily
	FrequencyWeekly  = period.FrequencyWeekly
	FrequencyMonthly = period.FrequencyMonthly
	FrequencyYearly  = period.FrequencyYearly
)

// Expense is a single outflow. A recurring expense doubles as the template
// that the recurring processor copies on each due date; copies point back at
// it through RecurringParentID.
type Expense struct {
	Base
	UserID             string              `gorm:"type:uuid;not null;index" json:"user_id"`
	CategoryID         string              `gorm:"type:uuid;not null;index" json:"category_id"`
	Amount             decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description        string              `gorm:"not null" json:"description"`
	Date               time.Time           `gorm:"type:date;not null;index" json:"date"`
	Note               string              `json:"note,omitempty"`
	Receipt            string              `json:"receipt,omitempty"`
	IsRecurring        bool                `gorm:"not null;default:false" json:"is_recurring"`
	RecurringFrequency *RecurringFrequency `gorm:"type:varchar(16)" json:"recurring_frequency,omitempty"`
	NextRecurringDate  *time.Time          `gorm:"type:date;index" json:"next_recurring_date,omitempty"`
	RecurringParentID  *string             `gorm:"type:uuid;index" json:"recurring_parent_id,omitempty"`

	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// CategoryName returns the preloaded category's name or UncategorizedName.
func (e *Expense) CategoryName() string {
	return categoryName(e.Category)
}
