package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// NotificationType classifies a notification.
type NotificationType string

const (
	NotificationBudgetAlert    NotificationType = "budget_alert"
	NotificationBudgetExceeded NotificationType = "budget_exceeded"
	NotificationBudgetCreated  NotificationType = "budget_created"
	NotificationMonthlySummary NotificationType = "monthly_summary"
	NotificationYearlySummary  NotificationType = "yearly_summary"
)

// Valid reports whether t is a known notification type.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationBudgetAlert, NotificationBudgetExceeded, NotificationBudgetCreated,
		NotificationMonthlySummary, NotificationYearlySummary:
		return true
	}
	return false
}

// NotificationMetadata is the structured payload stored alongside a
// notification as JSON text.
type NotificationMetadata struct {
	BudgetID       string           `json:"budget_id,omitempty"`
	CategoryID     string           `json:"category_id,omitempty"`
	Amount         *decimal.Decimal `json:"amount,omitempty"`
	Spent          *decimal.Decimal `json:"spent,omitempty"`
	PercentageUsed *decimal.Decimal `json:"percentage_used,omitempty"`
	Period         string           `json:"period,omitempty"`
}

// Value implements driver.Valuer.
func (m NotificationMetadata) Value() (driver.Value, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (m *NotificationMetadata) Scan(src any) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		*m = NotificationMetadata{}
		return nil
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into NotificationMetadata", src)
	}
	if len(data) == 0 {
		*m = NotificationMetadata{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Notification is an in-app message for a user. Only IsRead changes after creation.
type Notification struct {
	Base
	UserID   string               `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     NotificationType     `gorm:"type:varchar(32);not null;index" json:"type"`
	Title    string               `gorm:"not null" json:"title"`
	Message  string               `gorm:"type:text;not null" json:"message"`
	IsRead   bool                 `gorm:"not null;default:false;index" json:"is_read"`
	Metadata NotificationMetadata `gorm:"type:text" json:"metadata"`
}
