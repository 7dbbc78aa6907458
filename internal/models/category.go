package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// Category groups expenses and is the unit budgets are set against.
type Category struct {
	Base
	UserID      string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name        string       `gorm:"not null" json:"name"`
	Type        CategoryType `gorm:"type:varchar(16);not null" json:"type"`
	Description string       `json:"description"`
	Icon        string       `json:"icon"`
	Color       string       `json:"color"`
}

// categoryName falls back to UncategorizedName when the category row is
// missing or soft-deleted.
func categoryName(c *Category) string {
	if c == nil || c.Name == "" {
		return UncategorizedName
	}
	return c.Name
}
