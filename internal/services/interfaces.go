package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/finance"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	UpdateProfile(userID string, firstName, lastName *string) (*models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
}

// CategoryServicer defines the contract for category-related business logic.
type CategoryServicer interface {
	CreateCategory(userID, name string, categoryType models.CategoryType, description, icon, color string) (*models.Category, error)
	GetUserCategories(userID string, categoryType *models.CategoryType, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID, name, description, icon, color string) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// CreateExpenseInput holds the fields of a new expense.
type CreateExpenseInput struct {
	CategoryID         string
	Amount             decimal.Decimal
	Description        string
	Date               time.Time
	Note               string
	Receipt            string
	IsRecurring        bool
	RecurringFrequency *models.RecurringFrequency
}

// UpdateExpenseInput holds optional expense changes; nil fields are left as is.
type UpdateExpenseInput struct {
	CategoryID         *string
	Amount             *decimal.Decimal
	Description        *string
	Date               *time.Time
	Note               *string
	Receipt            *string
	IsRecurring        *bool
	RecurringFrequency *models.RecurringFrequency
}

// ExpenseFilter holds optional filter parameters for listing expenses.
type ExpenseFilter struct {
	FromDate    *time.Time
	ToDate      *time.Time
	CategoryID  *string
	IsRecurring *bool
}

// ExpenseServicer defines the contract for expense-related business logic.
type ExpenseServicer interface {
	CreateExpense(userID string, input CreateExpenseInput) (*models.Expense, error)
	GetUserExpenses(userID string, page pagination.PageRequest, filter ExpenseFilter) (*pagination.PageResponse[models.Expense], error)
	GetExpensesInRange(userID string, from, to time.Time) ([]models.Expense, error)
	GetExpenseByID(userID, expenseID string) (*models.Expense, error)
	UpdateExpense(userID, expenseID string, input UpdateExpenseInput) (*models.Expense, error)
	DeleteExpense(userID, expenseID string) error
}

// SpendServicer sums expenses for budget evaluation.
type SpendServicer interface {
	TotalSpent(userID, categoryID string, start, end time.Time) (decimal.Decimal, error)
	TotalSpentTx(tx *gorm.DB, userID, categoryID string, start, end time.Time) (decimal.Decimal, error)
}

// BudgetWithMetrics is a budget together with its derived spend figures.
type BudgetWithMetrics struct {
	models.Budget
	finance.Metrics
}

// CreateBudgetInput holds the fields of a new budget. EndDate defaults to the
// end of the period containing StartDate; threshold defaults to 80 and alerts
// default to enabled.
type CreateBudgetInput struct {
	CategoryID     string
	Amount         decimal.Decimal
	Period         models.BudgetPeriod
	StartDate      time.Time
	EndDate        *time.Time
	AlertThreshold *decimal.Decimal
	IsAlertEnabled *bool
}

// CreateBudgetResult is returned from CreateBudget.
type CreateBudgetResult struct {
	Budget         BudgetWithMetrics `json:"budget"`
	MonthlyBudgets []models.Budget   `json:"monthly_budgets,omitempty"`
	Alert          *finance.Alert    `json:"alert"`
}

// UpdateBudgetInput holds optional budget changes; nil fields are left as is.
type UpdateBudgetInput struct {
	CategoryID     *string
	Amount         *decimal.Decimal
	Period         *models.BudgetPeriod
	StartDate      *time.Time
	EndDate        *time.Time
	AlertThreshold *decimal.Decimal
	IsAlertEnabled *bool
}

// BudgetFilter holds optional filter parameters for listing budgets.
type BudgetFilter struct {
	Period     *models.BudgetPeriod
	CategoryID *string
	ActiveOn   *time.Time
}

// BudgetProgress contains spending vs budget data for a budget's own range.
type BudgetProgress struct {
	BudgetID         string          `json:"budget_id"`
	StartDate        time.Time       `json:"start_date"`
	EndDate          time.Time       `json:"end_date"`
	Budgeted         decimal.Decimal `json:"budgeted"`
	Spent            decimal.Decimal `json:"spent"`
	Remaining        decimal.Decimal `json:"remaining"`
	PercentageUsed   decimal.Decimal `json:"percentage_used"`
	IsAlertTriggered bool            `json:"is_alert_triggered"`
}

// CategoryCap reports one budget's cap against its spend.
type CategoryCap struct {
	BudgetID         string              `json:"budget_id"`
	CategoryID       string              `json:"category_id"`
	CategoryName     string              `json:"category_name"`
	Period           models.BudgetPeriod `json:"period"`
	StartDate        time.Time           `json:"start_date"`
	EndDate          time.Time           `json:"end_date"`
	Cap              decimal.Decimal     `json:"cap"`
	Spent            decimal.Decimal     `json:"spent"`
	Remaining        decimal.Decimal     `json:"remaining"`
	PercentageUsed   decimal.Decimal     `json:"percentage_used"`
	IsAlertTriggered bool                `json:"is_alert_triggered"`
}

// MonthSummary groups the monthly budgets active in one calendar month.
type MonthSummary struct {
	Month         int                 `json:"month"`
	Budgets       []BudgetWithMetrics `json:"budgets"`
	TotalBudgeted decimal.Decimal     `json:"total_budgeted"`
	TotalSpent    decimal.Decimal     `json:"total_spent"`
}

// YearlySummary is the budget overview for one calendar year.
type YearlySummary struct {
	Year          int                 `json:"year"`
	YearlyBudgets []BudgetWithMetrics `json:"yearly_budgets"`
	Months        []MonthSummary      `json:"months"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	CreateBudget(userID string, input CreateBudgetInput) (*CreateBudgetResult, error)
	GetUserBudgets(userID string, page pagination.PageRequest, filter BudgetFilter) (*pagination.PageResponse[BudgetWithMetrics], error)
	GetBudgetByID(userID, budgetID string) (*BudgetWithMetrics, error)
	UpdateBudget(userID, budgetID string, input UpdateBudgetInput) (*BudgetWithMetrics, error)
	UpdateAlertSettings(userID, budgetID string, threshold *decimal.Decimal, enabled *bool) (*BudgetWithMetrics, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
	GetCategoryCaps(userID string) ([]CategoryCap, error)
	GetYearlySummary(userID string, year int) (*YearlySummary, error)
}

// AlertCheckResult summarises a pass over all of a user's budgets.
type AlertCheckResult struct {
	Alerts    []finance.Alert `json:"alerts"`
	Evaluated int             `json:"evaluated"`
	Failed    int             `json:"failed"`
}

// AlertServicer evaluates budgets against their alert thresholds.
type AlertServicer interface {
	Evaluate(userID, budgetID string) (*finance.Alert, error)
	EvaluateTx(tx *gorm.DB, budget *models.Budget) (*finance.AlertDecision, error)
	CheckAlerts(userID string) (*AlertCheckResult, error)
}

// NotificationPublisher pushes freshly stored notifications to live clients.
type NotificationPublisher interface {
	Publish(n *models.Notification)
}

// NotificationFilter holds optional filter parameters for listing notifications.
type NotificationFilter struct {
	UnreadOnly bool
	Type       *models.NotificationType
}

// NotificationServicer defines the contract for notification reads and read-state changes.
type NotificationServicer interface {
	GetUserNotifications(userID string, page pagination.PageRequest, filter NotificationFilter) (*pagination.PageResponse[models.Notification], error)
	CountUnread(userID string) (int64, error)
	MarkAsRead(userID, notificationID string) (*models.Notification, error)
	MarkAllAsRead(userID string) (int64, error)
}

// RecurringFailure records why one recurring expense could not be processed.
type RecurringFailure struct {
	ExpenseID string `json:"expense_id"`
	Error     string `json:"error"`
}

// RecurringResult summarises a recurring-expense processing run.
type RecurringResult struct {
	Processed int                `json:"processed"`
	Failed    int                `json:"failed"`
	Created   []models.Expense   `json:"created"`
	Failures  []RecurringFailure `json:"failures,omitempty"`
}

// RecurringItem describes a recurring expense template.
type RecurringItem struct {
	ExpenseID    string                    `json:"expense_id"`
	Description  string                    `json:"description"`
	CategoryID   string                    `json:"category_id"`
	CategoryName string                    `json:"category_name"`
	Amount       decimal.Decimal           `json:"amount"`
	Frequency    models.RecurringFrequency `json:"frequency"`
	StartedOn    time.Time                 `json:"started_on"`
	NextDate     *time.Time                `json:"next_date"`
}

// RecurringServicer materialises due recurring expenses.
type RecurringServicer interface {
	ProcessDue(userID string, today time.Time) (*RecurringResult, error)
	ListRecurring(userID string) ([]RecurringItem, error)
}

// CategoryTotal aggregates spend in one category.
type CategoryTotal struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Count        int64           `json:"count"`
	Average      decimal.Decimal `json:"average"`
}

// SpendingSummary totals spend over a date range.
type SpendingSummary struct {
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	Total            decimal.Decimal `json:"total"`
	TransactionCount int64           `json:"transaction_count"`
	Categories       []CategoryTotal `json:"categories"`
}

// MonthlyTotal is one bucket of the monthly trend.
type MonthlyTotal struct {
	Month string          `json:"month"`
	Start time.Time       `json:"start"`
	Total decimal.Decimal `json:"total"`
	Count int64           `json:"count"`
}

// AnalyticsServicer exposes read-only spending aggregates.
type AnalyticsServicer interface {
	Summary(userID string, from, to time.Time) (*SpendingSummary, error)
	MonthlyTrend(userID string, months int, now time.Time) ([]MonthlyTotal, error)
	CategoryPatterns(userID string, from, to time.Time) ([]CategoryTotal, error)
	BudgetAnalysis(userID string, from, to time.Time) ([]BudgetWithMetrics, error)
	Recurring(userID string) ([]RecurringItem, error)
}

// Dashboard is the landing-page snapshot for a user.
type Dashboard struct {
	TotalExpenses          decimal.Decimal  `json:"total_expenses"`
	MonthExpenses          decimal.Decimal  `json:"month_expenses"`
	MonthlyBudget          decimal.Decimal  `json:"monthly_budget"`
	MonthlyBudgetRemaining decimal.Decimal  `json:"monthly_budget_remaining"`
	UnreadNotifications    int64            `json:"unread_notifications"`
	RecentExpenses         []models.Expense `json:"recent_expenses"`
}

// DashboardServicer assembles the dashboard.
type DashboardServicer interface {
	GetDashboard(ctx context.Context, userID string, now time.Time) (*Dashboard, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any)
}
