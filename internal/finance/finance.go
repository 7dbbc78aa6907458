// Package finance holds the pure budget arithmetic: derived metrics, the alert
// decision, and the even split used to break a yearly budget into months.
// Nothing here touches storage.
package finance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/period"
)

var hundred = decimal.NewFromInt(100)

// Metrics are the read-time values derived from a budget and its spend.
type Metrics struct {
	Spent            decimal.Decimal `json:"spent"`
	Remaining        decimal.Decimal `json:"remaining"`
	PercentageUsed   decimal.Decimal `json:"percentage_used"`
	IsAlertTriggered bool            `json:"is_alert_triggered"`
}

// Compute derives budget metrics. Remaining may go negative. A zero amount
// yields 0% used. The threshold comparison uses the unrounded percentage;
// PercentageUsed is reported rounded to two places.
func Compute(amount, spent, threshold decimal.Decimal, alertEnabled bool) Metrics {
	pct := Percentage(spent, amount)
	return Metrics{
		Spent:            spent,
		Remaining:        amount.Sub(spent),
		PercentageUsed:   pct.Round(2),
		IsAlertTriggered: alertEnabled && pct.GreaterThanOrEqual(threshold),
	}
}

// ForBudget is Compute applied to a stored budget.
func ForBudget(b *models.Budget, spent decimal.Decimal) Metrics {
	return Compute(b.Amount, spent, b.AlertThreshold, b.IsAlertEnabled)
}

// Percentage returns part/whole*100, or zero when whole is zero.
func Percentage(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// SplitEvenly divides total into n shares of whole cents that sum exactly to
// total. Every share starts at total/n truncated to the cent and the leftover
// cents go one each to the earliest shares.
func SplitEvenly(total decimal.Decimal, n int) []decimal.Decimal {
	if n <= 0 {
		return nil
	}

	totalCents := RoundCents(total).Shift(2).IntPart()
	base := totalCents / int64(n)
	remainder := totalCents - base*int64(n)

	shares := make([]decimal.Decimal, n)
	for i := range shares {
		c := base
		if int64(i) < remainder {
			c++
		}
		shares[i] = decimal.New(c, -2)
	}
	return shares
}

// DecomposeYearly breaks a yearly budget into twelve monthly budgets, one per
// calendar month of its start year. Amounts come from SplitEvenly so the
// children always add back up to the parent. The returned budgets are unsaved
// and carry the parent's category, alert settings and ID.
func DecomposeYearly(b *models.Budget) []models.Budget {
	year := b.StartDate.Year()
	shares := SplitEvenly(b.Amount, 12)

	children := make([]models.Budget, 0, 12)
	for i, share := range shares {
		month := period.Date(year, time.Month(i+1), 1)
		parentID := b.ID
		children = append(children, models.Budget{
			UserID:         b.UserID,
			CategoryID:     b.CategoryID,
			Amount:         share,
			Period:         models.BudgetPeriodMonthly,
			StartDate:      month,
			EndDate:        period.MonthEnd(month),
			AlertThreshold: b.AlertThreshold,
			IsAlertEnabled: b.IsAlertEnabled,
			ParentBudgetID: &parentID,
		})
	}
	return children
}

// ValidAmount reports whether d is a positive amount with at most two decimals.
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.Equal(d.Truncate(2))
}

// ValidThreshold reports whether d is a percentage in [0, 100].
func ValidThreshold(d decimal.Decimal) bool {
	return !d.IsNegative() && d.LessThanOrEqual(hundred)
}

// Alert is what a user is told when a budget crosses its threshold.
type Alert struct {
	BudgetID       string          `json:"budget_id"`
	Title          string          `json:"title"`
	Message        string          `json:"message"`
	PercentageUsed decimal.Decimal `json:"percentage_used"`
	IsExceeded     bool            `json:"is_exceeded"`
}

// AlertDecision pairs the alert with the notification row that records it.
type AlertDecision struct {
	Alert        Alert
	Notification *models.Notification
}

// DecideAlert returns nil when the budget's alerts are disabled or its spend
// is below the threshold. Otherwise it builds the alert and the notification
// to persist; at or above 100% the alert is an overspend.
func DecideAlert(b *models.Budget, categoryName string, spent decimal.Decimal) *AlertDecision {
	if !b.IsAlertEnabled {
		return nil
	}

	pct := Percentage(spent, b.Amount)
	if pct.LessThan(b.AlertThreshold) {
		return nil
	}

	exceeded := pct.GreaterThanOrEqual(hundred)
	alert := Alert{
		BudgetID:       b.ID,
		PercentageUsed: pct.Round(2),
		IsExceeded:     exceeded,
	}

	notifType := models.NotificationBudgetAlert
	if exceeded {
		notifType = models.NotificationBudgetExceeded
		alert.Title = "Budget Exceeded!"
		alert.Message = fmt.Sprintf("You have exceeded your %s budget of %s. Total spent: %s",
			categoryName, FormatMoney(b.Amount), FormatMoney(spent))
	} else {
		alert.Title = "Budget Alert: Approaching Limit"
		alert.Message = fmt.Sprintf("Your %s budget is at %s%% of the limit (%s). Current spent: %s",
			categoryName, pct.StringFixed(1), FormatMoney(b.Amount), FormatMoney(spent))
	}

	amount := b.Amount
	spentCopy := spent
	pctRounded := alert.PercentageUsed
	return &AlertDecision{
		Alert: alert,
		Notification: &models.Notification{
			UserID:  b.UserID,
			Type:    notifType,
			Title:   alert.Title,
			Message: alert.Message,
			Metadata: models.NotificationMetadata{
				BudgetID:       b.ID,
				CategoryID:     b.CategoryID,
				Amount:         &amount,
				Spent:          &spentCopy,
				PercentageUsed: &pctRounded,
				Period:         string(b.Period),
			},
		},
	}
}

// FormatMoney renders an amount with exactly two decimals.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// RoundCents rounds d to whole cents.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Average returns total/count rounded to cents, or zero for an empty set.
func Average(total decimal.Decimal, count int64) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return RoundCents(total.Div(decimal.NewFromInt(count)))
}
