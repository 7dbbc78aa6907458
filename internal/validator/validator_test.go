package validator

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type moneyInput struct {
	Amount    decimal.Decimal  `validate:"required,gt=0,money"`
	Threshold *decimal.Decimal `validate:"omitempty,min=0,max=100"`
	Period    string           `validate:"omitempty,budget_period"`
	Frequency string           `validate:"omitempty,recurring_frequency"`
	Type      string           `validate:"omitempty,category_type"`
	Color     string           `validate:"omitempty,hex_color"`
	Kind      string           `validate:"omitempty,notification_type"`
}

func newValidate() *validator.Validate {
	v := validator.New()
	RegisterOn(v)
	return v
}

func TestDecimalFields(t *testing.T) {
	v := newValidate()
	threshold := decimal.NewFromInt(80)
	tooHigh := decimal.NewFromInt(120)

	tests := []struct {
		name  string
		input moneyInput
		ok    bool
	}{
		{"valid_amount", moneyInput{Amount: decimal.RequireFromString("12.50")}, true},
		{"zero_amount", moneyInput{Amount: decimal.Zero}, false},
		{"negative_amount", moneyInput{Amount: decimal.NewFromInt(-3)}, false},
		{"three_decimals", moneyInput{Amount: decimal.RequireFromString("1.005")}, false},
		{"threshold_in_range", moneyInput{Amount: decimal.NewFromInt(1), Threshold: &threshold}, true},
		{"threshold_above_100", moneyInput{Amount: decimal.NewFromInt(1), Threshold: &tooHigh}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			if tc.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestEnumTags(t *testing.T) {
	v := newValidate()
	one := decimal.NewFromInt(1)

	tests := []struct {
		name  string
		input moneyInput
		ok    bool
	}{
		{"monthly_period", moneyInput{Amount: one, Period: "monthly"}, true},
		{"weekly_period_rejected", moneyInput{Amount: one, Period: "weekly"}, false},
		{"weekly_frequency", moneyInput{Amount: one, Frequency: "weekly"}, true},
		{"hourly_frequency_rejected", moneyInput{Amount: one, Frequency: "hourly"}, false},
		{"expense_category", moneyInput{Amount: one, Type: "expense"}, true},
		{"transfer_category_rejected", moneyInput{Amount: one, Type: "transfer"}, false},
		{"short_hex", moneyInput{Amount: one, Color: "#fff"}, true},
		{"bad_hex", moneyInput{Amount: one, Color: "red"}, false},
		{"notification_type", moneyInput{Amount: one, Kind: "budget_exceeded"}, true},
		{"unknown_notification_type", moneyInput{Amount: one, Kind: "promo"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := v.Struct(tc.input)
			if tc.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tc.ok && err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
