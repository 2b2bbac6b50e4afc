package parking

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestTariffFee(t *testing.T) {
	tariff := NewTariff(decimal.RequireFromString("5.00"), decimal.RequireFromString("2.00"))

	tests := []struct {
		hours    int
		expected string
	}{
		{hours: 0, expected: "5.00"},
		{hours: 1, expected: "7.00"},
		{hours: 3, expected: "11.00"},
		{hours: 24, expected: "53.00"},
	}

	for _, tt := range tests {
		fee := tariff.Fee(tt.hours)
		if fee.StringFixed(2) != tt.expected {
			t.Errorf("Fee(%d) = %s, want %s", tt.hours, fee.StringFixed(2), tt.expected)
		}
	}
}

func TestTariffFeeHasNoFloatDrift(t *testing.T) {
	tariff := NewTariff(decimal.RequireFromString("0.10"), decimal.RequireFromString("0.20"))

	fee := tariff.Fee(1)
	if !fee.Equal(decimal.RequireFromString("0.30")) {
		t.Errorf("Expected fee 0.30, got %s", fee.String())
	}
}

func TestTariffAccessors(t *testing.T) {
	tariff := NewTariff(decimal.RequireFromString("5.00"), decimal.RequireFromString("2.00"))

	if !tariff.BasePrice().Equal(decimal.RequireFromString("5")) {
		t.Errorf("Expected base price 5, got %s", tariff.BasePrice())
	}
	if !tariff.HourlyRate().Equal(decimal.RequireFromString("2")) {
		t.Errorf("Expected hourly rate 2, got %s", tariff.HourlyRate())
	}
}
