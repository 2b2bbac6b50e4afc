package parking

import "github.com/shopspring/decimal"

// Tariff is the fee policy applied when a vehicle leaves. It is immutable.
type Tariff struct {
	basePrice  decimal.Decimal
	hourlyRate decimal.Decimal
}

func NewTariff(basePrice, hourlyRate decimal.Decimal) Tariff {
	return Tariff{
		basePrice:  basePrice,
		hourlyRate: hourlyRate,
	}
}

func (t Tariff) BasePrice() decimal.Decimal {
	return t.basePrice
}

func (t Tariff) HourlyRate() decimal.Decimal {
	return t.hourlyRate
}

// Fee returns basePrice + hourlyRate*hours.
func (t Tariff) Fee(hours int) decimal.Decimal {
	return t.basePrice.Add(t.hourlyRate.Mul(decimal.NewFromInt(int64(hours))))
}
