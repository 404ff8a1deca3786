package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits carried by every credit amount.
const MoneyScale int32 = 2

// Cent is the smallest representable credit amount.
var Cent = decimal.New(1, -MoneyScale)

// ParseMoney parses a decimal credit amount. Amounts with more than two
// fractional digits are rejected rather than rounded.
func ParseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if !IsMoney(d) {
		return decimal.Zero, fmt.Errorf("invalid amount %q: at most %d decimal places allowed", s, MoneyScale)
	}
	return d, nil
}

// IsMoney reports whether d is representable in whole cents.
func IsMoney(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// SumStakes totals stake amounts.
func SumStakes(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}
