package models

import "github.com/shopspring/decimal"

const (
	// MoneyScale is the number of decimal places an amount may carry.
	MoneyScale = 2

	// MaxMoneyDigits caps the integer digits of an amount.
	MaxMoneyDigits = 15
)

var moneyLimit = decimal.New(1, MaxMoneyDigits)

// ValidMoney reports whether d has at most MoneyScale decimal places and fewer
// than MaxMoneyDigits integer digits. Exponents outside that range are rejected
// before any rescaling.
func ValidMoney(d decimal.Decimal) bool {
	exp := d.Exponent()
	if exp > MaxMoneyDigits || exp < -2*MaxMoneyDigits {
		return false
	}
	return d.Equal(d.Truncate(MoneyScale)) && d.Abs().LessThan(moneyLimit)
}
