package payment

import (
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

// Money is an amount in the currency's minor unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney validates the currency and amount.
func NewMoney(amount int64, code string) (Money, error) {
	unit, err := ValidateCurrency(code)
	if err != nil {
		return Money{}, err
	}
	if amount < 0 {
		return Money{}, fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	return Money{Amount: amount, Currency: unit}, nil
}

// ValidateCurrency returns the upper-cased ISO 4217 code.
func ValidateCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedCurrency, code)
	}
	return unit.String(), nil
}

// MinorUnits returns the number of decimals of code's minor unit.
func MinorUnits(code string) int {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

func (m Money) String() string {
	scale := MinorUnits(m.Currency)
	if scale == 0 {
		return fmt.Sprintf("%d %s", m.Amount, m.Currency)
	}
	div := int64(1)
	for i := 0; i < scale; i++ {
		div *= 10
	}
	return fmt.Sprintf("%d.%0*d %s", m.Amount/div, scale, m.Amount%div, m.Currency)
}
