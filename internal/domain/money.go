package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var centsPerUnit = decimal.NewFromInt(100)

// Money is an exact, immutable amount in minor currency units (cents).
// Arithmetic never touches floating point; fractional inputs are rounded
// half-up at construction and nowhere else.
type Money struct {
	cents int64
}

// NewMoney constructs a Money from an integer cent count.
func NewMoney(minor int64) (Money, error) {
	if minor < 0 {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: minor}, nil
}

// MoneyFromMajorUnits converts a decimal major-unit amount (e.g. 10.5) to
// minor units, rounding half-up.
func MoneyFromMajorUnits(major float64) (Money, error) {
	return moneyFromDecimal(decimal.NewFromFloat(major).Mul(centsPerUnit))
}

// MoneyFromMajorString parses a decimal string such as "10.50" into minor
// units, rounding half-up.
func MoneyFromMajorString(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return moneyFromDecimal(d.Mul(centsPerUnit))
}

// MoneyFromRounded converts a fractional minor-unit count with explicit
// half-up rounding. Use NewMoney when the input is already integral.
func MoneyFromRounded(minor float64) (Money, error) {
	return moneyFromDecimal(decimal.NewFromFloat(minor))
}

func moneyFromDecimal(d decimal.Decimal) (Money, error) {
	rounded := d.Round(0)
	if rounded.IsNegative() {
		return Money{}, ErrNegativeAmount
	}
	return Money{cents: rounded.IntPart()}, nil
}

// Add returns the sum of the two amounts.
func (m Money) Add(other Money) Money {
	return Money{cents: m.cents + other.cents}
}

// Subtract returns the difference. It fails with ErrInsufficientFunds if the
// result would be negative; this is the single authoritative overdraft guard.
func (m Money) Subtract(other Money) (Money, error) {
	if other.cents > m.cents {
		return Money{}, ErrInsufficientFunds
	}
	return Money{cents: m.cents - other.cents}, nil
}

// Cents returns the amount in minor units.
func (m Money) Cents() int64 {
	return m.cents
}

// Equals reports exact equality. No epsilon tolerance is needed by
// construction.
func (m Money) Equals(other Money) bool {
	return m.cents == other.cents
}

// GreaterThan reports whether m exceeds other.
func (m Money) GreaterThan(other Money) bool {
	return m.cents > other.cents
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.cents == 0
}

// Format renders the amount as a grouped major-unit string, e.g. "12,345.67".
func (m Money) Format() string {
	fixed := decimal.NewFromInt(m.cents).Shift(-2).StringFixed(2)

	dot := strings.IndexByte(fixed, '.')
	intPart, fracPart := fixed[:dot], fixed[dot:]

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(fracPart)

	return b.String()
}

func (m Money) String() string {
	return m.Format()
}
