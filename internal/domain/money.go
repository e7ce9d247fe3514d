package domain

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a currency amount in cents. All booking and report arithmetic goes
// through it so totals never drift the way float sums do.
type Money int64

// Epsilon is the tolerance for "settled" checks: one cent.
const Epsilon Money = 1

var hundred = decimal.NewFromInt(100)

// Cents builds a Money from a raw cent count.
func Cents(c int64) Money { return Money(c) }

// FromDecimal rounds d to the nearest cent (half away from zero).
func FromDecimal(d decimal.Decimal) Money {
	return Money(d.Mul(hundred).Round(0).IntPart())
}

// FromFloat is meant for literals and legacy float columns only.
func FromFloat(f float64) Money {
	return FromDecimal(decimal.NewFromFloat(f))
}

// ParseMoney accepts "1234.56", "1234,56", "1.234,56", "1,234.56" and
// "R$ 1.234,56". The last of ',' or '.' is the decimal separator unless it
// repeats, in which case it only groups thousands. Groups must be three
// digits wide.
func ParseMoney(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	raw = strings.TrimPrefix(raw, "R$")
	raw = strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
	if raw == "" {
		return 0, ValidationError{Field: "amount", Msg: "empty amount"}
	}
	invalid := func(err error) error {
		return ValidationError{Field: "amount", Msg: fmt.Sprintf("invalid amount %q", s), Err: err}
	}
	norm, ok := normalizeAmount(raw)
	if !ok {
		return 0, invalid(nil)
	}
	d, err := decimal.NewFromString(norm)
	if err != nil {
		return 0, invalid(err)
	}
	return FromDecimal(d), nil
}

func normalizeAmount(raw string) (string, bool) {
	last := strings.LastIndexAny(raw, ",.")
	if last < 0 {
		return raw, true
	}
	sep := string(raw[last])
	group := ","
	if sep == "," {
		group = "."
	}
	if strings.Count(raw, sep) > 1 {
		if strings.Contains(raw, group) {
			return "", false
		}
		return ungroup(raw, sep)
	}
	whole, frac := raw[:last], raw[last+1:]
	if strings.Contains(whole, group) {
		var ok bool
		if whole, ok = ungroup(whole, group); !ok {
			return "", false
		}
	}
	return whole + "." + frac, true
}

// ungroup drops thousands separators, checking every group after the first
// is exactly three digits.
func ungroup(s, sep string) (string, bool) {
	parts := strings.Split(s, sep)
	head := strings.TrimPrefix(parts[0], "-")
	if head == "" || len(head) > 3 {
		return "", false
	}
	for _, p := range parts[1:] {
		if len(p) != 3 {
			return "", false
		}
	}
	return strings.Join(parts, ""), true
}

func (m Money) Add(o Money) Money { return m + o }
func (m Money) Sub(o Money) Money { return m - o }
func (m Money) Neg() Money        { return -m }

func (m Money) Abs() Money {
	if m < 0 {
		return -m
	}
	return m
}

func (m Money) IsZero() bool     { return m == 0 }
func (m Money) IsPositive() bool { return m > 0 }
func (m Money) IsNegative() bool { return m < 0 }

// Settled reports whether m is within one cent of zero.
func (m Money) Settled() bool { return m.Abs() <= Epsilon }

// MulRate multiplies by a decimal rate, rounding half away from zero to a cent.
func (m Money) MulRate(rate decimal.Decimal) Money {
	return Money(decimal.NewFromInt(int64(m)).Mul(rate).Round(0).IntPart())
}

// MulInt multiplies by a unit count.
func (m Money) MulInt(n int) Money { return m * Money(n) }

// Split divides m into n parts; the last part carries the remainder so the
// parts always sum exactly to m.
func (m Money) Split(n int) ([]Money, error) {
	if n < 1 {
		return nil, ValidationError{Field: "count", Msg: "must be at least 1"}
	}
	base := m / Money(n)
	parts := make([]Money, n)
	for i := 0; i < n-1; i++ {
		parts[i] = base
	}
	parts[n-1] = m - base*Money(n-1)
	return parts, nil
}

// Decimal returns the amount in currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(int64(m), -2)
}

// Float64 is for display and percentage math only.
func (m Money) Float64() float64 {
	f, _ := m.Decimal().Float64()
	return f
}

func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	v, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Scan reads DECIMAL columns, which the MySQL driver hands over as []byte.
func (m *Money) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = 0
		return nil
	case []byte:
		return m.scanString(string(v))
	case string:
		return m.scanString(v)
	case int64:
		*m = FromDecimal(decimal.NewFromInt(v))
		return nil
	case float64:
		*m = FromFloat(v)
		return nil
	default:
		return fmt.Errorf("money: unsupported scan type %T", src)
	}
}

func (m *Money) scanString(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("money: %w", err)
	}
	*m = FromDecimal(d)
	return nil
}

// Value stores Money as a fixed two-decimal string for DECIMAL(12,2) columns.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Sum adds amounts.
func Sum(amounts ...Money) Money {
	var total Money
	for _, a := range amounts {
		total += a
	}
	return total
}

func MaxMoney(a, b Money) Money {
	if a > b {
		return a
	}
	return b
}

func MinMoney(a, b Money) Money {
	if a < b {
		return a
	}
	return b
}

// Percent returns part/whole×100 rounded to two places; 0 when whole is 0.
func Percent(part, whole Money) float64 {
	if whole == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(part)).Mul(hundred).Div(decimal.NewFromInt(int64(whole))).Round(2)
	f, _ := pct.Float64()
	return f
}

// Ratio returns num/den×100 for counts, rounded to two places; 0 when den is 0.
func Ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	pct := decimal.NewFromInt(int64(num)).Mul(hundred).Div(decimal.NewFromInt(int64(den))).Round(2)
	f, _ := pct.Float64()
	return f
}
