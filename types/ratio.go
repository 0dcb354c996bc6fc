package types

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Ratio is a fraction in fixed point with scale 1e18: 0 is 0% and
// ScaleUint64 is 100%.
type Ratio uint64

// Common ratios.
const (
	ZeroRatio Ratio = 0
	FullRatio Ratio = Ratio(ScaleUint64)
)

// NewRatio returns v as a Ratio. Values above 1e18 are rejected.
func NewRatio(v uint64) (Ratio, error) {
	if v > ScaleUint64 {
		return 0, fmt.Errorf("types: ratio %d exceeds scale %d", v, ScaleUint64)
	}
	return Ratio(v), nil
}

// RatioFromPercent returns pct percent. pct must not exceed 100.
func RatioFromPercent(pct uint64) (Ratio, error) {
	if pct > 100 {
		return 0, fmt.Errorf("types: percent %d exceeds 100", pct)
	}
	return Ratio(pct * (ScaleUint64 / 100)), nil
}

// ParseRatio parses a ratio in one of three forms:
//
//	"230000000000000000"  raw 1e18-scaled integer
//	"0.23"                decimal fraction
//	"23%"                 percentage
//
// Values that do not land exactly on a 1e18 step are rejected.
func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("types: parse ratio: empty string")
	}

	shift := int32(0)
	body := s
	switch {
	case strings.HasSuffix(s, "%"):
		body = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		shift = 16
	case strings.ContainsAny(s, ".eE"):
		shift = 18
	}

	if shift == 0 {
		v, err := strconv.ParseUint(body, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("types: parse ratio %q: %w", s, err)
		}
		return NewRatio(v)
	}

	d, err := decimal.NewFromString(body)
	if err != nil {
		return 0, fmt.Errorf("types: parse ratio %q: %w", s, err)
	}
	scaled := d.Shift(shift)
	if !scaled.IsInteger() {
		return 0, fmt.Errorf("types: parse ratio %q: finer than 1e-18", s)
	}
	if scaled.IsNegative() {
		return 0, fmt.Errorf("types: parse ratio %q: negative", s)
	}
	v := scaled.BigInt()
	if !v.IsUint64() {
		return 0, fmt.Errorf("types: parse ratio %q: exceeds scale", s)
	}
	return NewRatio(v.Uint64())
}

// MustParseRatio is like ParseRatio but panics on error.
func MustParseRatio(s string) Ratio {
	r, err := ParseRatio(s)
	if err != nil {
		panic(err)
	}
	return r
}

// IsZero reports whether r is 0%.
func (r Ratio) IsZero() bool { return r == 0 }

// IsFull reports whether r is exactly 100%.
func (r Ratio) IsFull() bool { return r == FullRatio }

// Valid reports whether r lies within [0, 1e18].
func (r Ratio) Valid() bool { return uint64(r) <= ScaleUint64 }

// Apply returns floor(amount * r / 1e18).
func (r Ratio) Apply(amount Amount) Amount {
	if r.IsZero() || amount.IsZero() {
		return ZeroAmount()
	}
	return MulDiv(amount, NewAmount(uint64(r)), Scale)
}

// Uint64 returns the raw scaled value.
func (r Ratio) Uint64() uint64 { return uint64(r) }

// String returns the raw scaled integer.
func (r Ratio) String() string { return strconv.FormatUint(uint64(r), 10) }

// Percent returns r as a decimal percentage, e.g. "23" or "12.5".
func (r Ratio) Percent() string {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(r)), -16).String()
}

// MarshalText implements encoding.TextMarshaler using the raw form.
func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. Any form accepted by
// ParseRatio is allowed.
func (r *Ratio) UnmarshalText(data []byte) error {
	parsed, err := ParseRatio(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// UnmarshalJSON accepts either a JSON string or a bare JSON number.
func (r *Ratio) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	return r.UnmarshalText([]byte(s))
}
