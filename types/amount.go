package types

import (
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
)

// Amount is an unsigned token quantity of up to 256 bits.
// All arithmetic is integer-only and truncates toward zero.
//
// The zero value of Amount is not usable; construct amounts with
// ZeroAmount, NewAmount or ParseAmount.
type Amount = sdkmath.Uint

// ScaleUint64 is the fixed-point denominator used by Ratio (1e18).
const ScaleUint64 uint64 = 1_000_000_000_000_000_000

var (
	// Scale is ScaleUint64 as an Amount.
	Scale = sdkmath.NewUint(ScaleUint64)

	// MaxUint is the largest representable amount, 2^256-1.
	MaxUint = sdkmath.NewUintFromBigInt(new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1)))

	// MaxTotalReserve bounds the aggregate reserve so that amount*ratio
	// never exceeds MaxUint.
	MaxTotalReserve = MaxUint.Quo(Scale)
)

// ZeroAmount returns an amount of zero.
func ZeroAmount() Amount { return sdkmath.ZeroUint() }

// NewAmount returns n as an Amount.
func NewAmount(n uint64) Amount { return sdkmath.NewUint(n) }

// ParseAmount parses a base-10 unsigned integer that fits in 256 bits.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("types: parse amount: empty string")
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("types: parse amount %q: not a base-10 integer", s)
	}
	if v.Sign() < 0 {
		return Amount{}, fmt.Errorf("types: parse amount %q: negative", s)
	}
	if v.BitLen() > 256 {
		return Amount{}, fmt.Errorf("types: parse amount %q: exceeds 256 bits", s)
	}
	return sdkmath.NewUintFromBigInt(v), nil
}

// MustParseAmount is like ParseAmount but panics on error.
func MustParseAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// MulDiv returns floor(a*b/c). The intermediate product is computed at
// arbitrary precision; the result must fit in 256 bits.
func MulDiv(a, b, c Amount) Amount {
	if c.IsZero() {
		panic("types: MulDiv division by zero")
	}
	p := new(big.Int).Mul(a.BigInt(), b.BigInt())
	return sdkmath.NewUintFromBigInt(p.Quo(p, c.BigInt()))
}

// SumAmounts adds the given amounts.
func SumAmounts(amounts ...Amount) Amount {
	total := ZeroAmount()
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// Account identifies a recipient, an administrator or any other party
// known to the asset ledger. The empty Account is the null account.
type Account string

// IsZero reports whether a is the null account.
func (a Account) IsZero() bool { return strings.TrimSpace(string(a)) == "" }

// String implements fmt.Stringer.
func (a Account) String() string { return string(a) }

// IsPositive reports whether a is initialised and greater than zero.
// A zero-value Amount reports false instead of panicking.
func IsPositive(a Amount) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return !a.IsZero()
}
