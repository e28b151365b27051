// Package fixedpoint implements 18-decimal fixed-point arithmetic over
// *big.Int with the same rounding semantics as the on-chain vault math.
// All amounts flowing through the routing core are "scaled 18" integers:
// 1.0 == 10^18. Rounding direction is always explicit in the function name
// so each call site can round against the trader.
package fixedpoint

import (
	"errors"
	"math/big"
)

var (
	// ErrZeroDivision is returned when a divisor is zero.
	ErrZeroDivision = errors.New("fixedpoint: division by zero")
	// ErrNegativeInput is returned when a signed value enters an
	// unsigned-only operation.
	ErrNegativeInput = errors.New("fixedpoint: negative input")
)

var (
	// One is 10^18, the fixed-point representation of 1.0.
	One = big.NewInt(1e18)
	// Two and Four are pre-scaled exponents special-cased by PowDown/PowUp.
	Two  = big.NewInt(2e18)
	Four = big.NewInt(4e18)

	zero = big.NewInt(0)
	one  = big.NewInt(1)

	// maxPowRelativeError is the upper bound (in wei) of the relative error
	// of the log-exp pow implementation.
	maxPowRelativeError = big.NewInt(10000)
)

// MulDown returns a*b/1e18 rounded down.
func MulDown(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, One)
}

// MulUp returns a*b/1e18 rounded up.
func MulUp(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	if p.Sign() == 0 {
		return p
	}
	p.Sub(p, one)
	p.Quo(p, One)
	return p.Add(p, one)
}

// DivDown returns a*1e18/b rounded down.
func DivDown(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrZeroDivision
	}
	if a.Sign() == 0 {
		return new(big.Int), nil
	}
	p := new(big.Int).Mul(a, One)
	return p.Quo(p, b), nil
}

// DivUp returns a*1e18/b rounded up.
func DivUp(a, b *big.Int) (*big.Int, error) {
	if b.Sign() == 0 {
		return nil, ErrZeroDivision
	}
	if a.Sign() == 0 {
		return new(big.Int), nil
	}
	p := new(big.Int).Mul(a, One)
	p.Sub(p, one)
	p.Quo(p, b)
	return p.Add(p, one), nil
}

// Complement returns 1e18-x for x < 1e18, and 0 otherwise.
func Complement(x *big.Int) *big.Int {
	if x.Cmp(One) >= 0 {
		return new(big.Int)
	}
	return new(big.Int).Sub(One, x)
}

// PowDown returns x^y with the result reduced by the maximum relative
// error of the underlying pow, so the true value is never underestimated
// in favor of the trader. Exponents of exactly 1, 2 and 4 short-circuit to
// plain multiplications, matching the reference contracts.
func PowDown(x, y *big.Int) (*big.Int, error) {
	switch {
	case y.Cmp(One) == 0:
		return new(big.Int).Set(x), nil
	case y.Cmp(Two) == 0:
		return MulDown(x, x), nil
	case y.Cmp(Four) == 0:
		sq := MulDown(x, x)
		return MulDown(sq, sq), nil
	}

	raw, err := Pow(x, y)
	if err != nil {
		return nil, err
	}
	maxError := MulUp(raw, maxPowRelativeError)
	maxError.Add(maxError, one)
	if raw.Cmp(maxError) < 0 {
		return new(big.Int), nil
	}
	return raw.Sub(raw, maxError), nil
}

// PowUp is the round-up counterpart of PowDown.
func PowUp(x, y *big.Int) (*big.Int, error) {
	switch {
	case y.Cmp(One) == 0:
		return new(big.Int).Set(x), nil
	case y.Cmp(Two) == 0:
		return MulUp(x, x), nil
	case y.Cmp(Four) == 0:
		sq := MulUp(x, x)
		return MulUp(sq, sq), nil
	}

	raw, err := Pow(x, y)
	if err != nil {
		return nil, err
	}
	maxError := MulUp(raw, maxPowRelativeError)
	maxError.Add(maxError, one)
	return raw.Add(raw, maxError), nil
}
