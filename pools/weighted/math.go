// Package weighted implements the constant-weighted-product invariant:
// prod(balance_i ^ weight_i) = k. All arguments and results are 18-decimal
// fixed-point integers; fees are applied by the caller.
package weighted

import (
	"errors"
	"math/big"

	"github.com/defistate/swap-router-go/fixedpoint"
)

var (
	// ErrMaxInRatio is returned when amountIn exceeds 30% of balanceIn.
	ErrMaxInRatio = errors.New("weighted: amount in exceeds max ratio")
	// ErrMaxOutRatio is returned when amountOut exceeds 30% of balanceOut.
	ErrMaxOutRatio = errors.New("weighted: amount out exceeds max ratio")
	// ErrZeroWeight is returned for missing or zero weights.
	ErrZeroWeight = errors.New("weighted: zero weight")
)

// maxInRatio / maxOutRatio bound single-swap size relative to the pool,
// matching the reference contracts (0.3e18).
var (
	maxInRatio  = big.NewInt(3e17)
	maxOutRatio = big.NewInt(3e17)
)

// ComputeOutGivenIn solves
//
//	amountOut = balanceOut * (1 - (balanceIn / (balanceIn + amountIn)) ^ (weightIn / weightOut))
//
// rounding the power up and the final product down, so the trader never
// receives more than the invariant allows.
func ComputeOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn *big.Int) (*big.Int, error) {
	if weightIn == nil || weightOut == nil || weightIn.Sign() == 0 || weightOut.Sign() == 0 {
		return nil, ErrZeroWeight
	}
	if amountIn.Cmp(fixedpoint.MulDown(balanceIn, maxInRatio)) > 0 {
		return nil, ErrMaxInRatio
	}

	denominator := new(big.Int).Add(balanceIn, amountIn)
	base, err := fixedpoint.DivUp(balanceIn, denominator)
	if err != nil {
		return nil, err
	}
	exponent, err := fixedpoint.DivDown(weightIn, weightOut)
	if err != nil {
		return nil, err
	}
	power, err := fixedpoint.PowUp(base, exponent)
	if err != nil {
		return nil, err
	}
	return fixedpoint.MulDown(balanceOut, fixedpoint.Complement(power)), nil
}

// ComputeInGivenOut solves
//
//	amountIn = balanceIn * ((balanceOut / (balanceOut - amountOut)) ^ (weightOut / weightIn) - 1)
//
// rounding every step up, so the trader never pays less than the invariant
// requires.
func ComputeInGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut *big.Int) (*big.Int, error) {
	if weightIn == nil || weightOut == nil || weightIn.Sign() == 0 || weightOut.Sign() == 0 {
		return nil, ErrZeroWeight
	}
	if amountOut.Cmp(fixedpoint.MulDown(balanceOut, maxOutRatio)) > 0 {
		return nil, ErrMaxOutRatio
	}

	base, err := fixedpoint.DivUp(balanceOut, new(big.Int).Sub(balanceOut, amountOut))
	if err != nil {
		return nil, err
	}
	exponent, err := fixedpoint.DivUp(weightOut, weightIn)
	if err != nil {
		return nil, err
	}
	power, err := fixedpoint.PowUp(base, exponent)
	if err != nil {
		return nil, err
	}
	ratio := new(big.Int).Sub(power, fixedpoint.One)
	return fixedpoint.MulUp(balanceIn, ratio), nil
}
