// Package buffer prices wrap/unwrap edges between a wrapped token and its
// underlying asset. A buffer is not an invariant pool: the conversion is a
// straight rate multiply, rounded against the trader, with no swap fee.
//
// Rate convention: underlying units per 1e18 wrapped units, so
// underlying = wrapped * rate and wrapped = underlying / rate.
package buffer

import (
	"errors"
	"math/big"

	"github.com/defistate/swap-router-go/fixedpoint"
)

// ErrInvalidRate is returned for a missing or non-positive wrap rate.
var ErrInvalidRate = errors.New("buffer: invalid rate")

// WrapGivenUnderlying returns the wrapped amount minted for an exact
// underlying deposit, rounding down.
func WrapGivenUnderlying(amountUnderlying, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return fixedpoint.DivDown(amountUnderlying, rate)
}

// UnderlyingGivenWrap returns the underlying deposit required for an exact
// wrapped amount out, rounding up.
func UnderlyingGivenWrap(amountWrapped, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return fixedpoint.MulUp(amountWrapped, rate), nil
}

// UnwrapGivenWrapped returns the underlying released for an exact wrapped
// redemption, rounding down.
func UnwrapGivenWrapped(amountWrapped, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return fixedpoint.MulDown(amountWrapped, rate), nil
}

// WrappedGivenUnwrap returns the wrapped amount that must be redeemed for an
// exact underlying amount out, rounding up.
func WrappedGivenUnwrap(amountUnderlying, rate *big.Int) (*big.Int, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return fixedpoint.DivUp(amountUnderlying, rate)
}
