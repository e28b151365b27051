package engine

import (
	"fmt"
	"math/big"

	"github.com/defistate/swap-router-go/fixedpoint"
	"github.com/defistate/swap-router-go/pools"
	"github.com/defistate/swap-router-go/pools/buffer"
	"github.com/defistate/swap-router-go/pools/gyroe"
	"github.com/defistate/swap-router-go/pools/quantamm"
	"github.com/defistate/swap-router-go/pools/reclamm"
	"github.com/defistate/swap-router-go/pools/stable"
	"github.com/defistate/swap-router-go/pools/weighted"
)

// Swap prices one hop. amountScaled18 is the fixed side of the trade in
// 18-decimal token units (decimal-scaled, not rate-adjusted); the return
// value is the computed side in the same representation.
//
// For GivenIn the swap fee is taken from the input before the invariant
// math; for GivenOut the computed input is grossed up by the fee afterwards.
// Price rates are applied around the math so that every rounding step favors
// the pool.
func Swap(pool *pools.Pool, indexIn, indexOut int, amountScaled18 *big.Int, kind SwapKind, currentTimestamp uint64) (*big.Int, error) {
	if amountScaled18 == nil || amountScaled18.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount", ErrInvalidSwap)
	}
	if indexIn == indexOut || indexIn < 0 || indexOut < 0 ||
		indexIn >= len(pool.Tokens) || indexOut >= len(pool.Tokens) {
		return nil, fmt.Errorf("%w: token indexes %d -> %d in %d-token pool", ErrInvalidSwap, indexIn, indexOut, len(pool.Tokens))
	}

	if pool.Type == pools.Buffer {
		return swapBuffer(pool, indexIn, amountScaled18, kind)
	}

	fee := pool.EffectiveSwapFee()
	if fee == nil {
		fee = new(big.Int)
	}

	rateIn := pool.Tokens[indexIn].Rate()
	rateOut := pool.Tokens[indexOut].Rate()

	balances := make([]*big.Int, len(pool.Tokens))
	for i := range pool.Tokens {
		if pool.Tokens[i].BalanceScaled18 == nil {
			return nil, fmt.Errorf("%w: missing balance for token %d", ErrPoolMathInvalid, i)
		}
		balances[i] = fixedpoint.MulDown(pool.Tokens[i].BalanceScaled18, pool.Tokens[i].Rate())
	}

	switch kind {
	case GivenIn:
		// Fee off the top, then into rate-adjusted units rounding down.
		given := new(big.Int).Sub(amountScaled18, fixedpoint.MulUp(amountScaled18, fee))
		if given.Sign() <= 0 {
			return nil, fmt.Errorf("%w: amount consumed by fee", ErrPoolMathInvalid)
		}
		given = fixedpoint.MulDown(given, rateIn)

		out, err := invariantSwap(pool, balances, indexIn, indexOut, given, kind, currentTimestamp)
		if err != nil {
			return nil, err
		}
		// Back out of rate-adjusted units, still rounding down.
		result, err := fixedpoint.DivDown(out, rateOut)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPoolMathInvalid, err)
		}
		return result, nil

	case GivenOut:
		// The fixed output enters the math rate-adjusted, rounding up.
		given := fixedpoint.MulUp(amountScaled18, rateOut)

		in, err := invariantSwap(pool, balances, indexIn, indexOut, given, kind, currentTimestamp)
		if err != nil {
			return nil, err
		}
		result, err := fixedpoint.DivUp(in, rateIn)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPoolMathInvalid, err)
		}
		// Gross the input up so the pool nets the fee.
		result, err = fixedpoint.DivUp(result, fixedpoint.Complement(fee))
		if err != nil {
			return nil, fmt.Errorf("%w: fee leaves no input", ErrPoolMathInvalid)
		}
		return result, nil
	}
	return nil, fmt.Errorf("%w: swap kind %d", ErrInvalidSwap, kind)
}

// invariantSwap dispatches the rate-adjusted, fee-exclusive amount to the
// pool type's math.
func invariantSwap(pool *pools.Pool, balances []*big.Int, indexIn, indexOut int, amount *big.Int, kind SwapKind, currentTimestamp uint64) (*big.Int, error) {
	var (
		result *big.Int
		err    error
	)

	switch pool.Type {
	case pools.Weighted:
		wIn, wOut := pool.Tokens[indexIn].Weight, pool.Tokens[indexOut].Weight
		if kind == GivenIn {
			result, err = weighted.ComputeOutGivenIn(balances[indexIn], wIn, balances[indexOut], wOut, amount)
		} else {
			result, err = weighted.ComputeInGivenOut(balances[indexIn], wIn, balances[indexOut], wOut, amount)
		}

	case pools.Stable:
		if pool.Stable == nil || pool.Stable.Amp == nil {
			return nil, fmt.Errorf("%w: missing stable params", ErrPoolMathInvalid)
		}
		if kind == GivenIn {
			result, err = stable.ComputeOutGivenIn(pool.Stable.Amp, balances, indexIn, indexOut, amount)
		} else {
			result, err = stable.ComputeInGivenOut(pool.Stable.Amp, balances, indexIn, indexOut, amount)
		}

	case pools.GyroE:
		if pool.GyroE == nil {
			return nil, fmt.Errorf("%w: missing gyro params", ErrPoolMathInvalid)
		}
		if kind == GivenIn {
			result, err = gyroe.CalcOutGivenIn(balances, amount, indexIn == 0, pool.GyroE)
		} else {
			result, err = gyroe.CalcInGivenOut(balances, amount, indexIn == 0, pool.GyroE)
		}

	case pools.ReClamm:
		if pool.ReClamm == nil {
			return nil, fmt.Errorf("%w: missing reclamm params", ErrPoolMathInvalid)
		}
		if kind == GivenIn {
			result, err = reclamm.CalcOutGivenIn(balances, amount, indexIn == 0, currentTimestamp, pool.ReClamm)
		} else {
			result, err = reclamm.CalcInGivenOut(balances, amount, indexIn == 0, currentTimestamp, pool.ReClamm)
		}

	case pools.QuantAMMWeighted:
		if pool.QuantAMM == nil {
			return nil, fmt.Errorf("%w: missing quantamm params", ErrPoolMathInvalid)
		}
		if kind == GivenIn {
			result, err = quantamm.ComputeOutGivenIn(balances[indexIn], indexIn, balances[indexOut], indexOut, amount, currentTimestamp, pool.QuantAMM)
		} else {
			result, err = quantamm.ComputeInGivenOut(balances[indexIn], indexIn, balances[indexOut], indexOut, amount, currentTimestamp, pool.QuantAMM)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPoolType, pool.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s pool %s: %v", ErrPoolMathInvalid, pool.Type, pool.Address, err)
	}
	return result, nil
}

// swapBuffer prices a wrap/unwrap hop. Buffers take no fee and carry no
// price rates; token 0 is the underlying asset, token 1 the wrapped one.
func swapBuffer(pool *pools.Pool, indexIn int, amount *big.Int, kind SwapKind) (*big.Int, error) {
	rate := pool.BufferRate
	wrapping := indexIn == 0

	var (
		result *big.Int
		err    error
	)
	switch {
	case kind == GivenIn && wrapping:
		result, err = buffer.WrapGivenUnderlying(amount, rate)
	case kind == GivenIn && !wrapping:
		result, err = buffer.UnwrapGivenWrapped(amount, rate)
	case kind == GivenOut && wrapping:
		result, err = buffer.UnderlyingGivenWrap(amount, rate)
	default:
		result, err = buffer.WrappedGivenUnwrap(amount, rate)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: buffer %s: %v", ErrPoolMathInvalid, pool.Address, err)
	}
	return result, nil
}
