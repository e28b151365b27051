// Package reclamm implements the readjusting concentrated-liquidity AMM: a
// constant-product curve over (real + virtual) balances whose price range
// follows a time-interpolated fourth root of the min/max price ratio.
//
// The fourth-root ratio moves linearly between the start and end
// checkpoints over the update window and is clamped outside it. Virtual
// balances are recomputed from the current real balances so that the pool's
// centeredness C = (Ra*Vb)/(Rb*Va) is preserved while the price range
// matches the interpolated ratio; see DESIGN.md for the derivation of the
// quadratic below.
package reclamm

import (
	"errors"
	"math/big"

	"github.com/defistate/swap-router-go/fixedpoint"
	"github.com/defistate/swap-router-go/pools"
)

var (
	// ErrInvalidState is returned when the ratio state cannot describe a
	// price range (ratio <= 1) or virtual balances are missing.
	ErrInvalidState = errors.New("reclamm: invalid pool state")
	// ErrInsufficientLiquidity is returned when amountOut meets or exceeds
	// the real balance.
	ErrInsufficientLiquidity = errors.New("reclamm: insufficient liquidity")
	// ErrTwoTokensOnly is returned for pools that are not two-token.
	ErrTwoTokensOnly = errors.New("reclamm: exactly two balances required")
)

// FourthRootPriceRatio linearly interpolates between the start and end
// checkpoints, clamped outside [startTime, endTime].
func FourthRootPriceRatio(currentTimestamp uint64, p *pools.ReClammParams) *big.Int {
	start, end := p.StartFourthRootPriceRatio, p.EndFourthRootPriceRatio
	switch {
	case currentTimestamp <= p.PriceRatioUpdateStartTime || p.PriceRatioUpdateEndTime <= p.PriceRatioUpdateStartTime:
		return new(big.Int).Set(start)
	case currentTimestamp >= p.PriceRatioUpdateEndTime:
		return new(big.Int).Set(end)
	}

	elapsed := new(big.Int).SetUint64(currentTimestamp - p.PriceRatioUpdateStartTime)
	window := new(big.Int).SetUint64(p.PriceRatioUpdateEndTime - p.PriceRatioUpdateStartTime)

	delta := new(big.Int).Sub(end, start)
	delta.Mul(delta, elapsed)
	delta.Quo(delta, window)
	return delta.Add(delta, start)
}

// VirtualBalances recomputes the virtual balances for the interpolated
// price ratio, preserving pool centeredness.
//
// With q = sqrt(priceRatio) and C = (Ra*Vb)/(Rb*Va) <= 1 (roles swapped
// when above center), the undervalued side solves
//
//	C*(q-1)*Vu^2 - Rb*(C+1)*Vu - Ra*Rb = 0   (for Vu = Va, k = C*Rb/Ra)
//
// whose positive root is
//
//	Vu = Ru * (1 + C + sqrt(1 + C*(C + 4q - 2))) / (2*C*(q - 1))
func VirtualBalances(balanceA, balanceB *big.Int, currentTimestamp uint64, p *pools.ReClammParams) (*big.Int, *big.Int, error) {
	if p.LastVirtualBalanceA == nil || p.LastVirtualBalanceB == nil ||
		p.LastVirtualBalanceA.Sign() <= 0 || p.LastVirtualBalanceB.Sign() <= 0 {
		return nil, nil, ErrInvalidState
	}

	fourthRoot := FourthRootPriceRatio(currentTimestamp, p)
	sqrtRatio := fixedpoint.MulDown(fourthRoot, fourthRoot)
	if sqrtRatio.Cmp(fixedpoint.One) <= 0 {
		return nil, nil, ErrInvalidState
	}

	// Centeredness from the last known virtual balances; keep C <= 1 by
	// orienting the computation around the undervalued side.
	num := fixedpoint.MulDown(balanceA, p.LastVirtualBalanceB)
	den := fixedpoint.MulDown(balanceB, p.LastVirtualBalanceA)
	if num.Sign() == 0 || den.Sign() == 0 {
		return nil, nil, ErrInvalidState
	}

	aUndervalued := num.Cmp(den) <= 0
	var c *big.Int
	var err error
	if aUndervalued {
		c, err = fixedpoint.DivDown(num, den)
	} else {
		c, err = fixedpoint.DivDown(den, num)
	}
	if err != nil {
		return nil, nil, err
	}
	if c.Sign() == 0 {
		c = big.NewInt(1)
	}

	ru, ro := balanceA, balanceB
	if !aUndervalued {
		ru, ro = balanceB, balanceA
	}

	// sqrt(1 + C*(C + 4q - 2)), all 18-decimal.
	inner := new(big.Int).Mul(big.NewInt(4), sqrtRatio)
	inner.Add(inner, c)
	inner.Sub(inner, new(big.Int).Mul(big.NewInt(2), fixedpoint.One))
	inner = fixedpoint.MulDown(c, inner)
	inner.Add(inner, fixedpoint.One)
	root := sqrt18(inner)

	numerator := new(big.Int).Add(fixedpoint.One, c)
	numerator.Add(numerator, root)
	numerator = fixedpoint.MulDown(ru, numerator)

	denominator := new(big.Int).Sub(sqrtRatio, fixedpoint.One)
	denominator = fixedpoint.MulDown(c, denominator)
	denominator.Mul(denominator, big.NewInt(2))
	if denominator.Sign() == 0 {
		return nil, nil, ErrInvalidState
	}

	vu, err := fixedpoint.DivDown(numerator, denominator)
	if err != nil {
		return nil, nil, err
	}
	// Counterpart from the centeredness relation: Vo = Ro*Vu / (Ru*C).
	voNum := new(big.Int).Mul(ro, vu)
	voDen := fixedpoint.MulDown(ru, c)
	if voDen.Sign() == 0 {
		return nil, nil, ErrInvalidState
	}
	vo := voNum.Quo(voNum, voDen)

	if aUndervalued {
		return vu, vo, nil
	}
	return vo, vu, nil
}

// CalcOutGivenIn runs the constant-product formula over real + virtual
// balances, rounding down.
func CalcOutGivenIn(balances []*big.Int, amountIn *big.Int, tokenInIsToken0 bool, currentTimestamp uint64, p *pools.ReClammParams) (*big.Int, error) {
	if len(balances) != 2 {
		return nil, ErrTwoTokensOnly
	}
	va, vb, err := VirtualBalances(balances[0], balances[1], currentTimestamp, p)
	if err != nil {
		return nil, err
	}

	totalIn, totalOut := new(big.Int).Add(balances[0], va), new(big.Int).Add(balances[1], vb)
	realOut := balances[1]
	if !tokenInIsToken0 {
		totalIn, totalOut = totalOut, totalIn
		realOut = balances[0]
	}

	num := new(big.Int).Mul(totalOut, amountIn)
	den := new(big.Int).Add(totalIn, amountIn)
	out := num.Quo(num, den)

	if out.Cmp(realOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	return out, nil
}

// CalcInGivenOut is the dual of CalcOutGivenIn, rounding up.
func CalcInGivenOut(balances []*big.Int, amountOut *big.Int, tokenInIsToken0 bool, currentTimestamp uint64, p *pools.ReClammParams) (*big.Int, error) {
	if len(balances) != 2 {
		return nil, ErrTwoTokensOnly
	}
	va, vb, err := VirtualBalances(balances[0], balances[1], currentTimestamp, p)
	if err != nil {
		return nil, err
	}

	totalIn, totalOut := new(big.Int).Add(balances[0], va), new(big.Int).Add(balances[1], vb)
	realOut := balances[1]
	if !tokenInIsToken0 {
		totalIn, totalOut = totalOut, totalIn
		realOut = balances[0]
	}

	if amountOut.Cmp(realOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	num := new(big.Int).Mul(totalIn, amountOut)
	den := new(big.Int).Sub(totalOut, amountOut)
	in := num.Quo(num, den)
	return in.Add(in, big.NewInt(1)), nil
}

// sqrt18 returns the square root of an 18-decimal value as an 18-decimal
// value.
func sqrt18(x *big.Int) *big.Int {
	scaled := new(big.Int).Mul(x, fixedpoint.One)
	return scaled.Sqrt(scaled)
}
