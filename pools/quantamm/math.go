// Package quantamm implements the time-varying-weight pool: weighted-product
// math evaluated at weights that drift linearly between two checkpoints. Only
// the weight resolution lives here; the invariant math is shared with the
// weighted package.
package quantamm

import (
	"errors"
	"math/big"

	"github.com/defistate/swap-router-go/pools"
	"github.com/defistate/swap-router-go/pools/weighted"
)

var (
	// ErrWeightCount is returned when the checkpoint arrays disagree with
	// the pool's token count.
	ErrWeightCount = errors.New("quantamm: weight checkpoint length mismatch")
	// ErrIndexOutOfRange is returned for token indexes past the weight
	// arrays.
	ErrIndexOutOfRange = errors.New("quantamm: token index out of range")
)

var oneE18 = big.NewInt(1e18)

// WeightAt returns the effective 18-decimal weight of token index at the
// given timestamp: the start weight before the window, the end weight after
// it, linear in between. The last token's weight is the complement of the
// others so the interpolated weights always sum to exactly 1e18.
func WeightAt(index int, currentTimestamp uint64, p *pools.QuantAMMParams) (*big.Int, error) {
	if len(p.StartWeights) != len(p.EndWeights) {
		return nil, ErrWeightCount
	}
	if index < 0 || index >= len(p.StartWeights) {
		return nil, ErrIndexOutOfRange
	}

	if index == len(p.StartWeights)-1 {
		w := new(big.Int).Set(oneE18)
		for j := 0; j < index; j++ {
			w.Sub(w, interpolateWeight(j, currentTimestamp, p))
		}
		if w.Sign() < 0 {
			w.SetInt64(0)
		}
		return w, nil
	}
	return interpolateWeight(index, currentTimestamp, p), nil
}

func interpolateWeight(index int, currentTimestamp uint64, p *pools.QuantAMMParams) *big.Int {
	start, end := p.StartWeights[index], p.EndWeights[index]
	switch {
	case currentTimestamp <= p.StartTime || p.EndTime <= p.StartTime:
		return new(big.Int).Set(start)
	case currentTimestamp >= p.EndTime:
		return new(big.Int).Set(end)
	}

	elapsed := new(big.Int).SetUint64(currentTimestamp - p.StartTime)
	window := new(big.Int).SetUint64(p.EndTime - p.StartTime)

	delta := new(big.Int).Sub(end, start)
	delta.Mul(delta, elapsed)
	delta.Quo(delta, window)
	return delta.Add(delta, start)
}

// ComputeOutGivenIn resolves the pair's effective weights at the timestamp
// and delegates to the weighted-product formula.
func ComputeOutGivenIn(balanceIn *big.Int, indexIn int, balanceOut *big.Int, indexOut int, amountIn *big.Int, currentTimestamp uint64, p *pools.QuantAMMParams) (*big.Int, error) {
	weightIn, weightOut, err := pairWeights(indexIn, indexOut, currentTimestamp, p)
	if err != nil {
		return nil, err
	}
	return weighted.ComputeOutGivenIn(balanceIn, weightIn, balanceOut, weightOut, amountIn)
}

// ComputeInGivenOut is the exact-output dual of ComputeOutGivenIn.
func ComputeInGivenOut(balanceIn *big.Int, indexIn int, balanceOut *big.Int, indexOut int, amountOut *big.Int, currentTimestamp uint64, p *pools.QuantAMMParams) (*big.Int, error) {
	weightIn, weightOut, err := pairWeights(indexIn, indexOut, currentTimestamp, p)
	if err != nil {
		return nil, err
	}
	return weighted.ComputeInGivenOut(balanceIn, weightIn, balanceOut, weightOut, amountOut)
}

func pairWeights(indexIn, indexOut int, currentTimestamp uint64, p *pools.QuantAMMParams) (*big.Int, *big.Int, error) {
	weightIn, err := WeightAt(indexIn, currentTimestamp, p)
	if err != nil {
		return nil, nil, err
	}
	weightOut, err := WeightAt(indexOut, currentTimestamp, p)
	if err != nil {
		return nil, nil, err
	}
	if weightIn.Sign() <= 0 || weightOut.Sign() <= 0 {
		return nil, nil, weighted.ErrZeroWeight
	}
	return weightIn, weightOut, nil
}
