// Package pools defines the read-only pool snapshot model the routing core
// operates on. A snapshot is supplied by an external data-fetch collaborator
// and is never mutated during a routing request.
package pools

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defistate/swap-router-go/fixedpoint"
)

// PoolType tags the invariant math a pool uses.
type PoolType string

const (
	Weighted         PoolType = "WEIGHTED"
	Stable           PoolType = "STABLE"
	GyroE            PoolType = "GYROE"
	ReClamm          PoolType = "RECLAMM"
	QuantAMMWeighted PoolType = "QUANT_AMM_WEIGHTED"
	Buffer           PoolType = "BUFFER"
)

// HookType identifies a pool hook. Pools with hook types the router does
// not understand are filtered out of the graph rather than mis-priced.
type HookType string

const (
	// HookNone marks the absence of a hook.
	HookNone HookType = ""
	// HookSwapFeeOverride replaces the pool's static swap fee with the
	// hook-provided percentage.
	HookSwapFeeOverride HookType = "SWAP_FEE_OVERRIDE"
)

// Hook is an optional pool extension that may alter the effective swap fee.
type Hook struct {
	Type              HookType `json:"type"`
	SwapFeePercentage *big.Int `json:"swapFeePercentage,omitempty"`
}

// Token identifies an ERC20 by (chain, address).
type Token struct {
	ChainID  uint64         `json:"chainId"`
	Address  common.Address `json:"address"`
	Decimals uint8          `json:"decimals"`

	// Underlying is set for wrapped/rebasing tokens that participate in
	// buffer (wrap/unwrap) pools.
	Underlying *common.Address `json:"underlying,omitempty"`
}

// PoolToken is a token's participation record in a pool. Balances are kept
// both raw and decimal-scaled to 18; the price rate is applied inside the
// math engine, not here.
type PoolToken struct {
	Token

	// Index is the token's position in the pool's token array. Invariant
	// math is order sensitive.
	Index int `json:"index"`

	BalanceRaw      *big.Int `json:"balanceRaw"`
	BalanceScaled18 *big.Int `json:"balanceScaled18"`

	// PriceRate is an 18-decimal external rate multiplier, 1e18 when absent.
	PriceRate *big.Int `json:"priceRate,omitempty"`

	// Weight is the 18-decimal normalized weight, weighted pools only.
	Weight *big.Int `json:"weight,omitempty"`
}

// StableParams parameterizes the amplified invariant.
type StableParams struct {
	// Amp carries AmpPrecision (1000), i.e. amp 100 is stored as 100000.
	Amp *big.Int `json:"amp"`
}

// GyroEParams carries the E-CLP parameters: the price interval [Alpha,
// Beta], the rotation (C = cos, S = sin) and the stretching factor Lambda,
// all 18-decimal, plus the 38-decimal derived constants computed off-chain.
type GyroEParams struct {
	Alpha  *big.Int `json:"alpha"`
	Beta   *big.Int `json:"beta"`
	C      *big.Int `json:"c"`
	S      *big.Int `json:"s"`
	Lambda *big.Int `json:"lambda"`

	TauAlphaX *big.Int `json:"tauAlphaX"`
	TauAlphaY *big.Int `json:"tauAlphaY"`
	TauBetaX  *big.Int `json:"tauBetaX"`
	TauBetaY  *big.Int `json:"tauBetaY"`
	U         *big.Int `json:"u"`
	V         *big.Int `json:"v"`
	W         *big.Int `json:"w"`
	Z         *big.Int `json:"z"`
	DSq       *big.Int `json:"dSq"`
}

// ReClammParams is the virtual-balance range-bound AMM state. The fourth
// root of the price ratio interpolates linearly between the start and end
// checkpoints over the update window.
type ReClammParams struct {
	LastVirtualBalanceA *big.Int `json:"lastVirtualBalanceA"`
	LastVirtualBalanceB *big.Int `json:"lastVirtualBalanceB"`

	StartFourthRootPriceRatio *big.Int `json:"startFourthRootPriceRatio"`
	EndFourthRootPriceRatio   *big.Int `json:"endFourthRootPriceRatio"`
	PriceRatioUpdateStartTime uint64   `json:"priceRatioUpdateStartTime"`
	PriceRatioUpdateEndTime   uint64   `json:"priceRatioUpdateEndTime"`
}

// QuantAMMParams holds two per-token weight checkpoints; effective weights
// interpolate linearly between them over [StartTime, EndTime].
type QuantAMMParams struct {
	StartWeights []*big.Int `json:"startWeights"`
	EndWeights   []*big.Int `json:"endWeights"`
	StartTime    uint64     `json:"startTime"`
	EndTime      uint64     `json:"endTime"`
}

// Pool is an immutable snapshot of one liquidity pool. Exactly the params
// struct matching Type must be populated.
type Pool struct {
	ChainID uint64         `json:"chainId"`
	Address common.Address `json:"address"`
	Type    PoolType       `json:"type"`
	Tokens  []PoolToken    `json:"tokens"`

	// SwapFee and AggregateSwapFee are 18-decimal percentages.
	SwapFee          *big.Int `json:"swapFee"`
	AggregateSwapFee *big.Int `json:"aggregateSwapFee,omitempty"`

	Paused bool  `json:"paused,omitempty"`
	Hook   *Hook `json:"hook,omitempty"`

	Stable   *StableParams   `json:"stableParams,omitempty"`
	GyroE    *GyroEParams    `json:"gyroEParams,omitempty"`
	ReClamm  *ReClammParams  `json:"reClammParams,omitempty"`
	QuantAMM *QuantAMMParams `json:"quantAmmParams,omitempty"`

	// BufferRate is the wrap/unwrap exchange rate for synthetic buffer
	// pools: underlying units per 1e18 wrapped units.
	BufferRate *big.Int `json:"bufferRate,omitempty"`
}

// BufferPool describes a wrap/unwrap relationship between a wrapped token
// and its underlying asset. The graph builder turns it into a synthetic
// two-token Pool.
type BufferPool struct {
	WrappedToken    Token    `json:"wrappedToken"`
	UnderlyingToken Token    `json:"underlyingToken"`
	Rate            *big.Int `json:"rate"`
}

// ErrTokenNotInPool is returned when a pool is asked about a token it does
// not hold.
var ErrTokenNotInPool = errors.New("pools: token not in pool")

// TokenIndexOf returns the pool-array index of the given token address.
func (p *Pool) TokenIndexOf(addr common.Address) (int, error) {
	for i := range p.Tokens {
		if p.Tokens[i].Address == addr {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: token %s, pool %s", ErrTokenNotInPool, addr, p.Address)
}

// EffectiveSwapFee resolves the hook override when present.
func (p *Pool) EffectiveSwapFee() *big.Int {
	if p.Hook != nil && p.Hook.Type == HookSwapFeeOverride && p.Hook.SwapFeePercentage != nil {
		return p.Hook.SwapFeePercentage
	}
	return p.SwapFee
}

// LiquidityScore is a cheap comparable liquidity proxy: the sum of the
// pool's decimal-scaled balances. Used only for candidate ranking and the
// optimizer's initial split, never for pricing.
func (p *Pool) LiquidityScore() *big.Int {
	score := new(big.Int)
	for i := range p.Tokens {
		if p.Tokens[i].BalanceScaled18 != nil {
			score.Add(score, p.Tokens[i].BalanceScaled18)
		}
	}
	return score
}

// Rate returns the token's price rate, defaulting to 1e18.
func (t *PoolToken) Rate() *big.Int {
	if t.PriceRate == nil {
		return fixedpoint.One
	}
	return t.PriceRate
}

// ScaleToScaled18 converts a raw token amount to the 18-decimal working
// representation (decimals only; rates are the engine's concern).
func ScaleToScaled18(amountRaw *big.Int, decimals uint8) *big.Int {
	return new(big.Int).Mul(amountRaw, decimalScalingFactor(decimals))
}

// ScaleFromScaled18Down converts back to raw units, rounding down.
func ScaleFromScaled18Down(amountScaled18 *big.Int, decimals uint8) *big.Int {
	return new(big.Int).Quo(amountScaled18, decimalScalingFactor(decimals))
}

// ScaleFromScaled18Up converts back to raw units, rounding up.
func ScaleFromScaled18Up(amountScaled18 *big.Int, decimals uint8) *big.Int {
	f := decimalScalingFactor(decimals)
	r := new(big.Int).Add(amountScaled18, f)
	r.Sub(r, big.NewInt(1))
	return r.Quo(r, f)
}

// precomputed 10^(18-dec) for dec 0..18.
var scalingFactors = func() [19]*big.Int {
	var fs [19]*big.Int
	fs[18] = big.NewInt(1)
	for d := 17; d >= 0; d-- {
		fs[d] = new(big.Int).Mul(fs[d+1], big.NewInt(10))
	}
	return fs
}()

func decimalScalingFactor(decimals uint8) *big.Int {
	if int(decimals) >= len(scalingFactors) {
		// Decimals above 18 are rejected at snapshot validation; treat as
		// identity here to stay total.
		return scalingFactors[18]
	}
	return scalingFactors[decimals]
}
