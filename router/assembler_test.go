package router

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/defistate/swap-router-go/pools"
)

func TestAssembleSingleSwap(t *testing.T) {
	a, b := token(0xA), token(0xB)
	p := &Path{
		Pools:           []*pools.Pool{weightedPool(1, big.NewInt(3e15), 100, a, b)},
		Tokens:          []pools.Token{a, b},
		InputAmountRaw:  e18(10),
		OutputAmountRaw: e18(9),
	}

	res, err := AssembleResult([]*Path{p}, GivenIn)
	require.NoError(t, err)
	require.True(t, res.Single)
	require.Equal(t, []SwapStep{{
		Pool:          p.Pools[0].Address,
		AssetInIndex:  0,
		AssetOutIndex: 1,
		Amount:        e18(10).String(),
	}}, res.Steps)
	require.Equal(t, e18(10).String(), res.AmountIn)
	require.Equal(t, e18(9).String(), res.AmountOut)
	require.True(t, res.AmountInDecimal.Equal(decimal.NewFromInt(10)))
	require.True(t, res.AmountOutDecimal.Equal(decimal.NewFromInt(9)))
}

func TestAssembleBatchSharesAssets(t *testing.T) {
	a, b, c := token(0xA), token(0xB), token(0xC)
	p1 := &Path{
		Pools: []*pools.Pool{
			weightedPool(1, big.NewInt(3e15), 100, a, b),
			weightedPool(2, big.NewInt(3e15), 100, b, c),
		},
		Tokens:          []pools.Token{a, b, c},
		InputAmountRaw:  e18(6),
		OutputAmountRaw: e18(5),
	}
	p2 := &Path{
		Pools:           []*pools.Pool{weightedPool(3, big.NewInt(3e15), 100, a, c)},
		Tokens:          []pools.Token{a, c},
		InputAmountRaw:  e18(4),
		OutputAmountRaw: e18(3),
	}

	res, err := AssembleResult([]*Path{p1, p2}, GivenIn)
	require.NoError(t, err)
	require.False(t, res.Single)

	// Three distinct assets interned once, shared across both paths.
	require.Len(t, res.Assets, 3)
	require.Len(t, res.Steps, 3)

	// Chained second hop of path 1 carries no amount.
	require.Equal(t, e18(6).String(), res.Steps[0].Amount)
	require.Equal(t, "0", res.Steps[1].Amount)
	require.Equal(t, e18(4).String(), res.Steps[2].Amount)

	require.Equal(t, e18(10).String(), res.AmountIn)
	require.Equal(t, e18(8).String(), res.AmountOut)

	// Shares of the fixed (input) side: 0.6 and 0.4.
	require.Len(t, res.RouteShares, 2)
	require.True(t, res.RouteShares[0].Equal(decimal.RequireFromString("0.6")))
	require.True(t, res.RouteShares[1].Equal(decimal.RequireFromString("0.4")))
}

func TestAssembleGivenOutReversesSteps(t *testing.T) {
	a, b, c := token(0xA), token(0xB), token(0xC)
	p := &Path{
		Pools: []*pools.Pool{
			weightedPool(1, big.NewInt(3e15), 100, a, b),
			weightedPool(2, big.NewInt(3e15), 100, b, c),
		},
		Tokens:          []pools.Token{a, b, c},
		InputAmountRaw:  e18(11),
		OutputAmountRaw: e18(10),
	}

	res, err := AssembleResult([]*Path{p}, GivenOut)
	require.NoError(t, err)

	// Execution order is back to front: the fixed output leads.
	require.Equal(t, p.Pools[1].Address, res.Steps[0].Pool)
	require.Equal(t, e18(10).String(), res.Steps[0].Amount)
	require.Equal(t, p.Pools[0].Address, res.Steps[1].Pool)
	require.Equal(t, "0", res.Steps[1].Amount)
}

func TestAssembleEffectivePrice(t *testing.T) {
	a, b := token(0xA), token(0xB)
	p := &Path{
		Pools:           []*pools.Pool{weightedPool(1, big.NewInt(3e15), 100, a, b)},
		Tokens:          []pools.Token{a, b},
		InputAmountRaw:  e18(20),
		OutputAmountRaw: e18(10),
	}

	res, err := AssembleResult([]*Path{p}, GivenIn)
	require.NoError(t, err)
	require.True(t, res.EffectivePrice.Equal(decimal.NewFromInt(2)))
	require.True(t, res.EffectivePriceReversed.Equal(decimal.RequireFromString("0.5")))
}

func TestAssembleEmptyRoute(t *testing.T) {
	_, err := AssembleResult(nil, GivenIn)
	require.ErrorIs(t, err, ErrEmptyRoute)
}
