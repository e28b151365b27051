package graph

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/defistate/swap-router-go/pools"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func token(addr byte) pools.Token {
	return pools.Token{ChainID: 1, Address: common.BytesToAddress([]byte{addr}), Decimals: 18}
}

func weightedPool(addr byte, tokens ...pools.Token) *pools.Pool {
	p := &pools.Pool{
		ChainID: 1,
		Address: common.BytesToAddress([]byte{addr}),
		Type:    pools.Weighted,
		SwapFee: big.NewInt(3e15),
	}
	for i, t := range tokens {
		p.Tokens = append(p.Tokens, pools.PoolToken{
			Token:           t,
			Index:           i,
			BalanceRaw:      e18(100),
			BalanceScaled18: e18(100),
			Weight:          big.NewInt(5e17),
		})
	}
	return p
}

func TestBuildInternsTokensAndEdges(t *testing.T) {
	a, b, c := token(0xA), token(0xB), token(0xC)
	g, err := Build([]*pools.Pool{
		weightedPool(1, a, b),
		weightedPool(2, b, c),
	}, nil)
	require.NoError(t, err)

	require.Equal(t, 3, g.NumTokens())
	require.Equal(t, 2, g.NumPools())

	ai, ok := g.TokenIndex(a.Address)
	require.True(t, ok)
	bi, ok := g.TokenIndex(b.Address)
	require.True(t, ok)

	// A reaches only B; B reaches A and C through two different pools.
	edgesA := g.EdgesFrom(ai)
	require.Len(t, edgesA, 1)
	require.Equal(t, bi, edgesA[0].To)
	require.Len(t, g.EdgesFrom(bi), 2)
}

func TestBuildFiltersUnroutablePools(t *testing.T) {
	a, b := token(0xA), token(0xB)

	paused := weightedPool(1, a, b)
	paused.Paused = true

	empty := weightedPool(2, a, b)
	empty.Tokens[1].BalanceScaled18 = new(big.Int)

	unknownHook := weightedPool(3, a, b)
	unknownHook.Hook = &pools.Hook{Type: pools.HookType("DIRECTIONAL_FEE")}

	single := weightedPool(4, a)

	g, err := Build([]*pools.Pool{paused, empty, unknownHook, single}, nil)
	require.NoError(t, err)
	require.Zero(t, g.NumPools())
	require.Zero(t, g.NumTokens())
}

func TestBuildAllowsFeeOverrideHook(t *testing.T) {
	a, b := token(0xA), token(0xB)
	p := weightedPool(1, a, b)
	p.Hook = &pools.Hook{Type: pools.HookSwapFeeOverride, SwapFeePercentage: big.NewInt(1e15)}

	g, err := Build([]*pools.Pool{p}, nil)
	require.NoError(t, err)
	require.Equal(t, 1, g.NumPools())
}

func TestBuildRejectsZeroRate(t *testing.T) {
	a, b := token(0xA), token(0xB)
	p := weightedPool(1, a, b)
	p.Tokens[0].PriceRate = new(big.Int)

	_, err := Build([]*pools.Pool{p}, nil)
	require.ErrorIs(t, err, ErrMalformedPool)
}

func TestBuildSynthesizesBufferEdges(t *testing.T) {
	underlying, wrapped := token(0xA), token(0xD)
	buf := &pools.BufferPool{
		WrappedToken:    wrapped,
		UnderlyingToken: underlying,
		Rate:            e18(1),
	}

	g, err := Build(nil, []*pools.BufferPool{buf})
	require.NoError(t, err)
	require.Equal(t, 1, g.NumPools())
	require.Equal(t, pools.Buffer, g.Pools[0].Type)

	ui, ok := g.TokenIndex(underlying.Address)
	require.True(t, ok)
	edges := g.EdgesFrom(ui)
	require.Len(t, edges, 1)
	require.Equal(t, 0, edges[0].IndexIn)
	require.Equal(t, 1, edges[0].IndexOut)
}

func TestBuildRejectsRatelessBuffer(t *testing.T) {
	buf := &pools.BufferPool{
		WrappedToken:    token(0xD),
		UnderlyingToken: token(0xA),
		Rate:            nil,
	}
	_, err := Build(nil, []*pools.BufferPool{buf})
	require.ErrorIs(t, err, ErrMalformedPool)
}

func TestLiquidityScores(t *testing.T) {
	a, b := token(0xA), token(0xB)
	g, err := Build([]*pools.Pool{weightedPool(1, a, b)}, nil)
	require.NoError(t, err)
	require.Len(t, g.Scores, 1)
	require.Equal(t, e18(200), g.Scores[0])
}
