package router

import (
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/defistate/swap-router-go/fixedpoint"
	"github.com/defistate/swap-router-go/pools"
	"github.com/defistate/swap-router-go/pools/stable"
	"github.com/defistate/swap-router-go/pools/weighted"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

func testRouter(t *testing.T) *Router {
	t.Helper()
	r, err := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), prometheus.NewRegistry())
	require.NoError(t, err)
	return r
}

func token(addr byte) pools.Token {
	return pools.Token{ChainID: 1, Address: common.BytesToAddress([]byte{addr}), Decimals: 18}
}

func weightedPool(addr byte, fee *big.Int, balance int64, tokens ...pools.Token) *pools.Pool {
	p := &pools.Pool{
		ChainID: 1,
		Address: common.BytesToAddress([]byte{addr}),
		Type:    pools.Weighted,
		SwapFee: fee,
	}
	for i, tk := range tokens {
		p.Tokens = append(p.Tokens, pools.PoolToken{
			Token:           tk,
			Index:           i,
			BalanceRaw:      e18(balance),
			BalanceScaled18: e18(balance),
			Weight:          big.NewInt(5e17),
		})
	}
	return p
}

func stablePool(addr byte, fee *big.Int, balance int64, tokens ...pools.Token) *pools.Pool {
	p := &pools.Pool{
		ChainID: 1,
		Address: common.BytesToAddress([]byte{addr}),
		Type:    pools.Stable,
		SwapFee: fee,
		Stable:  &pools.StableParams{Amp: new(big.Int).Mul(big.NewInt(100), stable.AmpPrecision)},
	}
	for i, tk := range tokens {
		p.Tokens = append(p.Tokens, pools.PoolToken{
			Token:           tk,
			Index:           i,
			BalanceRaw:      e18(balance),
			BalanceScaled18: e18(balance),
		})
	}
	return p
}

func TestValidateRequest(t *testing.T) {
	a, b := token(0xA), token(0xB)

	require.ErrorIs(t, ValidateRequest(a, a, e18(1)), ErrSameToken)
	require.ErrorIs(t, ValidateRequest(a, b, nil), ErrInvalidAmount)
	require.ErrorIs(t, ValidateRequest(a, b, new(big.Int)), ErrInvalidAmount)
	require.NoError(t, ValidateRequest(a, b, e18(1)))
}

func TestUnknownToken(t *testing.T) {
	r := testRouter(t)
	a, b, c := token(0xA), token(0xB), token(0xC)
	ps := []*pools.Pool{weightedPool(1, big.NewInt(3e15), 100, a, b)}

	_, err := r.GetPathsWithPools(a, c, GivenIn, e18(1), ps, nil, 3, Options{})
	require.ErrorIs(t, err, ErrUnknownToken)
}

func TestNoRouteIsEmptyNotError(t *testing.T) {
	r := testRouter(t)
	a, b, c, d := token(0xA), token(0xB), token(0xC), token(0xD)
	// Two disconnected pools: no path from A to D.
	ps := []*pools.Pool{
		weightedPool(1, big.NewInt(3e15), 100, a, b),
		weightedPool(2, big.NewInt(3e15), 100, c, d),
	}

	paths, err := r.GetPathsWithPools(a, d, GivenIn, e18(1), ps, nil, 3, Options{})
	require.NoError(t, err)
	require.Empty(t, paths)
}

func TestSingleHopGivenInMatchesPoolMath(t *testing.T) {
	r := testRouter(t)
	a, b := token(0xA), token(0xB)
	fee := big.NewInt(3e15)
	ps := []*pools.Pool{weightedPool(1, fee, 100, a, b)}

	amountIn := e18(10)
	paths, err := r.GetPathsWithPools(a, b, GivenIn, amountIn, ps, nil, 3, Options{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, amountIn, paths[0].InputAmountRaw)

	// Independent reconstruction: fee off the top, then the invariant.
	given := new(big.Int).Sub(amountIn, fixedpoint.MulUp(amountIn, fee))
	want, err := weighted.ComputeOutGivenIn(e18(100), big.NewInt(5e17), e18(100), big.NewInt(5e17), given)
	require.NoError(t, err)
	require.Equal(t, want, paths[0].OutputAmountRaw)
}

func TestSingleHopGivenOutMatchesPoolMath(t *testing.T) {
	r := testRouter(t)
	a, b := token(0xA), token(0xB)
	fee := big.NewInt(3e15)
	ps := []*pools.Pool{weightedPool(1, fee, 100, a, b)}

	amountOut := e18(10)
	paths, err := r.GetPathsWithPools(a, b, GivenOut, amountOut, ps, nil, 3, Options{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, amountOut, paths[0].OutputAmountRaw)

	raw, err := weighted.ComputeInGivenOut(e18(100), big.NewInt(5e17), e18(100), big.NewInt(5e17), amountOut)
	require.NoError(t, err)
	want, err := fixedpoint.DivUp(raw, fixedpoint.Complement(fee))
	require.NoError(t, err)
	require.Equal(t, want, paths[0].InputAmountRaw)
}

func TestTwoHopWeightedIntoStable(t *testing.T) {
	r := testRouter(t)
	a, b, c := token(0xA), token(0xB), token(0xC)
	weightedFee := big.NewInt(3e15) // 0.3%
	stableFee := big.NewInt(5e14)   // 0.05%
	ps := []*pools.Pool{
		weightedPool(1, weightedFee, 100, a, b),
		stablePool(2, stableFee, 1000, b, c),
	}

	amountIn := e18(10)
	paths, err := r.GetPathsWithPools(a, c, GivenIn, amountIn, ps, nil, 3, Options{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Len(t, paths[0].Pools, 2)
	require.Equal(t, []pools.Token{a, b, c}, paths[0].Tokens)

	// Hop 1: weighted 50/50, 0.3% fee.
	given := new(big.Int).Sub(amountIn, fixedpoint.MulUp(amountIn, weightedFee))
	hop1, err := weighted.ComputeOutGivenIn(e18(100), big.NewInt(5e17), e18(100), big.NewInt(5e17), given)
	require.NoError(t, err)

	// Hop 2: stable amp 100, 0.05% fee.
	given2 := new(big.Int).Sub(hop1, fixedpoint.MulUp(hop1, stableFee))
	amp := new(big.Int).Mul(big.NewInt(100), stable.AmpPrecision)
	hop2, err := stable.ComputeOutGivenIn(amp, []*big.Int{e18(1000), e18(1000)}, 0, 1, given2)
	require.NoError(t, err)

	require.Equal(t, hop2, paths[0].OutputAmountRaw)
}

func TestSplitConservesInputExactly(t *testing.T) {
	r := testRouter(t)
	a, b := token(0xA), token(0xB)
	// Two parallel pools of different depth force a split.
	ps := []*pools.Pool{
		weightedPool(1, big.NewInt(3e15), 1000, a, b),
		weightedPool(2, big.NewInt(3e15), 100, a, b),
	}

	amountIn := new(big.Int).Add(e18(10), big.NewInt(7)) // deliberately not round
	paths, err := r.GetPathsWithPools(a, b, GivenIn, amountIn, ps, nil, 3, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	sum := new(big.Int)
	seenPools := make(map[common.Address]bool)
	for _, p := range paths {
		require.Positive(t, p.InputAmountRaw.Sign())
		sum.Add(sum, p.InputAmountRaw)

		// Path validity: right endpoints, no pool reused within a path.
		require.Equal(t, a, p.Tokens[0])
		require.Equal(t, b, p.Tokens[len(p.Tokens)-1])
		for _, pool := range p.Pools {
			require.False(t, seenPools[pool.Address])
			seenPools[pool.Address] = true
		}
	}
	require.Zero(t, sum.Cmp(amountIn))
}

func TestSplitBeatsNaiveEqualSplit(t *testing.T) {
	r := testRouter(t)
	a, b := token(0xA), token(0xB)
	fee := big.NewInt(3e15)
	deep := weightedPool(1, fee, 1000, a, b)
	shallow := weightedPool(2, fee, 100, a, b)

	amountIn := e18(20)
	paths, err := r.GetPathsWithPools(a, b, GivenIn, amountIn, []*pools.Pool{deep, shallow}, nil, 3, Options{})
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	routedOut := new(big.Int)
	for _, p := range paths {
		routedOut.Add(routedOut, p.OutputAmountRaw)
	}

	naive := new(big.Int)
	for _, balance := range []int64{1000, 100} {
		half := e18(10)
		given := new(big.Int).Sub(half, fixedpoint.MulUp(half, fee))
		out, err := weighted.ComputeOutGivenIn(e18(balance), big.NewInt(5e17), e18(balance), big.NewInt(5e17), given)
		require.NoError(t, err)
		naive.Add(naive, out)
	}
	require.GreaterOrEqual(t, routedOut.Cmp(naive), 0)
}

func TestBufferWrapRoute(t *testing.T) {
	r := testRouter(t)
	underlying, wrapped := token(0xA), token(0xE)
	buffers := []*pools.BufferPool{{
		WrappedToken:    wrapped,
		UnderlyingToken: underlying,
		Rate:            e18(2),
	}}

	paths, err := r.GetPathsWithPools(underlying, wrapped, GivenIn, e18(10), nil, buffers, 3, Options{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, e18(5), paths[0].OutputAmountRaw)
}

func TestMaxHopsBoundsSearch(t *testing.T) {
	r := testRouter(t)
	a, b, c, d := token(0xA), token(0xB), token(0xC), token(0xD)
	ps := []*pools.Pool{
		weightedPool(1, big.NewInt(3e15), 100, a, b),
		weightedPool(2, big.NewInt(3e15), 100, b, c),
		weightedPool(3, big.NewInt(3e15), 100, c, d),
	}

	paths, err := r.GetPathsWithPools(a, d, GivenIn, e18(1), ps, nil, 3, Options{MaxHops: 2})
	require.NoError(t, err)
	require.Empty(t, paths)

	paths, err = r.GetPathsWithPools(a, d, GivenIn, e18(1), ps, nil, 3, Options{MaxHops: 3})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Len(t, paths[0].Pools, 3)
}

func TestProtocolVersionCarried(t *testing.T) {
	r := testRouter(t)
	a, b := token(0xA), token(0xB)
	ps := []*pools.Pool{weightedPool(1, big.NewInt(3e15), 100, a, b)}

	paths, err := r.GetPathsWithPools(a, b, GivenIn, e18(1), ps, nil, 3, Options{})
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, 3, paths[0].ProtocolVersion)
}

func TestNewRouterValidation(t *testing.T) {
	_, err := NewRouter(nil, prometheus.NewRegistry())
	require.Error(t, err)
	_, err = NewRouter(slog.Default(), nil)
	require.Error(t, err)
}
