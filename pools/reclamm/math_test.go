package reclamm

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/defistate/swap-router-go/pools"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// centeredParams is a pool sitting exactly at its range center with a fixed
// fourth-root price ratio of 1.1 (q = 1.21), for which the virtual balances
// come out to round numbers.
func centeredParams() *pools.ReClammParams {
	return &pools.ReClammParams{
		LastVirtualBalanceA:       e18(4000),
		LastVirtualBalanceB:       e18(4000),
		StartFourthRootPriceRatio: big.NewInt(11e17),
		EndFourthRootPriceRatio:   big.NewInt(11e17),
		PriceRatioUpdateStartTime: 100,
		PriceRatioUpdateEndTime:   100,
	}
}

func TestFourthRootPriceRatioInterpolation(t *testing.T) {
	p := &pools.ReClammParams{
		StartFourthRootPriceRatio: e18(1),
		EndFourthRootPriceRatio:   big.NewInt(12e17),
		PriceRatioUpdateStartTime: 100,
		PriceRatioUpdateEndTime:   200,
	}

	tests := []struct {
		name string
		at   uint64
		want *big.Int
	}{
		{"before window", 50, e18(1)},
		{"window start", 100, e18(1)},
		{"midpoint", 150, big.NewInt(11e17)},
		{"window end", 200, big.NewInt(12e17)},
		{"after window", 300, big.NewInt(12e17)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FourthRootPriceRatio(tc.at, p))
		})
	}
}

func TestFourthRootPriceRatioDegenerateWindow(t *testing.T) {
	p := &pools.ReClammParams{
		StartFourthRootPriceRatio: e18(1),
		EndFourthRootPriceRatio:   e18(2),
		PriceRatioUpdateStartTime: 200,
		PriceRatioUpdateEndTime:   200,
	}
	require.Equal(t, e18(1), FourthRootPriceRatio(150, p))
}

func TestVirtualBalancesCentered(t *testing.T) {
	// C = 1, q = 1.21: Vu = Ru * (2 + sqrt(4.84)) / (2 * 0.21) = 10 * Ru.
	va, vb, err := VirtualBalances(e18(1000), e18(1000), 500, centeredParams())
	require.NoError(t, err)
	require.Equal(t, e18(10000), va)
	require.Equal(t, e18(10000), vb)
}

func TestVirtualBalancesIdempotent(t *testing.T) {
	// Recomputing from already-consistent state reproduces it: centeredness
	// and the price ratio jointly pin the virtual balances down.
	p := centeredParams()
	va1, vb1, err := VirtualBalances(e18(1000), e18(1000), 500, p)
	require.NoError(t, err)

	p.LastVirtualBalanceA = va1
	p.LastVirtualBalanceB = vb1
	va2, vb2, err := VirtualBalances(e18(1000), e18(1000), 500, p)
	require.NoError(t, err)
	require.Equal(t, va1, va2)
	require.Equal(t, vb1, vb2)
}

func TestVirtualBalancesInvalidState(t *testing.T) {
	p := centeredParams()
	p.LastVirtualBalanceA = nil
	_, _, err := VirtualBalances(e18(1000), e18(1000), 500, p)
	require.ErrorIs(t, err, ErrInvalidState)

	p = centeredParams()
	p.StartFourthRootPriceRatio = e18(1) // ratio 1: no range
	p.EndFourthRootPriceRatio = e18(1)
	_, _, err = VirtualBalances(e18(1000), e18(1000), 500, p)
	require.ErrorIs(t, err, ErrInvalidState)
}

func TestCalcOutGivenIn(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000)}
	out, err := CalcOutGivenIn(balances, e18(110), true, 500, centeredParams())
	require.NoError(t, err)

	// Constant product over totals of 11000 each: 11000*110/11110 ~ 108.91.
	require.Negative(t, out.Cmp(e18(110)))
	require.Positive(t, out.Cmp(e18(108)))
}

func TestCalcInGivenOutRoundTrip(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000)}
	amountIn := e18(110)

	out, err := CalcOutGivenIn(balances, amountIn, true, 500, centeredParams())
	require.NoError(t, err)
	in, err := CalcInGivenOut(balances, out, true, 500, centeredParams())
	require.NoError(t, err)

	diff := new(big.Int).Sub(in, amountIn)
	diff.Abs(diff)
	require.LessOrEqual(t, diff.Cmp(big.NewInt(100)), 0)
}

func TestCalcInGivenOutGuardsLiquidity(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000)}
	_, err := CalcInGivenOut(balances, e18(1000), true, 500, centeredParams())
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestTwoTokensOnly(t *testing.T) {
	_, err := CalcOutGivenIn([]*big.Int{e18(1)}, e18(1), true, 500, centeredParams())
	require.ErrorIs(t, err, ErrTwoTokensOnly)
}
