package stable

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func e18(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(1e18))
}

// amp100 is amplification 100 carried at AmpPrecision.
var amp100 = new(big.Int).Mul(big.NewInt(100), AmpPrecision)

func TestComputeInvariantBalancedPool(t *testing.T) {
	// Equal balances satisfy the invariant equation exactly at D = n * b,
	// and Newton converges there in one step.
	d, err := ComputeInvariant(amp100, []*big.Int{e18(1000), e18(1000)})
	require.NoError(t, err)
	require.Equal(t, e18(2000), d)

	d, err = ComputeInvariant(amp100, []*big.Int{e18(500), e18(500), e18(500)})
	require.NoError(t, err)
	require.Equal(t, e18(1500), d)
}

func TestComputeInvariantSkewedPool(t *testing.T) {
	// A skewed pool lands strictly between the constant-sum and
	// constant-product invariants.
	d, err := ComputeInvariant(amp100, []*big.Int{e18(1500), e18(500)})
	require.NoError(t, err)
	require.Negative(t, d.Cmp(e18(2000)))
	require.Positive(t, d.Cmp(e18(1900)))
}

func TestComputeInvariantZeroBalance(t *testing.T) {
	_, err := ComputeInvariant(amp100, []*big.Int{e18(1000), new(big.Int)})
	require.ErrorIs(t, err, ErrZeroBalance)
}

func TestComputeBalanceRestoresInvariant(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000)}
	d, err := ComputeInvariant(amp100, balances)
	require.NoError(t, err)

	got, err := ComputeBalance(amp100, balances, d, 1)
	require.NoError(t, err)

	// Re-solving an untouched pool returns the existing balance, up to the
	// solver's wei-level rounding.
	diff := new(big.Int).Sub(got, balances[1])
	diff.Abs(diff)
	require.LessOrEqual(t, diff.Cmp(big.NewInt(3)), 0)
}

func TestComputeOutGivenInNearParity(t *testing.T) {
	// Deep amplified pool: a small swap executes within basis points of 1:1
	// but never at or above it.
	balances := []*big.Int{e18(1000), e18(1000)}
	out, err := ComputeOutGivenIn(amp100, balances, 0, 1, e18(1))
	require.NoError(t, err)
	require.Negative(t, out.Cmp(e18(1)))
	floor := new(big.Int).Mul(big.NewInt(99), big.NewInt(1e16)) // 0.99
	require.Positive(t, out.Cmp(floor))
}

func TestComputeOutGivenInMonotonic(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000)}
	prev := new(big.Int)
	for _, amt := range []int64{1, 10, 100, 500} {
		out, err := ComputeOutGivenIn(amp100, balances, 0, 1, e18(amt))
		require.NoError(t, err)
		require.Positive(t, out.Cmp(prev), "amountIn %d", amt)
		prev = out
	}
}

func TestComputeInGivenOutGuardsLiquidity(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000)}
	_, err := ComputeInGivenOut(amp100, balances, 0, 1, e18(1000))
	require.ErrorIs(t, err, ErrInsufficientLiquidity)
}

func TestRoundTrip(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(800)}
	tolerance := big.NewInt(1e9)
	for _, amt := range []int64{1, 5, 50} {
		out, err := ComputeOutGivenIn(amp100, balances, 0, 1, e18(amt))
		require.NoError(t, err)
		in, err := ComputeInGivenOut(amp100, balances, 0, 1, out)
		require.NoError(t, err)

		diff := new(big.Int).Sub(in, e18(amt))
		diff.Abs(diff)
		require.Negative(t, diff.Cmp(tolerance), "amountIn %d: round trip drifted %s wei", amt, diff)
	}
}

func TestThreeTokenSwap(t *testing.T) {
	balances := []*big.Int{e18(1000), e18(1000), e18(1000)}
	out, err := ComputeOutGivenIn(amp100, balances, 0, 2, e18(10))
	require.NoError(t, err)
	require.Negative(t, out.Cmp(e18(10)))
	require.Positive(t, out.Cmp(e18(9)))
}
