// Package stable implements the amplified (StableSwap) invariant. The
// invariant D and the post-swap token balance are both found with bounded
// Newton iterations converging to 1 wei. Quotes must match on-chain
// execution to the wei, so the iteration schedule follows the contracts
// exactly.
package stable

import (
	"errors"
	"math/big"
)

var (
	// ErrInvariantDidNotConverge is returned when the Newton solve for D
	// fails to settle within the iteration limit.
	ErrInvariantDidNotConverge = errors.New("stable: invariant did not converge")
	// ErrBalanceDidNotConverge is the equivalent for the token-balance solve.
	ErrBalanceDidNotConverge = errors.New("stable: balance did not converge")
	// ErrZeroBalance is returned when any pool balance is zero.
	ErrZeroBalance = errors.New("stable: zero balance")
	// ErrInsufficientLiquidity is returned when amountOut drains the pool.
	ErrInsufficientLiquidity = errors.New("stable: insufficient liquidity")
)

// AmpPrecision is the fixed scaling of the amplification parameter: amp 100
// is stored as 100 * AmpPrecision.
var AmpPrecision = big.NewInt(1000)

const maxIterations = 255

// ComputeInvariant solves for D in
//
//	A * n^n * sum(b_i) + D = A * D * n^n + D^(n+1) / (n^n * prod(b_i))
//
// via Newton-Raphson, rounding down.
func ComputeInvariant(amp *big.Int, balances []*big.Int) (*big.Int, error) {
	sum := new(big.Int)
	for _, b := range balances {
		if b.Sign() <= 0 {
			return nil, ErrZeroBalance
		}
		sum.Add(sum, b)
	}
	if sum.Sign() == 0 {
		return new(big.Int), nil
	}

	n := big.NewInt(int64(len(balances)))
	invariant := new(big.Int).Set(sum)
	ampTimesTotal := new(big.Int).Mul(amp, n)

	prev := new(big.Int)
	dP := new(big.Int)
	num := new(big.Int)
	den := new(big.Int)
	tmp := new(big.Int)

	for i := 0; i < maxIterations; i++ {
		// D_P = D^(n+1) / (n^n * prod(balances))
		dP.Set(invariant)
		for _, b := range balances {
			dP.Mul(dP, invariant)
			dP.Quo(dP, tmp.Mul(b, n))
		}
		prev.Set(invariant)

		// D = ((A*n*sum/ampPrec + D_P*n) * D) / ((A*n - ampPrec)*D/ampPrec + (n+1)*D_P)
		num.Mul(ampTimesTotal, sum)
		num.Quo(num, AmpPrecision)
		num.Add(num, tmp.Mul(dP, n))
		num.Mul(num, invariant)

		den.Sub(ampTimesTotal, AmpPrecision)
		den.Mul(den, invariant)
		den.Quo(den, AmpPrecision)
		den.Add(den, tmp.Mul(dP, nPlusOne(n)))

		invariant.Quo(num, den)

		if converged(invariant, prev) {
			return invariant, nil
		}
	}
	return nil, ErrInvariantDidNotConverge
}

// ComputeBalance solves for the single balance at tokenIndex that restores
// the given invariant, holding all other balances fixed. Rounds up (the
// pool keeps the dust).
func ComputeBalance(amp *big.Int, balances []*big.Int, invariant *big.Int, tokenIndex int) (*big.Int, error) {
	n := big.NewInt(int64(len(balances)))
	ampTimesTotal := new(big.Int).Mul(amp, n)

	sum := new(big.Int).Set(balances[0])
	pD := new(big.Int).Mul(balances[0], n)
	for j := 1; j < len(balances); j++ {
		// P_D accumulates prod(b_j * n) / D^(n-1), rounded down.
		pD.Mul(pD, balances[j])
		pD.Mul(pD, n)
		pD.Quo(pD, invariant)
		sum.Add(sum, balances[j])
	}
	sum.Sub(sum, balances[tokenIndex])

	inv2 := new(big.Int).Mul(invariant, invariant)

	// c = divUp(D^2, A*n^n * P_D) * ampPrec * b_tokenIndex
	c := quoUp(new(big.Int).Set(inv2), new(big.Int).Mul(ampTimesTotal, pD))
	c.Mul(c, AmpPrecision)
	c.Mul(c, balances[tokenIndex])
	// b = sum + D/(A*n^n) * ampPrec
	b := new(big.Int).Quo(invariant, ampTimesTotal)
	b.Mul(b, AmpPrecision)
	b.Add(b, sum)

	// Newton: x_{k+1} = (x_k^2 + c) / (2*x_k + b - D), rounded up.
	balance := new(big.Int).Add(inv2, c)
	balance = quoUp(balance, new(big.Int).Add(invariant, b))

	prev := new(big.Int)
	num := new(big.Int)
	den := new(big.Int)
	for i := 0; i < maxIterations; i++ {
		prev.Set(balance)
		num.Mul(balance, balance)
		num.Add(num, c)
		den.Lsh(balance, 1)
		den.Add(den, b)
		den.Sub(den, invariant)
		balance = quoUp(new(big.Int).Set(num), den)

		if converged(balance, prev) {
			return balance, nil
		}
	}
	return nil, ErrBalanceDidNotConverge
}

// ComputeOutGivenIn returns the amount of token indexOut leaving the pool
// for amountIn of token indexIn entering it. balances must be scaled-18,
// rate adjusted and fee already deducted from amountIn.
func ComputeOutGivenIn(amp *big.Int, balances []*big.Int, indexIn, indexOut int, amountIn *big.Int) (*big.Int, error) {
	invariant, err := ComputeInvariant(amp, balances)
	if err != nil {
		return nil, err
	}

	updated := withReplaced(balances, indexIn, new(big.Int).Add(balances[indexIn], amountIn))
	finalBalanceOut, err := ComputeBalance(amp, updated, invariant, indexOut)
	if err != nil {
		return nil, err
	}
	if finalBalanceOut.Cmp(balances[indexOut]) >= 0 {
		return new(big.Int), nil
	}

	out := new(big.Int).Sub(balances[indexOut], finalBalanceOut)
	out.Sub(out, big.NewInt(1))
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out, nil
}

// ComputeInGivenOut returns the amount of token indexIn the pool requires
// for amountOut of token indexOut to leave it; the caller grosses the
// result up by the fee.
func ComputeInGivenOut(amp *big.Int, balances []*big.Int, indexIn, indexOut int, amountOut *big.Int) (*big.Int, error) {
	if amountOut.Cmp(balances[indexOut]) >= 0 {
		return nil, ErrInsufficientLiquidity
	}
	invariant, err := ComputeInvariant(amp, balances)
	if err != nil {
		return nil, err
	}

	updated := withReplaced(balances, indexOut, new(big.Int).Sub(balances[indexOut], amountOut))
	finalBalanceIn, err := ComputeBalance(amp, updated, invariant, indexIn)
	if err != nil {
		return nil, err
	}

	in := new(big.Int).Sub(finalBalanceIn, balances[indexIn])
	return in.Add(in, big.NewInt(1)), nil
}

// converged reports |a-b| <= 1 wei.
func converged(a, b *big.Int) bool {
	d := new(big.Int).Sub(a, b)
	d.Abs(d)
	return d.Cmp(big.NewInt(1)) <= 0
}

// quoUp divides rounding up; num must be non-negative, den positive.
func quoUp(num, den *big.Int) *big.Int {
	num.Add(num, den)
	num.Sub(num, big.NewInt(1))
	return num.Quo(num, den)
}

func withReplaced(balances []*big.Int, index int, value *big.Int) []*big.Int {
	out := make([]*big.Int, len(balances))
	copy(out, balances)
	out[index] = value
	return out
}

func nPlusOne(n *big.Int) *big.Int {
	return new(big.Int).Add(n, big.NewInt(1))
}
