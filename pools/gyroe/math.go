// Package gyroe implements the E-CLP (elliptic concentrated liquidity)
// invariant. Liquidity lives on an ellipse obtained by rotating (cos = c,
// sin = s) and stretching (factor lambda) a circle of radius r; the pool
// holds prices inside [alpha, beta].
//
// Pool parameters are 18-decimal; the derived tau/u/v/w/z/dSq constants are
// 38-decimal ("extra precision") signed values, computed off-chain. All
// intermediate math here is signed big.Int with truncating division, using
// 38-decimal intermediates where the on-chain contracts do.
package gyroe

import (
	"errors"
	"math/big"

	"github.com/defistate/swap-router-go/pools"
)

var (
	// ErrAssetBounds is returned when a swap would push a balance past the
	// virtual offsets (outside the pool's price range).
	ErrAssetBounds = errors.New("gyroe: asset bounds exceeded")
	// ErrInvalidParams is returned when the derived parameters do not
	// describe a valid ellipse (non-positive invariant denominator or a
	// negative discriminant).
	ErrInvalidParams = errors.New("gyroe: invalid pool parameters")
	// ErrTwoTokensOnly is returned for pools that are not two-token.
	ErrTwoTokensOnly = errors.New("gyroe: exactly two balances required")
)

var (
	oneNp    = big.NewInt(1e18)                             // 18-decimal one
	tenPow20 = new(big.Int).Exp(big.NewInt(10), big.NewInt(20), nil)
	oneXp    = new(big.Int).Mul(big.NewInt(1e18), tenPow20) // 38-decimal one
	two      = big.NewInt(2)
)

// mulNp multiplies two 18-decimal values into an 18-decimal result.
func mulNp(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, oneNp)
}

// mulXp multiplies two 38-decimal values into a 38-decimal result.
func mulXp(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, oneXp)
}

// mulNpXp multiplies an 18-decimal value by a 38-decimal value, returning
// 38 decimals.
func mulNpXp(np, xp *big.Int) *big.Int {
	p := new(big.Int).Mul(np, xp)
	return p.Quo(p, oneNp)
}

// mulXpToNp multiplies an 18-decimal value by a 38-decimal value, returning
// 18 decimals.
func mulXpToNp(np, xp *big.Int) *big.Int {
	p := new(big.Int).Mul(np, xp)
	return p.Quo(p, oneXp)
}

// divXpNp divides a 38-decimal value by an 18-decimal value, returning 38
// decimals.
func divXpNp(xp, np *big.Int) *big.Int {
	p := new(big.Int).Mul(xp, oneNp)
	return p.Quo(p, np)
}

// divXp divides two 38-decimal values, returning 38 decimals.
func divXp(a, b *big.Int) *big.Int {
	p := new(big.Int).Mul(a, oneXp)
	return p.Quo(p, b)
}

// geometry bundles the per-swap derived quantities so they are computed
// once per pool evaluation.
type geometry struct {
	lambda *big.Int // 18-dec
	c, s   *big.Int // 18-dec

	// Normalized derived parameters (divided by dSq), 38-dec.
	tauAlphaX, tauAlphaY *big.Int
	tauBetaX, tauBetaY   *big.Int
	u, v, w, z           *big.Int

	// aCoef = s^2/lambda^2 + c^2, cCoef = c^2/lambda^2 + s^2, both 38-dec.
	// bCoef = 2*s*c*(1 - 1/lambda^2), 38-dec.
	aCoef, bCoef, cCoef *big.Int

	r *big.Int // invariant, 18-dec

	offsetA, offsetB *big.Int // virtual offsets r*chi, 18-dec
}

func newGeometry(balances []*big.Int, p *pools.GyroEParams) (*geometry, error) {
	if p.DSq == nil || p.DSq.Sign() <= 0 || p.Lambda == nil || p.Lambda.Sign() <= 0 {
		return nil, ErrInvalidParams
	}

	g := &geometry{
		lambda:    p.Lambda,
		c:         p.C,
		s:         p.S,
		tauAlphaX: divXp(p.TauAlphaX, p.DSq),
		tauAlphaY: divXp(p.TauAlphaY, p.DSq),
		tauBetaX:  divXp(p.TauBetaX, p.DSq),
		tauBetaY:  divXp(p.TauBetaY, p.DSq),
		u:         divXp(p.U, p.DSq),
		v:         divXp(p.V, p.DSq),
		w:         divXp(p.W, p.DSq),
		z:         divXp(p.Z, p.DSq),
	}

	// s^2, c^2 and s*c lifted to 38 decimals.
	sSq := new(big.Int).Mul(p.S, p.S)
	sSq.Mul(sSq, big.NewInt(100))
	cSq := new(big.Int).Mul(p.C, p.C)
	cSq.Mul(cSq, big.NewInt(100))
	sc := new(big.Int).Mul(p.S, p.C)
	sc.Mul(sc, big.NewInt(100))

	sSqOverLamSq := divXpNp(divXpNp(sSq, g.lambda), g.lambda)
	cSqOverLamSq := divXpNp(divXpNp(cSq, g.lambda), g.lambda)

	g.aCoef = new(big.Int).Add(sSqOverLamSq, cSq)
	g.cCoef = new(big.Int).Add(cSqOverLamSq, sSq)

	// lamBar = 1 - 1/lambda^2.
	invLamSq := divXpNp(divXpNp(new(big.Int).Set(oneXp), g.lambda), g.lambda)
	lamBar := new(big.Int).Sub(oneXp, invLamSq)
	g.bCoef = new(big.Int).Mul(two, mulXp(sc, lamBar))

	if err := g.computeInvariant(balances); err != nil {
		return nil, err
	}
	g.computeOffsets()
	return g, nil
}

// computeInvariant solves r^2*(|Achi|^2 - 1) - 2r*(At . Achi) + |At|^2 = 0
// for the larger root, the circle for which the balance point sits on the
// pool-side arc.
func (g *geometry) computeInvariant(balances []*big.Int) error {
	x, y := balances[0], balances[1]

	// At = A(x, y): AtX = (c*x - s*y)/lambda, AtY = s*x + c*y. 18-dec.
	atX := new(big.Int).Sub(mulNp(g.c, x), mulNp(g.s, y))
	atX.Mul(atX, oneNp)
	atX.Quo(atX, g.lambda)
	atY := new(big.Int).Add(mulNp(g.s, x), mulNp(g.c, y))

	// Achi: AchiX = w/lambda + z, AchiY = lambda*u + v. 38-dec.
	achiX := new(big.Int).Add(divXpNp(g.w, g.lambda), g.z)
	achiY := new(big.Int).Add(mulNpXp(g.lambda, g.u), g.v)

	// |Achi|^2 - 1, folded down to 18 decimals for the quadratic.
	achiSq := new(big.Int).Add(mulXp(achiX, achiX), mulXp(achiY, achiY))
	denomXp := new(big.Int).Sub(achiSq, oneXp)
	if denomXp.Sign() <= 0 {
		return ErrInvalidParams
	}
	denomNp := new(big.Int).Quo(denomXp, tenPow20)
	if denomNp.Sign() == 0 {
		return ErrInvalidParams
	}

	atAChi := new(big.Int).Add(mulXpToNp(atX, achiX), mulXpToNp(atY, achiY))
	atSq := new(big.Int).Add(mulNp(atX, atX), mulNp(atY, atY))

	// discriminant at 36 decimals, its square root lands back on 18.
	disc := new(big.Int).Mul(atAChi, atAChi)
	disc.Sub(disc, new(big.Int).Mul(denomNp, atSq))
	if disc.Sign() < 0 {
		return ErrInvalidParams
	}
	sqrtDisc := new(big.Int).Sqrt(disc)

	r := new(big.Int).Add(atAChi, sqrtDisc)
	r.Mul(r, oneNp)
	r.Quo(r, denomNp)
	if r.Sign() <= 0 {
		return ErrInvalidParams
	}
	g.r = r
	return nil
}

// computeOffsets derives the virtual offsets (a, b) = r * chi with
// chi = (A^-1 tau(beta))_x, (A^-1 tau(alpha))_y.
func (g *geometry) computeOffsets() {
	// chiX = lambda*c*tauBetaX + s*tauBetaY, 38-dec.
	chiX := new(big.Int).Add(
		mulNpXp(mulNp(g.lambda, g.c), g.tauBetaX),
		mulNpXp(g.s, g.tauBetaY),
	)
	// chiY = -lambda*s*tauAlphaX + c*tauAlphaY, 38-dec.
	chiY := new(big.Int).Sub(
		mulNpXp(g.c, g.tauAlphaY),
		mulNpXp(mulNp(g.lambda, g.s), g.tauAlphaX),
	)
	g.offsetA = mulXpToNp(g.r, chiX)
	g.offsetB = mulXpToNp(g.r, chiY)
}

// solveOtherBalance returns the counterpart balance for a given primal
// balance. For primal x it solves the rotated-ellipse quadratic
//
//	aCoef*y'^2 + bCoef*x'*y' + cCoef*x'^2 - r^2 = 0
//
// for the negative root y' and returns y = offset + y'. Swapping the roles
// of x and y swaps aCoef and cCoef (the geometry is symmetric under
// exchanging the axes together with s and c).
func (g *geometry) solveOtherBalance(primal, primalOffset, otherOffset, quadA, quadC *big.Int) (*big.Int, error) {
	prime := new(big.Int).Sub(primal, primalOffset)
	if prime.Sign() >= 0 {
		// The primal balance reached its virtual maximum.
		return nil, ErrAssetBounds
	}

	// b term of the quadratic: bCoef*x', 18-dec.
	bq := mulXpToNp(prime, g.bCoef)
	// constant term: cCoef*x'^2 - r^2, 18-dec.
	cq := mulXpToNp(mulNp(prime, prime), quadC)
	cq.Sub(cq, mulNp(g.r, g.r))
	// leading coefficient folded to 18-dec.
	aq := new(big.Int).Quo(quadA, tenPow20)
	if aq.Sign() <= 0 {
		return nil, ErrInvalidParams
	}

	disc := new(big.Int).Mul(bq, bq)
	fourAC := new(big.Int).Mul(aq, cq)
	fourAC.Mul(fourAC, big.NewInt(4))
	disc.Sub(disc, fourAC)
	if disc.Sign() < 0 {
		return nil, ErrAssetBounds
	}
	sqrtDisc := new(big.Int).Sqrt(disc)

	// negative root: (-bq - sqrt) / (2*aq), scaled back to 18 decimals.
	otherPrime := new(big.Int).Neg(bq)
	otherPrime.Sub(otherPrime, sqrtDisc)
	otherPrime.Mul(otherPrime, oneNp)
	otherPrime.Quo(otherPrime, new(big.Int).Mul(two, aq))

	other := new(big.Int).Add(otherOffset, otherPrime)
	if other.Sign() < 0 {
		return nil, ErrAssetBounds
	}
	return other, nil
}

// CalcOutGivenIn returns the scaled-18 output amount for a scaled-18 input
// amount (fee already deducted by the caller).
func CalcOutGivenIn(balances []*big.Int, amountIn *big.Int, tokenInIsToken0 bool, p *pools.GyroEParams) (*big.Int, error) {
	if len(balances) != 2 {
		return nil, ErrTwoTokensOnly
	}
	g, err := newGeometry(balances, p)
	if err != nil {
		return nil, err
	}

	var newOther, oldOther *big.Int
	if tokenInIsToken0 {
		newPrimal := new(big.Int).Add(balances[0], amountIn)
		newOther, err = g.solveOtherBalance(newPrimal, g.offsetA, g.offsetB, g.aCoef, g.cCoef)
		oldOther = balances[1]
	} else {
		newPrimal := new(big.Int).Add(balances[1], amountIn)
		newOther, err = g.solveOtherBalance(newPrimal, g.offsetB, g.offsetA, g.cCoef, g.aCoef)
		oldOther = balances[0]
	}
	if err != nil {
		return nil, err
	}

	out := new(big.Int).Sub(oldOther, newOther)
	out.Sub(out, big.NewInt(1)) // round against the trader
	if out.Sign() < 0 {
		return new(big.Int), nil
	}
	if out.Cmp(oldOther) >= 0 {
		return nil, ErrAssetBounds
	}
	return out, nil
}

// CalcInGivenOut returns the scaled-18 input amount required for a
// scaled-18 output amount (fee grossed up by the caller).
func CalcInGivenOut(balances []*big.Int, amountOut *big.Int, tokenInIsToken0 bool, p *pools.GyroEParams) (*big.Int, error) {
	if len(balances) != 2 {
		return nil, ErrTwoTokensOnly
	}
	g, err := newGeometry(balances, p)
	if err != nil {
		return nil, err
	}

	var newOther, oldOther *big.Int
	if tokenInIsToken0 {
		if amountOut.Cmp(balances[1]) >= 0 {
			return nil, ErrAssetBounds
		}
		newPrimal := new(big.Int).Sub(balances[1], amountOut)
		newOther, err = g.solveOtherBalance(newPrimal, g.offsetB, g.offsetA, g.cCoef, g.aCoef)
		oldOther = balances[0]
	} else {
		if amountOut.Cmp(balances[0]) >= 0 {
			return nil, ErrAssetBounds
		}
		newPrimal := new(big.Int).Sub(balances[0], amountOut)
		newOther, err = g.solveOtherBalance(newPrimal, g.offsetA, g.offsetB, g.aCoef, g.cCoef)
		oldOther = balances[1]
	}
	if err != nil {
		return nil, err
	}

	in := new(big.Int).Sub(newOther, oldOther)
	in.Add(in, big.NewInt(1)) // round against the trader
	if in.Sign() <= 0 {
		return nil, ErrAssetBounds
	}
	return in, nil
}
