package fixedpoint

import (
	"errors"
	"math/big"
)

// Port of the on-chain natural log / exponentiation routines. Intermediate
// values use 20- and 36-decimal precision; every division truncates toward
// zero (big.Int Quo) to match the EVM's signed division.

var (
	// ErrPowBaseOutOfBounds is returned for pow bases the reference
	// implementation rejects.
	ErrPowBaseOutOfBounds = errors.New("fixedpoint: pow base out of bounds")
	// ErrExpOutOfBounds is returned when the product y*ln(x) leaves the
	// invertible range of the exponential.
	ErrExpOutOfBounds = errors.New("fixedpoint: exponent out of bounds")
	// ErrLnNonPositive is returned for ln of zero or a negative argument.
	ErrLnNonPositive = errors.New("fixedpoint: ln argument must be positive")
)

var (
	one18 = big.NewInt(1e18)
	one20 = new(big.Int).Mul(big.NewInt(1e18), big.NewInt(100))
	one36 = new(big.Int).Mul(big.NewInt(1e18), big.NewInt(1e18))

	maxNaturalExponent = new(big.Int).Mul(big.NewInt(130), one18)
	minNaturalExponent = new(big.Int).Mul(big.NewInt(-41), one18)

	ln36LowerBound = new(big.Int).Sub(one18, big.NewInt(1e17))
	ln36UpperBound = new(big.Int).Add(one18, big.NewInt(1e17))

	hundred = big.NewInt(100)

	// x_n = 2^(7-n), 18-decimal for n < 2 and 20-decimal from n = 2 on.
	// a_n = e^(x_n) at the matching precision.
	expX0  = mustBig("128000000000000000000")
	expA0  = mustBig("38877084059945950922200000000000000000000000000000000000")
	expX1  = mustBig("64000000000000000000")
	expA1  = mustBig("6235149080811616882910000000")
	expX2  = mustBig("3200000000000000000000")
	expA2  = mustBig("7896296018268069516100000000000000")
	expX3  = mustBig("1600000000000000000000")
	expA3  = mustBig("888611052050787263676000000")
	expX4  = mustBig("800000000000000000000")
	expA4  = mustBig("298095798704172827474000")
	expX5  = mustBig("400000000000000000000")
	expA5  = mustBig("5459815003314423907810")
	expX6  = mustBig("200000000000000000000")
	expA6  = mustBig("738905609893065022723")
	expX7  = mustBig("100000000000000000000")
	expA7  = mustBig("271828182845904523536")
	expX8  = mustBig("50000000000000000000")
	expA8  = mustBig("164872127070012814685")
	expX9  = mustBig("25000000000000000000")
	expA9  = mustBig("128402541668774148407")
	expX10 = mustBig("12500000000000000000")
	expA10 = mustBig("113314845306682631683")
	expX11 = mustBig("6250000000000000000")
	expA11 = mustBig("106449445891785942956")
)

func mustBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fixedpoint: bad constant " + s)
	}
	return n
}

// Pow returns x^y for non-negative 18-decimal x and y, computed as
// exp(y*ln(x)). Bases close to 1.0 route through the 36-decimal ln to keep
// the relative error of the product small.
func Pow(x, y *big.Int) (*big.Int, error) {
	if y.Sign() == 0 {
		return new(big.Int).Set(one18), nil
	}
	if x.Sign() == 0 {
		return new(big.Int), nil
	}
	if x.Sign() < 0 || y.Sign() < 0 {
		return nil, ErrPowBaseOutOfBounds
	}

	var logxTimesY *big.Int
	if x.Cmp(ln36LowerBound) > 0 && x.Cmp(ln36UpperBound) < 0 {
		ln36 := ln36(x)
		// Split into the 18-decimal integer part and the 18-decimal
		// fraction so the product keeps the extra precision.
		q, r := new(big.Int).QuoRem(ln36, one18, new(big.Int))
		logxTimesY = q.Mul(q, y)
		r.Mul(r, y)
		r.Quo(r, one18)
		logxTimesY.Add(logxTimesY, r)
	} else {
		lnX, err := Ln(x)
		if err != nil {
			return nil, err
		}
		logxTimesY = lnX.Mul(lnX, y)
	}
	logxTimesY.Quo(logxTimesY, one18)

	if logxTimesY.Cmp(minNaturalExponent) < 0 || logxTimesY.Cmp(maxNaturalExponent) > 0 {
		return nil, ErrExpOutOfBounds
	}
	return Exp(logxTimesY)
}

// Exp returns e^x for a signed 18-decimal x within the natural exponent
// bounds.
func Exp(x *big.Int) (*big.Int, error) {
	if x.Cmp(minNaturalExponent) < 0 || x.Cmp(maxNaturalExponent) > 0 {
		return nil, ErrExpOutOfBounds
	}
	if x.Sign() < 0 {
		// e^-x = 1/e^x, at 18-decimal precision.
		pos, err := Exp(new(big.Int).Neg(x))
		if err != nil {
			return nil, err
		}
		res := new(big.Int).Mul(one18, one18)
		return res.Quo(res, pos), nil
	}

	x = new(big.Int).Set(x)
	firstAN := big.NewInt(1)
	if x.Cmp(expX0) >= 0 {
		x.Sub(x, expX0)
		firstAN = expA0
	} else if x.Cmp(expX1) >= 0 {
		x.Sub(x, expX1)
		firstAN = expA1
	}

	// Move to 20-decimal precision for the product and the series.
	x.Mul(x, hundred)
	product := new(big.Int).Set(one20)

	steps := []struct{ x, a *big.Int }{
		{expX2, expA2}, {expX3, expA3}, {expX4, expA4}, {expX5, expA5},
		{expX6, expA6}, {expX7, expA7}, {expX8, expA8}, {expX9, expA9},
	}
	for _, s := range steps {
		if x.Cmp(s.x) >= 0 {
			x.Sub(x, s.x)
			product.Mul(product, s.a)
			product.Quo(product, one20)
		}
	}
	// expX10 and expX11 are not needed here: the remainder is small enough
	// for the Taylor series alone.

	seriesSum := new(big.Int).Set(one20)
	term := new(big.Int).Set(x)
	seriesSum.Add(seriesSum, term)
	for n := int64(2); n <= 12; n++ {
		term.Mul(term, x)
		term.Quo(term, one20)
		term.Quo(term, big.NewInt(n))
		seriesSum.Add(seriesSum, term)
	}

	res := product.Mul(product, seriesSum)
	res.Quo(res, one20)
	res.Mul(res, firstAN)
	return res.Quo(res, hundred), nil
}

// Ln returns the natural log of an 18-decimal a > 0.
func Ln(a *big.Int) (*big.Int, error) {
	if a.Sign() <= 0 {
		return nil, ErrLnNonPositive
	}
	return ln(new(big.Int).Set(a)), nil
}

func ln(a *big.Int) *big.Int {
	if a.Cmp(one18) < 0 {
		// ln(a) = -ln(1/a) for a < 1.
		inv := new(big.Int).Mul(one18, one18)
		inv.Quo(inv, a)
		r := ln(inv)
		return r.Neg(r)
	}

	sum := new(big.Int)
	if t := new(big.Int).Mul(expA0, one18); a.Cmp(t) >= 0 {
		a.Quo(a, expA0)
		sum.Add(sum, expX0)
	}
	if t := new(big.Int).Mul(expA1, one18); a.Cmp(t) >= 0 {
		a.Quo(a, expA1)
		sum.Add(sum, expX1)
	}

	sum.Mul(sum, hundred)
	a.Mul(a, hundred)

	steps := []struct{ x, a *big.Int }{
		{expX2, expA2}, {expX3, expA3}, {expX4, expA4}, {expX5, expA5},
		{expX6, expA6}, {expX7, expA7}, {expX8, expA8}, {expX9, expA9},
		{expX10, expA10}, {expX11, expA11},
	}
	for _, s := range steps {
		if a.Cmp(s.a) >= 0 {
			a.Mul(a, one20)
			a.Quo(a, s.a)
			sum.Add(sum, s.x)
		}
	}

	// ln(a) = 2*(z + z^3/3 + z^5/5 + ...), z = (a-1)/(a+1), 20-decimal.
	num := new(big.Int).Sub(a, one20)
	num.Mul(num, one20)
	den := new(big.Int).Add(a, one20)
	z := num.Quo(num, den)
	zSquared := new(big.Int).Mul(z, z)
	zSquared.Quo(zSquared, one20)

	term := new(big.Int).Set(z)
	seriesSum := new(big.Int).Set(z)
	for n := int64(3); n <= 11; n += 2 {
		term.Mul(term, zSquared)
		term.Quo(term, one20)
		seriesSum.Add(seriesSum, new(big.Int).Quo(term, big.NewInt(n)))
	}
	seriesSum.Mul(seriesSum, big.NewInt(2))

	sum.Add(sum, seriesSum)
	return sum.Quo(sum, hundred)
}

// ln36 computes ln for arguments close to one at 36-decimal precision.
func ln36(x *big.Int) *big.Int {
	x = new(big.Int).Mul(x, one18)

	num := new(big.Int).Sub(x, one36)
	num.Mul(num, one36)
	den := new(big.Int).Add(x, one36)
	z := num.Quo(num, den)
	zSquared := new(big.Int).Mul(z, z)
	zSquared.Quo(zSquared, one36)

	term := new(big.Int).Set(z)
	seriesSum := new(big.Int).Set(z)
	for n := int64(3); n <= 15; n += 2 {
		term.Mul(term, zSquared)
		term.Quo(term, one36)
		seriesSum.Add(seriesSum, new(big.Int).Quo(term, big.NewInt(n)))
	}
	return seriesSum.Mul(seriesSum, big.NewInt(2))
}
