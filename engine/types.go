// Package engine evaluates a single swap hop against a pool snapshot. It
// owns the parts of pricing that are common to every pool type: swap-fee
// application, price-rate adjustment and the raw/scaled-18 boundary,
// delegating the invariant math to the per-type packages.
package engine

import "errors"

// SwapKind selects which side of a swap is fixed.
type SwapKind int

const (
	// GivenIn fixes the input amount; the output is computed.
	GivenIn SwapKind = iota
	// GivenOut fixes the output amount; the input is computed.
	GivenOut
)

func (k SwapKind) String() string {
	switch k {
	case GivenIn:
		return "GIVEN_IN"
	case GivenOut:
		return "GIVEN_OUT"
	}
	return "UNKNOWN"
}

var (
	// ErrUnsupportedPoolType is returned for pool types the engine has no
	// math for.
	ErrUnsupportedPoolType = errors.New("engine: unsupported pool type")
	// ErrPoolMathInvalid wraps per-type math failures and malformed pool
	// parameters. Callers treat it as "this hop cannot price this trade",
	// not as a request error.
	ErrPoolMathInvalid = errors.New("engine: pool math invalid")
	// ErrInvalidSwap is returned for zero or negative amounts and
	// out-of-range token indexes.
	ErrInvalidSwap = errors.New("engine: invalid swap")
)
