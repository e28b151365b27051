// Package router is the routing core: it enumerates candidate paths through
// the pool graph, splits the trade amount across them, and assembles the
// final quote.
package router

import (
	"errors"
	"math/big"
	"time"

	"github.com/defistate/swap-router-go/engine"
	"github.com/defistate/swap-router-go/pools"
)

// SwapKind re-exports the engine's swap direction for callers of the public
// API.
type SwapKind = engine.SwapKind

const (
	GivenIn  = engine.GivenIn
	GivenOut = engine.GivenOut
)

var (
	// ErrSameToken is returned when tokenIn equals tokenOut.
	ErrSameToken = errors.New("router: tokenIn equals tokenOut")
	// ErrInvalidAmount is returned for nil, zero or negative trade amounts.
	ErrInvalidAmount = errors.New("router: invalid amount")
	// ErrUnknownToken is returned when a requested token appears in no
	// routable pool.
	ErrUnknownToken = errors.New("router: unknown token")

	// errPathUnviable marks a candidate path that cannot price the amount
	// assigned to it. It never escapes the package; the path is dropped.
	errPathUnviable = errors.New("router: path unviable")
)

// Routing defaults and optimizer constants.
const (
	DefaultMaxHops       = 4
	DefaultMaxPaths      = 8
	DefaultMaxIterations = 32

	// probeDivisor sizes the marginal-rate probe; shiftDivisor sizes the
	// amount moved between paths per optimizer iteration.
	probeDivisor = 1000
	shiftDivisor = 100

	// maxCandidates caps the DFS so degenerate graphs cannot blow up the
	// search before ranking kicks in.
	maxCandidates = 1024
)

// Options tunes one routing request. Zero values select the defaults.
type Options struct {
	// MaxHops bounds path length in pools.
	MaxHops int
	// MaxPaths bounds how many candidate paths enter the optimizer.
	MaxPaths int
	// MaxIterations bounds the split optimizer.
	MaxIterations int

	// CurrentTimestamp is the chain time used by time-dependent pool types.
	// Required when the snapshot contains RECLAMM or QUANT_AMM pools.
	CurrentTimestamp uint64

	// Deadline, when set, stops the optimizer early with the best split
	// found so far.
	Deadline time.Time
}

func (o Options) withDefaults() Options {
	if o.MaxHops <= 0 {
		o.MaxHops = DefaultMaxHops
	}
	if o.MaxPaths <= 0 {
		o.MaxPaths = DefaultMaxPaths
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	return o
}

// Path is one routed leg of the final quote: the pool sequence, the token
// sequence (one longer than the pools), and the raw amounts at the path
// boundaries.
type Path struct {
	Pools  []*pools.Pool `json:"pools"`
	Tokens []pools.Token `json:"tokens"`

	InputAmountRaw  *big.Int `json:"inputAmountRaw"`
	OutputAmountRaw *big.Int `json:"outputAmountRaw"`

	ProtocolVersion int `json:"protocolVersion"`
}
