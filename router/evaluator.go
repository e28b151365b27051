package router

import (
	"fmt"
	"math/big"

	"github.com/defistate/swap-router-go/engine"
	"github.com/defistate/swap-router-go/graph"
	"github.com/defistate/swap-router-go/pools"
)

// evaluatePath prices a candidate for a raw given-side amount. For GivenIn
// the hops run forward and the result is the raw output; for GivenOut they
// run backward and the result is the raw required input. Amounts stay
// scaled-18 between hops; raw conversion happens only at the two ends,
// rounding the trader's proceeds down and the trader's dues up.
func evaluatePath(g *graph.Graph, c candidate, amountRaw *big.Int, kind SwapKind, ts uint64) (*big.Int, error) {
	if amountRaw == nil || amountRaw.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive amount", errPathUnviable)
	}

	if kind == engine.GivenIn {
		first := c.edges[0]
		amount := pools.ScaleToScaled18(amountRaw, g.Pools[first.Pool].Tokens[first.IndexIn].Decimals)

		for _, e := range c.edges {
			out, err := engine.Swap(g.Pools[e.Pool], e.IndexIn, e.IndexOut, amount, engine.GivenIn, ts)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", errPathUnviable, err)
			}
			amount = out
		}

		last := c.edges[len(c.edges)-1]
		return pools.ScaleFromScaled18Down(amount, g.Pools[last.Pool].Tokens[last.IndexOut].Decimals), nil
	}

	last := c.edges[len(c.edges)-1]
	amount := pools.ScaleToScaled18(amountRaw, g.Pools[last.Pool].Tokens[last.IndexOut].Decimals)

	for i := len(c.edges) - 1; i >= 0; i-- {
		e := c.edges[i]
		in, err := engine.Swap(g.Pools[e.Pool], e.IndexIn, e.IndexOut, amount, engine.GivenOut, ts)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errPathUnviable, err)
		}
		amount = in
	}

	first := c.edges[0]
	return pools.ScaleFromScaled18Up(amount, g.Pools[first.Pool].Tokens[first.IndexIn].Decimals), nil
}
