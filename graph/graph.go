// Package graph builds the token adjacency structure the path enumerator
// walks. Tokens and pools are interned into dense indexes once per snapshot;
// all routing hot loops work on ints, never on addresses.
package graph

import (
	"errors"
	"fmt"
	"math/big"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"

	"github.com/defistate/swap-router-go/pools"
)

// ErrMalformedPool is returned when a snapshot entry is structurally broken
// (present-but-zero rate, negative balance). Broken data is a hard error,
// not a filter: silently skipping it would hide an upstream bug.
var ErrMalformedPool = errors.New("graph: malformed pool")

// supportedHooks is the set of hook types the engine can price. Pools with
// any other hook are excluded from routing rather than mis-priced.
var supportedHooks = mapset.NewThreadUnsafeSet(
	pools.HookNone,
	pools.HookSwapFeeOverride,
)

// Edge is one tradable hop: swap into pool Pool (index into Graph.Pools)
// entering at token position IndexIn, leaving at IndexOut, arriving at
// graph token index To.
type Edge struct {
	To       int
	Pool     int
	IndexIn  int
	IndexOut int
}

// Graph is the immutable routing view of one snapshot.
type Graph struct {
	Tokens []pools.Token
	Pools  []*pools.Pool

	// Scores caches each pool's liquidity score, aligned with Pools.
	Scores []*big.Int

	tokenIndex map[common.Address]int
	adjacency  [][]Edge
}

// Build interns every routable pool in the snapshot. Unusable pools (paused,
// too few tokens, empty balances, unknown hooks) are skipped; malformed
// pools fail the whole build.
func Build(ps []*pools.Pool, buffers []*pools.BufferPool) (*Graph, error) {
	g := &Graph{
		tokenIndex: make(map[common.Address]int),
	}

	for _, p := range ps {
		ok, err := routable(p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		g.addPool(p)
	}

	for _, b := range buffers {
		bp, err := synthesizeBuffer(b)
		if err != nil {
			return nil, err
		}
		if bp == nil {
			continue
		}
		g.addPool(bp)
	}

	return g, nil
}

// routable reports whether the pool can participate in routing, and errors
// on structurally broken entries.
func routable(p *pools.Pool) (bool, error) {
	if p.Type == pools.Buffer {
		if p.BufferRate == nil || p.BufferRate.Sign() <= 0 {
			return false, fmt.Errorf("%w: buffer %s without a rate", ErrMalformedPool, p.Address)
		}
	}
	if p.Paused || len(p.Tokens) < 2 {
		return false, nil
	}
	if p.Hook != nil && !supportedHooks.Contains(p.Hook.Type) {
		return false, nil
	}
	for i := range p.Tokens {
		t := &p.Tokens[i]
		if t.BalanceScaled18 != nil && t.BalanceScaled18.Sign() < 0 {
			return false, fmt.Errorf("%w: pool %s token %s negative balance", ErrMalformedPool, p.Address, t.Address)
		}
		if t.PriceRate != nil && t.PriceRate.Sign() <= 0 {
			// nil means "defaults to 1e18"; zero means the feed is broken.
			return false, fmt.Errorf("%w: pool %s token %s zero rate", ErrMalformedPool, p.Address, t.Address)
		}
		if t.BalanceScaled18 == nil || t.BalanceScaled18.Sign() == 0 {
			return false, nil
		}
	}
	return true, nil
}

// synthesizeBuffer turns a wrap/unwrap relationship into a two-token pool
// the engine prices with the buffer math. Token 0 is the underlying asset.
func synthesizeBuffer(b *pools.BufferPool) (*pools.Pool, error) {
	if b.Rate == nil || b.Rate.Sign() <= 0 {
		return nil, fmt.Errorf("%w: buffer for %s without a rate", ErrMalformedPool, b.WrappedToken.Address)
	}
	if b.WrappedToken.Address == b.UnderlyingToken.Address {
		return nil, nil
	}
	return &pools.Pool{
		ChainID: b.WrappedToken.ChainID,
		// Buffers have no on-chain pool contract; the wrapped token address
		// identifies the edge.
		Address:    b.WrappedToken.Address,
		Type:       pools.Buffer,
		BufferRate: b.Rate,
		Tokens: []pools.PoolToken{
			{Token: b.UnderlyingToken, Index: 0},
			{Token: b.WrappedToken, Index: 1},
		},
	}, nil
}

func (g *Graph) addPool(p *pools.Pool) {
	poolIdx := len(g.Pools)
	g.Pools = append(g.Pools, p)
	g.Scores = append(g.Scores, p.LiquidityScore())

	indexes := make([]int, len(p.Tokens))
	for i := range p.Tokens {
		indexes[i] = g.internToken(p.Tokens[i].Token)
	}
	for i := range p.Tokens {
		for j := range p.Tokens {
			if i == j {
				continue
			}
			g.adjacency[indexes[i]] = append(g.adjacency[indexes[i]], Edge{
				To:       indexes[j],
				Pool:     poolIdx,
				IndexIn:  i,
				IndexOut: j,
			})
		}
	}
}

func (g *Graph) internToken(t pools.Token) int {
	if idx, ok := g.tokenIndex[t.Address]; ok {
		return idx
	}
	idx := len(g.Tokens)
	g.Tokens = append(g.Tokens, t)
	g.tokenIndex[t.Address] = idx
	g.adjacency = append(g.adjacency, nil)
	return idx
}

// TokenIndex resolves an address to its dense token index.
func (g *Graph) TokenIndex(addr common.Address) (int, bool) {
	idx, ok := g.tokenIndex[addr]
	return idx, ok
}

// EdgesFrom returns the outgoing edges of a token index. The slice is owned
// by the graph and must not be mutated.
func (g *Graph) EdgesFrom(tokenIndex int) []Edge {
	if tokenIndex < 0 || tokenIndex >= len(g.adjacency) {
		return nil
	}
	return g.adjacency[tokenIndex]
}

// NumTokens returns the number of interned tokens.
func (g *Graph) NumTokens() int { return len(g.Tokens) }

// NumPools returns the number of routable pools, buffers included.
func (g *Graph) NumPools() int { return len(g.Pools) }
