package router

import (
	"math/big"
	"sort"

	"github.com/defistate/swap-router-go/bitset"
	"github.com/defistate/swap-router-go/graph"
)

// candidate is an unpriced path: a sequence of edges from tokenIn to
// tokenOut, plus the minimum liquidity score along it for ranking.
type candidate struct {
	edges    []graph.Edge
	minScore *big.Int
}

// enumeratePaths runs a depth-bounded DFS from tokenIn to tokenOut. A token
// and a pool may each appear at most once per path; wrap/unwrap chains stay
// legal because every buffer is its own graph pool. Results are ranked by
// (fewer hops, higher minimum pool liquidity) and truncated to maxPaths.
func enumeratePaths(g *graph.Graph, from, to, maxHops, maxPaths int) []candidate {
	if from == to || g.NumTokens() == 0 {
		return nil
	}

	var (
		found         []candidate
		visitedTokens = bitset.New(g.NumTokens())
		visitedPools  = bitset.New(g.NumPools())
		stack         []graph.Edge
	)

	var walk func(at, depth int)
	walk = func(at, depth int) {
		if len(found) >= maxCandidates {
			return
		}
		for _, e := range g.EdgesFrom(at) {
			if visitedPools.IsSet(e.Pool) {
				continue
			}
			if e.To == to {
				found = append(found, newCandidate(g, append(stack, e)))
				if len(found) >= maxCandidates {
					return
				}
				continue
			}
			if depth+1 >= maxHops || visitedTokens.IsSet(e.To) {
				continue
			}

			visitedTokens.Set(e.To)
			visitedPools.Set(e.Pool)
			stack = append(stack, e)

			walk(e.To, depth+1)

			stack = stack[:len(stack)-1]
			visitedPools.Unset(e.Pool)
			visitedTokens.Unset(e.To)
		}
	}

	visitedTokens.Set(from)
	walk(from, 0)

	sort.SliceStable(found, func(i, j int) bool {
		if len(found[i].edges) != len(found[j].edges) {
			return len(found[i].edges) < len(found[j].edges)
		}
		return found[i].minScore.Cmp(found[j].minScore) > 0
	})
	if len(found) > maxPaths {
		found = found[:maxPaths]
	}
	return found
}

func newCandidate(g *graph.Graph, edges []graph.Edge) candidate {
	c := candidate{edges: make([]graph.Edge, len(edges))}
	copy(c.edges, edges)
	for _, e := range c.edges {
		if c.minScore == nil || g.Scores[e.Pool].Cmp(c.minScore) < 0 {
			c.minScore = g.Scores[e.Pool]
		}
	}
	return c
}
