package router

import (
	"fmt"
	"log/slog"
	"math/big"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/defistate/swap-router-go/engine"
	"github.com/defistate/swap-router-go/graph"
	"github.com/defistate/swap-router-go/pools"
)

// Router computes swap routes over pool snapshots. It holds no mutable
// state; every request builds its own graph from the snapshot it is handed,
// so a Router is safe for concurrent use.
type Router struct {
	log     *slog.Logger
	metrics *metrics
}

// NewRouter wires logging and metrics. Both dependencies are required; pass
// slog.Default() and prometheus.DefaultRegisterer when embedding casually.
func NewRouter(logger *slog.Logger, reg prometheus.Registerer) (*Router, error) {
	if logger == nil {
		return nil, fmt.Errorf("router: logger cannot be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("router: registerer cannot be nil")
	}
	return &Router{
		log:     logger,
		metrics: newMetrics(reg),
	}, nil
}

// ValidateRequest rejects client errors before any routing work: same-token
// swaps and non-positive amounts.
func ValidateRequest(tokenIn, tokenOut pools.Token, amountRaw *big.Int) error {
	if tokenIn.Address == tokenOut.Address {
		return fmt.Errorf("%w: %s", ErrSameToken, tokenIn.Address)
	}
	if amountRaw == nil || amountRaw.Sign() <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidAmount)
	}
	return nil
}

// GetPathsWithPools quotes a trade over the given snapshot. amountRaw is the
// fixed side per kind: the input for GivenIn, the output for GivenOut. The
// returned paths carry raw boundary amounts whose given-side sum equals
// amountRaw exactly. No viable route returns an empty slice and nil error.
func (r *Router) GetPathsWithPools(
	tokenIn, tokenOut pools.Token,
	kind SwapKind,
	amountRaw *big.Int,
	ps []*pools.Pool,
	buffers []*pools.BufferPool,
	protocolVersion int,
	opts Options,
) ([]*Path, error) {
	timer := prometheus.NewTimer(r.metrics.quoteDuration.WithLabelValues(kind.String()))
	defer timer.ObserveDuration()
	opts = opts.withDefaults()

	if err := ValidateRequest(tokenIn, tokenOut, amountRaw); err != nil {
		r.metrics.requestsTotal.WithLabelValues(kind.String(), "invalid").Inc()
		return nil, err
	}

	g, err := graph.Build(ps, buffers)
	if err != nil {
		r.metrics.requestsTotal.WithLabelValues(kind.String(), "error").Inc()
		return nil, err
	}

	fromIdx, ok := g.TokenIndex(tokenIn.Address)
	if !ok {
		r.metrics.requestsTotal.WithLabelValues(kind.String(), "invalid").Inc()
		return nil, fmt.Errorf("%w: tokenIn %s", ErrUnknownToken, tokenIn.Address)
	}
	toIdx, ok := g.TokenIndex(tokenOut.Address)
	if !ok {
		r.metrics.requestsTotal.WithLabelValues(kind.String(), "invalid").Inc()
		return nil, fmt.Errorf("%w: tokenOut %s", ErrUnknownToken, tokenOut.Address)
	}

	cands := enumeratePaths(g, fromIdx, toIdx, opts.MaxHops, opts.MaxPaths)
	if len(cands) == 0 {
		r.noRoute(kind, tokenIn, tokenOut, "no candidate paths")
		return []*Path{}, nil
	}

	routed := optimizeSplit(g, cands, amountRaw, kind, opts.CurrentTimestamp, opts)
	if len(routed) == 0 {
		r.noRoute(kind, tokenIn, tokenOut, "no viable split")
		return []*Path{}, nil
	}

	paths := make([]*Path, 0, len(routed))
	for _, rp := range routed {
		paths = append(paths, materializePath(g, rp, kind, protocolVersion))
	}

	r.metrics.requestsTotal.WithLabelValues(kind.String(), "ok").Inc()
	r.metrics.pathsReturned.Observe(float64(len(paths)))
	r.log.Debug("route computed",
		"tokenIn", tokenIn.Address,
		"tokenOut", tokenOut.Address,
		"kind", kind.String(),
		"amount", amountRaw.String(),
		"paths", len(paths),
	)
	return paths, nil
}

func (r *Router) noRoute(kind SwapKind, tokenIn, tokenOut pools.Token, reason string) {
	r.metrics.requestsTotal.WithLabelValues(kind.String(), "no_route").Inc()
	r.metrics.noRouteTotal.Inc()
	r.log.Debug("no route",
		"tokenIn", tokenIn.Address,
		"tokenOut", tokenOut.Address,
		"kind", kind.String(),
		"reason", reason,
	)
}

// materializePath resolves a routed candidate into the caller-facing Path.
func materializePath(g *graph.Graph, rp routedPath, kind SwapKind, protocolVersion int) *Path {
	p := &Path{
		Pools:           make([]*pools.Pool, 0, len(rp.cand.edges)),
		Tokens:          make([]pools.Token, 0, len(rp.cand.edges)+1),
		ProtocolVersion: protocolVersion,
	}

	first := rp.cand.edges[0]
	p.Tokens = append(p.Tokens, g.Pools[first.Pool].Tokens[first.IndexIn].Token)
	for _, e := range rp.cand.edges {
		p.Pools = append(p.Pools, g.Pools[e.Pool])
		p.Tokens = append(p.Tokens, g.Pools[e.Pool].Tokens[e.IndexOut].Token)
	}

	if kind == engine.GivenIn {
		p.InputAmountRaw = rp.givenRaw
		p.OutputAmountRaw = rp.calcRaw
	} else {
		p.InputAmountRaw = rp.calcRaw
		p.OutputAmountRaw = rp.givenRaw
	}
	return p
}
