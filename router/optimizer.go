package router

import (
	"math/big"
	"time"

	"github.com/defistate/swap-router-go/engine"
	"github.com/defistate/swap-router-go/graph"
)

// routedPath is a candidate with its final raw amounts: givenRaw on the
// fixed side of the trade, calcRaw on the computed side.
type routedPath struct {
	cand     candidate
	givenRaw *big.Int
	calcRaw  *big.Int
}

// optimizeSplit distributes totalRaw across the candidates and walks the
// split toward equal marginal rates. It never fails: it returns the best
// viable split it saw, or nil when no candidate can price the trade. The
// given-side amounts always sum exactly to totalRaw.
func optimizeSplit(g *graph.Graph, cands []candidate, totalRaw *big.Int, kind SwapKind, ts uint64, opts Options) []routedPath {
	states := seedSplit(g, cands, totalRaw, kind, ts)
	if states == nil {
		return nil
	}
	if len(states) == 1 {
		return snapshotStates(states)
	}

	best := snapshotStates(states)
	bestTotal := sumCalc(states)

	probe := perIterationDelta(totalRaw, probeDivisor)
	shift := perIterationDelta(totalRaw, shiftDivisor)

	for it := 0; it < opts.MaxIterations; it++ {
		if !opts.Deadline.IsZero() && time.Now().After(opts.Deadline) {
			break
		}

		donor, recipient := pickMove(g, states, probe, kind, ts)
		if donor < 0 || recipient < 0 || donor == recipient {
			break
		}

		move := shift
		if states[donor].amount.Cmp(move) < 0 {
			move = new(big.Int).Set(states[donor].amount)
		}
		if move.Sign() == 0 {
			break
		}
		states[donor].amount = new(big.Int).Sub(states[donor].amount, move)
		states[recipient].amount = new(big.Int).Add(states[recipient].amount, move)

		dropped := false
		if !reprice(g, states, donor, kind, ts) || !reprice(g, states, recipient, kind, ts) {
			states = dropUnviable(g, states, kind, ts)
			if states == nil {
				return best
			}
			dropped = true
		}

		total := sumCalc(states)
		if better(total, bestTotal, kind) {
			best = snapshotStates(states)
			bestTotal = total
		} else if !dropped {
			break
		}
		if len(states) == 1 {
			break
		}
	}

	return best
}

type pathState struct {
	cand   candidate
	amount *big.Int
	calc   *big.Int
}

// seedSplit assigns the initial amounts proportionally to path liquidity
// scores, conserving totalRaw exactly, and drops candidates that cannot
// price their share.
func seedSplit(g *graph.Graph, cands []candidate, totalRaw *big.Int, kind SwapKind, ts uint64) []pathState {
	for len(cands) > 0 {
		states := make([]pathState, len(cands))
		scoreSum := new(big.Int)
		for _, c := range cands {
			scoreSum.Add(scoreSum, c.minScore)
		}

		assigned := new(big.Int)
		for i, c := range cands {
			share := new(big.Int)
			if scoreSum.Sign() > 0 {
				share.Mul(totalRaw, c.minScore)
				share.Quo(share, scoreSum)
			}
			states[i] = pathState{cand: c, amount: share}
			assigned.Add(assigned, share)
		}
		// Integer remainder goes to the highest-ranked path.
		states[0].amount.Add(states[0].amount, new(big.Int).Sub(totalRaw, assigned))

		ok := true
		for i := range states {
			if !reprice(g, states, i, kind, ts) {
				// Re-seed without this candidate.
				cands = append(cands[:i:i], cands[i+1:]...)
				ok = false
				break
			}
		}
		if ok {
			return states
		}
	}
	return nil
}

// reprice evaluates states[i] at its current amount. A zero amount prices to
// zero without touching the engine.
func reprice(g *graph.Graph, states []pathState, i int, kind SwapKind, ts uint64) bool {
	if states[i].amount.Sign() == 0 {
		states[i].calc = new(big.Int)
		return true
	}
	calc, err := evaluatePath(g, states[i].cand, states[i].amount, kind, ts)
	if err != nil {
		return false
	}
	states[i].calc = calc
	return true
}

// pickMove finds the donor (worst marginal rate) and recipient (best) for
// the next shift. Marginal rate is the calc delta of a small probe on top of
// the current amount.
func pickMove(g *graph.Graph, states []pathState, probe *big.Int, kind SwapKind, ts uint64) (donor, recipient int) {
	donor, recipient = -1, -1
	var donorRate, recipientRate *big.Int

	for i := range states {
		probed, err := evaluatePath(g, states[i].cand, new(big.Int).Add(states[i].amount, probe), kind, ts)
		if err != nil {
			continue
		}
		rate := new(big.Int).Sub(probed, states[i].calc)

		// Recipient: best place for the next unit of amount.
		if recipient < 0 || better(rate, recipientRate, kind) {
			recipient, recipientRate = i, rate
		}
		// Donor: worst current use of amount; must have amount to give.
		if states[i].amount.Sign() > 0 && (donor < 0 || better(donorRate, rate, kind)) {
			donor, donorRate = i, rate
		}
	}
	return donor, recipient
}

// dropUnviable removes paths that fail at their assigned amount, handing
// their amounts to the best surviving path. Returns nil when nothing
// survives.
func dropUnviable(g *graph.Graph, states []pathState, kind SwapKind, ts uint64) []pathState {
	var (
		kept     []pathState
		orphaned = new(big.Int)
	)
	for i := range states {
		if reprice(g, states, i, kind, ts) {
			kept = append(kept, states[i])
		} else {
			orphaned.Add(orphaned, states[i].amount)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	if orphaned.Sign() > 0 {
		kept[0].amount = new(big.Int).Add(kept[0].amount, orphaned)
		if !reprice(g, kept, 0, kind, ts) {
			return dropUnviable(g, kept, kind, ts)
		}
	}
	return kept
}

func sumCalc(states []pathState) *big.Int {
	total := new(big.Int)
	for i := range states {
		total.Add(total, states[i].calc)
	}
	return total
}

// better reports whether a beats b by at least one wei: more output for
// GivenIn, less input for GivenOut.
func better(a, b *big.Int, kind SwapKind) bool {
	if kind == engine.GivenIn {
		return a.Cmp(b) > 0
	}
	return a.Cmp(b) < 0
}

func perIterationDelta(total *big.Int, divisor int64) *big.Int {
	d := new(big.Int).Quo(total, big.NewInt(divisor))
	if d.Sign() == 0 {
		d.SetInt64(1)
	}
	return d
}

func snapshotStates(states []pathState) []routedPath {
	var out []routedPath
	for i := range states {
		if states[i].amount.Sign() == 0 {
			continue
		}
		out = append(out, routedPath{
			cand:     states[i].cand,
			givenRaw: new(big.Int).Set(states[i].amount),
			calcRaw:  new(big.Int).Set(states[i].calc),
		})
	}
	return out
}
