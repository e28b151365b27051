package router

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/defistate/swap-router-go/engine"
)

// ErrEmptyRoute is returned when AssembleResult is called with no paths.
var ErrEmptyRoute = errors.New("router: empty route")

// SwapStep is one hop of an executable route. Asset indexes point into
// SwapResult.Assets. Amount is the raw step amount as an integer string;
// chained steps within a path carry "0" (the executor forwards the previous
// step's output).
type SwapStep struct {
	Pool          common.Address `json:"pool"`
	AssetInIndex  int            `json:"assetInIndex"`
	AssetOutIndex int            `json:"assetOutIndex"`
	Amount        string         `json:"amount"`
}

// SwapResult is the assembled quote: the executable steps plus display
// fields. Decimal fields are presentation only and never feed back into
// routing math.
type SwapResult struct {
	Kind   string           `json:"kind"`
	Single bool             `json:"single"`
	Assets []common.Address `json:"assets"`
	Steps  []SwapStep       `json:"steps"`

	TokenIn   common.Address `json:"tokenIn"`
	TokenOut  common.Address `json:"tokenOut"`
	AmountIn  string         `json:"amountIn"`
	AmountOut string         `json:"amountOut"`

	AmountInDecimal  decimal.Decimal `json:"amountInDecimal"`
	AmountOutDecimal decimal.Decimal `json:"amountOutDecimal"`

	// EffectivePrice is tokenIn per tokenOut in human units;
	// EffectivePriceReversed is its inverse.
	EffectivePrice         decimal.Decimal `json:"effectivePrice"`
	EffectivePriceReversed decimal.Decimal `json:"effectivePriceReversed"`

	// RouteShares is each path's fraction of the fixed side of the trade.
	RouteShares []decimal.Decimal `json:"routeShares"`
}

// AssembleResult flattens routed paths into an executable step list with a
// shared asset table and computes the display fields.
func AssembleResult(paths []*Path, kind SwapKind) (*SwapResult, error) {
	if len(paths) == 0 {
		return nil, ErrEmptyRoute
	}

	res := &SwapResult{
		Kind:   kind.String(),
		Single: len(paths) == 1 && len(paths[0].Pools) == 1,
	}

	assetIndex := make(map[common.Address]int)
	internAsset := func(addr common.Address) int {
		if i, ok := assetIndex[addr]; ok {
			return i
		}
		i := len(res.Assets)
		res.Assets = append(res.Assets, addr)
		assetIndex[addr] = i
		return i
	}

	totalIn, totalOut := new(big.Int), new(big.Int)
	for _, p := range paths {
		totalIn.Add(totalIn, p.InputAmountRaw)
		totalOut.Add(totalOut, p.OutputAmountRaw)
		appendSteps(res, p, kind, internAsset)
	}

	tokenIn, tokenOut := paths[0].Tokens[0], paths[0].Tokens[len(paths[0].Tokens)-1]
	res.TokenIn = tokenIn.Address
	res.TokenOut = tokenOut.Address
	res.AmountIn = totalIn.String()
	res.AmountOut = totalOut.String()
	res.AmountInDecimal = decimal.NewFromBigInt(totalIn, -int32(tokenIn.Decimals))
	res.AmountOutDecimal = decimal.NewFromBigInt(totalOut, -int32(tokenOut.Decimals))

	if res.AmountOutDecimal.Sign() > 0 {
		res.EffectivePrice = res.AmountInDecimal.Div(res.AmountOutDecimal)
	}
	if res.AmountInDecimal.Sign() > 0 {
		res.EffectivePriceReversed = res.AmountOutDecimal.Div(res.AmountInDecimal)
	}

	res.RouteShares = routeShares(paths, kind, totalIn, totalOut)
	return res, nil
}

// appendSteps emits one step per hop. For GivenIn the first step carries the
// path's input; for GivenOut the steps are emitted in reverse execution
// order and the first carries the path's output, matching batch-swap
// conventions.
func appendSteps(res *SwapResult, p *Path, kind SwapKind, intern func(common.Address) int) {
	n := len(p.Pools)
	for i := 0; i < n; i++ {
		hop := i
		if kind == engine.GivenOut {
			hop = n - 1 - i
		}
		step := SwapStep{
			Pool:          p.Pools[hop].Address,
			AssetInIndex:  intern(p.Tokens[hop].Address),
			AssetOutIndex: intern(p.Tokens[hop+1].Address),
			Amount:        "0",
		}
		if i == 0 {
			if kind == engine.GivenIn {
				step.Amount = p.InputAmountRaw.String()
			} else {
				step.Amount = p.OutputAmountRaw.String()
			}
		}
		res.Steps = append(res.Steps, step)
	}
}

func routeShares(paths []*Path, kind SwapKind, totalIn, totalOut *big.Int) []decimal.Decimal {
	fixed := totalIn
	if kind == engine.GivenOut {
		fixed = totalOut
	}
	fixedDec := decimal.NewFromBigInt(fixed, 0)

	shares := make([]decimal.Decimal, 0, len(paths))
	for _, p := range paths {
		amt := p.InputAmountRaw
		if kind == engine.GivenOut {
			amt = p.OutputAmountRaw
		}
		if fixedDec.Sign() == 0 {
			shares = append(shares, decimal.Zero)
			continue
		}
		shares = append(shares, decimal.NewFromBigInt(amt, 0).Div(fixedDec))
	}
	return shares
}
