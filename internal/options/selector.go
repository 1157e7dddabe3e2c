package options

import (
	"math"
	"strconv"

	"spy-options-webhook/internal/types"
)

const (
	// priceBandPercent bounds the strikes considered near the money.
	priceBandPercent = 0.02
	// maxContracts caps how many contracts end up in one message.
	maxContracts = 3
)

// SelectContracts picks at most maxContracts near-the-money calls from
// the chain, preserving provider order. When no strike falls inside the
// price band it falls back to the chain's first contract so a non-empty
// chain never yields an empty selection. Each selected contract gets
// its target distance from the underlying price filled in.
func SelectContracts(price float64, calls []types.OptionContract) []types.OptionContract {
	if len(calls) == 0 {
		return nil
	}

	selected := bandFilter(price, calls)
	if len(selected) == 0 {
		selected = firstElementFallback(calls)
	}

	for i := range selected {
		targetPoints := selected[i].Strike - price
		targetPercent := round2(targetPoints / price * 100)
		selected[i].Target = strconv.FormatFloat(targetPercent, 'f', -1, 64) + "%"
	}

	return selected
}

func bandFilter(price float64, calls []types.OptionContract) []types.OptionContract {
	band := price * priceBandPercent

	var selected []types.OptionContract
	for _, call := range calls {
		if call.Strike < price-band || call.Strike > price+band {
			continue
		}
		selected = append(selected, call)
		if len(selected) == maxContracts {
			break
		}
	}

	return selected
}

func firstElementFallback(calls []types.OptionContract) []types.OptionContract {
	return []types.OptionContract{calls[0]}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
