package options

import (
	"math"
	"time"

	"spy-options-webhook/internal/types"
)

const (
	marketOpenHour  = 9
	marketCloseHour = 16

	minTargetPercent = 0.5
	minOptionPrice   = 0.1
)

// EvaluateConditions computes the trigger checks for a selected
// contract. Each call is stateless; results near a threshold may flip
// between invocations. Market hours use the server's local clock, a
// coarse approximation with no exchange-calendar awareness.
func EvaluateConditions(contract types.OptionContract, now time.Time) types.TriggerConditions {
	hour := now.Hour()

	return types.TriggerConditions{
		MarketHours: hour >= marketOpenHour && hour <= marketCloseHour,
		PriceChange: math.Abs(contract.TargetPercent()) > minTargetPercent,
		OptionPrice: contract.Price > minOptionPrice,
	}
}
