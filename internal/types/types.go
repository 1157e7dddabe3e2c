package types

import (
	"strconv"
	"strings"
)

// OptionContract is a single call or put row of an options chain,
// enriched with the distance from the underlying's current price once
// it has been selected. It lives only for the duration of one request.
type OptionContract struct {
	Symbol string  `json:"symbol"`
	Type   string  `json:"type"` // "CALL" or "PUT"
	Strike float64 `json:"strike"`
	Expiry string  `json:"expiry"`
	Price  float64 `json:"price"`  // ask price
	Target string  `json:"target"` // e.g. "0.34%"
}

// TargetPercent parses the Target string back into a number.
// Returns 0 for an empty or malformed target.
func (c OptionContract) TargetPercent() float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(c.Target, "%"), 64)
	if err != nil {
		return 0
	}
	return v
}

// TriggerConditions holds the independent boolean checks evaluated
// before a notification is considered worth sending.
type TriggerConditions struct {
	MarketHours bool `json:"market_hours"`
	PriceChange bool `json:"price_change"`
	OptionPrice bool `json:"option_price"`
}

// ShouldTrigger reports whether all conditions hold.
func (t TriggerConditions) ShouldTrigger() bool {
	return t.MarketHours && t.PriceChange && t.OptionPrice
}
