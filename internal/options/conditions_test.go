package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"spy-options-webhook/internal/types"
)

func atHour(hour int) time.Time {
	return time.Date(2024, 6, 21, hour, 30, 0, 0, time.Local)
}

func TestEvaluateConditionsAllMet(t *testing.T) {
	contract := types.OptionContract{Price: 0.5, Target: "0.6%"}

	conditions := EvaluateConditions(contract, atHour(10))

	assert.True(t, conditions.MarketHours)
	assert.True(t, conditions.PriceChange)
	assert.True(t, conditions.OptionPrice)
	assert.True(t, conditions.ShouldTrigger())
}

func TestEvaluateConditionsOutsideMarketHours(t *testing.T) {
	contract := types.OptionContract{Price: 0.5, Target: "0.6%"}

	conditions := EvaluateConditions(contract, atHour(20))

	assert.False(t, conditions.MarketHours)
	assert.True(t, conditions.PriceChange)
	assert.True(t, conditions.OptionPrice)
	assert.False(t, conditions.ShouldTrigger())
}

func TestEvaluateConditionsMarketHourBoundaries(t *testing.T) {
	contract := types.OptionContract{Price: 0.5, Target: "0.6%"}

	assert.True(t, EvaluateConditions(contract, atHour(9)).MarketHours)
	assert.True(t, EvaluateConditions(contract, atHour(16)).MarketHours)
	assert.False(t, EvaluateConditions(contract, atHour(8)).MarketHours)
	assert.False(t, EvaluateConditions(contract, atHour(17)).MarketHours)
}

func TestEvaluateConditionsPriceChangeThreshold(t *testing.T) {
	now := atHour(10)

	// threshold is strict: exactly 0.5 does not trigger
	c := EvaluateConditions(types.OptionContract{Price: 0.5, Target: "0.5%"}, now)
	assert.False(t, c.PriceChange)
	assert.False(t, c.ShouldTrigger())

	// absolute value: a downside target also counts
	c = EvaluateConditions(types.OptionContract{Price: 0.5, Target: "-0.9%"}, now)
	assert.True(t, c.PriceChange)
}

func TestEvaluateConditionsOptionPriceThreshold(t *testing.T) {
	now := atHour(10)

	c := EvaluateConditions(types.OptionContract{Price: 0.1, Target: "0.6%"}, now)
	assert.False(t, c.OptionPrice)
	assert.False(t, c.ShouldTrigger())

	c = EvaluateConditions(types.OptionContract{Price: 0.11, Target: "0.6%"}, now)
	assert.True(t, c.OptionPrice)
}
