package options

import (
	"fmt"
	"strconv"
	"strings"

	"spy-options-webhook/internal/types"
)

// FormatMessage renders the selection into the plain-text layout sent
// to the channel. The layout is a wire contract: a header with the
// underlying price rounded to two decimals, a blank line, then one
// line per contract with fixed labels.
func FormatMessage(ticker string, price float64, selection []types.OptionContract) string {
	lines := []string{
		fmt.Sprintf("📊 %s Options Chain (%s Price: %s)", ticker, ticker, formatNumber(round2(price))),
		"",
	}

	for _, opt := range selection {
		lines = append(lines, fmt.Sprintf(
			"%s %s Strike: %s Expiry: %s Price: %s Target: %s",
			opt.Symbol,
			opt.Type,
			formatNumber(opt.Strike),
			opt.Expiry,
			formatNumber(opt.Price),
			opt.Target,
		))
	}

	return strings.Join(lines, "\n")
}

// formatNumber prints a float with the fewest digits that round-trip,
// so 442.0 renders as "442" and 440.50 as "440.5".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
