// Package cost estimates the price of a call from per-1000-token pricing
// strings. Estimation is pure: no I/O, no suspension, and an unparseable
// price zeroes that component instead of failing the call.
package cost

import (
	"strconv"
	"strings"

	"github.com/aschepis/llmgate/llm"
)

// Pricing holds per-1000-token price strings, e.g. "$0.002/1K".
type Pricing struct {
	Prompt     string `yaml:"prompt" json:"prompt"`
	Completion string `yaml:"completion" json:"completion"`
}

// Estimate is the derived cost breakdown for one call. It is never
// persisted.
type Estimate struct {
	PromptCost     float64   `json:"prompt_cost"`
	CompletionCost float64   `json:"completion_cost"`
	TotalCost      float64   `json:"total_cost"`
	Usage          llm.Usage `json:"usage"`
}

// ForUsage computes the estimate for the given token counts.
func ForUsage(pricing Pricing, promptTokens, completionTokens int64) Estimate {
	promptRate := parsePricePerThousand(pricing.Prompt)
	completionRate := parsePricePerThousand(pricing.Completion)

	est := Estimate{
		PromptCost:     float64(promptTokens) / 1000 * promptRate,
		CompletionCost: float64(completionTokens) / 1000 * completionRate,
		Usage: llm.Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
		},
	}
	est.TotalCost = est.PromptCost + est.CompletionCost
	return est
}

// parsePricePerThousand extracts the numeric rate from strings like
// "$0.002/1K" or "0.002". Missing or malformed input yields zero.
func parsePricePerThousand(price string) float64 {
	s := strings.TrimSpace(price)
	if s == "" {
		return 0
	}
	s = strings.TrimPrefix(s, "$")
	if idx := strings.Index(s, "/"); idx >= 0 {
		s = s[:idx]
	}
	rate, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || rate < 0 {
		return 0
	}
	return rate
}
