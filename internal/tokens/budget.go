package tokens

import (
	"encoding/json"
	"strings"

	"podforge/pkg/logger"
)

// Fixed reserves subtracted from a model's context window before the
// transcript allowance is computed.
const (
	promptTemplateReserve = 1500
	systemMessageReserve  = 500
	outputReserve         = 4000
	safetyMargin          = 500

	// MinTranscriptTokens is the floor: a stage is never given less than
	// this allowance, even when reserves would exhaust the window.
	MinTranscriptTokens = 500

	// defaultContextWindow is the conservative fallback for unknown models.
	defaultContextWindow = 16385

	// Later stages embed more upstream context, so their prior-output
	// reserve is scaled up, by at most this factor.
	maxStageMultiplier  = 1.5
	stageMultiplierStep = 0.1
)

// modelContextWindows maps model-name prefixes to hard context limits.
// Longest matching prefix wins.
var modelContextWindows = map[string]int{
	"gpt-4o":        128000,
	"gpt-4-turbo":   128000,
	"gpt-4":         8192,
	"gpt-3.5-turbo": 16385,
}

// ContextWindow returns the hard context limit for a model name, falling
// back to a conservative default for unknown models.
func ContextWindow(model string) int {
	best := 0
	window := defaultContextWindow
	for prefix, w := range modelContextWindows {
		if strings.HasPrefix(model, prefix) && len(prefix) > best {
			best = len(prefix)
			window = w
		}
	}
	return window
}

// BudgetCalculator derives per-stage transcript token allowances.
type BudgetCalculator struct{}

// NewBudgetCalculator creates a BudgetCalculator.
func NewBudgetCalculator() *BudgetCalculator {
	return &BudgetCalculator{}
}

// Calculate returns the token allowance for the transcript at the given
// pipeline stage (1-based). Prior-stage outputs are serialized and their
// estimated token cost, scaled by a stage-position multiplier, is reserved
// alongside the fixed reserves. The result never drops below
// MinTranscriptTokens and this method never errors; malformed prior outputs
// contribute zero.
func (c *BudgetCalculator) Calculate(stage int, model string, priorOutputs []any) int {
	window := ContextWindow(model)

	priorTokens := 0
	for _, out := range priorOutputs {
		priorTokens += estimateOutput(out)
	}

	multiplier := 1.0 + stageMultiplierStep*float64(stage-1)
	if multiplier > maxStageMultiplier {
		multiplier = maxStageMultiplier
	}
	if multiplier < 1.0 {
		multiplier = 1.0
	}
	priorReserve := int(float64(priorTokens) * multiplier)

	budget := window - promptTemplateReserve - systemMessageReserve - outputReserve - safetyMargin - priorReserve
	if budget < MinTranscriptTokens {
		budget = MinTranscriptTokens
	}

	logger.Debug("stage budget calculated",
		"stage", stage,
		"model", model,
		"context_window", window,
		"prior_reserve", priorReserve,
		"budget", budget)

	return budget
}

// estimateOutput estimates the token cost of one prior-stage output.
// Non-string values are serialized first; anything that cannot be
// serialized contributes nothing.
func estimateOutput(out any) int {
	switch v := out.(type) {
	case nil:
		return 0
	case string:
		return Estimate(v)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return 0
		}
		return Estimate(string(data))
	}
}
