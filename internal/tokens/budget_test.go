package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextWindow(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"gpt-4o", 128000},
		{"gpt-4o-mini", 128000},
		{"gpt-4-turbo-preview", 128000},
		{"gpt-4", 8192},
		{"gpt-4-0613", 8192},
		{"gpt-3.5-turbo", 16385},
		{"some-future-model", 16385},
		{"", 16385},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, ContextWindow(tt.model), "model %q", tt.model)
		})
	}
}

func TestCalculate_NoPriorOutputs(t *testing.T) {
	c := NewBudgetCalculator()
	budget := c.Calculate(1, "gpt-4o", nil)

	// 128000 minus the fixed reserves.
	assert.Equal(t, 128000-1500-500-4000-500, budget)
}

func TestCalculate_PriorOutputsReduceBudget(t *testing.T) {
	c := NewBudgetCalculator()

	without := c.Calculate(1, "gpt-4o", nil)
	with := c.Calculate(1, "gpt-4o", []any{makeTranscript(1000)})

	assert.Less(t, with, without)
}

func TestCalculate_LaterStagesReserveMore(t *testing.T) {
	c := NewBudgetCalculator()
	priors := []any{makeTranscript(2000)}

	stage1 := c.Calculate(1, "gpt-4o", priors)
	stage4 := c.Calculate(4, "gpt-4o", priors)
	assert.Less(t, stage4, stage1)

	// Multiplier caps at +50%, so very late stages match stage 6.
	stage6 := c.Calculate(6, "gpt-4o", priors)
	stage20 := c.Calculate(20, "gpt-4o", priors)
	assert.Equal(t, stage6, stage20)
}

func TestCalculate_FloorHolds(t *testing.T) {
	c := NewBudgetCalculator()

	adversarial := []any{strings.Repeat("word ", 500000)}
	for _, model := range []string{"gpt-4o", "gpt-4", "gpt-3.5-turbo", "unknown-model"} {
		for stage := 0; stage <= 10; stage++ {
			budget := c.Calculate(stage, model, adversarial)
			assert.GreaterOrEqual(t, budget, MinTranscriptTokens,
				"stage %d model %s", stage, model)
		}
	}
}

func TestCalculate_MalformedPriorContributesZero(t *testing.T) {
	c := NewBudgetCalculator()

	clean := c.Calculate(1, "gpt-4o", nil)
	// Channels cannot be serialized; they must degrade to zero, not panic.
	withJunk := c.Calculate(1, "gpt-4o", []any{make(chan int), nil})

	assert.Equal(t, clean, withJunk)
}

func TestCalculate_StructuredPriorIsSerialized(t *testing.T) {
	c := NewBudgetCalculator()

	prior := map[string]string{"title": "Episode 42", "summary": makeTranscript(500)}
	budget := c.Calculate(2, "gpt-4o", []any{prior})

	assert.Less(t, budget, c.Calculate(2, "gpt-4o", nil))
}
