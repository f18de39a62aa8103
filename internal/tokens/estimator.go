// Package tokens approximates token counts and derives per-stage context
// budgets for transcript-bearing prompts. Counts are word-count heuristics,
// not an exact tokenizer; consumers must treat them as estimates.
package tokens

import (
	"math"
	"strings"
)

// TokensPerWord is the approximation ratio used throughout. English prose
// averages roughly 1.3 tokens per whitespace-delimited word.
const TokensPerWord = 1.3

// Estimate approximates the token count of text. Empty input yields 0.
func Estimate(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return int(math.Ceil(float64(words) * TokensPerWord))
}

// WordsForTokens converts a token budget to an approximate word count.
func WordsForTokens(tokens int) int {
	if tokens <= 0 {
		return 0
	}
	return int(float64(tokens) / TokensPerWord)
}
