package tokens

import (
	"fmt"
	"strings"

	"podforge/pkg/logger"
)

const (
	// DefaultBeginningRatio is the share of the truncation budget given to
	// the start of the transcript. Preserving introduction and conclusion
	// keeps the most signal for tasks that summarize a narrative arc; the
	// middle is assumed most redundant. Tunable, not a hard invariant.
	DefaultBeginningRatio = 0.6

	// markerReserveTokens is held back from the budget for the removal
	// marker inserted between the preserved beginning and ending.
	markerReserveTokens = 30

	strategyName = "beginning-end"
)

// TruncationDetails describes what a truncation removed and kept.
type TruncationDetails struct {
	Strategy       string  `json:"strategy"`
	RemovedWords   int     `json:"removed_words"`
	RemovedPercent float64 `json:"removed_percent"`
	BeginningWords int     `json:"beginning_words"`
	EndingWords    int     `json:"ending_words"`
}

// TruncationResult is the outcome of a truncation pass. When WasTruncated
// is false, Text is the input unchanged.
type TruncationResult struct {
	Text            string             `json:"text"`
	OriginalTokens  int                `json:"original_tokens"`
	TruncatedTokens int                `json:"truncated_tokens"`
	WasTruncated    bool               `json:"was_truncated"`
	Details         *TruncationDetails `json:"details,omitempty"`
}

// Truncator applies a beginning/end-preserving truncation strategy.
// It never errors; truncation is a best-effort transformation.
type Truncator struct {
	beginningRatio float64
}

// NewTruncator creates a Truncator. Ratios outside (0, 1) fall back to
// DefaultBeginningRatio.
func NewTruncator(beginningRatio float64) *Truncator {
	if beginningRatio <= 0 || beginningRatio >= 1 {
		beginningRatio = DefaultBeginningRatio
	}
	return &Truncator{beginningRatio: beginningRatio}
}

// Truncate trims text to approximately maxTokens, keeping the beginning and
// ending and replacing the middle with a marker stating what was removed.
// Text already within budget is returned unchanged.
func (t *Truncator) Truncate(text string, maxTokens int) TruncationResult {
	original := Estimate(text)
	if original <= maxTokens {
		return TruncationResult{
			Text:            text,
			OriginalTokens:  original,
			TruncatedTokens: original,
			WasTruncated:    false,
		}
	}

	available := maxTokens - markerReserveTokens
	if available < 2 {
		available = 2
	}

	beginningTokens := int(float64(available) * t.beginningRatio)
	endingTokens := available - beginningTokens

	beginningWords := WordsForTokens(beginningTokens)
	endingWords := WordsForTokens(endingTokens)
	if beginningWords < 1 {
		beginningWords = 1
	}
	if endingWords < 1 {
		endingWords = 1
	}

	words := strings.Fields(text)
	if beginningWords+endingWords >= len(words) {
		// Estimator rounding can claim over-budget on texts the word split
		// would keep whole; return unchanged rather than mangle.
		return TruncationResult{
			Text:            text,
			OriginalTokens:  original,
			TruncatedTokens: original,
			WasTruncated:    false,
		}
	}

	removed := len(words) - beginningWords - endingWords
	removedPercent := float64(removed) / float64(len(words)) * 100

	marker := fmt.Sprintf(
		"\n\n[... %d words (%.0f%%) removed from the middle of the transcript ...]\n\n",
		removed, removedPercent)

	truncated := strings.Join(words[:beginningWords], " ") + marker + strings.Join(words[len(words)-endingWords:], " ")

	logger.Debug("transcript truncated",
		"original_tokens", original,
		"max_tokens", maxTokens,
		"removed_words", removed,
		"removed_percent", fmt.Sprintf("%.1f", removedPercent))

	return TruncationResult{
		Text:            truncated,
		OriginalTokens:  original,
		TruncatedTokens: Estimate(truncated),
		WasTruncated:    true,
		Details: &TruncationDetails{
			Strategy:       strategyName,
			RemovedWords:   removed,
			RemovedPercent: removedPercent,
			BeginningWords: beginningWords,
			EndingWords:    endingWords,
		},
	}
}
