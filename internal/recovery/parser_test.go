package recovery

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_CleanJSON(t *testing.T) {
	p := NewParser()

	value, err := p.Parse(`{"title": "Episode 42", "topics": ["ai", "go"]}`)
	require.NoError(t, err)

	obj, ok := value.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Episode 42", obj["title"])
}

func TestParse_RawNewlineInsideString(t *testing.T) {
	p := NewParser()

	value, err := p.Parse("{\"a\": \"line one\nline two\"}")
	require.NoError(t, err)

	obj, ok := value.(map[string]any)
	require.True(t, ok)
	// The newline survives as content, not stripped.
	assert.Equal(t, "line one\nline two", obj["a"])
}

func TestParse_FencedCodeBlock(t *testing.T) {
	p := NewParser()

	raw := "Here is the result you asked for:\n\n```json\n{\"headline\": \"Go at scale\"}\n```\n\nLet me know if you need changes."
	value, err := p.Parse(raw)
	require.NoError(t, err)

	obj := value.(map[string]any)
	assert.Equal(t, "Go at scale", obj["headline"])
}

func TestParse_FencedCodeBlockWithRawControlChars(t *testing.T) {
	p := NewParser()

	raw := "```\n{\"body\": \"para one\n\npara two\"}\n```"
	value, err := p.Parse(raw)
	require.NoError(t, err)

	obj := value.(map[string]any)
	assert.Equal(t, "para one\n\npara two", obj["body"])
}

func TestParse_BraceSpanInsideProse(t *testing.T) {
	p := NewParser()

	raw := `Sure! The analysis is {"sentiment": "positive", "score": 0.9} — hope that helps.`
	value, err := p.Parse(raw)
	require.NoError(t, err)

	obj := value.(map[string]any)
	assert.Equal(t, "positive", obj["sentiment"])
}

func TestParse_ArrayResponse(t *testing.T) {
	p := NewParser()

	value, err := p.Parse(`[{"idx": 1}, {"idx": 2}]`)
	require.NoError(t, err)

	arr, ok := value.([]any)
	require.True(t, ok)
	assert.Len(t, arr, 2)
}

func TestParse_TrailingCommasNotRepaired(t *testing.T) {
	p := NewParser()

	// Trailing commas are a syntax error the sanitizer does not repair;
	// every strategy must fail gracefully.
	raw := "```json\n{\"topics\": [\"ai\", \"go\",]}\n```"
	_, err := p.Parse(raw)
	require.Error(t, err)

	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestParse_Unrecoverable(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("I could not produce any structured output, sorry.")
	require.Error(t, err)

	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Contains(t, err.Error(), "all recovery strategies failed")
}

func TestParse_EmptyInput(t *testing.T) {
	p := NewParser()

	_, err := p.Parse("")
	var vErr *ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestExtractCodeBlock(t *testing.T) {
	block, ok := extractCodeBlock("prefix\n```json\n{\"a\": 1}\n```\nsuffix")
	require.True(t, ok)
	assert.Equal(t, `{"a": 1}`, block)

	_, ok = extractCodeBlock("no fences here")
	assert.False(t, ok)

	_, ok = extractCodeBlock("```json\n```")
	assert.False(t, ok)
}

func TestExtractBraceSpan(t *testing.T) {
	span, ok := extractBraceSpan(`noise {"a": {"b": 1}} trailing`)
	require.True(t, ok)
	assert.Equal(t, `{"a": {"b": 1}}`, span)

	_, ok = extractBraceSpan("no braces")
	assert.False(t, ok)

	_, ok = extractBraceSpan("} backwards {")
	assert.False(t, ok)
}
