// Package recovery extracts structured data from free-form, sometimes
// malformed, model output. An ordered sequence of strategies is attempted —
// direct parse, sanitized parse, fenced code block, brace span, each with
// and without control-character sanitization — before giving up with a
// ValidationError. Known limitation: the sanitizer repairs raw control
// characters inside strings only; trailing commas and other syntax errors
// are not repaired.
package recovery

import (
	"encoding/json"
	"regexp"
	"strings"

	"podforge/pkg/logger"
)

// ValidationError is returned when every recovery strategy has been
// exhausted. Diagnostic detail is logged, not carried on the error.
type ValidationError struct {
	Strategies int
}

func (e *ValidationError) Error() string {
	return "unable to recover structured data from model response: all recovery strategies failed"
}

// codeBlockRe matches the first fenced code block, optionally tagged
// (```json ... ```).
var codeBlockRe = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*(.*?)```")

// Parser recovers structured data from raw model output. The zero value is
// usable; NewParser exists so callers inject it like any other service.
type Parser struct{}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{}
}

type strategy struct {
	name  string
	apply func(raw string) (string, bool)
}

var strategies = []strategy{
	{"direct", func(raw string) (string, bool) { return raw, true }},
	{"sanitized", func(raw string) (string, bool) { return Sanitize(raw), true }},
	{"code-block", extractCodeBlock},
	{"code-block-sanitized", func(raw string) (string, bool) {
		block, ok := extractCodeBlock(raw)
		if !ok {
			return "", false
		}
		return Sanitize(block), true
	}},
	{"brace-span", extractBraceSpan},
	{"brace-span-sanitized", func(raw string) (string, bool) {
		span, ok := extractBraceSpan(raw)
		if !ok {
			return "", false
		}
		return Sanitize(span), true
	}},
}

// Parse attempts each recovery strategy in order and returns the first
// successfully decoded value (maps, slices, primitives). When all
// strategies fail it logs diagnostics for the raw input and returns a
// ValidationError.
func (p *Parser) Parse(raw string) (any, error) {
	raw = strings.TrimSpace(raw)

	var firstErr error
	for _, s := range strategies {
		candidate, ok := s.apply(raw)
		if !ok {
			continue
		}
		var out any
		if err := json.Unmarshal([]byte(candidate), &out); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			logger.Debug("recovery strategy failed", "strategy", s.name, "error", err)
			continue
		}
		if s.name != "direct" {
			logger.Info("model response recovered", "strategy", s.name)
		}
		return out, nil
	}

	logDiagnostics(raw, firstErr)
	return nil, &ValidationError{Strategies: len(strategies)}
}

// extractCodeBlock returns the contents of the first fenced code block.
func extractCodeBlock(raw string) (string, bool) {
	m := codeBlockRe.FindStringSubmatch(raw)
	if m == nil {
		return "", false
	}
	block := strings.TrimSpace(m[1])
	if block == "" {
		return "", false
	}
	return block, true
}

// extractBraceSpan returns the greedy span from the first '{' to the last
// '}' in the input.
func extractBraceSpan(raw string) (string, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return "", false
	}
	return raw[start : end+1], true
}
