package recovery

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"

	"podforge/pkg/logger"
)

// censusLimit bounds how far the control-character census scans. Failures
// are almost always near the front of the document; scanning everything
// buys nothing for triage.
const censusLimit = 4000

// contextWindow is the number of bytes shown either side of the failure
// offset.
const contextWindow = 40

// controlChar records one unusual control character found during the census.
type controlChar struct {
	Offset int
	Code   byte
}

// offsetRe is the last-resort heuristic for parsers whose errors carry no
// structured offset.
var offsetRe = regexp.MustCompile(`offset (\d+)`)

// logDiagnostics records everything useful for triaging an unrecoverable
// response: failure offset, surrounding context, the offending byte, and a
// census of unusual control characters near the front of the document.
// Nothing here reaches the caller beyond logs.
func logDiagnostics(raw string, parseErr error) {
	offset := failureOffset(parseErr)

	fields := []any{
		"length", len(raw),
		"error", fmt.Sprint(parseErr),
	}

	if offset >= 0 && offset <= len(raw) {
		start := offset - contextWindow
		if start < 0 {
			start = 0
		}
		end := offset + contextWindow
		if end > len(raw) {
			end = len(raw)
		}
		fields = append(fields,
			"offset", offset,
			"context", strconv.Quote(raw[start:end]))

		if offset < len(raw) {
			c := raw[offset]
			fields = append(fields,
				"offending_char", strconv.QuoteRune(rune(c)),
				"code_point", fmt.Sprintf("U+%04X", c))
		}
	}

	if census := controlCharCensus(raw); len(census) > 0 {
		summary := make([]string, 0, len(census))
		for _, cc := range census {
			summary = append(summary, fmt.Sprintf("U+%04X@%d", cc.Code, cc.Offset))
		}
		fields = append(fields, "control_chars", summary)
	}

	logger.Error("model response unrecoverable", fields...)
}

// failureOffset extracts the byte offset of a parse failure, preferring the
// structured *json.SyntaxError and falling back to message sniffing only
// when no structured signal exists. Returns -1 when unknown.
func failureOffset(err error) int {
	if err == nil {
		return -1
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return int(syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return int(typeErr.Offset)
	}
	if m := offsetRe.FindStringSubmatch(err.Error()); m != nil {
		if n, convErr := strconv.Atoi(m[1]); convErr == nil {
			return n
		}
	}
	return -1
}

// controlCharCensus lists control characters other than the ordinary
// whitespace trio within the first censusLimit bytes.
func controlCharCensus(raw string) []controlChar {
	limit := len(raw)
	if limit > censusLimit {
		limit = censusLimit
	}

	var found []controlChar
	for i := 0; i < limit; i++ {
		c := raw[i]
		if c < 0x20 && c != '\n' && c != '\r' && c != '\t' {
			found = append(found, controlChar{Offset: i, Code: c})
		}
	}
	return found
}
