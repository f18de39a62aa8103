package recovery

import (
	"fmt"
	"strings"
)

// Sanitize repairs raw control characters embedded inside JSON string
// values, the most common way model output breaks strict parsers. It is a
// single linear pass tracking two flags: whether the scanner is inside a
// string and whether the previous character was an unconsumed backslash.
//
// Two repairs are applied, both only inside strings:
//
//   - A raw control character directly following a backslash is treated as
//     the intended target of the escape and replaced by the matching escape
//     letter (literal newline after a backslash becomes the two characters
//     `\` `n`). Anything else after a backslash passes through untouched,
//     trusting it to be a valid escape.
//   - A bare raw control character is escaped in place (tab -> \t, LF -> \n,
//     CR -> \r, backspace -> \b, form feed -> \f, anything else -> \u00XX).
//
// Input that is already valid JSON passes through unchanged.
func Sanitize(input string) string {
	var b strings.Builder
	b.Grow(len(input))

	inString := false
	escapeNext := false

	// Byte-wise scan is safe: control characters are single bytes and
	// UTF-8 continuation bytes are all >= 0x80.
	for i := 0; i < len(input); i++ {
		c := input[i]

		if escapeNext {
			escapeNext = false
			if c < 0x20 {
				// The backslash was already emitted; supply the letter
				// the writer presumably meant.
				b.WriteString(escapeBody(c))
			} else {
				b.WriteByte(c)
			}
			continue
		}

		switch {
		case c == '"':
			inString = !inString
			b.WriteByte(c)
		case c == '\\' && inString:
			escapeNext = true
			b.WriteByte(c)
		case inString && c < 0x20:
			b.WriteByte('\\')
			b.WriteString(escapeBody(c))
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

// escapeBody returns the escape sequence body (without the leading
// backslash) for a control character.
func escapeBody(c byte) string {
	switch c {
	case '\t':
		return "t"
	case '\n':
		return "n"
	case '\r':
		return "r"
	case '\b':
		return "b"
	case '\f':
		return "f"
	default:
		return fmt.Sprintf("u%04x", c)
	}
}
