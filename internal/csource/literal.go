package csource

import (
	"bytes"
	"strconv"
)

// appendDouble appends the shortest decimal form of a finite v that parses
// back to the same IEEE-754 double. Integral values get a ".0" suffix so C
// reads a floating literal: a bare -0 is the int expression -(0), which
// loses the sign.
func appendDouble(dst []byte, v float64) []byte {
	start := len(dst)
	dst = strconv.AppendFloat(dst, v, 'g', -1, 64)
	if !bytes.ContainsAny(dst[start:], ".en") {
		dst = append(dst, '.', '0')
	}
	return dst
}

// AppendString appends s as a double-quoted C string literal. Printable
// ASCII and bytes >= 0x80 pass through; quotes, backslashes and control
// bytes are escaped.
func AppendString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\\':
			dst = append(dst, '\\', c)
		case c == '\n':
			dst = append(dst, '\\', 'n')
		case c == '\t':
			dst = append(dst, '\\', 't')
		case c < 0x20 || c == 0x7f:
			dst = append(dst, '\\', '0'+(c>>6), '0'+((c>>3)&7), '0'+(c&7))
		default:
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}
