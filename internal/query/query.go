// Package query decodes and encodes form-urlencoded text.
//
// Decoding never fails: a malformed escape contributes zero nibbles for the
// digits that are not hex or not there.
package query

import (
	"strings"
)

const upperHex = "0123456789ABCDEF"

func unhex(c byte) byte {
	switch {
	case '0' <= c && c <= '9':
		return c - '0'
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10
	}
	return 0
}

func Decode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '+':
			b.WriteByte(' ')
		case '%':
			var v byte
			for n := 0; n < 2; n++ {
				v <<= 4
				if i+1 < len(s) {
					i++
					v |= unhex(s[i])
				}
			}
			b.WriteByte(v)
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}

func shouldKeep(c byte) bool {
	return '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

func Encode(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case shouldKeep(c):
			b.WriteByte(c)
		case c == ' ':
			b.WriteByte('+')
		default:
			b.WriteByte('%')
			b.WriteByte(upperHex[c>>4])
			b.WriteByte(upperHex[c&15])
		}
	}

	return b.String()
}
