package query

import (
	"strings"
)

type pair struct {
	key   string
	value string
}

// Values keeps the decoded pairs of a query in the order they appear.
type Values struct {
	pairs []pair
}

// Parse splits raw on '&' into key=value pairs. Empty parts are skipped and
// a part without '=' has an empty value.
func Parse(raw string) Values {
	var v Values

	for _, part := range strings.Split(raw, "&") {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		v.pairs = append(v.pairs, pair{
			key:   Decode(key),
			value: strings.TrimSpace(Decode(value)),
		})
	}

	return v
}

// Get returns the first value for key, or "".
func (v Values) Get(key string) string {
	value, _ := v.lookup(key)
	return value
}

func (v Values) Has(key string) bool {
	_, ok := v.lookup(key)
	return ok
}

// Int parses the leading decimal integer of the value for key. It returns def
// when key is missing and 0 when the value does not start with a number.
func (v Values) Int(key string, def int) int {
	value, ok := v.lookup(key)
	if !ok {
		return def
	}
	return leadingInt(value)
}

func (v Values) Len() int {
	return len(v.pairs)
}

func (v Values) lookup(key string) (string, bool) {
	for _, p := range v.pairs {
		if p.key == key {
			return p.value, true
		}
	}
	return "", false
}

// intLimit saturates parsed integers; it fits a 32-bit int.
const intLimit = 1 << 30

func leadingInt(s string) int {
	i, sign := 0, 1
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		if s[i] == '-' {
			sign = -1
		}
		i++
	}

	n := 0
	for ; i < len(s) && '0' <= s[i] && s[i] <= '9'; i++ {
		d := int(s[i] - '0')
		if n > (intLimit-d)/10 {
			n = intLimit
			break
		}
		n = n*10 + d
	}

	return sign * n
}
