package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecode(t *testing.T) {
	cases := map[string]string{
		"a+b%20c":   "a b c",
		"plain":     "plain",
		"%41%62":    "Ab",
		"%4a%4A":    "JJ",
		"%zz":       "\x00",
		"%4":        "\x40",
		"%":         "\x00",
		"100%25+ok": "100% ok",
		"":          "",
	}

	for in, want := range cases {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, Decode(in))
		})
	}
}

func TestEncode(t *testing.T) {
	assert.Equal(t, "a+b", Encode("a b"))
	assert.Equal(t, "Garden09", Encode("Garden09"))
	assert.Equal(t, "%2A%2Fx%7E", Encode("*/x~"))
	assert.Equal(t, "%C3%A9", Encode("é"))

	t.Run("decode reverses encode for printable ascii", func(t *testing.T) {
		var all []byte
		for c := byte(0x20); c < 0x7f; c++ {
			all = append(all, c)
		}
		s := string(all)
		assert.Equal(t, s, Decode(Encode(s)))
	})

	t.Run("decode reverses encode for every byte", func(t *testing.T) {
		var all []byte
		for c := 0; c < 256; c++ {
			all = append(all, byte(c))
		}
		s := string(all)
		assert.Equal(t, s, Decode(Encode(s)))
	})
}

func TestParse(t *testing.T) {
	v := Parse("openpos=120&clpos=+45+&speed=90x&Exit=start&name=My+Site%21&dup=1&dup=2&&flag")

	t.Run("values are decoded and trimmed", func(t *testing.T) {
		assert.Equal(t, "start", v.Get("Exit"))
		assert.Equal(t, "My Site!", v.Get("name"))
		assert.Equal(t, "45", v.Get("clpos"))
	})

	t.Run("first value wins", func(t *testing.T) {
		assert.Equal(t, "1", v.Get("dup"))
	})

	t.Run("keys without value are present", func(t *testing.T) {
		assert.True(t, v.Has("flag"))
		assert.Equal(t, "", v.Get("flag"))
		assert.False(t, v.Has("Open"))
	})

	t.Run("integers use the leading digits", func(t *testing.T) {
		assert.Equal(t, 120, v.Int("openpos", -1))
		assert.Equal(t, 45, v.Int("clpos", -1))
		assert.Equal(t, 90, v.Int("speed", -1))
		assert.Equal(t, 0, v.Int("Exit", -1))
		assert.Equal(t, -1, v.Int("ntimes", -1))
	})

	t.Run("long digit strings saturate instead of wrapping", func(t *testing.T) {
		long := Parse("a=2147483648&b=4294967296&c=99999999999&d=-99999999999999999999&e=1073741824")
		assert.Equal(t, intLimit, long.Int("a", -1))
		assert.Equal(t, intLimit, long.Int("b", -1))
		assert.Equal(t, intLimit, long.Int("c", -1))
		assert.Equal(t, -intLimit, long.Int("d", 0))
		assert.Equal(t, intLimit, long.Int("e", -1))
	})

	t.Run("empty query has no values", func(t *testing.T) {
		assert.Equal(t, 0, Parse("").Len())
	})
}
