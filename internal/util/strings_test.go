package util_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ghettovoice/textmsg/internal/util"
)

func TestEqFold(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b string
		want bool
	}{
		{"Content-Length", "content-length", true},
		{"VIA", "via", true},
		{"via", "vias", false},
		{"a-b", "a_b", false},
		{"", "", true},
		{"\xc4", "\xe4", false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, util.EqFold(c.a, c.b), "EqFold(%q, %q)", c.a, c.b)
	}
}

func TestEllipsis(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", util.Ellipsis("short", 16))
	assert.Equal(t, "abc...", util.Ellipsis("abcdef", 3))
	assert.Equal(t, "привет...", util.Ellipsis("привет мир", 6))
}

func TestAlign(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, util.Align(0, 8))
	assert.Equal(t, 8, util.Align(1, 8))
	assert.Equal(t, 16, util.Align(9, 8))
	assert.Equal(t, 5, util.Align(5, 0))
}

func TestB2S(t *testing.T) {
	t.Parallel()

	assert.Empty(t, util.B2S(nil))
	assert.Equal(t, "abc", util.B2S([]byte("abc")))
	assert.Equal(t, []byte("xabc-1"), util.AppendLower([]byte("x"), "aBc-1"))
}
