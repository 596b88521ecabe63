package titles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		want  string
	}{
		{"plain ascii", "hello world", "helloworld"},
		{"leading and trailing", "  breaking news  ", "breakingnews"},
		{"tabs and newlines", "a\tb\nc", "abc"},
		{"ideographic space", "示例　新闻", "示例新闻"},
		{"mixed whitespace", " 示例　新闻\t", "示例新闻"},
		{"empty", "", ""},
		{"only whitespace", " \t　\n", ""},
		{"no whitespace", "已经规范", "已经规范"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	in := " 同一　标题\t"
	assert.Equal(t, Normalize(in), Normalize(Normalize(in)))
}

func TestStripLegacy(t *testing.T) {
	assert.Equal(t, "示例新闻", StripLegacy("示例　新闻"))
	assert.Equal(t, "abc", StripLegacy("a b c"))
	// Legacy comparison only strips the two space forms, not tabs.
	assert.Equal(t, "a\tb", StripLegacy("a\tb"))
}
