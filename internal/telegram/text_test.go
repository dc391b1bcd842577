package telegram

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short", func(t *testing.T) {
		assert.Equal(t, []string{"abc"}, SplitMessage("abc", 10))
	})

	t.Run("prefers newline", func(t *testing.T) {
		text := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
		parts := SplitMessage(text, 10)
		assert.Equal(t, []string{strings.Repeat("a", 8) + "\n", strings.Repeat("b", 8)}, parts)
	})

	t.Run("multibyte", func(t *testing.T) {
		text := strings.Repeat("س", 25)
		parts := SplitMessage(text, 10)
		assert.Len(t, parts, 3)
		for _, p := range parts {
			assert.LessOrEqual(t, utf8.RuneCountInString(p), 10)
		}
		assert.Equal(t, text, strings.Join(parts, ""))
	})
}

func TestPlainText(t *testing.T) {
	assert.Equal(t, "Title: a < b & c", PlainText("Title: <b>a &lt; b &amp; c</b>"))
	assert.Equal(t, "plain", PlainText("plain"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab…", Truncate("abcdef", 3))
}
