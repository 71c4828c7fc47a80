package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "hello", tp.TruncateText("hello", 10))
	assert.Equal(t, "hello", tp.TruncateText("hello", 0))
	assert.Equal(t, "hel", tp.TruncateText("hello", 3))

	// "é" is two bytes; cutting through it drops the partial rune.
	got := tp.TruncateText("aé", 2)
	assert.Equal(t, "a", got)
	assert.True(t, utf8.ValidString(got))

	long := strings.Repeat("x", 5000)
	assert.Len(t, tp.TruncateText(long, 4000), 4000)
}

func TestSanitizeUTF8(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "ok https://a.example", tp.SanitizeUTF8("ok \xff\xfehttps://a.example"))
	assert.Equal(t, "plain", tp.SanitizeUTF8("plain"))
}

func TestProcessText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	got := tp.ProcessText("\xffhttps://grabify.link/abc 漢字", 28)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(got, "https://grabify.link/abc"))
}
