package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFirstURL(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		mode   Mode
		want   string
		wantOK bool
	}{
		{"scheme relaxed", "Check this out https://i.go.iplogger.com/12dxzfcs.php", ModeRelaxed, "https://i.go.iplogger.com/12dxzfcs.php", true},
		{"scheme aggressive", "Check this out https://i.go.iplogger.com/12dxzfcs.php", ModeAggressive, "https://i.go.iplogger.com/12dxzfcs.php", true},
		{"www relaxed", "go to www.iplogger.com now", ModeRelaxed, "www.iplogger.com", true},
		{"www aggressive", "go to www.iplogger.com now", ModeAggressive, "www.iplogger.com", true},
		{"bare domain relaxed", "join discord.gg/b1nzy", ModeRelaxed, "", false},
		{"bare domain aggressive", "join discord.gg/b1nzy", ModeAggressive, "discord.gg/b1nzy", true},
		{"first only", "http://a.com and http://b.com", ModeRelaxed, "http://a.com", true},
		{"no url", "just chatting here", ModeAggressive, "", false},
		{"single letter tld", "e.g. this", ModeAggressive, "", false},
		{"port and path", "host cool.webcam:8080/x?y=1 ok", ModeAggressive, "cool.webcam:8080/x?y=1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractFirstURL(tt.text, tt.mode)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"www.iplogger.com", "http://www.iplogger.com"},
		{"  example.com  ", "http://example.com"},
		{"https://example.com", "https://example.com"},
		{"HTTP://Example.com", "HTTP://Example.com"},
		{"httpbin.org/get", "http://httpbin.org/get"},
		{"https://example.com/page).", "https://example.com/page"},
		{"example.com/a?b=c,", "http://example.com/a?b=c"},
		{"https://en.wikipedia.org/wiki/Foo_(bar)", "https://en.wikipedia.org/wiki/Foo_(bar)"},
		{"https://en.wikipedia.org/wiki/Foo_(bar)).", "https://en.wikipedia.org/wiki/Foo_(bar)"},
		{"https://example.com/x)]", "https://example.com/x"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeURL(tt.input))
		})
	}
}
