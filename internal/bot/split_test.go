package bot

import (
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{name: "fits", text: "hello", limit: 10, want: []string{"hello"}},
		{name: "exact", text: "hello", limit: 5, want: []string{"hello"}},
		{name: "breaks after newline", text: "abc\ndef ghi", limit: 8, want: []string{"abc\n", "def ghi"}},
		{name: "breaks after space", text: "abc def ghi", limit: 8, want: []string{"abc def ", "ghi"}},
		{name: "hard cut", text: "abcdefghij", limit: 4, want: []string{"abcd", "efgh", "ij"}},
		{name: "cyrillic is one unit per letter", text: "привет мир", limit: 7, want: []string{"привет ", "мир"}},
		{name: "emoji are two units", text: "😀😀😀😀😀", limit: 4, want: []string{"😀😀", "😀😀", "😀"}},
		{name: "emoji break after space", text: "ab 😀😀", limit: 5, want: []string{"ab ", "😀😀"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitMessage(tt.text, tt.limit))
		})
	}
}

func TestSplitMessageTelegramLimit(t *testing.T) {
	text := strings.Repeat("word ", 2000)

	chunks := splitMessage(text, telegramMaxMessageLength)

	assert.Len(t, chunks, 3)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, utf16Len(c), telegramMaxMessageLength)
	}
}

func TestSplitMessageEmojiStaysUnderTelegramLimit(t *testing.T) {
	// 3000 runes fit a rune count but are 6000 UTF-16 units
	text := strings.Repeat("🙂", 3000)

	chunks := splitMessage(text, telegramMaxMessageLength)

	assert.Len(t, chunks, 2)
	assert.Equal(t, text, strings.Join(chunks, ""))
	for _, c := range chunks {
		assert.LessOrEqual(t, len(utf16.Encode([]rune(c))), telegramMaxMessageLength)
	}
}
