package bot

import "unicode/utf16"

// Telegram measures message length in UTF-16 code units.
const telegramMaxMessageLength = 4096

// splitMessage cuts text into chunks of at most limit UTF-16 code units,
// preferring to break after a newline, then after a space.
func splitMessage(text string, limit int) []string {
	if utf16Len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > 0 {
		end, units := 0, 0
		for end < len(runes) {
			n := utf16.RuneLen(runes[end])
			if n < 0 {
				n = 1 // invalid runes are sent as U+FFFD
			}
			if units+n > limit {
				break
			}
			units += n
			end++
		}
		if end == len(runes) {
			chunks = append(chunks, string(runes))
			break
		}
		if end == 0 {
			end = 1
		}

		cut := end
		if i := lastRune(runes[:end], '\n'); i > 0 {
			cut = i + 1
		} else if i := lastRune(runes[:end], ' '); i > 0 {
			cut = i + 1
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	return chunks
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			n++
		}
	}
	return n
}

func lastRune(runes []rune, target rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == target {
			return i
		}
	}
	return -1
}
