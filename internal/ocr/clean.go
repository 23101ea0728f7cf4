package ocr

import (
	"strings"
	"unicode/utf8"
)

// JoinLines merges recognized lines into one string, rejoining words that
// were hyphenated at a line end.
func JoinLines(lines []string) string {
	var b strings.Builder
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if b.Len() > 0 {
			prev := b.String()
			first, _ := utf8.DecodeRuneInString(line)
			if strings.HasSuffix(prev, "-") && first >= 'a' && first <= 'z' {
				b.Reset()
				b.WriteString(prev[:len(prev)-1])
			} else {
				b.WriteByte(' ')
			}
		}
		b.WriteString(line)
	}
	return CleanText(b.String())
}

// CleanText collapses whitespace and fixes digits misread inside words:
// a 0 between two letters becomes O, a 1 becomes l.
func CleanText(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	text = replaceBetweenLetters(text, '0', 'O')
	text = replaceBetweenLetters(text, '1', 'l')
	return text
}

func replaceBetweenLetters(s string, old, repl byte) string {
	if strings.IndexByte(s, old) < 0 {
		return s
	}
	src := []byte(s)
	out := []byte(s)
	for i := 1; i < len(src)-1; i++ {
		if src[i] == old && isASCIILetter(rune(src[i-1])) && isASCIILetter(rune(src[i+1])) {
			out[i] = repl
		}
	}
	return string(out)
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}
