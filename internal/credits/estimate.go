package credits

import (
	"math"
	"unicode/utf8"
)

// EstimateTokens approximates the token count of text at four characters per
// token, never less than one for non-empty text.
func EstimateTokens(text string) float64 {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return math.Ceil(float64(n) / 4)
}
