package extractor

import "testing"

func TestNormalizeLang(t *testing.T) {
	t.Parallel()
	cases := map[string]string{
		"":      "",
		"en":    "en",
		"EN_us": "en-US",
		"pt-br": "pt-BR",
		"??":    "",
		" de ":  "de",
	}
	for in, want := range cases {
		if got := normalizeLang(in); got != want {
			t.Fatalf("normalizeLang(%q) = %q, want %q", in, got, want)
		}
	}
}
