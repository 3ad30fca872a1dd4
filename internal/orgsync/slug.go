package orgsync

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	slugAlphabet     = "abcdefghijklmnopqrstuvwxyz0123456789"
	slugSuffixLength = 6
)

// GenerateSlug derives a URL-safe organization slug from a display name:
// accents folded, lower-cased, runs of other characters collapsed to "-",
// then "-org-" and a random six character suffix.
func GenerateSlug(name string) string {
	base := slugBase(name)
	suffix := "org-" + randomSuffix(slugSuffixLength)
	if base == "" {
		return suffix
	}
	return base + "-" + suffix
}

func slugBase(name string) string {
	folded, _, err := transform.String(
		transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC),
		name,
	)
	if err != nil {
		folded = name
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	pendingDash := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

func randomSuffix(n int) string {
	max := big.NewInt(int64(len(slugAlphabet)))
	out := make([]byte, n)
	for i := range out {
		v, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand does not fail on supported platforms
			panic(err)
		}
		out[i] = slugAlphabet[v.Int64()]
	}
	return string(out)
}
