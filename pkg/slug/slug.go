package slug

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"unicode"
)

// maxLength bounds slugs so they stay usable in URLs and database indexes.
const maxLength = 80

// Make converts a title into a slug. Empty input produces an empty slug;
// callers decide whether that is an error.
func Make(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) && r < unicode.MaxASCII, unicode.IsDigit(r) && r < unicode.MaxASCII:
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "-")
	if len(out) > maxLength {
		out = strings.TrimRight(out[:maxLength], "-")
	}
	return out
}

// MakeUnique appends a short random suffix, for callers that need collision
// resistance without a read-modify-write cycle.
func MakeUnique(title string) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return Make(title)
	}

	base := Make(title)
	if base == "" {
		return hex.EncodeToString(buf)
	}
	return base + "-" + hex.EncodeToString(buf)
}
