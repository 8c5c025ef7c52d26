package classroom

import (
	"crypto/rand"
	"fmt"
	"strings"
)

// codeAlphabet omits 0 and 1: join codes get read aloud and copied from
// whiteboards, and those digits collide with O and I in most fonts.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ23456789"

// codeLength keeps codes short enough to type while leaving roughly a
// billion combinations.
const codeLength = 6

// newJoinCode generates a random join code.
func newJoinCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate join code: %w", err)
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

// normalizeJoinCode canonicalizes user input: uppercase, surrounding space
// and inner dashes stripped.
func normalizeJoinCode(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	return strings.ReplaceAll(code, "-", "")
}

// validJoinCode reports whether a normalized code could have been issued.
func validJoinCode(code string) bool {
	if len(code) != codeLength {
		return false
	}
	for _, r := range code {
		if !strings.ContainsRune(codeAlphabet, r) {
			return false
		}
	}
	return true
}
