// Package random generates cryptographically secure random strings.
package random

import (
	"crypto/rand"
	"strings"
)

// Alphanumeric is the default alphabet.
const Alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// recoveryCodeHalf is the length of each half of a recovery code.
const recoveryCodeHalf = 10

// String returns a random string of length n over Alphanumeric.
func String(n int) string {
	return FromAlphabet(n, Alphanumeric)
}

// FromAlphabet returns a random string of length n drawn uniformly from alphabet.
// Bytes that would bias the distribution are rejected. It panics on an alphabet shorter
// than two or longer than 256 characters.
func FromAlphabet(n int, alphabet string) string {
	if n <= 0 {
		return ""
	}

	size := len(alphabet)
	if size < 2 || size > 256 {
		panic("random: alphabet must hold between 2 and 256 characters")
	}

	limit := 256 - (256 % size)
	out := make([]byte, 0, n)
	buf := make([]byte, n+n/2)

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			panic("random: " + err.Error())
		}

		for _, b := range buf {
			if int(b) >= limit {
				continue
			}

			out = append(out, alphabet[int(b)%size])
			if len(out) == n {
				break
			}
		}
	}

	return string(out)
}

// RecoveryCode returns a two factor recovery code such as "Ab3dE6gH9k-Lm2nO5qR8t".
func RecoveryCode() string {
	return String(recoveryCodeHalf) + "-" + String(recoveryCodeHalf)
}

// RecoveryCodes returns n distinct recovery codes.
func RecoveryCodes(n int) []string {
	seen := make(map[string]struct{}, n)
	codes := make([]string, 0, n)

	for len(codes) < n {
		code := RecoveryCode()
		if _, dup := seen[code]; dup {
			continue
		}

		seen[code] = struct{}{}
		codes = append(codes, code)
	}

	return codes
}

// Token returns a lowercase token of length n, suitable for file names.
func Token(n int) string {
	return strings.ToLower(FromAlphabet(n, "abcdefghijklmnopqrstuvwxyz0123456789"))
}
