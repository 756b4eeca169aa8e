// Package randid generates short random identifiers for imported records.
package randid

import "math/rand/v2"

const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns a random string of length n drawn from [a-z0-9].
func Generate(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// Prefixed returns "<prefix>-" followed by n random characters, the shape of
// every generated record ID (p-, est-, co-, li-, exp-).
func Prefixed(prefix string, n int) string {
	return prefix + "-" + Generate(n)
}
