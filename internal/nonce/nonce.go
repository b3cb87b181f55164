// Package nonce generates per-attempt idempotency tokens for ticket
// redemption requests.
package nonce

import "math/rand/v2"

// DefaultLength is the token length sent with every redemption.
const DefaultLength = 32

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// Generate returns length characters drawn uniformly from [A-Za-z0-9].
// Callers must generate a new token for every redemption attempt.
func Generate(length int) string {
	if length <= 0 {
		return ""
	}
	b := make([]byte, length)
	for i := range b {
		b[i] = alphabet[rand.IntN(len(alphabet))]
	}
	return string(b)
}

// New returns a token of DefaultLength.
func New() string { return Generate(DefaultLength) }
