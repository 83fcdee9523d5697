// Package shortid generates and validates the short public identifiers that
// clients use to reference users.
//
// Public IDs are deliberately distinct from the internal primary keys: they
// are short enough to type into a form, carry no creation-time information,
// and can be regenerated on a collision without touching the rest of the
// record. The alphabet is URL-safe so IDs can appear in query strings
// without escaping.
package shortid

import (
	"crypto/rand"
	"fmt"
)

// alphabet is the full set of characters a public ID may contain.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

const (
	// Length is the number of characters in a generated ID.
	Length = 8

	// MaxLength bounds how long a string may be and still count as a
	// syntactically valid ID. Anything longer is free text, not an ID,
	// and must never reach the store.
	MaxLength = 14
)

// Generate returns a new random public identifier.
//
// The alphabet has 64 characters, so each random byte maps onto exactly one
// character with no modulo bias. crypto/rand only fails when the platform's
// entropy source is broken, and there is no sensible way to continue serving
// requests in that state, so Generate panics rather than returning an error.
func Generate() string {
	b := make([]byte, Length)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("shortid: reading random bytes: %v", err))
	}
	for i, c := range b {
		b[i] = alphabet[c&63]
	}
	return string(b)
}

// IsValid reports whether s is syntactically a legal public identifier:
// non-empty, at most MaxLength characters, and drawn entirely from the
// generator's alphabet. It is a format check only and says nothing about
// whether a user with this ID exists.
func IsValid(s string) bool {
	if s == "" || len(s) > MaxLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !inAlphabet(s[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z':
		return true
	case c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '_':
		return true
	}
	return false
}
