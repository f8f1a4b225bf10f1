package id

import "crypto/rand"

const (
	chars  = "abcdefghijklmnopqrstuvwxyz0123456789"
	length = 16
)

// GenerateID creates a unique 16-character alphanumeric ID.
func GenerateID() string {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	for i := range b {
		b[i] = chars[b[i]%byte(len(chars))]
	}
	return string(b)
}

// Valid reports whether s has the shape GenerateID produces. Used to reject
// forged browsing-session cookies before they reach the registry.
func Valid(s string) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') {
			return false
		}
	}
	return true
}
