// Package session carries the identity shown alongside the user's
// messages.
package session

import "strings"

// Identity describes who is typing. Purely presentational; the backends
// do not authenticate.
type Identity struct {
	DisplayName string
}

// NewIdentity normalizes a configured display name, falling back to
// "you" when blank.
func NewIdentity(displayName string) Identity {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = "you"
	}
	return Identity{DisplayName: displayName}
}

// Initial returns the single-character avatar glyph for the identity.
func (i Identity) Initial() string {
	runes := []rune(i.DisplayName)
	return strings.ToUpper(string(runes[0]))
}
