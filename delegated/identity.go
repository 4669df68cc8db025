package delegated

import (
	"fmt"
	"strings"
)

// IdentityMode selects which profile identifier becomes the principal id.
type IdentityMode int

const (
	// Typed uses the provider namespaced identifier.
	Typed IdentityMode = iota
	// Bare uses the raw identifier.
	Bare
)

func (m IdentityMode) String() string {
	if m == Bare {
		return "bare"
	}
	return "typed"
}

// ParseIdentityMode parses "typed" or "bare". The empty string is Typed.
func ParseIdentityMode(s string) (IdentityMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "typed":
		return Typed, nil
	case "bare":
		return Bare, nil
	}
	return Typed, fmt.Errorf("unknown identity mode %q", s)
}

func (m IdentityMode) Select(p Profile) string {
	if m == Bare {
		return p.ID
	}
	return p.TypedID
}
