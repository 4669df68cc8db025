package common

import (
	"fmt"
	"strings"
)

type SubjectID string

// Principal is the normalized identity produced by a successful
// authentication. Use NewPrincipal to build one.
type Principal struct {
	Subject    SubjectID
	Attributes map[string][]string
}

// NewPrincipal validates id and copies attrs so the returned principal does not
// share state with the caller. The empty attribute name is dropped.
func NewPrincipal(id string, attrs map[string][]string) (Principal, error) {
	if strings.TrimSpace(id) == "" {
		return Principal{}, fmt.Errorf("%w: blank principal id", ErrInvalidInput)
	}
	return Principal{
		Subject:    SubjectID(id),
		Attributes: copyAttributes(attrs),
	}, nil
}

// Attribute returns the first value of the named attribute.
func (p Principal) Attribute(name string) (string, bool) {
	values, ok := p.Attributes[name]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}

func (p Principal) Clone() Principal {
	return Principal{Subject: p.Subject, Attributes: copyAttributes(p.Attributes)}
}

func copyAttributes(attrs map[string][]string) map[string][]string {
	out := make(map[string][]string, len(attrs))
	for name, values := range attrs {
		if name == "" {
			continue
		}
		out[name] = append([]string(nil), values...)
	}
	return out
}
