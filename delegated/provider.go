package delegated

import (
	"context"
	"fmt"
	"sort"

	"github.com/axent-pl/ssoauth/common"
)

// Provider verifies provider specific credentials and returns the identity
// they prove.
//
// Profile must honour ctx cancellation. Errors wrapping common.ErrUnavailable
// (or a context error) are transient, errors wrapping common.ErrInvalidInput
// mean the payload or the provider answer was malformed, anything else is a
// definitive rejection.
type Provider interface {
	Name() string
	Profile(ctx context.Context, web common.WebContext, payload any) (*Profile, error)
}

// Registry maps provider names to providers. It is built once and never
// modified, so lookups need no locking.
type Registry struct {
	providers map[string]Provider
}

func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for i, p := range providers {
		if p == nil {
			return nil, fmt.Errorf("provider #%d is nil", i)
		}
		name := p.Name()
		if name == "" {
			return nil, fmt.Errorf("provider #%d has no name", i)
		}
		if _, dup := r.providers[name]; dup {
			return nil, fmt.Errorf("duplicate provider %q", name)
		}
		r.providers[name] = p
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (Provider, bool) {
	if r == nil {
		return nil, false
	}
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the sorted provider names.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
