package delegated

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/handler"
)

const DefaultTimeout = 10 * time.Second

type Config struct {
	IdentityMode IdentityMode
	// Timeout bounds every provider call. Zero means DefaultTimeout.
	Timeout time.Duration
}

type delegation struct {
	providers *Registry
	mode      IdentityMode
	timeout   time.Duration
}

// NewHandler returns a handler delegating ClientCredentials to the provider
// they name.
func NewHandler(name string, providers *Registry, cfg Config) handler.Handler {
	d := &delegation{
		providers: providers,
		mode:      cfg.IdentityMode,
		timeout:   cfg.Timeout,
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	return &handler.PrePostHandler{
		HandlerName: name,
		Kinds:       []common.Kind{common.Client},
		Accept: func(in common.Credentials) bool {
			_, ok := in.(ClientCredentials)
			return ok
		},
		Do: d.authenticate,
	}
}

func (d *delegation) authenticate(ctx context.Context, web common.WebContext, in common.Credentials) (common.Principal, common.Credentials, error) {
	creds, ok := in.(ClientCredentials)
	if !ok {
		return common.Principal{}, nil, fmt.Errorf("%w: unexpected credentials %T", common.ErrInvalidInput, in)
	}
	name := strings.TrimSpace(creds.ProviderName)
	if name == "" {
		return common.Principal{}, nil, fmt.Errorf("%w: missing provider name", common.ErrInvalidInput)
	}

	provider, ok := d.providers.Lookup(name)
	if !ok {
		return common.Principal{}, nil, fmt.Errorf("%w: provider %q is not configured", common.ErrUnavailable, name)
	}

	profile, err := d.fetchProfile(ctx, web, provider, creds.Payload)
	if err != nil {
		return common.Principal{}, nil, fmt.Errorf("provider %s: %w", name, err)
	}
	if profile == nil {
		return common.Principal{}, nil, fmt.Errorf("%w: provider %s did not produce a profile", common.ErrInvalidCredentials, name)
	}

	id := d.mode.Select(*profile)
	if strings.TrimSpace(id) == "" {
		return common.Principal{}, nil, fmt.Errorf("%w: provider %s returned no %s identifier", common.ErrInvalidCredentials, name, d.mode)
	}
	principal, err := common.NewPrincipal(id, profile.Attributes)
	if err != nil {
		return common.Principal{}, nil, err
	}
	logx.L().Debug("provider profile mapped", "provider", name, "id", id, "attributes", len(principal.Attributes))
	return principal, creds.WithProfile(*profile), nil
}

type outcome struct {
	profile *Profile
	err     error
}

// fetchProfile returns once the provider answers or the timeout passes,
// whichever comes first.
func (d *delegation) fetchProfile(ctx context.Context, web common.WebContext, p Provider, payload any) (*Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		profile, err := p.Profile(ctx, web, payload)
		done <- outcome{profile: profile, err: err}
	}()

	select {
	case o := <-done:
		return o.profile, o.err
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, ctx.Err())
	}
}
