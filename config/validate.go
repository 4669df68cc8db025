package config

import (
	"errors"
	"fmt"

	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/axent-pl/ssoauth/samlview"
	"go.uber.org/multierr"
)

// Validate checks enumerations and required fields. All problems are
// reported at once.
func Validate(cfg File) error {
	var errs error

	if _, err := handler.ParseDispatchMode(cfg.DispatchMode); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("dispatch_mode: %w", err))
	}
	if _, err := delegated.ParseIdentityMode(cfg.Delegated.IdentityMode); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("delegated.identity_mode: %w", err))
	}
	if cfg.Delegated.Timeout < 0 {
		errs = multierr.Append(errs, errors.New("delegated.timeout must not be negative"))
	}
	if _, err := samlview.NewFailureRenderer(cfg.Renderer.Encoding, nil); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("renderer.encoding: %w", err))
	}
	switch cfg.Renderer.Payload {
	case "", PayloadSAML10, PayloadEmpty:
	default:
		errs = multierr.Append(errs, fmt.Errorf("renderer.payload: unknown payload %q", cfg.Renderer.Payload))
	}

	seenHandlers := map[string]bool{}
	for _, name := range cfg.Handlers {
		if seenHandlers[name] {
			errs = multierr.Append(errs, fmt.Errorf("handlers: %q listed twice", name))
		}
		seenHandlers[name] = true
		switch name {
		case HandlerPassword:
			if len(cfg.Users) == 0 {
				errs = multierr.Append(errs, errors.New("handlers: password requires users"))
			}
		case HandlerClient:
			if len(cfg.Clients) == 0 {
				errs = multierr.Append(errs, errors.New("handlers: client_secret requires clients"))
			}
		case HandlerBearer:
			if cfg.Bearer == nil {
				errs = multierr.Append(errs, errors.New("handlers: bearer requires a bearer section"))
			}
		case HandlerDelegated:
			if len(cfg.Providers) == 0 {
				errs = multierr.Append(errs, errors.New("handlers: delegated requires providers"))
			}
		default:
			errs = multierr.Append(errs, fmt.Errorf("handlers: unknown handler %q", name))
		}
	}

	seenUsers := map[string]bool{}
	for i, u := range cfg.Users {
		if u.Username == "" {
			errs = multierr.Append(errs, fmt.Errorf("users[%d].username must be set", i))
		}
		if u.PasswordHash == "" {
			errs = multierr.Append(errs, fmt.Errorf("users[%d].password_hash must be set", i))
		}
		if seenUsers[u.Username] {
			errs = multierr.Append(errs, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username))
		}
		seenUsers[u.Username] = true
	}

	seenClients := map[string]bool{}
	for i, c := range cfg.Clients {
		if c.ClientID == "" {
			errs = multierr.Append(errs, fmt.Errorf("clients[%d].client_id must be set", i))
		}
		if c.SecretHash == "" {
			errs = multierr.Append(errs, fmt.Errorf("clients[%d].secret_hash must be set", i))
		}
		if seenClients[c.ClientID] {
			errs = multierr.Append(errs, fmt.Errorf("clients[%d]: duplicate client_id %q", i, c.ClientID))
		}
		seenClients[c.ClientID] = true
	}

	if cfg.Bearer != nil && (cfg.Bearer.HMACSecret == "") == (cfg.Bearer.JWKSURL == "") {
		errs = multierr.Append(errs, errors.New("bearer: exactly one of hmac_secret and jwks_url must be set"))
	}

	seenProviders := map[string]bool{}
	for i, p := range cfg.Providers {
		if p.Name == "" {
			errs = multierr.Append(errs, fmt.Errorf("providers[%d].name must be set", i))
		}
		if seenProviders[p.Name] {
			errs = multierr.Append(errs, fmt.Errorf("providers[%d]: duplicate provider %q", i, p.Name))
		}
		seenProviders[p.Name] = true
		switch p.Type {
		case ProviderToken, ProviderUserinfo:
		default:
			errs = multierr.Append(errs, fmt.Errorf("providers[%d].type: unknown provider type %q", i, p.Type))
		}
	}

	return errs
}
