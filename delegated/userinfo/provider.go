// Package userinfo implements a delegated.Provider resolving OAuth2 access
// tokens through the identity provider's userinfo endpoint.
package userinfo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/delegated"
)

// TokenParameter is the request parameter carrying the access token.
const TokenParameter = "access_token"

const maxResponseSize = 1 << 20

type Options struct {
	Endpoint string `mapstructure:"endpoint"`
	// Namespace prefixes the typed identifier. Defaults to the provider name.
	Namespace string `mapstructure:"namespace"`
	// IDField names the response field holding the bare identifier. Defaults to "sub".
	IDField string `mapstructure:"id_field"`
}

type Provider struct {
	name     string
	endpoint url.URL
	opts     Options
	Client   *http.Client // optional; defaults to http.DefaultClient
}

var _ delegated.Provider = &Provider{}
var _ delegated.PayloadExtractor = &Provider{}

func New(name string, opts Options) (*Provider, error) {
	if name == "" {
		return nil, errors.New("provider name is required")
	}
	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil || endpoint.Scheme == "" || endpoint.Host == "" {
		return nil, fmt.Errorf("provider %s: invalid endpoint %q", name, opts.Endpoint)
	}
	if opts.Namespace == "" {
		opts.Namespace = name
	}
	if opts.IDField == "" {
		opts.IDField = "sub"
	}
	return &Provider{name: name, endpoint: *endpoint, opts: opts}, nil
}

func (p *Provider) Name() string { return p.name }

func (p *Provider) ExtractPayload(r *http.Request) (any, error) {
	token := r.FormValue(TokenParameter)
	if token == "" {
		return nil, fmt.Errorf("%w: missing %s", common.ErrInvalidInput, TokenParameter)
	}
	return token, nil
}

func (p *Provider) Profile(ctx context.Context, web common.WebContext, payload any) (*delegated.Profile, error) {
	token, err := tokenFrom(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInternal, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: userinfo status %d", common.ErrUnavailable, resp.StatusCode)
	default:
		return nil, fmt.Errorf("%w: userinfo status %d", common.ErrInvalidCredentials, resp.StatusCode)
	}

	var body map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&body); err != nil {
		logx.L().Debug("could not decode userinfo response", "provider", p.name, "error", err)
		return nil, fmt.Errorf("%w: userinfo response: %v", common.ErrInvalidInput, err)
	}

	id := delegated.IdentifierFrom(body[p.opts.IDField])
	delete(body, p.opts.IDField)
	profile := delegated.NewProfile(p.opts.Namespace, id, delegated.AttributesFrom(body))
	return &profile, nil
}

func tokenFrom(payload any) (string, error) {
	switch v := payload.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case url.Values:
		if token := v.Get(TokenParameter); token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: payload %T carries no token", common.ErrInvalidInput, payload)
}
