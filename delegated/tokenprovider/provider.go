// Package tokenprovider implements a delegated.Provider verifying ID tokens
// issued by an external identity provider.
package tokenprovider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/jwt"
	jwtx "github.com/golang-jwt/jwt/v5"
)

// TokenParameter is the request parameter carrying the ID token.
const TokenParameter = "id_token"

// registered claims never copied into profile attributes
var registeredClaims = []string{"iss", "sub", "aud", "exp", "nbf", "iat", "jti"}

type Options struct {
	// Namespace prefixes the typed identifier. Defaults to the provider name.
	Namespace string `mapstructure:"namespace"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
	// Exactly one of HMACSecret, PublicKeyPEM and JWKSURL must be set.
	HMACSecret   string `mapstructure:"hmac_secret"`
	PublicKeyPEM string `mapstructure:"public_key_pem"`
	JWKSURL      string `mapstructure:"jwks_url"`
	// JWKSRefresh is how long fetched keys are used before refetching.
	JWKSRefresh time.Duration `mapstructure:"jwks_refresh"`
	Algorithm   string        `mapstructure:"algorithm"`
	// IDClaim names the claim holding the bare identifier. Defaults to "sub".
	IDClaim string `mapstructure:"id_claim"`
	// Attributes lists the claims copied into the profile. Empty copies all
	// non registered claims.
	Attributes []string      `mapstructure:"attributes"`
	Leeway     time.Duration `mapstructure:"leeway"`
	// ReplayCacheSize enables jti replay detection when positive.
	ReplayCacheSize int           `mapstructure:"replay_cache_size"`
	ReplayTTL       time.Duration `mapstructure:"replay_ttl"`
}

type Provider struct {
	name     string
	opts     Options
	schemes  common.SchemeProvider
	verifier jwt.JWTVerifier
}

var _ delegated.Provider = &Provider{}
var _ delegated.PayloadExtractor = &Provider{}

func New(name string, opts Options) (*Provider, error) {
	if name == "" {
		return nil, errors.New("provider name is required")
	}
	if opts.Namespace == "" {
		opts.Namespace = name
	}
	if opts.IDClaim == "" {
		opts.IDClaim = "sub"
	}

	scheme := jwt.JWTScheme{
		Issuer:   opts.Issuer,
		Audience: opts.Audience,
		Leeway:   opts.Leeway,
	}
	if opts.ReplayCacheSize > 0 {
		ttl := opts.ReplayTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		scheme.Replay = jwt.NewLRUReplayChecker(opts.ReplayCacheSize, ttl)
	}

	p := &Provider{name: name, opts: opts}
	if opts.JWKSURL != "" {
		if opts.HMACSecret != "" || opts.PublicKeyPEM != "" {
			return nil, fmt.Errorf("provider %s: jwks_url excludes hmac_secret and public_key_pem", name)
		}
		jwks, err := jwt.NewJWKSProvider(opts.JWKSURL, scheme)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		jwks.RefreshInterval = opts.JWKSRefresh
		p.schemes = jwks
		return p, nil
	}

	key, err := verificationKey(opts)
	if err != nil {
		return nil, fmt.Errorf("provider %s: %w", name, err)
	}
	scheme.Keys = []jwt.VerificationKey{key}
	p.schemes = common.StaticSchemes{scheme}
	return p, nil
}

func verificationKey(opts Options) (jwt.VerificationKey, error) {
	switch {
	case opts.HMACSecret != "" && opts.PublicKeyPEM != "":
		return jwt.VerificationKey{}, errors.New("hmac_secret and public_key_pem are mutually exclusive")
	case opts.HMACSecret != "":
		alg := opts.Algorithm
		if alg == "" {
			alg = jwtx.SigningMethodHS256.Alg()
		}
		return jwt.VerificationKey{Key: []byte(opts.HMACSecret), Alg: alg}, nil
	case opts.PublicKeyPEM != "":
		alg := opts.Algorithm
		if alg == "" {
			alg = jwtx.SigningMethodRS256.Alg()
		}
		if strings.HasPrefix(alg, "ES") {
			key, err := jwtx.ParseECPublicKeyFromPEM([]byte(opts.PublicKeyPEM))
			if err != nil {
				return jwt.VerificationKey{}, fmt.Errorf("could not parse public_key_pem: %w", err)
			}
			return jwt.VerificationKey{Key: key, Alg: alg}, nil
		}
		key, err := jwtx.ParseRSAPublicKeyFromPEM([]byte(opts.PublicKeyPEM))
		if err != nil {
			return jwt.VerificationKey{}, fmt.Errorf("could not parse public_key_pem: %w", err)
		}
		return jwt.VerificationKey{Key: key, Alg: alg}, nil
	}
	return jwt.VerificationKey{}, errors.New("one of hmac_secret, public_key_pem or jwks_url is required")
}

func (p *Provider) Name() string { return p.name }

// ExtractPayload reads the ID token from the callback request.
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
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	in := jwt.JWTCredentials{Token: token}
	schemes, err := p.schemes.Schemes(ctx, in)
	if err != nil {
		return nil, err
	}
	claims, err := p.verifier.Claims(ctx, in, schemes)
	if err != nil {
		return nil, err
	}

	id := delegated.IdentifierFrom(claims[p.opts.IDClaim])
	profile := delegated.NewProfile(p.opts.Namespace, id, delegated.AttributesFrom(p.attributes(claims)))
	return &profile, nil
}

func (p *Provider) attributes(claims jwtx.MapClaims) map[string]any {
	out := make(map[string]any, len(claims))
	for name, value := range claims {
		if slices.Contains(registeredClaims, name) {
			continue
		}
		if len(p.opts.Attributes) > 0 && !slices.Contains(p.opts.Attributes, name) {
			continue
		}
		out[name] = value
	}
	return out
}

func tokenFrom(payload any) (string, error) {
	switch v := payload.(type) {
	case string:
		return v, nil
	case url.Values:
		if token := v.Get(TokenParameter); token != "" {
			return token, nil
		}
	}
	return "", fmt.Errorf("%w: payload %T carries no token", common.ErrInvalidInput, payload)
}
