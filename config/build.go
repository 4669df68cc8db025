package config

import (
	"fmt"

	"github.com/axent-pl/ssoauth/clientsecret"
	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/delegated/tokenprovider"
	"github.com/axent-pl/ssoauth/delegated/userinfo"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/axent-pl/ssoauth/jwt"
	"github.com/axent-pl/ssoauth/samlview"
	"github.com/axent-pl/ssoauth/userpassword"
	"github.com/mitchellh/mapstructure"
)

// Runtime holds the components built from a File.
type Runtime struct {
	ListenAddr string
	Issuer     string
	Chain      *handler.Chain
	Providers  *delegated.Registry
	Renderer   *samlview.FailureRenderer
}

// probes are zero values of every credentials type a configured handler may
// claim; used to detect overlapping handlers at startup.
var probes = []common.Credentials{
	userpassword.UserPasswordCredentials{},
	clientsecret.ClientSecretCredentials{},
	jwt.JWTCredentials{},
	delegated.ClientCredentials{},
}

// Build validates cfg and wires the chain, the provider registry and the
// failure renderer.
func Build(cfg File) (*Runtime, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	mode, _ := handler.ParseDispatchMode(cfg.DispatchMode)
	identityMode, _ := delegated.ParseIdentityMode(cfg.Delegated.IdentityMode)

	providers, err := buildProviders(cfg.Providers)
	if err != nil {
		return nil, err
	}

	order := cfg.Handlers
	if len(order) == 0 {
		order = defaultOrder(cfg)
	}
	handlers := make([]handler.Handler, 0, len(order))
	for _, name := range order {
		switch name {
		case HandlerPassword:
			handlers = append(handlers, userpassword.NewHandler(name, buildUserStore(cfg.Users)))
		case HandlerClient:
			handlers = append(handlers, clientsecret.NewHandler(name, buildClientRegistry(cfg.Clients)))
		case HandlerBearer:
			schemes, err := bearerSchemes(cfg.Bearer)
			if err != nil {
				return nil, err
			}
			handlers = append(handlers, jwt.NewHandler(name, schemes))
		case HandlerDelegated:
			handlers = append(handlers, delegated.NewHandler(name, providers, delegated.Config{
				IdentityMode: identityMode,
				Timeout:      cfg.Delegated.Timeout,
			}))
		}
	}
	if mode == handler.Strict {
		if err := handler.ValidateDisjoint(probes, handlers); err != nil {
			return nil, fmt.Errorf("handlers: %w", err)
		}
	}
	chain, err := handler.NewChain(mode, handlers...)
	if err != nil {
		return nil, err
	}

	var payload samlview.PayloadBuilder = samlview.SAML10FailurePayload{Recipient: cfg.Renderer.Recipient}
	if cfg.Renderer.Payload == PayloadEmpty {
		payload = samlview.EmptyPayload
	}
	renderer, err := samlview.NewFailureRenderer(cfg.Renderer.Encoding, payload)
	if err != nil {
		return nil, err
	}

	return &Runtime{
		ListenAddr: cfg.ListenAddr,
		Issuer:     cfg.Issuer,
		Chain:      chain,
		Providers:  providers,
		Renderer:   renderer,
	}, nil
}

func defaultOrder(cfg File) []string {
	var order []string
	if len(cfg.Users) > 0 {
		order = append(order, HandlerPassword)
	}
	if len(cfg.Clients) > 0 {
		order = append(order, HandlerClient)
	}
	if cfg.Bearer != nil {
		order = append(order, HandlerBearer)
	}
	if len(cfg.Providers) > 0 {
		order = append(order, HandlerDelegated)
	}
	return order
}

func bearerSchemes(cfg *BearerConfig) (common.SchemeProvider, error) {
	scheme := jwt.JWTScheme{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
		Leeway:   cfg.Leeway,
	}
	if cfg.JWKSURL != "" {
		jwks, err := jwt.NewJWKSProvider(cfg.JWKSURL, scheme)
		if err != nil {
			return nil, fmt.Errorf("bearer: %w", err)
		}
		jwks.RefreshInterval = cfg.JWKSRefresh
		return jwks, nil
	}
	scheme.Keys = []jwt.VerificationKey{{Key: []byte(cfg.HMACSecret), Alg: "HS256"}}
	return common.StaticSchemes{scheme}, nil
}

func buildUserStore(users []UserConfig) userpassword.Store {
	schemes := make([]userpassword.UserPasswordSchemer, 0, len(users))
	for _, u := range users {
		schemes = append(schemes, userpassword.DefaultUserPasswordScheme{
			Username:     u.Username,
			PasswordHash: []byte(u.PasswordHash),
			Attributes:   u.Attributes,
		})
	}
	return userpassword.NewStore(schemes...)
}

func buildClientRegistry(clients []ClientConfig) clientsecret.Registry {
	schemes := make([]clientsecret.ClientSecretSchemer, 0, len(clients))
	for _, c := range clients {
		schemes = append(schemes, clientsecret.DefaultClientSecretScheme{
			ClientID:   c.ClientID,
			SecretHash: []byte(c.SecretHash),
			Attributes: c.Attributes,
		})
	}
	return clientsecret.NewRegistry(schemes...)
}

func buildProviders(configs []ProviderConfig) (*delegated.Registry, error) {
	providers := make([]delegated.Provider, 0, len(configs))
	for _, pc := range configs {
		p, err := buildProvider(pc)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return delegated.NewRegistry(providers...)
}

func buildProvider(pc ProviderConfig) (delegated.Provider, error) {
	switch pc.Type {
	case ProviderToken:
		var opts tokenprovider.Options
		if err := decodeOptions(pc.Options, &opts); err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		return tokenprovider.New(pc.Name, opts)
	case ProviderUserinfo:
		var opts userinfo.Options
		if err := decodeOptions(pc.Options, &opts); err != nil {
			return nil, fmt.Errorf("provider %s: %w", pc.Name, err)
		}
		return userinfo.New(pc.Name, opts)
	}
	return nil, fmt.Errorf("provider %s: unknown provider type %q", pc.Name, pc.Type)
}

func decodeOptions(in map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(in)
}
