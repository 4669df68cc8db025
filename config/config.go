// Package config loads the YAML configuration of the authentication server
// and wires the handler chain from it.
package config

import "time"

// Handler names usable in File.Handlers.
const (
	HandlerPassword  = "password"
	HandlerClient    = "client_secret"
	HandlerBearer    = "bearer"
	HandlerDelegated = "delegated"
)

// Provider types usable in ProviderConfig.Type.
const (
	ProviderToken    = "token"
	ProviderUserinfo = "userinfo"
)

// Payload kinds usable in RendererConfig.Payload.
const (
	PayloadSAML10 = "saml10"
	PayloadEmpty  = "empty"
)

type File struct {
	ListenAddr string `yaml:"listen_addr"`
	// Issuer names this server in SAML assertions.
	Issuer       string `yaml:"issuer"`
	DispatchMode string `yaml:"dispatch_mode"`
	// Handlers is the registration order. Empty registers every configured
	// handler in the order password, client_secret, bearer, delegated.
	Handlers  []string         `yaml:"handlers"`
	Renderer  RendererConfig   `yaml:"renderer"`
	Delegated DelegatedConfig  `yaml:"delegated"`
	Users     []UserConfig     `yaml:"users"`
	Clients   []ClientConfig   `yaml:"clients"`
	Bearer    *BearerConfig    `yaml:"bearer"`
	Providers []ProviderConfig `yaml:"providers"`
}

type RendererConfig struct {
	Encoding  string `yaml:"encoding"`
	Payload   string `yaml:"payload"`
	Recipient string `yaml:"recipient"`
}

type DelegatedConfig struct {
	IdentityMode string        `yaml:"identity_mode"`
	Timeout      time.Duration `yaml:"timeout"`
}

type UserConfig struct {
	Username     string              `yaml:"username"`
	PasswordHash string              `yaml:"password_hash"`
	Attributes   map[string][]string `yaml:"attributes"`
}

type ClientConfig struct {
	ClientID   string              `yaml:"client_id"`
	SecretHash string              `yaml:"secret_hash"`
	Attributes map[string][]string `yaml:"attributes"`
}

// BearerConfig verifies bearer tokens with either a shared secret or the
// keys published at JWKSURL.
type BearerConfig struct {
	Issuer      string        `yaml:"issuer"`
	Audience    string        `yaml:"audience"`
	HMACSecret  string        `yaml:"hmac_secret"`
	JWKSURL     string        `yaml:"jwks_url"`
	JWKSRefresh time.Duration `yaml:"jwks_refresh"`
	Leeway      time.Duration `yaml:"leeway"`
}

type ProviderConfig struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	// Options are decoded into the options struct of the provider type.
	Options map[string]any `yaml:"options"`
}
