package delegated

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/axent-pl/ssoauth/common"
)

// ClientNameParameter is the request parameter naming the provider.
const ClientNameParameter = "client_name"

// ClientCredentials are credentials verified by the external provider named
// ProviderName. Payload is opaque to everything but that provider.
type ClientCredentials struct {
	ProviderName string
	Payload      any
	// Profile is set on the copy recorded in the handler result.
	Profile *Profile
}

func (ClientCredentials) Kind() common.Kind { return common.Client }

// Redacted drops the provider payload and keeps the profile.
func (c ClientCredentials) Redacted() common.Credentials {
	return ClientCredentials{ProviderName: c.ProviderName, Profile: c.Profile}
}

// WithProfile returns a copy of c carrying p.
func (c ClientCredentials) WithProfile(p Profile) ClientCredentials {
	c.Profile = &p
	return c
}

var _ common.Credentials = ClientCredentials{}
var _ common.Redactor = ClientCredentials{}

func NewClientCredentials(providerName string, payload any) ClientCredentials {
	return ClientCredentials{ProviderName: providerName, Payload: payload}
}

// PayloadExtractor is implemented by providers reading their own payload
// from the callback request.
type PayloadExtractor interface {
	ExtractPayload(r *http.Request) (any, error)
}

// NewClientCredentialsFromRequest reads the provider name from the request and
// lets the provider extract its payload. Providers without a PayloadExtractor
// receive the request form as url.Values. An unknown provider is not an error
// here; the handler reports it.
func NewClientCredentialsFromRequest(r *http.Request, providers *Registry) (ClientCredentials, error) {
	if r == nil {
		return ClientCredentials{}, fmt.Errorf("%w: request is nil", common.ErrInvalidInput)
	}
	if err := r.ParseForm(); err != nil {
		return ClientCredentials{}, fmt.Errorf("%w: could not parse form: %v", common.ErrInvalidInput, err)
	}
	name := strings.TrimSpace(r.FormValue(ClientNameParameter))
	if name == "" {
		return ClientCredentials{}, fmt.Errorf("%w: missing %s", common.ErrInvalidInput, ClientNameParameter)
	}

	if p, ok := providers.Lookup(name); ok {
		if extractor, ok := p.(PayloadExtractor); ok {
			payload, err := extractor.ExtractPayload(r)
			if err != nil {
				return ClientCredentials{}, err
			}
			return NewClientCredentials(name, payload), nil
		}
	}

	form := make(url.Values, len(r.Form))
	for k, v := range r.Form {
		if k == ClientNameParameter {
			continue
		}
		form[k] = append([]string(nil), v...)
	}
	return NewClientCredentials(name, form), nil
}
