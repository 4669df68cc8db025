package clientsecret

import (
	"fmt"
	"net/http"

	"github.com/axent-pl/ssoauth/common"
)

// NewClientSecretCredentialsFromRequest reads HTTP Basic credentials, or the
// client_id and client_secret form fields when no Basic credentials are sent.
func NewClientSecretCredentialsFromRequest(r *http.Request) (ClientSecretCredentials, error) {
	if r == nil {
		return ClientSecretCredentials{}, fmt.Errorf("%w: request is nil", common.ErrInvalidInput)
	}

	var creds ClientSecretCredentials
	if id, secret, ok := r.BasicAuth(); ok {
		creds = ClientSecretCredentials{ClientID: id, ClientSecret: secret}
	} else {
		if err := r.ParseForm(); err != nil {
			return ClientSecretCredentials{}, fmt.Errorf("%w: could not parse form: %v", common.ErrInvalidInput, err)
		}
		creds = ClientSecretCredentials{
			ClientID:     r.PostFormValue("client_id"),
			ClientSecret: r.PostFormValue("client_secret"),
		}
	}

	if creds.ClientID == "" {
		return ClientSecretCredentials{}, fmt.Errorf("%w: missing client_id", common.ErrInvalidInput)
	}
	if creds.ClientSecret == "" {
		return ClientSecretCredentials{}, fmt.Errorf("%w: missing client_secret", common.ErrInvalidInput)
	}
	return creds, nil
}
