package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/axent-pl/ssoauth/clientsecret"
	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/jwt"
	"github.com/axent-pl/ssoauth/userpassword"
)

// CredentialsFromRequest reads the credentials carried by r. An Authorization
// header wins (Basic for service clients, anything else as a bearer token),
// then the form fields client_name, client_id, username and access_token.
func CredentialsFromRequest(r *http.Request, providers *delegated.Registry) (common.Credentials, error) {
	if authHeader := strings.TrimSpace(r.Header.Get("Authorization")); authHeader != "" {
		if _, _, ok := r.BasicAuth(); ok {
			return clientsecret.NewClientSecretCredentialsFromRequest(r)
		}
		return jwt.NewJWTCredentialsFromRequest(r)
	}
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("%w: could not parse form: %v", common.ErrInvalidInput, err)
	}
	switch {
	case r.FormValue(delegated.ClientNameParameter) != "":
		return delegated.NewClientCredentialsFromRequest(r, providers)
	case r.PostFormValue("client_id") != "":
		return clientsecret.NewClientSecretCredentialsFromRequest(r)
	case r.PostFormValue("username") != "":
		return userpassword.NewUserPasswordCredentialsFromRequest(r)
	case r.FormValue("access_token") != "":
		return jwt.NewJWTCredentialsFromRequest(r)
	}
	return nil, fmt.Errorf("%w: no credentials in request", common.ErrInvalidInput)
}
