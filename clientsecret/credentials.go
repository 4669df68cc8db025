package clientsecret

import (
	"github.com/axent-pl/ssoauth/common"
)

type ClientSecretCredentials struct {
	ClientID     string
	ClientSecret string
}

func (ClientSecretCredentials) Kind() common.Kind { return common.Secret }

func (c ClientSecretCredentials) Redacted() common.Credentials {
	return ClientSecretCredentials{ClientID: c.ClientID}
}

var _ common.Credentials = ClientSecretCredentials{}
var _ common.Redactor = ClientSecretCredentials{}
