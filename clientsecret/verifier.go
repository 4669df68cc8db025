package clientsecret

import (
	"context"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/handler"
)

type ClientSecretVerifier struct{}

func (v *ClientSecretVerifier) Kind() common.Kind { return common.Secret }

func (v *ClientSecretVerifier) VerifyAny(ctx context.Context, in common.Credentials, stored []common.Scheme) (common.Principal, error) {
	clientSecretInput, ok := in.(ClientSecretCredentials)
	if !ok {
		logx.L().Debug("could not cast Credentials to ClientSecretCredentials")
		return common.Principal{}, common.ErrInvalidInput
	}
	if clientSecretInput.ClientID == "" {
		logx.L().Debug("empty client_id")
		return common.Principal{}, common.ErrInvalidInput
	}
	if clientSecretInput.ClientSecret == "" {
		logx.L().Debug("empty client_secret", "client_id", clientSecretInput.ClientID)
		return common.Principal{}, common.ErrInvalidInput
	}

	for _, s := range stored {
		clientSecretStored, ok := s.(ClientSecretSchemer)
		if !ok {
			continue
		}
		if err := clientSecretStored.CompareIDAndSecret(clientSecretInput.ClientID, clientSecretInput.ClientSecret); err != nil {
			continue
		}
		return common.NewPrincipal(clientSecretStored.GetClientID(), clientSecretStored.GetAttributes())
	}
	return common.Principal{}, common.ErrInvalidCredentials
}

// NewHandler returns a handler verifying service client secrets.
func NewHandler(name string, schemes common.SchemeProvider) handler.Handler {
	return handler.NewVerifierHandler(name, &ClientSecretVerifier{}, schemes)
}
