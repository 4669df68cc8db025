package userpassword

import (
	"context"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/handler"
)

type UserPasswordVerifier struct{}

var _ common.Verifier = &UserPasswordVerifier{}

func (v *UserPasswordVerifier) Kind() common.Kind { return common.Password }

func (v *UserPasswordVerifier) VerifyAny(ctx context.Context, in common.Credentials, schemes []common.Scheme) (common.Principal, error) {
	userPasswordInput, ok := in.(UserPasswordCredentials)
	if !ok {
		logx.L().Debug("could not cast Credentials to UserPasswordCredentials")
		return common.Principal{}, common.ErrInvalidInput
	}
	if userPasswordInput.Username == "" {
		logx.L().Debug("empty username")
		return common.Principal{}, common.ErrInvalidInput
	}
	if userPasswordInput.Password == "" {
		logx.L().Debug("empty password", "username", userPasswordInput.Username)
		return common.Principal{}, common.ErrInvalidInput
	}
	for _, s := range schemes {
		userPasswordScheme, ok := s.(UserPasswordSchemer)
		if !ok {
			continue
		}
		if err := userPasswordScheme.CompareUsernameAndPassword(userPasswordInput.Username, userPasswordInput.Password); err != nil {
			continue
		}
		return common.NewPrincipal(userPasswordScheme.GetUsername(), userPasswordScheme.GetAttributes())
	}
	return common.Principal{}, common.ErrInvalidCredentials
}

// NewHandler returns a handler verifying passwords against schemes.
func NewHandler(name string, schemes common.SchemeProvider) handler.Handler {
	return handler.NewVerifierHandler(name, &UserPasswordVerifier{}, schemes)
}
