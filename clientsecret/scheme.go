package clientsecret

import (
	"context"
	"errors"

	"github.com/axent-pl/ssoauth/common"
	"golang.org/x/crypto/bcrypt"
)

type ClientSecretSchemer interface {
	common.Scheme
	GetClientID() string
	GetAttributes() map[string][]string
	CompareIDAndSecret(id string, secret string) error
}

type DefaultClientSecretScheme struct {
	ClientID   string
	SecretHash []byte
	Attributes map[string][]string
}

func (DefaultClientSecretScheme) Kind() common.Kind                    { return common.Secret }
func (s DefaultClientSecretScheme) GetClientID() string                { return s.ClientID }
func (s DefaultClientSecretScheme) GetAttributes() map[string][]string { return s.Attributes }
func (s DefaultClientSecretScheme) CompareIDAndSecret(id string, secret string) error {
	if s.ClientID != id {
		return errors.New("invalid client id")
	}
	return bcrypt.CompareHashAndPassword(s.SecretHash, []byte(secret))
}

var _ ClientSecretSchemer = DefaultClientSecretScheme{}

// Registry is an in-memory SchemeProvider keyed by client id.
type Registry map[string]ClientSecretSchemer

func NewRegistry(schemes ...ClientSecretSchemer) Registry {
	reg := make(Registry, len(schemes))
	for _, scheme := range schemes {
		reg[scheme.GetClientID()] = scheme
	}
	return reg
}

func (reg Registry) Schemes(ctx context.Context, in common.Credentials) ([]common.Scheme, error) {
	c, ok := in.(ClientSecretCredentials)
	if !ok {
		return nil, common.ErrInvalidInput
	}
	if scheme, ok := reg[c.ClientID]; ok {
		return []common.Scheme{scheme}, nil
	}
	return nil, nil
}
