package jwt

import "github.com/axent-pl/ssoauth/common"

type JWTCredentials struct {
	Token string
}

func (JWTCredentials) Kind() common.Kind { return common.JWT }

// Redacted drops the token.
func (JWTCredentials) Redacted() common.Credentials { return JWTCredentials{} }

var _ common.Credentials = JWTCredentials{}
var _ common.Redactor = JWTCredentials{}
