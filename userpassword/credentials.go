package userpassword

import (
	"fmt"
	"net/http"

	"github.com/axent-pl/ssoauth/common"
)

type UserPasswordCredentials struct {
	Username string
	Password string
}

func (UserPasswordCredentials) Kind() common.Kind { return common.Password }

func (c UserPasswordCredentials) Redacted() common.Credentials {
	return UserPasswordCredentials{Username: c.Username}
}

var _ common.Credentials = UserPasswordCredentials{}
var _ common.Redactor = UserPasswordCredentials{}

func NewUserPasswordCredentialsFromRequest(r *http.Request) (UserPasswordCredentials, error) {
	if r == nil {
		return UserPasswordCredentials{}, fmt.Errorf("%w: request is nil", common.ErrInvalidInput)
	}
	if err := r.ParseForm(); err != nil {
		return UserPasswordCredentials{}, fmt.Errorf("%w: could not parse form: %v", common.ErrInvalidInput, err)
	}

	creds := UserPasswordCredentials{
		Username: r.PostFormValue("username"),
		Password: r.PostFormValue("password"),
	}
	if creds.Username == "" {
		return UserPasswordCredentials{}, fmt.Errorf("%w: missing username", common.ErrInvalidInput)
	}
	return creds, nil
}
