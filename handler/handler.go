package handler

import (
	"context"
	"errors"

	"github.com/axent-pl/ssoauth/common"
)

// ErrHandlerMisuse is the panic value (wrapped) raised when Authenticate is
// called with credentials the handler does not support.
var ErrHandlerMisuse = errors.New("handler invoked for unsupported credentials")

// Handler verifies one or more kinds of credentials.
//
// Supports must be free of side effects and must not panic, also for nil
// input. Authenticate may only be called after Supports returned true for the
// same credentials.
type Handler interface {
	Name() string
	Supports(in common.Credentials) bool
	Authenticate(ctx context.Context, web common.WebContext, in common.Credentials) (Result, error)
}

// CredentialMetaData is the audit record of the verified credentials.
type CredentialMetaData struct {
	Kind common.Kind
	// Credential is the redacted form of the input, see common.Redactor.
	Credential common.Credentials
}

func NewCredentialMetaData(in common.Credentials) CredentialMetaData {
	return CredentialMetaData{
		Kind:       in.Kind(),
		Credential: common.Redact(in),
	}
}

// Result is the outcome of a successful authentication.
type Result struct {
	Handler   string
	Metadata  CredentialMetaData
	Principal common.Principal
}
