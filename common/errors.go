package common

import "errors"

// ErrInvalidCredentials means the credentials do not prove the claimed identity.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidInput means the credentials or a provider response are structurally invalid.
var ErrInvalidInput = errors.New("bad input")

// ErrUnavailable means a backend could not be reached or did not answer in time.
var ErrUnavailable = errors.New("backend unavailable")

// ErrUnsupportedCredentials means no handler claims the credentials.
var ErrUnsupportedCredentials = errors.New("unsupported credentials")

var ErrInternal = errors.New("internal error")
