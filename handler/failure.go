package handler

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/axent-pl/ssoauth/common"
)

type FailureKind int

const (
	// Rejected means the credentials do not prove the claimed identity.
	Rejected FailureKind = iota + 1
	// Malformed means the credentials or a provider response are structurally invalid.
	Malformed
	// Unavailable means a backend could not be queried. It is transient.
	Unavailable
	// Unsupported means no handler claims the credentials.
	Unsupported
)

func (k FailureKind) String() string {
	switch k {
	case Rejected:
		return "rejected"
	case Malformed:
		return "malformed"
	case Unavailable:
		return "unavailable"
	case Unsupported:
		return "unsupported"
	}
	return fmt.Sprintf("FailureKind(%d)", int(k))
}

func (k FailureKind) sentinel() error {
	switch k {
	case Malformed:
		return common.ErrInvalidInput
	case Unavailable:
		return common.ErrUnavailable
	case Unsupported:
		return common.ErrUnsupportedCredentials
	}
	return common.ErrInvalidCredentials
}

// Failure is the error returned by handlers and by the Chain.
// errors.Is matches both the kind's sentinel from package common and the
// wrapped cause.
type Failure struct {
	Kind    FailureKind
	Handler string
	Err     error
}

func (f *Failure) Error() string {
	prefix := f.Kind.String()
	if f.Handler != "" {
		prefix = fmt.Sprintf("handler %s: %s", f.Handler, prefix)
	}
	if f.Err == nil {
		return prefix
	}
	return fmt.Sprintf("%s: %v", prefix, f.Err)
}

func (f *Failure) Unwrap() []error {
	if f.Err == nil {
		return []error{f.Kind.sentinel()}
	}
	return []error{f.Kind.sentinel(), f.Err}
}

// Description is the client-facing message. It never contains the cause.
func (f *Failure) Description() string {
	switch f.Kind {
	case Malformed:
		return "Malformed credentials"
	case Unavailable:
		return "Authentication service temporarily unavailable"
	case Unsupported:
		return "Unsupported credentials"
	}
	return "Authentication failed"
}

// NewFailure classifies err. An err that already is a *Failure is returned
// with the handler name filled in when missing.
func NewFailure(handler string, err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		if f.Handler != "" || handler == "" {
			return f
		}
		return &Failure{Kind: f.Kind, Handler: handler, Err: f.Err}
	}
	return &Failure{Kind: KindOf(err), Handler: handler, Err: err}
}

// KindOf maps any error onto a FailureKind. Errors carrying no recognizable
// cause are treated as Rejected.
func KindOf(err error) FailureKind {
	var f *Failure
	if errors.As(err, &f) {
		return f.Kind
	}
	switch {
	case errors.Is(err, common.ErrUnsupportedCredentials):
		return Unsupported
	case errors.Is(err, common.ErrInvalidInput):
		return Malformed
	case errors.Is(err, common.ErrUnavailable),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return Unavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Unavailable
	}
	return Rejected
}

func classified(err error) bool {
	var f *Failure
	return errors.As(err, &f) ||
		errors.Is(err, common.ErrUnsupportedCredentials) ||
		errors.Is(err, common.ErrInvalidInput) ||
		errors.Is(err, common.ErrUnavailable) ||
		errors.Is(err, common.ErrInvalidCredentials)
}
