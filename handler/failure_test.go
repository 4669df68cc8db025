package handler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/stretchr/testify/assert"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want handler.FailureKind
	}{
		{name: "invalid credentials", err: common.ErrInvalidCredentials, want: handler.Rejected},
		{name: "invalid input", err: fmt.Errorf("%w: x", common.ErrInvalidInput), want: handler.Malformed},
		{name: "unavailable", err: fmt.Errorf("%w: x", common.ErrUnavailable), want: handler.Unavailable},
		{name: "deadline", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: handler.Unavailable},
		{name: "canceled", err: context.Canceled, want: handler.Unavailable},
		{name: "net timeout", err: timeoutError{}, want: handler.Unavailable},
		{name: "unsupported", err: common.ErrUnsupportedCredentials, want: handler.Unsupported},
		{name: "unknown", err: errors.New("boom"), want: handler.Rejected},
		{name: "failure", err: &handler.Failure{Kind: handler.Malformed}, want: handler.Malformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, handler.KindOf(tt.err))
		})
	}
}

func TestFailure_Is(t *testing.T) {
	cause := errors.New("connection refused")
	f := handler.NewFailure("ldap", fmt.Errorf("%w: %w", common.ErrUnavailable, cause))

	assert.True(t, errors.Is(f, common.ErrUnavailable))
	assert.True(t, errors.Is(f, cause))
	assert.False(t, errors.Is(f, common.ErrInvalidCredentials))
	assert.Equal(t, "ldap", f.Handler)
	assert.Contains(t, f.Error(), "handler ldap: unavailable")
	assert.NotContains(t, f.Description(), "connection refused")
}

func TestNewFailure_KeepsExisting(t *testing.T) {
	inner := &handler.Failure{Kind: handler.Malformed, Err: common.ErrInvalidInput}
	f := handler.NewFailure("outer", fmt.Errorf("wrapped: %w", inner))
	assert.Equal(t, handler.Malformed, f.Kind)
	assert.Equal(t, "outer", f.Handler)
}
