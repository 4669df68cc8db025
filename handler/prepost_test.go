package handler_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type secretCredentials struct {
	User   string
	Secret string
}

func (secretCredentials) Kind() common.Kind { return "secret" }

func (c secretCredentials) Redacted() common.Credentials {
	return secretCredentials{User: c.User}
}

func newSecretHandler(do handler.AuthenticateFunc) *handler.PrePostHandler {
	return &handler.PrePostHandler{
		HandlerName: "secret",
		Kinds:       []common.Kind{"secret"},
		Do:          do,
	}
}

func acceptAll(ctx context.Context, web common.WebContext, in common.Credentials) (common.Principal, common.Credentials, error) {
	c := in.(secretCredentials)
	p, err := common.NewPrincipal(c.User, nil)
	return p, nil, err
}

func TestPrePostHandler_Supports(t *testing.T) {
	h := newSecretHandler(acceptAll)
	in := secretCredentials{User: "alice"}

	for i := 0; i < 3; i++ {
		assert.True(t, h.Supports(in))
	}
	assert.False(t, h.Supports(tokenCredentials{}))
	assert.False(t, h.Supports(nil))

	h.Accept = func(in common.Credentials) bool { return in.(secretCredentials).User != "" }
	assert.False(t, h.Supports(secretCredentials{}))
	assert.True(t, h.Supports(in))
}

func TestPrePostHandler_Authenticate_RedactsMetadata(t *testing.T) {
	h := newSecretHandler(acceptAll)

	got, err := h.Authenticate(context.Background(), common.WebContext{}, secretCredentials{User: "alice", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "secret", got.Handler)
	assert.Equal(t, common.SubjectID("alice"), got.Principal.Subject)
	assert.Equal(t, common.Kind("secret"), got.Metadata.Kind)
	assert.Equal(t, secretCredentials{User: "alice"}, got.Metadata.Credential)
}

func TestPrePostHandler_Authenticate_MisusePanics(t *testing.T) {
	h := newSecretHandler(acceptAll)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, handler.ErrHandlerMisuse))
	}()
	_, _ = h.Authenticate(context.Background(), common.WebContext{}, tokenCredentials{})
	t.Fatal("Authenticate() did not panic")
}

func TestPrePostHandler_Authenticate_Hooks(t *testing.T) {
	var order []string
	h := newSecretHandler(func(ctx context.Context, web common.WebContext, in common.Credentials) (common.Principal, common.Credentials, error) {
		order = append(order, "do")
		return acceptAll(ctx, web, in)
	})
	h.Pre = func(ctx context.Context, in common.Credentials) error {
		order = append(order, "pre")
		return nil
	}
	h.Post = func(ctx context.Context, result handler.Result) error {
		order = append(order, "post")
		return nil
	}

	_, err := h.Authenticate(context.Background(), common.WebContext{}, secretCredentials{User: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pre", "do", "post"}, order)
}

func TestPrePostHandler_Authenticate_Failures(t *testing.T) {
	tests := []struct {
		name     string
		pre      error
		do       error
		post     error
		user     string
		wantKind handler.FailureKind
	}{
		{name: "pre aborts", pre: fmt.Errorf("%w: locked", common.ErrUnavailable), user: "alice", wantKind: handler.Unavailable},
		{name: "verification rejected", do: common.ErrInvalidCredentials, user: "alice", wantKind: handler.Rejected},
		{name: "unclassified error is rejected", do: errors.New("boom"), user: "alice", wantKind: handler.Rejected},
		{name: "post vetoes", post: fmt.Errorf("%w: account expired", common.ErrInvalidCredentials), user: "alice", wantKind: handler.Rejected},
		{name: "empty subject", user: "", wantKind: handler.Rejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newSecretHandler(func(ctx context.Context, web common.WebContext, in common.Credentials) (common.Principal, common.Credentials, error) {
				if tt.do != nil {
					return common.Principal{}, nil, tt.do
				}
				return common.Principal{Subject: common.SubjectID(in.(secretCredentials).User)}, nil, nil
			})
			h.Pre = func(ctx context.Context, in common.Credentials) error { return tt.pre }
			h.Post = func(ctx context.Context, result handler.Result) error { return tt.post }

			_, err := h.Authenticate(context.Background(), common.WebContext{}, secretCredentials{User: tt.user})
			require.Error(t, err)
			assert.True(t, handler.IsFailure(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestVerifierHandler(t *testing.T) {
	v := &stubVerifier{}
	h := handler.NewVerifierHandler("stub", v, common.StaticSchemes{stubScheme{}})
	assert.Equal(t, "stub", h.Name())
	assert.True(t, h.Supports(tokenCredentials{}))

	got, err := h.Authenticate(context.Background(), common.WebContext{}, tokenCredentials{Token: "ok"})
	require.NoError(t, err)
	assert.Equal(t, common.SubjectID("ok"), got.Principal.Subject)
	assert.Equal(t, 1, v.stored)

	_, err = h.Authenticate(context.Background(), common.WebContext{}, tokenCredentials{Token: ""})
	assert.True(t, handler.IsFailure(err, handler.Rejected))
}

func TestVerifierHandler_SchemeLookupUnavailable(t *testing.T) {
	h := handler.NewVerifierHandler("stub", &stubVerifier{}, failingSchemes{})

	_, err := h.Authenticate(context.Background(), common.WebContext{}, tokenCredentials{Token: "ok"})
	require.Error(t, err)
	assert.True(t, handler.IsFailure(err, handler.Unavailable))
}

type stubScheme struct{}

func (stubScheme) Kind() common.Kind { return "token" }

type stubVerifier struct{ stored int }

func (*stubVerifier) Kind() common.Kind { return "token" }

func (v *stubVerifier) VerifyAny(ctx context.Context, in common.Credentials, stored []common.Scheme) (common.Principal, error) {
	v.stored = len(stored)
	tok := in.(tokenCredentials).Token
	if tok == "" {
		return common.Principal{}, common.ErrInvalidCredentials
	}
	return common.Principal{Subject: common.SubjectID(tok)}, nil
}

type failingSchemes struct{}

func (failingSchemes) Schemes(ctx context.Context, in common.Credentials) ([]common.Scheme, error) {
	return nil, errors.New("store down")
}
