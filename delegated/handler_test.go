package delegated_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/axent-pl/ssoauth/userpassword"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProvider answers every call with a fixed profile or error, optionally
// after a delay which honours ctx.
type fakeProvider struct {
	name    string
	profile *delegated.Profile
	err     error
	delay   time.Duration
	payload any
	web     common.WebContext
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Profile(ctx context.Context, web common.WebContext, payload any) (*delegated.Profile, error) {
	p.payload = payload
	p.web = web
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return p.profile, p.err
}

func aliceProfile() *delegated.Profile {
	p := delegated.NewProfile("provider", "alice", map[string][]string{
		"email":  {"alice@example.com"},
		"groups": {"dev", "ops"},
	})
	return &p
}

func newHandler(t *testing.T, cfg delegated.Config, providers ...delegated.Provider) handler.Handler {
	t.Helper()
	registry, err := delegated.NewRegistry(providers...)
	require.NoError(t, err)
	return delegated.NewHandler("delegated", registry, cfg)
}

func TestHandler_Supports(t *testing.T) {
	h := newHandler(t, delegated.Config{})

	assert.True(t, h.Supports(delegated.NewClientCredentials("provider", nil)))
	assert.True(t, h.Supports(delegated.ClientCredentials{}))
	assert.False(t, h.Supports(userpassword.UserPasswordCredentials{Username: "alice"}))
	assert.False(t, h.Supports(nil))
}

func TestHandler_IdentityMode(t *testing.T) {
	tests := []struct {
		name string
		mode delegated.IdentityMode
		want common.SubjectID
	}{
		{name: "typed by default", mode: delegated.Typed, want: "provider:alice"},
		{name: "bare", mode: delegated.Bare, want: "alice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeProvider{name: "provider", profile: aliceProfile()}
			h := newHandler(t, delegated.Config{IdentityMode: tt.mode}, p)

			got, err := h.Authenticate(context.Background(), common.WebContext{}, delegated.NewClientCredentials("provider", "assertion"))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Principal.Subject)
			assert.Equal(t, []string{"dev", "ops"}, got.Principal.Attributes["groups"])
			assert.Equal(t, "assertion", p.payload)
		})
	}
}

func TestHandler_ZeroConfigIsTyped(t *testing.T) {
	p := &fakeProvider{name: "provider", profile: aliceProfile()}
	h := newHandler(t, delegated.Config{}, p)

	got, err := h.Authenticate(context.Background(), common.WebContext{}, delegated.NewClientCredentials("provider", nil))
	require.NoError(t, err)
	assert.Equal(t, common.SubjectID("provider:alice"), got.Principal.Subject)
}

func TestHandler_MetadataCarriesProfile(t *testing.T) {
	profile := aliceProfile()
	p := &fakeProvider{name: "provider", profile: profile}
	h := newHandler(t, delegated.Config{}, p)

	got, err := h.Authenticate(context.Background(), common.WebContext{}, delegated.NewClientCredentials("provider", "secret-assertion"))
	require.NoError(t, err)

	recorded, ok := got.Metadata.Credential.(delegated.ClientCredentials)
	require.True(t, ok)
	assert.Equal(t, common.Client, got.Metadata.Kind)
	assert.Equal(t, "provider", recorded.ProviderName)
	assert.Nil(t, recorded.Payload)
	require.NotNil(t, recorded.Profile)
	assert.Equal(t, *profile, *recorded.Profile)
}

func TestHandler_PassesWebContext(t *testing.T) {
	p := &fakeProvider{name: "provider", profile: aliceProfile()}
	h := newHandler(t, delegated.Config{}, p)
	web := common.WebContext{
		Request:  httptest.NewRequest(http.MethodGet, "/callback", nil),
		Response: httptest.NewRecorder(),
	}

	_, err := h.Authenticate(context.Background(), web, delegated.NewClientCredentials("provider", nil))
	require.NoError(t, err)
	assert.Same(t, web.Request, p.web.Request)
}

func TestHandler_BlankIdentifiers(t *testing.T) {
	whitespace := delegated.NewProfile("ns", "  ", nil)
	profiles := map[string]*delegated.Profile{
		"literal":          {ID: " ", TypedID: ""},
		"namespaced blank": &whitespace,
	}
	for name, profile := range profiles {
		for _, mode := range []delegated.IdentityMode{delegated.Typed, delegated.Bare} {
			t.Run(name+"/"+mode.String(), func(t *testing.T) {
				p := &fakeProvider{name: "provider", profile: profile}
				h := newHandler(t, delegated.Config{IdentityMode: mode}, p)

				_, err := h.Authenticate(context.Background(), common.WebContext{}, delegated.NewClientCredentials("provider", nil))
				require.Error(t, err)
				assert.True(t, handler.IsFailure(err, handler.Rejected), "got %v", err)
			})
		}
	}
}

func TestHandler_Failures(t *testing.T) {
	tests := []struct {
		name     string
		provider *fakeProvider
		in       delegated.ClientCredentials
		timeout  time.Duration
		wantKind handler.FailureKind
	}{
		{
			name:     "unknown provider is unavailable",
			provider: &fakeProvider{name: "provider", profile: aliceProfile()},
			in:       delegated.NewClientCredentials("other", nil),
			wantKind: handler.Unavailable,
		},
		{
			name:     "missing provider name is malformed",
			provider: &fakeProvider{name: "provider", profile: aliceProfile()},
			in:       delegated.NewClientCredentials("  ", nil),
			wantKind: handler.Malformed,
		},
		{
			name:     "provider timeout is unavailable",
			provider: &fakeProvider{name: "provider", profile: aliceProfile(), delay: time.Second},
			in:       delegated.NewClientCredentials("provider", nil),
			timeout:  20 * time.Millisecond,
			wantKind: handler.Unavailable,
		},
		{
			name:     "provider transient error is unavailable",
			provider: &fakeProvider{name: "provider", err: fmt.Errorf("%w: idp down", common.ErrUnavailable)},
			in:       delegated.NewClientCredentials("provider", nil),
			wantKind: handler.Unavailable,
		},
		{
			name:     "provider malformed assertion",
			provider: &fakeProvider{name: "provider", err: fmt.Errorf("%w: not xml", common.ErrInvalidInput)},
			in:       delegated.NewClientCredentials("provider", nil),
			wantKind: handler.Malformed,
		},
		{
			name:     "provider negative answer is rejected",
			provider: &fakeProvider{name: "provider", err: errors.New("expired assertion")},
			in:       delegated.NewClientCredentials("provider", nil),
			wantKind: handler.Rejected,
		},
		{
			name:     "no profile is rejected",
			provider: &fakeProvider{name: "provider"},
			in:       delegated.NewClientCredentials("provider", nil),
			wantKind: handler.Rejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(t, delegated.Config{Timeout: tt.timeout}, tt.provider)

			_, err := h.Authenticate(context.Background(), common.WebContext{}, tt.in)
			require.Error(t, err)
			assert.True(t, handler.IsFailure(err, tt.wantKind), "got %v", err)
		})
	}
}

func TestHandler_CallerCancellation(t *testing.T) {
	p := &fakeProvider{name: "provider", profile: aliceProfile(), delay: time.Second}
	h := newHandler(t, delegated.Config{}, p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := h.Authenticate(ctx, common.WebContext{}, delegated.NewClientCredentials("provider", nil))
	require.Error(t, err)
	assert.True(t, handler.IsFailure(err, handler.Unavailable))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestHandler_InChain(t *testing.T) {
	flaky := &fakeProvider{name: "flaky", err: fmt.Errorf("%w: idp down", common.ErrUnavailable)}
	healthy := &fakeProvider{name: "flaky", profile: aliceProfile()}

	first, err := delegated.NewRegistry(flaky)
	require.NoError(t, err)
	second, err := delegated.NewRegistry(healthy)
	require.NoError(t, err)

	chain, err := handler.NewChain(handler.Permissive,
		delegated.NewHandler("primary", first, delegated.Config{}),
		delegated.NewHandler("secondary", second, delegated.Config{IdentityMode: delegated.Bare}),
	)
	require.NoError(t, err)

	got, err := chain.Resolve(context.Background(), common.WebContext{}, delegated.NewClientCredentials("flaky", nil))
	require.NoError(t, err)
	assert.Equal(t, "secondary", got.Handler)
	assert.Equal(t, common.SubjectID("alice"), got.Principal.Subject)
}

func TestNewRegistry(t *testing.T) {
	r, err := delegated.NewRegistry(&fakeProvider{name: "b"}, &fakeProvider{name: "a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, r.Names())
	_, ok := r.Lookup("a")
	assert.True(t, ok)

	_, err = delegated.NewRegistry(&fakeProvider{name: "a"}, &fakeProvider{name: "a"})
	assert.Error(t, err)
	_, err = delegated.NewRegistry(&fakeProvider{})
	assert.Error(t, err)

	var nilRegistry *delegated.Registry
	_, ok = nilRegistry.Lookup("a")
	assert.False(t, ok)
}

func TestParseIdentityMode(t *testing.T) {
	m, err := delegated.ParseIdentityMode("")
	require.NoError(t, err)
	assert.Equal(t, delegated.Typed, m)

	m, err = delegated.ParseIdentityMode("BARE")
	require.NoError(t, err)
	assert.Equal(t, delegated.Bare, m)

	_, err = delegated.ParseIdentityMode("qualified")
	assert.Error(t, err)
}
