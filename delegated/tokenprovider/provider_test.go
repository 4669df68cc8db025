package tokenprovider_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/delegated/tokenprovider"
	"github.com/axent-pl/ssoauth/handler"
	jwtx "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "0123456789abcdef0123456789abcdef"

func idToken(t *testing.T, claims jwtx.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = time.Now().Add(time.Minute).Unix()
	}
	signed, err := jwtx.NewWithClaims(jwtx.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestProvider_Profile(t *testing.T) {
	p, err := tokenprovider.New("google", tokenprovider.Options{
		Namespace:  "Google",
		Issuer:     "https://accounts.example.com",
		Audience:   "sso",
		HMACSecret: secret,
		Attributes: []string{"email", "groups"},
	})
	require.NoError(t, err)

	token := idToken(t, jwtx.MapClaims{
		"iss":    "https://accounts.example.com",
		"aud":    "sso",
		"sub":    "alice",
		"email":  "alice@example.com",
		"groups": []any{"dev", "ops"},
		"hidden": "not copied",
	})

	got, err := p.Profile(context.Background(), common.WebContext{}, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ID)
	assert.Equal(t, "Google:alice", got.TypedID)
	assert.Equal(t, map[string][]string{
		"email":  {"alice@example.com"},
		"groups": {"dev", "ops"},
	}, got.Attributes)

	fromForm, err := p.Profile(context.Background(), common.WebContext{}, url.Values{"id_token": {token}})
	require.NoError(t, err)
	assert.Equal(t, got.TypedID, fromForm.TypedID)
}

func TestProvider_Profile_Errors(t *testing.T) {
	p, err := tokenprovider.New("idp", tokenprovider.Options{HMACSecret: secret, Audience: "sso"})
	require.NoError(t, err)

	tests := []struct {
		name    string
		payload any
		wantErr error
	}{
		{name: "wrong payload type", payload: 42, wantErr: common.ErrInvalidInput},
		{name: "garbage token", payload: "garbage", wantErr: common.ErrInvalidInput},
		{name: "wrong audience", payload: idToken(t, jwtx.MapClaims{"sub": "alice", "aud": "other"}), wantErr: common.ErrInvalidCredentials},
		{name: "expired", payload: idToken(t, jwtx.MapClaims{"sub": "alice", "aud": "sso", "exp": time.Now().Add(-time.Hour).Unix()}), wantErr: common.ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Profile(context.Background(), common.WebContext{}, tt.payload)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestProvider_Replay(t *testing.T) {
	p, err := tokenprovider.New("idp", tokenprovider.Options{HMACSecret: secret, ReplayCacheSize: 8})
	require.NoError(t, err)
	token := idToken(t, jwtx.MapClaims{"sub": "alice", "jti": "t-1"})

	_, err = p.Profile(context.Background(), common.WebContext{}, token)
	require.NoError(t, err)
	_, err = p.Profile(context.Background(), common.WebContext{}, token)
	assert.ErrorIs(t, err, common.ErrInvalidCredentials)
}

func TestProvider_NumericIDClaim(t *testing.T) {
	p, err := tokenprovider.New("idp", tokenprovider.Options{HMACSecret: secret, IDClaim: "uid"})
	require.NoError(t, err)
	token := idToken(t, jwtx.MapClaims{"sub": "alice", "uid": 1001})

	got, err := p.Profile(context.Background(), common.WebContext{}, token)
	require.NoError(t, err)
	assert.Equal(t, "1001", got.ID)
	assert.Equal(t, "idp:1001", got.TypedID)
}

func TestProvider_PublicKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemKey := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})

	p, err := tokenprovider.New("idp", tokenprovider.Options{PublicKeyPEM: string(pemKey), IDClaim: "preferred_username"})
	require.NoError(t, err)

	token, err := jwtx.NewWithClaims(jwtx.SigningMethodRS256, jwtx.MapClaims{
		"sub":                "0f1e",
		"preferred_username": "alice",
		"exp":                time.Now().Add(time.Minute).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	got, err := p.Profile(context.Background(), common.WebContext{}, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.ID)
	assert.Equal(t, "idp:alice", got.TypedID)
}

func TestNew_InvalidOptions(t *testing.T) {
	_, err := tokenprovider.New("idp", tokenprovider.Options{})
	assert.Error(t, err)

	_, err = tokenprovider.New("idp", tokenprovider.Options{HMACSecret: secret, PublicKeyPEM: "x"})
	assert.Error(t, err)

	_, err = tokenprovider.New("idp", tokenprovider.Options{PublicKeyPEM: "not pem"})
	assert.Error(t, err)

	_, err = tokenprovider.New("", tokenprovider.Options{HMACSecret: secret})
	assert.Error(t, err)

	_, err = tokenprovider.New("idp", tokenprovider.Options{HMACSecret: secret, JWKSURL: "https://idp.example.com/jwks"})
	assert.Error(t, err)

	_, err = tokenprovider.New("idp", tokenprovider.Options{JWKSURL: "jwks.json"})
	assert.Error(t, err)
}

func TestProvider_JWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	var down atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if down.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"keys": []map[string]string{{
			"kty": "RSA", "alg": "RS256", "kid": "k1",
			"n": base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			"e": base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	token, err := jwtx.NewWithClaims(jwtx.SigningMethodRS256, jwtx.MapClaims{
		"sub": "alice",
		"aud": "sso",
		"exp": time.Now().Add(time.Minute).Unix(),
	}).SignedString(key)
	require.NoError(t, err)

	down.Store(true)
	cold, err := tokenprovider.New("idp", tokenprovider.Options{JWKSURL: srv.URL, Audience: "sso"})
	require.NoError(t, err)
	_, err = cold.Profile(context.Background(), common.WebContext{}, token)
	assert.ErrorIs(t, err, common.ErrUnavailable)

	down.Store(false)
	p, err := tokenprovider.New("idp", tokenprovider.Options{JWKSURL: srv.URL, Audience: "sso"})
	require.NoError(t, err)
	got, err := p.Profile(context.Background(), common.WebContext{}, token)
	require.NoError(t, err)
	assert.Equal(t, "idp:alice", got.TypedID)
}

func TestProvider_WithDelegatedHandler(t *testing.T) {
	p, err := tokenprovider.New("idp", tokenprovider.Options{HMACSecret: secret})
	require.NoError(t, err)
	registry, err := delegated.NewRegistry(p)
	require.NoError(t, err)
	h := delegated.NewHandler("delegated", registry, delegated.Config{IdentityMode: delegated.Bare})

	got, err := h.Authenticate(context.Background(), common.WebContext{}, delegated.NewClientCredentials("idp", idToken(t, jwtx.MapClaims{"sub": "alice", "email": "a@example.com"})))
	require.NoError(t, err)
	assert.Equal(t, common.SubjectID("alice"), got.Principal.Subject)
	assert.Equal(t, []string{"a@example.com"}, got.Principal.Attributes["email"])

	_, err = h.Authenticate(context.Background(), common.WebContext{}, delegated.NewClientCredentials("idp", "garbage"))
	assert.True(t, handler.IsFailure(err, handler.Malformed))
}
