package jwt

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
)

const DefaultJWKSRefresh = 15 * time.Minute

// JWKSProvider is a SchemeProvider serving the keys published at a JWKS
// endpoint. Keys are fetched on demand and kept for RefreshInterval; a failed
// refresh keeps serving the previous keys.
type JWKSProvider struct {
	JWKSURL         url.URL
	Client          *http.Client  // optional; defaults to http.DefaultClient
	RefreshInterval time.Duration // <= 0 means DefaultJWKSRefresh
	// Template supplies everything but the keys of the served scheme.
	Template JWTScheme

	fetchMu   sync.Mutex
	mu        sync.RWMutex
	cached    []common.Scheme
	etag      string
	lastMod   string
	lastFetch time.Time
}

var _ common.SchemeProvider = &JWKSProvider{}

func NewJWKSProvider(rawURL string, template JWTScheme) (*JWKSProvider, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid jwks url %q", rawURL)
	}
	return &JWKSProvider{JWKSURL: *u, Template: template}, nil
}

type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

type jwkKey struct {
	Use string `json:"use,omitempty"`
	Kty string `json:"kty,omitempty"`
	Kid string `json:"kid,omitempty"`
	Crv string `json:"crv,omitempty"`
	Alg string `json:"alg,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

func b64uToBigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("empty base64url")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}

func jwkToPublicKey(k jwkKey) (crypto.PublicKey, error) {
	switch strings.ToUpper(k.Kty) {
	case "RSA":
		n, err := b64uToBigInt(k.N)
		if err != nil {
			return nil, fmt.Errorf("rsa n: %w", err)
		}
		eBig, err := b64uToBigInt(k.E)
		if err != nil {
			return nil, fmt.Errorf("rsa e: %w", err)
		}
		if !eBig.IsInt64() || eBig.Int64() > int64(^uint32(0)>>1) {
			return nil, errors.New("rsa exponent too large")
		}
		return &rsa.PublicKey{N: n, E: int(eBig.Int64())}, nil

	case "EC":
		var curve elliptic.Curve
		switch k.Crv {
		case "P-256":
			curve = elliptic.P256()
		case "P-384":
			curve = elliptic.P384()
		case "P-521":
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported EC curve: %q", k.Crv)
		}
		x, err := b64uToBigInt(k.X)
		if err != nil {
			return nil, fmt.Errorf("ec x: %w", err)
		}
		y, err := b64uToBigInt(k.Y)
		if err != nil {
			return nil, fmt.Errorf("ec y: %w", err)
		}
		return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
	}
	return nil, fmt.Errorf("unsupported kty: %q", k.Kty)
}

func (p *JWKSProvider) Schemes(ctx context.Context, in common.Credentials) ([]common.Scheme, error) {
	if cached, fresh := p.snapshot(); fresh {
		return cached, nil
	}

	p.fetchMu.Lock()
	defer p.fetchMu.Unlock()
	if cached, fresh := p.snapshot(); fresh {
		return cached, nil
	}
	if err := p.refresh(ctx); err != nil {
		if cached, _ := p.snapshot(); len(cached) > 0 {
			logx.L().Warn("serving stale JWKS", "url", p.JWKSURL.String(), "error", err)
			return cached, nil
		}
		return nil, err
	}
	cached, _ := p.snapshot()
	return cached, nil
}

func (p *JWKSProvider) snapshot() ([]common.Scheme, bool) {
	interval := p.RefreshInterval
	if interval <= 0 {
		interval = DefaultJWKSRefresh
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]common.Scheme, len(p.cached))
	copy(out, p.cached)
	return out, len(out) > 0 && time.Since(p.lastFetch) < interval
}

// refresh fetches the JWKS with conditional headers and replaces the cache
// when it changed.
func (p *JWKSProvider) refresh(ctx context.Context) error {
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.JWKSURL.String(), nil)
	if err != nil {
		return fmt.Errorf("jwks request build failed: %w", err)
	}
	p.mu.RLock()
	if p.etag != "" {
		req.Header.Set("If-None-Match", p.etag)
	}
	if p.lastMod != "" {
		req.Header.Set("If-Modified-Since", p.lastMod)
	}
	p.mu.RUnlock()

	resp, err := client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: jwks fetch failed: %v", common.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		p.mu.Lock()
		p.lastFetch = time.Now()
		p.mu.Unlock()
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: jwks fetch failed: unexpected status %s", common.ErrUnavailable, resp.Status)
	}

	var doc jwksResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("%w: jwks decode failed: %v", common.ErrUnavailable, err)
	}

	keys := make([]VerificationKey, 0, len(doc.Keys))
	allHaveKID := true
	for _, jk := range doc.Keys {
		if jk.Use != "" && jk.Use != "sig" {
			continue
		}
		pub, err := jwkToPublicKey(jk)
		if err != nil {
			logx.L().Debug("skipping JWK", "kid", jk.Kid, "error", err)
			continue
		}
		if jk.Kid == "" {
			allHaveKID = false
		}
		keys = append(keys, VerificationKey{Kid: jk.Kid, Key: pub, Alg: jk.Alg})
	}
	if len(keys) == 0 {
		return fmt.Errorf("%w: no usable keys in jwks", common.ErrUnavailable)
	}

	scheme := p.Template
	scheme.Keys = keys
	// require kid only if all keys provide it and there are multiple keys
	scheme.MustMatchKid = allHaveKID && len(keys) > 1

	p.mu.Lock()
	p.cached = []common.Scheme{scheme}
	p.lastFetch = time.Now()
	if etag := resp.Header.Get("ETag"); etag != "" {
		p.etag = etag
	}
	if lastMod := resp.Header.Get("Last-Modified"); lastMod != "" {
		p.lastMod = lastMod
	}
	p.mu.Unlock()
	return nil
}
