package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/handler"
	jwtx "github.com/golang-jwt/jwt/v5"
)

type JWTVerifier struct{}

var _ common.Verifier = &JWTVerifier{}

func (v *JWTVerifier) Kind() common.Kind { return common.JWT }

func (v *JWTVerifier) VerifyAny(ctx context.Context, in common.Credentials, schemes []common.Scheme) (common.Principal, error) {
	claims, err := v.Claims(ctx, in, schemes)
	if err != nil {
		return common.Principal{}, err
	}
	subject, _ := claims.GetSubject()
	return common.NewPrincipal(subject, nil)
}

// Claims validates the token against the schemes and returns the claims of
// the first scheme and key accepting it.
func (v *JWTVerifier) Claims(ctx context.Context, in common.Credentials, schemes []common.Scheme) (jwtx.MapClaims, error) {
	jwtInput, ok := in.(JWTCredentials)
	if !ok {
		logx.L().Debug("could not cast Credentials to JWTCredentials")
		return nil, common.ErrInvalidInput
	}
	if jwtInput.Token == "" {
		logx.L().Debug("empty token")
		return nil, common.ErrInvalidInput
	}

	headerKid, tokenHasKid, headerAlg, err := v.parseJWTHeader(jwtInput.Token)
	if err != nil {
		logx.L().Debug("could not parse token header", "error", err)
		return nil, fmt.Errorf("%w: could not parse token header", common.ErrInvalidInput)
	}

	for _, s := range schemes {
		conf, ok := s.(JWTScheme)
		// not a JWTScheme or no keys in JWTScheme
		if !ok || len(conf.Keys) == 0 {
			continue
		}
		// scheme requires "kid" which is not present
		if conf.MustMatchKid && !tokenHasKid {
			continue
		}

		// Verify with the key(s)
		for _, keyConfig := range conf.Keys {
			if conf.MustMatchKid && headerKid != keyConfig.Kid {
				continue
			}
			if keyConfig.Alg != "" && keyConfig.Alg != headerAlg {
				continue
			}
			opts := v.buildParserOptions(conf, keyConfig)
			claims, err := parseJWT(jwtInput.Token, keyConfig.Key, opts)
			if err != nil {
				continue
			}
			if sub, _ := claims.GetSubject(); sub == "" {
				continue
			}
			if conf.Replay != nil && v.replayed(ctx, conf.Replay, claims) {
				logx.L().Debug("token replay detected")
				return nil, fmt.Errorf("%w: token replay", common.ErrInvalidCredentials)
			}
			return claims, nil
		}
	}

	return nil, common.ErrInvalidCredentials
}

func (v *JWTVerifier) replayed(ctx context.Context, replay ReplayChecker, claims jwtx.MapClaims) bool {
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return false
	}
	expiresAt := time.Now().Add(time.Hour)
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		expiresAt = exp.Time
	}
	return replay.Seen(ctx, jti, expiresAt)
}

// Build parser options
func (v *JWTVerifier) buildParserOptions(scheme JWTScheme, keyConf VerificationKey) []jwtx.ParserOption {
	var opts []jwtx.ParserOption
	if scheme.Subject != "" {
		opts = append(opts, jwtx.WithSubject(string(scheme.Subject)))
	}
	if scheme.Leeway > 0 {
		opts = append(opts, jwtx.WithLeeway(scheme.Leeway))
	}
	if scheme.Issuer != "" {
		opts = append(opts, jwtx.WithIssuer(scheme.Issuer))
	}
	if scheme.Audience != "" {
		opts = append(opts, jwtx.WithAudience(scheme.Audience))
	}
	if keyConf.Alg != "" {
		opts = append(opts, jwtx.WithValidMethods([]string{keyConf.Alg}))
	}
	return opts
}

func (v *JWTVerifier) parseJWTHeader(token string) (kid string, hasKid bool, alg string, err error) {
	parser := jwtx.NewParser()
	unverifiedToken, _, err := parser.ParseUnverified(token, jwtx.MapClaims{})
	if err != nil || unverifiedToken == nil {
		return "", false, "", err
	}
	if k, ok := unverifiedToken.Header["kid"].(string); ok && k != "" {
		kid, hasKid = k, true
	}
	if a, ok := unverifiedToken.Header["alg"].(string); ok && a != "" {
		alg = a
	}
	return kid, hasKid, alg, nil
}

func parseJWT(token string, key any, opts []jwtx.ParserOption) (jwtx.MapClaims, error) {
	// verify and parse token with given key and options
	claims := jwtx.MapClaims{}
	jwtToken, err := jwtx.ParseWithClaims(
		token,
		claims,
		func(t *jwtx.Token) (interface{}, error) {
			return key, nil
		},
		opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("could not parse token: %w", err)
	}
	if jwtToken == nil {
		return nil, errors.New("token is empty")
	}
	if !jwtToken.Valid {
		return nil, errors.New("token is invalid")
	}
	return claims, nil
}

// NewHandler returns a handler verifying bearer tokens against schemes.
func NewHandler(name string, schemes common.SchemeProvider) handler.Handler {
	return handler.NewVerifierHandler(name, &JWTVerifier{}, schemes)
}
