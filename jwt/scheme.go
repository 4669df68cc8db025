package jwt

import (
	"time"

	"github.com/axent-pl/ssoauth/common"
)

// VerificationKey is a key used to validate token signatures. Key is a
// crypto.PublicKey for asymmetric algorithms or a []byte for HMAC.
type VerificationKey struct {
	Kid string
	Key any
	// Alg is the JWS algorithm name, e.g. "RS256". Empty accepts any
	// algorithm matching the key type.
	Alg string
}

type JWTScheme struct {
	Subject      common.SubjectID
	MustMatchKid bool
	Keys         []VerificationKey
	Issuer       string
	Audience     string
	// Leeway for "exp" and "nbf" claims
	// See
	//
	// - https://datatracker.ietf.org/doc/html/rfc7519#section-4.1.4
	//
	// - https://datatracker.ietf.org/doc/html/rfc7519#section-4.1.5
	Leeway time.Duration
	Replay ReplayChecker
}

func (JWTScheme) Kind() common.Kind { return common.JWT }

var _ common.Scheme = JWTScheme{}
