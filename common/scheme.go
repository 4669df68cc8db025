package common

import (
	"context"
)

// Scheme is a stored credential definition a Verifier checks input against.
type Scheme interface {
	Kind() Kind
}

type Verifier interface {
	Kind() Kind
	VerifyAny(ctx context.Context, in Credentials, stored []Scheme) (Principal, error)
}

// SchemeProvider looks up the stored schemes relevant for the given input.
type SchemeProvider interface {
	Schemes(ctx context.Context, in Credentials) ([]Scheme, error)
}

// StaticSchemes is a SchemeProvider serving a fixed list of schemes.
type StaticSchemes []Scheme

func (s StaticSchemes) Schemes(ctx context.Context, in Credentials) ([]Scheme, error) {
	return s, nil
}
