package common

type Kind string

const (
	Password Kind = "password"
	JWT      Kind = "jwt"
	// Secret is the kind of service client id and secret pairs.
	Secret Kind = "client_secret"
	// Client is the kind of credentials verified by an external identity provider.
	Client Kind = "client"
)

// Credentials is the proof of an identity claim. Implementations are value
// types and must not be mutated after construction.
type Credentials interface {
	Kind() Kind
}

// Redactor is implemented by credentials carrying secrets. Redacted returns a
// copy safe to keep for audit.
type Redactor interface {
	Redacted() Credentials
}

// Redact returns the audit-safe form of in. Credentials which do not
// implement Redactor are returned as they are.
func Redact(in Credentials) Credentials {
	if r, ok := in.(Redactor); ok {
		return r.Redacted()
	}
	return in
}
