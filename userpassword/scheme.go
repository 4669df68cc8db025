package userpassword

import (
	"context"
	"errors"
	"sync"

	"github.com/axent-pl/ssoauth/common"
	"golang.org/x/crypto/bcrypt"
)

type UserPasswordSchemer interface {
	common.Scheme
	GetUsername() string
	CompareUsernameAndPassword(username string, password string) error
	GetAttributes() map[string][]string
}

type DefaultUserPasswordScheme struct {
	Username     string
	PasswordHash []byte
	Attributes   map[string][]string
}

func (DefaultUserPasswordScheme) Kind() common.Kind                    { return common.Password }
func (s DefaultUserPasswordScheme) GetUsername() string                { return s.Username }
func (s DefaultUserPasswordScheme) GetAttributes() map[string][]string { return s.Attributes }
func (s DefaultUserPasswordScheme) CompareUsernameAndPassword(username string, password string) error {
	if s.Username != username {
		return errors.New("invalid username")
	}
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(password))
}

var _ UserPasswordSchemer = DefaultUserPasswordScheme{}

// Store is an in-memory SchemeProvider keyed by username. It is populated
// once and read concurrently afterwards.
type Store map[string]UserPasswordSchemer

func NewStore(schemes ...UserPasswordSchemer) Store {
	s := make(Store, len(schemes))
	for _, scheme := range schemes {
		s[scheme.GetUsername()] = scheme
	}
	return s
}

func (s Store) Schemes(ctx context.Context, in common.Credentials) ([]common.Scheme, error) {
	c, ok := in.(UserPasswordCredentials)
	if !ok {
		return nil, common.ErrInvalidInput
	}
	scheme, ok := s[c.Username]
	if !ok {
		return []common.Scheme{missingUserScheme{}}, nil
	}
	return []common.Scheme{scheme}, nil
}

var dummyHash = sync.OnceValue(func() []byte {
	hash, _ := bcrypt.GenerateFromPassword([]byte("ssoauth-missing-user"), bcrypt.DefaultCost)
	return hash
})

// missingUserScheme stands in for an unknown username. It always fails,
// but only after a full bcrypt comparison so lookups of unknown and known
// users take the same time.
type missingUserScheme struct{}

func (missingUserScheme) Kind() common.Kind                  { return common.Password }
func (missingUserScheme) GetUsername() string                { return "" }
func (missingUserScheme) GetAttributes() map[string][]string { return nil }
func (missingUserScheme) CompareUsernameAndPassword(_ string, password string) error {
	_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(password))
	return errors.New("unknown username")
}

var _ UserPasswordSchemer = missingUserScheme{}
