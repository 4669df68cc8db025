package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"go.uber.org/multierr"
)

type DispatchMode int

const (
	// Strict lets the first supporting handler decide; every failure is terminal.
	Strict DispatchMode = iota
	// Permissive falls through to the next supporting handler when a handler
	// reports Unavailable.
	Permissive
)

func (m DispatchMode) String() string {
	if m == Permissive {
		return "permissive"
	}
	return "strict"
}

// ParseDispatchMode parses "strict" or "permissive". The empty string is Strict.
func ParseDispatchMode(s string) (DispatchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "permissive":
		return Permissive, nil
	}
	return Strict, fmt.Errorf("unknown dispatch mode %q", s)
}

// Chain routes credentials to the first registered handler supporting them.
// It is immutable and safe for concurrent use.
type Chain struct {
	mode     DispatchMode
	handlers []Handler
}

// NewChain copies handlers in their registration order. Order decides which
// handler owns credentials claimed by more than one of them.
func NewChain(mode DispatchMode, handlers ...Handler) (*Chain, error) {
	seen := make(map[string]struct{}, len(handlers))
	for i, h := range handlers {
		if h == nil {
			return nil, fmt.Errorf("handler #%d is nil", i)
		}
		name := h.Name()
		if name == "" {
			return nil, fmt.Errorf("handler #%d has no name", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("duplicate handler name %q", name)
		}
		seen[name] = struct{}{}
	}
	return &Chain{
		mode:     mode,
		handlers: append([]Handler(nil), handlers...),
	}, nil
}

func (c *Chain) Mode() DispatchMode { return c.mode }

// Handlers returns the handler names in registration order.
func (c *Chain) Handlers() []string {
	names := make([]string, len(c.handlers))
	for i, h := range c.handlers {
		names[i] = h.Name()
	}
	return names
}

// Resolve authenticates in with the first handler supporting it. The returned
// error is always a *Failure.
func (c *Chain) Resolve(ctx context.Context, web common.WebContext, in common.Credentials) (Result, error) {
	var (
		last     *Failure
		attempts error
		tried    int
	)
	for _, h := range c.handlers {
		if !h.Supports(in) {
			continue
		}
		if tried > 0 {
			if err := ctx.Err(); err != nil {
				last = &Failure{Kind: Unavailable, Err: fmt.Errorf("%w: %w", common.ErrUnavailable, err)}
				attempts = multierr.Append(attempts, last)
				break
			}
			logx.L().Debug("handler unavailable, trying next candidate", "failed", last.Handler, "next", h.Name())
		}
		tried++

		result, err := h.Authenticate(ctx, web, in)
		if err == nil {
			return result, nil
		}
		last = NewFailure(h.Name(), err)
		attempts = multierr.Append(attempts, last)
		if c.mode == Strict || last.Kind != Unavailable {
			break
		}
	}

	if tried == 0 {
		return Result{}, &Failure{
			Kind: Unsupported,
			Err:  fmt.Errorf("%w: no handler for %s credentials", common.ErrUnsupportedCredentials, kindOf(in)),
		}
	}
	if errs := multierr.Errors(attempts); len(errs) > 1 {
		logx.L().Debug("all candidate handlers failed", "kind", kindOf(in), "attempts", len(errs), "error", attempts)
	}
	return Result{}, last
}

// ValidateDisjoint reports every probe credential claimed by more than one
// handler. Probes are typically zero values of each supported credentials type.
func ValidateDisjoint(probes []common.Credentials, handlers []Handler) error {
	var errs error
	for _, probe := range probes {
		var owners []string
		for _, h := range handlers {
			if h.Supports(probe) {
				owners = append(owners, h.Name())
			}
		}
		if len(owners) > 1 {
			errs = multierr.Append(errs, fmt.Errorf("%s credentials claimed by handlers %s", kindOf(probe), strings.Join(owners, ", ")))
		}
	}
	return errs
}

// IsFailure reports whether err is a *Failure of the given kind.
func IsFailure(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

func kindOf(in common.Credentials) common.Kind {
	if in == nil {
		return "<nil>"
	}
	return in.Kind()
}
