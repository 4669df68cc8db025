package handler

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
)

// AuthenticateFunc performs the core verification. It returns the principal
// and the credentials to record in the result metadata; a nil recorded value
// means the input itself.
type AuthenticateFunc func(ctx context.Context, web common.WebContext, in common.Credentials) (common.Principal, common.Credentials, error)

// PrePostHandler is a Handler built from a core AuthenticateFunc surrounded by
// optional pre and post processing hooks.
type PrePostHandler struct {
	HandlerName string
	Kinds       []common.Kind
	// Accept optionally narrows Supports beyond the kind check. It must be pure.
	Accept func(in common.Credentials) bool

	Pre  func(ctx context.Context, in common.Credentials) error
	Do   AuthenticateFunc
	Post func(ctx context.Context, result Result) error
}

var _ Handler = &PrePostHandler{}

func (h *PrePostHandler) Name() string { return h.HandlerName }

func (h *PrePostHandler) Supports(in common.Credentials) bool {
	if in == nil || !slices.Contains(h.Kinds, in.Kind()) {
		return false
	}
	return h.Accept == nil || h.Accept(in)
}

func (h *PrePostHandler) Authenticate(ctx context.Context, web common.WebContext, in common.Credentials) (Result, error) {
	if !h.Supports(in) {
		panic(fmt.Errorf("%w: handler %q, credentials %T", ErrHandlerMisuse, h.HandlerName, in))
	}
	if h.Pre != nil {
		if err := h.Pre(ctx, in); err != nil {
			return Result{}, h.fail(in, err)
		}
	}

	principal, recorded, err := h.Do(ctx, web, in)
	if err != nil {
		return Result{}, h.fail(in, err)
	}
	if strings.TrimSpace(string(principal.Subject)) == "" {
		return Result{}, h.fail(in, fmt.Errorf("%w: empty subject", common.ErrInvalidCredentials))
	}
	if recorded == nil {
		recorded = in
	}
	result := Result{
		Handler:   h.HandlerName,
		Metadata:  NewCredentialMetaData(recorded),
		Principal: principal,
	}

	if h.Post != nil {
		if err := h.Post(ctx, result); err != nil {
			return Result{}, h.fail(in, err)
		}
	}
	logx.L().Debug("authentication succeeded", "handler", h.HandlerName, "kind", in.Kind(), "subject", principal.Subject)
	return result, nil
}

func (h *PrePostHandler) fail(in common.Credentials, err error) *Failure {
	f := NewFailure(h.HandlerName, err)
	logx.L().Debug("authentication failed", "handler", h.HandlerName, "kind", in.Kind(), "failure", f.Kind.String(), "error", err)
	return f
}
