package handler

import (
	"context"
	"fmt"

	"github.com/axent-pl/ssoauth/common"
)

// NewVerifierHandler turns a kind specific Verifier and the lookup of its
// stored schemes into a Handler. Scheme lookup errors are reported as
// Unavailable unless already classified.
func NewVerifierHandler(name string, v common.Verifier, schemes common.SchemeProvider) *PrePostHandler {
	return &PrePostHandler{
		HandlerName: name,
		Kinds:       []common.Kind{v.Kind()},
		Do: func(ctx context.Context, web common.WebContext, in common.Credentials) (common.Principal, common.Credentials, error) {
			stored, err := schemes.Schemes(ctx, in)
			if err != nil {
				if !classified(err) {
					err = fmt.Errorf("%w: scheme lookup: %w", common.ErrUnavailable, err)
				}
				return common.Principal{}, nil, err
			}
			principal, err := v.VerifyAny(ctx, in, stored)
			return principal, nil, err
		},
	}
}
