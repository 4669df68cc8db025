// Package server exposes the handler chain over HTTP.
package server

import (
	"net/http"

	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/axent-pl/ssoauth/samlview"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// RouterOptions controls the construction of the router. Chain and Renderer
// are required.
type RouterOptions struct {
	Chain     *handler.Chain
	Providers *delegated.Registry
	Renderer  *samlview.FailureRenderer
	// Issuer is written into SAML assertions issued by /samlValidate.
	Issuer     string
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(opts RouterOptions) chi.Router {
	s := &authServer{
		chain:     opts.Chain,
		providers: opts.Providers,
		renderer:  opts.Renderer,
		issuer:    opts.Issuer,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	for _, mw := range opts.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/authenticate", s.authenticate)
	r.Post("/samlValidate", s.samlValidate)
	return r
}
