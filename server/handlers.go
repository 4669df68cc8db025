package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/axent-pl/ssoauth/common"
	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/delegated"
	"github.com/axent-pl/ssoauth/handler"
	"github.com/axent-pl/ssoauth/samlview"
)

// TargetParameter names the service a SAML 1.0 validation response is
// addressed to.
const TargetParameter = "TARGET"

type authServer struct {
	chain     *handler.Chain
	providers *delegated.Registry
	renderer  *samlview.FailureRenderer
	issuer    string
}

type authenticateResponse struct {
	RequestID  string              `json:"request_id"`
	Handler    string              `json:"handler"`
	Kind       common.Kind         `json:"kind"`
	Provider   string              `json:"provider,omitempty"`
	Subject    common.SubjectID    `json:"subject"`
	Attributes map[string][]string `json:"attributes,omitempty"`
}

func (s *authServer) resolve(w http.ResponseWriter, r *http.Request) (common.Credentials, handler.Result, error) {
	in, err := CredentialsFromRequest(r, s.providers)
	if err != nil {
		return nil, handler.Result{}, err
	}
	res, err := s.chain.Resolve(r.Context(), common.WebContext{Request: r, Response: w}, in)
	return in, res, err
}

func (s *authServer) authenticate(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())
	_, res, err := s.resolve(w, r)
	if err != nil {
		logx.L().Info("authentication failed", "request_id", requestID, "failure", handler.KindOf(err).String(), "error", err)
		s.renderer.RenderFailure(w, err)
		return
	}

	resp := authenticateResponse{
		RequestID:  requestID,
		Handler:    res.Handler,
		Kind:       res.Metadata.Kind,
		Subject:    res.Principal.Subject,
		Attributes: res.Principal.Attributes,
	}
	if creds, ok := res.Metadata.Credential.(delegated.ClientCredentials); ok {
		resp.Provider = creds.ProviderName
	}
	logx.L().Info("authenticated", "request_id", requestID, "handler", res.Handler, "subject", res.Principal.Subject)
	writeJSON(w, http.StatusOK, resp)
}

func (s *authServer) samlValidate(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFrom(r.Context())
	target := r.URL.Query().Get(TargetParameter)
	renderer := s.renderer.WithPayload(samlview.SAML10FailurePayload{Recipient: target})
	if target == "" {
		renderer.RenderFailure(w, fmt.Errorf("%w: missing %s", common.ErrInvalidInput, TargetParameter))
		return
	}

	in, res, err := s.resolve(w, r)
	if err != nil {
		logx.L().Info("SAML validation failed", "request_id", requestID, "target", target, "failure", handler.KindOf(err).String(), "error", err)
		renderer.RenderFailure(w, err)
		return
	}

	payload, err := samlview.SAML10SuccessPayload{Issuer: s.issuer, Recipient: target}.Build(res.Principal, in.Kind())
	if err != nil {
		logx.L().Error("could not build SAML assertion", "request_id", requestID, "error", err)
		renderer.RenderFailure(w, err)
		return
	}
	logx.L().Info("SAML validation succeeded", "request_id", requestID, "target", target, "subject", res.Principal.Subject)
	renderer.Write(w, payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.L().Warn("could not write JSON response", "error", err)
	}
}
