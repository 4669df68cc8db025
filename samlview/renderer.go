// Package samlview renders ticket validation responses for SAML 1.0 clients
// expecting a SOAP envelope.
package samlview

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/axent-pl/ssoauth/common/logx"
	"github.com/axent-pl/ssoauth/handler"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

const DefaultEncoding = "UTF-8"

const (
	envelopeOpen  = `<SOAP-ENV:Envelope xmlns:SOAP-ENV="http://schemas.xmlsoap.org/soap/envelope/"><SOAP-ENV:Header/><SOAP-ENV:Body>`
	envelopeClose = `</SOAP-ENV:Body></SOAP-ENV:Envelope>`
)

// FailureRenderer writes failure responses. It is immutable and safe for
// concurrent use.
type FailureRenderer struct {
	charset string
	enc     encoding.Encoding
	payload PayloadBuilder
}

// NewFailureRenderer validates charset against the IANA registry. An empty
// charset means DefaultEncoding and a nil payload means EmptyPayload.
func NewFailureRenderer(charset string, payload PayloadBuilder) (*FailureRenderer, error) {
	if charset == "" {
		charset = DefaultEncoding
	}
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", charset, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", charset)
	}
	if payload == nil {
		payload = EmptyPayload
	}
	return &FailureRenderer{charset: charset, enc: enc, payload: payload}, nil
}

func (r *FailureRenderer) Encoding() string { return r.charset }

func (r *FailureRenderer) ContentType() string { return "text/xml; charset=" + r.charset }

// WithPayload returns a copy of r building failure payloads with payload.
func (r *FailureRenderer) WithPayload(payload PayloadBuilder) *FailureRenderer {
	if payload == nil {
		payload = EmptyPayload
	}
	return &FailureRenderer{charset: r.charset, enc: r.enc, payload: payload}
}

// Render writes the envelope for description. The body is fully built before
// the headers are sent; a failing payload yields an envelope with an empty body.
func (r *FailureRenderer) Render(w http.ResponseWriter, description string) {
	r.write(w, r.Body(description))
}

// RenderFailure renders the client-facing description of err.
func (r *FailureRenderer) RenderFailure(w http.ResponseWriter, err error) {
	r.Render(w, Describe(err))
}

// Write writes a prebuilt UTF-8 payload wrapped in the envelope.
func (r *FailureRenderer) Write(w http.ResponseWriter, payload []byte) {
	if !utf8.Valid(payload) {
		logx.L().Warn("dropping payload that is not valid UTF-8")
		payload = nil
	}
	r.write(w, r.wrap(payload))
}

func (r *FailureRenderer) write(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", r.ContentType())
	if _, err := w.Write(body); err != nil {
		logx.L().Warn("could not write SOAP response", "error", err)
	}
}

// Body returns the encoded document Render would write.
func (r *FailureRenderer) Body(description string) []byte {
	payload, err := r.buildPayload(description)
	if err != nil {
		logx.L().Warn("could not build failure payload", "error", err)
		payload = nil
	}
	return r.wrap(payload)
}

func (r *FailureRenderer) wrap(payload []byte) []byte {
	body, err := r.encode(r.document(payload))
	if err != nil {
		logx.L().Warn("could not encode SOAP response", "encoding", r.charset, "error", err)
		body, err = r.encode(r.document(nil))
		if err != nil {
			return []byte(r.document(nil))
		}
	}
	return body
}

func (r *FailureRenderer) buildPayload(description string) (payload []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			payload, err = nil, fmt.Errorf("payload builder panicked: %v", p)
		}
	}()
	payload, err = r.payload.BuildPayload(description)
	if err == nil && !utf8.Valid(payload) {
		return nil, errors.New("payload is not valid UTF-8")
	}
	return payload, err
}

func (r *FailureRenderer) document(payload []byte) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="`)
	b.WriteString(r.charset)
	b.WriteString(`"?>`)
	b.WriteString(envelopeOpen)
	b.Write(payload)
	b.WriteString(envelopeClose)
	return b.String()
}

// encode converts doc to the configured charset. Runes the charset cannot
// represent become numeric character references.
func (r *FailureRenderer) encode(doc string) ([]byte, error) {
	var escaped bytes.Buffer
	probe := r.enc.NewEncoder()
	for _, c := range doc {
		if c < utf8.RuneSelf {
			escaped.WriteRune(c)
			continue
		}
		if _, err := probe.String(string(c)); err != nil {
			fmt.Fprintf(&escaped, "&#%d;", c)
			continue
		}
		escaped.WriteRune(c)
	}
	return r.enc.NewEncoder().Bytes(escaped.Bytes())
}

// Describe returns the client-facing description of an authentication error.
// Causes and internal details are never included.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var f *handler.Failure
	if errors.As(err, &f) {
		return f.Description()
	}
	return (&handler.Failure{Kind: handler.KindOf(err)}).Description()
}
