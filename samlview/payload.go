package samlview

import (
	"encoding/xml"
	"time"

	"github.com/google/uuid"
)

// PayloadBuilder produces the content of the SOAP body for a failure.
type PayloadBuilder interface {
	BuildPayload(description string) ([]byte, error)
}

type PayloadFunc func(description string) ([]byte, error)

func (f PayloadFunc) BuildPayload(description string) ([]byte, error) { return f(description) }

// EmptyPayload leaves the SOAP body empty.
var EmptyPayload PayloadBuilder = PayloadFunc(func(string) ([]byte, error) { return nil, nil })

const (
	samlProtocolNS  = "urn:oasis:names:tc:SAML:1.0:protocol"
	samlAssertionNS = "urn:oasis:names:tc:SAML:1.0:assertion"
	// StatusResponder is the SAML 1.0 status code for failures on the responder side.
	StatusResponder = "samlp:Responder"
	StatusSuccess   = "samlp:Success"
)

const issueInstantLayout = "2006-01-02T15:04:05.000Z"

func defaultID() string { return "_" + uuid.NewString() }

// SAML10ResponseXML represents the SAML 1.0 <samlp:Response> element.
type SAML10ResponseXML struct {
	XMLName xml.Name `xml:"samlp:Response"`

	XmlnsSAMLP string `xml:"xmlns:samlp,attr"`
	XmlnsSAML  string `xml:"xmlns:saml,attr"`

	// ResponseID: Required.
	// Unique identifier of the response.
	ResponseID string `xml:"ResponseID,attr"`

	// IssueInstant: Required.
	// UTC time the response was created, in ISO8601 format.
	IssueInstant string `xml:"IssueInstant,attr"`

	MajorVersion string `xml:"MajorVersion,attr"`
	MinorVersion string `xml:"MinorVersion,attr"`

	// Recipient: Optional.
	// URI of the service the response is addressed to.
	Recipient string `xml:"Recipient,attr,omitempty"`

	Status SAML10StatusXML `xml:"samlp:Status"`

	// Assertion: Present on success only.
	Assertion *SAML10AssertionXML `xml:"saml:Assertion,omitempty"`
}

type SAML10StatusXML struct {
	StatusCode SAML10StatusCodeXML `xml:"samlp:StatusCode"`
	// StatusMessage: Optional.
	// Human-readable description of the failure.
	StatusMessage string `xml:"samlp:StatusMessage,omitempty"`
}

type SAML10StatusCodeXML struct {
	Value string `xml:"Value,attr"`
}

// SAML10FailurePayload builds a SAML 1.0 failure response. Zero value is
// ready to use.
type SAML10FailurePayload struct {
	Recipient string
	Now       func() time.Time
	NewID     func() string
}

func (p SAML10FailurePayload) BuildPayload(description string) ([]byte, error) {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	newID := defaultID
	if p.NewID != nil {
		newID = p.NewID
	}

	resp := SAML10ResponseXML{
		XmlnsSAMLP:   samlProtocolNS,
		XmlnsSAML:    samlAssertionNS,
		ResponseID:   newID(),
		IssueInstant: now().UTC().Format(issueInstantLayout),
		MajorVersion: "1",
		MinorVersion: "1",
		Recipient:    p.Recipient,
		Status: SAML10StatusXML{
			StatusCode:    SAML10StatusCodeXML{Value: StatusResponder},
			StatusMessage: description,
		},
	}
	return xml.Marshal(resp)
}
