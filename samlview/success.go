package samlview

import (
	"encoding/xml"
	"errors"
	"sort"
	"time"

	"github.com/axent-pl/ssoauth/common"
)

const (
	// AuthMethodPassword is the SAML 1.0 authentication method for password logins.
	AuthMethodPassword = "urn:oasis:names:tc:SAML:1.0:am:password"
	// AuthMethodUnspecified is used for every other credential kind.
	AuthMethodUnspecified = "urn:oasis:names:tc:SAML:1.0:am:unspecified"

	attributeNamespace = "http://www.ja-sig.org/products/cas/"
	defaultValidity    = 30 * time.Second
)

type SAML10AssertionXML struct {
	AssertionID  string `xml:"AssertionID,attr"`
	IssueInstant string `xml:"IssueInstant,attr"`
	Issuer       string `xml:"Issuer,attr"`
	MajorVersion string `xml:"MajorVersion,attr"`
	MinorVersion string `xml:"MinorVersion,attr"`

	Conditions              SAML10ConditionsXML              `xml:"saml:Conditions"`
	AuthenticationStatement SAML10AuthenticationStatementXML `xml:"saml:AuthenticationStatement"`
	AttributeStatement      *SAML10AttributeStatementXML     `xml:"saml:AttributeStatement,omitempty"`
}

type SAML10ConditionsXML struct {
	NotBefore    string `xml:"NotBefore,attr"`
	NotOnOrAfter string `xml:"NotOnOrAfter,attr"`
	// Audience: Optional.
	Audience string `xml:"saml:AudienceRestrictionCondition>saml:Audience,omitempty"`
}

type SAML10SubjectXML struct {
	NameIdentifier     string `xml:"saml:NameIdentifier"`
	ConfirmationMethod string `xml:"saml:SubjectConfirmation>saml:ConfirmationMethod"`
}

type SAML10AuthenticationStatementXML struct {
	AuthenticationInstant string           `xml:"AuthenticationInstant,attr"`
	AuthenticationMethod  string           `xml:"AuthenticationMethod,attr"`
	Subject               SAML10SubjectXML `xml:"saml:Subject"`
}

type SAML10AttributeStatementXML struct {
	Subject    SAML10SubjectXML     `xml:"saml:Subject"`
	Attributes []SAML10AttributeXML `xml:"saml:Attribute"`
}

type SAML10AttributeXML struct {
	AttributeName      string   `xml:"AttributeName,attr"`
	AttributeNamespace string   `xml:"AttributeNamespace,attr"`
	Values             []string `xml:"saml:AttributeValue"`
}

// SAML10SuccessPayload builds a SAML 1.0 response asserting an authenticated
// principal.
type SAML10SuccessPayload struct {
	Issuer    string
	Recipient string
	// Validity bounds the assertion conditions. Defaults to 30 seconds.
	Validity time.Duration
	Now      func() time.Time
	NewID    func() string
}

func (p SAML10SuccessPayload) Build(principal common.Principal, kind common.Kind) ([]byte, error) {
	if principal.Subject == "" {
		return nil, errors.New("principal has no subject")
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	newID := defaultID
	if p.NewID != nil {
		newID = p.NewID
	}
	validity := p.Validity
	if validity <= 0 {
		validity = defaultValidity
	}

	issued := now().UTC()
	instant := issued.Format(issueInstantLayout)
	method := AuthMethodUnspecified
	if kind == common.Password {
		method = AuthMethodPassword
	}
	subject := SAML10SubjectXML{
		NameIdentifier:     string(principal.Subject),
		ConfirmationMethod: "urn:oasis:names:tc:SAML:1.0:cm:artifact",
	}

	assertion := &SAML10AssertionXML{
		AssertionID:  newID(),
		IssueInstant: instant,
		Issuer:       p.Issuer,
		MajorVersion: "1",
		MinorVersion: "1",
		Conditions: SAML10ConditionsXML{
			NotBefore:    issued.Add(-validity).Format(issueInstantLayout),
			NotOnOrAfter: issued.Add(validity).Format(issueInstantLayout),
			Audience:     p.Recipient,
		},
		AuthenticationStatement: SAML10AuthenticationStatementXML{
			AuthenticationInstant: instant,
			AuthenticationMethod:  method,
			Subject:               subject,
		},
	}
	if len(principal.Attributes) > 0 {
		names := make([]string, 0, len(principal.Attributes))
		for name := range principal.Attributes {
			names = append(names, name)
		}
		sort.Strings(names)
		stmt := &SAML10AttributeStatementXML{Subject: subject}
		for _, name := range names {
			stmt.Attributes = append(stmt.Attributes, SAML10AttributeXML{
				AttributeName:      name,
				AttributeNamespace: attributeNamespace,
				Values:             principal.Attributes[name],
			})
		}
		assertion.AttributeStatement = stmt
	}

	resp := SAML10ResponseXML{
		XmlnsSAMLP:   samlProtocolNS,
		XmlnsSAML:    samlAssertionNS,
		ResponseID:   newID(),
		IssueInstant: instant,
		MajorVersion: "1",
		MinorVersion: "1",
		Recipient:    p.Recipient,
		Status: SAML10StatusXML{
			StatusCode: SAML10StatusCodeXML{Value: StatusSuccess},
		},
		Assertion: assertion,
	}
	return xml.Marshal(resp)
}
