package transport

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const (
	soapEnvelopeNS   = "http://schemas.xmlsoap.org/soap/envelope/"
	wsseNS           = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	passwordTextType = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
	serviceNS        = "http://afirmaws/services/DSSAfirmaVerifyCertificate"
)

type soapEnvelope struct {
	XMLName xml.Name    `xml:"soapenv:Envelope"`
	NS      string      `xml:"xmlns:soapenv,attr"`
	Header  *soapHeader `xml:"soapenv:Header,omitempty"`
	Body    soapBody    `xml:"soapenv:Body"`
}

type soapHeader struct {
	Security wsseSecurity `xml:"wsse:Security"`
}

type wsseSecurity struct {
	NS             string        `xml:"xmlns:wsse,attr"`
	MustUnderstand string        `xml:"soapenv:mustUnderstand,attr"`
	Token          usernameToken `xml:"wsse:UsernameToken"`
}

type usernameToken struct {
	Username string       `xml:"wsse:Username"`
	Password wssePassword `xml:"wsse:Password"`
}

type wssePassword struct {
	Type  string `xml:"Type,attr"`
	Value string `xml:",chardata"`
}

type soapBody struct {
	Verify verifyCall `xml:"ns1:verify"`
}

type verifyCall struct {
	NS   string `xml:"xmlns:ns1,attr"`
	Arg0 string `xml:"arg0"`
}

// wrapRequest places the request document, as escaped text, inside a SOAP 1.1
// verify call. A WS-Security UsernameToken header is added when username is
// set.
func wrapRequest(document []byte, username, password string) ([]byte, error) {
	env := soapEnvelope{
		NS: soapEnvelopeNS,
		Body: soapBody{
			Verify: verifyCall{
				NS:   serviceNS,
				Arg0: string(document),
			},
		},
	}
	if username != "" {
		env.Header = &soapHeader{
			Security: wsseSecurity{
				NS:             wsseNS,
				MustUnderstand: "1",
				Token: usernameToken{
					Username: username,
					Password: wssePassword{Type: passwordTextType, Value: password},
				},
			},
		}
	}
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	err := xml.NewEncoder(&buf).Encode(env)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Elements are matched by local name, whatever prefix the service uses.
type soapResponse struct {
	Body struct {
		Fault          *soapFault `xml:"Fault"`
		VerifyResponse *struct {
			Return *string `xml:"verifyReturn"`
		} `xml:"verifyResponse"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

// faultError is returned by unwrapResponse when the service answered with a
// SOAP fault.
type faultError struct {
	code, reason string
}

func (fe faultError) Error() string {
	return fmt.Sprintf("SOAP fault %s: %s", fe.code, fe.reason)
}

// unwrapResponse returns the document carried in the verifyReturn element of
// a SOAP response.
func unwrapResponse(r io.Reader) ([]byte, error) {
	var resp soapResponse
	err := xml.NewDecoder(r).Decode(&resp)
	if err != nil {
		return nil, fmt.Errorf("parsing SOAP envelope: %w", err)
	}
	if f := resp.Body.Fault; f != nil {
		return nil, faultError{code: strings.TrimSpace(f.Code), reason: strings.TrimSpace(f.String)}
	}
	if resp.Body.VerifyResponse == nil || resp.Body.VerifyResponse.Return == nil {
		return nil, fmt.Errorf("SOAP envelope carries no verifyReturn")
	}
	return []byte(strings.TrimSpace(*resp.Body.VerifyResponse.Return)), nil
}
