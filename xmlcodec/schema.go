package xmlcodec

import "github.com/letsencrypt/certval/dss"

// Schema tells a Codec how path keys map onto a document.
type Schema struct {
	// Root is the qualified name of the request root element.
	Root string
	// Namespaces maps prefixes to URIs. They are declared on the request root.
	Namespaces map[string]string
	// RootAttrs are extra attributes of the request root.
	RootAttrs map[string]string
	// Order ranks sibling elements in requests. Listed names come first, in
	// the given order; the rest follow sorted by name.
	Order []string

	// Repeated paths are decoded as []dss.Parameters, one per occurrence.
	Repeated []string
	// FieldMaps paths are decoded as map[string]string built from children
	// holding a FieldIdentity and a FieldValue element.
	FieldMaps     []string
	FieldIdentity string
	FieldValue    string
}

// DSS returns the schema of the certificate verification service, matching
// the keys defined in package dss.
func DSS() Schema {
	return Schema{
		Root: "dss:VerifyRequest",
		Namespaces: map[string]string{
			"dss":  "urn:oasis:names:tc:dss:1.0:core:schema",
			"ds":   "http://www.w3.org/2000/09/xmldsig#",
			"vr":   "urn:oasis:names:tc:dss:1.0:profiles:verificationreport:schema#",
			"afxp": "urn:afirma:dss:1.0:profile:XSS:schema",
		},
		RootAttrs: map[string]string{
			"Profile": "urn:afirma:dss:1.0:profile:XSS",
		},
		Order: []string{
			"dss:OptionalInputs",
			"dss:InputDocuments",
			"dss:ClaimedIdentity",
			"afxp:ReturnReadableCertificateInfo",
			"vr:ReturnVerificationReport",
			"vr:CheckOptions",
			"vr:ReportOptions",
		},
		Repeated:      dss.RepeatedKeys,
		FieldMaps:     dss.FieldMapKeys,
		FieldIdentity: "afxp:FieldIdentity",
		FieldValue:    "afxp:FieldValue",
	}
}
