package dss

import "github.com/letsencrypt/certval/core"

// Result major codes.
const (
	ResultMajorSuccess                 = "urn:oasis:names:tc:dss:1.0:resultmajor:Success"
	ResultMajorRequesterError          = "urn:oasis:names:tc:dss:1.0:resultmajor:RequesterError"
	ResultMajorResponderError          = "urn:oasis:names:tc:dss:1.0:resultmajor:ResponderError"
	ResultMajorInsufficientInformation = "urn:oasis:names:tc:dss:1.0:resultmajor:InsufficientInformation"
)

// Result minor codes that change the outcome of a validation. Any other minor
// code is informational only.
const (
	ResultMinorRevoked      = "urn:oasis:names:tc:dss:1.0:profiles:XSS:resultminor:invalid:certificate:Revoked"
	ResultMinorNotSupported = "urn:afirma:dss:1.0:profile:XSS:resultminor:Certificate:NotSupported"
)

// Outcome maps a major/minor result pair to a validation outcome. The checks
// are ordered; minor codes are only consulted together with the one major
// code they qualify.
func Outcome(major, minor string) core.Outcome {
	switch {
	case major == ResultMajorSuccess && minor == ResultMinorRevoked:
		return core.OutcomeRevoked
	case major == ResultMajorSuccess:
		return core.OutcomeValid
	case major == ResultMajorRequesterError && minor == ResultMinorNotSupported:
		return core.OutcomeNotInTrustedCAs
	default:
		return core.OutcomeInvalid
	}
}
