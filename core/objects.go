package core

import (
	"time"
)

// Outcome is the verdict of a single validation call.
type Outcome string

const (
	OutcomeValid           = Outcome("valid")           // Certificate is valid
	OutcomeRevoked         = Outcome("revoked")         // Certificate was revoked
	OutcomeInvalid         = Outcome("invalid")         // Any other failed validation
	OutcomeNotInTrustedCAs = Outcome("notInTrustedCAs") // Issuer not supported by the service
)

// Diagnostic records an optional step that failed while a ValidationResult was
// being assembled. The corresponding result field is left absent.
type Diagnostic struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// ValidationResult is the normalized answer of the remote validation service
// for one certificate. Apart from SetRevocation and SetCategory, which are used
// while the result is assembled, it is not modified after construction.
type ValidationResult struct {
	Outcome Outcome `json:"outcome"`
	// CertificateFields are the readable certificate attributes echoed by the
	// service. Never nil.
	CertificateFields map[string]string `json:"certificateFields"`
	RevocationDate    *time.Time        `json:"revocationDate,omitempty"`
	// RevocationReason is the RFC 5280 reason code from the revocation
	// evidence, or -1 when the evidence reports a revocation without one.
	RevocationReason *int `json:"revocationReason,omitempty"`
	// OCSPResponse is a DER encoded OCSPResponse built from the revocation
	// evidence, suitable for any consumer of live OCSP responses.
	OCSPResponse        []byte       `json:"ocspResponse,omitempty"`
	CertificateCategory *int         `json:"certificateCategory,omitempty"`
	Diagnostics         []Diagnostic `json:"diagnostics,omitempty"`
}

// NewValidationResult returns a result with the given outcome and fields. A
// nil fields map is replaced with an empty one.
func NewValidationResult(outcome Outcome, fields map[string]string) *ValidationResult {
	if fields == nil {
		fields = map[string]string{}
	}
	return &ValidationResult{
		Outcome:           outcome,
		CertificateFields: fields,
	}
}

// SetRevocation records the revocation time and reason taken from the
// evidence.
func (vr *ValidationResult) SetRevocation(date time.Time, reason int) {
	vr.RevocationDate = &date
	vr.RevocationReason = &reason
}

// SetCategory records the raw classification code of the certificate.
func (vr *ValidationResult) SetCategory(code int) {
	vr.CertificateCategory = &code
}
