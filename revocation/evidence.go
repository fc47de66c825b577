// Package revocation turns the revocation evidence returned by the remote
// validation service into a standard DER OCSPResponse and extracts the
// revocation details from it.
package revocation

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/ocsp"

	"github.com/letsencrypt/certval/dss"
)

// ErrNoEvidence is returned by Build when the record carries no revocation
// evidence at all.
var ErrNoEvidence = errors.New("path validity record carries no revocation evidence")

// Evidence is the decoded revocation evidence for one certificate.
type Evidence struct {
	// Response is a DER encoded OCSPResponse (responseStatus successful)
	// wrapping the BasicOCSPResponse reported by the service.
	Response []byte
	// Status is one of ocsp.Good, ocsp.Revoked or ocsp.Unknown.
	Status int
	// RevokedAt and Reason are only set when Status is ocsp.Revoked. Reason is
	// ReasonNotGiven when the evidence carries no revocationReason.
	RevokedAt time.Time
	Reason    int
}

// Revoked reports whether the evidence says the certificate is revoked.
func (e *Evidence) Revoked() bool {
	return e.Status == ocsp.Revoked
}

// Build decodes the base64 BasicOCSPResponse carried by rec, wraps it in an
// OCSPResponse and reads the status of its first single response. The
// signature is not checked; the service has already verified it.
func Build(rec dss.EvidenceRecord) (*Evidence, error) {
	if strings.TrimSpace(rec.RawEvidenceBase64) == "" {
		return nil, ErrNoEvidence
	}
	basic, err := decodeBase64(rec.RawEvidenceBase64)
	if err != nil {
		return nil, fmt.Errorf("decoding revocation evidence: %w", err)
	}
	envelope, err := Envelope(basic)
	if err != nil {
		return nil, err
	}
	single, err := firstSingle(basic)
	if err != nil {
		return nil, fmt.Errorf("parsing revocation evidence: %w", err)
	}

	ev := &Evidence{
		Response: envelope,
		Status:   single.status,
	}
	if ev.Revoked() {
		ev.RevokedAt = single.revokedAt
		ev.Reason = single.reason
	}
	return ev, nil
}

// decodeBase64 accepts padded and unpadded standard base64. XML text content
// is frequently wrapped, so whitespace is ignored.
func decodeBase64(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n':
			return -1
		}
		return r
	}, s)
	der, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return der, nil
	}
	der, rawErr := base64.RawStdEncoding.DecodeString(s)
	if rawErr != nil {
		return nil, err
	}
	return der, nil
}
