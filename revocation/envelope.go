package revocation

import (
	"encoding/asn1"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/ocsp"
)

// ReasonNotGiven is reported for revoked certificates whose revocation
// evidence carries no revocationReason. It is distinct from
// ocsp.Unspecified (0), which is an explicit reason.
const ReasonNotGiven = -1

// OIDBasicResponse is id-pkix-ocsp-basic (RFC 6960, 4.2.1).
var OIDBasicResponse = asn1.ObjectIdentifier{1, 3, 6, 1, 5, 5, 7, 48, 1, 1}

var errNotRevoked = errors.New("first single response is not revoked")

// Envelope wraps a DER encoded BasicOCSPResponse in a successful
// OCSPResponse:
//
//	OCSPResponse ::= SEQUENCE {
//	   responseStatus  OCSPResponseStatus,
//	   responseBytes   [0] EXPLICIT ResponseBytes OPTIONAL }
//
//	ResponseBytes ::= SEQUENCE {
//	   responseType    OBJECT IDENTIFIER,
//	   response        OCTET STRING }
//
// basic is copied into the response octets unchanged.
func Envelope(basic []byte) ([]byte, error) {
	if len(basic) == 0 {
		return nil, errors.New("empty BasicOCSPResponse")
	}
	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(resp *cryptobyte.Builder) {
		resp.AddASN1Enum(int64(ocsp.Success))
		resp.AddASN1(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed(), func(explicit *cryptobyte.Builder) {
			explicit.AddASN1(cryptobyte_asn1.SEQUENCE, func(rb *cryptobyte.Builder) {
				rb.AddASN1ObjectIdentifier(OIDBasicResponse)
				rb.AddASN1OctetString(basic)
			})
		})
	})
	return b.Bytes()
}

// singleResponse is what certval reads from a SingleResponse.
type singleResponse struct {
	status    int
	revokedAt time.Time
	// reason is only meaningful when status is ocsp.Revoked.
	reason int
}

var (
	goodTag    = cryptobyte_asn1.Tag(0).ContextSpecific()
	revokedTag = cryptobyte_asn1.Tag(1).ContextSpecific().Constructed()
	unknownTag = cryptobyte_asn1.Tag(2).ContextSpecific()
	reasonTag  = cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()
)

// firstSingle walks a DER encoded BasicOCSPResponse and reads the
// certificate status of its first SingleResponse. Any further single
// responses are ignored.
//
// x/crypto/ocsp rejects responses with more than one SingleResponse unless
// it is given the certificate to look for, and it reports a missing reason
// as ocsp.Unspecified, which is why the structure is walked here instead.
func firstSingle(basic []byte) (singleResponse, error) {
	var s singleResponse
	input := cryptobyte.String(basic)
	var basicResp, tbs, responses, single cryptobyte.String
	if !input.ReadASN1(&basicResp, cryptobyte_asn1.SEQUENCE) ||
		!basicResp.ReadASN1(&tbs, cryptobyte_asn1.SEQUENCE) {
		return s, errors.New("malformed BasicOCSPResponse")
	}

	// ResponseData ::= SEQUENCE { version [0] EXPLICIT DEFAULT v1,
	// responderID, producedAt, responses, responseExtensions [1] OPTIONAL }
	var responderID cryptobyte.String
	var responderIDTag cryptobyte_asn1.Tag
	if !tbs.SkipOptionalASN1(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed()) ||
		!tbs.ReadAnyASN1(&responderID, &responderIDTag) ||
		!tbs.SkipASN1(cryptobyte_asn1.GeneralizedTime) ||
		!tbs.ReadASN1(&responses, cryptobyte_asn1.SEQUENCE) {
		return s, errors.New("malformed ResponseData")
	}
	if !responses.ReadASN1(&single, cryptobyte_asn1.SEQUENCE) {
		return s, errors.New("ResponseData contains no single response")
	}

	// SingleResponse ::= SEQUENCE { certID, certStatus, thisUpdate, ... }
	//
	//	CertStatus ::= CHOICE {
	//	   good     [0] IMPLICIT NULL,
	//	   revoked  [1] IMPLICIT RevokedInfo,
	//	   unknown  [2] IMPLICIT UnknownInfo }
	var status cryptobyte.String
	var statusTag cryptobyte_asn1.Tag
	if !single.SkipASN1(cryptobyte_asn1.SEQUENCE) {
		return s, errors.New("malformed CertID")
	}
	if !single.ReadAnyASN1(&status, &statusTag) {
		return s, errors.New("malformed CertStatus")
	}
	switch statusTag {
	case goodTag:
		s.status = ocsp.Good
	case unknownTag:
		s.status = ocsp.Unknown
	case revokedTag:
		s.status = ocsp.Revoked
		var err error
		s.revokedAt, s.reason, err = readRevokedInfo(status)
		if err != nil {
			return s, err
		}
	default:
		return s, fmt.Errorf("unexpected CertStatus tag %d", statusTag)
	}

	var thisUpdate time.Time
	if !single.ReadASN1GeneralizedTime(&thisUpdate) {
		return s, errors.New("malformed thisUpdate")
	}
	return s, nil
}

// readRevokedInfo reads
//
//	RevokedInfo ::= SEQUENCE {
//	   revocationTime    GeneralizedTime,
//	   revocationReason  [0] EXPLICIT CRLReason OPTIONAL }
//
// returning ReasonNotGiven when there is no reason.
func readRevokedInfo(revoked cryptobyte.String) (time.Time, int, error) {
	var at time.Time
	if !revoked.ReadASN1GeneralizedTime(&at) {
		return at, 0, errors.New("malformed RevokedInfo")
	}
	var reason cryptobyte.String
	var present bool
	if !revoked.ReadOptionalASN1(&reason, &present, reasonTag) {
		return at, 0, errors.New("malformed revocationReason")
	}
	if !present {
		return at, ReasonNotGiven, nil
	}
	var code int
	if !reason.ReadASN1Enum(&code) {
		return at, 0, errors.New("malformed revocationReason")
	}
	if code < ocsp.Unspecified || code > ocsp.AACompromise {
		return at, 0, fmt.Errorf("revocationReason %d out of range", code)
	}
	return at, code, nil
}

// RevocationReason reads the revocationReason of the first SingleResponse of
// a DER encoded BasicOCSPResponse. It returns ReasonNotGiven when the
// RevokedInfo has no reason, and an error when the first response is not
// revoked or the structure cannot be walked.
func RevocationReason(basic []byte) (int, error) {
	s, err := firstSingle(basic)
	if err != nil {
		return 0, err
	}
	if s.status != ocsp.Revoked {
		return 0, errNotRevoked
	}
	return s.reason, nil
}
