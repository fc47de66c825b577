package revocation

import (
	"encoding/base64"
	"encoding/hex"
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/ocsp"

	"github.com/letsencrypt/certval/dss"
	"github.com/letsencrypt/certval/test"
)

var revokedAt = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func intPtr(i int) *int { return &i }

func record(t *testing.T, s test.SingleStatus) dss.EvidenceRecord {
	t.Helper()
	return dss.EvidenceRecord{
		IssuerName:        "CN=Issuer",
		SerialNumber:      "1",
		RawEvidenceBase64: base64.StdEncoding.EncodeToString(test.BasicOCSPResponse(t, s)),
	}
}

func TestEnvelopeVector(t *testing.T) {
	basic := []byte{0x30, 0x03, 0x02, 0x01, 0x05}
	envelope, err := Envelope(basic)
	test.AssertNotError(t, err, "building envelope")
	expected, err := hex.DecodeString("30190a0100a014301206092b0601050507300101040530030201" + "05")
	test.AssertNotError(t, err, "decoding vector")
	test.AssertByteEquals(t, envelope, expected)

	_, err = Envelope(nil)
	test.AssertError(t, err, "empty input should fail")
}

func TestBuildRevoked(t *testing.T) {
	ev, err := Build(record(t, test.SingleStatus{
		Status:    ocsp.Revoked,
		RevokedAt: revokedAt,
		Reason:    intPtr(ocsp.Superseded),
	}))
	test.AssertNotError(t, err, "building evidence")
	test.Assert(t, ev.Revoked(), "expected revoked")
	test.Assert(t, ev.RevokedAt.Equal(revokedAt), "unexpected revocation time")
	test.AssertEquals(t, ev.Reason, ocsp.Superseded)

	// The artifact must be usable by any consumer of OCSP responses.
	parsed, err := ocsp.ParseResponse(ev.Response, nil)
	test.AssertNotError(t, err, "reparsing artifact")
	test.AssertEquals(t, parsed.Status, ocsp.Revoked)
	test.Assert(t, parsed.RevokedAt.Equal(revokedAt), "unexpected revocation time in artifact")
	test.AssertEquals(t, parsed.RevocationReason, ocsp.Superseded)
}

func TestBuildRevokedWithoutReason(t *testing.T) {
	ev, err := Build(record(t, test.SingleStatus{
		Status:    ocsp.Revoked,
		RevokedAt: revokedAt,
	}))
	test.AssertNotError(t, err, "building evidence")
	test.Assert(t, ev.Revoked(), "expected revoked")
	test.AssertEquals(t, ev.Reason, ReasonNotGiven)
}

func TestBuildRevokedExplicitUnspecified(t *testing.T) {
	ev, err := Build(record(t, test.SingleStatus{
		Status:    ocsp.Revoked,
		RevokedAt: revokedAt,
		Reason:    intPtr(ocsp.Unspecified),
	}))
	test.AssertNotError(t, err, "building evidence")
	test.AssertEquals(t, ev.Reason, ocsp.Unspecified)
}

func TestBuildGood(t *testing.T) {
	ev, err := Build(record(t, test.SingleStatus{Status: ocsp.Good}))
	test.AssertNotError(t, err, "building evidence")
	test.Assert(t, !ev.Revoked(), "expected not revoked")
	test.AssertEquals(t, ev.Status, ocsp.Good)
	test.Assert(t, ev.RevokedAt.IsZero(), "good evidence has no revocation time")
	test.Assert(t, len(ev.Response) > 0, "good evidence still gets an artifact")
}

func TestBuildMultipleSingleResponses(t *testing.T) {
	basic := test.BasicOCSPResponse(t,
		test.SingleStatus{Status: ocsp.Revoked, RevokedAt: revokedAt, Reason: intPtr(ocsp.KeyCompromise)},
		test.SingleStatus{Status: ocsp.Good},
	)
	ev, err := Build(dss.EvidenceRecord{RawEvidenceBase64: base64.StdEncoding.EncodeToString(basic)})
	test.AssertNotError(t, err, "building evidence with two single responses")
	test.Assert(t, ev.Revoked(), "the first single response decides the status")
	test.Assert(t, ev.RevokedAt.Equal(revokedAt), "unexpected revocation time")
	test.AssertEquals(t, ev.Reason, ocsp.KeyCompromise)
	test.Assert(t, len(ev.Response) > 0, "expected an artifact")

	basic = test.BasicOCSPResponse(t,
		test.SingleStatus{Status: ocsp.Good},
		test.SingleStatus{Status: ocsp.Revoked, RevokedAt: revokedAt},
	)
	ev, err = Build(dss.EvidenceRecord{RawEvidenceBase64: base64.StdEncoding.EncodeToString(basic)})
	test.AssertNotError(t, err, "building evidence with two single responses")
	test.AssertEquals(t, ev.Status, ocsp.Good)
	test.Assert(t, ev.RevokedAt.IsZero(), "later single responses are ignored")
}

func TestBuildUnknown(t *testing.T) {
	ev, err := Build(record(t, test.SingleStatus{Status: ocsp.Unknown}))
	test.AssertNotError(t, err, "building evidence")
	test.AssertEquals(t, ev.Status, ocsp.Unknown)
	test.Assert(t, !ev.Revoked(), "unknown is not revoked")
}

func TestBuildUnpaddedAndWrapped(t *testing.T) {
	basic := test.BasicOCSPResponse(t, test.SingleStatus{Status: ocsp.Revoked, RevokedAt: revokedAt})
	raw := base64.RawStdEncoding.EncodeToString(basic)
	wrapped := raw[:10] + "\n  " + raw[10:]
	ev, err := Build(dss.EvidenceRecord{RawEvidenceBase64: wrapped})
	test.AssertNotError(t, err, "building evidence from unpadded wrapped base64")
	test.Assert(t, ev.Revoked(), "expected revoked")
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(dss.EvidenceRecord{})
	test.Assert(t, errors.Is(err, ErrNoEvidence), "expected ErrNoEvidence")

	_, err = Build(dss.EvidenceRecord{RawEvidenceBase64: "!!!not base64!!!"})
	test.AssertError(t, err, "malformed base64 should fail")

	_, err = Build(dss.EvidenceRecord{RawEvidenceBase64: base64.StdEncoding.EncodeToString([]byte{0x30, 0x03, 0x02, 0x01, 0x05})})
	test.AssertError(t, err, "malformed BasicOCSPResponse should fail")
}

func TestRevocationReasonNotRevoked(t *testing.T) {
	_, err := RevocationReason(test.BasicOCSPResponse(t, test.SingleStatus{Status: ocsp.Good}))
	test.AssertError(t, err, "good status has no reason")

	_, err = RevocationReason([]byte{0x30})
	test.AssertError(t, err, "truncated input should fail")
}
