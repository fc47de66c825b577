package dss

import (
	"encoding/base64"
	"testing"

	"github.com/letsencrypt/certval/core"
	berrors "github.com/letsencrypt/certval/errors"
	"github.com/letsencrypt/certval/test"
)

func TestOutcome(t *testing.T) {
	testCases := []struct {
		name     string
		major    string
		minor    string
		expected core.Outcome
	}{
		{"success", ResultMajorSuccess, "", core.OutcomeValid},
		{"success with informational minor", ResultMajorSuccess, "urn:something:else", core.OutcomeValid},
		{"revoked", ResultMajorSuccess, ResultMinorRevoked, core.OutcomeRevoked},
		{"not supported", ResultMajorRequesterError, ResultMinorNotSupported, core.OutcomeNotInTrustedCAs},
		{"requester error", ResultMajorRequesterError, "", core.OutcomeInvalid},
		{"revoked minor on requester error", ResultMajorRequesterError, ResultMinorRevoked, core.OutcomeInvalid},
		{"not supported minor on success", ResultMajorSuccess, ResultMinorNotSupported, core.OutcomeValid},
		{"responder error", ResultMajorResponderError, ResultMinorNotSupported, core.OutcomeInvalid},
		{"insufficient information", ResultMajorInsufficientInformation, "", core.OutcomeInvalid},
		{"unknown major", "urn:unknown", "", core.OutcomeInvalid},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			test.AssertEquals(t, Outcome(tc.major, tc.minor), tc.expected)
		})
	}
}

func TestVerifyRequest(t *testing.T) {
	p := VerifyRequest("my.app", []byte{0x30, 0x00})
	test.AssertEquals(t, p[KeyClaimedIdentity], any("my.app"))
	test.AssertEquals(t, p[KeyIncludeRevocationValues], any("true"))
	test.AssertEquals(t, p[KeyCheckCertificateStatus], any("true"))
	test.AssertEquals(t, p[KeyReportDetailLevel], any(ReportDetailAll))
	test.AssertEquals(t, p[KeyX509Certificate], any(base64.StdEncoding.EncodeToString([]byte{0x30, 0x00})))

	p = VerifyRequest("my.app", nil)
	_, present := p[KeyX509Certificate]
	test.Assert(t, !present, "nil certificate should be omitted")
}

func TestDataRequest(t *testing.T) {
	p := DataRequest("my.app", []byte{0x30, 0x00})
	test.AssertEquals(t, len(p), 3)
	_, present := p[KeyIncludeRevocationValues]
	test.Assert(t, !present, "data requests do not ask for revocation values")
	_, present = p[KeyReportDetailLevel]
	test.Assert(t, !present, "data requests do not ask for a report")
}

func TestParseResponseNoMajor(t *testing.T) {
	_, err := ParseResponse(Parameters{})
	test.AssertError(t, err, "missing major should fail")
	test.Assert(t, berrors.Is(err, berrors.ServiceError), "expected ServiceError")

	_, err = ParseResponse(Parameters{KeyResultMajor: 42})
	test.Assert(t, berrors.Is(err, berrors.ServiceError), "non-string major should be ServiceError")
}

func TestParseResponse(t *testing.T) {
	p := Parameters{
		KeyResultMajor:   " " + ResultMajorSuccess + "\n",
		KeyResultMinor:   ResultMinorRevoked,
		KeyResultMessage: "Certificate revoked",
		KeyReadableCertInfo: map[string]string{
			FieldIssuer:         "CN=Simple Issuer",
			FieldSerialNumber:   "1234",
			FieldClassification: "0",
			"subject":           "CN=Alice",
		},
		KeyReportReadableCertInfo: map[string]string{
			FieldIssuer:         "CN=Issuer",
			FieldClassification: "11",
		},
		KeyPathValidity: []Parameters{
			{
				KeyRecordIssuerName:   "CN=Root",
				KeyRecordSerialNumber: "1",
			},
			{
				KeyRecordIssuerName:   "CN=Issuer",
				KeyRecordSerialNumber: "1234",
				KeyRecordOCSPValue:    "MAA=",
			},
			{
				KeyRecordSerialNumber: "99",
			},
		},
	}
	r, err := ParseResponse(p)
	test.AssertNotError(t, err, "parsing response")
	test.Assert(t, r.Success(), "expected success")
	test.AssertEquals(t, r.ResultMajor, ResultMajorSuccess)
	test.AssertEquals(t, r.ResultMinor, ResultMinorRevoked)
	test.AssertEquals(t, r.ResultMessage, "Certificate revoked")

	// Report fields win over the simple block; the serial only exists in the
	// simple block.
	test.AssertEquals(t, r.Issuer(), "CN=Issuer")
	test.AssertEquals(t, r.SerialNumber(), "1234")
	test.AssertEquals(t, r.ReadableInfo["subject"], "CN=Alice")
	test.AssertEquals(t, r.ReadableInfo[FieldIssuer], "CN=Issuer")

	test.AssertEquals(t, r.Classification, "11")
	code, ok, err := r.ClassificationCode()
	test.AssertNotError(t, err, "classification code")
	test.Assert(t, ok, "classification should be present")
	test.AssertEquals(t, code, 11)

	test.AssertEquals(t, len(r.PathValidity), 2)
	test.AssertEquals(t, r.PathValidity[1].RawEvidenceBase64, "MAA=")
	test.AssertEquals(t, len(r.Problems), 1)
	test.AssertContains(t, r.Problems[0], "record 2")
}

func TestParseResponseSimpleClassification(t *testing.T) {
	r, err := ParseResponse(Parameters{
		KeyResultMajor:      ResultMajorSuccess,
		KeyReadableCertInfo: map[string]string{FieldClassification: "1"},
	})
	test.AssertNotError(t, err, "parsing response")
	code, ok, err := r.ClassificationCode()
	test.AssertNotError(t, err, "classification code")
	test.Assert(t, ok, "classification should be present")
	test.AssertEquals(t, code, 1)
	test.AssertEquals(t, len(r.PathValidity), 0)
}

func TestParseResponseMalformedShapes(t *testing.T) {
	r, err := ParseResponse(Parameters{
		KeyResultMajor:            ResultMajorSuccess,
		KeyReadableCertInfo:       "not a map",
		KeyReportReadableCertInfo: nil,
		KeyPathValidity:           "not a list",
	})
	test.AssertNotError(t, err, "malformed optional parts must not fail parsing")
	test.AssertEquals(t, len(r.PathValidity), 0)
	test.AssertEquals(t, len(r.ReadableInfo), 0)
	test.AssertEquals(t, r.Issuer(), "")
	test.AssertEquals(t, len(r.Problems), 2)

	_, ok, err := r.ClassificationCode()
	test.AssertNotError(t, err, "absent classification is not an error")
	test.Assert(t, !ok, "classification should be absent")
}

func TestParseResponseSingleRecord(t *testing.T) {
	r, err := ParseResponse(Parameters{
		KeyResultMajor: ResultMajorSuccess,
		KeyPathValidity: Parameters{
			KeyRecordIssuerName:   "CN=Issuer",
			KeyRecordSerialNumber: "7",
		},
	})
	test.AssertNotError(t, err, "parsing response")
	test.AssertEquals(t, len(r.PathValidity), 1)
}

func TestClassificationCodeGarbage(t *testing.T) {
	for _, garbage := range []string{"abc", "1.5", "99999999999"} {
		r := &Response{Classification: garbage}
		_, ok, err := r.ClassificationCode()
		test.AssertError(t, err, "garbage classification should fail to parse")
		test.Assert(t, !ok, "garbage classification should be absent")
	}
}

func TestFindEvidence(t *testing.T) {
	records := []EvidenceRecord{
		{IssuerName: "CN=Root", SerialNumber: "1"},
		{IssuerName: "CN=Issuer", SerialNumber: "1235", RawEvidenceBase64: "wrong-serial"},
		{IssuerName: "CN=Issuer", SerialNumber: "1234", RawEvidenceBase64: "first"},
	}

	rec, n := FindEvidence(records, "CN=Issuer", "1234")
	test.AssertEquals(t, n, 1)
	test.AssertEquals(t, rec.RawEvidenceBase64, "first")

	_, n = FindEvidence(records, "CN=Issuer", "999")
	test.AssertEquals(t, n, 0)

	_, n = FindEvidence(records, "CN=Other", "1234")
	test.AssertEquals(t, n, 0)

	_, n = FindEvidence(nil, "CN=Issuer", "1234")
	test.AssertEquals(t, n, 0)

	records = append(records, EvidenceRecord{IssuerName: "CN=Issuer", SerialNumber: "1234", RawEvidenceBase64: "second"})
	rec, n = FindEvidence(records, "CN=Issuer", "1234")
	test.AssertEquals(t, n, 2)
	test.AssertEquals(t, rec.RawEvidenceBase64, "second")
}
