package dss

// Parameters is the loosely typed, path-keyed form in which requests are
// handed to a transformer and responses come back from it. Keys are opaque
// lookup strings defined by the protocol. Values are one of:
//
//   - string, for leaf values;
//   - map[string]string, for readable field blocks (see FieldMapKeys);
//   - []Parameters, for repeated elements (see RepeatedKeys), each keyed
//     relative to the repeated element.
//
// Only ParseResponse and the request builders in this package look inside a
// Parameters value.
type Parameters map[string]any

// Request parameter keys.
const (
	KeyClaimedIdentity          = "dss:OptionalInputs/dss:ClaimedIdentity/dss:Name"
	KeyReturnReadableCertInfo   = "dss:OptionalInputs/afxp:ReturnReadableCertificateInfo"
	KeyIncludeCertificateValues = "dss:OptionalInputs/vr:ReturnVerificationReport/vr:ReportOptions/vr:IncludeCertificateValues"
	KeyIncludeRevocationValues  = "dss:OptionalInputs/vr:ReturnVerificationReport/vr:ReportOptions/vr:IncludeRevocationValues"
	KeyReportDetailLevel        = "dss:OptionalInputs/vr:ReturnVerificationReport/vr:ReportOptions/vr:ReportDetailLevel"
	KeyCheckCertificateStatus   = "dss:OptionalInputs/vr:ReturnVerificationReport/vr:CheckOptions/vr:CheckCertificateStatus"
	KeyX509Certificate          = "dss:InputDocuments/dss:Other/ds:X509Data/ds:X509Certificate"
)

// ReportDetailAll asks for every detail of the verification report,
// including revocation evidence.
const ReportDetailAll = "urn:oasis:names:tc:dss:1.0:reportdetail:allDetails"

// Response parameter keys.
const (
	KeyResultMajor   = "dss:Result/dss:ResultMajor"
	KeyResultMinor   = "dss:Result/dss:ResultMinor"
	KeyResultMessage = "dss:Result/dss:ResultMessage"

	// KeyReadableCertInfo is where the readable certificate fields are found
	// when only a certificate information block is returned.
	KeyReadableCertInfo = "dss:OptionalOutputs/afxp:ReadableCertificateInfo"
	// KeyReportReadableCertInfo is where they are found when a full
	// verification report is returned.
	KeyReportReadableCertInfo = "dss:OptionalOutputs/vr:CertificatePathValidity/vr:CertificateContent/afxp:ReadableCertificateInfo"

	// KeyPathValidity holds one record per certificate of the validated
	// certification path.
	KeyPathValidity = "dss:OptionalOutputs/vr:CertificatePathValidity/vr:PathValidityDetail/vr:CertificateValidity"
)

// Keys inside each KeyPathValidity record.
const (
	KeyRecordIssuerName   = "vr:CertificateIdentifier/ds:X509IssuerName"
	KeyRecordSerialNumber = "vr:CertificateIdentifier/ds:X509SerialNumber"
	KeyRecordOCSPValue    = "vr:CertificateStatus/vr:RevocationEvidence/vr:OCSPValidity/vr:OCSPValue"
)

// Readable certificate field identities.
const (
	FieldIssuer         = "idEmisor"
	FieldSerialNumber   = "numeroSerie"
	FieldClassification = "clasificacion"
)

// RepeatedKeys lists the response keys whose value is a []Parameters.
var RepeatedKeys = []string{KeyPathValidity}

// FieldMapKeys lists the response keys whose value is a map[string]string.
var FieldMapKeys = []string{KeyReadableCertInfo, KeyReportReadableCertInfo}
