package dss

import "encoding/base64"

// VerifyRequest returns the parameters of a full certificate validation:
// readable certificate information, certificate and revocation values, a
// fully detailed report and a live status check. A nil der leaves the
// certificate out of the request.
func VerifyRequest(application string, der []byte) Parameters {
	p := Parameters{
		KeyClaimedIdentity:          application,
		KeyReturnReadableCertInfo:   "",
		KeyIncludeCertificateValues: "true",
		KeyIncludeRevocationValues:  "true",
		KeyReportDetailLevel:        ReportDetailAll,
		KeyCheckCertificateStatus:   "true",
	}
	addCertificate(p, der)
	return p
}

// DataRequest returns the parameters of a certificate data lookup, which only
// asks for the readable certificate information.
func DataRequest(application string, der []byte) Parameters {
	p := Parameters{
		KeyClaimedIdentity:        application,
		KeyReturnReadableCertInfo: "",
	}
	addCertificate(p, der)
	return p
}

func addCertificate(p Parameters, der []byte) {
	if der != nil {
		p[KeyX509Certificate] = base64.StdEncoding.EncodeToString(der)
	}
}
