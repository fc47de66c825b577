package dss

import (
	"fmt"
	"strconv"
	"strings"

	berrors "github.com/letsencrypt/certval/errors"
)

// Response is the typed view of a validation service response. It is the
// only representation of a response used outside this package.
type Response struct {
	ResultMajor   string
	ResultMinor   string
	ResultMessage string

	// ReadableInfo holds the readable certificate fields. When both the report
	// and the simple information block are present, report fields win.
	ReadableInfo map[string]string
	// PathValidity holds one record per certificate of the validated path.
	PathValidity []EvidenceRecord

	// Classification is the raw classification code, taken from the report
	// when present and from the simple information block otherwise.
	Classification string

	// Problems lists the parts of the response that did not have the
	// expected shape and were skipped.
	Problems []string

	reportInfo map[string]string
	simpleInfo map[string]string
}

// Success reports whether the service answered with a Success major code.
func (r *Response) Success() bool {
	return r.ResultMajor == ResultMajorSuccess
}

// Issuer returns the issuer name the service reported for the certificate
// under test.
func (r *Response) Issuer() string {
	return r.field(FieldIssuer)
}

// SerialNumber returns the serial number the service reported for the
// certificate under test.
func (r *Response) SerialNumber() string {
	return r.field(FieldSerialNumber)
}

// ClassificationCode parses Classification as a 32 bit integer. It returns
// false when the service reported no classification.
func (r *Response) ClassificationCode() (int, bool, error) {
	if r.Classification == "" {
		return 0, false, nil
	}
	code, err := strconv.ParseInt(r.Classification, 10, 32)
	if err != nil {
		return 0, false, fmt.Errorf("classification %q is not an integer", r.Classification)
	}
	return int(code), true, nil
}

func (r *Response) field(name string) string {
	if v, ok := r.reportInfo[name]; ok && v != "" {
		return v
	}
	return r.simpleInfo[name]
}

// ParseResponse translates the parameters produced by a transformer into a
// Response. Only a missing major result code is an error; any other
// unexpected shape is recorded in Problems and the affected part is left
// empty.
func ParseResponse(p Parameters) (*Response, error) {
	major, ok := stringAt(p, KeyResultMajor)
	if !ok || major == "" {
		return nil, berrors.ServiceErrorError("response carries no result major code")
	}
	r := &Response{
		ResultMajor: major,
	}
	r.ResultMinor, _ = stringAt(p, KeyResultMinor)
	r.ResultMessage, _ = stringAt(p, KeyResultMessage)

	r.reportInfo = r.fieldMap(p, KeyReportReadableCertInfo)
	r.simpleInfo = r.fieldMap(p, KeyReadableCertInfo)
	r.ReadableInfo = make(map[string]string, len(r.simpleInfo)+len(r.reportInfo))
	for k, v := range r.simpleInfo {
		r.ReadableInfo[k] = v
	}
	for k, v := range r.reportInfo {
		r.ReadableInfo[k] = v
	}

	r.Classification = strings.TrimSpace(r.reportInfo[FieldClassification])
	if r.Classification == "" {
		r.Classification = strings.TrimSpace(r.simpleInfo[FieldClassification])
	}

	r.PathValidity = r.records(p)
	return r, nil
}

func (r *Response) problem(format string, a ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, a...))
}

func (r *Response) fieldMap(p Parameters, key string) map[string]string {
	v, present := p[key]
	if !present || v == nil {
		return nil
	}
	m, ok := v.(map[string]string)
	if !ok {
		r.problem("%s has unexpected type %T", key, v)
		return nil
	}
	return m
}

func (r *Response) records(p Parameters) []EvidenceRecord {
	v, present := p[KeyPathValidity]
	if !present || v == nil {
		return nil
	}
	var raw []Parameters
	switch t := v.(type) {
	case []Parameters:
		raw = t
	case Parameters:
		raw = []Parameters{t}
	default:
		r.problem("%s has unexpected type %T", KeyPathValidity, v)
		return nil
	}

	records := make([]EvidenceRecord, 0, len(raw))
	for i, rp := range raw {
		issuer, okIssuer := stringAt(rp, KeyRecordIssuerName)
		serial, okSerial := stringAt(rp, KeyRecordSerialNumber)
		if !okIssuer || !okSerial {
			r.problem("path validity record %d has no certificate identifier", i)
			continue
		}
		ocspValue, _ := stringAt(rp, KeyRecordOCSPValue)
		records = append(records, EvidenceRecord{
			IssuerName:        issuer,
			SerialNumber:      serial,
			RawEvidenceBase64: ocspValue,
		})
	}
	return records
}

// stringAt returns the trimmed string stored under key, if there is one.
func stringAt(p Parameters, key string) (string, bool) {
	s, ok := p[key].(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}
