package dss

// EvidenceRecord is the validity record the service reports for one
// certificate of the validated path.
type EvidenceRecord struct {
	IssuerName   string
	SerialNumber string
	// RawEvidenceBase64 is the base64 encoded BasicOCSPResponse used as
	// revocation evidence. Empty when the service supplied none.
	RawEvidenceBase64 string
}

// FindEvidence returns the record whose issuer name and serial number are
// exactly issuerName and serialNumber. The second return value is the number
// of records that matched; when several match, the last one is returned.
func FindEvidence(records []EvidenceRecord, issuerName, serialNumber string) (EvidenceRecord, int) {
	var found EvidenceRecord
	matches := 0
	for _, rec := range records {
		if rec.IssuerName == issuerName && rec.SerialNumber == serialNumber {
			found = rec
			matches++
		}
	}
	return found, matches
}
