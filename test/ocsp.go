package test

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"fmt"
	"math/big"
	"testing"
	"time"

	"github.com/jmhodges/clock"
	"golang.org/x/crypto/cryptobyte"
	cryptobyte_asn1 "golang.org/x/crypto/cryptobyte/asn1"
	"golang.org/x/crypto/ocsp"
)

// SingleStatus describes the one SingleResponse carried by a
// BasicOCSPResponse built with BasicOCSPResponse.
type SingleStatus struct {
	Serial     *big.Int
	Status     int
	ThisUpdate time.Time
	RevokedAt  time.Time
	// Reason, when non-nil, is encoded as an explicit revocationReason even
	// when it is zero. encoding/asn1 (and so ocsp.CreateResponse) drops a zero
	// reason, which makes it impossible to produce an explicit "unspecified".
	Reason *int
}

var (
	oidSHA1            = asn1.ObjectIdentifier{1, 3, 14, 3, 2, 26}
	oidECDSAWithSHA256 = asn1.ObjectIdentifier{1, 2, 840, 10045, 4, 3, 2}
)

// BasicOCSPResponse returns the DER of an unsigned BasicOCSPResponse holding
// a SingleResponse for s, followed by one for each of more. The signature is
// a placeholder: x/crypto/ocsp only checks it when certificates are embedded
// or an issuer is provided, and neither is the case here.
func BasicOCSPResponse(t *testing.T, s SingleStatus, more ...SingleStatus) []byte {
	t.Helper()
	singles := append([]SingleStatus{s}, more...)
	for i := range singles {
		if singles[i].Serial == nil {
			singles[i].Serial = big.NewInt(int64(i + 1))
		}
		if singles[i].ThisUpdate.IsZero() {
			singles[i].ThisUpdate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		}
	}

	var b cryptobyte.Builder
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(basic *cryptobyte.Builder) {
		basic.AddASN1(cryptobyte_asn1.SEQUENCE, func(tbs *cryptobyte.Builder) {
			// responderID byKey [2] EXPLICIT KeyHash
			tbs.AddASN1(cryptobyte_asn1.Tag(2).ContextSpecific().Constructed(), func(rid *cryptobyte.Builder) {
				rid.AddASN1OctetString(make([]byte, 20))
			})
			tbs.AddASN1GeneralizedTime(singles[0].ThisUpdate)
			tbs.AddASN1(cryptobyte_asn1.SEQUENCE, func(responses *cryptobyte.Builder) {
				for _, s := range singles {
					responses.AddASN1(cryptobyte_asn1.SEQUENCE, func(single *cryptobyte.Builder) {
						addCertID(single, s.Serial)
						addCertStatus(single, s)
						single.AddASN1GeneralizedTime(s.ThisUpdate)
					})
				}
			})
		})
		basic.AddASN1(cryptobyte_asn1.SEQUENCE, func(alg *cryptobyte.Builder) {
			alg.AddASN1ObjectIdentifier(oidECDSAWithSHA256)
		})
		basic.AddASN1BitString([]byte{0x00})
	})
	der, err := b.Bytes()
	AssertNotError(t, err, "building BasicOCSPResponse")
	return der
}

func addCertID(b *cryptobyte.Builder, serial *big.Int) {
	b.AddASN1(cryptobyte_asn1.SEQUENCE, func(certID *cryptobyte.Builder) {
		certID.AddASN1(cryptobyte_asn1.SEQUENCE, func(alg *cryptobyte.Builder) {
			alg.AddASN1ObjectIdentifier(oidSHA1)
			alg.AddASN1NULL()
		})
		certID.AddASN1OctetString(make([]byte, 20))
		certID.AddASN1OctetString(make([]byte, 20))
		certID.AddASN1BigInt(serial)
	})
}

func addCertStatus(b *cryptobyte.Builder, s SingleStatus) {
	switch s.Status {
	case ocsp.Good:
		b.AddASN1(cryptobyte_asn1.Tag(0).ContextSpecific(), func(*cryptobyte.Builder) {})
	case ocsp.Revoked:
		b.AddASN1(cryptobyte_asn1.Tag(1).ContextSpecific().Constructed(), func(revoked *cryptobyte.Builder) {
			revoked.AddASN1GeneralizedTime(s.RevokedAt)
			if s.Reason != nil {
				revoked.AddASN1(cryptobyte_asn1.Tag(0).ContextSpecific().Constructed(), func(reason *cryptobyte.Builder) {
					reason.AddASN1Enum(int64(*s.Reason))
				})
			}
		})
	default:
		b.AddASN1(cryptobyte_asn1.Tag(2).ContextSpecific(), func(*cryptobyte.Builder) {})
	}
}

// ThrowAwayCert is a small test helper function that creates a self-signed
// certificate. It returns the certificate's serial in the decimal form the
// remote validation service reports, along with the parsed certificate.
func ThrowAwayCert(t *testing.T, clk clock.Clock) (string, *x509.Certificate) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	AssertNotError(t, err, "generating key")

	serial, err := rand.Int(rand.Reader, big.NewInt(1<<62))
	AssertNotError(t, err, "generating serial")

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   fmt.Sprintf("Throwaway %d", serial),
			Organization: []string{"Certval Test"},
		},
		NotBefore: clk.Now(),
		NotAfter:  clk.Now().Add(6 * 24 * time.Hour),
		KeyUsage:  x509.KeyUsageDigitalSignature,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, key.Public(), key)
	AssertNotError(t, err, "creating certificate")
	cert, err := x509.ParseCertificate(der)
	AssertNotError(t, err, "parsing certificate")
	return serial.String(), cert
}
