package core

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path"

	berrors "github.com/letsencrypt/certval/errors"
)

// SerialToString converts a certificate serial number (big.Int) to a String
// consistently.
func SerialToString(serial *big.Int) string {
	return fmt.Sprintf("%036x", serial)
}

// Command returns the name of the running binary.
func Command() string {
	return path.Base(os.Args[0])
}

// Certificate is an X.509 certificate as handed to the validator. DER returns
// its canonical encoding, or a Malformed error if the certificate cannot be
// normalized.
type Certificate struct {
	raw []byte
}

// NewCertificate wraps raw certificate bytes. They are not checked until DER
// is called.
func NewCertificate(raw []byte) *Certificate {
	return &Certificate{raw: raw}
}

// FromX509 wraps an already parsed certificate.
func FromX509(cert *x509.Certificate) *Certificate {
	return &Certificate{raw: cert.Raw}
}

// DER strips any PEM wrapper and re-parses the certificate, so only a
// well-formed DER certificate ever reaches the remote service.
func (c *Certificate) DER() ([]byte, error) {
	if c == nil || len(c.raw) == 0 {
		return nil, berrors.MalformedError("empty certificate")
	}
	raw := c.raw
	if block, _ := pem.Decode(raw); block != nil {
		if block.Type != "CERTIFICATE" {
			return nil, berrors.MalformedError("unexpected PEM block type %q", block.Type)
		}
		raw = block.Bytes
	}
	cert, err := x509.ParseCertificate(raw)
	if err != nil {
		return nil, berrors.Wrap(berrors.Malformed, err, "normalizing certificate")
	}
	return cert.Raw, nil
}

// LoadCert loads a PEM or DER certificate from the provided path.
func LoadCert(filename string) (*Certificate, error) {
	if filename == "" {
		return nil, errors.New("no certificate file provided")
	}
	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	cert := NewCertificate(contents)
	if _, err := cert.DER(); err != nil {
		return nil, fmt.Errorf("loading %s: %w", filename, err)
	}
	return cert, nil
}
