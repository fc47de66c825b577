package transport

import (
	"strings"
	"time"
)

// Fixed connection settings of the validation service.
const (
	DefaultCacheEntries = 2
	DefaultCacheTTL     = 120 * time.Second
	DefaultTimeout      = 20 * time.Second
	DefaultServicePath  = "/afirmaws/services/DSSAfirmaVerifyCertificate"
)

// ConnectionParams describe how to reach the validation service on behalf of
// one application.
type ConnectionParams struct {
	// Endpoint is the scheme, host and optional port of the service, e.g.
	// https://afirma.example.org.
	Endpoint    string
	Application string

	// Username and Password, when Username is set, are sent as a WS-Security
	// UsernameToken.
	Username string
	Password string
	// CredentialFile is a PEM file holding a certificate and its private key,
	// presented as a TLS client certificate.
	CredentialFile string

	CacheEntries int
	CacheTTL     time.Duration
	Timeout      time.Duration
	ServicePath  string
}

// NewConnectionParams returns the parameters for endpoint and application
// with the fixed cache, timeout and service path settings filled in.
func NewConnectionParams(endpoint, application string) ConnectionParams {
	return ConnectionParams{
		Endpoint:     endpoint,
		Application:  application,
		CacheEntries: DefaultCacheEntries,
		CacheTTL:     DefaultCacheTTL,
		Timeout:      DefaultTimeout,
		ServicePath:  DefaultServicePath,
	}
}

// withDefaults fills any zero setting with its fixed value.
func (cp ConnectionParams) withDefaults() ConnectionParams {
	if cp.CacheEntries == 0 {
		cp.CacheEntries = DefaultCacheEntries
	}
	if cp.CacheTTL == 0 {
		cp.CacheTTL = DefaultCacheTTL
	}
	if cp.Timeout == 0 {
		cp.Timeout = DefaultTimeout
	}
	if cp.ServicePath == "" {
		cp.ServicePath = DefaultServicePath
	}
	return cp
}

// URL is the address requests are posted to.
func (cp ConnectionParams) URL() string {
	return strings.TrimRight(cp.Endpoint, "/") + "/" + strings.TrimLeft(cp.ServicePath, "/")
}
