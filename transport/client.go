// Package transport posts validation requests to the remote validation service
// over SOAP 1.1 and HTTP.
package transport

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	berrors "github.com/letsencrypt/certval/errors"
	blog "github.com/letsencrypt/certval/log"
	"github.com/letsencrypt/certval/metrics/measured_http"
)

// maxResponseSize bounds how much of a service response is read.
const maxResponseSize = 8 << 20

// Client invokes the validation service. Responses are cached per endpoint
// and identical concurrent requests share a single call. It is safe for
// concurrent use.
type Client struct {
	clk   clock.Clock
	log   blog.Logger
	calls *prometheus.CounterVec
	rt    *measured_http.MeasuredTransport

	mu sync.Mutex
	// caches is keyed by request URL.
	caches map[string]*responseCache
	// clients is keyed by credential file; "" is the client without a TLS
	// client certificate.
	clients map[string]*http.Client

	group singleflight.Group
}

// New returns a Client. Metrics are registered with stats.
func New(clk clock.Clock, stats prometheus.Registerer, logger blog.Logger) *Client {
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "dss_transport_calls_total",
		Help: "Calls to the validation service, by result: success, cache_hit, unavailable or error",
	}, []string{"result"})
	stats.MustRegister(calls)

	return &Client{
		clk:     clk,
		log:     logger,
		calls:   calls,
		rt:      measured_http.New(otelhttp.NewTransport(http.DefaultTransport.(*http.Transport).Clone()), clk, stats),
		caches:  make(map[string]*responseCache),
		clients: make(map[string]*http.Client),
	}
}

// Invoke posts request to the service described by conn and returns the
// response document. Failures to reach the service, timeouts and gateway
// errors are ServiceUnavailable errors; any other failure is a ServiceError.
func (c *Client) Invoke(ctx context.Context, request []byte, conn ConnectionParams) ([]byte, error) {
	conn = conn.withDefaults()
	if conn.Endpoint == "" {
		return nil, berrors.ServiceErrorError("no validation service endpoint configured")
	}

	key := cacheKey(conn, request)
	cache := c.cacheFor(conn)
	if resp, ok := cache.get(key); ok {
		c.calls.WithLabelValues("cache_hit").Inc()
		return resp, nil
	}

	val, err, shared := c.group.Do(key, func() (any, error) {
		resp, err := c.post(ctx, request, conn)
		if err != nil {
			return nil, err
		}
		cache.add(key, resp)
		return resp, nil
	})
	if err != nil {
		if berrors.Is(err, berrors.ServiceUnavailable) {
			c.calls.WithLabelValues("unavailable").Inc()
		} else {
			c.calls.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	if shared {
		c.log.Debugf("Shared in-flight validation service call to %s", conn.URL())
	}
	c.calls.WithLabelValues("success").Inc()
	return append([]byte(nil), val.([]byte)...), nil
}

func (c *Client) post(ctx context.Context, request []byte, conn ConnectionParams) ([]byte, error) {
	client, err := c.httpClient(conn)
	if err != nil {
		return nil, berrors.Wrap(berrors.ServiceError, err, "loading client credential")
	}
	body, err := wrapRequest(request, conn.Username, conn.Password)
	if err != nil {
		return nil, berrors.Wrap(berrors.ServiceError, err, "building SOAP request")
	}

	ctx, cancel := context.WithTimeout(ctx, conn.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, conn.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, berrors.Wrap(berrors.ServiceError, err, "building HTTP request")
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := client.Do(req)
	if err != nil {
		c.log.Warningf("Validation service at %s unreachable: %s", conn.URL(), err)
		return nil, berrors.Wrap(berrors.ServiceUnavailable, err, "calling validation service")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, berrors.ServiceUnavailableError("validation service returned HTTP %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if isTimeout(err) {
			return nil, berrors.Wrap(berrors.ServiceUnavailable, err, "reading validation service response")
		}
		return nil, berrors.Wrap(berrors.ServiceError, err, "reading validation service response")
	}

	// SOAP faults are delivered with HTTP 500, so the envelope is parsed
	// before the status is judged.
	doc, err := unwrapResponse(bytes.NewReader(raw))
	var fault faultError
	if errors.As(err, &fault) {
		return nil, berrors.Wrap(berrors.ServiceError, err, "validation service fault")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, berrors.ServiceErrorError("validation service returned HTTP %d", resp.StatusCode)
	}
	if err != nil {
		return nil, berrors.Wrap(berrors.ServiceError, err, "unexpected validation service response")
	}
	return doc, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (c *Client) cacheFor(conn ConnectionParams) *responseCache {
	c.mu.Lock()
	defer c.mu.Unlock()
	cache, ok := c.caches[conn.URL()]
	if !ok {
		cache = newResponseCache(conn.CacheEntries, conn.CacheTTL, c.clk)
		c.caches[conn.URL()] = cache
	}
	return cache
}

// httpClient returns the HTTP client presenting conn's credential file. The
// credential is loaded once per file.
func (c *Client) httpClient(conn ConnectionParams) (*http.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if client, ok := c.clients[conn.CredentialFile]; ok {
		return client, nil
	}

	var rt http.RoundTripper = c.rt
	if conn.CredentialFile != "" {
		cert, err := tls.LoadX509KeyPair(conn.CredentialFile, conn.CredentialFile)
		if err != nil {
			return nil, err
		}
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}
		rt = c.rt.With(otelhttp.NewTransport(tr))
	}
	client := &http.Client{Transport: rt}
	c.clients[conn.CredentialFile] = client
	return client, nil
}

// cacheKey identifies a request to one service on behalf of one user and
// TLS client credential.
func cacheKey(conn ConnectionParams, request []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%s\x00", conn.URL(), conn.Username, conn.CredentialFile)
	h.Write(request)
	return hex.EncodeToString(h.Sum(nil))
}
