// Package measured_http wraps an http.RoundTripper and records how long
// outbound calls to the validation service take.
package measured_http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jmhodges/clock"
	"github.com/prometheus/client_golang/prometheus"
)

// MeasuredTransport wraps an http.RoundTripper and records prometheus stats.
type MeasuredTransport struct {
	http.RoundTripper
	clk  clock.Clock
	stat *prometheus.HistogramVec
}

// New returns a MeasuredTransport around rt. The histogram is registered with
// stats.
func New(rt http.RoundTripper, clk clock.Clock, stats prometheus.Registerer) *MeasuredTransport {
	stat := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dss_call_time_seconds",
			Help: "Time taken by calls to the validation service",
		},
		[]string{"service", "method", "code"})
	stats.MustRegister(stat)
	return &MeasuredTransport{
		RoundTripper: rt,
		clk:          clk,
		stat:         stat,
	}
}

// With returns a MeasuredTransport around rt that records into the same
// histogram as m.
func (m *MeasuredTransport) With(rt http.RoundTripper) *MeasuredTransport {
	return &MeasuredTransport{
		RoundTripper: rt,
		clk:          m.clk,
		stat:         m.stat,
	}
}

// serviceFromPath returns the last path component, which names the service
// being called.
func serviceFromPath(path string) string {
	path = strings.TrimRight(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		path = path[i+1:]
	}
	if path == "" {
		return "/"
	}
	return path
}

func (m *MeasuredTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	begin := m.clk.Now()
	code := "error"
	defer func() {
		m.stat.With(prometheus.Labels{
			"service": serviceFromPath(r.URL.Path),
			"method":  r.Method,
			"code":    code,
		}).Observe(m.clk.Since(begin).Seconds())
	}()

	resp, err := m.RoundTripper.RoundTrip(r)
	if err != nil {
		return nil, err
	}
	code = fmt.Sprintf("%d", resp.StatusCode)
	return resp, nil
}
