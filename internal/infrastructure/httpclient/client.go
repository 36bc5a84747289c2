// Package httpclient provides the otelhttp-instrumented implementation
// of pkg/interfaces.HttpClient the Gateway's fan-out engine uses to
// call Location Services, so every outbound call gets an OTel span
// automatically (spec §4.1's tracing requirement, pkg/tracing).
package httpclient

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/biometricfleet/attendance/pkg/interfaces"
)

// New builds an interfaces.HttpClient wrapping a new http.Transport
// in otelhttp's RoundTripper, with connection pooling tuned for
// many-Location fan-out (spec §4.1 "dozens of Locations per Gateway").
func New(defaultTimeout time.Duration) interfaces.HttpClient {
	transport := &http.Transport{
		MaxIdleConns:        200,
		MaxIdleConnsPerHost: 20,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{
		Transport: otelhttp.NewTransport(transport),
		Timeout:   defaultTimeout,
	}
}
