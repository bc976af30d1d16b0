// Package endpoint decides how a bucket is addressed on an object storage
// endpoint and renders request URLs accordingly.
//
// Three addressing modes are supported:
//
//   - virtual-hosted: the bucket is a DNS subdomain of the endpoint host
//     (http://bucket.oss-cn-hangzhou.aliyuncs.com/key)
//   - path-style: the bucket is the first path segment
//     (http://192.168.1.1/bucket/key)
//   - custom domain: the endpoint is a CNAME that already identifies
//     the bucket (http://cdn.example.com/key)
package endpoint

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	ErrInvalidEndpoint    = errors.New("invalid endpoint")
	ErrInvariantViolation = errors.New("invariant violation")
)

type Endpoint struct {
	Scheme string
	Host   string
}

// Parse derives an Endpoint from a raw endpoint string such as
// "oss-cn-hangzhou.aliyuncs.com" or "https://127.0.0.1:9000".
//
// Endpoints without a scheme default to plain HTTP. Any path,
// query or fragment of the raw string is ignored.
func Parse(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)

	if raw == "" {
		return Endpoint{}, fmt.Errorf("%w: empty endpoint", ErrInvalidEndpoint)
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %v", ErrInvalidEndpoint, err)
	}

	switch parsed.Scheme {
	case "http", "https":
		// supported
	default:
		return Endpoint{}, fmt.Errorf("%w: unsupported scheme %q in %q", ErrInvalidEndpoint,
			parsed.Scheme, raw)
	}

	if parsed.Host == "" || parsed.Hostname() == "" {
		return Endpoint{}, fmt.Errorf("%w: no host in %q", ErrInvalidEndpoint, raw)
	}

	return Endpoint{
		Scheme: parsed.Scheme,
		Host:   parsed.Host,
	}, nil
}

func (endpoint Endpoint) String() string {
	return endpoint.Scheme + "://" + endpoint.Host
}
