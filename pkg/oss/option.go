package oss

import (
	"fmt"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"net/http"
	"strconv"
)

type Option func(client *client)

// WithCustomDomain marks the endpoint as a CNAME bound to the bucket,
// so that the bucket name is never embedded into request URLs.
func WithCustomDomain() Option {
	return func(client *client) {
		client.isCustomDomain = true
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(client *client) {
		client.httpClient = httpClient
	}
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(client *client) {
		client.logger = logger
	}
}

// WithAppName appends the application name to the User-Agent header.
func WithAppName(appName string) Option {
	return func(client *client) {
		client.appName = appName
	}
}

// WithMeterProvider reports request metrics to the meterProvider
// instead of the globally installed one.
func WithMeterProvider(meterProvider metric.MeterProvider) Option {
	return func(client *client) {
		client.meterProvider = meterProvider
	}
}

// RequestOption customizes a single request.
type RequestOption func(request *request)

func WithHeader(key string, value string) RequestOption {
	return func(request *request) {
		request.header.Set(key, value)
	}
}

func WithParam(key string, value string) RequestOption {
	return func(request *request) {
		request.params[key] = value
	}
}

// WithMetadata sets a user metadata entry, stored as an x-oss-meta-* header.
func WithMetadata(key string, value string) RequestOption {
	return WithHeader(HeaderMetaPrefix+key, value)
}

func WithContentType(contentType string) RequestOption {
	return WithHeader("Content-Type", contentType)
}

// WithRange requests a byte range of an object. Negative positions
// leave the corresponding side of the range open, e.g. WithRange(-1, 99)
// requests the last 100 bytes.
func WithRange(start int64, last int64) RequestOption {
	return func(request *request) {
		if rangeHeader := makeRange(start, last); rangeHeader != "" {
			request.header.Set("Range", rangeHeader)
		}
	}
}

func makeRange(start int64, last int64) string {
	if start < 0 && last < 0 {
		return ""
	}

	toString := func(pos int64) string {
		if pos < 0 {
			return ""
		}

		return strconv.FormatInt(pos, 10)
	}

	return fmt.Sprintf("bytes=%s-%s", toString(start), toString(last))
}
