// Package oss is a client for OSS-style object storage: bucket and object
// operations, multipart uploads, ACLs, lifecycle rules and live channels.
//
// Request URLs are produced by the endpoint package, which picks
// virtual-hosted, path-style or custom domain addressing per request.
// Signing is delegated to an auth.Signer.
//
// All clients are safe for concurrent use.
package oss

import (
	"context"
	"encoding/xml"
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/opentelemetry"
	"github.com/cirruslabs/asyncoss/internal/version"
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"github.com/cirruslabs/asyncoss/pkg/oss/auth"
	"github.com/cirruslabs/asyncoss/pkg/percentencoding"
	"github.com/samber/lo"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"io"
	"net/http"
	"runtime"
	"slices"
	"strings"
)

const (
	HeaderRequestID       = "X-Oss-Request-Id"
	HeaderMetaPrefix      = "X-Oss-Meta-"
	HeaderACL             = "X-Oss-Acl"
	HeaderObjectACL       = "X-Oss-Object-Acl"
	HeaderCopySource      = "X-Oss-Copy-Source"
	HeaderCopySourceRange = "X-Oss-Copy-Source-Range"
	HeaderMetadataDirect  = "X-Oss-Metadata-Directive"
	HeaderSymlinkTarget   = "X-Oss-Symlink-Target"
	HeaderNextAppendPos   = "X-Oss-Next-Append-Position"
	HeaderObjectType      = "X-Oss-Object-Type"
)

//nolint:gochecknoglobals // computed once
var userAgent = fmt.Sprintf("asyncoss/%s (%s/%s; %s)", version.FullVersion,
	runtime.GOOS, runtime.GOARCH, runtime.Version())

type client struct {
	urlMaker       *endpoint.URLMaker
	signer         auth.Signer
	httpClient     *http.Client
	logger         *zap.SugaredLogger
	isCustomDomain bool
	appName        string

	// Metrics
	meterProvider   metric.MeterProvider
	requestsCounter metric.Int64Counter
}

type request struct {
	method        string
	bucket        string
	key           string
	objectScoped  bool
	params        map[string]string
	header        http.Header
	body          io.Reader
	contentLength int64
}

func newClient(rawEndpoint string, signer auth.Signer, opts ...Option) (*client, error) {
	client := &client{
		signer: signer,
	}

	// Apply options
	for _, opt := range opts {
		opt(client)
	}

	// Apply defaults
	if client.signer == nil {
		client.signer = auth.NewAnonymous()
	}

	if client.httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()

		// Object bodies are passed through as-is
		transport.DisableCompression = true

		var otelhttpOpts []otelhttp.Option
		if client.meterProvider != nil {
			otelhttpOpts = append(otelhttpOpts, otelhttp.WithMeterProvider(client.meterProvider))
		}

		client.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(transport, otelhttpOpts...),
		}
	}

	if client.logger == nil {
		client.logger = zap.NewNop().Sugar()
	}

	urlMaker, err := endpoint.NewURLMaker(rawEndpoint, client.isCustomDomain)
	if err != nil {
		return nil, err
	}
	client.urlMaker = urlMaker

	// Metrics
	client.requestsCounter, err = opentelemetry.NewRequestCounter(client.meterProvider)
	if err != nil {
		return nil, err
	}

	return client, nil
}

func newRequest(method string, bucket string, key string, opts ...RequestOption) *request {
	request := &request{
		method:        method,
		bucket:        bucket,
		key:           key,
		params:        map[string]string{},
		header:        http.Header{},
		contentLength: -1,
	}

	for _, opt := range opts {
		opt(request)
	}

	return request
}

// newObjectRequest creates a request that addresses a single object,
// such requests are never sent without a key.
func newObjectRequest(method string, bucket string, key string, opts ...RequestOption) *request {
	request := newRequest(method, bucket, key, opts...)
	request.objectScoped = true

	return request
}

func (request *request) withBody(body io.Reader, contentLength int64) *request {
	request.body = body
	request.contentLength = contentLength

	return request
}

func (client *client) httpRequest(ctx context.Context, request *request) (*http.Request, error) {
	// An object request with no key would address the bucket itself
	if request.objectScoped && request.key == "" {
		return nil, fmt.Errorf("%w: refusing to send %s request to bucket %q", ErrEmptyKey,
			request.method, request.bucket)
	}

	rawURL, err := client.urlMaker.Make(request.bucket, request.key)
	if err != nil {
		return nil, err
	}

	if query := encodeParams(request.params); query != "" {
		rawURL += "?" + query
	}

	httpRequest, err := http.NewRequestWithContext(ctx, request.method, rawURL, request.body)
	if err != nil {
		return nil, err
	}

	for key, values := range request.header {
		httpRequest.Header[key] = values
	}

	if request.contentLength >= 0 {
		httpRequest.ContentLength = request.contentLength

		if request.contentLength == 0 {
			httpRequest.Body = http.NoBody
		}
	}

	if httpRequest.Header.Get("User-Agent") == "" {
		if client.appName != "" {
			httpRequest.Header.Set("User-Agent", userAgent+"/"+client.appName)
		} else {
			httpRequest.Header.Set("User-Agent", userAgent)
		}
	}

	return httpRequest, nil
}

// do performs the request and returns the response on 2xx, the caller
// is responsible for closing its body. Any other status code results
// in a *ServiceError.
func (client *client) do(ctx context.Context, request *request) (*http.Response, error) {
	httpRequest, err := client.httpRequest(ctx, request)
	if err != nil {
		return nil, err
	}

	if err := client.signer.Sign(ctx, httpRequest, request.bucket, request.key); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}

	client.logger.Debugf("%s %s", httpRequest.Method, httpRequest.URL.Redacted())

	response, err := client.httpClient.Do(httpRequest)
	if err != nil {
		return nil, err
	}

	//nolint:contextcheck // can't use ctx here because it might be canceled
	client.requestsCounter.Add(context.Background(), 1, metric.WithAttributes(
		attribute.String("method", request.method),
		attribute.Int("status_code", response.StatusCode),
		attribute.String("addressing_mode", client.urlMaker.Mode(request.bucket).String()),
	))

	client.logger.With(
		"method", httpRequest.Method,
		"status_code", response.StatusCode,
		"request_id", response.Header.Get(HeaderRequestID),
		"bucket", request.bucket,
		"key", request.key,
	).Debugf("request completed")

	if response.StatusCode/100 != 2 {
		defer response.Body.Close()

		return nil, newServiceError(response)
	}

	// Release the connection early when there's nothing to read
	if response.ContentLength == 0 {
		_, _ = io.Copy(io.Discard, response.Body)
		_ = response.Body.Close()

		response.Body = http.NoBody
	}

	return response, nil
}

// doAndDiscard performs the request and only keeps the response metadata
func (client *client) doAndDiscard(ctx context.Context, request *request) (*RequestResult, error) {
	response, err := client.do(ctx, request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	_, _ = io.Copy(io.Discard, response.Body)

	return newRequestResult(response), nil
}

// doAndParse performs the request and decodes the XML response body into result
func (client *client) doAndParse(ctx context.Context, request *request, result any) (*RequestResult, error) {
	response, err := client.do(ctx, request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if err := xml.NewDecoder(response.Body).Decode(result); err != nil {
		return nil, fmt.Errorf("failed to parse response to %s %s: %w", request.method,
			response.Request.URL.Redacted(), err)
	}

	return newRequestResult(response), nil
}

// encodeParams renders query parameters in a stable order, parameters with
// empty values (sub-resources such as "acl") are rendered as bare keys
func encodeParams(params map[string]string) string {
	keys := lo.Keys(params)
	slices.Sort(keys)

	return strings.Join(lo.Map(keys, func(key string, _ int) string {
		value := params[key]

		if value == "" {
			return percentencoding.EncodeComponent(key)
		}

		return percentencoding.EncodeComponent(key) + "=" + percentencoding.EncodeComponent(value)
	}), "&")
}

func xmlBody(value any) (*strings.Reader, error) {
	xmlBytes, err := xml.Marshal(value)
	if err != nil {
		return nil, err
	}

	return strings.NewReader(xml.Header + string(xmlBytes)), nil
}
