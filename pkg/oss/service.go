package oss

import (
	"context"
	"github.com/cirruslabs/asyncoss/pkg/oss/auth"
	"net/http"
	"strconv"
)

// Service performs account-level operations that have no bucket context.
type Service struct {
	client *client
}

func NewService(rawEndpoint string, signer auth.Signer, opts ...Option) (*Service, error) {
	client, err := newClient(rawEndpoint, signer, opts...)
	if err != nil {
		return nil, err
	}

	return &Service{
		client: client,
	}, nil
}

func (service *Service) ListBuckets(ctx context.Context, input ListBucketsInput) (*ListBucketsResult, error) {
	request := newRequest(http.MethodGet, "", "")
	setNonEmpty(request.params, "prefix", input.Prefix)
	setNonEmpty(request.params, "marker", input.Marker)
	setPositive(request.params, "max-keys", input.MaxKeys)

	var result ListBucketsResult

	requestResult, err := service.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

func setNonEmpty(params map[string]string, key string, value string) {
	if value != "" {
		params[key] = value
	}
}

func setPositive(params map[string]string, key string, value int) {
	if value > 0 {
		params[key] = strconv.Itoa(value)
	}
}
