// Package auth signs object storage requests.
package auth

import (
	"context"
	"net/http"
	"time"
)

// Signer authenticates a request that targets the given bucket and key.
// Either of them is empty for service-level and bucket-level requests.
type Signer interface {
	Sign(ctx context.Context, request *http.Request, bucket string, key string) error
	Presign(ctx context.Context, request *http.Request, bucket string, key string,
		expires time.Duration) (string, error)
}

type Anonymous struct{}

func NewAnonymous() *Anonymous {
	return &Anonymous{}
}

func (anonymous *Anonymous) Sign(_ context.Context, _ *http.Request, _ string, _ string) error {
	return nil
}

func (anonymous *Anonymous) Presign(
	_ context.Context,
	request *http.Request,
	_ string,
	_ string,
	_ time.Duration,
) (string, error) {
	return request.URL.String(), nil
}
