package oss

import (
	"bytes"
	"context"
	"fmt"
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"github.com/cirruslabs/asyncoss/pkg/oss/auth"
	"io"
	"net/http"
	"strings"
)

// Bucket performs bucket-level and object-level operations on a single bucket.
type Bucket struct {
	client *client
	name   string
}

func NewBucket(rawEndpoint string, bucketName string, signer auth.Signer, opts ...Option) (*Bucket, error) {
	client, err := newClient(rawEndpoint, signer, opts...)
	if err != nil {
		return nil, err
	}

	bucketName = strings.TrimSpace(bucketName)
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name cannot be empty")
	}

	return &Bucket{
		client: client,
		name:   bucketName,
	}, nil
}

func (bucket *Bucket) Name() string {
	return bucket.name
}

// Mode returns the addressing mode used for this bucket's requests.
func (bucket *Bucket) Mode() endpoint.Mode {
	return bucket.client.urlMaker.Mode(bucket.name)
}

// URL returns the unsigned URL of an object.
func (bucket *Bucket) URL(key string) (string, error) {
	return bucket.client.urlMaker.Make(bucket.name, key)
}

func (bucket *Bucket) CreateBucket(ctx context.Context, input CreateBucketInput) (*RequestResult, error) {
	request := newRequest(http.MethodPut, bucket.name, "")

	if input.ACL != "" {
		request.header.Set(HeaderACL, input.ACL)
	}

	if input.StorageClass != "" {
		body, err := xmlBody(&createBucketConfiguration{StorageClass: input.StorageClass})
		if err != nil {
			return nil, err
		}

		request.withBody(body, body.Size())
	}

	return bucket.client.doAndDiscard(ctx, request)
}

// DeleteBucket only succeeds for buckets with no objects
// and no unfinished multipart uploads.
func (bucket *Bucket) DeleteBucket(ctx context.Context) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newRequest(http.MethodDelete, bucket.name, ""))
}

func (bucket *Bucket) PutBucketACL(ctx context.Context, acl string) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newRequest(http.MethodPut, bucket.name, "",
		WithHeader(HeaderACL, acl), WithParam(SubresourceACL, "")))
}

func (bucket *Bucket) GetBucketACL(ctx context.Context) (*GetACLResult, error) {
	var result GetACLResult

	requestResult, err := bucket.client.doAndParse(ctx, newRequest(http.MethodGet, bucket.name, "",
		WithParam(SubresourceACL, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

func (bucket *Bucket) PutBucketLifecycle(
	ctx context.Context,
	lifecycle LifecycleConfiguration,
) (*RequestResult, error) {
	body, err := xmlBody(&lifecycle)
	if err != nil {
		return nil, err
	}

	request := newRequest(http.MethodPut, bucket.name, "", WithParam(SubresourceLifecycle, "")).
		withBody(body, body.Size())

	return bucket.client.doAndDiscard(ctx, request)
}

func (bucket *Bucket) GetBucketLifecycle(ctx context.Context) (*GetBucketLifecycleResult, error) {
	var result GetBucketLifecycleResult

	requestResult, err := bucket.client.doAndParse(ctx, newRequest(http.MethodGet, bucket.name, "",
		WithParam(SubresourceLifecycle, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// DeleteBucketLifecycle succeeds even if no lifecycle rules were configured.
func (bucket *Bucket) DeleteBucketLifecycle(ctx context.Context) (*RequestResult, error) {
	return bucket.DeleteBucketConfig(ctx, SubresourceLifecycle)
}

func (bucket *Bucket) GetBucketLocation(ctx context.Context) (*GetBucketLocationResult, error) {
	var result GetBucketLocationResult

	requestResult, err := bucket.client.doAndParse(ctx, newRequest(http.MethodGet, bucket.name, "",
		WithParam(SubresourceLocation, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

func (bucket *Bucket) GetBucketInfo(ctx context.Context) (*GetBucketInfoResult, error) {
	var result GetBucketInfoResult

	requestResult, err := bucket.client.doAndParse(ctx, newRequest(http.MethodGet, bucket.name, "",
		WithParam(SubresourceBucketInfo, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// GetBucketStat reports the storage used, the number of objects and
// the number of unfinished multipart uploads.
func (bucket *Bucket) GetBucketStat(ctx context.Context) (*GetBucketStatResult, error) {
	var result GetBucketStatResult

	requestResult, err := bucket.client.doAndParse(ctx, newRequest(http.MethodGet, bucket.name, "",
		WithParam(SubresourceStat, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// GetBucketConfig returns the raw XML of a bucket sub-resource,
// e.g. SubresourceCORS or SubresourceWebsite.
func (bucket *Bucket) GetBucketConfig(ctx context.Context, subresource string) ([]byte, error) {
	if err := checkSubresource(subresource); err != nil {
		return nil, err
	}

	response, err := bucket.client.do(ctx, newRequest(http.MethodGet, bucket.name, "",
		WithParam(subresource, "")))
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return io.ReadAll(response.Body)
}

func (bucket *Bucket) PutBucketConfig(ctx context.Context, subresource string, config []byte) (*RequestResult, error) {
	if err := checkSubresource(subresource); err != nil {
		return nil, err
	}

	request := newRequest(http.MethodPut, bucket.name, "", WithParam(subresource, "")).
		withBody(bytes.NewReader(config), int64(len(config)))

	return bucket.client.doAndDiscard(ctx, request)
}

func (bucket *Bucket) DeleteBucketConfig(ctx context.Context, subresource string) (*RequestResult, error) {
	if err := checkSubresource(subresource); err != nil {
		return nil, err
	}

	return bucket.client.doAndDiscard(ctx, newRequest(http.MethodDelete, bucket.name, "",
		WithParam(subresource, "")))
}

// checkSubresource makes sure that a configuration request addresses a
// sub-resource, without one it would list, overwrite or delete the bucket.
func checkSubresource(subresource string) error {
	if subresource == "" {
		return ErrEmptySubresource
	}

	return nil
}
