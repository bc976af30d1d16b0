package oss

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"errors"
	"fmt"
	"github.com/cirruslabs/asyncoss/pkg/percentencoding"
	"io"
	"mime"
	"net/http"
	"os"
	"path"
	"slices"
	"strconv"
	"time"
)

const defaultContentType = "application/octet-stream"

func (bucket *Bucket) ListObjects(ctx context.Context, input ListObjectsInput) (*ListObjectsResult, error) {
	request := newRequest(http.MethodGet, bucket.name, "", WithParam("encoding-type", "url"))
	setNonEmpty(request.params, "prefix", input.Prefix)
	setNonEmpty(request.params, "delimiter", input.Delimiter)
	setNonEmpty(request.params, "marker", input.Marker)
	setPositive(request.params, "max-keys", input.MaxKeys)

	var result ListObjectsResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	if err := result.decodeKeys(); err != nil {
		return nil, fmt.Errorf("failed to decode object keys: %w", err)
	}

	for i := range result.Objects {
		result.Objects[i].ETag = trimETag(result.Objects[i].ETag)
	}

	return &result, nil
}

// PutObject uploads an object. Pass a negative size when the body length
// is not known in advance, the body will be sent with chunked encoding.
func (bucket *Bucket) PutObject(
	ctx context.Context,
	key string,
	body io.Reader,
	size int64,
	opts ...RequestOption,
) (*PutObjectResult, error) {
	request := newObjectRequest(http.MethodPut, bucket.name, key, opts...).withBody(body, size)
	setContentType(request, key)

	response, err := bucket.client.do(ctx, request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return newPutObjectResult(response), nil
}

func (bucket *Bucket) PutObjectFromFile(
	ctx context.Context,
	key string,
	filename string,
	opts ...RequestOption,
) (*PutObjectResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return nil, err
	}

	return bucket.PutObject(ctx, key, file, fileInfo.Size(), opts...)
}

// AppendObject appends data to an appendable object at the given position,
// which must be equal to the object's current length.
func (bucket *Bucket) AppendObject(
	ctx context.Context,
	key string,
	position int64,
	body io.Reader,
	size int64,
	opts ...RequestOption,
) (*AppendObjectResult, error) {
	request := newObjectRequest(http.MethodPost, bucket.name, key, opts...).withBody(body, size)
	request.params["append"] = ""
	request.params["position"] = strconv.FormatInt(position, 10)
	setContentType(request, key)

	response, err := bucket.client.do(ctx, request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	result := &AppendObjectResult{
		PutObjectResult: *newPutObjectResult(response),
	}

	rawNextPosition := response.Header.Get(HeaderNextAppendPos)
	if rawNextPosition != "" {
		result.NextPosition, err = strconv.ParseInt(rawNextPosition, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s header value %q: %w", HeaderNextAppendPos,
				rawNextPosition, err)
		}
	}

	return result, nil
}

// GetObject downloads an object, the caller is responsible
// for closing the returned body.
func (bucket *Bucket) GetObject(ctx context.Context, key string, opts ...RequestOption) (*GetObjectResult, error) {
	response, err := bucket.client.do(ctx, newObjectRequest(http.MethodGet, bucket.name, key, opts...))
	if err != nil {
		return nil, err
	}

	return &GetObjectResult{
		ObjectMeta: *newObjectMeta(response),
		Body:       response.Body,
	}, nil
}

func (bucket *Bucket) GetObjectToFile(
	ctx context.Context,
	key string,
	filename string,
	opts ...RequestOption,
) (*ObjectMeta, error) {
	result, err := bucket.GetObject(ctx, key, opts...)
	if err != nil {
		return nil, err
	}
	defer result.Body.Close()

	file, err := os.Create(filename)
	if err != nil {
		return nil, err
	}

	if _, err := io.Copy(file, result.Body); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("failed to write object %q to %s: %w", key, filename, err)
	}

	if err := file.Close(); err != nil {
		return nil, err
	}

	return &result.ObjectMeta, nil
}

func (bucket *Bucket) HeadObject(ctx context.Context, key string, opts ...RequestOption) (*ObjectMeta, error) {
	response, err := bucket.client.do(ctx, newObjectRequest(http.MethodHead, bucket.name, key, opts...))
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return newObjectMeta(response), nil
}

// GetObjectMeta is a lighter version of HeadObject that only returns
// the ETag, size and last modification time.
func (bucket *Bucket) GetObjectMeta(ctx context.Context, key string) (*ObjectMeta, error) {
	response, err := bucket.client.do(ctx, newObjectRequest(http.MethodHead, bucket.name, key,
		WithParam("objectMeta", "")))
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return newObjectMeta(response), nil
}

func (bucket *Bucket) ObjectExists(ctx context.Context, key string) (bool, error) {
	_, err := bucket.GetObjectMeta(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

func (bucket *Bucket) CopyObject(
	ctx context.Context,
	sourceBucket string,
	sourceKey string,
	targetKey string,
	opts ...RequestOption,
) (*CopyObjectResult, error) {
	if sourceKey == "" {
		return nil, fmt.Errorf("%w: copy source in bucket %q", ErrEmptyKey, sourceBucket)
	}

	request := newObjectRequest(http.MethodPut, bucket.name, targetKey, opts...)
	request.header.Set(HeaderCopySource, copySource(sourceBucket, sourceKey))

	var result CopyObjectResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult
	result.ETag = trimETag(result.ETag)

	return &result, nil
}

// UpdateObjectMeta replaces the user metadata of an object
// by copying it onto itself.
func (bucket *Bucket) UpdateObjectMeta(ctx context.Context, key string, opts ...RequestOption) (*RequestResult, error) {
	opts = append(opts, WithHeader(HeaderMetadataDirect, "REPLACE"))

	result, err := bucket.CopyObject(ctx, bucket.name, key, key, opts...)
	if err != nil {
		return nil, err
	}

	return &result.RequestResult, nil
}

// DeleteObject succeeds even if the object doesn't exist.
func (bucket *Bucket) DeleteObject(ctx context.Context, key string) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodDelete, bucket.name, key))
}

func (bucket *Bucket) BatchDeleteObjects(ctx context.Context, keys []string) (*BatchDeleteObjectsResult, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("no keys to delete")
	}

	if slices.Contains(keys, "") {
		return nil, fmt.Errorf("%w: batch deletion", ErrEmptyKey)
	}

	payload := &deleteRequest{}

	for _, key := range keys {
		payload.Objects = append(payload.Objects, deleteObject{Key: key})
	}

	body, err := xmlBody(payload)
	if err != nil {
		return nil, err
	}

	bodyBytes, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	// Multi-object deletion requires Content-MD5
	md5Sum := md5.Sum(bodyBytes)

	request := newRequest(http.MethodPost, bucket.name, "",
		WithParam("delete", ""),
		WithParam("encoding-type", "url"),
		WithHeader("Content-MD5", base64.StdEncoding.EncodeToString(md5Sum[:])),
	).withBody(bytes.NewReader(bodyBytes), int64(len(bodyBytes)))

	var result BatchDeleteObjectsResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	if result.EncodingType == "url" {
		for i := range result.DeletedKeys {
			if result.DeletedKeys[i], err = percentencoding.Decode(result.DeletedKeys[i]); err != nil {
				return nil, fmt.Errorf("failed to decode deleted object key: %w", err)
			}
		}
	}

	return &result, nil
}

// RestoreObject initiates the restoration of an archived object.
func (bucket *Bucket) RestoreObject(ctx context.Context, key string) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodPost, bucket.name, key,
		WithParam("restore", "")))
}

func (bucket *Bucket) PutObjectACL(ctx context.Context, key string, acl string) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodPut, bucket.name, key,
		WithHeader(HeaderObjectACL, acl), WithParam(SubresourceACL, "")))
}

func (bucket *Bucket) GetObjectACL(ctx context.Context, key string) (*GetACLResult, error) {
	var result GetACLResult

	requestResult, err := bucket.client.doAndParse(ctx, newObjectRequest(http.MethodGet, bucket.name, key,
		WithParam(SubresourceACL, "")), &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// PutSymlink creates an object at symlinkKey pointing to targetKey.
func (bucket *Bucket) PutSymlink(
	ctx context.Context,
	targetKey string,
	symlinkKey string,
	opts ...RequestOption,
) (*RequestResult, error) {
	if targetKey == "" {
		return nil, fmt.Errorf("%w: symlink target", ErrEmptyKey)
	}

	request := newObjectRequest(http.MethodPut, bucket.name, symlinkKey, opts...)
	request.params[SubresourceSymlink] = ""
	request.header.Set(HeaderSymlinkTarget, percentencoding.EncodeComponent(targetKey))

	return bucket.client.doAndDiscard(ctx, request)
}

func (bucket *Bucket) GetSymlink(ctx context.Context, symlinkKey string) (*GetSymlinkResult, error) {
	requestResult, err := bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodGet, bucket.name, symlinkKey,
		WithParam(SubresourceSymlink, "")))
	if err != nil {
		return nil, err
	}

	target, err := percentencoding.Decode(requestResult.Header.Get(HeaderSymlinkTarget))
	if err != nil {
		return nil, fmt.Errorf("failed to decode symlink target: %w", err)
	}

	return &GetSymlinkResult{
		RequestResult: *requestResult,
		Target:        target,
	}, nil
}

// SignURL returns a presigned URL that grants time-limited access
// to an object without credentials, e.g. for downloads by third parties.
func (bucket *Bucket) SignURL(
	ctx context.Context,
	method string,
	key string,
	expires time.Duration,
	opts ...RequestOption,
) (string, error) {
	request := newObjectRequest(method, bucket.name, key, opts...)

	httpRequest, err := bucket.client.httpRequest(ctx, request)
	if err != nil {
		return "", err
	}

	return bucket.client.signer.Presign(ctx, httpRequest, bucket.name, key, expires)
}

func copySource(sourceBucket string, sourceKey string) string {
	return "/" + sourceBucket + "/" + percentencoding.EncodeComponent(sourceKey)
}

func setContentType(request *request, key string) {
	if request.header.Get("Content-Type") != "" {
		return
	}

	contentType := mime.TypeByExtension(path.Ext(key))
	if contentType == "" {
		contentType = defaultContentType
	}

	request.header.Set("Content-Type", contentType)
}
