package oss

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
)

func (bucket *Bucket) InitMultipartUpload(
	ctx context.Context,
	key string,
	opts ...RequestOption,
) (*InitMultipartUploadResult, error) {
	request := newObjectRequest(http.MethodPost, bucket.name, key, opts...)
	request.params["uploads"] = ""
	setContentType(request, key)

	var result InitMultipartUploadResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	return &result, nil
}

// UploadPart uploads a single part, part numbers start at 1.
func (bucket *Bucket) UploadPart(
	ctx context.Context,
	key string,
	uploadID string,
	partNumber int,
	body io.Reader,
	size int64,
	opts ...RequestOption,
) (*PutObjectResult, error) {
	request := newObjectRequest(http.MethodPut, bucket.name, key, opts...).withBody(body, size)
	request.params["partNumber"] = strconv.Itoa(partNumber)
	request.params["uploadId"] = uploadID

	response, err := bucket.client.do(ctx, request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	return newPutObjectResult(response), nil
}

// UploadPartCopy uses a byte range of an existing object as a part,
// negative positions leave the corresponding side of the range open.
func (bucket *Bucket) UploadPartCopy(
	ctx context.Context,
	sourceBucket string,
	sourceKey string,
	start int64,
	last int64,
	targetKey string,
	uploadID string,
	partNumber int,
) (*UploadPartCopyResult, error) {
	if sourceKey == "" {
		return nil, fmt.Errorf("%w: copy source in bucket %q", ErrEmptyKey, sourceBucket)
	}

	request := newObjectRequest(http.MethodPut, bucket.name, targetKey)
	request.params["partNumber"] = strconv.Itoa(partNumber)
	request.params["uploadId"] = uploadID
	request.header.Set(HeaderCopySource, copySource(sourceBucket, sourceKey))

	if copySourceRange := makeRange(start, last); copySourceRange != "" {
		request.header.Set(HeaderCopySourceRange, copySourceRange)
	}

	var result UploadPartCopyResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult
	result.ETag = trimETag(result.ETag)

	return &result, nil
}

// CompleteMultipartUpload assembles the object from the uploaded parts,
// which are sent in ascending part number order regardless of the order
// they're passed in.
func (bucket *Bucket) CompleteMultipartUpload(
	ctx context.Context,
	key string,
	uploadID string,
	parts []PartInfo,
	opts ...RequestOption,
) (*CompleteMultipartUploadResult, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("cannot complete multipart upload %s with no parts", uploadID)
	}

	sortedParts := slices.Clone(parts)
	slices.SortFunc(sortedParts, func(a, b PartInfo) int {
		return a.PartNumber - b.PartNumber
	})

	payload := &completeMultipartUpload{}

	for _, part := range sortedParts {
		payload.Parts = append(payload.Parts, completePart{
			PartNumber: part.PartNumber,
			ETag:       `"` + trimETag(part.ETag) + `"`,
		})
	}

	body, err := xmlBody(payload)
	if err != nil {
		return nil, err
	}

	request := newObjectRequest(http.MethodPost, bucket.name, key, opts...).withBody(body, body.Size())
	request.params["uploadId"] = uploadID

	var result CompleteMultipartUploadResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult
	result.ETag = trimETag(result.ETag)

	return &result, nil
}

func (bucket *Bucket) AbortMultipartUpload(ctx context.Context, key string, uploadID string) (*RequestResult, error) {
	return bucket.client.doAndDiscard(ctx, newObjectRequest(http.MethodDelete, bucket.name, key,
		WithParam("uploadId", uploadID)))
}

func (bucket *Bucket) ListParts(
	ctx context.Context,
	key string,
	uploadID string,
	input ListPartsInput,
) (*ListPartsResult, error) {
	request := newObjectRequest(http.MethodGet, bucket.name, key, WithParam("uploadId", uploadID))
	setPositive(request.params, "part-number-marker", input.PartNumberMarker)
	setPositive(request.params, "max-parts", input.MaxParts)

	var result ListPartsResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	for i := range result.Parts {
		result.Parts[i].ETag = trimETag(result.Parts[i].ETag)
	}

	return &result, nil
}

func (bucket *Bucket) ListMultipartUploads(
	ctx context.Context,
	input ListMultipartUploadsInput,
) (*ListMultipartUploadsResult, error) {
	request := newRequest(http.MethodGet, bucket.name, "",
		WithParam("uploads", ""), WithParam("encoding-type", "url"))
	setNonEmpty(request.params, "prefix", input.Prefix)
	setNonEmpty(request.params, "delimiter", input.Delimiter)
	setNonEmpty(request.params, "key-marker", input.KeyMarker)
	setNonEmpty(request.params, "upload-id-marker", input.UploadIDMarker)
	setPositive(request.params, "max-uploads", input.MaxUploads)

	var result ListMultipartUploadsResult

	requestResult, err := bucket.client.doAndParse(ctx, request, &result)
	if err != nil {
		return nil, err
	}
	result.RequestResult = *requestResult

	if err := result.decodeKeys(); err != nil {
		return nil, fmt.Errorf("failed to decode multipart upload keys: %w", err)
	}

	return &result, nil
}
