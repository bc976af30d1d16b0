package oss

import (
	"context"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"io"
)

const (
	DefaultPartSize    = 8 * humanize.MiByte
	DefaultConcurrency = 4

	minPartSize = 100 * humanize.KiByte
	maxParts    = 10_000
)

// MultipartUpload tracks the parts of an in-progress multipart upload,
// parts can be uploaded concurrently from multiple goroutines.
type MultipartUpload struct {
	bucket   *Bucket
	key      string
	uploadID string

	parts *xsync.MapOf[int, PartInfo]
}

func (bucket *Bucket) NewMultipartUpload(
	ctx context.Context,
	key string,
	opts ...RequestOption,
) (*MultipartUpload, error) {
	result, err := bucket.InitMultipartUpload(ctx, key, opts...)
	if err != nil {
		return nil, err
	}

	return &MultipartUpload{
		bucket:   bucket,
		key:      key,
		uploadID: result.UploadID,
		parts:    xsync.NewMapOf[int, PartInfo](),
	}, nil
}

func (mu *MultipartUpload) UploadID() string {
	return mu.uploadID
}

func (mu *MultipartUpload) UploadPart(ctx context.Context, number int, r io.Reader, size int64) error {
	result, err := mu.bucket.UploadPart(ctx, mu.key, mu.uploadID, number, r, size)
	if err != nil {
		return err
	}

	mu.parts.Store(number, PartInfo{
		PartNumber: number,
		ETag:       result.ETag,
		Size:       size,
	})

	return nil
}

// Size returns the number of bytes uploaded so far, as seen by the server.
func (mu *MultipartUpload) Size(ctx context.Context) (int64, error) {
	var parts []PartInfo

	input := ListPartsInput{}

	for {
		result, err := mu.bucket.ListParts(ctx, mu.key, mu.uploadID, input)
		if err != nil {
			return 0, err
		}

		parts = append(parts, result.Parts...)

		if !result.IsTruncated {
			break
		}

		input.PartNumberMarker = result.NextPartNumberMarker
	}

	return lo.SumBy(parts, func(part PartInfo) int64 {
		return part.Size
	}), nil
}

func (mu *MultipartUpload) Commit(ctx context.Context) (*CompleteMultipartUploadResult, error) {
	var parts []PartInfo

	mu.parts.Range(func(_ int, part PartInfo) bool {
		parts = append(parts, part)

		return true
	})

	return mu.bucket.CompleteMultipartUpload(ctx, mu.key, mu.uploadID, parts)
}

func (mu *MultipartUpload) Rollback(ctx context.Context) error {
	_, err := mu.bucket.AbortMultipartUpload(ctx, mu.key, mu.uploadID)

	return err
}

type UploadOptions struct {
	// PartSize defaults to DefaultPartSize and grows automatically
	// when the object wouldn't fit into the maximum number of parts
	PartSize int64

	// Concurrency is the maximum number of parts uploaded at once,
	// defaults to DefaultConcurrency
	Concurrency int

	RequestOptions []RequestOption
}

// Upload uploads size bytes from r as a multipart upload, sending multiple
// parts in parallel. The upload is aborted if any of the parts fail.
func (bucket *Bucket) Upload(
	ctx context.Context,
	key string,
	r io.ReaderAt,
	size int64,
	options UploadOptions,
) (*CompleteMultipartUploadResult, error) {
	partSize, err := choosePartSize(size, options.PartSize)
	if err != nil {
		return nil, err
	}

	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	multipartUpload, err := bucket.NewMultipartUpload(ctx, key, options.RequestOptions...)
	if err != nil {
		return nil, err
	}

	bucket.client.logger.Debugf("uploading %s to %q in %s parts with upload ID %s",
		humanize.IBytes(uint64(size)), key, humanize.IBytes(uint64(partSize)), multipartUpload.UploadID())

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	// Empty objects still need a single (empty) part
	numParts := max(1, (size+partSize-1)/partSize)

	for i := int64(0); i < numParts; i++ {
		offset := i * partSize
		length := min(partSize, size-offset)
		number := int(i) + 1

		group.Go(func() error {
			return multipartUpload.UploadPart(groupCtx, number, io.NewSectionReader(r, offset, length), length)
		})
	}

	if err := group.Wait(); err != nil {
		//nolint:contextcheck // ctx might be already canceled, but we still want to clean up
		if rollbackErr := multipartUpload.Rollback(context.WithoutCancel(ctx)); rollbackErr != nil {
			bucket.client.logger.Warnf("failed to abort multipart upload %s: %v",
				multipartUpload.UploadID(), rollbackErr)
		}

		return nil, fmt.Errorf("failed to upload %q: %w", key, err)
	}

	return multipartUpload.Commit(ctx)
}

func choosePartSize(size int64, partSize int64) (int64, error) {
	if size < 0 {
		return 0, fmt.Errorf("object size cannot be negative, got %d", size)
	}

	if partSize == 0 {
		partSize = DefaultPartSize
	}

	if partSize < minPartSize {
		return 0, fmt.Errorf("part size of %s is smaller than the minimum of %s",
			humanize.IBytes(uint64(max(partSize, 0))), humanize.IBytes(minPartSize))
	}

	// Grow the part size to stay within the part count limit
	if minimum := (size + maxParts - 1) / maxParts; partSize < minimum {
		partSize = minimum
	}

	return partSize, nil
}
