package s3compat

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"io"
	"slices"
	"sync"
)

type MultipartUpload struct {
	client   *s3pkg.Client
	bucket   string
	key      string
	uploadID string

	parts []types.CompletedPart
	mtx   sync.Mutex
}

func (mu *MultipartUpload) UploadPart(ctx context.Context, number int32, r io.Reader) error {
	result, err := mu.client.UploadPart(ctx, &s3pkg.UploadPartInput{
		Bucket:     aws.String(mu.bucket),
		Key:        aws.String(mu.key),
		UploadId:   aws.String(mu.uploadID),
		PartNumber: aws.Int32(number),
		Body:       r,
	})
	if err != nil {
		return convertErr(err)
	}

	mu.mtx.Lock()
	mu.parts = append(mu.parts, types.CompletedPart{
		ETag:       result.ETag,
		PartNumber: aws.Int32(number),
	})
	mu.mtx.Unlock()

	return nil
}

func (mu *MultipartUpload) Size(ctx context.Context) (int64, error) {
	var parts []types.Part

	paginator := s3pkg.NewListPartsPaginator(mu.client, &s3pkg.ListPartsInput{
		Bucket:   aws.String(mu.bucket),
		Key:      aws.String(mu.key),
		UploadId: aws.String(mu.uploadID),
	})

	for paginator.HasMorePages() {
		result, err := paginator.NextPage(ctx)
		if err != nil {
			return 0, convertErr(err)
		}

		parts = append(parts, result.Parts...)
	}

	return lo.SumBy(parts, func(part types.Part) int64 {
		return aws.ToInt64(part.Size)
	}), nil
}

func (mu *MultipartUpload) Commit(ctx context.Context) error {
	mu.mtx.Lock()
	defer mu.mtx.Unlock()

	// Parts may have been uploaded out of order
	slices.SortFunc(mu.parts, func(a, b types.CompletedPart) int {
		return int(aws.ToInt32(a.PartNumber) - aws.ToInt32(b.PartNumber))
	})

	_, err := mu.client.CompleteMultipartUpload(ctx, &s3pkg.CompleteMultipartUploadInput{
		Bucket:   aws.String(mu.bucket),
		Key:      aws.String(mu.key),
		UploadId: aws.String(mu.uploadID),
		MultipartUpload: &types.CompletedMultipartUpload{
			Parts: mu.parts,
		},
	})
	if err != nil {
		return convertErr(err)
	}

	return nil
}

func (mu *MultipartUpload) Rollback(ctx context.Context) error {
	_, err := mu.client.AbortMultipartUpload(ctx, &s3pkg.AbortMultipartUploadInput{
		Bucket:   aws.String(mu.bucket),
		Key:      aws.String(mu.key),
		UploadId: aws.String(mu.uploadID),
	})
	if err != nil {
		return convertErr(err)
	}

	return nil
}

const (
	// MinPartSize is the smallest size allowed for all but the last part
	MinPartSize = 5 * humanize.MiByte

	defaultPartSize    = 8 * humanize.MiByte
	defaultConcurrency = 4
	maxParts           = 10_000
)

type UploadOptions struct {
	// PartSize defaults to 8 MiB and grows automatically
	// when the object wouldn't fit into the maximum number of parts
	PartSize    int64
	Concurrency int

	ContentType string
	ACL         types.ObjectCannedACL
	Metadata    map[string]string
}

// Upload uploads size bytes from r as a multipart upload, sending up to
// options.Concurrency parts at once. The upload is aborted on failure.
func (s3 *S3) Upload(ctx context.Context, key string, r io.ReaderAt, size int64, options UploadOptions) error {
	if size < 0 {
		return fmt.Errorf("object size cannot be negative, got %d", size)
	}

	partSize := options.PartSize
	if partSize == 0 {
		partSize = defaultPartSize
	}

	if partSize < MinPartSize {
		return fmt.Errorf("part size of %s is smaller than the minimum of %s",
			humanize.IBytes(uint64(max(partSize, 0))), humanize.IBytes(MinPartSize))
	}

	partSize = max(partSize, (size+maxParts-1)/maxParts)

	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	input := &s3pkg.CreateMultipartUploadInput{
		Bucket:   aws.String(s3.bucket),
		Key:      aws.String(key),
		ACL:      options.ACL,
		Metadata: options.Metadata,
	}

	if options.ContentType != "" {
		input.ContentType = aws.String(options.ContentType)
	}

	multipartUpload, err := s3.createMultipartUpload(ctx, input)
	if err != nil {
		return err
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(concurrency)

	// Empty objects still need a single (empty) part
	numParts := max(1, (size+partSize-1)/partSize)

	for i := int64(0); i < numParts; i++ {
		offset := i * partSize
		length := min(partSize, size-offset)

		group.Go(func() error {
			return multipartUpload.UploadPart(groupCtx, int32(i+1), io.NewSectionReader(r, offset, length))
		})
	}

	if err := group.Wait(); err != nil {
		//nolint:contextcheck // ctx might be already canceled, but we still want to clean up
		_ = multipartUpload.Rollback(context.WithoutCancel(ctx))

		return fmt.Errorf("failed to upload %q: %w", key, err)
	}

	return multipartUpload.Commit(ctx)
}
