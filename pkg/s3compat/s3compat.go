// Package s3compat talks to OSS through its S3-compatible API using
// the AWS SDK, while request addressing is still decided by the endpoint
// package.
package s3compat

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultRegion = "us-east-1"

var (
	ErrNotFound = oss.ErrNotFound
	ErrEmptyKey = oss.ErrEmptyKey
)

type S3 struct {
	client *s3pkg.Client
	bucket string
}

type Config struct {
	Endpoint        string
	CustomDomain    bool
	Region          string
	AccessKeyID     string
	AccessKeySecret string
	SecurityToken   string
	Bucket          string

	// FromEnvironment loads credentials from the default AWS configuration
	// instead, requests are sent unsigned when neither is set
	FromEnvironment bool

	// CreateBucket creates the bucket if it doesn't exist yet
	CreateBucket bool
}

type Info struct {
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// New uses the credentials and region from the default AWS configuration.
func New(ctx context.Context, rawEndpoint string, bucket string) (*S3, error) {
	return NewFromConfig(ctx, &Config{
		Endpoint:        rawEndpoint,
		Bucket:          bucket,
		FromEnvironment: true,
	})
}

func NewFromConfig(ctx context.Context, s3Config *Config) (*S3, error) {
	awsConfig := aws.Config{
		Region: s3Config.Region,
	}

	switch {
	case s3Config.FromEnvironment:
		var loadOptions []func(*config.LoadOptions) error

		if s3Config.Region != "" {
			loadOptions = append(loadOptions, config.WithRegion(s3Config.Region))
		}

		var err error

		awsConfig, err = config.LoadDefaultConfig(ctx, loadOptions...)
		if err != nil {
			return nil, err
		}
	case s3Config.AccessKeyID != "":
		awsConfig.Credentials = credentials.NewStaticCredentialsProvider(
			s3Config.AccessKeyID,
			s3Config.AccessKeySecret,
			s3Config.SecurityToken,
		)
	default:
		awsConfig.Credentials = aws.AnonymousCredentials{}
	}

	s3, err := newFromAWSConfig(awsConfig, s3Config.Endpoint, s3Config.CustomDomain, s3Config.Bucket)
	if err != nil {
		return nil, err
	}

	if s3Config.CreateBucket {
		if err := s3.createBucket(ctx); err != nil {
			return nil, err
		}
	}

	return s3, nil
}

func newFromAWSConfig(awsConfig aws.Config, rawEndpoint string, isCustomDomain bool, bucket string) (*S3, error) {
	urlMaker, err := endpoint.NewURLMaker(rawEndpoint, isCustomDomain)
	if err != nil {
		return nil, err
	}

	if awsConfig.Region == "" {
		awsConfig.Region = defaultRegion
	}

	client := s3pkg.NewFromConfig(awsConfig, func(options *s3pkg.Options) {
		options.EndpointResolverV2 = &s3EndpointResolver{urlMaker: urlMaker}
		options.HTTPClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	})

	return &S3{
		client: client,
		bucket: bucket,
	}, nil
}

func (s3 *S3) createBucket(ctx context.Context) error {
	_, err := s3.client.CreateBucket(ctx, &s3pkg.CreateBucketInput{
		Bucket: aws.String(s3.bucket),
	})
	if err != nil {
		var alreadyOwnedByYou *types.BucketAlreadyOwnedByYou

		if errors.As(err, &alreadyOwnedByYou) {
			return nil
		}

		return fmt.Errorf("failed to create bucket %q: %w", s3.bucket, err)
	}

	return nil
}

func (s3 *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	result, err := s3.client.GetObject(ctx, &s3pkg.GetObjectInput{
		Bucket: aws.String(s3.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, convertErr(err)
	}

	return result.Body, nil
}

func (s3 *S3) Put(ctx context.Context, key string) (*MultipartUpload, error) {
	return s3.createMultipartUpload(ctx, &s3pkg.CreateMultipartUploadInput{
		Bucket: aws.String(s3.bucket),
		Key:    aws.String(key),
	})
}

func (s3 *S3) createMultipartUpload(
	ctx context.Context,
	input *s3pkg.CreateMultipartUploadInput,
) (*MultipartUpload, error) {
	key := aws.ToString(input.Key)
	if key == "" {
		return nil, ErrEmptyKey
	}

	result, err := s3.client.CreateMultipartUpload(ctx, input)
	if err != nil {
		return nil, convertErr(err)
	}

	return &MultipartUpload{
		client:   s3.client,
		bucket:   s3.bucket,
		key:      key,
		uploadID: *result.UploadId,
	}, nil
}

// Info returns the size of the object at key when exact is true,
// otherwise that of the first object whose key starts with key.
func (s3 *S3) Info(ctx context.Context, key string, exact bool) (*Info, error) {
	if exact {
		if key == "" {
			return nil, ErrEmptyKey
		}

		result, err := s3.client.HeadObject(ctx, &s3pkg.HeadObjectInput{
			Bucket: aws.String(s3.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, convertErr(err)
		}

		return &Info{
			Key:          key,
			Size:         aws.ToInt64(result.ContentLength),
			ETag:         strings.Trim(aws.ToString(result.ETag), `"`),
			LastModified: aws.ToTime(result.LastModified),
		}, nil
	}

	result, err := s3.client.ListObjectsV2(ctx, &s3pkg.ListObjectsV2Input{
		Bucket:  aws.String(s3.bucket),
		Prefix:  aws.String(key),
		MaxKeys: aws.Int32(1),
	})
	if err != nil {
		return nil, convertErr(err)
	}

	if len(result.Contents) == 0 {
		return nil, ErrNotFound
	}

	return newInfo(result.Contents[0]), nil
}

// List returns the objects whose keys start with prefix, along with
// the common prefixes when grouping by a non-empty delimiter.
func (s3 *S3) List(ctx context.Context, prefix string, delimiter string) ([]Info, []string, error) {
	var infos []Info
	var commonPrefixes []string

	input := &s3pkg.ListObjectsV2Input{
		Bucket: aws.String(s3.bucket),
	}

	if prefix != "" {
		input.Prefix = aws.String(prefix)
	}

	if delimiter != "" {
		input.Delimiter = aws.String(delimiter)
	}

	paginator := s3pkg.NewListObjectsV2Paginator(s3.client, input)

	for paginator.HasMorePages() {
		result, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, nil, convertErr(err)
		}

		for _, object := range result.Contents {
			infos = append(infos, *newInfo(object))
		}

		for _, commonPrefix := range result.CommonPrefixes {
			commonPrefixes = append(commonPrefixes, aws.ToString(commonPrefix.Prefix))
		}
	}

	return infos, commonPrefixes, nil
}

// Presign returns a URL that allows performing the request
// without credentials until it expires.
func (s3 *S3) Presign(ctx context.Context, method string, key string, expires time.Duration) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}

	presignClient := s3pkg.NewPresignClient(s3.client, s3pkg.WithPresignExpires(expires))

	var presignedRequest *v4.PresignedHTTPRequest
	var err error

	switch method {
	case http.MethodGet:
		presignedRequest, err = presignClient.PresignGetObject(ctx, &s3pkg.GetObjectInput{
			Bucket: aws.String(s3.bucket),
			Key:    aws.String(key),
		})
	case http.MethodHead:
		presignedRequest, err = presignClient.PresignHeadObject(ctx, &s3pkg.HeadObjectInput{
			Bucket: aws.String(s3.bucket),
			Key:    aws.String(key),
		})
	case http.MethodPut:
		presignedRequest, err = presignClient.PresignPutObject(ctx, &s3pkg.PutObjectInput{
			Bucket: aws.String(s3.bucket),
			Key:    aws.String(key),
		})
	case http.MethodDelete:
		presignedRequest, err = presignClient.PresignDeleteObject(ctx, &s3pkg.DeleteObjectInput{
			Bucket: aws.String(s3.bucket),
			Key:    aws.String(key),
		})
	default:
		return "", fmt.Errorf("presigning %s requests is not supported", method)
	}
	if err != nil {
		return "", fmt.Errorf("failed to presign %s request for %q: %w", method, key, err)
	}

	return presignedRequest.URL, nil
}

func newInfo(object types.Object) *Info {
	return &Info{
		Key:          aws.ToString(object.Key),
		Size:         aws.ToInt64(object.Size),
		ETag:         strings.Trim(aws.ToString(object.ETag), `"`),
		LastModified: aws.ToTime(object.LastModified),
	}
}

func (s3 *S3) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}

	_, err := s3.client.DeleteObject(ctx, &s3pkg.DeleteObjectInput{
		Bucket: aws.String(s3.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return convertErr(err)
	}

	return nil
}

func convertErr(err error) error {
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	var noSuchBucket *types.NoSuchBucket
	var noSuchUpload *types.NoSuchUpload

	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) || errors.As(err, &noSuchBucket) ||
		errors.As(err, &noSuchUpload) {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	return err
}
