package auth

import (
	"context"
	"errors"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"net/http"
	"strconv"
	"time"
)

const (
	signingName     = "s3"
	unsignedPayload = "UNSIGNED-PAYLOAD"

	headerContentSHA256 = "X-Amz-Content-Sha256"
	queryExpires        = "X-Amz-Expires"

	// Presigned URLs can't be valid for longer than a week
	maxPresignExpiry = 7 * 24 * time.Hour
)

var ErrInvalidExpiry = errors.New("invalid presigned URL expiry")

// V4 signs requests with AWS Signature Version 4, which is accepted
// by S3-compatible object storage endpoints.
type V4 struct {
	credentials aws.CredentialsProvider
	region      string
	signer      *v4.Signer
	now         func() time.Time
}

func NewV4(credentialsProvider aws.CredentialsProvider, region string) *V4 {
	return &V4{
		credentials: aws.NewCredentialsCache(credentialsProvider),
		region:      region,
		signer: v4.NewSigner(func(options *v4.SignerOptions) {
			// Object keys are already percent-encoded by the URL maker
			options.DisableURIPathEscaping = true
		}),
		now: time.Now,
	}
}

func NewStaticV4(accessKeyID string, accessKeySecret string, securityToken string, region string) *V4 {
	return NewV4(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, securityToken), region)
}

// NewV4FromDefaultConfig picks up credentials from the environment,
// shared configuration files and instance metadata, the same way
// the AWS SDK does.
func NewV4FromDefaultConfig(ctx context.Context, region string) (*V4, error) {
	var opts []func(*config.LoadOptions) error

	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load default AWS configuration: %w", err)
	}

	if awsConfig.Credentials == nil {
		return nil, fmt.Errorf("no credentials found in the default AWS configuration")
	}

	return NewV4(awsConfig.Credentials, awsConfig.Region), nil
}

func (signer *V4) Region() string {
	return signer.region
}

func (signer *V4) Sign(ctx context.Context, request *http.Request, _ string, _ string) error {
	creds, err := signer.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	request.Header.Set(headerContentSHA256, unsignedPayload)

	return signer.signer.SignHTTP(ctx, creds, request, unsignedPayload, signingName, signer.region,
		signer.now().UTC())
}

func (signer *V4) Presign(
	ctx context.Context,
	request *http.Request,
	_ string,
	_ string,
	expires time.Duration,
) (string, error) {
	if expires < time.Second || expires > maxPresignExpiry {
		return "", fmt.Errorf("%w: %s is not within [1s, %s]", ErrInvalidExpiry, expires, maxPresignExpiry)
	}

	creds, err := signer.credentials.Retrieve(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to retrieve credentials: %w", err)
	}

	query := request.URL.Query()
	query.Set(queryExpires, strconv.FormatInt(int64(expires/time.Second), 10))
	request.URL.RawQuery = query.Encode()

	signedURL, _, err := signer.signer.PresignHTTP(ctx, creds, request, unsignedPayload, signingName,
		signer.region, signer.now().UTC())
	if err != nil {
		return "", err
	}

	return signedURL, nil
}
