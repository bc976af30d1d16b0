package endpoint

import (
	"fmt"
	"github.com/cirruslabs/asyncoss/pkg/percentencoding"
	"strings"
)

// BuildURL renders an absolute request URL for the bucket and key.
//
// Requests that have neither a bucket nor a key (e.g. listing all buckets)
// are rendered as the bare origin.
func BuildURL(mode Mode, scheme string, host string, bucket string, key string) (string, error) {
	encodedKey := percentencoding.EncodePath(key)

	switch mode {
	case CustomDomain:
		return fmt.Sprintf("%s://%s/%s", scheme, host, encodedKey), nil
	case PathStyle:
		if bucket == "" {
			if key == "" {
				return fmt.Sprintf("%s://%s", scheme, host), nil
			}

			return fmt.Sprintf("%s://%s/%s", scheme, host, encodedKey), nil
		}

		// Names that fall back to path-style may contain reserved characters
		return fmt.Sprintf("%s://%s/%s/%s", scheme, host, percentencoding.EncodeComponent(bucket),
			encodedKey), nil
	case VirtualHosted:
		if bucket == "" {
			return "", fmt.Errorf("%w: virtual-hosted addressing requires a bucket name "+
				"(key %q)", ErrInvariantViolation, key)
		}

		return fmt.Sprintf("%s://%s.%s/%s", scheme, bucket, host, encodedKey), nil
	default:
		return "", fmt.Errorf("%w: unknown addressing mode %d", ErrInvariantViolation, mode)
	}
}

// URLMaker binds an endpoint to request URL construction. The addressing
// mode is recomputed on every call, so a single URLMaker can be shared
// between goroutines and buckets.
type URLMaker struct {
	endpoint       Endpoint
	isCustomDomain bool
}

func NewURLMaker(rawEndpoint string, isCustomDomain bool) (*URLMaker, error) {
	endpoint, err := Parse(rawEndpoint)
	if err != nil {
		return nil, err
	}

	return &URLMaker{
		endpoint:       endpoint,
		isCustomDomain: isCustomDomain,
	}, nil
}

func (maker *URLMaker) Endpoint() Endpoint {
	return maker.endpoint
}

func (maker *URLMaker) IsCustomDomain() bool {
	return maker.isCustomDomain
}

func (maker *URLMaker) Mode(bucket string) Mode {
	return Resolve(maker.endpoint.Host, maker.isCustomDomain, bucket)
}

func (maker *URLMaker) Make(bucket string, key string) (string, error) {
	return BuildURL(maker.Mode(bucket), maker.endpoint.Scheme, maker.endpoint.Host, bucket, key)
}

// BucketURL returns the base URL of a bucket without a trailing slash,
// suitable as an endpoint URI that operation paths are appended to.
func (maker *URLMaker) BucketURL(bucket string) (string, error) {
	bucketURL, err := maker.Make(bucket, "")
	if err != nil {
		return "", err
	}

	return strings.TrimSuffix(bucketURL, "/"), nil
}
