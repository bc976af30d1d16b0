package s3compat

import (
	"context"
	"github.com/aws/aws-sdk-go-v2/aws"
	s3pkg "github.com/aws/aws-sdk-go-v2/service/s3"
	transport "github.com/aws/smithy-go/endpoints"
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"net/url"
)

// s3EndpointResolver makes the SDK address buckets the same way
// the OSS client does. The SDK appends the object key to the returned URI.
type s3EndpointResolver struct {
	urlMaker *endpoint.URLMaker
}

func (e *s3EndpointResolver) ResolveEndpoint(
	_ context.Context,
	params s3pkg.EndpointParameters,
) (transport.Endpoint, error) {
	bucketURL, err := e.urlMaker.BucketURL(aws.ToString(params.Bucket))
	if err != nil {
		return transport.Endpoint{}, err
	}

	uri, err := url.Parse(bucketURL)
	if err != nil {
		return transport.Endpoint{}, err
	}

	return transport.Endpoint{
		URI: *uri,
	}, nil
}
