package testutil

import (
	"context"
	"fmt"
	"github.com/cirruslabs/asyncoss/pkg/s3compat"
	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"testing"
)

// S3 starts a LocalStack container and returns a configuration
// pointing to a fresh bucket in it. LocalStack's DNS resolves
// *.localhost.localstack.cloud to 127.0.0.1, which lets
// virtual-hosted addressing work against the container.
func S3(t *testing.T) *s3compat.Config {
	t.Helper()

	ctx := context.Background()

	localstackContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "localstack/localstack",
			WaitingFor:   wait.ForHTTP("/_localstack/health").WithPort("4566/tcp"),
			ExposedPorts: []string{"4566/tcp"},
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = localstackContainer.Terminate(context.Background())
	})

	exposedPort, err := nat.NewPort("tcp", "4566")
	require.NoError(t, err)

	mappedPort, err := localstackContainer.MappedPort(ctx, exposedPort)
	require.NoError(t, err)

	return &s3compat.Config{
		Endpoint:        fmt.Sprintf("http://s3.localhost.localstack.cloud:%d", mappedPort.Int()),
		Region:          "us-east-1",
		Bucket:          "test-" + uuid.NewString(),
		AccessKeyID:     "key-id",
		AccessKeySecret: "key-secret",
		CreateBucket:    true,
	}
}
