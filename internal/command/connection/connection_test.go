package connection

import (
	"context"
	"github.com/cirruslabs/asyncoss/internal/config"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/dustin/go-humanize"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
)

func withFlags(t *testing.T, path string, endpoint string, bucket string) {
	t.Helper()

	configPath, endpointOverride, bucketOverride = path, endpoint, bucket
	customDomain, regionOverride, apiOverride = false, "", ""

	t.Cleanup(func() {
		configPath, endpointOverride, bucketOverride, apiOverride = "", "", "", ""
	})
}

func TestParseURI(t *testing.T) {
	withFlags(t, "", "http://127.0.0.1:9000", "default-bucket")

	connection, err := New(context.Background())
	require.NoError(t, err)

	bucket, key, err := connection.ParseURI("oss://my-bucket/dir/file.txt")
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Equal(t, "dir/file.txt", key)

	bucket, key, err = connection.ParseURI("oss://my-bucket")
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Empty(t, key)

	bucket, key, err = connection.ParseURI("dir/file.txt")
	require.NoError(t, err)
	require.Equal(t, "default-bucket", bucket)
	require.Equal(t, "dir/file.txt", key)

	_, _, err = connection.ParseURI("oss:///file.txt")
	require.Error(t, err)
}

func TestParseObjectURI(t *testing.T) {
	withFlags(t, "", "http://127.0.0.1:9000", "default-bucket")

	connection, err := New(context.Background())
	require.NoError(t, err)

	bucket, key, err := connection.ParseObjectURI("oss://my-bucket/dir/file.txt")
	require.NoError(t, err)
	require.Equal(t, "my-bucket", bucket)
	require.Equal(t, "dir/file.txt", key)

	for _, arg := range []string{"oss://my-bucket", "oss://my-bucket/", ""} {
		_, _, err = connection.ParseObjectURI(arg)
		require.ErrorContains(t, err, "does not point to an object", arg)
	}
}

func TestConfigurationFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`endpoint: https://oss-cn-hangzhou.aliyuncs.com
bucket: from-file
credentials:
  access-key-id: id
  access-key-secret: secret
upload:
  part-size: 16MiB
  concurrency: 8
`), 0600))

	// Flags override the configuration file
	withFlags(t, path, "", "from-flag")

	connection, err := New(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from-flag", connection.DefaultBucket())

	uploadOptions, err := connection.UploadOptions()
	require.NoError(t, err)
	require.Equal(t, oss.UploadOptions{PartSize: 16 * humanize.MiByte, Concurrency: 8}, uploadOptions)

	bucket, err := connection.Bucket("my-bucket")
	require.NoError(t, err)

	url, err := bucket.URL("key")
	require.NoError(t, err)
	require.Equal(t, "https://my-bucket.oss-cn-hangzhou.aliyuncs.com/key", url)
}

func TestAPI(t *testing.T) {
	withFlags(t, "", "http://127.0.0.1:9000", "")

	connection, err := New(context.Background())
	require.NoError(t, err)
	require.Equal(t, config.APIOSS, connection.API())

	apiOverride = config.APIS3

	connection, err = New(context.Background())
	require.NoError(t, err)
	require.Equal(t, config.APIS3, connection.API())

	s3, err := connection.S3(context.Background(), "my-bucket")
	require.NoError(t, err)
	require.NotNil(t, s3)

	apiOverride = "swift"

	_, err = New(context.Background())
	require.Error(t, err)
}

func TestNoEndpoint(t *testing.T) {
	withFlags(t, "", "", "")

	_, err := New(context.Background())
	require.Error(t, err)
}
