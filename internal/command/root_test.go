package command_test

import (
	"bytes"
	"context"
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/command"
	"github.com/cirruslabs/asyncoss/internal/testutil"
	"github.com/cirruslabs/asyncoss/pkg/s3compat"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	var output bytes.Buffer

	cmd := command.NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&output)
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	return output.String()
}

func TestURL(t *testing.T) {
	output := execute(t, "url", "--mode", "--endpoint", "oss-cn-hangzhou.aliyuncs.com",
		"oss://my-bucket/dir/a b.txt")
	require.Equal(t, "virtual-hosted\thttp://my-bucket.oss-cn-hangzhou.aliyuncs.com/dir/a%20b.txt\n", output)

	output = execute(t, "url", "--endpoint", "https://cdn.example.com", "--custom-domain",
		"oss://my-bucket/index.html")
	require.Equal(t, "https://cdn.example.com/index.html\n", output)

	output = execute(t, "url", "--endpoint", "http://[::1]:9000", "--bucket", "my-bucket", "object")
	require.Equal(t, "http://[::1]:9000/my-bucket/object\n", output)
}

func TestObjectCommands(t *testing.T) {
	fake := testutil.NewFakeOSS(t)
	fake.CreateBucket("test-bucket")

	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(sourcePath, []byte("Hello, World!"), 0600))

	connectionFlags := []string{"--endpoint", fake.Endpoint(), "--bucket", "test-bucket"}

	withFlags := func(args ...string) []string {
		return append(args, connectionFlags...)
	}

	// Upload into a "directory" keeps the file name
	execute(t, withFlags("put", "--meta", "owner=alice", sourcePath, "docs/")...)

	object, ok := fake.Object("test-bucket", "docs/notes.txt")
	require.True(t, ok)
	require.Equal(t, "alice", object.Metadata.Get("X-Oss-Meta-Owner"))

	execute(t, withFlags("put", sourcePath, "oss://test-bucket/other.txt")...)

	// Listing
	output := execute(t, withFlags("ls")...)
	require.Contains(t, output, "PRE")
	require.Contains(t, output, "docs/")
	require.Contains(t, output, "other.txt")
	require.NotContains(t, output, "docs/notes.txt")

	output = execute(t, withFlags("ls", "--recursive", "--filter", `key startsWith "docs/"`)...)
	require.Contains(t, output, "docs/notes.txt")
	require.NotContains(t, output, "other.txt")

	// Buckets are listed when there's no bucket to list objects in
	output = execute(t, "ls", "--endpoint", fake.Endpoint())
	require.Contains(t, output, "test-bucket")

	// Download
	output = execute(t, withFlags("get", "docs/notes.txt")...)
	require.Equal(t, "Hello, World!", output)

	targetPath := filepath.Join(dir, "downloaded.txt")
	execute(t, withFlags("get", "docs/notes.txt", targetPath)...)

	targetBytes, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	require.Equal(t, "Hello, World!", string(targetBytes))

	// Presigning without credentials yields the plain URL
	output = execute(t, withFlags("presign", "docs/notes.txt")...)
	require.Equal(t, fake.Endpoint()+"/test-bucket/docs/notes.txt", strings.TrimSpace(output))

	// Deletion
	execute(t, withFlags("rm", "docs/notes.txt", "oss://test-bucket/other.txt")...)

	_, ok = fake.Object("test-bucket", "docs/notes.txt")
	require.False(t, ok)

	_, ok = fake.Object("test-bucket", "other.txt")
	require.False(t, ok)
}

func TestBucketURIsAreNotObjects(t *testing.T) {
	fake := testutil.NewFakeOSS(t)
	fake.CreateBucket("test-bucket")

	for _, args := range [][]string{
		{"rm", "oss://test-bucket"},
		{"rm", "oss://test-bucket/"},
		{"rm", "oss://test-bucket/a.txt", "oss://test-bucket"},
		{"get", "oss://test-bucket/"},
		{"presign", "oss://test-bucket"},
	} {
		cmd := command.NewRootCommand()
		cmd.SetArgs(append(args, "--endpoint", fake.Endpoint()))
		cmd.SetOut(io.Discard)
		require.ErrorContains(t, cmd.ExecuteContext(context.Background()),
			"does not point to an object", args)
	}

	// No requests were made and the bucket still exists
	require.Empty(t, fake.Requests())

	output := execute(t, "ls", "--endpoint", fake.Endpoint())
	require.Contains(t, output, "test-bucket")
}

func TestS3API(t *testing.T) {
	s3Config := testutil.S3(t)

	// Creates the bucket
	_, err := s3compat.NewFromConfig(context.Background(), s3Config)
	require.NoError(t, err)

	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(fmt.Sprintf(`endpoint: %s
region: %s
bucket: %s
api: s3
credentials:
  access-key-id: %s
  access-key-secret: %s
`, s3Config.Endpoint, s3Config.Region, s3Config.Bucket, s3Config.AccessKeyID,
		s3Config.AccessKeySecret)), 0600))

	sourcePath := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(sourcePath, []byte("Hello, World!"), 0600))

	execute(t, "put", "--file", configPath, "--meta", "owner=alice", sourcePath, "docs/")

	output := execute(t, "ls", "--file", configPath)
	require.Contains(t, output, "PRE")
	require.Contains(t, output, "docs/")

	output = execute(t, "ls", "--file", configPath, "--recursive", "--filter", `size == 13`)
	require.Contains(t, output, "docs/notes.txt")

	output = execute(t, "get", "--file", configPath, "docs/notes.txt")
	require.Equal(t, "Hello, World!", output)

	// Addressing is decided by the same resolver as with the OSS API
	output = execute(t, "presign", "--file", configPath, "docs/notes.txt")
	require.Contains(t, output, "://"+s3Config.Bucket+".s3.localhost.localstack.cloud:")
	require.Contains(t, output, "X-Amz-Signature=")

	response, err := http.Get(strings.TrimSpace(output))
	require.NoError(t, err)
	defer response.Body.Close()
	require.Equal(t, http.StatusOK, response.StatusCode)

	execute(t, "rm", "--file", configPath, "docs/notes.txt")

	output = execute(t, "ls", "--file", configPath, "--recursive")
	require.NotContains(t, output, "docs/notes.txt")
}
