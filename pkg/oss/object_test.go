package oss_test

import (
	"bytes"
	"context"
	"errors"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/cirruslabs/asyncoss/pkg/oss/auth"
	"github.com/stretchr/testify/require"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObjectSimple(t *testing.T) {
	ctx := context.Background()

	fake, bucket := newTestBucket(t)

	// Retrieval of a non-existent object should fail
	_, err := bucket.GetObject(ctx, "dir/hello world.json")
	require.ErrorIs(t, err, oss.ErrNotFound)

	var serviceError *oss.ServiceError
	require.True(t, errors.As(err, &serviceError))
	require.Equal(t, "NoSuchKey", serviceError.Code)
	require.NotEmpty(t, serviceError.RequestID)

	exists, err := bucket.ObjectExists(ctx, "dir/hello world.json")
	require.NoError(t, err)
	require.False(t, exists)

	// Deletion of a non-existent object should succeed
	_, err = bucket.DeleteObject(ctx, "dir/hello world.json")
	require.NoError(t, err)

	// Insertion should succeed
	contentBytes := []byte("Hello, World!")

	putResult, err := bucket.PutObject(ctx, "dir/hello world.json", bytes.NewReader(contentBytes),
		int64(len(contentBytes)), oss.WithMetadata("Owner", "alice"))
	require.NoError(t, err)
	require.NotEmpty(t, putResult.ETag)
	require.NotContains(t, putResult.ETag, `"`)

	// Slashes in keys are kept as-is
	require.Equal(t, "/test-bucket/dir/hello%20world.json", fake.LastRequest().Path)

	object, ok := fake.Object(testBucketName, "dir/hello world.json")
	require.True(t, ok)
	require.Equal(t, "application/json", object.ContentType)

	// Retrieval of an existing object should succeed
	getResult, err := bucket.GetObject(ctx, "dir/hello world.json")
	require.NoError(t, err)

	retrievedContentBytes, err := io.ReadAll(getResult.Body)
	require.NoError(t, err)
	require.NoError(t, getResult.Body.Close())
	require.Equal(t, contentBytes, retrievedContentBytes)
	require.Equal(t, putResult.ETag, getResult.ETag)
	require.Equal(t, "alice", getResult.Metadata["owner"])

	// Range retrieval
	getResult, err = bucket.GetObject(ctx, "dir/hello world.json", oss.WithRange(7, 11))
	require.NoError(t, err)

	retrievedContentBytes, err = io.ReadAll(getResult.Body)
	require.NoError(t, err)
	require.NoError(t, getResult.Body.Close())
	require.Equal(t, "World", string(retrievedContentBytes))
	require.Equal(t, http.StatusPartialContent, getResult.StatusCode)

	// Metadata retrieval
	meta, err := bucket.HeadObject(ctx, "dir/hello world.json")
	require.NoError(t, err)
	require.EqualValues(t, len(contentBytes), meta.ContentLength)
	require.Equal(t, "Normal", meta.ObjectType)
	require.False(t, meta.LastModified.IsZero())

	meta, err = bucket.GetObjectMeta(ctx, "dir/hello world.json")
	require.NoError(t, err)
	require.Equal(t, putResult.ETag, meta.ETag)
	require.Equal(t, "objectMeta", fake.LastRequest().RawQuery)

	exists, err = bucket.ObjectExists(ctx, "dir/hello world.json")
	require.NoError(t, err)
	require.True(t, exists)

	// Deletion of an existing object should succeed
	_, err = bucket.DeleteObject(ctx, "dir/hello world.json")
	require.NoError(t, err)

	_, err = bucket.HeadObject(ctx, "dir/hello world.json")
	require.ErrorIs(t, err, oss.ErrNotFound)
}

func TestObjectFiles(t *testing.T) {
	ctx := context.Background()

	_, bucket := newTestBucket(t)

	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.html")
	targetPath := filepath.Join(dir, "target.html")

	require.NoError(t, os.WriteFile(sourcePath, []byte("<html></html>"), 0600))

	_, err := bucket.PutObjectFromFile(ctx, "index.html", sourcePath)
	require.NoError(t, err)

	meta, err := bucket.GetObjectToFile(ctx, "index.html", targetPath)
	require.NoError(t, err)
	require.Equal(t, "text/html; charset=utf-8", meta.ContentType)

	targetBytes, err := os.ReadFile(targetPath)
	require.NoError(t, err)
	require.Equal(t, "<html></html>", string(targetBytes))
}

func TestListObjects(t *testing.T) {
	ctx := context.Background()

	_, bucket := newTestBucket(t)

	for _, key := range []string{"a/1", "a/2", "b", "c d", "e&f<g>"} {
		_, err := bucket.PutObject(ctx, key, strings.NewReader(key), int64(len(key)))
		require.NoError(t, err)
	}

	// Hierarchical listing
	result, err := bucket.ListObjects(ctx, oss.ListObjectsInput{Delimiter: "/"})
	require.NoError(t, err)
	require.Equal(t, []string{"a/"}, result.CommonPrefixes)
	require.Len(t, result.Objects, 3)
	require.Equal(t, "b", result.Objects[0].Key)
	require.Equal(t, "c d", result.Objects[1].Key)
	require.Equal(t, "e&f<g>", result.Objects[2].Key)
	require.EqualValues(t, 6, result.Objects[2].Size)
	require.NotContains(t, result.Objects[2].ETag, `"`)

	// Prefix listing
	result, err = bucket.ListObjects(ctx, oss.ListObjectsInput{Prefix: "a/"})
	require.NoError(t, err)
	require.Len(t, result.Objects, 2)
	require.Equal(t, "a/", result.Prefix)

	// Paginated listing
	var keys []string

	input := oss.ListObjectsInput{MaxKeys: 2}

	for {
		result, err := bucket.ListObjects(ctx, input)
		require.NoError(t, err)
		require.LessOrEqual(t, len(result.Objects), 2)

		for _, object := range result.Objects {
			keys = append(keys, object.Key)
		}

		if !result.IsTruncated {
			break
		}

		input.Marker = result.NextMarker
	}

	require.Equal(t, []string{"a/1", "a/2", "b", "c d", "e&f<g>"}, keys)

	// Batch deletion
	deleteResult, err := bucket.BatchDeleteObjects(ctx, []string{"b", "c d", "e&f<g>"})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c d", "e&f<g>"}, deleteResult.DeletedKeys)

	result, err = bucket.ListObjects(ctx, oss.ListObjectsInput{})
	require.NoError(t, err)
	require.Len(t, result.Objects, 2)

	_, err = bucket.BatchDeleteObjects(ctx, nil)
	require.Error(t, err)
}

func TestCopyObject(t *testing.T) {
	ctx := context.Background()

	fake, bucket := newTestBucket(t)

	_, err := bucket.PutObject(ctx, "source/a b.txt", strings.NewReader("contents"), 8,
		oss.WithMetadata("color", "red"))
	require.NoError(t, err)

	copyResult, err := bucket.CopyObject(ctx, testBucketName, "source/a b.txt", "target.txt")
	require.NoError(t, err)
	require.NotContains(t, copyResult.ETag, `"`)
	require.Equal(t, "/test-bucket/source%2Fa%20b.txt", fake.LastRequest().Header.Get(oss.HeaderCopySource))

	meta, err := bucket.HeadObject(ctx, "target.txt")
	require.NoError(t, err)
	require.Equal(t, "red", meta.Metadata["color"])

	// Metadata update replaces user metadata
	_, err = bucket.UpdateObjectMeta(ctx, "target.txt", oss.WithMetadata("size", "large"))
	require.NoError(t, err)
	require.Equal(t, "REPLACE", fake.LastRequest().Header.Get(oss.HeaderMetadataDirect))

	meta, err = bucket.HeadObject(ctx, "target.txt")
	require.NoError(t, err)
	require.Equal(t, map[string]string{"size": "large"}, meta.Metadata)

	// Copying a non-existent object should fail
	_, err = bucket.CopyObject(ctx, testBucketName, "missing", "target.txt")
	require.ErrorIs(t, err, oss.ErrNotFound)
}

func TestAppendObject(t *testing.T) {
	ctx := context.Background()

	_, bucket := newTestBucket(t)

	result, err := bucket.AppendObject(ctx, "log", 0, strings.NewReader("Hello,"), 6)
	require.NoError(t, err)
	require.EqualValues(t, 6, result.NextPosition)

	result, err = bucket.AppendObject(ctx, "log", result.NextPosition, strings.NewReader(" World!"), 7)
	require.NoError(t, err)
	require.EqualValues(t, 13, result.NextPosition)

	// Appending at a wrong position should fail
	_, err = bucket.AppendObject(ctx, "log", 6, strings.NewReader("!"), 1)

	var serviceError *oss.ServiceError
	require.True(t, errors.As(err, &serviceError))
	require.Equal(t, http.StatusConflict, serviceError.StatusCode)
	require.Equal(t, "PositionNotEqualToLength", serviceError.Code)

	meta, err := bucket.HeadObject(ctx, "log")
	require.NoError(t, err)
	require.Equal(t, "Appendable", meta.ObjectType)
	require.EqualValues(t, 13, meta.ContentLength)
}

func TestObjectACLAndSymlink(t *testing.T) {
	ctx := context.Background()

	_, bucket := newTestBucket(t)

	_, err := bucket.PutObject(ctx, "target dir/file", strings.NewReader("x"), 1)
	require.NoError(t, err)

	acl, err := bucket.GetObjectACL(ctx, "target dir/file")
	require.NoError(t, err)
	require.Equal(t, oss.ACLDefault, acl.Grant)

	_, err = bucket.PutObjectACL(ctx, "target dir/file", oss.ACLPublicRead)
	require.NoError(t, err)

	acl, err = bucket.GetObjectACL(ctx, "target dir/file")
	require.NoError(t, err)
	require.Equal(t, oss.ACLPublicRead, acl.Grant)

	_, err = bucket.PutSymlink(ctx, "target dir/file", "link")
	require.NoError(t, err)

	symlink, err := bucket.GetSymlink(ctx, "link")
	require.NoError(t, err)
	require.Equal(t, "target dir/file", symlink.Target)

	_, err = bucket.RestoreObject(ctx, "target dir/file")
	require.NoError(t, err)

	_, err = bucket.RestoreObject(ctx, "missing")
	require.ErrorIs(t, err, oss.ErrNotFound)
}

func TestSignURL(t *testing.T) {
	ctx := context.Background()

	fake, _ := newTestBucket(t)

	bucket, err := oss.NewBucket(fake.Endpoint(), testBucketName,
		auth.NewStaticV4("access-key-id", "access-key-secret", "", "oss-cn-hangzhou"))
	require.NoError(t, err)

	// Signed requests are accepted as usual
	_, err = bucket.PutObject(ctx, "shared/file.txt", strings.NewReader("shared"), 6)
	require.NoError(t, err)
	require.Contains(t, fake.LastRequest().Header.Get("Authorization"), "Credential=access-key-id/")

	signedURL, err := bucket.SignURL(ctx, http.MethodGet, "shared/file.txt", time.Hour)
	require.NoError(t, err)

	parsedURL, err := url.Parse(signedURL)
	require.NoError(t, err)
	require.Equal(t, "/test-bucket/shared/file.txt", parsedURL.EscapedPath())
	require.Equal(t, "3600", parsedURL.Query().Get("X-Amz-Expires"))
	require.NotEmpty(t, parsedURL.Query().Get("X-Amz-Signature"))

	// The URL can be used without credentials
	response, err := http.Get(signedURL)
	require.NoError(t, err)
	defer response.Body.Close()

	require.Equal(t, http.StatusOK, response.StatusCode)

	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	require.Equal(t, "shared", string(body))

	// Anonymous buckets return the plain URL
	_, anonymousBucket := newTestBucket(t)

	unsignedURL, err := anonymousBucket.SignURL(ctx, http.MethodGet, "shared/file.txt", time.Hour)
	require.NoError(t, err)
	require.NotContains(t, unsignedURL, "X-Amz-Signature")
	require.True(t, strings.HasSuffix(unsignedURL, "/test-bucket/shared/file.txt"))
}

func TestEmptyKeyIsRejected(t *testing.T) {
	ctx := context.Background()

	fake, bucket := newTestBucket(t)

	_, err := bucket.PutObject(ctx, "a.json", strings.NewReader("{}"), 2)
	require.NoError(t, err)

	numRequests := len(fake.Requests())

	operations := map[string]func() error{
		"delete": func() error {
			_, err := bucket.DeleteObject(ctx, "")

			return err
		},
		"put": func() error {
			_, err := bucket.PutObject(ctx, "", strings.NewReader("{}"), 2)

			return err
		},
		"append": func() error {
			_, err := bucket.AppendObject(ctx, "", 0, strings.NewReader("{}"), 2)

			return err
		},
		"get": func() error {
			_, err := bucket.GetObject(ctx, "")

			return err
		},
		"head": func() error {
			_, err := bucket.HeadObject(ctx, "")

			return err
		},
		"copy target": func() error {
			_, err := bucket.CopyObject(ctx, testBucketName, "a.json", "")

			return err
		},
		"copy source": func() error {
			_, err := bucket.CopyObject(ctx, testBucketName, "", "b.json")

			return err
		},
		"object ACL": func() error {
			_, err := bucket.PutObjectACL(ctx, "", oss.ACLPublicRead)

			return err
		},
		"multipart upload": func() error {
			_, err := bucket.InitMultipartUpload(ctx, "")

			return err
		},
		"batch delete": func() error {
			_, err := bucket.BatchDeleteObjects(ctx, []string{"a.json", ""})

			return err
		},
		"sign URL": func() error {
			_, err := bucket.SignURL(ctx, http.MethodGet, "", time.Hour)

			return err
		},
		"live channel": func() error {
			_, err := bucket.DeleteLiveChannel(ctx, "")

			return err
		},
	}

	for name, operation := range operations {
		t.Run(name, func(t *testing.T) {
			require.ErrorIs(t, operation(), oss.ErrEmptyKey)
		})
	}

	// Nothing reached the server and the bucket is intact
	require.Len(t, fake.Requests(), numRequests)

	_, err = bucket.GetBucketInfo(ctx)
	require.NoError(t, err)

	_, ok := fake.Object(testBucketName, "a.json")
	require.True(t, ok)
}
