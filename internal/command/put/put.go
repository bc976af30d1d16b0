package put

import (
	"context"
	"fmt"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/cirruslabs/asyncoss/internal/config"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/cirruslabs/asyncoss/pkg/s3compat"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var contentType string
var acl string
var metadata []string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "put FILE OSS_URI",
		Short: "Upload a file, large files are uploaded in parallel parts",
		Args:  cobra.ExactArgs(2),
		RunE:  run,
	}

	cmd.Flags().StringVar(&contentType, "content-type", "",
		"object content type (guessed from the key extension by default)")
	cmd.Flags().StringVar(&acl, "acl", "",
		"object ACL (private, public-read or public-read-write)")
	cmd.Flags().StringArrayVar(&metadata, "meta", nil,
		"user metadata entry in the KEY=VALUE format, can be specified multiple times")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	conn, err := connection.New(cmd.Context())
	if err != nil {
		return err
	}

	bucketName, key, err := conn.ParseURI(args[1])
	if err != nil {
		return err
	}

	// Uploading to a "directory" keeps the file name
	if key == "" || strings.HasSuffix(key, "/") {
		key += filepath.Base(args[0])
	}

	userMetadata, err := parseMetadata()
	if err != nil {
		return err
	}

	uploadOptions, err := conn.UploadOptions()
	if err != nil {
		return err
	}

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	fileInfo, err := file.Stat()
	if err != nil {
		return err
	}

	if conn.API() == config.APIS3 {
		err = putS3(cmd.Context(), conn, bucketName, key, file, fileInfo.Size(), uploadOptions, userMetadata)
	} else {
		err = putOSS(cmd.Context(), conn, bucketName, key, file, fileInfo.Size(), uploadOptions, userMetadata)
	}
	if err != nil {
		return err
	}

	zap.S().Infof("uploaded %s to %s", humanize.IBytes(uint64(fileInfo.Size())), key)

	return nil
}

func putOSS(
	ctx context.Context,
	conn *connection.Connection,
	bucketName string,
	key string,
	file *os.File,
	size int64,
	uploadOptions oss.UploadOptions,
	userMetadata map[string]string,
) error {
	bucket, err := conn.Bucket(bucketName)
	if err != nil {
		return err
	}

	var opts []oss.RequestOption

	if contentType != "" {
		opts = append(opts, oss.WithContentType(contentType))
	}

	if acl != "" {
		opts = append(opts, oss.WithHeader(oss.HeaderObjectACL, acl))
	}

	for name, value := range userMetadata {
		opts = append(opts, oss.WithMetadata(name, value))
	}

	uploadOptions.RequestOptions = opts

	partSize := uploadOptions.PartSize
	if partSize == 0 {
		partSize = oss.DefaultPartSize
	}

	if size <= partSize {
		_, err = bucket.PutObject(ctx, key, file, size, opts...)
	} else {
		_, err = bucket.Upload(ctx, key, file, size, uploadOptions)
	}

	return err
}

func putS3(
	ctx context.Context,
	conn *connection.Connection,
	bucketName string,
	key string,
	file *os.File,
	size int64,
	uploadOptions oss.UploadOptions,
	userMetadata map[string]string,
) error {
	s3, err := conn.S3(ctx, bucketName)
	if err != nil {
		return err
	}

	objectContentType := contentType
	if objectContentType == "" {
		objectContentType = mime.TypeByExtension(path.Ext(key))
	}

	// The S3 API has a larger minimum part size
	partSize := uploadOptions.PartSize
	if partSize != 0 {
		partSize = max(partSize, s3compat.MinPartSize)
	}

	return s3.Upload(ctx, key, file, size, s3compat.UploadOptions{
		PartSize:    partSize,
		Concurrency: uploadOptions.Concurrency,
		ContentType: objectContentType,
		ACL:         types.ObjectCannedACL(acl),
		Metadata:    userMetadata,
	})
}

func parseMetadata() (map[string]string, error) {
	userMetadata := map[string]string{}

	for _, entry := range metadata {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("metadata entry %q should be in the KEY=VALUE format", entry)
		}

		userMetadata[key] = value
	}

	return userMetadata, nil
}
