package get

import (
	"context"
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/cirruslabs/asyncoss/internal/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"io"
	"os"
)

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get OSS_URI [FILE]",
		Short: "Download an object to a file or to the standard output",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	conn, err := connection.New(cmd.Context())
	if err != nil {
		return err
	}

	bucketName, key, err := conn.ParseObjectURI(args[0])
	if err != nil {
		return err
	}

	body, err := open(cmd.Context(), conn, bucketName, key)
	if err != nil {
		return err
	}
	defer body.Close()

	if len(args) == 1 || args[1] == "-" {
		_, err = io.Copy(cmd.OutOrStdout(), body)

		return err
	}

	file, err := os.Create(args[1])
	if err != nil {
		return err
	}

	n, err := io.Copy(file, body)
	if err != nil {
		_ = file.Close()

		return fmt.Errorf("failed to write object %q to %s: %w", key, args[1], err)
	}

	if err := file.Close(); err != nil {
		return err
	}

	zap.S().Infof("downloaded %d bytes to %s", n, args[1])

	return nil
}

func open(ctx context.Context, conn *connection.Connection, bucketName string, key string) (io.ReadCloser, error) {
	if conn.API() == config.APIS3 {
		s3, err := conn.S3(ctx, bucketName)
		if err != nil {
			return nil, err
		}

		return s3.Get(ctx, key)
	}

	bucket, err := conn.Bucket(bucketName)
	if err != nil {
		return nil, err
	}

	result, err := bucket.GetObject(ctx, key)
	if err != nil {
		return nil, err
	}

	return result.Body, nil
}
