package presign

import (
	"context"
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/cirruslabs/asyncoss/internal/config"
	"github.com/spf13/cobra"
	"net/http"
	"strings"
	"time"
)

var method string
var expires time.Duration

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presign OSS_URI",
		Short: "Generate a URL that grants time-limited access to an object",
		Args:  cobra.ExactArgs(1),
		RunE:  run,
	}

	cmd.Flags().StringVar(&method, "method", http.MethodGet, "HTTP method the URL will be used with")
	cmd.Flags().DurationVar(&expires, "expires", time.Hour, "how long the URL stays valid")

	return cmd
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

	signedURL, err := presign(cmd.Context(), conn, bucketName, key)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), signedURL)

	return err
}

func presign(ctx context.Context, conn *connection.Connection, bucketName string, key string) (string, error) {
	if conn.API() == config.APIS3 {
		s3, err := conn.S3(ctx, bucketName)
		if err != nil {
			return "", err
		}

		return s3.Presign(ctx, strings.ToUpper(method), key, expires)
	}

	bucket, err := conn.Bucket(bucketName)
	if err != nil {
		return "", err
	}

	return bucket.SignURL(ctx, strings.ToUpper(method), key, expires)
}
