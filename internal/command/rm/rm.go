package rm

import (
	"context"
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/cirruslabs/asyncoss/internal/config"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Batch deletion accepts at most 1000 keys per request
const batchSize = 1000

func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rm OSS_URI...",
		Short: "Delete objects",
		Args:  cobra.MinimumNArgs(1),
		RunE:  run,
	}
}

type location struct {
	bucket string
	key    string
}

func run(cmd *cobra.Command, args []string) error {
	conn, err := connection.New(cmd.Context())
	if err != nil {
		return err
	}

	var locations []location

	for _, arg := range args {
		bucket, key, err := conn.ParseObjectURI(arg)
		if err != nil {
			return err
		}

		locations = append(locations, location{bucket: bucket, key: key})
	}

	byBucket := lo.GroupBy(locations, func(location location) string {
		return location.bucket
	})

	for bucketName, bucketLocations := range byBucket {
		keys := lo.Map(bucketLocations, func(location location, _ int) string {
			return location.key
		})

		if conn.API() == config.APIS3 {
			if err := removeS3(cmd.Context(), conn, bucketName, keys); err != nil {
				return err
			}

			continue
		}

		bucket, err := conn.Bucket(bucketName)
		if err != nil {
			return err
		}

		if len(keys) == 1 {
			if _, err := bucket.DeleteObject(cmd.Context(), keys[0]); err != nil {
				return err
			}

			zap.S().Infof("deleted %s from %s", keys[0], bucketName)

			continue
		}

		for _, chunk := range lo.Chunk(keys, batchSize) {
			result, err := bucket.BatchDeleteObjects(cmd.Context(), chunk)
			if err != nil {
				return err
			}

			zap.S().Infof("deleted %d objects from %s", len(result.DeletedKeys), bucketName)
		}
	}

	return nil
}

func removeS3(ctx context.Context, conn *connection.Connection, bucketName string, keys []string) error {
	s3, err := conn.S3(ctx, bucketName)
	if err != nil {
		return err
	}

	for _, key := range keys {
		if err := s3.Delete(ctx, key); err != nil {
			return err
		}
	}

	zap.S().Infof("deleted %d objects from %s", len(keys), bucketName)

	return nil
}
