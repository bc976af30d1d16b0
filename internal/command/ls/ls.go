package ls

import (
	"fmt"
	"github.com/cirruslabs/asyncoss/internal/command/connection"
	"github.com/cirruslabs/asyncoss/internal/config"
	"github.com/cirruslabs/asyncoss/internal/filter"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"io"
	"text/tabwriter"
	"time"
)

var recursive bool
var filterSource string

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls [OSS_URI]",
		Short: "List buckets, or objects in a bucket",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false,
		"list all objects under the prefix instead of grouping them by \"/\"")
	cmd.Flags().StringVar(&filterSource, "filter", "",
		"only list objects matching the expression (e.g. 'size > 1024 && key endsWith \".log\"')")

	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	conn, err := connection.New(cmd.Context())
	if err != nil {
		return err
	}

	writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	defer writer.Flush()

	if len(args) == 0 && conn.DefaultBucket() == "" {
		if conn.API() == config.APIS3 {
			return fmt.Errorf("listing buckets is only supported with the %q API", config.APIOSS)
		}

		return listBuckets(cmd, conn, writer)
	}

	var bucketName, prefix string

	if len(args) == 0 {
		bucketName = conn.DefaultBucket()
	} else {
		bucketName, prefix, err = conn.ParseURI(args[0])
		if err != nil {
			return err
		}
	}

	var objectFilter *filter.Filter

	if filterSource != "" {
		objectFilter, err = filter.New(filterSource)
		if err != nil {
			return err
		}
	}

	if conn.API() == config.APIS3 {
		return listS3(cmd, conn, writer, bucketName, prefix, objectFilter)
	}

	bucket, err := conn.Bucket(bucketName)
	if err != nil {
		return err
	}

	input := oss.ListObjectsInput{
		Prefix: prefix,
	}

	if !recursive {
		input.Delimiter = "/"
	}

	for {
		result, err := bucket.ListObjects(cmd.Context(), input)
		if err != nil {
			return err
		}

		for _, commonPrefix := range result.CommonPrefixes {
			if _, err := fmt.Fprintf(writer, "\tPRE\t%s\n", commonPrefix); err != nil {
				return err
			}
		}

		for _, object := range result.Objects {
			if err := printObject(writer, object, objectFilter); err != nil {
				return err
			}
		}

		if !result.IsTruncated {
			return nil
		}

		input.Marker = result.NextMarker
	}
}

func listS3(
	cmd *cobra.Command,
	conn *connection.Connection,
	writer io.Writer,
	bucketName string,
	prefix string,
	objectFilter *filter.Filter,
) error {
	s3, err := conn.S3(cmd.Context(), bucketName)
	if err != nil {
		return err
	}

	delimiter := "/"
	if recursive {
		delimiter = ""
	}

	infos, commonPrefixes, err := s3.List(cmd.Context(), prefix, delimiter)
	if err != nil {
		return err
	}

	for _, commonPrefix := range commonPrefixes {
		if _, err := fmt.Fprintf(writer, "\tPRE\t%s\n", commonPrefix); err != nil {
			return err
		}
	}

	for _, info := range infos {
		object := oss.ObjectSummary{
			Key:          info.Key,
			LastModified: info.LastModified,
			ETag:         info.ETag,
			Size:         info.Size,
		}

		if err := printObject(writer, object, objectFilter); err != nil {
			return err
		}
	}

	return nil
}

func printObject(writer io.Writer, object oss.ObjectSummary, objectFilter *filter.Filter) error {
	if objectFilter != nil {
		match, err := objectFilter.Match(object)
		if err != nil {
			return err
		}

		if !match {
			return nil
		}
	}

	_, err := fmt.Fprintf(writer, "%s\t%s\t%s\n", object.LastModified.Local().Format(time.DateTime),
		humanize.IBytes(uint64(object.Size)), object.Key)

	return err
}

func listBuckets(cmd *cobra.Command, conn *connection.Connection, writer io.Writer) error {
	service, err := conn.Service()
	if err != nil {
		return err
	}

	input := oss.ListBucketsInput{}

	for {
		result, err := service.ListBuckets(cmd.Context(), input)
		if err != nil {
			return err
		}

		for _, bucket := range result.Buckets {
			if _, err := fmt.Fprintf(writer, "%s\t%s\t%s\n", bucket.CreationDate.Local().Format(time.DateTime),
				bucket.Location, bucket.Name); err != nil {
				return err
			}
		}

		if !result.IsTruncated {
			return nil
		}

		input.Marker = result.NextMarker
	}
}
