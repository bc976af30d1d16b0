// Package connection turns the configuration file and command-line flags
// shared by all subcommands into ready-to-use object storage clients.
package connection

import (
	"bytes"
	"context"
	"fmt"
	configpkg "github.com/cirruslabs/asyncoss/internal/config"
	"github.com/cirruslabs/asyncoss/pkg/endpoint"
	"github.com/cirruslabs/asyncoss/pkg/oss"
	"github.com/cirruslabs/asyncoss/pkg/oss/auth"
	"github.com/cirruslabs/asyncoss/pkg/s3compat"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"os"
	"strings"
)

const uriScheme = "oss://"

var configPath string
var endpointOverride string
var customDomain bool
var regionOverride string
var bucketOverride string
var apiOverride string

// AddFlags registers the connection flags on the root command
// so that every subcommand inherits them.
func AddFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&configPath, "file", "f", "",
		"configuration file path (e.g. ~/.asyncoss.yml)")
	cmd.PersistentFlags().StringVar(&endpointOverride, "endpoint", "",
		"object storage endpoint (e.g. https://oss-cn-hangzhou.aliyuncs.com)")
	cmd.PersistentFlags().BoolVar(&customDomain, "custom-domain", false,
		"treat the endpoint as a custom domain bound to the bucket")
	cmd.PersistentFlags().StringVar(&regionOverride, "region", "",
		"region used for request signing")
	cmd.PersistentFlags().StringVar(&bucketOverride, "bucket", "",
		"default bucket for object keys that are not oss:// URIs")
	cmd.PersistentFlags().StringVar(&apiOverride, "api", "",
		fmt.Sprintf("API to talk to the object storage with, %q (default) or %q",
			configpkg.APIOSS, configpkg.APIS3))
}

type Connection struct {
	config *configpkg.Config
	signer auth.Signer
}

func New(ctx context.Context) (*Connection, error) {
	config := &configpkg.Config{}

	if configPath != "" {
		configBytes, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file at path %s: %w", configPath, err)
		}

		config, err = configpkg.Parse(bytes.NewReader(configBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to parse configuration file at path %s: %w", configPath, err)
		}
	}

	// Command-line flags take precedence over the configuration file
	if endpointOverride != "" {
		config.Endpoint = endpointOverride
	}
	if customDomain {
		config.CustomDomain = true
	}
	if regionOverride != "" {
		config.Region = regionOverride
	}
	if bucketOverride != "" {
		config.Bucket = bucketOverride
	}
	if apiOverride != "" {
		if err := configpkg.ValidateAPI(apiOverride); err != nil {
			return nil, err
		}

		config.API = apiOverride
	}
	if config.API == "" {
		config.API = configpkg.APIOSS
	}

	if config.Endpoint == "" {
		return nil, fmt.Errorf("endpoint needs to be specified either in the configuration file " +
			"or with --endpoint")
	}

	connection := &Connection{
		config: config,
	}

	switch {
	case config.Credentials == nil:
		connection.signer = auth.NewAnonymous()
	case config.Credentials.FromEnvironment:
		signer, err := auth.NewV4FromDefaultConfig(ctx, config.Region)
		if err != nil {
			return nil, err
		}

		connection.signer = signer
	default:
		connection.signer = auth.NewStaticV4(config.Credentials.AccessKeyID,
			config.Credentials.AccessKeySecret, config.Credentials.SecurityToken, config.Region)
	}

	return connection, nil
}

func (connection *Connection) options() []oss.Option {
	opts := []oss.Option{
		oss.WithLogger(zap.S()),
	}

	if connection.config.CustomDomain {
		opts = append(opts, oss.WithCustomDomain())
	}

	if connection.config.AppName != "" {
		opts = append(opts, oss.WithAppName(connection.config.AppName))
	}

	return opts
}

func (connection *Connection) URLMaker() (*endpoint.URLMaker, error) {
	return endpoint.NewURLMaker(connection.config.Endpoint, connection.config.CustomDomain)
}

func (connection *Connection) Service() (*oss.Service, error) {
	return oss.NewService(connection.config.Endpoint, connection.signer, connection.options()...)
}

func (connection *Connection) Bucket(name string) (*oss.Bucket, error) {
	return oss.NewBucket(connection.config.Endpoint, name, connection.signer, connection.options()...)
}

// S3 returns a client for the bucket that uses the S3-compatible API,
// with the same endpoint, addressing and credentials as Bucket.
func (connection *Connection) S3(ctx context.Context, name string) (*s3compat.S3, error) {
	s3Config := &s3compat.Config{
		Endpoint:     connection.config.Endpoint,
		CustomDomain: connection.config.CustomDomain,
		Region:       connection.config.Region,
		Bucket:       name,
	}

	if credentials := connection.config.Credentials; credentials != nil {
		s3Config.AccessKeyID = credentials.AccessKeyID
		s3Config.AccessKeySecret = credentials.AccessKeySecret
		s3Config.SecurityToken = credentials.SecurityToken
		s3Config.FromEnvironment = credentials.FromEnvironment
	}

	return s3compat.NewFromConfig(ctx, s3Config)
}

// API returns either config.APIOSS or config.APIS3.
func (connection *Connection) API() string {
	return connection.config.API
}

// DefaultBucket returns the bucket used for arguments that are plain keys.
func (connection *Connection) DefaultBucket() string {
	return connection.config.Bucket
}

func (connection *Connection) UploadOptions() (oss.UploadOptions, error) {
	var uploadOptions oss.UploadOptions

	upload := connection.config.Upload
	if upload == nil {
		return uploadOptions, nil
	}

	if upload.PartSize != "" {
		partSizeBytes, err := humanize.ParseBytes(upload.PartSize)
		if err != nil {
			return uploadOptions, fmt.Errorf("failed to parse part size value %q: %w",
				upload.PartSize, err)
		}

		uploadOptions.PartSize = int64(partSizeBytes)
	}

	uploadOptions.Concurrency = upload.Concurrency

	return uploadOptions, nil
}

// ParseURI splits an "oss://bucket/key" argument into the bucket and the key.
// Arguments without the oss:// scheme are keys in the default bucket.
func (connection *Connection) ParseURI(arg string) (string, string, error) {
	rest, ok := strings.CutPrefix(arg, uriScheme)
	if !ok {
		if connection.config.Bucket == "" {
			return "", "", fmt.Errorf("%q is not an %s URI and no default bucket is configured, "+
				"use --bucket or the \"bucket\" configuration file field", arg, uriScheme)
		}

		return connection.config.Bucket, arg, nil
	}

	bucket, key, _ := strings.Cut(rest, "/")
	if bucket == "" {
		return "", "", fmt.Errorf("%q has no bucket name", arg)
	}

	return bucket, key, nil
}

// ParseObjectURI is ParseURI for arguments that must name an object,
// e.g. "oss://bucket" and "oss://bucket/" are rejected.
func (connection *Connection) ParseObjectURI(arg string) (string, string, error) {
	bucket, key, err := connection.ParseURI(arg)
	if err != nil {
		return "", "", err
	}

	if key == "" {
		return "", "", fmt.Errorf("%q does not point to an object", arg)
	}

	return bucket, key, nil
}
