package config

import (
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
)

const (
	APIOSS = "oss"
	APIS3  = "s3"
)

type Config struct {
	Endpoint     string       `yaml:"endpoint"`
	CustomDomain bool         `yaml:"custom-domain"`
	Region       string       `yaml:"region"`
	Bucket       string       `yaml:"bucket"`
	AppName      string       `yaml:"app-name"`
	Credentials  *Credentials `yaml:"credentials"`
	Upload       *Upload      `yaml:"upload"`

	// API selects between the native OSS API (APIOSS, the default)
	// and the S3-compatible one (APIS3)
	API string `yaml:"api"`
}

type Credentials struct {
	AccessKeyID     string `yaml:"access-key-id"`
	AccessKeySecret string `yaml:"access-key-secret"`
	SecurityToken   string `yaml:"security-token"`

	// FromEnvironment loads credentials the same way the AWS SDK does,
	// e.g. from AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY
	FromEnvironment bool `yaml:"from-environment"`
}

type Upload struct {
	PartSize    string `yaml:"part-size"`
	Concurrency int    `yaml:"concurrency"`
}

func Parse(r io.Reader) (*Config, error) {
	var config Config

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return nil, err
	}

	if credentials := config.Credentials; credentials != nil {
		if credentials.FromEnvironment && credentials.AccessKeyID != "" {
			return nil, fmt.Errorf("credentials: \"from-environment\" cannot be used " +
				"together with \"access-key-id\"")
		}

		if credentials.AccessKeyID != "" && credentials.AccessKeySecret == "" {
			return nil, fmt.Errorf("credentials: \"access-key-secret\" is required " +
				"when \"access-key-id\" is set")
		}
	}

	if err := ValidateAPI(config.API); err != nil {
		return nil, err
	}

	if config.Upload != nil && config.Upload.Concurrency < 0 {
		return nil, fmt.Errorf("upload: \"concurrency\" cannot be negative, got %d",
			config.Upload.Concurrency)
	}

	return &config, nil
}

func ValidateAPI(api string) error {
	switch api {
	case "", APIOSS, APIS3:
		return nil
	default:
		return fmt.Errorf("api: unsupported API %q, expected %q or %q", api, APIOSS, APIS3)
	}
}
