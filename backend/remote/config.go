// Package remote provides a read-only MinIO/S3-compatible real backend.
//
// The bucket is exposed as a core.ReadFS so that a layered store can overlay
// generated sources on top of files that live in object storage. Object keys
// map to normalized paths; a key prefix that has children reports as a
// directory.
package remote

import (
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/minio/minio-go/v7"
)

// Config locates the bucket holding project sources.
type Config struct {
	// Bucket holding the sources. Required.
	Bucket string

	// Prefix scopes every path under a key prefix, e.g. "repos/app".
	Prefix string

	// Client is used as-is when set; the connection fields below are then
	// ignored.
	Client *minio.Client

	// Connection settings for a client created by New.
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool

	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds requests when Config.Timeout is unset.
const DefaultTimeout = 30 * time.Second

// validate requires a bucket plus either a client or a full set of
// connection settings.
func (c *Config) validate() error {
	switch {
	case c.Bucket == "":
		return invalidConfig("bucket is required")
	case c.Timeout < 0:
		return invalidConfig("timeout must not be negative")
	case c.Client != nil:
		return nil
	case c.Endpoint == "":
		return invalidConfig("endpoint is required without a client")
	case c.AccessKey == "":
		return invalidConfig("access key is required without a client")
	case c.SecretKey == "":
		return invalidConfig("secret key is required without a client")
	}
	return nil
}

func invalidConfig(message string) error {
	return platformerrors.New(platformerrors.CodeInvalidConfig, message)
}
