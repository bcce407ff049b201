package config

import (
	platformerrors "github.com/jmgilman/go/errors"
	"gopkg.in/yaml.v3"
)

const redacted = "<redacted>"

// Redacted returns a copy of c with credentials masked.
func (c Config) Redacted() Config {
	if c.Backend.S3.AccessKey != "" {
		c.Backend.S3.AccessKey = redacted
	}
	if c.Backend.S3.SecretKey != "" {
		c.Backend.S3.SecretKey = redacted
	}
	c.GeneratedSuffixes = append([]string(nil), c.GeneratedSuffixes...)
	return c
}

// YAML encodes the redacted configuration in the format Load reads.
func (c Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c.Redacted())
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to encode config")
	}
	return data, nil
}
