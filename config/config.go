// Package config loads build session configuration from YAML files and
// BUILDFS_ environment variables and builds the session logger.
package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix = "BUILDFS"

	rootKey              = "root"
	caseSensitivityKey   = "case_sensitivity"
	deviceIDKey          = "device_id"
	generatedSuffixesKey = "generated_suffixes"

	backendTypeKey     = "backend.type"
	s3EndpointKey      = "backend.s3.endpoint"
	s3BucketKey        = "backend.s3.bucket"
	s3AccessKeyKey     = "backend.s3.access_key"
	s3SecretKeyKey     = "backend.s3.secret_key"
	s3UseSSLKey        = "backend.s3.use_ssl"
	s3PrefixKey        = "backend.s3.prefix"
	s3TimeoutKey       = "backend.s3.timeout"
	logLevelKey        = "log.level"
	logFilenameKey     = "log.filename"
	logMaxSizeKey      = "log.max_size"
	logMaxBackupsKey   = "log.max_backups"
	logMaxAgeKey       = "log.max_age"
	logCompressKey     = "log.compress"
	logAddSourceKey    = "log.add_source"
	defaultRoot        = "."
	defaultBackendType = BackendLocal
	defaultLogLevel    = "info"
	defaultS3Timeout   = 30 * time.Second

	defaultLogMaxSize    = 10
	defaultLogMaxBackups = 3
	defaultLogMaxAge     = 28
	defaultLogCompress   = true
)

// Case-sensitivity policies.
const (
	CaseAuto        = "auto"
	CaseSensitive   = "sensitive"
	CaseInsensitive = "insensitive"
)

// Real backend types.
const (
	BackendLocal  = "local"
	BackendMemory = "memory"
	BackendS3     = "s3"
)

// Config is the configuration of one build session.
type Config struct {
	// Root is the project root relative names resolve against.
	Root string `mapstructure:"root" yaml:"root"`

	// CaseSensitivity is one of CaseAuto, CaseSensitive or CaseInsensitive.
	CaseSensitivity string `mapstructure:"case_sensitivity" yaml:"case_sensitivity"`

	// DeviceID is the device id reported in stats. Zero picks one at random.
	DeviceID uint64 `mapstructure:"device_id" yaml:"device_id"`

	// GeneratedSuffixes selects the virtual files reported as generated
	// outputs.
	GeneratedSuffixes []string `mapstructure:"generated_suffixes" yaml:"generated_suffixes"`

	Backend BackendConfig `mapstructure:"backend" yaml:"backend"`
	Log     LogConfig     `mapstructure:"log" yaml:"log"`
}

// BackendConfig selects the real backend.
type BackendConfig struct {
	Type string   `mapstructure:"type" yaml:"type"`
	S3   S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config configures the s3 backend.
type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`

	// Timeout bounds each request, e.g. "10s".
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// Flags bound by WithFlags, mapped to their config keys.
var flagKeys = map[string]string{
	"root":      rootKey,
	"backend":   backendTypeKey,
	"log-level": logLevelKey,
	"log-file":  logFilenameKey,
}

// LoadOption configures Load.
type LoadOption func(*viper.Viper) error

// WithFlags binds the root, backend, log-level and log-file flags, when
// defined, over file and environment values. Flags only take effect when set
// on the command line.
func WithFlags(flags *pflag.FlagSet) LoadOption {
	return func(v *viper.Viper) error {
		for name, key := range flagKeys {
			flag := flags.Lookup(name)
			if flag == nil {
				continue
			}
			if err := v.BindPFlag(key, flag); err != nil {
				return platformerrors.Wrapf(err, platformerrors.CodeInvalidConfig, "failed to bind flag %q", name)
			}
		}
		return nil
	}
}

// Load reads configuration from path, or from defaults and the environment
// alone when path is empty. Environment variables take the form
// BUILDFS_BACKEND_S3_BUCKET for the key backend.s3.bucket.
//
// The returned Config has been validated.
func Load(path string, opts ...LoadOption) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
				return nil, platformerrors.Wrap(err, platformerrors.CodeNotFound, "config file not found")
			}
			return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(rootKey, defaultRoot)
	v.SetDefault(caseSensitivityKey, CaseAuto)
	v.SetDefault(deviceIDKey, 0)
	v.SetDefault(generatedSuffixesKey, []string{})

	v.SetDefault(backendTypeKey, defaultBackendType)
	v.SetDefault(s3EndpointKey, "")
	v.SetDefault(s3BucketKey, "")
	v.SetDefault(s3AccessKeyKey, "")
	v.SetDefault(s3SecretKeyKey, "")
	v.SetDefault(s3UseSSLKey, true)
	v.SetDefault(s3PrefixKey, "")
	v.SetDefault(s3TimeoutKey, defaultS3Timeout)

	v.SetDefault(logLevelKey, defaultLogLevel)
	v.SetDefault(logFilenameKey, "")
	v.SetDefault(logMaxSizeKey, defaultLogMaxSize)
	v.SetDefault(logMaxBackupsKey, defaultLogMaxBackups)
	v.SetDefault(logMaxAgeKey, defaultLogMaxAge)
	v.SetDefault(logCompressKey, defaultLogCompress)
	v.SetDefault(logAddSourceKey, false)
}

// Validate checks the configuration. Failures carry CodeInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Root) == "" {
		return invalid("root is required")
	}

	switch c.CaseSensitivity {
	case CaseAuto, CaseSensitive, CaseInsensitive:
	default:
		return invalid("case_sensitivity must be one of auto, sensitive, insensitive")
	}

	switch c.Backend.Type {
	case BackendLocal, BackendMemory:
	case BackendS3:
		if c.Backend.S3.Endpoint == "" {
			return invalid("backend.s3.endpoint is required for the s3 backend")
		}
		if c.Backend.S3.Bucket == "" {
			return invalid("backend.s3.bucket is required for the s3 backend")
		}
		if c.Backend.S3.Timeout < 0 {
			return invalid("backend.s3.timeout must not be negative")
		}
	default:
		return invalid("backend.type must be one of local, memory, s3")
	}

	if _, ok := parseSlogLevel(c.Log.Level); !ok {
		return invalid("log.level must be debug, info, warn, error or a number")
	}
	return nil
}

// CaseSensitive reports the configured case-sensitivity policy. ok is false
// for CaseAuto, leaving the choice to the platform.
func (c *Config) CaseSensitive() (sensitive, ok bool) {
	switch c.CaseSensitivity {
	case CaseSensitive:
		return true, true
	case CaseInsensitive:
		return false, true
	}
	return false, false
}

func invalid(message string) error {
	return platformerrors.New(platformerrors.CodeInvalidConfig, message)
}
