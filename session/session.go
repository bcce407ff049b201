// Package session assembles a complete build file-system stack from
// configuration: the real backend, the layered store, the compiler host,
// the cached bundler input file system and the interceptor joining them.
//
// A Session is driven in cycles. The compiler writes outputs through Host,
// the bundler reads through FileSystem, and NextCycle hands back the paths
// that changed so the caller can schedule rebuilds.
package session

import (
	"io"
	"log/slog"
	"path"
	"path/filepath"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/core"

	"github.com/jmgilman/go/buildfs/backend"
	"github.com/jmgilman/go/buildfs/backend/remote"
	"github.com/jmgilman/go/buildfs/config"
	"github.com/jmgilman/go/buildfs/host"
	"github.com/jmgilman/go/buildfs/inputfs"
	"github.com/jmgilman/go/buildfs/intercept"
	"github.com/jmgilman/go/buildfs/store"
)

// Session owns one build file-system stack.
type Session struct {
	cfg     *config.Config
	backend core.ReadFS
	store   *store.Store
	host    *host.Host
	input   *inputfs.FS
	fs      *intercept.FileSystem
	logger  *slog.Logger
	closer  io.Closer
}

type options struct {
	backend   core.ReadFS
	logger    *slog.Logger
	hostOpts  []host.Option
	storeOpts []store.Option
}

// Option configures session creation.
type Option func(*options)

// WithBackend uses b as the real backend instead of the one named by the
// configuration.
func WithBackend(b core.ReadFS) Option {
	return func(o *options) {
		o.backend = b
	}
}

// WithLogger uses logger instead of building one from the log
// configuration.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithHostOptions appends options applied when the host is created, after
// those derived from the configuration.
func WithHostOptions(opts ...host.Option) Option {
	return func(o *options) {
		o.hostOpts = append(o.hostOpts, opts...)
	}
}

// WithStoreOptions appends options applied when the store is created.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) {
		o.storeOpts = append(o.storeOpts, opts...)
	}
}

// New builds a session from cfg. cfg is validated first; failures carry
// CodeInvalidConfig.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	if cfg == nil {
		return nil, platformerrors.New(platformerrors.CodeInvalidConfig, "session requires a config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{cfg: cfg, logger: o.logger}
	if s.logger == nil {
		w := cfg.Log.Writer()
		s.closer = w
		s.logger = config.NewLogger(cfg.Log, w)
	}

	s.backend = o.backend
	if s.backend == nil {
		b, err := openBackend(cfg.Backend)
		if err != nil {
			_ = s.close()
			return nil, err
		}
		s.backend = b
	}

	st, err := store.New(s.backend, o.storeOpts...)
	if err != nil {
		_ = s.close()
		return nil, platformerrors.Wrap(err, platformerrors.CodeInternal, "failed to create store")
	}
	s.store = st

	root, err := projectRoot(cfg.Root, cfg.Backend.Type)
	if err != nil {
		_ = s.close()
		return nil, err
	}

	h, err := host.New(root, st, append(hostOptions(cfg, s.logger), o.hostOpts...)...)
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.host = h

	s.input = inputfs.New(s.backend, inputfs.WithLogger(s.logger))
	fsys, err := intercept.New(s.input, h, intercept.WithLogger(s.logger))
	if err != nil {
		_ = s.close()
		return nil, err
	}
	s.fs = fsys

	s.logger.Debug("build session ready",
		"root", root,
		"backend", cfg.Backend.Type,
		"case_sensitive", h.UseCaseSensitiveFileNames(),
	)
	return s, nil
}

func openBackend(cfg config.BackendConfig) (core.ReadFS, error) {
	switch cfg.Type {
	case config.BackendLocal:
		return backend.NewLocal(), nil
	case config.BackendMemory:
		return backend.NewMemory(), nil
	case config.BackendS3:
		b, err := remote.New(remote.Config{
			Endpoint:  cfg.S3.Endpoint,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			Prefix:    cfg.S3.Prefix,
			Timeout:   cfg.S3.Timeout,
		})
		if err != nil {
			return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to open s3 backend")
		}
		return b, nil
	}
	return nil, platformerrors.Newf(platformerrors.CodeInvalidConfig, "unknown backend type %q", cfg.Type)
}

// projectRoot makes a relative root absolute. The local backend anchors it
// to the working directory; other backends have none and anchor it to "/".
func projectRoot(root, backendType string) (string, error) {
	if filepath.IsAbs(root) {
		return root, nil
	}
	if backendType != config.BackendLocal {
		return path.Join("/", filepath.ToSlash(root)), nil
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return "", platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "failed to resolve project root")
	}
	return filepath.ToSlash(abs), nil
}

func hostOptions(cfg *config.Config, logger *slog.Logger) []host.Option {
	opts := []host.Option{host.WithLogger(logger)}
	if sensitive, ok := cfg.CaseSensitive(); ok {
		opts = append(opts, host.WithCaseSensitive(sensitive))
	}
	if cfg.DeviceID != 0 {
		opts = append(opts, host.WithDeviceID(cfg.DeviceID))
	}
	return opts
}

// Host returns the compiler host.
func (s *Session) Host() *host.Host { return s.host }

// Input returns the cached bundler input file system.
func (s *Session) Input() *inputfs.FS { return s.input }

// FileSystem returns the interceptor the bundler should read through.
func (s *Session) FileSystem() *intercept.FileSystem { return s.fs }

// Backend returns the real backend.
func (s *Session) Backend() core.ReadFS { return s.backend }

// Store returns the layered store.
func (s *Session) Store() *store.Store { return s.store }

// Logger returns the session logger.
func (s *Session) Logger() *slog.Logger { return s.logger }

// NextCycle ends a build cycle. It returns the paths that changed during
// the cycle, drops their cached bundler input results and resets the change
// tracker.
func (s *Session) NextCycle() []string {
	changed := s.host.ChangedFilePaths()
	if len(changed) > 0 {
		s.input.Purge(changed...)
	}
	s.host.ResetChangedFileTracker()

	s.logger.Debug("build cycle complete", "changed", len(changed))
	return changed
}

// GeneratedOutputs returns the system form of the virtual files matching
// the configured generated suffixes, or the factory and style outputs when
// none are configured.
func (s *Session) GeneratedOutputs() []string {
	if len(s.cfg.GeneratedSuffixes) == 0 {
		return s.host.FactoryOutputPaths()
	}
	return s.host.GeneratedOutputPaths(s.cfg.GeneratedSuffixes...)
}

// Close releases the log writer opened for the session.
func (s *Session) Close() error {
	return s.close()
}

func (s *Session) close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}
