package host

import "log/slog"

// Option configures host creation.
type Option func(*Host)

// WithLogger sets the logger used for traces and dropped faults.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithDeviceID sets the device id reported by Stat. Without it a random id
// is chosen once when the host is created.
func WithDeviceID(dev uint64) Option {
	return func(h *Host) {
		h.dev = dev
		h.devSet = true
	}
}

// WithCaseSensitive overrides the case-sensitivity policy. By default file
// names are case-insensitive exactly on Windows.
func WithCaseSensitive(sensitive bool) Option {
	return func(h *Host) {
		h.caseSensitive = sensitive
	}
}

// WithWindowsPaths selects Windows system-form paths (drive letters and
// backslashes) for Denormalize. Defaults to the running platform.
func WithWindowsPaths(windows bool) Option {
	return func(h *Host) {
		h.windows = windows
	}
}

// WithParser replaces the function used to build source files.
func WithParser(parse ParseFunc) Option {
	return func(h *Host) {
		if parse != nil {
			h.parse = parse
		}
	}
}

// WithResourceLoader installs a resource loader at creation time.
func WithResourceLoader(loader ResourceLoader) Option {
	return func(h *Host) {
		h.loader = loader
	}
}
