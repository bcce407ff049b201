package host

// CompilerHost is the fixed set of operations a compiler toolchain requires
// of its host. Module name resolution is not part of it; the toolchain
// performs that itself.
type CompilerHost interface {
	SourceFile(name string, version LanguageVersion, onError OnErrorFunc) *SourceFile
	WriteFile(name, data string, writeBOM bool, onError OnErrorFunc)
	DefaultLibFileName(opts CompilerOptions) string
	CurrentDirectory() string
	CanonicalFileName(name string) string
	UseCaseSensitiveFileNames() bool
	NewLine() string
	FileExists(name string) bool
	ReadFile(name string) (string, bool)
	DirectoryExists(name string) bool
	Directories(name string) []string
	Trace(message string)
}

// ResourceLoader fetches resource content such as templates and styles.
// It receives paths in system form.
type ResourceLoader interface {
	Get(systemPath string) (string, error)
}

// OnErrorFunc receives the message of a fault the host did not propagate.
type OnErrorFunc func(message string)

// CompilerOptions holds the compiler settings the host consults.
type CompilerOptions struct {
	// Target is the language version output is emitted for.
	Target LanguageVersion

	// LibDir is the directory holding the default library files. When empty
	// DefaultLibFileName returns a bare file name.
	LibDir string
}

// Compile-time interface checks.
var _ CompilerHost = (*Host)(nil)
