// Package hosttest provides helpers for tests that need a compiler host over
// in-memory content.
package hosttest

import (
	"regexp"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/jmgilman/go/fs/billy"

	"github.com/jmgilman/go/buildfs/backend"
	"github.com/jmgilman/go/buildfs/host"
	"github.com/jmgilman/go/buildfs/store"
)

const (
	// BasePath is the project root of hosts created by New.
	BasePath = "/project/src/"

	// FileName is the path New writes the primary content to.
	FileName = BasePath + "test-file.ts"
)

var tsExt = regexp.MustCompile(`\.tsx?$`)

// Context bundles a host with the compiler options and real backend it was
// built with.
type Context struct {
	Host    *host.Host
	Backend *billy.MemoryFS
	Options host.CompilerOptions
}

// New creates a host rooted at BasePath over an empty memory backend and
// writes content to FileName. Each additional file is written relative to
// BasePath. The test fails immediately if the host cannot be created.
func New(tb testing.TB, content string, additional map[string]string, opts ...host.Option) *Context {
	tb.Helper()

	mem := backend.NewMemory()
	st, err := store.New(mem)
	if err != nil {
		tb.Fatalf("create store: %v", err)
	}

	h, err := host.New(BasePath, st, opts...)
	if err != nil {
		tb.Fatalf("create host: %v", err)
	}

	fail := func(message string) { tb.Fatalf("write test file: %s", message) }
	h.WriteFile(FileName, content, false, fail)
	for name, data := range additional {
		h.WriteFile(BasePath+name, data, false, fail)
	}

	return &Context{
		Host:    h,
		Backend: mem,
		Options: host.CompilerOptions{Target: host.ESNext},
	}
}

// Output returns the emitted JavaScript for FileName. It returns a
// CodeInvalidConfig error when c has no host and CodeNotFound when nothing
// was emitted.
func Output(c *Context) (string, error) {
	if c == nil || c.Host == nil {
		return "", platformerrors.New(platformerrors.CodeInvalidConfig, "output requires a context with a compiler host")
	}

	name := tsExt.ReplaceAllString(FileName, ".js")
	content, ok := c.Host.ReadFile(name)
	if !ok {
		return "", platformerrors.Newf(platformerrors.CodeNotFound, "no output emitted for %s", FileName)
	}
	return content, nil
}
