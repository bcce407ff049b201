package inputfs

import (
	"context"
	"errors"
	"io/fs"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/jmgilman/go/fs/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/buildfs/backend"
)

// countingBackend counts ReadFile and Stat calls on the wrapped backend.
type countingBackend struct {
	core.ReadFS
	reads atomic.Int64
	stats atomic.Int64
}

func (c *countingBackend) ReadFile(name string) ([]byte, error) {
	c.reads.Add(1)
	return c.ReadFS.ReadFile(name)
}

func (c *countingBackend) Stat(name string) (fs.FileInfo, error) {
	c.stats.Add(1)
	return c.ReadFS.Stat(name)
}

func newTestBackend(t *testing.T, files map[string]string) *backend.ReadOnly {
	t.Helper()

	bfs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(bfs, name, []byte(content), 0o644))
	}
	return backend.NewReadOnly(bfs)
}

func TestFS_ReadFileCached(t *testing.T) {
	counting := &countingBackend{ReadFS: newTestBackend(t, map[string]string{"/app/main.js": "main"})}
	f := New(counting)

	for i := 0; i < 3; i++ {
		data, err := f.ReadFileSync("/app/main.js")
		require.NoError(t, err)
		assert.Equal(t, "main", string(data))
	}
	assert.Equal(t, int64(1), counting.reads.Load())

	_, err := f.ReadFileSync("/app/missing.js")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	_, err = f.ReadFileSync("/app/missing.js")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.Equal(t, int64(2), counting.reads.Load())
}

func TestFS_Callbacks(t *testing.T) {
	f := New(newTestBackend(t, map[string]string{
		"/app/main.js":      "main",
		"/app/lib/util.js":  "util",
		"/app/package.json": `{"name": "app"}`,
	}))

	calls := 0
	f.ReadFile("/app/main.js", func(data []byte, err error) {
		calls++
		require.NoError(t, err)
		assert.Equal(t, "main", string(data))
	})
	f.Stat("/app/lib", func(info fs.FileInfo, err error) {
		calls++
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
	f.Readdir("/app", func(names []string, err error) {
		calls++
		require.NoError(t, err)
		assert.Equal(t, []string{"lib", "main.js", "package.json"}, names)
	})
	f.ReadJSON("/app/package.json", func(value any, err error) {
		calls++
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"name": "app"}, value)
	})
	assert.Equal(t, 4, calls)
}

func TestFS_ReadJSONC(t *testing.T) {
	f := New(newTestBackend(t, map[string]string{
		"/app/tsconfig.json": `{
			// compiler settings
			"compilerOptions": {
				"target": "es2017", /* emitted level */
				"strict": true,
			},
		}`,
		"/app/broken.json": `{"a": `,
	}))

	value, err := f.ReadJSONSync("/app/tsconfig.json")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"compilerOptions": map[string]any{"target": "es2017", "strict": true},
	}, value)

	_, err = f.ReadJSONSync("/app/broken.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing JSON")

	_, err = f.ReadJSONSync("/app/none.json")
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestFS_Readlink(t *testing.T) {
	bfs := memfs.New()
	require.NoError(t, util.WriteFile(bfs, "/app/main.js", []byte("main"), 0o644))
	require.NoError(t, bfs.Symlink("/app/main.js", "/app/link.js"))

	f := New(backend.NewReadOnly(bfs))
	target, err := f.ReadlinkSync("/app/link.js")
	require.NoError(t, err)
	assert.Equal(t, "/app/main.js", target)

	f.Readlink("/app/link.js", func(target string, err error) {
		require.NoError(t, err)
		assert.Equal(t, "/app/main.js", target)
	})
}

func TestFS_ReadlinkUnsupported(t *testing.T) {
	mem := backend.NewMemory()
	require.NoError(t, backend.Seed(mem, map[string]string{"/app/main.js": "main"}))

	// Hide every method but the read surface.
	f := New(struct{ core.ReadFS }{mem})
	_, err := f.ReadlinkSync("/app/main.js")
	assert.True(t, errors.Is(err, core.ErrUnsupported))
}

func TestFS_PurgePath(t *testing.T) {
	counting := &countingBackend{ReadFS: newTestBackend(t, map[string]string{
		"/app/a.js":     "a",
		"/app/b.js":     "b",
		"/app/sub/c.js": "c",
	})}
	f := New(counting)

	for _, p := range []string{"/app/a.js", "/app/b.js", "/app/sub/c.js"} {
		_, err := f.ReadFileSync(p)
		require.NoError(t, err)
	}
	require.Equal(t, int64(3), counting.reads.Load())

	f.Purge("/app/a.js")
	_, _ = f.ReadFileSync("/app/a.js")
	_, _ = f.ReadFileSync("/app/b.js")
	assert.Equal(t, int64(4), counting.reads.Load())

	f.Purge("/app/sub")
	_, _ = f.ReadFileSync("/app/sub/c.js")
	_, _ = f.ReadFileSync("/app/b.js")
	assert.Equal(t, int64(5), counting.reads.Load())
}

func TestFS_PurgeAll(t *testing.T) {
	counting := &countingBackend{ReadFS: newTestBackend(t, map[string]string{
		"/app/a.js": "a",
		"/app/b.js": "b",
	})}
	f := New(counting)

	_, _ = f.ReadFileSync("/app/a.js")
	_, _ = f.ReadFileSync("/app/b.js")
	_, _ = f.StatSync("/app/a.js")
	f.Purge()

	_, _ = f.ReadFileSync("/app/a.js")
	_, _ = f.ReadFileSync("/app/b.js")
	_, _ = f.StatSync("/app/a.js")
	assert.Equal(t, int64(4), counting.reads.Load())
	assert.Equal(t, int64(2), counting.stats.Load())
}

func TestFS_ConcurrentReads(t *testing.T) {
	counting := &countingBackend{ReadFS: newTestBackend(t, map[string]string{"/app/main.js": "main"})}
	f := New(counting)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := f.ReadFileSync("/app/main.js")
			assert.NoError(t, err)
			assert.Equal(t, "main", string(data))
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, counting.reads.Load(), int64(16))
	_, err := f.ReadFileSync("/app/main.js")
	require.NoError(t, err)
}

func TestFS_Warm(t *testing.T) {
	counting := &countingBackend{ReadFS: newTestBackend(t, map[string]string{
		"/app/a.js": "a",
		"/app/b.js": "b",
		"/app/c.js": "c",
	})}
	f := New(counting, WithConcurrency(2))

	require.NoError(t, f.Warm(context.Background(), "/app/a.js", "/app/b.js", "/app/c.js"))
	assert.Equal(t, int64(3), counting.reads.Load())

	data, err := f.ReadFileSync("/app/b.js")
	require.NoError(t, err)
	assert.Equal(t, "b", string(data))
	assert.Equal(t, int64(3), counting.reads.Load())

	err = f.Warm(context.Background(), "/app/a.js", "/app/missing.js")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

// gatedBackend holds the first ReadFile after reading until release is
// closed.
type gatedBackend struct {
	core.ReadFS
	held    atomic.Bool
	started chan struct{}
	release chan struct{}
}

func (g *gatedBackend) ReadFile(name string) ([]byte, error) {
	data, err := g.ReadFS.ReadFile(name)
	if g.held.CompareAndSwap(false, true) {
		close(g.started)
		<-g.release
	}
	return data, err
}

func TestFS_PurgeDuringLoad(t *testing.T) {
	bfs := memfs.New()
	require.NoError(t, util.WriteFile(bfs, "/app/a.ts", []byte("v1"), 0o644))
	gated := &gatedBackend{
		ReadFS:  backend.NewReadOnly(bfs),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := New(gated)

	first := make(chan string)
	go func() {
		data, _ := f.ReadFileSync("/app/a.ts")
		first <- string(data)
	}()
	<-gated.started

	require.NoError(t, util.WriteFile(bfs, "/app/a.ts", []byte("v2"), 0o644))
	f.Purge("/app/a.ts")

	data, err := f.ReadFileSync("/app/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data), "reads after a purge do not join the earlier load")

	close(gated.release)
	assert.Equal(t, "v1", <-first)

	data, err = f.ReadFileSync("/app/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestFS_PurgeAllDuringLoad(t *testing.T) {
	bfs := memfs.New()
	require.NoError(t, util.WriteFile(bfs, "/app/a.ts", []byte("v1"), 0o644))
	gated := &gatedBackend{
		ReadFS:  backend.NewReadOnly(bfs),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := New(gated)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.ReadFileSync("/app/a.ts")
	}()
	<-gated.started

	require.NoError(t, util.WriteFile(bfs, "/app/a.ts", []byte("v2"), 0o644))
	f.Purge()
	close(gated.release)
	<-done

	data, err := f.ReadFileSync("/app/a.ts")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}
